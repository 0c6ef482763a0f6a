// Package tools implements the prompt tool catalog, the daily quota gate,
// and the forwarding of prompts to the upstream completion API.
package tools

import (
	"errors"

	"github.com/promptforge/backend/internal/models"
)

// Tool ids. The set is fixed; unknown ids are rejected before any prompt
// leaves the service.
const (
	ToolExplainCode   = "explain-code"
	ToolFixBug        = "fix-bug"
	ToolGenerateRegex = "generate-regex"
)

var ErrUnknownTool = errors.New("unknown tool")

// Catalog is the fixed set of tools exposed by GET /api/tools.
var Catalog = []models.Tool{
	{
		ID:                ToolExplainCode,
		Name:              "Explain Code",
		Description:       "Get a clear explanation of what your code does",
		Icon:              "code",
		PlaceholderPrompt: "function calculateTotal(items) {\n  return items.reduce((sum, item) => sum + item.price, 0);\n}",
	},
	{
		ID:                ToolFixBug,
		Name:              "Fix Bug",
		Description:       "Identify and fix issues in your code",
		Icon:              "bug",
		PlaceholderPrompt: "function sortArray(arr) {\n  for(let i = 0; i < arr.length; i++) {\n    for(let j = 0; j < arr.length; j++) {\n      if(arr[i] < arr[j]) {\n        let temp = arr[i];\n        arr[i] = arr[j];\n        arr[j] = temp;\n      }\n    }\n  }\n}",
	},
	{
		ID:                ToolGenerateRegex,
		Name:              "Generate Regex",
		Description:       "Create regular expressions for your needs",
		Icon:              "code-2",
		PlaceholderPrompt: "Create a regex to validate email addresses",
	},
}

// FindTool returns the catalog entry for id.
func FindTool(id string) (*models.Tool, bool) {
	for i := range Catalog {
		if Catalog[i].ID == id {
			return &Catalog[i], true
		}
	}
	return nil, false
}
