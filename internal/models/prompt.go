package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PromptRequest is one prompt submission and its AI response, stored in
// MongoDB. Rows are immutable once inserted.
type PromptRequest struct {
	ID        primitive.ObjectID `json:"id"        bson:"_id,omitempty"`
	UserID    string             `json:"userId"    bson:"user_id"`
	ToolID    string             `json:"toolId"    bson:"tool_id"`
	Prompt    string             `json:"prompt"    bson:"prompt"`
	Response  string             `json:"response"  bson:"response"`
	CreatedAt time.Time          `json:"createdAt" bson:"created_at"`
}

// Tool describes one entry in the fixed tool catalog.
type Tool struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Description       string `json:"description"`
	Icon              string `json:"icon"`
	PlaceholderPrompt string `json:"placeholderPrompt"`
}

// SubmitPromptRequest is the JSON body for POST /api/tools/{id}/prompt.
type SubmitPromptRequest struct {
	Prompt string `json:"prompt"`
}

// DayCount is one bucket of the daily usage histogram.
type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// UsageStats is the response of GET /api/stats/usage.
type UsageStats struct {
	DailyUsage    []DayCount `json:"dailyUsage"`
	TotalRequests int64      `json:"totalRequests"`
	RequestsToday int64      `json:"requestsToday"`
	RequestLimit  int        `json:"requestLimit"`
}
