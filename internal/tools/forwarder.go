package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	openRouterBaseURL = "https://openrouter.ai"
	completionsPath   = "/api/v1/chat/completions"
	completionModel   = "deepseek/deepseek-r1:free"
	systemPrompt      = "You are an expert developer assistant."

	// Returned whenever the upstream service cannot produce a real answer.
	// The caller still gets a 200; the failure class is only visible in logs.
	fallbackResponse = "AI service unavailable. Please provide a valid API key to get real results."
)

// Forwarder wraps a tool prompt in its template and relays it to the
// OpenRouter completion API. Its Process contract never fails on upstream
// trouble: any missing credential, transport error, bad status, or empty
// completion degrades to a fixed placeholder string.
type Forwarder struct {
	apiKey     string
	siteURL    string
	siteName   string
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

func NewForwarder(apiKey, siteURL, siteName string, log *slog.Logger) *Forwarder {
	return &Forwarder{
		apiKey:     apiKey,
		siteURL:    siteURL,
		siteName:   siteName,
		baseURL:    openRouterBaseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		log:        log,
	}
}

// NewForwarderWithBaseURL is used by tests to point at a local server.
func NewForwarderWithBaseURL(baseURL, apiKey, siteURL, siteName string, log *slog.Logger) *Forwarder {
	f := NewForwarder(apiKey, siteURL, siteName, log)
	f.baseURL = strings.TrimRight(baseURL, "/")
	return f
}

// Process returns the AI response for a prompt, or the fallback string on
// any upstream failure. The only error it returns is ErrUnknownTool.
func (f *Forwarder) Process(ctx context.Context, toolID, prompt string) (string, error) {
	content, err := buildPrompt(toolID, prompt)
	if err != nil {
		return "", err
	}

	if f.apiKey == "" {
		f.log.Warn("prompt forwarder degraded", "reason", "missing api key", "tool", toolID)
		return fallbackResponse, nil
	}

	resp, err := f.complete(ctx, content)
	if err != nil {
		f.log.Warn("prompt forwarder degraded", "reason", "upstream failure", "tool", toolID, "err", err)
		return fallbackResponse, nil
	}
	return resp, nil
}

func (f *Forwarder) complete(ctx context.Context, content string) (string, error) {
	body, _ := json.Marshal(map[string]any{
		"model": completionModel,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": content},
		},
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		f.baseURL+completionsPath, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+f.apiKey)
	req.Header.Set("Referer", f.siteURL)
	req.Header.Set("X-Title", f.siteName)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("openrouter %s: %w", completionsPath, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("openrouter %s returned %d: %s", completionsPath, resp.StatusCode, string(raw))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("openrouter %s: decode: %w", completionsPath, err)
	}
	if len(result.Choices) == 0 || result.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("openrouter %s: empty completion", completionsPath)
	}
	return result.Choices[0].Message.Content, nil
}

// buildPrompt wraps the user's raw input in the tool's instruction framing.
func buildPrompt(toolID, input string) (string, error) {
	switch toolID {
	case ToolExplainCode:
		return fmt.Sprintf(`You are an expert software engineer and technical writer. Provide a comprehensive, step-by-step explanation of the following code snippet. Cover:

1. **Overall Purpose**: What problem does it solve?
2. **Key Components**: Describe each function, variable, and control flow.
3. **Behavior**: How data moves through the code.
4. **Edge Cases & Improvements**: Potential pitfalls and suggestions for optimization.

`+"```"+`
%s
`+"```"+`

Be concise but thorough, using bullet points and code examples where helpful.`, input), nil

	case ToolFixBug:
		return fmt.Sprintf(`You are a seasoned developer and code review expert. Analyze the following code, identify any bugs, logical errors, or poor practices, and provide:

1. **List of Issues**: Numbered list explaining each defect or anti-pattern.
2. **Corrected Code**: A clean, refactored version with comments.
3. **Rationale**: Brief explanation of why each change improves the code.

Original Code:
`+"```"+`
%s
`+"```"+`

Please ensure the fixed version maintains original functionality but follows best practices and robust error handling.`, input), nil

	case ToolGenerateRegex:
		return fmt.Sprintf(`You are a regex architect and educator. Craft a regular expression to satisfy the following requirements:

1. **Pattern Description**: A human-readable summary of what it matches.
2. **Regex Pattern**: The final expression enclosed in `+"`/…/`"+` or as a string literal.
3. **Component Breakdown**: Explain each part of the pattern.
4. **Test Examples**: Provide at least three examples that match and three that do not.

Requirement:
%s

Ensure the regex is efficient and broadly compatible.`, input), nil

	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, toolID)
	}
}
