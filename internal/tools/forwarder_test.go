package tools

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBuildPrompt_WrapsInput(t *testing.T) {
	t.Parallel()

	for _, toolID := range []string{ToolExplainCode, ToolFixBug, ToolGenerateRegex} {
		p, err := buildPrompt(toolID, "THE-RAW-INPUT")
		require.NoError(t, err)
		require.Contains(t, p, "THE-RAW-INPUT")
		require.Greater(t, len(p), len("THE-RAW-INPUT"), "template must add framing")
	}
}

func TestBuildPrompt_UnknownTool(t *testing.T) {
	t.Parallel()

	_, err := buildPrompt("unknown-tool", "x")
	require.ErrorIs(t, err, ErrUnknownTool)
}

func TestProcess_UnknownToolIsHardError(t *testing.T) {
	t.Parallel()

	f := NewForwarder("key", "https://site", "Site", discardLogger())
	_, err := f.Process(context.Background(), "unknown-tool", "x")
	require.ErrorIs(t, err, ErrUnknownTool)
}

func TestProcess_MissingKeyFallsBack(t *testing.T) {
	t.Parallel()

	f := NewForwarder("", "https://site", "Site", discardLogger())
	resp, err := f.Process(context.Background(), ToolExplainCode, "code")
	require.NoError(t, err)
	require.Equal(t, fallbackResponse, resp)
}

func TestProcess_UpstreamSuccess(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, completionsPath, r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.Equal(t, "https://site", r.Header.Get("Referer"))

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, completionModel, req.Model)
		require.Len(t, req.Messages, 2)
		require.Equal(t, "system", req.Messages[0].Role)
		require.Contains(t, req.Messages[1].Content, "my snippet")

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": "the explanation"}},
			},
		})
	}))
	defer srv.Close()

	f := NewForwarderWithBaseURL(srv.URL, "test-key", "https://site", "Site", discardLogger())
	resp, err := f.Process(context.Background(), ToolExplainCode, "my snippet")
	require.NoError(t, err)
	require.Equal(t, "the explanation", resp)
}

func TestProcess_UpstreamErrorFallsBack(t *testing.T) {
	t.Parallel()

	cases := map[string]http.HandlerFunc{
		"server error": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		},
		"rate limited": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "slow down", http.StatusTooManyRequests)
		},
		"empty completion": func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
		},
		"garbage body": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		},
	}

	for name, handler := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(handler)
			defer srv.Close()

			f := NewForwarderWithBaseURL(srv.URL, "test-key", "https://site", "Site", discardLogger())
			resp, err := f.Process(context.Background(), ToolFixBug, "code")
			require.NoError(t, err)
			require.Equal(t, fallbackResponse, resp)
		})
	}
}

func TestProcess_TransportErrorFallsBack(t *testing.T) {
	t.Parallel()

	// Nothing is listening here.
	f := NewForwarderWithBaseURL("http://127.0.0.1:1", "test-key", "https://site", "Site", discardLogger())
	resp, err := f.Process(context.Background(), ToolGenerateRegex, "match emails")
	require.NoError(t, err)
	require.Equal(t, fallbackResponse, resp)
}
