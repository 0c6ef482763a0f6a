package mail

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSend2FACode_Payload(t *testing.T) {
	t.Parallel()

	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1.0/email/send", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewEmailJSClientWithBaseURL(srv.URL, "svc-1", "tpl-1", "pub-1")
	require.NoError(t, c.Send2FACode(context.Background(), "alice@example.com", "123456"))

	require.Equal(t, "svc-1", got["service_id"])
	require.Equal(t, "tpl-1", got["template_id"])
	require.Equal(t, "pub-1", got["user_id"])

	params := got["template_params"].(map[string]any)
	require.Equal(t, "alice@example.com", params["to_email"])
	require.Equal(t, "123456", params["code"])
}

func TestSend2FACode_UpstreamError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad template", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	c := NewEmailJSClientWithBaseURL(srv.URL, "svc-1", "tpl-1", "pub-1")
	err := c.Send2FACode(context.Background(), "alice@example.com", "123456")
	require.Error(t, err)
	require.Contains(t, err.Error(), "422")
}
