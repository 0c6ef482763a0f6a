// Package mail delivers transactional email through the EmailJS HTTP API.
package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const defaultBaseURL = "https://api.emailjs.com"

// EmailJSClient sends templated mail via api.emailjs.com.
type EmailJSClient struct {
	baseURL    string
	serviceID  string
	templateID string
	publicKey  string
	httpClient *http.Client
}

func NewEmailJSClient(serviceID, templateID, publicKey string) *EmailJSClient {
	return &EmailJSClient{
		baseURL:    defaultBaseURL,
		serviceID:  serviceID,
		templateID: templateID,
		publicKey:  publicKey,
		httpClient: &http.Client{},
	}
}

// NewEmailJSClientWithBaseURL is used by tests to point at a local server.
func NewEmailJSClientWithBaseURL(baseURL, serviceID, templateID, publicKey string) *EmailJSClient {
	c := NewEmailJSClient(serviceID, templateID, publicKey)
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

// Send2FACode emails a one-time login code to the given address.
func (c *EmailJSClient) Send2FACode(ctx context.Context, toEmail, code string) error {
	payload, _ := json.Marshal(map[string]any{
		"service_id":  c.serviceID,
		"template_id": c.templateID,
		"user_id":     c.publicKey,
		"template_params": map[string]string{
			"to_email": toEmail,
			"code":     code,
		},
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/v1.0/email/send", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("emailjs request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("emailjs send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("emailjs send returned %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
