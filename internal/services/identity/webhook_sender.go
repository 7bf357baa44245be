// File: internal/services/identity/webhook_sender.go
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// WebhookSender posts passcodes to an external delivery endpoint, typically
// a mail gateway. The endpoint owns formatting and delivery.
type WebhookSender struct {
	url    string
	apiKey string
	client *http.Client
	logger Logger
}

func NewWebhookSender(url, apiKey string, timeout time.Duration, logger Logger) (*WebhookSender, error) {
	if url == "" {
		return nil, errors.New("webhook URL cannot be empty")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookSender{
		url:    url,
		apiKey: apiKey,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}, nil
}

func (s *WebhookSender) SendLoginCode(ctx context.Context, email, code string) error {
	payload := map[string]string{
		"email": email,
		"code":  code,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return NewSendOtpError("send_login_code", "could not encode payload", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return NewSendOtpError("send_login_code", "could not build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("X-API-KEY", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return NewSendOtpError("send_login_code", "delivery request failed", err)
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return NewRateLimitError("send_login_code", "delivery endpoint is throttling")
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return NewSendOtpError("send_login_code",
			fmt.Sprintf("delivery endpoint returned status %d", resp.StatusCode), nil)
	}

	s.logger.Info("login code dispatched", "email", maskEmail(email), "status", resp.StatusCode)
	return nil
}
