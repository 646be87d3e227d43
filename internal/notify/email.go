package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPEmailSender posts messages to the delivery provider's JSON API. The
// provider's retry/bounce handling is its own concern; we only hand off.
type HTTPEmailSender struct {
	providerURL string
	apiKey      string
	from        string
	http        *http.Client
}

func NewHTTPEmailSender(providerURL, apiKey, from string, timeout time.Duration) *HTTPEmailSender {
	return &HTTPEmailSender{
		providerURL: providerURL,
		apiKey:      apiKey,
		from:        from,
		http:        &http.Client{Timeout: timeout},
	}
}

type emailPayload struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

func (s *HTTPEmailSender) Send(ctx context.Context, to, subject, body string) error {
	payload, err := json.Marshal(emailPayload{
		From:    s.from,
		To:      to,
		Subject: subject,
		Text:    body,
	})
	if err != nil {
		return fmt.Errorf("notify.HTTPEmailSender.Send: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.providerURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("notify.HTTPEmailSender.Send: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("notify.HTTPEmailSender.Send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("notify.HTTPEmailSender.Send: provider returned %d", resp.StatusCode)
	}

	return nil
}
