package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Client calls the identity provider's admin REST API. Admin-API tokens are
// obtained through the OAuth2 client-credentials grant and refreshed by the
// token source as they expire.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
}

// NewClient builds a Client. timeout bounds every admin API call; the
// underlying token exchange uses the same HTTP client.
func NewClient(baseURL, tokenURL, clientID, clientSecret string, timeout time.Duration) *Client {
	base := &http.Client{Timeout: timeout}

	cc := clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
	}

	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    cc.Client(ctx),
		timeout: timeout,
	}
}

type createUserRequest struct {
	Email        string            `json:"email"`
	Password     string            `json:"password"`
	EmailConfirm bool              `json:"email_confirm"`
	Metadata     map[string]string `json:"user_metadata,omitempty"`
}

type userRecord struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (c *Client) CreateUser(ctx context.Context, email, password string, metadata map[string]string) (string, error) {
	body, err := json.Marshal(createUserRequest{
		Email:        email,
		Password:     password,
		EmailConfirm: true,
		Metadata:     metadata,
	})
	if err != nil {
		return "", fmt.Errorf("identity.CreateUser: marshal: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/admin/users", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("identity.CreateUser: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("identity.CreateUser: %w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		var u userRecord
		if decodeErr := json.NewDecoder(resp.Body).Decode(&u); decodeErr != nil {
			return "", fmt.Errorf("identity.CreateUser: decode: %w", decodeErr)
		}
		if u.ID == "" {
			return "", fmt.Errorf("identity.CreateUser: provider returned no user id")
		}
		return u.ID, nil
	case resp.StatusCode == http.StatusConflict || resp.StatusCode == http.StatusUnprocessableEntity:
		return "", fmt.Errorf("identity.CreateUser: %w", ErrEmailTaken)
	case resp.StatusCode >= 500:
		return "", fmt.Errorf("identity.CreateUser: %w: status %d", ErrUnavailable, resp.StatusCode)
	default:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return "", fmt.Errorf("identity.CreateUser: status %d: %s", resp.StatusCode, snippet)
	}
}

func (c *Client) GetUserByEmail(ctx context.Context, email string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := c.baseURL + "/admin/users?email=" + url.QueryEscape(email)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", false, fmt.Errorf("identity.GetUserByEmail: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", false, fmt.Errorf("identity.GetUserByEmail: %w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return "", false, fmt.Errorf("identity.GetUserByEmail: %w: status %d", ErrUnavailable, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return "", false, fmt.Errorf("identity.GetUserByEmail: status %d", resp.StatusCode)
	}

	var out struct {
		Users []userRecord `json:"users"`
	}
	if decodeErr := json.NewDecoder(resp.Body).Decode(&out); decodeErr != nil {
		return "", false, fmt.Errorf("identity.GetUserByEmail: decode: %w", decodeErr)
	}

	for _, rec := range out.Users {
		if strings.EqualFold(rec.Email, email) {
			return rec.ID, true, nil
		}
	}

	return "", false, nil
}
