// Package gitlab looks up GitLab accounts by username. The wizard only
// needs one read-only endpoint, so this is a thin client over the public
// REST API rather than a full SDK.
package gitlab

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

const defaultBaseURL = "https://gitlab.com"

// Client queries the GitLab REST API anonymously.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a client against gitlab.com.
func NewClient() *Client {
	return &Client{
		BaseURL:    defaultBaseURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// LookupUser reports whether an account with exactly this username exists.
// The users endpoint treats the username parameter as an exact match, so
// the first entry is the account or there is none.
func (c *Client) LookupUser(ctx context.Context, username string) (string, bool, error) {
	if username == "" {
		return "", false, errors.New("username is required")
	}

	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("username", username).Msg("looking up GitLab user")

	endpoint := c.BaseURL + "/api/v4/users?username=" + url.QueryEscape(username)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", false, errors.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", false, errors.Errorf("querying users: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", false, errors.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", false, errors.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var users []struct {
		Username string `json:"username"`
	}
	if err := json.Unmarshal(body, &users); err != nil {
		return "", false, errors.Errorf("decoding users: %w", err)
	}
	if len(users) == 0 || users[0].Username == "" {
		return "", false, nil
	}
	return users[0].Username, true, nil
}
