package github

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

const (
	defaultCodeURL  = "https://github.com/login/device/code"
	defaultTokenURL = "https://github.com/login/oauth/access_token"

	// Scopes requested for a wizard login: repo creation plus profile/email.
	deviceFlowScope = "repo user"
)

// ErrDeviceCodeExpired is returned when polling outlives the server-declared
// lifetime of the device code.
var ErrDeviceCodeExpired = errors.New("device code expired")

// DeviceCode is the code pair handed out at the start of the flow. UserCode
// and VerificationURI are shown to the user; DeviceCode is polled with.
type DeviceCode struct {
	DeviceCode      string `json:"device_code"`
	UserCode        string `json:"user_code"`
	VerificationURI string `json:"verification_uri"`
	ExpiresIn       int    `json:"expires_in"`
	Interval        int    `json:"interval"`
}

// DeviceToken is a granted access token.
type DeviceToken struct {
	AccessToken string
	TokenType   string
	Scopes      []string
}

// SleepFunc waits for d or until ctx is done. Injectable so tests can
// record waits instead of taking them.
type SleepFunc func(ctx context.Context, d time.Duration) error

func defaultSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return errors.Errorf("waiting between polls: %w", ctx.Err())
	}
}

// DeviceFlow drives the OAuth device-authorization flow against github.com.
// These endpoints live outside the REST API base, so they are called
// directly rather than through the API client.
type DeviceFlow struct {
	ClientID   string
	HTTPClient *http.Client
	CodeURL    string
	TokenURL   string
	Sleep      SleepFunc
	Now        func() time.Time
}

// NewDeviceFlow creates a flow for the given OAuth app client id.
func NewDeviceFlow(clientID string) *DeviceFlow {
	return &DeviceFlow{
		ClientID:   clientID,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		CodeURL:    defaultCodeURL,
		TokenURL:   defaultTokenURL,
		Sleep:      defaultSleep,
		Now:        time.Now,
	}
}

// RequestCode asks the server for a device/user code pair.
func (f *DeviceFlow) RequestCode(ctx context.Context) (DeviceCode, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Msg("requesting device code")

	form := url.Values{
		"client_id": {f.ClientID},
		"scope":     {deviceFlowScope},
	}

	var code DeviceCode
	if err := f.postForm(ctx, f.CodeURL, form, &code); err != nil {
		return DeviceCode{}, errors.Errorf("requesting device code: %w", err)
	}
	if code.DeviceCode == "" || code.UserCode == "" || code.VerificationURI == "" {
		return DeviceCode{}, errors.Errorf("device code response is incomplete: %w", ErrMalformed)
	}
	if code.Interval <= 0 {
		code.Interval = 5
	}
	return code, nil
}

// pollResponse is the union shape of the token endpoint's answers.
type pollResponse struct {
	AccessToken      string `json:"access_token"`
	TokenType        string `json:"token_type"`
	Scope            string `json:"scope"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Interval         int    `json:"interval"`
}

// PollToken polls the token endpoint until the user authorizes, the server
// rejects, or the device code expires. authorization_pending retries after
// the current interval; slow_down adopts the server's updated interval.
func (f *DeviceFlow) PollToken(ctx context.Context, code DeviceCode) (DeviceToken, error) {
	logger := zerolog.Ctx(ctx)

	interval := time.Duration(code.Interval) * time.Second
	deadline := f.Now().Add(time.Duration(code.ExpiresIn) * time.Second)

	form := url.Values{
		"client_id":   {f.ClientID},
		"device_code": {code.DeviceCode},
		"grant_type":  {"urn:ietf:params:oauth:grant-type:device_code"},
	}

	for {
		var pr pollResponse
		if err := f.postForm(ctx, f.TokenURL, form, &pr); err != nil {
			return DeviceToken{}, errors.Errorf("polling for token: %w", err)
		}

		switch pr.Error {
		case "":
			if pr.AccessToken == "" {
				return DeviceToken{}, errors.Errorf("token response has no access token: %w", ErrMalformed)
			}
			return DeviceToken{
				AccessToken: pr.AccessToken,
				TokenType:   pr.TokenType,
				Scopes:      splitScopes(pr.Scope),
			}, nil

		case "authorization_pending":
			logger.Debug().Dur("interval", interval).Msg("authorization pending")

		case "slow_down":
			if pr.Interval > 0 {
				interval = time.Duration(pr.Interval) * time.Second
			}
			logger.Debug().Dur("interval", interval).Msg("server asked to slow down")

		default:
			return DeviceToken{}, errors.Errorf("device flow rejected: %s: %s", pr.Error, pr.ErrorDescription)
		}

		if code.ExpiresIn > 0 && f.Now().Add(interval).After(deadline) {
			return DeviceToken{}, errors.Errorf("giving up after %ds: %w", code.ExpiresIn, ErrDeviceCodeExpired)
		}
		if err := f.Sleep(ctx, interval); err != nil {
			return DeviceToken{}, err
		}
	}
}

func (f *DeviceFlow) postForm(ctx context.Context, endpoint string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return errors.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return errors.Errorf("posting form: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errors.Errorf("decoding response: %w", err)
	}
	return nil
}

// splitScopes splits the granted scope string on ":" and drops empties.
func splitScopes(scope string) []string {
	var scopes []string
	for _, s := range strings.Split(scope, ":") {
		if s != "" {
			scopes = append(scopes, s)
		}
	}
	return scopes
}
