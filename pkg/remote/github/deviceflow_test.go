package github

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testFlow wires a DeviceFlow to a scripted token endpoint and records
// every wait instead of sleeping.
func testFlow(t *testing.T, tokenResponses ...string) (*DeviceFlow, *[]time.Duration) {
	t.Helper()

	var mu sync.Mutex
	next := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/login/device/code", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm(), "code request should carry a form body")
		assert.Equal(t, "application/json", r.Header.Get("Accept"), "code request should ask for JSON")
		assert.Equal(t, "test-client", r.FormValue("client_id"), "code request should carry the client id")
		assert.Equal(t, "repo user", r.FormValue("scope"), "code request should ask for repo and user scopes")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"device_code":"dev-123","user_code":"ABCD-1234","verification_uri":"https://github.com/login/device","expires_in":900,"interval":5}`)
	})
	mux.HandleFunc("/login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm(), "token request should carry a form body")
		assert.Equal(t, "application/json", r.Header.Get("Accept"), "token request should ask for JSON")
		assert.Equal(t, "dev-123", r.FormValue("device_code"), "token request should echo the device code")
		assert.Equal(t, "urn:ietf:params:oauth:grant-type:device_code", r.FormValue("grant_type"), "token request should use the device grant")

		mu.Lock()
		i := next
		if i >= len(tokenResponses) {
			i = len(tokenResponses) - 1
		}
		next++
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, tokenResponses[i])
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	var sleeps []time.Duration
	flow := NewDeviceFlow("test-client")
	flow.HTTPClient = server.Client()
	flow.CodeURL = server.URL + "/login/device/code"
	flow.TokenURL = server.URL + "/login/oauth/access_token"
	flow.Sleep = func(ctx context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return nil
	}
	return flow, &sleeps
}

func TestRequestCode(t *testing.T) {
	flow, _ := testFlow(t, `{}`)

	code, err := flow.RequestCode(context.Background())
	require.NoError(t, err, "code request should succeed")
	assert.Equal(t, "dev-123", code.DeviceCode)
	assert.Equal(t, "ABCD-1234", code.UserCode)
	assert.Equal(t, "https://github.com/login/device", code.VerificationURI)
	assert.Equal(t, 900, code.ExpiresIn)
	assert.Equal(t, 5, code.Interval)
}

func TestRequestCodeRejectsIncompleteResponse(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"device_code":"dev-123"}`)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	flow := NewDeviceFlow("test-client")
	flow.HTTPClient = server.Client()
	flow.CodeURL = server.URL

	_, err := flow.RequestCode(context.Background())
	require.Error(t, err, "a response without a user code is useless")
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestPollTokenWaitsThroughPending(t *testing.T) {
	flow, sleeps := testFlow(t,
		`{"error":"authorization_pending"}`,
		`{"error":"authorization_pending"}`,
		`{"access_token":"gho_abc123","token_type":"bearer","scope":"repo:user"}`,
	)

	code, err := flow.RequestCode(context.Background())
	require.NoError(t, err)

	token, err := flow.PollToken(context.Background(), code)
	require.NoError(t, err, "polling should outlast pending answers")
	assert.Equal(t, "gho_abc123", token.AccessToken)
	assert.Equal(t, "bearer", token.TokenType)
	assert.Equal(t, []string{"repo", "user"}, token.Scopes, "scope string should split on colons")
	assert.Equal(t, []time.Duration{5 * time.Second, 5 * time.Second}, *sleeps,
		"each pending answer should wait one interval")
}

func TestPollTokenAdoptsSlowDownInterval(t *testing.T) {
	flow, sleeps := testFlow(t,
		`{"error":"slow_down","interval":10}`,
		`{"access_token":"gho_abc123","token_type":"bearer","scope":""}`,
	)

	code, err := flow.RequestCode(context.Background())
	require.NoError(t, err)

	token, err := flow.PollToken(context.Background(), code)
	require.NoError(t, err, "slow_down is a retry, not a failure")
	assert.Empty(t, token.Scopes, "empty scope should yield no scopes")
	assert.Equal(t, []time.Duration{10 * time.Second}, *sleeps,
		"the server's larger interval should be adopted")
}

func TestPollTokenSlowDownKeepsIntervalWhenServerOmitsIt(t *testing.T) {
	flow, sleeps := testFlow(t,
		`{"error":"slow_down"}`,
		`{"access_token":"gho_abc123","token_type":"bearer","scope":"repo"}`,
	)

	code, err := flow.RequestCode(context.Background())
	require.NoError(t, err)

	_, err = flow.PollToken(context.Background(), code)
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{5 * time.Second}, *sleeps,
		"a slow_down without an interval should keep the current one")
}

func TestPollTokenStopsOnDenial(t *testing.T) {
	flow, sleeps := testFlow(t,
		`{"error":"access_denied","error_description":"The user has denied your application access."}`,
	)

	code, err := flow.RequestCode(context.Background())
	require.NoError(t, err)

	_, err = flow.PollToken(context.Background(), code)
	require.Error(t, err, "denial should stop polling")
	assert.Contains(t, err.Error(), "access_denied")
	assert.Contains(t, err.Error(), "denied your application")
	assert.Empty(t, *sleeps, "denial should not wait again")
}

func TestPollTokenGivesUpWhenCodeExpires(t *testing.T) {
	flow, _ := testFlow(t, `{"error":"authorization_pending"}`)

	code, err := flow.RequestCode(context.Background())
	require.NoError(t, err)
	code.ExpiresIn = 1

	_, err = flow.PollToken(context.Background(), code)
	require.Error(t, err, "polling past the code lifetime should fail")
	assert.ErrorIs(t, err, ErrDeviceCodeExpired)
}

func TestPollTokenRejectsEmptyToken(t *testing.T) {
	flow, _ := testFlow(t, `{"access_token":"","token_type":"bearer"}`)

	code, err := flow.RequestCode(context.Background())
	require.NoError(t, err)

	_, err = flow.PollToken(context.Background(), code)
	require.Error(t, err, "a grant without a token is malformed")
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestSplitScopes(t *testing.T) {
	tests := []struct {
		name  string
		scope string
		want  []string
	}{
		{name: "two_scopes", scope: "repo:user", want: []string{"repo", "user"}},
		{name: "single", scope: "repo", want: []string{"repo"}},
		{name: "empty", scope: "", want: nil},
		{name: "stray_colons", scope: ":repo::user:", want: []string{"repo", "user"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitScopes(tt.scope), "scopes should split on colons, dropping empties")
		})
	}
}
