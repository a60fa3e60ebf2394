// Package auth manages the Gmail OAuth2 access token lifecycle.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"github.com/mkharitonov/gmailcal-mcp/internal/config"
)

// ErrTokenNotSet indicates no access token has been obtained yet.
var ErrTokenNotSet = errors.New("no token defined")

// expiryBuffer is subtracted from expires_in so a token is refreshed slightly
// before Google considers it expired.
const expiryBuffer = 60 * time.Second

// Doer issues HTTP requests. Satisfied by *http.Client.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RefreshRecorder counts token refresh outcomes.
type RefreshRecorder interface {
	RecordTokenRefresh(result string)
}

// AuthError reports a failed token refresh: a non-2xx response from the token
// endpoint or an unparseable success body.
type AuthError struct {
	Status int
	Body   string
	Reason string
}

func (e *AuthError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("failed to refresh token: status %d: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("failed to parse token response: %s", e.Reason)
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// TokenManager owns an access token and refreshes it lazily through the OAuth2
// refresh_token grant. Safe for concurrent use; overlapping refreshes collapse
// into a single in-flight request.
type TokenManager struct {
	mu    sync.Mutex
	group singleflight.Group

	httpc   Doer
	log     *zap.Logger
	metrics RefreshRecorder

	clientID     string
	clientSecret string
	refreshToken string
	tokenURL     string
	now          func() time.Time

	accessToken string
	expiry      time.Time
}

// NewTokenManager creates a manager from cfg. With an initial access token the
// expiry is cfg.TokenExpiry from now; otherwise the first GetToken call
// refreshes immediately.
func NewTokenManager(cfg *config.Config, httpc Doer, log *zap.Logger) *TokenManager {
	m := &TokenManager{
		httpc:        httpc,
		log:          log,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		refreshToken: cfg.RefreshToken,
		tokenURL:     config.OAuthTokenURL,
		now:          time.Now,
	}

	m.accessToken = cfg.AccessToken
	if cfg.AccessToken != "" {
		m.expiry = m.now().Add(cfg.TokenExpiry)
	} else {
		m.expiry = m.now()
	}

	return m
}

// SetMetrics attaches a refresh outcome recorder.
func (m *TokenManager) SetMetrics(rec RefreshRecorder) {
	m.metrics = rec
}

// GetToken returns a currently valid bearer token, refreshing it first when
// absent or expired. The fast path performs no I/O.
func (m *TokenManager) GetToken(ctx context.Context) (string, error) {
	m.mu.Lock()
	valid := m.accessToken != "" && m.now().Before(m.expiry)
	tok := m.accessToken
	m.mu.Unlock()

	m.log.Debug("token status check",
		zap.Bool("have_token", tok != ""),
		zap.Bool("valid", valid),
	)

	if valid {
		return tok, nil
	}

	v, err, _ := m.group.Do("refresh", func() (any, error) {
		// A concurrent caller may have finished a refresh while this one
		// waited on the flight group.
		m.mu.Lock()
		if m.accessToken != "" && m.now().Before(m.expiry) {
			cur := m.accessToken
			m.mu.Unlock()
			return cur, nil
		}
		m.mu.Unlock()

		return m.refresh(ctx)
	})
	if err != nil {
		return "", err
	}

	return v.(string), nil
}

func (m *TokenManager) refresh(ctx context.Context) (string, error) {
	m.log.Debug("refreshing OAuth token",
		zap.String("url", m.tokenURL),
		zap.String("client_id", Mask(m.clientID)),
		zap.String("refresh_token", Mask(m.refreshToken)),
	)

	form := url.Values{
		"client_id":     {m.clientID},
		"client_secret": {m.clientSecret},
		"refresh_token": {m.refreshToken},
		"grant_type":    {"refresh_token"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("http.NewRequestWithContext failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.httpc.Do(req)
	if err != nil {
		m.record("network_error")
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		m.record("network_error")
		return "", fmt.Errorf("reading token response failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		m.record("auth_error")
		m.log.Error("token refresh failed",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)),
		)
		return "", &AuthError{Status: resp.StatusCode, Body: string(body)}
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil || tr.AccessToken == "" {
		m.record("auth_error")
		reason := "access_token missing from response"
		if err != nil {
			reason = err.Error()
		}
		return "", &AuthError{Reason: reason}
	}

	expiresIn := tr.ExpiresIn
	if expiresIn < 0 {
		expiresIn = 0
	}
	validFor := time.Duration(expiresIn)*time.Second - expiryBuffer
	if validFor < 0 {
		validFor = 0
	}

	m.mu.Lock()
	m.accessToken = tr.AccessToken
	m.expiry = m.now().Add(validFor)
	m.mu.Unlock()

	m.record("success")
	m.log.Debug("token refreshed",
		zap.Duration("valid_for", validFor),
		zap.String("token", Mask(tr.AccessToken)),
	)

	return tr.AccessToken, nil
}

// Status reports the current token and its expiry without refreshing.
// ErrTokenNotSet is returned when no token has been obtained yet.
func (m *TokenManager) Status() (string, time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.accessToken == "" {
		return "", time.Time{}, ErrTokenNotSet
	}

	return m.accessToken, m.expiry, nil
}

// Invalidate discards the current token so the next GetToken call refreshes.
func (m *TokenManager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.accessToken = ""
	m.expiry = m.now()
}

// Token implements oauth2.TokenSource on top of GetToken, so the manager plugs
// into the standard authorized transport.
func (m *TokenManager) Token() (*oauth2.Token, error) {
	tok, err := m.GetToken(context.Background())
	if err != nil {
		return nil, fmt.Errorf("GetToken failed: %w", err)
	}

	m.mu.Lock()
	expiry := m.expiry
	m.mu.Unlock()

	return &oauth2.Token{
		AccessToken: tok,
		TokenType:   "Bearer",
		Expiry:      expiry,
	}, nil
}

func (m *TokenManager) record(result string) {
	if m.metrics != nil {
		m.metrics.RecordTokenRefresh(result)
	}
}

// Mask truncates a credential for diagnostic output, keeping at most the first
// and last 4 characters.
func Mask(s string) string {
	if len(s) <= 8 {
		return "<redacted>"
	}
	return s[:4] + "..." + s[len(s)-4:]
}
