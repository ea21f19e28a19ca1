package ticktick

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"

	"golang.org/x/oauth2"

	"github.com/teemow/ticktick-mcp/internal/instrumentation"
	"github.com/teemow/ticktick-mcp/internal/logging"
)

// Default endpoints of the international service. Dida365 users point these
// at https://api.dida365.com and https://dida365.com.
const (
	DefaultAPIBaseURL  = "https://api.ticktick.com"
	DefaultAuthBaseURL = "https://ticktick.com"
)

// Scopes requested by the OAuth helpers and the password grant.
var Scopes = []string{"tasks:read", "tasks:write"}

// Endpoint returns the OAuth2 endpoint for the given auth base URL.
func Endpoint(authBaseURL string) oauth2.Endpoint {
	if authBaseURL == "" {
		authBaseURL = DefaultAuthBaseURL
	}
	authBaseURL = strings.TrimRight(authBaseURL, "/")
	return oauth2.Endpoint{
		AuthURL:  authBaseURL + "/oauth/authorize",
		TokenURL: authBaseURL + "/oauth/token",
	}
}

// OAuthConfig builds the oauth2 configuration shared by the password grant
// and the authorization code helpers.
func OAuthConfig(creds Credentials, authBaseURL, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Endpoint:     Endpoint(authBaseURL),
		RedirectURL:  redirectURL,
		Scopes:       Scopes,
	}
}

// Session owns the bearer credential used for every outbound call.
// The credential is resolved lazily on first use and then cached for the
// lifetime of the process. It is never refreshed.
type Session struct {
	creds      Credentials
	oauth      *oauth2.Config
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *instrumentation.Metrics

	token atomic.Pointer[oauth2.Token]
	mode  atomic.Int32
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithAuthBaseURL points the password grant at a different auth server.
func WithAuthBaseURL(u string) SessionOption {
	return func(s *Session) {
		s.oauth.Endpoint = Endpoint(u)
	}
}

// WithSessionHTTPClient sets the HTTP client used for the password grant.
func WithSessionHTTPClient(c *http.Client) SessionOption {
	return func(s *Session) {
		s.httpClient = c
	}
}

// WithSessionLogger sets the logger.
func WithSessionLogger(l *slog.Logger) SessionOption {
	return func(s *Session) {
		s.logger = l
	}
}

// WithSessionMetrics records credential resolutions on m.
func WithSessionMetrics(m *instrumentation.Metrics) SessionOption {
	return func(s *Session) {
		s.metrics = m
	}
}

// NewSession creates a session for the given credentials. No network call is made.
func NewSession(creds Credentials, opts ...SessionOption) *Session {
	s := &Session{
		creds:  creds,
		oauth:  OAuthConfig(creds, DefaultAuthBaseURL, ""),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Mode returns the mode the session authenticated with, or AuthModeNone
// before the first successful EnsureAuthenticated.
func (s *Session) Mode() AuthMode {
	return AuthMode(s.mode.Load())
}

// Configured returns the ConfigurationError EnsureAuthenticated would fail
// with, without performing any exchange.
func (s *Session) Configured() error {
	_, err := ResolveCredentials(s.creds)
	return err
}

// ConfiguredMode returns the mode EnsureAuthenticated would use.
func (s *Session) ConfiguredMode() AuthMode {
	mode, _ := ResolveCredentials(s.creds)
	return mode
}

// Username returns the configured username, which is empty in token mode.
func (s *Session) Username() string {
	if s.creds.AccessToken != "" {
		return ""
	}
	return s.creds.Username
}

// Authenticated reports whether a credential has been established.
func (s *Session) Authenticated() bool {
	return s.token.Load() != nil
}

// EnsureAuthenticated returns the cached credential, establishing it first if
// needed. A directly configured token is adopted without I/O; otherwise a
// password grant is performed once. No lock is held during the exchange, so
// two concurrent first calls may both perform it and the last one wins.
func (s *Session) EnsureAuthenticated(ctx context.Context) (*oauth2.Token, error) {
	if tok := s.token.Load(); tok != nil {
		return tok, nil
	}

	mode, err := ResolveCredentials(s.creds)
	if err != nil {
		s.metrics.RecordAuth(ctx, mode.String(), instrumentation.AuthResultMissing)
		return nil, err
	}

	var tok *oauth2.Token
	switch mode {
	case AuthModeToken:
		tok = &oauth2.Token{AccessToken: s.creds.AccessToken, TokenType: "Bearer"}
	case AuthModePassword:
		tok, err = s.passwordGrant(ctx)
		if err != nil {
			s.metrics.RecordAuth(ctx, mode.String(), instrumentation.AuthResultRejected)
			return nil, err
		}
	}

	s.token.Store(tok)
	s.mode.Store(int32(mode))
	s.metrics.RecordAuth(ctx, mode.String(), instrumentation.AuthResultSuccess)
	s.logger.Info("ticktick session established",
		logging.AuthMode(mode.String()),
		slog.String("token", logging.SanitizeToken(tok.AccessToken)))
	return tok, nil
}

func (s *Session) passwordGrant(ctx context.Context) (*oauth2.Token, error) {
	if s.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	}

	s.logger.Debug("performing password grant", logging.UserHash(s.creds.Username))

	tok, err := s.oauth.PasswordCredentialsToken(ctx, s.creds.Username, s.creds.Password)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.Response != nil {
			return nil, &AuthenticationError{
				StatusCode: re.Response.StatusCode,
				Status:     re.Response.Status,
				Body:       strings.TrimSpace(string(re.Body)),
			}
		}
		return nil, &AuthenticationError{Message: err.Error()}
	}
	if tok.AccessToken == "" {
		return nil, &AuthenticationError{Message: "token response did not contain an access token"}
	}
	return tok, nil
}
