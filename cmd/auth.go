package cmd

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/teemow/ticktick-mcp/internal/config"
	"github.com/teemow/ticktick-mcp/internal/ticktick"
)

// loginTimeout bounds how long auth login waits for the browser redirect.
const loginTimeout = 5 * time.Minute

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Obtain TickTick OAuth tokens",
		Long: `Helpers to obtain an access token through the OAuth2 authorization code
flow. Both subcommands need TICKTICK_CLIENT_ID and TICKTICK_CLIENT_SECRET of an
app registered at https://developer.ticktick.com (or developer.dida365.com).`,
	}

	cmd.AddCommand(newAuthLoginCmd())
	cmd.AddCommand(newAuthRefreshCmd())

	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	var writeEnv bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authorize in the browser and print the resulting tokens",
		Long: `Start a local listener on TICKTICK_REDIRECT_URL, print the authorization URL
and wait for the redirect. The code is exchanged for an access token, which is
printed as environment variables or, with --write-env, stored in the env file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			path := ""
			if writeEnv {
				path = envFile
			}
			return runAuthLogin(cmd.Context(), cfg, cmd.OutOrStdout(), path)
		},
	}

	cmd.Flags().BoolVar(&writeEnv, "write-env", false, "Store the tokens in the env file instead of only printing them")

	return cmd
}

func newAuthRefreshCmd() *cobra.Command {
	var writeEnv bool

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Exchange TICKTICK_REFRESH_TOKEN for a new access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			path := ""
			if writeEnv {
				path = envFile
			}
			return runAuthRefresh(cmd.Context(), cfg, cmd.OutOrStdout(), path)
		},
	}

	cmd.Flags().BoolVar(&writeEnv, "write-env", false, "Store the tokens in the env file instead of only printing them")

	return cmd
}

func oauthConfig(cfg *config.Config) (*oauth2.Config, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, &ticktick.ConfigurationError{
			Reason: fmt.Sprintf("%s and %s are required", config.EnvClientID, config.EnvClientSecret),
		}
	}
	return ticktick.OAuthConfig(cfg.Credentials(), cfg.AuthBaseURL, cfg.RedirectURL), nil
}

func runAuthLogin(ctx context.Context, cfg *config.Config, out io.Writer, writeEnvPath string) error {
	oauthCfg, err := oauthConfig(cfg)
	if err != nil {
		return err
	}

	redirect, err := url.Parse(oauthCfg.RedirectURL)
	if err != nil || redirect.Host == "" {
		return fmt.Errorf("invalid redirect URL %q", oauthCfg.RedirectURL)
	}

	state, err := randomState()
	if err != nil {
		return err
	}

	codes := make(chan string, 1)
	errs := make(chan error, 1)

	mux := http.NewServeMux()
	callbackPath := redirect.Path
	if callbackPath == "" {
		callbackPath = "/"
	}
	mux.Handle(callbackPath, callbackHandler(state, codes, errs))

	listener, err := net.Listen("tcp", redirect.Host)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", redirect.Host, err)
	}
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		_ = srv.Serve(listener)
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	fmt.Fprintf(os.Stderr, "Open the following URL in your browser to authorize ticktick-mcp:\n\n%s\n\n", oauthCfg.AuthCodeURL(state))
	fmt.Fprintf(os.Stderr, "Waiting for the redirect to %s ...\n", oauthCfg.RedirectURL)

	waitCtx, cancel := context.WithTimeout(ctx, loginTimeout)
	defer cancel()

	var code string
	select {
	case code = <-codes:
	case err := <-errs:
		return err
	case <-waitCtx.Done():
		return fmt.Errorf("no authorization received: %w", waitCtx.Err())
	}

	tok, err := oauthCfg.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	return emitTokens(out, tok, writeEnvPath)
}

func runAuthRefresh(ctx context.Context, cfg *config.Config, out io.Writer, writeEnvPath string) error {
	oauthCfg, err := oauthConfig(cfg)
	if err != nil {
		return err
	}
	if cfg.RefreshToken == "" {
		return &ticktick.ConfigurationError{Reason: config.EnvRefreshToken + " is not set"}
	}

	// An empty access token forces the token source to refresh
	tok, err := oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken}).Token()
	if err != nil {
		return fmt.Errorf("failed to refresh token: %w", err)
	}
	if tok.RefreshToken == "" {
		tok.RefreshToken = cfg.RefreshToken
	}
	return emitTokens(out, tok, writeEnvPath)
}

// callbackHandler serves the OAuth redirect. The first request carrying the
// expected state delivers its code on codes; a provider error or a state
// mismatch is delivered on errs.
func callbackHandler(state string, codes chan<- string, errs chan<- error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		if e := q.Get("error"); e != "" {
			http.Error(w, "Authorization failed: "+e, http.StatusBadRequest)
			deliver(errs, fmt.Errorf("authorization failed: %s", e))
			return
		}
		if q.Get("state") != state {
			http.Error(w, "State mismatch", http.StatusBadRequest)
			deliver(errs, errors.New("authorization failed: state mismatch"))
			return
		}
		code := q.Get("code")
		if code == "" {
			http.Error(w, "Missing code", http.StatusBadRequest)
			deliver(errs, errors.New("authorization failed: missing code"))
			return
		}

		_, _ = io.WriteString(w, "Authorization complete. You can close this window.\n")
		deliver(codes, code)
	})
}

func deliver[T any](ch chan<- T, v T) {
	select {
	case ch <- v:
	default:
	}
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// tokenEnv maps a token to the environment variables the server reads.
func tokenEnv(tok *oauth2.Token) map[string]string {
	env := map[string]string{
		config.EnvAccessToken: tok.AccessToken,
	}
	if tok.RefreshToken != "" {
		env[config.EnvRefreshToken] = tok.RefreshToken
	}
	return env
}

func emitTokens(out io.Writer, tok *oauth2.Token, writeEnvPath string) error {
	env := tokenEnv(tok)

	if writeEnvPath != "" {
		if err := config.UpdateEnvFile(writeEnvPath, env); err != nil {
			return err
		}
		fmt.Fprintf(out, "Tokens written to %s\n", writeEnvPath)
		return nil
	}

	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(out, "%s=%s\n", k, env[k])
	}
	if !tok.Expiry.IsZero() {
		fmt.Fprintf(out, "# expires %s\n", tok.Expiry.Format(time.RFC3339))
	}
	return nil
}
