package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/teemow/ticktick-mcp/internal/agenda"
	"github.com/teemow/ticktick-mcp/internal/ticktick"
)

// Environment variables read by Load.
const (
	EnvAccessToken  = "TICKTICK_ACCESS_TOKEN"
	EnvUsername     = "TICKTICK_USERNAME"
	EnvPassword     = "TICKTICK_PASSWORD"
	EnvRefreshToken = "TICKTICK_REFRESH_TOKEN"
	EnvClientID     = "TICKTICK_CLIENT_ID"
	EnvClientSecret = "TICKTICK_CLIENT_SECRET"
	EnvAPIBaseURL   = "TICKTICK_API_BASE_URL"
	EnvAuthBaseURL  = "TICKTICK_AUTH_BASE_URL"
	EnvRedirectURL  = "TICKTICK_REDIRECT_URL"
	EnvConcurrency  = "TICKTICK_CONCURRENCY"
)

const (
	// DefaultEnvFile is the .env file read from the working directory.
	DefaultEnvFile = ".env"

	// DefaultRedirectURL is the callback of the local auth login listener.
	DefaultRedirectURL = "http://localhost:8000/callback"

	configDirName  = "ticktick-mcp"
	configFileName = "config.toml"
)

// Config is the merged configuration.
type Config struct {
	AccessToken  string `toml:"access_token"`
	Username     string `toml:"username"`
	Password     string `toml:"password"`
	RefreshToken string `toml:"refresh_token"`
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`

	APIBaseURL  string `toml:"api_base_url"`
	AuthBaseURL string `toml:"auth_base_url"`
	RedirectURL string `toml:"redirect_url"`
	Concurrency int    `toml:"concurrency"`
}

// Options selects the files Load reads.
type Options struct {
	// ConfigPath is an explicit TOML file, which must exist. When empty the
	// default path is tried and skipped if missing.
	ConfigPath string

	// EnvFile defaults to DefaultEnvFile. A missing file is ignored.
	EnvFile string
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		APIBaseURL:  ticktick.DefaultAPIBaseURL,
		AuthBaseURL: ticktick.DefaultAuthBaseURL,
		RedirectURL: DefaultRedirectURL,
		Concurrency: agenda.DefaultConcurrency,
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/ticktick-mcp/config.toml, falling
// back to ~/.config. It returns "" if no home directory is known.
func DefaultPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, configDirName, configFileName)
}

// Load builds the configuration from defaults, the config file, the .env
// file and the environment.
func Load(opts Options) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = DefaultEnvFile
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	cfg := Default()

	path, explicit := opts.ConfigPath, opts.ConfigPath != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return nil, err
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := toml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	for key, field := range map[string]*string{
		EnvAccessToken:  &c.AccessToken,
		EnvUsername:     &c.Username,
		EnvPassword:     &c.Password,
		EnvRefreshToken: &c.RefreshToken,
		EnvClientID:     &c.ClientID,
		EnvClientSecret: &c.ClientSecret,
		EnvAPIBaseURL:   &c.APIBaseURL,
		EnvAuthBaseURL:  &c.AuthBaseURL,
		EnvRedirectURL:  &c.RedirectURL,
	} {
		if v := os.Getenv(key); v != "" {
			*field = v
		}
	}

	if v := os.Getenv(EnvConcurrency); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvConcurrency, v, err)
		}
		c.Concurrency = n
	}
	return nil
}

// Validate checks the values that do not depend on the chosen auth mode.
// Missing credentials are reported by the session on first use instead.
func (c *Config) Validate() error {
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	for name, raw := range map[string]string{
		"api_base_url":  c.APIBaseURL,
		"auth_base_url": c.AuthBaseURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s must be an absolute URL, got %q", name, raw)
		}
	}
	return nil
}

// Credentials returns the credential set handed to the session.
func (c *Config) Credentials() ticktick.Credentials {
	return ticktick.Credentials{
		AccessToken:  c.AccessToken,
		Username:     c.Username,
		Password:     c.Password,
		RefreshToken: c.RefreshToken,
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
	}
}
