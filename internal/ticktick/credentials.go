package ticktick

// AuthMode is the authentication mode selected from the configured credentials.
type AuthMode int

const (
	// AuthModeNone means no usable credential is configured.
	AuthModeNone AuthMode = iota
	// AuthModeToken uses a pre-issued bearer token as is.
	AuthModeToken
	// AuthModePassword exchanges username and password for a bearer token.
	AuthModePassword
)

func (m AuthMode) String() string {
	switch m {
	case AuthModeToken:
		return "token"
	case AuthModePassword:
		return "password"
	default:
		return "none"
	}
}

// Credentials holds everything a user may configure to reach TickTick.
// Only AccessToken or the Username/Password pair are consumed by the session;
// the OAuth client fields serve the password grant and the auth helpers.
type Credentials struct {
	AccessToken  string
	Username     string
	Password     string
	RefreshToken string
	ClientID     string
	ClientSecret string
}

// ResolveCredentials decides which authentication mode applies.
// A configured access token always wins over username and password.
func ResolveCredentials(c Credentials) (AuthMode, error) {
	switch {
	case c.AccessToken != "":
		return AuthModeToken, nil
	case c.Username != "" && c.Password != "":
		return AuthModePassword, nil
	default:
		return AuthModeNone, &ConfigurationError{
			Reason: "no credentials configured: set TICKTICK_ACCESS_TOKEN, or TICKTICK_USERNAME and TICKTICK_PASSWORD",
		}
	}
}
