package auth

// Credentials is the triple submitted to the auth backend
type Credentials struct {
	APIKey     string `json:"api_key"`
	APISecret  string `json:"api_secret"`
	SessionKey string `json:"session_key"`
}

// State is the submission state of a Form
type State int

const (
	StateIdle State = iota
	StateSubmitting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	default:
		return "unknown"
	}
}

// Outcome holds the result of a single submission
type Outcome struct {
	// Navigated is true when the login succeeded and the page was replaced.
	Navigated bool
	// Message is the error shown to the user; empty on success.
	Message string
}

// SessionKeyName is the key under which the session key is persisted.
const SessionKeyName = "api_session"

// SessionStore persists values for the current browsing session
type SessionStore interface {
	Set(key, value string) error
}

// Navigator replaces the current page, dropping it from history
type Navigator interface {
	Replace(path string) error
}
