package auth

import (
	"context"
	"errors"
	"log"
	"sync"
)

// ErrInFlight is returned when Submit is called while a submission is outstanding.
var ErrInFlight = errors.New("login already in progress")

// Form holds the credential triple for one page visit and drives a single
// login submission at a time.
type Form struct {
	client *LoginClient
	store  SessionStore
	nav    Navigator

	mu      sync.Mutex
	creds   Credentials
	state   State
	message string
}

// NewForm creates a form bound to client. store and nav receive the session
// key and the redirect after a successful login.
func NewForm(client *LoginClient, store SessionStore, nav Navigator) *Form {
	return &Form{
		client: client,
		store:  store,
		nav:    nav,
	}
}

func (f *Form) SetAPIKey(v string) {
	f.mu.Lock()
	f.creds.APIKey = v
	f.mu.Unlock()
}

func (f *Form) SetAPISecret(v string) {
	f.mu.Lock()
	f.creds.APISecret = v
	f.mu.Unlock()
}

func (f *Form) SetSessionKey(v string) {
	f.mu.Lock()
	f.creds.SessionKey = v
	f.mu.Unlock()
}

// Credentials returns a copy of the current field values.
func (f *Form) Credentials() Credentials {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.creds
}

// State reports whether a submission is outstanding. Renderers disable the
// submit control while it is StateSubmitting.
func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Message returns the error shown to the user, if any.
func (f *Form) Message() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.message
}

// Submit posts the current credentials once. Rejections and transport
// failures are reported through Outcome.Message, never as an error; the only
// error is ErrInFlight. The form is idle again when Submit returns.
func (f *Form) Submit(ctx context.Context) (Outcome, error) {
	f.mu.Lock()
	if f.state == StateSubmitting {
		f.mu.Unlock()
		return Outcome{}, ErrInFlight
	}
	f.state = StateSubmitting
	f.message = ""
	creds := f.creds
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.state = StateIdle
		f.mu.Unlock()
	}()

	if err := f.client.Login(ctx, creds); err != nil {
		return f.fail(err), nil
	}

	f.persistSession(creds.SessionKey)

	if err := f.nav.Replace("/"); err != nil {
		return f.fail(err), nil
	}
	return Outcome{Navigated: true}, nil
}

func (f *Form) fail(err error) Outcome {
	msg := failureMessage(err)
	log.Printf("login failed: %v", err)

	f.mu.Lock()
	f.message = msg
	f.mu.Unlock()
	return Outcome{Message: msg}
}

// persistSession writes the session key best-effort. A failing or panicking
// store never blocks navigation.
func (f *Form) persistSession(sessionKey string) {
	if f.store == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("session store panicked: %v", r)
		}
	}()
	if err := f.store.Set(SessionKeyName, sessionKey); err != nil {
		log.Printf("session store write failed: %v", err)
	}
}
