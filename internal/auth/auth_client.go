package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	loginPath   = "/api/login"
	profilePath = "/api/profile"

	fallbackRejected = "Login failed"
	fallbackFailure  = "Something went wrong"
)

// RejectedError is returned when the backend refuses the credentials
type RejectedError struct {
	StatusCode int
	Message    string
}

func (e *RejectedError) Error() string {
	return e.Message
}

// LoginClient posts credentials to the auth backend
type LoginClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewLoginClient creates a new login client. An empty baseURL makes the
// login path relative, which only an httpClient with a rewriting transport
// can serve.
func NewLoginClient(baseURL string, httpClient *http.Client) *LoginClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &LoginClient{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

// BaseURL returns the base the client was built with
func (lc *LoginClient) BaseURL() string {
	return lc.baseURL
}

// Login submits creds. A nil error means the backend accepted them; a
// *RejectedError carries the backend's message; anything else is a transport
// or unexpected failure.
func (lc *LoginClient) Login(ctx context.Context, creds Credentials) error {
	payload, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, lc.baseURL+loginPath, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := lc.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	_, err = interpret(resp)
	return err
}

// ProfileReply is the greeting data returned for a logged-in session
type ProfileReply struct {
	FirstName string
	Profile   map[string]any
}

// Profile fetches the profile for sessionKey from the backend
func (lc *LoginClient) Profile(ctx context.Context, sessionKey string) (*ProfileReply, error) {
	endpoint := lc.baseURL + profilePath + "?" + url.Values{"api_session": {sessionKey}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := lc.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := interpret(resp)
	if err != nil {
		return nil, err
	}
	profile, _ := body["profile"].(map[string]any)
	return &ProfileReply{
		FirstName: stringField(body, "first_name"),
		Profile:   profile,
	}, nil
}

// interpret reads a backend reply. The outcome is a failure when the status
// is outside 2xx or the body carries "success": false.
func interpret(resp *http.Response) (map[string]any, error) {
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read auth service response: %w", err)
	}
	body := parseBody(bodyBytes)

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	if success, present := body["success"].(bool); present && !success {
		ok = false
	}
	if ok {
		return body, nil
	}

	message := stringField(body, "message")
	if message == "" {
		message = stringField(body, "error")
	}
	if message == "" {
		message = fallbackRejected
	}
	return body, &RejectedError{StatusCode: resp.StatusCode, Message: message}
}

// parseBody decodes a JSON object, yielding an empty object for anything else.
func parseBody(data []byte) map[string]any {
	var body map[string]any
	if err := json.Unmarshal(data, &body); err != nil || body == nil {
		return map[string]any{}
	}
	return body
}

func stringField(body map[string]any, key string) string {
	s, _ := body[key].(string)
	return s
}

// failureMessage turns a transport error into user-facing text. URL errors
// from net/http are unwrapped so the cause's own message is shown.
func failureMessage(err error) string {
	var rejected *RejectedError
	if errors.As(err, &rejected) {
		return rejected.Message
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		err = urlErr.Err
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallbackFailure
}
