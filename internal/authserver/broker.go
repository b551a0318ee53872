package authserver

import (
	"context"
	"errors"
	"fmt"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"
)

// Profile is the user profile returned after a broker login
type Profile struct {
	UserID        string   `json:"user_id"`
	UserName      string   `json:"user_name"`
	UserShortName string   `json:"user_shortname,omitempty"`
	Email         string   `json:"email,omitempty"`
	Broker        string   `json:"broker,omitempty"`
	Exchanges     []string `json:"exchanges,omitempty"`
	Products      []string `json:"products,omitempty"`
}

// Broker opens a broker session from the submitted credential triple
type Broker interface {
	Login(ctx context.Context, apiKey, apiSecret, sessionKey string) (BrokerSession, error)
}

// BrokerSession is an authenticated broker session
type BrokerSession interface {
	Profile(ctx context.Context) (Profile, error)
}

// RejectedError marks a login the broker refused because of the submitted
// credentials, as opposed to a failure to reach or talk to the broker.
type RejectedError struct {
	Err error
}

func (e *RejectedError) Error() string {
	return e.Err.Error()
}

func (e *RejectedError) Unwrap() error {
	return e.Err
}

// KiteBroker logs in against Kite Connect. The session key is the request
// token handed out by the Kite login redirect.
type KiteBroker struct {
	baseURI string
}

// NewKiteBroker creates a broker; an empty baseURI uses the Kite default.
func NewKiteBroker(baseURI string) *KiteBroker {
	return &KiteBroker{baseURI: baseURI}
}

func (kb *KiteBroker) Login(_ context.Context, apiKey, apiSecret, sessionKey string) (BrokerSession, error) {
	kite := kiteconnect.New(apiKey)
	if kb.baseURI != "" {
		kite.SetBaseURI(kb.baseURI)
	}

	userSession, err := kite.GenerateSession(sessionKey, apiSecret)
	if err != nil {
		err = fmt.Errorf("failed to generate session: %w", err)
		if isCredentialError(err) {
			return nil, &RejectedError{Err: err}
		}
		return nil, err
	}
	kite.SetAccessToken(userSession.AccessToken)

	return &kiteSession{kite: kite}, nil
}

type kiteSession struct {
	kite *kiteconnect.Client
}

func (ks *kiteSession) Profile(_ context.Context) (Profile, error) {
	p, err := ks.kite.GetUserProfile()
	if err != nil {
		return Profile{}, err
	}
	return Profile{
		UserID:        p.UserID,
		UserName:      p.UserName,
		UserShortName: p.UserShortName,
		Email:         p.Email,
		Broker:        p.Broker,
		Exchanges:     p.Exchanges,
		Products:      p.Products,
	}, nil
}

// isCredentialError reports whether Kite refused the request itself. Network,
// data and general exceptions are not the caller's fault.
func isCredentialError(err error) bool {
	var kiteErr kiteconnect.Error
	if !errors.As(err, &kiteErr) {
		return false
	}
	switch kiteErr.ErrorType {
	case kiteconnect.TokenError, kiteconnect.InputError, kiteconnect.UserError,
		kiteconnect.PermissionError, kiteconnect.TwoFAError:
		return true
	}
	return false
}
