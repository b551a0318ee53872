package session

import (
	"context"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"
)

const sessionTTL = 12 * time.Hour

// NewManager builds the scs manager for the web login page. The cookie is
// not persisted, so the browser drops it when the session ends.
func NewManager(cookieName string, secure bool) *scs.SessionManager {
	manager := scs.New()
	manager.Store = memstore.New()
	manager.Lifetime = sessionTTL
	manager.Cookie.Name = cookieName
	manager.Cookie.Path = "/"
	manager.Cookie.HttpOnly = true
	manager.Cookie.SameSite = http.SameSiteLaxMode
	manager.Cookie.Secure = secure
	manager.Cookie.Persist = false
	return manager
}

// RequestStore writes into the scs session loaded for one request.
type RequestStore struct {
	manager *scs.SessionManager
	ctx     context.Context
}

func NewRequestStore(ctx context.Context, manager *scs.SessionManager) *RequestStore {
	return &RequestStore{manager: manager, ctx: ctx}
}

// Set renews the session token before storing so a pre-login token is never
// reused for the logged-in session.
func (rs *RequestStore) Set(key, value string) error {
	if err := rs.manager.RenewToken(rs.ctx); err != nil {
		return err
	}
	rs.manager.Put(rs.ctx, key, value)
	return nil
}

func (rs *RequestStore) Get(key string) (string, error) {
	value := rs.manager.GetString(rs.ctx, key)
	if value == "" {
		return "", ErrNotFound
	}
	return value, nil
}

// Destroy drops the whole session
func (rs *RequestStore) Destroy() error {
	return rs.manager.Destroy(rs.ctx)
}
