package authserver

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/patrickmn/go-cache"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sabarim/tradelogin/internal/instruments"
)

const notLoggedIn = "Not logged in. Please login first with your credentials."

// InstrumentFinder resolves instruments loaded by the post-login task
type InstrumentFinder interface {
	Lookup(symbol string) (instruments.Instrument, bool)
}

// Options configures the backend
type Options struct {
	// DetailsTTL bounds how long account details are cached per session.
	DetailsTTL time.Duration
	// AfterLogin, when set, runs in the background after every successful
	// login with the server's context.
	AfterLogin func(context.Context) error
	// Instruments serves /api/instruments/{symbol}; nil disables it.
	Instruments InstrumentFinder
}

// Server implements the auth backend consumed by the login form
type Server struct {
	ctx         context.Context
	broker      Broker
	afterLogin  func(context.Context) error
	instruments InstrumentFinder

	mu       sync.Mutex
	sessions map[string]BrokerSession
	latest   string

	details *cache.Cache
}

// NewServer creates the backend. ctx bounds background work started by
// logins; cancel it on shutdown.
func NewServer(ctx context.Context, broker Broker, opts Options) *Server {
	ttl := opts.DetailsTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Server{
		ctx:         ctx,
		broker:      broker,
		afterLogin:  opts.AfterLogin,
		instruments: opts.Instruments,
		sessions:    make(map[string]BrokerSession),
		details:     cache.New(ttl, 2*ttl),
	}
}

type loginInput struct {
	Body struct {
		APIKey     string `json:"api_key" doc:"Broker API key"`
		APISecret  string `json:"api_secret" doc:"Broker API secret"`
		SessionKey string `json:"session_key" doc:"Broker session key"`
	}
}

type sessionInput struct {
	APISession string `query:"api_session" doc:"Session key used at login"`
}

type instrumentInput struct {
	Symbol string `path:"symbol" doc:"Trading symbol, e.g. RELIANCE"`
}

type envelope struct {
	Success   bool     `json:"success"`
	Message   string   `json:"message"`
	Error     *string  `json:"error,omitempty"`
	FirstName *string  `json:"first_name,omitempty"`
	Profile   *Profile `json:"profile,omitempty"`
	Customer  *Profile `json:"customer,omitempty"`

	Instrument *instruments.Instrument `json:"instrument,omitempty"`
}

type envelopeOutput struct {
	Body envelope
}

func success(message string) *envelopeOutput {
	return &envelopeOutput{Body: envelope{Success: true, Message: message}}
}

func failure(message string, err error) *envelopeOutput {
	out := &envelopeOutput{Body: envelope{Message: message}}
	if err != nil {
		text := err.Error()
		out.Body.Error = &text
	}
	return out
}

// Mount registers the /api operations on router
func (s *Server) Mount(router chi.Router) {
	cfg := huma.DefaultConfig("tradelogin auth", "1.0.0")
	cfg.OpenAPIPath = ""
	cfg.DocsPath = ""
	cfg.SchemasPath = ""
	s.Register(humachi.New(router, cfg))
}

// Register adds the operations to an existing huma API
func (s *Server) Register(api huma.API) {
	huma.Post(api, "/api/login", s.handleLogin)
	huma.Get(api, "/api/profile", s.handleProfile)
	huma.Get(api, "/api/account/details", s.handleAccountDetails)
	huma.Get(api, "/api/instruments/{symbol}", s.handleInstrument)
}

func (s *Server) handleLogin(ctx context.Context, in *loginInput) (*envelopeOutput, error) {
	apiKey := strings.TrimSpace(in.Body.APIKey)
	apiSecret := strings.TrimSpace(in.Body.APISecret)
	sessionKey := strings.TrimSpace(in.Body.SessionKey)

	if apiKey == "" {
		return failure("API Key is required and cannot be empty", nil), nil
	}
	if apiSecret == "" {
		return failure("API Secret is required and cannot be empty", nil), nil
	}
	if sessionKey == "" {
		return failure("Session Key is required and cannot be empty", nil), nil
	}

	brokerSession, err := s.broker.Login(ctx, apiKey, apiSecret, sessionKey)
	if err != nil {
		log.Printf("broker login failed for api key %s: %v", maskKey(apiKey), err)
		var rejected *RejectedError
		if errors.As(err, &rejected) {
			return failure("Login failed", err), nil
		}
		return failure("Exception during login", err), nil
	}
	profile, err := brokerSession.Profile(ctx)
	if err != nil {
		log.Printf("profile fetch failed for api key %s: %v", maskKey(apiKey), err)
		return failure("Login failed", err), nil
	}

	s.mu.Lock()
	s.sessions[sessionKey] = brokerSession
	s.latest = sessionKey
	s.mu.Unlock()
	s.details.Delete(sessionKey)

	if s.afterLogin != nil {
		go func() {
			if err := s.afterLogin(s.ctx); err != nil {
				log.Printf("post-login task failed: %v", err)
			}
		}()
	}

	out := success("Login successful")
	out.Body.Profile = &profile
	return out, nil
}

func (s *Server) handleProfile(ctx context.Context, in *sessionInput) (*envelopeOutput, error) {
	brokerSession, ok := s.lookup(strings.TrimSpace(in.APISession))
	if !ok {
		return failure(notLoggedIn, nil), nil
	}

	profile, err := brokerSession.Profile(ctx)
	if err != nil {
		log.Printf("profile fetch failed: %v", err)
		return failure("Failed to fetch profile", err), nil
	}

	firstName := FirstName(profile.UserName)
	out := success("Profile")
	out.Body.FirstName = &firstName
	out.Body.Profile = &profile
	return out, nil
}

func (s *Server) handleAccountDetails(ctx context.Context, in *sessionInput) (*envelopeOutput, error) {
	key := strings.TrimSpace(in.APISession)
	if key != "" {
		if cached, found := s.details.Get(key); found {
			profile := cached.(Profile)
			out := success("Customer details")
			out.Body.Customer = &profile
			return out, nil
		}
	}

	brokerSession, ok := s.lookup(key)
	if !ok {
		return failure(notLoggedIn, nil), nil
	}

	profile, err := brokerSession.Profile(ctx)
	if err != nil {
		log.Printf("customer details fetch failed: %v", err)
		return failure("Failed to fetch customer details", err), nil
	}
	if key != "" {
		s.details.SetDefault(key, profile)
	}

	out := success("Customer details")
	out.Body.Customer = &profile
	return out, nil
}

func (s *Server) handleInstrument(_ context.Context, in *instrumentInput) (*envelopeOutput, error) {
	if s.instruments == nil {
		return failure("Instruments are not loaded", nil), nil
	}
	symbol := strings.ToUpper(strings.TrimSpace(in.Symbol))
	inst, ok := s.instruments.Lookup(symbol)
	if !ok {
		return failure("Instrument not found: "+symbol, nil), nil
	}
	out := success("Instrument")
	out.Body.Instrument = &inst
	return out, nil
}

// lookup finds the session for key, or the most recent login when key is
// empty. Keys are stored trimmed, so key is trimmed the same way.
func (s *Server) lookup(key string) (BrokerSession, bool) {
	key = strings.TrimSpace(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	if key == "" {
		key = s.latest
	}
	brokerSession, ok := s.sessions[key]
	return brokerSession, ok
}

// FirstName returns the title-cased first word of a full name.
func FirstName(fullName string) string {
	fields := strings.Fields(fullName)
	if len(fields) == 0 {
		return ""
	}
	return cases.Title(language.Und).String(fields[0])
}

func maskKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return key[:4] + "..."
}
