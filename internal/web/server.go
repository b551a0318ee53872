// Package web serves the browser login page and the home page it redirects to.
package web

import (
	"html/template"
	"log"
	"net/http"
	"strings"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sabarim/tradelogin/internal/auth"
	"github.com/sabarim/tradelogin/internal/authserver"
	"github.com/sabarim/tradelogin/internal/config"
	"github.com/sabarim/tradelogin/internal/session"
)

const (
	cacheControlValue = "no-store, no-cache, must-revalidate, max-age=0"
	pragmaValue       = "no-cache"
	expiresValue      = "0"
)

// Server wires the login form to HTTP
type Server struct {
	cfg            config.LoginConfig
	trustForwarded bool
	sessions       *scs.SessionManager
	httpClient     *http.Client
	backend        *authserver.Server
	registry       *prometheus.Registry
	attempts       *prometheus.CounterVec
}

// NewServer creates the web server. backend may be nil when the auth
// backend runs elsewhere.
func NewServer(cfg config.Config, sessions *scs.SessionManager, httpClient *http.Client, backend *authserver.Server, registry *prometheus.Registry) *Server {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Login.RequestTimeout}
	}
	attempts := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradelogin_login_attempts_total",
			Help: "Login form submissions by outcome.",
		},
		[]string{"outcome"},
	)
	registry.MustRegister(attempts)

	return &Server{
		cfg:            cfg.Login,
		trustForwarded: cfg.Server.TrustForwardedHeaders,
		sessions:       sessions,
		httpClient:     httpClient,
		backend:        backend,
		registry:       registry,
		attempts:       attempts,
	}
}

// Router returns the HTTP handler for the whole site
func (s *Server) Router() http.Handler {
	router := chi.NewRouter()
	router.Use(s.sessions.LoadAndSave)

	router.Get("/login", s.handleLoginGet)
	router.Post("/login", s.handleLoginPost)
	router.HandleFunc("/logout", s.handleLogout)
	router.Get("/", s.handleHome)

	router.Get("/api/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("ok\n")); err != nil {
			log.Printf("failed to write health response: %v", err)
		}
	})
	router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	if s.backend != nil {
		s.backend.Mount(router)
	}
	return router
}

// clientFor resolves the backend base URL for the page r was served from.
// With the backend mounted on this router the call goes back to the socket
// the request arrived on, so request headers never pick the target.
func (s *Server) clientFor(r *http.Request) *auth.LoginClient {
	origin := ""
	if s.backend != nil {
		origin = config.ListenerOrigin(r)
	}
	if origin == "" {
		origin = config.RequestOrigin(r, s.trustForwarded)
	}
	base := config.ResolveBaseURL(
		config.EnvBaseURL(s.cfg.APIBaseURL),
		config.OriginBaseURL(origin),
	)
	return auth.NewLoginClient(base, s.httpClient)
}

func (s *Server) handleLoginGet(w http.ResponseWriter, r *http.Request) {
	renderLogin(w, http.StatusOK, loginView{})
}

func (s *Server) handleLoginPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		renderLogin(w, http.StatusBadRequest, loginView{Error: "Invalid form submission."})
		return
	}

	store := session.NewRequestStore(r.Context(), s.sessions)
	form := auth.NewForm(s.clientFor(r), store, &redirectNavigator{w: w, r: r})
	form.SetAPIKey(r.PostFormValue("api_key"))
	form.SetAPISecret(r.PostFormValue("api_secret"))
	form.SetSessionKey(r.PostFormValue("session_key"))

	outcome, err := form.Submit(r.Context())
	if err != nil {
		renderLogin(w, http.StatusConflict, loginView{Error: err.Error()})
		return
	}
	if outcome.Navigated {
		s.attempts.WithLabelValues("success").Inc()
		return
	}

	s.attempts.WithLabelValues("failure").Inc()
	renderLogin(w, http.StatusUnprocessableEntity, loginView{
		Error:  outcome.Message,
		APIKey: form.Credentials().APIKey,
	})
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	sessionKey, err := session.NewRequestStore(r.Context(), s.sessions).Get(auth.SessionKeyName)
	if err != nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	view := homeView{}
	reply, err := s.clientFor(r).Profile(r.Context(), sessionKey)
	if err != nil {
		log.Printf("profile fetch failed: %v", err)
		view.Notice = "Profile is unavailable right now."
	} else {
		view.FirstName = reply.FirstName
		if id, ok := reply.Profile["user_id"].(string); ok {
			view.UserID = id
		}
	}
	render(w, http.StatusOK, homePage, view)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := session.NewRequestStore(r.Context(), s.sessions).Destroy(); err != nil {
		log.Printf("session destroy failed: %v", err)
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// redirectNavigator answers the login POST with a See Other redirect, so the
// form page is not kept in history and a reload does not resubmit it.
type redirectNavigator struct {
	w http.ResponseWriter
	r *http.Request
}

func (n *redirectNavigator) Replace(path string) error {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	setNoCacheHeaders(n.w)
	http.Redirect(n.w, n.r, path, http.StatusSeeOther)
	return nil
}

func renderLogin(w http.ResponseWriter, status int, view loginView) {
	render(w, status, loginPage, view)
}

func render(w http.ResponseWriter, status int, tpl *template.Template, data any) {
	setNoCacheHeaders(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tpl.Execute(w, data); err != nil {
		log.Printf("render %s page: %v", tpl.Name(), err)
	}
}

func setNoCacheHeaders(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", cacheControlValue)
	w.Header().Set("Pragma", pragmaValue)
	w.Header().Set("Expires", expiresValue)
}
