package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/sabarim/tradelogin/internal/auth"
	"github.com/sabarim/tradelogin/internal/authserver"
	"github.com/sabarim/tradelogin/internal/config"
	"github.com/sabarim/tradelogin/internal/instruments"
	"github.com/sabarim/tradelogin/internal/session"
	"github.com/sabarim/tradelogin/internal/web"
)

var (
	configFile  string
	baseURL     string
	sessionFile string
	apiKey      string
	apiSecret   string
	sessionKey  string
	listenAddr  string
	withBackend bool
	version     bool
)

var versionString = "0.2.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "tradelogin",
		Short: "Log in to a broker API with an API key, secret and session key",
		Long:  `tradelogin submits broker credentials to an auth backend, keeps the session key for later use, and serves a browser login page.`,
		Run: func(cmd *cobra.Command, args []string) {
			if version {
				fmt.Printf("tradelogin version %s\n", versionString)
				return
			}
			_ = cmd.Help()
		},
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "config.yaml", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "Base URL of the auth backend")
	rootCmd.PersistentFlags().StringVar(&sessionFile, "session-file", "", "File holding the stored session key")
	rootCmd.Flags().BoolVar(&version, "version", false, "Print version information")

	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Submit credentials and store the session key",
		Run:   runLogin,
	}
	loginCmd.Flags().StringVar(&apiKey, "api-key", "", "Broker API key (prompted if empty)")
	loginCmd.Flags().StringVar(&apiSecret, "api-secret", "", "Broker API secret (prompted if empty)")
	loginCmd.Flags().StringVar(&sessionKey, "session-key", "", "Broker session key (prompted if empty)")

	profileCmd := &cobra.Command{
		Use:   "profile",
		Short: "Show the profile for the stored session",
		Run:   runProfile,
	}

	logoutCmd := &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session key",
		Run:   runLogout,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the browser login page",
		Run:   runServe,
	}
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "Listen address (default :8080)")
	serveCmd.Flags().BoolVar(&withBackend, "with-backend", false, "Also serve the /api auth backend")

	rootCmd.AddCommand(loginCmd, profileCmd, logoutCmd, serveCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads the config file and applies command-line overrides
func loadConfig() config.Config {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}
	if baseURL != "" {
		cfg.Login.APIBaseURL = baseURL
	}
	if sessionFile != "" {
		cfg.Login.SessionFile = sessionFile
	}
	if listenAddr != "" {
		cfg.Server.ListenAddr = listenAddr
	}
	if withBackend {
		cfg.Server.WithBackend = true
	}
	return cfg
}

func newLoginClient(cfg config.Config) *auth.LoginClient {
	// No page origin exists in a terminal, so only the configured base applies.
	base := config.ResolveBaseURL(config.EnvBaseURL(cfg.Login.APIBaseURL))
	if base == "" {
		log.Fatalf("No auth backend configured. Use --base-url or TRADELOGIN_API_BASE_URL")
	}
	return auth.NewLoginClient(base, &http.Client{Timeout: cfg.Login.RequestTimeout})
}

func runLogin(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	client := newLoginClient(cfg)
	store := session.NewFileStore(cfg.Login.SessionFile)

	form := auth.NewForm(client, store, &terminalNavigator{out: cmd.OutOrStdout(), base: client.BaseURL()})
	p := newPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
	form.SetAPIKey(p.valueOrPrompt(apiKey, "API Key"))
	form.SetAPISecret(p.valueOrPrompt(apiSecret, "API Secret"))
	form.SetSessionKey(p.valueOrPrompt(sessionKey, "Session Key"))

	outcome, err := form.Submit(cmd.Context())
	if err != nil {
		log.Fatalf("Login failed: %v", err)
	}
	if !outcome.Navigated {
		fmt.Fprintf(cmd.ErrOrStderr(), "Login failed: %s\n", outcome.Message)
		os.Exit(1)
	}
}

func runProfile(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	stored, err := session.NewFileStore(cfg.Login.SessionFile).Get(auth.SessionKeyName)
	if errors.Is(err, session.ErrNotFound) {
		log.Fatalf("Not logged in. Run `tradelogin login` first")
	}
	if err != nil {
		log.Fatalf("Failed to read session: %v", err)
	}

	reply, err := newLoginClient(cfg).Profile(cmd.Context(), stored)
	if err != nil {
		log.Fatalf("Failed to fetch profile: %v", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Hello %s\n", reply.FirstName)
	for _, key := range []string{"user_id", "user_name", "email", "broker"} {
		if v, ok := reply.Profile[key]; ok {
			fmt.Fprintf(cmd.OutOrStdout(), "  %-10s %v\n", key, v)
		}
	}
}

func runLogout(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	err := session.NewFileStore(cfg.Login.SessionFile).Delete(auth.SessionKeyName)
	if err != nil && !errors.Is(err, session.ErrNotFound) {
		log.Fatalf("Failed to remove session: %v", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
}

func runServe(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigchan := make(chan os.Signal, 1)
	signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigchan
		log.Printf("Received signal %v, initiating shutdown...", sig)
		cancel()
	}()

	var backend *authserver.Server
	if cfg.Server.WithBackend {
		if cfg.Broker.Name != "zerodha" {
			log.Fatalf("Unsupported broker %q", cfg.Broker.Name)
		}
		opts := authserver.Options{DetailsTTL: cfg.Broker.ProfileCacheTTL}
		if cfg.Instruments.FirstRunOnLogin {
			firstRun := instruments.NewFirstRun(cfg.Instruments, nil)
			opts.AfterLogin = firstRun.Ensure
			opts.Instruments = firstRun
		}
		backend = authserver.NewServer(ctx, authserver.NewKiteBroker(cfg.Broker.KiteBaseURI), opts)
	} else if cfg.Login.APIBaseURL == "" && !cfg.Server.TrustForwardedHeaders {
		log.Fatalf("serve without --with-backend needs login.api_base_url, or server.trust_forwarded_headers behind a proxy that routes /api")
	}

	sessions := session.NewManager(cfg.Server.CookieName, cfg.Server.CookieSecure)
	site := web.NewServer(cfg, sessions, nil, backend, prometheus.NewRegistry())

	srv := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           site.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
		defer done()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	log.Printf("Serving login page on %s (backend: %v)", cfg.Server.ListenAddr, cfg.Server.WithBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server failed: %v", err)
	}
}
