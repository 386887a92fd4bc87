package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"sync"

	"github.com/go-chi/chi/v5"
	"golang.org/x/oauth2"

	"github.com/davefn/mailburst/internal/campaign"
	"github.com/davefn/mailburst/internal/gmail"
	"github.com/davefn/mailburst/internal/google"
	"github.com/davefn/mailburst/internal/logging"
	"github.com/davefn/mailburst/internal/recipients"
	"github.com/davefn/mailburst/internal/render"
)

// Config holds all paths and knobs of the web app. Every component receives
// it at construction; there is no package-level mutable state.
type Config struct {
	// Addr is the listen address of the main HTTP server.
	Addr string

	// BaseURL is the externally visible base URL, used to build the OAuth
	// redirect URL. Defaults to http://localhost<Addr>.
	BaseURL string

	// UploadsDir receives uploaded credential files, recipient tables,
	// static attachments and generated artifacts.
	UploadsDir string

	// ClientSecretPath is where the uploaded OAuth client-secret file
	// lives. Defaults to <UploadsDir>/client_secret.json.
	ClientSecretPath string

	// TokenPath is the credential store's token file. Defaults to
	// <UploadsDir>/token.json.
	TokenPath string

	// AllowDuplicates keeps repeated recipient addresses in campaigns.
	AllowDuplicates bool

	// Strategy selects the variant selection policy for campaigns.
	Strategy campaign.Strategy
}

// withDefaults fills unset fields.
func (c Config) withDefaults() Config {
	if c.Addr == "" {
		c.Addr = ":5000"
	}
	if c.UploadsDir == "" {
		c.UploadsDir = "uploads"
	}
	if c.ClientSecretPath == "" {
		c.ClientSecretPath = filepath.Join(c.UploadsDir, "client_secret.json")
	}
	if c.TokenPath == "" {
		c.TokenPath = filepath.Join(c.UploadsDir, "token.json")
	}
	if c.BaseURL == "" {
		c.BaseURL = "http://localhost" + c.Addr
	}
	if c.Strategy == "" {
		c.Strategy = campaign.StrategyRandom
	}
	return c
}

// redirectURL is the OAuth callback URL for this instance.
func (c Config) redirectURL() string {
	return c.BaseURL + "/oauth2callback"
}

// senderFactory builds a Sender bound to the current credentials. Swapped
// out in tests.
type senderFactory func(ctx context.Context) (campaign.Sender, error)

// App wires the HTTP handlers to the credential store, recipient
// extractor, attachment generator and campaign runner.
type App struct {
	cfg       Config
	logger    *slog.Logger
	store     *google.CredentialStore
	extractor *recipients.Extractor
	generator *render.Generator
	metrics   campaign.Metrics
	selector  campaign.SelectorFactory
	newSender senderFactory

	mu      sync.Mutex
	lastJob *campaign.Job
}

// New creates the web app.
func New(cfg Config, metrics campaign.Metrics, logger *slog.Logger) (*App, error) {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	logger = logging.WithComponent(logger, "server")

	selector, err := campaign.NewSelectorFactory(cfg.Strategy)
	if err != nil {
		return nil, err
	}

	generator, err := render.NewGenerator(filepath.Join(cfg.UploadsDir, "generated"), logger)
	if err != nil {
		return nil, err
	}

	if metrics == nil {
		metrics = NewMetrics(nil)
	}

	a := &App{
		cfg:       cfg,
		logger:    logger,
		store:     google.NewCredentialStore(cfg.TokenPath, logger),
		extractor: recipients.New(recipients.Options{AllowDuplicates: cfg.AllowDuplicates}, logger),
		generator: generator,
		metrics:   metrics,
		selector:  selector,
	}
	a.newSender = a.gmailSender
	return a, nil
}

// Router builds the HTTP routes.
func (a *App) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/", a.handleIndex)
	r.Get("/authorize", a.handleAuthorize)
	r.Get("/oauth2callback", a.handleOAuthCallback)
	r.Post("/upload_credentials", a.handleUploadCredentials)
	r.Post("/send", a.handleSend)
	r.Post("/send_bulk", a.handleSendBulk)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}

// oauthConfig loads the uploaded client secret.
func (a *App) oauthConfig() (*oauth2.Config, error) {
	conf, err := google.LoadOAuthConfig(a.cfg.ClientSecretPath, a.cfg.redirectURL())
	if err != nil {
		return nil, fmt.Errorf("no OAuth client configuration: %w", err)
	}
	return conf, nil
}

// gmailSender is the production sender factory: OAuth-backed Gmail client
// with refresh persistence through the credential store.
func (a *App) gmailSender(ctx context.Context) (campaign.Sender, error) {
	conf, err := a.oauthConfig()
	if err != nil {
		return nil, google.ErrNoCredentials
	}

	ts, err := a.store.TokenSource(ctx, conf)
	if err != nil {
		return nil, err
	}

	return gmail.NewClient(ctx, ts, a.logger)
}

// LastJob returns the most recently started campaign job, if any. The bulk
// endpoint itself never blocks on it.
func (a *App) LastJob() *campaign.Job {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastJob
}

func (a *App) setLastJob(job *campaign.Job) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastJob = job
}
