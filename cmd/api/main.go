package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/PortNumber53/content-strategy-engine/internal/ai"
	"github.com/PortNumber53/content-strategy-engine/internal/cache"
	"github.com/PortNumber53/content-strategy-engine/internal/config"
	"github.com/PortNumber53/content-strategy-engine/internal/handlers"
	"github.com/PortNumber53/content-strategy-engine/internal/logging"
	"github.com/PortNumber53/content-strategy-engine/internal/middleware"
	"github.com/PortNumber53/content-strategy-engine/internal/models"
	"github.com/PortNumber53/content-strategy-engine/internal/pipeline"
	"github.com/PortNumber53/content-strategy-engine/internal/sources"
	"github.com/PortNumber53/content-strategy-engine/internal/sources/providers"
	"github.com/PortNumber53/content-strategy-engine/internal/store"
	"github.com/PortNumber53/content-strategy-engine/internal/workers"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
)

type deps struct {
	getenv         func(string) string
	openDB         func(driverName, dataSourceName string) (*sql.DB, error)
	migrateUp      func(db *sql.DB, dialect store.Dialect) error
	listenAndServe func(*http.Server) error
	stopCh         chan os.Signal
	notify         func(c chan<- os.Signal, sig ...os.Signal)
}

func defaultDeps() deps {
	return deps{
		getenv:    os.Getenv,
		openDB:    store.Open,
		migrateUp: migrateUp,
		listenAndServe: func(s *http.Server) error {
			return s.ListenAndServe()
		},
		notify: signal.Notify,
	}
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := run(defaultDeps()); err != nil {
		fmt.Fprintf(os.Stderr, "content-strategy-engine: %v\n", err)
		os.Exit(1)
	}
}

func run(d deps) error {
	if d.getenv == nil {
		d.getenv = os.Getenv
	}
	if d.openDB == nil {
		return errors.New("openDB is required")
	}
	if d.listenAndServe == nil {
		return errors.New("listenAndServe is required")
	}
	if d.migrateUp == nil {
		d.migrateUp = migrateUp
	}

	cfg, err := config.Load(d.getenv)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return err
	}
	dialect, err := store.ParseDialect(cfg.Database.Driver)
	if err != nil {
		return err
	}

	// Root context for background workers and graceful shutdown
	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := d.openDB(string(dialect), cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	if err := d.migrateUp(db, dialect); err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}
	logger.WithField("driver", dialect).Info("[API] database is up-to-date")

	st := store.New(db, dialect)
	svc := ai.NewService(newCompleter(rootCtx, cfg.AI, logger), logger, cfg.AITimeout())
	runner := buildSources(cfg, st.ConsumeRequests, svc, logger)
	defer flushCaches(runner, logger)
	p := pipeline.New(runner, svc, st, logger)

	if cfg.Auth.JWTSecret == "" {
		logger.Warn("[API] JWT_SECRET is empty; protected routes will reject every request")
	}
	auth := middleware.NewAuthenticator(cfg.Auth.JWTSecret, logger)
	h := handlers.New(p, logger)

	srv := &http.Server{
		Handler:     withCORS(middleware.RequestLogger(logger)(buildRouter(h, auth.Middleware))),
		Addr:        ":" + cfg.Port,
		ReadTimeout: 15 * time.Second,
		// strategy generation waits on the model
		WriteTimeout: cfg.AITimeout() + 30*time.Second,
	}

	var wg sync.WaitGroup
	startCompetitorRefreshWorker(rootCtx, &wg, cfg, st, p, logger)
	defer wg.Wait()

	// Handle graceful shutdown on SIGINT/SIGTERM
	stop := d.stopCh
	if stop == nil {
		stop = make(chan os.Signal, 1)
		if d.notify != nil {
			d.notify(stop, os.Interrupt, syscall.SIGTERM)
		}
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.WithField("port", cfg.Port).Info("[API] server starting")
		serveErr <- d.listenAndServe(srv)
	}()

	select {
	case err := <-serveErr:
		cancel()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		logger.Info("[API] server stopped")
		return nil
	case sig := <-stop:
		logger.WithField("signal", sig).Info("[API] shutting down server")
	}

	cancel()
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("[API] server shutdown error")
	}
	if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	logger.Info("[API] server stopped")
	return nil
}

func migrateUp(db *sql.DB, dialect store.Dialect) error {
	if db == nil {
		return errors.New("db is nil")
	}
	return store.MigrateUp(db, dialect)
}

// newCompleter falls back to an always-failing backend so the API still answers
// (with fallbacks) when no model is configured.
func newCompleter(ctx context.Context, cfg config.AIConfig, logger *logrus.Logger) ai.Completer {
	c, err := ai.NewCompleter(ctx, cfg)
	if err != nil {
		logger.WithError(err).WithField("provider", cfg.Provider).Warn("[API] AI backend unavailable; using fallbacks")
		return ai.Unavailable(err)
	}
	return c
}

// buildSources registers the trend fan-out and the competitor adapters. Keyed topic
// sources are skipped without credentials so they never spend quota on a known failure.
func buildSources(cfg config.Config, quota sources.QuotaFunc, suggester providers.TrendSuggester, logger *logrus.Logger) *sources.Runner {
	client := &http.Client{Timeout: cfg.ClientTimeout()}
	trendCache := func(ttl time.Duration) *cache.Cache[[]models.Trend] { return cache.New[[]models.Trend](ttl) }
	fetchCache := func() *cache.Cache[models.CompetitorFetch] { return cache.New[models.CompetitorFetch](cfg.CacheTTL()) }

	r := sources.NewRunner(cfg.Sources.Limits, quota, logger)

	if key := cfg.Sources.YouTubeAPIKey; key != "" {
		r.AddTopicSource(providers.YouTubeSearch{APIKey: key, Client: client}, trendCache(cfg.CacheTTL()))
	} else {
		logger.Warn("[Sources] YOUTUBE_API_KEY not set; youtube trend search disabled")
	}
	if token := cfg.Sources.TwitterBearerToken; token != "" {
		r.AddTopicSource(providers.TwitterSearch{BearerToken: token, Client: client}, trendCache(cfg.FastCacheTTL()))
	} else {
		logger.Warn("[Sources] TWITTER_BEARER_TOKEN not set; twitter trend search disabled")
	}
	r.AddTopicSource(providers.NewReddit(client), trendCache(cfg.CacheTTL()))
	if cfg.Sources.GoogleTrendsEnabled {
		r.AddTopicSource(providers.GoogleTrends{Geo: cfg.Sources.GoogleTrendsGeo, Client: client}, trendCache(cfg.CacheTTL()))
	}
	r.AddTopicSource(providers.AITrends{Suggester: suggester}, trendCache(cfg.CacheTTL()))

	r.AddCompetitorSource(providers.YouTubeChannel{APIKey: cfg.Sources.YouTubeAPIKey, Client: client}, fetchCache())
	r.AddCompetitorSource(providers.TwitterTimeline{BearerToken: cfg.Sources.TwitterBearerToken, Client: client}, fetchCache())
	r.AddCompetitorSource(providers.NewBlog(client), fetchCache())

	logger.WithField("topic_sources", r.TopicSources()).Info("[Sources] configured")
	return r
}

// flushCaches drops every cached source result on teardown.
func flushCaches(r *sources.Runner, logger *logrus.Logger) {
	n := r.FlushCaches()
	logger.WithField("entries", n).Info("[Sources] caches flushed")
}

func startCompetitorRefreshWorker(ctx context.Context, wg *sync.WaitGroup, cfg config.Config, st *store.Store, p *pipeline.Pipeline, logger *logrus.Logger) {
	if !cfg.Refresh.Enabled {
		logger.Info("[CompetitorRefreshWorker] disabled via COMPETITOR_REFRESH_ENABLED")
		return
	}
	w := &workers.CompetitorRefreshWorker{
		Store:      st,
		Refresher:  p,
		Logger:     logger,
		Interval:   cfg.RefreshInterval(),
		StaleAfter: cfg.RefreshStaleAfter(),
		Batch:      cfg.Refresh.Batch,
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.Start(ctx)
	}()
}

func buildRouter(h *handlers.Handler, auth func(http.Handler) http.Handler) *mux.Router {
	r := mux.NewRouter()
	handlers.RegisterRoutes(h, r, auth)
	return r
}

func withCORS(next http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})
	return c.Handler(next)
}
