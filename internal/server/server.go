package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/preston-bernstein/mlb-data-service/internal/app/players"
	"github.com/preston-bernstein/mlb-data-service/internal/app/predictions"
	"github.com/preston-bernstein/mlb-data-service/internal/app/teams"
	"github.com/preston-bernstein/mlb-data-service/internal/batch"
	"github.com/preston-bernstein/mlb-data-service/internal/config"
	"github.com/preston-bernstein/mlb-data-service/internal/fandata"
	httpserver "github.com/preston-bernstein/mlb-data-service/internal/http"
	"github.com/preston-bernstein/mlb-data-service/internal/http/handlers"
	"github.com/preston-bernstein/mlb-data-service/internal/http/middleware"
	"github.com/preston-bernstein/mlb-data-service/internal/llm"
	"github.com/preston-bernstein/mlb-data-service/internal/logging"
	"github.com/preston-bernstein/mlb-data-service/internal/metrics"
	"github.com/preston-bernstein/mlb-data-service/internal/poller"
	"github.com/preston-bernstein/mlb-data-service/internal/providers"
	"github.com/preston-bernstein/mlb-data-service/internal/store"
	"github.com/preston-bernstein/mlb-data-service/internal/swr"
)

var metricsSetup = metrics.Setup

type Server struct {
	cfg                config.Config
	logger             *slog.Logger
	metrics            *metrics.Recorder
	playersService     *players.Service
	teamsService       *teams.Service
	predictionsService *predictions.Service
	predictionStore    store.PredictionStore
	statsCache         store.StatsCache
	httpServer         httpServer
	metricsServer      httpServer
	poller             Poller
	metricsStop        func(context.Context) error
}

// deps lets tests swap the upstream provider, the model and the recorder.
type deps struct {
	provider  providers.DataProvider
	generator llm.Generator
	recorder  *metrics.Recorder
}

// New wires the upstream path, caches, stores, warmer and HTTP servers from cfg.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	return newServer(ctx, cfg, logger, deps{})
}

func newServer(ctx context.Context, cfg config.Config, logger *slog.Logger, d deps) (*Server, error) {
	if logger == nil {
		logger = logging.NewLogger(logging.Config{})
	}
	recorder, metricsSrv, metricsShutdown := buildMetrics(cfg, logger, d.recorder)

	factory := newProviderFactory(logger, recorder)
	up := factory.upstream(cfg)
	provider := d.provider
	if provider == nil {
		provider = factory.build(cfg, up)
	}
	generator := d.generator
	if generator == nil {
		generator = buildGenerator(cfg, logger)
	}

	predStore, err := store.OpenPredictions(ctx, cfg.Predictions.Store, cfg.Predictions.DSN)
	if err != nil {
		if metricsShutdown != nil {
			_ = metricsShutdown(ctx)
		}
		return nil, fmt.Errorf("open predictions store: %w", err)
	}
	statsCache := store.OpenStatsCache(ctx, cfg.TeamStats.RedisURL, cfg.TeamStats.TTL, logger)

	fans := fandata.NewSource(fandata.Config{
		URL:    cfg.Fans.URL,
		File:   cfg.Fans.File,
		Getter: up.fans,
		Logger: logger,
	})
	orchestrator := batch.New(cfg.Batch.Size, cfg.Batch.Window, logger, recorder)

	playerSvc := players.NewService(players.Config{
		Provider: provider,
		Fans:     fans,
		Batch:    orchestrator,
		Gate:     up.gate,
		Cache:    cacheConfig(cfg, "players", logger, recorder),
		Logger:   logger,
	})
	teamSvc := teams.NewService(teams.Config{
		Provider: provider,
		Fans:     fans,
		Cache:    cacheConfig(cfg, "teams", logger, recorder),
		Logger:   logger,
	})
	predSvc := predictions.NewService(predictions.Config{
		Schedule:  provider,
		Generator: generator,
		Store:     predStore,
		Stats:     statsCache,
		Batch:     orchestrator,
		TTL:       cfg.Predictions.TTL,
		Window:    cfg.Generator.Window,
		Location:  providers.ResolveTimezone(cfg.MLB.Timezone),
		Logger:    logger,
	})

	plr, err := buildPoller(cfg, logger, recorder, playerSvc, teamSvc, predSvc)
	if err != nil {
		_ = predStore.Close()
		if metricsShutdown != nil {
			_ = metricsShutdown(ctx)
		}
		return nil, err
	}

	s := &Server{
		cfg:                cfg,
		logger:             logger,
		metrics:            recorder,
		playersService:     playerSvc,
		teamsService:       teamSvc,
		predictionsService: predSvc,
		predictionStore:    predStore,
		statsCache:         statsCache,
		metricsServer:      metricsSrv,
		poller:             plr,
		metricsStop:        metricsShutdown,
	}
	s.httpServer = s.buildHTTPServer()
	return s, nil
}

// newServerWithDeps is used for testing to inject custom components.
func newServerWithDeps(cfg config.Config, logger *slog.Logger, httpSrv httpServer, plr Poller) *Server {
	return &Server{
		cfg:        cfg,
		logger:     logger,
		httpServer: httpSrv,
		poller:     plr,
	}
}

func cacheConfig(cfg config.Config, name string, logger *slog.Logger, recorder *metrics.Recorder) swr.Config {
	return swr.Config{
		Name:        name,
		Fresh:       cfg.Cache.Fresh,
		Stale:       cfg.Cache.Stale,
		LoadTimeout: cfg.Cache.LoadTimeout,
		Logger:      logger,
		Metrics:     recorder,
	}
}

// buildGenerator returns nil when no API key is configured; predictions then fail with a 500.
func buildGenerator(cfg config.Config, logger *slog.Logger) llm.Generator {
	if cfg.Generator.APIKey == "" {
		logging.Warn(logger, "generator api key not set, predictions disabled")
		return nil
	}
	return llm.NewClient(llm.Config{
		APIKey:  cfg.Generator.APIKey,
		BaseURL: cfg.Generator.BaseURL,
		Model:   cfg.Generator.Model,
		Logger:  logger,
	})
}

// buildPoller schedules the warm-up and prune jobs. It returns nil when refresh is disabled.
func buildPoller(cfg config.Config, logger *slog.Logger, recorder *metrics.Recorder, playerSvc *players.Service, teamSvc *teams.Service, predSvc *predictions.Service) (Poller, error) {
	if !cfg.Refresh.Enabled {
		return nil, nil
	}
	jobs := []poller.Job{
		{Name: "players", Schedule: cfg.Refresh.PlayersSchedule, Required: true, Run: playerSvc.Refresh},
		{Name: "teams", Schedule: cfg.Refresh.TeamsSchedule, Run: teamSvc.Refresh},
		{Name: "prune", Schedule: cfg.Refresh.PruneSchedule, Run: func(ctx context.Context) error {
			n, err := predSvc.Prune(ctx)
			if err == nil && n > 0 {
				logging.Info(logger, "pruned expired predictions", logging.FieldCount, n)
			}
			return err
		}},
	}
	p, err := poller.New(jobs, logger, recorder)
	if err != nil {
		return nil, fmt.Errorf("build warmer: %w", err)
	}
	return p, nil
}

func (s *Server) buildHTTPServer() httpServer {
	var readyFn func() bool
	if s.poller != nil {
		readyFn = s.poller.Ready
	}

	handler := handlers.NewHandler(s.playersService, s.teamsService, s.predictionsService, s.logger, readyFn)
	var admin *handlers.AdminHandler
	if s.cfg.Admin.Token != "" {
		admin = handlers.NewAdminHandler(s.cfg.Admin.Token, map[string]handlers.RefreshFunc{
			"players": s.playersService.Refresh,
			"teams":   s.teamsService.Refresh,
		}, s.logger)
	}
	limiter := middleware.NewClientLimiter(s.cfg.ClientLimit.Limit, s.cfg.ClientLimit.Window, s.logger)
	router := httpserver.NewRouter(handler, admin, limiter, s.logger)
	wrapped := middleware.LoggingMiddleware(s.logger, s.metrics, router)

	srv := &http.Server{
		Addr:         ":" + s.cfg.Port,
		Handler:      wrapped,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	return netHTTPServer{srv: srv}
}

// Run starts the warmer and HTTP server, then waits for context cancellation to shut down gracefully.
func (s *Server) Run(ctx context.Context, stop context.CancelFunc) {
	s.startMetrics()
	s.startServer(stop)
	if s.poller != nil {
		if err := s.poller.Start(ctx); err != nil {
			logging.Error(s.logger, "failed to start warmer", err)
			if stop != nil {
				stop()
			}
		}
	}

	<-ctx.Done()
	logging.Info(s.logger, "shutdown signal received")

	s.gracefulShutdown()
}

func (s *Server) startServer(stop context.CancelFunc) {
	logging.Info(s.logger, "http server starting", slog.String("addr", s.httpServer.Addr()))
	launchServer("http", s.httpServer, s.logger, func(err error) {
		if stop != nil {
			stop()
		}
	})
}

func (s *Server) startMetrics() {
	if s.metricsServer == nil {
		return
	}
	logging.Info(s.logger, "metrics server starting", slog.String("addr", s.metricsServer.Addr()))
	launchServer("metrics", s.metricsServer, s.logger, nil)
}

func (s *Server) gracefulShutdown() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if s.metricsStop != nil {
		if err := s.metricsStop(shutdownCtx); err != nil {
			logging.Warn(s.logger, "metrics shutdown failed", "error", err)
		}
	}

	if s.metricsServer != nil {
		if err := s.metricsServer.Shutdown(shutdownCtx); err != nil {
			logging.Warn(s.logger, "metrics server shutdown failed", "error", err)
		}
	}

	if s.poller != nil {
		if err := s.poller.Stop(shutdownCtx); err != nil {
			logging.Error(s.logger, "failed to stop warmer", err)
		}
	}

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		logging.Error(s.logger, "graceful shutdown failed", err)
	}

	// Background revalidations may still be writing to the caches.
	if s.playersService != nil {
		s.playersService.Wait()
	}
	if s.teamsService != nil {
		s.teamsService.Wait()
	}

	if err := s.closeStores(); err != nil {
		logging.Warn(s.logger, "store close failed", "error", err)
	}

	logging.Info(s.logger, "shutdown complete")
}

func (s *Server) closeStores() error {
	var errs []error
	if s.predictionStore != nil {
		errs = append(errs, s.predictionStore.Close())
	}
	if c, ok := s.statsCache.(interface{ Close() error }); ok {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

func buildMetrics(cfg config.Config, logger *slog.Logger, recorder *metrics.Recorder) (*metrics.Recorder, httpServer, func(context.Context) error) {
	if recorder != nil {
		return recorder, nil, nil
	}

	recCfg := metrics.TelemetryConfig{
		Enabled:      cfg.Metrics.Enabled,
		Port:         cfg.Metrics.Port,
		ServiceName:  cfg.Metrics.ServiceName,
		OtlpEndpoint: cfg.Metrics.OtlpEndpoint,
		OtlpInsecure: cfg.Metrics.OtlpInsecure,
	}

	rec, handler, shutdown, err := metricsSetup(context.Background(), recCfg)
	if err != nil {
		logging.Warn(logger, "metrics setup failed, continuing without telemetry", "error", err)
		return metrics.NewRecorder(), nil, nil
	}

	var metricsSrv httpServer
	if handler != nil && recCfg.Enabled {
		metricsSrv = netHTTPServer{
			srv: &http.Server{
				Addr:    ":" + recCfg.Port,
				Handler: handler,
			},
		}
	}

	return rec, metricsSrv, shutdown
}

func launchServer(name string, srv httpServer, logger *slog.Logger, onError func(error)) {
	go func() {
		logging.Info(logger, "starting "+name+" server", slog.String("addr", srv.Addr()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Warn(logger, name+" server failed", "error", err)
			if onError != nil {
				onError(err)
			}
		}
	}()
}

// Handler exposes the HTTP handler (useful for tests).
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler()
}
