package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/crewplane/crewplane/pkg/api"
	"github.com/crewplane/crewplane/pkg/authz"
	"github.com/crewplane/crewplane/pkg/config"
	"github.com/crewplane/crewplane/pkg/hierarchy"
	"github.com/crewplane/crewplane/pkg/middleware"
	"github.com/crewplane/crewplane/pkg/observability"
	"github.com/crewplane/crewplane/pkg/orgs"
	"github.com/crewplane/crewplane/pkg/roles"
	"github.com/crewplane/crewplane/pkg/storage"
	"github.com/crewplane/crewplane/pkg/users"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		os.Stderr.WriteString("failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	logger.Info("starting crewplane authorization service")

	db, err := storage.Connect(cfg.Database)
	if err != nil {
		logger.WithError(err).Error("database connection failed")
		os.Exit(1)
	}
	defer db.Close()

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 2*time.Minute)
	if err := storage.Migrate(migrateCtx, db); err != nil {
		cancelMigrate()
		logger.WithError(err).Error("database migration failed")
		os.Exit(1)
	}
	cancelMigrate()

	// Redis is optional: without it, cache invalidation stays local to
	// this instance.
	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			logger.WithError(err).Error("invalid redis URL")
			os.Exit(1)
		}
		if cfg.Redis.Password != "" {
			opts.Password = cfg.Redis.Password
		}
		opts.DB = cfg.Redis.DB
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()
	}

	userStore := users.NewPostgresStore(db)
	roleStore := roles.NewPostgresStore(db)
	orgService := orgs.NewPostgresService(db)
	reportsStore := hierarchy.NewPostgresStore(db)
	resolver := hierarchy.NewResolverWithDepth(reportsStore, cfg.Authz.HierarchyMaxDepth)

	promRegistry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(promRegistry)

	cache := authz.NewCapabilityCache(cfg.Authz.CacheSize, cfg.Authz.CacheTTL)

	var invalidator api.Invalidator = cache
	var redisInvalidator *authz.RedisInvalidator
	if redisClient != nil {
		redisInvalidator = authz.NewRedisInvalidator(redisClient, cache, logger, "")
		invalidator = redisInvalidator
	}

	engine := authz.NewEngine(authz.Config{
		Roles:     roleStore,
		Orgs:      orgService,
		Hierarchy: resolver,
		Cache:     cache,
		Metrics:   metrics,
		Logger:    logger,
	})

	// Optional file-backed plan catalog for operator-managed plans.
	catalogStop := make(chan struct{})
	if cfg.Plans.CatalogPath != "" {
		catalog, err := orgs.LoadCatalog(cfg.Plans.CatalogPath, logger)
		if err != nil {
			logger.WithError(err).Error("plan catalog load failed")
			os.Exit(1)
		}
		logger.WithField("plans", len(catalog.Names())).Info("plan catalog loaded")
		if cfg.Plans.WatchCatalog {
			go func() {
				if err := catalog.Watch(catalogStop); err != nil {
					logger.WithError(err).Warn("plan catalog watch unavailable")
				}
			}()
		}
	}

	sweep := orgs.NewExpirySweep(orgService, cache, cfg.Plans.SweepSchedule, logger)
	if err := sweep.Start(); err != nil {
		logger.WithError(err).Error("plan expiry sweep failed to start")
		os.Exit(1)
	}

	server := api.NewServer(api.ServerConfig{
		Engine:      engine,
		Users:       userStore,
		Orgs:        orgService,
		Roles:       roleStore,
		Invalidator: invalidator,
		Logger:      logger,
	})

	router := server.Router()
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.RequestID(logger))
	if cfg.Observability.MetricsEnabled {
		router.Use(middleware.MetricsMiddleware(metrics))
	}
	actorMW := middleware.NewActorMiddleware(userStore, orgService, logger)
	router.Use(actorMW.Handler)
	router.Use(middleware.ChannelGate(roleStore))

	// Health and metrics on a separate port for k8s probes.
	healthRouter := mux.NewRouter()
	healthRouter.Handle("/healthz", observability.NewHealthHandler(db, redisClient))
	if cfg.Observability.MetricsEnabled {
		healthRouter.Handle("/metrics", metrics.Handler())
	}

	apiServer := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	healthServer := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.HealthPort,
		Handler: healthRouter,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.WithField("addr", apiServer.Addr).Info("api server listening")
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		logger.WithField("addr", healthServer.Addr).Info("health server listening")
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	if redisInvalidator != nil {
		g.Go(func() error {
			return redisInvalidator.Listen(gctx)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		close(catalogStop)
		sweep.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("api server shutdown failed")
		}
		if err := healthServer.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("health server shutdown failed")
		}
		return nil
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.WithError(err).Error("server exited with error")
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}
