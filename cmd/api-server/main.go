package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/morphid/biodid-middleware/pkg/app/httpserver"
	"github.com/morphid/biodid-middleware/pkg/auth"
	"github.com/morphid/biodid-middleware/pkg/bundlestore"
	bundlesvc "github.com/morphid/biodid-middleware/pkg/bundlestore/service"
	"github.com/morphid/biodid-middleware/pkg/config"
	"github.com/morphid/biodid-middleware/pkg/did"
	enrollsvc "github.com/morphid/biodid-middleware/pkg/enrollment/service"
	"github.com/morphid/biodid-middleware/pkg/fuzzy"
	"github.com/morphid/biodid-middleware/pkg/helperstore"
	"github.com/morphid/biodid-middleware/pkg/pgutil"
	"github.com/morphid/biodid-middleware/pkg/pgutil/migrations"
	"github.com/morphid/biodid-middleware/pkg/registry"
	"github.com/morphid/biodid-middleware/pkg/verifier"
	verifysvc "github.com/morphid/biodid-middleware/pkg/verifier/service"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to setup logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting biometric DID middleware",
		zap.String("config", *configPath),
		zap.String("network", cfg.Identity.Network),
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port))

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Server exited with error", zap.Error(err))
	}
	logger.Info("Server stopped")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := newBundleStore(cfg, logger)
	if err != nil {
		return err
	}

	helperStore, err := newHelperStore(cfg, logger)
	if err != nil {
		return err
	}

	params, err := loadParams(cfg)
	if err != nil {
		return err
	}
	extractor, err := fuzzy.NewExtractor(params)
	if err != nil {
		return err
	}

	guard := registry.NewGuard(bundlestore.NewIndex(store), cfg.Identity.RegistryTimeout, logger)

	enrollService := enrollsvc.NewService(extractor, guard, store, helperStore, enrollsvc.Options{
		Network:                did.Network(cfg.Identity.Network),
		RequireControllerProof: cfg.Identity.RequireControllerProof,
	}, logger)
	verifyService := verifysvc.NewService(verifier.New(extractor), helperStore, logger)
	bundleService := bundlesvc.NewService(store, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/v1", func(v1 chi.Router) {
		enrollsvc.RegisterRoutes(v1, enrollService, logger)
		verifysvc.RegisterRoutes(v1, verifyService, logger)
		bundlesvc.RegisterRoutes(v1, bundleService, logger)

		if cfg.Auth.JWTSecret != "" {
			tokenVerifier := auth.NewTokenVerifier(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer)
			v1.Group(func(g chi.Router) {
				g.Use(tokenVerifier.Middleware)
				bundlesvc.RegisterManagementRoutes(g, bundleService, logger)
			})
		} else {
			logger.Warn("JWT secret not configured, bundle management endpoints disabled")
		}
	})

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		srv := &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler:      r,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  cfg.Server.IdleTimeout,
		}
		return httpserver.ServeAndWait(ctx, logger.Named("api"), srv, cfg.Shutdown.Timeout)
	})

	if cfg.Monitoring.Enabled {
		g.Go(func() error {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			srv := &http.Server{
				Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Monitoring.MetricsPort),
				Handler: mux,
			}
			return httpserver.ServeAndWait(ctx, logger.Named("metrics"), srv, cfg.Shutdown.Timeout)
		})
	}

	return g.Wait()
}

// newBundleStore selects the configured bundle store backend.
func newBundleStore(cfg *config.Config, logger *zap.Logger) (bundlestore.Store, error) {
	switch cfg.Identity.Storage {
	case "memory":
		logger.Warn("Using in-memory bundle store, enrollments will not survive restarts")
		return bundlestore.NewMemoryStore(), nil
	default:
		db, err := pgutil.ConnectDB(&cfg.Database)
		if err != nil {
			return nil, err
		}
		if err := migrations.CreateSchema(context.Background(), db, (*bundlestore.BundleDao)(nil)); err != nil {
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
		logger.Info("Connected to database",
			zap.String("host", cfg.Database.Host),
			zap.String("database", cfg.Database.Database))
		return bundlestore.NewStore(db), nil
	}
}

// newHelperStore selects the external helper data backend. A nil store
// disables storage_mode=external enrollments.
func newHelperStore(cfg *config.Config, logger *zap.Logger) (helperstore.Store, error) {
	switch cfg.Identity.HelperStorage {
	case "redis":
		s, err := helperstore.NewRedisStore(&cfg.Redis)
		if err != nil {
			return nil, err
		}
		logger.Info("Connected to helper data store", zap.String("addr", cfg.Redis.Addr))
		return s, nil
	case "memory":
		return helperstore.NewMemoryStore(), nil
	default:
		return nil, nil
	}
}

// loadParams resolves the quantization parameter set.
func loadParams(cfg *config.Config) (fuzzy.Params, error) {
	if cfg.Identity.ProfileFile == "" {
		return fuzzy.DefaultParams(), nil
	}
	return fuzzy.LoadProfile(cfg.Identity.ProfileFile, cfg.Identity.Profile)
}
