// Package api implements app.Runner for the payment API server process.
package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apphttp "github.com/payflow-labs/payflow/pkg/app/http"
	"github.com/payflow-labs/payflow/pkg/auth"
	"github.com/payflow-labs/payflow/pkg/chain"
	"github.com/payflow-labs/payflow/pkg/config"
	"github.com/payflow-labs/payflow/pkg/pgutil"
	"github.com/payflow-labs/payflow/pkg/reconciler"
	"github.com/payflow-labs/payflow/pkg/retry"
	transferservice "github.com/payflow-labs/payflow/pkg/transfer/service"
	"github.com/payflow-labs/payflow/pkg/transferstore"
	"github.com/payflow-labs/payflow/pkg/wallet"
	walletservice "github.com/payflow-labs/payflow/pkg/wallet/service"
)

const defaultRequestTimeout = 60

// Server holds cfg to init the api server.
type Server struct {
	cfg *config.Config
}

// NewServer initializes new api server.
func NewServer(cfg *config.Config) *Server {
	return &Server{cfg: cfg}
}

func (s *Server) Run() error {
	if s.cfg == nil {
		return fmt.Errorf("api server config is nil")
	}
	cfg := s.cfg

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting payment API server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
	)

	db, err := pgutil.ConnectDB(&cfg.Database)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() { _ = db.Close() }()

	logger.Info("Connected to database",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.Database),
	)

	store := transferstore.NewStore(db)

	evmClient, err := chain.NewEVMClient(&cfg.Chain, logger)
	if err != nil {
		return fmt.Errorf("connect chain rpc: %w", err)
	}
	defer evmClient.Close()

	policy := retry.Policy{
		InitialInterval: cfg.Retry.InitialInterval,
		MaxRetries:      cfg.Retry.MaxAttempts,
	}
	rec := reconciler.New(store, evmClient, policy, logger)
	if cfg.Sweep.Enabled {
		rec.StartPendingSweep(reconciler.SweepConfig{
			Interval: cfg.Sweep.Interval,
			MinAge:   cfg.Sweep.MinAge,
			Batch:    cfg.Sweep.Batch,
		})
	}
	// Safety net; the explicit Stop below owns shutdown ordering.
	defer rec.Stop()

	verifier := wallet.NewVerifier(chain.NewSignerSession(evmClient), store, logger)

	transferSvc := transferservice.NewLog(
		transferservice.NewService(rec, store, store, logger), logger)
	walletSvc := walletservice.NewLog(
		walletservice.NewService(verifier, logger), logger)

	validator := auth.NewJWTValidator(cfg.JWKS.URL, cfg.JWKS.Issuer)
	if !validator.IsConfigured() {
		logger.Warn("JWKS not configured; requests are not authenticated")
	}

	router := s.setupRouter(transferSvc, walletSvc, validator, logger)

	err = apphttp.ServeAndWait(ctx, router, logger, &cfg.Server)

	// Stop background reconciliation before deferred closes kick in.
	rec.Stop()

	return err
}

func (s *Server) setupRouter(
	transferSvc transferservice.Service,
	walletSvc walletservice.Service,
	validator *auth.JWTValidator,
	logger *zap.Logger,
) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(time.Second * defaultRequestTimeout))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(v1 chi.Router) {
		v1.Use(validator.Middleware(logger))
		transferservice.RegisterRoutes(v1, transferSvc, logger)
		walletservice.RegisterRoutes(v1, walletSvc, logger)
	})

	return r
}
