package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	auditHandler "aegis/internal/audit/handler"
	auditMetrics "aegis/internal/audit/metrics"
	"aegis/internal/audit/observer"
	auditService "aegis/internal/audit/service"
	auditStore "aegis/internal/audit/store"
	"aegis/internal/authz"
	consentHandler "aegis/internal/consent/handler"
	consentMetrics "aegis/internal/consent/metrics"
	consentService "aegis/internal/consent/service"
	consentStore "aegis/internal/consent/store"
	identityHandler "aegis/internal/identity/handler"
	identityService "aegis/internal/identity/service"
	identityStore "aegis/internal/identity/store"
	jwttoken "aegis/internal/jwt_token"
	"aegis/internal/platform/config"
	"aegis/internal/platform/database"
	"aegis/internal/platform/health"
	"aegis/internal/platform/logger"
	"aegis/internal/rbac"
	"aegis/internal/seeder"
	httptransport "aegis/internal/transport/http"
)

// main wires dependencies and owns the server lifecycle. Business logic
// lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	log.Info("initializing aegis",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
		"database", cfg.DatabaseURL != "",
	)

	dbCfg := database.DefaultConfig()
	dbCfg.URL = cfg.DatabaseURL
	pool, err := database.New(dbCfg)
	if err != nil {
		log.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close() //nolint:errcheck // best-effort cleanup on exit

	// Postgres when configured, in-memory otherwise.
	var (
		users    identityStore.Store
		audits   auditStore.Store
		consents consentStore.Store
	)
	if pool != nil {
		users = identityStore.NewPostgres(pool.DB())
		audits = auditStore.NewPostgres(pool.DB())
		consents = consentStore.NewPostgres(pool.DB())
	} else {
		users = identityStore.NewInMemory()
		audits = auditStore.NewInMemory()
		consents = consentStore.NewInMemory()
	}

	ctx := context.Background()
	if cfg.SeedUsers {
		if err := seeder.New(users, log).Run(ctx); err != nil {
			log.Error("seeding failed", "error", err)
			os.Exit(1)
		}
	}

	tokens := jwttoken.NewService(cfg.JWTSigningKey, cfg.TokenTTL)
	engine := rbac.NewEngine(nil)

	aMetrics := auditMetrics.New()
	cMetrics := consentMetrics.New()

	recorder := auditService.NewRecorder(audits, log, auditService.WithMetrics(aMetrics))
	consent := consentService.NewService(consents, recorder, log, consentService.WithMetrics(cMetrics))
	identity := identityService.New(users, tokens, log)

	healthHandler := health.New(cfg.Environment)
	if pool != nil {
		healthHandler.RegisterCheck("database", func() error {
			checkCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return pool.Health(checkCtx)
		})
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Identity:  identityHandler.New(identity, log),
		Audit:     auditHandler.New(recorder, log),
		Consent:   consentHandler.New(consent, log),
		Health:    healthHandler,
		Gate:      authz.NewGate(engine, log),
		Observer:  observer.New(recorder, log, observer.WithMetrics(aMetrics)),
		Validator: tokens,
		Logger:    log,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info("starting http server", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}
