package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	accounthandler "cloudpad-admin/backend/internal/account/handler"
	accountrepo "cloudpad-admin/backend/internal/account/repository"
	accountservice "cloudpad-admin/backend/internal/account/service"
	"cloudpad-admin/backend/internal/audit"
	auditrepo "cloudpad-admin/backend/internal/audit/repository"
	authhandler "cloudpad-admin/backend/internal/auth/handler"
	authservice "cloudpad-admin/backend/internal/auth/service"
	"cloudpad-admin/backend/internal/config"
	"cloudpad-admin/backend/internal/db"
	"cloudpad-admin/backend/internal/security"
	"cloudpad-admin/backend/internal/server"
	"cloudpad-admin/backend/internal/server/middleware"
	"cloudpad-admin/backend/internal/telemetry/otel"
)

const serviceName = "cloudpad-admin"

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db", "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, serviceName, false)
	if err != nil {
		log.Error("telemetry", "error", err)
		os.Exit(1)
	}
	providers.SetGlobal()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			log.Error("telemetry shutdown", "error", err)
		}
	}()

	accounts := accountrepo.NewPostgresRepository(conn)
	auditStore := auditrepo.NewPostgresRepository(conn)
	audits := audit.NewLogger(auditStore, middleware.GetClientIP, log)
	hasher := security.NewHasher(cfg.BcryptCost)
	tokens := security.NewTokenProvider(
		[]byte(cfg.JWTAccessSecret), []byte(cfg.JWTRefreshSecret),
		cfg.JWTIssuer, cfg.AccessTTL(), cfg.RefreshTTL(),
	)

	authSvc := authservice.NewAuthService(accounts, hasher, tokens, audits)
	accountSvc := accountservice.NewService(accounts, hasher, audits)

	srv, err := server.New(server.Deps{
		Addr:     cfg.HTTPAddr,
		Logger:   log,
		Tokens:   tokens,
		Auth:     authhandler.NewHandler(authSvc, log),
		Accounts: accounthandler.NewHandler(accountSvc, authSvc, auditStore, log),
		DB:       conn,
		Tracer:   providers.TracerProvider.Tracer(serviceName),
		Meter:    providers.MeterProvider.Meter(serviceName),
	})
	if err != nil {
		log.Error("server", "error", err)
		os.Exit(1)
	}

	srv.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down http server")
	if err := srv.Shutdown(context.Background()); err != nil {
		log.Error("shutdown", "error", err)
	}
	log.Info("http server stopped")
}
