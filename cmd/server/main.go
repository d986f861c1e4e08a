// Package main initializes and starts the rollcall recognition server,
// setting up configuration, logging, database connections, repositories,
// services, handlers, and optional TLS.
package main

import (
	"cmp"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/rollcall/internal/config"
	"github.com/atinyakov/rollcall/internal/db"
	"github.com/atinyakov/rollcall/internal/detector"
	"github.com/atinyakov/rollcall/internal/logger"
	"github.com/atinyakov/rollcall/internal/middleware"
	"github.com/atinyakov/rollcall/internal/repository"
	"github.com/atinyakov/rollcall/internal/server/handler/http"
	"github.com/atinyakov/rollcall/internal/service"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Parse command-line, config file and environment configuration.
	options, err := config.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	if err := log.Init(options.LogLevel); err != nil {
		fmt.Fprintln(os.Stderr, "failed to init logger:", err)
		os.Exit(2)
	}
	defer func() { _ = log.Log.Sync() }()
	zapLogger := log.Log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize PostgreSQL connection.
	postgresDB, err := db.InitPostgres(options.DatabaseDSN)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}
	defer postgresDB.Close()

	db.StartSessionCleaner(ctx, postgresDB, 15*time.Minute, zapLogger)

	if options.UploadDir != "" {
		if err := os.MkdirAll(options.UploadDir, 0o755); err != nil {
			zapLogger.Fatal("cannot create upload dir", zap.Error(err))
		}
	}

	// Initialize repositories.
	authRepo := repository.NewPostgresAuthRepository(postgresDB)
	sessionRepo := repository.NewPostgresSessionRepository(postgresDB)
	faceRepo := repository.NewPostgresFaceRepository(postgresDB)
	attendanceRepo := repository.NewPostgresAttendanceRepository(postgresDB)

	// Initialize business-logic services.
	authService := service.NewAuthService(authRepo, sessionRepo, time.Duration(options.SessionTTL))
	recognitionService := service.NewRecognitionService(
		faceRepo,
		attendanceRepo,
		detector.New(options.EmbeddingURL, nil),
		service.RecognitionOptions{
			UploadDir: options.UploadDir,
			Threshold: options.MatchThreshold,
		},
		zapLogger,
	)

	sessions := middleware.NewSessions(options.SessionSecret, authService)
	sessions.Secure = options.TLSCert != ""

	// Create HTTP handlers.
	authHandler := &http.AuthHandler{AuthService: authService, Sessions: sessions, Logger: zapLogger}
	uploadHandler := &http.UploadHandler{
		Recognition:   recognitionService,
		MaxUploadSize: options.MaxUploadSize,
		Logger:        zapLogger,
	}
	recordsHandler := &http.RecordsHandler{Records: recognitionService, Logger: zapLogger}

	// Build the router with middleware and routes.
	router := http.NewRouter(authHandler, uploadHandler, recordsHandler, sessions.RequireAuth, zapLogger)

	server := &nethttp.Server{
		Addr:              options.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("shutdown failed", zap.Error(err))
		}
	}()

	if options.TLSCert != "" {
		// Load server TLS certificate and key.
		cert, err := tls.LoadX509KeyPair(options.TLSCert, options.TLSKey)
		if err != nil {
			zapLogger.Fatal("failed to load server TLS cert/key", zap.Error(err))
		}
		server.TLSConfig = &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		}
		zapLogger.Info("starting HTTPS server", zap.String("addr", options.Port))
		err = server.ListenAndServeTLS("", "")
		if err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			zapLogger.Fatal("failed to start HTTPS server", zap.Error(err))
		}
		return
	}

	zapLogger.Info("starting HTTP server", zap.String("addr", options.Port))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		zapLogger.Fatal("failed to start HTTP server", zap.Error(err))
	}
}
