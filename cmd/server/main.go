package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"atlas/internal/auth"
	"atlas/internal/cache"
	"atlas/internal/config"
	"atlas/internal/database"
	"atlas/internal/routes"
	"atlas/internal/services"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config.yaml", "server configuration file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("cannot load config", "error", err)
		os.Exit(1)
	}
	log := makeLogger(cfg.Log)
	slog.SetDefault(log)

	// Init database
	if err := database.InitDB(cfg.Database.Path, database.ParseLogLevel(cfg.Database.LogLevel)); err != nil {
		log.Error("cannot open database", "path", cfg.Database.Path, "error", err)
		os.Exit(1)
	}
	defer func() { _ = database.Close() }()

	if cfg.InsecureSecret() {
		log.Warn("signing tokens with the development JWT secret; set JWT_SECRET before exposing this server")
	}
	auth.Configure(auth.Settings{
		Secret:   cfg.Auth.JWTSecret,
		Issuer:   cfg.Auth.Issuer,
		Audience: cfg.Auth.Audience,
		TTL:      cfg.Auth.TokenTTL,
	})

	// Setup the routes (public and protected routes)
	ginRoutes := routes.SetupRoutes(routes.Options{
		SecureCookies:  cfg.Auth.SecureCookie,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	server := http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      ginRoutes,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go cache.RunJanitor(ctx, "users", services.UserCache(), time.Minute)

	errCh := make(chan error, 1)
	go func() {
		log.Info("atlas http server", "address", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown requested")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped unexpectedly", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
}

func makeLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
