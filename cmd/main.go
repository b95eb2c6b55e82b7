package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Dosada05/chess-league/app"
	"github.com/Dosada05/chess-league/config"
	"github.com/Dosada05/chess-league/handlers"
	"github.com/Dosada05/chess-league/logger"
	"github.com/Dosada05/chess-league/middleware"
	api "github.com/Dosada05/chess-league/routes"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Настройка логгера
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck
	zap.ReplaceGlobals(log)
	log.Info("configuration loaded", zap.Int("port", cfg.ServerPort))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, log, app.Options{Migrate: true})
	if err != nil {
		log.Fatal("failed to initialize application", zap.Error(err))
	}
	defer func() {
		if err := application.Close(); err != nil {
			log.Error("failed to release resources", zap.Error(err))
		}
	}()

	// WebSocket Hub живёт до сигнала завершения
	go application.Hub.Run(ctx)
	log.Info("WebSocket Hub started")

	// Инициализация обработчиков HTTP
	auth := middleware.NewAuthenticator(cfg.JWTSecretKey, log.Named("auth"))
	router := chi.NewRouter()
	api.SetupRoutes(router, api.Handlers{
		League:    handlers.NewLeagueHandler(application.League, application.Games),
		Event:     handlers.NewEventHandler(application.Events),
		Member:    handlers.NewMemberHandler(application.Members),
		WebSocket: handlers.NewWebSocketHandler(application.Hub, application.Events, cfg.CORSAllowedOrigins, log.Named("ws")),
	}, auth, cfg.CORSAllowedOrigins, log.Named("http"))
	log.Info("Routes configured")

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     zap.NewStdLog(log.Named("http_server")),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("starting server", zap.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", zap.Error(err))
			return
		}
		log.Info("server stopped gracefully")
	case <-ctx.Done():
		log.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		log.Info("shutting down server", zap.Duration("timeout", shutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", zap.Error(err))
			if closeErr := server.Close(); closeErr != nil {
				log.Error("failed to force close server", zap.Error(closeErr))
			}
			return
		}
		log.Info("server shutdown complete")
	}
	log.Info("application exited")
}
