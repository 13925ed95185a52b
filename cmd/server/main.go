package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"whatsapp-pdf-exporter/internal/adapters/parser"
	"whatsapp-pdf-exporter/internal/cache"
	"whatsapp-pdf-exporter/internal/core/services"
	"whatsapp-pdf-exporter/internal/pkg/config"
	"whatsapp-pdf-exporter/internal/pkg/privacy"
	"whatsapp-pdf-exporter/internal/server"
	"whatsapp-pdf-exporter/internal/server/usecase"
)

func main() {
	if err := run(); err != nil {
		slog.Error("application run failed", "error", err)
		os.Exit(1)
	}
}

// run инкапсулирует всю логику инициализации и запуска приложения.
func run() error {
	// 1. Загрузка конфигурации
	cfg, err := config.LoadConfig()
	if err != nil {
		// Логгер еще не инициализирован, выводим в stderr
		_, _ = fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Инициализация логгера. Имена отправителей в логах частично
	// скрываются независимо от параметров конкретной конвертации.
	var level slog.Level
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	slog.SetDefault(privacy.NewSealedLogger(handler))

	// 3. Валидация конфигурации (после инициализации логгера)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	// 4. Загрузка темы оформления
	theme := config.DefaultTheme()
	if cfg.Rendering.ThemePath != "" {
		theme, err = config.LoadTheme(cfg.Rendering.ThemePath)
		if err != nil {
			return fmt.Errorf("failed to load theme: %w", err)
		}
	}

	// 5. Инициализация зависимостей
	taskStore := server.NewTaskStore()
	cacheStore := cache.NewCacheStore()
	parserSvc := parser.NewTranscriptParser()
	filterSvc := services.NewFilterService()
	converter := usecase.NewConvertChatUseCase(cfg, theme, parserSvc, filterSvc, cacheStore)

	// 6. Создание HTTP-сервера
	srv, err := server.New(cfg, converter, taskStore, cacheStore)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	// 7. Запуск сервера и graceful shutdown
	serverDone := make(chan struct{})
	go func() {
		defer close(serverDone)
		slog.Info("Starting server", "addr", cfg.Address())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Signal received, shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Server.ShutdownTimeoutSeconds)*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	<-serverDone
	slog.Info("HTTP server stopped")
	slog.Info("Application exited gracefully")
	return nil
}
