// Command server runs the AOU support chatbot HTTP API.
//
// @title        AOU Support Chatbot API
// @version      1.0
// @description  Grounded question answering, accounts and chat sessions for the Arab Open University support widget.
// @BasePath     /
package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/aoubot-backend/docs"
	"github.com/tbourn/aoubot-backend/internal/config"
	httpapi "github.com/tbourn/aoubot-backend/internal/http"
	"github.com/tbourn/aoubot-backend/internal/knowledge"
	"github.com/tbourn/aoubot-backend/internal/llm"
	"github.com/tbourn/aoubot-backend/internal/observability"
	"github.com/tbourn/aoubot-backend/internal/repo"
	"github.com/tbourn/aoubot-backend/internal/services"
	"github.com/tbourn/aoubot-backend/internal/sysutil"
)

const (
	shutdownTimeout = 30 * time.Second
	purgeInterval   = time.Hour
)

func main() {
	// Missing .env is fine in production.
	_ = godotenv.Load()

	cfg := config.MustLoad()
	version := sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), "dev")
	service := sysutil.FirstNonEmpty(cfg.OTEL.ServiceName, observability.DefaultServiceName)

	sysutil.SetupLogger(service, cfg.LogLevel, cfg.LogPretty, os.Stderr)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.Setup(ctx, cfg.OTEL, observability.BuildInfo{
		Version:     version,
		LLMProvider: cfg.LLM.Provider,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("tracing setup failed")
	}

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	if cfg.OTEL.Enabled {
		if err := repo.EnableTracing(db); err != nil {
			log.Fatal().Err(err).Msg("database tracing")
		}
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	provider, err := llm.New(ctx, cfg.LLM)
	if err != nil {
		log.Fatal().Err(err).Msg("completion provider")
	}
	if !llm.Configured(provider) {
		log.Warn().Str("provider", provider.Name()).Msg("completion provider has no API key; /chat will report an error")
	}

	kb := knowledge.New(cfg.KnowledgePath, cfg.KnowledgeTopK)
	if doc := kb.Load(); !doc.Available {
		log.Warn().Str("path", cfg.KnowledgePath).Msg("knowledge file not available at startup")
	}

	docs.SwaggerInfo.Version = version
	docs.SwaggerInfo.BasePath = cfg.APIBasePath

	svcs := httpapi.NewServices(db, provider, kb, cfg)
	r := gin.New()
	httpapi.RegisterRoutes(r, svcs, cfg)

	go purgeIdempotency(ctx, svcs.Chat, purgeInterval)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("version", version).
			Str("provider", provider.Name()).
			Str("base_path", cfg.APIBasePath).
			Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if c, ok := provider.(io.Closer); ok {
		if err := c.Close(); err != nil {
			log.Warn().Err(err).Msg("close completion provider")
		}
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("tracing shutdown")
	}
	log.Info().Msg("server exited")
}

// purgeIdempotency removes expired Idempotency-Key records every interval
// until ctx is done.
func purgeIdempotency(ctx context.Context, chat *services.ChatService, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := chat.PurgeIdempotency(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("purge idempotency keys")
				continue
			}
			if n > 0 {
				log.Debug().Int64("purged", n).Msg("expired idempotency keys removed")
			}
		}
	}
}
