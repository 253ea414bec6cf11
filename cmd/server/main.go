package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/insightdelivered/statement-pipeline/internal/analytics"
	"github.com/insightdelivered/statement-pipeline/internal/api"
	"github.com/insightdelivered/statement-pipeline/internal/bank"
	"github.com/insightdelivered/statement-pipeline/internal/categorize"
	"github.com/insightdelivered/statement-pipeline/internal/config"
	"github.com/insightdelivered/statement-pipeline/internal/logger"
	"github.com/insightdelivered/statement-pipeline/internal/pipeline"
	"github.com/insightdelivered/statement-pipeline/internal/store"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel, cfg.LogPretty)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	st, err := store.NewMongo(ctx, cfg.MongoURI, cfg.Database)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Str("uri", cfg.MongoURI).Msg("connecting to mongodb")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := st.Close(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("closing mongodb client")
		}
	}()

	ingestor := pipeline.New(bank.Default(), categorize.Default(), st, log)
	handler := &api.Handler{
		Ingestor:  ingestor,
		Store:     st,
		Analytics: analytics.New(st),
		Log:       log,
	}

	app := fiber.New(fiber.Config{
		BodyLimit:    pipeline.MaxUploadBytes,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 3 * time.Minute,
	})
	app.Use(recover.New())
	app.Use(fiberlog.New())
	handler.RegisterRoutes(app)

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		log.Info().Msg("shutting down")
		_ = app.ShutdownWithTimeout(10 * time.Second)
	}()

	log.Info().Str("addr", cfg.ListenAddr).Msg("server listening")
	if err := app.Listen(cfg.ListenAddr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
