package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"transit-backend/internal/admin"
	"transit-backend/internal/config"
	"transit-backend/internal/engine"
	"transit-backend/internal/instrument"
	"transit-backend/internal/logging"
	"transit-backend/internal/metadata"
	"transit-backend/internal/middleware"
	"transit-backend/internal/ops"
	"transit-backend/internal/store"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Logging
	log, closeLog := logging.Setup(cfg.Logging)
	defer closeLog()
	log.Info("config loaded",
		"port", cfg.Server.Port,
		"driver", cfg.Database.Driver,
		"db", cfg.Database.Name,
	)

	// 3. Connect to database; New pings before returning
	db, err := store.New(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()
	log.Info("database connected", "dialect", db.Dialect.Name())

	// 4. Table registry
	reg := metadata.Default()

	// 5. Audit/trace sink and buffer
	var buffer *instrument.EventBuffer
	if cfg.Instrumentation.Enabled {
		sink, err := instrument.NewSink(ctx, cfg.Instrumentation, log)
		if err != nil {
			return fmt.Errorf("instrumentation sink: %w", err)
		}
		buffer = instrument.NewEventBuffer(sink, cfg.Instrumentation.BufferSize,
			time.Duration(cfg.Instrumentation.FlushIntervalMs)*time.Millisecond)
		defer buffer.Stop()
		log.Info("instrumentation enabled", "sink", sink.Name())
	}

	// 6. Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:             cfg.Server.BodyLimit,
		ErrorHandler:          engine.ErrorHandler,
		DisableStartupMessage: true,
	})
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.CORSOrigins,
	}))

	api := app.Group("/api",
		middleware.RateLimit(cfg.Server.RateLimit),
		instrument.Middleware(cfg.Instrumentation, buffer),
	)

	// 7. Routes
	admin.RegisterRoutes(api, admin.NewHandler(reg))

	normalizer := engine.NewHeuristicNormalizer()
	engine.RegisterRoutes(api, engine.NewHandler(
		engine.NewCRUD(db.DB, db.Dialect, reg, normalizer),
		engine.NewAssociation(db.DB, db.Dialect, reg.Association()),
	))

	ops.RegisterRoutes(api.Group("/ops"), ops.NewHandler(ops.NewService(db.DB, db.Dialect), normalizer))

	// 8. Serve until signalled
	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		log.Info("server listening", "addr", addr)
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return app.ShutdownWithContext(shutdownCtx)
}
