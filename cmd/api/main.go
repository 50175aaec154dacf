package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/tu-usuario/lumber-pro/internal/application/dimension"
	"github.com/tu-usuario/lumber-pro/internal/application/reconciliation"
	"github.com/tu-usuario/lumber-pro/internal/application/tally"
	"github.com/tu-usuario/lumber-pro/internal/application/yield"
	"github.com/tu-usuario/lumber-pro/internal/infrastructure/postgres"
	httpRouter "github.com/tu-usuario/lumber-pro/internal/interfaces/http"
	"github.com/tu-usuario/lumber-pro/pkg/config"
	"github.com/tu-usuario/lumber-pro/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	itemRepo := postgres.NewItemRepository(pool)
	lotRepo := postgres.NewTallySheetRepository(pool)
	allocRepo := postgres.NewAllocationRepository(pool)
	yieldRepo := postgres.NewYieldRepository(pool)
	txRunner := postgres.NewTxRunner(pool)
	yieldTxRunner := postgres.NewYieldTxRunner(pool)

	resolver := dimension.NewResolver(itemRepo, cfg.Lumber, log)
	tallySvc := tally.NewService(txRunner, lotRepo, cfg.Lumber, log)
	yieldSvc := yield.NewService(yieldTxRunner, yieldRepo, itemRepo, cfg.Lumber, log)
	reconJob := reconciliation.NewJob(lotRepo, allocRepo, yieldRepo, cfg.Lumber, log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	httpRouter.Router(app, httpRouter.RouterDeps{
		Resolver:  resolver,
		TallySvc:  tallySvc,
		YieldSvc:  yieldSvc,
		ReconJob:  reconJob,
		Lumber:    cfg.Lumber,
		JWTSecret: cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
