package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/subosito/gotenv"

	"github.com/jhoicas/picking-api/internal/application/movement"
	"github.com/jhoicas/picking-api/internal/application/printing"
	"github.com/jhoicas/picking-api/internal/domain"
	"github.com/jhoicas/picking-api/internal/infrastructure/metrics"
	"github.com/jhoicas/picking-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/picking-api/internal/interfaces/http"
	"github.com/jhoicas/picking-api/migrations"
	"github.com/jhoicas/picking-api/pkg/config"
	"github.com/jhoicas/picking-api/pkg/logger"
)

// runMigrations aplica las migraciones embebidas con goose sobre el driver
// estándar de pgx.
func runMigrations(dsn string) error {
	goose.SetBaseFS(migrations.FS)
	sqlDB, err := goose.OpenDBWithDriver("pgx", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = sqlDB.Close() }()
	return goose.Up(sqlDB, ".")
}

func main() {
	_ = gotenv.Load() // .env opcional; las env vars reales tienen prioridad

	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{Env: cfg.App.Env, Level: "info"})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	if err := runMigrations(cfg.DB.ConnectionString()); err != nil {
		log.Fatal().Err(err).Msg("migraciones")
	}
	log.Info().Msg("migraciones aplicadas")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	productRepo := postgres.NewProductRepository(pool)
	stockRepo := postgres.NewStockRepository(pool)
	moveRepo := postgres.NewMoveRepository(pool)
	printJobRepo := postgres.NewPrintJobRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	// La aprobación exige al menos supervisor. El motor solo conoce el
	// predicado, no la jerarquía de roles.
	canApprove := func(a movement.Actor) bool {
		return domain.RoleAtLeast(a.Role, domain.RoleSupervisor)
	}
	movementUC := movement.NewUseCase(txRunner, moveRepo, productRepo, canApprove, movement.Config{
		CreateStatus: cfg.Moves.CreateStatus,
	})

	dispatcher := printing.NewDispatcher(printJobRepo, printing.Config{
		DefaultPrinter: cfg.Print.PrinterName,
		MaxAttempts:    cfg.Print.MaxAttempts,
		LeaseFor:       cfg.Print.LeaseFor,
		BackoffBase:    cfg.Print.BackoffBase,
		SweepEvery:     cfg.Print.SweepEvery,
	}, logger.Component(log, "print-dispatcher"))

	// Barrido de leases vencidos: un trabajo tomado por un agente que nunca
	// confirma vuelve a la cola en lugar de perderse.
	go dispatcher.RunLeaseSweeper(ctx)

	if cfg.Metrics.Enabled {
		metricsSrv := metrics.New(cfg.Metrics.Addr)
		go func() {
			if err := metricsSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("servidor de métricas")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsSrv.Shutdown(shutdownCtx)
		}()
		log.Info().Str("addr", cfg.Metrics.Addr).Msg("métricas expuestas")
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		MovementUC:  movementUC,
		Dispatcher:  dispatcher,
		StockRepo:   stockRepo,
		ProductRepo: productRepo,
		JWTSecret:   cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP")
		}
	}()
	log.Info().Str("addr", cfg.HTTP.Addr()).Msg("API escuchando")

	<-ctx.Done()
	if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
		log.Error().Err(err).Msg("shutdown HTTP")
	}
	log.Info().Msg("apagado limpio")
}
