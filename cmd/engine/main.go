// The engine binary applies migrations and runs the auto-approval
// worker. The admission and workflow services are a library surface;
// the transport embedding them lives outside this repository.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/campusrooms/reserve/internal/app"
	"github.com/campusrooms/reserve/internal/config"
	"github.com/campusrooms/reserve/internal/events"
	"github.com/campusrooms/reserve/internal/repository"
	"github.com/campusrooms/reserve/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		logger.Fatal("failed to create connection pool", zap.Error(err))
	}
	defer pool.Close()

	migrator, err := app.NewMigrator(pool, cfg.MigrationsPath, logger)
	if err != nil {
		logger.Fatal("failed to create migrator", zap.Error(err))
	}
	if err := migrator.Run(ctx); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}
	migrator.Close()

	var publisher events.Publisher = events.Nop{}
	if cfg.AMQPURL != "" {
		amqpPublisher, err := events.NewAMQPPublisher(cfg.AMQPURL, logger)
		if err != nil {
			logger.Fatal("failed to connect to broker", zap.Error(err))
		}
		defer amqpPublisher.Close()
		publisher = amqpPublisher
	}

	rooms := repository.NewRoomRepository(pool)
	periods := repository.NewAcademicPeriodRepository(pool)
	reservations := repository.NewReservationRepository(pool)
	tasks := repository.NewTaskRepository(pool)

	approvals := service.NewApprovalService(
		rooms, periods, reservations, tasks, publisher,
		service.SystemClock(), logger,
	)

	scheduler := app.NewScheduler(approvals, cfg.AutoApprovePollEvery, logger)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	logger.Info("reservation engine started",
		zap.String("environment", cfg.Environment),
	)

	<-ctx.Done()
	logger.Info("shutting down")
}
