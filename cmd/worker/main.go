package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/gcopy-dev/gcopy/internal/config"
	"github.com/gcopy-dev/gcopy/internal/emailcode"
	"github.com/gcopy-dev/gcopy/internal/logger"
	"github.com/gcopy-dev/gcopy/internal/mailer"
	"github.com/gcopy-dev/gcopy/internal/models"
	"github.com/gcopy-dev/gcopy/internal/server"
	"github.com/gcopy-dev/gcopy/internal/sharecode"
	"github.com/gcopy-dev/gcopy/internal/tasks"
	"github.com/gcopy-dev/gcopy/internal/workers"
)

var version = "dev" // Will be set during build with -ldflags

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.GetLogger()

	log.Info().Str("version", version).Msg("Starting gcopy worker")

	db, err := server.OpenDatabase(cfg.Database.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	if err := models.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate database")
	}

	sender := mailer.NewSender(cfg.SMTP, log)

	asynqServer := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr: cfg.Redis.Address,
		},
		asynq.Config{
			Concurrency: 4,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
			},
			Logger: &asynqLogger{log: log},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeSendVerificationCode, func(ctx context.Context, t *asynq.Task) error {
		return workers.HandleSendVerificationCode(ctx, t, sender, log)
	})

	sweeper, err := workers.StartExpirySweeper(workers.DefaultSweepSchedule, log, map[string]workers.Purger{
		"share_codes":      sharecode.NewStore(db),
		"email_challenges": emailcode.NewStore(db),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start expiry sweeper")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info().Msg("Starting Asynq worker server...")
		if err := asynqServer.Run(mux); err != nil {
			log.Fatal().Err(err).Msg("Asynq worker server failed")
		}
	}()

	<-sigChan
	log.Info().Msg("Received shutdown signal, shutting down gracefully...")

	<-sweeper.Stop().Done()
	asynqServer.Shutdown()

	log.Info().Msg("Worker shutdown complete")
}

// asynqLogger adapts zerolog to Asynq's logger interface
type asynqLogger struct {
	log zerolog.Logger
}

func (l *asynqLogger) Debug(args ...interface{}) {
	l.log.Debug().Msg(fmt.Sprint(args...))
}

func (l *asynqLogger) Info(args ...interface{}) {
	l.log.Info().Msg(fmt.Sprint(args...))
}

func (l *asynqLogger) Warn(args ...interface{}) {
	l.log.Warn().Msg(fmt.Sprint(args...))
}

func (l *asynqLogger) Error(args ...interface{}) {
	l.log.Error().Msg(fmt.Sprint(args...))
}

func (l *asynqLogger) Fatal(args ...interface{}) {
	l.log.Fatal().Msg(fmt.Sprint(args...))
}
