package main

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/lunamoss/readmaster/config"
	"github.com/lunamoss/readmaster/database"
	"github.com/lunamoss/readmaster/internal/logger"
	"github.com/lunamoss/readmaster/internal/notifier"
	"github.com/lunamoss/readmaster/internal/queue"
	"github.com/lunamoss/readmaster/internal/repository"
	"github.com/lunamoss/readmaster/internal/service"
	"github.com/lunamoss/readmaster/internal/worker"
	"github.com/rs/zerolog/log"
	"go.uber.org/fx"
)

func main() {
	logger.Init()

	app := fx.New(
		fx.Provide(
			config.NewConfig,
			database.NewDatabase,
		),

		fx.Provide(
			repository.NewAssessmentRepository,
			repository.NewAssessmentResultRepository,
			repository.NewStudentQuizAnswerRepository,
			repository.NewQuizQuestionRepository,
			repository.NewNotificationRepository,
		),

		fx.Provide(
			service.NewObjectStorage,
			service.NewSpeechAnalyzer,
			// Worker-side pushes travel over redis to whichever API instance
			// holds the user's websocket.
			notifier.NewRedisPublisher,
			func(repo repository.NotificationRepository, publisher *notifier.RedisPublisher) notifier.Service {
				return notifier.NewService(repo, publisher)
			},
			worker.NewProcessor,
		),

		fx.Invoke(RunWorker),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to start worker")
	}

	<-app.Done()
	log.Info().Msg("Worker shutting down gracefully...")
}

// RunWorker starts the asynq server consuming analysis tasks.
func RunWorker(lc fx.Lifecycle, cfg *config.Config, processor *worker.Processor) {
	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Concurrency: cfg.Worker.Concurrency,
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TypeAssessmentProcess, processor.HandleAssessmentProcess)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Int("concurrency", cfg.Worker.Concurrency).Msg("Analysis worker starting")
			go func() {
				if err := srv.Run(mux); err != nil {
					log.Fatal().Err(err).Msg("Worker server failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Worker shutting down...")
			srv.Shutdown()
			return nil
		},
	})
}
