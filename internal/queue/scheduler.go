package queue

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/framecraft/framecraft/internal/config"
	"github.com/framecraft/framecraft/internal/queue/handlers"
	"github.com/hibiken/asynq"
)

// Scheduler enqueues periodic tasks for the worker.
type Scheduler struct {
	scheduler *asynq.Scheduler
	logger    *slog.Logger
}

func NewScheduler(logger *slog.Logger) (*Scheduler, error) {
	s := asynq.NewScheduler(
		asynq.RedisClientOpt{
			Addr:     config.RedisAddr(),
			Password: config.String(config.ENV_KEY_REDIS_PASSWORD, ""),
		},
		&asynq.SchedulerOpts{
			Logger: newAsynqLogger(logger),
			PostEnqueueFunc: func(info *asynq.TaskInfo, err error) {
				if err != nil {
					logger.Error("Scheduled task not enqueued", slog.String("err", err.Error()))
					return
				}
				logger.Info("Scheduled task enqueued", slog.String("type", info.Type), slog.String("task_id", info.ID))
			},
		},
	)

	payload, err := json.Marshal(handlers.PaletteSweepPayload{
		Limit: config.Int(config.ENV_KEY_PALETTE_SWEEP_LIMIT, config.DEFAULT_PALETTE_SWEEP_LIMIT),
	})
	if err != nil {
		return nil, err
	}

	spec := config.String(config.ENV_KEY_PALETTE_SWEEP_CRON, config.DEFAULT_PALETTE_SWEEP_CRON)
	entryID, err := s.Register(spec, asynq.NewTask(handlers.TASK_TYPE_PALETTE_SWEEP, payload), asynq.Queue("low"), asynq.MaxRetry(1))
	if err != nil {
		return nil, fmt.Errorf("failed to register palette sweep: %w", err)
	}
	logger.Info("Scheduler registered task",
		slog.String("type", handlers.TASK_TYPE_PALETTE_SWEEP),
		slog.String("spec", spec),
		slog.String("entry_id", entryID),
	)

	return &Scheduler{scheduler: s, logger: logger}, nil
}

func (s *Scheduler) Start() error {
	return s.scheduler.Start()
}

func (s *Scheduler) Stop() {
	s.scheduler.Shutdown()
}
