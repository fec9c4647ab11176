package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/framecraft/framecraft/internal/queue/handlers"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Client wraps asynq.Client for enqueuing tasks
type Client struct {
	client *asynq.Client
	logger *slog.Logger
}

func NewClient(redisAddr string, redisPassword string, logger *slog.Logger) *Client {
	client := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     redisAddr,
		Password: redisPassword,
	})

	return &Client{
		client: client,
		logger: logger,
	}
}

func (c *Client) Close() error {
	return c.client.Close()
}

// EnqueueJob enqueues the task that will run job jobID. The job id doubles
// as the task id so a job is never queued twice.
func (c *Client) EnqueueJob(ctx context.Context, jobID uuid.UUID, jobType string, _ []byte) error {
	payloadBytes, err := json.Marshal(handlers.TaskPayload{
		JobID: jobID.String(),
		Type:  jobType,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal task payload: %w", err)
	}

	task := asynq.NewTask(jobType, payloadBytes,
		asynq.TaskID(jobID.String()),
		asynq.MaxRetry(3),
		asynq.Timeout(30*time.Minute),
		asynq.Retention(24*time.Hour),
	)

	info, err := c.client.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}

	c.logger.InfoContext(ctx, "enqueued task",
		slog.String("task_id", info.ID),
		slog.String("queue", info.Queue),
		slog.String("type", jobType),
	)
	return nil
}
