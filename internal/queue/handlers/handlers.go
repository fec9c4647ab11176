package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/framecraft/framecraft/internal/usecase"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	TASK_TYPE_PALETTE_SWEEP = "palette:sweep"
)

// JobProcessor runs a stored job by id.
type JobProcessor interface {
	ProcessJob(context.Context, uuid.UUID) error
}

// PaletteSweeper warms palette colors for recent assets.
type PaletteSweeper interface {
	SweepPalettes(ctx context.Context, limit int) (int, error)
}

type Handlers struct {
	jobs    JobProcessor
	palette PaletteSweeper
	logger  *slog.Logger
}

func NewHandlers(uc usecase.Usecase, logger *slog.Logger) *Handlers {
	return &Handlers{
		jobs:    uc,
		palette: uc,
		logger:  logger,
	}
}

// TaskPayload is the envelope every job task carries.
type TaskPayload struct {
	JobID string `json:"job_id"`
	Type  string `json:"type"`
}

type PaletteSweepPayload struct {
	Limit int `json:"limit"`
}

// HandleJob processes asset:bulk and asset:import tasks. Malformed
// payloads are not retried.
func (h *Handlers) HandleJob(ctx context.Context, task *asynq.Task) error {
	var payload TaskPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		h.logger.ErrorContext(ctx, "failed to parse task payload", slog.String("type", task.Type()), slog.String("err", err.Error()))
		return fmt.Errorf("parse payload: %v: %w", err, asynq.SkipRetry)
	}

	jobID, err := uuid.Parse(payload.JobID)
	if err != nil {
		h.logger.ErrorContext(ctx, "invalid job id", slog.String("job_id", payload.JobID))
		return fmt.Errorf("parse job id: %v: %w", err, asynq.SkipRetry)
	}

	logger := h.logger.With(slog.String("job_id", jobID.String()), slog.String("type", task.Type()))
	logger.InfoContext(ctx, "processing job")

	if err := h.jobs.ProcessJob(ctx, jobID); err != nil {
		logger.ErrorContext(ctx, "failed to process job", slog.String("err", err.Error()))
		return err
	}

	logger.InfoContext(ctx, "job completed")
	return nil
}

func (h *Handlers) HandlePaletteSweep(ctx context.Context, task *asynq.Task) error {
	var payload PaletteSweepPayload
	if len(task.Payload()) > 0 {
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			return fmt.Errorf("parse payload: %v: %w", err, asynq.SkipRetry)
		}
	}

	n, err := h.palette.SweepPalettes(ctx, payload.Limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "palette sweep failed", slog.String("err", err.Error()))
		return err
	}
	h.logger.InfoContext(ctx, "palette sweep done", slog.Int("computed", n))
	return nil
}
