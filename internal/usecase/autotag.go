package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

const (
	AUTOTAG_STATUS_QUEUED    = "queued"
	AUTOTAG_STATUS_RUNNING   = "running"
	AUTOTAG_STATUS_COMPLETED = "completed"
	AUTOTAG_STATUS_FAILED    = "failed"
)

type AutoTagJob struct {
	AssetID      string
	Status       string
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	StartedAt    *time.Time
	CompletedAt  *time.Time
}

type AutoTagSummary struct {
	Queued    int
	Running   int
	Completed int
	Failed    int
	Idle      int
	// FirstFailure is the first selected asset whose job failed.
	FirstFailure *AutoTagJob
}

type AutoTagUpdate struct {
	Jobs    []AutoTagJob
	Summary AutoTagSummary
}

// LatestAutoTagJobs keeps the most recently updated job per asset.
func LatestAutoTagJobs(jobs []AutoTagJob) map[string]AutoTagJob {
	latest := make(map[string]AutoTagJob, len(jobs))
	for _, j := range jobs {
		if cur, ok := latest[j.AssetID]; ok && cur.UpdatedAt.After(j.UpdatedAt) {
			continue
		}
		latest[j.AssetID] = j
	}
	return latest
}

// SummarizeAutoTag counts job states over the selected asset ids. Assets
// with no job, or a status the console does not know, count as idle.
func SummarizeAutoTag(ids []string, jobs []AutoTagJob) AutoTagSummary {
	var (
		s      AutoTagSummary
		latest = LatestAutoTagJobs(jobs)
	)
	for _, id := range ids {
		job, ok := latest[id]
		if !ok {
			s.Idle++
			continue
		}
		switch job.Status {
		case AUTOTAG_STATUS_QUEUED:
			s.Queued++
		case AUTOTAG_STATUS_RUNNING:
			s.Running++
		case AUTOTAG_STATUS_COMPLETED:
			s.Completed++
		case AUTOTAG_STATUS_FAILED:
			s.Failed++
			if s.FirstFailure == nil {
				j := job
				s.FirstFailure = &j
			}
		default:
			s.Idle++
		}
	}
	return s
}

// QueueAutoTag asks the site to auto-tag each asset, stopping at the
// first failure.
func (u Usecase) QueueAutoTag(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return fmt.Errorf("%w: no assets selected", ErrInvalidInput)
	}
	now := time.Now().UTC()
	queued := make([]AutoTagJob, 0, len(ids))
	for _, id := range ids {
		if err := u.site.QueueAutoTag(ctx, id); err != nil {
			return fmt.Errorf("queue auto-tag %s: %w", id, err)
		}
		queued = append(queued, AutoTagJob{AssetID: id, Status: AUTOTAG_STATUS_QUEUED, UpdatedAt: now})
	}
	if err := u.cache.SaveAutoTagJobs(ctx, queued); err != nil {
		u.logger().WarnContext(ctx, "auto-tag status cache write failed", slog.String("err", err.Error()))
	}
	return nil
}

// ListAutoTagJobs returns the site's job status for ids. When the site is
// unreachable it falls back to the last statuses seen, as long as every
// selected asset has one.
func (u Usecase) ListAutoTagJobs(ctx context.Context, ids []string) ([]AutoTagJob, error) {
	jobs, err := u.site.ListAutoTagJobs(ctx, ids)
	if err != nil {
		if errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrNotFound) {
			return nil, err
		}
		cached, cerr := u.cache.GetAutoTagJobs(ctx, ids)
		if cerr != nil || len(ids) == 0 || len(LatestAutoTagJobs(cached)) < len(setOf(ids)) {
			return nil, err
		}
		u.logger().WarnContext(ctx, "auto-tag status served from cache", slog.String("err", err.Error()))
		return cached, nil
	}
	if err := u.cache.SaveAutoTagJobs(ctx, jobs); err != nil {
		u.logger().WarnContext(ctx, "auto-tag status cache write failed", slog.String("err", err.Error()))
	}
	return jobs, nil
}

// WatchAutoTag polls job status for ids until ctx is done. See
// AutoTagWatcher.
func (u Usecase) WatchAutoTag(ctx context.Context, ids []string, emit func(AutoTagUpdate) error) error {
	w := AutoTagWatcher{
		Interval: u.opt.AutoTagPoll,
		Poll:     u.ListAutoTagJobs,
		Logger:   u.logger(),
	}
	return w.Watch(ctx, ids, emit)
}

// AutoTagWatcher polls auto-tag job status for one selection of assets.
// A watch lives exactly as long as its context.
type AutoTagWatcher struct {
	Interval time.Duration
	Poll     func(context.Context, []string) ([]AutoTagJob, error)
	Logger   *slog.Logger
}

// Watch polls right away and then on every tick, handing each result to
// emit. It returns nil when ctx ends, or the error emit returned. Poll
// failures are logged and retried on the next tick. An empty selection
// returns immediately.
func (w AutoTagWatcher) Watch(ctx context.Context, ids []string, emit func(AutoTagUpdate) error) error {
	if len(ids) == 0 {
		return nil
	}
	ids = append([]string(nil), ids...)

	logger := w.Logger
	if logger == nil {
		logger = slog.Default()
	}

	refresh := func() error {
		jobs, err := w.Poll(ctx, ids)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.WarnContext(ctx, "auto-tag status poll failed", slog.String("err", err.Error()))
			return nil
		}
		return emit(AutoTagUpdate{Jobs: jobs, Summary: SummarizeAutoTag(ids, jobs)})
	}

	if err := refresh(); err != nil {
		return err
	}

	interval := w.Interval
	if interval <= 0 {
		interval = 6 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := refresh(); err != nil {
				return err
			}
		}
	}
}
