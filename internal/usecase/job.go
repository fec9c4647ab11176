package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/framecraft/framecraft/internal/config"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	JOB_TYPE_ASSET_BULK   = "asset:bulk"
	JOB_TYPE_ASSET_IMPORT = "asset:import"

	JOB_STATUS_PENDING     = "PENDING"
	JOB_STATUS_IN_PROGRESS = "IN_PROGRESS"
	JOB_STATUS_COMPLETED   = "COMPLETED"
	JOB_STATUS_FAILED      = "FAILED"
)

type Job struct {
	ID         uuid.UUID
	Type       string
	Status     string
	Payload    []byte
	Result     []byte
	Error      string
	CreatedBy  string
	StartedAt  *time.Time
	FinishedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type ListJobsOption struct {
	Skip   int
	Limit  int
	SortBy string
	SortIn string

	Types    []string
	Statuses []string
}

type BulkAction string

const (
	BulkAddTags   BulkAction = "tags"
	BulkSetRoles  BulkAction = "roles"
	BulkPublish   BulkAction = "publish"
	BulkSetRating BulkAction = "rating"
	BulkDelete    BulkAction = "delete"
	BulkAutoTag   BulkAction = "auto_tag"
)

type BulkAssetPayload struct {
	Action    BulkAction `json:"action"`
	AssetIDs  []string   `json:"asset_ids"`
	Tags      []string   `json:"tags,omitempty"`
	Roles     []string   `json:"roles,omitempty"`
	Role      string     `json:"role,omitempty"`
	Published bool       `json:"published,omitempty"`
	Rating    int        `json:"rating,omitempty"`
}

func (p BulkAssetPayload) validate() error {
	if len(p.AssetIDs) == 0 {
		return fmt.Errorf("%w: no assets selected", ErrInvalidInput)
	}
	switch p.Action {
	case BulkAddTags:
		if len(p.Tags) == 0 {
			return fmt.Errorf("%w: no tags given", ErrInvalidInput)
		}
	case BulkSetRoles:
		if len(p.Roles) == 0 {
			return fmt.Errorf("%w: no roles given", ErrInvalidInput)
		}
	case BulkPublish:
		if p.Role == "" {
			return fmt.Errorf("%w: no role given", ErrInvalidInput)
		}
	case BulkSetRating:
		if p.Rating < 0 || p.Rating > 5 {
			return fmt.Errorf("%w: rating %d out of range", ErrInvalidInput, p.Rating)
		}
	case BulkDelete, BulkAutoTag:
	default:
		return fmt.Errorf("%w: unknown bulk action %q", ErrInvalidInput, p.Action)
	}
	return nil
}

type ImportPayload struct {
	Names               []string `json:"names"`
	GenerateDerivatives bool     `json:"generate_derivatives"`
	Tags                string   `json:"tags,omitempty"`
}

// JobResult records what happened to every item of a job.
type JobResult struct {
	Succeeded []string          `json:"succeeded"`
	Skipped   []string          `json:"skipped,omitempty"`
	Failed    map[string]string `json:"failed,omitempty"`
}

func (u Usecase) ListJobs(ctx context.Context, opt ListJobsOption) ([]Job, int, error) {
	return u.repo.ListJobs(ctx, opt)
}

func (u Usecase) GetJobByID(ctx context.Context, id uuid.UUID) (Job, error) {
	return u.repo.GetJobByID(ctx, id)
}

func (u Usecase) CreateBulkAssetJob(ctx context.Context, p BulkAssetPayload) (Job, error) {
	if err := p.validate(); err != nil {
		return Job{}, err
	}
	return u.createJob(ctx, JOB_TYPE_ASSET_BULK, p)
}

func (u Usecase) CreateImportJob(ctx context.Context, p ImportPayload) (Job, error) {
	if len(p.Names) == 0 {
		return Job{}, fmt.Errorf("%w: no files to import", ErrInvalidInput)
	}
	return u.createJob(ctx, JOB_TYPE_ASSET_IMPORT, p)
}

// createJob records a PENDING job and hands it to the queue.
func (u Usecase) createJob(ctx context.Context, jobType string, payload any) (Job, error) {
	if u.queue == nil {
		return Job{}, fmt.Errorf("%w: job queue not configured", ErrUnavailable)
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return Job{}, fmt.Errorf("marshal job payload: %w", err)
	}

	createdBy, _ := ctx.Value(config.CTX_KEY_ADMIN_USER).(string)

	job, err := u.repo.CreateJob(ctx, Job{
		Type:      jobType,
		Status:    JOB_STATUS_PENDING,
		Payload:   b,
		CreatedBy: createdBy,
	})
	if err != nil {
		return Job{}, err
	}

	if err := u.queue.EnqueueJob(ctx, job.ID, job.Type, job.Payload); err != nil {
		now := time.Now()
		job.Status = JOB_STATUS_FAILED
		job.Error = err.Error()
		job.FinishedAt = &now
		if _, uerr := u.repo.UpdateJob(ctx, job); uerr != nil {
			u.logger().ErrorContext(ctx, "mark job failed", slog.String("job_id", job.ID.String()), slog.String("err", uerr.Error()))
		}
		return Job{}, fmt.Errorf("enqueue job: %w", err)
	}
	return job, nil
}

// ProcessJob runs a queued job to completion and stores its outcome. Item
// failures mark the job FAILED without aborting the other items.
func (u Usecase) ProcessJob(ctx context.Context, id uuid.UUID) error {
	job, err := u.repo.GetJobByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get job %s: %w", id, err)
	}
	if job.Status == JOB_STATUS_COMPLETED || job.Status == JOB_STATUS_FAILED {
		return nil
	}

	started := time.Now()
	job.Status = JOB_STATUS_IN_PROGRESS
	job.StartedAt = &started
	if job, err = u.repo.UpdateJob(ctx, job); err != nil {
		return fmt.Errorf("start job %s: %w", id, err)
	}

	var res JobResult
	switch job.Type {
	case JOB_TYPE_ASSET_BULK:
		var p BulkAssetPayload
		if err = json.Unmarshal(job.Payload, &p); err == nil {
			if err = p.validate(); err == nil {
				res = u.runBulkAssetAction(ctx, p)
			}
		}
	case JOB_TYPE_ASSET_IMPORT:
		var p ImportPayload
		if err = json.Unmarshal(job.Payload, &p); err == nil {
			res = u.runImport(ctx, p)
		}
	default:
		err = fmt.Errorf("%w: unknown job type %q", ErrInvalidInput, job.Type)
	}

	finished := time.Now()
	job.FinishedAt = &finished
	switch {
	case err != nil:
		job.Status = JOB_STATUS_FAILED
		job.Error = err.Error()
	case len(res.Failed) > 0:
		job.Status = JOB_STATUS_FAILED
		job.Error = fmt.Sprintf("%d of %d items failed", len(res.Failed), len(res.Failed)+len(res.Succeeded)+len(res.Skipped))
	default:
		job.Status = JOB_STATUS_COMPLETED
	}
	if err == nil {
		job.Result, _ = json.Marshal(res)
	}

	u.invalidateAssets(ctx)

	job, uerr := u.repo.UpdateJob(ctx, job)
	if uerr != nil {
		return fmt.Errorf("finish job %s: %w", id, uerr)
	}

	if merr := u.sendJobReport(ctx, job, res); merr != nil {
		u.logger().WarnContext(ctx, "job report not sent", slog.String("job_id", id.String()), slog.String("err", merr.Error()))
	}
	return nil
}

// collector gathers per-item outcomes from concurrent workers.
type collector struct {
	mu  sync.Mutex
	res JobResult
}

func (c *collector) ok(id string) {
	c.mu.Lock()
	c.res.Succeeded = append(c.res.Succeeded, id)
	c.mu.Unlock()
}

func (c *collector) skip(id string) {
	c.mu.Lock()
	c.res.Skipped = append(c.res.Skipped, id)
	c.mu.Unlock()
}

func (c *collector) fail(id string, err error) {
	c.mu.Lock()
	if c.res.Failed == nil {
		c.res.Failed = make(map[string]string)
	}
	c.res.Failed[id] = err.Error()
	c.mu.Unlock()
}

func (c *collector) result() JobResult {
	slices.Sort(c.res.Succeeded)
	slices.Sort(c.res.Skipped)
	if c.res.Succeeded == nil {
		c.res.Succeeded = []string{}
	}
	return c.res
}

// errSkipped marks an item that needed no change.
var errSkipped = errors.New("skipped")

func (u Usecase) forEachItem(ctx context.Context, items []string, fn func(context.Context, string) error) JobResult {
	var c collector
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.opt.BulkConcurrency)

	for _, item := range items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				c.fail(item, err)
				return nil
			}
			switch err := fn(gctx, item); {
			case err == nil:
				c.ok(item)
			case errors.Is(err, errSkipped):
				c.skip(item)
			default:
				c.fail(item, err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return c.result()
}

func (u Usecase) runBulkAssetAction(ctx context.Context, p BulkAssetPayload) JobResult {
	return u.forEachItem(ctx, p.AssetIDs, func(ctx context.Context, id string) error {
		switch p.Action {
		case BulkAddTags:
			_, err := u.site.AddAssetTags(ctx, id, manualTags(p.Tags))
			return err

		case BulkSetRoles:
			in := make([]AssetRoleInput, 0, len(p.Roles))
			for _, r := range p.Roles {
				in = append(in, AssetRoleInput{Role: r})
			}
			_, err := u.site.SetAssetRoles(ctx, id, in)
			return err

		case BulkPublish:
			a, err := u.site.GetAsset(ctx, id)
			if err != nil {
				return err
			}
			if !a.HasRole(p.Role) || a.RolePublished(p.Role) == p.Published {
				return errSkipped
			}
			_, err = u.site.SetRolePublished(ctx, id, p.Role, p.Published)
			return err

		case BulkSetRating:
			a, err := u.site.GetAsset(ctx, id)
			if err != nil {
				return err
			}
			_, err = u.site.SetAssetRating(ctx, id, p.Rating, a.Starred)
			return err

		case BulkDelete:
			return u.site.DeleteAsset(ctx, id)

		case BulkAutoTag:
			return u.site.QueueAutoTag(ctx, id)
		}
		return fmt.Errorf("%w: unknown bulk action %q", ErrInvalidInput, p.Action)
	})
}
