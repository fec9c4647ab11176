package database

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/framecraft/framecraft/internal/usecase"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Job struct {
	ID         uuid.UUID      `gorm:"column:id;primaryKey;type:uuid;default:uuid_generate_v4()"`
	Type       string         `gorm:"column:type;type:varchar(64);NOT NULL;index"`
	Status     string         `gorm:"column:status;type:varchar(32);NOT NULL;index"`
	Payload    datatypes.JSON `gorm:"column:payload"`
	Result     datatypes.JSON `gorm:"column:result"`
	Error      string         `gorm:"column:error;type:text"`
	CreatedBy  string         `gorm:"column:created_by;type:varchar(255)"`
	StartedAt  *time.Time     `gorm:"column:started_at"`
	FinishedAt *time.Time     `gorm:"column:finished_at"`
	CreatedAt  time.Time      `gorm:"column:created_at"`
	UpdatedAt  time.Time      `gorm:"column:updated_at"`
}

func (Job) TableName() string {
	return "jobs"
}

func (s *service) CreateJob(ctx context.Context, job usecase.Job) (usecase.Job, error) {
	j := Job{
		Type:      job.Type,
		Status:    job.Status,
		Payload:   datatypes.JSON(job.Payload),
		CreatedBy: job.CreatedBy,
	}
	if err := s.db.
		WithContext(ctx).
		Clauses(clause.Returning{}).
		Create(&j).Error; err != nil {
		return usecase.Job{}, err
	}

	return j.ConvertToUsecase(), nil
}

func (s *service) ListJobs(ctx context.Context, opt usecase.ListJobsOption) ([]usecase.Job, int, error) {
	var (
		jobs  []Job
		ujobs = []usecase.Job{}
		count int64
	)

	db := s.db.Model([]Job{}).WithContext(ctx)

	if len(opt.Types) > 0 {
		db = db.Where("type IN ?", opt.Types)
	}
	if len(opt.Statuses) > 0 {
		db = db.Where("status IN ?", opt.Statuses)
	}

	var (
		orderIn = "DESC"
		orderBy = "created_at"
	)

	if slices.Contains([]string{"ASC", "DESC"}, opt.SortIn) {
		orderIn = opt.SortIn
	}
	if slices.Contains([]string{"created_at", "updated_at", "started_at", "finished_at"}, opt.SortBy) {
		orderBy = opt.SortBy
	}

	if err := db.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	db = db.Order(clause.OrderByColumn{Column: clause.Column{Name: orderBy}, Desc: orderIn == "DESC"})

	if opt.Limit > 0 {
		db = db.Limit(opt.Limit)
	}
	if opt.Skip > 0 {
		db = db.Offset(opt.Skip)
	}

	if err := db.Find(&jobs).Error; err != nil {
		return nil, 0, err
	}

	for _, job := range jobs {
		ujobs = append(ujobs, job.ConvertToUsecase())
	}

	return ujobs, int(count), nil
}

func (s *service) UpdateJob(ctx context.Context, job usecase.Job) (usecase.Job, error) {
	var j Job
	res := s.db.
		WithContext(ctx).
		Model(&j).
		Clauses(clause.Returning{}).
		Where("id = ?", job.ID).
		Updates(map[string]any{
			"status":      job.Status,
			"result":      datatypes.JSON(job.Result),
			"error":       job.Error,
			"started_at":  job.StartedAt,
			"finished_at": job.FinishedAt,
		})
	if res.Error != nil {
		return usecase.Job{}, res.Error
	}
	if res.RowsAffected == 0 {
		return usecase.Job{}, fmt.Errorf("job %s: %w", job.ID, usecase.ErrNotFound)
	}

	return j.ConvertToUsecase(), nil
}

func (s *service) GetJobByID(ctx context.Context, id uuid.UUID) (usecase.Job, error) {
	var job Job
	if err := s.db.
		WithContext(ctx).
		First(&job, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return usecase.Job{}, fmt.Errorf("job %s: %w", id, usecase.ErrNotFound)
		}
		return usecase.Job{}, err
	}

	return job.ConvertToUsecase(), nil
}

// Convert core model to usecase model
func (j Job) ConvertToUsecase() usecase.Job {
	return usecase.Job{
		ID:         j.ID,
		Type:       j.Type,
		Status:     j.Status,
		Payload:    []byte(j.Payload),
		Result:     []byte(j.Result),
		Error:      j.Error,
		CreatedBy:  j.CreatedBy,
		StartedAt:  j.StartedAt,
		FinishedAt: j.FinishedAt,
		CreatedAt:  j.CreatedAt,
		UpdatedAt:  j.UpdatedAt,
	}
}
