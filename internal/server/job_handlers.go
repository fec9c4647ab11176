package server

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/framecraft/framecraft/internal/usecase"
)

type Job struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Status     string          `json:"status"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Result     json.RawMessage `json:"result,omitempty"`
	Error      string          `json:"error,omitempty"`
	CreatedBy  string          `json:"created_by,omitempty"`
	StartedAt  *string         `json:"started_at,omitempty"`
	FinishedAt *string         `json:"finished_at,omitempty"`
	CreatedAt  string          `json:"created_at"`
	UpdatedAt  string          `json:"updated_at"`
}

func toJob(job usecase.Job) Job {
	j := Job{
		ID:        job.ID.String(),
		Type:      job.Type,
		Status:    job.Status,
		Error:     job.Error,
		CreatedBy: job.CreatedBy,
		CreatedAt: job.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: job.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if json.Valid(job.Payload) {
		j.Payload = job.Payload
	}
	if json.Valid(job.Result) {
		j.Result = job.Result
	}
	if job.StartedAt != nil {
		tmp := job.StartedAt.UTC().Format(time.RFC3339)
		j.StartedAt = &tmp
	}
	if job.FinishedAt != nil {
		tmp := job.FinishedAt.UTC().Format(time.RFC3339)
		j.FinishedAt = &tmp
	}
	return j
}

type ListJobsRequest struct {
	Skip   int    `query:"skip" validate:"min=0"`
	Limit  int    `query:"limit" validate:"min=0,max=200"`
	SortBy string `query:"sort_by" validate:"omitempty,oneof=created_at updated_at started_at finished_at"`
	SortIn string `query:"sort_in" validate:"omitempty,oneof=asc desc"`

	Types    []string `query:"types" validate:"omitempty,dive,oneof=asset:bulk asset:import"`
	Statuses []string `query:"statuses" validate:"omitempty,dive,oneof=PENDING IN_PROGRESS COMPLETED FAILED"`
}

func (s *Server) ListJobs(ctx echo.Context) error {
	var req ListJobsRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	jobs, total, err := s.server.ListJobs(
		ctx.Request().Context(),
		usecase.ListJobsOption{
			Skip:     req.Skip,
			Limit:    req.Limit,
			SortBy:   req.SortBy,
			SortIn:   req.SortIn,
			Types:    req.Types,
			Statuses: req.Statuses,
		})
	if err != nil {
		return s.fail(ctx, err)
	}

	list := make([]Job, 0, len(jobs))
	for _, job := range jobs {
		list = append(list, toJob(job))
	}

	return ctx.JSON(200, Res{
		Data: list,
		Meta: &Meta{
			Total: total,
			Skip:  req.Skip,
			Limit: req.Limit,
		},
	})
}

type GetJobByIDRequest struct {
	ID string `param:"id" validate:"required,uuid"`
}

func (s *Server) GetJobByID(ctx echo.Context) error {
	var req GetJobByIDRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	id, _ := uuid.Parse(req.ID)
	job, err := s.server.GetJobByID(ctx.Request().Context(), id)
	if err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(200, Res{Data: toJob(job)})
}

type CreateBulkAssetJobRequest struct {
	Action    string   `json:"action" validate:"required,oneof=tags roles publish rating delete auto_tag"`
	AssetIDs  []string `json:"asset_ids" validate:"required,min=1,dive,required"`
	Tags      []string `json:"tags" validate:"omitempty,dive,required"`
	Roles     []string `json:"roles" validate:"omitempty,dive,required"`
	Role      string   `json:"role"`
	Published bool     `json:"published"`
	Rating    int      `json:"rating" validate:"min=0,max=5"`
}

func (s *Server) CreateBulkAssetJob(ctx echo.Context) error {
	var req CreateBulkAssetJobRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	job, err := s.server.CreateBulkAssetJob(ctx.Request().Context(), usecase.BulkAssetPayload{
		Action:    usecase.BulkAction(req.Action),
		AssetIDs:  req.AssetIDs,
		Tags:      req.Tags,
		Roles:     req.Roles,
		Role:      req.Role,
		Published: req.Published,
		Rating:    req.Rating,
	})
	if err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(202, Res{Data: toJob(job), Message: "Job queued"})
}
