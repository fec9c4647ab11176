package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/framecraft/framecraft/internal/usecase"
)

// Service is the console's use case surface as the handlers see it.
type Service interface {
	// Health returns a map of health status information.
	Health() map[string]string
	// Close releases the repository.
	Close() error

	GetAssetView(context.Context, usecase.ViewState) (usecase.AssetView, error)
	GetAsset(context.Context, string) (usecase.Asset, error)
	AddAssetTags(context.Context, string, []string) (usecase.Asset, error)
	RemoveAssetTag(ctx context.Context, id, tag, source string) error
	SetAssetRoles(context.Context, string, []usecase.AssetRoleInput) (usecase.Asset, error)
	ToggleAssetRole(ctx context.Context, id, role string) (usecase.Asset, error)
	SetHeroMain(context.Context, string) (usecase.Asset, error)
	SetRolePublished(ctx context.Context, id, role string, published bool) (usecase.Asset, error)
	ToggleRolePublished(ctx context.Context, id, role string) (usecase.Asset, error)
	SetAssetRating(ctx context.Context, id string, rating int) (usecase.Asset, error)
	ToggleAssetStar(context.Context, string) (usecase.Asset, error)
	SetFocalPoint(ctx context.Context, id string, x, y float64) (usecase.Asset, error)
	DeleteAsset(context.Context, string) error
	UploadAsset(context.Context, usecase.UploadAsset) (usecase.Asset, error)
	AssetPalette(context.Context, string) ([]string, error)

	ListTagTaxonomy(ctx context.Context, status string) ([]usecase.TagTaxonomy, error)
	ApproveTag(ctx context.Context, tag string) (usecase.TagTaxonomy, error)

	QueueAutoTag(context.Context, []string) error
	ListAutoTagJobs(context.Context, []string) ([]usecase.AutoTagJob, error)
	WatchAutoTag(ctx context.Context, ids []string, emit func(usecase.AutoTagUpdate) error) error

	ListJobs(context.Context, usecase.ListJobsOption) ([]usecase.Job, int, error)
	GetJobByID(context.Context, uuid.UUID) (usecase.Job, error)
	CreateBulkAssetJob(context.Context, usecase.BulkAssetPayload) (usecase.Job, error)
	CreateImportJob(context.Context, usecase.ImportPayload) (usecase.Job, error)
	GetTempUploadURL(ctx context.Context, name string) (string, string, error)

	ListSavedViews(context.Context, usecase.ListSavedViewsOption) ([]usecase.SavedView, int, error)
	GetSavedViewByID(context.Context, uuid.UUID) (usecase.SavedView, error)
	CreateSavedView(context.Context, usecase.SavedView) (usecase.SavedView, error)
	UpdateSavedView(context.Context, usecase.SavedView) (usecase.SavedView, error)
	DeleteSavedView(context.Context, uuid.UUID) error
	ApplySavedView(context.Context, uuid.UUID) (usecase.AssetView, error)

	GetIntakeState(context.Context) (json.RawMessage, error)
	GetIntakeSection(ctx context.Context, section string) (json.RawMessage, error)
	SaveIntakeSection(context.Context, usecase.IntakeSection) (json.RawMessage, error)
	CreateIntakeProposal(context.Context, json.RawMessage) (json.RawMessage, error)
	ApproveIntake(context.Context, json.RawMessage) (json.RawMessage, error)
	ListGuardrails(ctx context.Context, limit int) (json.RawMessage, error)
	CreateGuardrail(context.Context, json.RawMessage) (json.RawMessage, error)
	EvaluateGuardrails(context.Context, json.RawMessage) (json.RawMessage, error)
	ListPrompts(ctx context.Context, limit int) (json.RawMessage, error)
	CreatePrompt(context.Context, json.RawMessage) (json.RawMessage, error)

	SiteQRCode(size int) ([]byte, error)
}

type Server struct {
	server    Service
	validator *validator.Validate
	logger    *slog.Logger

	adminUser string
	adminPass string
	// serviceName names the otel tracer; empty disables otelecho.
	serviceName    string
	originPatterns []string
}

type Options struct {
	Logger         *slog.Logger
	AdminUser      string
	AdminPass      string
	ServiceName    string
	OriginPatterns []string
}

func NewServer(svc Service, opt Options) *Server {
	logger := opt.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Server{
		server:         svc,
		validator:      validator.New(),
		logger:         logger,
		adminUser:      opt.AdminUser,
		adminPass:      opt.AdminPass,
		serviceName:    opt.ServiceName,
		originPatterns: opt.OriginPatterns,
	}
}
