package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnavailable  = errors.New("unavailable")
)

func New(
	repo Repository,
	site SiteAPI,
	cache Cache,
	fileStorageProvider FileStorageProvider,
	mailer Mailer,
	queue Queue,
	opt Options,
) Usecase {
	if cache == nil {
		cache = noopCache{}
	}
	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}
	if opt.AutoTagPoll <= 0 {
		opt.AutoTagPoll = 6 * time.Second
	}
	if opt.BulkConcurrency <= 0 {
		opt.BulkConcurrency = 4
	}
	return Usecase{
		repo:                repo,
		site:                site,
		cache:               cache,
		fileStorageProvider: fileStorageProvider,
		mailer:              mailer,
		queue:               queue,
		opt:                 opt,
	}
}

type Options struct {
	Logger          *slog.Logger
	AutoTagPoll     time.Duration
	BulkConcurrency int
	PublicSiteURL   string
	ReportTo        []string
	ReportFrom      string
}

type Repository interface {
	Health() map[string]string
	Close() error

	ListSavedViews(context.Context, ListSavedViewsOption) ([]SavedView, int, error)
	GetSavedViewByID(context.Context, uuid.UUID) (SavedView, error)
	CreateSavedView(context.Context, SavedView) (SavedView, error)
	UpdateSavedView(context.Context, SavedView) (SavedView, error)
	DeleteSavedView(context.Context, uuid.UUID) error

	ListJobs(context.Context, ListJobsOption) ([]Job, int, error)
	GetJobByID(context.Context, uuid.UUID) (Job, error)
	CreateJob(context.Context, Job) (Job, error)
	UpdateJob(context.Context, Job) (Job, error)
}

// SiteAPI is the external site service owning assets, intake and
// guardrails. The console never stores what it returns.
type SiteAPI interface {
	ListAssets(context.Context, url.Values) ([]Asset, error)
	GetAsset(context.Context, string) (Asset, error)
	AddAssetTags(context.Context, string, []AssetTagInput) (Asset, error)
	RemoveAssetTag(ctx context.Context, id, tag, source string) error
	SetAssetRoles(context.Context, string, []AssetRoleInput) (Asset, error)
	SetRolePublished(ctx context.Context, id, role string, published bool) (Asset, error)
	SetAssetRating(ctx context.Context, id string, rating int, starred bool) (Asset, error)
	SetFocalPoint(ctx context.Context, id string, x, y float64) (Asset, error)
	DeleteAsset(context.Context, string) error
	UploadAsset(context.Context, UploadAsset) (Asset, error)
	AssetThumbnail(context.Context, string) (io.ReadCloser, error)

	QueueAutoTag(context.Context, string) error
	ListAutoTagJobs(context.Context, []string) ([]AutoTagJob, error)
	ListTagTaxonomy(ctx context.Context, status string) ([]TagTaxonomy, error)
	UpdateTagTaxonomy(ctx context.Context, tag, status string) (TagTaxonomy, error)

	FetchDocument(ctx context.Context, path string, query url.Values) (json.RawMessage, error)
	SubmitDocument(ctx context.Context, path string, body any) (json.RawMessage, error)
}

// Cache holds short lived copies of site data. Asset snapshots are tied to
// the generation they were read under: SetAssetSnapshot stores under the
// generation GetAssetSnapshot returned, so an InvalidateAssets in between
// leaves the write unreachable.
type Cache interface {
	GetAssetSnapshot(ctx context.Context, query string) (assets []Asset, gen int64, hit bool, err error)
	SetAssetSnapshot(ctx context.Context, gen int64, query string, assets []Asset) error
	InvalidateAssets(context.Context) error
	SaveAutoTagJobs(context.Context, []AutoTagJob) error
	GetAutoTagJobs(ctx context.Context, assetIDs []string) ([]AutoTagJob, error)
	GetPalette(ctx context.Context, assetID string) ([]string, bool, error)
	SetPalette(ctx context.Context, assetID string, colors []string) error
}

type FileStorageProvider interface {
	GetTempUploadURL(context.Context, string) (string, error)
	OpenTempFile(context.Context, string) (io.ReadCloser, error)
	RemoveTempFile(context.Context, string) error
}

type Mailer interface {
	SendEmail(context.Context, Email) error
}

type Queue interface {
	EnqueueJob(ctx context.Context, jobID uuid.UUID, jobType string, payload []byte) error
}

type Usecase struct {
	repo                Repository
	site                SiteAPI
	cache               Cache
	fileStorageProvider FileStorageProvider
	mailer              Mailer
	queue               Queue
	opt                 Options
}

type pinger interface {
	Ping(context.Context) error
}

// Health reports the database stats plus the reachability of the site API
// and the cache. Either being down marks the service as down.
func (u Usecase) Health() map[string]string {
	stats := u.repo.Health()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for name, dep := range map[string]any{"site": u.site, "cache": u.cache} {
		p, ok := dep.(pinger)
		if !ok {
			continue
		}
		if err := p.Ping(ctx); err != nil {
			stats[name] = "down: " + err.Error()
			stats["status"] = "down"
			continue
		}
		stats[name] = "up"
	}
	return stats
}

func (u Usecase) Close() error {
	return u.repo.Close()
}

func (u Usecase) logger() *slog.Logger {
	return u.opt.Logger
}

type noopCache struct{}

func (noopCache) GetAssetSnapshot(context.Context, string) ([]Asset, int64, bool, error) {
	return nil, 0, false, nil
}
func (noopCache) SetAssetSnapshot(context.Context, int64, string, []Asset) error { return nil }
func (noopCache) InvalidateAssets(context.Context) error                         { return nil }
func (noopCache) SaveAutoTagJobs(context.Context, []AutoTagJob) error            { return nil }
func (noopCache) GetAutoTagJobs(context.Context, []string) ([]AutoTagJob, error) {
	return nil, nil
}
func (noopCache) GetPalette(context.Context, string) ([]string, bool, error) {
	return nil, false, nil
}
func (noopCache) SetPalette(context.Context, string, []string) error { return nil }
