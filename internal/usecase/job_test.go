package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/framecraft/framecraft/internal/config"
)

func runJob(t *testing.T, u Usecase, repo *fakeRepo, create func(context.Context) (Job, error)) (Job, JobResult) {
	t.Helper()
	ctx := context.Background()

	job, err := create(ctx)
	require.NoError(t, err)
	assert.Equal(t, JOB_STATUS_PENDING, job.Status)

	require.NoError(t, u.ProcessJob(ctx, job.ID))

	done, err := repo.GetJobByID(ctx, job.ID)
	require.NoError(t, err)
	require.NotNil(t, done.StartedAt)
	require.NotNil(t, done.FinishedAt)

	var res JobResult
	if len(done.Result) > 0 {
		require.NoError(t, json.Unmarshal(done.Result, &res))
	}
	return done, res
}

func TestCreateBulkAssetJob_Validation(t *testing.T) {
	u, _, _ := newTestUsecase(newFakeSite())
	ctx := context.Background()

	tests := []BulkAssetPayload{
		{Action: BulkAddTags},
		{Action: BulkAddTags, AssetIDs: []string{"a"}},
		{Action: BulkSetRoles, AssetIDs: []string{"a"}},
		{Action: BulkPublish, AssetIDs: []string{"a"}},
		{Action: BulkSetRating, AssetIDs: []string{"a"}, Rating: 7},
		{Action: "explode", AssetIDs: []string{"a"}},
	}
	for _, p := range tests {
		_, err := u.CreateBulkAssetJob(ctx, p)
		assert.ErrorIs(t, err, ErrInvalidInput, p.Action)
	}
}

func TestCreateJob_RecordsAdminAndEnqueues(t *testing.T) {
	site := newFakeSite(library()...)
	q := &fakeQueue{}
	repo := newFakeRepo()
	u := New(repo, site, nil, nil, nil, q, Options{})

	ctx := context.WithValue(context.Background(), config.CTX_KEY_ADMIN_USER, "admin")
	job, err := u.CreateBulkAssetJob(ctx, BulkAssetPayload{Action: BulkDelete, AssetIDs: []string{"inbox-land"}})
	require.NoError(t, err)

	assert.Equal(t, "admin", job.CreatedBy)
	assert.Equal(t, []uuid.UUID{job.ID}, q.enqueued)
}

func TestCreateJob_EnqueueFailureMarksJobFailed(t *testing.T) {
	repo := newFakeRepo()
	u := New(repo, newFakeSite(), nil, nil, nil, &fakeQueue{err: errors.New("redis down")}, Options{})

	_, err := u.CreateImportJob(context.Background(), ImportPayload{Names: []string{"a.jpg"}})
	require.Error(t, err)

	jobs, _, _ := repo.ListJobs(context.Background(), ListJobsOption{})
	require.Len(t, jobs, 1)
	assert.Equal(t, JOB_STATUS_FAILED, jobs[0].Status)
	assert.Contains(t, jobs[0].Error, "redis down")
}

func TestCreateJob_NoQueue(t *testing.T) {
	u := New(newFakeRepo(), newFakeSite(), nil, nil, nil, nil, Options{})
	_, err := u.CreateImportJob(context.Background(), ImportPayload{Names: []string{"a.jpg"}})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestProcessJob_BulkTags(t *testing.T) {
	site := newFakeSite(library()...)
	u, repo, cache := newTestUsecase(site)

	job, res := runJob(t, u, repo, func(ctx context.Context) (Job, error) {
		return u.CreateBulkAssetJob(ctx, BulkAssetPayload{
			Action:   BulkAddTags,
			AssetIDs: []string{"review-port", "inbox-land"},
			Tags:     []string{"batch"},
		})
	})

	assert.Equal(t, JOB_STATUS_COMPLETED, job.Status)
	assert.Equal(t, []string{"inbox-land", "review-port"}, res.Succeeded)
	assert.Equal(t, LaneReview, ClassifyLane(site.assets["inbox-land"]))
	assert.Positive(t, cache.invalidated)
}

func TestProcessJob_BulkPublishSkipsUnchanged(t *testing.T) {
	site := newFakeSite(library()...)
	u, repo, _ := newTestUsecase(site)

	job, res := runJob(t, u, repo, func(ctx context.Context) (Job, error) {
		return u.CreateBulkAssetJob(ctx, BulkAssetPayload{
			Action:    BulkPublish,
			AssetIDs:  []string{"publish-square", "inbox-land"},
			Role:      ROLE_LOGO,
			Published: true,
		})
	})

	assert.Equal(t, JOB_STATUS_COMPLETED, job.Status)
	assert.Equal(t, []string{"publish-square"}, res.Succeeded)
	assert.Equal(t, []string{"inbox-land"}, res.Skipped)
	assert.Equal(t, []string{"publish-square"}, site.publishCalls)
}

func TestProcessJob_BulkRatingKeepsStar(t *testing.T) {
	site := newFakeSite(library()...)
	u, repo, _ := newTestUsecase(site)

	_, res := runJob(t, u, repo, func(ctx context.Context) (Job, error) {
		return u.CreateBulkAssetJob(ctx, BulkAssetPayload{
			Action:   BulkSetRating,
			AssetIDs: []string{"publish-square", "inbox-land"},
			Rating:   1,
		})
	})

	assert.Len(t, res.Succeeded, 2)
	assert.Equal(t, [2]any{1, true}, site.ratingCalls["publish-square"])
	assert.Equal(t, [2]any{1, false}, site.ratingCalls["inbox-land"])
}

func TestProcessJob_ItemFailuresFailJob(t *testing.T) {
	site := newFakeSite(library()...)
	site.failIDs["review-port"] = true
	u, repo, _ := newTestUsecase(site)

	job, res := runJob(t, u, repo, func(ctx context.Context) (Job, error) {
		return u.CreateBulkAssetJob(ctx, BulkAssetPayload{
			Action:   BulkAutoTag,
			AssetIDs: []string{"review-port", "inbox-land", "missing"},
		})
	})

	assert.Equal(t, JOB_STATUS_FAILED, job.Status)
	assert.Equal(t, "1 of 3 items failed", job.Error)
	assert.Equal(t, []string{"inbox-land", "missing"}, res.Succeeded)
	assert.Contains(t, res.Failed, "review-port")
}

func TestProcessJob_FinishedJobIsNotRerun(t *testing.T) {
	site := newFakeSite(library()...)
	u, repo, _ := newTestUsecase(site)
	ctx := context.Background()

	job, err := repo.CreateJob(ctx, Job{Type: JOB_TYPE_ASSET_BULK, Status: JOB_STATUS_COMPLETED})
	require.NoError(t, err)
	require.NoError(t, u.ProcessJob(ctx, job.ID))

	got, _ := repo.GetJobByID(ctx, job.ID)
	assert.Nil(t, got.StartedAt)
}

func TestProcessJob_BadPayload(t *testing.T) {
	u, repo, _ := newTestUsecase(newFakeSite())
	ctx := context.Background()

	job, err := repo.CreateJob(ctx, Job{Type: JOB_TYPE_ASSET_BULK, Status: JOB_STATUS_PENDING, Payload: []byte(`{`)})
	require.NoError(t, err)
	require.NoError(t, u.ProcessJob(ctx, job.ID))

	got, _ := repo.GetJobByID(ctx, job.ID)
	assert.Equal(t, JOB_STATUS_FAILED, got.Status)
	assert.NotEmpty(t, got.Error)
	assert.Empty(t, got.Result)
}

func TestProcessJob_Import(t *testing.T) {
	site := newFakeSite()
	site.failIDs["bad.jpg"] = true
	storage := &fakeStorage{files: map[string]string{
		"x1/good.png": "png-bytes",
		"x2/bad.jpg":  "jpg-bytes",
	}}
	repo := newFakeRepo()
	u := New(repo, site, nil, storage, nil, &fakeQueue{}, Options{})

	job, res := runJob(t, u, repo, func(ctx context.Context) (Job, error) {
		return u.CreateImportJob(ctx, ImportPayload{
			Names:               []string{"x1/good.png", "x2/bad.jpg", "x3/gone.jpg"},
			GenerateDerivatives: true,
			Tags:                "import",
		})
	})

	assert.Equal(t, JOB_STATUS_FAILED, job.Status)
	assert.Equal(t, []string{"x1/good.png"}, res.Succeeded)
	assert.Len(t, res.Failed, 2)

	require.Len(t, site.uploads, 1)
	assert.Equal(t, "good.png", site.uploads[0].Filename)
	assert.Equal(t, "image/png", site.uploads[0].ContentType)
	assert.True(t, site.uploads[0].GenerateDerivatives)
	assert.Equal(t, "png-bytes", site.uploadBodies[0])
	assert.Equal(t, []string{"x1/good.png"}, storage.removed)
}

func TestProcessJob_SendsReport(t *testing.T) {
	site := newFakeSite(library()...)
	repo := newFakeRepo()
	mailer := &fakeMailer{}
	u := New(repo, site, nil, nil, mailer, &fakeQueue{}, Options{
		ReportTo:      []string{"ops@example.com"},
		ReportFrom:    "console@example.com",
		PublicSiteURL: "https://example.com",
	})

	job, _ := runJob(t, u, repo, func(ctx context.Context) (Job, error) {
		return u.CreateBulkAssetJob(ctx, BulkAssetPayload{Action: BulkDelete, AssetIDs: []string{"inbox-land"}})
	})

	require.Len(t, mailer.sent, 1)
	email := mailer.sent[0]
	assert.Equal(t, []string{"ops@example.com"}, email.To)
	assert.Contains(t, email.Subject, JOB_STATUS_COMPLETED)
	assert.Contains(t, email.Body, job.ID.String())
	assert.Contains(t, email.Body, "data:image/png;base64,")
	require.Len(t, email.Attachments, 1)
	assert.Equal(t, "result-"+job.ID.String()+".json", email.Attachments[0].Name)
}

func TestSiteQRCode(t *testing.T) {
	u := New(newFakeRepo(), newFakeSite(), nil, nil, nil, nil, Options{})
	_, err := u.SiteQRCode(256)
	assert.ErrorIs(t, err, ErrUnavailable)

	u = New(newFakeRepo(), newFakeSite(), nil, nil, nil, nil, Options{PublicSiteURL: "https://example.com"})
	png, err := u.SiteQRCode(0)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), png[:4])
}

func TestGetTempUploadURL(t *testing.T) {
	u := New(newFakeRepo(), newFakeSite(), nil, &fakeStorage{}, nil, nil, Options{})

	url, name, err := u.GetTempUploadURL(context.Background(), "../photos/beach.jpg")
	require.NoError(t, err)
	assert.True(t, len(name) > len("beach.jpg"))
	assert.Contains(t, name, "/beach.jpg")
	assert.Contains(t, url, name)

	_, _, err = u.GetTempUploadURL(context.Background(), "/")
	assert.ErrorIs(t, err, ErrInvalidInput)

	u = New(newFakeRepo(), newFakeSite(), nil, nil, nil, nil, Options{})
	_, _, err = u.GetTempUploadURL(context.Background(), "a.jpg")
	assert.ErrorIs(t, err, ErrUnavailable)
}
