package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizeAutoTag(t *testing.T) {
	jobs := []AutoTagJob{
		{AssetID: "a", Status: AUTOTAG_STATUS_FAILED, ErrorMessage: "old", UpdatedAt: t0},
		{AssetID: "a", Status: AUTOTAG_STATUS_COMPLETED, UpdatedAt: t0.Add(time.Minute)},
		{AssetID: "b", Status: AUTOTAG_STATUS_RUNNING, UpdatedAt: t0},
		{AssetID: "c", Status: AUTOTAG_STATUS_FAILED, ErrorMessage: "boom", UpdatedAt: t0},
		{AssetID: "d", Status: "mystery", UpdatedAt: t0},
		{AssetID: "z", Status: AUTOTAG_STATUS_QUEUED, UpdatedAt: t0},
	}

	s := SummarizeAutoTag([]string{"a", "b", "c", "d", "e"}, jobs)
	assert.Equal(t, 0, s.Queued)
	assert.Equal(t, 1, s.Running)
	assert.Equal(t, 1, s.Completed)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 2, s.Idle)
	require.NotNil(t, s.FirstFailure)
	assert.Equal(t, "c", s.FirstFailure.AssetID)
	assert.Equal(t, "boom", s.FirstFailure.ErrorMessage)

	empty := SummarizeAutoTag(nil, jobs)
	assert.Equal(t, AutoTagSummary{}, empty)
}

func TestQueueAutoTag(t *testing.T) {
	site := newFakeSite(library()...)
	site.failIDs["review-port"] = true
	u, _, cache := newTestUsecase(site)
	ctx := context.Background()

	require.NoError(t, u.QueueAutoTag(ctx, []string{"inbox-land"}))
	assert.Equal(t, AUTOTAG_STATUS_QUEUED, cache.autoTag["inbox-land"].Status)

	err := u.QueueAutoTag(ctx, []string{"publish-square", "review-port", "publish-tagged"})
	require.Error(t, err)
	assert.Equal(t, []string{"inbox-land", "publish-square"}, site.queued)

	assert.ErrorIs(t, u.QueueAutoTag(ctx, nil), ErrInvalidInput)
}

func TestListAutoTagJobs_CacheFallback(t *testing.T) {
	site := newFakeSite()
	site.autoTagJobs = []AutoTagJob{
		{AssetID: "a", Status: AUTOTAG_STATUS_RUNNING, UpdatedAt: t0},
		{AssetID: "b", Status: AUTOTAG_STATUS_COMPLETED, UpdatedAt: t0},
	}
	u, _, _ := newTestUsecase(site)
	ctx := context.Background()

	jobs, err := u.ListAutoTagJobs(ctx, []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	site.autoTagErr = errors.New("connection refused")
	jobs, err = u.ListAutoTagJobs(ctx, []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, jobs, 2)

	_, err = u.ListAutoTagJobs(ctx, []string{"a", "c"})
	assert.Error(t, err, "partial cache must not hide the outage")

	site.autoTagErr = ErrInvalidInput
	_, err = u.ListAutoTagJobs(ctx, []string{"a", "b"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAutoTagWatcher(t *testing.T) {
	var (
		mu    sync.Mutex
		polls int
	)
	w := AutoTagWatcher{
		Interval: 5 * time.Millisecond,
		Poll: func(_ context.Context, ids []string) ([]AutoTagJob, error) {
			mu.Lock()
			defer mu.Unlock()
			polls++
			if polls == 2 {
				return nil, errors.New("flaky")
			}
			return []AutoTagJob{{AssetID: ids[0], Status: AUTOTAG_STATUS_RUNNING}}, nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	var updates []AutoTagUpdate
	err := w.Watch(ctx, []string{"a", "b"}, func(u AutoTagUpdate) error {
		updates = append(updates, u)
		if len(updates) == 3 {
			cancel()
		}
		return nil
	})
	require.NoError(t, err)
	require.Len(t, updates, 3)
	assert.Equal(t, 1, updates[0].Summary.Running)
	assert.Equal(t, 1, updates[0].Summary.Idle)

	mu.Lock()
	assert.GreaterOrEqual(t, polls, 4)
	mu.Unlock()
}

func TestAutoTagWatcher_EmitErrorStops(t *testing.T) {
	w := AutoTagWatcher{
		Interval: time.Millisecond,
		Poll: func(context.Context, []string) ([]AutoTagJob, error) {
			return nil, nil
		},
	}
	boom := errors.New("closed")
	err := w.Watch(context.Background(), []string{"a"}, func(AutoTagUpdate) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestAutoTagWatcher_EmptySelection(t *testing.T) {
	w := AutoTagWatcher{
		Poll: func(context.Context, []string) ([]AutoTagJob, error) {
			t.Fatal("polled an empty selection")
			return nil, nil
		},
	}
	assert.NoError(t, w.Watch(context.Background(), nil, func(AutoTagUpdate) error { return nil }))
}
