package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
)

type fakeSite struct {
	mu sync.Mutex

	assets      map[string]Asset
	autoTagJobs []AutoTagJob
	autoTagErr  error
	failIDs     map[string]bool
	thumbnails  map[string][]byte

	listCalls    int
	onList       func()
	queued       []string
	ratingCalls  map[string][2]any
	publishCalls []string
	uploads      []UploadAsset
	uploadBodies []string
	submitted    map[string]json.RawMessage
	fetched      []string
}

func newFakeSite(assets ...Asset) *fakeSite {
	f := &fakeSite{
		assets:      make(map[string]Asset),
		failIDs:     make(map[string]bool),
		ratingCalls: make(map[string][2]any),
		submitted:   make(map[string]json.RawMessage),
	}
	for _, a := range assets {
		f.assets[a.ID] = a
	}
	return f
}

func (f *fakeSite) get(id string) (Asset, error) {
	if f.failIDs[id] {
		return Asset{}, fmt.Errorf("site down for %s", id)
	}
	a, ok := f.assets[id]
	if !ok {
		return Asset{}, ErrNotFound
	}
	return a, nil
}

func (f *fakeSite) ListAssets(context.Context, url.Values) ([]Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	out := make([]Asset, 0, len(f.assets))
	for _, a := range f.assets {
		out = append(out, a)
	}
	if f.onList != nil {
		f.mu.Unlock()
		f.onList()
		f.mu.Lock()
	}
	return out, nil
}

func (f *fakeSite) GetAsset(_ context.Context, id string) (Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.get(id)
}

func (f *fakeSite) AddAssetTags(_ context.Context, id string, tags []AssetTagInput) (Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, err := f.get(id)
	if err != nil {
		return Asset{}, err
	}
	for _, t := range tags {
		a.Tags = append(a.Tags, AssetTag(t))
	}
	f.assets[id] = a
	return a, nil
}

func (f *fakeSite) RemoveAssetTag(_ context.Context, id, tag, source string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, err := f.get(id)
	if err != nil {
		return err
	}
	var kept []AssetTag
	for _, t := range a.Tags {
		if t.Tag == tag && (source == "" || t.Source == source) {
			continue
		}
		kept = append(kept, t)
	}
	a.Tags = kept
	f.assets[id] = a
	return nil
}

func (f *fakeSite) SetAssetRoles(_ context.Context, id string, roles []AssetRoleInput) (Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, err := f.get(id)
	if err != nil {
		return Asset{}, err
	}
	a.Roles = nil
	for _, r := range roles {
		published := r.IsPublished != nil && *r.IsPublished
		a.Roles = append(a.Roles, AssetRole{Role: r.Role, Scope: r.Scope, IsPublished: published})
	}
	f.assets[id] = a
	return a, nil
}

func (f *fakeSite) SetRolePublished(_ context.Context, id, role string, published bool) (Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, err := f.get(id)
	if err != nil {
		return Asset{}, err
	}
	f.publishCalls = append(f.publishCalls, id)
	for i := range a.Roles {
		if a.Roles[i].Role == role {
			a.Roles[i].IsPublished = published
		}
	}
	f.assets[id] = a
	return a, nil
}

func (f *fakeSite) SetAssetRating(_ context.Context, id string, rating int, starred bool) (Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, err := f.get(id)
	if err != nil {
		return Asset{}, err
	}
	f.ratingCalls[id] = [2]any{rating, starred}
	a.Rating, a.Starred = rating, starred
	f.assets[id] = a
	return a, nil
}

func (f *fakeSite) SetFocalPoint(_ context.Context, id string, x, y float64) (Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, err := f.get(id)
	if err != nil {
		return Asset{}, err
	}
	a.FocalX, a.FocalY = x, y
	f.assets[id] = a
	return a, nil
}

func (f *fakeSite) DeleteAsset(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.get(id); err != nil {
		return err
	}
	delete(f.assets, id)
	return nil
}

func (f *fakeSite) UploadAsset(_ context.Context, up UploadAsset) (Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failIDs[up.Filename] {
		return Asset{}, errors.New("upload rejected")
	}
	b, _ := io.ReadAll(up.Body)
	f.uploads = append(f.uploads, up)
	f.uploadBodies = append(f.uploadBodies, string(b))
	a := Asset{ID: "new-" + up.Filename, OriginalFilename: up.Filename, CreatedAt: time.Now()}
	f.assets[a.ID] = a
	return a, nil
}

func (f *fakeSite) AssetThumbnail(_ context.Context, id string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.thumbnails[id]
	if !ok {
		return nil, ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (f *fakeSite) QueueAutoTag(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failIDs[id] {
		return fmt.Errorf("queue failed for %s", id)
	}
	f.queued = append(f.queued, id)
	return nil
}

func (f *fakeSite) ListAutoTagJobs(context.Context, []string) ([]AutoTagJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.autoTagErr != nil {
		return nil, f.autoTagErr
	}
	return append([]AutoTagJob(nil), f.autoTagJobs...), nil
}

func (f *fakeSite) ListTagTaxonomy(context.Context, string) ([]TagTaxonomy, error) {
	return []TagTaxonomy{}, nil
}

func (f *fakeSite) UpdateTagTaxonomy(_ context.Context, tag, status string) (TagTaxonomy, error) {
	return TagTaxonomy{Tag: tag, Status: status}, nil
}

func (f *fakeSite) FetchDocument(_ context.Context, path string, query url.Values) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := path
	if len(query) > 0 {
		p += "?" + query.Encode()
	}
	f.fetched = append(f.fetched, p)
	return json.RawMessage(`{}`), nil
}

func (f *fakeSite) SubmitDocument(_ context.Context, path string, body any) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	f.submitted[path] = b
	return json.RawMessage(`{"ok":true}`), nil
}

type fakeRepo struct {
	mu    sync.Mutex
	jobs  map[uuid.UUID]Job
	views map[uuid.UUID]SavedView
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{jobs: make(map[uuid.UUID]Job), views: make(map[uuid.UUID]SavedView)}
}

func (r *fakeRepo) Health() map[string]string { return map[string]string{"status": "up"} }
func (r *fakeRepo) Close() error              { return nil }

func (r *fakeRepo) ListSavedViews(context.Context, ListSavedViewsOption) ([]SavedView, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]SavedView, 0, len(r.views))
	for _, v := range r.views {
		out = append(out, v)
	}
	return out, len(out), nil
}

func (r *fakeRepo) GetSavedViewByID(_ context.Context, id uuid.UUID) (SavedView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.views[id]
	if !ok {
		return SavedView{}, ErrNotFound
	}
	return v, nil
}

func (r *fakeRepo) CreateSavedView(_ context.Context, v SavedView) (SavedView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v.ID = uuid.New()
	v.CreatedAt, v.UpdatedAt = time.Now(), time.Now()
	r.views[v.ID] = v
	return v, nil
}

func (r *fakeRepo) UpdateSavedView(_ context.Context, v SavedView) (SavedView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.views[v.ID]; !ok {
		return SavedView{}, ErrNotFound
	}
	v.UpdatedAt = time.Now()
	r.views[v.ID] = v
	return v, nil
}

func (r *fakeRepo) DeleteSavedView(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.views[id]; !ok {
		return ErrNotFound
	}
	delete(r.views, id)
	return nil
}

func (r *fakeRepo) ListJobs(context.Context, ListJobsOption) ([]Job, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Job, 0, len(r.jobs))
	for _, j := range r.jobs {
		out = append(out, j)
	}
	return out, len(out), nil
}

func (r *fakeRepo) GetJobByID(_ context.Context, id uuid.UUID) (Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return Job{}, ErrNotFound
	}
	return j, nil
}

func (r *fakeRepo) CreateJob(_ context.Context, j Job) (Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j.ID = uuid.New()
	j.CreatedAt, j.UpdatedAt = time.Now(), time.Now()
	r.jobs[j.ID] = j
	return j, nil
}

func (r *fakeRepo) UpdateJob(_ context.Context, j Job) (Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[j.ID]; !ok {
		return Job{}, ErrNotFound
	}
	j.UpdatedAt = time.Now()
	r.jobs[j.ID] = j
	return j, nil
}

type fakeCache struct {
	mu          sync.Mutex
	gen         int64
	snapshots   map[string][]Asset
	invalidated int
	autoTag     map[string]AutoTagJob
	palettes    map[string][]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		snapshots: make(map[string][]Asset),
		autoTag:   make(map[string]AutoTagJob),
		palettes:  make(map[string][]string),
	}
}

func (c *fakeCache) GetAssetSnapshot(_ context.Context, query string) ([]Asset, int64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.snapshots[fmt.Sprint(c.gen, ":", query)]
	return a, c.gen, ok, nil
}

func (c *fakeCache) SetAssetSnapshot(_ context.Context, gen int64, query string, assets []Asset) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshots[fmt.Sprint(gen, ":", query)] = assets
	return nil
}

func (c *fakeCache) InvalidateAssets(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated++
	c.gen++
	return nil
}

func (c *fakeCache) SaveAutoTagJobs(_ context.Context, jobs []AutoTagJob) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, j := range jobs {
		c.autoTag[j.AssetID] = j
	}
	return nil
}

func (c *fakeCache) GetAutoTagJobs(_ context.Context, ids []string) ([]AutoTagJob, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []AutoTagJob
	for _, id := range ids {
		if j, ok := c.autoTag[id]; ok {
			out = append(out, j)
		}
	}
	return out, nil
}

func (c *fakeCache) GetPalette(_ context.Context, id string) ([]string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.palettes[id]
	return p, ok, nil
}

func (c *fakeCache) SetPalette(_ context.Context, id string, colors []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.palettes[id] = colors
	return nil
}

type fakeQueue struct {
	err      error
	enqueued []uuid.UUID
}

func (q *fakeQueue) EnqueueJob(_ context.Context, id uuid.UUID, _ string, _ []byte) error {
	if q.err != nil {
		return q.err
	}
	q.enqueued = append(q.enqueued, id)
	return nil
}

type fakeMailer struct {
	sent []Email
}

func (m *fakeMailer) SendEmail(_ context.Context, e Email) error {
	m.sent = append(m.sent, e)
	return nil
}

type fakeStorage struct {
	mu      sync.Mutex
	files   map[string]string
	removed []string
}

func (s *fakeStorage) GetTempUploadURL(_ context.Context, name string) (string, error) {
	return "https://storage.test/temp/" + name + "?sig=1", nil
}

func (s *fakeStorage) OpenTempFile(_ context.Context, name string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	body, ok := s.files[name]
	if !ok {
		return nil, ErrNotFound
	}
	return io.NopCloser(bytes.NewReader([]byte(body))), nil
}

func (s *fakeStorage) RemoveTempFile(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removed = append(s.removed, name)
	delete(s.files, name)
	return nil
}
