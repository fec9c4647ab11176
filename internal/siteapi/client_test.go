package siteapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/framecraft/framecraft/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL, 5*time.Second, WithHTTPClient(srv.Client()))
}

func TestClient_ListAssets_DefaultsMissingFields(t *testing.T) {
	var gotQuery url.Values
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/assets", r.URL.Path)
		gotQuery = r.URL.Query()
		_, _ = io.WriteString(w, `[{"id":"a1","original_filename":"x.jpg","width":10,"height":5,"created_at":"2024-01-01T00:00:00Z"}]`)
	})

	assets, err := c.ListAssets(context.Background(), url.Values{"tags": {"sky", "sea"}, "sort": {"newest"}})
	require.NoError(t, err)
	require.Len(t, assets, 1)

	a := assets[0]
	assert.Equal(t, "a1", a.ID)
	assert.Equal(t, 0.5, a.FocalX)
	assert.Equal(t, 0.5, a.FocalY)
	assert.NotNil(t, a.Tags)
	assert.NotNil(t, a.Roles)
	assert.Empty(t, a.Tags)
	assert.Equal(t, []string{"sky", "sea"}, gotQuery["tags"])
}

func TestClient_GetAsset_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"detail":"Asset not found"}`)
	})

	_, err := c.GetAsset(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, usecase.ErrNotFound)

	var serr *StatusError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, http.StatusNotFound, serr.Code)
	assert.Equal(t, "Asset not found", serr.Detail)
}

func TestClient_SetAssetRoles_SendsPayload(t *testing.T) {
	var got []map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/v1/assets/a1/roles", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"id":"a1","roles":[{"role":"hero_main","is_published":true}]}`)
	})

	published := true
	a, err := c.SetAssetRoles(context.Background(), "a1", []usecase.AssetRoleInput{
		{Role: usecase.ROLE_HERO_MAIN, IsPublished: &published},
		{Role: usecase.ROLE_GALLERY},
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "hero_main", got[0]["role"])
	assert.Equal(t, true, got[0]["is_published"])
	_, hasFlag := got[1]["is_published"]
	assert.False(t, hasFlag)
	assert.True(t, a.RolePublished(usecase.ROLE_HERO_MAIN))
}

func TestClient_RemoveAssetTag_Query(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "sunset", r.URL.Query().Get("tag"))
		assert.Equal(t, "manual", r.URL.Query().Get("source"))
		_, _ = io.WriteString(w, `{"status":"deleted"}`)
	})

	require.NoError(t, c.RemoveAssetTag(context.Background(), "a1", "sunset", "manual"))
}

func TestClient_UploadAsset_Multipart(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/assets/upload", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "false", r.FormValue("generate_derivatives"))
		assert.Equal(t, "sky, sea", r.FormValue("tags"))

		f, fh, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		b, _ := io.ReadAll(f)
		assert.Equal(t, "photo.jpg", fh.Filename)
		assert.Equal(t, "jpegbytes", string(b))

		_, _ = io.WriteString(w, `{"id":"new","original_filename":"photo.jpg"}`)
	})

	a, err := c.UploadAsset(context.Background(), usecase.UploadAsset{
		Filename:    "photo.jpg",
		ContentType: "image/jpeg",
		Body:        strings.NewReader("jpegbytes"),
		Tags:        "sky, sea",
	})
	require.NoError(t, err)
	assert.Equal(t, "new", a.ID)
}

func TestClient_ListAutoTagJobs(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, []string{"a1", "a2"}, r.URL.Query()["asset_ids"])
		_, _ = io.WriteString(w, `[{"asset_id":"a1","status":"failed","error_message":"boom","created_at":"2024-01-01T00:00:00Z","updated_at":"2024-01-01T00:00:00Z"}]`)
	})

	jobs, err := c.ListAutoTagJobs(context.Background(), []string{"a1", "a2"})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, usecase.AUTOTAG_STATUS_FAILED, jobs[0].Status)
	assert.Equal(t, "boom", jobs[0].ErrorMessage)
}

func TestClient_SubmitDocument_ValidationError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, `{"detail":[{"loc":["body","status"],"msg":"bad"}]}`)
	})

	_, err := c.SubmitDocument(context.Background(), "/api/v1/guardrails", map[string]string{})
	require.Error(t, err)
	assert.ErrorIs(t, err, usecase.ErrInvalidInput)
	assert.Contains(t, err.Error(), "422")
}

func TestClient_RateLimitHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	}))
	defer srv.Close()
	c := New(srv.URL, time.Second, WithHTTPClient(srv.Client()), WithRateLimit(1))

	_, err := c.ListAssets(context.Background(), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = c.ListAssets(ctx, nil)
	require.Error(t, err)
}
