package siteapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/framecraft/framecraft/internal/usecase"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

// StatusError is a non-2xx answer from the site API.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("site api %s %s: %d %s", e.Method, e.Path, e.Code, e.Detail)
	}
	return fmt.Sprintf("site api %s %s: %d", e.Method, e.Path, e.Code)
}

// Unwrap lets callers match 404 and 422 answers against the usecase
// sentinels.
func (e *StatusError) Unwrap() error {
	switch e.Code {
	case http.StatusNotFound:
		return usecase.ErrNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return usecase.ErrInvalidInput
	}
	return nil
}

type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

type Option func(*Client)

// WithHTTPClient replaces the instrumented default client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithRateLimit caps outbound requests per second. Zero disables the cap.
func WithRateLimit(rps int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), rps)
	}
}

func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   timeout,
		},
		limiter: rate.NewLimiter(rate.Inf, 0),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", method, err)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// do sends req and returns the response when its status is 2xx. Any other
// status is drained into a *StatusError.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("site api %s %s: %w", req.Method, req.URL.Path, err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()

	serr := &StatusError{Method: req.Method, Path: req.URL.Path, Code: resp.StatusCode}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	var body struct {
		Detail any `json:"detail"`
	}
	if json.Unmarshal(b, &body) == nil && body.Detail != nil {
		if s, ok := body.Detail.(string); ok {
			serr.Detail = s
		} else if d, err := json.Marshal(body.Detail); err == nil {
			serr.Detail = string(d)
		}
	} else {
		serr.Detail = strings.TrimSpace(string(b))
	}
	return nil, serr
}

// call performs a JSON round trip. A nil out discards the response body.
func (c *Client) call(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(b)
	}
	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func assetPath(id string, parts ...string) string {
	p := "/api/v1/assets/" + url.PathEscape(id)
	for _, part := range parts {
		p += "/" + part
	}
	return p
}

func (c *Client) ListAssets(ctx context.Context, query url.Values) ([]usecase.Asset, error) {
	var res []Asset
	if err := c.call(ctx, http.MethodGet, "/api/v1/assets", query, nil, &res); err != nil {
		return nil, err
	}
	list := make([]usecase.Asset, 0, len(res))
	for _, a := range res {
		list = append(list, a.ConvertToUsecase())
	}
	return list, nil
}

func (c *Client) assetCall(ctx context.Context, method, path string, in any) (usecase.Asset, error) {
	var a Asset
	if err := c.call(ctx, method, path, nil, in, &a); err != nil {
		return usecase.Asset{}, err
	}
	return a.ConvertToUsecase(), nil
}

func (c *Client) GetAsset(ctx context.Context, id string) (usecase.Asset, error) {
	return c.assetCall(ctx, http.MethodGet, assetPath(id), nil)
}

func (c *Client) AddAssetTags(ctx context.Context, id string, tags []usecase.AssetTagInput) (usecase.Asset, error) {
	in := make([]AssetTag, 0, len(tags))
	for _, t := range tags {
		in = append(in, AssetTag{Tag: t.Tag, Source: t.Source, Confidence: t.Confidence})
	}
	return c.assetCall(ctx, http.MethodPost, assetPath(id, "tags"), in)
}

func (c *Client) RemoveAssetTag(ctx context.Context, id, tag, source string) error {
	q := url.Values{"tag": {tag}}
	if source != "" {
		q.Set("source", source)
	}
	return c.call(ctx, http.MethodDelete, assetPath(id, "tags"), q, nil, nil)
}

func (c *Client) SetAssetRoles(ctx context.Context, id string, roles []usecase.AssetRoleInput) (usecase.Asset, error) {
	in := make([]AssetRole, 0, len(roles))
	for _, r := range roles {
		in = append(in, AssetRole{Role: r.Role, Scope: r.Scope, IsPublished: r.IsPublished})
	}
	return c.assetCall(ctx, http.MethodPut, assetPath(id, "roles"), in)
}

func (c *Client) SetRolePublished(ctx context.Context, id, role string, published bool) (usecase.Asset, error) {
	in := map[string]bool{"is_published": published}
	return c.assetCall(ctx, http.MethodPut, assetPath(id, "roles", url.PathEscape(role), "publish"), in)
}

func (c *Client) SetAssetRating(ctx context.Context, id string, rating int, starred bool) (usecase.Asset, error) {
	in := map[string]any{"rating": rating, "starred": starred}
	return c.assetCall(ctx, http.MethodPut, assetPath(id, "rating"), in)
}

func (c *Client) SetFocalPoint(ctx context.Context, id string, x, y float64) (usecase.Asset, error) {
	in := map[string]float64{"x": x, "y": y}
	return c.assetCall(ctx, http.MethodPut, assetPath(id, "focal-point"), in)
}

func (c *Client) DeleteAsset(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodDelete, assetPath(id), nil, nil, nil)
}

// UploadAsset streams the file as multipart form data without buffering
// it in memory.
func (c *Client) UploadAsset(ctx context.Context, up usecase.UploadAsset) (usecase.Asset, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		err := writeUploadForm(mw, up)
		if cerr := mw.Close(); err == nil {
			err = cerr
		}
		pw.CloseWithError(err)
	}()

	req, err := c.newRequest(ctx, http.MethodPost, "/api/v1/assets/upload", nil, pr)
	if err != nil {
		pr.Close()
		return usecase.Asset{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.do(req)
	if err != nil {
		pr.Close()
		return usecase.Asset{}, err
	}
	defer resp.Body.Close()

	var a Asset
	if err := json.NewDecoder(resp.Body).Decode(&a); err != nil {
		return usecase.Asset{}, fmt.Errorf("decode upload response: %w", err)
	}
	return a.ConvertToUsecase(), nil
}

func writeUploadForm(mw *multipart.Writer, up usecase.UploadAsset) error {
	if err := mw.WriteField("generate_derivatives", strconv.FormatBool(up.GenerateDerivatives)); err != nil {
		return err
	}
	if up.Tags != "" {
		if err := mw.WriteField("tags", up.Tags); err != nil {
			return err
		}
	}

	h := make(map[string][]string)
	h["Content-Disposition"] = []string{fmt.Sprintf(`form-data; name="file"; filename=%q`, up.Filename)}
	ct := up.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	h["Content-Type"] = []string{ct}
	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, up.Body)
	return err
}

// AssetThumbnail returns the thumbnail body. The caller closes it.
func (c *Client) AssetThumbnail(ctx context.Context, id string) (io.ReadCloser, error) {
	req, err := c.newRequest(ctx, http.MethodGet, assetPath(id, "thumbnail"), nil, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "image/*")
	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (c *Client) QueueAutoTag(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodPost, assetPath(id, "auto-tag"), nil, nil, nil)
}

func (c *Client) ListAutoTagJobs(ctx context.Context, ids []string) ([]usecase.AutoTagJob, error) {
	q := url.Values{}
	for _, id := range ids {
		q.Add("asset_ids", id)
	}
	var res []AutoTagJob
	if err := c.call(ctx, http.MethodGet, "/api/v1/assets/auto-tag/status", q, nil, &res); err != nil {
		return nil, err
	}
	list := make([]usecase.AutoTagJob, 0, len(res))
	for _, j := range res {
		list = append(list, j.ConvertToUsecase())
	}
	return list, nil
}

func (c *Client) ListTagTaxonomy(ctx context.Context, status string) ([]usecase.TagTaxonomy, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", status)
	}
	var res []TagTaxonomy
	if err := c.call(ctx, http.MethodGet, "/api/v1/assets/taxonomy", q, nil, &res); err != nil {
		return nil, err
	}
	list := make([]usecase.TagTaxonomy, 0, len(res))
	for _, t := range res {
		list = append(list, t.ConvertToUsecase())
	}
	return list, nil
}

func (c *Client) UpdateTagTaxonomy(ctx context.Context, tag, status string) (usecase.TagTaxonomy, error) {
	var res TagTaxonomy
	in := map[string]string{"status": status}
	if err := c.call(ctx, http.MethodPut, "/api/v1/assets/taxonomy/"+url.PathEscape(tag), nil, in, &res); err != nil {
		return usecase.TagTaxonomy{}, err
	}
	return res.ConvertToUsecase(), nil
}

// FetchDocument returns the raw JSON document at path. A null body comes
// back as JSON null.
func (c *Client) FetchDocument(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.call(ctx, http.MethodGet, path, query, nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *Client) SubmitDocument(ctx context.Context, path string, body any) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.call(ctx, http.MethodPost, path, nil, body, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// Ping checks that the site API answers at all.
func (c *Client) Ping(ctx context.Context) error {
	err := c.call(ctx, http.MethodGet, "/health", nil, nil, nil)
	var serr *StatusError
	if errors.As(err, &serr) && serr.Code < 500 {
		return nil
	}
	return err
}
