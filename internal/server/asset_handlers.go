package server

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/framecraft/framecraft/internal/usecase"
)

type Asset struct {
	ID               string         `json:"id"`
	OriginalFilename string         `json:"original_filename"`
	OriginalPath     string         `json:"original_path,omitzero"`
	MimeType         string         `json:"mime_type,omitzero"`
	Width            int            `json:"width"`
	Height           int            `json:"height"`
	Orientation      string         `json:"orientation"`
	Ratio            string         `json:"ratio"`
	Lane             string         `json:"lane"`
	FocalX           float64        `json:"focal_x"`
	FocalY           float64        `json:"focal_y"`
	Rating           int            `json:"rating"`
	Starred          bool           `json:"starred"`
	UsageCount       int            `json:"usage_count"`
	Tags             []AssetTag     `json:"tags"`
	Roles            []AssetRole    `json:"roles"`
	Variants         []AssetVariant `json:"variants"`
	LastUsedAt       *string        `json:"last_used_at,omitempty"`
	CreatedAt        string         `json:"created_at,omitzero"`
	UpdatedAt        string         `json:"updated_at,omitzero"`
}

type AssetTag struct {
	Tag        string   `json:"tag"`
	Source     string   `json:"source"`
	Confidence *float64 `json:"confidence,omitempty"`
}

type AssetRole struct {
	Role        string  `json:"role"`
	Label       string  `json:"label"`
	Scope       *string `json:"scope,omitempty"`
	IsPublished bool    `json:"is_published"`
	Publishable bool    `json:"publishable"`
}

type AssetVariant struct {
	Ratio   string `json:"ratio"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Format  string `json:"format"`
	Path    string `json:"path"`
	Version int    `json:"version"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func toAsset(a usecase.Asset) Asset {
	res := Asset{
		ID:               a.ID,
		OriginalFilename: a.OriginalFilename,
		OriginalPath:     a.OriginalPath,
		MimeType:         a.MimeType,
		Width:            a.Width,
		Height:           a.Height,
		Orientation:      string(usecase.OrientationOf(a.Width, a.Height)),
		Ratio:            usecase.RatioLabel(a.Width, a.Height),
		Lane:             string(usecase.ClassifyLane(a)),
		FocalX:           a.FocalX,
		FocalY:           a.FocalY,
		Rating:           a.Rating,
		Starred:          a.Starred,
		UsageCount:       a.UsageCount,
		Tags:             make([]AssetTag, 0, len(a.Tags)),
		Roles:            make([]AssetRole, 0, len(a.Roles)),
		Variants:         make([]AssetVariant, 0, len(a.Variants)),
		CreatedAt:        formatTime(a.CreatedAt),
		UpdatedAt:        formatTime(a.UpdatedAt),
	}
	if a.LastUsedAt != nil {
		tmp := formatTime(*a.LastUsedAt)
		res.LastUsedAt = &tmp
	}
	for _, t := range a.Tags {
		res.Tags = append(res.Tags, AssetTag(t))
	}
	for _, r := range a.Roles {
		res.Roles = append(res.Roles, AssetRole{
			Role:        r.Role,
			Label:       usecase.RoleLabel(r.Role),
			Scope:       r.Scope,
			IsPublished: r.IsPublished,
			Publishable: usecase.PublishableRoles[r.Role],
		})
	}
	for _, v := range a.Variants {
		res.Variants = append(res.Variants, AssetVariant(v))
	}
	return res
}

type AssetGroup struct {
	Key    string  `json:"key"`
	Label  string  `json:"label"`
	Assets []Asset `json:"assets"`
}

type RoleOption struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

type LaneCounts struct {
	All     int `json:"all"`
	Inbox   int `json:"inbox"`
	Review  int `json:"review"`
	Publish int `json:"publish"`
}

type AssetView struct {
	State       usecase.ViewState `json:"state"`
	Groups      []AssetGroup      `json:"groups"`
	Total       int               `json:"total"`
	LaneCounts  LaneCounts        `json:"lane_counts"`
	Tags        []string          `json:"tags"`
	RoleOptions []RoleOption      `json:"role_options"`
	HasHeroMain bool              `json:"has_hero_main"`
}

func toAssetView(v usecase.AssetView) AssetView {
	res := AssetView{
		State:       v.State,
		Groups:      make([]AssetGroup, 0, len(v.Groups)),
		Total:       v.Total,
		LaneCounts:  LaneCounts(v.LaneCounts),
		Tags:        v.Tags,
		RoleOptions: make([]RoleOption, 0, len(v.RoleOptions)),
		HasHeroMain: v.HasHeroMain,
	}
	if res.Tags == nil {
		res.Tags = []string{}
	}
	for _, g := range v.Groups {
		list := make([]Asset, 0, len(g.Assets))
		for _, a := range g.Assets {
			list = append(list, toAsset(a))
		}
		res.Groups = append(res.Groups, AssetGroup{Key: g.Key, Label: g.Label, Assets: list})
	}
	for _, o := range v.RoleOptions {
		res.RoleOptions = append(res.RoleOptions, RoleOption(o))
	}
	return res
}

type GetAssetViewRequest struct {
	Lane         string   `query:"lane" validate:"omitempty,oneof=all inbox review publish"`
	Search       string   `query:"search"`
	Tags         []string `query:"tags"`
	Roles        []string `query:"roles"`
	Orientations []string `query:"orientations" validate:"omitempty,dive,oneof=landscape portrait square"`
	MinRating    string   `query:"min_rating" validate:"omitempty,oneof=0 1 2 3 4 5"`
	StarredOnly  bool     `query:"starred_only"`
	Sort         string   `query:"sort" validate:"omitempty,oneof=newest oldest rating"`
	GroupBy      string   `query:"group_by" validate:"omitempty,oneof=none status role"`
}

func (r GetAssetViewRequest) viewState() usecase.ViewState {
	v := usecase.ViewState{
		Lane:        usecase.Lane(r.Lane),
		Search:      r.Search,
		Tags:        r.Tags,
		Roles:       r.Roles,
		StarredOnly: r.StarredOnly,
		Sort:        usecase.SortMode(r.Sort),
		GroupBy:     usecase.GroupBy(r.GroupBy),
	}
	if n, err := strconv.Atoi(r.MinRating); err == nil {
		v.MinRating = &n
	}
	for _, o := range r.Orientations {
		v.Orientations = append(v.Orientations, usecase.Orientation(o))
	}
	return v
}

func (s *Server) GetAssetView(ctx echo.Context) error {
	var req GetAssetViewRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	view, err := s.server.GetAssetView(ctx.Request().Context(), req.viewState())
	if err != nil {
		return s.fail(ctx, err)
	}

	return ctx.JSON(200, Res{
		Data: toAssetView(view),
		Meta: &Meta{Total: view.Total},
	})
}

type AssetIDRequest struct {
	ID string `param:"id" validate:"required"`
}

func (s *Server) GetAsset(ctx echo.Context) error {
	var req AssetIDRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	asset, err := s.server.GetAsset(ctx.Request().Context(), req.ID)
	if err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(200, Res{Data: toAsset(asset)})
}

func (s *Server) DeleteAsset(ctx echo.Context) error {
	var req AssetIDRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	if err := s.server.DeleteAsset(ctx.Request().Context(), req.ID); err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(200, Res{Message: "Asset deleted"})
}

type AddAssetTagsRequest struct {
	ID   string   `param:"id" validate:"required"`
	Tags []string `json:"tags" validate:"required,min=1,dive,required"`
}

func (s *Server) AddAssetTags(ctx echo.Context) error {
	var req AddAssetTagsRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	asset, err := s.server.AddAssetTags(ctx.Request().Context(), req.ID, req.Tags)
	if err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(200, Res{Data: toAsset(asset)})
}

type RemoveAssetTagRequest struct {
	ID     string `param:"id" validate:"required"`
	Tag    string `query:"tag" validate:"required"`
	Source string `query:"source"`
}

func (s *Server) RemoveAssetTag(ctx echo.Context) error {
	var req RemoveAssetTagRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	if err := s.server.RemoveAssetTag(ctx.Request().Context(), req.ID, req.Tag, req.Source); err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(200, Res{Message: "Tag removed"})
}

type AssetRoleRequest struct {
	Role        string  `json:"role" validate:"required"`
	Scope       *string `json:"scope"`
	IsPublished *bool   `json:"is_published"`
}

type SetAssetRolesRequest struct {
	ID    string             `param:"id" validate:"required"`
	Roles []AssetRoleRequest `json:"roles" validate:"dive"`
}

func (s *Server) SetAssetRoles(ctx echo.Context) error {
	var req SetAssetRolesRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	roles := make([]usecase.AssetRoleInput, 0, len(req.Roles))
	for _, r := range req.Roles {
		roles = append(roles, usecase.AssetRoleInput(r))
	}

	asset, err := s.server.SetAssetRoles(ctx.Request().Context(), req.ID, roles)
	if err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(200, Res{Data: toAsset(asset)})
}

type AssetRoleParamRequest struct {
	ID   string `param:"id" validate:"required"`
	Role string `param:"role" validate:"required"`
}

func (s *Server) ToggleAssetRole(ctx echo.Context) error {
	var req AssetRoleParamRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	asset, err := s.server.ToggleAssetRole(ctx.Request().Context(), req.ID, req.Role)
	if err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(200, Res{Data: toAsset(asset)})
}

func (s *Server) SetHeroMain(ctx echo.Context) error {
	var req AssetIDRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	asset, err := s.server.SetHeroMain(ctx.Request().Context(), req.ID)
	if err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(200, Res{Data: toAsset(asset)})
}

type SetRolePublishedRequest struct {
	ID        string `param:"id" validate:"required"`
	Role      string `param:"role" validate:"required"`
	Published *bool  `json:"published" validate:"required"`
}

func (s *Server) SetRolePublished(ctx echo.Context) error {
	var req SetRolePublishedRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	asset, err := s.server.SetRolePublished(ctx.Request().Context(), req.ID, req.Role, *req.Published)
	if err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(200, Res{Data: toAsset(asset)})
}

func (s *Server) ToggleRolePublished(ctx echo.Context) error {
	var req AssetRoleParamRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	asset, err := s.server.ToggleRolePublished(ctx.Request().Context(), req.ID, req.Role)
	if err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(200, Res{Data: toAsset(asset)})
}

type SetAssetRatingRequest struct {
	ID     string `param:"id" validate:"required"`
	Rating *int   `json:"rating" validate:"required,min=0,max=5"`
}

func (s *Server) SetAssetRating(ctx echo.Context) error {
	var req SetAssetRatingRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	asset, err := s.server.SetAssetRating(ctx.Request().Context(), req.ID, *req.Rating)
	if err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(200, Res{Data: toAsset(asset)})
}

func (s *Server) ToggleAssetStar(ctx echo.Context) error {
	var req AssetIDRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	asset, err := s.server.ToggleAssetStar(ctx.Request().Context(), req.ID)
	if err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(200, Res{Data: toAsset(asset)})
}

type SetFocalPointRequest struct {
	ID string   `param:"id" validate:"required"`
	X  *float64 `json:"focal_x" validate:"required,min=0,max=1"`
	Y  *float64 `json:"focal_y" validate:"required,min=0,max=1"`
}

func (s *Server) SetFocalPoint(ctx echo.Context) error {
	var req SetFocalPointRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	asset, err := s.server.SetFocalPoint(ctx.Request().Context(), req.ID, *req.X, *req.Y)
	if err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(200, Res{Data: toAsset(asset)})
}

func (s *Server) UploadAsset(ctx echo.Context) error {
	fh, err := ctx.FormFile("file")
	if err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	f, err := fh.Open()
	if err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	defer f.Close()

	asset, err := s.server.UploadAsset(ctx.Request().Context(), usecase.UploadAsset{
		Filename:            fh.Filename,
		ContentType:         fh.Header.Get("Content-Type"),
		Body:                f,
		GenerateDerivatives: ctx.FormValue("generate_derivatives") != "false",
		Tags:                ctx.FormValue("tags"),
	})
	if err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(201, Res{Data: toAsset(asset)})
}

func (s *Server) GetAssetPalette(ctx echo.Context) error {
	var req AssetIDRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	colors, err := s.server.AssetPalette(ctx.Request().Context(), req.ID)
	if err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(200, Res{Data: colors})
}

type TagTaxonomy struct {
	Tag        string  `json:"tag"`
	Status     string  `json:"status"`
	CreatedAt  string  `json:"created_at,omitzero"`
	ApprovedAt *string `json:"approved_at,omitempty"`
}

func toTagTaxonomy(t usecase.TagTaxonomy) TagTaxonomy {
	res := TagTaxonomy{
		Tag:       t.Tag,
		Status:    t.Status,
		CreatedAt: formatTime(t.CreatedAt),
	}
	if t.ApprovedAt != nil {
		tmp := formatTime(*t.ApprovedAt)
		res.ApprovedAt = &tmp
	}
	return res
}

type ListTagTaxonomyRequest struct {
	Status string `query:"status" validate:"omitempty,oneof=pending approved"`
}

func (s *Server) ListTagTaxonomy(ctx echo.Context) error {
	var req ListTagTaxonomyRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	tags, err := s.server.ListTagTaxonomy(ctx.Request().Context(), req.Status)
	if err != nil {
		return s.fail(ctx, err)
	}
	list := make([]TagTaxonomy, 0, len(tags))
	for _, t := range tags {
		list = append(list, toTagTaxonomy(t))
	}
	return ctx.JSON(200, Res{Data: list, Meta: &Meta{Total: len(list)}})
}

type ApproveTagRequest struct {
	Tag string `param:"tag" validate:"required"`
}

func (s *Server) ApproveTag(ctx echo.Context) error {
	var req ApproveTagRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	tag, err := s.server.ApproveTag(ctx.Request().Context(), req.Tag)
	if err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(200, Res{Data: toTagTaxonomy(tag)})
}
