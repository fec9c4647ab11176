package server

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/framecraft/framecraft/internal/usecase"
)

type SavedView struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	State     usecase.ViewState `json:"state"`
	CreatedAt string            `json:"created_at"`
	UpdatedAt string            `json:"updated_at"`
}

func toSavedView(v usecase.SavedView) SavedView {
	return SavedView{
		ID:        v.ID.String(),
		Name:      v.Name,
		State:     v.State,
		CreatedAt: formatTime(v.CreatedAt),
		UpdatedAt: formatTime(v.UpdatedAt),
	}
}

type ListSavedViewsRequest struct {
	Skip  int    `query:"skip" validate:"min=0"`
	Limit int    `query:"limit" validate:"min=0,max=200"`
	Name  string `query:"name"`
}

func (s *Server) ListSavedViews(ctx echo.Context) error {
	var req ListSavedViewsRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	views, total, err := s.server.ListSavedViews(ctx.Request().Context(), usecase.ListSavedViewsOption{
		Skip:  req.Skip,
		Limit: req.Limit,
		Name:  req.Name,
	})
	if err != nil {
		return s.fail(ctx, err)
	}

	list := make([]SavedView, 0, len(views))
	for _, v := range views {
		list = append(list, toSavedView(v))
	}
	return ctx.JSON(200, Res{
		Data: list,
		Meta: &Meta{Total: total, Skip: req.Skip, Limit: req.Limit},
	})
}

type SavedViewIDRequest struct {
	ID string `param:"id" validate:"required,uuid"`
}

func (s *Server) GetSavedViewByID(ctx echo.Context) error {
	var req SavedViewIDRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	id, _ := uuid.Parse(req.ID)
	v, err := s.server.GetSavedViewByID(ctx.Request().Context(), id)
	if err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(200, Res{Data: toSavedView(v)})
}

// SavedViewState mirrors the GET /assets filters so a stored view is held to
// the same modes.
type SavedViewState struct {
	Lane         string   `json:"lane" validate:"omitempty,oneof=all inbox review publish"`
	Search       string   `json:"search"`
	Tags         []string `json:"tags"`
	Roles        []string `json:"roles"`
	Orientations []string `json:"orientations" validate:"omitempty,dive,oneof=landscape portrait square"`
	MinRating    *int     `json:"min_rating" validate:"omitempty,min=0,max=5"`
	StarredOnly  bool     `json:"starred_only"`
	Sort         string   `json:"sort" validate:"omitempty,oneof=newest oldest rating"`
	GroupBy      string   `json:"group_by" validate:"omitempty,oneof=none status role"`
}

func (r SavedViewState) viewState() usecase.ViewState {
	v := usecase.ViewState{
		Lane:        usecase.Lane(r.Lane),
		Search:      r.Search,
		Tags:        r.Tags,
		Roles:       r.Roles,
		MinRating:   r.MinRating,
		StarredOnly: r.StarredOnly,
		Sort:        usecase.SortMode(r.Sort),
		GroupBy:     usecase.GroupBy(r.GroupBy),
	}
	for _, o := range r.Orientations {
		v.Orientations = append(v.Orientations, usecase.Orientation(o))
	}
	return v
}

type CreateSavedViewRequest struct {
	Name  string         `json:"name" validate:"required,max=120"`
	State SavedViewState `json:"state"`
}

func (s *Server) CreateSavedView(ctx echo.Context) error {
	var req CreateSavedViewRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	v, err := s.server.CreateSavedView(ctx.Request().Context(), usecase.SavedView{
		Name:  req.Name,
		State: req.State.viewState(),
	})
	if err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(201, Res{Data: toSavedView(v)})
}

type UpdateSavedViewRequest struct {
	ID    string         `param:"id" validate:"required,uuid"`
	Name  string         `json:"name" validate:"required,max=120"`
	State SavedViewState `json:"state"`
}

func (s *Server) UpdateSavedView(ctx echo.Context) error {
	var req UpdateSavedViewRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	id, _ := uuid.Parse(req.ID)
	v, err := s.server.UpdateSavedView(ctx.Request().Context(), usecase.SavedView{
		ID:    id,
		Name:  req.Name,
		State: req.State.viewState(),
	})
	if err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(200, Res{Data: toSavedView(v)})
}

func (s *Server) DeleteSavedView(ctx echo.Context) error {
	var req SavedViewIDRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	id, _ := uuid.Parse(req.ID)
	if err := s.server.DeleteSavedView(ctx.Request().Context(), id); err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(200, Res{Message: "View deleted"})
}

func (s *Server) ApplySavedView(ctx echo.Context) error {
	var req SavedViewIDRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	id, _ := uuid.Parse(req.ID)
	view, err := s.server.ApplySavedView(ctx.Request().Context(), id)
	if err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(200, Res{
		Data: toAssetView(view),
		Meta: &Meta{Total: view.Total},
	})
}
