package server

import (
	"encoding/json"
	"io"

	"github.com/labstack/echo/v4"

	"github.com/framecraft/framecraft/internal/usecase"
)

const maxIntakeBody = 1 << 20

// rawBody reads the request body as is; intake payloads are owned by the
// site and only checked for being JSON.
func rawBody(ctx echo.Context) (json.RawMessage, error) {
	b, err := io.ReadAll(io.LimitReader(ctx.Request().Body, maxIntakeBody))
	if err != nil {
		return nil, err
	}
	return json.RawMessage(b), nil
}

func (s *Server) GetIntakeState(ctx echo.Context) error {
	state, err := s.server.GetIntakeState(ctx.Request().Context())
	if err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(200, Res{Data: state})
}

type IntakeSectionRequest struct {
	Section string `param:"section" validate:"required,oneof=business-profile structure taxonomy"`
}

func (s *Server) GetIntakeSection(ctx echo.Context) error {
	var req IntakeSectionRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	data, err := s.server.GetIntakeSection(ctx.Request().Context(), req.Section)
	if err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(200, Res{Data: data})
}

type SaveIntakeSectionRequest struct {
	Section     string          `param:"section" validate:"required,oneof=business-profile structure taxonomy"`
	Status      string          `json:"status" validate:"required,oneof=draft approved"`
	Data        json.RawMessage `json:"data" validate:"required"`
	ForceNew    bool            `json:"force_new"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
}

func (s *Server) SaveIntakeSection(ctx echo.Context) error {
	var req SaveIntakeSectionRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	res, err := s.server.SaveIntakeSection(ctx.Request().Context(), usecase.IntakeSection{
		Section:     req.Section,
		Status:      req.Status,
		Data:        req.Data,
		ForceNew:    req.ForceNew,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(200, Res{Data: res})
}

// passthrough forwards an opaque JSON body to fn and wraps the answer.
func (s *Server) passthrough(ctx echo.Context, status int, fn func(echo.Context, json.RawMessage) (json.RawMessage, error)) error {
	body, err := rawBody(ctx)
	if err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	res, err := fn(ctx, body)
	if err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(status, Res{Data: res})
}

func (s *Server) CreateIntakeProposal(ctx echo.Context) error {
	return s.passthrough(ctx, 201, func(c echo.Context, b json.RawMessage) (json.RawMessage, error) {
		return s.server.CreateIntakeProposal(c.Request().Context(), b)
	})
}

func (s *Server) ApproveIntake(ctx echo.Context) error {
	return s.passthrough(ctx, 200, func(c echo.Context, b json.RawMessage) (json.RawMessage, error) {
		return s.server.ApproveIntake(c.Request().Context(), b)
	})
}

type ListOpaqueRequest struct {
	Limit int `query:"limit" validate:"min=0,max=200"`
}

func (s *Server) ListGuardrails(ctx echo.Context) error {
	var req ListOpaqueRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	res, err := s.server.ListGuardrails(ctx.Request().Context(), req.Limit)
	if err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(200, Res{Data: res})
}

func (s *Server) CreateGuardrail(ctx echo.Context) error {
	return s.passthrough(ctx, 201, func(c echo.Context, b json.RawMessage) (json.RawMessage, error) {
		return s.server.CreateGuardrail(c.Request().Context(), b)
	})
}

func (s *Server) EvaluateGuardrails(ctx echo.Context) error {
	return s.passthrough(ctx, 200, func(c echo.Context, b json.RawMessage) (json.RawMessage, error) {
		return s.server.EvaluateGuardrails(c.Request().Context(), b)
	})
}

func (s *Server) ListPrompts(ctx echo.Context) error {
	var req ListOpaqueRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	res, err := s.server.ListPrompts(ctx.Request().Context(), req.Limit)
	if err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(200, Res{Data: res})
}

func (s *Server) CreatePrompt(ctx echo.Context) error {
	return s.passthrough(ctx, 201, func(c echo.Context, b json.RawMessage) (json.RawMessage, error) {
		return s.server.CreatePrompt(c.Request().Context(), b)
	})
}
