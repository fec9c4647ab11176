package server

import (
	"github.com/labstack/echo/v4"

	"github.com/framecraft/framecraft/internal/usecase"
)

type GetTempUploadURLRequest struct {
	Name string `query:"name" validate:"required"`
}

func (s *Server) GetTempUploadURL(ctx echo.Context) error {
	var req GetTempUploadURLRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	url, name, err := s.server.GetTempUploadURL(ctx.Request().Context(), req.Name)
	if err != nil {
		return s.fail(ctx, err)
	}

	return ctx.JSON(200, map[string]string{"url": url, "name": name})
}

type CommitUploadsRequest struct {
	Names               []string `json:"names" validate:"required,min=1,dive,required"`
	GenerateDerivatives *bool    `json:"generate_derivatives"`
	Tags                string   `json:"tags"`
}

// CommitUploads hands staged uploads to the worker, which pushes them to the
// site one by one.
func (s *Server) CommitUploads(ctx echo.Context) error {
	var req CommitUploadsRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	generate := true
	if req.GenerateDerivatives != nil {
		generate = *req.GenerateDerivatives
	}

	job, err := s.server.CreateImportJob(ctx.Request().Context(), usecase.ImportPayload{
		Names:               req.Names,
		GenerateDerivatives: generate,
		Tags:                req.Tags,
	})
	if err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(202, Res{Data: toJob(job), Message: "Import queued"})
}
