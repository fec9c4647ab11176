package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (s *Server) healthHandler(ctx echo.Context) error {
	stats := s.server.Health()
	status := http.StatusOK
	if stats["status"] != "up" {
		status = http.StatusServiceUnavailable
	}
	return ctx.JSON(status, stats)
}

// AdminLogin is reachable without credentials so the login screen can tell
// whether basic auth is set up.
func (s *Server) AdminLogin(ctx echo.Context) error {
	return ctx.JSON(200, Res{
		Data: map[string]any{
			"realm":      "Admin",
			"configured": s.adminUser != "" && s.adminPass != "",
		},
	})
}

type GetSiteQRCodeRequest struct {
	Size int `query:"size" validate:"omitempty,min=64,max=1024"`
}

func (s *Server) GetSiteQRCode(ctx echo.Context) error {
	var req GetSiteQRCodeRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	png, err := s.server.SiteQRCode(req.Size)
	if err != nil {
		return s.fail(ctx, err)
	}
	ctx.Response().Header().Set("Cache-Control", "private, max-age=300")
	return ctx.Blob(200, "image/png", png)
}
