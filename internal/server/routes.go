package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
)

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.RequestID())
	if s.serviceName != "" {
		e.Use(otelecho.Middleware(s.serviceName, otelecho.WithSkipper(skipper)))
	}
	e.Use(NewEchoLogger(s.logger))
	e.Use(middleware.Recover())

	if len(s.originPatterns) > 0 {
		origins := make([]string, 0, 2*len(s.originPatterns))
		for _, host := range s.originPatterns {
			origins = append(origins, "https://"+host, "http://"+host)
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     origins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
			AllowHeaders:     []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	e.GET("/api/health", s.healthHandler)

	admin := e.Group("/admin", s.AdminAuth())
	admin.GET("/login", s.AdminLogin)

	api := admin.Group("/api")

	assetGroup := api.Group("/assets")
	assetGroup.GET("", s.GetAssetView)
	assetGroup.POST("/upload", s.UploadAsset)
	assetGroup.POST("/bulk", s.CreateBulkAssetJob)
	assetGroup.POST("/auto-tag", s.QueueAutoTag)
	assetGroup.GET("/auto-tag/status", s.ListAutoTagJobs)
	assetGroup.GET("/auto-tag/stream", s.StreamAutoTag)
	assetGroup.GET("/taxonomy", s.ListTagTaxonomy)
	assetGroup.PUT("/taxonomy/:tag/approve", s.ApproveTag)
	assetGroup.GET("/:id", s.GetAsset)
	assetGroup.DELETE("/:id", s.DeleteAsset)
	assetGroup.POST("/:id/tags", s.AddAssetTags)
	assetGroup.DELETE("/:id/tags", s.RemoveAssetTag)
	assetGroup.PUT("/:id/roles", s.SetAssetRoles)
	assetGroup.POST("/:id/roles/:role/toggle", s.ToggleAssetRole)
	assetGroup.POST("/:id/hero", s.SetHeroMain)
	assetGroup.PUT("/:id/roles/:role/publish", s.SetRolePublished)
	assetGroup.POST("/:id/roles/:role/publish/toggle", s.ToggleRolePublished)
	assetGroup.PUT("/:id/rating", s.SetAssetRating)
	assetGroup.POST("/:id/star/toggle", s.ToggleAssetStar)
	assetGroup.PUT("/:id/focal-point", s.SetFocalPoint)
	assetGroup.GET("/:id/palette", s.GetAssetPalette)

	uploadGroup := api.Group("/uploads")
	uploadGroup.GET("/temp", s.GetTempUploadURL)
	uploadGroup.POST("/commit", s.CommitUploads)

	jobGroup := api.Group("/jobs")
	jobGroup.GET("", s.ListJobs)
	jobGroup.GET("/:id", s.GetJobByID)

	viewGroup := api.Group("/views")
	viewGroup.GET("", s.ListSavedViews)
	viewGroup.POST("", s.CreateSavedView)
	viewGroup.GET("/:id", s.GetSavedViewByID)
	viewGroup.PUT("/:id", s.UpdateSavedView)
	viewGroup.DELETE("/:id", s.DeleteSavedView)
	viewGroup.GET("/:id/assets", s.ApplySavedView)

	intakeGroup := api.Group("/intake")
	intakeGroup.GET("/state", s.GetIntakeState)
	intakeGroup.POST("/proposal", s.CreateIntakeProposal)
	intakeGroup.POST("/approve", s.ApproveIntake)
	intakeGroup.GET("/:section", s.GetIntakeSection)
	intakeGroup.POST("/:section", s.SaveIntakeSection)

	guardrailGroup := api.Group("/guardrails")
	guardrailGroup.GET("", s.ListGuardrails)
	guardrailGroup.POST("", s.CreateGuardrail)
	guardrailGroup.POST("/evaluate", s.EvaluateGuardrails)

	promptGroup := api.Group("/prompts")
	promptGroup.GET("", s.ListPrompts)
	promptGroup.POST("", s.CreatePrompt)

	api.GET("/share/qr", s.GetSiteQRCode)

	return e
}
