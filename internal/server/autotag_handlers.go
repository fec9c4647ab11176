package server

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/labstack/echo/v4"

	"github.com/framecraft/framecraft/internal/usecase"
)

type AutoTagJob struct {
	AssetID      string  `json:"asset_id"`
	Status       string  `json:"status"`
	ErrorMessage string  `json:"error_message,omitempty"`
	CreatedAt    string  `json:"created_at,omitzero"`
	UpdatedAt    string  `json:"updated_at,omitzero"`
	StartedAt    *string `json:"started_at,omitempty"`
	CompletedAt  *string `json:"completed_at,omitempty"`
}

type AutoTagSummary struct {
	Queued       int         `json:"queued"`
	Running      int         `json:"running"`
	Completed    int         `json:"completed"`
	Failed       int         `json:"failed"`
	Idle         int         `json:"idle"`
	FirstFailure *AutoTagJob `json:"first_failure,omitempty"`
}

func toAutoTagJob(j usecase.AutoTagJob) AutoTagJob {
	res := AutoTagJob{
		AssetID:      j.AssetID,
		Status:       j.Status,
		ErrorMessage: j.ErrorMessage,
		CreatedAt:    formatTime(j.CreatedAt),
		UpdatedAt:    formatTime(j.UpdatedAt),
	}
	if j.StartedAt != nil {
		tmp := formatTime(*j.StartedAt)
		res.StartedAt = &tmp
	}
	if j.CompletedAt != nil {
		tmp := formatTime(*j.CompletedAt)
		res.CompletedAt = &tmp
	}
	return res
}

func toAutoTagJobs(jobs []usecase.AutoTagJob) []AutoTagJob {
	list := make([]AutoTagJob, 0, len(jobs))
	for _, j := range jobs {
		list = append(list, toAutoTagJob(j))
	}
	return list
}

func toAutoTagSummary(s usecase.AutoTagSummary) AutoTagSummary {
	res := AutoTagSummary{
		Queued:    s.Queued,
		Running:   s.Running,
		Completed: s.Completed,
		Failed:    s.Failed,
		Idle:      s.Idle,
	}
	if s.FirstFailure != nil {
		f := toAutoTagJob(*s.FirstFailure)
		res.FirstFailure = &f
	}
	return res
}

type QueueAutoTagRequest struct {
	AssetIDs []string `json:"asset_ids" validate:"required,min=1,dive,required"`
}

func (s *Server) QueueAutoTag(ctx echo.Context) error {
	var req QueueAutoTagRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	if err := s.server.QueueAutoTag(ctx.Request().Context(), req.AssetIDs); err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(202, Res{Message: "Auto-tag queued"})
}

type ListAutoTagJobsRequest struct {
	AssetIDs []string `query:"asset_ids" validate:"required,min=1,dive,required"`
}

func (s *Server) ListAutoTagJobs(ctx echo.Context) error {
	var req ListAutoTagJobsRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	// a single comma separated value is accepted too
	if len(req.AssetIDs) == 1 && strings.Contains(req.AssetIDs[0], ",") {
		req.AssetIDs = strings.Split(req.AssetIDs[0], ",")
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	jobs, err := s.server.ListAutoTagJobs(ctx.Request().Context(), req.AssetIDs)
	if err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(200, Res{
		Data: map[string]any{
			"jobs":    toAutoTagJobs(jobs),
			"summary": toAutoTagSummary(usecase.SummarizeAutoTag(req.AssetIDs, jobs)),
		},
	})
}

type watchRequest struct {
	AssetIDs []string `json:"asset_ids"`
}

type watchMessage struct {
	Type    string         `json:"type"`
	Jobs    []AutoTagJob   `json:"jobs"`
	Summary AutoTagSummary `json:"summary"`
}

// StreamAutoTag pushes auto-tag status over a websocket. Every message the
// client sends replaces the watched selection; an empty selection stops
// polling until the next one arrives.
func (s *Server) StreamAutoTag(ctx echo.Context) error {
	conn, err := websocket.Accept(ctx.Response(), ctx.Request(), &websocket.AcceptOptions{
		OriginPatterns: s.originPatterns,
	})
	if err != nil {
		s.logger.WarnContext(ctx.Request().Context(), "websocket accept failed", slog.String("err", err.Error()))
		return nil
	}
	defer conn.CloseNow()
	conn.SetReadLimit(64 << 10)

	base, cancelAll := context.WithCancel(ctx.Request().Context())
	defer cancelAll()

	stop := func() {}
	defer func() { stop() }()

	for {
		var req watchRequest
		if err := wsjson.Read(base, conn, &req); err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || errors.Is(err, context.Canceled) {
				return nil
			}
			s.logger.WarnContext(base, "auto-tag stream read failed", slog.String("err", err.Error()))
			return nil
		}

		stop()
		stop = s.watch(base, conn, req.AssetIDs)
	}
}

// watch starts polling ids in the background and returns a func that ends
// the watch and waits for it to finish.
func (s *Server) watch(parent context.Context, conn *websocket.Conn, ids []string) func() {
	wctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})

	go func() {
		defer close(done)
		err := s.server.WatchAutoTag(wctx, ids, func(u usecase.AutoTagUpdate) error {
			// a cancelled write closes conn, so frames are written under parent
			return wsjson.Write(parent, conn, watchMessage{
				Type:    "status",
				Jobs:    toAutoTagJobs(u.Jobs),
				Summary: toAutoTagSummary(u.Summary),
			})
		})
		if err != nil && wctx.Err() == nil {
			s.logger.WarnContext(parent, "auto-tag stream write failed", slog.String("err", err.Error()))
			conn.Close(websocket.StatusInternalError, "write failed")
		}
	}()

	return func() {
		cancel()
		<-done
	}
}
