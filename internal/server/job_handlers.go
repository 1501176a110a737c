package server

import (
	"github.com/labstack/echo/v4"
)

type TriggerResult struct {
	Success bool   `json:"success"`
	JobID   string `json:"job_id,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// TriggerHelloWorld enqueues the example task. The body, if any, becomes
// the task payload.
func (s *Server) TriggerHelloWorld(ctx echo.Context) error {
	var payload map[string]any
	if ctx.Request().ContentLength > 0 {
		if err := ctx.Bind(&payload); err != nil {
			return ctx.JSON(400, map[string]string{"error": err.Error()})
		}
	}

	res, err := s.server.TriggerHelloWorld(ctx.Request().Context(), callerOf(ctx), payload)
	if err != nil {
		return s.errorJSON(ctx, err)
	}
	if !res.Success {
		return ctx.JSON(500, TriggerResult{Success: false, Error: res.Error})
	}

	return ctx.JSON(200, TriggerResult{
		Success: true,
		JobID:   res.JobID,
		Message: res.Message,
	})
}
