package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/avatarstudio/avatarstudio/internal/poller"
	"github.com/avatarstudio/avatarstudio/internal/usecase"
)

const wsWriteTimeout = 5 * time.Second

// WatchMessage is a single frame pushed to watch sockets.
type WatchMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

func (s *Server) accept(ctx echo.Context) (*websocket.Conn, error) {
	return websocket.Accept(ctx.Response(), ctx.Request(), &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
}

func writeMessage(ctx context.Context, conn *websocket.Conn, typ string, data any) error {
	ctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, WatchMessage{Type: typ, Data: data})
}

// WatchAnimations streams the caller's animation list, refreshing it while
// any animation is still pending.
func (s *Server) WatchAnimations(ctx echo.Context) error {
	caller := callerOf(ctx)
	reqCtx := ctx.Request().Context()

	animations, err := s.server.ListAnimations(reqCtx, caller)
	if err != nil {
		return s.errorJSON(ctx, err)
	}

	conn, err := s.accept(ctx)
	if err != nil {
		s.logger.WarnContext(reqCtx, "could not open websocket", slog.String("err", err.Error()))
		return nil
	}
	defer conn.Close(websocket.StatusGoingAway, "server closing websocket")

	// the client never sends; reading only detects the close
	wsCtx, cancel := context.WithCancel(conn.CloseRead(reqCtx))
	defer cancel()

	if err := writeMessage(wsCtx, conn, "snapshot", toAnimations(animations)); err != nil {
		return nil
	}

	err = poller.ListWatch[usecase.Animation]{
		Interval: s.poll.List,
		Fetch: func(ctx context.Context) ([]usecase.Animation, error) {
			return s.server.ListAnimations(ctx, caller)
		},
		OnUpdate: func(list []usecase.Animation) {
			if err := writeMessage(wsCtx, conn, "update", toAnimations(list)); err != nil {
				cancel()
			}
		},
		Logger: s.logger,
	}.Run(wsCtx, animations)
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.DebugContext(reqCtx, "animation watch ended", slog.String("err", err.Error()))
	}
	return nil
}

// WatchAvatarStatus streams one avatar's status until it resolves, then
// sends a final "complete" frame and closes normally.
func (s *Server) WatchAvatarStatus(ctx echo.Context) error {
	var req AvatarIDRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	caller := callerOf(ctx)
	reqCtx := ctx.Request().Context()
	id, _ := uuid.Parse(req.ID)

	st, err := s.server.GetAvatarStatus(reqCtx, caller, id)
	if err != nil {
		return s.errorJSON(ctx, err)
	}

	conn, err := s.accept(ctx)
	if err != nil {
		s.logger.WarnContext(reqCtx, "could not open websocket", slog.String("err", err.Error()))
		return nil
	}
	defer conn.Close(websocket.StatusGoingAway, "server closing websocket")

	wsCtx, cancel := context.WithCancel(conn.CloseRead(reqCtx))
	defer cancel()

	if err := writeMessage(wsCtx, conn, "status", toStatus(st)); err != nil {
		return nil
	}

	err = poller.Watch[usecase.Status]{
		Interval: s.poll.Status,
		Grace:    s.poll.Grace,
		Fetch: func(ctx context.Context) (usecase.Status, error) {
			return s.server.GetAvatarStatus(ctx, caller, id)
		},
		OnUpdate: func(st usecase.Status) {
			if err := writeMessage(wsCtx, conn, "status", toStatus(st)); err != nil {
				cancel()
			}
		},
		OnComplete: func(st usecase.Status) {
			if err := writeMessage(wsCtx, conn, "complete", toStatus(st)); err != nil {
				return
			}
			conn.Close(websocket.StatusNormalClosure, "complete")
		},
		Logger: s.logger,
	}.Run(wsCtx, st)
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.DebugContext(reqCtx, "avatar watch ended", slog.String("err", err.Error()))
	}
	return nil
}
