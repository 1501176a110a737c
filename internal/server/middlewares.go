package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/avatarstudio/avatarstudio/internal/config"
	"github.com/avatarstudio/avatarstudio/internal/usecase"
)

var errMissingCredentials = errors.New("Authorization header is required")

// isInternalClient reports whether the request carries the shared client id.
func (s *Server) isInternalClient(c echo.Context) bool {
	reqClientID := c.Request().Header.Get(config.HEADER_KEY_X_CLIENT_ID)
	return s.clientID != "" &&
		reqClientID != "" &&
		subtle.ConstantTimeCompare([]byte(reqClientID), []byte(s.clientID)) == 1
}

func bearerToken(c echo.Context) string {
	auth := c.Request().Header.Get("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	// browsers cannot set headers on websocket upgrades
	if c.IsWebSocket() {
		return c.QueryParam("access_token")
	}
	return ""
}

// getIdentity resolves the caller from internal client headers or a bearer
// token.
func (s *Server) getIdentity(c echo.Context) (usecase.Identity, error) {
	if s.isInternalClient(c) {
		if uid := c.Request().Header.Get(config.HEADER_KEY_X_UID); uid != "" {
			return usecase.Identity{UID: uid}, nil
		}
	}

	token := bearerToken(c)
	if token == "" {
		return usecase.Identity{}, errMissingCredentials
	}
	return s.server.VerifyIDToken(c.Request().Context(), token)
}

// AuthMiddleware check authorization header and verify the token
// using injected server.VerifyIDToken method, makes sure a users row exists
// and transforms request to carry the resolved usecase.Caller.
func (s *Server) AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		identity, err := s.getIdentity(c)
		if err != nil {
			s.logger.DebugContext(ctx, "authentication failed", slog.String("err", err.Error()))
			return c.JSON(401, map[string]string{
				"error":   err.Error(),
				"message": "Invalid token",
			})
		}

		if _, err := s.server.SyncUser(ctx, identity); err != nil {
			return s.errorJSON(c, err)
		}

		caller := usecase.NewCaller(identity.UID)
		ctx = context.WithValue(ctx, config.CTX_KEY_CALLER, caller)
		c.SetRequest(c.Request().WithContext(ctx))

		return next(c)
	}
}

// InternalMiddleware admits only requests carrying the shared client id,
// such as the external generation runner.
func (s *Server) InternalMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !s.isInternalClient(c) {
			return c.JSON(401, map[string]string{"error": "internal client id required"})
		}
		return next(c)
	}
}

// callerOf returns the caller set by AuthMiddleware; without it the caller
// is unauthenticated and every use case rejects it.
func callerOf(c echo.Context) usecase.Caller {
	caller, _ := c.Request().Context().Value(config.CTX_KEY_CALLER).(usecase.Caller)
	return caller
}
