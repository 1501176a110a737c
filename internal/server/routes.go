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
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(otelecho.Middleware("avatarstudio-api"))
	e.Use(NewEchoLogger(s.logger))

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"https://*", "http://*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", "X-Client-Id", "X-Uid"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	e.GET("/api/health", s.healthHandler)

	var userGroup = e.Group("/api/v1/users", s.AuthMiddleware)
	userGroup.GET("/me", s.GetMe)

	var avatarGroup = e.Group("/api/v1/avatars", s.AuthMiddleware)
	avatarGroup.GET("", s.ListAvatars)
	avatarGroup.POST("", s.CreateAvatar)
	avatarGroup.GET("/:id", s.GetAvatarByID)
	avatarGroup.GET("/:id/status", s.GetAvatarStatus)
	avatarGroup.GET("/:id/watch", s.WatchAvatarStatus)
	avatarGroup.PUT("/:id", s.UpdateAvatar)
	avatarGroup.DELETE("/:id", s.DeleteAvatar)
	avatarGroup.POST("/:id/regenerate", s.RegenerateAvatar)
	avatarGroup.POST("/:id/remix", s.RemixAvatar)

	var animationGroup = e.Group("/api/v1/animations", s.AuthMiddleware)
	animationGroup.GET("", s.ListAnimations)
	animationGroup.POST("", s.CreateAnimation)
	animationGroup.GET("/watch", s.WatchAnimations)
	animationGroup.GET("/:id", s.GetAnimationByID)
	animationGroup.GET("/:id/status", s.GetAnimationStatus)
	animationGroup.PUT("/:id", s.UpdateAnimation)
	animationGroup.DELETE("/:id", s.DeleteAnimation)

	var uploadGroup = e.Group("/api/v1/uploads", s.AuthMiddleware)
	uploadGroup.GET("", s.ListUploads)
	uploadGroup.POST("", s.CreateUpload)
	uploadGroup.POST("/upload-url", s.GetUploadURL)
	uploadGroup.GET("/:id", s.GetUploadByID)
	uploadGroup.PUT("/:id", s.UpdateUpload)
	uploadGroup.DELETE("/:id", s.DeleteUpload)

	var productGroup = e.Group("/api/v1/products", s.AuthMiddleware)
	productGroup.GET("", s.ListProducts)

	var jobGroup = e.Group("/api/v1/jobs", s.AuthMiddleware)
	jobGroup.POST("/hello", s.TriggerHelloWorld)

	// called by the generation runner
	var internalGroup = e.Group("/api/v1/internal", s.InternalMiddleware)
	internalGroup.POST("/avatars", s.CreateCuratedAvatar)
	internalGroup.POST("/avatars/:id/result", s.SetAvatarResult)
	internalGroup.POST("/avatars/:id/failure", s.FailAvatar)
	internalGroup.POST("/animations/:id/result", s.SetAnimationResult)
	internalGroup.POST("/animations/:id/failure", s.FailAnimation)

	return e
}

func (s *Server) healthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, s.server.Health())
}
