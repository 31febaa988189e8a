package httpserver

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// newRouter creates the configured echo instance with all routes.
func newRouter(s *Server, authMW echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.GET("/api/health", s.handleHealth)
	e.POST("/api/auth/token", s.handleIssueToken)

	api := e.Group("/api")
	if authMW != nil {
		api.Use(authMW)
	}
	api.POST("/transcribe", s.handleTranscribe)
	api.GET("/transcribe/stream", s.handleTranscribeStream)
	api.POST("/generate-response", s.handleGenerateResponse)
	api.POST("/text-to-speech", s.handleTextToSpeech)
	api.POST("/avatar/video", s.handleAvatarVideo)
	api.POST("/recordings", s.handleUploadRecording)
	api.POST("/interviews/complete", s.handleCompleteInterview)
	api.GET("/interviews", s.handleListInterviews)

	return e
}
