package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/johnquangdev/meeting-pipeline/pkg/config"
)

// uploadFormOverhead leaves room for multipart boundaries and the title field
const uploadFormOverhead = 1 << 20

// Router holds all handlers
type Router struct {
	cfg            *config.Config
	meetingHandler *Meeting
	auth           echo.MiddlewareFunc
}

// NewRouter creates a new router with all handlers
func NewRouter(cfg *config.Config, meetingHandler *Meeting, auth echo.MiddlewareFunc) *Router {
	return &Router{
		cfg:            cfg,
		meetingHandler: meetingHandler,
		auth:           auth,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", rt.healthCheck)

	// API v1 group
	v1 := e.Group("/v1")

	rt.setupMeetingRoutes(v1)
}

// setupMeetingRoutes configures meeting and action item routes
func (rt *Router) setupMeetingRoutes(g *echo.Group) {
	meetingGroup := g.Group("/meetings", rt.auth)

	if rt.meetingHandler == nil {
		meetingGroup.Any("", rt.notImplemented)
		meetingGroup.Any("/*", rt.notImplemented)
		return
	}

	uploadLimit := echoMiddleware.BodyLimit(fmt.Sprintf("%dB", rt.cfg.Server.UploadMaxBytes+uploadFormOverhead))

	meetingGroup.POST("/upload", rt.meetingHandler.UploadMeeting, uploadLimit)
	meetingGroup.GET("/provider-status", rt.meetingHandler.ProviderStatus)
	meetingGroup.POST("", rt.meetingHandler.CreateMeeting)
	meetingGroup.GET("", rt.meetingHandler.ListMeetings)
	meetingGroup.GET("/:id", rt.meetingHandler.GetMeeting)
	meetingGroup.PATCH("/:id", rt.meetingHandler.UpdateMeeting)
	meetingGroup.DELETE("/:id", rt.meetingHandler.DeleteMeeting)
	meetingGroup.POST("/:id/process", rt.meetingHandler.ProcessMeeting)
	meetingGroup.GET("/:id/action-items", rt.meetingHandler.ListActionItems)
	meetingGroup.POST("/:id/action-items/:item_id/convert", rt.meetingHandler.ConvertActionItem)
	meetingGroup.POST("/:id/action-items/:item_id/reject", rt.meetingHandler.RejectActionItem)
}

// notImplemented returns 501 Not Implemented response
func (rt *Router) notImplemented(c echo.Context) error {
	return c.JSON(http.StatusNotImplemented, map[string]interface{}{
		"error":   "This endpoint is not yet implemented",
		"path":    c.Request().URL.Path,
		"method":  c.Request().Method,
		"message": "Please initialize the required handler in main.go",
	})
}

// healthCheck returns health status
func (rt *Router) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "healthy",
		"time":        time.Now().Format(time.RFC3339),
		"environment": rt.cfg.Server.Environment,
	})
}
