package api

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/anloi/smarthome/server/domain/entities"
	"github.com/anloi/smarthome/server/domain/repositories"
	"github.com/anloi/smarthome/server/internal/auth"
	"github.com/anloi/smarthome/server/internal/mailer"
	"github.com/anloi/smarthome/server/internal/metrics"
	syncjob "github.com/anloi/smarthome/server/internal/sync"
	"github.com/anloi/smarthome/server/internal/websocket"
)

// SyncRunner triggers one on-demand sync pass.
type SyncRunner interface {
	RunOnce(ctx context.Context) []syncjob.FeedResult
}

// Server holds the handler dependencies for the REST API.
type Server struct {
	users       repositories.UserRepository
	devices     repositories.DeviceRepository
	feeds       map[string]repositories.FeedRepository // keyed by feed slug
	mail        mailer.Sender
	syncRunner  SyncRunner
	hub         *websocket.Hub
	frontendURL string
	logger      *zap.Logger
}

// NewServer creates the API server over its dependencies.
func NewServer(
	users repositories.UserRepository,
	devices repositories.DeviceRepository,
	feeds map[string]repositories.FeedRepository,
	mail mailer.Sender,
	syncRunner SyncRunner,
	hub *websocket.Hub,
	frontendURL string,
	logger *zap.Logger,
) *Server {
	return &Server{
		users:       users,
		devices:     devices,
		feeds:       feeds,
		mail:        mail,
		syncRunner:  syncRunner,
		hub:         hub,
		frontendURL: frontendURL,
		logger:      logger,
	}
}

// InitRoutes initializes all API routes
func (s *Server) InitRoutes(e *echo.Echo) {
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "smarthome-server",
		})
	})

	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	// User Management APIs
	users := e.Group("/api/users")
	users.POST("/register", s.userRegister)
	users.POST("/login", s.userLogin)
	users.GET("/me", s.userProfile, requireUser(s.logger))
	users.GET("", s.userList)
	users.PUT("/:id", s.userUpdate)
	users.DELETE("/:id", s.userDelete)

	// Password reset flow
	authGroup := e.Group("/api/auth")
	authGroup.POST("/forgot-password", s.forgotPassword)
	authGroup.POST("/reset-password", s.resetPassword)

	// Device registry APIs
	devices := e.Group("/api/devices")
	devices.GET("", s.deviceList)
	devices.GET("/all", s.deviceListAll)
	devices.GET("/:id", s.deviceGet)
	devices.POST("", s.deviceCreate)
	devices.PUT("/:id", s.deviceUpdate)
	devices.DELETE("/:id", s.deviceDelete)

	// Mirrored feed CRUD, one group per descriptor sharing the same
	// parameterized handlers.
	for _, feed := range entities.Feeds {
		repo, ok := s.feeds[feed.Slug]
		if !ok {
			continue
		}
		g := e.Group("/api/" + feed.Slug)
		g.GET("", s.feedList(repo))
		g.GET("/:id", s.feedGet(repo))
		g.POST("", s.feedCreate(feed, repo))
		g.PUT("/:id", s.feedUpdate(repo))
		g.DELETE("/:id", s.feedDelete(repo))
	}

	// On-demand sync trigger
	e.POST("/api/feeds/sync", s.feedSync)

	// WebSocket endpoint with JWT validation
	if s.hub != nil {
		e.GET("/ws", s.websocketConnect)
	}
}

// websocketConnect authenticates the dashboard client and hands the
// connection to the hub.
func (s *Server) websocketConnect(c echo.Context) error {
	token := bearerToken(c)
	if token == "" {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "missing_token",
			Message: "JWT token is required",
		})
	}

	claims, err := auth.ValidateToken(token)
	if err != nil {
		s.logger.Warn("WebSocket connection rejected: invalid token", zap.Error(err))
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_token",
			Message: "Invalid or expired JWT token",
		})
	}
	if claims.Purpose != auth.RolePurposeUser {
		return c.JSON(http.StatusForbidden, ErrorResponse{
			Error:   "invalid_token",
			Message: "A login token is required",
		})
	}

	return websocket.HandleConnection(s.hub, c, claims.UserID, s.logger)
}
