package server

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"taskmind/internal/auth"
	"taskmind/internal/models"
	"taskmind/internal/tasklist"
)

const userKey = "taskmind.user"

// Server provides the HTTP handlers for the task application.
type Server struct {
	engine    *gin.Engine
	auth      *auth.Service
	tasks     *tasklist.Controller
	logger    *slog.Logger
	staticDir string
}

// New constructs the HTTP server with routes and middleware configured.
func New(authSvc *auth.Service, tasks *tasklist.Controller, logger *slog.Logger, staticDir string) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithWriter(gin.DefaultWriter, "/api"))

	srv := &Server{
		engine:    router,
		auth:      authSvc,
		tasks:     tasks,
		logger:    logger,
		staticDir: staticDir,
	}

	srv.registerRoutes()
	return srv
}

// Engine exposes the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// registerRoutes wires all API and static handlers together.
func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")
	{
		api.GET("/healthz", s.handleHealth)
		api.POST("/login", s.handleLogin)

		authed := api.Group("")
		authed.Use(s.requireUser())
		{
			authed.POST("/logout", s.handleLogout)
			authed.GET("/me", s.handleMe)

			tasks := authed.Group("/tasks")
			{
				tasks.GET("", s.handleListTasks)
				tasks.POST("", s.handleCreateTask)
				tasks.PUT(":id", s.handleToggleTask)
				tasks.DELETE(":id", s.handleDeleteTask)
			}
		}
	}

	s.mountStatic()
}

// handleHealth provides a basic readiness endpoint.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// requireUser verifies the bearer token and stashes the user on the context.
func (s *Server) requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		user, err := s.auth.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid session"})
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

// currentUser fetches the authenticated user stored by requireUser.
func currentUser(c *gin.Context) models.User {
	user, _ := c.MustGet(userKey).(models.User)
	return user
}

// respondError logs the error and returns a JSON payload.
func (s *Server) respondError(c *gin.Context, status int, err error) {
	if err != nil {
		s.logger.Error("request failed", slog.String("path", c.FullPath()), slog.String("error", err.Error()))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
