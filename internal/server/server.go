package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"provider-finder/internal/config"
	"provider-finder/internal/server/handlers"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const sessionName = "pf_session"

// Server represents the HTTP server
type Server struct {
	config *config.Config
	router *gin.Engine
	finder handlers.Finder
	server *http.Server
	log    *slog.Logger
}

// New creates a new server instance
func New(cfg *config.Config, f handlers.Finder, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		config: cfg,
		finder: f,
		log:    log,
	}
}

// Setup sets up the server routes and middleware
func (s *Server) Setup() {
	gin.SetMode(s.config.Server.Mode)

	s.router = gin.New()

	s.router.Use(requestIDMiddleware())
	s.router.Use(requestLogMiddleware(s.log))
	s.router.Use(gin.Recovery())
	s.router.Use(corsMiddleware())
	s.router.Use(sessions.Sessions(sessionName, cookie.NewStore(s.sessionKey())))

	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	healthHandler := handlers.NewHealthHandler(s.finder)
	searchHandler := handlers.NewSearchHandler(s.finder, handlers.Limits{
		Default: s.config.Search.DefaultLimit,
		Max:     s.config.Search.MaxLimit,
	}, s.log)

	s.router.GET("/health", healthHandler.HealthCheck)
	s.router.GET("/live", healthHandler.LivenessCheck)

	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/categories", searchHandler.Categories)
		v1.GET("/search", searchHandler.Search)
		v1.POST("/search", searchHandler.Search)
		v1.GET("/search/export", searchHandler.Export)
		v1.DELETE("/session", searchHandler.ClearSession)
	}
}

// Start starts the server
func (s *Server) Start() error {
	s.log.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Stop stops the server gracefully
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("stopping server")
	return s.server.Shutdown(ctx)
}

// sessionKey falls back to a per-process random key, so remembered
// searches do not survive a restart unless server.session_secret is set.
func (s *Server) sessionKey() []byte {
	if s.config.Server.SessionSecret != "" {
		return []byte(s.config.Server.SessionSecret)
	}
	s.log.Warn("server.session_secret not set, using a random session key")
	return []byte(uuid.New().String() + uuid.New().String())
}

// requestIDMiddleware propagates X-Request-ID or assigns a new one.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(handlers.RequestIDKey, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

func requestLogMiddleware(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		level := slog.LevelInfo
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		}
		log.Log(c.Request.Context(), level, "request",
			"request_id", c.GetString(handlers.RequestIDKey),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		)
	}
}

// corsMiddleware adds CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Accept, Origin, X-Request-ID")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Expose-Headers", "X-Request-ID, Content-Disposition")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
