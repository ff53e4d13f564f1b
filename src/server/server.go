package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"stocknews-client/src/interfaces"
	"stocknews-client/src/logger"
	"stocknews-client/src/models"

	"github.com/gin-gonic/gin"
)

var _ interfaces.IDataExchanger = (*FeedServer)(nil)

// -----------------------------------------------------------------------------
// FeedServer
// -----------------------------------------------------------------------------

// FeedServer exposes the dashboard and session over REST and pushes every
// state change to websocket clients.
type FeedServer struct {
	Config    *models.MConfig
	Logger    *logger.Logger
	Dashboard interfaces.IDashboard
	Session   interfaces.ISession

	engine     *gin.Engine
	httpServer *http.Server

	// WebSocket clients, owned by the hub goroutine
	clients    map[*Client]struct{}
	broadcast  chan *models.MFeedMessage
	register   chan *Client
	unregister chan *Client
	direct     chan directMessage
	done       chan struct{}

	hubOnce  sync.Once
	stopOnce sync.Once
	unsubs   []func()

	// Latest messages replayed to new clients
	stateMutex  sync.RWMutex
	latest      map[string]*models.MFeedMessage
	connections int
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewFeedServer(cfg *models.MConfig, dash interfaces.IDashboard, sess interfaces.ISession, log *logger.Logger) *FeedServer {
	// Set Gin mode
	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &FeedServer{
		Config:    cfg,
		Logger:    log,
		Dashboard: dash,
		Session:   sess,
		engine:    gin.New(),
		clients:   make(map[*Client]struct{}),
		// Buffered so observer callbacks never wait on the hub
		broadcast:  make(chan *models.MFeedMessage, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		direct:     make(chan directMessage),
		done:       make(chan struct{}),
		latest:     make(map[string]*models.MFeedMessage),
	}

	s.engine.Use(gin.Recovery(), s.requestLogger())

	// CORS for local browser views
	s.engine.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if strings.HasPrefix(origin, "http://127.0.0.1:") || strings.HasPrefix(origin, "http://localhost:") {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *FeedServer) setupRoutes() {
	api := s.engine.Group("/api")

	api.GET("/health", s.getHealth)
	api.GET("/config", s.getConfig)

	api.GET("/dashboard", s.getDashboard)
	api.POST("/dashboard/view", s.selectView)
	api.POST("/dashboard/refresh", s.refreshDashboard)

	api.GET("/session", s.getSession)
	api.POST("/session/login", s.login)
	api.POST("/session/register", s.registerUser)
	api.POST("/session/logout", s.logout)

	// WebSocket endpoint
	s.engine.GET("/ws", s.handleWebSocket)
}

// Handler exposes the engine for in-process use.
func (s *FeedServer) Handler() http.Handler {
	return s.engine
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

// Start runs the hub and serves until Stop is called.
func (s *FeedServer) Start() error {
	s.StartHub()
	s.Logger.Info("Starting feed server on %s", s.httpServer.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// -----------------------------------------------------------------------------

// Stop drains HTTP requests, detaches from the dashboard and session, and
// closes every websocket client.
func (s *FeedServer) Stop(ctx context.Context) error {
	var err error
	s.stopOnce.Do(func() {
		err = s.httpServer.Shutdown(ctx)
		for _, unsubscribe := range s.unsubs {
			unsubscribe()
		}
		close(s.done)
	})
	return err
}

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (s *FeedServer) getHealth(c *gin.Context) {
	s.stateMutex.RLock()
	connections := s.connections
	s.stateMutex.RUnlock()

	state := s.Dashboard.State()
	status := "ok"
	if state.HasError {
		status = "degraded"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":        status,
		"connections":   connections,
		"latest_update": state.UpdatedAt.UnixMilli(),
	})
}

// -----------------------------------------------------------------------------

func (s *FeedServer) getConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"symbols":          s.Config.Dashboard.Symbols,
		"views":            models.Views,
		"rotation_seconds": s.Config.Dashboard.RotationSeconds,
		"refresh_seconds":  s.Config.Dashboard.RefreshIntervalSeconds,
	})
}

// -----------------------------------------------------------------------------

func (s *FeedServer) getDashboard(c *gin.Context) {
	c.JSON(http.StatusOK, s.Dashboard.State())
}

// -----------------------------------------------------------------------------

func (s *FeedServer) selectView(c *gin.Context) {
	var body struct {
		View models.MView `json:"view"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid request body"})
		return
	}

	if err := s.Dashboard.SelectView(body.View); err != nil {
		c.JSON(statusFor(err), gin.H{"detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, s.Dashboard.State())
}

// -----------------------------------------------------------------------------

func (s *FeedServer) refreshDashboard(c *gin.Context) {
	if err := s.Dashboard.FetchData(c.Request.Context()); err != nil {
		c.JSON(statusFor(err), gin.H{"detail": err.Error(), "state": s.Dashboard.State()})
		return
	}
	c.JSON(http.StatusOK, s.Dashboard.State())
}

// -----------------------------------------------------------------------------

func (s *FeedServer) getSession(c *gin.Context) {
	c.JSON(http.StatusOK, s.Session.State())
}

// -----------------------------------------------------------------------------

func (s *FeedServer) login(c *gin.Context) {
	var body struct {
		Username string `json:"username" form:"username"`
		Password string `json:"password" form:"password"`
	}
	if err := c.ShouldBind(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid request body"})
		return
	}

	result := s.Session.Login(c.Request.Context(), body.Username, body.Password)
	if !result.Success {
		c.JSON(http.StatusUnauthorized, gin.H{"result": result})
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result, "session": s.Session.State()})
}

// -----------------------------------------------------------------------------

func (s *FeedServer) registerUser(c *gin.Context) {
	var body struct {
		Email    string `json:"email"`
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid request body"})
		return
	}

	result := s.Session.Register(c.Request.Context(), body.Email, body.Username, body.Password)
	if !result.Success {
		c.JSON(http.StatusBadRequest, gin.H{"result": result})
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result, "session": s.Session.State()})
}

// -----------------------------------------------------------------------------

func (s *FeedServer) logout(c *gin.Context) {
	s.Session.Logout()
	c.JSON(http.StatusOK, s.Session.State())
}

// -----------------------------------------------------------------------------
// Middleware
// -----------------------------------------------------------------------------

func (s *FeedServer) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.Logger.Debug("%s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}
