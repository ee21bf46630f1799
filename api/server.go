// Package api exposes the analysis service over HTTP: dataset upload,
// test suggestion, the statistical procedures, and result export.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"labrat/internal"
	"labrat/internal/config"
	"labrat/internal/errors"
	"labrat/session"
	"labrat/suggest"
)

// maxUploadBytes caps uploaded file size. Requests past the limit fail
// before parsing.
const maxUploadBytes = 10 << 20

// Server wires the HTTP routes to the session store and the analysis
// engine.
type Server struct {
	router    *gin.Engine
	store     session.Store
	suggester *suggest.Engine
	logger    *internal.Logger
	cfg       *config.Config
}

// NewServer creates the API server and registers its routes.
func NewServer(cfg *config.Config, store session.Store) *Server {
	gin.SetMode(cfg.Server.GinMode)

	s := &Server{
		router:    gin.New(),
		store:     store,
		suggester: suggest.NewEngine(),
		logger:    internal.DefaultLogger.Named("api"),
		cfg:       cfg,
	}
	s.router.Use(gin.Logger(), gin.Recovery(), s.corsMiddleware())
	s.setupRoutes()
	return s
}

// Router exposes the underlying engine, mainly for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Handler returns the server as an http.Handler for embedding in an
// http.Server with custom timeouts.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures the application routes.
func (s *Server) setupRoutes() {
	s.router.GET("/", s.handleHealth)
	s.router.GET("/api/health", s.handleHealth)

	s.router.POST("/api/upload", s.handleUpload)
	s.router.POST("/api/suggest", s.handleSuggest)

	analysis := s.router.Group("/api/analysis")
	{
		analysis.POST("/descriptive", s.handleDescriptive)
		analysis.POST("/two-group", s.handleTwoGroup)
		analysis.POST("/anova", s.handleAnova)
		analysis.POST("/correlation", s.handleCorrelation)
		analysis.POST("/regression", s.handleRegression)
		analysis.POST("/chi-square", s.handleChiSquare)
		analysis.POST("/dose-response", s.handleDoseResponse)
		analysis.POST("/survival", s.handleSurvival)
	}

	export := s.router.Group("/api/export")
	{
		export.GET("/csv", s.handleExportCSV)
		export.GET("/json", s.handleExportJSON)
		export.GET("/report", s.handleExportReport)
	}
}

// Start runs the server on the given address, blocking until it exits.
func (s *Server) Start(addr string) error {
	return s.router.Run(addr)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// corsMiddleware allows the configured browser origins. Uploads come
// from a separate frontend origin in every deployment we run.
func (s *Server) corsMiddleware() gin.HandlerFunc {
	allowed := map[string]bool{}
	for _, origin := range s.cfg.Server.CORSOrigins {
		allowed[origin] = true
	}
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if allowed[origin] || allowed["*"] {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// respondError maps application error codes onto HTTP statuses.
// Precondition failures are the client's problem; everything without a
// recognised code is ours.
func (s *Server) respondError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	status := http.StatusInternalServerError
	switch code {
	case errors.CodeSessionNotFound:
		status = http.StatusNotFound
	case errors.CodeInvalidColumn,
		errors.CodeInvalidGroupCount,
		errors.CodeInsufficientData,
		errors.CodeTooFewValidGroups,
		errors.CodeEmptyContingencyTable,
		errors.CodeCurveFitFailed,
		errors.CodeInvalidInput:
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("request failed: %v", err)
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": code})
}
