package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"crypto-investigation-engine/internal/domain/entity"
	"crypto-investigation-engine/internal/domain/repository"
	"crypto-investigation-engine/internal/domain/service"
	"crypto-investigation-engine/internal/infrastructure/config"
	"crypto-investigation-engine/internal/infrastructure/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Server exposes investigations over HTTP
type Server struct {
	engine        *gin.Engine
	srv           *http.Server
	investigation service.InvestigationService
	archive       repository.GraphRepository
	config        *config.Config
	logger        *logger.Logger
}

// NewServer creates the HTTP server and registers routes. The archive may be
// nil; the connections endpoint then answers 503.
func NewServer(investigation service.InvestigationService, archive repository.GraphRepository,
	cfg *config.Config, log *logger.Logger) *Server {

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		engine:        gin.New(),
		investigation: investigation,
		archive:       archive,
		config:        cfg,
		logger:        log.WithComponent("http-api"),
	}

	s.engine.Use(gin.Recovery())
	s.registerRoutes()

	s.srv = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.HTTPPort),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) registerRoutes() {
	s.engine.GET("/health", s.handleHealth)

	v1 := s.engine.Group("/api/v1")
	{
		v1.POST("/investigations", s.handleInvestigate)
		v1.GET("/investigations/:address", s.handleInvestigateAddress)
		v1.GET("/connections/:address", s.handleArchivedConnections)
	}
}

// Start begins serving. Returns once the listener stops.
func (s *Server) Start() error {
	s.logger.Info("HTTP API listening", zap.String("addr", s.srv.Addr))
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the listener
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP API")
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "crypto-investigation-engine",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleInvestigate runs a full investigation from a JSON request body
func (s *Server) handleInvestigate(c *gin.Context) {
	var req entity.InvestigationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	s.runInvestigation(c, req)
}

// handleInvestigateAddress is the GET shortcut: network is auto-detected
// unless given as a query parameter, graph options come from query parameters.
func (s *Server) handleInvestigateAddress(c *gin.Context) {
	req := entity.InvestigationRequest{
		Address: c.Param("address"),
		Network: entity.Network(c.Query("network")),
		Options: entity.InvestigationOptions{
			FetchTransactions: c.DefaultQuery("transactions", "true") == "true",
			BuildGraph:        c.DefaultQuery("graph", "true") == "true",
		},
	}
	if depth := c.Query("depth"); depth != "" {
		fmt.Sscanf(depth, "%d", &req.Options.GraphDepth)
	}
	if maxNodes := c.Query("max_nodes"); maxNodes != "" {
		fmt.Sscanf(maxNodes, "%d", &req.Options.MaxNodes)
	}
	s.runInvestigation(c, req)
}

// handleArchivedConnections serves previously archived connections for an
// address, strongest first.
func (s *Server) handleArchivedConnections(c *gin.Context) {
	if s.archive == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "graph archive is not enabled"})
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		fmt.Sscanf(raw, "%d", &limit)
	}
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	edges, err := s.archive.GetArchivedConnections(c.Request.Context(), c.Param("address"), limit)
	if err != nil {
		s.logger.Warn("Archived connections lookup failed",
			zap.String("address", c.Param("address")),
			zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"address": c.Param("address"), "connections": edges})
}

func (s *Server) runInvestigation(c *gin.Context, req entity.InvestigationRequest) {
	result, err := s.investigation.Investigate(c.Request.Context(), req)
	if err != nil {
		status := http.StatusBadGateway
		switch {
		case entity.IsValidation(err):
			status = http.StatusBadRequest
		case entity.IsNotFound(err):
			status = http.StatusNotFound
		}
		s.logger.Warn("Investigation request failed",
			zap.String("address", req.Address),
			zap.Int("status", status),
			zap.Error(err))
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}
