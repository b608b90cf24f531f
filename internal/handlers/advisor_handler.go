package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"dev.accord.negotiation/internal/negotiation/modules"
	"dev.accord.negotiation/internal/services"
)

// AdvisorHandler exposes the theory-of-mind and strategy-evolution surface.
type AdvisorHandler struct {
	service *services.AdvisorService
	log     *logrus.Logger
}

// NewAdvisorHandler creates the handler.
func NewAdvisorHandler(service *services.AdvisorService, log *logrus.Logger) *AdvisorHandler {
	if log == nil {
		log = logrus.New()
	}
	return &AdvisorHandler{service: service, log: log}
}

// RegisterRoutes attaches the advisory endpoints to the router group.
func (h *AdvisorHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/analysis/statement", h.AnalyzeStatement)
	rg.POST("/strategy/evolve", h.EvolveStrategy)
	rg.GET("/strategy/evolved/:key", h.EvolvedStrategy)
	rg.GET("/cultures", h.ListCultures)
}

// analyzeStatementRequest is the AnalyzeStatement payload.
type analyzeStatementRequest struct {
	Participant string `json:"participant" binding:"required"`
	Counterpart string `json:"counterpart"`
	Statement   string `json:"statement" binding:"required"`
	Round       int    `json:"round"`
}

// AnalyzeStatement handles POST /analysis/statement.
func (h *AdvisorHandler) AnalyzeStatement(c *gin.Context) {
	var req analyzeStatementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	counterpart := req.Counterpart
	if counterpart == "" {
		counterpart = req.Participant
	}

	analysis, err := h.service.AnalyzeStatement(c.Request.Context(), req.Participant, counterpart, req.Statement, req.Round)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, analysis)
}

// evolveStrategyRequest wraps the run parameters with a persistence key.
type evolveStrategyRequest struct {
	Key string `json:"key"`
	services.EvolveRequest
}

// EvolveStrategy handles POST /strategy/evolve.
func (h *AdvisorHandler) EvolveStrategy(c *gin.Context) {
	var req evolveStrategyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.EvolveStrategy(c.Request.Context(), req.Key, req.EvolveRequest)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// EvolvedStrategy handles GET /strategy/evolved/:key.
func (h *AdvisorHandler) EvolvedStrategy(c *gin.Context) {
	result, err := h.service.EvolvedStrategy(c.Request.Context(), c.Param("key"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListCultures handles GET /cultures.
func (h *AdvisorHandler) ListCultures(c *gin.Context) {
	keys := modules.CultureKeys()
	profiles := make([]modules.CulturalProfile, 0, len(keys))
	for _, key := range keys {
		if profile, ok := modules.LookupCulture(key); ok {
			profiles = append(profiles, profile)
		}
	}
	c.JSON(http.StatusOK, gin.H{"cultures": profiles})
}
