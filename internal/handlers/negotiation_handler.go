package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"dev.accord.negotiation/internal/negotiation"
	"dev.accord.negotiation/internal/services"
)

// NegotiationHandler exposes the session lifecycle over HTTP.
type NegotiationHandler struct {
	service *services.NegotiationService
	log     *logrus.Logger
}

// NewNegotiationHandler creates the handler.
func NewNegotiationHandler(service *services.NegotiationService, log *logrus.Logger) *NegotiationHandler {
	if log == nil {
		log = logrus.New()
	}
	return &NegotiationHandler{service: service, log: log}
}

// RegisterRoutes attaches the negotiation endpoints to the router group.
func (h *NegotiationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/negotiations", h.Create)
	rg.GET("/negotiations", h.List)
	rg.GET("/negotiations/:id", h.Get)
	rg.POST("/negotiations/:id/step", h.Step)
	rg.GET("/negotiations/:id/history", h.History)
	rg.GET("/negotiations/:id/agreement", h.Agreement)
}

// Create handles POST /negotiations.
func (h *NegotiationHandler) Create(c *gin.Context) {
	var req services.CreateNegotiationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	summary, err := h.service.Create(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, summary)
}

// List handles GET /negotiations.
func (h *NegotiationHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"negotiations": h.service.List()})
}

// Get handles GET /negotiations/:id.
func (h *NegotiationHandler) Get(c *gin.Context) {
	summary, err := h.service.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Step handles POST /negotiations/:id/step. A step against a concluded
// session returns 409 and changes nothing.
func (h *NegotiationHandler) Step(c *gin.Context) {
	var action negotiation.RoundAction
	if err := c.ShouldBindJSON(&action); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.Step(c.Request.Context(), c.Param("id"), action)
	if err != nil {
		switch {
		case errors.Is(err, negotiation.ErrUnknownNegotiation):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, negotiation.ErrNegotiationConcluded):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, result)
}

// History handles GET /negotiations/:id/history.
func (h *NegotiationHandler) History(c *gin.Context) {
	events, err := h.service.History(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// Agreement handles GET /negotiations/:id/agreement.
func (h *NegotiationHandler) Agreement(c *gin.Context) {
	agreement, err := h.service.Agreement(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, agreement)
}
