package handler

import (
	"net/http"

	"staffhub_backend/internal/analytics/service"
	"staffhub_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const msgInvalidRequest = "invalid request"

type Handler struct {
	svc *service.Service
}

func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterCardRoutes mounts the per-card analytics route.
func (h *Handler) RegisterCardRoutes(rg *gin.RouterGroup) {
	rg.GET("/:id/analytics", h.CardAnalytics)
}

// RegisterRoutes mounts the agent and team analytics routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/agents/:id", h.AgentAnalytics)
	rg.GET("/team", h.TeamAnalytics)
}

func (h *Handler) CardAnalytics(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	out, err := h.svc.CardAnalytics(c.Request.Context(), id)
	if err != nil {
		httpkit.DomainError(c, err)
		return
	}

	httpkit.OK(c, out)
}

func (h *Handler) AgentAnalytics(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	out, err := h.svc.AgentAnalytics(c.Request.Context(), id)
	if err != nil {
		httpkit.DomainError(c, err)
		return
	}

	httpkit.OK(c, out)
}

func (h *Handler) TeamAnalytics(c *gin.Context) {
	out, err := h.svc.TeamAnalytics(c.Request.Context())
	if err != nil {
		httpkit.DomainError(c, err)
		return
	}

	httpkit.OK(c, out)
}
