package handler

import (
	"net/http"

	"staffhub_backend/internal/pipeline/service"
	"staffhub_backend/internal/pipeline/transport"
	"staffhub_backend/platform/httpkit"
	"staffhub_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterLeadRoutes mounts intake and lead update routes.
func (h *Handler) RegisterLeadRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.CreateLead)
	rg.PATCH("/:id", h.UpdateLead)
}

// RegisterCardRoutes mounts the pipeline card routes.
func (h *Handler) RegisterCardRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.ListCards)
	rg.GET("/:id", h.GetCard)
	rg.POST("/:id/attempts", h.RecordAttempt)
	rg.POST("/:id/transition", h.Transition)
	rg.POST("/:id/redistribute", h.Redistribute)
	rg.GET("/:id/distributions", h.ListDistributions)
}

func (h *Handler) CreateLead(c *gin.Context) {
	var req transport.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	card, err := h.svc.CreateLead(c.Request.Context(), req)
	if err != nil {
		httpkit.DomainError(c, err)
		return
	}

	httpkit.JSON(c, http.StatusCreated, card)
}

func (h *Handler) UpdateLead(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.UpdateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	lead, err := h.svc.UpdateLead(c.Request.Context(), id, req)
	if err != nil {
		httpkit.DomainError(c, err)
		return
	}

	httpkit.OK(c, lead)
}

func (h *Handler) GetCard(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	card, err := h.svc.GetCard(c.Request.Context(), id)
	if err != nil {
		httpkit.DomainError(c, err)
		return
	}

	httpkit.OK(c, card)
}

func (h *Handler) ListCards(c *gin.Context) {
	agentID, err := uuid.Parse(c.Query("agentId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "agentId query parameter required", nil)
		return
	}

	cards, err := h.svc.ListCardsByAgent(c.Request.Context(), agentID)
	if err != nil {
		httpkit.DomainError(c, err)
		return
	}

	httpkit.OK(c, cards)
}

func (h *Handler) RecordAttempt(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.RecordAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	attempt, err := h.svc.RecordAttempt(c.Request.Context(), id, req)
	if err != nil {
		httpkit.DomainError(c, err)
		return
	}

	httpkit.JSON(c, http.StatusCreated, attempt)
}

func (h *Handler) Transition(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	card, err := h.svc.Transition(c.Request.Context(), id, req)
	if err != nil {
		httpkit.DomainError(c, err)
		return
	}

	httpkit.OK(c, card)
}

func (h *Handler) Redistribute(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.RedistributeRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	card, err := h.svc.ManualRedistribute(c.Request.Context(), id, req.Notes)
	if err != nil {
		httpkit.DomainError(c, err)
		return
	}

	httpkit.OK(c, card)
}

func (h *Handler) ListDistributions(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	records, err := h.svc.ListDistributions(c.Request.Context(), id)
	if err != nil {
		httpkit.DomainError(c, err)
		return
	}

	httpkit.OK(c, records)
}
