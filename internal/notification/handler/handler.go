package handler

import (
	"net/http"
	"strconv"

	"staffhub_backend/internal/notification/inapp"
	"staffhub_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	repo *inapp.Repository
}

func New(repo *inapp.Repository) *Handler {
	return &Handler{repo: repo}
}

// RegisterRoutes mounts the in-app notification routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/unread-count", h.UnreadCount)
	rg.POST("/:id/read", h.MarkRead)
	rg.POST("/read-all", h.MarkAllRead)
}

// recipient is the authenticated team member; notifications addressed to an
// email recipient are not listed here.
func recipientFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(httpkit.ContextUserIDKey)
	if !ok {
		return "", false
	}
	id, ok := v.(uuid.UUID)
	if !ok {
		return "", false
	}
	return id.String(), true
}

func (h *Handler) List(c *gin.Context) {
	recipient, ok := recipientFromContext(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	items, total, err := h.repo.List(c.Request.Context(), recipient, limit, offset)
	if err != nil {
		httpkit.DomainError(c, err)
		return
	}

	httpkit.OK(c, gin.H{"items": items, "total": total})
}

func (h *Handler) UnreadCount(c *gin.Context) {
	recipient, ok := recipientFromContext(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	count, err := h.repo.CountUnread(c.Request.Context(), recipient)
	if err != nil {
		httpkit.DomainError(c, err)
		return
	}

	httpkit.OK(c, gin.H{"unread": count})
}

func (h *Handler) MarkRead(c *gin.Context) {
	recipient, ok := recipientFromContext(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}

	if err := h.repo.MarkRead(c.Request.Context(), id, recipient); err != nil {
		httpkit.DomainError(c, err)
		return
	}

	httpkit.OK(c, gin.H{"read": true})
}

func (h *Handler) MarkAllRead(c *gin.Context) {
	recipient, ok := recipientFromContext(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	if err := h.repo.MarkAllRead(c.Request.Context(), recipient); err != nil {
		httpkit.DomainError(c, err)
		return
	}

	httpkit.OK(c, gin.H{"read": true})
}
