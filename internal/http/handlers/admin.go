package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"zenithmedia_bot/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminHandler exposes the operator dashboard API. Money stays in kopecks on
// the wire; the dashboard renders it.
type AdminHandler struct {
	payouts *service.PayoutService
	videos  *service.VideoService
	admin   *service.AdminService
	audit   *service.AuditService
}

func NewAdminHandler(
	payouts *service.PayoutService,
	videos *service.VideoService,
	admin *service.AdminService,
	audit *service.AuditService,
) *AdminHandler {
	return &AdminHandler{
		payouts: payouts,
		videos:  videos,
		admin:   admin,
		audit:   audit,
	}
}

func adminID(c *gin.Context) int64 {
	v, _ := c.Get("admin_id")
	id, _ := v.(int64)
	return id
}

// Stats returns the dashboard snapshot
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.admin.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "stats unavailable"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// PendingPayouts returns open payout requests
func (h *AdminHandler) PendingPayouts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	payouts, err := h.payouts.ListPending(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"payouts": payouts})
}

// RetryPayout re-dispatches one pending payout
func (h *AdminHandler) RetryPayout(c *gin.Context) {
	payoutID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad payout id"})
		return
	}

	if err := h.payouts.AdminRetryPayout(c.Request.Context(), adminID(c), payoutID); err != nil {
		if errors.Is(err, service.ErrNotRetryable) {
			c.JSON(http.StatusConflict, gin.H{"error": "payout is closed"})
			return
		}
		if advice := service.FailureAdvice(err); advice != "" {
			c.JSON(http.StatusBadGateway, gin.H{"error": advice})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "retry failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "paid"})
}

// ModerationQueue returns videos awaiting a decision
func (h *AdminHandler) ModerationQueue(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	videos, err := h.videos.ListPendingModeration(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"videos": videos})
}

// AuditLog returns recent admin actions
func (h *AdminHandler) AuditLog(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	logs, err := h.audit.Recent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"audit": logs})
}
