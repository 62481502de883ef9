package handler

import (
	"io"
	"net/http"

	"shoprent/internal/service"

	"github.com/gin-gonic/gin"
)

// PaymentWebhookHandler receives gateway callbacks. The gateway retries on
// any non-2xx, so every processed delivery is acknowledged with 200 and an
// outcome tag; only an unreadable request or a database failure breaks that
// rule, the latter deliberately, so the gateway redelivers.
type PaymentWebhookHandler struct {
	reconciler *service.ReconcileService
}

func NewPaymentWebhookHandler(reconciler *service.ReconcileService) *PaymentWebhookHandler {
	return &PaymentWebhookHandler{reconciler: reconciler}
}

func (h *PaymentWebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	outcome, err := h.reconciler.HandleWebhook(c.Request.Context(), body)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "processing failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true, "outcome": outcome})
}
