package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"fundgate/internal/middleware"
	"fundgate/internal/payments"
)

type DonationHandler struct {
	Pipeline *payments.Service
}

func NewDonationHandler(pipeline *payments.Service) *DonationHandler {
	return &DonationHandler{Pipeline: pipeline}
}

type DonateRequest struct {
	BaseCents  int64  `json:"base_cents" binding:"required,gt=0"`
	TipCents   int64  `json:"tip_cents" binding:"gte=0"`
	FeeCents   *int64 `json:"fee_cents"`
	DonorName  string `json:"donor_name"`
	DonorEmail string `json:"donor_email" binding:"required,email"`
}

// Donate creates a payment intent and hands back the gateway redirect URL.
// Works for anonymous donors; a logged-in donor is linked to the entry.
func (h *DonationHandler) Donate(c *gin.Context) {
	campaignID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid campaign id"})
		return
	}

	var req DonateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	in := payments.CreateIntentInput{
		CampaignID: campaignID,
		DonorName:  req.DonorName,
		DonorEmail: req.DonorEmail,
		BaseCents:  req.BaseCents,
		TipCents:   req.TipCents,
		FeeCents:   req.FeeCents,
	}
	if userID, ok := middleware.UserID(c); ok {
		in.DonorUserID = &userID
	}

	out, err := h.Pipeline.CreateIntent(c.Request.Context(), in)
	if err != nil {
		log.Println("Failed to create payment intent:", err)
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Payment link created.",
		"order_id":     out.OrderID,
		"redirect_url": out.RedirectURL,
		"token":        out.Token,
	})
}

// Verify is the synchronous confirmation trigger: the donor's browser calls
// it after the gateway redirect, because webhook delivery may lag behind
// the donor's return.
func (h *DonationHandler) Verify(c *gin.Context) {
	orderID := c.Query("order_id")
	if orderID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "order_id is required"})
		return
	}

	res, err := h.Pipeline.Confirm(c.Request.Context(), orderID, payments.TriggerVerify)
	if err != nil {
		log.Println("Verify failed:", err)
		fail(c, err)
		return
	}

	if !res.Confirmed {
		c.JSON(http.StatusOK, gin.H{"status": res.GatewayStatus})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "confirmed", "already_processed": res.AlreadyProcessed})
}

// webhookPayload is the inbound notification shape. Amounts in the body are
// never trusted; only the identifier is used, to trigger a gateway fetch.
type webhookPayload struct {
	Type string `json:"type"`
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
	OrderID string `json:"order_id"`
}

func (p webhookPayload) orderID() string {
	if p.Data.ID != "" {
		return p.Data.ID
	}
	return p.OrderID
}

// HandlePaymentNotification is the asynchronous confirmation trigger.
func (h *DonationHandler) HandlePaymentNotification(c *gin.Context) {
	var payload webhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		log.Println("Failed to bind payment notification:", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid notification format"})
		return
	}
	orderID := payload.orderID()
	if orderID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Notification carries no payment id"})
		return
	}

	res, err := h.Pipeline.Confirm(c.Request.Context(), orderID, payments.TriggerWebhook)
	if err != nil {
		log.Println("Webhook confirmation failed:", err)
		fail(c, err)
		return
	}

	switch {
	case !res.Confirmed:
		c.JSON(http.StatusOK, gin.H{"status": "ok (not settled)"})
	case res.AlreadyProcessed:
		c.JSON(http.StatusOK, gin.H{"status": "ok (duplicate)"})
	default:
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
