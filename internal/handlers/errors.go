package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"fundgate/internal/campaign"
	"fundgate/internal/otp"
	"fundgate/internal/payments"
	"fundgate/internal/store"
	"fundgate/internal/withdraw"
)

// fail maps service errors onto HTTP responses. Expected, recoverable user
// states carry their reason; everything else is a generic server error so
// internals never leak.
func fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, otp.ErrInvalidCode):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, campaign.ErrNotOwner), errors.Is(err, withdraw.ErrNotOwner):
		// Ownership mismatch discloses nothing about the resource.
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, campaign.ErrNotFound),
		errors.Is(err, payments.ErrCampaignNotFound),
		errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, campaign.ErrCodeRequired),
		errors.Is(err, campaign.ErrAlreadyFinal),
		errors.Is(err, payments.ErrCampaignClosed),
		errors.Is(err, withdraw.ErrProfileIncomplete),
		errors.Is(err, withdraw.ErrNoBankAccount),
		errors.Is(err, withdraw.ErrCampaignNotEnded),
		errors.Is(err, withdraw.ErrInsufficientBalance),
		errors.Is(err, withdraw.ErrInvalidAmount):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, payments.ErrUnknownPayment),
		errors.Is(err, payments.ErrInvalidSplit),
		errors.Is(err, otp.ErrUnknownAction):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error."})
	}
}
