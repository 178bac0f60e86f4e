package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"fundgate/internal/middleware"
	"fundgate/internal/withdraw"
)

type WithdrawalHandler struct {
	Service *withdraw.Service
}

func NewWithdrawalHandler(svc *withdraw.Service) *WithdrawalHandler {
	return &WithdrawalHandler{Service: svc}
}

type WithdrawalRequest struct {
	CampaignID  int64  `json:"campaign_id" binding:"required"`
	AmountCents int64  `json:"amount_cents" binding:"required,gt=0"`
	Code        string `json:"code" binding:"required,len=6"`
}

func (h *WithdrawalHandler) Request(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req WithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	w, err := h.Service.Request(c.Request.Context(), withdraw.RequestInput{
		OwnerID:     userID,
		CampaignID:  req.CampaignID,
		AmountCents: req.AmountCents,
		Code:        req.Code,
	})
	if err != nil {
		log.Println("Withdrawal request rejected:", err)
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, w)
}

func (h *WithdrawalHandler) List(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	list, err := h.Service.List(c.Request.Context(), userID)
	if err != nil {
		log.Println("Failed to list withdrawals:", err)
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Available reports a campaign's withdrawable balance to its owner.
func (h *WithdrawalHandler) Available(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	campaignID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid campaign id"})
		return
	}

	balance, err := h.Service.Available(c.Request.Context(), userID, campaignID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"available_cents": balance})
}
