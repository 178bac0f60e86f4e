package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"fundgate/internal/middleware"
	"fundgate/internal/models"
	"fundgate/internal/otp"
	"fundgate/internal/store"
)

type AccountHandler struct {
	Store *store.Store
	Gate  *otp.Gate
}

func NewAccountHandler(st *store.Store, gate *otp.Gate) *AccountHandler {
	return &AccountHandler{Store: st, Gate: gate}
}

func (h *AccountHandler) GetMyProfile(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	profile, err := h.Store.GetProfile(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		return
	}
	c.JSON(http.StatusOK, profile)
}

type IssueCodeRequest struct {
	Action string `json:"action" binding:"required"`
}

// IssueCode requests a security code for the logged-in user. The code goes
// to the account email; a repeat request within the dedup window is
// acknowledged without resending.
func (h *AccountHandler) IssueCode(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req IssueCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	user, err := h.Store.GetUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error."})
		return
	}

	res, err := h.Gate.Issue(c.Request.Context(), userID, req.Action, user.Email)
	if err != nil {
		log.Println("Failed to issue security code:", err)
		fail(c, err)
		return
	}

	if res.AlreadyRequested {
		c.JSON(http.StatusOK, gin.H{"message": "A code was already sent. Check your inbox."})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Code sent.", "expires_at": res.ExpiresAt})
}

type BankAccountRequest struct {
	BankName      string `json:"bank_name" binding:"required"`
	AccountNumber string `json:"account_number" binding:"required"`
	HolderName    string `json:"holder_name" binding:"required"`
	Code          string `json:"code" binding:"required,len=6"`
}

// UpdateBankAccount replaces the withdrawal destination. Changing where
// money goes is gated behind a bank_account_update code.
func (h *AccountHandler) UpdateBankAccount(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req BankAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	if err := h.Gate.Consume(c.Request.Context(), userID, otp.ActionBankUpdate, req.Code); err != nil {
		fail(c, err)
		return
	}

	account := &models.BankAccount{
		UserID:        userID,
		BankName:      req.BankName,
		AccountNumber: req.AccountNumber,
		HolderName:    req.HolderName,
	}
	if err := h.Store.UpsertBankAccount(c.Request.Context(), account); err != nil {
		log.Println("Failed to save bank account:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error."})
		return
	}
	c.JSON(http.StatusOK, account)
}

type PhoneRequest struct {
	Phone string `json:"phone" binding:"required,min=6"`
	Code  string `json:"code" binding:"required,len=6"`
}

func (h *AccountHandler) UpdatePhone(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req PhoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	if err := h.Gate.Consume(c.Request.Context(), userID, otp.ActionPhoneUpdate, req.Code); err != nil {
		fail(c, err)
		return
	}

	if err := h.Store.UpdateProfilePhone(c.Request.Context(), userID, req.Phone); err != nil {
		log.Println("Failed to update phone:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Phone updated."})
}

type TaxIDRequest struct {
	TaxID string `json:"tax_id" binding:"required"`
}

func (h *AccountHandler) UpdateTaxID(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req TaxIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	if err := h.Store.UpdateProfileTaxID(c.Request.Context(), userID, req.TaxID); err != nil {
		log.Println("Failed to update tax id:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Tax id updated."})
}
