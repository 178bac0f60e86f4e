package handlers

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"fundgate/internal/campaign"
	"fundgate/internal/middleware"
	"fundgate/internal/storage"
	"fundgate/internal/store"
)

type CampaignHandler struct {
	Service *campaign.Service
	Store   *store.Store
	Images  *storage.Images
}

func NewCampaignHandler(svc *campaign.Service, st *store.Store, images *storage.Images) *CampaignHandler {
	return &CampaignHandler{Service: svc, Store: st, Images: images}
}

type PublishRequest struct {
	Title       string     `json:"title" binding:"required,min=3"`
	Description string     `json:"description"`
	TargetCents int64      `json:"target_cents" binding:"required,gt=0"`
	EndsAt      *time.Time `json:"ends_at"`
}

func (h *CampaignHandler) Publish(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req PublishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	out, err := h.Service.Publish(c.Request.Context(), campaign.PublishInput{
		OwnerID:     userID,
		Title:       req.Title,
		Description: req.Description,
		TargetCents: req.TargetCents,
		EndsAt:      req.EndsAt,
	})
	if err != nil {
		log.Println("Failed to publish campaign:", err)
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (h *CampaignHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	list, err := h.Service.List(c.Request.Context(), limit, offset)
	if err != nil {
		log.Println("Failed to list campaigns:", err)
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *CampaignHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid campaign id"})
		return
	}

	out, err := h.Service.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

type CancelRequest struct {
	Code string `json:"code"`
}

func (h *CampaignHandler) Cancel(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid campaign id"})
		return
	}

	var req CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	if err := h.Service.Cancel(c.Request.Context(), userID, id, req.Code); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Campaign cancelled."})
}

func (h *CampaignHandler) OwnerSummary(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	sum, err := h.Service.OwnerSummary(c.Request.Context(), userID)
	if err != nil {
		log.Println("Failed to build owner summary:", err)
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

// ListDonations returns the donation ledger of a campaign to its owner.
func (h *CampaignHandler) ListDonations(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid campaign id"})
		return
	}

	camp, err := h.Store.GetCampaign(c.Request.Context(), id)
	if err != nil || camp.OwnerID != userID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	list, err := h.Store.ListDonationsByCampaign(c.Request.Context(), id)
	if err != nil {
		log.Println("Failed to list donations:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch donations"})
		return
	}
	c.JSON(http.StatusOK, list)
}

// UploadCover stores a cover image and records its public URL.
func (h *CampaignHandler) UploadCover(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid campaign id"})
		return
	}

	camp, err := h.Store.GetCampaign(c.Request.Context(), id)
	if err != nil || camp.OwnerID != userID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	file, header, err := c.Request.FormFile("cover")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A 'cover' file is required"})
		return
	}
	defer file.Close()

	url, err := h.Images.UploadCover(id, header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		log.Println("Cover upload failed:", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Image storage error."})
		return
	}

	if err := h.Store.SetCampaignCover(c.Request.Context(), id, url); err != nil {
		log.Println("Failed to record cover URL:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cover_url": url})
}
