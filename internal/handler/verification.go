package handler

import (
	"errors"
	"net/http"

	"backend/internal/models"
	"backend/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type VerificationHandler interface {
	Submit(c *gin.Context)
	GetChildrenData(c *gin.Context)
	GetActivityCatalog(c *gin.Context)
}

type verificationHandler struct {
	verification service.VerificationService
	logger       *zap.Logger
}

func NewVerificationHandler(verification service.VerificationService, logger *zap.Logger) VerificationHandler {
	return &verificationHandler{verification: verification, logger: logger}
}

// Submit handles POST /api/verification — completing or redoing the
// questionnaire. The record is replaced wholesale.
func (h *verificationHandler) Submit(c *gin.Context) {
	userID := c.MustGet("user_id").(int64)

	var input models.SubmitVerificationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, err := h.verification.Submit(userID, input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		case errors.Is(err, service.ErrNoChildren),
			errors.Is(err, service.ErrInvalidChildAge),
			errors.Is(err, service.ErrUnknownActivity):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.logger.Error("Failed to submit verification", zap.Int64("user_id", userID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit verification"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":      "Verification submitted",
		"verification": record,
	})
}

// GetChildrenData handles GET /api/users/:id/children — visible to the
// owner and to viewers holding a permission grant.
func (h *verificationHandler) GetChildrenData(c *gin.Context) {
	userID := c.MustGet("user_id").(int64)

	ownerID, err := parseIDParam(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	children, err := h.verification.ChildrenData(userID, ownerID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		case errors.Is(err, service.ErrAccessDenied):
			c.JSON(http.StatusForbidden, gin.H{"error": "You do not have permission to view this data"})
		default:
			h.logger.Error("Failed to get children data", zap.Int64("owner_id", ownerID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve children data"})
		}
		return
	}
	if children == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User has no verification record"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"children": children})
}

// GetActivityCatalog handles GET /api/verification/activities
func (h *verificationHandler) GetActivityCatalog(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"activities": models.PermittedActivities})
}
