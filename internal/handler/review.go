package handler

import (
	"errors"
	"net/http"

	"backend/internal/models"
	"backend/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ReviewHandler interface {
	AddReview(c *gin.Context)
	GetReviews(c *gin.Context)
}

type reviewHandler struct {
	reviews service.ReviewService
	logger  *zap.Logger
}

func NewReviewHandler(reviews service.ReviewService, logger *zap.Logger) ReviewHandler {
	return &reviewHandler{reviews: reviews, logger: logger}
}

// AddReview handles POST /api/users/:id/reviews
func (h *reviewHandler) AddReview(c *gin.Context) {
	reviewerID := c.MustGet("user_id").(int64)

	userID, err := parseIDParam(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	var input models.CreateReviewInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	review, err := h.reviews.Add(userID, reviewerID, input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		case errors.Is(err, service.ErrSelfReview):
			c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot review yourself"})
		case errors.Is(err, service.ErrAlreadyReviewed):
			c.JSON(http.StatusConflict, gin.H{"error": "You have already reviewed this user"})
		default:
			h.logger.Error("Failed to add review", zap.Int64("user_id", userID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add review"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Review added",
		"review":  review,
	})
}

// GetReviews handles GET /api/users/:id/reviews
func (h *reviewHandler) GetReviews(c *gin.Context) {
	userID, err := parseIDParam(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	reviews, average, err := h.reviews.ListWithAverage(userID)
	if err != nil {
		h.logger.Error("Failed to get reviews", zap.Int64("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve reviews"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reviews":        reviews,
		"average_rating": average,
	})
}
