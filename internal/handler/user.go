package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"backend/internal/config"
	"backend/internal/models"
	"backend/internal/repository"
	"backend/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type UserHandler interface {
	GetMe(c *gin.Context)
	UpdateMe(c *gin.Context)
	GetUser(c *gin.Context)
	GetMatches(c *gin.Context)
	GetMatchWith(c *gin.Context)
}

type userHandler struct {
	userRepo repository.UserRepository
	matching service.MatchingService
	cfg      *config.Config
	logger   *zap.Logger
}

func NewUserHandler(userRepo repository.UserRepository, matching service.MatchingService, cfg *config.Config, logger *zap.Logger) UserHandler {
	return &userHandler{userRepo: userRepo, matching: matching, cfg: cfg, logger: logger}
}

// GetMe handles GET /api/me
func (h *userHandler) GetMe(c *gin.Context) {
	userID := c.MustGet("user_id").(int64)

	user, err := h.userRepo.GetByID(userID)
	if err != nil {
		h.logger.Error("Failed to get user", zap.Int64("id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve user"})
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

type UpdateProfileRequest struct {
	Name              string `json:"name" binding:"required"`
	MotherAge         int    `json:"mother_age"`
	ChildAgeRange     string `json:"child_age_range"`
	WorkHours         string `json:"work_hours"`
	Location          string `json:"location"`
	AvailableToCare   bool   `json:"available_to_care"`
	AvailabilityHours string `json:"availability_hours"`
	AvailabilityNotes string `json:"availability_notes"`
	TelegramID        *int64 `json:"telegram_id"`
}

// UpdateMe handles PUT /api/me
func (h *userHandler) UpdateMe(c *gin.Context) {
	userID := c.MustGet("user_id").(int64)

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user := &models.User{
		ID:                userID,
		Name:              req.Name,
		MotherAge:         req.MotherAge,
		ChildAgeRange:     req.ChildAgeRange,
		WorkHours:         req.WorkHours,
		Location:          req.Location,
		AvailableToCare:   req.AvailableToCare,
		AvailabilityHours: req.AvailabilityHours,
		AvailabilityNotes: req.AvailabilityNotes,
		TelegramID:        req.TelegramID,
	}

	if err := h.userRepo.Update(user); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		h.logger.Error("Failed to update user", zap.Int64("id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully"})
}

// GetUser handles GET /api/users/:id
func (h *userHandler) GetUser(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	user, err := h.userRepo.GetByID(id)
	if err != nil {
		h.logger.Error("Failed to get user", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve user"})
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// GetMatches handles GET /api/matches?limit=N — the caller's ranked feed.
func (h *userHandler) GetMatches(c *gin.Context) {
	userID := c.MustGet("user_id").(int64)

	limit := h.cfg.Matching.DefaultLimit
	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = parsed
	}

	matches, err := h.matching.RankedMatches(userID, limit)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		h.logger.Error("Failed to compute matches", zap.Int64("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute matches"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"matches": matches})
}

// GetMatchWith handles GET /api/users/:id/match — the pairwise score
// between the caller and one profile.
func (h *userHandler) GetMatchWith(c *gin.Context) {
	userID := c.MustGet("user_id").(int64)

	otherID, err := parseIDParam(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	score, err := h.matching.Similarity(userID, otherID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		h.logger.Error("Failed to compute similarity",
			zap.Int64("user_id", userID),
			zap.Int64("other_id", otherID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute match"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"match_percentage": score})
}

func parseIDParam(c *gin.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}
