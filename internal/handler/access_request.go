package handler

import (
	"errors"
	"net/http"

	"backend/internal/models"
	"backend/internal/repository"
	"backend/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TelegramBot is the notification channel for new requests. Nil-able;
// notification failures never fail the request itself.
type TelegramBot interface {
	SendChildDataRequestNotification(recipientTelegramID int64, requestID int64, requesterName string) error
}

type AccessRequestHandler interface {
	CreateRequest(c *gin.Context)
	AcceptRequest(c *gin.Context)
	DeclineRequest(c *gin.Context)
	GetPendingRequests(c *gin.Context)
	GetViewers(c *gin.Context)
	CanView(c *gin.Context)
}

type accessRequestHandler struct {
	requests service.AccessRequestService
	userRepo repository.UserRepository
	logger   *zap.Logger
	bot      TelegramBot
}

func NewAccessRequestHandler(
	requests service.AccessRequestService,
	userRepo repository.UserRepository,
	logger *zap.Logger,
	bot TelegramBot,
) AccessRequestHandler {
	return &accessRequestHandler{
		requests: requests,
		userRepo: userRepo,
		logger:   logger,
		bot:      bot,
	}
}

// CreateRequest handles POST /api/child-data-requests
func (h *accessRequestHandler) CreateRequest(c *gin.Context) {
	userID := c.MustGet("user_id").(int64)

	var input models.CreateChildDataRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.RecipientID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot request access to your own children data"})
		return
	}

	request, err := h.requests.Request(userID, input.RecipientID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		case errors.Is(err, service.ErrDuplicateRequest):
			c.JSON(http.StatusConflict, gin.H{"error": "A pending request already exists"})
		default:
			h.logger.Error("Failed to create child data request", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create request"})
		}
		return
	}

	h.notifyRecipient(request)

	c.JSON(http.StatusCreated, gin.H{
		"message": "Child data request created",
		"request": request,
	})
}

// AcceptRequest handles POST /api/child-data-requests/:id/accept
func (h *accessRequestHandler) AcceptRequest(c *gin.Context) {
	h.respond(c, true)
}

// DeclineRequest handles POST /api/child-data-requests/:id/decline
func (h *accessRequestHandler) DeclineRequest(c *gin.Context) {
	h.respond(c, false)
}

func (h *accessRequestHandler) respond(c *gin.Context, accept bool) {
	userID := c.MustGet("user_id").(int64)

	requestID, err := parseIDParam(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request ID"})
		return
	}

	request, err := h.requests.Respond(requestID, userID, accept)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRequestNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Child data request not found"})
		case errors.Is(err, service.ErrNotRecipient):
			c.JSON(http.StatusForbidden, gin.H{"error": "You are not authorized to respond to this request"})
		case errors.Is(err, service.ErrRequestAlreadyResolved):
			c.JSON(http.StatusConflict, gin.H{"error": "Request has already been responded to"})
		default:
			h.logger.Error("Failed to respond to request", zap.Int64("request_id", requestID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to respond to request"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Request " + request.Status,
		"request": request,
	})
}

// GetPendingRequests handles GET /api/child-data-requests/pending
func (h *accessRequestHandler) GetPendingRequests(c *gin.Context) {
	userID := c.MustGet("user_id").(int64)

	requests, err := h.requests.PendingFor(userID)
	if err != nil {
		h.logger.Error("Failed to get pending requests", zap.Int64("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get pending requests"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

// GetViewers handles GET /api/me/viewers — who holds a grant on the
// caller's children data.
func (h *accessRequestHandler) GetViewers(c *gin.Context) {
	userID := c.MustGet("user_id").(int64)

	viewers, err := h.requests.Viewers(userID)
	if err != nil {
		h.logger.Error("Failed to list viewers", zap.Int64("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list viewers"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"viewer_ids": viewers})
}

// CanView handles GET /api/users/:id/can-view — whether the caller may
// see that user's children data. Presentation uses this together with
// the pending check to decide which affordance to render.
func (h *accessRequestHandler) CanView(c *gin.Context) {
	userID := c.MustGet("user_id").(int64)

	ownerID, err := parseIDParam(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	canView, err := h.requests.CanView(userID, ownerID)
	if err != nil {
		h.logger.Error("Failed to check permission", zap.Int64("owner_id", ownerID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check permission"})
		return
	}

	pending, err := h.requests.HasPending(userID, ownerID)
	if err != nil {
		h.logger.Error("Failed to check pending request", zap.Int64("owner_id", ownerID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check pending request"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"can_view":            canView,
		"has_pending_request": pending,
	})
}

func (h *accessRequestHandler) notifyRecipient(request *models.ChildDataRequest) {
	if h.bot == nil {
		return
	}

	recipient, err := h.userRepo.GetByID(request.RecipientID)
	if err != nil || recipient == nil || recipient.TelegramID == nil {
		return
	}

	err = h.bot.SendChildDataRequestNotification(*recipient.TelegramID, request.ID, request.RequesterName)
	if err != nil {
		h.logger.Error("Failed to send Telegram notification",
			zap.Int64("request_id", request.ID),
			zap.Error(err))
		// Don't fail the request if notification fails
		return
	}

	h.logger.Info("Telegram notification sent to recipient",
		zap.Int64("recipient_id", request.RecipientID),
		zap.Int64("request_id", request.ID))
}
