package service

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"backend/internal/models"
	"backend/internal/repository"

	"go.uber.org/zap"
)

var (
	ErrRequestNotFound        = errors.New("child data request not found")
	ErrDuplicateRequest       = errors.New("a pending request already exists for this recipient")
	ErrRequestAlreadyResolved = errors.New("child data request has already been responded to")
	ErrNotRecipient           = errors.New("only the recipient can respond to a request")
)

// AccessRequestService manages the lifecycle of child-data access
// requests: creation with a duplicate guard, the single pending→terminal
// transition, and the permission lookups built on top.
type AccessRequestService interface {
	Request(requesterID, recipientID int64) (*models.ChildDataRequest, error)
	Respond(requestID, responderID int64, accept bool) (*models.ChildDataRequest, error)
	CanView(viewerID, ownerID int64) (bool, error)
	HasPending(requesterID, recipientID int64) (bool, error)
	PendingFor(recipientID int64) ([]*models.ChildDataRequest, error)
	Viewers(ownerID int64) ([]int64, error)
}

type accessRequestService struct {
	requestRepo    repository.ChildDataRequestRepository
	permissionRepo repository.PermissionRepository
	userRepo       repository.UserRepository
	logger         *zap.Logger

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func NewAccessRequestService(
	requestRepo repository.ChildDataRequestRepository,
	permissionRepo repository.PermissionRepository,
	userRepo repository.UserRepository,
	logger *zap.Logger,
) AccessRequestService {
	return &accessRequestService{
		requestRepo:    requestRepo,
		permissionRepo: permissionRepo,
		userRepo:       userRepo,
		logger:         logger,
		locks:          make(map[int64]*sync.Mutex),
	}
}

// Request opens a pending request from requester to recipient and appends
// the matching notification message to their chat, creating the chat if
// needed; request and message are written in one transaction. A pending
// request for the same ordered pair blocks creation; the reverse pair
// does not.
func (s *accessRequestService) Request(requesterID, recipientID int64) (*models.ChildDataRequest, error) {
	requester, err := s.userRepo.GetByID(requesterID)
	if err != nil {
		return nil, fmt.Errorf("failed to load requester: %w", err)
	}
	if requester == nil {
		return nil, ErrUserNotFound
	}

	recipient, err := s.userRepo.GetByID(recipientID)
	if err != nil {
		return nil, fmt.Errorf("failed to load recipient: %w", err)
	}
	if recipient == nil {
		return nil, ErrUserNotFound
	}

	existing, err := s.requestRepo.FindPending(requesterID, recipientID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing request: %w", err)
	}
	if existing != nil {
		return nil, ErrDuplicateRequest
	}

	request := &models.ChildDataRequest{
		RequesterID:   requesterID,
		RequesterName: requester.Name,
		RecipientID:   recipientID,
		Status:        models.RequestStatusPending,
		RequestedAt:   time.Now(),
	}
	message := &models.Message{
		SenderID:    requesterID,
		Body:        fmt.Sprintf("%s gostaria de ter acesso aos dados dos seus filhos para poder cuidar melhor deles.", requester.Name),
		MessageType: models.MessageTypeChildDataRequest,
	}
	if err := s.requestRepo.Create(request, message); err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	s.logger.Info("Child data request created",
		zap.Int64("request_id", request.ID),
		zap.Int64("requester_id", requesterID),
		zap.Int64("recipient_id", recipientID),
	)

	return request, nil
}

// Respond moves a pending request to accepted or declined. Only the
// recipient may respond. Accepting also grants the requester permission
// to view the recipient's children data, in the same transaction as the
// status change. The per-request lock plus the conditional update in the
// repository keep concurrent responses to the same id single-winner; the
// loser gets ErrRequestAlreadyResolved.
func (s *accessRequestService) Respond(requestID, responderID int64, accept bool) (*models.ChildDataRequest, error) {
	lock := s.lockFor(requestID)
	lock.Lock()
	defer lock.Unlock()

	request, err := s.requestRepo.GetByID(requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to load request: %w", err)
	}
	if request == nil {
		return nil, ErrRequestNotFound
	}
	if request.RecipientID != responderID {
		return nil, ErrNotRecipient
	}

	status := models.RequestStatusDeclined
	if accept {
		status = models.RequestStatusAccepted
	}

	respondedAt := time.Now()
	updated, err := s.requestRepo.MarkResponded(requestID, status, respondedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to update request: %w", err)
	}
	if !updated {
		return nil, ErrRequestAlreadyResolved
	}

	request.Status = status
	request.RespondedAt = &respondedAt

	s.logger.Info("Child data request resolved",
		zap.Int64("request_id", requestID),
		zap.String("status", status),
	)

	return request, nil
}

// CanView reports whether viewer holds a permission grant from owner.
func (s *accessRequestService) CanView(viewerID, ownerID int64) (bool, error) {
	return s.permissionRepo.HasGrant(ownerID, viewerID)
}

// HasPending reports whether a pending request exists for the exact
// ordered (requester, recipient) pair.
func (s *accessRequestService) HasPending(requesterID, recipientID int64) (bool, error) {
	existing, err := s.requestRepo.FindPending(requesterID, recipientID)
	if err != nil {
		return false, err
	}
	return existing != nil, nil
}

// PendingFor lists the requests awaiting the recipient's response.
func (s *accessRequestService) PendingFor(recipientID int64) ([]*models.ChildDataRequest, error) {
	return s.requestRepo.GetPendingByRecipient(recipientID)
}

// Viewers lists the users holding a grant on the owner's children data.
func (s *accessRequestService) Viewers(ownerID int64) ([]int64, error) {
	return s.permissionRepo.ListViewers(ownerID)
}

func (s *accessRequestService) lockFor(requestID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[requestID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[requestID] = lock
	}
	return lock
}
