package service

import (
	"errors"
	"fmt"

	"backend/internal/crypto"
	"backend/internal/models"
	"backend/internal/repository"

	"go.uber.org/zap"
)

var (
	ErrNoChildren      = errors.New("verification requires at least one child")
	ErrInvalidChildAge = errors.New("child age must not be negative")
	ErrUnknownActivity = errors.New("activity is not in the permitted catalog")
	ErrAccessDenied    = errors.New("viewer has no permission to see this data")
)

// VerificationService handles the verification questionnaire and the
// permission-gated reads of child data.
type VerificationService interface {
	Submit(userID int64, input models.SubmitVerificationInput) (*models.VerificationRecord, error)
	ChildrenData(viewerID, ownerID int64) ([]models.ChildProfile, error)
}

type verificationService struct {
	userRepo         repository.UserRepository
	verificationRepo repository.VerificationRepository
	permissionRepo   repository.PermissionRepository
	cipher           *crypto.Cipher
	logger           *zap.Logger
}

func NewVerificationService(
	userRepo repository.UserRepository,
	verificationRepo repository.VerificationRepository,
	permissionRepo repository.PermissionRepository,
	cipher *crypto.Cipher,
	logger *zap.Logger,
) VerificationService {
	return &verificationService{
		userRepo:         userRepo,
		verificationRepo: verificationRepo,
		permissionRepo:   permissionRepo,
		cipher:           cipher,
		logger:           logger,
	}
}

// Submit validates and stores the questionnaire, replacing any previous
// record wholesale and marking the user verified. There is no partial
// update; re-verification always supplies the full data set.
func (s *verificationService) Submit(userID int64, input models.SubmitVerificationInput) (*models.VerificationRecord, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if len(input.Children) == 0 {
		return nil, ErrNoChildren
	}

	catalog := make(map[string]struct{}, len(models.PermittedActivities))
	for _, activity := range models.PermittedActivities {
		catalog[activity] = struct{}{}
	}

	// Government IDs are stored encrypted at rest.
	motherRG, err := s.cipher.EncryptField(input.MotherRG)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt RG: %w", err)
	}
	motherCPF, err := s.cipher.EncryptField(input.MotherCPF)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt CPF: %w", err)
	}

	record := &models.VerificationRecord{
		UserID:         userID,
		MotherRG:       motherRG,
		MotherCPF:      motherCPF,
		WorkHistory:    input.WorkHistory,
		References:     input.References,
		CriminalRecord: input.CriminalRecord,
		Children:       make([]models.ChildProfile, 0, len(input.Children)),
	}

	for _, child := range input.Children {
		if child.Age < 0 {
			return nil, ErrInvalidChildAge
		}
		for _, activity := range child.Activities {
			if _, ok := catalog[activity]; !ok {
				return nil, fmt.Errorf("%w: %q", ErrUnknownActivity, activity)
			}
		}
		record.Children = append(record.Children, models.ChildProfile{
			Name:             child.Name,
			Age:              child.Age,
			Documents:        child.Documents,
			Allergies:        child.Allergies,
			Medications:      child.Medications,
			ScreenRestricted: child.ScreenRestricted,
			MaxScreenTime:    child.MaxScreenTime,
			Activities:       child.Activities,
			SpecialNotes:     child.SpecialNotes,
		})
	}

	if err := s.verificationRepo.Replace(record); err != nil {
		return nil, fmt.Errorf("failed to store verification: %w", err)
	}

	// The caller gets back what they submitted, not the ciphertext.
	record.MotherRG = input.MotherRG
	record.MotherCPF = input.MotherCPF

	s.logger.Info("Verification submitted",
		zap.Int64("user_id", userID),
		zap.Int("children", len(record.Children)),
	)

	return record, nil
}

// ChildrenData returns the owner's child profiles to the owner themselves
// or to a viewer holding a permission grant. Everyone else gets
// ErrAccessDenied. An owner without a verification record yields an empty
// result, not an error.
func (s *verificationService) ChildrenData(viewerID, ownerID int64) ([]models.ChildProfile, error) {
	owner, err := s.userRepo.GetByID(ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load owner: %w", err)
	}
	if owner == nil {
		return nil, ErrUserNotFound
	}

	if viewerID != ownerID {
		allowed, err := s.permissionRepo.HasGrant(ownerID, viewerID)
		if err != nil {
			return nil, fmt.Errorf("failed to check permission: %w", err)
		}
		if !allowed {
			return nil, ErrAccessDenied
		}
	}

	record, err := s.verificationRepo.GetByUserID(ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load verification: %w", err)
	}
	if record == nil {
		return nil, nil
	}
	return record.Children, nil
}
