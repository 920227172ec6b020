package service

import (
	"errors"
	"fmt"
	"math"

	"backend/internal/models"
	"backend/internal/repository"

	"go.uber.org/zap"
)

var (
	ErrAlreadyReviewed = errors.New("reviewer has already reviewed this user")
	ErrSelfReview      = errors.New("users cannot review themselves")
)

type ReviewService interface {
	Add(userID, reviewerID int64, input models.CreateReviewInput) (*models.Review, error)
	ListWithAverage(userID int64) ([]*models.Review, float64, error)
}

type reviewService struct {
	reviewRepo repository.ReviewRepository
	userRepo   repository.UserRepository
	logger     *zap.Logger
}

func NewReviewService(reviewRepo repository.ReviewRepository, userRepo repository.UserRepository, logger *zap.Logger) ReviewService {
	return &reviewService{
		reviewRepo: reviewRepo,
		userRepo:   userRepo,
		logger:     logger,
	}
}

// Add stores one review from reviewer on the given user's profile. Each
// reviewer may review a profile once.
func (s *reviewService) Add(userID, reviewerID int64, input models.CreateReviewInput) (*models.Review, error) {
	if userID == reviewerID {
		return nil, ErrSelfReview
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	reviewer, err := s.userRepo.GetByID(reviewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load reviewer: %w", err)
	}
	if reviewer == nil {
		return nil, ErrUserNotFound
	}

	reviewed, err := s.reviewRepo.HasReviewed(userID, reviewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing review: %w", err)
	}
	if reviewed {
		return nil, ErrAlreadyReviewed
	}

	review := &models.Review{
		UserID:       userID,
		ReviewerID:   reviewerID,
		ReviewerName: reviewer.Name,
		Stars:        input.Stars,
		Comment:      input.Comment,
	}
	if err := s.reviewRepo.Create(review); err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	return review, nil
}

// ListWithAverage returns a user's reviews and their average star rating
// rounded to one decimal. An unrated user averages 0.
func (s *reviewService) ListWithAverage(userID int64) ([]*models.Review, float64, error) {
	reviews, err := s.reviewRepo.ListByUserID(userID)
	if err != nil {
		return nil, 0, err
	}

	avg, err := s.reviewRepo.AverageRating(userID)
	if err != nil {
		return nil, 0, err
	}

	return reviews, math.Round(avg*10) / 10, nil
}
