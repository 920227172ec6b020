package repository

import (
	"backend/internal/models"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type ReviewRepository interface {
	Create(review *models.Review) error
	ListByUserID(userID int64) ([]*models.Review, error)
	HasReviewed(userID, reviewerID int64) (bool, error)
	AverageRating(userID int64) (float64, error)
}

type reviewRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewReviewRepository(db *sqlx.DB, logger *zap.Logger) ReviewRepository {
	return &reviewRepository{db: db, logger: logger}
}

func (r *reviewRepository) Create(review *models.Review) error {
	query := `
		INSERT INTO reviews (user_id, reviewer_id, reviewer_name, stars, comment)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := r.db.QueryRowx(query, review.UserID, review.ReviewerID, review.ReviewerName, review.Stars,
		review.Comment).Scan(&review.ID, &review.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to create review", zap.Int64("user_id", review.UserID), zap.Error(err))
		return err
	}
	return nil
}

func (r *reviewRepository) ListByUserID(userID int64) ([]*models.Review, error) {
	var reviews []*models.Review
	query := `SELECT id, user_id, reviewer_id, reviewer_name, stars, comment, created_at
	          FROM reviews WHERE user_id = $1 ORDER BY created_at DESC`
	err := r.db.Select(&reviews, query, userID)
	if err != nil {
		r.logger.Error("Failed to list reviews", zap.Int64("user_id", userID), zap.Error(err))
		return nil, err
	}
	return reviews, nil
}

func (r *reviewRepository) HasReviewed(userID, reviewerID int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM reviews WHERE user_id = $1 AND reviewer_id = $2)`
	err := r.db.Get(&exists, query, userID, reviewerID)
	if err != nil {
		r.logger.Error("Failed to check review existence", zap.Int64("user_id", userID), zap.Error(err))
		return false, err
	}
	return exists, nil
}

func (r *reviewRepository) AverageRating(userID int64) (float64, error) {
	var avg float64
	query := `SELECT COALESCE(AVG(stars), 0) FROM reviews WHERE user_id = $1`
	err := r.db.Get(&avg, query, userID)
	if err != nil {
		r.logger.Error("Failed to compute average rating", zap.Int64("user_id", userID), zap.Error(err))
		return 0, err
	}
	return avg, nil
}
