package models

import "time"

// Review is a star rating left by one user on another's profile.
// ReviewerName is a display snapshot taken when the review is created.
type Review struct {
	ID           int64     `db:"id" json:"id"`
	UserID       int64     `db:"user_id" json:"user_id"`
	ReviewerID   int64     `db:"reviewer_id" json:"reviewer_id"`
	ReviewerName string    `db:"reviewer_name" json:"reviewer_name"`
	Stars        int       `db:"stars" json:"stars"`
	Comment      string    `db:"comment" json:"comment"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// CreateReviewInput is the payload for leaving a review.
type CreateReviewInput struct {
	Stars   int    `json:"stars" binding:"required,min=1,max=5"`
	Comment string `json:"comment"`
}
