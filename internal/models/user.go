package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// User represents a registered mother on the platform.
type User struct {
	ID                int64     `db:"id" json:"id"`
	Name              string    `db:"name" json:"name"`
	Email             string    `db:"email" json:"email"`
	PasswordHash      string    `db:"password_hash" json:"-"`
	MotherAge         int       `db:"mother_age" json:"mother_age"`
	ChildAgeRange     string    `db:"child_age_range" json:"child_age_range"`
	WorkHours         string    `db:"work_hours" json:"work_hours"`
	Location          string    `db:"location" json:"location"`
	AvailableToCare   bool      `db:"available_to_care" json:"available_to_care"`
	AvailabilityHours string    `db:"availability_hours" json:"availability_hours"`
	AvailabilityNotes string    `db:"availability_notes" json:"availability_notes"`
	Verified          bool      `db:"verified" json:"verified"`
	TelegramID        *int64    `db:"telegram_id" json:"telegram_id,omitempty"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`

	// Loaded separately from the verifications/children tables.
	// Nil when the user has not completed verification.
	Verification *VerificationRecord `db:"-" json:"verification,omitempty"`
}

// Claims defines the structure of the JWT claims.
type Claims struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
