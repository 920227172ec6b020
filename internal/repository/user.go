package repository

import (
	"database/sql"

	"backend/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type UserRepository interface {
	Create(user *models.User) error
	GetByID(id int64) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByTelegramID(telegramID int64) (*models.User, error)
	List() ([]*models.User, error)
	Update(user *models.User) error
}

type userRepository struct {
	db  *sqlx.DB
	log *logrus.Logger
}

func NewUserRepository(db *sqlx.DB, log *logrus.Logger) UserRepository {
	return &userRepository{db: db, log: log}
}

const userColumns = `id, name, email, password_hash, mother_age, child_age_range, work_hours, location,
	available_to_care, availability_hours, availability_notes, verified, telegram_id, created_at`

func (r *userRepository) Create(user *models.User) error {
	query := `INSERT INTO users (name, email, password_hash, mother_age, child_age_range, work_hours, location,
	                             available_to_care, availability_hours, availability_notes, telegram_id)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	          RETURNING id, verified, created_at`
	return r.db.QueryRowx(query, user.Name, user.Email, user.PasswordHash, user.MotherAge, user.ChildAgeRange,
		user.WorkHours, user.Location, user.AvailableToCare, user.AvailabilityHours, user.AvailabilityNotes,
		user.TelegramID).Scan(&user.ID, &user.Verified, &user.CreatedAt)
}

func (r *userRepository) GetByID(id int64) (*models.User, error) {
	var user models.User
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	err := r.db.Get(&user, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.log.Errorf("Failed to get user %d: %v", id, err)
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	err := r.db.Get(&user, query, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.log.Errorf("Failed to get user by email: %v", err)
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByTelegramID(telegramID int64) (*models.User, error) {
	var user models.User
	query := `SELECT ` + userColumns + ` FROM users WHERE telegram_id = $1`
	err := r.db.Get(&user, query, telegramID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.log.Errorf("Failed to get user by telegram id: %v", err)
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) List() ([]*models.User, error) {
	var users []*models.User
	query := `SELECT ` + userColumns + ` FROM users ORDER BY id`
	err := r.db.Select(&users, query)
	if err != nil {
		r.log.Errorf("Failed to list users: %v", err)
		return nil, err
	}
	return users, nil
}

func (r *userRepository) Update(user *models.User) error {
	query := `UPDATE users
	          SET name = $1, mother_age = $2, child_age_range = $3, work_hours = $4, location = $5,
	              available_to_care = $6, availability_hours = $7, availability_notes = $8, telegram_id = $9
	          WHERE id = $10`
	result, err := r.db.Exec(query, user.Name, user.MotherAge, user.ChildAgeRange, user.WorkHours, user.Location,
		user.AvailableToCare, user.AvailabilityHours, user.AvailabilityNotes, user.TelegramID, user.ID)
	if err != nil {
		r.log.Errorf("Failed to update user %d: %v", user.ID, err)
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
