package repository

import (
	"database/sql"

	"backend/internal/models"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// VerificationRepository persists verification records and their child
// profiles. A record is replaced wholesale on re-verification; there is
// no partial update.
type VerificationRepository interface {
	Replace(rec *models.VerificationRecord) error
	GetByUserID(userID int64) (*models.VerificationRecord, error)
	LoadAll() (map[int64]*models.VerificationRecord, error)
}

type verificationRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewVerificationRepository(db *sqlx.DB, logger *zap.Logger) VerificationRepository {
	return &verificationRepository{db: db, logger: logger}
}

func (r *verificationRepository) Replace(rec *models.VerificationRecord) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO verifications (user_id, mother_rg, mother_cpf, work_history, "references", criminal_record)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE
		SET mother_rg = EXCLUDED.mother_rg, mother_cpf = EXCLUDED.mother_cpf,
		    work_history = EXCLUDED.work_history, "references" = EXCLUDED."references",
		    criminal_record = EXCLUDED.criminal_record, updated_at = CURRENT_TIMESTAMP
		RETURNING created_at, updated_at
	`
	err = tx.QueryRowx(query, rec.UserID, rec.MotherRG, rec.MotherCPF, rec.WorkHistory, rec.References,
		rec.CriminalRecord).Scan(&rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to upsert verification", zap.Int64("user_id", rec.UserID), zap.Error(err))
		return err
	}

	if _, err := tx.Exec(`DELETE FROM children WHERE user_id = $1`, rec.UserID); err != nil {
		r.logger.Error("Failed to clear children", zap.Int64("user_id", rec.UserID), zap.Error(err))
		return err
	}

	insertChild := `
		INSERT INTO children (user_id, position, name, age, documents, allergies, medications,
		                      screen_restricted, max_screen_time, activities, special_notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`
	for i := range rec.Children {
		child := &rec.Children[i]
		child.UserID = rec.UserID
		child.Position = i
		err = tx.QueryRowx(insertChild, child.UserID, child.Position, child.Name, child.Age, child.Documents,
			child.Allergies, child.Medications, child.ScreenRestricted, child.MaxScreenTime,
			child.Activities, child.SpecialNotes).Scan(&child.ID)
		if err != nil {
			r.logger.Error("Failed to insert child profile", zap.Int64("user_id", rec.UserID), zap.Error(err))
			return err
		}
	}

	if _, err := tx.Exec(`UPDATE users SET verified = TRUE WHERE id = $1`, rec.UserID); err != nil {
		r.logger.Error("Failed to mark user verified", zap.Int64("user_id", rec.UserID), zap.Error(err))
		return err
	}

	return tx.Commit()
}

func (r *verificationRepository) GetByUserID(userID int64) (*models.VerificationRecord, error) {
	var rec models.VerificationRecord
	query := `SELECT user_id, mother_rg, mother_cpf, work_history, "references", criminal_record, created_at, updated_at
	          FROM verifications WHERE user_id = $1`
	err := r.db.Get(&rec, query, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.Error("Failed to get verification", zap.Int64("user_id", userID), zap.Error(err))
		return nil, err
	}

	children, err := r.childrenForUser(userID)
	if err != nil {
		return nil, err
	}
	rec.Children = children
	return &rec, nil
}

// LoadAll returns every verification record with its children, keyed by
// user id. Used by the matching engine to score the whole directory in
// two queries instead of one per candidate.
func (r *verificationRepository) LoadAll() (map[int64]*models.VerificationRecord, error) {
	var recs []*models.VerificationRecord
	query := `SELECT user_id, mother_rg, mother_cpf, work_history, "references", criminal_record, created_at, updated_at
	          FROM verifications`
	if err := r.db.Select(&recs, query); err != nil {
		r.logger.Error("Failed to load verifications", zap.Error(err))
		return nil, err
	}

	byUser := make(map[int64]*models.VerificationRecord, len(recs))
	for _, rec := range recs {
		byUser[rec.UserID] = rec
	}

	var children []models.ChildProfile
	childQuery := `SELECT id, user_id, position, name, age, documents, allergies, medications,
	                      screen_restricted, max_screen_time, activities, special_notes
	               FROM children ORDER BY user_id, position`
	if err := r.db.Select(&children, childQuery); err != nil {
		r.logger.Error("Failed to load children", zap.Error(err))
		return nil, err
	}
	for _, child := range children {
		if rec, ok := byUser[child.UserID]; ok {
			rec.Children = append(rec.Children, child)
		}
	}

	return byUser, nil
}

func (r *verificationRepository) childrenForUser(userID int64) ([]models.ChildProfile, error) {
	var children []models.ChildProfile
	query := `SELECT id, user_id, position, name, age, documents, allergies, medications,
	                 screen_restricted, max_screen_time, activities, special_notes
	          FROM children WHERE user_id = $1 ORDER BY position`
	if err := r.db.Select(&children, query, userID); err != nil {
		r.logger.Error("Failed to load children", zap.Int64("user_id", userID), zap.Error(err))
		return nil, err
	}
	return children, nil
}
