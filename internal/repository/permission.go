package repository

import (
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// PermissionRepository reads who may view whose children data. Grants
// are append-only with no revocation, and are written only by the
// request repository inside the accept transaction.
type PermissionRepository interface {
	HasGrant(ownerID, viewerID int64) (bool, error)
	ListViewers(ownerID int64) ([]int64, error)
}

type permissionRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewPermissionRepository(db *sqlx.DB, logger *zap.Logger) PermissionRepository {
	return &permissionRepository{db: db, logger: logger}
}

func (r *permissionRepository) HasGrant(ownerID, viewerID int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM child_data_permissions WHERE owner_id = $1 AND viewer_id = $2)`
	err := r.db.Get(&exists, query, ownerID, viewerID)
	if err != nil {
		r.logger.Error("Failed to check permission",
			zap.Int64("owner_id", ownerID),
			zap.Int64("viewer_id", viewerID),
			zap.Error(err))
		return false, err
	}
	return exists, nil
}

func (r *permissionRepository) ListViewers(ownerID int64) ([]int64, error) {
	var viewers []int64
	query := `SELECT viewer_id FROM child_data_permissions WHERE owner_id = $1 ORDER BY granted_at`
	err := r.db.Select(&viewers, query, ownerID)
	if err != nil {
		r.logger.Error("Failed to list viewers", zap.Int64("owner_id", ownerID), zap.Error(err))
		return nil, err
	}
	return viewers, nil
}
