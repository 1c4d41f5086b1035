package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/lending/equity/internal/domain/equity"
	"github.com/lending/equity/internal/domain/shared"
	"github.com/lending/equity/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPoolRepository implements equity.PoolRepository using GORM
type GormPoolRepository struct {
	db *gorm.DB
}

// NewGormPoolRepository creates a new GormPoolRepository
func NewGormPoolRepository(db *gorm.DB) *GormPoolRepository {
	return &GormPoolRepository{db: db}
}

// EnsurePool inserts the pool row or refreshes its capacity and share count
func (r *GormPoolRepository) EnsurePool(ctx context.Context, pool equity.CapacityPool) error {
	model := models.CapacityPoolModelFromDomain(pool)
	now := time.Now().UTC()
	model.CreatedAt = now
	model.UpdatedAt = now

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{"total_capacity", "total_shares", "updated_at"}),
	}).Create(model).Error
}

// FindByCode returns the stored pool row
func (r *GormPoolRepository) FindByCode(ctx context.Context, code string) (equity.CapacityPool, error) {
	var model models.CapacityPoolModel
	if err := r.db.WithContext(ctx).Where("code = ?", code).Take(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return equity.CapacityPool{}, shared.ErrNotFound
		}
		return equity.CapacityPool{}, err
	}
	return model.ToDomain(), nil
}

// LockPool takes SELECT ... FOR UPDATE on the pool row. SQLite has no row
// locks; its write transactions are already exclusive, so the row is only
// read to confirm it exists.
func (r *GormPoolRepository) LockPool(ctx context.Context, code string) error {
	query := r.db.WithContext(ctx)
	if query.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var model models.CapacityPoolModel
	if err := query.Where("code = ?", code).Take(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return shared.ErrNotFound
		}
		return err
	}
	return nil
}

// Ensure GormPoolRepository implements equity.PoolRepository
var _ equity.PoolRepository = (*GormPoolRepository)(nil)
