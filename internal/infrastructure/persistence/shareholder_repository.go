package persistence

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/lending/equity/internal/domain/equity"
	"github.com/lending/equity/internal/domain/shared"
	"github.com/lending/equity/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormShareholderRepository implements equity.ShareholderRepository using GORM
type GormShareholderRepository struct {
	db *gorm.DB
}

// NewGormShareholderRepository creates a new GormShareholderRepository
func NewGormShareholderRepository(db *gorm.DB) *GormShareholderRepository {
	return &GormShareholderRepository{db: db}
}

// FindByID finds a shareholder by its ID
func (r *GormShareholderRepository) FindByID(ctx context.Context, id uuid.UUID) (*equity.Shareholder, error) {
	var model models.ShareholderModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// List returns every shareholder of a pool ordered by creation time then ID
func (r *GormShareholderRepository) List(ctx context.Context, poolCode string) ([]equity.Shareholder, error) {
	var rows []models.ShareholderModel
	if err := r.db.WithContext(ctx).
		Where("pool_code = ?", poolCode).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainShareholders(rows), nil
}

// FindAll returns a page of shareholders of a pool
func (r *GormShareholderRepository) FindAll(ctx context.Context, poolCode string, filter shared.Filter) ([]equity.Shareholder, error) {
	var rows []models.ShareholderModel
	query := r.applyFilter(r.poolQuery(ctx, poolCode), filter)

	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainShareholders(rows), nil
}

// Count returns the number of shareholders of a pool matching the filter
func (r *GormShareholderRepository) Count(ctx context.Context, poolCode string, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applySearch(r.poolQuery(ctx, poolCode), filter.Search)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindByNationalID finds a shareholder of the pool by national ID, ignoring
// excludeID. The suffix letter is matched case-insensitively.
func (r *GormShareholderRepository) FindByNationalID(ctx context.Context, poolCode, nationalID string, excludeID *uuid.UUID) (*equity.Shareholder, error) {
	return r.findOne(ctx, poolCode, "UPPER(national_id) = ?", equity.NationalIDKey(nationalID), excludeID)
}

// FindByContact finds a shareholder of the pool by contact number, ignoring excludeID
func (r *GormShareholderRepository) FindByContact(ctx context.Context, poolCode, contact string, excludeID *uuid.UUID) (*equity.Shareholder, error) {
	return r.findOne(ctx, poolCode, "contact = ?", contact, excludeID)
}

// Insert persists a new shareholder
func (r *GormShareholderRepository) Insert(ctx context.Context, shareholder *equity.Shareholder) error {
	model := models.ShareholderModelFromDomain(shareholder)
	return translateWriteError(r.db.WithContext(ctx).Create(model).Error)
}

// Update replaces the stored fields of an existing shareholder
func (r *GormShareholderRepository) Update(ctx context.Context, shareholder *equity.Shareholder) error {
	result := r.db.WithContext(ctx).
		Model(&models.ShareholderModel{}).
		Where("id = ?", shareholder.ID).
		Updates(map[string]any{
			"name":            shareholder.Name,
			"national_id":     shareholder.NationalID,
			"contact":         shareholder.Contact,
			"address":         shareholder.Address,
			"invested_amount": shareholder.InvestedAmount,
			"percentage":      shareholder.Percentage,
			"share_count":     shareholder.ShareCount,
			"version":         shareholder.Version,
			"updated_at":      shareholder.UpdatedAt,
		})
	if result.Error != nil {
		return translateWriteError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes a shareholder
func (r *GormShareholderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.ShareholderModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// UpdateShareCounts stores apportioned share counts. IDs are written in
// sorted order so concurrent writers touch rows in the same sequence.
func (r *GormShareholderRepository) UpdateShareCounts(ctx context.Context, counts map[uuid.UUID]int64) error {
	ids := make([]uuid.UUID, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	db := r.db.WithContext(ctx)
	for _, id := range ids {
		if err := db.Model(&models.ShareholderModel{}).
			Where("id = ?", id).
			Update("share_count", counts[id]).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *GormShareholderRepository) findOne(ctx context.Context, poolCode, cond string, value string, excludeID *uuid.UUID) (*equity.Shareholder, error) {
	query := r.poolQuery(ctx, poolCode).Where(cond, value)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}

	var model models.ShareholderModel
	if err := query.Take(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

func (r *GormShareholderRepository) poolQuery(ctx context.Context, poolCode string) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.ShareholderModel{}).Where("pool_code = ?", poolCode)
}

// applySearch matches name case-insensitively and identifiers by prefix
func (r *GormShareholderRepository) applySearch(query *gorm.DB, search string) *gorm.DB {
	search = strings.TrimSpace(search)
	if search == "" {
		return query
	}
	return query.Where(
		"(LOWER(name) LIKE ? OR national_id LIKE ? OR contact LIKE ?)",
		"%"+strings.ToLower(search)+"%",
		strings.ToUpper(search)+"%",
		search+"%",
	)
}

// applyFilter applies search, ordering and pagination
func (r *GormShareholderRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applySearch(query, filter.Search)

	sortField := ValidateSortField(filter.OrderBy, ShareholderSortFields, "created_at")
	sortOrder := ValidateSortOrder(filter.OrderDir)
	query = query.Order(sortField + " " + sortOrder).Order("id ASC")

	if filter.PageSize > 0 {
		query = query.Limit(filter.PageSize).Offset(filter.Offset())
	}
	return query
}

func toDomainShareholders(rows []models.ShareholderModel) []equity.Shareholder {
	out := make([]equity.Shareholder, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

// Ensure GormShareholderRepository implements equity.ShareholderRepository
var _ equity.ShareholderRepository = (*GormShareholderRepository)(nil)
