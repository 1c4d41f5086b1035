package models

import (
	"time"

	"github.com/lending/equity/internal/domain/equity"
	"github.com/shopspring/decimal"
)

// Unique index names. Duplicate translation keys off these names.
const (
	IndexShareholderNationalID = "idx_shareholders_pool_national_id"
	IndexShareholderContact    = "idx_shareholders_pool_contact"
)

// ShareholderModel is the persistence model for the Shareholder aggregate.
type ShareholderModel struct {
	AggregateModel
	PoolCode       string          `gorm:"type:varchar(50);not null;uniqueIndex:idx_shareholders_pool_national_id,priority:1;uniqueIndex:idx_shareholders_pool_contact,priority:1"`
	Name           string          `gorm:"type:varchar(200);not null"`
	NationalID     string          `gorm:"column:national_id;type:varchar(12);not null;uniqueIndex:idx_shareholders_pool_national_id,priority:2"`
	Contact        string          `gorm:"type:varchar(10);not null;uniqueIndex:idx_shareholders_pool_contact,priority:2"`
	Address        string          `gorm:"type:text;not null"`
	InvestedAmount decimal.Decimal `gorm:"type:decimal(18,2);not null;check:chk_shareholders_invested_amount_positive,invested_amount > 0"`
	Percentage     decimal.Decimal `gorm:"type:decimal(11,8);not null;default:0"`
	ShareCount     int64           `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (ShareholderModel) TableName() string {
	return "shareholders"
}

// ToDomain converts the persistence model to a domain Shareholder
func (m *ShareholderModel) ToDomain() *equity.Shareholder {
	return &equity.Shareholder{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		PoolCode:          m.PoolCode,
		Name:              m.Name,
		NationalID:        m.NationalID,
		Contact:           m.Contact,
		Address:           m.Address,
		InvestedAmount:    m.InvestedAmount,
		Percentage:        m.Percentage,
		ShareCount:        m.ShareCount,
	}
}

// FromDomain populates the persistence model from a domain Shareholder
func (m *ShareholderModel) FromDomain(s *equity.Shareholder) {
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	m.PoolCode = s.PoolCode
	m.Name = s.Name
	m.NationalID = s.NationalID
	m.Contact = s.Contact
	m.Address = s.Address
	m.InvestedAmount = s.InvestedAmount
	m.Percentage = s.Percentage
	m.ShareCount = s.ShareCount
}

// ShareholderModelFromDomain creates a new persistence model from a domain Shareholder
func ShareholderModelFromDomain(s *equity.Shareholder) *ShareholderModel {
	m := &ShareholderModel{}
	m.FromDomain(s)
	return m
}

// CapacityPoolModel anchors pool-level row locking and records the
// configured pool parameters.
type CapacityPoolModel struct {
	Code          string          `gorm:"type:varchar(50);primaryKey"`
	TotalCapacity decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	TotalShares   int64           `gorm:"not null"`
	CreatedAt     time.Time       `gorm:"not null"`
	UpdatedAt     time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CapacityPoolModel) TableName() string {
	return "capacity_pools"
}

// ToDomain converts the persistence model to a domain CapacityPool
func (m *CapacityPoolModel) ToDomain() equity.CapacityPool {
	return equity.CapacityPool{
		Code:          m.Code,
		TotalCapacity: m.TotalCapacity,
		TotalShares:   m.TotalShares,
	}
}

// CapacityPoolModelFromDomain creates a persistence model from a domain CapacityPool
func CapacityPoolModelFromDomain(p equity.CapacityPool) *CapacityPoolModel {
	return &CapacityPoolModel{
		Code:          p.Code,
		TotalCapacity: p.TotalCapacity,
		TotalShares:   p.TotalShares,
	}
}

// All returns every persistence model, in dependency order, for AutoMigrate
func All() []any {
	return []any{
		&CapacityPoolModel{},
		&ShareholderModel{},
	}
}
