package equity_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	appequity "github.com/lending/equity/internal/application/equity"
	"github.com/lending/equity/internal/domain/equity"
	"github.com/lending/equity/internal/domain/shared"
	"github.com/lending/equity/internal/infrastructure/lock"
	"github.com/lending/equity/internal/infrastructure/persistence"
	"github.com/lending/equity/internal/infrastructure/persistence/models"
	"github.com/lending/equity/internal/infrastructure/strategy/rounding"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// recordingPublisher keeps every published event in order
type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

type harness struct {
	db        *gorm.DB
	pool      equity.CapacityPool
	repo      *persistence.GormShareholderRepository
	scope     *persistence.GormEquityTransactionScope
	service   *appequity.ShareholderService
	previews  *appequity.PreviewService
	profits   *appequity.DistributionService
	publisher *recordingPublisher
}

// newHarness wires the services over an in-memory SQLite database holding
// an ensured pool of the given capacity and share count.
func newHarness(t *testing.T, capacity, shares int64) *harness {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))

	pool, err := equity.NewCapacityPool(equity.DefaultPoolCode, decimal.NewFromInt(capacity), shares)
	require.NoError(t, err)

	h := &harness{db: db, pool: pool}
	h.repo = persistence.NewGormShareholderRepository(db)
	h.scope = persistence.NewGormEquityTransactionScope(db, lock.NewMemoryPoolLocker())
	h.publisher = &recordingPublisher{}
	h.service = h.newService(pool)
	h.previews = appequity.NewPreviewService(pool, rounding.NewHalfUpRoundingStrategy(), h.repo, nil)
	h.profits = appequity.NewDistributionService(pool.Code, h.repo, nil)

	require.NoError(t, h.service.EnsurePool(context.Background()))
	return h
}

// newService builds another service on the same database, for pool changes
func (h *harness) newService(pool equity.CapacityPool) *appequity.ShareholderService {
	svc := appequity.NewShareholderService(pool, rounding.NewHalfUpRoundingStrategy(), h.repo, h.scope, nil)
	svc.SetEventPublisher(h.publisher)
	return svc
}

func (h *harness) create(t *testing.T, in appequity.CreateShareholderInput) *appequity.ShareholderResponse {
	t.Helper()
	resp, err := h.service.Create(context.Background(), in)
	require.NoError(t, err)
	return resp
}

func (h *harness) live(t *testing.T) []equity.Shareholder {
	t.Helper()
	holders, err := h.repo.List(context.Background(), h.pool.Code)
	require.NoError(t, err)
	return holders
}

// input returns a valid create input; n keeps identifiers unique per test
func input(n int, amount string) appequity.CreateShareholderInput {
	return appequity.CreateShareholderInput{
		Name:           "Shareholder " + string(rune('A'+n)),
		NationalID:     fmt.Sprintf("%09dV", 941234560+n),
		Contact:        fmt.Sprintf("%010d", 771234560+n),
		Address:        "45 Galle Road, Colombo 03",
		InvestedAmount: amount,
	}
}

func ptr(s string) *string {
	return &s
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
