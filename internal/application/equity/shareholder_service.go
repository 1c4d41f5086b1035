package equity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lending/equity/internal/domain/equity"
	"github.com/lending/equity/internal/domain/shared"
	"github.com/lending/equity/internal/domain/shared/strategy"
	"github.com/lending/equity/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Mutation operation names used in logs, spans and metrics
const (
	OperationCreate = "create"
	OperationUpdate = "update"
	OperationDelete = "delete"
	OperationEnsure = "ensure_pool"
)

// ShareholderService creates, edits and removes shareholders of one pool.
// Every mutation re-reads the ledger and re-validates under the pool lock, so
// the sum of invested amounts never exceeds the pool capacity.
type ShareholderService struct {
	pool           equity.CapacityPool
	calculator     equity.AllocationCalculator
	ledger         equity.CapacityLedger
	repo           equity.ShareholderRepository
	scope          TransactionScope
	eventPublisher shared.EventPublisher
	metrics        *telemetry.EquityMetrics
	logger         *zap.Logger
}

// NewShareholderService creates a new ShareholderService
func NewShareholderService(
	pool equity.CapacityPool,
	rounding strategy.ShareRoundingStrategy,
	repo equity.ShareholderRepository,
	scope TransactionScope,
	logger *zap.Logger,
) *ShareholderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ShareholderService{
		pool:       pool,
		calculator: equity.NewAllocationCalculator(pool, rounding),
		ledger:     equity.NewCapacityLedger(pool),
		repo:       repo,
		scope:      scope,
		logger:     logger.With(zap.String("pool_code", pool.Code)),
	}
}

// SetEventPublisher sets the publisher that receives committed domain events
func (s *ShareholderService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetEquityMetrics sets the metrics collector
func (s *ShareholderService) SetEquityMetrics(m *telemetry.EquityMetrics) {
	s.metrics = m
}

// Pool returns the pool the service mutates
func (s *ShareholderService) Pool() equity.CapacityPool {
	return s.pool
}

// EnsurePool writes the configured pool row and re-derives every stored
// percentage and share count from it. It fails with INVALID_POOL_CAPACITY
// when the configured capacity is below what is already invested.
func (s *ShareholderService) EnsurePool(ctx context.Context) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "shareholder", OperationEnsure,
		telemetry.WithAttribute("pool_code", s.pool.Code))
	defer span.End()

	err := s.scope.Execute(ctx, s.pool.Code, func(repos TransactionalRepositories) error {
		if err := repos.Pools().EnsurePool(ctx, s.pool); err != nil {
			return fmt.Errorf("ensure pool row: %w", err)
		}
		if err := repos.Pools().LockPool(ctx, s.pool.Code); err != nil {
			return fmt.Errorf("lock pool row: %w", err)
		}

		holders, err := repos.Shareholders().List(ctx, s.pool.Code)
		if err != nil {
			return fmt.Errorf("read ledger: %w", err)
		}
		snapshot := s.ledger.Snapshot(holders, nil)
		if snapshot.RemainingCapacity.IsNegative() {
			return shared.NewDomainError("INVALID_POOL_CAPACITY",
				fmt.Sprintf("Pool capacity %s is below the invested total %s",
					s.pool.TotalCapacity.StringFixed(2), snapshot.TotalInvested.StringFixed(2)))
		}

		for i := range holders {
			h := &holders[i]
			pct := s.pool.PercentageOf(h.InvestedAmount)
			if pct.Equal(h.Percentage) {
				continue
			}
			h.Percentage = pct
			if err := repos.Shareholders().Update(ctx, h); err != nil {
				return fmt.Errorf("recalibrate shareholder %s: %w", h.ID, err)
			}
		}

		_, err = s.reapportion(ctx, repos.Shareholders())
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Error("Failed to ensure pool", zap.Error(err))
		return err
	}

	s.logger.Info("Pool ensured",
		zap.String("total_capacity", s.pool.TotalCapacity.String()),
		zap.Int64("total_shares", s.pool.TotalShares))
	return nil
}

// Create validates and persists a new shareholder
func (s *ShareholderService) Create(ctx context.Context, in CreateShareholderInput) (*ShareholderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "shareholder", OperationCreate,
		telemetry.WithAttribute("pool_code", s.pool.Code))
	defer span.End()
	start := time.Now()

	var created *equity.Shareholder
	var position equity.LedgerSnapshot
	var allocated int64

	err := s.scope.Execute(ctx, s.pool.Code, func(repos TransactionalRepositories) error {
		if err := repos.Pools().LockPool(ctx, s.pool.Code); err != nil {
			return fmt.Errorf("lock pool row: %w", err)
		}

		engine := equity.NewValidationEngine(s.calculator, repos.Shareholders())
		report, err := engine.Validate(ctx, in.candidate(), nil)
		if err != nil {
			return err
		}
		if err := report.Err(); err != nil {
			return err
		}

		sh, err := equity.NewShareholder(s.pool, report.Details)
		if err != nil {
			return err
		}
		if err := repos.Shareholders().Insert(ctx, sh); err != nil {
			return wrapWrite("insert shareholder", err)
		}

		result, err := s.reapportion(ctx, repos.Shareholders())
		if err != nil {
			return err
		}
		sh.SetShareCount(result.counts[sh.ID])
		created, position, allocated = sh, result.snapshot, result.allocated
		return nil
	})
	if err != nil {
		s.reject(ctx, span, OperationCreate, start, err)
		return nil, err
	}

	s.commit(ctx, span, OperationCreate, start, created, position, allocated)
	response := ToShareholderResponse(created)
	return &response, nil
}

// Update applies a patch to an existing shareholder. Fields left nil keep
// their stored values; the merged record is validated as a whole.
func (s *ShareholderService) Update(ctx context.Context, id uuid.UUID, in UpdateShareholderInput) (*ShareholderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "shareholder", OperationUpdate,
		telemetry.WithAttribute("pool_code", s.pool.Code),
		telemetry.WithAttribute("shareholder_id", id.String()))
	defer span.End()
	start := time.Now()

	var updated *equity.Shareholder
	var position equity.LedgerSnapshot
	var allocated int64

	err := s.scope.Execute(ctx, s.pool.Code, func(repos TransactionalRepositories) error {
		if err := repos.Pools().LockPool(ctx, s.pool.Code); err != nil {
			return fmt.Errorf("lock pool row: %w", err)
		}

		existing, err := s.findInPool(ctx, repos.Shareholders(), id)
		if err != nil {
			return err
		}

		candidate := in.applyTo(equity.CandidateFromDetails(existing.Details()))
		engine := equity.NewValidationEngine(s.calculator, repos.Shareholders())
		report, err := engine.Validate(ctx, candidate, &id)
		if err != nil {
			return err
		}
		if err := report.Err(); err != nil {
			return err
		}

		if err := existing.Revise(s.pool, report.Details); err != nil {
			return err
		}
		if err := repos.Shareholders().Update(ctx, existing); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return equity.NewNotFoundError(id)
			}
			return wrapWrite("update shareholder", err)
		}

		result, err := s.reapportion(ctx, repos.Shareholders())
		if err != nil {
			return err
		}
		existing.SetShareCount(result.counts[existing.ID])
		updated, position, allocated = existing, result.snapshot, result.allocated
		return nil
	})
	if err != nil {
		s.reject(ctx, span, OperationUpdate, start, err)
		return nil, err
	}

	s.commit(ctx, span, OperationUpdate, start, updated, position, allocated)
	response := ToShareholderResponse(updated)
	return &response, nil
}

// Delete removes a shareholder and frees its capacity
func (s *ShareholderService) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "shareholder", OperationDelete,
		telemetry.WithAttribute("pool_code", s.pool.Code),
		telemetry.WithAttribute("shareholder_id", id.String()))
	defer span.End()
	start := time.Now()

	var deleted *equity.Shareholder
	var position equity.LedgerSnapshot
	var allocated int64

	err := s.scope.Execute(ctx, s.pool.Code, func(repos TransactionalRepositories) error {
		if err := repos.Pools().LockPool(ctx, s.pool.Code); err != nil {
			return fmt.Errorf("lock pool row: %w", err)
		}

		existing, err := s.findInPool(ctx, repos.Shareholders(), id)
		if err != nil {
			return err
		}
		if err := repos.Shareholders().Delete(ctx, id); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return equity.NewNotFoundError(id)
			}
			return fmt.Errorf("delete shareholder: %w", err)
		}
		existing.MarkDeleted()

		result, err := s.reapportion(ctx, repos.Shareholders())
		if err != nil {
			return err
		}
		deleted, position, allocated = existing, result.snapshot, result.allocated
		return nil
	})
	if err != nil {
		s.reject(ctx, span, OperationDelete, start, err)
		return err
	}

	s.commit(ctx, span, OperationDelete, start, deleted, position, allocated)
	return nil
}

// GetByID retrieves a shareholder of the pool
func (s *ShareholderService) GetByID(ctx context.Context, id uuid.UUID) (*ShareholderResponse, error) {
	sh, err := s.findInPool(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	response := ToShareholderResponse(sh)
	return &response, nil
}

// List retrieves a page of shareholders with search and ordering
func (s *ShareholderService) List(ctx context.Context, filter ShareholderListFilter) (*shared.Paginated[ShareholderResponse], error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "created_at"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "asc"
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   strings.TrimSpace(filter.Search),
	}

	holders, err := s.repo.FindAll(ctx, s.pool.Code, domainFilter)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.Count(ctx, s.pool.Code, domainFilter)
	if err != nil {
		return nil, err
	}

	page := shared.NewPaginated(ToShareholderResponses(holders), total, filter.Page, filter.PageSize)
	return &page, nil
}

// Summary reports the capacity position of the pool. It takes no lock.
func (s *ShareholderService) Summary(ctx context.Context) (*PoolSummaryResponse, error) {
	holders, err := s.repo.List(ctx, s.pool.Code)
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	snapshot := s.ledger.Snapshot(holders, nil)

	var allocated int64
	for i := range holders {
		allocated += holders[i].ShareCount
	}

	return &PoolSummaryResponse{
		PoolCode:            s.pool.Code,
		TotalCapacity:       snapshot.Capacity,
		TotalInvested:       snapshot.TotalInvested,
		RemainingCapacity:   snapshot.RemainingCapacity,
		AllocatedPercentage: s.pool.PercentageOf(snapshot.TotalInvested),
		TotalShares:         s.pool.TotalShares,
		AllocatedShares:     allocated,
		HolderCount:         snapshot.HolderCount,
		RoundingStrategy:    s.calculator.Rounding().Name(),
	}, nil
}

func (s *ShareholderService) findInPool(ctx context.Context, repo equity.ShareholderRepository, id uuid.UUID) (*equity.Shareholder, error) {
	sh, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, equity.NewNotFoundError(id)
		}
		return nil, fmt.Errorf("find shareholder: %w", err)
	}
	if sh.PoolCode != s.pool.Code {
		return nil, equity.NewNotFoundError(id)
	}
	return sh, nil
}

type apportionment struct {
	counts    map[uuid.UUID]int64
	allocated int64
	snapshot  equity.LedgerSnapshot
}

// reapportion re-reads the pool after a write, checks the capacity invariant
// and stores any share counts that changed.
func (s *ShareholderService) reapportion(ctx context.Context, repo equity.ShareholderRepository) (apportionment, error) {
	holders, err := repo.List(ctx, s.pool.Code)
	if err != nil {
		return apportionment{}, fmt.Errorf("read ledger after write: %w", err)
	}

	snapshot := s.ledger.Snapshot(holders, nil)
	if snapshot.RemainingCapacity.IsNegative() {
		return apportionment{}, equity.NewCapacityExceededError(snapshot.RemainingCapacity, nil)
	}

	holdings := make([]strategy.ShareHolding, len(holders))
	for i := range holders {
		holdings[i] = strategy.ShareHolding{ID: holders[i].ID, Percentage: holders[i].Percentage}
	}
	result, err := s.calculator.Rounding().Apportion(ctx, s.pool.TotalShares, holdings)
	if err != nil {
		return apportionment{}, fmt.Errorf("apportion shares: %w", err)
	}

	changed := make(map[uuid.UUID]int64)
	for i := range holders {
		if n := result.Counts[holders[i].ID]; n != holders[i].ShareCount {
			changed[holders[i].ID] = n
		}
	}
	if len(changed) > 0 {
		if err := repo.UpdateShareCounts(ctx, changed); err != nil {
			return apportionment{}, fmt.Errorf("store share counts: %w", err)
		}
	}

	return apportionment{counts: result.Counts, allocated: result.Total, snapshot: snapshot}, nil
}

func (s *ShareholderService) commit(
	ctx context.Context,
	span trace.Span,
	operation string,
	start time.Time,
	sh *equity.Shareholder,
	position equity.LedgerSnapshot,
	allocated int64,
) {
	telemetry.SetOK(span)

	events := sh.GetDomainEvents()
	sh.ClearDomainEvents()
	if s.eventPublisher != nil && len(events) > 0 {
		if err := s.eventPublisher.Publish(ctx, events...); err != nil {
			// The mutation is already committed; subscribers are best-effort.
			s.logger.Error("Failed to publish domain events",
				zap.String("operation", operation),
				zap.Error(err))
		}
	}

	if s.metrics != nil {
		s.metrics.RecordMutation(ctx, s.pool.Code, operation, telemetry.OutcomeCommitted, time.Since(start))
		s.metrics.RecordPoolPosition(ctx, telemetry.PoolPosition{
			PoolCode:          s.pool.Code,
			TotalInvested:     position.TotalInvested,
			RemainingCapacity: position.RemainingCapacity,
			HolderCount:       position.HolderCount,
			AllocatedShares:   allocated,
		})
	}

	s.logger.Info("Shareholder mutation committed",
		zap.String("operation", operation),
		zap.String("shareholder_id", sh.ID.String()),
		zap.String("invested_amount", sh.InvestedAmount.String()),
		zap.String("remaining_capacity", position.RemainingCapacity.String()))
}

func (s *ShareholderService) reject(ctx context.Context, span trace.Span, operation string, start time.Time, err error) {
	outcome := telemetry.OutcomeFailed
	if me, ok := equity.AsMutationError(err); ok {
		outcome = telemetry.OutcomeRejected
		telemetry.SetAttribute(span, "rejection", string(me.Kind))
		s.logger.Warn("Shareholder mutation rejected",
			zap.String("operation", operation),
			zap.String("kind", string(me.Kind)),
			zap.Strings("fields", me.Fields.Fields()))
	} else {
		telemetry.RecordError(span, err)
		s.logger.Error("Shareholder mutation failed",
			zap.String("operation", operation),
			zap.Error(err))
	}

	if s.metrics != nil {
		s.metrics.RecordMutation(ctx, s.pool.Code, operation, outcome, time.Since(start))
	}
}

// wrapWrite keeps typed rejections from the repository intact and wraps
// everything else as an infrastructure failure
func wrapWrite(op string, err error) error {
	if _, ok := equity.AsMutationError(err); ok {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}
