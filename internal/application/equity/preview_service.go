package equity

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lending/equity/internal/domain/equity"
	"github.com/lending/equity/internal/domain/shared/strategy"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PreviewService derives the percentage and share count an amount would
// take. It reads the ledger without locking and never writes.
type PreviewService struct {
	calculator equity.AllocationCalculator
	ledger     equity.CapacityLedger
	reader     equity.ShareholderReader
	logger     *zap.Logger
}

// NewPreviewService creates a new PreviewService
func NewPreviewService(
	pool equity.CapacityPool,
	rounding strategy.ShareRoundingStrategy,
	reader equity.ShareholderReader,
	logger *zap.Logger,
) *PreviewService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PreviewService{
		calculator: equity.NewAllocationCalculator(pool, rounding),
		ledger:     equity.NewCapacityLedger(pool),
		reader:     reader,
		logger:     logger,
	}
}

// CalculatePreview returns the allocation amount would take. excludeID names
// a shareholder being edited, whose current amount does not count against
// the remaining capacity.
func (s *PreviewService) CalculatePreview(ctx context.Context, amount decimal.Decimal, excludeID *uuid.UUID) (*PreviewResponse, error) {
	pool := s.calculator.Pool()
	holders, err := s.reader.List(ctx, pool.Code)
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}

	snapshot := s.ledger.Snapshot(holders, excludeID)
	response := ToPreviewResponse(s.calculator.Preview(amount, snapshot))
	return &response, nil
}

// NewSession starts a preview session. debounce is how long a submission
// waits for a newer one before it is computed; zero computes immediately.
func (s *PreviewService) NewSession(debounce time.Duration) *PreviewSession {
	return &PreviewSession{
		service:  s,
		debounce: debounce,
		results:  make(chan PreviewResult, 1),
	}
}

// PreviewResult is the outcome of one submission
type PreviewResult struct {
	Generation uint64
	Preview    *PreviewResponse
	Err        error
}

// PreviewSession computes previews for a stream of edits to one amount.
// Each Submit supersedes the previous one: in-flight work is cancelled and a
// result is only delivered while its generation is still the latest.
type PreviewSession struct {
	service  *PreviewService
	debounce time.Duration
	results  chan PreviewResult

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
	closed     bool
	wg         sync.WaitGroup
}

// Submit schedules a preview and returns its generation.
// It returns 0 once the session is closed.
func (p *PreviewSession) Submit(ctx context.Context, amount decimal.Decimal, excludeID *uuid.UUID) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return 0
	}
	if p.cancel != nil {
		p.cancel()
	}
	p.drainLocked()

	p.generation++
	gen := p.generation

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.wg.Add(1)
	go p.run(runCtx, gen, amount, excludeID)

	return gen
}

// Results delivers previews for the latest submission. The channel is closed by Close.
func (p *PreviewSession) Results() <-chan PreviewResult {
	return p.results
}

// Latest returns the generation of the most recent submission
func (p *PreviewSession) Latest() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.generation
}

// Close cancels in-flight work, waits for it to stop and closes Results
func (p *PreviewSession) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	if p.cancel != nil {
		p.cancel()
	}
	p.mu.Unlock()

	p.wg.Wait()
	close(p.results)
}

func (p *PreviewSession) run(ctx context.Context, gen uint64, amount decimal.Decimal, excludeID *uuid.UUID) {
	defer p.wg.Done()

	if p.debounce > 0 {
		timer := time.NewTimer(p.debounce)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}

	preview, err := p.service.CalculatePreview(ctx, amount, excludeID)
	p.deliver(PreviewResult{Generation: gen, Preview: preview, Err: err})
}

func (p *PreviewSession) deliver(result PreviewResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || result.Generation != p.generation {
		p.service.logger.Debug("discarding stale preview",
			zap.Uint64("generation", result.Generation),
			zap.Uint64("latest", p.generation))
		return
	}
	p.drainLocked()
	p.results <- result
}

// drainLocked drops an undelivered result; the buffer holds at most one
func (p *PreviewSession) drainLocked() {
	select {
	case <-p.results:
	default:
	}
}
