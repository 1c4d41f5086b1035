package equity

import (
	"context"
	"fmt"

	"github.com/lending/equity/internal/domain/equity"
	"github.com/lending/equity/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DistributionService spreads a profit over the live shareholders of a pool
type DistributionService struct {
	poolCode    string
	reader      equity.ShareholderReader
	distributor equity.ProfitDistributor
	logger      *zap.Logger
}

// NewDistributionService creates a new DistributionService
func NewDistributionService(poolCode string, reader equity.ShareholderReader, logger *zap.Logger) *DistributionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DistributionService{
		poolCode:    poolCode,
		reader:      reader,
		distributor: equity.NewProfitDistributor(),
		logger:      logger,
	}
}

// Distribute computes each shareholder's part of totalProfit. It takes no lock.
func (s *DistributionService) Distribute(ctx context.Context, totalProfit decimal.Decimal) (*DistributionResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "distribution", "distribute",
		telemetry.WithAttribute("pool_code", s.poolCode))
	defer span.End()

	holders, err := s.reader.List(ctx, s.poolCode)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("read ledger: %w", err)
	}

	dist, err := s.distributor.Distribute(totalProfit, holders)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("Profit distributed",
		zap.String("pool_code", s.poolCode),
		zap.String("total_profit", totalProfit.String()),
		zap.String("adjustment", dist.Adjustment.String()),
		zap.Int("lines", len(dist.Lines)))

	return &DistributionResponse{PoolCode: s.poolCode, Distribution: dist}, nil
}
