package services

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"

	"fundmatch/ai-fund-matcher/internal/cache"
	"fundmatch/ai-fund-matcher/internal/models"
	"fundmatch/ai-fund-matcher/internal/repositories"
)

// CostLedger records upstream token spend and answers the daily-total
// question that backs the budget ceiling. Entries are append-only rows; the
// running total per tenant is an atomic cache counter so concurrent requests
// cannot both slip under the ceiling.
type CostLedger interface {
	// Record computes the cost in micro-USD, appends a ledger row, bumps the
	// cached daily total and returns the cost.
	Record(ctx context.Context, identity string, kind models.AIRequestKind, inputTokens, outputTokens int32) (int64, error)

	// DailyTotal returns the tenant's spend so far today in micro-USD.
	DailyTotal(ctx context.Context, identity string) (int64, error)
}

type costLedger struct {
	repo  repositories.CostLedgerRepository
	cache cache.Cache

	// USD per 1K tokens.
	inputRate  float64
	outputRate float64

	now func() time.Time
}

func NewCostLedger(repo repositories.CostLedgerRepository, c cache.Cache, inputRate, outputRate float64) CostLedger {
	return &costLedger{
		repo:       repo,
		cache:      c,
		inputRate:  inputRate,
		outputRate: outputRate,
		now:        time.Now,
	}
}

func (l *costLedger) cost(inputTokens, outputTokens int32) int64 {
	usd := float64(inputTokens)/1000*l.inputRate + float64(outputTokens)/1000*l.outputRate
	return int64(math.Round(usd * 1e6))
}

func (l *costLedger) dailyKey(identity string) string {
	return fmt.Sprintf("cost:%s:%s", identity, l.now().UTC().Format("2006-01-02"))
}

// Record implements CostLedger.
func (l *costLedger) Record(ctx context.Context, identity string, kind models.AIRequestKind, inputTokens, outputTokens int32) (int64, error) {
	costMicro := l.cost(inputTokens, outputTokens)

	entry := &models.CostLedgerEntry{
		ID:           uuid.New(),
		Identity:     identity,
		Kind:         kind,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		CostMicroUSD: costMicro,
		CreatedAt:    l.now().UTC(),
	}
	if err := l.repo.Create(entry); err != nil {
		return 0, fmt.Errorf("failed to append ledger entry: %w", err)
	}

	if _, err := l.cache.Incr(ctx, l.dailyKey(identity), costMicro, 48*time.Hour); err != nil {
		return 0, fmt.Errorf("failed to update daily total: %w", err)
	}

	return costMicro, nil
}

// DailyTotal implements CostLedger. A missing counter is rebuilt from the
// ledger table, so a cache flush cannot reset a tenant's budget.
func (l *costLedger) DailyTotal(ctx context.Context, identity string) (int64, error) {
	raw, found, err := l.cache.Get(ctx, l.dailyKey(identity))
	if err != nil {
		return 0, fmt.Errorf("failed to read daily total: %w", err)
	}
	if found {
		total, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("daily total counter corrupt: %w", err)
		}
		return total, nil
	}

	total, err := l.repo.SumForDay(identity, l.now().UTC())
	if err != nil {
		return 0, err
	}
	if total > 0 {
		if _, err := l.cache.Incr(ctx, l.dailyKey(identity), total, 48*time.Hour); err != nil {
			return total, nil // counter rebuild is best-effort
		}
	}
	return total, nil
}
