package repositories

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"fundmatch/ai-fund-matcher/internal/models"
)

// CostLedgerRepository persists the append-only record of upstream token
// spend. Daily-total enforcement reads the cache counters, not this table;
// the table is the audit trail.
type CostLedgerRepository interface {
	Create(entry *models.CostLedgerEntry) error
	SumForDay(identity string, day time.Time) (int64, error)
}

type costLedgerRepository struct {
	db *gorm.DB
}

func NewCostLedgerRepository(db *gorm.DB) CostLedgerRepository {
	return &costLedgerRepository{db: db}
}

// Create implements CostLedgerRepository.
func (r *costLedgerRepository) Create(entry *models.CostLedgerEntry) error {
	if err := r.db.Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create ledger entry: %w", err)
	}
	return nil
}

// SumForDay implements CostLedgerRepository. Used to rebuild a tenant's
// cached daily total when the counter is missing.
func (r *costLedgerRepository) SumForDay(identity string, day time.Time) (int64, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	var total int64
	err := r.db.Model(&models.CostLedgerEntry{}).
		Where("identity = ? AND created_at >= ? AND created_at < ?", identity, start, end).
		Select("COALESCE(SUM(cost_micro_usd), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum ledger entries: %w", err)
	}

	return total, nil
}
