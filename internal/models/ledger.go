package models

import (
	"time"

	"github.com/google/uuid"
)

// CostLedgerEntry is one append-only row per upstream AI call. Costs are
// stored in micro-USD so daily totals can be tracked with atomic integer
// increments in the cache layer.
type CostLedgerEntry struct {
	ID           uuid.UUID     `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Identity     string        `gorm:"type:text;not null;index" json:"identity"`
	Kind         AIRequestKind `gorm:"type:text;not null" json:"kind"`
	InputTokens  int32         `json:"input_tokens"`
	OutputTokens int32         `json:"output_tokens"`
	CostMicroUSD int64         `json:"cost_micro_usd"`
	CreatedAt    time.Time     `gorm:"type:timestamp;default:now();index" json:"created_at"`
}

func (CostLedgerEntry) TableName() string {
	return "cost_ledger_entries"
}
