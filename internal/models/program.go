package models

import (
	"time"

	"github.com/google/uuid"
)

// TargetType filters which organization variants a program accepts.
type TargetType string

const (
	TargetCompany           TargetType = "COMPANY"
	TargetResearchInstitute TargetType = "RESEARCH_INSTITUTE"
	TargetBoth              TargetType = "BOTH"
)

// Accepts reports whether the program accepts the given organization type.
// TargetBoth acts as a wildcard.
func (t TargetType) Accepts(orgType OrgType) bool {
	switch t {
	case TargetBoth:
		return true
	case TargetCompany:
		return orgType == OrgTypeCompany
	case TargetResearchInstitute:
		return orgType == OrgTypeResearchInstitute
	default:
		return false
	}
}

// FundingProgram is a catalog record produced by the upstream ingestion
// pipeline. The engine only reads it.
type FundingProgram struct {
	ID     uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Title  string    `gorm:"type:text" json:"title"`
	Agency string    `gorm:"type:text" json:"agency"`

	Industries []string `gorm:"serializer:json" json:"industries"`
	MinTRL     int      `json:"min_trl"`
	MaxTRL     int      `json:"max_trl"`

	RequiredCerts []Certification `gorm:"serializer:json" json:"required_certs"`
	// HardGateCerts are the subset of required certifications flagged as
	// mandatory sector gates (e.g. an ISMS-P-mandatory security program).
	HardGateCerts []Certification `gorm:"serializer:json" json:"hard_gate_certs"`

	MinRevenue RevenueBand `json:"min_revenue"`
	MaxRevenue RevenueBand `json:"max_revenue"`

	TargetType TargetType `gorm:"type:text;not null" json:"target_type"`
	Deadline   time.Time  `json:"deadline"`

	CreatedAt time.Time `gorm:"type:timestamp;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:timestamp;default:now()" json:"updated_at"`
}

func (FundingProgram) TableName() string {
	return "funding_programs"
}
