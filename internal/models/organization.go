package models

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// OrgType is the organization variant tag. Gate evaluation switches on it
// exhaustively, so adding a new variant is a compile-visible change.
type OrgType string

const (
	OrgTypeCompany           OrgType = "COMPANY"
	OrgTypeResearchInstitute OrgType = "RESEARCH_INSTITUTE"
)

type Certification string

const (
	CertISMSP    Certification = "ISMS-P"
	CertKC       Certification = "KC"
	CertISO9001  Certification = "ISO-9001"
	CertISO27001 Certification = "ISO-27001"
	CertGS       Certification = "GS"
)

// RevenueBand is an ordered annual revenue bracket. Programs constrain
// applicants to a [min, max] band range.
type RevenueBand int

const (
	RevenueBandA RevenueBand = iota + 1 // under 1B KRW
	RevenueBandB                        // 1B - 10B KRW
	RevenueBandC                        // 10B - 50B KRW
	RevenueBandD                        // 50B - 100B KRW
	RevenueBandE                        // over 100B KRW
)

// ProjectCountBand buckets the number of prior R&D projects.
type ProjectCountBand int

const (
	ProjectBandNone ProjectCountBand = iota // no prior projects
	ProjectBandFew                          // 1-3
	ProjectBandSome                         // 4-9
	ProjectBandMany                         // 10+
)

type OrganizationProfile struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Name     string    `gorm:"type:text" json:"name"`
	Type     OrgType   `gorm:"type:text;not null" json:"type"`
	Sectors  []string  `gorm:"serializer:json" json:"sectors"`
	TRL      int       `json:"trl"`

	Certifications []Certification  `gorm:"serializer:json" json:"certifications"`
	RevenueBand    RevenueBand      `json:"revenue_band"`
	ProjectBand    ProjectCountBand `json:"project_band"`

	// ComplianceReadiness is a 0-100 distance-to-compliance estimate per
	// certification, supplied by the upstream compliance checklist service.
	// The engine reports it on failed sector gates, it never computes it.
	ComplianceReadiness map[Certification]int `gorm:"serializer:json" json:"compliance_readiness,omitempty"`

	CreatedAt time.Time `gorm:"type:timestamp;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:timestamp;default:now()" json:"updated_at"`
}

func (OrganizationProfile) TableName() string {
	return "organization_profiles"
}

// HoldsCertification reports whether the profile holds the given certification.
func (o *OrganizationProfile) HoldsCertification(cert Certification) bool {
	for _, held := range o.Certifications {
		if held == cert {
			return true
		}
	}
	return false
}

// Hash returns a stable digest of the profile fields that influence scoring
// and prompt building. It keys the explanation cache, so a profile edit
// produces a new cache key instead of serving a stale explanation.
func (o *OrganizationProfile) Hash() string {
	sectors := append([]string(nil), o.Sectors...)
	sort.Strings(sectors)

	certs := make([]string, 0, len(o.Certifications))
	for _, c := range o.Certifications {
		certs = append(certs, string(c))
	}
	sort.Strings(certs)

	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%d|%d|%d|%s|%s",
		o.ID,
		o.Type,
		o.TRL,
		o.RevenueBand,
		o.ProjectBand,
		strings.Join(sectors, ","),
		strings.Join(certs, ","),
	)
	return fmt.Sprintf("%x", h.Sum(nil))[:16]
}
