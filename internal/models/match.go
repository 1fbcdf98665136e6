package models

// Maximum points per score component. Totals are capped at 100.
const (
	MaxIndustryScore       = 30.0
	MaxTRLScore            = 20.0
	MaxCertificationsScore = 20.0
	MaxBudgetScore         = 15.0
	MaxExperienceScore     = 15.0
)

type ScoreBreakdown struct {
	Industry       float64 `json:"industry"`
	TRL            float64 `json:"trl"`
	Certifications float64 `json:"certifications"`
	Budget         float64 `json:"budget"`
	Experience     float64 `json:"experience"`
	Total          float64 `json:"total"`
}

// SectorGateResult reports a certification-based hard gate. Readiness is the
// externally supplied 0-100 distance-to-compliance estimate, only meaningful
// when the gate failed.
type SectorGateResult struct {
	Certification Certification `json:"certification"`
	Passed        bool          `json:"passed"`
	Readiness     int           `json:"readiness,omitempty"`
}

// EligibilityVerdict carries every gate outcome. A blocked match still has a
// score so callers can explain why it was blocked.
type EligibilityVerdict struct {
	OrgTypePassed bool               `json:"org_type_passed"`
	TRLPassed     bool               `json:"trl_passed"`
	BudgetPassed  bool               `json:"budget_passed"`
	SectorGates   []SectorGateResult `json:"sector_gates,omitempty"`
	Blocked       bool               `json:"blocked"`
}

type Match struct {
	Program        FundingProgram     `json:"program"`
	ScoreBreakdown ScoreBreakdown     `json:"score_breakdown"`
	Eligibility    EligibilityVerdict `json:"eligibility"`
}

type MatchRequest struct {
	OrganizationID string `json:"organization_id" validate:"required,uuid"`
	TopN           int    `json:"top_n"`
}

type MatchResponse struct {
	OrganizationID string  `json:"organization_id"`
	Matches        []Match `json:"matches"`
	Total          int     `json:"total"`
}

type ExplanationResponse struct {
	Content Content `json:"content"`
	Cached  bool    `json:"cached"`
}

type ChatRequest struct {
	OrganizationID string `json:"organization_id" validate:"required,uuid"`
	ConversationID string `json:"conversation_id,omitempty"`
	Message        string `json:"message" validate:"required"`
}

type ChatResponse struct {
	ConversationID string  `json:"conversation_id"`
	Content        Content `json:"content"`
}
