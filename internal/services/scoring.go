package services

import (
	"fmt"

	"fundmatch/ai-fund-matcher/internal/models"
)

// trlGateDistance is how far outside a program's TRL range a profile may sit
// before the TRL gate fails. Inside that band the TRL component decays
// linearly per level of distance.
const trlGateDistance = 2

// Score evaluates one organization against one funding program. Pure and
// deterministic: no I/O, no clock, no randomness. A blocked match still gets
// its full breakdown so the verdict can be explained.
func Score(profile *models.OrganizationProfile, program *models.FundingProgram) (models.ScoreBreakdown, models.EligibilityVerdict, error) {
	if err := validateProfile(profile); err != nil {
		return models.ScoreBreakdown{}, models.EligibilityVerdict{}, err
	}
	if err := validateProgram(program); err != nil {
		return models.ScoreBreakdown{}, models.EligibilityVerdict{}, err
	}

	breakdown := models.ScoreBreakdown{
		Industry:       industryScore(profile, program),
		TRL:            trlScore(profile.TRL, program.MinTRL, program.MaxTRL),
		Certifications: certificationScore(profile, program),
		Budget:         budgetScore(profile, program),
		Experience:     experienceScore(profile.ProjectBand),
	}
	breakdown.Total = breakdown.Industry + breakdown.TRL + breakdown.Certifications +
		breakdown.Budget + breakdown.Experience

	verdict := evaluateGates(profile, program)

	return breakdown, verdict, nil
}

func validateProfile(profile *models.OrganizationProfile) error {
	if profile == nil {
		return NewValidationError("profile", "profile is required")
	}
	switch profile.Type {
	case models.OrgTypeCompany, models.OrgTypeResearchInstitute:
	default:
		return NewValidationError("profile.type", fmt.Sprintf("unknown organization type %q", profile.Type))
	}
	if profile.TRL < 1 || profile.TRL > 9 {
		return NewValidationError("profile.trl", fmt.Sprintf("TRL must be 1-9, got %d", profile.TRL))
	}
	if profile.RevenueBand < models.RevenueBandA || profile.RevenueBand > models.RevenueBandE {
		return NewValidationError("profile.revenue_band", "revenue band is missing or out of range")
	}
	return nil
}

func validateProgram(program *models.FundingProgram) error {
	if program == nil {
		return NewValidationError("program", "program is required")
	}
	if program.MinTRL < 1 || program.MaxTRL > 9 || program.MinTRL > program.MaxTRL {
		return NewValidationError("program.trl_range",
			fmt.Sprintf("invalid TRL range [%d, %d]", program.MinTRL, program.MaxTRL))
	}
	if program.MinRevenue > program.MaxRevenue {
		return NewValidationError("program.revenue_range", "min revenue band exceeds max")
	}
	switch program.TargetType {
	case models.TargetCompany, models.TargetResearchInstitute, models.TargetBoth:
	default:
		return NewValidationError("program.target_type", fmt.Sprintf("unknown target type %q", program.TargetType))
	}
	return nil
}

// industryScore is binary: any overlap between the profile's sectors and the
// program's industry tags earns full credit. No partial credit, so the signal
// stays interpretable.
func industryScore(profile *models.OrganizationProfile, program *models.FundingProgram) float64 {
	for _, sector := range profile.Sectors {
		for _, tag := range program.Industries {
			if sector == tag {
				return models.MaxIndustryScore
			}
		}
	}
	return 0
}

func trlDistance(trl, minTRL, maxTRL int) int {
	switch {
	case trl < minTRL:
		return minTRL - trl
	case trl > maxTRL:
		return trl - maxTRL
	default:
		return 0
	}
}

// trlScore gives full credit inside the range and decays by a third of the
// maximum per level of distance, reaching zero past the gate boundary.
func trlScore(trl, minTRL, maxTRL int) float64 {
	dist := trlDistance(trl, minTRL, maxTRL)
	if dist > trlGateDistance {
		return 0
	}
	return models.MaxTRLScore * float64(trlGateDistance+1-dist) / float64(trlGateDistance+1)
}

func certificationScore(profile *models.OrganizationProfile, program *models.FundingProgram) float64 {
	if len(program.RequiredCerts) == 0 {
		return models.MaxCertificationsScore
	}

	held := 0
	for _, required := range program.RequiredCerts {
		if profile.HoldsCertification(required) {
			held++
		}
	}
	return models.MaxCertificationsScore * float64(held) / float64(len(program.RequiredCerts))
}

func budgetScore(profile *models.OrganizationProfile, program *models.FundingProgram) float64 {
	if profile.RevenueBand >= program.MinRevenue && profile.RevenueBand <= program.MaxRevenue {
		return models.MaxBudgetScore
	}
	return 0
}

// experienceScore is a monotonically increasing step function of the prior
// R&D project band, independent of eligibility.
func experienceScore(band models.ProjectCountBand) float64 {
	switch band {
	case models.ProjectBandMany:
		return 15
	case models.ProjectBandSome:
		return 11
	case models.ProjectBandFew:
		return 7
	default:
		return 3
	}
}

// evaluateGates runs every pass/fail gate. Gates are evaluated after scoring
// so a blocked match still surfaces its breakdown.
func evaluateGates(profile *models.OrganizationProfile, program *models.FundingProgram) models.EligibilityVerdict {
	verdict := models.EligibilityVerdict{
		OrgTypePassed: program.TargetType.Accepts(profile.Type),
		TRLPassed:     trlDistance(profile.TRL, program.MinTRL, program.MaxTRL) <= trlGateDistance,
		BudgetPassed:  budgetScore(profile, program) > 0,
	}

	for _, cert := range program.HardGateCerts {
		gate := models.SectorGateResult{
			Certification: cert,
			Passed:        profile.HoldsCertification(cert),
		}
		if !gate.Passed {
			// Remediation readiness is supplied by the external compliance
			// checklist service; 0 when it has no estimate.
			gate.Readiness = profile.ComplianceReadiness[cert]
		}
		verdict.SectorGates = append(verdict.SectorGates, gate)
	}

	verdict.Blocked = !verdict.OrgTypePassed || !verdict.TRLPassed || !verdict.BudgetPassed
	for _, gate := range verdict.SectorGates {
		if !gate.Passed {
			verdict.Blocked = true
		}
	}

	return verdict
}
