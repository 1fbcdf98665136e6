package services

import (
	"fmt"
	"strings"

	"fundmatch/ai-fund-matcher/internal/models"
)

// Component share thresholds for the template rules.
const (
	strengthShare = 0.8
	cautionShare  = 0.5
)

// FallbackGenerator produces explanation and chat content from locally
// available data only: pure, zero I/O, zero failure modes. Its output uses
// the same sections as a real AI response, so callers cannot tell from shape
// alone that the upstream was unavailable.
type FallbackGenerator struct{}

func NewFallbackGenerator() *FallbackGenerator {
	return &FallbackGenerator{}
}

type component struct {
	name  string
	score float64
	max   float64
}

func components(b models.ScoreBreakdown) []component {
	return []component{
		{"industry alignment", b.Industry, models.MaxIndustryScore},
		{"technology readiness", b.TRL, models.MaxTRLScore},
		{"certifications", b.Certifications, models.MaxCertificationsScore},
		{"budget fit", b.Budget, models.MaxBudgetScore},
		{"R&D track record", b.Experience, models.MaxExperienceScore},
	}
}

// Explanation implements the fallback tier for Explain.
func (f *FallbackGenerator) Explanation(profile *models.OrganizationProfile, program *models.FundingProgram, breakdown models.ScoreBreakdown, verdict models.EligibilityVerdict) models.Content {
	content := models.Content{Source: models.SourceFallback}

	for _, c := range components(breakdown) {
		share := c.score / c.max
		switch {
		case share >= strengthShare:
			content.Strengths = append(content.Strengths,
				fmt.Sprintf("Your %s scores %.0f of %.0f points for %s, one of the strongest parts of this match.",
					c.name, c.score, c.max, program.Title))
		case share < cautionShare:
			content.Cautions = append(content.Cautions,
				fmt.Sprintf("Your %s scores %.0f of %.0f points, which weakens this match.",
					c.name, c.score, c.max))
			content.Recommendations = append(content.Recommendations, recommendationFor(c.name, program))
		}
	}

	for _, gate := range verdict.SectorGates {
		if gate.Passed {
			continue
		}
		content.Cautions = append(content.Cautions,
			fmt.Sprintf("%s requires %s certification, which %s does not currently hold (compliance readiness %d/100).",
				program.Title, gate.Certification, profile.Name, gate.Readiness))
		content.Recommendations = append(content.Recommendations,
			fmt.Sprintf("Start the %s certification process before the %s deadline; it is a hard requirement for this program.",
				gate.Certification, program.Deadline.Format("2006-01-02")))
	}

	if !verdict.OrgTypePassed {
		content.Cautions = append(content.Cautions,
			fmt.Sprintf("%s targets %s organizations, so %s cannot apply under its current registration.",
				program.Title, program.TargetType, profile.Name))
	}

	content.Summary = f.summarize(profile, program, breakdown, verdict)
	return content
}

func (f *FallbackGenerator) summarize(profile *models.OrganizationProfile, program *models.FundingProgram, breakdown models.ScoreBreakdown, verdict models.EligibilityVerdict) string {
	fit := "a moderate fit"
	switch {
	case breakdown.Total >= 80:
		fit = "a strong fit"
	case breakdown.Total < 50:
		fit = "a weak fit"
	}

	summary := fmt.Sprintf("%s scores %.0f of 100 points against %s (%s), making it %s based on industry alignment, technology readiness, certifications, budget fit and R&D track record.",
		profile.Name, breakdown.Total, program.Title, program.Agency, fit)

	if verdict.Blocked {
		summary += " Note that one or more eligibility requirements are not met yet, so the application would be blocked as things stand."
	} else {
		summary += fmt.Sprintf(" All eligibility requirements are met; applications close on %s.",
			program.Deadline.Format("2006-01-02"))
	}
	return summary
}

// ChatReply implements the fallback tier for Chat. The answer is keyed off
// the question's topic so it reads like a direct response, not a canned
// notice.
func (f *FallbackGenerator) ChatReply(profile *models.OrganizationProfile, program *models.FundingProgram, breakdown models.ScoreBreakdown, verdict models.EligibilityVerdict, userMessage string) models.Content {
	question := strings.ToLower(userMessage)

	var answer string
	switch {
	case containsAny(question, "deadline", "when", "date", "close"):
		answer = fmt.Sprintf("Applications for %s close on %s. With a match score of %.0f/100, it is worth preparing your submission ahead of that date.",
			program.Title, program.Deadline.Format("January 2, 2006"), breakdown.Total)

	case containsAny(question, "eligib", "qualify", "blocked", "requirement"):
		if verdict.Blocked {
			answer = fmt.Sprintf("As things stand, %s does not meet every requirement for %s: %s. The match score of %.0f/100 reflects the parts that do fit.",
				profile.Name, program.Title, blockedReasons(verdict), breakdown.Total)
		} else {
			answer = fmt.Sprintf("%s meets all of %s's eligibility requirements: the organization type, TRL range, revenue band and certification checks all pass.",
				profile.Name, program.Title)
		}

	case containsAny(question, "cert", "isms", "iso", "compliance"):
		answer = fmt.Sprintf("%s requires: %s. %s currently holds: %s, which earns %.0f of %.0f certification points.",
			program.Title, joinCerts(program.RequiredCerts), profile.Name,
			joinCerts(profile.Certifications), breakdown.Certifications, models.MaxCertificationsScore)

	case containsAny(question, "score", "point", "why", "how"):
		answer = fmt.Sprintf("The %.0f/100 score for %s breaks down as: industry %.0f/%.0f, TRL %.0f/%.0f, certifications %.0f/%.0f, budget %.0f/%.0f, experience %.0f/%.0f. The strongest areas carry the match; the weaker ones are where preparation effort pays off.",
			breakdown.Total, program.Title,
			breakdown.Industry, models.MaxIndustryScore,
			breakdown.TRL, models.MaxTRLScore,
			breakdown.Certifications, models.MaxCertificationsScore,
			breakdown.Budget, models.MaxBudgetScore,
			breakdown.Experience, models.MaxExperienceScore)

	default:
		answer = fmt.Sprintf("For %s, the headline numbers are a %.0f/100 match score and a %s deadline. %s",
			program.Title, breakdown.Total, program.Deadline.Format("January 2, 2006"),
			eligibilitySentence(profile, verdict))
	}

	return models.Content{
		Summary: answer,
		Source:  models.SourceFallback,
	}
}

func recommendationFor(componentName string, program *models.FundingProgram) string {
	switch componentName {
	case "industry alignment":
		return fmt.Sprintf("Review whether your sector registration reflects your actual work; %s is tagged for %s.",
			program.Title, strings.Join(program.Industries, ", "))
	case "technology readiness":
		return fmt.Sprintf("Document progress toward TRL %d-%d with prototypes or pilot results to close the readiness gap.",
			program.MinTRL, program.MaxTRL)
	case "certifications":
		return fmt.Sprintf("Obtain the missing certifications (%s requires: %s) to raise this component.",
			program.Title, joinCerts(program.RequiredCerts))
	case "budget fit":
		return "Check the program's revenue-band requirements against your latest filings; a different program tier may fit better."
	default:
		return "Build a track record with smaller R&D programs first to strengthen future applications."
	}
}

func blockedReasons(v models.EligibilityVerdict) string {
	var reasons []string
	if !v.OrgTypePassed {
		reasons = append(reasons, "the organization type is outside the program's target")
	}
	if !v.TRLPassed {
		reasons = append(reasons, "the technology readiness level is too far from the required range")
	}
	if !v.BudgetPassed {
		reasons = append(reasons, "the revenue band falls outside the program's limits")
	}
	for _, gate := range v.SectorGates {
		if !gate.Passed {
			reasons = append(reasons, fmt.Sprintf("the required %s certification is missing", gate.Certification))
		}
	}
	if len(reasons) == 0 {
		return "all checks pass"
	}
	return strings.Join(reasons, "; ")
}

func eligibilitySentence(profile *models.OrganizationProfile, v models.EligibilityVerdict) string {
	if v.Blocked {
		return fmt.Sprintf("Before applying, note that %s.", blockedReasons(v))
	}
	return fmt.Sprintf("%s passes every eligibility check for this program.", profile.Name)
}

func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
