package services

import (
	"fmt"
	"strings"

	"fundmatch/ai-fund-matcher/internal/models"
)

// Character budgets keep prompts bounded regardless of transcript or
// retrieved-context size.
const (
	maxContextChars    = 4000
	maxHistoryChars    = 4000
	maxUserMessageRune = 2000
)

type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// BuildExplanationPrompt creates the prompt for a match explanation. The
// model is asked for JSON so the response can be split into the same
// sections the fallback generator produces.
func (pb *PromptBuilder) BuildExplanationPrompt(profile *models.OrganizationProfile, program *models.FundingProgram, breakdown models.ScoreBreakdown, verdict models.EligibilityVerdict) string {
	return fmt.Sprintf(`You are an R&D funding consultant explaining why an organization matched a government funding program.

ORGANIZATION:
%s

FUNDING PROGRAM:
%s

SCORE BREAKDOWN (component/max):
%s

ELIGIBILITY:
%s

Explain this match to the organization in plain language. Ground every point in the score breakdown above; do not invent facts about the organization or the program.

Return your response in the following JSON format:
{
  "summary": "<2-3 sentence overall assessment>",
  "strengths": ["<each component scoring near its maximum>"],
  "cautions": ["<each weak component or gate at risk>"],
  "recommendations": ["<one concrete next step per weak area>"]
}

Be specific and concise. Use only the data provided.`,
		describeProfile(profile),
		describeProgram(program),
		describeBreakdown(breakdown),
		describeVerdict(verdict))
}

// BuildChatPrompt creates the prompt for one conversational turn about a
// match. History and retrieved context are truncated to the budget.
func (pb *PromptBuilder) BuildChatPrompt(profile *models.OrganizationProfile, program *models.FundingProgram, breakdown models.ScoreBreakdown, verdict models.EligibilityVerdict, history []models.Turn, ragContext, userMessage string) string {
	var b strings.Builder

	b.WriteString("You are an R&D funding consultant answering questions about a specific organization/program match.\n\n")
	fmt.Fprintf(&b, "ORGANIZATION:\n%s\n\n", describeProfile(profile))
	fmt.Fprintf(&b, "FUNDING PROGRAM:\n%s\n\n", describeProgram(program))
	fmt.Fprintf(&b, "SCORE BREAKDOWN (component/max):\n%s\n\n", describeBreakdown(breakdown))
	fmt.Fprintf(&b, "ELIGIBILITY:\n%s\n\n", describeVerdict(verdict))

	if ragContext = truncateRunes(ragContext, maxContextChars); ragContext != "" {
		fmt.Fprintf(&b, "PROGRAM GUIDELINE EXCERPTS:\n%s\n\n", ragContext)
	}

	if historyText := formatHistory(history); historyText != "" {
		fmt.Fprintf(&b, "CONVERSATION SO FAR:\n%s\n\n", truncateRunes(historyText, maxHistoryChars))
	}

	fmt.Fprintf(&b, "USER QUESTION:\n%s\n\n", truncateRunes(userMessage, maxUserMessageRune))
	b.WriteString("Answer the question directly in 2-5 sentences. Stay grounded in the data above; if the data cannot answer the question, say so and point to the agency contact.")

	return b.String()
}

func formatHistory(history []models.Turn) string {
	if len(history) == 0 {
		return ""
	}
	var parts []string
	for _, turn := range history {
		parts = append(parts, fmt.Sprintf("%s: %s", turn.Role, turn.Text))
	}
	return strings.Join(parts, "\n")
}

func describeProfile(p *models.OrganizationProfile) string {
	return fmt.Sprintf("- Name: %s\n- Type: %s\n- Sectors: %s\n- TRL: %d\n- Certifications: %s\n- Revenue band: %s\n- Prior R&D projects: %s",
		p.Name,
		p.Type,
		strings.Join(p.Sectors, ", "),
		p.TRL,
		joinCerts(p.Certifications),
		revenueBandLabel(p.RevenueBand),
		projectBandLabel(p.ProjectBand))
}

func describeProgram(p *models.FundingProgram) string {
	return fmt.Sprintf("- Title: %s\n- Agency: %s\n- Industries: %s\n- TRL range: %d-%d\n- Required certifications: %s\n- Applicant revenue: %s to %s\n- Target: %s\n- Deadline: %s",
		p.Title,
		p.Agency,
		strings.Join(p.Industries, ", "),
		p.MinTRL, p.MaxTRL,
		joinCerts(p.RequiredCerts),
		revenueBandLabel(p.MinRevenue), revenueBandLabel(p.MaxRevenue),
		p.TargetType,
		p.Deadline.Format("2006-01-02"))
}

func describeBreakdown(b models.ScoreBreakdown) string {
	return fmt.Sprintf("- Industry: %.1f/%.0f\n- TRL: %.1f/%.0f\n- Certifications: %.1f/%.0f\n- Budget: %.1f/%.0f\n- Experience: %.1f/%.0f\n- Total: %.1f/100",
		b.Industry, models.MaxIndustryScore,
		b.TRL, models.MaxTRLScore,
		b.Certifications, models.MaxCertificationsScore,
		b.Budget, models.MaxBudgetScore,
		b.Experience, models.MaxExperienceScore,
		b.Total)
}

func describeVerdict(v models.EligibilityVerdict) string {
	var parts []string
	parts = append(parts, fmt.Sprintf("- Organization type gate: %s", passLabel(v.OrgTypePassed)))
	parts = append(parts, fmt.Sprintf("- TRL gate: %s", passLabel(v.TRLPassed)))
	parts = append(parts, fmt.Sprintf("- Budget gate: %s", passLabel(v.BudgetPassed)))
	for _, gate := range v.SectorGates {
		label := passLabel(gate.Passed)
		if !gate.Passed {
			label = fmt.Sprintf("FAIL (compliance readiness %d/100)", gate.Readiness)
		}
		parts = append(parts, fmt.Sprintf("- %s sector gate: %s", gate.Certification, label))
	}
	if v.Blocked {
		parts = append(parts, "- Overall: BLOCKED (not eligible as-is)")
	} else {
		parts = append(parts, "- Overall: eligible")
	}
	return strings.Join(parts, "\n")
}

func passLabel(passed bool) string {
	if passed {
		return "pass"
	}
	return "FAIL"
}

func joinCerts(certs []models.Certification) string {
	if len(certs) == 0 {
		return "none"
	}
	parts := make([]string, 0, len(certs))
	for _, c := range certs {
		parts = append(parts, string(c))
	}
	return strings.Join(parts, ", ")
}

func revenueBandLabel(band models.RevenueBand) string {
	switch band {
	case models.RevenueBandA:
		return "under 1B KRW"
	case models.RevenueBandB:
		return "1B-10B KRW"
	case models.RevenueBandC:
		return "10B-50B KRW"
	case models.RevenueBandD:
		return "50B-100B KRW"
	case models.RevenueBandE:
		return "over 100B KRW"
	default:
		return "unknown"
	}
}

func projectBandLabel(band models.ProjectCountBand) string {
	switch band {
	case models.ProjectBandMany:
		return "10 or more"
	case models.ProjectBandSome:
		return "4-9"
	case models.ProjectBandFew:
		return "1-3"
	default:
		return "none"
	}
}

func truncateRunes(s string, limit int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

// extractJSON pulls a JSON object out of text that may be wrapped in
// markdown fences or prose.
func extractJSON(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start != -1 && end != -1 && end > start {
		return text[start : end+1]
	}
	return text
}

// FormatRetrievedContext renders knowledge-base hits for prompt inclusion.
func FormatRetrievedContext(results []SearchResult) string {
	if len(results) == 0 {
		return ""
	}

	var parts []string
	for i, result := range results {
		parts = append(parts, fmt.Sprintf("--- Excerpt %d (score %.2f) ---\n%s",
			i+1, result.Score, strings.TrimSpace(result.Text)))
	}
	return strings.Join(parts, "\n\n")
}
