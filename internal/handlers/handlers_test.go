package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"fundmatch/ai-fund-matcher/internal/models"
	"fundmatch/ai-fund-matcher/internal/services"
)

type stubOrgRepo struct {
	profile *models.OrganizationProfile
}

func (s *stubOrgRepo) FindByID(id uuid.UUID) (*models.OrganizationProfile, error) {
	if s.profile == nil || s.profile.ID != id {
		return nil, errors.New("organization not found")
	}
	return s.profile, nil
}

type stubProgramRepo struct {
	programs []models.FundingProgram
}

func (s *stubProgramRepo) FindByID(id uuid.UUID) (*models.FundingProgram, error) {
	for i := range s.programs {
		if s.programs[i].ID == id {
			return &s.programs[i], nil
		}
	}
	return nil, errors.New("program not found")
}

func (s *stubProgramRepo) ListOpen(now time.Time, limit int) ([]models.FundingProgram, error) {
	return s.programs, nil
}

type stubOrchestrator struct {
	content *models.Content
	cached  bool
	err     error
}

func (s *stubOrchestrator) Explain(ctx context.Context, identity string, plan services.QuotaPlan, profile *models.OrganizationProfile, program *models.FundingProgram, breakdown models.ScoreBreakdown, verdict models.EligibilityVerdict) (*models.Content, bool, error) {
	if s.err != nil {
		return nil, false, s.err
	}
	return s.content, s.cached, nil
}

func (s *stubOrchestrator) Chat(ctx context.Context, identity string, plan services.QuotaPlan, conversationID string, profile *models.OrganizationProfile, program *models.FundingProgram, breakdown models.ScoreBreakdown, verdict models.EligibilityVerdict, userMessage string) (*models.Content, string, error) {
	if s.err != nil {
		return nil, conversationID, s.err
	}
	if conversationID == "" {
		conversationID = "conv-new"
	}
	return s.content, conversationID, nil
}

func fixtureProfile() *models.OrganizationProfile {
	return &models.OrganizationProfile{
		ID:             uuid.New(),
		Name:           "Hanbit Robotics",
		Type:           models.OrgTypeCompany,
		Sectors:        []string{"robotics"},
		TRL:            6,
		Certifications: []models.Certification{models.CertISO9001},
		RevenueBand:    models.RevenueBandB,
		ProjectBand:    models.ProjectBandMany,
	}
}

func fixtureProgram() models.FundingProgram {
	return models.FundingProgram{
		ID:         uuid.New(),
		Title:      "Smart Robotics R&D 2026",
		Agency:     "MOTIE",
		Industries: []string{"robotics"},
		MinTRL:     4,
		MaxTRL:     7,
		MinRevenue: models.RevenueBandA,
		MaxRevenue: models.RevenueBandC,
		TargetType: models.TargetCompany,
		Deadline:   time.Now().Add(30 * 24 * time.Hour),
	}
}

func newTestApp(orgRepo *stubOrgRepo, programRepo *stubProgramRepo, orch services.Orchestrator) *fiber.App {
	app := fiber.New()

	matchHandler := NewMatchHandler(orgRepo, programRepo, services.NewBatchScorer(2))
	explanationHandler := NewExplanationHandler(orgRepo, programRepo, orch)
	chatHandler := NewChatHandler(orgRepo, programRepo, orch)

	api := app.Group("/api/v1")
	api.Post("/matches", matchHandler.HandleMatch)
	api.Get("/matches/:programID/explanation", explanationHandler.HandleExplanation)
	api.Post("/matches/:programID/chat", chatHandler.HandleChat)

	return app
}

func TestHandleMatchReturnsRankedMatches(t *testing.T) {
	profile := fixtureProfile()
	programs := []models.FundingProgram{fixtureProgram(), fixtureProgram()}
	programs[1].Industries = []string{"biotech"}

	app := newTestApp(&stubOrgRepo{profile: profile}, &stubProgramRepo{programs: programs}, &stubOrchestrator{})

	body, _ := json.Marshal(models.MatchRequest{OrganizationID: profile.ID.String()})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/matches", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result models.MatchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if result.Total != 2 {
		t.Fatalf("expected 2 matches, got %d", result.Total)
	}
	if result.Matches[0].ScoreBreakdown.Total < result.Matches[1].ScoreBreakdown.Total {
		t.Error("matches not ordered by score")
	}
}

func TestHandleMatchUnknownOrganization(t *testing.T) {
	app := newTestApp(&stubOrgRepo{}, &stubProgramRepo{}, &stubOrchestrator{})

	body, _ := json.Marshal(models.MatchRequest{OrganizationID: uuid.New().String()})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/matches", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

func TestHandleExplanationSuccess(t *testing.T) {
	profile := fixtureProfile()
	program := fixtureProgram()
	orch := &stubOrchestrator{content: &models.Content{Summary: "Looks good."}, cached: true}

	app := newTestApp(&stubOrgRepo{profile: profile}, &stubProgramRepo{programs: []models.FundingProgram{program}}, orch)

	url := fmt.Sprintf("/api/v1/matches/%s/explanation?organization_id=%s", program.ID, profile.ID)
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, url, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result models.ExplanationResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if result.Content.Summary != "Looks good." || !result.Cached {
		t.Errorf("unexpected response: %+v", result)
	}
}

func TestQuotaErrorsMapTo429(t *testing.T) {
	tests := []struct {
		err    error
		reason string
	}{
		{services.ErrRateLimited, "rate_limited"},
		{services.ErrBudgetExceeded, "budget_exceeded"},
	}

	for _, tt := range tests {
		profile := fixtureProfile()
		program := fixtureProgram()
		app := newTestApp(
			&stubOrgRepo{profile: profile},
			&stubProgramRepo{programs: []models.FundingProgram{program}},
			&stubOrchestrator{err: tt.err},
		)

		url := fmt.Sprintf("/api/v1/matches/%s/explanation?organization_id=%s", program.ID, profile.ID)
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, url, nil))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.StatusCode != http.StatusTooManyRequests {
			t.Fatalf("%v: expected 429, got %d", tt.err, resp.StatusCode)
		}

		var body struct {
			Reason string `json:"reason"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("invalid response body: %v", err)
		}
		if body.Reason != tt.reason {
			t.Errorf("%v: expected reason %q, got %q", tt.err, tt.reason, body.Reason)
		}
	}
}

func TestHandleChatSuccess(t *testing.T) {
	profile := fixtureProfile()
	program := fixtureProgram()
	orch := &stubOrchestrator{content: &models.Content{Summary: "The deadline is in June."}}

	app := newTestApp(&stubOrgRepo{profile: profile}, &stubProgramRepo{programs: []models.FundingProgram{program}}, orch)

	body, _ := json.Marshal(models.ChatRequest{
		OrganizationID: profile.ID.String(),
		Message:        "When is the deadline?",
	})
	url := fmt.Sprintf("/api/v1/matches/%s/chat", program.ID)
	req := httptest.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result models.ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if result.ConversationID != "conv-new" {
		t.Errorf("no conversation id assigned: %+v", result)
	}
	if result.Content.Summary != "The deadline is in June." {
		t.Errorf("unexpected content: %+v", result.Content)
	}
}

func TestHandleChatMissingMessage(t *testing.T) {
	profile := fixtureProfile()
	program := fixtureProgram()
	app := newTestApp(&stubOrgRepo{profile: profile}, &stubProgramRepo{programs: []models.FundingProgram{program}}, &stubOrchestrator{})

	body, _ := json.Marshal(models.ChatRequest{OrganizationID: profile.ID.String()})
	url := fmt.Sprintf("/api/v1/matches/%s/chat", program.ID)
	req := httptest.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}
