package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"fundmatch/ai-fund-matcher/internal/models"
)

func makePrograms(n int) []models.FundingProgram {
	programs := make([]models.FundingProgram, n)
	for i := range programs {
		p := testProgram()
		programs[i] = *p
	}
	return programs
}

func TestScoreBatchOrdersByTotal(t *testing.T) {
	programs := makePrograms(3)
	// Program 0 loses the industry overlap, program 2 loses certifications.
	programs[0].Industries = []string{"biotech"}
	programs[2].RequiredCerts = []models.Certification{models.CertISMSP}

	scorer := NewBatchScorer(2)
	matches, err := scorer.ScoreBatch(context.Background(), testProfile(), programs, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(matches) != 3 {
		t.Fatalf("expected 3 matches, got %d", len(matches))
	}
	for i := 1; i < len(matches); i++ {
		if matches[i].ScoreBreakdown.Total > matches[i-1].ScoreBreakdown.Total {
			t.Errorf("matches out of order at %d: %.2f > %.2f",
				i, matches[i].ScoreBreakdown.Total, matches[i-1].ScoreBreakdown.Total)
		}
	}
	if matches[0].ScoreBreakdown.Total != 100 {
		t.Errorf("expected the untouched program first with 100, got %.2f", matches[0].ScoreBreakdown.Total)
	}
}

func TestScoreBatchTopN(t *testing.T) {
	scorer := NewBatchScorer(4)
	matches, err := scorer.ScoreBatch(context.Background(), testProfile(), makePrograms(10), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 3 {
		t.Errorf("expected top 3 matches, got %d", len(matches))
	}
}

func TestScoreBatchKeepsBlockedMatches(t *testing.T) {
	programs := makePrograms(2)
	programs[1].TargetType = models.TargetResearchInstitute

	scorer := NewBatchScorer(2)
	matches, err := scorer.ScoreBatch(context.Background(), testProfile(), programs, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	blocked := 0
	for _, m := range matches {
		if m.Eligibility.Blocked {
			blocked++
		}
	}
	if blocked != 1 {
		t.Errorf("expected 1 blocked match kept in results, got %d", blocked)
	}
}

func TestScoreBatchBoundsConcurrency(t *testing.T) {
	const poolSize = 3

	var inFlight, peak int64
	var mu sync.Mutex

	scorer := NewBatchScorer(poolSize)
	scorer.scoreFn = func(p *models.OrganizationProfile, pr *models.FundingProgram) (models.ScoreBreakdown, models.EligibilityVerdict, error) {
		current := atomic.AddInt64(&inFlight, 1)
		mu.Lock()
		if current > peak {
			peak = current
		}
		mu.Unlock()
		defer atomic.AddInt64(&inFlight, -1)
		return Score(p, pr)
	}

	if _, err := scorer.ScoreBatch(context.Background(), testProfile(), makePrograms(50), 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if peak > poolSize {
		t.Errorf("pool bound violated: observed %d concurrent scores, limit %d", peak, poolSize)
	}
}

func TestScoreBatchValidationFailsWhole(t *testing.T) {
	programs := makePrograms(3)
	programs[1].MinTRL = 8
	programs[1].MaxTRL = 2

	scorer := NewBatchScorer(2)
	_, err := scorer.ScoreBatch(context.Background(), testProfile(), programs, 0)
	if err == nil {
		t.Fatal("expected error for malformed program record")
	}
	if !IsValidationError(err) {
		t.Errorf("expected ValidationError, got %v", err)
	}
}

func TestScoreBatchCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	scorer := NewBatchScorer(1)
	_, err := scorer.ScoreBatch(ctx, testProfile(), makePrograms(100), 0)
	if err == nil {
		t.Fatal("expected context error")
	}
	if err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestScoreBatchDrainsPoolOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var active int64
	release := make(chan struct{})

	scorer := NewBatchScorer(2)
	scorer.scoreFn = func(p *models.OrganizationProfile, pr *models.FundingProgram) (models.ScoreBreakdown, models.EligibilityVerdict, error) {
		atomic.AddInt64(&active, 1)
		defer atomic.AddInt64(&active, -1)
		<-release
		return Score(p, pr)
	}

	go func() {
		for atomic.LoadInt64(&active) == 0 {
			time.Sleep(time.Millisecond)
		}
		cancel()
		close(release)
	}()

	_, err := scorer.ScoreBatch(ctx, testProfile(), makePrograms(100), 0)
	if err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if n := atomic.LoadInt64(&active); n != 0 {
		t.Errorf("%d workers still scoring after ScoreBatch returned", n)
	}
}
