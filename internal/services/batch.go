package services

import (
	"context"
	"sort"
	"sync"

	"fundmatch/ai-fund-matcher/internal/models"
)

// BatchScorer scores one organization against many programs across a bounded
// worker pool. Scoring is CPU-bound and never blocks on I/O, so there is no
// per-item timeout; the pool bound keeps a large batch from starving the AI
// path.
type BatchScorer struct {
	poolSize int

	// scoreFn is swapped in tests to observe pool behavior.
	scoreFn func(*models.OrganizationProfile, *models.FundingProgram) (models.ScoreBreakdown, models.EligibilityVerdict, error)
}

func NewBatchScorer(poolSize int) *BatchScorer {
	if poolSize <= 0 {
		poolSize = 4
	}
	return &BatchScorer{
		poolSize: poolSize,
		scoreFn:  Score,
	}
}

// ScoreBatch scores every program and returns the top N matches ordered by
// total score. Blocked matches are kept, flagged, and ranked like any other;
// a validation failure on any record fails the whole batch.
func (b *BatchScorer) ScoreBatch(ctx context.Context, profile *models.OrganizationProfile, programs []models.FundingProgram, topN int) ([]models.Match, error) {
	if err := validateProfile(profile); err != nil {
		return nil, err
	}

	matches := make([]models.Match, len(programs))
	errs := make([]error, len(programs))

	sem := make(chan struct{}, b.poolSize)
	var wg sync.WaitGroup

	for i := range programs {
		select {
		case <-ctx.Done():
			// Drain in-flight workers so no goroutine writes into the
			// result slices after we return.
			wg.Wait()
			return nil, ctx.Err()
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()

			breakdown, verdict, err := b.scoreFn(profile, &programs[i])
			if err != nil {
				errs[i] = err
				return
			}
			matches[i] = models.Match{
				Program:        programs[i],
				ScoreBreakdown: breakdown,
				Eligibility:    verdict,
			}
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].ScoreBreakdown.Total > matches[j].ScoreBreakdown.Total
	})

	if topN > 0 && topN < len(matches) {
		matches = matches[:topN]
	}

	return matches, nil
}
