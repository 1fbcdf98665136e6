package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"fundmatch/ai-fund-matcher/internal/cache"
	"fundmatch/ai-fund-matcher/internal/models"
)

// Orchestrator owns every upstream AI call: explanation generation and chat
// turns. It consults the cache, rate limiter, budget and circuit breaker in
// that order, and degrades to the fallback generator on any upstream
// trouble. Only rate-limit and budget denials propagate to the caller.
type Orchestrator interface {
	// Explain returns explanation content for a match and whether it came
	// from the cache. Cache hits are free: no quota, no breaker probe.
	Explain(ctx context.Context, identity string, plan QuotaPlan, profile *models.OrganizationProfile, program *models.FundingProgram, breakdown models.ScoreBreakdown, verdict models.EligibilityVerdict) (*models.Content, bool, error)

	// Chat runs one conversational turn. An empty conversationID starts a
	// new conversation; the returned id addresses subsequent turns.
	Chat(ctx context.Context, identity string, plan QuotaPlan, conversationID string, profile *models.OrganizationProfile, program *models.FundingProgram, breakdown models.ScoreBreakdown, verdict models.EligibilityVerdict, userMessage string) (*models.Content, string, error)
}

type OrchestratorConfig struct {
	UpstreamTimeout time.Duration
	MaxOutputTokens int32
	ExplanationTTL  time.Duration
	// DailyBudgetMicroUSD of 0 disables the ceiling.
	DailyBudgetMicroUSD int64
}

type aiOrchestrator struct {
	llm         LLMClient
	cache       cache.Cache
	breaker     CircuitBreaker
	limiter     RateLimiter
	ledger      CostLedger
	transcripts *TranscriptStore
	knowledge   KnowledgeService // nil when no knowledge base is configured
	fallback    *FallbackGenerator
	prompts     *PromptBuilder
	logger      *zap.Logger
	cfg         OrchestratorConfig
}

func NewOrchestrator(
	llm LLMClient,
	c cache.Cache,
	breaker CircuitBreaker,
	limiter RateLimiter,
	ledger CostLedger,
	transcripts *TranscriptStore,
	knowledge KnowledgeService,
	logger *zap.Logger,
	cfg OrchestratorConfig,
) Orchestrator {
	if cfg.UpstreamTimeout <= 0 {
		cfg.UpstreamTimeout = 15 * time.Second
	}
	if cfg.MaxOutputTokens <= 0 {
		cfg.MaxOutputTokens = 1024
	}
	if cfg.ExplanationTTL <= 0 {
		cfg.ExplanationTTL = 24 * time.Hour
	}
	return &aiOrchestrator{
		llm:         llm,
		cache:       c,
		breaker:     breaker,
		limiter:     limiter,
		ledger:      ledger,
		transcripts: transcripts,
		knowledge:   knowledge,
		fallback:    NewFallbackGenerator(),
		prompts:     NewPromptBuilder(),
		logger:      logger,
		cfg:         cfg,
	}
}

func explanationKey(programID string, profileHash string) string {
	return fmt.Sprintf("explain:%s:%s", programID, profileHash)
}

// Explain implements Orchestrator.
func (o *aiOrchestrator) Explain(ctx context.Context, identity string, plan QuotaPlan, profile *models.OrganizationProfile, program *models.FundingProgram, breakdown models.ScoreBreakdown, verdict models.EligibilityVerdict) (*models.Content, bool, error) {
	key := explanationKey(program.ID.String(), profile.Hash())

	raw, found, err := o.cache.Get(ctx, key)
	if err != nil {
		o.logger.Warn("explanation cache read failed", zap.Error(err))
	}
	if found {
		var content models.Content
		if err := json.Unmarshal([]byte(raw), &content); err == nil {
			content.Source = models.SourceAI
			return &content, true, nil
		}
		o.logger.Warn("cached explanation corrupt, regenerating", zap.String("key", key))
	}

	if err := o.limiter.Allow(ctx, identity, plan, models.KindExplanation); err != nil {
		return nil, false, err
	}
	if err := o.checkBudget(ctx, identity); err != nil {
		return nil, false, err
	}

	if !o.breaker.Admit(ctx) {
		o.logger.Info("circuit open, serving fallback explanation",
			zap.String("program_id", program.ID.String()))
		content := o.fallback.Explanation(profile, program, breakdown, verdict)
		return &content, false, nil
	}

	prompt := o.prompts.BuildExplanationPrompt(profile, program, breakdown, verdict)
	completion, err := o.complete(ctx, identity, models.KindExplanation, prompt)
	if err != nil {
		content := o.fallback.Explanation(profile, program, breakdown, verdict)
		return &content, false, nil
	}

	content := parseExplanation(completion.Text)

	if payload, err := json.Marshal(content); err == nil {
		if err := o.cache.Set(context.WithoutCancel(ctx), key, string(payload), o.cfg.ExplanationTTL); err != nil {
			o.logger.Warn("explanation cache write failed", zap.Error(err))
		}
	}

	return &content, false, nil
}

// Chat implements Orchestrator.
func (o *aiOrchestrator) Chat(ctx context.Context, identity string, plan QuotaPlan, conversationID string, profile *models.OrganizationProfile, program *models.FundingProgram, breakdown models.ScoreBreakdown, verdict models.EligibilityVerdict, userMessage string) (*models.Content, string, error) {
	if conversationID == "" {
		conversationID = uuid.New().String()
	}

	transcript, err := o.transcripts.Load(ctx, conversationID)
	if err != nil {
		o.logger.Warn("transcript load failed, starting fresh",
			zap.String("conversation_id", conversationID), zap.Error(err))
		transcript = &models.Transcript{ConversationID: conversationID}
	}

	if err := o.limiter.Allow(ctx, identity, plan, models.KindChatTurn); err != nil {
		return nil, conversationID, err
	}
	if err := o.checkBudget(ctx, identity); err != nil {
		return nil, conversationID, err
	}

	userTurn := models.Turn{Role: models.RoleUser, Text: userMessage, At: time.Now().UTC()}

	if !o.breaker.Admit(ctx) {
		o.logger.Info("circuit open, serving fallback chat reply",
			zap.String("conversation_id", conversationID))
		content := o.fallback.ChatReply(profile, program, breakdown, verdict, userMessage)
		o.appendTurns(ctx, conversationID, program, profile, userTurn, assistantTurn(content.Summary))
		return &content, conversationID, nil
	}

	ragContext := o.retrieveContext(ctx, userMessage)

	prompt := o.prompts.BuildChatPrompt(profile, program, breakdown, verdict, transcript.Turns, ragContext, userMessage)
	completion, err := o.complete(ctx, identity, models.KindChatTurn, prompt)
	if err != nil {
		content := o.fallback.ChatReply(profile, program, breakdown, verdict, userMessage)
		o.appendTurns(ctx, conversationID, program, profile, userTurn, assistantTurn(content.Summary))
		return &content, conversationID, nil
	}

	content := models.Content{Summary: completion.Text, Source: models.SourceAI}
	o.appendTurns(ctx, conversationID, program, profile, userTurn, assistantTurn(content.Summary))

	return &content, conversationID, nil
}

// complete makes the single upstream attempt. No retries: a failure reports
// to the breaker and falls back immediately, because retry pressure on a
// struggling upstream is exactly what the breaker exists to prevent.
// Breaker and ledger bookkeeping run on a detached context so an abandoned
// request cannot skip them.
func (o *aiOrchestrator) complete(ctx context.Context, identity string, kind models.AIRequestKind, prompt string) (*Completion, error) {
	callCtx, cancel := context.WithTimeout(ctx, o.cfg.UpstreamTimeout)
	defer cancel()

	started := time.Now()
	completion, err := o.llm.Complete(callCtx, prompt, o.cfg.MaxOutputTokens)

	bookCtx := context.WithoutCancel(ctx)
	if err != nil {
		o.breaker.ReportResult(bookCtx, false)
		o.logger.Warn("upstream ai call failed",
			zap.String("kind", string(kind)),
			zap.String("identity", identity),
			zap.Duration("elapsed", time.Since(started)),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", errUpstreamFailure, err)
	}

	o.breaker.ReportResult(bookCtx, true)
	if _, err := o.ledger.Record(bookCtx, identity, kind, completion.InputTokens, completion.OutputTokens); err != nil {
		o.logger.Warn("cost ledger record failed", zap.Error(err))
	}

	return completion, nil
}

func (o *aiOrchestrator) checkBudget(ctx context.Context, identity string) error {
	if o.cfg.DailyBudgetMicroUSD <= 0 {
		return nil
	}
	total, err := o.ledger.DailyTotal(ctx, identity)
	if err != nil {
		o.logger.Warn("daily total lookup failed", zap.Error(err))
		return nil
	}
	if total >= o.cfg.DailyBudgetMicroUSD {
		return ErrBudgetExceeded
	}
	return nil
}

// retrieveContext fetches guideline excerpts for the chat prompt. Strictly
// best-effort: any failure degrades to an empty context and only the
// Complete call feeds the circuit breaker.
func (o *aiOrchestrator) retrieveContext(ctx context.Context, query string) string {
	if o.knowledge == nil {
		return ""
	}

	embedCtx, cancel := context.WithTimeout(ctx, o.cfg.UpstreamTimeout)
	defer cancel()

	embedding, err := o.llm.GenerateEmbedding(embedCtx, query)
	if err != nil {
		o.logger.Warn("context embedding failed", zap.Error(err))
		return ""
	}

	results, err := o.knowledge.SearchSimilar(embedCtx, embedding, "program_guideline", 3)
	if err != nil {
		o.logger.Warn("context search failed", zap.Error(err))
		return ""
	}

	return FormatRetrievedContext(results)
}

func (o *aiOrchestrator) appendTurns(ctx context.Context, conversationID string, program *models.FundingProgram, profile *models.OrganizationProfile, turns ...models.Turn) {
	_, err := o.transcripts.Append(context.WithoutCancel(ctx), conversationID, program.ID.String(), profile.Hash(), turns...)
	if err != nil {
		o.logger.Warn("transcript append failed",
			zap.String("conversation_id", conversationID), zap.Error(err))
	}
}

func assistantTurn(text string) models.Turn {
	return models.Turn{Role: models.RoleAssistant, Text: text, At: time.Now().UTC()}
}

// parseExplanation splits the model's JSON reply into content sections,
// falling back to the raw text as a summary when the reply is not valid
// JSON.
func parseExplanation(raw string) models.Content {
	var parsed struct {
		Summary         string   `json:"summary"`
		Strengths       []string `json:"strengths"`
		Cautions        []string `json:"cautions"`
		Recommendations []string `json:"recommendations"`
	}

	if err := json.Unmarshal([]byte(extractJSON(raw)), &parsed); err != nil || parsed.Summary == "" {
		return models.Content{Summary: raw, Source: models.SourceAI}
	}

	return models.Content{
		Summary:         parsed.Summary,
		Strengths:       parsed.Strengths,
		Cautions:        parsed.Cautions,
		Recommendations: parsed.Recommendations,
		Source:          models.SourceAI,
	}
}
