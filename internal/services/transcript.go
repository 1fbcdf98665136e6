package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fundmatch/ai-fund-matcher/internal/cache"
	"fundmatch/ai-fund-matcher/internal/models"
)

// maxTranscriptTurns is the sliding window kept per conversation. Older
// turns are dropped, not summarized.
const maxTranscriptTurns = 10

const transcriptCASRetries = 5

// TranscriptStore keeps chat conversations in the cache layer; there is no
// separate session store. Appends are compare-and-append so two racing
// submissions of the same conversation cannot lose each other's turns.
type TranscriptStore struct {
	cache cache.Cache
	ttl   time.Duration
}

func NewTranscriptStore(c cache.Cache, ttl time.Duration) *TranscriptStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TranscriptStore{cache: c, ttl: ttl}
}

func (s *TranscriptStore) key(conversationID string) string {
	return "chat:" + conversationID
}

// Load returns the transcript for a conversation, or an empty one when the
// conversation is new.
func (s *TranscriptStore) Load(ctx context.Context, conversationID string) (*models.Transcript, error) {
	raw, found, err := s.cache.Get(ctx, s.key(conversationID))
	if err != nil {
		return nil, fmt.Errorf("failed to load transcript: %w", err)
	}
	if !found {
		return &models.Transcript{ConversationID: conversationID}, nil
	}

	var transcript models.Transcript
	if err := json.Unmarshal([]byte(raw), &transcript); err != nil {
		return nil, fmt.Errorf("transcript corrupt: %w", err)
	}
	return &transcript, nil
}

// Append adds turns to the conversation, trimming to the sliding window.
// Retries the compare-and-append on contention so concurrent double
// submission keeps both writers' turns in submission order.
func (s *TranscriptStore) Append(ctx context.Context, conversationID, programID, profileHash string, turns ...models.Turn) (*models.Transcript, error) {
	for attempt := 0; attempt < transcriptCASRetries; attempt++ {
		raw, found, err := s.cache.Get(ctx, s.key(conversationID))
		if err != nil {
			return nil, fmt.Errorf("failed to load transcript: %w", err)
		}

		transcript := models.Transcript{
			ConversationID: conversationID,
			ProgramID:      programID,
			ProfileHash:    profileHash,
		}
		old := ""
		if found {
			if err := json.Unmarshal([]byte(raw), &transcript); err != nil {
				return nil, fmt.Errorf("transcript corrupt: %w", err)
			}
			old = raw
		}

		transcript.Turns = append(transcript.Turns, turns...)
		if len(transcript.Turns) > maxTranscriptTurns {
			transcript.Turns = transcript.Turns[len(transcript.Turns)-maxTranscriptTurns:]
		}

		payload, err := json.Marshal(transcript)
		if err != nil {
			return nil, fmt.Errorf("failed to encode transcript: %w", err)
		}

		ok, err := s.cache.CompareAndSwap(ctx, s.key(conversationID), old, string(payload), s.ttl)
		if err != nil {
			return nil, fmt.Errorf("failed to store transcript: %w", err)
		}
		if ok {
			return &transcript, nil
		}
	}

	return nil, fmt.Errorf("transcript append contention for conversation %s", conversationID)
}
