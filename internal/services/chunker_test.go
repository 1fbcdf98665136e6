package services

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestChunkTextKeepsShortTextWhole(t *testing.T) {
	chunks := NewGuidelineChunker().ChunkText("Short announcement.", 1000, 200)
	if len(chunks) != 1 || chunks[0] != "Short announcement." {
		t.Errorf("unexpected chunks: %v", chunks)
	}
}

func TestChunkTextSplitsParagraphs(t *testing.T) {
	paragraphs := make([]string, 10)
	for i := range paragraphs {
		paragraphs[i] = strings.Repeat("eligibility terms ", 20)
	}
	text := strings.Join(paragraphs, "\n\n")

	chunks := NewGuidelineChunker().ChunkText(text, 800, 100)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if len(chunk) > 800+100 {
			t.Errorf("chunk %d exceeds size budget: %d chars", i, len(chunk))
		}
	}
}

func TestChunkTextOverlap(t *testing.T) {
	paragraphs := make([]string, 6)
	for i := range paragraphs {
		paragraphs[i] = strings.Repeat("application procedure ", 20)
	}
	text := strings.Join(paragraphs, "\n\n")

	chunks := NewGuidelineChunker().ChunkText(text, 500, 100)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	// Each chunk after the first starts with the tail of its predecessor.
	for i := 1; i < len(chunks); i++ {
		tail := lastRunes(chunks[i-1], 100)
		if !strings.HasPrefix(chunks[i], tail) {
			t.Errorf("chunk %d lost its overlap with chunk %d", i, i-1)
		}
	}
}

func TestChunkTextBudgetsRunesNotBytes(t *testing.T) {
	// Korean text runs three bytes per visible character. Size accounting
	// in bytes would flush after a single paragraph and leave every chunk
	// a third full.
	paragraphs := make([]string, 9)
	for i := range paragraphs {
		paragraphs[i] = strings.TrimSpace(strings.Repeat("지원자격 ", 30))
	}
	text := strings.Join(paragraphs, "\n\n")

	chunks := NewGuidelineChunker().ChunkText(text, 500, 100)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	maxRunes := 0
	for i, chunk := range chunks {
		n := utf8.RuneCountInString(chunk)
		if n > 500+100 {
			t.Errorf("chunk %d exceeds rune budget: %d runes", i, n)
		}
		if n > maxRunes {
			maxRunes = n
		}
	}
	if maxRunes < 400 {
		t.Errorf("chunks underfilled for multibyte text: largest is %d runes", maxRunes)
	}
}

func TestChunkTextLongParagraphFallsBackToSentences(t *testing.T) {
	text := strings.Repeat("This sentence covers one requirement. ", 100)

	chunks := NewGuidelineChunker().ChunkText(text, 400, 0)
	if len(chunks) < 2 {
		t.Fatalf("expected a long paragraph to split, got %d chunks", len(chunks))
	}
}

func TestChunkTextSkipsEmptyParagraphs(t *testing.T) {
	chunks := NewGuidelineChunker().ChunkText("First.\n\n\n\n\n\nSecond.", 1000, 0)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if strings.Contains(chunks[0], "\n\n\n") {
		t.Errorf("blank paragraphs leaked into the chunk: %q", chunks[0])
	}
}
