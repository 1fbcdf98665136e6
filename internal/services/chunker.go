package services

import (
	"strings"
	"unicode/utf8"
)

// GuidelineChunker splits program guideline text into overlapping chunks
// sized for embedding. Guideline documents are heavily sectioned, so the
// splitter works paragraph-first and only falls back to sentence splitting
// for walls of text.
type GuidelineChunker interface {
	ChunkText(text string, maxChunkSize int, overlap int) []string
}

type guidelineChunker struct{}

func NewGuidelineChunker() GuidelineChunker {
	return &guidelineChunker{}
}

// ChunkText implements GuidelineChunker.
func (gc *guidelineChunker) ChunkText(text string, maxChunkSize int, overlap int) []string {
	if maxChunkSize <= 0 {
		maxChunkSize = 1000
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= maxChunkSize {
		overlap = maxChunkSize / 4
	}

	paragraphs := strings.Split(text, "\n\n")

	var chunks []string
	var current strings.Builder
	// All size accounting is in runes; announcement text is mostly Korean,
	// where byte counts run three times the visible length.
	curRunes := 0

	write := func(sep, s string) {
		if current.Len() > 0 {
			current.WriteString(sep)
			curRunes += utf8.RuneCountInString(sep)
		}
		current.WriteString(s)
		curRunes += utf8.RuneCountInString(s)
	}

	flush := func() {
		if current.Len() == 0 {
			return
		}
		chunks = append(chunks, current.String())
		current.Reset()
		curRunes = 0
		if overlap > 0 {
			tail := lastRunes(chunks[len(chunks)-1], overlap)
			current.WriteString(tail)
			curRunes = utf8.RuneCountInString(tail)
		}
	}

	for _, para := range paragraphs {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		paraRunes := utf8.RuneCountInString(para)
		if paraRunes > maxChunkSize {
			for _, sentence := range splitSentences(para) {
				if curRunes+utf8.RuneCountInString(sentence)+1 > maxChunkSize {
					flush()
				}
				write(" ", sentence)
			}
			continue
		}

		if curRunes+paraRunes+2 > maxChunkSize {
			flush()
		}
		write("\n\n", para)
	}

	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}

	return chunks
}

func splitSentences(text string) []string {
	parts := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})

	var result []string
	for _, s := range parts {
		s = strings.TrimSpace(s)
		if s != "" {
			result = append(result, s)
		}
	}
	return result
}

func lastRunes(text string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[len(runes)-n:])
}
