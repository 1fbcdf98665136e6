package main

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"

	"fundmatch/ai-fund-matcher/internal/config"
	"fundmatch/ai-fund-matcher/internal/services"
)

// Ingests agency guideline PDFs into the knowledge base so chat answers can
// cite announcement text. Run whenever a new program cycle is published.
func main() {
	log.Println("🚀 Starting guideline ingestion...")

	// Load configuration
	cfg := config.Load()

	// Initialize services
	llm, err := services.NewGeminiClient(context.Background(), cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.EmbedModel)
	if err != nil {
		log.Fatalf("❌ Failed to initialize Gemini: %v", err)
	}

	if cfg.Qdrant.URL == "" {
		log.Fatal("❌ QDRANT_URL is required for ingestion")
	}

	knowledge, err := services.NewKnowledgeService(
		cfg.Qdrant.URL,
		cfg.Qdrant.APIKey,
		cfg.Qdrant.Collection,
	)
	if err != nil {
		log.Fatalf("❌ Failed to initialize Qdrant: %v", err)
	}

	if err := knowledge.InitCollection(); err != nil {
		log.Fatalf("❌ Failed to initialize collection: %v", err)
	}

	pdfParser := services.NewPDFParserService()
	chunker := services.NewGuidelineChunker()

	ctx := context.Background()

	var pdfPaths []string
	err = filepath.WalkDir(cfg.Knowledge.DocsDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".pdf") {
			pdfPaths = append(pdfPaths, path)
		}
		return nil
	})
	if err != nil {
		log.Fatalf("❌ Failed to scan %s: %v", cfg.Knowledge.DocsDir, err)
	}

	if len(pdfPaths) == 0 {
		log.Fatalf("❌ No PDF files found under %s", cfg.Knowledge.DocsDir)
	}

	successCount := 0
	failCount := 0

	for _, path := range pdfPaths {
		docID := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

		log.Printf("\n📄 Processing: %s", docID)

		// Extract text from PDF
		doc, err := pdfParser.ExtractDocument(path)
		if err != nil {
			log.Printf("   ❌ Failed to extract text: %v", err)
			failCount++
			continue
		}
		log.Printf("   ✅ Extracted %d pages, %d characters", doc.PageCount, len(doc.Text))

		// Re-ingesting a document replaces its previous chunks.
		if err := knowledge.DeleteDocument(ctx, docID); err != nil {
			log.Printf("   ⚠️  Failed to clear previous chunks: %v", err)
		}

		// Chunk the text
		chunks := chunker.ChunkText(doc.Text, 1000, 200)
		log.Printf("   ✂️  Created %d chunks", len(chunks))

		// Embed and store each chunk
		stored := 0
		for i, chunk := range chunks {
			embedding, err := llm.GenerateEmbedding(ctx, chunk)
			if err != nil {
				log.Printf("   ❌ Failed to embed chunk %d: %v", i+1, err)
				continue
			}

			if err := knowledge.UpsertChunk(ctx, docID, "program_guideline", chunk, embedding); err != nil {
				log.Printf("   ❌ Failed to store chunk %d: %v", i+1, err)
				continue
			}
			stored++
		}

		if stored == 0 {
			log.Printf("   ❌ No chunks stored for %s", docID)
			failCount++
			continue
		}

		log.Printf("   ✅ Stored %d/%d chunks", stored, len(chunks))
		successCount++
	}

	log.Printf("\n🏁 Ingestion finished: %d ok, %d failed", successCount, failCount)
	if failCount > 0 {
		os.Exit(1)
	}
}
