// Command ingest loads planning policy documents into the assistant's Qdrant collection.
//
//	go run ./cmd/ingest -dir data/policy -reset
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	config "github.com/al-khabib/tashkent-city-transformers/configs"
	"github.com/al-khabib/tashkent-city-transformers/pkg/ollama"
	"github.com/al-khabib/tashkent-city-transformers/pkg/services"
)

const (
	chunkSize    = 1000
	chunkOverlap = 200
)

func main() {
	dir := flag.String("dir", "data/policy", "directory of .md and .txt policy documents")
	reset := flag.Bool("reset", false, "drop previously ingested passages first")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}
	cfg := config.LoadConfig()
	if cfg.QdrantURL == "" {
		log.Fatal("QDRANT_URL is required")
	}

	docs, err := findDocuments(*dir)
	if err != nil {
		log.Fatalf("failed to list documents: %v", err)
	}
	if len(docs) == 0 {
		log.Fatalf("no .md or .txt documents found in %s", *dir)
	}

	embedder := ollama.NewClient(cfg.OllamaBaseURL, cfg.OllamaLLMModel, cfg.OllamaEmbedModel)
	store, err := services.NewVectorStoreService(embedder, services.VectorStoreOptions{
		URL:        cfg.QdrantURL,
		APIKey:     cfg.QdrantAPIKey,
		Collection: cfg.QdrantCollection,
	})
	if err != nil {
		log.Fatalf("failed to connect to Qdrant: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	if *reset {
		if err := store.Reset(ctx); err != nil {
			log.Fatalf("failed to reset collection: %v", err)
		}
		log.Printf("cleared collection %s", cfg.QdrantCollection)
	}

	successCount, failCount, chunkCount := 0, 0, 0

	for _, path := range docs {
		content, err := os.ReadFile(path)
		if err != nil {
			log.Printf("failed to read %s: %v", path, err)
			failCount++
			continue
		}

		source := filepath.Base(path)
		chunks := splitDocument(string(content), chunkSize, chunkOverlap)
		stored := 0
		for i, chunk := range chunks {
			id := uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("%s-chunk-%d", source, i))).String()
			err := store.SaveWithID(ctx, id, chunk, map[string]interface{}{
				"source":       source,
				"chunk_index":  i,
				"total_chunks": len(chunks),
			})
			if err != nil {
				log.Printf("  chunk %d/%d of %s failed: %v", i+1, len(chunks), source, err)
				continue
			}
			stored++
		}
		chunkCount += stored

		if stored == 0 {
			log.Printf("failed to store %s", source)
			failCount++
			continue
		}
		log.Printf("stored %s (%d/%d chunks)", source, stored, len(chunks))
		successCount++
	}

	separator := strings.Repeat("=", 50)
	log.Println(separator)
	log.Printf("documents: %d ok, %d failed; chunks indexed: %d; collection: %s", successCount, failCount, chunkCount, cfg.QdrantCollection)
	log.Println(separator)

	if failCount > 0 {
		os.Exit(1)
	}
}

func findDocuments(dir string) ([]string, error) {
	var docs []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".md", ".txt":
			docs = append(docs, path)
		}
		return nil
	})
	return docs, err
}

// splitDocument cuts text into windows of at most size runes; consecutive windows
// share overlap runes. Blank documents yield no chunks.
func splitDocument(text string, size, overlap int) []string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return nil
	}
	if overlap >= size {
		overlap = 0
	}

	var chunks []string
	step := size - overlap
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}
