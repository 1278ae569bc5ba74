// Command llmcheck sends one prompt and one embedding request to the configured
// Ollama server, to verify the assistant backend before starting the API.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	config "github.com/al-khabib/tashkent-city-transformers/configs"
	"github.com/al-khabib/tashkent-city-transformers/pkg/ollama"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("WARN: .env file not found: %v", err)
	}
	cfg := config.LoadConfig()
	client := ollama.NewClient(cfg.OllamaBaseURL, cfg.OllamaLLMModel, cfg.OllamaEmbedModel)

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	log.Printf("INFO: Ollama at %s, llm %s, embeddings %s", cfg.OllamaBaseURL, cfg.OllamaLLMModel, cfg.OllamaEmbedModel)

	failed := false
	start := time.Now()
	reply, err := client.Generate(ctx, "Hello!")
	if err != nil {
		log.Printf("ERROR: generate failed: %v", err)
		failed = true
	} else {
		log.Printf("INFO: generate ok in %v: %q", time.Since(start).Round(time.Millisecond), reply)
	}

	start = time.Now()
	vector, err := client.Embed(ctx, "transformer load forecast")
	if err != nil {
		log.Printf("ERROR: embed failed: %v", err)
		failed = true
	} else {
		log.Printf("INFO: embed ok in %v: %d dimensions", time.Since(start).Round(time.Millisecond), len(vector))
	}

	if failed {
		log.Printf("ERROR: start Ollama with `ollama serve` and pull the models: `ollama pull %s` and `ollama pull %s`", cfg.OllamaLLMModel, cfg.OllamaEmbedModel)
		os.Exit(1)
	}
	log.Println("SUCCESS: assistant backend is reachable.")
}
