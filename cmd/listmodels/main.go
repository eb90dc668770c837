// Command listmodels prints the Gemini models available to GEMINI_API_KEY.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/yanqian/weatherlens/internal/infra/llm/gemini"
	"github.com/yanqian/weatherlens/pkg/logger"
)

func main() {
	envFile := flag.String("env", ".env", "Path to an optional .env file")
	all := flag.Bool("all", false, "Include models that do not support generateContent")
	timeout := flag.Duration("timeout", 30*time.Second, "Request timeout")
	flag.Parse()

	_ = godotenv.Load(*envFile)
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		log.Fatal("GEMINI_API_KEY is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client, err := gemini.NewClient(ctx, apiKey, "", logger.New())
	if err != nil {
		log.Fatalf("create gemini client: %v", err)
	}
	models, err := client.ListModels(ctx)
	if err != nil {
		log.Fatalf("list models: %v", err)
	}

	if *all {
		fmt.Println("Available models:")
	} else {
		fmt.Println("Available models (supporting generateContent):")
	}
	for _, m := range models {
		if !*all && !m.SupportsGeneration() {
			continue
		}
		if m.DisplayName != "" {
			fmt.Printf("- %s (%s)\n", m.Name, m.DisplayName)
			continue
		}
		fmt.Printf("- %s\n", m.Name)
	}
}
