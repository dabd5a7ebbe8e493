package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/bk001juma/api-matengenezo/internal/config"
	"github.com/bk001juma/api-matengenezo/internal/upload"
)

func main() {
	cfg := config.Load()

	dryRun := flag.Bool("dry-run", false, "Show what would be removed without removing it")
	olderThan := flag.Duration("older-than", cfg.StagingMaxAge, "Remove staged uploads last modified before this age")
	flag.Parse()

	startTime := time.Now()
	log.Println("Starting staging sweep...")

	store, err := upload.NewLocalStore(cfg.UploadDir, cfg.AppURL)
	if err != nil {
		log.Fatalf("Failed to open upload directory: %v", err)
	}

	swept, err := store.Sweep(context.Background(), *olderThan, *dryRun)
	if err != nil {
		log.Fatalf("Failed to sweep staging directory: %v", err)
	}

	if *dryRun {
		log.Println("[DRY RUN] Showing what would be removed:")
		for _, name := range swept {
			log.Printf("  %s", name)
		}
		log.Printf("[DRY RUN] %d files, no changes made", len(swept))
		return
	}

	elapsed := time.Since(startTime)
	log.Printf("Staging sweep complete. Removed %d files in %v", len(swept), elapsed)
}
