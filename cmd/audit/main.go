package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/bk001juma/api-matengenezo/internal/config"
	"github.com/bk001juma/api-matengenezo/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func main() {
	workers := flag.Int("workers", 4, "Number of parallel workers")
	outputFile := flag.String("output", "geofence_audit.json", "Output file for results")
	flag.Parse()

	cfg := config.Load()
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	var locations []model.Location
	if err := db.Order("id ASC").Find(&locations).Error; err != nil {
		log.Fatalf("Failed to load locations: %v", err)
	}

	fmt.Printf("Auditing %d locations with %d workers...\n", len(locations), *workers)

	startTime := time.Now()
	issues := audit(locations, *workers)
	elapsed := time.Since(startTime)

	issuesByType := make(map[string][]Issue)
	for _, issue := range issues {
		issuesByType[issue.Type] = append(issuesByType[issue.Type], issue)
	}

	fmt.Printf("\n=== Audit Complete ===\n")
	fmt.Printf("Total locations: %d\n", len(locations))
	fmt.Printf("Issues found: %d\n", len(issues))
	fmt.Printf("Time elapsed: %v\n", elapsed)

	fmt.Printf("\n=== Issues by Type ===\n")
	for typ, typeIssues := range issuesByType {
		fmt.Printf("%s: %d\n", typ, len(typeIssues))
	}

	output := map[string]interface{}{
		"summary": map[string]interface{}{
			"locations": len(locations),
			"issues":    len(issues),
			"elapsed":   elapsed.String(),
		},
		"issues_by_type": issuesByType,
		"issues":         issues,
	}

	jsonData, _ := json.MarshalIndent(output, "", "  ")
	if err := os.WriteFile(*outputFile, jsonData, 0644); err != nil {
		log.Printf("Failed to write output file: %v", err)
	} else {
		fmt.Printf("\nResults saved to %s\n", *outputFile)
	}
}
