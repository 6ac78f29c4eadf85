package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"contractguard-backend/amend"
	"contractguard-backend/clause"
	"contractguard-backend/export"
	"contractguard-backend/llm"
	"contractguard-backend/notify"
	"contractguard-backend/pipeline"
	"contractguard-backend/regulatory"
	"contractguard-backend/risk"

	"github.com/joho/godotenv"
)

// run-pipeline analyzes a single contract text file without a database:
// useful for batch work and local experimentation. Artifacts land next to
// each other in the output directory.
func main() {
	input := flag.String("input", "", "path to the contract text file (required)")
	name := flag.String("name", "", "contract name (defaults to the input file name)")
	jurisdiction := flag.String("jurisdiction", "", "contract jurisdiction")
	flag.Parse()

	if *input == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: No .env file found, using environment variables")
	}

	data, err := os.ReadFile(*input)
	if err != nil {
		log.Fatalf("Failed to read contract: %v", err)
	}

	base := strings.TrimSuffix(filepath.Base(*input), filepath.Ext(*input))
	contractName := *name
	if contractName == "" {
		contractName = base
	}

	outputDir := os.Getenv("OUTPUT_DIR")
	if outputDir == "" {
		outputDir = "./output"
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	ctx := context.Background()

	regulationsPath := os.Getenv("REGULATIONS_PATH")
	if regulationsPath == "" {
		regulationsPath = filepath.Join(outputDir, "regulations.json")
	}
	regulations, err := regulatory.LoadRegulations(regulationsPath)
	if err != nil {
		log.Fatalf("Failed to load regulations: %v", err)
	}

	trackers, err := buildTrackers(outputDir)
	if err != nil {
		log.Fatalf("Failed to initialize feed trackers: %v", err)
	}

	var notifier notify.Notifier = notify.NopNotifier{}
	if webhookURL := os.Getenv("SLACK_WEBHOOK_URL"); webhookURL != "" {
		notifier = notify.NewSlackNotifier(webhookURL)
	}

	gateway := llm.NewGatewayFromEnv(ctx)

	orchestrator := pipeline.NewOrchestrator(
		clause.NewExtractor(gateway),
		risk.NewAssessor(gateway),
		amend.NewGenerator(gateway),
		regulations,
		pipeline.WithTrackers(trackers...),
		pipeline.WithNotifier(notifier),
		pipeline.WithProgress(func(percent int, message string) {
			log.Printf("[%3d%%] %s", percent, message)
		}),
	)

	result, err := orchestrator.Run(ctx, pipeline.RunRequest{
		ContractName: contractName,
		Jurisdiction: *jurisdiction,
		Text:         string(data),
	})
	if err != nil {
		log.Fatalf("Pipeline failed: %v", err)
	}

	if err := writeJSON(filepath.Join(outputDir, base+"_assessed.json"), result.Clauses); err != nil {
		log.Fatalf("Failed to write assessed clauses: %v", err)
	}
	if err := writeJSON(filepath.Join(outputDir, base+"_report.json"), result.Report); err != nil {
		log.Fatalf("Failed to write report: %v", err)
	}
	if err := writeAnnotations(filepath.Join(outputDir, base+"_annotations.csv"), result); err != nil {
		log.Fatalf("Failed to write annotations: %v", err)
	}
	if err := os.WriteFile(filepath.Join(outputDir, base+"_updated_contract.txt"), []byte(result.PatchedText), 0644); err != nil {
		log.Fatalf("Failed to write updated contract: %v", err)
	}

	for _, warning := range result.PatchWarnings {
		log.Printf("Warning: %s", warning)
	}

	fmt.Printf("\n✅ Analysis complete: %s (%s, %d issues)\n",
		contractName, result.Report.OverallStatus, result.Report.TotalIssues)
	fmt.Printf("   Artifacts written to %s\n", outputDir)
}

func buildTrackers(outputDir string) ([]*regulatory.Tracker, error) {
	dir := os.Getenv("FEED_SNAPSHOT_DIR")
	if dir == "" {
		dir = filepath.Join(outputDir, "feeds")
	}

	fetchers := []regulatory.Fetcher{
		regulatory.NewGDPRFetcher(),
		regulatory.NewHIPAAFetcher(),
	}

	trackers := make([]*regulatory.Tracker, 0, len(fetchers))
	for _, fetcher := range fetchers {
		store, err := regulatory.NewFileSnapshotStore(filepath.Join(dir, fetcher.TrackerName()+".json"))
		if err != nil {
			return nil, err
		}
		trackers = append(trackers, regulatory.NewTracker(fetcher, store))
	}
	return trackers, nil
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func writeAnnotations(path string, result *pipeline.RunResult) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return export.WriteAnnotationsCSV(f, result.Clauses)
}
