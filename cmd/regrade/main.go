package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"popquiz"

	"go.uber.org/zap"
)

// regrade reruns grading for a student's submissions that were stored
// without a score or with a zero score.
func main() {
	var (
		studentID = flag.Int64("student", 0, "Student ID whose ungraded submissions are regraded (required)")
		configDir = flag.String("config", ".", "Directory containing config.yaml")
		verbose   = flag.Bool("verbose", false, "Enable verbose debugging output")
	)

	flag.Parse()

	if *studentID <= 0 {
		log.Fatal("Student ID is required. Use -student flag.")
	}

	cfg, err := popquiz.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := popquiz.InitLogger(cfg.Log); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer popquiz.Log.Sync()
	popquiz.SetVerbose(*verbose)

	db, err := popquiz.OpenDB(cfg.Database.Path)
	if err != nil {
		popquiz.Log.Fatal("failed to open database", zap.Error(err))
	}
	defer db.CloseDB()

	ctx := context.Background()
	if err := db.CreateTables(ctx); err != nil {
		popquiz.Log.Fatal("failed to create tables", zap.Error(err))
	}

	transcript := popquiz.OpenTranscript(cfg.Log.TranscriptFile)
	defer transcript.Close()

	grader := popquiz.NewGrader(popquiz.NewOpenAICompleter(cfg.LLM), cfg.LLM.GradingTimeout)
	grader.SetTranscript(transcript)

	guard := popquiz.NewSubmissionGuard(db, grader)
	regraded, err := guard.RegradeAll(ctx, *studentID)
	if err != nil {
		popquiz.Log.Fatal("regrade failed", zap.Error(err), zap.Int("regraded", regraded))
	}

	fmt.Printf("Regraded %d submissions for student %d\n", regraded, *studentID)
}
