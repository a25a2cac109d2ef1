package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"popquiz"
)

func main() {
	var (
		topic      = flag.String("topic", "", "Quiz topic (required)")
		numQs      = flag.Int("questions", 5, "Number of questions to generate")
		qType      = flag.String("type", "short_answer", "Question type (multiple_choice, true_false, short_answer)")
		level      = flag.String("level", "Understanding", "Cognitive level (Remembering, Understanding, Applying, Analyzing, Evaluating, Creating)")
		sourceFile = flag.String("source", "", "Text file whose contents are used as source material")
		outputFile = flag.String("output", "", "Output file for questions JSON (default: stdout)")
		configDir  = flag.String("config", ".", "Directory containing config.yaml")
		verbose    = flag.Bool("verbose", false, "Enable verbose debugging output")
	)

	flag.Parse()

	if *topic == "" {
		log.Fatal("Topic is required. Use -topic flag.")
	}

	cfg, err := popquiz.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	// one-shot runs only log to the console
	cfg.Log.File = ""
	if err := popquiz.InitLogger(cfg.Log); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer popquiz.Log.Sync()
	popquiz.SetVerbose(*verbose)

	req := popquiz.GenerationRequest{
		Topic:          *topic,
		CognitiveLevel: popquiz.CognitiveLevel(*level),
		QuestionType:   popquiz.QuestionType(*qType),
		Count:          *numQs,
	}

	if *sourceFile != "" {
		data, err := os.ReadFile(*sourceFile)
		if err != nil {
			log.Fatalf("Failed to read source file: %v", err)
		}
		req.SourceText = string(data)
	}

	generator := popquiz.NewQuizGenerator(
		popquiz.NewOpenAICompleter(cfg.LLM),
		popquiz.WithTimeout(cfg.LLM.GenerationTimeout),
		popquiz.WithMaxQuestions(cfg.Generation.MaxQuestions),
		popquiz.WithSourceTextLimit(cfg.Generation.SourceTextLimit),
	)

	questions, err := generator.Generate(context.Background(), req)
	if err != nil {
		log.Fatalf("Failed to generate questions: %v", err)
	}

	output, err := json.MarshalIndent(map[string]interface{}{
		"topic":     req.Topic,
		"questions": questions,
	}, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal questions: %v", err)
	}

	if *outputFile != "" {
		if err := os.WriteFile(*outputFile, output, 0644); err != nil {
			log.Fatalf("Failed to write output file: %v", err)
		}
		log.Printf("Questions saved to: %s", *outputFile)
		return
	}
	fmt.Println(string(output))
}
