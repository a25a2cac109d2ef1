package popquiz_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"popquiz"
)

// fakeCompleter returns canned replies in order, repeating the last one
type fakeCompleter struct {
	mu      sync.Mutex
	replies []string
	err     error
	block   bool
	prompts []string
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	n := len(f.prompts)
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if f.err != nil {
		return "", f.err
	}
	if len(f.replies) == 0 {
		return "", nil
	}
	if n > len(f.replies) {
		n = len(f.replies)
	}
	return f.replies[n-1], nil
}

func (f *fakeCompleter) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func openTestDB(t *testing.T) *popquiz.DB {
	t.Helper()
	db, err := popquiz.OpenDB(filepath.Join(t.TempDir(), "popquiz.db"))
	if err != nil {
		t.Fatalf("OpenDB: %v", err)
	}
	t.Cleanup(func() { db.CloseDB() })
	if err := db.CreateTables(context.Background()); err != nil {
		t.Fatalf("CreateTables: %v", err)
	}
	return db
}

func createTestQuiz(t *testing.T, db *popquiz.DB, ownerID int64, texts ...string) *popquiz.Quiz {
	t.Helper()
	quiz := &popquiz.Quiz{
		OwnerID:        ownerID,
		Topic:          "Caching",
		CognitiveLevel: popquiz.Understanding,
		QuestionType:   popquiz.ShortAnswer,
	}
	for _, text := range texts {
		quiz.Questions = append(quiz.Questions, popquiz.Question{Type: popquiz.ShortAnswer, Text: text})
	}
	if err := db.CreateQuiz(context.Background(), quiz); err != nil {
		t.Fatalf("CreateQuiz: %v", err)
	}
	return quiz
}

func intPtr(n int) *int { return &n }
