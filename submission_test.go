package popquiz_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"popquiz"
)

func TestSubmitOncePerQuizAndStudent(t *testing.T) {
	db := openTestDB(t)
	quiz := createTestQuiz(t, db, 1, "What is caching?", "What is a TTL?")
	completer := &fakeCompleter{replies: []string{"80"}}
	guard := popquiz.NewSubmissionGuard(db, popquiz.NewGrader(completer, time.Second))
	ctx := context.Background()

	sub, err := guard.Submit(ctx, quiz.ID, 3, map[string]string{"question_0": "Reusing results"})
	if err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	if sub.Score == nil || *sub.Score != 80 {
		t.Errorf("score = %v, want 80", sub.Score)
	}

	_, err = guard.Submit(ctx, quiz.ID, 3, map[string]string{"question_0": "Second try"})
	if !errors.Is(err, popquiz.ErrDuplicateSubmission) {
		t.Fatalf("second Submit err = %v, want ErrDuplicateSubmission", err)
	}
	if completer.calls() != 1 {
		t.Errorf("duplicate submission reached the model: %d calls", completer.calls())
	}

	subs, err := db.ListSubmissions(ctx, quiz.ID)
	if err != nil {
		t.Fatalf("ListSubmissions: %v", err)
	}
	if len(subs) != 1 || subs[0].Answers["question_0"] != "Reusing results" {
		t.Errorf("stored submissions = %+v", subs)
	}
}

func TestSubmitConcurrent(t *testing.T) {
	db := openTestDB(t)
	quiz := createTestQuiz(t, db, 1, "What is caching?")
	guard := popquiz.NewSubmissionGuard(db, popquiz.NewGrader(&fakeCompleter{replies: []string{"70"}}, time.Second))

	const attempts = 8
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := guard.Submit(context.Background(), quiz.ID, 3, map[string]string{"question_0": "answer"})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, popquiz.ErrDuplicateSubmission):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Errorf("%d submissions succeeded, want exactly 1", succeeded)
	}
}

func TestSubmitDefaultsScoreWhenModelDown(t *testing.T) {
	db := openTestDB(t)
	quiz := createTestQuiz(t, db, 1, "What is caching?")
	guard := popquiz.NewSubmissionGuard(db, popquiz.NewGrader(&fakeCompleter{err: popquiz.ErrUpstreamUnavailable}, time.Second))

	sub, err := guard.Submit(context.Background(), quiz.ID, 4, nil)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if sub.Score == nil || *sub.Score != popquiz.DefaultScore {
		t.Errorf("score = %v, want %d", sub.Score, popquiz.DefaultScore)
	}
}

func TestSubmitUnknownQuiz(t *testing.T) {
	db := openTestDB(t)
	guard := popquiz.NewSubmissionGuard(db, popquiz.NewGrader(&fakeCompleter{replies: []string{"90"}}, time.Second))

	if _, err := guard.Submit(context.Background(), 999, 3, nil); !errors.Is(err, popquiz.ErrQuizNotFound) {
		t.Errorf("err = %v, want ErrQuizNotFound", err)
	}
}

func TestRegradeAllOnlyNullOrZero(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	q1 := createTestQuiz(t, db, 1, "What is caching?")
	q2 := createTestQuiz(t, db, 1, "What is a TTL?")
	q3 := createTestQuiz(t, db, 1, "What is eviction?")
	q4 := createTestQuiz(t, db, 1, "What is sharding?")

	seed := []*popquiz.Submission{
		{QuizID: q1.ID, StudentID: 3, Answers: map[string]string{}, Score: nil},
		{QuizID: q2.ID, StudentID: 3, Answers: map[string]string{}, Score: intPtr(0)},
		{QuizID: q3.ID, StudentID: 3, Answers: map[string]string{}, Score: intPtr(75)},
		{QuizID: q4.ID, StudentID: 9, Answers: map[string]string{}, Score: nil},
	}
	for _, sub := range seed {
		if err := db.InsertSubmission(ctx, sub); err != nil {
			t.Fatalf("InsertSubmission: %v", err)
		}
	}

	completer := &fakeCompleter{replies: []string{"64"}}
	guard := popquiz.NewSubmissionGuard(db, popquiz.NewGrader(completer, time.Second))

	n, err := guard.RegradeAll(ctx, 3)
	if err != nil {
		t.Fatalf("RegradeAll: %v", err)
	}
	if n != 2 || completer.calls() != 2 {
		t.Errorf("regraded %d with %d model calls, want 2 and 2", n, completer.calls())
	}

	want := map[int64]int{q1.ID: 64, q2.ID: 64, q3.ID: 75}
	for quizID, score := range want {
		subs, err := db.ListSubmissions(ctx, quizID)
		if err != nil {
			t.Fatalf("ListSubmissions: %v", err)
		}
		if len(subs) != 1 || subs[0].Score == nil || *subs[0].Score != score {
			t.Errorf("quiz %d: submissions %+v, want score %d", quizID, subs, score)
		}
	}

	other, _ := db.ListSubmissions(ctx, q4.ID)
	if len(other) != 1 || other[0].Score != nil {
		t.Errorf("another student's submission was touched: %+v", other)
	}
}

func TestRegradeAllSkipsFailures(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	quiz := createTestQuiz(t, db, 1, "What is caching?")
	if err := db.InsertSubmission(ctx, &popquiz.Submission{QuizID: quiz.ID, StudentID: 3, Answers: map[string]string{}}); err != nil {
		t.Fatalf("InsertSubmission: %v", err)
	}

	guard := popquiz.NewSubmissionGuard(db, popquiz.NewGrader(&fakeCompleter{replies: []string{"no idea"}}, time.Second))
	n, err := guard.RegradeAll(ctx, 3)
	if err != nil {
		t.Fatalf("RegradeAll: %v", err)
	}
	if n != 0 {
		t.Errorf("regraded %d, want 0", n)
	}

	subs, _ := db.ListSubmissions(ctx, quiz.ID)
	if subs[0].Score != nil {
		t.Errorf("failed regrade stored a score: %d", *subs[0].Score)
	}
}
