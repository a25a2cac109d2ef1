package popquiz

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// SubmissionStore is the persistence SubmissionGuard needs. InsertSubmission
// must enforce (quiz, student) uniqueness itself and report a violation as
// ErrDuplicateSubmission.
type SubmissionStore interface {
	GetQuiz(ctx context.Context, id int64) (*Quiz, error)
	SubmissionExists(ctx context.Context, quizID, studentID int64) (bool, error)
	InsertSubmission(ctx context.Context, sub *Submission) error
	ListRegradable(ctx context.Context, studentID int64) ([]Submission, error)
	UpdateSubmissionScore(ctx context.Context, submissionID int64, score int) error
}

// SubmissionGuard accepts at most one graded submission per quiz and student
type SubmissionGuard struct {
	store  SubmissionStore
	grader *Grader
}

// NewSubmissionGuard creates a guard over store that scores with grader
func NewSubmissionGuard(store SubmissionStore, grader *Grader) *SubmissionGuard {
	return &SubmissionGuard{store: store, grader: grader}
}

// Submit grades answers and persists them once. The existence check only
// avoids a wasted model call; the store's insert decides duplicates.
func (sg *SubmissionGuard) Submit(ctx context.Context, quizID, studentID int64, answers map[string]string) (*Submission, error) {
	quiz, err := sg.store.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}

	exists, err := sg.store.SubmissionExists(ctx, quizID, studentID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: quiz %d, student %d", ErrDuplicateSubmission, quizID, studentID)
	}

	if answers == nil {
		answers = map[string]string{}
	}
	result := sg.grader.Grade(ctx, quiz.Questions, answers)
	score := result.Score

	sub := &Submission{
		QuizID:    quizID,
		StudentID: studentID,
		Answers:   answers,
		Score:     &score,
	}
	if err := sg.store.InsertSubmission(ctx, sub); err != nil {
		return nil, err
	}

	Log.Info("submission recorded",
		zap.Int64("quiz_id", quizID),
		zap.Int64("student_id", studentID),
		zap.Int("score", score),
		zap.Bool("default_score", result.Defaulted))
	return sub, nil
}

// RegradeAll regrades the student's submissions that have no score or a
// zero score. Items that fail are logged and skipped.
func (sg *SubmissionGuard) RegradeAll(ctx context.Context, studentID int64) (int, error) {
	submissions, err := sg.store.ListRegradable(ctx, studentID)
	if err != nil {
		return 0, err
	}

	regraded := 0
	for _, sub := range submissions {
		if ctx.Err() != nil {
			return regraded, ctx.Err()
		}

		log := Log.With(zap.Int64("submission_id", sub.ID), zap.Int64("quiz_id", sub.QuizID))

		quiz, err := sg.store.GetQuiz(ctx, sub.QuizID)
		if err != nil {
			log.Warn("skipping regrade, quiz unavailable", zap.Error(err))
			continue
		}

		result := sg.grader.Grade(ctx, quiz.Questions, sub.Answers)
		if result.Defaulted {
			log.Warn("skipping regrade, model gave no usable score")
			continue
		}

		if err := sg.store.UpdateSubmissionScore(ctx, sub.ID, result.Score); err != nil {
			log.Error("failed to store regraded score", zap.Error(err))
			continue
		}
		regraded++
	}

	Log.Info("regrade complete", zap.Int64("student_id", studentID),
		zap.Int("candidates", len(submissions)), zap.Int("regraded", regraded))
	return regraded, nil
}
