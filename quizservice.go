package popquiz

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// QuizService ties generation to storage and enforces quiz ownership
type QuizService struct {
	db        *DB
	generator *QuizGenerator
}

// NewQuizService creates a service storing quizzes in db
func NewQuizService(db *DB, generator *QuizGenerator) *QuizService {
	return &QuizService{db: db, generator: generator}
}

// CreateQuiz generates questions for req and stores them under ownerID
func (qs *QuizService) CreateQuiz(ctx context.Context, ownerID int64, req GenerationRequest) (*Quiz, error) {
	if err := qs.generator.Validate(&req); err != nil {
		return nil, err
	}
	questions, err := qs.generator.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	quiz := &Quiz{
		OwnerID:        ownerID,
		Topic:          req.Topic,
		CognitiveLevel: req.CognitiveLevel,
		QuestionType:   req.QuestionType,
		Questions:      questions,
	}
	if err := qs.db.CreateQuiz(ctx, quiz); err != nil {
		return nil, err
	}

	Log.Info("quiz created", zap.Int64("quiz_id", quiz.ID), zap.Int64("owner_id", ownerID), zap.Int("questions", len(questions)))
	return quiz, nil
}

// GetQuiz returns any quiz by ID; students read quizzes they did not create
func (qs *QuizService) GetQuiz(ctx context.Context, quizID int64) (*Quiz, error) {
	return qs.db.GetQuiz(ctx, quizID)
}

// ListQuizzes returns the owner's quizzes, newest first
func (qs *QuizService) ListQuizzes(ctx context.Context, ownerID int64) ([]Quiz, error) {
	return qs.db.ListQuizzes(ctx, ownerID)
}

// ownedQuiz loads a quiz and checks that ownerID owns it
func (qs *QuizService) ownedQuiz(ctx context.Context, ownerID, quizID int64) (*Quiz, error) {
	quiz, err := qs.db.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if quiz.OwnerID != ownerID {
		return nil, fmt.Errorf("%w: quiz %d", ErrNotAuthorized, quizID)
	}
	return quiz, nil
}

// UpdateQuestion replaces the text of the question at index
func (qs *QuizService) UpdateQuestion(ctx context.Context, ownerID, quizID int64, index int, text string) (*Quiz, error) {
	quiz, err := qs.ownedQuiz(ctx, ownerID, quizID)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(quiz.Questions) {
		return nil, fmt.Errorf("%w: %d of %d", ErrInvalidIndex, index, len(quiz.Questions))
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: question text is required", ErrInvalidRequest)
	}

	quiz.Questions[index] = Question{Type: quiz.QuestionType, Text: text}
	if err := qs.db.UpdateQuestions(ctx, quizID, quiz.Questions); err != nil {
		return nil, err
	}
	return quiz, nil
}

// DeleteQuiz removes an owned quiz and its submissions
func (qs *QuizService) DeleteQuiz(ctx context.Context, ownerID, quizID int64) error {
	if _, err := qs.ownedQuiz(ctx, ownerID, quizID); err != nil {
		return err
	}
	return qs.db.DeleteQuiz(ctx, quizID)
}

// ListSubmissions shows an owned quiz's submissions
func (qs *QuizService) ListSubmissions(ctx context.Context, ownerID, quizID int64) ([]Submission, error) {
	if _, err := qs.ownedQuiz(ctx, ownerID, quizID); err != nil {
		return nil, err
	}
	return qs.db.ListSubmissions(ctx, quizID)
}
