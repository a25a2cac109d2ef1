package popquiz

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"
)

// DB is the SQLite store for quizzes and submissions
type DB struct {
	db *sql.DB
}

// OpenDB opens (creating if needed) the database at path
func OpenDB(path string) (*DB, error) {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	db, err := sql.Open("sqlite3", path+sep+"_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection serializes writers; the unique index still decides
	// which of two racing submissions wins.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{db: db}, nil
}

// CloseDB closes the database connection
func (db *DB) CloseDB() error {
	return db.db.Close()
}

// CreateTables creates the schema. Databases from before the unique
// submission index get their duplicates removed first.
func (db *DB) CreateTables(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS quizzes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			owner_id INTEGER NOT NULL,
			topic TEXT NOT NULL,
			cognitive_level TEXT NOT NULL,
			question_type TEXT NOT NULL,
			questions TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS submissions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			quiz_id INTEGER NOT NULL,
			student_id INTEGER NOT NULL,
			answers TEXT NOT NULL,
			score INTEGER,
			submitted_at DATETIME NOT NULL,
			FOREIGN KEY (quiz_id) REFERENCES quizzes(id) ON DELETE CASCADE
		)`,
	}

	for _, query := range queries {
		if _, err := db.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute %s: %w", query, err)
		}
	}

	removed, err := db.RemoveDuplicateSubmissions(ctx)
	if err != nil {
		return err
	}
	if removed > 0 {
		Log.Sugar().Infof("Removed %d duplicate submissions before creating unique index", removed)
	}

	if _, err := db.db.ExecContext(ctx,
		`CREATE UNIQUE INDEX IF NOT EXISTS submissions_quiz_student_idx ON submissions (quiz_id, student_id)`,
	); err != nil {
		return fmt.Errorf("failed to create submission index: %w", err)
	}
	return nil
}

// RemoveDuplicateSubmissions keeps only the latest submission per
// (quiz, student) pair and returns how many rows were deleted.
func (db *DB) RemoveDuplicateSubmissions(ctx context.Context) (int64, error) {
	res, err := db.db.ExecContext(ctx, `
		DELETE FROM submissions
		WHERE id NOT IN (
			SELECT MAX(id) FROM submissions GROUP BY quiz_id, student_id
		)`)
	if err != nil {
		return 0, fmt.Errorf("failed to remove duplicate submissions: %w", err)
	}
	return res.RowsAffected()
}

// CreateQuiz inserts quiz and sets its ID
func (db *DB) CreateQuiz(ctx context.Context, quiz *Quiz) error {
	questionsJSON, err := QuestionsToJSON(quiz.Questions)
	if err != nil {
		return err
	}
	if quiz.CreatedAt.IsZero() {
		quiz.CreatedAt = time.Now()
	}

	res, err := db.db.ExecContext(ctx,
		"INSERT INTO quizzes (owner_id, topic, cognitive_level, question_type, questions, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		quiz.OwnerID, quiz.Topic, string(quiz.CognitiveLevel), string(quiz.QuestionType), questionsJSON, quiz.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create quiz: %w", err)
	}
	quiz.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read quiz id: %w", err)
	}
	return nil
}

const quizColumns = "id, owner_id, topic, cognitive_level, question_type, questions, created_at"

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanQuiz(row rowScanner) (*Quiz, error) {
	var quiz Quiz
	var level, qt, questionsJSON string
	if err := row.Scan(&quiz.ID, &quiz.OwnerID, &quiz.Topic, &level, &qt, &questionsJSON, &quiz.CreatedAt); err != nil {
		return nil, err
	}
	quiz.CognitiveLevel = CognitiveLevel(level)
	quiz.QuestionType = QuestionType(qt)

	questions, err := JSONToQuestions(questionsJSON, quiz.QuestionType)
	if err != nil {
		return nil, err
	}
	quiz.Questions = questions
	return &quiz, nil
}

// GetQuiz retrieves a quiz by ID
func (db *DB) GetQuiz(ctx context.Context, id int64) (*Quiz, error) {
	row := db.db.QueryRowContext(ctx, "SELECT "+quizColumns+" FROM quizzes WHERE id = ?", id)
	quiz, err := scanQuiz(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %d", ErrQuizNotFound, id)
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	return quiz, nil
}

// ListQuizzes returns the owner's quizzes, newest first
func (db *DB) ListQuizzes(ctx context.Context, ownerID int64) ([]Quiz, error) {
	rows, err := db.db.QueryContext(ctx,
		"SELECT "+quizColumns+" FROM quizzes WHERE owner_id = ? ORDER BY created_at DESC, id DESC", ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get quizzes: %w", err)
	}
	defer rows.Close()

	quizzes := []Quiz{}
	for rows.Next() {
		quiz, err := scanQuiz(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quiz: %w", err)
		}
		quizzes = append(quizzes, *quiz)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating quizzes: %w", err)
	}
	return quizzes, nil
}

// UpdateQuestions replaces the stored question list of a quiz
func (db *DB) UpdateQuestions(ctx context.Context, quizID int64, questions []Question) error {
	questionsJSON, err := QuestionsToJSON(questions)
	if err != nil {
		return err
	}
	res, err := db.db.ExecContext(ctx, "UPDATE quizzes SET questions = ? WHERE id = ?", questionsJSON, quizID)
	if err != nil {
		return fmt.Errorf("failed to update questions: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %d", ErrQuizNotFound, quizID)
	}
	return nil
}

// DeleteQuiz removes a quiz together with its submissions
func (db *DB) DeleteQuiz(ctx context.Context, quizID int64) error {
	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin delete: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM submissions WHERE quiz_id = ?", quizID); err != nil {
		return fmt.Errorf("failed to delete submissions: %w", err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM quizzes WHERE id = ?", quizID)
	if err != nil {
		return fmt.Errorf("failed to delete quiz: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %d", ErrQuizNotFound, quizID)
	}
	return tx.Commit()
}

// SubmissionExists checks whether the student already submitted the quiz
func (db *DB) SubmissionExists(ctx context.Context, quizID, studentID int64) (bool, error) {
	var exists bool
	err := db.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM submissions WHERE quiz_id = ? AND student_id = ?)", quizID, studentID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check if submission exists: %w", err)
	}
	return exists, nil
}

// InsertSubmission stores sub and sets its ID. A second row for the same
// (quiz, student) pair fails with ErrDuplicateSubmission.
func (db *DB) InsertSubmission(ctx context.Context, sub *Submission) error {
	answersJSON, err := json.Marshal(sub.Answers)
	if err != nil {
		return fmt.Errorf("failed to marshal answers: %w", err)
	}
	if sub.SubmittedAt.IsZero() {
		sub.SubmittedAt = time.Now()
	}

	var score sql.NullInt64
	if sub.Score != nil {
		score = sql.NullInt64{Int64: int64(*sub.Score), Valid: true}
	}

	res, err := db.db.ExecContext(ctx,
		"INSERT INTO submissions (quiz_id, student_id, answers, score, submitted_at) VALUES (?, ?, ?, ?, ?)",
		sub.QuizID, sub.StudentID, string(answersJSON), score, sub.SubmittedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: quiz %d, student %d", ErrDuplicateSubmission, sub.QuizID, sub.StudentID)
		}
		return fmt.Errorf("failed to create submission: %w", err)
	}
	sub.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read submission id: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

const submissionColumns = "id, quiz_id, student_id, answers, score, submitted_at"

func (db *DB) querySubmissions(ctx context.Context, query string, args ...interface{}) ([]Submission, error) {
	rows, err := db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get submissions: %w", err)
	}
	defer rows.Close()

	submissions := []Submission{}
	for rows.Next() {
		var sub Submission
		var answersJSON string
		var score sql.NullInt64
		if err := rows.Scan(&sub.ID, &sub.QuizID, &sub.StudentID, &answersJSON, &score, &sub.SubmittedAt); err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		if err := json.Unmarshal([]byte(answersJSON), &sub.Answers); err != nil {
			return nil, fmt.Errorf("failed to unmarshal answers: %w", err)
		}
		if score.Valid {
			s := int(score.Int64)
			sub.Score = &s
		}
		submissions = append(submissions, sub)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating submissions: %w", err)
	}
	return submissions, nil
}

// ListSubmissions returns every submission for a quiz in submission order
func (db *DB) ListSubmissions(ctx context.Context, quizID int64) ([]Submission, error) {
	return db.querySubmissions(ctx,
		"SELECT "+submissionColumns+" FROM submissions WHERE quiz_id = ? ORDER BY id", quizID)
}

// ListRegradable returns the student's submissions whose score is NULL or 0
func (db *DB) ListRegradable(ctx context.Context, studentID int64) ([]Submission, error) {
	return db.querySubmissions(ctx,
		"SELECT "+submissionColumns+" FROM submissions WHERE student_id = ? AND (score IS NULL OR score = 0) ORDER BY id", studentID)
}

// UpdateSubmissionScore sets the score of one submission
func (db *DB) UpdateSubmissionScore(ctx context.Context, submissionID int64, score int) error {
	_, err := db.db.ExecContext(ctx, "UPDATE submissions SET score = ? WHERE id = ?", score, submissionID)
	if err != nil {
		return fmt.Errorf("failed to update submission score: %w", err)
	}
	return nil
}

// QuestionsToJSON stores questions as a plain array of their texts
func QuestionsToJSON(questions []Question) (string, error) {
	texts := make([]string, len(questions))
	for i, q := range questions {
		texts[i] = q.Text
	}
	data, err := json.Marshal(texts)
	if err != nil {
		return "", fmt.Errorf("failed to marshal questions: %w", err)
	}
	return string(data), nil
}

// JSONToQuestions is the inverse of QuestionsToJSON
func JSONToQuestions(questionsJSON string, qt QuestionType) ([]Question, error) {
	var texts []string
	if err := json.Unmarshal([]byte(questionsJSON), &texts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal questions: %w", err)
	}
	questions := make([]Question, len(texts))
	for i, text := range texts {
		questions[i] = Question{Type: qt, Text: text}
	}
	return questions, nil
}
