package popquiz

import (
	"strings"
	"time"
)

// QuestionType selects the output grammar the model is asked to follow
type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	TrueFalse      QuestionType = "true_false"
	ShortAnswer    QuestionType = "short_answer"
)

// ParseQuestionType accepts the canonical names plus the spellings the
// frontend historically sent ("MCQ", "True/False", "Short Answer").
func ParseQuestionType(s string) (QuestionType, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer(" ", "_", "-", "_", "/", "_").Replace(key)
	switch key {
	case "multiple_choice", "mcq", "multiplechoice":
		return MultipleChoice, true
	case "true_false", "truefalse", "tf":
		return TrueFalse, true
	case "short_answer", "shortanswer", "sa":
		return ShortAnswer, true
	}
	return "", false
}

// CognitiveLevel is one of the six Bloom's taxonomy levels. Values outside
// the enumeration are tolerated and described generically in prompts.
type CognitiveLevel string

const (
	Remembering   CognitiveLevel = "Remembering"
	Understanding CognitiveLevel = "Understanding"
	Applying      CognitiveLevel = "Applying"
	Analyzing     CognitiveLevel = "Analyzing"
	Evaluating    CognitiveLevel = "Evaluating"
	Creating      CognitiveLevel = "Creating"
)

// CognitiveLevels lists the closed enumeration in taxonomy order
var CognitiveLevels = []CognitiveLevel{Remembering, Understanding, Applying, Analyzing, Evaluating, Creating}

// ParseCognitiveLevel normalizes case; unknown names are returned as given
func ParseCognitiveLevel(s string) CognitiveLevel {
	s = strings.TrimSpace(s)
	for _, level := range CognitiveLevels {
		if strings.EqualFold(s, string(level)) {
			return level
		}
	}
	return CognitiveLevel(s)
}

// GenerationRequest represents a request to generate questions
type GenerationRequest struct {
	Topic          string         `json:"topic"`
	CognitiveLevel CognitiveLevel `json:"cognitive_level"`
	QuestionType   QuestionType   `json:"question_type"`
	Count          int            `json:"num_questions"`
	SourceText     string         `json:"source_text,omitempty"`
}

// Question is a single generated item. Text is the opaque block the model
// produced (for multiple choice the stem line followed by its option lines).
type Question struct {
	Type QuestionType `json:"type"`
	Text string       `json:"text"`
}

// Stem returns the first line of the question without its "Q<n>." marker
func (q Question) Stem() string {
	first, _, _ := strings.Cut(q.Text, "\n")
	return stripMarker(strings.TrimSpace(first))
}

// Options returns the labeled option lines of a multiple choice question,
// in the order they appear. Other question types have no options.
func (q Question) Options() []string {
	if q.Type != MultipleChoice {
		return nil
	}
	var options []string
	lines := strings.Split(q.Text, "\n")
	for _, line := range lines[1:] {
		line = strings.TrimSpace(line)
		if isOptionLine(line) {
			options = append(options, line)
		}
	}
	return options
}

// isOptionLine matches "A)", "b.", "C:" style option labels
func isOptionLine(line string) bool {
	if len(line) < 2 {
		return false
	}
	c := line[0] | 0x20
	if c < 'a' || c > 'd' {
		return false
	}
	switch line[1] {
	case ')', '.', ':':
		return true
	}
	return false
}

// Quiz is a persisted question set owned by a teacher
type Quiz struct {
	ID             int64          `json:"id"`
	OwnerID        int64          `json:"owner_id"`
	Topic          string         `json:"topic"`
	CognitiveLevel CognitiveLevel `json:"cognitive_level"`
	QuestionType   QuestionType   `json:"question_type"`
	Questions      []Question     `json:"questions"`
	CreatedAt      time.Time      `json:"created_at"`
}

// Submission is a student's single answer sheet for a quiz. Score is nil
// until grading succeeded.
type Submission struct {
	ID          int64             `json:"id"`
	QuizID      int64             `json:"quiz_id"`
	StudentID   int64             `json:"student_id"`
	Answers     map[string]string `json:"answers"`
	Score       *int              `json:"score"`
	SubmittedAt time.Time         `json:"submitted_at"`
}

// GradeResult is the outcome of one grading call
type GradeResult struct {
	Score     int    `json:"score"`
	Defaulted bool   `json:"defaulted"` // true when DefaultScore was used
	Reply     string `json:"-"`
}
