package popquiz

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultScore is awarded when the model cannot be reached or its reply
// contains no number. A grading failure must not block a submission.
const DefaultScore = 50

const noAnswerText = "No answer provided"

// Grader scores a whole answer sheet by asking the model for one number
type Grader struct {
	completer  Completer
	timeout    time.Duration
	transcript *Transcript
}

// NewGrader creates a grader with the given per-call timeout
func NewGrader(completer Completer, timeout time.Duration) *Grader {
	return &Grader{completer: completer, timeout: timeout}
}

// SetTranscript records every grading prompt and reply to t
func (g *Grader) SetTranscript(t *Transcript) {
	g.transcript = t
}

// AnswerKey is the answer map key for the question at index i
func AnswerKey(i int) string {
	return fmt.Sprintf("question_%d", i)
}

// Grade never fails; upstream errors and unusable replies yield DefaultScore
func (g *Grader) Grade(ctx context.Context, questions []Question, answers map[string]string) GradeResult {
	prompt := BuildGradingPrompt(questions, answers)
	runID := g.transcript.Request("Grader", prompt)

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	reply, err := g.completer.Complete(ctx, prompt)
	if err != nil {
		Log.Warn("grading call failed, using default score", zap.Error(err), zap.Int("default_score", DefaultScore))
		g.transcript.Failure(runID, "Grader", err)
		return GradeResult{Score: DefaultScore, Defaulted: true}
	}
	g.transcript.Response(runID, "Grader", reply)

	score, ok := ExtractScore(reply)
	if !ok {
		Log.Warn("no score in grading reply, using default score", zap.String("reply", reply))
		return GradeResult{Score: DefaultScore, Defaulted: true, Reply: reply}
	}

	Log.Debug("graded submission", zap.Int("score", score), zap.Int("questions", len(questions)))
	return GradeResult{Score: score, Reply: reply}
}

// BuildGradingPrompt embeds every question with the student's answer
func BuildGradingPrompt(questions []Question, answers map[string]string) string {
	var sb strings.Builder

	sb.WriteString("You are grading a student's quiz. Evaluate the answers below for correctness, completeness, clarity and technical accuracy.\n\n")

	for i, q := range questions {
		answer := strings.TrimSpace(answers[AnswerKey(i)])
		if answer == "" {
			answer = noAnswerText
		}
		sb.WriteString(fmt.Sprintf("Question %d: %s\n", i+1, q.Text))
		sb.WriteString(fmt.Sprintf("Student answer: %s\n\n", answer))
	}

	sb.WriteString("Give one overall score from 0 to 100 for the whole quiz.\n")
	sb.WriteString("Reply with ONLY the integer score. No words, no explanation, no percent sign.")

	return sb.String()
}

// ExtractScore takes the first run of digits in reply and clamps it to
// [0,100]. ok is false when reply has no digits.
func ExtractScore(reply string) (score int, ok bool) {
	start := strings.IndexFunc(reply, isDigit)
	if start < 0 {
		return 0, false
	}
	end := start
	for end < len(reply) && isDigit(rune(reply[end])) {
		end++
	}

	n, err := strconv.Atoi(reply[start:end])
	if err != nil {
		// only overflow can fail here
		return 100, true
	}
	return clampScore(n), true
}

func clampScore(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
