package popquiz

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultMaxQuestions bounds a single request when no limit is configured
const DefaultMaxQuestions = 20

// QuizGenerator turns a GenerationRequest into questions, falling back to
// template questions when the model cannot be reached.
type QuizGenerator struct {
	completer    Completer
	prompts      PromptBuilder
	timeout      time.Duration
	maxQuestions int
	transcript   *Transcript
}

// GeneratorOption configures a QuizGenerator
type GeneratorOption func(*QuizGenerator)

// WithTimeout bounds each model call
func WithTimeout(d time.Duration) GeneratorOption {
	return func(qg *QuizGenerator) { qg.timeout = d }
}

// WithMaxQuestions sets the largest question count a request may ask for
func WithMaxQuestions(n int) GeneratorOption {
	return func(qg *QuizGenerator) { qg.maxQuestions = n }
}

// WithSourceTextLimit caps the source material placed in a prompt
func WithSourceTextLimit(n int) GeneratorOption {
	return func(qg *QuizGenerator) { qg.prompts.SourceTextLimit = n }
}

// WithTranscript records prompts and replies to t
func WithTranscript(t *Transcript) GeneratorOption {
	return func(qg *QuizGenerator) { qg.transcript = t }
}

// NewQuizGenerator creates a generator with a 30s model budget
func NewQuizGenerator(completer Completer, opts ...GeneratorOption) *QuizGenerator {
	qg := &QuizGenerator{
		completer:    completer,
		prompts:      PromptBuilder{SourceTextLimit: DefaultSourceTextLimit},
		timeout:      30 * time.Second,
		maxQuestions: DefaultMaxQuestions,
	}
	for _, opt := range opts {
		opt(qg)
	}
	return qg
}

// Validate normalizes req in place and reports ErrInvalidRequest problems
func (qg *QuizGenerator) Validate(req *GenerationRequest) error {
	req.Topic = strings.TrimSpace(req.Topic)
	if req.Topic == "" {
		return fmt.Errorf("%w: topic is required", ErrInvalidRequest)
	}
	qt, ok := ParseQuestionType(string(req.QuestionType))
	if !ok {
		return fmt.Errorf("%w: unknown question type %q", ErrInvalidRequest, req.QuestionType)
	}
	req.QuestionType = qt
	req.CognitiveLevel = ParseCognitiveLevel(string(req.CognitiveLevel))
	if req.Count <= 0 || req.Count > qg.maxQuestions {
		return fmt.Errorf("%w: number of questions must be between 1 and %d", ErrInvalidRequest, qg.maxQuestions)
	}
	return nil
}

// Generate returns at most req.Count questions. Upstream failures are never
// returned; only an invalid request is an error.
func (qg *QuizGenerator) Generate(ctx context.Context, req GenerationRequest) ([]Question, error) {
	if err := qg.Validate(&req); err != nil {
		return nil, err
	}

	Log.Info("generating questions",
		zap.String("topic", req.Topic),
		zap.String("type", string(req.QuestionType)),
		zap.String("level", string(req.CognitiveLevel)),
		zap.Int("count", req.Count),
		zap.Int("source_chars", len(req.SourceText)))

	prompt := qg.prompts.Build(req)
	runID := qg.transcript.Request("QuizGenerator", prompt)

	callCtx, cancel := context.WithTimeout(ctx, qg.timeout)
	defer cancel()

	raw, err := qg.completer.Complete(callCtx, prompt)
	if err != nil {
		qg.transcript.Failure(runID, "QuizGenerator", err)
		if !errors.Is(err, ErrUpstreamUnavailable) {
			err = fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
		}
		Log.Warn("model unavailable, using fallback questions", zap.Error(err), zap.String("topic", req.Topic))
		return FallbackQuestions(req.Topic, req.QuestionType, req.CognitiveLevel, req.Count), nil
	}
	qg.transcript.Response(runID, "QuizGenerator", raw)

	questions := ParseQuestions(raw, req.QuestionType, req.Count)
	Log.Info("question generation complete", zap.Int("parsed", len(questions)), zap.Int("requested", req.Count))
	return questions, nil
}
