package popquiz

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Transcript records every prompt sent to the model and what came back.
// A nil *Transcript is valid and records nothing.
type Transcript struct {
	mu sync.Mutex
	w  io.Writer
}

// NewTranscript writes entries to w
func NewTranscript(w io.Writer) *Transcript {
	return &Transcript{w: w}
}

// OpenTranscript writes entries to a size-rotated file
func OpenTranscript(filename string) *Transcript {
	return NewTranscript(&lumberjack.Logger{
		Filename:   filename,
		MaxSize:    50,
		MaxBackups: 3,
		MaxAge:     14,
	})
}

// write emits a whole entry in one locked write so concurrent runs sharing
// a transcript cannot interleave.
func (t *Transcript) write(lines ...string) {
	if t == nil {
		return
	}
	timestamp := time.Now().Format("15:04:05.000")

	var sb strings.Builder
	for _, line := range lines {
		fmt.Fprintf(&sb, "[%s] %s", timestamp, line)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprint(t.w, sb.String())
}

// Request logs a prompt and returns the run id that ties it to its reply
func (t *Transcript) Request(module, prompt string) string {
	if t == nil {
		return ""
	}
	runID := uuid.NewString()
	t.write(
		fmt.Sprintf("=== LLM REQUEST (%s) %s ===\n", module, runID),
		fmt.Sprintf("Prompt:\n%s\n", prompt),
		"=====================\n\n",
	)
	return runID
}

// Response logs the raw reply for runID
func (t *Transcript) Response(runID, module, response string) {
	t.write(
		fmt.Sprintf("=== LLM RESPONSE (%s) %s ===\n", module, runID),
		fmt.Sprintf("Response:\n%s\n", response),
		"======================\n\n",
	)
}

// Failure logs an upstream error for runID
func (t *Transcript) Failure(runID, module string, err error) {
	t.write(
		fmt.Sprintf("=== LLM FAILURE (%s) %s ===\n", module, runID),
		fmt.Sprintf("Error: %v\n\n", err),
	)
}

// Close closes the underlying writer when it is closable
func (t *Transcript) Close() error {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if c, ok := t.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
