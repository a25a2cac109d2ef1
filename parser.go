package popquiz

import (
	"errors"
	"strings"
)

// minFallbackLineLength is the length a line must exceed to be kept by the
// last-resort scan.
const minFallbackLineLength = 10

// ParseQuestions converts raw model output into at most count questions.
// It never fails. Both format passes keep any non-blank line, so the
// long-line scan after an empty pass is a guard that only sees blank input
// and then yields nothing.
func ParseQuestions(raw string, qt QuestionType, count int) []Question {
	lines := splitLines(raw)

	var texts []string
	var err error
	if qt == MultipleChoice {
		texts, err = parseAccumulated(lines)
	} else {
		texts, err = parsePerLine(lines)
	}

	if errors.Is(err, errParseYieldedNothing) {
		Log.Debug("format parse yielded nothing, keeping long lines")
		texts = parseLongLines(lines)
	}

	if count >= 0 && len(texts) > count {
		texts = texts[:count]
	}

	questions := make([]Question, len(texts))
	for i, text := range texts {
		questions[i] = Question{Type: qt, Text: text}
	}
	return questions
}

// splitLines trims trailing whitespace and drops blank lines
func splitLines(raw string) []string {
	rawLines := strings.Split(raw, "\n")
	lines := make([]string, 0, len(rawLines))
	for _, line := range rawLines {
		line = strings.TrimRight(line, " \t\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// isQuestionMarker reports whether line starts with "q" followed by a digit
func isQuestionMarker(line string) bool {
	line = strings.TrimSpace(line)
	return len(line) >= 2 && (line[0] == 'q' || line[0] == 'Q') && line[1] >= '0' && line[1] <= '9'
}

// stripMarker removes a leading "Q<digits>" and one following ".", ")" or ":"
func stripMarker(line string) string {
	if !isQuestionMarker(line) {
		return line
	}
	i := 1
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i < len(line) && (line[i] == '.' || line[i] == ')' || line[i] == ':') {
		i++
	}
	return strings.TrimSpace(line[i:])
}

// parseAccumulated groups a marker line with every following line until the
// next marker. A marker with no body still produces an entry.
func parseAccumulated(lines []string) ([]string, error) {
	var texts []string
	var current []string
	open := false

	flush := func() {
		if open {
			texts = append(texts, strings.TrimSpace(strings.Join(current, "\n")))
		}
		current = nil
		open = false
	}

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if isQuestionMarker(line) {
			flush()
			current = []string{line}
			open = true
			continue
		}
		current = append(current, line)
		open = true
	}
	flush()

	if len(texts) == 0 {
		return nil, errParseYieldedNothing
	}
	return texts, nil
}

// parsePerLine makes one record per marker line. A line without a marker is
// only kept when nothing has been collected yet.
func parsePerLine(lines []string) ([]string, error) {
	var texts []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if isQuestionMarker(line) {
			text := stripMarker(line)
			if text == "" {
				text = line
			}
			texts = append(texts, text)
			continue
		}
		if len(texts) == 0 {
			texts = append(texts, line)
		}
	}

	if len(texts) == 0 {
		return nil, errParseYieldedNothing
	}
	return texts, nil
}

func parseLongLines(lines []string) []string {
	var texts []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if len(line) > minFallbackLineLength {
			texts = append(texts, line)
		}
	}
	return texts
}
