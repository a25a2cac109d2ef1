package popquiz_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"popquiz"
)

func TestBuildPromptPerType(t *testing.T) {
	tests := []struct {
		qt       popquiz.QuestionType
		contains []string
	}{
		{popquiz.MultipleChoice, []string{"4 multiple choice questions", "A) <option>", "D) <option>", "Do NOT mark or reveal the correct answer"}},
		{popquiz.TrueFalse, []string{"4 true/false statements", "Q1. <statement>", "Do NOT say whether the statement is true or false"}},
		{popquiz.ShortAnswer, []string{"4 short-answer questions", "Q1. <question>", "Do NOT include answers"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.qt), func(t *testing.T) {
			prompt := popquiz.BuildPrompt(popquiz.GenerationRequest{
				Topic:          "Caching",
				CognitiveLevel: popquiz.Applying,
				QuestionType:   tt.qt,
				Count:          4,
			})
			for _, want := range tt.contains {
				if !strings.Contains(prompt, want) {
					t.Errorf("prompt missing %q:\n%s", want, prompt)
				}
			}
			if !strings.Contains(prompt, `"Caching"`) || !strings.Contains(prompt, "Applying level") {
				t.Errorf("prompt missing topic or level:\n%s", prompt)
			}
			if !strings.Contains(prompt, popquiz.LevelDescription(popquiz.Applying)) {
				t.Errorf("prompt missing level description")
			}
		})
	}
}

func TestLevelDescription(t *testing.T) {
	seen := map[string]bool{}
	for _, level := range popquiz.CognitiveLevels {
		desc := popquiz.LevelDescription(level)
		if desc == "demonstrate understanding of" {
			t.Errorf("%s uses the generic description", level)
		}
		if seen[desc] {
			t.Errorf("%s shares description %q", level, desc)
		}
		seen[desc] = true
	}
	if got := popquiz.LevelDescription("Memorizing"); got != "demonstrate understanding of" {
		t.Errorf("unknown level description = %q", got)
	}
}

func TestBuildPromptSourceText(t *testing.T) {
	req := popquiz.GenerationRequest{
		Topic:        "Caching",
		QuestionType: popquiz.ShortAnswer,
		Count:        2,
		SourceText:   "Caches keep hot data close.",
	}
	prompt := popquiz.BuildPrompt(req)
	if idx := strings.Index(prompt, "Caches keep hot data close."); idx < 0 || idx > strings.Index(prompt, "Generate") {
		t.Errorf("source text should precede the instructions:\n%s", prompt)
	}
	if strings.Contains(prompt, "[...truncated]") {
		t.Errorf("short source text should not be truncated")
	}

	req.SourceText = strings.Repeat("é", 6000)
	prompt = popquiz.BuildPrompt(req)
	if !strings.Contains(prompt, "[...truncated]") {
		t.Errorf("long source text should carry a truncation marker")
	}
	if strings.Count(prompt, "é") != popquiz.DefaultSourceTextLimit {
		t.Errorf("got %d source runes, want %d", strings.Count(prompt, "é"), popquiz.DefaultSourceTextLimit)
	}
	if !utf8.ValidString(prompt) {
		t.Errorf("truncation split a rune")
	}

	small := popquiz.PromptBuilder{SourceTextLimit: 10}.Build(req)
	if strings.Count(small, "é") != 10 {
		t.Errorf("custom limit not applied")
	}
}

func TestBuildPromptDeterministic(t *testing.T) {
	req := popquiz.GenerationRequest{Topic: "Caching", CognitiveLevel: "Creating", QuestionType: popquiz.MultipleChoice, Count: 3}
	if popquiz.BuildPrompt(req) != popquiz.BuildPrompt(req) {
		t.Error("prompt is not deterministic")
	}
}
