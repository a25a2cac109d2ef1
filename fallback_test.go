package popquiz_test

import (
	"reflect"
	"strings"
	"testing"

	"popquiz"
)

func TestFallbackShortAnswerContainsTopic(t *testing.T) {
	questions := popquiz.FallbackQuestions("Caching", popquiz.ShortAnswer, popquiz.Understanding, 3)
	if len(questions) != 3 {
		t.Fatalf("got %d questions, want 3", len(questions))
	}
	for i, q := range questions {
		if q.Text == "" || !strings.Contains(q.Text, "Caching") {
			t.Errorf("question %d = %q, want non-empty text mentioning Caching", i, q.Text)
		}
	}
}

func TestFallbackExactCount(t *testing.T) {
	for _, qt := range []popquiz.QuestionType{popquiz.MultipleChoice, popquiz.TrueFalse, popquiz.ShortAnswer} {
		for _, count := range []int{1, 5, 6, 10, 23} {
			got := popquiz.FallbackQuestions("Networking", qt, popquiz.Remembering, count)
			if len(got) != count {
				t.Errorf("%s count=%d: got %d", qt, count, len(got))
			}
			for _, q := range got {
				if q.Type != qt || !strings.Contains(q.Text, "Networking") {
					t.Errorf("%s: bad question %+v", qt, q)
				}
			}
		}
	}
	if got := popquiz.FallbackQuestions("Networking", popquiz.ShortAnswer, "", 0); len(got) != 0 {
		t.Errorf("count 0 gave %d questions", len(got))
	}
}

func TestFallbackDeterministicAndCycles(t *testing.T) {
	a := popquiz.FallbackQuestions("Caching", popquiz.TrueFalse, popquiz.Applying, 12)
	b := popquiz.FallbackQuestions("Caching", popquiz.TrueFalse, popquiz.Applying, 12)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("fallback is not deterministic")
	}
	// true/false bank has six templates
	if a[0].Text != a[6].Text {
		t.Errorf("expected cycling: %q vs %q", a[0].Text, a[6].Text)
	}
}

func TestFallbackMultipleChoiceHasOptions(t *testing.T) {
	for i, q := range popquiz.FallbackQuestions("Caching", popquiz.MultipleChoice, "", 7) {
		if len(q.Options()) != 4 {
			t.Errorf("question %d has %d options: %q", i, len(q.Options()), q.Text)
		}
		if q.Stem() == "" {
			t.Errorf("question %d has empty stem", i)
		}
	}
}

func TestFallbackLevelVerbs(t *testing.T) {
	tests := []struct {
		level popquiz.CognitiveLevel
		first string
	}{
		{popquiz.Understanding, "Define Caching"},
		{popquiz.Analyzing, "Analyze Caching"},
		{popquiz.Evaluating, "Evaluate Caching"},
	}
	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			got := popquiz.FallbackQuestions("Caching", popquiz.ShortAnswer, tt.level, 4)
			if !strings.HasPrefix(got[0].Text, tt.first) {
				t.Errorf("first question = %q, want prefix %q", got[0].Text, tt.first)
			}
			// templates past the first three are level independent
			base := popquiz.FallbackQuestions("Caching", popquiz.ShortAnswer, popquiz.Understanding, 4)
			if got[3].Text != base[3].Text {
				t.Errorf("fourth question changed with level: %q", got[3].Text)
			}
		})
	}

	// levels only affect short answer
	tf := popquiz.FallbackQuestions("Caching", popquiz.TrueFalse, popquiz.Analyzing, 3)
	base := popquiz.FallbackQuestions("Caching", popquiz.TrueFalse, popquiz.Understanding, 3)
	if !reflect.DeepEqual(tf, base) {
		t.Error("true/false fallback should not depend on level")
	}
}
