package popquiz

import (
	"fmt"
	"strings"
)

// Fallback templates take the topic as their only argument. The first three
// short-answer templates start with a verb that can be swapped per level.
var multipleChoiceTemplates = []string{
	"Q%[2]d. Which of the following best describes %[1]s?\nA) A core concept that defines how %[1]s works\nB) An unrelated historical event\nC) A type of hardware component\nD) None of the above",
	"Q%[2]d. What is the primary purpose of %[1]s?\nA) To solve the problems %[1]s was designed for\nB) To replace all existing tools\nC) To slow systems down\nD) It has no purpose",
	"Q%[2]d. Which statement about %[1]s is most accurate?\nA) It is only used in theory\nB) It has practical applications in its field\nC) It was abandoned long ago\nD) It cannot be studied",
	"Q%[2]d. Which skill is most important when working with %[1]s?\nA) Memorizing unrelated facts\nB) Understanding its underlying principles\nC) Avoiding documentation\nD) Guessing",
	"Q%[2]d. What is a common challenge when applying %[1]s?\nA) Choosing the right approach for the context\nB) It never has challenges\nC) It is illegal to use\nD) It only works on Tuesdays",
}

var trueFalseTemplates = []string{
	"%s is a fundamental concept in its field.",
	"%s has practical applications in real-world scenarios.",
	"Understanding %s requires no prior knowledge.",
	"%s has remained unchanged since it was first introduced.",
	"%s can be applied across multiple domains.",
	"Learning %s improves problem-solving skills in its area.",
}

var shortAnswerTemplates = []string{
	"%s %s and explain its primary purpose.",
	"%s the key components of %s.",
	"%s how %s is used in practice.",
	"What are the main advantages of %s?",
	"What are the limitations of %s?",
	"Give a real-world example where %s is applied.",
	"How has %s evolved over time?",
	"What problems does %s solve?",
	"Compare %s with a related concept.",
	"What are common misconceptions about %s?",
}

var shortAnswerVerbs = map[CognitiveLevel][3]string{
	Analyzing:  {"Analyze", "Examine", "Break down"},
	Evaluating: {"Evaluate", "Critique", "Assess"},
}

var defaultShortAnswerVerbs = [3]string{"Define", "Describe", "Explain"}

// FallbackQuestions synthesizes exactly count template questions. It is
// deterministic and used only when the model could not be reached.
func FallbackQuestions(topic string, qt QuestionType, level CognitiveLevel, count int) []Question {
	if count <= 0 {
		return []Question{}
	}
	topic = strings.TrimSpace(topic)

	questions := make([]Question, count)
	for i := 0; i < count; i++ {
		var text string
		switch qt {
		case MultipleChoice:
			text = fmt.Sprintf(multipleChoiceTemplates[i%len(multipleChoiceTemplates)], topic, i+1)
		case TrueFalse:
			text = fmt.Sprintf(trueFalseTemplates[i%len(trueFalseTemplates)], topic)
		default:
			text = shortAnswerFallback(topic, level, i%len(shortAnswerTemplates))
		}
		questions[i] = Question{Type: qt, Text: text}
	}
	return questions
}

func shortAnswerFallback(topic string, level CognitiveLevel, idx int) string {
	if idx >= 3 {
		return fmt.Sprintf(shortAnswerTemplates[idx], topic)
	}
	verbs, ok := shortAnswerVerbs[level]
	if !ok {
		verbs = defaultShortAnswerVerbs
	}
	return fmt.Sprintf(shortAnswerTemplates[idx], verbs[idx], topic)
}
