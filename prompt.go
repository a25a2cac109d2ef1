package popquiz

import (
	"fmt"
	"strings"
)

// DefaultSourceTextLimit caps how much uploaded document text is placed in a prompt
const DefaultSourceTextLimit = 5000

const truncationMarker = "\n[...truncated]"

const genericLevelDescription = "demonstrate understanding of"

var levelDescriptions = map[CognitiveLevel]string{
	Remembering:   "recall facts and basic concepts about",
	Understanding: "explain ideas or concepts of",
	Applying:      "use information in new situations related to",
	Analyzing:     "draw connections among ideas in",
	Evaluating:    "justify a stand or decision about",
	Creating:      "produce new or original work based on",
}

// LevelDescription returns the phrase used for a cognitive level in prompts
func LevelDescription(level CognitiveLevel) string {
	if desc, ok := levelDescriptions[level]; ok {
		return desc
	}
	return genericLevelDescription
}

// PromptBuilder turns a GenerationRequest into a single completion prompt
type PromptBuilder struct {
	SourceTextLimit int
}

// BuildPrompt uses the default source text limit
func BuildPrompt(req GenerationRequest) string {
	return PromptBuilder{SourceTextLimit: DefaultSourceTextLimit}.Build(req)
}

// Build renders the prompt for req, placing any truncated source material
// before the instructions.
func (pb PromptBuilder) Build(req GenerationRequest) string {
	var sb strings.Builder

	if req.SourceText != "" {
		sb.WriteString("Use the following source material as context:\n")
		sb.WriteString("---\n")
		sb.WriteString(truncateSource(req.SourceText, pb.limit()))
		sb.WriteString("\n---\n\n")
	}

	desc := LevelDescription(req.CognitiveLevel)
	levelName := string(req.CognitiveLevel)
	if levelName == "" {
		levelName = "General"
	}

	switch req.QuestionType {
	case MultipleChoice:
		sb.WriteString(fmt.Sprintf("Generate %d multiple choice questions about \"%s\" at the %s level of Bloom's taxonomy. ", req.Count, req.Topic, levelName))
		sb.WriteString(fmt.Sprintf("Each question should require students to %s the topic.\n\n", desc))
		sb.WriteString("Format each question exactly like this:\n")
		sb.WriteString("Q1. <question stem>\n")
		sb.WriteString("A) <option>\n")
		sb.WriteString("B) <option>\n")
		sb.WriteString("C) <option>\n")
		sb.WriteString("D) <option>\n\n")
		sb.WriteString("Rules:\n")
		sb.WriteString("- Exactly four options per question, labeled A) to D)\n")
		sb.WriteString("- Do NOT mark or reveal the correct answer\n")
		sb.WriteString("- Do NOT include answer keys, explanations or hints\n")

	case TrueFalse:
		sb.WriteString(fmt.Sprintf("Generate %d true/false statements about \"%s\" at the %s level of Bloom's taxonomy. ", req.Count, req.Topic, levelName))
		sb.WriteString(fmt.Sprintf("Each statement should require students to %s the topic.\n\n", desc))
		sb.WriteString("Format each statement on its own line exactly like this:\n")
		sb.WriteString("Q1. <statement>\n\n")
		sb.WriteString("Rules:\n")
		sb.WriteString("- One statement per line\n")
		sb.WriteString("- Do NOT say whether the statement is true or false\n")
		sb.WriteString("- Do NOT include answer keys, explanations or hints\n")

	default:
		sb.WriteString(fmt.Sprintf("Generate %d short-answer questions about \"%s\" at the %s level of Bloom's taxonomy. ", req.Count, req.Topic, levelName))
		sb.WriteString(fmt.Sprintf("Each question should require students to %s the topic and be answerable in 1-2 lines.\n\n", desc))
		sb.WriteString("Format each question on its own line exactly like this:\n")
		sb.WriteString("Q1. <question>\n\n")
		sb.WriteString("Rules:\n")
		sb.WriteString("- One question per line\n")
		sb.WriteString("- Do NOT include answers, answer keys or hints\n")
	}

	sb.WriteString("- Output only the questions, nothing else\n")
	return sb.String()
}

func (pb PromptBuilder) limit() int {
	if pb.SourceTextLimit <= 0 {
		return DefaultSourceTextLimit
	}
	return pb.SourceTextLimit
}

// truncateSource cuts at a rune boundary so multi-byte text stays valid
func truncateSource(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + truncationMarker
}
