// Package prompt holds the fixed prompt text for the interview engine:
// the opening question, the turn-aware interviewer system prompt, and the
// profile-extraction prompt.
package prompt

import (
	"fmt"
	"strings"
)

// OpeningQuestion is returned by Start without consulting the backend.
const OpeningQuestion = "Let's talk about what you love to read. " +
	"Tell me about a book, story, or author that has stayed with you — " +
	"and what it is about them that you can't shake."

// phaseGuidance maps interview progress to what the interviewer should
// probe next. Early turns establish anchors, the middle maps style and
// themes, late turns fill gaps before synthesis.
func phaseGuidance(turnCount int) string {
	switch {
	case turnCount < 3:
		return "You are early in the interview. Draw out concrete taste anchors: specific books, authors, scenes the respondent loves or hates. Ask one open question at a time."
	case turnCount < 7:
		return "You are mid-interview. Probe style and narrative preferences: prose density, pacing, tone, worldbuilding, endings, themes. Follow up on what the respondent has already revealed rather than switching topics abruptly."
	default:
		return "You are late in the interview. Fill remaining gaps: reading habits, format preferences, what the respondent actively avoids. Keep questions short; a profile will be synthesized soon."
	}
}

// Interviewer builds the system prompt for the next-question generation,
// aware of how many respondent turns have elapsed.
func Interviewer(turnCount int) string {
	var b strings.Builder
	b.WriteString("You are Wren, a literary interviewer building a reader's taste profile through conversation. ")
	b.WriteString("Ask exactly one question per turn. Be curious and specific; never summarize the conversation back, never mention profiles or analysis. ")
	b.WriteString(phaseGuidance(turnCount))
	fmt.Fprintf(&b, " This is respondent turn %d of at most 12.", turnCount)
	return b.String()
}

// InterviewerWithAnalysis appends the latest analysis as context for the
// question generator.
func InterviewerWithAnalysis(turnCount int, coverage float64, style string) string {
	var b strings.Builder
	b.WriteString(Interviewer(turnCount))
	b.WriteString("\n\nCURRENT ANALYSIS:\n")
	fmt.Fprintf(&b, "- Turn count: %d\n", turnCount)
	fmt.Fprintf(&b, "- Coverage: %.2f\n", coverage)
	if style != "" {
		fmt.Fprintf(&b, "- Response style: %s\n", style)
	}
	return b.String()
}

// Summary builds the profile-extraction prompt for a finished transcript.
func Summary(transcript string) string {
	var b strings.Builder
	b.WriteString(`You are an expert literary analyst. From the interview transcript below, extract the respondent's reading taste into a single JSON document with exactly this shape:

{
  "taste_anchors": {"loves": [], "hates": [], "inferred_genres": [], "format_preference": ""},
  "style_signature": {"prose_density": 0, "pacing": 0, "tone": 0, "worldbuilding": 0, "character_focus": 0, "ambiguity_tolerance": 0},
  "narrative_desires": {"wish": "", "preferred_ending": "", "themes": [], "key_elements": []},
  "consumption": {"daily_time_minutes": 0, "delivery_frequency": "", "format": "", "sources": []},
  "implicit": {"vocabulary_richness": 0, "response_brevity_score": 0, "engagement_index": 0, "metaphor_usage": 0},
  "reader_archetype": "",
  "reading_philosophy": "",
  "anti_patterns": []
}

style_signature values are 0-100. implicit values are 0-1. Ground every field in what the respondent actually said; leave optional sections out rather than inventing them. Respond with the JSON document only, no commentary.

TRANSCRIPT:
`)
	b.WriteString(transcript)
	return b.String()
}

// SummaryMetadata appends interview metadata to a summary prompt.
func SummaryMetadata(base string, turnCount int, completed, earlyTermination bool) string {
	var b strings.Builder
	b.WriteString(base)
	b.WriteString("\n\nINTERVIEW METADATA:\n")
	fmt.Fprintf(&b, "- Total turns: %d\n", turnCount)
	status := "incomplete"
	if completed {
		status = "completed"
	}
	fmt.Fprintf(&b, "- Completion status: %s\n", status)
	if earlyTermination {
		b.WriteString("- Note: interview ended early, extrapolate carefully from available data\n")
	}
	return b.String()
}

// StyleRating asks the backend to rate one respondent message on four
// bounded stylistic axes; consumed by the analyzer's LLM feature scorer.
func StyleRating(message string) string {
	return `Rate the following interview response on four axes, each a number between 0 and 1. Respond with JSON only, shaped exactly as:
{"vocabulary_richness": 0, "response_brevity_score": 0, "engagement_index": 0, "metaphor_usage": 0}

RESPONSE:
` + message
}
