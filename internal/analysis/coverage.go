package analysis

import (
	"strings"

	"wren/internal/session"
)

// topicBuckets are the taste areas an interview is expected to touch. A
// bucket counts as covered when any of its markers appears in a respondent
// turn. Deliberately crude: this is a progress heuristic, not NLP.
var topicBuckets = map[string][]string{
	"anchors": {"book", "books", "author", "novel", "story", "series", "read"},
	"style":   {"prose", "pacing", "tone", "style", "writing", "sentence", "voice", "lyrical"},
	"themes":  {"theme", "character", "ending", "plot", "world", "meaning", "idea"},
	"habits":  {"morning", "night", "daily", "commute", "audiobook", "ebook", "paperback", "hour", "minutes", "library"},
	"aversions": {"hate", "avoid", "dislike", "stand", "skip", "boring", "annoy", "quit"},
}

// TopicCoverage is the default ReadinessPolicy: coverage is the fraction
// of topic buckets touched by respondent turns, and readiness fires once
// coverage crosses Threshold with at least MinTurns respondent turns.
type TopicCoverage struct {
	Threshold float64
	MinTurns  int
}

// NewTopicCoverage builds the default policy.
func NewTopicCoverage(threshold float64, minTurns int) TopicCoverage {
	return TopicCoverage{Threshold: threshold, MinTurns: minTurns}
}

// Evaluate implements ReadinessPolicy.
func (p TopicCoverage) Evaluate(turns []session.Turn) (float64, bool) {
	var respondentText strings.Builder
	turnCount := 0
	for _, t := range turns {
		if t.Role != session.RoleRespondent {
			continue
		}
		turnCount++
		respondentText.WriteString(strings.ToLower(t.Content))
		respondentText.WriteString(" ")
	}
	text := respondentText.String()

	covered := 0
	for _, markers := range topicBuckets {
		for _, m := range markers {
			if strings.Contains(text, m) {
				covered++
				break
			}
		}
	}
	coverage := float64(covered) / float64(len(topicBuckets))
	ready := coverage >= p.Threshold && turnCount >= p.MinTurns
	return coverage, ready
}

// NeverReady is a ReadinessPolicy that only reports coverage and never
// fires early; the 12-turn cap remains the sole terminator. Useful for
// fixed-length interviews and in tests.
type NeverReady struct{}

// Evaluate implements ReadinessPolicy.
func (NeverReady) Evaluate(turns []session.Turn) (float64, bool) {
	coverage, _ := TopicCoverage{Threshold: 2}.Evaluate(turns)
	return coverage, false
}
