// Package profile defines the structured taste profile document and the
// synthesizer that extracts one from a finished interview transcript.
package profile

import (
	"fmt"
	"strings"
)

// Error markers set on synthesis failure.
const (
	ErrorParseFailed       = "parse_failed"
	ErrorIncompleteProfile = "incomplete_profile"
)

// TasteAnchors are the respondent's concrete likes and dislikes.
type TasteAnchors struct {
	Loves            []string `json:"loves"`
	Hates            []string `json:"hates"`
	InferredGenres   []string `json:"inferred_genres"`
	FormatPreference string   `json:"format_preference"`
}

// StyleSignature scores stylistic preferences on a 0-100 scale.
type StyleSignature struct {
	ProseDensity       float64 `json:"prose_density"`
	Pacing             float64 `json:"pacing"`
	Tone               float64 `json:"tone"`
	Worldbuilding      float64 `json:"worldbuilding"`
	CharacterFocus     float64 `json:"character_focus"`
	AmbiguityTolerance float64 `json:"ambiguity_tolerance"`
}

// NarrativeDesires captures what the respondent wants out of a story.
type NarrativeDesires struct {
	Wish            string   `json:"wish"`
	PreferredEnding string   `json:"preferred_ending"`
	Themes          []string `json:"themes"`
	KeyElements     []string `json:"key_elements"`
}

// Consumption describes reading habits.
type Consumption struct {
	DailyTimeMinutes  float64  `json:"daily_time_minutes"`
	DeliveryFrequency string   `json:"delivery_frequency"`
	Format            string   `json:"format"`
	Sources           []string `json:"sources"`
}

// Implicit carries the 0-1 stylistic features measured from the
// respondent's own messages rather than their stated preferences.
type Implicit struct {
	VocabularyRichness   float64 `json:"vocabulary_richness"`
	ResponseBrevityScore float64 `json:"response_brevity_score"`
	EngagementIndex      float64 `json:"engagement_index"`
	MetaphorUsage        float64 `json:"metaphor_usage"`
}

// Metadata is attached to every synthesized profile, including failures,
// under the reserved _metadata field.
type Metadata struct {
	InterviewTurns   int    `json:"interview_turns"`
	CompletionStatus string `json:"completion_status"`
	EarlyTermination bool   `json:"early_termination"`
}

// Profile is the synthesized taste document. Required sections are
// pointers so that presence can be told apart from emptiness; a profile
// carries either the three required sections or an Error, never neither.
type Profile struct {
	TasteAnchors     *TasteAnchors     `json:"taste_anchors,omitempty"`
	StyleSignature   *StyleSignature   `json:"style_signature,omitempty"`
	NarrativeDesires *NarrativeDesires `json:"narrative_desires,omitempty"`
	Consumption      *Consumption      `json:"consumption,omitempty"`
	Implicit         *Implicit         `json:"implicit,omitempty"`
	ReaderArchetype  string            `json:"reader_archetype,omitempty"`
	ReadingPhilosophy string           `json:"reading_philosophy,omitempty"`
	AntiPatterns     []string          `json:"anti_patterns,omitempty"`

	// Error is present only on synthesis failure; RawResponse then holds
	// the backend output verbatim so no information is lost.
	Error       string `json:"error,omitempty"`
	RawResponse string `json:"raw_response,omitempty"`

	// Reserved fields.
	Metadata       *Metadata `json:"_metadata,omitempty"`
	ReasoningTrace string    `json:"_reasoning,omitempty"`
}

// Valid reports whether the profile carries all required sections and no
// error marker.
func (p *Profile) Valid() bool {
	if p == nil || p.Error != "" {
		return false
	}
	return p.TasteAnchors != nil && p.StyleSignature != nil && p.NarrativeDesires != nil
}

// Summary renders a short human-readable digest of the profile.
func (p *Profile) Summary() string {
	if !p.Valid() {
		return "Unable to generate profile summary - invalid profile data"
	}

	var lines []string
	if len(p.TasteAnchors.Loves) > 0 {
		lines = append(lines, "Loves: "+strings.Join(firstN(p.TasteAnchors.Loves, 3), ", "))
	}
	if len(p.TasteAnchors.Hates) > 0 {
		lines = append(lines, "Avoids: "+strings.Join(firstN(p.TasteAnchors.Hates, 3), ", "))
	}
	if p.ReaderArchetype != "" {
		lines = append(lines, fmt.Sprintf("\nReader Type: %s", p.ReaderArchetype))
	}
	if len(p.NarrativeDesires.Themes) > 0 {
		lines = append(lines, "Key Themes: "+strings.Join(firstN(p.NarrativeDesires.Themes, 3), ", "))
	}
	return strings.Join(lines, "\n")
}

func firstN(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}
