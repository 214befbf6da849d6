package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"wren/internal/completion"
	"wren/internal/prompt"
	"wren/internal/session"
)

// LLMScorer rates a respondent message by asking the completion backend
// for a structured rating of the message alone.
type LLMScorer struct {
	backend completion.Backend
}

// NewLLMScorer creates a backend-based scorer.
func NewLLMScorer(backend completion.Backend) *LLMScorer {
	return &LLMScorer{backend: backend}
}

// Score implements FeatureScorer.
func (s *LLMScorer) Score(ctx context.Context, message string) (*Features, error) {
	turns := []session.Turn{
		{Role: session.RoleSystem, Content: prompt.StyleRating(message)},
		{Role: session.RoleRespondent, Content: message},
	}
	result, err := s.backend.Generate(ctx, turns, completion.ModeInterview)
	if err != nil {
		return nil, fmt.Errorf("rate response: %w", err)
	}

	var f Features
	if err := json.Unmarshal([]byte(stripFences(result.Content)), &f); err != nil {
		return nil, fmt.Errorf("parse rating: %w", err)
	}
	f.clamp()
	return &f, nil
}

// HeuristicScorer rates a message with local text statistics; used when
// backend scoring is disabled or as a zero-cost default in tests.
type HeuristicScorer struct{}

// Score implements FeatureScorer.
func (HeuristicScorer) Score(_ context.Context, message string) (*Features, error) {
	words := strings.Fields(strings.ToLower(message))
	f := &Features{}
	if len(words) == 0 {
		f.ResponseBrevity = 1
		return f, nil
	}

	unique := make(map[string]struct{}, len(words))
	for _, w := range words {
		unique[strings.Trim(w, ".,!?;:'\"()")] = struct{}{}
	}
	f.VocabularyRichness = float64(len(unique)) / float64(len(words))

	// Short answers score high on brevity; 120 words and beyond score 0.
	f.ResponseBrevity = 1 - min(float64(len(words))/120, 1)

	// Longer, punctuated, first-person answers read as engaged.
	engagement := min(float64(len(words))/80, 1) * 0.7
	if strings.ContainsAny(message, "!?") {
		engagement += 0.15
	}
	if strings.Contains(strings.ToLower(message), " i ") || strings.HasPrefix(strings.ToLower(message), "i ") {
		engagement += 0.15
	}
	f.EngagementIndex = min(engagement, 1)

	markers := 0
	for _, m := range []string{"like a", "like an", "as if", "as though", "reminds me of", "feels like"} {
		markers += strings.Count(strings.ToLower(message), m)
	}
	sentences := max(strings.Count(message, ".")+strings.Count(message, "!")+strings.Count(message, "?"), 1)
	f.MetaphorUsage = min(float64(markers)/float64(sentences), 1)

	f.clamp()
	return f, nil
}

func (f *Features) clamp() {
	f.VocabularyRichness = clamp01(f.VocabularyRichness)
	f.ResponseBrevity = clamp01(f.ResponseBrevity)
	f.EngagementIndex = clamp01(f.EngagementIndex)
	f.MetaphorUsage = clamp01(f.MetaphorUsage)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// stripFences removes markdown code fences around a JSON response.
func stripFences(resp string) string {
	resp = strings.TrimSpace(resp)
	resp = strings.TrimPrefix(resp, "```json")
	resp = strings.TrimPrefix(resp, "```")
	resp = strings.TrimSuffix(resp, "```")
	return strings.TrimSpace(resp)
}
