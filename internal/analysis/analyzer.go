// Package analysis computes, from a transcript, the readiness signal that
// drives continue-vs-terminate and the stylistic features of the latest
// respondent message. The whole Analysis is recomputed on every step;
// nothing is merged incrementally.
package analysis

import (
	"context"

	"go.uber.org/zap"

	"wren/internal/session"
)

// Features are bounded [0,1] stylistic ratings of one respondent message.
// They become raw material for the profile's implicit section.
type Features struct {
	VocabularyRichness float64 `json:"vocabulary_richness"`
	ResponseBrevity    float64 `json:"response_brevity_score"`
	EngagementIndex    float64 `json:"engagement_index"`
	MetaphorUsage      float64 `json:"metaphor_usage"`
}

// Analysis is the per-step readout over the full transcript.
type Analysis struct {
	TurnCount        int       `json:"turn_count"`
	CoverageScore    float64   `json:"coverage_score"`
	ReadyForSummary  bool      `json:"ready_for_summary"`
	ResponseFeatures *Features `json:"response_features,omitempty"`
}

// ReadinessPolicy is the pluggable strategy deciding when the transcript
// has covered enough ground to stop questioning. Implementations must be
// deterministic over the transcript alone.
type ReadinessPolicy interface {
	// Evaluate returns the coverage score in [0,1] and whether it crossed
	// the policy's readiness bar.
	Evaluate(turns []session.Turn) (coverage float64, ready bool)
}

// FeatureScorer rates the latest respondent message. The scorer may
// consult the completion backend; it never sees the full transcript.
type FeatureScorer interface {
	Score(ctx context.Context, message string) (*Features, error)
}

// Analyzer wires a readiness policy and an optional feature scorer.
type Analyzer struct {
	policy ReadinessPolicy
	scorer FeatureScorer
	logger *zap.Logger
}

// NewAnalyzer creates an Analyzer. scorer may be nil, in which case no
// response features are produced.
func NewAnalyzer(policy ReadinessPolicy, scorer FeatureScorer, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{policy: policy, scorer: scorer, logger: logger}
}

// Analyze computes the Analysis for the transcript so far. Feature scoring
// failures are logged and dropped rather than failing the step; the
// bookkeeping outputs are always present.
func (a *Analyzer) Analyze(ctx context.Context, turns []session.Turn) Analysis {
	coverage, ready := a.policy.Evaluate(turns)
	out := Analysis{
		TurnCount:       session.CountRespondent(turns),
		CoverageScore:   coverage,
		ReadyForSummary: ready,
	}

	if a.scorer == nil {
		return out
	}
	last, ok := session.LastRespondent(turns)
	if !ok {
		return out
	}
	features, err := a.scorer.Score(ctx, last.Content)
	if err != nil {
		a.logger.Warn("response feature scoring failed", zap.Error(err))
		return out
	}
	out.ResponseFeatures = features
	return out
}
