package analysis

import (
	"testing"

	"wren/internal/session"
)

func TestTopicCoverage_Empty(t *testing.T) {
	t.Parallel()

	coverage, ready := NewTopicCoverage(0.75, 5).Evaluate(nil)
	if coverage != 0 {
		t.Errorf("coverage = %v, want 0", coverage)
	}
	if ready {
		t.Error("ready with no turns")
	}
}

func TestTopicCoverage_Fraction(t *testing.T) {
	t.Parallel()

	// Touches anchors and style, nothing else: 2 of 5 buckets.
	turns := []session.Turn{
		session.Respondent("My favorite book has lyrical prose."),
	}
	coverage, _ := NewTopicCoverage(0.75, 1).Evaluate(turns)
	if coverage != 0.4 {
		t.Errorf("coverage = %v, want 0.4", coverage)
	}
}

func TestTopicCoverage_IgnoresAgentTurns(t *testing.T) {
	t.Parallel()

	turns := []session.Turn{
		session.Agent("Tell me about a book with striking prose and themes you avoid at night."),
		session.Respondent("ok"),
	}
	coverage, _ := NewTopicCoverage(0.75, 1).Evaluate(turns)
	if coverage != 0 {
		t.Errorf("coverage = %v, want 0: agent text must not count", coverage)
	}
}

func TestTopicCoverage_ReadyNeedsMinTurns(t *testing.T) {
	t.Parallel()

	// One turn covering everything.
	full := session.Respondent("I read books at night, love dense prose, hate flat characters, avoid romance, the ending matters.")

	policy := NewTopicCoverage(0.75, 3)
	coverage, ready := policy.Evaluate([]session.Turn{full})
	if coverage < 0.75 {
		t.Fatalf("coverage = %v, want >= threshold", coverage)
	}
	if ready {
		t.Error("ready below the turn floor")
	}

	_, ready = policy.Evaluate([]session.Turn{full, session.Respondent("yes"), session.Respondent("mhm")})
	if !ready {
		t.Error("not ready at threshold coverage and turn floor")
	}
}

func TestNeverReady(t *testing.T) {
	t.Parallel()

	turns := make([]session.Turn, 0, 20)
	for i := 0; i < 20; i++ {
		turns = append(turns, session.Respondent("I read books at night, love prose, hate endings, avoid plot, skip themes."))
	}
	coverage, ready := NeverReady{}.Evaluate(turns)
	if ready {
		t.Error("NeverReady fired")
	}
	if coverage == 0 {
		t.Error("NeverReady should still report coverage")
	}
}
