// Package session defines the transcript primitives shared by the
// interview engine: roles, turns, and transcript helpers.
package session

import "strings"

// Role tags a transcript turn by its author.
type Role string

const (
	RoleSystem     Role = "system"
	RoleRespondent Role = "respondent"
	RoleAgent      Role = "agent"
)

// Turn is one message in a transcript. Turns are immutable once appended;
// the transcript is an append-only log with insertion ordering.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`

	// ReasoningTrace carries the provider's reasoning channel when one was
	// returned. Informational only; never required for validity.
	ReasoningTrace string `json:"reasoning_trace,omitempty"`
}

// Respondent returns a respondent-role turn.
func Respondent(content string) Turn {
	return Turn{Role: RoleRespondent, Content: content}
}

// Agent returns an agent-role turn.
func Agent(content string) Turn {
	return Turn{Role: RoleAgent, Content: content}
}

// CountRespondent returns the number of respondent-role turns.
func CountRespondent(turns []Turn) int {
	n := 0
	for _, t := range turns {
		if t.Role == RoleRespondent {
			n++
		}
	}
	return n
}

// LastRespondent returns the most recent respondent turn, if any.
func LastRespondent(turns []Turn) (Turn, bool) {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == RoleRespondent {
			return turns[i], true
		}
	}
	return Turn{}, false
}

// FormatTranscript renders turns as a readable transcript, skipping
// system-role turns and empty content.
func FormatTranscript(turns []Turn) string {
	var lines []string
	for _, t := range turns {
		if t.Role == RoleSystem || strings.TrimSpace(t.Content) == "" {
			continue
		}
		switch t.Role {
		case RoleAgent:
			lines = append(lines, "INTERVIEWER: "+t.Content)
		case RoleRespondent:
			lines = append(lines, "RESPONDENT: "+t.Content)
		default:
			lines = append(lines, strings.ToUpper(string(t.Role))+": "+t.Content)
		}
	}
	return strings.Join(lines, "\n\n")
}
