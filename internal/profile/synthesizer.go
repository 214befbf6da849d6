package profile

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"wren/internal/completion"
	"wren/internal/prompt"
	"wren/internal/session"
)

// Meta describes the interview a profile is synthesized from.
type Meta struct {
	TurnCount        int
	Completed        bool
	EarlyTermination bool
}

// Synthesizer converts a full transcript into a Profile via one
// profile-mode generation call.
type Synthesizer struct {
	backend completion.Backend
	logger  *zap.Logger
}

// NewSynthesizer creates a Synthesizer.
func NewSynthesizer(backend completion.Backend, logger *zap.Logger) *Synthesizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synthesizer{backend: backend, logger: logger}
}

// Synthesize issues the extraction call and parses the result tolerantly.
// A failed generation call is returned as an error so the caller can leave
// the session unmutated and retry. A malformed generation is not an error;
// it becomes a Profile with the error field set and the raw text preserved.
// Metadata is attached on every path.
func (s *Synthesizer) Synthesize(ctx context.Context, turns []session.Turn, meta Meta) (*Profile, error) {
	transcript := session.FormatTranscript(turns)
	sys := prompt.SummaryMetadata(prompt.Summary(transcript), meta.TurnCount, meta.Completed, meta.EarlyTermination)

	result, err := s.backend.Generate(ctx, []session.Turn{{Role: session.RoleSystem, Content: sys}}, completion.ModeProfile)
	if err != nil {
		return nil, err
	}

	p := Parse(result.Content)
	p.Metadata = &Metadata{
		InterviewTurns:   meta.TurnCount,
		CompletionStatus: completionStatus(meta.Completed),
		EarlyTermination: meta.EarlyTermination,
	}
	if result.ReasoningTrace != "" {
		p.ReasoningTrace = result.ReasoningTrace
	}
	if p.Error != "" {
		s.logger.Warn("profile synthesis produced unusable output",
			zap.String("error", p.Error),
			zap.Int("raw_len", len(p.RawResponse)))
	}
	return p, nil
}

func completionStatus(completed bool) string {
	if completed {
		return "completed"
	}
	return "incomplete"
}

// Parse decodes a generation result into a Profile. First a direct parse,
// then the contents of a fenced code block, and as a last resort a
// parse_failed profile preserving the raw text byte for byte. A document
// that parses but lacks the required sections is also a failure.
func Parse(raw string) *Profile {
	if p := decode(raw); p != nil {
		return checkRequired(p, raw)
	}
	if block, ok := fencedBlock(raw); ok {
		if p := decode(block); p != nil {
			return checkRequired(p, raw)
		}
	}
	return &Profile{Error: ErrorParseFailed, RawResponse: raw}
}

func decode(text string) *Profile {
	var p Profile
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &p); err != nil {
		return nil
	}
	return &p
}

func checkRequired(p *Profile, raw string) *Profile {
	if !p.Valid() {
		return &Profile{Error: ErrorIncompleteProfile, RawResponse: raw}
	}
	return p
}

// fencedBlock extracts the contents of the first markdown code fence.
func fencedBlock(raw string) (string, bool) {
	start := strings.Index(raw, "```json")
	offset := len("```json")
	if start < 0 {
		start = strings.Index(raw, "```")
		offset = len("```")
	}
	if start < 0 {
		return "", false
	}
	rest := raw[start+offset:]
	end := strings.Index(rest, "```")
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}
