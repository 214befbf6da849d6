// Package completion abstracts the text-generation providers behind a
// single Backend interface. One provider is selected at startup and used
// for the lifetime of the process; see factory.go.
package completion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wren/internal/session"
)

// Mode selects the generation configuration for a call.
type Mode string

const (
	// ModeInterview favors low latency and a small output budget.
	ModeInterview Mode = "interview"
	// ModeProfile favors a larger output budget for a full structured document.
	ModeProfile Mode = "profile"
)

// Result is a single completion.
type Result struct {
	Content string
	// ReasoningTrace is the provider's reasoning channel, when the model
	// exposes one. Empty for providers without it.
	ReasoningTrace string
}

// Backend is an interchangeable text-generation provider.
// Calls are not retried internally; retry policy belongs to the caller.
type Backend interface {
	// Generate produces a completion from an ordered transcript.
	Generate(ctx context.Context, turns []session.Turn, mode Mode) (*Result, error)
	// Name identifies the provider for logging.
	Name() string
}

// ErrNoProvider is returned by the factory when no candidate provider has a
// credential. This is fatal: no session can start without a backend.
var ErrNoProvider = errors.New("no completion provider has a valid credential")

// ErrTimeout marks a generation call that exceeded its deadline. The failed
// turn is never appended; callers may retry with the same respondent text.
var ErrTimeout = errors.New("generation timed out")

// GenerationError is a provider or network fault on a single call.
type GenerationError struct {
	Provider string
	Status   int // HTTP status when applicable, 0 otherwise
	Err      error
}

func (e *GenerationError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: generation failed (status %d): %v", e.Provider, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: generation failed: %v", e.Provider, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// generationSettings are the per-mode knobs shared by the HTTP clients.
type generationSettings struct {
	MaxTokens   int
	Temperature float64
}

func settingsFor(mode Mode) generationSettings {
	if mode == ModeProfile {
		return generationSettings{MaxTokens: 4000, Temperature: 0.7}
	}
	return generationSettings{MaxTokens: 1000, Temperature: 0.7}
}

const defaultTimeout = 120 * time.Second
