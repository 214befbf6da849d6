// Package interview implements the session state machine: it owns the
// persisted session record and drives one interview step per respondent
// message, checkpointing after every mutation.
package interview

import (
	"encoding/json"
	"errors"
	"fmt"

	"wren/internal/analysis"
	"wren/internal/profile"
	"wren/internal/session"
)

// SchemaVersion is the checkpoint envelope version. Bump when the Session
// shape changes incompatibly; Decode rejects versions it does not know.
const SchemaVersion = 1

// ErrSessionNotFound is returned when a step references a session id with
// no checkpoint, either never created or expired.
var ErrSessionNotFound = errors.New("session not found")

// Session is the full state of one interview. It is the unit of
// persistence: every mutation is followed by a checkpoint write, so a
// process can crash between steps and resume from the latest record.
type Session struct {
	SessionID string         `json:"session_id"`
	Turns     []session.Turn `json:"turns"`

	// TurnCount is the number of respondent turns, maintained alongside
	// Turns so callers never recount.
	TurnCount int `json:"turn_count"`

	// IsComplete marks a terminal session. Terminal sessions are immutable;
	// further steps are no-ops returning the stored profile.
	IsComplete bool `json:"is_complete"`

	LastAnalysis analysis.Analysis `json:"last_analysis"`
	Profile      *profile.Profile  `json:"profile,omitempty"`
}

type envelope struct {
	SchemaVersion int      `json:"schema_version"`
	Session       *Session `json:"session"`
}

// Encode serializes a session into its versioned checkpoint form.
func Encode(s *Session) ([]byte, error) {
	data, err := json.Marshal(envelope{SchemaVersion: SchemaVersion, Session: s})
	if err != nil {
		return nil, fmt.Errorf("failed to encode session %s: %w", s.SessionID, err)
	}
	return data, nil
}

// Decode deserializes a checkpoint produced by Encode.
func Decode(data []byte) (*Session, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint: %w", err)
	}
	if env.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("unsupported checkpoint schema version %d", env.SchemaVersion)
	}
	if env.Session == nil {
		return nil, errors.New("checkpoint has no session record")
	}
	return env.Session, nil
}
