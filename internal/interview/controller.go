package interview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"wren/internal/analysis"
	"wren/internal/checkpoint"
	"wren/internal/completion"
	"wren/internal/config"
	"wren/internal/profile"
	"wren/internal/prompt"
	"wren/internal/session"
)

// completeMessage is returned when a terminal session receives another
// message. The stored record is not touched.
const completeMessage = "This interview has concluded. Your taste profile is ready."

// Response is what one controller operation hands back to its caller.
type Response struct {
	SessionID  string           `json:"session_id"`
	Message    string           `json:"message,omitempty"`
	TurnCount  int              `json:"turn_count"`
	IsComplete bool             `json:"is_complete"`
	Profile    *profile.Profile `json:"profile,omitempty"`
}

// Controller drives interview sessions. It is stateless between calls;
// all session state lives in the checkpoint store, loaded at the start of
// an operation and written back after a successful mutation. Concurrent
// steps on the same session id are last-write-wins.
type Controller struct {
	store    checkpoint.Store
	backend  completion.Backend
	analyzer *analysis.Analyzer
	synth    *profile.Synthesizer
	cfg      config.InterviewConfig
	ttl      time.Duration
	logger   *zap.Logger
}

// NewController wires the controller from its collaborators.
func NewController(store checkpoint.Store, backend completion.Backend, analyzer *analysis.Analyzer, synth *profile.Synthesizer, cfg config.InterviewConfig, ttl time.Duration, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		store:    store,
		backend:  backend,
		analyzer: analyzer,
		synth:    synth,
		cfg:      cfg,
		ttl:      ttl,
		logger:   logger,
	}
}

// Start begins or resumes a session. A blank id gets a generated one. The
// opening question is fixed and costs no backend call; a new empty session
// is checkpointed before it is returned. Starting an id that already has a
// live checkpoint resumes it instead, replaying the last agent message.
func (c *Controller) Start(ctx context.Context, sessionID string) (*Response, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	if sess, err := c.load(ctx, sessionID); err == nil {
		return c.resume(sess), nil
	} else if !errors.Is(err, ErrSessionNotFound) {
		return nil, err
	}

	sess := &Session{
		SessionID: sessionID,
		Turns:     []session.Turn{session.Agent(prompt.OpeningQuestion)},
	}
	if err := c.persist(ctx, sess); err != nil {
		return nil, err
	}
	c.logger.Info("session started", zap.String("session_id", sessionID))

	return &Response{
		SessionID: sessionID,
		Message:   prompt.OpeningQuestion,
	}, nil
}

func (c *Controller) resume(sess *Session) *Response {
	resp := &Response{
		SessionID:  sess.SessionID,
		TurnCount:  sess.TurnCount,
		IsComplete: sess.IsComplete,
		Profile:    sess.Profile,
	}
	switch {
	case sess.IsComplete:
		resp.Message = completeMessage
	case len(sess.Turns) == 0:
		resp.Message = prompt.OpeningQuestion
	default:
		for i := len(sess.Turns) - 1; i >= 0; i-- {
			if sess.Turns[i].Role == session.RoleAgent {
				resp.Message = sess.Turns[i].Content
				break
			}
		}
	}
	return resp
}

// Step processes one respondent message. The turn is appended and analyzed;
// the session then either terminates into profile synthesis, when the turn
// cap is reached or the readiness policy fires, or generates the next
// question. The checkpoint is written only after the backend call succeeds,
// so a failed call leaves the stored session exactly as it was and the same
// message can be retried.
func (c *Controller) Step(ctx context.Context, sessionID, message string) (*Response, error) {
	sess, err := c.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if sess.IsComplete {
		return &Response{
			SessionID:  sess.SessionID,
			Message:    completeMessage,
			TurnCount:  sess.TurnCount,
			IsComplete: true,
			Profile:    sess.Profile,
		}, nil
	}

	sess.Turns = append(sess.Turns, session.Respondent(message))
	sess.TurnCount++

	ana := c.analyzer.Analyze(ctx, sess.Turns)
	sess.LastAnalysis = ana

	capped := sess.TurnCount >= c.cfg.MaxTurns
	if capped || ana.ReadyForSummary {
		return c.finish(ctx, sess, ana.ReadyForSummary && !capped)
	}
	return c.question(ctx, sess, ana)
}

// finish synthesizes the profile and seals the session.
func (c *Controller) finish(ctx context.Context, sess *Session, early bool) (*Response, error) {
	prof, err := c.synth.Synthesize(ctx, sess.Turns, profile.Meta{
		TurnCount:        sess.TurnCount,
		Completed:        true,
		EarlyTermination: early,
	})
	if err != nil {
		return nil, fmt.Errorf("profile synthesis for session %s: %w", sess.SessionID, err)
	}

	rendered, err := json.MarshalIndent(prof, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to render profile for session %s: %w", sess.SessionID, err)
	}

	sess.Turns = append(sess.Turns, session.Agent(string(rendered)))
	sess.Profile = prof
	sess.IsComplete = true
	if err := c.persist(ctx, sess); err != nil {
		return nil, err
	}

	c.logger.Info("session complete",
		zap.String("session_id", sess.SessionID),
		zap.Int("turn_count", sess.TurnCount),
		zap.Bool("early_termination", early),
		zap.Bool("profile_valid", prof.Valid()))

	return &Response{
		SessionID:  sess.SessionID,
		Message:    string(rendered),
		TurnCount:  sess.TurnCount,
		IsComplete: true,
		Profile:    prof,
	}, nil
}

// question generates the next interviewer question.
func (c *Controller) question(ctx context.Context, sess *Session, ana analysis.Analysis) (*Response, error) {
	sys := prompt.InterviewerWithAnalysis(sess.TurnCount, ana.CoverageScore, styleHint(ana.ResponseFeatures))
	turns := append([]session.Turn{{Role: session.RoleSystem, Content: sys}}, sess.Turns...)

	result, err := c.backend.Generate(ctx, turns, completion.ModeInterview)
	if err != nil {
		return nil, fmt.Errorf("question generation for session %s: %w", sess.SessionID, err)
	}

	agent := session.Agent(result.Content)
	agent.ReasoningTrace = result.ReasoningTrace
	sess.Turns = append(sess.Turns, agent)
	if err := c.persist(ctx, sess); err != nil {
		return nil, err
	}

	c.logger.Debug("turn complete",
		zap.String("session_id", sess.SessionID),
		zap.Int("turn_count", sess.TurnCount),
		zap.Float64("coverage", ana.CoverageScore))

	return &Response{
		SessionID: sess.SessionID,
		Message:   result.Content,
		TurnCount: sess.TurnCount,
	}, nil
}

// GetProfile returns the profile view of a session. An unknown id is not
// an error: the response simply has no profile and is_complete false.
func (c *Controller) GetProfile(ctx context.Context, sessionID string) (*Response, error) {
	sess, err := c.load(ctx, sessionID)
	if errors.Is(err, ErrSessionNotFound) {
		return &Response{SessionID: sessionID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &Response{
		SessionID:  sess.SessionID,
		TurnCount:  sess.TurnCount,
		IsComplete: sess.IsComplete,
		Profile:    sess.Profile,
	}, nil
}

// Transcript renders the session's conversation so far.
func (c *Controller) Transcript(ctx context.Context, sessionID string) (string, error) {
	sess, err := c.load(ctx, sessionID)
	if err != nil {
		return "", err
	}
	return session.FormatTranscript(sess.Turns), nil
}

// List returns the ids of all sessions with a live checkpoint.
func (c *Controller) List(ctx context.Context) ([]string, error) {
	return c.store.ListActive(ctx)
}

func (c *Controller) load(ctx context.Context, sessionID string) (*Session, error) {
	data, err := c.store.Get(ctx, sessionID)
	if errors.Is(err, checkpoint.ErrNotFound) {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrSessionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}
	return Decode(data)
}

func (c *Controller) persist(ctx context.Context, sess *Session) error {
	data, err := Encode(sess)
	if err != nil {
		return err
	}
	if err := c.store.Put(ctx, sess.SessionID, data, c.ttl); err != nil {
		return fmt.Errorf("failed to checkpoint session %s: %w", sess.SessionID, err)
	}
	return nil
}

// styleHint condenses response features into a short prompt fragment.
func styleHint(f *analysis.Features) string {
	if f == nil {
		return ""
	}
	return fmt.Sprintf("vocabulary %.2f, brevity %.2f, engagement %.2f, metaphor %.2f",
		f.VocabularyRichness, f.ResponseBrevity, f.EngagementIndex, f.MetaphorUsage)
}
