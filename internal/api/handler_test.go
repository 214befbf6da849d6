package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wren/internal/analysis"
	"wren/internal/checkpoint"
	"wren/internal/completion"
	"wren/internal/config"
	"wren/internal/interview"
	"wren/internal/profile"
	"wren/internal/session"
)

const testProfileDoc = `{
  "taste_anchors": {"loves": ["short stories"], "hates": [], "inferred_genres": [], "format_preference": ""},
  "style_signature": {"prose_density": 50, "pacing": 50, "tone": 50, "worldbuilding": 50, "character_focus": 50, "ambiguity_tolerance": 50},
  "narrative_desires": {"wish": "", "preferred_ending": "", "themes": [], "key_elements": []}
}`

type stubBackend struct {
	fail  bool
	calls int
}

func (b *stubBackend) Generate(_ context.Context, _ []session.Turn, mode completion.Mode) (*completion.Result, error) {
	b.calls++
	if b.fail {
		return nil, &completion.GenerationError{Provider: "stub", Status: 500, Err: errors.New("down")}
	}
	if mode == completion.ModeProfile {
		return &completion.Result{Content: testProfileDoc}, nil
	}
	return &completion.Result{Content: fmt.Sprintf("question %d", b.calls)}, nil
}

func (b *stubBackend) Name() string { return "stub" }

type neverReady struct{}

func (neverReady) Evaluate([]session.Turn) (float64, bool) { return 0.1, false }

func newTestServer(t *testing.T, backend completion.Backend) *httptest.Server {
	t.Helper()
	ctrl := interview.NewController(
		checkpoint.NewMemory(),
		backend,
		analysis.NewAnalyzer(neverReady{}, nil, nil),
		profile.NewSynthesizer(backend, nil),
		config.InterviewConfig{MaxTurns: 12, MinTurns: 1, ReadinessThreshold: 0.75},
		time.Hour,
		nil,
	)
	srv := httptest.NewServer(NewHandler(ctrl, nil).Router())
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	resp, err := http.Post(url, "application/json", &buf)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestStartSession(t *testing.T) {
	srv := newTestServer(t, &stubBackend{})

	resp := postJSON(t, srv.URL+"/api/sessions", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.NotEmpty(t, body["session_id"])
	assert.NotEmpty(t, body["message"])
	assert.Equal(t, false, body["is_complete"])
}

func TestStartSession_RequestedID(t *testing.T) {
	srv := newTestServer(t, &stubBackend{})

	resp := postJSON(t, srv.URL+"/api/sessions", map[string]string{"session_id": "my-session"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "my-session", body["session_id"])
}

func TestPostMessage(t *testing.T) {
	srv := newTestServer(t, &stubBackend{})

	start := decodeBody(t, postJSON(t, srv.URL+"/api/sessions", nil))
	id := start["session_id"].(string)

	resp := postJSON(t, srv.URL+"/api/sessions/"+id+"/messages",
		map[string]string{"message": "I only read at night"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, float64(1), body["turn_count"])
	assert.Equal(t, "question 1", body["message"])
}

func TestPostMessage_Validation(t *testing.T) {
	srv := newTestServer(t, &stubBackend{})

	t.Run("empty message", func(t *testing.T) {
		resp := postJSON(t, srv.URL+"/api/sessions/x/messages", map[string]string{"message": ""})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("bad body", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/api/sessions/x/messages", "application/json",
			bytes.NewBufferString("{"))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	})
}

func TestPostMessage_UnknownSession(t *testing.T) {
	srv := newTestServer(t, &stubBackend{})

	resp := postJSON(t, srv.URL+"/api/sessions/ghost/messages",
		map[string]string{"message": "hello"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPostMessage_BackendDown(t *testing.T) {
	backend := &stubBackend{}
	srv := newTestServer(t, backend)

	start := decodeBody(t, postJSON(t, srv.URL+"/api/sessions", nil))
	id := start["session_id"].(string)

	backend.fail = true
	resp := postJSON(t, srv.URL+"/api/sessions/"+id+"/messages",
		map[string]string{"message": "hello"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestGetProfile_UnknownID(t *testing.T) {
	srv := newTestServer(t, &stubBackend{})

	resp, err := http.Get(srv.URL + "/api/sessions/nobody/profile")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, false, body["is_complete"])
	assert.Nil(t, body["profile"])
}

func TestGetTranscript(t *testing.T) {
	srv := newTestServer(t, &stubBackend{})

	start := decodeBody(t, postJSON(t, srv.URL+"/api/sessions", nil))
	id := start["session_id"].(string)
	postJSON(t, srv.URL+"/api/sessions/"+id+"/messages",
		map[string]string{"message": "ghost stories mostly"}).Body.Close()

	resp, err := http.Get(srv.URL + "/api/sessions/" + id + "/transcript")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Contains(t, body["transcript"], "ghost stories mostly")

	notFound, err := http.Get(srv.URL + "/api/sessions/ghost/transcript")
	require.NoError(t, err)
	defer notFound.Body.Close()
	assert.Equal(t, http.StatusNotFound, notFound.StatusCode)
}

func TestListSessions(t *testing.T) {
	srv := newTestServer(t, &stubBackend{})

	resp, err := http.Get(srv.URL + "/api/sessions")
	require.NoError(t, err)
	body := decodeBody(t, resp)
	assert.Equal(t, float64(0), body["count"])

	postJSON(t, srv.URL+"/api/sessions", nil).Body.Close()
	postJSON(t, srv.URL+"/api/sessions", nil).Body.Close()

	resp, err = http.Get(srv.URL + "/api/sessions")
	require.NoError(t, err)
	body = decodeBody(t, resp)
	assert.Equal(t, float64(2), body["count"])
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, &stubBackend{})

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
