package completion

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"wren/internal/session"
)

func newMoonshotTestServer(t *testing.T, handler http.HandlerFunc) (*MoonshotClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := DefaultMoonshotConfig("test-key")
	cfg.BaseURL = srv.URL
	return NewMoonshotClientWithConfig(cfg), srv
}

func TestMoonshotGenerate_InterviewMode(t *testing.T) {
	t.Parallel()

	var gotReq chatRequest
	var gotAuth string
	client, _ := newMoonshotTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{
					"role":              "assistant",
					"content":           "  What draws you to that ending?  ",
					"reasoning_content": "the respondent mentioned endings",
				}},
			},
		})
	})

	turns := []session.Turn{
		{Role: session.RoleSystem, Content: "interviewer prompt"},
		session.Agent("Opening question"),
		session.Respondent("I loved the ending of Piranesi"),
	}
	result, err := client.Generate(context.Background(), turns, ModeInterview)
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}

	if result.Content != "What draws you to that ending?" {
		t.Errorf("Content = %q, want trimmed completion", result.Content)
	}
	if result.ReasoningTrace != "the respondent mentioned endings" {
		t.Errorf("ReasoningTrace = %q", result.ReasoningTrace)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotReq.Model != "kimi-k2-thinking-turbo" {
		t.Errorf("interview model = %q, want kimi-k2-thinking-turbo", gotReq.Model)
	}
	want := []chatMessage{
		{Role: "system", Content: "interviewer prompt"},
		{Role: "assistant", Content: "Opening question"},
		{Role: "user", Content: "I loved the ending of Piranesi"},
	}
	if len(gotReq.Messages) != len(want) {
		t.Fatalf("got %d messages, want %d", len(gotReq.Messages), len(want))
	}
	for i, m := range want {
		if gotReq.Messages[i] != m {
			t.Errorf("message[%d] = %+v, want %+v", i, gotReq.Messages[i], m)
		}
	}
}

func TestMoonshotGenerate_ProfileModeModel(t *testing.T) {
	t.Parallel()

	var gotReq chatRequest
	client, _ := newMoonshotTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotReq)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "{}"}},
			},
		})
	})

	_, err := client.Generate(context.Background(),
		[]session.Turn{{Role: session.RoleSystem, Content: "extract"}}, ModeProfile)
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if gotReq.Model != "kimi-k2-thinking" {
		t.Errorf("profile model = %q, want kimi-k2-thinking", gotReq.Model)
	}
	if gotReq.MaxTokens != 4000 {
		t.Errorf("profile max_tokens = %d, want 4000", gotReq.MaxTokens)
	}
}

func TestMoonshotGenerate_HTTPError(t *testing.T) {
	t.Parallel()

	client, _ := newMoonshotTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"rate limited"}}`, http.StatusTooManyRequests)
	})

	_, err := client.Generate(context.Background(),
		[]session.Turn{session.Respondent("hi")}, ModeInterview)

	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("error = %v, want *GenerationError", err)
	}
	if genErr.Status != http.StatusTooManyRequests {
		t.Errorf("Status = %d, want 429", genErr.Status)
	}
	if genErr.Provider != "moonshot" {
		t.Errorf("Provider = %q, want moonshot", genErr.Provider)
	}
}

func TestMoonshotGenerate_EmptyChoices(t *testing.T) {
	t.Parallel()

	client, _ := newMoonshotTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"choices": []interface{}{}})
	})

	_, err := client.Generate(context.Background(),
		[]session.Turn{session.Respondent("hi")}, ModeInterview)
	if err == nil {
		t.Fatal("expected error for empty choices")
	}
}

func TestMoonshotGenerate_NoKey(t *testing.T) {
	t.Parallel()

	client := NewMoonshotClient("")
	_, err := client.Generate(context.Background(),
		[]session.Turn{session.Respondent("hi")}, ModeInterview)
	if err == nil {
		t.Fatal("expected error without API key")
	}
}

func TestToChatMessages_SkipsBlank(t *testing.T) {
	t.Parallel()

	msgs := toChatMessages([]session.Turn{
		session.Respondent("real"),
		session.Agent("   "),
		session.Agent(""),
	})
	if len(msgs) != 1 {
		t.Errorf("got %d messages, want 1", len(msgs))
	}
}
