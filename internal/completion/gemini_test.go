package completion

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"wren/internal/session"
)

func TestGeminiGenerate(t *testing.T) {
	t.Parallel()

	var gotPath string
	var gotReq geminiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path + "?" + r.URL.RawQuery
		json.NewDecoder(r.Body).Decode(&gotReq)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{
				{"content": map[string]interface{}{
					"parts": []map[string]string{{"text": "What "}, {"text": "next?"}},
				}},
			},
		})
	}))
	t.Cleanup(srv.Close)

	cfg := DefaultGeminiConfig("gem-key")
	cfg.BaseURL = srv.URL
	client := NewGeminiClientWithConfig(cfg)

	turns := []session.Turn{
		{Role: session.RoleSystem, Content: "interviewer prompt"},
		session.Agent("Opening question"),
		session.Respondent("I read slowly"),
	}
	result, err := client.Generate(context.Background(), turns, ModeInterview)
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}

	if result.Content != "What next?" {
		t.Errorf("Content = %q, want concatenated parts", result.Content)
	}
	if !strings.Contains(gotPath, "gemini-2.5-flash:generateContent") {
		t.Errorf("path = %q", gotPath)
	}
	if !strings.Contains(gotPath, "key=gem-key") {
		t.Errorf("key missing from URL: %q", gotPath)
	}
	if gotReq.SystemInstruction == nil || gotReq.SystemInstruction.Parts[0].Text != "interviewer prompt" {
		t.Error("system turn should ride systemInstruction")
	}
	if len(gotReq.Contents) != 2 {
		t.Fatalf("got %d contents, want 2", len(gotReq.Contents))
	}
	if gotReq.Contents[0].Role != "model" || gotReq.Contents[1].Role != "user" {
		t.Errorf("roles = %q, %q, want model then user", gotReq.Contents[0].Role, gotReq.Contents[1].Role)
	}
}

func TestGeminiGenerate_APIError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]interface{}{"code": 403, "message": "key invalid"},
		})
	}))
	t.Cleanup(srv.Close)

	cfg := DefaultGeminiConfig("bad-key")
	cfg.BaseURL = srv.URL
	client := NewGeminiClientWithConfig(cfg)

	_, err := client.Generate(context.Background(),
		[]session.Turn{session.Respondent("hi")}, ModeInterview)
	if err == nil {
		t.Fatal("expected error from API error body")
	}
}
