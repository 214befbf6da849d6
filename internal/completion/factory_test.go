package completion

import (
	"errors"
	"testing"
	"time"
)

func TestSelect_PriorityOrder(t *testing.T) {
	t.Parallel()

	backend, err := Select([]Candidate{
		{Provider: ProviderMoonshot, APIKey: "mk"},
		{Provider: ProviderOpenAI, APIKey: "ok"},
		{Provider: ProviderGemini, APIKey: "gk"},
	}, nil)
	if err != nil {
		t.Fatalf("Select error: %v", err)
	}
	if backend.Name() != "moonshot" {
		t.Errorf("Select picked %s, want moonshot first", backend.Name())
	}
}

func TestSelect_SkipsMissingKeys(t *testing.T) {
	t.Parallel()

	backend, err := Select([]Candidate{
		{Provider: ProviderMoonshot},
		{Provider: ProviderOpenAI},
		{Provider: ProviderGemini, APIKey: "gk"},
	}, nil)
	if err != nil {
		t.Fatalf("Select error: %v", err)
	}
	if backend.Name() != "gemini" {
		t.Errorf("Select picked %s, want gemini", backend.Name())
	}
}

func TestSelect_NoProvider(t *testing.T) {
	t.Parallel()

	_, err := Select([]Candidate{
		{Provider: ProviderMoonshot},
		{Provider: ProviderOpenAI},
		{Provider: ProviderGemini},
	}, nil)
	if !errors.Is(err, ErrNoProvider) {
		t.Errorf("Select error = %v, want ErrNoProvider", err)
	}
}

func TestSelect_MoonshotModelOverridesBothModes(t *testing.T) {
	t.Parallel()

	backend, err := Select([]Candidate{
		{Provider: ProviderMoonshot, APIKey: "mk", Model: "kimi-latest"},
	}, nil)
	if err != nil {
		t.Fatalf("Select error: %v", err)
	}
	client, ok := backend.(*MoonshotClient)
	if !ok {
		t.Fatalf("Select built %T, want *MoonshotClient", backend)
	}
	if client.interviewModel != "kimi-latest" {
		t.Errorf("interviewModel = %q, want kimi-latest", client.interviewModel)
	}
	if client.profileModel != "kimi-latest" {
		t.Errorf("profileModel = %q, want kimi-latest", client.profileModel)
	}
}

func TestSelect_CandidateTimeout(t *testing.T) {
	t.Parallel()

	for _, provider := range []Provider{ProviderMoonshot, ProviderOpenAI, ProviderGemini} {
		backend, err := Select([]Candidate{
			{Provider: provider, APIKey: "k", Timeout: 30 * time.Second},
		}, nil)
		if err != nil {
			t.Fatalf("Select(%s) error: %v", provider, err)
		}
		var got time.Duration
		switch c := backend.(type) {
		case *MoonshotClient:
			got = c.httpClient.Timeout
		case *OpenAIClient:
			got = c.httpClient.Timeout
		case *GeminiClient:
			got = c.httpClient.Timeout
		}
		if got != 30*time.Second {
			t.Errorf("%s client timeout = %v, want 30s", provider, got)
		}
	}
}

func TestSelect_ZeroTimeoutKeepsDefault(t *testing.T) {
	t.Parallel()

	backend, err := Select([]Candidate{
		{Provider: ProviderOpenAI, APIKey: "ok"},
	}, nil)
	if err != nil {
		t.Fatalf("Select error: %v", err)
	}
	if got := backend.(*OpenAIClient).httpClient.Timeout; got != defaultTimeout {
		t.Errorf("client timeout = %v, want %v", got, defaultTimeout)
	}
}

func TestSelect_SecondCandidateWins(t *testing.T) {
	t.Parallel()

	backend, err := Select([]Candidate{
		{Provider: ProviderMoonshot},
		{Provider: ProviderOpenAI, APIKey: "ok", Model: "gpt-4o-mini"},
		{Provider: ProviderGemini, APIKey: "gk"},
	}, nil)
	if err != nil {
		t.Fatalf("Select error: %v", err)
	}
	if backend.Name() != "openai" {
		t.Errorf("Select picked %s, want openai", backend.Name())
	}
}
