package completion

import (
	"time"

	"go.uber.org/zap"

	"wren/internal/config"
)

// Provider identifies a candidate backend.
type Provider string

const (
	ProviderMoonshot Provider = "moonshot"
	ProviderOpenAI   Provider = "openai"
	ProviderGemini   Provider = "gemini"
)

// Candidate is one entry in the ordered provider list handed to Select.
type Candidate struct {
	Provider Provider
	APIKey   string
	BaseURL  string
	Model    string
	Timeout  time.Duration
}

// Select walks the candidates in order and builds a client for the first
// one holding a credential. The decision is made exactly once, at
// construction; providers are never re-evaluated mid-session. Returns
// ErrNoProvider when no candidate has a key.
func Select(candidates []Candidate, logger *zap.Logger) (Backend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	for _, cand := range candidates {
		if cand.APIKey == "" {
			continue
		}
		logger.Info("completion provider selected",
			zap.String("provider", string(cand.Provider)),
			zap.String("model", cand.Model))
		switch cand.Provider {
		case ProviderMoonshot:
			cfg := DefaultMoonshotConfig(cand.APIKey)
			if cand.BaseURL != "" {
				cfg.BaseURL = cand.BaseURL
			}
			// Moonshot runs a model per mode; a configured model overrides both.
			if cand.Model != "" {
				cfg.InterviewModel = cand.Model
				cfg.ProfileModel = cand.Model
			}
			if cand.Timeout > 0 {
				cfg.Timeout = cand.Timeout
			}
			return NewMoonshotClientWithConfig(cfg), nil
		case ProviderOpenAI:
			cfg := DefaultOpenAIConfig(cand.APIKey)
			if cand.BaseURL != "" {
				cfg.BaseURL = cand.BaseURL
			}
			if cand.Model != "" {
				cfg.Model = cand.Model
			}
			if cand.Timeout > 0 {
				cfg.Timeout = cand.Timeout
			}
			return NewOpenAIClientWithConfig(cfg), nil
		case ProviderGemini:
			cfg := DefaultGeminiConfig(cand.APIKey)
			if cand.BaseURL != "" {
				cfg.BaseURL = cand.BaseURL
			}
			if cand.Model != "" {
				cfg.Model = cand.Model
			}
			if cand.Timeout > 0 {
				cfg.Timeout = cand.Timeout
			}
			return NewGeminiClientWithConfig(cfg), nil
		}
	}
	return nil, ErrNoProvider
}

// FromConfig builds the ordered candidate list out of the configuration and
// selects a backend. Priority: Moonshot, then OpenAI, then Gemini.
func FromConfig(cfg *config.Config, logger *zap.Logger) (Backend, error) {
	return Select([]Candidate{
		{
			Provider: ProviderMoonshot,
			APIKey:   cfg.Providers.Moonshot.APIKey,
			BaseURL:  cfg.Providers.Moonshot.BaseURL,
			Model:    cfg.Providers.Moonshot.Model,
			Timeout:  cfg.Providers.Moonshot.TimeoutDuration(defaultTimeout),
		},
		{
			Provider: ProviderOpenAI,
			APIKey:   cfg.Providers.OpenAI.APIKey,
			BaseURL:  cfg.Providers.OpenAI.BaseURL,
			Model:    cfg.Providers.OpenAI.Model,
			Timeout:  cfg.Providers.OpenAI.TimeoutDuration(defaultTimeout),
		},
		{
			Provider: ProviderGemini,
			APIKey:   cfg.Providers.Gemini.APIKey,
			BaseURL:  cfg.Providers.Gemini.BaseURL,
			Model:    cfg.Providers.Gemini.Model,
			Timeout:  cfg.Providers.Gemini.TimeoutDuration(defaultTimeout),
		},
	}, logger)
}
