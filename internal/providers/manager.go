package providers

import (
	"fmt"
	"strings"

	"lcflow/internal/config"
)

// New builds the process-wide completion client from config. One client per
// process; callers receive it by constructor injection.
func New(cfg config.Config) (Completer, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "mock":
		return NewMockProvider(), nil
	case "openrouter":
		if cfg.OpenRouterAPIKey == "" {
			return NewMockProvider(), nil
		}
		return NewOpenRouterProvider(cfg.OpenRouterAPIKey, cfg.OpenRouterBaseURL, cfg.Model, cfg.MaxTokens, cfg.CompletionTimeout)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
}
