package ai

import (
	"context"
	"strings"
	"time"

	"github.com/fdg312/nutrition-hub/internal/config"
)

// FoodParser turns free text like "2 rotis and a bowl of dal" into food items.
type FoodParser interface {
	Parse(ctx context.Context, text string, mealTypeHint string) (ParsedEntry, error)
}

type Logger interface {
	Printf(format string, v ...any)
}

// NewFoodParser picks the parser for AI_MODE. The OpenAI parser falls back to
// the basic one on any upstream failure.
func NewFoodParser(cfg *config.Config, logger Logger) FoodParser {
	mode := strings.ToLower(strings.TrimSpace(cfg.AIMode))

	switch mode {
	case config.AIModeOpenAI:
		return NewOpenAIParser(OpenAIConfig{
			APIKey:      cfg.OpenAIAPIKey,
			Model:       cfg.OpenAIModel,
			BaseURL:     cfg.OpenAIBaseURL,
			Temperature: cfg.AITemperature,
			Timeout:     time.Duration(cfg.AITimeoutSeconds) * time.Second,
		}, NewBasicParser(), logger)
	default:
		return NewBasicParser()
	}
}
