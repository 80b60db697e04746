package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/fdg312/nutrition-hub/internal/nutrition"
)

const (
	openAIDefaultConfidence = 0.9
	openAIMaxTokens         = 500
)

// OpenAIConfig is passed by value; the parser keeps no mutable credential state.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	Timeout     time.Duration
}

type OpenAIParser struct {
	cfg        OpenAIConfig
	fallback   FoodParser
	logger     Logger
	httpClient *http.Client
}

func NewOpenAIParser(cfg OpenAIConfig, fallback FoodParser, logger Logger) *OpenAIParser {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &OpenAIParser{
		cfg:      cfg,
		fallback: fallback,
		logger:   logger,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

func (p *OpenAIParser) Parse(ctx context.Context, text string, mealTypeHint string) (ParsedEntry, error) {
	entry, err := p.parseRemote(ctx, text, mealTypeHint)
	if err == nil {
		return entry, nil
	}

	if p.logger != nil {
		p.logger.Printf("WARN ai.openai: parse_failed=%q, fallback=basic", err.Error())
	}
	if p.fallback == nil {
		return ParsedEntry{}, err
	}
	return p.fallback.Parse(ctx, text, mealTypeHint)
}

func (p *OpenAIParser) parseRemote(ctx context.Context, text string, mealTypeHint string) (ParsedEntry, error) {
	requestPayload := chatCompletionsRequest{
		Model:       p.cfg.Model,
		Temperature: p.cfg.Temperature,
		MaxTokens:   openAIMaxTokens,
		Messages: []chatMessageRequest{
			{Role: "system", Content: "You are a food parsing assistant. Parse food entries accurately and return valid JSON."},
			{Role: "user", Content: buildPrompt(text, mealTypeHint)},
		},
	}

	body, err := json.Marshal(requestPayload)
	if err != nil {
		return ParsedEntry{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return ParsedEntry{}, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return ParsedEntry{}, err
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return ParsedEntry{}, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ParsedEntry{}, fmt.Errorf("openai request failed with status %d", resp.StatusCode)
	}

	var parsed chatCompletionsResponse
	if err := json.Unmarshal(responseBody, &parsed); err != nil {
		return ParsedEntry{}, err
	}
	if len(parsed.Choices) == 0 {
		return ParsedEntry{}, fmt.Errorf("openai response does not contain choices")
	}

	return decodeParsedEntry(parsed.Choices[0].Message.Content, mealTypeHint)
}

var jsonObjectRe = regexp.MustCompile(`(?s)\{.*\}`)

// decodeParsedEntry extracts the JSON object from the model reply; models
// sometimes wrap it in prose or code fences.
func decodeParsedEntry(content string, mealTypeHint string) (ParsedEntry, error) {
	chunk := jsonObjectRe.FindString(content)
	if chunk == "" {
		return ParsedEntry{}, fmt.Errorf("openai reply does not contain a JSON object")
	}

	var raw struct {
		Foods []struct {
			Item     string   `json:"item"`
			Quantity *float64 `json:"quantity"`
			Unit     string   `json:"unit"`
		} `json:"foods"`
		MealType   string   `json:"meal_type"`
		Confidence *float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(chunk), &raw); err != nil {
		return ParsedEntry{}, fmt.Errorf("decode openai reply: %w", err)
	}

	entry := ParsedEntry{
		Foods:      make([]FoodItem, 0, len(raw.Foods)),
		MealType:   mealTypeHint,
		Confidence: openAIDefaultConfidence,
	}
	if raw.Confidence != nil && *raw.Confidence >= 0 && *raw.Confidence <= 1 {
		entry.Confidence = *raw.Confidence
	}
	if mt := strings.ToLower(strings.TrimSpace(raw.MealType)); nutrition.ValidMealType(mt) {
		entry.MealType = mt
	}

	for _, f := range raw.Foods {
		item := strings.ToLower(strings.TrimSpace(f.Item))
		if item == "" {
			continue
		}
		quantity := 1.0
		if f.Quantity != nil && *f.Quantity > 0 {
			quantity = *f.Quantity
		}
		unit := strings.TrimSpace(f.Unit)
		if unit == "" {
			unit = InferUnit(item)
		}
		entry.Foods = append(entry.Foods, FoodItem{Item: item, Quantity: quantity, Unit: nutrition.NormalizeUnit(unit)})
	}

	return entry, nil
}

func buildPrompt(text string, mealTypeHint string) string {
	mealType := mealTypeHint
	if mealType == "" {
		mealType = "unknown"
	}
	return fmt.Sprintf(`Parse the following food entry and extract food items with quantities and units.
Return a JSON response in this exact format:
{"foods": [{"item": "food_name", "quantity": number, "unit": "unit_name"}], "meal_type": %q, "confidence": 0.95}

Food entry: %q

Rules:
- Extract all food items mentioned
- Convert quantities to numbers ("two" -> 2, "half" -> 0.5)
- Use standard units (piece, bowl, glass, cup, spoon, gram, ml)
- For Indian foods use natural units (roti -> piece, dal -> bowl, milk -> glass)
- If no quantity is mentioned, assume 1
- If no unit is mentioned, infer it from context
- meal_type is one of breakfast, lunch, dinner, snack, other`, mealType, text)
}

type chatCompletionsRequest struct {
	Model       string               `json:"model"`
	Messages    []chatMessageRequest `json:"messages"`
	Temperature float64              `json:"temperature"`
	MaxTokens   int                  `json:"max_tokens"`
}

type chatMessageRequest struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionsResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}
