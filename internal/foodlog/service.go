package foodlog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fdg312/nutrition-hub/internal/ai"
	"github.com/fdg312/nutrition-hub/internal/catalog"
	"github.com/fdg312/nutrition-hub/internal/nutrition"
	"github.com/fdg312/nutrition-hub/internal/storage"
	"github.com/fdg312/nutrition-hub/internal/summary"
	"github.com/google/uuid"
)

// FoodCatalog is what the log service needs from the catalog.
type FoodCatalog interface {
	Get(ctx context.Context, id uuid.UUID) (*storage.Food, error)
	Resolve(ctx context.Context, name string) (*storage.Food, error)
}

// SummaryInvalidator drops a cached daily summary so the next read recomputes it.
type SummaryInvalidator interface {
	DeleteSummary(ctx context.Context, userID string, date string) error
}

type Logger interface {
	Printf(format string, v ...any)
}

type Service struct {
	logs      storage.FoodLogsStorage
	foods     FoodCatalog
	parser    ai.FoodParser
	summaries SummaryInvalidator
	logger    Logger
	now       func() time.Time
}

func NewService(
	logs storage.FoodLogsStorage,
	foods FoodCatalog,
	parser ai.FoodParser,
	summaries SummaryInvalidator,
	logger Logger,
) *Service {
	return &Service{
		logs:      logs,
		foods:     foods,
		parser:    parser,
		summaries: summaries,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *Service) LogFood(ctx context.Context, userID string, in LogFoodInput) (*storage.FoodLog, error) {
	if in.FoodID == uuid.Nil {
		return nil, fmt.Errorf("%w: food_id is required", ErrInvalidInput)
	}

	quantity := 1.0
	if in.Quantity != nil {
		quantity = *in.Quantity
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
	}
	if in.WeightGrams != nil && *in.WeightGrams <= 0 {
		return nil, fmt.Errorf("%w: weight_grams must be positive", ErrInvalidInput)
	}

	mealType := in.MealType
	if mealType == "" {
		mealType = nutrition.MealOther
	}
	if !nutrition.ValidMealType(mealType) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, nutrition.ErrInvalidMealType)
	}

	food, err := s.foods.Get(ctx, in.FoodID)
	if err != nil {
		return nil, err
	}

	mealTime := s.now().UTC()
	if in.MealTime != nil {
		mealTime = in.MealTime.UTC()
	}

	entry := &storage.FoodLog{
		UserID:   userID,
		FoodID:   food.ID,
		Quantity: quantity,
		Unit:     normalizeUnit(in.Unit),
		MealType: mealType,
		MealTime: mealTime,
		Notes:    in.Notes,
	}
	if err := applyNutrition(entry, food, in.WeightGrams); err != nil {
		return nil, err
	}

	if err := s.logs.CreateFoodLog(ctx, entry); err != nil {
		return nil, fmt.Errorf("create food log: %w", err)
	}
	s.invalidate(ctx, userID, entry.MealTime)
	return entry, nil
}

// Parse runs the text parser only; nothing is stored.
func (s *Service) Parse(ctx context.Context, text, mealTypeHint string) (ai.ParsedEntry, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return ai.ParsedEntry{}, fmt.Errorf("%w: text is required", ErrInvalidInput)
	}
	if mealTypeHint != "" && !nutrition.ValidMealType(mealTypeHint) {
		return ai.ParsedEntry{}, fmt.Errorf("%w: %v", ErrInvalidInput, nutrition.ErrInvalidMealType)
	}

	parsed, err := s.parser.Parse(ctx, text, mealTypeHint)
	if err != nil {
		return ai.ParsedEntry{}, fmt.Errorf("parse food text: %w", err)
	}
	if parsed.MealType == "" || !nutrition.ValidMealType(parsed.MealType) {
		parsed.MealType = mealTypeHint
	}
	if parsed.MealType == "" {
		parsed.MealType = nutrition.MealOther
	}
	if parsed.MealTime == nil {
		now := s.now().UTC()
		parsed.MealTime = &now
	}
	return parsed, nil
}

// LogNatural parses text and logs every recognised item. A failing item is
// reported in Failed and never aborts the rest of the batch.
func (s *Service) LogNatural(ctx context.Context, userID string, in NaturalInput) (*NaturalResult, error) {
	if in.MealTime != nil && in.MealTime.IsZero() {
		in.MealTime = nil
	}

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, fmt.Errorf("%w: text is required", ErrInvalidInput)
	}
	if in.MealType != "" && !nutrition.ValidMealType(in.MealType) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, nutrition.ErrInvalidMealType)
	}

	parsed, err := s.parser.Parse(ctx, text, in.MealType)
	if err != nil {
		return nil, fmt.Errorf("parse food text: %w", err)
	}
	if len(parsed.Foods) == 0 {
		return nil, ErrNothingParsed
	}

	mealType := parsed.MealType
	if mealType == "" || !nutrition.ValidMealType(mealType) {
		mealType = in.MealType
	}
	if mealType == "" {
		mealType = nutrition.MealOther
	}

	mealTime := s.now().UTC()
	switch {
	case parsed.MealTime != nil:
		mealTime = parsed.MealTime.UTC()
	case in.MealTime != nil:
		mealTime = in.MealTime.UTC()
	}
	parsed.MealType = mealType
	parsed.MealTime = &mealTime

	notes := "Parsed from: " + text
	result := &NaturalResult{Parsed: parsed}

	for _, item := range parsed.Foods {
		entry, err := s.logParsedItem(ctx, userID, item, mealType, mealTime, notes)
		if err != nil {
			s.logf("WARN foodlog.natural: item_failed user=%s item=%q err=%v", userID, item.Item, err)
			result.Failed = append(result.Failed, FailedItem{Item: item.Item, Error: err.Error()})
			continue
		}
		result.Entries = append(result.Entries, *entry)
	}

	if len(result.Entries) > 0 {
		s.invalidate(ctx, userID, mealTime)
	}
	return result, nil
}

func (s *Service) logParsedItem(ctx context.Context, userID string, item ai.FoodItem, mealType string, mealTime time.Time, notes string) (*storage.FoodLog, error) {
	food, err := s.foods.Resolve(ctx, item.Item)
	if err != nil {
		return nil, fmt.Errorf("resolve food: %w", err)
	}

	quantity := item.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	entry := &storage.FoodLog{
		UserID:   userID,
		FoodID:   food.ID,
		Quantity: quantity,
		Unit:     normalizeUnit(item.Unit),
		MealType: mealType,
		MealTime: mealTime,
		Notes:    &notes,
	}
	if err := applyNutrition(entry, food, nil); err != nil {
		return nil, err
	}
	if err := s.logs.CreateFoodLog(ctx, entry); err != nil {
		return nil, fmt.Errorf("create food log: %w", err)
	}
	return entry, nil
}

func (s *Service) Get(ctx context.Context, userID string, id uuid.UUID) (*storage.FoodLog, error) {
	entry, err := s.logs.GetFoodLog(ctx, userID, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrFoodLogNotFound
		}
		return nil, fmt.Errorf("get food log: %w", err)
	}
	return entry, nil
}

// List returns the user's entries, newest meal first.
func (s *Service) List(ctx context.Context, userID string, filter ListFilter) ([]storage.FoodLog, error) {
	var f storage.FoodLogFilter
	if filter.Date != "" {
		day, err := summary.ParseDate(filter.Date)
		if err != nil {
			return nil, err
		}
		from, to := summary.DayBounds(day)
		f.From, f.To = &from, &to
	}
	if filter.MealType != "" {
		if !nutrition.ValidMealType(filter.MealType) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, nutrition.ErrInvalidMealType)
		}
		f.MealType = filter.MealType
	}

	logs, err := s.logs.ListFoodLogs(ctx, userID, f)
	if err != nil {
		return nil, fmt.Errorf("list food logs: %w", err)
	}
	return logs, nil
}

// Update applies the patch and always recomputes weight and nutrients
// against the referenced food.
func (s *Service) Update(ctx context.Context, userID string, id uuid.UUID, patch FoodLogPatch) (*storage.FoodLog, error) {
	entry, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	oldMealTime := entry.MealTime

	if patch.Quantity != nil {
		if *patch.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
		}
		entry.Quantity = *patch.Quantity
	}
	if patch.Unit != nil {
		entry.Unit = normalizeUnit(*patch.Unit)
	}
	if patch.WeightGrams != nil && *patch.WeightGrams <= 0 {
		return nil, fmt.Errorf("%w: weight_grams must be positive", ErrInvalidInput)
	}
	if patch.MealType != nil {
		if !nutrition.ValidMealType(*patch.MealType) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, nutrition.ErrInvalidMealType)
		}
		entry.MealType = *patch.MealType
	}
	if patch.MealTime != nil {
		entry.MealTime = patch.MealTime.UTC()
	}
	if patch.Notes != nil {
		entry.Notes = patch.Notes
	}

	// Keep the stored weight unless the amount changed or a new weight was sent.
	current := entry.WeightGrams
	weight := &current
	if patch.WeightGrams != nil {
		weight = patch.WeightGrams
	} else if patch.Quantity != nil || patch.Unit != nil {
		weight = nil
	}

	food, err := s.foods.Get(ctx, entry.FoodID)
	if err != nil {
		return nil, err
	}
	if err := applyNutrition(entry, food, weight); err != nil {
		return nil, err
	}

	if err := s.logs.UpdateFoodLog(ctx, entry); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrFoodLogNotFound
		}
		return nil, fmt.Errorf("update food log: %w", err)
	}

	s.invalidate(ctx, userID, oldMealTime)
	if summary.DateOf(oldMealTime) != summary.DateOf(entry.MealTime) {
		s.invalidate(ctx, userID, entry.MealTime)
	}
	return entry, nil
}

func (s *Service) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	entry, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.logs.DeleteFoodLog(ctx, userID, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrFoodLogNotFound
		}
		return fmt.Errorf("delete food log: %w", err)
	}
	s.invalidate(ctx, userID, entry.MealTime)
	return nil
}

func (s *Service) invalidate(ctx context.Context, userID string, mealTime time.Time) {
	date := summary.DateOf(mealTime)
	if err := s.summaries.DeleteSummary(ctx, userID, date); err != nil {
		s.logf("WARN foodlog.invalidate: user=%s date=%s err=%v", userID, date, err)
	}
}

func (s *Service) logf(format string, v ...any) {
	if s.logger != nil {
		s.logger.Printf(format, v...)
	}
}

// applyNutrition resolves the consumed weight and snapshots nutrients.
// A "serving" uses the food's own serving weight when the catalog knows it.
func applyNutrition(entry *storage.FoodLog, food *storage.Food, explicitWeight *float64) error {
	weight := explicitWeight
	if weight == nil && entry.Unit == nutrition.UnitServing && food.ServingWeightGrams != nil && *food.ServingWeightGrams > 0 {
		w := entry.Quantity * *food.ServingWeightGrams
		weight = &w
	}

	entry.WeightGrams = nutrition.ResolveWeight(entry.Quantity, entry.Unit, weight)
	n, err := nutrition.Compute(food, entry.WeightGrams)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	entry.Nutrients = n
	return nil
}

func normalizeUnit(unit string) string {
	u := nutrition.NormalizeUnit(unit)
	if u == "" {
		return nutrition.UnitServing
	}
	return u
}

var _ FoodCatalog = (*catalog.Service)(nil)
