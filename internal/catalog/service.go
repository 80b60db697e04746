package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fdg312/nutrition-hub/internal/fooddb"
	"github.com/fdg312/nutrition-hub/internal/storage"
	"github.com/google/uuid"
)

type Logger interface {
	Printf(format string, v ...any)
}

// Service resolves food names to catalog entries. The upstream database is
// optional; when it is nil or failing, unknown names become zero-nutrient stubs.
type Service struct {
	foods    storage.FoodsStorage
	upstream fooddb.Database
	maxLimit int
	logger   Logger
}

func NewService(foods storage.FoodsStorage, upstream fooddb.Database, maxLimit int, logger Logger) *Service {
	if maxLimit <= 0 {
		maxLimit = 50
	}
	return &Service{
		foods:    foods,
		upstream: upstream,
		maxLimit: maxLimit,
		logger:   logger,
	}
}

// Resolve never fails on upstream errors: exact local match, then substring
// match, then the upstream database, then a user_created stub.
func (s *Service) Resolve(ctx context.Context, name string) (*storage.Food, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidInput
	}

	food, err := s.foods.FindFoodByName(ctx, name)
	if err == nil {
		return food, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("find food %q: %w", name, err)
	}

	if s.upstream != nil {
		products, err := s.upstream.Search(ctx, name, 1)
		switch {
		case err != nil:
			s.logf("WARN catalog.resolve: upstream_failed name=%q err=%v fallback=stub", name, err)
		case len(products) > 0:
			food, err := s.importProduct(ctx, products[0])
			if err == nil {
				return food, nil
			}
			s.logf("WARN catalog.resolve: import_failed name=%q err=%v fallback=stub", name, err)
		}
	}

	stub := &storage.Food{
		Name:   name,
		Source: storage.FoodSourceUserCreated,
	}
	if err := s.foods.CreateFood(ctx, stub); err != nil {
		return nil, fmt.Errorf("create stub food %q: %w", name, err)
	}
	return stub, nil
}

// Search returns local matches, topped up from the upstream database when
// fewer than limit were found locally.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]storage.Food, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrInvalidInput
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}

	local, err := s.foods.SearchFoods(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search foods: %w", err)
	}
	if len(local) >= limit || s.upstream == nil {
		return local, nil
	}

	products, err := s.upstream.Search(ctx, query, limit-len(local))
	if err != nil {
		if !errors.Is(err, fooddb.ErrNoMatch) {
			s.logf("WARN catalog.search: upstream_failed query=%q err=%v", query, err)
		}
		return local, nil
	}

	seen := make(map[uuid.UUID]bool, len(local))
	for _, f := range local {
		seen[f.ID] = true
	}
	for _, p := range products {
		if len(local) >= limit {
			break
		}
		food, err := s.importProduct(ctx, p)
		if err != nil {
			s.logf("WARN catalog.search: import_failed external_id=%s err=%v", p.ExternalID, err)
			continue
		}
		if seen[food.ID] {
			continue
		}
		seen[food.ID] = true
		local = append(local, *food)
	}
	return local, nil
}

func (s *Service) Create(ctx context.Context, in FoodInput) (*storage.Food, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	for _, v := range []*float64{in.Calories, in.ProteinG, in.CarbsG, in.FatG, in.FiberG, in.SugarG, in.SodiumMg, in.ServingWeightGrams} {
		if v != nil && *v < 0 {
			return nil, fmt.Errorf("%w: nutrient values must not be negative", ErrInvalidInput)
		}
	}

	food := &storage.Food{
		Name:               name,
		Brand:              in.Brand,
		Calories:           in.Calories,
		ProteinG:           in.ProteinG,
		CarbsG:             in.CarbsG,
		FatG:               in.FatG,
		FiberG:             in.FiberG,
		SugarG:             in.SugarG,
		SodiumMg:           in.SodiumMg,
		ServingSize:        in.ServingSize,
		ServingWeightGrams: in.ServingWeightGrams,
		Category:           in.Category,
		Source:             storage.FoodSourceUserCreated,
	}
	if err := s.foods.CreateFood(ctx, food); err != nil {
		return nil, fmt.Errorf("create food: %w", err)
	}
	return food, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*storage.Food, error) {
	food, err := s.foods.GetFood(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrFoodNotFound
		}
		return nil, fmt.Errorf("get food: %w", err)
	}
	return food, nil
}

// LookupBarcode imports a product by barcode once per external id.
func (s *Service) LookupBarcode(ctx context.Context, code string) (*storage.Food, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrInvalidInput
	}
	if s.upstream == nil {
		return nil, ErrUpstreamUnavailable
	}

	product, err := s.upstream.LookupBarcode(ctx, code)
	if err != nil {
		if errors.Is(err, fooddb.ErrNoMatch) {
			return nil, ErrFoodNotFound
		}
		s.logf("WARN catalog.barcode: upstream_failed code=%s err=%v", code, err)
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	return s.importProduct(ctx, product)
}

func (s *Service) importProduct(ctx context.Context, p fooddb.Product) (*storage.Food, error) {
	if p.ExternalID != "" {
		existing, err := s.foods.GetFoodByExternalID(ctx, p.ExternalID)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
	}

	food := &storage.Food{
		Name:               p.Name,
		Brand:              optionalString(p.Brand),
		Calories:           p.Calories,
		ProteinG:           p.ProteinG,
		CarbsG:             p.CarbsG,
		FatG:               p.FatG,
		FiberG:             p.FiberG,
		SugarG:             p.SugarG,
		SodiumMg:           p.SodiumMg,
		ServingSize:        optionalString(p.ServingSize),
		ServingWeightGrams: p.ServingWeightGrams,
		Category:           optionalString(p.Category),
		Source:             storage.FoodSourceExternalSource,
		ExternalID:         optionalString(p.ExternalID),
	}
	if err := s.foods.CreateFood(ctx, food); err != nil {
		// Lost a race with a concurrent import of the same product.
		if errors.Is(err, storage.ErrDuplicate) && p.ExternalID != "" {
			return s.foods.GetFoodByExternalID(ctx, p.ExternalID)
		}
		return nil, err
	}
	return food, nil
}

func (s *Service) logf(format string, v ...any) {
	if s.logger != nil {
		s.logger.Printf(format, v...)
	}
}

func optionalString(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
