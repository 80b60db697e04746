package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fdg312/nutrition-hub/internal/storage"
	"github.com/google/uuid"
)

type foodsStorage struct {
	mu    sync.RWMutex
	foods map[uuid.UUID]storage.Food
}

func newFoodsStorage() *foodsStorage {
	return &foodsStorage{foods: make(map[uuid.UUID]storage.Food)}
}

func (s *foodsStorage) CreateFood(ctx context.Context, food *storage.Food) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if food.ID == uuid.Nil {
		food.ID = uuid.New()
	}
	if food.ExternalID != nil {
		for _, f := range s.foods {
			if f.ExternalID != nil && *f.ExternalID == *food.ExternalID {
				return storage.ErrDuplicate
			}
		}
	}
	food.CreatedAt = time.Now().UTC()
	s.foods[food.ID] = *food
	return nil
}

func (s *foodsStorage) GetFood(ctx context.Context, id uuid.UUID) (*storage.Food, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.foods[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &f, nil
}

func (s *foodsStorage) FindFoodByName(ctx context.Context, name string) (*storage.Food, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return nil, storage.ErrNotFound
	}

	// Exact match wins over substring; ties resolved by earliest creation.
	var exact, partial *storage.Food
	for _, f := range s.foods {
		f := f
		lower := strings.ToLower(f.Name)
		switch {
		case lower == needle:
			if exact == nil || f.CreatedAt.Before(exact.CreatedAt) {
				exact = &f
			}
		case strings.Contains(lower, needle):
			if partial == nil || f.CreatedAt.Before(partial.CreatedAt) {
				partial = &f
			}
		}
	}
	if exact != nil {
		return exact, nil
	}
	if partial != nil {
		return partial, nil
	}
	return nil, storage.ErrNotFound
}

func (s *foodsStorage) GetFoodByExternalID(ctx context.Context, externalID string) (*storage.Food, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, f := range s.foods {
		if f.ExternalID != nil && *f.ExternalID == externalID {
			return &f, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *foodsStorage) SearchFoods(ctx context.Context, query string, limit int) ([]storage.Food, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(strings.TrimSpace(query))
	result := make([]storage.Food, 0)
	for _, f := range s.foods {
		brand := ""
		if f.Brand != nil {
			brand = strings.ToLower(*f.Brand)
		}
		if strings.Contains(strings.ToLower(f.Name), needle) || (brand != "" && strings.Contains(brand, needle)) {
			result = append(result, f)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return strings.ToLower(result[i].Name) < strings.ToLower(result[j].Name)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
