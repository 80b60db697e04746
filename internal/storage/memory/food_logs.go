package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fdg312/nutrition-hub/internal/storage"
	"github.com/google/uuid"
)

type foodLogsStorage struct {
	mu   sync.RWMutex
	logs map[uuid.UUID]storage.FoodLog
}

func newFoodLogsStorage() *foodLogsStorage {
	return &foodLogsStorage{logs: make(map[uuid.UUID]storage.FoodLog)}
}

func (s *foodLogsStorage) CreateFoodLog(ctx context.Context, log *storage.FoodLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	now := time.Now().UTC()
	log.CreatedAt = now
	log.UpdatedAt = now

	s.logs[log.ID] = *log
	return nil
}

func (s *foodLogsStorage) GetFoodLog(ctx context.Context, userID string, id uuid.UUID) (*storage.FoodLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.logs[id]
	if !ok || l.UserID != userID {
		return nil, storage.ErrNotFound
	}
	return &l, nil
}

func (s *foodLogsStorage) UpdateFoodLog(ctx context.Context, log *storage.FoodLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.logs[log.ID]
	if !ok || existing.UserID != log.UserID {
		return storage.ErrNotFound
	}

	log.CreatedAt = existing.CreatedAt
	log.UpdatedAt = time.Now().UTC()
	s.logs[log.ID] = *log
	return nil
}

func (s *foodLogsStorage) DeleteFoodLog(ctx context.Context, userID string, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.logs[id]
	if !ok || l.UserID != userID {
		return storage.ErrNotFound
	}
	delete(s.logs, id)
	return nil
}

func (s *foodLogsStorage) ListFoodLogs(ctx context.Context, userID string, filter storage.FoodLogFilter) ([]storage.FoodLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]storage.FoodLog, 0)
	for _, l := range s.logs {
		if l.UserID != userID {
			continue
		}
		if filter.From != nil && l.MealTime.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !l.MealTime.Before(*filter.To) {
			continue
		}
		if filter.MealType != "" && l.MealType != filter.MealType {
			continue
		}
		result = append(result, l)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].MealTime.After(result[j].MealTime)
	})
	return result, nil
}
