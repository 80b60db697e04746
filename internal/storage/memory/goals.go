package memory

import (
	"context"
	"sync"
	"time"

	"github.com/fdg312/nutrition-hub/internal/storage"
	"github.com/google/uuid"
)

// goalsStorage держит один мьютекс на все операции, поэтому
// "деактивировать остальные + активировать" выполняется атомарно.
type goalsStorage struct {
	mu    sync.RWMutex
	goals map[uuid.UUID]storage.Goal
	order []uuid.UUID // insertion order, oldest first
}

func newGoalsStorage() *goalsStorage {
	return &goalsStorage{goals: make(map[uuid.UUID]storage.Goal)}
}

func (s *goalsStorage) deactivateAllLocked(userID string, now time.Time) {
	for id, g := range s.goals {
		if g.UserID == userID && g.IsActive {
			g.IsActive = false
			g.UpdatedAt = now
			s.goals[id] = g
		}
	}
}

func (s *goalsStorage) CreateActiveGoal(ctx context.Context, userID string, startDate string, targets storage.GoalTargets) (*storage.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	s.deactivateAllLocked(userID, now)

	goal := storage.Goal{
		ID:          uuid.New(),
		UserID:      userID,
		StartDate:   startDate,
		IsActive:    true,
		GoalTargets: targets,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.goals[goal.ID] = goal
	s.order = append(s.order, goal.ID)

	copied := goal
	return &copied, nil
}

func (s *goalsStorage) ActivateGoal(ctx context.Context, userID string, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	goal, ok := s.goals[id]
	if !ok || goal.UserID != userID {
		return storage.ErrNotFound
	}

	now := time.Now().UTC()
	s.deactivateAllLocked(userID, now)

	goal.IsActive = true
	goal.UpdatedAt = now
	s.goals[id] = goal
	return nil
}

func (s *goalsStorage) DeactivateGoal(ctx context.Context, userID string, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	goal, ok := s.goals[id]
	if !ok || goal.UserID != userID {
		return storage.ErrNotFound
	}

	goal.IsActive = false
	goal.UpdatedAt = time.Now().UTC()
	s.goals[id] = goal
	return nil
}

func (s *goalsStorage) UpdateGoal(ctx context.Context, userID string, id uuid.UUID, targets storage.GoalTargets) (*storage.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	goal, ok := s.goals[id]
	if !ok || goal.UserID != userID {
		return nil, storage.ErrNotFound
	}

	goal.GoalTargets = targets
	goal.UpdatedAt = time.Now().UTC()
	s.goals[id] = goal

	copied := goal
	return &copied, nil
}

func (s *goalsStorage) GetGoal(ctx context.Context, userID string, id uuid.UUID) (*storage.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	goal, ok := s.goals[id]
	if !ok || goal.UserID != userID {
		return nil, storage.ErrNotFound
	}
	return &goal, nil
}

func (s *goalsStorage) GetActiveGoal(ctx context.Context, userID string) (*storage.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, g := range s.goals {
		if g.UserID == userID && g.IsActive {
			return &g, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *goalsStorage) ListGoals(ctx context.Context, userID string) ([]storage.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]storage.Goal, 0)
	for i := len(s.order) - 1; i >= 0; i-- {
		if g := s.goals[s.order[i]]; g.UserID == userID {
			result = append(result, g)
		}
	}
	return result, nil
}
