package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/fdg312/nutrition-hub/internal/storage"
)

// MemoryStorage - in-memory реализация storage.Storage (local dev и тесты)
type MemoryStorage struct {
	users     *usersStorage
	foods     *foodsStorage
	foodLogs  *foodLogsStorage
	goals     *goalsStorage
	summaries *summariesStorage
	reports   *ReportsMemoryStorage
}

// New создаёт пустой MemoryStorage
func New() *MemoryStorage {
	return &MemoryStorage{
		users:     newUsersStorage(),
		foods:     newFoodsStorage(),
		foodLogs:  newFoodLogsStorage(),
		goals:     newGoalsStorage(),
		summaries: newSummariesStorage(),
		reports:   NewReportsMemoryStorage(),
	}
}

func (m *MemoryStorage) GetUsersStorage() storage.UsersStorage {
	return m.users
}

func (m *MemoryStorage) GetFoodsStorage() storage.FoodsStorage {
	return m.foods
}

func (m *MemoryStorage) GetFoodLogsStorage() storage.FoodLogsStorage {
	return m.foodLogs
}

func (m *MemoryStorage) GetGoalsStorage() storage.GoalsStorage {
	return m.goals
}

func (m *MemoryStorage) GetSummariesStorage() storage.SummariesStorage {
	return m.summaries
}

func (m *MemoryStorage) GetReportsStorage() storage.ReportsStorage {
	return m.reports
}

func (m *MemoryStorage) Close() error {
	return nil
}

type usersStorage struct {
	mu      sync.RWMutex
	byID    map[string]storage.User
	byEmail map[string]string // email -> id
}

func newUsersStorage() *usersStorage {
	return &usersStorage{
		byID:    make(map[string]storage.User),
		byEmail: make(map[string]string),
	}
}

func (s *usersStorage) CreateUser(ctx context.Context, user *storage.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(strings.TrimSpace(user.Email))
	if _, taken := s.byEmail[email]; taken {
		return storage.ErrDuplicate
	}
	if _, taken := s.byID[user.ID]; taken {
		return storage.ErrDuplicate
	}

	user.Email = email
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	s.byID[user.ID] = *user
	s.byEmail[email] = user.ID
	return nil
}

func (s *usersStorage) GetUser(ctx context.Context, id string) (*storage.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &u, nil
}

func (s *usersStorage) GetUserByEmail(ctx context.Context, email string) (*storage.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, storage.ErrNotFound
	}
	u := s.byID[id]
	return &u, nil
}

func (s *usersStorage) UpdateUserProfile(ctx context.Context, id string, update storage.UserProfileUpdate) (*storage.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, storage.ErrNotFound
	}

	if update.FirstName != nil {
		u.FirstName = update.FirstName
	}
	if update.LastName != nil {
		u.LastName = update.LastName
	}
	if update.Age != nil {
		u.Age = update.Age
	}
	if update.Gender != nil {
		u.Gender = update.Gender
	}
	if update.WeightKg != nil {
		u.WeightKg = update.WeightKg
	}
	if update.HeightCm != nil {
		u.HeightCm = update.HeightCm
	}
	if update.ActivityLevel != nil {
		u.ActivityLevel = update.ActivityLevel
	}
	u.UpdatedAt = time.Now().UTC()

	s.byID[id] = u
	return &u, nil
}

func (s *usersStorage) UpdatePassword(ctx context.Context, id string, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return storage.ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = time.Now().UTC()
	s.byID[id] = u
	return nil
}

func (s *usersStorage) DeactivateUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return storage.ErrNotFound
	}
	if u.DeactivatedAt == nil {
		now := time.Now().UTC()
		u.DeactivatedAt = &now
		u.UpdatedAt = now
	}
	s.byID[id] = u
	return nil
}
