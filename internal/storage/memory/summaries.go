package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fdg312/nutrition-hub/internal/storage"
	"github.com/google/uuid"
)

type summariesStorage struct {
	mu        sync.RWMutex
	summaries map[string]storage.DailySummary // key: "userID|date"
}

func newSummariesStorage() *summariesStorage {
	return &summariesStorage{summaries: make(map[string]storage.DailySummary)}
}

func summaryKey(userID, date string) string {
	return userID + "|" + date
}

func (s *summariesStorage) GetSummary(ctx context.Context, userID string, date string) (*storage.DailySummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum, ok := s.summaries[summaryKey(userID, date)]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &sum, nil
}

func (s *summariesStorage) InsertSummary(ctx context.Context, summary *storage.DailySummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := summaryKey(summary.UserID, summary.Date)
	if _, exists := s.summaries[key]; exists {
		return storage.ErrDuplicate
	}

	if summary.ID == uuid.Nil {
		summary.ID = uuid.New()
	}
	summary.CreatedAt = time.Now().UTC()
	s.summaries[key] = *summary
	return nil
}

func (s *summariesStorage) DeleteSummary(ctx context.Context, userID string, date string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.summaries, summaryKey(userID, date))
	return nil
}

func (s *summariesStorage) ListSummaries(ctx context.Context, userID string, from, to string) ([]storage.DailySummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]storage.DailySummary, 0)
	for _, sum := range s.summaries {
		// YYYY-MM-DD compares lexicographically
		if sum.UserID == userID && sum.Date >= from && sum.Date <= to {
			result = append(result, sum)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Date < result[j].Date
	})
	return result, nil
}
