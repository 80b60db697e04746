package goals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fdg312/nutrition-hub/internal/storage"
	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// Manager owns goal versioning. The storage layer guarantees that
// deactivate-others-then-activate runs atomically per user.
type Manager struct {
	goals storage.GoalsStorage
	now   func() time.Time
}

func NewManager(goals storage.GoalsStorage) *Manager {
	return &Manager{goals: goals, now: time.Now}
}

// CreateGoal stores a new active goal starting today and retires the previous one.
func (m *Manager) CreateGoal(ctx context.Context, userID string, in GoalInput) (*storage.Goal, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}

	startDate := m.now().UTC().Format(dateLayout)
	goal, err := m.goals.CreateActiveGoal(ctx, userID, startDate, in.targets())
	if err != nil {
		return nil, fmt.Errorf("create goal: %w", err)
	}
	return goal, nil
}

func (m *Manager) ActivateGoal(ctx context.Context, userID string, id uuid.UUID) error {
	if err := m.goals.ActivateGoal(ctx, userID, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrGoalNotFound
		}
		return fmt.Errorf("activate goal: %w", err)
	}
	return nil
}

// DeactivateGoal is the logical delete; history is kept.
func (m *Manager) DeactivateGoal(ctx context.Context, userID string, id uuid.UUID) error {
	if err := m.goals.DeactivateGoal(ctx, userID, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrGoalNotFound
		}
		return fmt.Errorf("deactivate goal: %w", err)
	}
	return nil
}

// UpdateGoal overwrites every target field. Activation state is untouched.
func (m *Manager) UpdateGoal(ctx context.Context, userID string, id uuid.UUID, in GoalInput) (*storage.Goal, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}

	goal, err := m.goals.UpdateGoal(ctx, userID, id, in.targets())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrGoalNotFound
		}
		return nil, fmt.Errorf("update goal: %w", err)
	}
	return goal, nil
}

func (m *Manager) GetActiveGoal(ctx context.Context, userID string) (*storage.Goal, error) {
	goal, err := m.goals.GetActiveGoal(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNoActiveGoal
		}
		return nil, fmt.Errorf("get active goal: %w", err)
	}
	return goal, nil
}

func (m *Manager) ListGoals(ctx context.Context, userID string) ([]storage.Goal, error) {
	goals, err := m.goals.ListGoals(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return goals, nil
}

func Validate(in GoalInput) error {
	if in.DailyCalories <= 0 {
		return fmt.Errorf("%w: daily_calories must be positive", ErrInvalidGoal)
	}
	if in.DailyProteinG < 0 || in.DailyCarbsG < 0 || in.DailyFatG < 0 {
		return fmt.Errorf("%w: macro targets must not be negative", ErrInvalidGoal)
	}
	for _, v := range []*float64{in.DailyFiberG, in.DailySugarG, in.DailySodiumMg, in.TargetWeightKg} {
		if v != nil && *v < 0 {
			return fmt.Errorf("%w: optional targets must not be negative", ErrInvalidGoal)
		}
	}
	for _, v := range []*int{in.DailyWaterMl, in.DailySteps} {
		if v != nil && *v < 0 {
			return fmt.Errorf("%w: optional targets must not be negative", ErrInvalidGoal)
		}
	}

	switch in.GoalType {
	case "", GoalTypeWeightLoss, GoalTypeWeightGain, GoalTypeMaintenance, GoalTypeMuscleGain:
	default:
		return fmt.Errorf("%w: unknown goal_type %q", ErrInvalidGoal, in.GoalType)
	}

	if in.EndDate != nil {
		if _, err := time.Parse(dateLayout, *in.EndDate); err != nil {
			return fmt.Errorf("%w: end_date must be YYYY-MM-DD", ErrInvalidGoal)
		}
	}
	return nil
}
