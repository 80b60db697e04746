package postgres

import (
	"context"
	"fmt"

	"github.com/fdg312/nutrition-hub/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type goalsStorage struct {
	pool *pgxpool.Pool
}

const goalColumns = `id, user_id, start_date::text, end_date::text, is_active,
	daily_calories, daily_protein_g, daily_carbs_g, daily_fat_g, daily_fiber_g, daily_sugar_g, daily_sodium_mg,
	target_weight_kg, weekly_weight_change_kg, daily_water_ml, daily_steps, description, goal_type,
	created_at, updated_at`

func scanGoal(row pgx.Row) (*storage.Goal, error) {
	var g storage.Goal
	err := row.Scan(
		&g.ID,
		&g.UserID,
		&g.StartDate,
		&g.EndDate,
		&g.IsActive,
		&g.DailyCalories,
		&g.DailyProteinG,
		&g.DailyCarbsG,
		&g.DailyFatG,
		&g.DailyFiberG,
		&g.DailySugarG,
		&g.DailySodiumMg,
		&g.TargetWeightKg,
		&g.WeeklyWeightChangeKg,
		&g.DailyWaterMl,
		&g.DailySteps,
		&g.Description,
		&g.GoalType,
		&g.CreatedAt,
		&g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// lockUserGoals сериализует конкурирующие create/activate одного пользователя.
// Частичный уникальный индекс goals_one_active_per_user страхует от гонок на пустой истории.
func lockUserGoals(ctx context.Context, tx pgx.Tx, userID string) error {
	_, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext('goals:' || $1))`, userID)
	return err
}

func (s *goalsStorage) CreateActiveGoal(ctx context.Context, userID string, startDate string, t storage.GoalTargets) (*storage.Goal, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := lockUserGoals(ctx, tx, userID); err != nil {
		return nil, fmt.Errorf("failed to lock goals: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE goals
		SET is_active = false, updated_at = now()
		WHERE user_id = $1 AND is_active = true
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to deactivate goals: %w", err)
	}

	query := `
		INSERT INTO goals (id, user_id, start_date, end_date, is_active,
			daily_calories, daily_protein_g, daily_carbs_g, daily_fat_g, daily_fiber_g, daily_sugar_g, daily_sodium_mg,
			target_weight_kg, weekly_weight_change_kg, daily_water_ml, daily_steps, description, goal_type)
		VALUES ($1, $2, $3::date, $4::date, true, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING ` + goalColumns

	goal, err := scanGoal(tx.QueryRow(ctx, query,
		uuid.New(), userID, startDate, t.EndDate,
		t.DailyCalories, t.DailyProteinG, t.DailyCarbsG, t.DailyFatG, t.DailyFiberG, t.DailySugarG, t.DailySodiumMg,
		t.TargetWeightKg, t.WeeklyWeightChangeKg, t.DailyWaterMl, t.DailySteps, t.Description, t.GoalType,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to insert goal: %w", mapErr(err))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return goal, nil
}

func (s *goalsStorage) ActivateGoal(ctx context.Context, userID string, id uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := lockUserGoals(ctx, tx, userID); err != nil {
		return fmt.Errorf("failed to lock goals: %w", err)
	}

	var exists bool
	err = tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM goals WHERE id = $1 AND user_id = $2)`, id, userID).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return storage.ErrNotFound
	}

	_, err = tx.Exec(ctx, `
		UPDATE goals
		SET is_active = false, updated_at = now()
		WHERE user_id = $1 AND is_active = true AND id <> $2
	`, userID, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate goals: %w", err)
	}

	_, err = tx.Exec(ctx, `UPDATE goals SET is_active = true, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to activate goal: %w", mapErr(err))
	}

	return tx.Commit(ctx)
}

func (s *goalsStorage) DeactivateGoal(ctx context.Context, userID string, id uuid.UUID) error {
	result, err := s.pool.Exec(ctx, `
		UPDATE goals
		SET is_active = false, updated_at = now()
		WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to deactivate goal: %w", err)
	}
	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *goalsStorage) UpdateGoal(ctx context.Context, userID string, id uuid.UUID, t storage.GoalTargets) (*storage.Goal, error) {
	query := `
		UPDATE goals
		SET end_date = $3::date,
			daily_calories = $4, daily_protein_g = $5, daily_carbs_g = $6, daily_fat_g = $7,
			daily_fiber_g = $8, daily_sugar_g = $9, daily_sodium_mg = $10,
			target_weight_kg = $11, weekly_weight_change_kg = $12, daily_water_ml = $13, daily_steps = $14,
			description = $15, goal_type = $16, updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING ` + goalColumns

	goal, err := scanGoal(s.pool.QueryRow(ctx, query,
		id, userID, t.EndDate,
		t.DailyCalories, t.DailyProteinG, t.DailyCarbsG, t.DailyFatG, t.DailyFiberG, t.DailySugarG, t.DailySodiumMg,
		t.TargetWeightKg, t.WeeklyWeightChangeKg, t.DailyWaterMl, t.DailySteps, t.Description, t.GoalType,
	))
	if err != nil {
		return nil, mapErr(err)
	}
	return goal, nil
}

func (s *goalsStorage) GetGoal(ctx context.Context, userID string, id uuid.UUID) (*storage.Goal, error) {
	goal, err := scanGoal(s.pool.QueryRow(ctx, `SELECT `+goalColumns+` FROM goals WHERE id = $1 AND user_id = $2`, id, userID))
	if err != nil {
		return nil, mapErr(err)
	}
	return goal, nil
}

func (s *goalsStorage) GetActiveGoal(ctx context.Context, userID string) (*storage.Goal, error) {
	goal, err := scanGoal(s.pool.QueryRow(ctx, `SELECT `+goalColumns+` FROM goals WHERE user_id = $1 AND is_active = true LIMIT 1`, userID))
	if err != nil {
		return nil, mapErr(err)
	}
	return goal, nil
}

func (s *goalsStorage) ListGoals(ctx context.Context, userID string) ([]storage.Goal, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+goalColumns+` FROM goals WHERE user_id = $1 ORDER BY created_at DESC, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	defer rows.Close()

	goals := []storage.Goal{}
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan goal: %w", err)
		}
		goals = append(goals, *g)
	}
	return goals, rows.Err()
}
