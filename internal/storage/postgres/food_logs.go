package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/fdg312/nutrition-hub/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type foodLogsStorage struct {
	pool *pgxpool.Pool
}

const foodLogColumns = `id, user_id, food_id, quantity, unit, weight_grams, meal_type, meal_time, notes,
	calories, protein_g, carbs_g, fat_g, fiber_g, sugar_g, sodium_mg, created_at, updated_at`

func scanFoodLog(row pgx.Row) (*storage.FoodLog, error) {
	var l storage.FoodLog
	err := row.Scan(
		&l.ID,
		&l.UserID,
		&l.FoodID,
		&l.Quantity,
		&l.Unit,
		&l.WeightGrams,
		&l.MealType,
		&l.MealTime,
		&l.Notes,
		&l.Nutrients.Calories,
		&l.Nutrients.ProteinG,
		&l.Nutrients.CarbsG,
		&l.Nutrients.FatG,
		&l.Nutrients.FiberG,
		&l.Nutrients.SugarG,
		&l.Nutrients.SodiumMg,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (s *foodLogsStorage) CreateFoodLog(ctx context.Context, log *storage.FoodLog) error {
	query := `
		INSERT INTO food_logs (id, user_id, food_id, quantity, unit, weight_grams, meal_type, meal_time, notes,
			calories, protein_g, carbs_g, fat_g, fiber_g, sugar_g, sodium_mg)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING created_at, updated_at
	`

	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}

	n := log.Nutrients
	err := s.pool.QueryRow(ctx, query,
		log.ID, log.UserID, log.FoodID, log.Quantity, log.Unit, log.WeightGrams, log.MealType, log.MealTime, log.Notes,
		n.Calories, n.ProteinG, n.CarbsG, n.FatG, n.FiberG, n.SugarG, n.SodiumMg,
	).Scan(&log.CreatedAt, &log.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create food log: %w", mapErr(err))
	}
	return nil
}

func (s *foodLogsStorage) GetFoodLog(ctx context.Context, userID string, id uuid.UUID) (*storage.FoodLog, error) {
	query := `SELECT ` + foodLogColumns + ` FROM food_logs WHERE id = $1 AND user_id = $2`

	l, err := scanFoodLog(s.pool.QueryRow(ctx, query, id, userID))
	if err != nil {
		return nil, mapErr(err)
	}
	return l, nil
}

func (s *foodLogsStorage) UpdateFoodLog(ctx context.Context, log *storage.FoodLog) error {
	query := `
		UPDATE food_logs
		SET quantity = $3, unit = $4, weight_grams = $5, meal_type = $6, meal_time = $7, notes = $8,
			calories = $9, protein_g = $10, carbs_g = $11, fat_g = $12, fiber_g = $13, sugar_g = $14, sodium_mg = $15,
			updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING created_at, updated_at
	`

	n := log.Nutrients
	err := s.pool.QueryRow(ctx, query,
		log.ID, log.UserID, log.Quantity, log.Unit, log.WeightGrams, log.MealType, log.MealTime, log.Notes,
		n.Calories, n.ProteinG, n.CarbsG, n.FatG, n.FiberG, n.SugarG, n.SodiumMg,
	).Scan(&log.CreatedAt, &log.UpdatedAt)
	if err != nil {
		return mapErr(err)
	}
	return nil
}

func (s *foodLogsStorage) DeleteFoodLog(ctx context.Context, userID string, id uuid.UUID) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM food_logs WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete food log: %w", err)
	}
	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *foodLogsStorage) ListFoodLogs(ctx context.Context, userID string, filter storage.FoodLogFilter) ([]storage.FoodLog, error) {
	conds := []string{"user_id = $1"}
	args := []any{userID}

	if filter.From != nil {
		args = append(args, *filter.From)
		conds = append(conds, fmt.Sprintf("meal_time >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		conds = append(conds, fmt.Sprintf("meal_time < $%d", len(args)))
	}
	if filter.MealType != "" {
		args = append(args, filter.MealType)
		conds = append(conds, fmt.Sprintf("meal_type = $%d", len(args)))
	}

	query := `SELECT ` + foodLogColumns + ` FROM food_logs WHERE ` + strings.Join(conds, " AND ") + ` ORDER BY meal_time DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list food logs: %w", err)
	}
	defer rows.Close()

	logs := []storage.FoodLog{}
	for rows.Next() {
		l, err := scanFoodLog(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan food log: %w", err)
		}
		logs = append(logs, *l)
	}
	return logs, rows.Err()
}
