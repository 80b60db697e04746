package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/fdg312/nutrition-hub/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type summariesStorage struct {
	pool *pgxpool.Pool
}

const summaryColumns = `id, user_id, date::text,
	total_calories, total_protein_g, total_carbs_g, total_fat_g, total_fiber_g, total_sugar_g, total_sodium_mg,
	calories_goal, protein_goal, carbs_goal, fat_goal,
	calories_progress, protein_progress, carbs_progress, fat_progress,
	total_meals, total_snacks, created_at`

func scanSummary(row pgx.Row) (*storage.DailySummary, error) {
	var s storage.DailySummary
	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.Date,
		&s.Totals.Calories,
		&s.Totals.ProteinG,
		&s.Totals.CarbsG,
		&s.Totals.FatG,
		&s.Totals.FiberG,
		&s.Totals.SugarG,
		&s.Totals.SodiumMg,
		&s.CaloriesGoal,
		&s.ProteinGoal,
		&s.CarbsGoal,
		&s.FatGoal,
		&s.CaloriesProgress,
		&s.ProteinProgress,
		&s.CarbsProgress,
		&s.FatProgress,
		&s.TotalMeals,
		&s.TotalSnacks,
		&s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *summariesStorage) GetSummary(ctx context.Context, userID string, date string) (*storage.DailySummary, error) {
	sum, err := scanSummary(s.pool.QueryRow(ctx, `SELECT `+summaryColumns+` FROM daily_summaries WHERE user_id = $1 AND date = $2::date`, userID, date))
	if err != nil {
		return nil, mapErr(err)
	}
	return sum, nil
}

// InsertSummary не перезаписывает существующую строку: при конфликте RETURNING пуст и возвращается ErrDuplicate.
func (s *summariesStorage) InsertSummary(ctx context.Context, summary *storage.DailySummary) error {
	query := `
		INSERT INTO daily_summaries (id, user_id, date,
			total_calories, total_protein_g, total_carbs_g, total_fat_g, total_fiber_g, total_sugar_g, total_sodium_mg,
			calories_goal, protein_goal, carbs_goal, fat_goal,
			calories_progress, protein_progress, carbs_progress, fat_progress,
			total_meals, total_snacks)
		VALUES ($1, $2, $3::date, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		ON CONFLICT (user_id, date) DO NOTHING
		RETURNING created_at
	`

	if summary.ID == uuid.Nil {
		summary.ID = uuid.New()
	}

	t := summary.Totals
	err := s.pool.QueryRow(ctx, query,
		summary.ID, summary.UserID, summary.Date,
		t.Calories, t.ProteinG, t.CarbsG, t.FatG, t.FiberG, t.SugarG, t.SodiumMg,
		summary.CaloriesGoal, summary.ProteinGoal, summary.CarbsGoal, summary.FatGoal,
		summary.CaloriesProgress, summary.ProteinProgress, summary.CarbsProgress, summary.FatProgress,
		summary.TotalMeals, summary.TotalSnacks,
	).Scan(&summary.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return storage.ErrDuplicate
		}
		return fmt.Errorf("failed to insert summary: %w", mapErr(err))
	}
	return nil
}

func (s *summariesStorage) DeleteSummary(ctx context.Context, userID string, date string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM daily_summaries WHERE user_id = $1 AND date = $2::date`, userID, date)
	if err != nil {
		return fmt.Errorf("failed to delete summary: %w", err)
	}
	return nil
}

func (s *summariesStorage) ListSummaries(ctx context.Context, userID string, from, to string) ([]storage.DailySummary, error) {
	query := `
		SELECT ` + summaryColumns + `
		FROM daily_summaries
		WHERE user_id = $1 AND date BETWEEN $2::date AND $3::date
		ORDER BY date ASC
	`

	rows, err := s.pool.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list summaries: %w", err)
	}
	defer rows.Close()

	summaries := []storage.DailySummary{}
	for rows.Next() {
		sum, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}
		summaries = append(summaries, *sum)
	}
	return summaries, rows.Err()
}
