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

type foodsStorage struct {
	pool *pgxpool.Pool
}

const foodColumns = `id, name, brand, calories, protein_g, carbs_g, fat_g, fiber_g, sugar_g, sodium_mg,
	serving_size, serving_weight_grams, category, source, external_id, created_at`

func scanFood(row pgx.Row) (*storage.Food, error) {
	var f storage.Food
	err := row.Scan(
		&f.ID,
		&f.Name,
		&f.Brand,
		&f.Calories,
		&f.ProteinG,
		&f.CarbsG,
		&f.FatG,
		&f.FiberG,
		&f.SugarG,
		&f.SodiumMg,
		&f.ServingSize,
		&f.ServingWeightGrams,
		&f.Category,
		&f.Source,
		&f.ExternalID,
		&f.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *foodsStorage) CreateFood(ctx context.Context, food *storage.Food) error {
	query := `
		INSERT INTO foods (id, name, brand, calories, protein_g, carbs_g, fat_g, fiber_g, sugar_g, sodium_mg,
			serving_size, serving_weight_grams, category, source, external_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING created_at
	`

	if food.ID == uuid.Nil {
		food.ID = uuid.New()
	}

	err := s.pool.QueryRow(ctx, query,
		food.ID,
		food.Name,
		food.Brand,
		food.Calories,
		food.ProteinG,
		food.CarbsG,
		food.FatG,
		food.FiberG,
		food.SugarG,
		food.SodiumMg,
		food.ServingSize,
		food.ServingWeightGrams,
		food.Category,
		food.Source,
		food.ExternalID,
	).Scan(&food.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create food: %w", mapErr(err))
	}
	return nil
}

func (s *foodsStorage) GetFood(ctx context.Context, id uuid.UUID) (*storage.Food, error) {
	f, err := scanFood(s.pool.QueryRow(ctx, `SELECT `+foodColumns+` FROM foods WHERE id = $1`, id))
	if err != nil {
		return nil, mapErr(err)
	}
	return f, nil
}

func (s *foodsStorage) FindFoodByName(ctx context.Context, name string) (*storage.Food, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, storage.ErrNotFound
	}

	// exact (case-insensitive) first, then substring; oldest entry wins ties
	query := `
		SELECT ` + foodColumns + `
		FROM foods
		WHERE lower(name) = lower($1) OR name ILIKE '%' || $2 || '%'
		ORDER BY (lower(name) = lower($1)) DESC, created_at ASC
		LIMIT 1
	`

	f, err := scanFood(s.pool.QueryRow(ctx, query, name, escapeLike(name)))
	if err != nil {
		return nil, mapErr(err)
	}
	return f, nil
}

func (s *foodsStorage) GetFoodByExternalID(ctx context.Context, externalID string) (*storage.Food, error) {
	f, err := scanFood(s.pool.QueryRow(ctx, `SELECT `+foodColumns+` FROM foods WHERE external_id = $1`, externalID))
	if err != nil {
		return nil, mapErr(err)
	}
	return f, nil
}

func (s *foodsStorage) SearchFoods(ctx context.Context, query string, limit int) ([]storage.Food, error) {
	sql := `
		SELECT ` + foodColumns + `
		FROM foods
		WHERE name ILIKE '%' || $1 || '%' OR brand ILIKE '%' || $1 || '%'
		ORDER BY lower(name) ASC
		LIMIT $2
	`

	rows, err := s.pool.Query(ctx, sql, escapeLike(strings.TrimSpace(query)), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search foods: %w", err)
	}
	defer rows.Close()

	foods := []storage.Food{}
	for rows.Next() {
		f, err := scanFood(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan food: %w", err)
		}
		foods = append(foods, *f)
	}
	return foods, rows.Err()
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
