package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/fdg312/nutrition-hub/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type usersStorage struct {
	pool *pgxpool.Pool
}

const userColumns = `id, email, password_hash, name,
	first_name, last_name, age, gender, weight_kg, height_cm, activity_level,
	deactivated_at, created_at, updated_at`

func scanUser(row pgx.Row) (*storage.User, error) {
	var u storage.User
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Name,
		&u.FirstName, &u.LastName, &u.Age, &u.Gender, &u.WeightKg, &u.HeightCm, &u.ActivityLevel,
		&u.DeactivatedAt, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (s *usersStorage) CreateUser(ctx context.Context, user *storage.User) error {
	query := `
		INSERT INTO users (id, email, password_hash, name)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`

	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	err := s.pool.QueryRow(ctx, query, user.ID, user.Email, user.PasswordHash, user.Name).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", mapErr(err))
	}
	return nil
}

func (s *usersStorage) GetUser(ctx context.Context, id string) (*storage.User, error) {
	return s.getBy(ctx, "id", id)
}

func (s *usersStorage) GetUserByEmail(ctx context.Context, email string) (*storage.User, error) {
	return s.getBy(ctx, "email", strings.ToLower(strings.TrimSpace(email)))
}

func (s *usersStorage) getBy(ctx context.Context, column, value string) (*storage.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = $1`
	return scanUser(s.pool.QueryRow(ctx, query, value))
}

// UpdateUserProfile - частичное обновление: COALESCE оставляет старое значение для NULL-параметров
func (s *usersStorage) UpdateUserProfile(ctx context.Context, id string, update storage.UserProfileUpdate) (*storage.User, error) {
	query := `
		UPDATE users SET
			first_name     = COALESCE($2, first_name),
			last_name      = COALESCE($3, last_name),
			age            = COALESCE($4, age),
			gender         = COALESCE($5, gender),
			weight_kg      = COALESCE($6, weight_kg),
			height_cm      = COALESCE($7, height_cm),
			activity_level = COALESCE($8, activity_level),
			updated_at     = now()
		WHERE id = $1
		RETURNING ` + userColumns

	row := s.pool.QueryRow(ctx, query, id,
		update.FirstName, update.LastName, update.Age, update.Gender,
		update.WeightKg, update.HeightCm, update.ActivityLevel,
	)
	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return u, nil
}

func (s *usersStorage) UpdatePassword(ctx context.Context, id string, passwordHash string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`, id, passwordHash)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *usersStorage) DeactivateUser(ctx context.Context, id string) error {
	query := `
		UPDATE users
		SET deactivated_at = COALESCE(deactivated_at, now()), updated_at = now()
		WHERE id = $1
	`
	tag, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
