package postgres

import (
	"context"
	"errors"

	"github.com/fdg312/nutrition-hub/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStorage - Postgres реализация storage.Storage
type PostgresStorage struct {
	pool      *pgxpool.Pool
	users     *usersStorage
	foods     *foodsStorage
	foodLogs  *foodLogsStorage
	goals     *goalsStorage
	summaries *summariesStorage
	reports   *PostgresReportsStorage
}

// New открывает пул соединений и проверяет доступность базы
func New(ctx context.Context, databaseURL string) (*PostgresStorage, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStorage{
		pool:      pool,
		users:     &usersStorage{pool: pool},
		foods:     &foodsStorage{pool: pool},
		foodLogs:  &foodLogsStorage{pool: pool},
		goals:     &goalsStorage{pool: pool},
		summaries: &summariesStorage{pool: pool},
		reports:   NewPostgresReportsStorage(pool),
	}, nil
}

func (p *PostgresStorage) GetUsersStorage() storage.UsersStorage {
	return p.users
}

func (p *PostgresStorage) GetFoodsStorage() storage.FoodsStorage {
	return p.foods
}

func (p *PostgresStorage) GetFoodLogsStorage() storage.FoodLogsStorage {
	return p.foodLogs
}

func (p *PostgresStorage) GetGoalsStorage() storage.GoalsStorage {
	return p.goals
}

func (p *PostgresStorage) GetSummariesStorage() storage.SummariesStorage {
	return p.summaries
}

func (p *PostgresStorage) GetReportsStorage() storage.ReportsStorage {
	return p.reports
}

func (p *PostgresStorage) Close() error {
	p.pool.Close()
	return nil
}

// mapErr переводит ошибки pgx в ошибки пакета storage
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return storage.ErrDuplicate
	}
	return err
}
