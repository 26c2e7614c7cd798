//go:build integration

package containers

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"arefa/migrations"
)

// Postgres is a running registry database.
type Postgres struct {
	Container testcontainers.Container
	DSN       string
	DB        *sql.DB
}

func startPostgres(ctx context.Context) (*Postgres, error) {
	container, err := postgres.Run(ctx,
		"postgres:18-alpine",
		postgres.WithDatabase("arefa_test"),
		postgres.WithUsername("arefa"),
		postgres.WithPassword("arefa_test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("start postgres: %w", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(context.Background())
		return nil, fmt.Errorf("postgres dsn: %w", err)
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		_ = container.Terminate(context.Background())
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := migrations.Apply(ctx, db, "postgres"); err != nil {
		_ = db.Close()
		_ = container.Terminate(context.Background())
		return nil, fmt.Errorf("migrate postgres: %w", err)
	}
	return &Postgres{Container: container, DSN: dsn, DB: db}, nil
}

// Reset empties both record tables and restarts their id sequences.
func (p *Postgres) Reset(ctx context.Context) error {
	if _, err := p.DB.ExecContext(ctx, "TRUNCATE TABLE cambistes, operateurs RESTART IDENTITY"); err != nil {
		return fmt.Errorf("truncate record tables: %w", err)
	}
	return nil
}
