package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Strob0t/PlanForge/internal/port/database"
)

var (
	_ database.PlanStore = (*Store)(nil)
	_ database.Pinger    = (*Store)(nil)
)

// Store implements database.PlanStore using PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Ping checks connectivity to the database.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
