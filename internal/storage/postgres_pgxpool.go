package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresPoolStorage stores data through GORM and keeps a pgx pool for
// session-scoped advisory locks, which must be released on the connection
// that took them.
type PostgresPoolStorage struct {
	*GormStorage
	pool *pgxpool.Pool

	mu    sync.Mutex
	conns map[int64]*pgxpool.Conn
}

// PoolStats is a snapshot of pgx pool counters.
type PoolStats struct {
	Total    int32
	Idle     int32
	Acquired int32
	Acquires int64
}

func OpenPostgresPool(ctx context.Context, dsn string) (*PostgresPoolStorage, error) {
	if dsn == "" {
		dsn = "postgres://localhost:5432/npahowtopay?sslmode=disable"
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	gs, err := NewGormStorage("postgres", dsn)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresPoolStorage{
		GormStorage: gs,
		pool:        pool,
		conns:       make(map[int64]*pgxpool.Conn),
	}, nil
}

func (s *PostgresPoolStorage) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return err
	}
	return s.GormStorage.Ping(ctx)
}

func (s *PostgresPoolStorage) Close() error {
	s.mu.Lock()
	for key, conn := range s.conns {
		conn.Release()
		delete(s.conns, key)
	}
	s.mu.Unlock()
	s.pool.Close()
	return s.GormStorage.Close()
}

// Stats reports the pool's current counters.
func (s *PostgresPoolStorage) Stats() PoolStats {
	st := s.pool.Stat()
	return PoolStats{
		Total:    st.TotalConns(),
		Idle:     st.IdleConns(),
		Acquired: st.AcquiredConns(),
		Acquires: st.AcquireCount(),
	}
}

// AcquireAdvisoryLock tries pg_try_advisory_lock on a dedicated connection
// and holds that connection until ReleaseAdvisoryLock.
func (s *PostgresPoolStorage) AcquireAdvisoryLock(ctx context.Context, key int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, held := s.conns[key]; held {
		return false, nil
	}

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire conn: %w", err)
	}
	var ok bool
	if err := conn.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", key).Scan(&ok); err != nil {
		conn.Release()
		return false, err
	}
	if !ok {
		conn.Release()
		return false, nil
	}
	s.conns[key] = conn
	return true, nil
}

func (s *PostgresPoolStorage) ReleaseAdvisoryLock(ctx context.Context, key int64) (bool, error) {
	s.mu.Lock()
	conn, held := s.conns[key]
	delete(s.conns, key)
	s.mu.Unlock()
	if !held {
		return false, nil
	}
	defer conn.Release()

	var ok bool
	err := conn.QueryRow(ctx, "SELECT pg_advisory_unlock($1)", key).Scan(&ok)
	return ok, err
}
