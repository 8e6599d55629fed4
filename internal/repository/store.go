package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/slideshow/server/internal/observability"
)

// Dialect selects the SQL flavour of a store
type Dialect int

const (
	DialectSQLite Dialect = iota
	DialectPostgres
)

func (d Dialect) String() string {
	if d == DialectPostgres {
		return "postgresql"
	}
	return "sqlite"
}

// DBTX is the query surface shared by connections and transactions
type DBTX = observability.Querier

// SQLStore implements Store on database/sql
type SQLStore struct {
	db      *sql.DB
	q       DBTX
	dialect Dialect
	metrics *observability.DatabaseMetrics
	inTx    bool
}

// NewSQLStore creates a store on db. Every query is traced.
func NewSQLStore(db *sql.DB, dialect Dialect) *SQLStore {
	metrics, err := observability.NewDatabaseMetrics()
	if err != nil {
		observability.Warnf("Database metrics disabled: %v", err)
	}
	return &SQLStore{
		db:      db,
		q:       observability.NewTraceDB(db, dialect.String(), metrics),
		dialect: dialect,
		metrics: metrics,
	}
}

// Dialect returns the SQL flavour of the store
func (s *SQLStore) Dialect() Dialect {
	return s.dialect
}

func (s *SQLStore) Images() ImageRepo {
	return NewImageRepository(s.q, s.dialect)
}

func (s *SQLStore) Slideshows() SlideshowRepo {
	if s.dialect == DialectPostgres {
		return NewSlideshowRepositoryPostgres(s.q)
	}
	return NewSlideshowRepository(s.q, s.txRunner())
}

func (s *SQLStore) ProofOfPlay() ProofOfPlayRepo {
	return NewProofOfPlayRepository(s.q)
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) InNewTx(ctx context.Context, fn func(tx Store) error) error {
	return s.withTx(ctx, func(q DBTX) error {
		return fn(&SQLStore{
			db:      s.db,
			q:       q,
			dialect: s.dialect,
			metrics: s.metrics,
			inTx:    true,
		})
	})
}

// txRunner returns a function that runs multi-statement repository work
// atomically: in the current transaction when bound to one, otherwise in a new one
func (s *SQLStore) txRunner() func(ctx context.Context, fn func(q DBTX) error) error {
	if s.inTx {
		return func(ctx context.Context, fn func(q DBTX) error) error {
			return fn(s.q)
		}
	}
	return s.withTx
}

func (s *SQLStore) withTx(ctx context.Context, fn func(q DBTX) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
			}
		}
	}()

	if err = fn(observability.NewTraceDB(tx, s.dialect.String(), s.metrics)); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
