// Package persistence provides transactional access to the durable store
// backing orders, trades, and positions, built on a pgx/v5 pool with goose
// migrations.
package persistence

import (
	"context"
	"embed"
	"errors"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pressly/goose/v3"

	"github.com/Vatix-Protocol/vatix-backend/internal/logging"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// serializationConflictSQLState is the Postgres SQLSTATE for a
// serialization failure under SERIALIZABLE isolation.
const serializationConflictSQLState = "40001"

var ErrSerializationConflict = errors.New("serialization conflict: retries exhausted")

// Gateway runs closures transactionally with Serializable isolation,
// retrying on serialization conflicts with bounded exponential backoff.
type Gateway struct {
	pool *pgxpool.Pool
	cfg  Config
	log  *logging.Logger
}

func Open(ctx context.Context, cfg Config, log *logging.Logger) (*Gateway, error) {
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	return &Gateway{pool: pool, cfg: cfg, log: log}, nil
}

func (g *Gateway) Close() {
	g.pool.Close()
}

// Migrate runs every embedded migration against the configured database.
func (g *Gateway) Migrate(ctx context.Context) error {
	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	db, err := goose.OpenDBWithDriver("pgx", g.cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()
	return goose.Up(db, "migrations")
}

// Tx is the handle a closure passed to RunTransaction receives: the pgx
// transaction plus the context it should use for any nested queries.
type Tx struct {
	pgx.Tx
	Ctx context.Context
}

// RunTransaction executes fn inside a SERIALIZABLE transaction, retrying
// automatically on SQLSTATE 40001 (serialization_failure) up to
// cfg.MaxAttempts times with exponential backoff bounded by
// [RetryBaseDelay, RetryMaxDelay] plus jitter. Any other error from fn, or
// exhausted retries, aborts the transaction and propagates.
func (g *Gateway) RunTransaction(ctx context.Context, fn func(Tx) error) error {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.TxTimeout)
	defer cancel()

	var attempts int
	operation := func() error {
		attempts++
		acquireCtx, acquireCancel := context.WithTimeout(ctx, g.cfg.MaxWait)
		defer acquireCancel()

		tx, err := g.pool.BeginTx(acquireCtx, pgx.TxOptions{IsoLevel: pgx.Serializable})
		if err != nil {
			return err
		}

		if err := fn(Tx{Tx: tx, Ctx: ctx}); err != nil {
			_ = tx.Rollback(ctx)
			if isSerializationConflict(err) {
				return err // retryable
			}
			return backoff.Permanent(err)
		}

		if err := tx.Commit(ctx); err != nil {
			if isSerializationConflict(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		return nil
	}

	policy := backoff.WithMaxRetries(newBackoff(g.cfg), uint64(g.cfg.MaxAttempts-1))
	err := backoff.Retry(operation, policy)
	if err != nil {
		if attempts >= g.cfg.MaxAttempts && isSerializationConflict(err) {
			return ErrSerializationConflict
		}
		return err
	}
	return nil
}

func newBackoff(cfg Config) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.RetryBaseDelay
	b.MaxInterval = cfg.RetryMaxDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0.2
	b.Reset()
	return b
}

func isSerializationConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == serializationConflictSQLState
	}
	return false
}
