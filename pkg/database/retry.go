package database

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"fulfillment-backend/pkg/logger"
)

// Postgres error codes that indicate the transaction should be retried.
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// ErrRetriesExhausted wraps the terminal failure after the retry budget is
// spent. Callers map it to their concurrency-exhausted domain error.
type ErrRetriesExhausted struct {
	Attempts int
	LastCode string
	Err      error
}

func (e *ErrRetriesExhausted) Error() string {
	return fmt.Sprintf("transaction retries exhausted after %d attempts (last code %s): %v",
		e.Attempts, e.LastCode, e.Err)
}

func (e *ErrRetriesExhausted) Unwrap() error { return e.Err }

// IsSerializationFailure reports whether err is a retryable concurrency
// failure (serialization conflict or deadlock).
func IsSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgSerializationFailure || pgErr.Code == pgDeadlockDetected
	}
	return false
}

// WithSerializableRetry runs fn inside a SERIALIZABLE transaction, retrying
// on serialization failures up to attempts times. Non-retryable errors pass
// through untouched. On exhaustion it returns *ErrRetriesExhausted.
func WithSerializableRetry(ctx context.Context, pool *pgxpool.Pool, attempts int, fn TxFunc) error {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := WithSerializableTransaction(ctx, pool, fn)
		if err == nil {
			return nil
		}
		if !IsSerializationFailure(err) {
			return err
		}
		lastErr = err

		logger.Warn("serializable transaction conflict, retrying", map[string]interface{}{
			"attempt":  attempt,
			"attempts": attempts,
		})

		if attempt < attempts {
			// Short randomized backoff so colliding writers desynchronize.
			select {
			case <-time.After(time.Duration(rand.Intn(20)+5) * time.Millisecond * time.Duration(attempt)):
			case <-ctx.Done():
				return fmt.Errorf("transaction retry cancelled: %w", ctx.Err())
			}
		}
	}

	code := ""
	var pgErr *pgconn.PgError
	if errors.As(lastErr, &pgErr) {
		code = pgErr.Code
	}
	return &ErrRetriesExhausted{Attempts: attempts, LastCode: code, Err: lastErr}
}

// WithSerializableRetryResult is WithSerializableRetry for functions with a
// return value.
func WithSerializableRetryResult[T any](ctx context.Context, pool *pgxpool.Pool, attempts int, fn func(pgx.Tx) (T, error)) (T, error) {
	var result T
	var fnErr error

	err := WithSerializableRetry(ctx, pool, attempts, func(tx pgx.Tx) error {
		result, fnErr = fn(tx)
		return fnErr
	})

	if err != nil {
		var zero T
		return zero, err
	}

	return result, nil
}
