package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolationCode = "23505"

// Query holds one parameterized statement and, after its batch has been
// executed, the rows that statement produced. A Query belongs to exactly
// one batch; callers read Rows back in submission order.
type Query struct {
	Text   string
	Params []any
	Rows   []map[string]any
}

func NewQuery(text string, params ...any) *Query {
	return &Query{Text: text, Params: params}
}

// BatchTx is the slice of transaction behavior the executor needs.
// The pgx adapter implements it over pgx.Tx; tests implement it directly.
type BatchTx interface {
	QueryRows(ctx context.Context, sql string, args ...any) ([]map[string]any, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// BatchConn is a single pooled connection held for the lifetime of one batch.
type BatchConn interface {
	Begin(ctx context.Context) (BatchTx, error)
	Release() error
}

// ConnSource hands out connections. *pgxpool.Pool is adapted to it via New.
type ConnSource interface {
	Acquire(ctx context.Context) (BatchConn, error)
}

// Store executes query batches against a relational store.
type Store struct {
	src ConnSource
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{src: poolSource{pool: pool}}
}

func NewWithSource(src ConnSource) *Store {
	return &Store{src: src}
}

// ExecBatch runs the given statements strictly in order inside one
// transaction on one pooled connection. On success every statement's
// result rows are attached to its Query. On the first statement failure
// the transaction is rolled back and no statement's effects remain
// visible. The connection is released in all paths; a release failure is
// joined onto any error already being returned rather than masking it.
func (s *Store) ExecBatch(ctx context.Context, queries []*Query) (err error) {
	if len(queries) == 0 {
		return fmt.Errorf("%w: empty batch", ErrInvalidBatch)
	}
	for i, q := range queries {
		if q == nil || strings.TrimSpace(q.Text) == "" {
			return fmt.Errorf("%w: statement %d has no text", ErrInvalidBatch, i)
		}
	}

	conn, err := s.src.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	defer func() {
		if relErr := conn.Release(); relErr != nil {
			relErr = fmt.Errorf("%w: %v", ErrClientRelease, relErr)
			if err != nil {
				err = errors.Join(err, relErr)
			} else {
				err = relErr
			}
		}
	}()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ErrTransaction, err)
	}

	for _, q := range queries {
		rows, qErr := tx.QueryRows(ctx, q.Text, q.Params...)
		if qErr != nil {
			stmtErr := statementError(qErr)
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				// The precipitating error must stay visible alongside
				// the rollback failure.
				return errors.Join(
					fmt.Errorf("%w: rollback failed: %v", ErrTransaction, rbErr),
					stmtErr,
				)
			}
			return stmtErr
		}
		q.Rows = rows
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit: %v", ErrTransaction, err)
	}
	return nil
}

func statementError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return &ConflictError{Constraint: pgErr.ConstraintName, Detail: pgErr.Detail}
	}
	return fmt.Errorf("%w: %v", ErrTransaction, err)
}

// ---- pgxpool adapters ----

type poolSource struct {
	pool *pgxpool.Pool
}

func (s poolSource) Acquire(ctx context.Context) (BatchConn, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return poolConn{conn: conn}, nil
}

type poolConn struct {
	conn *pgxpool.Conn
}

func (c poolConn) Begin(ctx context.Context) (BatchTx, error) {
	tx, err := c.conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return poolTx{tx: tx}, nil
}

func (c poolConn) Release() error {
	c.conn.Release()
	return nil
}

type poolTx struct {
	tx pgx.Tx
}

func (t poolTx) QueryRows(ctx context.Context, sql string, args ...any) ([]map[string]any, error) {
	rows, err := t.tx.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToMap)
}

func (t poolTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t poolTx) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}
