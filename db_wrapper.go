package pgtrigger

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-nacelle/nacelle/v2"
)

type queryWrapper struct {
	db     sqlDB
	logger nacelle.Logger
}

type sqlDB interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func newQueryWrapper(db sqlDB, logger nacelle.Logger) *queryWrapper {
	return &queryWrapper{
		db:     db,
		logger: logger,
	}
}

func (db *queryWrapper) Query(ctx context.Context, q Q) (*sql.Rows, error) {
	start := time.Now()

	query, args := q.Format()
	rows, err := db.db.QueryContext(ctx, query, args...)
	logQuery(db.logger, time.Since(start), err, query, args)
	return rows, err
}

func (db *queryWrapper) Exec(ctx context.Context, q Q) error {
	start := time.Now()

	query, args := q.Format()
	_, err := db.db.ExecContext(ctx, query, args...)
	logQuery(db.logger, time.Since(start), err, query, args)
	return err
}

func logQuery(logger nacelle.Logger, duration time.Duration, err error, query string, args []any) {
	fields := nacelle.LogFields{
		"query":    query,
		"args":     args,
		"err":      err,
		"duration": duration,
	}

	logger.DebugWithFields(fields, "sql query executed")
}
