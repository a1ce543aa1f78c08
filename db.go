package pgtrigger

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-nacelle/nacelle/v2"
)

// DB is one scoped database session. Reconciliation opens a fresh session
// per step and closes it on every exit path; there is no pooling or reuse
// across steps.
type DB interface {
	Query(ctx context.Context, query Q) (*sql.Rows, error)
	Exec(ctx context.Context, query Q) error
	WithTransaction(ctx context.Context, f func(tx DB) error) error
	Close() error
}

type loggingDB struct {
	*queryWrapper
	db *sql.DB
}

func newLoggingDB(db *sql.DB, logger nacelle.Logger) *loggingDB {
	return &loggingDB{
		queryWrapper: newQueryWrapper(db, logger),
		db:           db,
	}
}

func (db *loggingDB) WithTransaction(ctx context.Context, f func(tx DB) error) (err error) {
	start := time.Now()

	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	ltx := &loggingTx{
		queryWrapper: newQueryWrapper(tx, db.logger),
		tx:           tx,
	}

	defer func() {
		if r := recover(); r != nil {
			err = ltx.done(ErrPanicDuringTransaction)
			logDone(db.logger, time.Since(start), err)
			panic(r)
		}

		err = ltx.done(err)
		logDone(db.logger, time.Since(start), err)
	}()

	return f(ltx)
}

func (db *loggingDB) Close() error {
	return db.db.Close()
}

var (
	ErrInTransaction          = errors.New("cannot close session inside transaction")
	ErrPanicDuringTransaction = errors.New("encountered panic during transaction")
)

type loggingTx struct {
	*queryWrapper
	tx *sql.Tx
}

// WithTransaction on an open transaction reuses the session; single-level
// atomicity is all a short-lived provisioning process needs.
func (tx *loggingTx) WithTransaction(ctx context.Context, f func(tx DB) error) error {
	return f(tx)
}

func (tx *loggingTx) Close() error {
	return ErrInTransaction
}

func (tx *loggingTx) done(err error) error {
	if err != nil {
		return errors.Join(err, tx.tx.Rollback())
	}

	return tx.tx.Commit()
}

func logDone(logger nacelle.Logger, duration time.Duration, err error) {
	logger.DebugWithFields(nacelle.LogFields{
		"err":      err,
		"duration": duration,
	}, "transaction closed")
}
