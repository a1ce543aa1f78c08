package pgtrigger

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-nacelle/nacelle/v2"
	_ "github.com/lib/pq"
)

const MaxPingAttempts = 5

// Dial opens a session against the given connection string. The string is
// normalized to sslmode=require and a bounded statement_timeout unless it
// picks its own values.
func Dial(connectionString string, logger nacelle.Logger) (DB, error) {
	db, err := sql.Open("postgres", setConnectionDefaults(connectionString))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database (%s)", err)
	}

	for attempts := 0; ; attempts++ {
		err := db.Ping()
		if err == nil {
			break
		}

		if attempts >= MaxPingAttempts {
			_ = db.Close()
			return nil, fmt.Errorf("failed to ping database within timeout")
		}

		logger.Error("Failed to ping database, will retry in 2s (%s)", err.Error())
		<-time.After(time.Second * 2)
	}

	return newLoggingDB(db, logger), nil
}

// WithConnection opens one session, invokes f with it, and closes the
// session on every exit path before the error propagates.
func WithConnection(connectionString string, logger nacelle.Logger, f func(db DB) error) (err error) {
	db, err := Dial(connectionString, logger)
	if err != nil {
		return err
	}

	defer func() {
		err = errors.Join(err, db.Close())
	}()

	return f(db)
}
