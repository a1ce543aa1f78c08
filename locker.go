package pgtrigger

import (
	"context"
	"math"

	"github.com/segmentio/fasthash/fnv1"
)

// lockNamespace partitions this module's advisory locks from other users
// of the same database.
var lockNamespace = StringKey("nacelle/pgtrigger.ddl")

func StringKey(key string) int32 {
	return int32(fnv1.HashString32(key) % math.MaxInt32)
}

// withLockedTransaction serializes DDL for one deployment namespace. The
// advisory lock is transaction-scoped and taken on the transaction's own
// connection, so it remains correct over a pooled *sql.DB and releases
// automatically on commit or rollback. Concurrent deploys of distinct
// namespaces never contend.
func withLockedTransaction(ctx context.Context, db DB, namespace string, f func(tx DB) error) error {
	return db.WithTransaction(ctx, func(tx DB) error {
		if err := tx.Exec(ctx, Query("SELECT pg_advisory_xact_lock({:namespace}, {:key})", Args{
			"namespace": lockNamespace,
			"key":       StringKey(namespace),
		})); err != nil {
			return err
		}

		return f(tx)
	})
}
