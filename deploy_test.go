package pgtrigger

import (
	"context"
	"strings"
	"testing"

	"github.com/go-nacelle/log/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestManifest(t *testing.T, contents string) Manifest {
	t.Helper()

	manifest, err := LoadManifest(writeManifest(t, contents))
	require.NoError(t, err)
	return manifest
}

func TestDeploy(t *testing.T) {
	manifest := loadTestManifest(t, testManifest)

	t.Run("prerequisites precede triggers in declared order", func(t *testing.T) {
		cluster := newFakeCluster()
		outcomes, err := Deploy(context.Background(), log.NewNilLogger(), testReconciler(cluster), manifest, nil)
		require.NoError(t, err)

		require.Len(t, outcomes, 3)
		assert.Equal(t, "acct_svc_dev", outcomes[0].PhysicalID)
		assert.Equal(t, "acct_svc_dev_ingest", outcomes[1].PhysicalID)
		assert.Equal(t, "acct_svc_dev_notify", outcomes[2].PhysicalID)

		statements := cluster.statements("postgres://deploy@db.internal/app")
		joined := strings.Join(statements, "\n")
		assert.Less(t,
			strings.Index(joined, "CREATE OR REPLACE FUNCTION"),
			strings.Index(joined, `CREATE TRIGGER "acct_svc_dev_ingest"`),
		)
		assert.Less(t,
			strings.Index(joined, `CREATE TRIGGER "acct_svc_dev_ingest"`),
			strings.Index(joined, `CREATE TRIGGER "acct_svc_dev_notify"`),
		)
	})

	t.Run("first failure aborts with earlier outcomes intact", func(t *testing.T) {
		cluster := newFakeCluster()
		cluster.failPattern = `CREATE TRIGGER "acct_svc_dev_ingest"`

		outcomes, err := Deploy(context.Background(), log.NewNilLogger(), testReconciler(cluster), manifest, nil)
		require.Error(t, err)

		require.Len(t, outcomes, 2)
		assert.Equal(t, StatusSuccess, outcomes[0].Status)
		assert.Equal(t, StatusFailed, outcomes[1].Status)

		assert.NotContains(t, strings.Join(cluster.statements("postgres://deploy@db.internal/app"), "\n"), "acct_svc_dev_notify")
	})

	t.Run("redeploy drops stale triggers at the previous database", func(t *testing.T) {
		previous := loadTestManifest(t, strings.Replace(testManifest,
			"databaseUrl: postgres://deploy@db.internal/app",
			"databaseUrl: postgres://deploy@old-db.internal/app", 1))

		cluster := newFakeCluster()
		_, err := Deploy(context.Background(), log.NewNilLogger(), testReconciler(cluster), manifest, &previous)
		require.NoError(t, err)

		oldStatements := strings.Join(cluster.statements("postgres://deploy@old-db.internal/app"), "\n")
		assert.Contains(t, oldStatements, `DROP TRIGGER IF EXISTS "acct_svc_dev_ingest"`)
		assert.NotContains(t, oldStatements, "CREATE TRIGGER")

		newStatements := strings.Join(cluster.statements("postgres://deploy@db.internal/app"), "\n")
		assert.Contains(t, newStatements, `CREATE TRIGGER "acct_svc_dev_ingest"`)
	})
}

func TestRemove(t *testing.T) {
	manifest := loadTestManifest(t, testManifest)

	t.Run("drops triggers and leaves prerequisites", func(t *testing.T) {
		cluster := newFakeCluster()
		outcomes, err := Remove(context.Background(), log.NewNilLogger(), testReconciler(cluster), manifest)
		require.NoError(t, err)
		require.Len(t, outcomes, 3)

		joined := strings.Join(cluster.statements("postgres://deploy@db.internal/app"), "\n")
		assert.Contains(t, joined, `DROP TRIGGER IF EXISTS "acct_svc_dev_ingest"`)
		assert.Contains(t, joined, `DROP TRIGGER IF EXISTS "acct_svc_dev_notify"`)
		assert.NotContains(t, joined, "DROP SCHEMA")
		assert.NotContains(t, joined, "DROP FUNCTION")
		assert.NotContains(t, joined, "DROP ROLE")
	})

	t.Run("drop failures never fail the removal", func(t *testing.T) {
		cluster := newFakeCluster()
		cluster.failPattern = "DROP TRIGGER"

		outcomes, err := Remove(context.Background(), log.NewNilLogger(), testReconciler(cluster), manifest)
		require.NoError(t, err)

		for _, outcome := range outcomes {
			assert.Equal(t, StatusSuccess, outcome.Status)
		}
	})
}
