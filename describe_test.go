package pgtrigger

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIntegrationDB(t *testing.T) DB {
	t.Helper()

	if os.Getenv("TEMPLATEDB") == "" {
		t.Skip()
	}

	return NewTestDB(t)
}

// installInvoker stands in for the aws_lambda-backed handler; the aws
// extensions are not installable in a plain test database and the catalog
// queries only care about names.
func installInvoker(t *testing.T, db DB, target DatabaseTarget) {
	t.Helper()

	ctx := context.Background()
	for _, statement := range []Q{
		queryf("CREATE SCHEMA %s", quoteIdentifier(target.Namespace)),
		queryf("CREATE FUNCTION %s() RETURNS trigger LANGUAGE plpgsql AS $fn$ BEGIN RETURN NULL; END; $fn$", target.invokerReference()),
	} {
		require.NoError(t, db.Exec(ctx, statement))
	}
}

func TestDescribeTriggers(t *testing.T) {
	db := newIntegrationDB(t)
	ctx := context.Background()

	target := DatabaseTarget{Namespace: "acct_svc_dev"}.WithDefaults()
	installInvoker(t, db, target)
	require.NoError(t, db.Exec(ctx, RawQuery("CREATE TABLE events (id int)")))

	statements, err := CreateTriggerStatements(target, "ingest", TriggerSpec{
		Table:       TableName{Schema: "public", Name: "events"},
		Operations:  []Operation{{Kind: OpInsert}, {Kind: OpUpdate}},
		FunctionARN: testARN,
	})
	require.NoError(t, err)
	for _, statement := range statements {
		require.NoError(t, db.Exec(ctx, statement))
	}

	descriptions, err := DescribeTriggers(ctx, db, target.Namespace)
	require.NoError(t, err)
	require.Len(t, descriptions, 1)

	description := descriptions[0]
	assert.Equal(t, "acct_svc_dev_ingest", description.Name)
	assert.Equal(t, "public", description.TableSchema)
	assert.Equal(t, "events", description.TableName)
	assert.Contains(t, description.Definition, "AFTER INSERT OR UPDATE")

	t.Run("scoped to the invoker's namespace", func(t *testing.T) {
		descriptions, err := DescribeTriggers(ctx, db, "unrelated_ns")
		require.NoError(t, err)
		assert.Empty(t, descriptions)
	})

	t.Run("dropped triggers disappear", func(t *testing.T) {
		for _, statement := range DropTriggerStatements(target, "ingest", TableName{Schema: "public", Name: "events"}) {
			require.NoError(t, db.Exec(ctx, statement))
		}

		descriptions, err := DescribeTriggers(ctx, db, target.Namespace)
		require.NoError(t, err)
		assert.Empty(t, descriptions)
	})
}

func TestPrerequisitesSatisfied(t *testing.T) {
	db := newIntegrationDB(t)
	ctx := context.Background()

	target := DatabaseTarget{Namespace: "acct_svc_dev"}.WithDefaults()

	t.Run("empty database", func(t *testing.T) {
		satisfied, err := PrerequisitesSatisfied(ctx, db, target)
		require.NoError(t, err)
		assert.False(t, satisfied)
	})

	t.Run("partial installation is not satisfied", func(t *testing.T) {
		// Everything but the aws extensions, which cannot exist here.
		installInvoker(t, db, target)
		require.NoError(t, db.Exec(ctx, queryf("CREATE ROLE %s WITH NOLOGIN", quoteIdentifier(target.Role))))
		t.Cleanup(func() {
			_ = db.Exec(ctx, queryf("DROP ROLE %s", quoteIdentifier(target.Role)))
		})

		satisfied, err := PrerequisitesSatisfied(ctx, db, target)
		require.NoError(t, err)
		assert.False(t, satisfied)
	})
}
