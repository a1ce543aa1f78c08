package pgtrigger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testManifest = `
service: acct-svc
provider:
  region: us-east-1
  accountId: "123456789012"
  stage: dev
  databaseUrl: postgres://deploy@db.internal/app

functions:
  ingest:
    handler: handlers/ingest.main
    events:
      - pgTrigger:
          table: public.events
          operations: [insert, update]
  notify:
    handler: handlers/notify.main
    events:
      - http:
          path: /notify
          method: post
      - pgTrigger:
          table: billing.invoices
          update: status, paid_at
          when: NEW.status IS DISTINCT FROM OLD.status
  healthcheck:
    handler: handlers/health.main
    events:
      - schedule:
          rate: rate(5 minutes)
`

func writeManifest(t *testing.T, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "service.yml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestLoadManifest(t *testing.T) {
	manifest, err := LoadManifest(writeManifest(t, testManifest))
	require.NoError(t, err)

	assert.Equal(t, "acct-svc", manifest.Service)
	assert.Equal(t, "us-east-1", manifest.Provider.Region)

	t.Run("declared function order is preserved", func(t *testing.T) {
		keys := make([]string, 0, len(manifest.Functions))
		for _, entry := range manifest.Functions {
			keys = append(keys, entry.Key)
		}

		assert.Equal(t, []string{"ingest", "notify", "healthcheck"}, keys)
	})

	t.Run("non-trigger events parse cleanly", func(t *testing.T) {
		notify := manifest.Functions[1].Function
		require.Len(t, notify.Events, 2)
		require.NotNil(t, notify.Events[0].HTTP)
		assert.Equal(t, "/notify", notify.Events[0].HTTP.Path)
	})
}

func TestManifestDefaults(t *testing.T) {
	manifest := Manifest{Service: "Acct Svc"}

	assert.Equal(t, "dev", manifest.Stage())
	assert.Equal(t, "acct_svc_dev", manifest.Namespace())

	t.Run("explicit namespace wins", func(t *testing.T) {
		manifest := manifest
		manifest.Provider.Namespace = "custom_ns"
		assert.Equal(t, "custom_ns", manifest.Namespace())
	})

	t.Run("function name convention", func(t *testing.T) {
		entry := FunctionEntry{Key: "ingest"}
		assert.Equal(t, "Acct Svc-dev-ingest", manifest.FunctionName(entry))

		entry.Function.Name = "custom-name"
		assert.Equal(t, "custom-name", manifest.FunctionName(entry))
	})
}

func TestOperationFlagUnmarshal(t *testing.T) {
	manifest, err := LoadManifest(writeManifest(t, `
service: acct-svc
provider:
  region: us-east-1
  accountId: "123456789012"
functions:
  a:
    events:
      - pgTrigger:
          table: t
          insert: true
          update: [status, paid_at]
  b:
    events:
      - pgTrigger:
          table: t
          update: "status, paid_at"
          delete: false
`))
	require.NoError(t, err)

	triggers, err := CollectTriggers(manifest)
	require.NoError(t, err)
	require.Len(t, triggers, 2)

	t.Run("boolean and sequence forms", func(t *testing.T) {
		assert.Equal(t, []Operation{
			{Kind: OpInsert},
			{Kind: OpUpdate, Columns: []string{"status", "paid_at"}},
		}, triggers[0].Spec.Operations)
	})

	t.Run("comma-separated form and disabled flag", func(t *testing.T) {
		assert.Equal(t, []Operation{
			{Kind: OpUpdate, Columns: []string{"status", "paid_at"}},
		}, triggers[1].Spec.Operations)
	})
}

func TestCollectTriggers(t *testing.T) {
	manifest, err := LoadManifest(writeManifest(t, testManifest))
	require.NoError(t, err)

	triggers, err := CollectTriggers(manifest)
	require.NoError(t, err)
	require.Len(t, triggers, 2)

	t.Run("resolves the invocation target", func(t *testing.T) {
		assert.Equal(t, "ingest", triggers[0].FunctionKey)
		assert.Equal(t, "acct-svc-dev-ingest", triggers[0].FunctionName)
		assert.Equal(t, "arn:aws:lambda:us-east-1:123456789012:function:acct-svc-dev-ingest", triggers[0].Spec.FunctionARN)
	})

	t.Run("normalizes the declared configuration", func(t *testing.T) {
		ingest := triggers[0].Spec
		assert.Equal(t, TableName{Schema: "public", Name: "events"}, ingest.Table)
		assert.Equal(t, []Operation{{Kind: OpInsert}, {Kind: OpUpdate}}, ingest.Operations)
		assert.Equal(t, OrderAfter, ingest.Order)
		assert.Equal(t, LevelRow, ingest.Level)

		notify := triggers[1].Spec
		assert.Equal(t, TableName{Schema: "billing", Name: "invoices"}, notify.Table)
		assert.Equal(t, []Operation{{Kind: OpUpdate, Columns: []string{"status", "paid_at"}}}, notify.Operations)
		assert.Equal(t, "NEW.status IS DISTINCT FROM OLD.status", notify.When)
	})

	t.Run("functions without triggers are skipped", func(t *testing.T) {
		for _, trigger := range triggers {
			assert.NotEqual(t, "healthcheck", trigger.FunctionKey)
		}
	})
}

func TestCollectTriggersErrors(t *testing.T) {
	t.Run("multiple triggers per function", func(t *testing.T) {
		manifest, err := LoadManifest(writeManifest(t, `
service: acct-svc
provider:
  region: us-east-1
  accountId: "123456789012"
functions:
  ingest:
    events:
      - pgTrigger: {table: a}
      - pgTrigger: {table: b}
`))
		require.NoError(t, err)

		_, err = CollectTriggers(manifest)
		assert.ErrorIs(t, err, ErrInvalidConfig)
		assert.ErrorContains(t, err, "at most one")
	})

	t.Run("missing provider identity", func(t *testing.T) {
		manifest, err := LoadManifest(writeManifest(t, `
service: acct-svc
functions:
  ingest:
    events:
      - pgTrigger: {table: a}
`))
		require.NoError(t, err)

		_, err = CollectTriggers(manifest)
		assert.ErrorIs(t, err, ErrInvalidConfig)
		assert.ErrorContains(t, err, "region and accountId")
	})

	t.Run("missing table", func(t *testing.T) {
		manifest, err := LoadManifest(writeManifest(t, `
service: acct-svc
provider:
  region: us-east-1
  accountId: "123456789012"
functions:
  ingest:
    events:
      - pgTrigger: {insert: true}
`))
		require.NoError(t, err)

		_, err = CollectTriggers(manifest)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("column scope on insert", func(t *testing.T) {
		manifest, err := LoadManifest(writeManifest(t, `
service: acct-svc
provider:
  region: us-east-1
  accountId: "123456789012"
functions:
  ingest:
    events:
      - pgTrigger:
          table: t
          insert: [id]
`))
		require.NoError(t, err)

		_, err = CollectTriggers(manifest)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
}
