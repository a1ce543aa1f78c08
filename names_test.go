package pgtrigger

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitQualifiedName(t *testing.T) {
	t.Run("bare name defaults to public", func(t *testing.T) {
		table, err := SplitQualifiedName("events")
		require.NoError(t, err)
		assert.Equal(t, TableName{Schema: "public", Name: "events"}, table)
	})

	t.Run("qualified name splits on first dot", func(t *testing.T) {
		table, err := SplitQualifiedName("billing.events")
		require.NoError(t, err)
		assert.Equal(t, TableName{Schema: "billing", Name: "events"}, table)
	})

	t.Run("empty halves are configuration errors", func(t *testing.T) {
		for _, input := range []string{"billing.", ".events", "."} {
			_, err := SplitQualifiedName(input)
			assert.ErrorIs(t, err, ErrInvalidConfig, "input: %q", input)
		}
	})
}

func TestDeriveTriggerName(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		for i := 0; i < 10; i++ {
			assert.Equal(t, "acct_svc_dev_ingest", DeriveTriggerName("acct_svc_dev", "ingest"))
		}
	})

	t.Run("distinct function keys yield distinct names", func(t *testing.T) {
		names := map[string]struct{}{}
		for _, key := range []string{"ingest", "audit", "notify"} {
			names[DeriveTriggerName("acct_svc_dev", key)] = struct{}{}
		}

		assert.Len(t, names, 3)
	})
}

func TestDeriveNamespace(t *testing.T) {
	assert.Equal(t, "acct_svc_dev", DeriveNamespace("acct-svc", "dev"))
	assert.Equal(t, "my_service_prod", DeriveNamespace("My Service", "prod"))

	t.Run("stable across calls", func(t *testing.T) {
		assert.Equal(t, DeriveNamespace("acct-svc", "dev"), DeriveNamespace("acct-svc", "dev"))
	})
}

func TestQuoteIdentifier(t *testing.T) {
	// parseQuotedIdentifier reverses quoting so embedded-quote handling can
	// be verified as a round trip.
	parseQuotedIdentifier := func(t *testing.T, quoted string) string {
		t.Helper()

		require.True(t, strings.HasPrefix(quoted, `"`))
		require.True(t, strings.HasSuffix(quoted, `"`))
		return strings.ReplaceAll(quoted[1:len(quoted)-1], `""`, `"`)
	}

	for _, raw := range []string{
		"events",
		`weird"name`,
		`"`,
		`a""b`,
		"mixed.case Name",
	} {
		quoted := quoteIdentifier(raw)
		assert.Equal(t, raw, parseQuotedIdentifier(t, quoted), "raw: %q", raw)
	}
}
