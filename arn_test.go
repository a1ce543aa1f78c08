package pgtrigger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveLambdaARN(t *testing.T) {
	t.Run("default partition", func(t *testing.T) {
		arn := DeriveLambdaARN("us-east-1", "123456789012", "acct-svc-dev-ingest")
		assert.Equal(t, "arn:aws:lambda:us-east-1:123456789012:function:acct-svc-dev-ingest", arn)
	})

	t.Run("china partition", func(t *testing.T) {
		arn := DeriveLambdaARN("cn-north-1", "123456789012", "fn")
		assert.Equal(t, "arn:aws-cn:lambda:cn-north-1:123456789012:function:fn", arn)
	})

	t.Run("govcloud partition", func(t *testing.T) {
		arn := DeriveLambdaARN("us-gov-west-1", "123456789012", "fn")
		assert.Equal(t, "arn:aws-us-gov:lambda:us-gov-west-1:123456789012:function:fn", arn)
	})
}
