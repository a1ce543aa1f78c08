package pgtrigger

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/lib/pq"
)

// ErrInvalidConfig wraps all configuration errors raised before any DDL
// is built or executed.
var ErrInvalidConfig = errors.New("invalid trigger configuration")

func configErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// TableName is a schema-qualified relation name. Both halves are stored
// unquoted; use Quoted when interpolating into DDL.
type TableName struct {
	Schema string
	Name   string
}

func (t TableName) String() string {
	return fmt.Sprintf("%s.%s", t.Schema, t.Name)
}

func (t TableName) Quoted() string {
	return fmt.Sprintf("%s.%s", quoteIdentifier(t.Schema), quoteIdentifier(t.Name))
}

// SplitQualifiedName splits the given name on its first dot. Names without
// a dot are assumed to live in the public schema. A dot with an empty half
// on either side is a configuration error.
func SplitQualifiedName(input string) (TableName, error) {
	schema, name, found := strings.Cut(input, ".")
	if !found {
		return TableName{Schema: "public", Name: input}, nil
	}
	if schema == "" || name == "" {
		return TableName{}, configErrorf("malformed qualified table name %q", input)
	}

	return TableName{Schema: schema, Name: name}, nil
}

// DeriveTriggerName returns the stable name of the trigger managed for the
// given function. The name is the only join key between declared
// configuration and live database state, so identical inputs must produce
// identical output across deploys and process restarts.
func DeriveTriggerName(namespace, functionKey string) string {
	return namespace + "_" + functionKey
}

var namespacePattern = regexp.MustCompile(`[^a-z0-9_]+`)

// DeriveNamespace slugifies the deployment identity into a namespace that
// scopes every database object created by one deployment.
func DeriveNamespace(service, stage string) string {
	slug := strings.ToLower(service + "_" + stage)
	return namespacePattern.ReplaceAllString(slug, "_")
}

// DeriveRoleName returns the login-disabled role owning the namespace's
// invoker function.
func DeriveRoleName(namespace string) string {
	return namespace + "_invoker"
}

// quoteIdentifier is the sole SQL-injection defense for identifiers
// interpolated into DDL; embedded double quotes are doubled.
func quoteIdentifier(raw string) string {
	return pq.QuoteIdentifier(raw)
}

// quoteLiteral escapes a string value for interpolation into positions
// where placeholders are not valid (e.g. trigger arguments).
func quoteLiteral(raw string) string {
	return pq.QuoteLiteral(raw)
}
