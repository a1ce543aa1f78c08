package pgtrigger

import (
	"fmt"
	"strings"
)

// requiredExtensions are created once per target database. aws_lambda
// provides the asynchronous invocation entry point and pulls its helper
// types from aws_commons.
var requiredExtensions = []string{"plpgsql", "aws_commons", "aws_lambda"}

// extensionSchemas are the schemas the invoker role needs usage and
// execute grants on.
var extensionSchemas = []string{"aws_commons", "aws_lambda"}

// PrerequisiteStatements builds the idempotent DDL establishing everything
// a namespace's triggers depend on: extensions, the login-disabled invoker
// role, its grants, the namespace schema, and the trigger-handler function.
// Prerequisites are never torn down; other triggers may share them.
func PrerequisiteStatements(target DatabaseTarget) []Q {
	var statements []Q

	for _, extension := range requiredExtensions {
		statements = append(statements, queryf("CREATE EXTENSION IF NOT EXISTS %s CASCADE", quoteIdentifier(extension)))
	}

	// CREATE ROLE has no IF NOT EXISTS form; guard via the catalog.
	statements = append(statements, queryf(strings.TrimSpace(`
DO $$
BEGIN
	IF NOT EXISTS (SELECT FROM pg_catalog.pg_roles WHERE rolname = %s) THEN
		CREATE ROLE %s WITH NOLOGIN;
	END IF;
END
$$`), quoteLiteral(target.Role), quoteIdentifier(target.Role)))

	for _, schema := range extensionSchemas {
		statements = append(statements,
			queryf("GRANT USAGE ON SCHEMA %s TO %s", quoteIdentifier(schema), quoteIdentifier(target.Role)),
			queryf("GRANT EXECUTE ON ALL FUNCTIONS IN SCHEMA %s TO %s", quoteIdentifier(schema), quoteIdentifier(target.Role)),
		)
	}

	statements = append(statements, queryf("CREATE SCHEMA IF NOT EXISTS %s", quoteIdentifier(target.Namespace)))
	statements = append(statements, invokerFunctionStatement(target))
	statements = append(statements, queryf("ALTER FUNCTION %s() OWNER TO %s", target.invokerReference(), quoteIdentifier(target.Role)))

	return statements
}

// invokerFunctionStatement replaces the namespace's trigger handler. The
// handler serializes the trigger context into the invocation payload and
// invokes the Lambda named by TG_ARGV[0] asynchronously. It always returns
// NULL, which is valid for AFTER triggers. SECURITY DEFINER with a pinned
// search_path keeps callers from hijacking unqualified references.
func invokerFunctionStatement(target DatabaseTarget) Q {
	return queryf(strings.TrimSpace(`
CREATE OR REPLACE FUNCTION %s() RETURNS trigger
LANGUAGE plpgsql
SECURITY DEFINER
SET search_path = pg_catalog, public
AS $fn$
DECLARE
	payload json;
BEGIN
	payload = json_build_object(
		'type', TG_OP,
		'schema', TG_TABLE_SCHEMA,
		'table', TG_TABLE_NAME,
		'record', CASE WHEN TG_OP IN ('INSERT', 'UPDATE') THEN row_to_json(NEW) ELSE NULL END,
		'old_record', CASE WHEN TG_OP IN ('UPDATE', 'DELETE') THEN row_to_json(OLD) ELSE NULL END
	);

	PERFORM aws_lambda.invoke(
		aws_commons.create_lambda_function_arn(TG_ARGV[0]),
		payload,
		'Event'
	);

	RETURN NULL;
END;
$fn$`), target.invokerReference())
}

// CreateTriggerStatements builds the drop-then-create pair for the given
// function's trigger. Dropping first makes creation idempotent across
// redeploys without a pre-check query. Validation errors surface before
// any SQL text is assembled.
func CreateTriggerStatements(target DatabaseTarget, functionKey string, spec TriggerSpec) ([]Q, error) {
	spec = spec.normalize()
	if err := spec.validate(); err != nil {
		return nil, err
	}

	triggerName := DeriveTriggerName(target.Namespace, functionKey)

	createTrigger := fmt.Sprintf(
		"CREATE TRIGGER %s %s %s ON %s FOR EACH %s%s EXECUTE FUNCTION %s(%s)",
		quoteIdentifier(triggerName),
		string(spec.Order),
		operationsClause(spec.Operations),
		spec.Table.Quoted(),
		string(spec.Level),
		whenClause(spec.When),
		target.invokerReference(),
		quoteLiteral(spec.FunctionARN),
	)

	return []Q{
		dropTriggerStatement(triggerName, spec.Table),
		RawQuery(createTrigger),
	}, nil
}

// DropTriggerStatements builds the removal DDL for the given function's
// trigger. Drop is idempotent in intent; IF EXISTS covers tables or
// triggers removed out-of-band.
func DropTriggerStatements(target DatabaseTarget, functionKey string, table TableName) []Q {
	return []Q{
		dropTriggerStatement(DeriveTriggerName(target.Namespace, functionKey), table),
	}
}

func dropTriggerStatement(triggerName string, table TableName) Q {
	return queryf("DROP TRIGGER IF EXISTS %s ON %s CASCADE", quoteIdentifier(triggerName), table.Quoted())
}

func operationsClause(operations []Operation) string {
	parts := make([]string, 0, len(operations))
	for _, operation := range operations {
		part := strings.ToUpper(operation.Kind)
		if len(operation.Columns) > 0 {
			quoted := make([]string, 0, len(operation.Columns))
			for _, column := range operation.Columns {
				quoted = append(quoted, quoteIdentifier(column))
			}
			part += " OF " + strings.Join(quoted, ", ")
		}

		parts = append(parts, part)
	}

	return strings.Join(parts, " OR ")
}

// whenClause appends the caller-supplied predicate verbatim. The predicate
// is itself a SQL boolean expression, not a literal, so it is deliberately
// not escaped.
func whenClause(when string) string {
	if when == "" {
		return ""
	}

	return fmt.Sprintf(" WHEN (%s)", when)
}
