package pgtrigger

import "context"

// TriggerDescription is one live trigger wired to a namespace's invoker
// function, as reported by the catalog.
type TriggerDescription struct {
	Name        string
	TableSchema string
	TableName   string
	Definition  string
}

var scanTriggers = NewSliceScanner(func(s Scanner) (t TriggerDescription, _ error) {
	err := s.Scan(&t.Name, &t.TableSchema, &t.TableName, &t.Definition)
	return t, err
})

// DescribeTriggers lists the triggers currently invoking functions in the
// given namespace. This is an inspection surface; reconciliation itself
// never reads back database state, it recomputes names deterministically.
func DescribeTriggers(ctx context.Context, db DB, namespace string) ([]TriggerDescription, error) {
	return scanTriggers(db.Query(ctx, Query(`
		SELECT
			t.tgname AS name,
			n.nspname AS table_schema,
			c.relname AS table_name,
			pg_catalog.pg_get_triggerdef(t.oid, true) AS definition
		FROM pg_catalog.pg_trigger t
		JOIN pg_catalog.pg_class c ON c.oid = t.tgrelid
		JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
		JOIN pg_catalog.pg_proc p ON p.oid = t.tgfoid
		JOIN pg_catalog.pg_namespace fn ON fn.oid = p.pronamespace
		WHERE NOT t.tgisinternal AND fn.nspname = {:namespace}
		ORDER BY n.nspname, c.relname, t.tgname
	`, Args{"namespace": namespace})))
}

// PrerequisitesSatisfied reports whether the namespace's prerequisite
// objects (extensions, role, schema, invoker function) are all in place.
func PrerequisitesSatisfied(ctx context.Context, db DB, target DatabaseTarget) (bool, error) {
	satisfied, _, err := ScanBool(db.Query(ctx, Query(`
		SELECT
			(SELECT COUNT(*) FROM pg_catalog.pg_extension WHERE extname IN ('aws_commons', 'aws_lambda')) = 2 AND
			EXISTS (SELECT FROM pg_catalog.pg_roles WHERE rolname = {:role}) AND
			EXISTS (SELECT FROM pg_catalog.pg_namespace WHERE nspname = {:namespace}) AND
			EXISTS (
				SELECT
				FROM pg_catalog.pg_proc p
				JOIN pg_catalog.pg_namespace n ON n.oid = p.pronamespace
				WHERE n.nspname = {:namespace} AND p.proname = {:function}
			)
	`, Args{
		"role":      target.Role,
		"namespace": target.Namespace,
		"function":  target.InvokerFunction,
	})))

	return satisfied, err
}
