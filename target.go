package pgtrigger

// DatabaseTarget identifies one logical database in which the prerequisite
// objects and triggers for a namespace live.
type DatabaseTarget struct {
	URL             string
	Namespace       string
	Role            string
	InvokerFunction string
}

const defaultInvokerFunction = "invoke_lambda"

// resolve layers the connection URL (explicit value, then the process-wide
// PG* environment default) and fills derived defaults for the role and
// invoker function names. A target with no resolvable URL is a fatal
// configuration error; nothing may execute DDL against it.
func (t DatabaseTarget) resolve() (DatabaseTarget, error) {
	if t.Namespace == "" {
		return t, configErrorf("database target has no namespace")
	}
	if t.URL == "" {
		t.URL = DefaultDatabaseURL()
	}
	if t.URL == "" {
		return t, configErrorf("no connection string configured for namespace %q", t.Namespace)
	}

	return t.WithDefaults(), nil
}

// WithDefaults fills the derived role and invoker function names without
// requiring a resolvable connection string. Offline tooling (plan,
// generate) uses this directly.
func (t DatabaseTarget) WithDefaults() DatabaseTarget {
	if t.Role == "" {
		t.Role = DeriveRoleName(t.Namespace)
	}
	if t.InvokerFunction == "" {
		t.InvokerFunction = defaultInvokerFunction
	}

	return t
}

// invokerReference returns the schema-qualified, quoted name of the
// namespace's trigger-handler function.
func (t DatabaseTarget) invokerReference() string {
	return quoteIdentifier(t.Namespace) + "." + quoteIdentifier(t.InvokerFunction)
}
