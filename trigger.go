package pgtrigger

import (
	"strings"

	"golang.org/x/exp/slices"
)

type TriggerOrder string

const (
	OrderBefore TriggerOrder = "BEFORE"
	OrderAfter  TriggerOrder = "AFTER"
)

type TriggerLevel string

const (
	LevelRow       TriggerLevel = "ROW"
	LevelStatement TriggerLevel = "STATEMENT"
)

const (
	OpInsert = "INSERT"
	OpUpdate = "UPDATE"
	OpDelete = "DELETE"
)

// Operation is one firing event of a trigger. Columns narrows UPDATE to a
// column list and is meaningless for the other kinds.
type Operation struct {
	Kind    string
	Columns []string
}

// TriggerSpec is the declared configuration of a single row-level trigger
// forwarding change events to one serverless function.
type TriggerSpec struct {
	Table       TableName
	Operations  []Operation
	Order       TriggerOrder
	Level       TriggerLevel
	When        string // raw SQL boolean expression, interpolated verbatim
	FunctionARN string
}

// canonicalOperationOrder fixes the event clause ordering so that generated
// DDL is stable across deploys.
var canonicalOperationOrder = []string{OpInsert, OpUpdate, OpDelete}

// normalize applies defaults and sorts operations into canonical order. An
// empty operation set defaults to all three kinds.
func (s TriggerSpec) normalize() TriggerSpec {
	if s.Order == "" {
		s.Order = OrderAfter
	}
	if s.Level == "" {
		s.Level = LevelRow
	}

	if len(s.Operations) == 0 {
		for _, kind := range canonicalOperationOrder {
			s.Operations = append(s.Operations, Operation{Kind: kind})
		}
	} else {
		// Repeated kinds collapse to the first occurrence; Postgres rejects
		// duplicate event clauses at trigger creation time.
		operations := make([]Operation, 0, len(s.Operations))
		seen := map[string]struct{}{}
		for _, operation := range s.Operations {
			kind := strings.ToUpper(operation.Kind)
			if _, ok := seen[kind]; ok {
				continue
			}

			seen[kind] = struct{}{}
			operations = append(operations, operation)
		}

		slices.SortStableFunc(operations, func(a, b Operation) int {
			return slices.Index(canonicalOperationOrder, a.Kind) - slices.Index(canonicalOperationOrder, b.Kind)
		})
		s.Operations = operations
	}

	return s
}

// validate raises configuration errors before any DDL text is built.
func (s TriggerSpec) validate() error {
	if s.Order != OrderAfter {
		return configErrorf("unsupported trigger order %q (only AFTER is supported)", string(s.Order))
	}
	if s.Level != LevelRow {
		return configErrorf("unsupported trigger level %q (only ROW is supported)", string(s.Level))
	}
	if s.FunctionARN == "" {
		return configErrorf("missing invocation target for trigger on %s", s.Table)
	}

	for _, operation := range s.Operations {
		kind := strings.ToUpper(operation.Kind)
		if !slices.Contains(canonicalOperationOrder, kind) {
			return configErrorf("unsupported trigger operation %q", operation.Kind)
		}
		if len(operation.Columns) > 0 && kind != OpUpdate {
			return configErrorf("column-scoped %s operations are not supported", kind)
		}
	}

	return nil
}
