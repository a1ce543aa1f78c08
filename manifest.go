package pgtrigger

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Manifest is the declared shape of one deployment: a service, its
// provider settings, and its deployable functions with their event lists.
type Manifest struct {
	Service   string       `yaml:"service"`
	Provider  Provider     `yaml:"provider"`
	Functions FunctionList `yaml:"functions"`
}

type Provider struct {
	Region       string `yaml:"region"`
	AccountID    string `yaml:"accountId"`
	Stage        string `yaml:"stage"`
	DatabaseURL  string `yaml:"databaseUrl"`
	Namespace    string `yaml:"namespace"`
	Role         string `yaml:"role"`
	ServiceToken string `yaml:"serviceToken"`
}

type Function struct {
	Handler string  `yaml:"handler"`
	Name    string  `yaml:"name"`
	Events  []Event `yaml:"events"`
}

// Event is one entry of a function's heterogeneous event list. Exactly one
// variant is set per entry; non-trigger variants are carried so manifests
// shared with other tooling parse cleanly.
type Event struct {
	PGTrigger *TriggerEvent  `yaml:"pgTrigger"`
	HTTP      *HTTPEvent     `yaml:"http"`
	Schedule  *ScheduleEvent `yaml:"schedule"`
}

type HTTPEvent struct {
	Path   string `yaml:"path"`
	Method string `yaml:"method"`
}

type ScheduleEvent struct {
	Rate string `yaml:"rate"`
}

// TriggerEvent is the declared trigger configuration. Operations may be
// given as a list, or via per-kind presence flags where update optionally
// carries a column scope.
type TriggerEvent struct {
	Table      string         `yaml:"table"`
	Operations []string       `yaml:"operations"`
	Insert     *OperationFlag `yaml:"insert"`
	Update     *OperationFlag `yaml:"update"`
	Delete     *OperationFlag `yaml:"delete"`
	Order      string         `yaml:"order"`
	Level      string         `yaml:"level"`
	When       string         `yaml:"when"`
}

// OperationFlag accepts a boolean, a comma-separated column string, or a
// column list.
type OperationFlag struct {
	Enabled bool
	Columns []string
}

func (f *OperationFlag) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var enabled bool
		if err := node.Decode(&enabled); err == nil {
			f.Enabled = enabled
			return nil
		}

		var columns string
		if err := node.Decode(&columns); err != nil {
			return err
		}

		f.Enabled = true
		for _, column := range strings.Split(columns, ",") {
			if column = strings.TrimSpace(column); column != "" {
				f.Columns = append(f.Columns, column)
			}
		}
		return nil

	case yaml.SequenceNode:
		if err := node.Decode(&f.Columns); err != nil {
			return err
		}

		f.Enabled = true
		return nil
	}

	return fmt.Errorf("cannot unmarshal %v into operation flag", node.Kind)
}

// FunctionEntry pairs a function with its manifest key. Declared order is
// preserved; reconciliation walks functions in this order.
type FunctionEntry struct {
	Key      string
	Function Function
}

type FunctionList []FunctionEntry

func (l *FunctionList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("functions must be a mapping")
	}

	for i := 0; i < len(node.Content); i += 2 {
		var key string
		if err := node.Content[i].Decode(&key); err != nil {
			return err
		}

		var function Function
		if err := node.Content[i+1].Decode(&function); err != nil {
			return err
		}

		*l = append(*l, FunctionEntry{Key: key, Function: function})
	}

	return nil
}

func LoadManifest(path string) (Manifest, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, err
	}

	var manifest Manifest
	if err := yaml.Unmarshal(contents, &manifest); err != nil {
		return Manifest{}, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}

	return manifest, nil
}

func (m Manifest) Stage() string {
	if m.Provider.Stage != "" {
		return m.Provider.Stage
	}

	return "dev"
}

// Namespace is stable across redeploys of the same service/stage unless
// explicitly overridden.
func (m Manifest) Namespace() string {
	if m.Provider.Namespace != "" {
		return m.Provider.Namespace
	}

	return DeriveNamespace(m.Service, m.Stage())
}

func (m Manifest) Target() DatabaseTarget {
	return DatabaseTarget{
		URL:       m.Provider.DatabaseURL,
		Namespace: m.Namespace(),
		Role:      m.Provider.Role,
	}
}

// FunctionName resolves the deployed name of a function, defaulting to the
// conventional <service>-<stage>-<key>.
func (m Manifest) FunctionName(entry FunctionEntry) string {
	if entry.Function.Name != "" {
		return entry.Function.Name
	}

	return fmt.Sprintf("%s-%s-%s", m.Service, m.Stage(), entry.Key)
}

// FunctionTrigger is one function's normalized trigger configuration.
type FunctionTrigger struct {
	FunctionKey  string
	FunctionName string
	Spec         TriggerSpec
}

// CollectTriggers filters each function's event list down to its trigger
// declaration, resolves the invocation target, and normalizes defaults.
// More than one trigger per function is a configuration error, not a
// silent first-wins.
func CollectTriggers(m Manifest) ([]FunctionTrigger, error) {
	var triggers []FunctionTrigger
	for _, entry := range m.Functions {
		var declared []*TriggerEvent
		for _, event := range entry.Function.Events {
			if event.PGTrigger != nil {
				declared = append(declared, event.PGTrigger)
			}
		}

		if len(declared) == 0 {
			continue
		}
		if len(declared) > 1 {
			return nil, configErrorf("function %q declares %d pgTrigger events; at most one is allowed", entry.Key, len(declared))
		}

		if m.Provider.Region == "" || m.Provider.AccountID == "" {
			return nil, configErrorf("provider region and accountId are required to resolve the invocation target for function %q", entry.Key)
		}

		functionName := m.FunctionName(entry)
		spec, err := declared[0].toSpec(DeriveLambdaARN(m.Provider.Region, m.Provider.AccountID, functionName))
		if err != nil {
			return nil, err
		}

		triggers = append(triggers, FunctionTrigger{
			FunctionKey:  entry.Key,
			FunctionName: functionName,
			Spec:         spec,
		})
	}

	return triggers, nil
}

func (e TriggerEvent) toSpec(functionARN string) (TriggerSpec, error) {
	if e.Table == "" {
		return TriggerSpec{}, configErrorf("trigger event has no table")
	}

	table, err := SplitQualifiedName(e.Table)
	if err != nil {
		return TriggerSpec{}, err
	}

	var operations []Operation
	if len(e.Operations) > 0 {
		for _, kind := range e.Operations {
			operations = append(operations, Operation{Kind: strings.ToUpper(kind)})
		}
	} else {
		flags := []struct {
			kind string
			flag *OperationFlag
		}{
			{OpInsert, e.Insert},
			{OpUpdate, e.Update},
			{OpDelete, e.Delete},
		}

		for _, f := range flags {
			if f.flag == nil || !f.flag.Enabled {
				continue
			}

			operation := Operation{Kind: f.kind}
			if f.kind == OpUpdate {
				operation.Columns = f.flag.Columns
			} else if len(f.flag.Columns) > 0 {
				return TriggerSpec{}, configErrorf("column-scoped %s operations are not supported", f.kind)
			}

			operations = append(operations, operation)
		}
	}

	spec := TriggerSpec{
		Table:       table,
		Operations:  operations,
		Order:       TriggerOrder(strings.ToUpper(e.Order)),
		Level:       TriggerLevel(strings.ToUpper(e.Level)),
		When:        e.When,
		FunctionARN: functionARN,
	}

	return spec.normalize(), nil
}
