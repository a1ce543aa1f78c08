package pgtrigger

import (
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

// ResourceDeclaration is one custom-resource entry in the orchestration
// template emitted by the build-time generator mode.
type ResourceDeclaration struct {
	Type       string                `yaml:"Type"`
	DependsOn  []string              `yaml:"DependsOn,omitempty"`
	Properties DeclarationProperties `yaml:"Properties"`
}

type DeclarationProperties struct {
	ServiceToken       string `yaml:"ServiceToken,omitempty"`
	ResourceProperties `yaml:",inline"`
}

const prerequisitesLogicalID = "PgTriggerPrerequisites"

// GenerateResources builds the custom-resource declarations for every
// function in the manifest that declares a trigger. Each trigger resource
// depends on the shared prerequisites resource so creation orders
// correctly.
func GenerateResources(manifest Manifest) (map[string]ResourceDeclaration, error) {
	triggers, err := CollectTriggers(manifest)
	if err != nil {
		return nil, err
	}
	if len(triggers) == 0 {
		return map[string]ResourceDeclaration{}, nil
	}

	target := manifest.Target()

	resources := map[string]ResourceDeclaration{
		prerequisitesLogicalID: {
			Type: ResourceTypePrerequisites,
			Properties: DeclarationProperties{
				ServiceToken: manifest.Provider.ServiceToken,
				ResourceProperties: ResourceProperties{
					ConnectionURL: target.URL,
					Namespace:     target.Namespace,
					Role:          target.Role,
				},
			},
		},
	}

	for _, trigger := range triggers {
		properties := ResourceProperties{
			ConnectionURL: target.URL,
			Namespace:     target.Namespace,
			Role:          target.Role,
			FunctionKey:   trigger.FunctionKey,
			FunctionArn:   trigger.Spec.FunctionARN,
			Table:         trigger.Spec.Table.String(),
			Order:         string(trigger.Spec.Order),
			Level:         string(trigger.Spec.Level),
			When:          trigger.Spec.When,
		}

		for _, operation := range trigger.Spec.Operations {
			properties.Operations = append(properties.Operations, operation.Kind)
			if operation.Kind == OpUpdate {
				properties.UpdateOf = operation.Columns
			}
		}

		resources[toLogicalID(trigger.FunctionKey)+"PgTrigger"] = ResourceDeclaration{
			Type:      ResourceTypeTrigger,
			DependsOn: []string{prerequisitesLogicalID},
			Properties: DeclarationProperties{
				ServiceToken:       manifest.Provider.ServiceToken,
				ResourceProperties: properties,
			},
		}
	}

	return resources, nil
}

// RenderResources marshals the declarations under a template Resources
// key, ready to merge into the orchestrator's compiled template.
func RenderResources(manifest Manifest) ([]byte, error) {
	resources, err := GenerateResources(manifest)
	if err != nil {
		return nil, err
	}

	return yaml.Marshal(struct {
		Resources map[string]ResourceDeclaration `yaml:"Resources"`
	}{Resources: resources})
}

// toLogicalID camel-cases a function key into an orchestrator-safe logical
// resource identifier.
func toLogicalID(key string) string {
	var builder strings.Builder
	upperNext := true
	for _, r := range key {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upperNext = true
			continue
		}

		if upperNext {
			builder.WriteRune(unicode.ToUpper(r))
			upperNext = false
		} else {
			builder.WriteRune(r)
		}
	}

	return builder.String()
}
