package pgtrigger

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-nacelle/nacelle/v2"
)

const (
	ResourceTypePrerequisites = "Custom::PgTriggerPrerequisites"
	ResourceTypeTrigger       = "Custom::PgTrigger"
)

// CustomResourceRequest is the orchestrator's lifecycle notification for
// one declared resource.
type CustomResourceRequest struct {
	RequestType           string              `json:"RequestType"`
	RequestID             string              `json:"RequestId"`
	ResponseURL           string              `json:"ResponseURL"`
	StackID               string              `json:"StackId"`
	LogicalResourceID     string              `json:"LogicalResourceId"`
	PhysicalResourceID    string              `json:"PhysicalResourceId,omitempty"`
	ResourceType          string              `json:"ResourceType"`
	ResourceProperties    ResourceProperties  `json:"ResourceProperties"`
	OldResourceProperties *ResourceProperties `json:"OldResourceProperties,omitempty"`
}

// ResourceProperties carries the declared database target and, for trigger
// resources, the normalized trigger fields.
type ResourceProperties struct {
	ConnectionURL   string   `json:"ConnectionUrl,omitempty" yaml:"ConnectionUrl,omitempty"`
	Namespace       string   `json:"Namespace" yaml:"Namespace"`
	Role            string   `json:"Role,omitempty" yaml:"Role,omitempty"`
	InvokerFunction string   `json:"InvokerFunction,omitempty" yaml:"InvokerFunction,omitempty"`
	FunctionKey     string   `json:"FunctionKey,omitempty" yaml:"FunctionKey,omitempty"`
	FunctionArn     string   `json:"FunctionArn,omitempty" yaml:"FunctionArn,omitempty"`
	Table           string   `json:"Table,omitempty" yaml:"Table,omitempty"`
	Operations      []string `json:"Operations,omitempty" yaml:"Operations,omitempty"`
	UpdateOf        []string `json:"UpdateOf,omitempty" yaml:"UpdateOf,omitempty"`
	Order           string   `json:"Order,omitempty" yaml:"Order,omitempty"`
	Level           string   `json:"Level,omitempty" yaml:"Level,omitempty"`
	When            string   `json:"When,omitempty" yaml:"When,omitempty"`
}

// CustomResourceResponse is the single outcome reported back to the
// orchestrator for each request.
type CustomResourceResponse struct {
	Status             Status            `json:"Status"`
	Reason             string            `json:"Reason,omitempty"`
	PhysicalResourceID string            `json:"PhysicalResourceId"`
	StackID            string            `json:"StackId"`
	RequestID          string            `json:"RequestId"`
	LogicalResourceID  string            `json:"LogicalResourceId"`
	Data               map[string]string `json:"Data,omitempty"`
}

func (p ResourceProperties) target() DatabaseTarget {
	return DatabaseTarget{
		URL:             p.ConnectionURL,
		Namespace:       p.Namespace,
		Role:            p.Role,
		InvokerFunction: p.InvokerFunction,
	}
}

func (p ResourceProperties) spec() (*TriggerSpec, error) {
	var operations []Operation
	for _, kind := range p.Operations {
		operation := Operation{Kind: strings.ToUpper(kind)}
		if operation.Kind == OpUpdate {
			operation.Columns = p.UpdateOf
		}
		operations = append(operations, operation)
	}

	table, err := SplitQualifiedName(p.Table)
	if err != nil {
		return nil, err
	}

	spec := TriggerSpec{
		Table:       table,
		Operations:  operations,
		Order:       TriggerOrder(strings.ToUpper(p.Order)),
		Level:       TriggerLevel(strings.ToUpper(p.Level)),
		When:        p.When,
		FunctionARN: p.FunctionArn,
	}
	spec = spec.normalize()

	return &spec, nil
}

// toRequest maps the wire request onto a reconciliation request. Mapping
// failures are configuration errors surfaced before any DDL runs.
func (r CustomResourceRequest) toRequest() (Request, error) {
	req := Request{
		Action:     Action(r.RequestType),
		Target:     r.ResourceProperties.target(),
		PhysicalID: r.PhysicalResourceID,
	}

	switch r.ResourceType {
	case ResourceTypePrerequisites:
		req.Kind = KindPrerequisites

	case ResourceTypeTrigger:
		req.Kind = KindTrigger
		req.FunctionKey = r.ResourceProperties.FunctionKey

		spec, err := r.ResourceProperties.spec()
		if err != nil {
			return Request{}, err
		}
		req.Spec = spec

		if r.OldResourceProperties != nil {
			oldTarget := r.OldResourceProperties.target()
			req.OldTarget = &oldTarget

			oldSpec, err := r.OldResourceProperties.spec()
			if err == nil {
				req.OldSpec = oldSpec
			}
		}

	default:
		return Request{}, configErrorf("unknown resource type %q", r.ResourceType)
	}

	return req, nil
}

// HandleCustomResource reconciles one request and reports exactly one
// outcome back through the responder, including on panics, which are
// re-raised after the failure is reported.
func HandleCustomResource(ctx context.Context, logger nacelle.Logger, reconciler *Reconciler, responder *Responder, request CustomResourceRequest) (outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = Outcome{
				Status:     StatusFailed,
				PhysicalID: request.PhysicalResourceID,
				Reason:     fmt.Sprintf("panic during reconciliation: %v", r),
			}

			responder.Respond(ctx, request, outcome)
			panic(r)
		}

		responder.Respond(ctx, request, outcome)
	}()

	req, err := request.toRequest()
	if err != nil {
		logger.ErrorWithFields(nacelle.LogFields{
			"resourceType": request.ResourceType,
			"error":        err,
		}, "Rejected custom resource request")

		return Outcome{
			Status:     StatusFailed,
			PhysicalID: request.PhysicalResourceID,
			Reason:     err.Error(),
		}
	}

	return reconciler.Reconcile(ctx, req)
}
