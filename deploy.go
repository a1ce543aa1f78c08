package pgtrigger

import (
	"context"
	"fmt"

	"github.com/go-nacelle/nacelle/v2"
	"github.com/google/uuid"
)

// Deploy reconciles a manifest against its database target: prerequisites
// first, then each function's trigger in declared order. When a previous
// manifest is supplied the step becomes an update and stale triggers are
// dropped wherever they were created. The first failed outcome aborts the
// deploy; earlier outcomes are returned alongside the error.
func Deploy(ctx context.Context, logger nacelle.Logger, reconciler *Reconciler, manifest Manifest, previous *Manifest) ([]Outcome, error) {
	deployID := uuid.NewString()
	logger = logger.WithFields(nacelle.LogFields{
		"deployId":  deployID,
		"namespace": manifest.Namespace(),
	})

	triggers, err := CollectTriggers(manifest)
	if err != nil {
		return nil, err
	}

	var previousTriggers map[string]FunctionTrigger
	action := ActionCreate
	if previous != nil {
		action = ActionUpdate

		collected, err := CollectTriggers(*previous)
		if err != nil {
			logger.WarningWithFields(nacelle.LogFields{
				"error": err,
			}, "Cannot collect triggers from previous manifest; treating all triggers as current-target drops")
		}

		previousTriggers = map[string]FunctionTrigger{}
		for _, trigger := range collected {
			previousTriggers[trigger.FunctionKey] = trigger
		}
	}

	logger.InfoWithFields(nacelle.LogFields{
		"action":   string(action),
		"triggers": len(triggers),
	}, "Starting deploy")

	var outcomes []Outcome
	record := func(outcome Outcome) error {
		outcomes = append(outcomes, outcome)
		if outcome.Status == StatusFailed {
			return fmt.Errorf("reconciliation of %s failed: %s", outcome.PhysicalID, outcome.Reason)
		}

		return nil
	}

	if err := record(reconciler.Reconcile(ctx, Request{
		Action: action,
		Kind:   KindPrerequisites,
		Target: manifest.Target(),
	})); err != nil {
		return outcomes, err
	}

	for _, trigger := range triggers {
		req := Request{
			Action:      action,
			Kind:        KindTrigger,
			Target:      manifest.Target(),
			FunctionKey: trigger.FunctionKey,
			Spec:        &trigger.Spec,
		}

		if old, ok := previousTriggers[trigger.FunctionKey]; ok && previous != nil {
			oldTarget := previous.Target()
			oldSpec := old.Spec
			req.OldTarget = &oldTarget
			req.OldSpec = &oldSpec
		}

		if err := record(reconciler.Reconcile(ctx, req)); err != nil {
			return outcomes, err
		}
	}

	logger.Info("Deploy complete")
	return outcomes, nil
}

// Remove drops every declared trigger. Prerequisite objects are left in
// place and drop failures never fail the removal.
func Remove(ctx context.Context, logger nacelle.Logger, reconciler *Reconciler, manifest Manifest) ([]Outcome, error) {
	triggers, err := CollectTriggers(manifest)
	if err != nil {
		return nil, err
	}

	logger.InfoWithFields(nacelle.LogFields{
		"namespace": manifest.Namespace(),
		"triggers":  len(triggers),
	}, "Removing deployment triggers")

	var outcomes []Outcome
	for _, trigger := range triggers {
		spec := trigger.Spec

		outcomes = append(outcomes, reconciler.Reconcile(ctx, Request{
			Action:      ActionDelete,
			Kind:        KindTrigger,
			Target:      manifest.Target(),
			FunctionKey: trigger.FunctionKey,
			Spec:        &spec,
		}))
	}

	outcomes = append(outcomes, reconciler.Reconcile(ctx, Request{
		Action: ActionDelete,
		Kind:   KindPrerequisites,
		Target: manifest.Target(),
	}))

	return outcomes, nil
}
