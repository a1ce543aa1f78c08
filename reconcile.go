package pgtrigger

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-nacelle/nacelle/v2"
	"github.com/jackc/pgconn"
	"github.com/lib/pq"
)

type Action string

const (
	ActionCreate Action = "Create"
	ActionUpdate Action = "Update"
	ActionDelete Action = "Delete"
)

// ResourceKind selects which half of a deployment a request reconciles:
// the per-namespace prerequisite objects or one function's trigger.
type ResourceKind string

const (
	KindPrerequisites ResourceKind = "Prerequisites"
	KindTrigger       ResourceKind = "Trigger"
)

// Request is one reconciliation step of a deploy lifecycle event.
type Request struct {
	Action      Action
	Kind        ResourceKind
	Target      DatabaseTarget
	FunctionKey string       // trigger requests only
	Spec        *TriggerSpec // trigger requests only

	// Previous configuration, present on updates. A changed connection
	// target means the trigger may still exist in the database it was
	// originally created in; it must be cleaned up there or it leaks.
	OldTarget *DatabaseTarget
	OldSpec   *TriggerSpec

	// PhysicalID is the previously reported identifier, when known.
	PhysicalID string
}

type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
)

// Outcome is the single terminal result of a reconciliation step.
type Outcome struct {
	Status     Status
	PhysicalID string
	Reason     string
}

// Dialer opens a scoped session; tests substitute a fake.
type Dialer func(connectionString string, logger nacelle.Logger) (DB, error)

type Reconciler struct {
	logger nacelle.Logger
	dialer Dialer
}

type (
	reconcilerOptions struct {
		dialer Dialer
	}

	// ReconcilerConfigFunc is a function used to configure a reconciler.
	ReconcilerConfigFunc func(*reconcilerOptions)
)

func WithDialer(dialer Dialer) ReconcilerConfigFunc {
	return func(o *reconcilerOptions) { o.dialer = dialer }
}

func NewReconciler(logger nacelle.Logger, configs ...ReconcilerConfigFunc) *Reconciler {
	options := &reconcilerOptions{dialer: Dial}
	for _, f := range configs {
		f(options)
	}

	return &Reconciler{
		logger: logger,
		dialer: options.dialer,
	}
}

// Reconcile executes one lifecycle step and always produces exactly one
// outcome. Errors on the main branch become failure outcomes carrying the
// last known physical identifier.
func (r *Reconciler) Reconcile(ctx context.Context, req Request) Outcome {
	physicalID, err := r.reconcile(ctx, req)
	if physicalID == "" {
		physicalID = req.PhysicalID
	}

	if err != nil {
		r.logger.ErrorWithFields(nacelle.LogFields{
			"action":     string(req.Action),
			"kind":       string(req.Kind),
			"physicalId": physicalID,
			"error":      err,
		}, "Reconciliation failed")

		return Outcome{Status: StatusFailed, PhysicalID: physicalID, Reason: err.Error()}
	}

	return Outcome{Status: StatusSuccess, PhysicalID: physicalID}
}

func (r *Reconciler) reconcile(ctx context.Context, req Request) (string, error) {
	switch req.Kind {
	case KindPrerequisites:
		return r.reconcilePrerequisites(ctx, req)
	case KindTrigger:
		return r.reconcileTrigger(ctx, req)
	}

	return "", configErrorf("unknown resource kind %q", string(req.Kind))
}

func (r *Reconciler) reconcilePrerequisites(ctx context.Context, req Request) (string, error) {
	target, err := req.Target.resolve()
	if err != nil {
		return "", err
	}

	switch req.Action {
	case ActionCreate, ActionUpdate:
		// Prerequisite DDL is idempotent; updates simply reapply it.
		return target.Namespace, r.execStatements(ctx, target, PrerequisiteStatements(target))

	case ActionDelete:
		// Deliberate no-op: prerequisite objects may be shared by other
		// triggers in the namespace and are never torn down.
		r.logger.InfoWithFields(nacelle.LogFields{
			"namespace": target.Namespace,
		}, "Leaving prerequisite objects in place")
		return target.Namespace, nil
	}

	return target.Namespace, configErrorf("unknown action %q", string(req.Action))
}

func (r *Reconciler) reconcileTrigger(ctx context.Context, req Request) (string, error) {
	target, err := req.Target.resolve()
	if err != nil {
		return "", err
	}
	if req.FunctionKey == "" {
		return "", configErrorf("trigger request has no function key")
	}

	triggerName := DeriveTriggerName(target.Namespace, req.FunctionKey)

	switch req.Action {
	case ActionCreate:
		return triggerName, r.createTrigger(ctx, target, req)

	case ActionUpdate:
		// Drop wherever the trigger was created. Failure is logged, not
		// fatal; the trigger may already be absent and the compensating
		// create below is the operation that matters.
		old, oldSpec := r.previousConfiguration(req, target)
		r.dropTriggerBestEffort(ctx, old, req.FunctionKey, oldSpec.Table)

		return triggerName, r.createTrigger(ctx, target, req)

	case ActionDelete:
		if req.Spec == nil {
			return triggerName, configErrorf("trigger request has no trigger spec")
		}

		r.dropTriggerBestEffort(ctx, target, req.FunctionKey, req.Spec.Table)
		return triggerName, nil
	}

	return triggerName, configErrorf("unknown action %q", string(req.Action))
}

// previousConfiguration resolves where the existing trigger lives. When the
// old target fails to resolve (e.g. its connection string is gone), fall
// back to the current target; the drop there is best-effort anyway.
func (r *Reconciler) previousConfiguration(req Request, target DatabaseTarget) (DatabaseTarget, TriggerSpec) {
	old := target
	if req.OldTarget != nil {
		resolved, err := req.OldTarget.resolve()
		if err == nil {
			old = resolved
		} else {
			r.logger.WarningWithFields(nacelle.LogFields{
				"error": err,
			}, "Cannot resolve previous database target; dropping against current target")
		}
	}

	var oldSpec TriggerSpec
	switch {
	case req.OldSpec != nil:
		oldSpec = *req.OldSpec
	case req.Spec != nil:
		oldSpec = *req.Spec
	}

	return old, oldSpec
}

func (r *Reconciler) createTrigger(ctx context.Context, target DatabaseTarget, req Request) error {
	if req.Spec == nil {
		return configErrorf("trigger request has no trigger spec")
	}

	// Build (and validate) before opening a connection; configuration
	// errors must precede any DDL execution.
	statements, err := CreateTriggerStatements(target, req.FunctionKey, *req.Spec)
	if err != nil {
		return err
	}

	return r.execStatements(ctx, target, statements)
}

func (r *Reconciler) dropTriggerBestEffort(ctx context.Context, target DatabaseTarget, functionKey string, table TableName) {
	triggerName := DeriveTriggerName(target.Namespace, functionKey)

	err := r.execStatements(ctx, target, DropTriggerStatements(target, functionKey, table))
	if err == nil {
		r.logger.InfoWithFields(nacelle.LogFields{
			"trigger": triggerName,
		}, "Dropped trigger")
		return
	}

	fields := nacelle.LogFields{
		"trigger": triggerName,
		"table":   table.String(),
		"error":   err,
	}
	if code := pgErrorCode(err); code != "" {
		fields["code"] = code
	}

	r.logger.WarningWithFields(fields, "Failed to drop trigger; continuing")
}

// execStatements opens one session per reconciliation step and applies the
// statements in a single transaction holding the namespace's advisory lock.
func (r *Reconciler) execStatements(ctx context.Context, target DatabaseTarget, statements []Q) (err error) {
	db, err := r.dialer(target.URL, r.logger)
	if err != nil {
		return err
	}

	defer func() {
		err = errors.Join(err, db.Close())
	}()

	return withLockedTransaction(ctx, db, target.Namespace, func(tx DB) error {
		for _, statement := range statements {
			if err := tx.Exec(ctx, statement); err != nil {
				query, _ := statement.Format()
				return fmt.Errorf("failed to execute %q: %w", query, err)
			}
		}

		return nil
	})
}

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}

	return ""
}
