// Package save dispatches the reconciliation plan for a draft to the persistence service.
package save

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/and161185/ohmylink/internal/draft"
	"github.com/and161185/ohmylink/internal/errs"
	"github.com/and161185/ohmylink/internal/model"
	"github.com/and161185/ohmylink/internal/reconcile"
)

// PersistedRecord is what the server returns for a created record.
type PersistedRecord struct {
	ID       string
	Position int
}

// Remote is the persistence service.
type Remote interface {
	CreateRecord(ctx context.Context, kind model.RecordKind, fields model.Fields) (PersistedRecord, error)
	UpdateRecord(ctx context.Context, kind model.RecordKind, id string, fields model.Fields) error
	DeleteRecord(ctx context.Context, kind model.RecordKind, id string) error
	ReorderRecords(ctx context.Context, kind model.RecordKind, ids []string) error
	UpdateScalarGroup(ctx context.Context, group model.ScalarGroup, fields model.Fields) error
}

// Status summarizes a save.
type Status int

const (
	StatusNoop Status = iota
	StatusSuccess
	StatusPartialFailure
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusPartialFailure:
		return "partial failure"
	default:
		return "no changes"
	}
}

// OperationFailure is one failed remote call.
type OperationFailure struct {
	Op  reconcile.Operation
	Err error
}

func (f OperationFailure) Error() string { return f.Op.String() + ": " + f.Err.Error() }

// PartialSaveError reports the failed operations of a save. It matches errs.ErrPartialSave.
type PartialSaveError struct {
	Total  int
	Failed []OperationFailure
}

func (e *PartialSaveError) Error() string {
	parts := make([]string, len(e.Failed))
	for i, f := range e.Failed {
		parts[i] = f.Error()
	}
	return fmt.Sprintf("%s: %d of %d operations failed: %s",
		errs.ErrPartialSave, len(e.Failed), e.Total, strings.Join(parts, "; "))
}

func (e *PartialSaveError) Is(target error) bool { return target == errs.ErrPartialSave }

func (e *PartialSaveError) Unwrap() []error {
	out := make([]error, len(e.Failed))
	for i, f := range e.Failed {
		out[i] = f.Err
	}
	return out
}

// Result is the outcome of one save.
type Result struct {
	Status  Status
	Applied []reconcile.Operation
	Failed  []OperationFailure
	// Created maps temporary ids to the ids the server assigned during this save.
	Created  map[string]string
	Duration time.Duration
}

// Err returns a *PartialSaveError when any operation failed.
func (r Result) Err() error {
	if r.Status != StatusPartialFailure {
		return nil
	}
	return &PartialSaveError{Total: len(r.Applied) + len(r.Failed), Failed: r.Failed}
}

type createdRecord struct {
	kind model.RecordKind
	id   string
}

// Orchestrator saves the store's draft.
//
// Creates that succeeded in a failed save are remembered by temporary id, so a retry
// updates the existing record instead of creating a duplicate. The store's baseline is
// only advanced after a save in which every operation succeeded.
type Orchestrator struct {
	remote      Remote
	store       *draft.Store
	log         *zap.Logger
	parallelism int

	running atomic.Bool

	mu      sync.Mutex
	created map[string]createdRecord
}

// New builds an orchestrator. parallelism <= 0 means unbounded.
func New(remote Remote, store *draft.Store, log *zap.Logger, parallelism int) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		remote:      remote,
		store:       store,
		log:         log,
		parallelism: parallelism,
		created:     map[string]createdRecord{},
	}
}

// Pending returns the plan a save would dispatch now.
func (o *Orchestrator) Pending() reconcile.Plan {
	original, d := o.store.Snapshot()
	return reconcile.Diff(original, d)
}

// Save diffs the store and dispatches every operation concurrently, waiting for all of them.
// Operation failures are reported in the Result, never as the returned error; the only error
// is errs.ErrSaveInFlight when another save is running. Once dispatched a save is not cancelled.
func (o *Orchestrator) Save(ctx context.Context) (Result, error) {
	if !o.running.CompareAndSwap(false, true) {
		return Result{}, errs.ErrSaveInFlight
	}
	defer o.running.Store(false)

	ctx = context.WithoutCancel(ctx)
	start := time.Now()

	original, d := o.store.Snapshot()
	plan := reconcile.Diff(original, d)
	ops, cleanup := o.route(plan, d)
	ops = append(ops, cleanup...)
	if len(ops) == 0 {
		// The draft differs only in ways no operation can express; adopt it as saved.
		if o.store.IsDirty() {
			o.log.Info("nothing to send, marking draft saved")
			o.store.MarkSaved()
		}
		return Result{Status: StatusNoop}, nil
	}
	o.log.Info("save dispatch",
		zap.Int("ops", len(ops)),
		zap.Int("creates", plan.Count(reconcile.OpCreate)),
		zap.Int("deferred", len(plan.Deferred)),
	)

	res := Result{Created: map[string]string{}}
	outcomes := o.dispatch(ctx, ops)
	failedKinds := map[model.RecordKind]bool{}
	for _, oc := range outcomes {
		if oc.err != nil {
			res.Failed = append(res.Failed, OperationFailure{Op: oc.op, Err: oc.err})
			if oc.op.Type != reconcile.OpScalar {
				failedKinds[oc.op.Kind] = true
			}
			continue
		}
		res.Applied = append(res.Applied, oc.op)
		o.record(oc, res.Created)
	}

	var followUps []reconcile.Operation
	for _, kind := range plan.Deferred {
		if failedKinds[kind] {
			continue
		}
		followUps = append(followUps, reconcile.Operation{
			Type:  reconcile.OpReorder,
			Kind:  kind,
			Order: o.resolvedOrder(kind, original, d),
		})
	}
	for _, oc := range o.dispatch(ctx, followUps) {
		if oc.err != nil {
			res.Failed = append(res.Failed, OperationFailure{Op: oc.op, Err: oc.err})
			continue
		}
		res.Applied = append(res.Applied, oc.op)
	}

	res.Duration = time.Since(start)
	if len(res.Failed) > 0 {
		res.Status = StatusPartialFailure
		for _, f := range res.Failed {
			o.log.Warn("save operation failed", zap.String("op", f.Op.String()), zap.Error(f.Err))
		}
		return res, nil
	}

	if err := o.store.ResolveIDs(ctx, o.takeResolved(d)); err != nil {
		o.log.Warn("write durable draft after save", zap.Error(err))
	}
	o.store.MarkSaved()
	res.Status = StatusSuccess
	o.log.Info("save complete", zap.Int("ops", len(res.Applied)), zap.Duration("dur", res.Duration))
	return res, nil
}

// route rewrites creates that already succeeded in an earlier save into full updates,
// and returns deletes for such records that are no longer in the draft.
func (o *Orchestrator) route(plan reconcile.Plan, d model.Profile) (ops, cleanup []reconcile.Operation) {
	o.mu.Lock()
	defer o.mu.Unlock()

	ops = make([]reconcile.Operation, 0, plan.Len())
	for _, op := range plan.Ops {
		if op.Type == reconcile.OpCreate {
			if rec, ok := o.created[op.ID]; ok {
				ops = append(ops, reconcile.Operation{Type: reconcile.OpUpdate, Kind: op.Kind, ID: rec.id, Fields: op.Fields})
				continue
			}
		}
		ops = append(ops, op)
	}

	for tmp, rec := range o.created {
		if d.LinkIndex(tmp) < 0 && d.SocialIndex(tmp) < 0 {
			cleanup = append(cleanup, reconcile.Operation{Type: reconcile.OpDelete, Kind: rec.kind, ID: rec.id})
		}
	}
	return ops, cleanup
}

type outcome struct {
	op      reconcile.Operation
	created PersistedRecord
	err     error
}

func (o *Orchestrator) dispatch(ctx context.Context, ops []reconcile.Operation) []outcome {
	out := make([]outcome, len(ops))
	var g errgroup.Group
	if o.parallelism > 0 {
		g.SetLimit(o.parallelism)
	}
	for i, op := range ops {
		g.Go(func() error {
			out[i] = o.apply(ctx, op)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (o *Orchestrator) apply(ctx context.Context, op reconcile.Operation) outcome {
	oc := outcome{op: op}
	switch op.Type {
	case reconcile.OpScalar:
		oc.err = o.remote.UpdateScalarGroup(ctx, op.Group, op.Fields)
	case reconcile.OpCreate:
		oc.created, oc.err = o.remote.CreateRecord(ctx, op.Kind, op.Fields)
	case reconcile.OpUpdate:
		oc.err = o.remote.UpdateRecord(ctx, op.Kind, op.ID, op.Fields)
		if errors.Is(oc.err, errs.ErrNotFound) {
			oc.err = fmt.Errorf("%w: %w", errs.ErrRecordGone, oc.err)
		}
	case reconcile.OpDelete:
		oc.err = o.remote.DeleteRecord(ctx, op.Kind, op.ID)
		if errors.Is(oc.err, errs.ErrNotFound) {
			o.log.Debug("delete of missing record treated as done", zap.String("id", op.ID))
			oc.err = nil
		}
	case reconcile.OpReorder:
		oc.err = o.remote.ReorderRecords(ctx, op.Kind, op.Order)
	default:
		oc.err = fmt.Errorf("unknown operation type %q", op.Type)
	}
	return oc
}

// record folds a successful outcome into the created-record ledger.
func (o *Orchestrator) record(oc outcome, created map[string]string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	switch oc.op.Type {
	case reconcile.OpCreate:
		o.created[oc.op.ID] = createdRecord{kind: oc.op.Kind, id: oc.created.ID}
		created[oc.op.ID] = oc.created.ID
	case reconcile.OpDelete:
		for tmp, rec := range o.created {
			if rec.id == oc.op.ID {
				delete(o.created, tmp)
			}
		}
	}
}

// resolvedOrder is the draft order of kind with temporary ids replaced by persisted ones.
// Records unknown to both the baseline and the ledger are left out.
func (o *Orchestrator) resolvedOrder(kind model.RecordKind, original, d model.Profile) []string {
	o.mu.Lock()
	defer o.mu.Unlock()

	known := map[string]bool{}
	var ids []string
	switch kind {
	case model.KindLink:
		for _, l := range original.Links {
			known[l.ID] = true
		}
		for _, l := range d.Links {
			ids = append(ids, l.ID)
		}
	case model.KindSocial:
		for _, s := range original.Socials {
			known[s.ID] = true
		}
		for _, s := range d.Socials {
			ids = append(ids, s.ID)
		}
	}

	order := make([]string, 0, len(ids))
	for _, id := range ids {
		if rec, ok := o.created[id]; ok {
			order = append(order, rec.id)
			continue
		}
		if known[id] && !model.IsTempID(id) {
			order = append(order, id)
		}
	}
	return order
}

// takeResolved empties the ledger and returns the id mapping for records still in the draft.
func (o *Orchestrator) takeResolved(d model.Profile) map[string]string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make(map[string]string, len(o.created))
	for tmp, rec := range o.created {
		if d.LinkIndex(tmp) >= 0 || d.SocialIndex(tmp) >= 0 {
			out[tmp] = rec.id
		}
	}
	o.created = map[string]createdRecord{}
	return out
}
