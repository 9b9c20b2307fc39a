// Package reconcile computes the operations that bring the server copy of a profile
// in line with a locally edited draft.
package reconcile

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/and161185/ohmylink/internal/model"
)

// OpType is the kind of persistence call an Operation maps to.
type OpType string

const (
	OpCreate  OpType = "create"
	OpUpdate  OpType = "update"
	OpDelete  OpType = "delete"
	OpReorder OpType = "reorder"
	OpScalar  OpType = "scalar"
)

// Operation is one persistence call.
//
// For create, ID holds the temporary id so the persisted id can be mapped back.
// For reorder, Order holds the full persisted-id sequence of the collection.
// For scalar, Group names the group and Fields holds the changed keys.
type Operation struct {
	Type   OpType
	Kind   model.RecordKind
	Group  model.ScalarGroup
	ID     string
	Fields model.Fields
	Order  []string
}

func (op Operation) String() string {
	switch op.Type {
	case OpScalar:
		return fmt.Sprintf("scalar %s %v", op.Group, op.Fields.Keys())
	case OpReorder:
		return fmt.Sprintf("reorder %s [%s]", op.Kind, strings.Join(op.Order, " "))
	case OpUpdate:
		return fmt.Sprintf("update %s %s %v", op.Kind, op.ID, op.Fields.Keys())
	default:
		return fmt.Sprintf("%s %s %s", op.Type, op.Kind, op.ID)
	}
}

// Plan is the ordered result of Diff.
type Plan struct {
	Ops []Operation
	// Deferred lists collections whose final ordering cannot be expressed until
	// pending creates have persisted ids.
	Deferred []model.RecordKind
}

// Empty reports whether nothing needs to be sent.
func (p Plan) Empty() bool { return len(p.Ops) == 0 }

// Len returns the number of operations.
func (p Plan) Len() int { return len(p.Ops) }

// Count returns the number of operations of type t.
func (p Plan) Count(t OpType) int {
	n := 0
	for _, op := range p.Ops {
		if op.Type == t {
			n++
		}
	}
	return n
}

// ForKind returns the record operations for one collection.
func (p Plan) ForKind(k model.RecordKind) []Operation {
	var out []Operation
	for _, op := range p.Ops {
		if op.Type != OpScalar && op.Kind == k {
			out = append(out, op)
		}
	}
	return out
}

// IsDeferred reports whether k needs an ordering pass after its creates resolve.
func (p Plan) IsDeferred(k model.RecordKind) bool {
	return slices.Contains(p.Deferred, k)
}

func (p Plan) String() string {
	if p.Empty() {
		return "no changes"
	}
	lines := make([]string, len(p.Ops))
	for i, op := range p.Ops {
		lines[i] = op.String()
	}
	return strings.Join(lines, "\n")
}

// record is the common view of a child record used by the collection diff.
type record interface {
	RecordID() string
	RecordFields() model.Fields
}

// Diff compares original (last known server state) with draft and returns the
// operations that reconcile them: scalar groups first, then per collection deletes,
// creates and updates, and finally a reorder. It is pure.
func Diff(original, draft model.Profile) Plan {
	var plan Plan

	for _, g := range model.Groups {
		before, after := model.GroupFields(original, g), model.GroupFields(draft, g)
		changed := changedFields(before, after)
		if len(changed) == 0 {
			continue
		}
		// the background union is sent whole so the server never mixes variants
		if g == model.GroupBackground {
			changed = after
		}
		plan.Ops = append(plan.Ops, Operation{Type: OpScalar, Group: g, Fields: changed})
	}

	links := diffCollection(model.KindLink, original.Links, draft.Links)
	plan.Ops = append(plan.Ops, links.ops...)
	if links.deferred {
		plan.Deferred = append(plan.Deferred, model.KindLink)
	}
	socials := diffCollection(model.KindSocial, original.Socials, draft.Socials)
	plan.Ops = append(plan.Ops, socials.ops...)
	if socials.deferred {
		plan.Deferred = append(plan.Deferred, model.KindSocial)
	}
	return plan
}

type collectionDiff struct {
	ops      []Operation
	deferred bool
}

func diffCollection[T record](kind model.RecordKind, original, draft []T) collectionDiff {
	var out collectionDiff

	byID := make(map[string]T, len(original))
	for _, r := range original {
		byID[r.RecordID()] = r
	}
	inDraft := make(map[string]bool, len(draft))
	for _, r := range draft {
		inDraft[r.RecordID()] = true
	}

	for _, r := range original {
		if !inDraft[r.RecordID()] && !model.IsTempID(r.RecordID()) {
			out.ops = append(out.ops, Operation{Type: OpDelete, Kind: kind, ID: r.RecordID()})
		}
	}

	var (
		persisted []string
		creates   int
		tempAt    = -1
	)
	for i, r := range draft {
		id := r.RecordID()
		if model.IsTempID(id) {
			out.ops = append(out.ops, Operation{Type: OpCreate, Kind: kind, ID: id, Fields: r.RecordFields()})
			creates++
			if tempAt < 0 {
				tempAt = i
			}
			continue
		}
		prev, ok := byID[id]
		if !ok {
			// persisted elsewhere but unknown to original: nothing to route it to
			continue
		}
		persisted = append(persisted, id)
		if changed := changedFields(prev.RecordFields(), r.RecordFields()); len(changed) > 0 {
			out.ops = append(out.ops, Operation{Type: OpUpdate, Kind: kind, ID: id, Fields: changed})
		}
	}

	// Deletes compact positions on the server, so only the survivors' relative order counts.
	var survivors []string
	for _, r := range original {
		if inDraft[r.RecordID()] && !model.IsTempID(r.RecordID()) {
			survivors = append(survivors, r.RecordID())
		}
	}
	reordered := !slices.Equal(survivors, persisted)

	if creates == 0 {
		if reordered {
			out.ops = append(out.ops, Operation{Type: OpReorder, Kind: kind, Order: persisted})
		}
		return out
	}
	// creates append on the server; only a single trailing create lands where the draft has it
	tailOnly := creates == 1 && tempAt == len(draft)-1
	out.deferred = reordered || !tailOnly
	return out
}

// changedFields returns the keys of after whose value differs from before.
func changedFields(before, after model.Fields) model.Fields {
	var out model.Fields
	for k, v := range after {
		if pv, ok := before[k]; ok && reflect.DeepEqual(pv, v) {
			continue
		}
		if out == nil {
			out = model.Fields{}
		}
		out[k] = v
	}
	return out
}
