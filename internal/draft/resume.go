package draft

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Choice is the user's answer to the resume prompt.
type Choice int

const (
	ChoiceRestore Choice = iota
	ChoiceDiscard
)

// Resolution reports what the detector did.
type Resolution int

const (
	ResolutionClean Resolution = iota
	ResolutionRestored
	ResolutionDiscarded
)

func (r Resolution) String() string {
	switch r {
	case ResolutionRestored:
		return "restored"
	case ResolutionDiscarded:
		return "discarded"
	default:
		return "clean"
	}
}

// Prompter asks the user whether to keep a draft left over from an earlier session.
// pending is the number of operations the leftover draft would produce.
type Prompter interface {
	PromptResume(ctx context.Context, pending int) (Choice, error)
}

// PrompterFunc adapts a function to Prompter.
type PrompterFunc func(ctx context.Context, pending int) (Choice, error)

// PromptResume calls f.
func (f PrompterFunc) PromptResume(ctx context.Context, pending int) (Choice, error) {
	return f(ctx, pending)
}

// Detector runs the resume check exactly once, right after Store.Initialize and before
// any edit, so a dirty store can only mean a leftover draft.
type Detector struct {
	store  *Store
	prompt Prompter
	count  func() int
	log    *zap.Logger

	once sync.Once
	res  Resolution
	err  error
}

// NewDetector builds a detector. count reports the pending operation count shown to the user.
func NewDetector(store *Store, prompt Prompter, count func() int, log *zap.Logger) *Detector {
	if log == nil {
		log = zap.NewNop()
	}
	return &Detector{store: store, prompt: prompt, count: count, log: log}
}

// Check prompts when the freshly initialized store is dirty. Later calls return the first result.
// A failing prompt keeps the draft.
func (d *Detector) Check(ctx context.Context) (Resolution, error) {
	d.once.Do(func() {
		if !d.store.IsDirty() {
			d.res = ResolutionClean
			return
		}
		pending := 0
		if d.count != nil {
			pending = d.count()
		}
		choice, err := d.prompt.PromptResume(ctx, pending)
		if err != nil {
			d.log.Warn("resume prompt failed, keeping draft", zap.Error(err))
			choice = ChoiceRestore
		}
		if choice == ChoiceDiscard {
			// The in-memory draft is discarded even when the durable write fails.
			d.res = ResolutionDiscarded
			d.err = d.store.DiscardChanges(ctx)
			return
		}
		d.res = ResolutionRestored
	})
	return d.res, d.err
}
