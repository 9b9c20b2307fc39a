package editor

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// DefaultConfirmWindow is how long a blocked leave attempt stays armed.
const DefaultConfirmWindow = 3 * time.Second

// Guard blocks leaving the editor while there are unsaved changes.
// It owns no draft state; dirty is read on every attempt.
// A blocked attempt arms a confirmation window: a second attempt inside it leaves.
type Guard struct {
	dirty  func() bool
	out    io.Writer
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	armedAt time.Time
}

// NewGuard builds a guard printing its warning to out.
func NewGuard(dirty func() bool, out io.Writer) *Guard {
	return &Guard{dirty: dirty, out: out, window: DefaultConfirmWindow, now: time.Now}
}

// SetWindow changes the confirmation window; non-positive values keep the current one.
func (g *Guard) SetWindow(d time.Duration) {
	if d <= 0 {
		return
	}
	g.mu.Lock()
	g.window = d
	g.mu.Unlock()
}

// TryLeave reports whether leaving is allowed now.
func (g *Guard) TryLeave() bool {
	if !g.dirty() {
		return true
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()
	if !g.armedAt.IsZero() && now.Sub(g.armedAt) <= g.window {
		g.armedAt = time.Time{}
		return true
	}
	g.armedAt = now
	fmt.Fprintf(g.out, "\nYou have unsaved changes. Repeat within %s to leave anyway, or run \"save\".\n", g.window)
	return false
}

// Watch consumes leave signals until ctx ends, calling leave once leaving is allowed.
func (g *Guard) Watch(ctx context.Context, signals <-chan os.Signal, leave func()) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-signals:
			if g.TryLeave() {
				leave()
				return
			}
		}
	}
}
