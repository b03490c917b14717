// Package submission tracks in-flight mutation invocations. The
// tracker is an ordered registry keyed by invocation, not by todo id:
// several invocations may target the same todo and coexist as
// distinct entries. It is per-process, in-memory state.
package submission

import (
	"slices"
	"sync"

	"github.com/idilsaglam/optodo/internal/model"
)

type Kind string

const (
	KindCreate       Kind = "create"
	KindSetCompleted Kind = "set-completed"
)

// CreateInput carries the arguments of a Create invocation.
type CreateInput struct {
	Text string
}

// SetCompletedInput carries the arguments of a SetCompleted
// invocation.
type SetCompletedInput struct {
	ID        model.ID
	Completed bool
}

// Submission is a value snapshot of one invocation. Seq reflects
// submission order and is unique per tracker.
type Submission struct {
	Seq     uint64
	Kind    Kind
	Input   any // CreateInput or SetCompletedInput
	Pending bool
	Err     error
}

type Tracker struct {
	mu      sync.Mutex
	next    uint64
	entries []*Submission
	subs    []*callback
}

type callback struct {
	fn func()
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// Submit registers an invocation and returns its ticket. Called
// synchronously at the top of an operation, before any store work.
func (t *Tracker) Submit(kind Kind, input any) *Ticket {
	t.mu.Lock()
	t.next++
	s := &Submission{Seq: t.next, Kind: kind, Input: input, Pending: true}
	t.entries = append(t.entries, s)
	t.mu.Unlock()

	t.notify()
	return &Ticket{t: t, s: s}
}

// Snapshot returns value copies of all entries in submission order,
// settled ones included.
func (t *Tracker) Snapshot() []Submission {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Submission, 0, len(t.entries))
	for _, s := range t.entries {
		out = append(out, *s)
	}
	return out
}

// Pending returns value copies of the unsettled entries for kind, in
// submission order.
func (t *Tracker) Pending(kind Kind) []Submission {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []Submission
	for _, s := range t.entries {
		if s.Kind == kind && s.Pending {
			out = append(out, *s)
		}
	}
	return out
}

// Prune drops settled entries. Callers (the UI) run it once they have
// consumed any errors.
func (t *Tracker) Prune() {
	t.mu.Lock()
	t.entries = slices.DeleteFunc(t.entries, func(s *Submission) bool {
		return !s.Pending
	})
	t.mu.Unlock()
}

// Subscribe registers fn to run after every submit and settle. The
// returned func cancels the subscription.
func (t *Tracker) Subscribe(fn func()) func() {
	cb := &callback{fn: fn}
	t.mu.Lock()
	t.subs = append(t.subs, cb)
	t.mu.Unlock()
	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if i := slices.Index(t.subs, cb); 0 <= i {
			t.subs = slices.Delete(slices.Clone(t.subs), i, i+1)
		}
	}
}

func (t *Tracker) notify() {
	t.mu.Lock()
	subs := slices.Clone(t.subs)
	t.mu.Unlock()
	for _, cb := range subs {
		cb.fn()
	}
}

// Ticket settles its submission exactly once.
type Ticket struct {
	t    *Tracker
	s    *Submission
	once sync.Once
}

// Settle flips the entry to settled, recording err on failure. A
// settled entry stops predicting an outcome in the optimistic view.
func (tk *Ticket) Settle(err error) {
	tk.once.Do(func() {
		tk.t.mu.Lock()
		tk.s.Pending = false
		tk.s.Err = err
		tk.t.mu.Unlock()
		tk.t.notify()
	})
}
