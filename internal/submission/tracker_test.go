package submission

import (
	"errors"
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestSubmitAndSettle(t *testing.T) {
	tr := NewTracker()

	tk := tr.Submit(KindSetCompleted, SetCompletedInput{ID: "1", Completed: true})

	subs := tr.Snapshot()
	assert.Equal(t, 1, len(subs))
	assert.Equal(t, true, subs[0].Pending)
	assert.Equal(t, KindSetCompleted, subs[0].Kind)

	tk.Settle(nil)
	subs = tr.Snapshot()
	assert.Equal(t, false, subs[0].Pending)
	assert.Equal(t, nil, subs[0].Err)
}

func TestSettleWithError(t *testing.T) {
	tr := NewTracker()
	boom := errors.New("boom")

	tk := tr.Submit(KindCreate, CreateInput{Text: "x"})
	tk.Settle(boom)
	// settle is once-only; a second call must not clear the error
	tk.Settle(nil)

	subs := tr.Snapshot()
	assert.Equal(t, false, subs[0].Pending)
	assert.Equal(t, boom, subs[0].Err)
}

func TestPendingFiltersByKindAndState(t *testing.T) {
	tr := NewTracker()

	tr.Submit(KindCreate, CreateInput{Text: "x"})
	a := tr.Submit(KindSetCompleted, SetCompletedInput{ID: "1", Completed: true})
	tr.Submit(KindSetCompleted, SetCompletedInput{ID: "2", Completed: false})

	pending := tr.Pending(KindSetCompleted)
	assert.Equal(t, 2, len(pending))
	// submission order preserved
	assert.Equal(t, SetCompletedInput{ID: "1", Completed: true}, pending[0].Input)

	a.Settle(nil)
	pending = tr.Pending(KindSetCompleted)
	assert.Equal(t, 1, len(pending))
	assert.Equal(t, SetCompletedInput{ID: "2", Completed: false}, pending[0].Input)
}

func TestCoexistingInvocationsForSameId(t *testing.T) {
	tr := NewTracker()

	tr.Submit(KindSetCompleted, SetCompletedInput{ID: "1", Completed: true})
	tr.Submit(KindSetCompleted, SetCompletedInput{ID: "1", Completed: false})

	// registry is keyed by invocation, not by todo id
	assert.Equal(t, 2, len(tr.Pending(KindSetCompleted)))
}

func TestSnapshotIsACopy(t *testing.T) {
	tr := NewTracker()
	tk := tr.Submit(KindSetCompleted, SetCompletedInput{ID: "1", Completed: true})

	subs := tr.Snapshot()
	subs[0].Pending = false

	assert.Equal(t, true, tr.Snapshot()[0].Pending)
	tk.Settle(nil)
}

func TestPrune(t *testing.T) {
	tr := NewTracker()

	a := tr.Submit(KindCreate, CreateInput{Text: "x"})
	tr.Submit(KindCreate, CreateInput{Text: "y"})
	a.Settle(errors.New("boom"))

	tr.Prune()
	subs := tr.Snapshot()
	assert.Equal(t, 1, len(subs))
	assert.Equal(t, CreateInput{Text: "y"}, subs[0].Input)
}

func TestSubscribeNotifiesOnSubmitAndSettle(t *testing.T) {
	tr := NewTracker()

	n := 0
	cancel := tr.Subscribe(func() { n++ })

	tk := tr.Submit(KindCreate, CreateInput{Text: "x"})
	assert.Equal(t, 1, n)
	tk.Settle(nil)
	assert.Equal(t, 2, n)

	cancel()
	tr.Submit(KindCreate, CreateInput{Text: "y"})
	assert.Equal(t, 2, n)
}

func TestSeqIsMonotonic(t *testing.T) {
	tr := NewTracker()
	tr.Submit(KindCreate, CreateInput{Text: "x"})
	tr.Submit(KindCreate, CreateInput{Text: "y"})

	subs := tr.Snapshot()
	if subs[0].Seq >= subs[1].Seq {
		t.Fatalf("expected increasing seq, got %d then %d", subs[0].Seq, subs[1].Seq)
	}
}
