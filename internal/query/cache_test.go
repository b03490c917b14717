package query

import (
	"context"
	"errors"
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestGetCachesUntilInvalidated(t *testing.T) {
	c := New[int]()
	fetches := 0
	c.Register("n", func(ctx context.Context) (int, error) {
		fetches++
		return fetches, nil
	})

	ctx := context.Background()
	v, err := c.Get(ctx, "n")
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, v)

	// second read is served from cache
	v, _ = c.Get(ctx, "n")
	assert.Equal(t, 1, v)
	assert.Equal(t, 1, fetches)

	c.Invalidate("n")
	v, _ = c.Get(ctx, "n")
	assert.Equal(t, 2, v)
	assert.Equal(t, 2, fetches)
}

func TestPeekSurvivesInvalidation(t *testing.T) {
	c := New[string]()
	c.Register("k", func(ctx context.Context) (string, error) {
		return "snapshot", nil
	})

	if _, ok := c.Peek("k"); ok {
		t.Fatal("peek before first fetch should report nothing")
	}

	c.Get(context.Background(), "k")
	c.Invalidate("k")

	v, ok := c.Peek("k")
	assert.Equal(t, true, ok)
	assert.Equal(t, "snapshot", v)
}

func TestGetUnknownKey(t *testing.T) {
	c := New[int]()
	_, err := c.Get(context.Background(), "nope")

	var uk *UnknownKeyError
	assert.Equal(t, true, errors.As(err, &uk))
	assert.Equal(t, "nope", uk.Key)
}

func TestFailedFetchLeavesEntryInvalid(t *testing.T) {
	c := New[int]()
	boom := errors.New("boom")
	fail := true
	c.Register("n", func(ctx context.Context) (int, error) {
		if fail {
			return 0, boom
		}
		return 7, nil
	})

	ctx := context.Background()
	_, err := c.Get(ctx, "n")
	assert.Equal(t, boom, err)

	fail = false
	v, err := c.Get(ctx, "n")
	assert.Equal(t, nil, err)
	assert.Equal(t, 7, v)
}

func TestInvalidateDuringFetchKeepsEntryStale(t *testing.T) {
	c := New[int]()
	val := 1
	fetches := 0
	started := make(chan struct{})
	release := make(chan struct{})
	c.Register("n", func(ctx context.Context) (int, error) {
		fetches++
		v := val
		if fetches == 1 {
			close(started)
			<-release
		}
		return v, nil
	})

	done := make(chan int, 1)
	go func() {
		v, _ := c.Get(context.Background(), "n")
		done <- v
	}()

	// a write commits and invalidates while the first fetch is still
	// in flight, so its result is already stale when it lands
	<-started
	val = 2
	c.Invalidate("n")
	close(release)
	assert.Equal(t, 1, <-done)

	// the stale result is visible to Peek but must not re-validate
	// the entry: the next Get refetches and sees the write
	peeked, ok := c.Peek("n")
	assert.Equal(t, true, ok)
	assert.Equal(t, 1, peeked)

	v, err := c.Get(context.Background(), "n")
	assert.Equal(t, nil, err)
	assert.Equal(t, 2, v)
	assert.Equal(t, 2, fetches)
}

func TestSubscribeOnInvalidate(t *testing.T) {
	c := New[int]()
	c.Register("n", func(ctx context.Context) (int, error) { return 1, nil })

	var keys []string
	cancel := c.Subscribe(func(key string) { keys = append(keys, key) })

	c.Invalidate("n")
	assert.Equal(t, []string{"n"}, keys)

	cancel()
	c.Invalidate("n")
	assert.Equal(t, 1, len(keys))
}
