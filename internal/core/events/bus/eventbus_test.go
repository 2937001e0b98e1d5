package bus

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReachesOnlyMatchingTopicAndKind(t *testing.T) {
	b := New()
	var got []string
	_, err := b.Subscribe("job-1", "completed", func(e Event) error {
		got = append(got, e.Source())
		return nil
	})
	require.NoError(t, err)
	_, _ = b.Subscribe("job-2", "completed", func(e Event) error {
		got = append(got, "wrong topic")
		return nil
	})
	_, _ = b.Subscribe("job-1", "stopped", func(e Event) error {
		got = append(got, "wrong kind")
		return nil
	})

	require.NoError(t, b.Publish("job-1", NewEvent("completed", "tester", nil)))
	assert.Equal(t, []string{"tester"}, got)
}

func TestCancelIsSymmetricAndIdempotent(t *testing.T) {
	b := New()
	calls := 0
	sub, err := b.Subscribe("t", "k", func(Event) error { calls++; return nil })
	require.NoError(t, err)
	assert.Equal(t, 1, b.Len("t"))

	require.NoError(t, b.Unsubscribe(sub))
	require.NoError(t, sub.Cancel())
	assert.False(t, sub.IsActive())
	assert.Equal(t, 0, b.Len("t"))

	require.NoError(t, b.Publish("t", NewEvent("k", "", nil)))
	assert.Equal(t, 0, calls)
	assert.NoError(t, b.Unsubscribe(nil))
}

func TestDropTopicClearsAllHandlers(t *testing.T) {
	b := New()
	s1, _ := b.Subscribe("building", "removed", func(Event) error { return nil })
	s2, _ := b.Subscribe("building", "operating", func(Event) error { return nil })
	_, _ = b.Subscribe("other", "removed", func(Event) error { return nil })

	b.DropTopic("building")
	assert.Equal(t, 0, b.Len("building"))
	assert.Equal(t, 1, b.Len("other"))
	assert.False(t, s1.IsActive())
	assert.False(t, s2.IsActive())
}

func TestHandlerMayUnsubscribeDuringDelivery(t *testing.T) {
	b := New()
	var order []int
	var first Subscription
	first, _ = b.Subscribe("t", "k", func(Event) error {
		order = append(order, 1)
		return first.Cancel()
	})
	_, _ = b.Subscribe("t", "k", func(Event) error {
		order = append(order, 2)
		return nil
	})

	require.NoError(t, b.Publish("t", NewEvent("k", "", nil)))
	require.NoError(t, b.Publish("t", NewEvent("k", "", nil)))
	assert.Equal(t, []int{1, 2, 2}, order)
}

func TestErrorsAreJoined(t *testing.T) {
	b := New()
	e1, e2 := errors.New("a"), errors.New("b")
	_, _ = b.Subscribe("t", "k", func(Event) error { return e1 })
	_, _ = b.Subscribe("t", "k", func(Event) error { return e2 })

	err := b.Publish("t", NewEvent("k", "", nil))
	assert.ErrorIs(t, err, e1)
	assert.ErrorIs(t, err, e2)

	_, err = b.Subscribe("t", "k", nil)
	assert.ErrorIs(t, err, ErrNilHandler)
}
