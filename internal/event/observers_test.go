package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublishOrder(t *testing.T) {
	var obs Observers[int]
	var got []string

	obs.Subscribe(func(v int) { got = append(got, "a") })
	obs.Subscribe(func(v int) { got = append(got, "b") })

	obs.Publish(1)
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestReleaseRemovesOnlyThatObserver(t *testing.T) {
	var obs Observers[string]
	var a, b int

	subA := obs.Subscribe(func(string) { a++ })
	obs.Subscribe(func(string) { b++ })

	subA.Release()
	subA.Release()
	obs.Publish("x")

	assert.Equal(t, 0, a)
	assert.Equal(t, 1, b)
	assert.Equal(t, 1, obs.Len())
}

func TestReleaseDuringPublish(t *testing.T) {
	var obs Observers[struct{}]
	calls := 0

	var sub *Subscription
	sub = obs.Subscribe(func(struct{}) {
		calls++
		sub.Release()
	})

	obs.Publish(struct{}{})
	obs.Publish(struct{}{})
	assert.Equal(t, 1, calls)
}

func TestNilSubscriptionRelease(t *testing.T) {
	var sub *Subscription
	assert.NotPanics(t, sub.Release)
}
