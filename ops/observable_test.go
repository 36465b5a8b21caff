package ops

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObservableBaseFiresAllSubscribers(t *testing.T) {
	o := newObservableBase()
	var a, b int
	o.Observe(EventStart, func() { a++ })
	o.Observe(EventStart, func() { b++ })
	o.Observe(EventStop, func() { a += 100 })

	o.fire(EventStart)
	assert.Equal(t, 1, a)
	assert.Equal(t, 1, b)

	o.fire(EventStop)
	assert.Equal(t, 101, a)
}

func TestObservableBaseUnsubscribe(t *testing.T) {
	o := newObservableBase()
	var calls int
	ticket := o.Observe(EventCompletion, func() { calls++ })

	o.fire(EventCompletion)
	assert.Equal(t, 1, calls)

	ticket.Unsubscribe()
	o.fire(EventCompletion)
	assert.Equal(t, 1, calls, "an unsubscribed observer must not fire again")

	ticket.Unsubscribe() // must be safe to call twice
}

func TestObservableBaseNilTicketUnsubscribeIsSafe(t *testing.T) {
	var ticket *Ticket
	assert.NotPanics(t, func() { ticket.Unsubscribe() })
}
