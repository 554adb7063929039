package arris

import (
	"context"
	"sync"
)

// Rendezvous turns the asynchronous discard question into a blocking call.
// Ask publishes EventAskDiscard and waits for the first
// EventAnswerReceived; the listener is removed as soon as an answer
// arrives, so later answers do not leak into the next question.
type Rendezvous struct {
	bus *Bus
}

// NewRendezvous creates a Rendezvous on bus.
func NewRendezvous(bus *Bus) *Rendezvous {
	return &Rendezvous{bus: bus}
}

// Ask blocks until the UI answers whether unsaved edits may be discarded.
// It never times out; it returns early only when ctx is cancelled.
// The UI may answer synchronously from its EventAskDiscard handler or later
// from any goroutine.
func (r *Rendezvous) Ask(ctx context.Context) (bool, error) {
	answers := make(chan bool, 1)
	var once sync.Once
	unsubscribe := r.bus.Subscribe(EventAnswerReceived, func(e Event) {
		once.Do(func() { answers <- e.Answer })
	})
	defer unsubscribe()

	r.bus.Publish(Event{Kind: EventAskDiscard})

	select {
	case answer := <-answers:
		unsubscribe()
		return answer, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// Answer publishes the UI's answer to a pending discard question.
func Answer(bus *Bus, discard bool) {
	bus.Publish(Event{Kind: EventAnswerReceived, Answer: discard})
}
