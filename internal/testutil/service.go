package testutil

import (
	"sync"
	"testing"
	"time"

	"arris/internal/arris"
)

// Env is an ArrisService wired to in-memory fakes.
type Env struct {
	FS          *MockFilesystemManager
	Codec       *MockCodec
	Transformer *MockTransformer
	Bus         *arris.Bus
	Clock       *StubClock
	Service     *arris.ArrisService
	Events      *EventRecorder
}

// NewTestEnv creates an ArrisService on a fresh mock filesystem with the
// given journal, which may be nil. EXIF dates are read in UTC.
func NewTestEnv(t *testing.T, journal arris.Journal) *Env {
	t.Helper()
	fsmgr := NewMockFilesystemManager()
	codec := NewMockCodec(fsmgr)
	transformer := NewMockTransformer(fsmgr)
	bus := arris.NewBus()
	clock := FixedClock()
	events := NewEventRecorder(bus)

	svc := arris.NewArrisService(bus, codec, transformer, fsmgr, journal, nil, arris.NewNopLogger(), clock, NewStubIDGenerator(), arris.Settings{
		DefaultZone: time.UTC,
		Language:    "en-US",
	})
	t.Cleanup(func() { svc.Close() })

	return &Env{
		FS:          fsmgr,
		Codec:       codec,
		Transformer: transformer,
		Bus:         bus,
		Clock:       clock,
		Service:     svc,
		Events:      events,
	}
}

// EventRecorder records every event published on a bus. Safe for
// concurrent use.
type EventRecorder struct {
	mu     sync.Mutex
	events []arris.Event
}

// NewEventRecorder subscribes a recorder to all event kinds of bus.
func NewEventRecorder(bus *arris.Bus) *EventRecorder {
	r := &EventRecorder{}
	for kind := arris.EventFilesUpdated; kind <= arris.EventThumbnailReady; kind++ {
		bus.Subscribe(kind, func(e arris.Event) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.events = append(r.events, e)
		})
	}
	return r
}

// Events returns the recorded events of the given kind, in order.
func (r *EventRecorder) Events(kind arris.EventKind) []arris.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []arris.Event
	for _, e := range r.events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// Kinds returns the kinds of all recorded events, in order.
func (r *EventRecorder) Kinds() []arris.EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]arris.EventKind, len(r.events))
	for i, e := range r.events {
		out[i] = e.Kind
	}
	return out
}

// Reset forgets the recorded events.
func (r *EventRecorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
