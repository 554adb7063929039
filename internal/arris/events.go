package arris

import (
	"fmt"
	"sync"
)

// EventKind identifies the kind of an Event.
type EventKind int

const (
	// EventFilesUpdated: a directory was loaded. Directory and Files are set.
	EventFilesUpdated EventKind = iota
	// EventFilesNotUpdated: a directory change was cancelled; the UI should
	// restore the previously selected directory.
	EventFilesNotUpdated
	// EventMetadataUpdated: View holds the metadata to display for the
	// current selection.
	EventMetadataUpdated
	// EventSelectionChanged: Indices holds the new selection.
	EventSelectionChanged
	// EventEdited: the files in Indices were edited.
	EventEdited
	// EventFilesRenamed: Renamed lists the staged renames.
	EventFilesRenamed
	// EventFileDeleted: the file at Index was removed from disk.
	EventFileDeleted
	// EventAskDiscard asks the UI whether unsaved edits may be discarded.
	// The UI answers by publishing EventAnswerReceived.
	EventAskDiscard
	// EventAnswerReceived carries the answer to EventAskDiscard in Answer.
	EventAnswerReceived
	// EventDiscardEdits: all unsaved edits were dropped.
	EventDiscardEdits
	// EventProgress: Progress of Total files of the running batch were
	// handled.
	EventProgress
	// EventSaved: a save pass completed for every file.
	EventSaved
	// EventSaveFailed: a save pass completed with per-file failures listed
	// in Report.
	EventSaveFailed
	// EventStateEntered: a state machine region entered State.
	EventStateEntered
	// EventThumbnailReady: Thumbnail was decoded for a selected file.
	EventThumbnailReady
)

var eventKindNames = map[EventKind]string{
	EventFilesUpdated:     "files_updated",
	EventFilesNotUpdated:  "files_not_updated",
	EventMetadataUpdated:  "metadata_updated",
	EventSelectionChanged: "selection_changed",
	EventEdited:           "edited",
	EventFilesRenamed:     "files_renamed",
	EventFileDeleted:      "file_deleted",
	EventAskDiscard:       "ask_discard",
	EventAnswerReceived:   "answer_received",
	EventDiscardEdits:     "discard_edits",
	EventProgress:         "progress",
	EventSaved:            "saved",
	EventSaveFailed:       "save_failed",
	EventStateEntered:     "state_entered",
	EventThumbnailReady:   "thumbnail_ready",
}

func (k EventKind) String() string {
	if name, ok := eventKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("event(%d)", int(k))
}

// Event is a message delivered through a Bus. Only the fields documented
// for its Kind are set.
type Event struct {
	Kind      EventKind
	Directory string
	Files     []string
	Indices   []int
	Index     int
	Answer    bool
	Progress  int
	Total     int
	View      *DisplayView
	Renamed   []Renamed
	Report    *CommitReport
	State     StateChange
	Thumbnail *Thumbnail
}

// Handler receives events from a Bus.
type Handler func(Event)

type subscription struct {
	id      int
	handler Handler
}

// Bus dispatches events to subscribers. Publish calls handlers
// synchronously, in subscription order, on the publishing goroutine.
// Handlers may subscribe and unsubscribe while an event is delivered.
// It is safe for concurrent use.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[EventKind][]subscription
}

// NewBus creates an empty Bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[EventKind][]subscription)}
}

// Subscribe registers h for events of the given kind and returns a function
// that removes the subscription. The returned function is idempotent.
func (b *Bus) Subscribe(kind EventKind, h Handler) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[kind] = append(b.subs[kind], subscription{id: id, handler: h})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.unsubscribe(kind, id) })
	}
}

func (b *Bus) unsubscribe(kind EventKind, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[kind]
	for i, s := range subs {
		if s.id == id {
			b.subs[kind] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// Publish delivers e to every handler subscribed to e.Kind.
func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	subs := append([]subscription(nil), b.subs[e.Kind]...)
	b.mu.Unlock()

	for _, s := range subs {
		s.handler(e)
	}
}
