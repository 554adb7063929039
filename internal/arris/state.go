package arris

import (
	"fmt"
	"sync"
)

// EditState tells whether the loaded files carry unsaved edits.
type EditState int

const (
	NotEdited EditState = iota
	Edited
)

func (s EditState) String() string {
	switch s {
	case NotEdited:
		return "not_edited"
	case Edited:
		return "edited"
	default:
		return fmt.Sprintf("edit_state(%d)", int(s))
	}
}

// SelectionState is the UI mode derived from the number of selected files.
type SelectionState int

const (
	SelectionInitial SelectionState = iota
	SelectionZero
	SelectionOne
	SelectionMany
)

func (s SelectionState) String() string {
	switch s {
	case SelectionInitial:
		return "initial"
	case SelectionZero:
		return "edit_zero_files"
	case SelectionOne:
		return "edit_one_file"
	case SelectionMany:
		return "edit_many_files"
	default:
		return fmt.Sprintf("selection_state(%d)", int(s))
	}
}

// Input drives the state machine.
type Input int

const (
	InputEdit Input = iota
	InputDiscard
	InputSaved
	InputDirectoryLoaded
	InputSelectZero
	InputSelectOne
	InputSelectMany
)

// Region names a state machine region.
type Region string

const (
	RegionEdit      Region = "edit"
	RegionSelection Region = "selection"
)

// StateChange describes a region entering a state.
type StateChange struct {
	Region Region
	State  string
}

var editTransitions = map[EditState]map[Input]EditState{
	NotEdited: {
		InputEdit: Edited,
	},
	Edited: {
		InputDiscard: NotEdited,
		InputSaved:   NotEdited,
	},
}

var selectionTransitions = map[SelectionState]map[Input]SelectionState{
	SelectionInitial: {
		InputDirectoryLoaded: SelectionZero,
	},
	SelectionZero: {
		InputDiscard:    SelectionInitial,
		InputSelectOne:  SelectionOne,
		InputSelectMany: SelectionMany,
	},
	SelectionOne: {
		InputDiscard:    SelectionInitial,
		InputSelectZero: SelectionZero,
		InputSelectMany: SelectionMany,
	},
	SelectionMany: {
		InputDiscard:    SelectionInitial,
		InputSelectZero: SelectionZero,
		InputSelectOne:  SelectionOne,
	},
}

// SelectionInput returns the input matching a selection of n files.
func SelectionInput(n int) Input {
	switch {
	case n == 0:
		return InputSelectZero
	case n == 1:
		return InputSelectOne
	default:
		return InputSelectMany
	}
}

// Machine is the application state machine: two independent regions, one
// tracking unsaved edits and one tracking the selection cardinality.
// Entering a state publishes EventStateEntered.
type Machine struct {
	mu        sync.Mutex
	edit      EditState
	selection SelectionState
	bus       *Bus
	logger    Logger
}

// NewMachine creates a Machine in its initial states (not_edited, initial)
// and connects it to the bus events that drive it.
func NewMachine(bus *Bus, logger Logger) *Machine {
	m := &Machine{bus: bus, logger: logger}

	bus.Subscribe(EventEdited, func(Event) { m.Fire(InputEdit) })
	bus.Subscribe(EventDiscardEdits, func(Event) { m.Fire(InputDiscard) })
	bus.Subscribe(EventSaved, func(Event) { m.Fire(InputSaved) })
	bus.Subscribe(EventFilesUpdated, func(Event) { m.Fire(InputDirectoryLoaded) })
	bus.Subscribe(EventSelectionChanged, func(e Event) { m.Fire(SelectionInput(len(e.Indices))) })

	return m
}

// State returns the current state of both regions.
func (m *Machine) State() (EditState, SelectionState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.edit, m.selection
}

// Edited reports whether the edit region is in the edited state.
func (m *Machine) Edited() bool {
	edit, _ := m.State()
	return edit == Edited
}

// Fire applies in to both regions. Inputs without a transition from the
// current state are ignored.
func (m *Machine) Fire(in Input) {
	var entered []StateChange

	m.mu.Lock()
	if next, ok := editTransitions[m.edit][in]; ok {
		m.edit = next
		entered = append(entered, StateChange{Region: RegionEdit, State: next.String()})
	}
	if next, ok := selectionTransitions[m.selection][in]; ok {
		m.selection = next
		entered = append(entered, StateChange{Region: RegionSelection, State: next.String()})
	}
	m.mu.Unlock()

	for _, sc := range entered {
		m.logger.Debug("state entered", "region", string(sc.Region), "state", sc.State)
		m.bus.Publish(Event{Kind: EventStateEntered, State: sc})
	}
}
