package arris

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"sync"
	"time"
)

// Settings are the configuration values the service reads once at startup.
type Settings struct {
	DefaultZone *time.Location
	Language    string
}

// ArrisService coordinates the ledger, state machine and external services
// to perform the editing operations needed by a user interface. Operations
// are serialized: metadata loading on selection and the save pass never
// touch the same files at the same time.
type ArrisService struct {
	mu sync.Mutex

	bus         *Bus
	ledger      *Ledger
	machine     *Machine
	rendezvous  *Rendezvous
	codec       MetadataCodec
	transformer Transformer
	fsmgr       FilesystemManager
	journal     Journal
	thumbs      ThumbnailLoader
	logger      Logger
	clock       Clock
	idgen       IDGenerator
	settings    Settings

	// selMu guards selection separately so thumbnail results can be
	// routed while an operation holds mu.
	selMu     sync.Mutex
	selection []int
}

// NewArrisService creates a new ArrisService with the provided dependencies.
// journal and thumbs may be nil.
func NewArrisService(bus *Bus, codec MetadataCodec, transformer Transformer, fsmgr FilesystemManager, journal Journal, thumbs ThumbnailLoader, logger Logger, clock Clock, idgen IDGenerator, settings Settings) *ArrisService {
	if journal == nil {
		journal = NopJournal{}
	}
	if settings.DefaultZone == nil {
		settings.DefaultZone = time.UTC
	}
	return &ArrisService{
		bus:         bus,
		ledger:      NewLedger(codec, fsmgr, settings.DefaultZone, logger),
		machine:     NewMachine(bus, logger),
		rendezvous:  NewRendezvous(bus),
		codec:       codec,
		transformer: transformer,
		fsmgr:       fsmgr,
		journal:     journal,
		thumbs:      thumbs,
		logger:      logger,
		clock:       clock,
		idgen:       idgen,
		settings:    settings,
	}
}

// Bus returns the event bus the service publishes on.
func (s *ArrisService) Bus() *Bus { return s.bus }

// Ledger returns the edit ledger of the session.
func (s *ArrisService) Ledger() *Ledger { return s.ledger }

// State returns the state of both state machine regions.
func (s *ArrisService) State() (EditState, SelectionState) { return s.machine.State() }

// Selection returns the indices of the selected files.
func (s *ArrisService) Selection() []int {
	s.selMu.Lock()
	defer s.selMu.Unlock()
	return slices.Clone(s.selection)
}

// ChangeDirectory makes path the current directory and loads its files.
//
// With unsaved edits the user is asked first and the call blocks until the
// answer arrives. On cancel nothing changes, EventFilesNotUpdated is
// published so the UI can restore its previous directory, and false is
// returned. On discard the edits are dropped before the new directory is
// loaded. Changing to the current directory is a no-op.
func (s *ArrisService) ChangeDirectory(ctx context.Context, path string, recursive bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.ledger.Directory()
	if current != "" && path == current {
		return true, nil
	}

	if s.machine.Edited() {
		discard, err := s.rendezvous.Ask(ctx)
		if err != nil {
			return false, fmt.Errorf("waiting for discard answer: %w", err)
		}
		if !discard {
			s.logger.Info("directory change cancelled", "path", path)
			s.bus.Publish(Event{Kind: EventFilesNotUpdated, Directory: current})
			return false, nil
		}
		s.discardLocked()
	}

	if err := s.loadLocked(path, recursive); err != nil {
		return false, err
	}
	return true, nil
}

// Discard drops all unsaved edits and reloads the current directory from
// disk.
func (s *ArrisService) Discard() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.ledger.Directory()
	if dir == "" {
		return ErrNoDirectory
	}
	s.discardLocked()
	return s.loadLocked(dir, false)
}

func (s *ArrisService) discardLocked() {
	s.logger.Info("discarding edits", "directory", s.ledger.Directory())
	s.stopThumbnails()
	s.setSelection(nil)
	s.ledger.Reset()
	s.bus.Publish(Event{Kind: EventDiscardEdits})
}

func (s *ArrisService) loadLocked(path string, recursive bool) error {
	files, err := s.ledger.LoadDirectory(path, recursive)
	if err != nil {
		return fmt.Errorf("loading directory: %w", err)
	}
	s.stopThumbnails()
	s.setSelection(nil)
	s.bus.Publish(Event{Kind: EventFilesUpdated, Directory: path, Files: files})
	s.bus.Publish(Event{Kind: EventSelectionChanged, Indices: []int{}})
	return nil
}

// Select makes indices the current selection. Files marked deleted are left
// out. Metadata of the selected files is loaded on first selection, with
// progress published per file, and the display view of the selection is
// published as EventMetadataUpdated. The effective selection is returned.
func (s *ArrisService) Select(ctx context.Context, indices []int) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ledger.CheckIndices(indices); err != nil {
		return nil, err
	}

	var selected []int
	for _, idx := range indices {
		r, _ := s.ledger.Record(idx)
		if r.Deleted || slices.Contains(selected, idx) {
			continue
		}
		selected = append(selected, idx)
	}

	for n, idx := range selected {
		if _, err := s.ledger.EnsureMetadataLoaded(ctx, idx); err != nil {
			return nil, err
		}
		s.bus.Publish(Event{Kind: EventProgress, Progress: n + 1, Total: len(selected)})
	}

	s.setSelection(selected)
	s.bus.Publish(Event{Kind: EventSelectionChanged, Indices: slices.Clone(selected)})
	if len(selected) > 0 {
		if err := s.publishView(selected); err != nil {
			return nil, err
		}
	}
	s.startThumbnails(selected)
	return selected, nil
}

// Display returns the display view of the current selection.
func (s *ArrisService) Display() (DisplayView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.DisplayFor(s.Selection())
}

// EditMetadata merges view into the metadata of the selected files.
func (s *ArrisService) EditMetadata(view DisplayView) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sel, err := s.requireSelection()
	if err != nil {
		return err
	}
	if err := s.ledger.ApplyEdit(sel, view); err != nil {
		return fmt.Errorf("applying edit: %w", err)
	}
	s.edited(sel)
	return s.publishView(sel)
}

// SetField edits a single field of the selected files; other fields keep
// their values. A nil value clears the field. Dates are parsed as XMP
// dates in the default zone. Tags are a comma separated list and are
// lowercased.
func (s *ArrisService) SetField(field Field, value *string) error {
	view, err := s.Display()
	if err != nil {
		return err
	}
	if !view.Single {
		view = DisplayView{}
	}

	switch field {
	case FieldDateTime:
		if value == nil {
			if !view.Single {
				return fmt.Errorf("%w: clearing the date of several files", ErrInvalidValue)
			}
			view.DateTime = nil
			break
		}
		t, err := ParseXMPDate(*value, s.settings.DefaultZone)
		if err != nil {
			return err
		}
		view.DateTime = &t
	case FieldTags:
		view.Tags = ParseTags(value)
		if value == nil && !view.Single {
			return fmt.Errorf("%w: clearing the tags of several files", ErrInvalidValue)
		}
	default:
		dst := view.stringField(field)
		if dst == nil {
			return fmt.Errorf("%w: %d", ErrUnknownField, int(field))
		}
		if value == nil && !view.Single {
			return fmt.Errorf("%w: clearing %s of several files", ErrInvalidValue, field)
		}
		*dst = clonePtr(value)
	}
	return s.EditMetadata(view)
}

// ParseTags splits a comma separated tag list into lowercased, trimmed
// tags, dropping empty and repeated entries. A nil list yields nil.
func ParseTags(list *string) []string {
	if list == nil {
		return nil
	}
	tags := []string{}
	for _, t := range strings.Split(*list, ",") {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" && !slices.Contains(tags, t) {
			tags = append(tags, t)
		}
	}
	return tags
}

// Rotate stages a clockwise rotation by 90 degrees of the selected files.
func (s *ArrisService) Rotate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sel, err := s.requireSelection()
	if err != nil {
		return err
	}
	if err := s.ledger.StageRotation(sel); err != nil {
		return err
	}
	if err := s.ledger.MarkEdited(sel); err != nil {
		return err
	}
	s.edited(sel)
	return nil
}

// Rename stages a rename after the capture date for the selected files.
// Files without a date keep their name.
func (s *ArrisService) Rename() ([]Renamed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sel, err := s.requireSelection()
	if err != nil {
		return nil, err
	}
	renamed, err := s.ledger.StageRename(sel, DateFileName)
	if err != nil {
		return nil, err
	}
	if len(renamed) == 0 {
		return nil, nil
	}

	indices := make([]int, len(renamed))
	for i, r := range renamed {
		indices[i] = r.Index
	}
	if err := s.ledger.MarkEdited(indices); err != nil {
		return nil, err
	}
	s.bus.Publish(Event{Kind: EventFilesRenamed, Renamed: renamed})
	s.edited(indices)
	return renamed, nil
}

// Delete marks the selected files for deletion at the next save and clears
// the selection.
func (s *ArrisService) Delete() ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sel, err := s.requireSelection()
	if err != nil {
		return nil, err
	}
	if err := s.ledger.MarkDeleted(sel); err != nil {
		return nil, err
	}
	if err := s.ledger.MarkEdited(sel); err != nil {
		return nil, err
	}
	s.logger.Info("files marked for deletion", "count", len(sel))
	s.edited(sel)

	s.stopThumbnails()
	s.setSelection(nil)
	s.bus.Publish(Event{Kind: EventSelectionChanged, Indices: []int{}})
	return sel, nil
}

// Undelete removes the deletion mark of the given files. Files already
// removed by a save stay deleted.
func (s *ArrisService) Undelete(indices []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed, err := s.ledger.MarkUndeleted(indices)
	if err != nil {
		return err
	}
	if len(changed) > 0 {
		s.edited(changed)
	}
	return nil
}

// AdjustTime shifts the date of the selected files by d. Files without a
// date are left alone.
func (s *ArrisService) AdjustTime(d time.Duration) error {
	return s.adjustDates(func(t time.Time) time.Time { return t.Add(d) })
}

// AdjustUTCOffset moves the UTC offset of the selected files' dates by
// hours while keeping their wall clock. Offsets wrap around within
// [-12, +12]: +10 adjusted by +5 becomes -10.
func (s *ArrisService) AdjustUTCOffset(hours int) error {
	return s.adjustDates(func(t time.Time) time.Time { return ShiftUTCOffset(t, hours) })
}

// ShiftUTCOffset returns t with the same wall clock and its UTC offset
// moved by hours, wrapped into [-12, +12].
func ShiftUTCOffset(t time.Time, hours int) time.Time {
	_, offset := t.Zone()
	shifted := math.Mod(float64(offset)/3600+12+float64(hours), 25)
	if shifted < 0 {
		shifted += 25
	}
	shifted -= 12

	zone := time.FixedZone("", int(math.Round(shifted*3600)))
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), zone)
}

func (s *ArrisService) adjustDates(fn func(time.Time) time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sel, err := s.requireSelection()
	if err != nil {
		return err
	}

	var changed []int
	err = s.ledger.UpdateMetadata(sel, func(md *Metadata) {
		if md.DateTime != nil {
			md.DateTime = Ptr(fn(*md.DateTime))
		}
	})
	if err != nil {
		return err
	}
	for _, idx := range sel {
		r, _ := s.ledger.Record(idx)
		if r.Metadata.DateTime != nil {
			changed = append(changed, idx)
		}
	}
	if len(changed) == 0 {
		return nil
	}
	if err := s.ledger.MarkEdited(changed); err != nil {
		return err
	}
	s.edited(changed)
	return s.publishView(sel)
}

// History returns the most recent save passes, newest first.
func (s *ArrisService) History(limit int) ([]*CommitSummary, error) {
	commits, err := s.journal.ListCommits(limit)
	if err != nil {
		return nil, fmt.Errorf("listing commits: %w", err)
	}
	return commits, nil
}

// Close stops background work and closes the journal.
func (s *ArrisService) Close() error {
	s.stopThumbnails()
	return s.journal.Close()
}

func (s *ArrisService) requireSelection() ([]int, error) {
	if s.ledger.Directory() == "" {
		return nil, ErrNoDirectory
	}
	sel := s.Selection()
	if len(sel) == 0 {
		return nil, errors.New("no files selected")
	}
	return sel, nil
}

func (s *ArrisService) edited(indices []int) {
	s.bus.Publish(Event{Kind: EventEdited, Indices: slices.Clone(indices)})
}

func (s *ArrisService) publishView(indices []int) error {
	view, err := s.ledger.DisplayFor(indices)
	if err != nil {
		return err
	}
	s.bus.Publish(Event{Kind: EventMetadataUpdated, View: &view})
	return nil
}

func (s *ArrisService) setSelection(indices []int) {
	s.selMu.Lock()
	defer s.selMu.Unlock()
	s.selection = indices
}

func (s *ArrisService) startThumbnails(indices []int) {
	if s.thumbs == nil {
		return
	}
	jobs := make([]ThumbnailJob, 0, len(indices))
	for _, idx := range indices {
		r, err := s.ledger.Record(idx)
		if err != nil {
			continue
		}
		jobs = append(jobs, ThumbnailJob{Index: idx, Path: r.Path})
	}
	s.thumbs.Start(jobs, s.deliverThumbnail)
}

func (s *ArrisService) stopThumbnails() {
	if s.thumbs != nil {
		s.thumbs.Stop()
	}
}

// deliverThumbnail publishes th unless its file is no longer selected.
func (s *ArrisService) deliverThumbnail(th Thumbnail) {
	s.selMu.Lock()
	current := slices.Contains(s.selection, th.Index)
	s.selMu.Unlock()

	if !current {
		s.logger.Debug("dropping stale thumbnail", "path", th.Path)
		return
	}
	s.bus.Publish(Event{Kind: EventThumbnailReady, Index: th.Index, Thumbnail: &th})
}
