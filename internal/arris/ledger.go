package arris

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// ErrNotLoaded is returned when an operation needs metadata that was never
// read from the file.
var ErrNotLoaded = errors.New("metadata not loaded")

// Transformations are the file-level operations staged for a record.
// A nil field means no transformation of that kind is pending.
type Transformations struct {
	Rotate *int    // clockwise degrees in [0, 360), a multiple of 90
	Rename *string // target file name within the same directory
}

// Empty reports whether no transformation is pending.
func (t Transformations) Empty() bool {
	return t.Rotate == nil && t.Rename == nil
}

func (t Transformations) clone() Transformations {
	return Transformations{Rotate: clonePtr(t.Rotate), Rename: clonePtr(t.Rename)}
}

// FileRecord is the in-memory state of one discovered file.
type FileRecord struct {
	Path            string
	Deleted         bool
	Edited          bool
	Metadata        *Metadata // nil until first loaded
	Transformations Transformations

	// removed is set once a save pass deleted the file from disk.
	removed bool
}

// Removed reports whether a save pass already deleted the file.
func (r FileRecord) Removed() bool {
	return r.removed
}

func (r *FileRecord) clone() FileRecord {
	c := *r
	c.Metadata = r.Metadata.Clone()
	c.Transformations = r.Transformations.clone()
	return c
}

// RecordField names a field of a FileRecord.
type RecordField int

const (
	RecordPath RecordField = iota
	RecordEdited
	RecordDeleted
	RecordMetadata
	RecordTransformations
)

var recordFieldNames = map[string]RecordField{
	"path":            RecordPath,
	"edited":          RecordEdited,
	"deleted":         RecordDeleted,
	"metadata":        RecordMetadata,
	"transformations": RecordTransformations,
}

// ParseRecordField returns the RecordField with the given name.
func ParseRecordField(name string) (RecordField, error) {
	f, ok := recordFieldNames[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return f, nil
}

// Renamed describes a staged rename.
type Renamed struct {
	Index   int
	NewName string
}

// RenameFormatter computes the new file name of a record from its current
// path and metadata. It returns false when no name can be derived.
type RenameFormatter func(path string, md *Metadata) (string, bool)

// DateFileName names a file after its capture date: YYYYMMDD_HHMMSS.<ext>,
// using the wall clock of the stored UTC offset. The extension is lowercased
// and "jpeg" becomes "jpg".
func DateFileName(path string, md *Metadata) (string, bool) {
	if md == nil || md.DateTime == nil {
		return "", false
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "jpeg" {
		ext = "jpg"
	}
	return md.DateTime.Format("20060102_150405") + "." + ext, true
}

// Ledger owns the FileRecords of the current directory session. All
// mutation of file state before a save goes through it. Records handed out
// are copies. It is safe for concurrent use; each call holds the ledger
// lock for its full duration, including metadata reads.
type Ledger struct {
	mu          sync.Mutex
	codec       MetadataCodec
	fsmgr       FilesystemManager
	defaultZone *time.Location
	logger      Logger

	dir     string
	records []*FileRecord
}

// NewLedger creates an empty ledger. EXIF dates, which carry no offset, are
// interpreted in defaultZone.
func NewLedger(codec MetadataCodec, fsmgr FilesystemManager, defaultZone *time.Location, logger Logger) *Ledger {
	if defaultZone == nil {
		defaultZone = time.UTC
	}
	return &Ledger{
		codec:       codec,
		fsmgr:       fsmgr,
		defaultZone: defaultZone,
		logger:      logger,
	}
}

// LoadDirectory discovers the supported files of path and replaces the
// session with fresh records for them. On error the current session is
// left untouched.
func (l *Ledger) LoadDirectory(path string, recursive bool) ([]string, error) {
	files, err := l.fsmgr.FindFiles(path, recursive)
	if err != nil {
		return nil, fmt.Errorf("listing files in %s: %w", path, err)
	}

	records := make([]*FileRecord, len(files))
	for i, f := range files {
		records[i] = &FileRecord{Path: f}
	}

	l.mu.Lock()
	l.dir = path
	l.records = records
	l.mu.Unlock()

	l.logger.Info("directory loaded", "path", path, "files", len(files), "recursive", recursive)
	return files, nil
}

// Reset drops the current session.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.dir = ""
	l.records = nil
}

// Directory returns the path of the loaded directory, or "" if none.
func (l *Ledger) Directory() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dir
}

// Len returns the number of records.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// Record returns a copy of the record at idx.
func (l *Ledger) Record(idx int) (FileRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	r, err := l.get(idx)
	if err != nil {
		return FileRecord{}, err
	}
	return r.clone(), nil
}

// Records returns copies of all records in ledger order.
func (l *Ledger) Records() []FileRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]FileRecord, len(l.records))
	for i, r := range l.records {
		out[i] = r.clone()
	}
	return out
}

// Field returns one field of the record at idx. The dynamic type of the
// result is string, bool, *Metadata or Transformations.
func (l *Ledger) Field(idx int, field RecordField) (any, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	r, err := l.get(idx)
	if err != nil {
		return nil, err
	}
	switch field {
	case RecordPath:
		return r.Path, nil
	case RecordEdited:
		return r.Edited, nil
	case RecordDeleted:
		return r.Deleted, nil
	case RecordMetadata:
		return r.Metadata.Clone(), nil
	case RecordTransformations:
		return r.Transformations.clone(), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownField, int(field))
	}
}

// SetField replaces one field of the record at idx. value must have the
// type Field returns for that field.
func (l *Ledger) SetField(idx int, field RecordField, value any) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	r, err := l.get(idx)
	if err != nil {
		return err
	}

	ok := true
	switch field {
	case RecordPath:
		var v string
		if v, ok = value.(string); ok {
			r.Path = v
		}
	case RecordEdited:
		var v bool
		if v, ok = value.(bool); ok {
			r.Edited = v
		}
	case RecordDeleted:
		var v bool
		if v, ok = value.(bool); ok {
			r.Deleted = v
		}
	case RecordMetadata:
		var v *Metadata
		if v, ok = value.(*Metadata); ok {
			r.Metadata = v.Clone()
		}
	case RecordTransformations:
		var v Transformations
		if v, ok = value.(Transformations); ok {
			r.Transformations = v.clone()
		}
	default:
		return fmt.Errorf("%w: %d", ErrUnknownField, int(field))
	}
	if !ok {
		return fmt.Errorf("%w: %T", ErrInvalidValue, value)
	}
	return nil
}

// EnsureMetadataLoaded reads the metadata of the record at idx unless it
// was read before, and returns a copy. Once loaded, metadata is never read
// from the file again. When the XMP tags hold no date, the EXIF DateTime
// tag is used, interpreted in the default time zone.
func (l *Ledger) EnsureMetadataLoaded(ctx context.Context, idx int) (*Metadata, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	r, err := l.get(idx)
	if err != nil {
		return nil, err
	}
	if r.Metadata != nil {
		return r.Metadata.Clone(), nil
	}

	md, err := l.codec.ReadXMP(ctx, r.Path, l.defaultZone)
	if err != nil {
		return nil, fmt.Errorf("loading metadata of %s: %w", r.Path, err)
	}
	if md.DateTime == nil {
		tags, err := l.codec.ReadEXIF(ctx, r.Path, []string{EXIFImageDateTime})
		if err != nil {
			return nil, fmt.Errorf("loading EXIF date of %s: %w", r.Path, err)
		}
		if v, ok := lookupTag(tags, EXIFImageDateTime); ok {
			t, err := ParseEXIFTimestamp(v, l.defaultZone)
			if err != nil {
				l.logger.Warn("ignoring malformed EXIF date", "path", r.Path, "value", v)
			} else {
				md.DateTime = &t
			}
		}
	}

	r.Metadata = md
	l.logger.Debug("metadata loaded", "path", r.Path)
	return md.Clone(), nil
}

// MarkEdited flags the records as carrying unsaved changes.
func (l *Ledger) MarkEdited(indices []int) error {
	return l.each(indices, func(r *FileRecord) { r.Edited = true })
}

// MarkDeleted flags the records for deletion at the next save. The files
// are not touched.
func (l *Ledger) MarkDeleted(indices []int) error {
	return l.each(indices, func(r *FileRecord) { r.Deleted = true })
}

// MarkUndeleted clears the deletion flag and returns the indices whose flag
// changed. Records whose file was already removed by a save stay deleted.
func (l *Ledger) MarkUndeleted(indices []int) ([]int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.check(indices); err != nil {
		return nil, err
	}
	var changed []int
	for _, idx := range indices {
		r := l.records[idx]
		if r.Deleted && !r.removed {
			r.Deleted = false
			changed = append(changed, idx)
		}
	}
	return changed, nil
}

// Deleted returns the indices of records flagged for deletion whose file
// still exists.
func (l *Ledger) Deleted() []int {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []int
	for i, r := range l.records {
		if r.Deleted && !r.removed {
			out = append(out, i)
		}
	}
	return out
}

// StageRotation adds 90 degrees to the pending rotation of each record,
// modulo 360. A rotation that wraps back to 0 stays staged as 0.
func (l *Ledger) StageRotation(indices []int) error {
	return l.each(indices, func(r *FileRecord) {
		angle := 0
		if r.Transformations.Rotate != nil {
			angle = *r.Transformations.Rotate
		}
		angle = (angle + 90) % 360
		r.Transformations.Rotate = &angle
	})
}

// StageRename stages a rename computed by format for each record. Records
// for which format derives no name are skipped and left out of the result.
func (l *Ledger) StageRename(indices []int, format RenameFormatter) ([]Renamed, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.check(indices); err != nil {
		return nil, err
	}

	var renamed []Renamed
	for _, idx := range indices {
		r := l.records[idx]
		name, ok := format(r.Path, r.Metadata)
		if !ok {
			continue
		}
		r.Transformations.Rename = &name
		renamed = append(renamed, Renamed{Index: idx, NewName: name})
	}
	return renamed, nil
}

// UpdateMetadata calls fn with the stored metadata of each record. Every
// record must have its metadata loaded.
func (l *Ledger) UpdateMetadata(indices []int, fn func(*Metadata)) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.check(indices); err != nil {
		return err
	}
	for _, idx := range indices {
		if l.records[idx].Metadata == nil {
			return fmt.Errorf("file %d: %w", idx, ErrNotLoaded)
		}
	}
	for _, idx := range indices {
		fn(l.records[idx].Metadata)
	}
	return nil
}

// setPath records that the file of idx now lives at path.
func (l *Ledger) setPath(idx int, path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records[idx].Path = path
}

// clearRotation drops the pending rotation once it was applied.
func (l *Ledger) clearRotation(idx int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records[idx].Transformations.Rotate = nil
}

// clearRename drops the pending rename once it was applied.
func (l *Ledger) clearRename(idx int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records[idx].Transformations.Rename = nil
}

// markCommitted records a successful write of idx.
func (l *Ledger) markCommitted(idx int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	r := l.records[idx]
	r.Edited = false
	r.Transformations = Transformations{}
}

// markRemoved records that the file of idx was deleted from disk.
func (l *Ledger) markRemoved(idx int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	r := l.records[idx]
	r.Edited = false
	r.removed = true
	r.Transformations = Transformations{}
}

// CheckIndices returns an error wrapping ErrIndexOutOfRange when any of
// indices does not name a record.
func (l *Ledger) CheckIndices(indices []int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.check(indices)
}

// each validates all indices, then applies fn to each record.
func (l *Ledger) each(indices []int, fn func(*FileRecord)) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.check(indices); err != nil {
		return err
	}
	for _, idx := range indices {
		fn(l.records[idx])
	}
	return nil
}

func (l *Ledger) check(indices []int) error {
	for _, idx := range indices {
		if _, err := l.get(idx); err != nil {
			return err
		}
	}
	return nil
}

func (l *Ledger) get(idx int) (*FileRecord, error) {
	if idx < 0 || idx >= len(l.records) {
		return nil, fmt.Errorf("%w: %d (have %d files)", ErrIndexOutOfRange, idx, len(l.records))
	}
	return l.records[idx], nil
}

// lookupTag finds tag in tags ignoring case.
func lookupTag(tags map[string]string, tag string) (string, bool) {
	if v, ok := tags[tag]; ok {
		return v, true
	}
	for k, v := range tags {
		if strings.EqualFold(k, tag) {
			return v, true
		}
	}
	return "", false
}
