package arris

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// FileFailure is a file a save pass could not fully write.
type FileFailure struct {
	Index int
	Path  string
	Err   error
}

// CommitReport summarizes a save pass.
type CommitReport struct {
	ID        string
	Processed int
	Deleted   int
	Written   int
	Failures  []FileFailure
}

// OK reports whether every file was saved.
func (r *CommitReport) OK() bool {
	return len(r.Failures) == 0
}

// Commit writes all pending changes of the session to disk, file by file
// in ledger order. Files marked deleted are removed, edited files get their
// metadata written and their staged transformations applied; clean files
// are skipped. Progress is published after each file.
//
// A file that fails keeps its edited flag and the pass continues with the
// next file. When every file succeeded EventSaved is published, otherwise
// EventSaveFailed with the report, and the session stays edited. The
// returned error is only set when the pass could not run at all.
func (s *ArrisService) Commit(ctx context.Context, optimize bool) (*CommitReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.ledger.Directory()
	if dir == "" {
		return nil, ErrNoDirectory
	}

	report := &CommitReport{ID: s.idgen.New()}
	if err := s.journal.StartCommit(report.ID, dir, s.clock.Now()); err != nil {
		s.logger.Warn("journal unavailable", "error", err)
	}

	records := s.ledger.Records()
	for i, r := range records {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("commit interrupted after %d files: %w", i, err)
		}

		switch {
		case r.Deleted && !r.removed:
			if err := s.fsmgr.Remove(r.Path); err != nil {
				s.fail(report, i, r.Path, fmt.Errorf("removing file: %w", err))
				break
			}
			s.ledger.markRemoved(i)
			report.Deleted++
			s.record(JournalEntry{CommitID: report.ID, Index: i, Path: r.Path, Action: JournalDeleted})
			s.logger.Info("file deleted", "path", r.Path)
			s.bus.Publish(Event{Kind: EventFileDeleted, Index: i})

		case r.Deleted, !r.Edited:
			// already removed, or nothing to write

		default:
			newPath, err := s.commitFile(ctx, i, r, optimize)
			if err != nil {
				s.fail(report, i, r.Path, err)
				break
			}
			s.ledger.markCommitted(i)
			report.Written++
			entry := JournalEntry{CommitID: report.ID, Index: i, Path: r.Path, Action: JournalWritten}
			if newPath != r.Path {
				entry.NewPath = newPath
			}
			s.record(entry)
			s.logger.Debug("file saved", "path", newPath)
		}

		report.Processed++
		s.bus.Publish(Event{Kind: EventProgress, Progress: i + 1, Total: len(records)})
	}

	if err := s.journal.FinishCommit(report.ID, s.clock.Now(), report); err != nil {
		s.logger.Warn("journal unavailable", "error", err)
	}

	if !report.OK() {
		s.logger.Warn("save completed with failures", "failed", len(report.Failures), "written", report.Written, "deleted", report.Deleted)
		s.bus.Publish(Event{Kind: EventSaveFailed, Report: report})
		return report, nil
	}
	s.logger.Info("save completed", "written", report.Written, "deleted", report.Deleted)
	s.bus.Publish(Event{Kind: EventSaved, Report: report})
	return report, nil
}

// commitFile writes one edited record and returns its final path. Applied
// transformations are cleared as they complete so a retry after a failure
// does not apply them twice.
func (s *ArrisService) commitFile(ctx context.Context, idx int, r FileRecord, optimize bool) (string, error) {
	path := r.Path
	md := r.Metadata

	if md != nil {
		if err := s.codec.WriteXMP(ctx, path, md, s.settings.Language); err != nil {
			return path, err
		}
		if err := s.reconcileEXIFDates(ctx, path, md); err != nil {
			return path, err
		}
	}

	if r.Transformations.Rotate != nil {
		if angle := *r.Transformations.Rotate; angle != 0 {
			if err := s.transformer.Rotate(ctx, path, angle); err != nil {
				return path, err
			}
		}
		s.ledger.clearRotation(idx)
	}

	if r.Transformations.Rename != nil {
		target := filepath.Join(filepath.Dir(path), *r.Transformations.Rename)
		if target != path {
			free, err := s.freeName(target)
			if err != nil {
				return path, err
			}
			if err := s.transformer.Move(path, free); err != nil {
				return path, err
			}
			s.ledger.setPath(idx, free)
			path = free
		}
		s.ledger.clearRename(idx)
	}

	if optimize {
		if err := s.transformer.Optimize(ctx, path); err != nil {
			return path, err
		}
	}

	if md != nil && md.DateTime != nil {
		if err := s.transformer.SetTimestamp(path, md.DateTime.UTC()); err != nil {
			return path, err
		}
	}

	if err := s.transformer.SetPermissions(path); err != nil {
		return path, err
	}
	return path, nil
}

// reconcileEXIFDates rewrites the EXIF date tags present in path whose
// value differs from the date in md, ignoring the UTC offset. Without a
// date in md the mismatching tags are removed. Values that do not parse
// count as mismatching.
func (s *ArrisService) reconcileEXIFDates(ctx context.Context, path string, md *Metadata) error {
	tags, err := s.codec.ReadEXIF(ctx, path, DateTimeEXIFTags)
	if err != nil {
		return err
	}

	var want *string
	if md.DateTime != nil {
		want = Ptr(FormatEXIFTimestamp(*md.DateTime))
	}

	updated := make(map[string]*string)
	for _, tag := range DateTimeEXIFTags {
		v, ok := lookupTag(tags, tag)
		if !ok {
			continue
		}
		var have *string
		if t, err := ParseEXIFTimestamp(v, nil); err == nil {
			have = Ptr(FormatEXIFTimestamp(t))
		}
		if have == nil || want == nil || *have != *want {
			updated[tag] = want
		}
	}
	if len(updated) == 0 {
		return nil
	}

	s.logger.Debug("updating EXIF dates", "path", path, "tags", len(updated))
	return s.codec.WriteEXIF(ctx, path, updated)
}

// freeName returns target, or the first "name (N).ext" next to it that
// does not exist yet.
func (s *ArrisService) freeName(target string) (string, error) {
	dir := filepath.Dir(target)
	ext := filepath.Ext(target)
	stem := strings.TrimSuffix(filepath.Base(target), ext)

	candidate := target
	for n := 1; ; n++ {
		exists, err := s.fsmgr.Exists(candidate)
		if err != nil {
			return "", fmt.Errorf("checking %s: %w", candidate, err)
		}
		if !exists {
			return candidate, nil
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s (%d)%s", stem, n, ext))
	}
}

func (s *ArrisService) fail(report *CommitReport, idx int, path string, err error) {
	s.logger.Error("saving file failed", "path", path, "error", err)
	report.Failures = append(report.Failures, FileFailure{Index: idx, Path: path, Err: err})
	s.record(JournalEntry{CommitID: report.ID, Index: idx, Path: path, Action: JournalFailed, Message: err.Error()})
}

func (s *ArrisService) record(entry JournalEntry) {
	if err := s.journal.RecordFile(entry); err != nil {
		s.logger.Warn("journal unavailable", "error", err)
	}
}
