package arris

import "time"

// Journal records save passes and their per-file outcomes so failed writes
// can be reviewed after the session ended.
type Journal interface {
	// StartCommit opens a commit record.
	StartCommit(id string, directory string, startedAt time.Time) error

	// RecordFile stores the outcome of one file of a commit.
	RecordFile(entry JournalEntry) error

	// FinishCommit closes the commit record with its summary counts.
	FinishCommit(id string, finishedAt time.Time, report *CommitReport) error

	// ListCommits returns the most recent commits, newest first.
	ListCommits(limit int) ([]*CommitSummary, error)

	Close() error
}

// JournalAction is what a save pass did to a file.
type JournalAction string

const (
	JournalDeleted JournalAction = "deleted"
	JournalWritten JournalAction = "written"
	JournalFailed  JournalAction = "failed"
)

// JournalEntry is the outcome of one file in a commit.
type JournalEntry struct {
	CommitID string
	Index    int
	Path     string
	NewPath  string // set when the file was renamed
	Action   JournalAction
	Message  string // failure message
}

// CommitSummary describes a finished (or interrupted) commit.
type CommitSummary struct {
	ID         string
	Directory  string
	StartedAt  time.Time
	FinishedAt *time.Time // nil when the pass never finished
	Processed  int
	Deleted    int
	Written    int
	Failed     int
}

// NopJournal discards everything.
type NopJournal struct{}

func (NopJournal) StartCommit(string, string, time.Time) error         { return nil }
func (NopJournal) RecordFile(JournalEntry) error                       { return nil }
func (NopJournal) FinishCommit(string, time.Time, *CommitReport) error { return nil }
func (NopJournal) ListCommits(int) ([]*CommitSummary, error)           { return nil, nil }
func (NopJournal) Close() error                                        { return nil }

var _ Journal = NopJournal{}
