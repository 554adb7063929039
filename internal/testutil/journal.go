package testutil

import (
	"testing"

	"arris/internal/arris"
	"arris/internal/journal"
)

// NewTestJournal creates an in-memory SQLite journal that is closed when
// the test ends.
func NewTestJournal(t *testing.T) arris.Journal {
	t.Helper()

	j, err := journal.NewSQLiteJournal(":memory:")
	if err != nil {
		t.Fatalf("failed to create test journal: %v", err)
	}
	t.Cleanup(func() {
		j.Close()
	})
	return j
}
