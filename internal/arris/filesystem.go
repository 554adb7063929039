package arris

// FilesystemManager abstracts directory discovery and file existence so the
// ledger and commit pipeline can be tested without touching the disk.
type FilesystemManager interface {
	// FindFiles lists the supported image files in dir, sorted by full path.
	// When recursive is true, subdirectories are included; hidden entries
	// are skipped.
	FindFiles(dir string, recursive bool) ([]string, error)

	// Exists reports whether path exists.
	Exists(path string) (bool, error)

	// Remove deletes path. Removing a file that is already gone is not an
	// error.
	Remove(path string) error
}
