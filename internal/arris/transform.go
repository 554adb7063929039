package arris

import (
	"context"
	"time"
)

// Transformer performs lossless file-level operations on single images.
// Every operation is synchronous and may fail.
type Transformer interface {
	// Rotate rotates the image clockwise by angle degrees, a multiple of 90.
	// A rotation by 0 is a no-op. Formats that cannot be rotated losslessly
	// are rotated by rewriting their orientation tag.
	Rotate(ctx context.Context, path string, angle int) error

	// Optimize strips embedded preview data and recompresses losslessly
	// where the format supports it.
	Optimize(ctx context.Context, path string) error

	// SetTimestamp sets the modification time of path.
	SetTimestamp(path string, t time.Time) error

	// SetPermissions sets the mode of path to owner read/write, group and
	// other read-only.
	SetPermissions(path string) error

	// Move renames path to newPath.
	Move(path, newPath string) error
}
