// Package transform implements arris.Transformer with jpegtran for lossless
// JPEG changes and orientation tags for raw files.
package transform

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"arris/internal/arris"
	"arris/internal/codec"
	arrisfs "arris/internal/fs"
)

// TagEditor is the part of a metadata codec the transformer relies on.
type TagEditor interface {
	ReadEXIF(ctx context.Context, path string, tags []string) (map[string]string, error)
	WriteEXIF(ctx context.Context, path string, tags map[string]*string) error
	DeleteThumbnail(ctx context.Context, path string) error
}

// FileTransformer rotates and optimizes images in place. Every rewrite
// goes to a temporary file next to the image, which then replaces it.
type FileTransformer struct {
	runner   codec.Runner
	jpegtran string
	tags     TagEditor
	logger   arris.Logger
}

// NewFileTransformer creates a transformer running jpegtran through runner.
func NewFileTransformer(runner codec.Runner, jpegtran string, tags TagEditor, logger arris.Logger) *FileTransformer {
	if logger == nil {
		logger = arris.NewNopLogger()
	}
	return &FileTransformer{runner: runner, jpegtran: jpegtran, tags: tags, logger: logger}
}

func (t *FileTransformer) Rotate(ctx context.Context, path string, angle int) error {
	if angle%90 != 0 {
		return fmt.Errorf("%w: %d", arris.ErrInvalidAngle, angle)
	}
	angle = ((angle % 360) + 360) % 360
	if angle == 0 {
		return nil
	}
	if err := requireFile(path); err != nil {
		return err
	}

	if arrisfs.IsRaw(path) {
		return t.rotateOrientation(ctx, path, angle)
	}

	err := t.rewrite(ctx, path, func(tmp string) error {
		if err := t.jpegtranRun(ctx, path, "-copy", "all", "-rotate", strconv.Itoa(angle), "-outfile", tmp, path); err != nil {
			return err
		}
		return t.resetOrientation(ctx, tmp)
	})
	if err != nil {
		return err
	}
	t.logger.Debug("image rotated", "path", path, "angle", angle)
	return nil
}

func (t *FileTransformer) Optimize(ctx context.Context, path string) error {
	if err := requireFile(path); err != nil {
		return err
	}

	if !arrisfs.IsRaw(path) {
		err := t.rewrite(ctx, path, func(tmp string) error {
			return t.jpegtranRun(ctx, path, "-opt", "-perfect", "-copy", "all", "-outfile", tmp, path)
		})
		if err != nil {
			return err
		}
	}

	if err := t.tags.DeleteThumbnail(ctx, path); err != nil {
		return fmt.Errorf("removing thumbnail: %w", err)
	}
	t.logger.Debug("image optimized", "path", path)
	return nil
}

func (t *FileTransformer) SetTimestamp(path string, ts time.Time) error {
	if err := os.Chtimes(path, ts, ts); err != nil {
		return fmt.Errorf("setting timestamp: %w", err)
	}
	return nil
}

func (t *FileTransformer) SetPermissions(path string) error {
	if err := os.Chmod(path, 0644); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}
	return nil
}

// Move renames path to newPath. An existing newPath is never replaced.
func (t *FileTransformer) Move(path, newPath string) error {
	if _, err := os.Lstat(newPath); err == nil {
		return fmt.Errorf("moving %s: %w", path, fs.ErrExist)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("moving %s: %w", path, err)
	}
	if err := os.Rename(path, newPath); err != nil {
		return fmt.Errorf("moving %s: %w", path, err)
	}
	return nil
}

// rewrite lets fn produce a new version of path in a temporary file and
// replaces path with it. The temporary file is removed on failure.
func (t *FileTransformer) rewrite(ctx context.Context, path string, fn func(tmp string) error) error {
	f, err := os.CreateTemp(filepath.Dir(path), ".arris-*"+filepath.Ext(path))
	if err != nil {
		return fmt.Errorf("creating temporary file: %w", err)
	}
	tmp := f.Name()
	f.Close()

	if err := fn(tmp); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := ctx.Err(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

func (t *FileTransformer) jpegtranRun(ctx context.Context, path string, args ...string) error {
	t.logger.Debug("running jpegtran", "args", strings.Join(args, " "))
	_, stderr, err := t.runner.Run(ctx, t.jpegtran, args...)
	msg := strings.TrimSpace(string(stderr))
	if err != nil || msg != "" {
		if msg == "" {
			msg = err.Error()
		}
		return &arris.ToolError{Kind: arris.ErrTransform, File: path, Message: msg}
	}
	return nil
}

// resetOrientation sets an existing orientation tag to normal. jpegtran
// rotates the pixels but keeps the tag.
func (t *FileTransformer) resetOrientation(ctx context.Context, path string) error {
	tags, err := t.tags.ReadEXIF(ctx, path, []string{arris.EXIFImageOrientation})
	if err != nil {
		return err
	}
	if _, ok := tags[arris.EXIFImageOrientation]; !ok {
		return nil
	}
	return t.tags.WriteEXIF(ctx, path, map[string]*string{arris.EXIFImageOrientation: arris.Ptr("1")})
}

// rotateOrientation rotates a raw image by composing its orientation tag
// with a clockwise rotation.
func (t *FileTransformer) rotateOrientation(ctx context.Context, path string, angle int) error {
	tags, err := t.tags.ReadEXIF(ctx, path, []string{arris.EXIFImageOrientation})
	if err != nil {
		return err
	}
	current := 1
	if v, ok := tags[arris.EXIFImageOrientation]; ok {
		current, err = strconv.Atoi(strings.TrimSpace(v))
		if err != nil || current < 1 || current > 8 {
			return &arris.ToolError{Kind: arris.ErrTransform, File: path, Message: fmt.Sprintf("unexpected orientation %q", v)}
		}
	}

	next := ComposeOrientation(current, angle)
	if err := t.tags.WriteEXIF(ctx, path, map[string]*string{arris.EXIFImageOrientation: arris.Ptr(strconv.Itoa(next))}); err != nil {
		return err
	}
	t.logger.Debug("orientation changed", "path", path, "from", current, "to", next)
	return nil
}

// clockwise maps each EXIF orientation (1-8) to the orientation after a
// further 90 degree clockwise rotation.
var clockwise = [9]int{0, 6, 7, 8, 5, 2, 3, 4, 1}

// ComposeOrientation returns the EXIF orientation that displays an image
// with orientation o rotated clockwise by angle, a multiple of 90.
func ComposeOrientation(o, angle int) int {
	steps := (((angle % 360) + 360) % 360) / 90
	for range steps {
		o = clockwise[o]
	}
	return o
}

// requireFile fails with an error wrapping fs.ErrNotExist when path is
// missing.
func requireFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("accessing %s: %w", path, err)
	}
	return nil
}

var _ arris.Transformer = (*FileTransformer)(nil)
