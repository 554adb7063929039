package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"arris/internal/arris"
)

// MockTransformer applies transformations to files in a
// MockFilesystemManager. Failures can be injected per operation and path.
type MockTransformer struct {
	fs *MockFilesystemManager

	mu       sync.Mutex
	failures map[string]error
	calls    []string
}

// NewMockTransformer creates a transformer operating on fsmgr.
func NewMockTransformer(fsmgr *MockFilesystemManager) *MockTransformer {
	return &MockTransformer{fs: fsmgr, failures: make(map[string]error)}
}

// FailOn makes op ("Rotate", "Optimize", "SetTimestamp", "SetPermissions",
// "Move") fail for path.
func (t *MockTransformer) FailOn(op, path, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failures[op+" "+path] = &arris.ToolError{Kind: arris.ErrTransform, File: path, Message: message}
}

// ClearFailures removes all injected failures.
func (t *MockTransformer) ClearFailures() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failures = make(map[string]error)
}

// Calls returns the operations performed, as "Op path".
func (t *MockTransformer) Calls() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.calls...)
}

func (t *MockTransformer) begin(op, path string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = append(t.calls, op+" "+path)
	return t.failures[op+" "+path]
}

func (t *MockTransformer) Rotate(_ context.Context, path string, angle int) error {
	if angle%90 != 0 {
		return fmt.Errorf("%w: %d", arris.ErrInvalidAngle, angle)
	}
	if err := t.begin("Rotate", path); err != nil {
		return err
	}
	t.fs.mu.Lock()
	defer t.fs.mu.Unlock()
	f, err := t.fs.lookup(path)
	if err != nil {
		return err
	}
	f.Rotation = (f.Rotation + angle) % 360
	return nil
}

func (t *MockTransformer) Optimize(_ context.Context, path string) error {
	if err := t.begin("Optimize", path); err != nil {
		return err
	}
	t.fs.mu.Lock()
	defer t.fs.mu.Unlock()
	f, err := t.fs.lookup(path)
	if err != nil {
		return err
	}
	f.Optimized = true
	return nil
}

func (t *MockTransformer) SetTimestamp(path string, ts time.Time) error {
	if err := t.begin("SetTimestamp", path); err != nil {
		return err
	}
	t.fs.mu.Lock()
	defer t.fs.mu.Unlock()
	f, err := t.fs.lookup(path)
	if err != nil {
		return err
	}
	f.ModTime = ts
	return nil
}

func (t *MockTransformer) SetPermissions(path string) error {
	if err := t.begin("SetPermissions", path); err != nil {
		return err
	}
	t.fs.mu.Lock()
	defer t.fs.mu.Unlock()
	f, err := t.fs.lookup(path)
	if err != nil {
		return err
	}
	f.Permissions = 0644
	return nil
}

func (t *MockTransformer) Move(path, newPath string) error {
	if err := t.begin("Move", path); err != nil {
		return err
	}
	t.fs.mu.Lock()
	defer t.fs.mu.Unlock()
	f, err := t.fs.lookup(path)
	if err != nil {
		return err
	}
	if _, taken := t.fs.files[newPath]; taken {
		return fmt.Errorf("moving %s: %s already exists", path, newPath)
	}
	delete(t.fs.files, path)
	t.fs.files[newPath] = f
	return nil
}

// Compile-time check
var _ arris.Transformer = (*MockTransformer)(nil)
