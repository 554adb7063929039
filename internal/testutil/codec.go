package testutil

import (
	"context"
	"strings"
	"sync"
	"time"

	"arris/internal/arris"
)

// MockCodec reads and writes the tags of files in a MockFilesystemManager.
// Failures can be injected per operation and path.
type MockCodec struct {
	fs *MockFilesystemManager

	mu       sync.Mutex
	failures map[string]error
	calls    []string
}

// NewMockCodec creates a codec operating on fsmgr.
func NewMockCodec(fsmgr *MockFilesystemManager) *MockCodec {
	return &MockCodec{fs: fsmgr, failures: make(map[string]error)}
}

// FailOn makes op ("ReadXMP", "WriteXMP", "ReadEXIF", "WriteEXIF") fail
// for path with a ToolError of the matching kind.
func (c *MockCodec) FailOn(op, path, message string) {
	kinds := map[string]error{
		"ReadXMP":   arris.ErrXMPRead,
		"WriteXMP":  arris.ErrXMPWrite,
		"ReadEXIF":  arris.ErrEXIFRead,
		"WriteEXIF": arris.ErrEXIFWrite,
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures[op+" "+path] = &arris.ToolError{Kind: kinds[op], File: path, Message: message}
}

// ClearFailures removes all injected failures.
func (c *MockCodec) ClearFailures() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures = make(map[string]error)
}

// Calls returns the operations performed, as "Op path".
func (c *MockCodec) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

// CallCount returns how often op was called for path.
func (c *MockCodec) CallCount(op, path string) int {
	n := 0
	for _, call := range c.Calls() {
		if call == op+" "+path {
			n++
		}
	}
	return n
}

func (c *MockCodec) begin(op, path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, op+" "+path)
	return c.failures[op+" "+path]
}

func (c *MockCodec) ReadXMP(_ context.Context, path string, _ *time.Location) (*arris.Metadata, error) {
	if err := c.begin("ReadXMP", path); err != nil {
		return nil, err
	}
	c.fs.mu.Lock()
	defer c.fs.mu.Unlock()
	f, err := c.fs.lookup(path)
	if err != nil {
		return nil, err
	}
	return f.XMP.Clone(), nil
}

func (c *MockCodec) WriteXMP(_ context.Context, path string, md *arris.Metadata, _ string) error {
	if err := c.begin("WriteXMP", path); err != nil {
		return err
	}
	c.fs.mu.Lock()
	defer c.fs.mu.Unlock()
	f, err := c.fs.lookup(path)
	if err != nil {
		return err
	}
	f.XMP = md.Clone()
	return nil
}

func (c *MockCodec) ReadEXIF(_ context.Context, path string, tags []string) (map[string]string, error) {
	if err := c.begin("ReadEXIF", path); err != nil {
		return nil, err
	}
	c.fs.mu.Lock()
	defer c.fs.mu.Unlock()
	f, err := c.fs.lookup(path)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string)
	for _, want := range tags {
		for k, v := range f.EXIF {
			if strings.EqualFold(k, want) {
				out[want] = v
			}
		}
	}
	return out, nil
}

func (c *MockCodec) WriteEXIF(_ context.Context, path string, tags map[string]*string) error {
	if err := c.begin("WriteEXIF", path); err != nil {
		return err
	}
	c.fs.mu.Lock()
	defer c.fs.mu.Unlock()
	f, err := c.fs.lookup(path)
	if err != nil {
		return err
	}
	for k, v := range tags {
		if v == nil {
			delete(f.EXIF, k)
			continue
		}
		f.EXIF[k] = *v
	}
	return nil
}

// Compile-time check
var _ arris.MetadataCodec = (*MockCodec)(nil)
