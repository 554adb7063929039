package thumbnail

import (
	"errors"
	"sync"
	"testing"
	"time"

	"arris/internal/arris"
)

// fakeDecoder returns the path as data. Paths listed in block wait until
// release is closed.
type fakeDecoder struct {
	block   map[string]bool
	release chan struct{}
	started chan string
	fail    map[string]bool
}

func newFakeDecoder() *fakeDecoder {
	return &fakeDecoder{
		block:   map[string]bool{},
		release: make(chan struct{}),
		started: make(chan string, 16),
		fail:    map[string]bool{},
	}
}

func (d *fakeDecoder) Decode(path string) ([]byte, int, int, error) {
	d.started <- path
	if d.block[path] {
		<-d.release
	}
	if d.fail[path] {
		return nil, 0, 0, errors.New("no thumbnail")
	}
	return []byte(path), 160, 120, nil
}

// collector gathers delivered thumbnails.
type collector struct {
	mu   sync.Mutex
	got  []arris.Thumbnail
	done chan struct{}
	want int
}

func newCollector(want int) *collector {
	return &collector{done: make(chan struct{}), want: want}
}

func (c *collector) deliver(th arris.Thumbnail) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.got = append(c.got, th)
	if len(c.got) == c.want {
		close(c.done)
	}
}

func (c *collector) results() []arris.Thumbnail {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]arris.Thumbnail(nil), c.got...)
}

func (c *collector) wait(t *testing.T) {
	t.Helper()
	select {
	case <-c.done:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for %d thumbnails, got %d", c.want, len(c.results()))
	}
}

func jobs(paths ...string) []arris.ThumbnailJob {
	out := make([]arris.ThumbnailJob, len(paths))
	for i, p := range paths {
		out[i] = arris.ThumbnailJob{Index: i, Path: p}
	}
	return out
}

func TestLoader_DeliversInOrder(t *testing.T) {
	dec := newFakeDecoder()
	dec.fail["b.jpg"] = true
	l := NewLoader(dec, nil)
	defer l.Stop()

	c := newCollector(3)
	l.Start(jobs("a.jpg", "b.jpg", "c.jpg"), c.deliver)
	c.wait(t)

	got := c.results()
	for i, want := range []string{"a.jpg", "b.jpg", "c.jpg"} {
		if got[i].Path != want || got[i].Index != i {
			t.Errorf("result %d = %s/%d, want %s/%d", i, got[i].Path, got[i].Index, want, i)
		}
	}
	if got[0].Width != 160 || got[0].Height != 120 || string(got[0].Data) != "a.jpg" {
		t.Errorf("result 0 = %+v", got[0])
	}
	if got[1].Err == nil {
		t.Error("failed decode delivered without error")
	}
}

func TestLoader_StopDropsPendingResults(t *testing.T) {
	dec := newFakeDecoder()
	dec.block["a.jpg"] = true
	l := NewLoader(dec, nil)

	c := newCollector(1)
	l.Start(jobs("a.jpg", "b.jpg"), c.deliver)
	<-dec.started // a.jpg is being decoded

	stopped := make(chan struct{})
	go func() {
		l.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop() returned while a decode was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(dec.release)
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop() did not return")
	}

	if got := c.results(); len(got) != 0 {
		t.Errorf("delivered %d thumbnails after Stop, want 0", len(got))
	}
}

func TestLoader_StartReplacesBatch(t *testing.T) {
	dec := newFakeDecoder()
	dec.block["old.jpg"] = true
	l := NewLoader(dec, nil)
	defer l.Stop()

	old := newCollector(1)
	l.Start(jobs("old.jpg"), old.deliver)
	<-dec.started

	go func() {
		time.Sleep(20 * time.Millisecond)
		close(dec.release)
	}()

	fresh := newCollector(1)
	l.Start(jobs("new.jpg"), fresh.deliver)
	fresh.wait(t)

	if got := old.results(); len(got) != 0 {
		t.Errorf("old batch delivered %d thumbnails", len(got))
	}
	if got := fresh.results(); got[0].Path != "new.jpg" {
		t.Errorf("new batch delivered %s", got[0].Path)
	}
}

func TestLoader_StopIdle(t *testing.T) {
	l := NewLoader(newFakeDecoder(), nil)
	l.Stop()
	l.Start(nil, func(arris.Thumbnail) { t.Error("deliver called for an empty batch") })
	l.Stop()
}
