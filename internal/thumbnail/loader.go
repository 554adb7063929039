package thumbnail

import (
	"context"
	"sync"

	"arris/internal/arris"
)

// Loader decodes the thumbnails of one batch at a time on a background
// goroutine. Starting a batch stops the previous one first.
type Loader struct {
	decoder Decoder
	logger  arris.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewLoader creates a Loader using decoder.
func NewLoader(decoder Decoder, logger arris.Logger) *Loader {
	if logger == nil {
		logger = arris.NewNopLogger()
	}
	return &Loader{decoder: decoder, logger: logger}
}

func (l *Loader) Start(jobs []arris.ThumbnailJob, deliver func(arris.Thumbnail)) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.stopLocked()
	if len(jobs) == 0 {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		l.run(ctx, jobs, deliver)
	}()
}

func (l *Loader) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopLocked()
}

func (l *Loader) stopLocked() {
	if l.cancel == nil {
		return
	}
	l.cancel()
	l.wg.Wait()
	l.cancel = nil
}

func (l *Loader) run(ctx context.Context, jobs []arris.ThumbnailJob, deliver func(arris.Thumbnail)) {
	for _, job := range jobs {
		if ctx.Err() != nil {
			return
		}
		data, w, h, err := l.decoder.Decode(job.Path)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			l.logger.Debug("no thumbnail", "path", job.Path, "error", err)
		}
		deliver(arris.Thumbnail{
			Index:  job.Index,
			Path:   job.Path,
			Data:   data,
			Width:  w,
			Height: h,
			Err:    err,
		})
	}
}

var _ arris.ThumbnailLoader = (*Loader)(nil)
