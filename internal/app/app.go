package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"arris/internal/arris"
	"arris/internal/codec"
	"arris/internal/config"
	"arris/internal/fs"
	"arris/internal/journal"
	"arris/internal/thumbnail"
	"arris/internal/transform"
)

// ArrisApp is the application layer between the CLI and ArrisService.
// It constructs all dependencies from config, exposes high-level operations
// that accept raw string paths, and releases the tools and journal on Close.
type ArrisApp struct {
	cfg     *config.Config
	codec   codec.Codec
	journal arris.Journal
	service *arris.ArrisService
	logger  arris.Logger
	op      *Operation
	logFile *os.File

	captureTime func(path string) (time.Time, error)
}

// NewArrisApp creates a fully wired ArrisApp from the given config.
// operation identifies the CLI command being run (e.g. "Edit", "Show").
// The caller must call Close when done.
func NewArrisApp(cfg *config.Config, operation string) (*ArrisApp, error) {
	tools := append(codec.RequiredTools(cfg.Codec), cfg.Transform.JpegtranPath)
	if err := codec.CheckTools(tools...); err != nil {
		return nil, err
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	op := NewOperation(arris.UUIDGenerator{}.New(), operation, time.Now())

	var stderr io.Writer
	if cfg.General.Debug {
		stderr = os.Stderr
	}
	slogger, logFile, err := newLogger(cfg.LogDir, op.ID, cfg.General.Debug, stderr)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: slogger}

	cdc, err := codec.NewCodecFromConfig(cfg.Codec, logger)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("creating codec: %w", err)
	}

	j, err := journal.NewJournalFromConfig(cfg.Journal)
	if err != nil {
		cdc.Close()
		logFile.Close()
		return nil, fmt.Errorf("creating journal: %w", err)
	}
	if m, ok := j.(interface{ CheckMigrations() error }); ok {
		if err := m.CheckMigrations(); err != nil {
			j.Close()
			cdc.Close()
			logFile.Close()
			return nil, fmt.Errorf("journal schema out of date: %w", err)
		}
	}

	fsmgr := fs.NewOSFilesystemManager(cfg.Filesystem.Ignore)
	transformer := transform.NewFileTransformer(codec.ExecRunner{}, cfg.Transform.JpegtranPath, cdc, logger)
	thumbs := thumbnail.NewLoader(thumbnail.ExifDecoder{}, logger)

	svc := arris.NewArrisService(arris.NewBus(), cdc, transformer, fsmgr, j, thumbs, logger, arris.RealClock{}, arris.UUIDGenerator{}, arris.Settings{
		DefaultZone: loc,
		Language:    cfg.General.DefaultLanguage,
	})

	a := &ArrisApp{
		cfg:         cfg,
		codec:       cdc,
		journal:     j,
		service:     svc,
		logger:      logger,
		op:          op,
		logFile:     logFile,
		captureTime: thumbnail.CaptureTime,
	}
	logger.Info("operation started", "operation", op.Name)
	return a, nil
}

// Service returns the editing service.
func (a *ArrisApp) Service() *arris.ArrisService {
	return a.service
}

// Edit runs an editor shell on the given directory, reading commands from in
// and writing to out.
func (a *ArrisApp) Edit(ctx context.Context, rawPath string, recursive bool, in io.Reader, out io.Writer, interactive bool) error {
	dir, err := filepath.Abs(rawPath)
	if err != nil {
		return a.op.Fail(fmt.Errorf("resolving path: %w", err))
	}
	a.op.Directory = dir

	shell := NewShell(a.service, a.cfg.Completion, in, out, interactive)
	return a.op.Fail(shell.Run(ctx, dir, recursive))
}

// FileInfo is the stored metadata of a file as shown by Show.
type FileInfo struct {
	Path     string
	Metadata *arris.Metadata
	// Captured is the EXIF capture date, nil when the file has none.
	Captured *time.Time
}

// Show resolves the given path and returns the metadata of the file, or of
// every supported file when the path is a directory.
func (a *ArrisApp) Show(ctx context.Context, rawPath string) ([]*FileInfo, error) {
	p, err := filepath.Abs(rawPath)
	if err != nil {
		return nil, a.op.Fail(fmt.Errorf("resolving path: %w", err))
	}
	info, err := os.Stat(p)
	if err != nil {
		return nil, a.op.Fail(err)
	}

	dir, only := p, ""
	if !info.IsDir() {
		dir, only = filepath.Dir(p), p
	}
	a.op.Directory = dir

	if _, err := a.service.ChangeDirectory(ctx, dir, false); err != nil {
		return nil, a.op.Fail(err)
	}

	ledger := a.service.Ledger()
	var out []*FileInfo
	for i, r := range ledger.Records() {
		if only != "" && r.Path != only {
			continue
		}
		md, err := ledger.EnsureMetadataLoaded(ctx, i)
		if err != nil {
			return nil, a.op.Fail(err)
		}
		fi := &FileInfo{Path: r.Path, Metadata: md}
		if t, err := a.captureTime(r.Path); err == nil {
			fi.Captured = &t
		}
		out = append(out, fi)
	}
	if only != "" && len(out) == 0 {
		return nil, a.op.Fail(fmt.Errorf("%s is not a supported image", only))
	}
	return out, nil
}

// History returns the most recent save passes.
func (a *ArrisApp) History(limit int) ([]*arris.CommitSummary, error) {
	commits, err := a.service.History(limit)
	return commits, a.op.Fail(err)
}

// Close stops background work, closes the journal and the codec, and logs
// the end of the operation.
func (a *ArrisApp) Close() error {
	var firstErr error

	if err := a.service.Close(); err != nil {
		firstErr = fmt.Errorf("closing journal: %w", err)
	}
	if err := a.codec.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("closing codec: %w", err)
	}

	a.logger.Info("operation finished",
		"operation", a.op.Name,
		"directory", a.op.Directory,
		"status", a.op.Status,
		"duration", time.Since(a.op.StartedAt).Truncate(time.Millisecond),
	)

	if a.logFile != nil {
		a.logFile.Close()
	}

	return firstErr
}
