package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"arris/internal/arris"
	"arris/internal/config"

	"golang.org/x/term"
)

// Shell is a line-oriented editor driving an ArrisService. It prints what
// the service publishes and answers discard questions by prompting on its
// input.
//
// Event handlers run on the goroutine that called the service and must not
// call back into it.
type Shell struct {
	svc         *arris.ArrisService
	completion  config.CompletionConfig
	in          *bufio.Scanner
	out         io.Writer
	interactive bool

	// mu guards out; thumbnails are reported from the loader goroutine.
	mu   sync.Mutex
	quit bool
}

type command struct {
	usage string
	help  string
	run   func(ctx context.Context, args []string, rest string) error
}

// NewShell creates a shell reading commands from in. Prompts and progress
// are only printed when interactive is set.
func NewShell(svc *arris.ArrisService, completion config.CompletionConfig, in io.Reader, out io.Writer, interactive bool) *Shell {
	return &Shell{
		svc:         svc,
		completion:  completion,
		in:          bufio.NewScanner(in),
		out:         out,
		interactive: interactive,
	}
}

// IsInteractive reports whether f is a terminal.
func IsInteractive(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Run loads dir and executes commands until quit or end of input.
func (s *Shell) Run(ctx context.Context, dir string, recursive bool) error {
	unsubscribe := s.subscribe()
	defer unsubscribe()

	if _, err := s.svc.ChangeDirectory(ctx, dir, recursive); err != nil {
		return err
	}

	for !s.quit {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.prompt("arris> ")
		line, ok := s.readLine()
		if !ok {
			if s.edited() {
				s.printf("leaving with unsaved changes\n")
			}
			break
		}
		if err := s.Exec(ctx, line); err != nil {
			s.printf("error: %v\n", err)
		}
	}
	return s.in.Err()
}

// Exec runs a single command line.
func (s *Shell) Exec(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}
	name, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	cmd, ok := s.commands()[name]
	if !ok {
		return fmt.Errorf("unknown command %q, try help", name)
	}
	return cmd.run(ctx, strings.Fields(rest), rest)
}

func (s *Shell) commands() map[string]command {
	cmds := map[string]command{
		"ls":       {"ls", "list the files of the directory", s.cmdList},
		"cd":       {"cd DIR [-r]", "change directory, -r includes subdirectories", s.cmdChangeDirectory},
		"select":   {"select all|none|IDX|FROM-TO ...", "select files", s.cmdSelect},
		"show":     {"show", "show the metadata of the selection", s.cmdShow},
		"set":      {"set FIELD VALUE", "set a field of the selected files", s.cmdSet},
		"unset":    {"unset FIELD", "clear a field of the selected files", s.cmdUnset},
		"tags":     {"tags TAG, TAG ...", "replace the tags of the selected files", s.cmdTags},
		"rotate":   {"rotate", "rotate the selected files clockwise", s.cmdRotate},
		"rename":   {"rename", "rename the selected files after their date", s.cmdRename},
		"delete":   {"delete", "delete the selected files on save", s.cmdDelete},
		"undelete": {"undelete IDX ...", "keep files marked for deletion", s.cmdUndelete},
		"adjust":   {"adjust DURATION", "shift the date of the selected files, e.g. 1h30m or -45s", s.cmdAdjust},
		"utc":      {"utc HOURS", "move the UTC offset of the selected files' dates", s.cmdUTC},
		"save":     {"save [-o]", "write all changes, -o also optimizes JPEGs", s.cmdSave},
		"discard":  {"discard", "drop all unsaved changes", s.cmdDiscard},
		"history":  {"history [N]", "list the last N saves", s.cmdHistory},
		"complete": {"complete FIELD [PREFIX]", "list known words for author, city or country", s.cmdComplete},
		"state":    {"state", "print the editor state", s.cmdState},
		"quit":     {"quit", "leave the editor", s.cmdQuit},
	}
	cmds["exit"] = cmds["quit"]
	cmds["help"] = command{"help", "list commands", func(context.Context, []string, string) error {
		names := make([]string, 0, len(cmds))
		for name := range cmds {
			if name != "exit" {
				names = append(names, name)
			}
		}
		slices.Sort(names)
		for _, name := range names {
			s.printf("  %-34s %s\n", cmds[name].usage, cmds[name].help)
		}
		return nil
	}}
	return cmds
}

func (s *Shell) cmdList(context.Context, []string, string) error {
	ledger := s.svc.Ledger()
	dir := ledger.Directory()
	if dir == "" {
		return arris.ErrNoDirectory
	}
	selected := s.svc.Selection()
	for i, r := range ledger.Records() {
		mark := ' '
		if slices.Contains(selected, i) {
			mark = '*'
		}
		line := fmt.Sprintf("%c%3d %-4s %s", mark, i, recordFlags(r), relPath(dir, r.Path))
		if r.Transformations.Rename != nil {
			line += " -> " + *r.Transformations.Rename
		}
		s.printf("%s\n", line)
	}
	return nil
}

// recordFlags renders the state of r: D deleted (X once removed), E edited,
// R rotation staged, N rename staged.
func recordFlags(r arris.FileRecord) string {
	var b strings.Builder
	switch {
	case r.Removed():
		b.WriteByte('X')
	case r.Deleted:
		b.WriteByte('D')
	}
	if r.Edited {
		b.WriteByte('E')
	}
	if r.Transformations.Rotate != nil {
		b.WriteByte('R')
	}
	if r.Transformations.Rename != nil {
		b.WriteByte('N')
	}
	return b.String()
}

func (s *Shell) cmdChangeDirectory(ctx context.Context, args []string, _ string) error {
	var dir string
	recursive := false
	for _, a := range args {
		if a == "-r" {
			recursive = true
			continue
		}
		dir = a
	}
	if dir == "" {
		return errors.New("usage: cd DIR [-r]")
	}
	if !filepath.IsAbs(dir) {
		if current := s.svc.Ledger().Directory(); current != "" {
			dir = filepath.Join(current, dir)
		}
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}
	_, err = s.svc.ChangeDirectory(ctx, abs, recursive)
	return err
}

func (s *Shell) cmdSelect(ctx context.Context, args []string, _ string) error {
	indices, err := ParseIndices(args, s.svc.Ledger().Len())
	if err != nil {
		return err
	}
	selected, err := s.svc.Select(ctx, indices)
	if err != nil {
		return err
	}
	if len(selected) == 0 {
		s.printf("nothing selected\n")
	}
	return nil
}

// ParseIndices turns select arguments into file indices. "all" selects
// every one of n files, "none" or no argument nothing; ranges are
// inclusive.
func ParseIndices(args []string, n int) ([]int, error) {
	indices := []int{}
	for _, a := range args {
		switch a {
		case "all":
			for i := range n {
				indices = append(indices, i)
			}
			continue
		case "none":
			continue
		}

		from, to, isRange := strings.Cut(a, "-")
		first, err := strconv.Atoi(from)
		if err != nil {
			return nil, fmt.Errorf("invalid index %q", a)
		}
		last := first
		if isRange {
			last, err = strconv.Atoi(to)
			if err != nil || last < first {
				return nil, fmt.Errorf("invalid range %q", a)
			}
		}
		for i := first; i <= last; i++ {
			indices = append(indices, i)
		}
	}
	return indices, nil
}

func (s *Shell) cmdShow(context.Context, []string, string) error {
	if len(s.svc.Selection()) == 0 {
		s.printf("nothing selected\n")
		return nil
	}
	view, err := s.svc.Display()
	if err != nil {
		return err
	}
	s.printView(view)
	return nil
}

func (s *Shell) cmdSet(_ context.Context, _ []string, rest string) error {
	name, value, _ := strings.Cut(rest, " ")
	value = strings.TrimSpace(value)
	if name == "" || value == "" {
		return errors.New("usage: set FIELD VALUE")
	}
	field, err := arris.ParseField(name)
	if err != nil {
		return err
	}
	return s.svc.SetField(field, &value)
}

func (s *Shell) cmdUnset(_ context.Context, args []string, _ string) error {
	if len(args) != 1 {
		return errors.New("usage: unset FIELD")
	}
	field, err := arris.ParseField(args[0])
	if err != nil {
		return err
	}
	return s.svc.SetField(field, nil)
}

func (s *Shell) cmdTags(_ context.Context, _ []string, rest string) error {
	return s.svc.SetField(arris.FieldTags, &rest)
}

func (s *Shell) cmdRotate(context.Context, []string, string) error {
	return s.svc.Rotate()
}

func (s *Shell) cmdRename(context.Context, []string, string) error {
	renamed, err := s.svc.Rename()
	if err != nil {
		return err
	}
	if len(renamed) == 0 {
		s.printf("no selected file has a date to name it after\n")
	}
	return nil
}

func (s *Shell) cmdDelete(context.Context, []string, string) error {
	deleted, err := s.svc.Delete()
	if err != nil {
		return err
	}
	s.printf("%d file(s) will be deleted on save\n", len(deleted))
	return nil
}

func (s *Shell) cmdUndelete(_ context.Context, args []string, _ string) error {
	if len(args) == 0 {
		return errors.New("usage: undelete IDX ...")
	}
	indices, err := ParseIndices(args, s.svc.Ledger().Len())
	if err != nil {
		return err
	}
	return s.svc.Undelete(indices)
}

func (s *Shell) cmdAdjust(_ context.Context, args []string, _ string) error {
	if len(args) != 1 {
		return errors.New("usage: adjust DURATION")
	}
	d, err := time.ParseDuration(args[0])
	if err != nil {
		return fmt.Errorf("%w: %v", arris.ErrInvalidValue, err)
	}
	return s.svc.AdjustTime(d)
}

func (s *Shell) cmdUTC(_ context.Context, args []string, _ string) error {
	if len(args) != 1 {
		return errors.New("usage: utc HOURS")
	}
	hours, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("%w: %q is not a number of hours", arris.ErrInvalidValue, args[0])
	}
	return s.svc.AdjustUTCOffset(hours)
}

func (s *Shell) cmdSave(ctx context.Context, args []string, _ string) error {
	optimize := slices.Contains(args, "-o")
	_, err := s.svc.Commit(ctx, optimize)
	return err
}

func (s *Shell) cmdDiscard(context.Context, []string, string) error {
	return s.svc.Discard()
}

func (s *Shell) cmdHistory(_ context.Context, args []string, _ string) error {
	limit := 10
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid count %q", args[0])
		}
		limit = n
	}
	commits, err := s.svc.History(limit)
	if err != nil {
		return err
	}
	if len(commits) == 0 {
		s.printf("no saves recorded\n")
		return nil
	}
	for _, c := range commits {
		s.printf("%s\n", FormatCommit(c))
	}
	return nil
}

// FormatCommit renders a commit summary on one line.
func FormatCommit(c *arris.CommitSummary) string {
	duration := "unfinished"
	if c.FinishedAt != nil {
		duration = c.FinishedAt.Sub(c.StartedAt).Truncate(time.Millisecond).String()
	}
	return fmt.Sprintf("%s  %s  %-10s  processed:%d written:%d deleted:%d failed:%d  %s",
		c.StartedAt.Format("2006-01-02 15:04:05"),
		c.ID,
		duration,
		c.Processed,
		c.Written,
		c.Deleted,
		c.Failed,
		c.Directory,
	)
}

func (s *Shell) cmdComplete(_ context.Context, args []string, _ string) error {
	if len(args) == 0 || len(args) > 2 {
		return errors.New("usage: complete FIELD [PREFIX]")
	}
	var words []string
	switch args[0] {
	case "author":
		words = s.completion.Author
	case "city":
		words = s.completion.City
	case "country":
		words = s.completion.Country
	default:
		return fmt.Errorf("%w: no completion for %q", arris.ErrUnknownField, args[0])
	}
	prefix := ""
	if len(args) == 2 {
		prefix = args[1]
	}
	for _, w := range Complete(words, prefix) {
		s.printf("%s\n", w)
	}
	return nil
}

// Complete returns the words starting with prefix, ignoring case.
func Complete(words []string, prefix string) []string {
	prefix = strings.ToLower(prefix)
	var out []string
	for _, w := range words {
		if strings.HasPrefix(strings.ToLower(w), prefix) {
			out = append(out, w)
		}
	}
	return out
}

func (s *Shell) cmdState(context.Context, []string, string) error {
	edit, selection := s.svc.State()
	s.printf("%s %s\n", edit, selection)
	return nil
}

func (s *Shell) cmdQuit(context.Context, []string, string) error {
	if s.edited() && !s.confirm("quit without saving? [y/N] ") {
		return nil
	}
	s.quit = true
	return nil
}

func (s *Shell) edited() bool {
	edit, _ := s.svc.State()
	return edit == arris.Edited
}

func (s *Shell) subscribe() func() {
	bus := s.svc.Bus()
	unsubs := []func(){
		bus.Subscribe(arris.EventFilesUpdated, s.onFilesUpdated),
		bus.Subscribe(arris.EventFilesNotUpdated, func(e arris.Event) {
			s.printf("staying in %s\n", e.Directory)
		}),
		bus.Subscribe(arris.EventMetadataUpdated, func(e arris.Event) {
			s.printView(*e.View)
		}),
		bus.Subscribe(arris.EventFilesRenamed, func(e arris.Event) {
			for _, r := range e.Renamed {
				s.printf("%3d -> %s\n", r.Index, r.NewName)
			}
		}),
		bus.Subscribe(arris.EventFileDeleted, func(e arris.Event) {
			s.printf("%3d removed\n", e.Index)
		}),
		bus.Subscribe(arris.EventAskDiscard, func(arris.Event) {
			arris.Answer(bus, s.confirm("discard unsaved changes? [y/N] "))
		}),
		bus.Subscribe(arris.EventDiscardEdits, func(arris.Event) {
			s.printf("unsaved changes discarded\n")
		}),
		bus.Subscribe(arris.EventProgress, s.onProgress),
		bus.Subscribe(arris.EventSaved, func(e arris.Event) {
			s.printf("saved: %d written, %d deleted\n", e.Report.Written, e.Report.Deleted)
		}),
		bus.Subscribe(arris.EventSaveFailed, s.onSaveFailed),
		bus.Subscribe(arris.EventThumbnailReady, s.onThumbnail),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

func (s *Shell) onFilesUpdated(e arris.Event) {
	s.printf("%s: %d file(s)\n", e.Directory, len(e.Files))
	for i, p := range e.Files {
		s.printf("%4d %s\n", i, relPath(e.Directory, p))
	}
}

func (s *Shell) onProgress(e arris.Event) {
	if !s.interactive || e.Total < 2 {
		return
	}
	s.printf("\r%d/%d", e.Progress, e.Total)
	if e.Progress == e.Total {
		s.printf("\n")
	}
}

func (s *Shell) onSaveFailed(e arris.Event) {
	r := e.Report
	s.printf("saved with %d failure(s): %d written, %d deleted\n", len(r.Failures), r.Written, r.Deleted)
	for _, f := range r.Failures {
		s.printf("%4d %s: %v\n", f.Index, f.Path, f.Err)
	}
}

func (s *Shell) onThumbnail(e arris.Event) {
	th := e.Thumbnail
	if th.Err != nil {
		s.printf("%4d no preview: %v\n", th.Index, th.Err)
		return
	}
	s.printf("%4d preview %dx%d\n", th.Index, th.Width, th.Height)
}

func (s *Shell) printView(v arris.DisplayView) {
	for _, f := range arris.AllFields {
		var value string
		var shared bool
		switch f {
		case arris.FieldDateTime:
			if shared = v.DateTime != nil; shared {
				value = arris.FormatXMPDate(*v.DateTime)
			}
		case arris.FieldTags:
			if shared = v.Tags != nil; shared {
				value = strings.Join(v.Tags, ", ")
			}
		default:
			if p := v.Text(f); p != nil {
				value, shared = *p, true
			}
		}
		if !shared && !v.Single {
			value = "(differs)"
		}
		s.printf("  %-12s %s\n", f, value)
	}
}

// confirm asks question and reads the answer from the input. Only an
// answer starting with y counts as yes; end of input counts as no.
func (s *Shell) confirm(question string) bool {
	s.printf("%s", question)
	line, ok := s.readLine()
	if !s.interactive {
		s.printf("\n")
	}
	if !ok {
		return false
	}
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(line)), "y")
}

func (s *Shell) readLine() (string, bool) {
	if !s.in.Scan() {
		return "", false
	}
	return s.in.Text(), true
}

func (s *Shell) prompt(p string) {
	if s.interactive {
		s.printf("%s", p)
	}
}

func (s *Shell) printf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, format, args...)
}

func relPath(dir, path string) string {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return path
	}
	return rel
}
