package arris_test

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"arris/internal/arris"
	"arris/internal/testutil"
)

func mustChangeDirectory(t *testing.T, svc *arris.ArrisService, dir string) {
	t.Helper()
	ok, err := svc.ChangeDirectory(context.Background(), dir, false)
	if err != nil {
		t.Fatalf("ChangeDirectory(%s) error = %v", dir, err)
	}
	if !ok {
		t.Fatalf("ChangeDirectory(%s) = false", dir)
	}
}

func mustSelect(t *testing.T, svc *arris.ArrisService, indices ...int) []int {
	t.Helper()
	sel, err := svc.Select(context.Background(), indices)
	if err != nil {
		t.Fatalf("Select(%v) error = %v", indices, err)
	}
	return sel
}

func TestArrisService_ChangeDirectory(t *testing.T) {
	t.Run("loads files and enters zero selection", func(t *testing.T) {
		t.Parallel()
		env := testutil.NewTestEnv(t, nil)
		env.FS.AddFile("/pics/a.jpg")
		env.FS.AddFile("/pics/b.jpg")

		mustChangeDirectory(t, env.Service, "/pics")

		if env.Service.Ledger().Len() != 2 {
			t.Errorf("Len() = %d, want 2", env.Service.Ledger().Len())
		}
		edit, sel := env.Service.State()
		if edit != arris.NotEdited || sel != arris.SelectionZero {
			t.Errorf("State() = %v, %v", edit, sel)
		}
		updated := env.Events.Events(arris.EventFilesUpdated)
		if len(updated) != 1 || !slices.Equal(updated[0].Files, []string{"/pics/a.jpg", "/pics/b.jpg"}) {
			t.Errorf("FilesUpdated events = %+v", updated)
		}
	})

	t.Run("does not ask without edits", func(t *testing.T) {
		t.Parallel()
		env := testutil.NewTestEnv(t, nil)
		env.FS.AddFile("/a/1.jpg")
		env.FS.AddFile("/b/2.jpg")

		mustChangeDirectory(t, env.Service, "/a")
		mustChangeDirectory(t, env.Service, "/b")

		if n := len(env.Events.Events(arris.EventAskDiscard)); n != 0 {
			t.Errorf("asked %d times, want 0", n)
		}
		if env.Service.Ledger().Directory() != "/b" {
			t.Errorf("Directory() = %q", env.Service.Ledger().Directory())
		}
	})

	t.Run("unreadable directory propagates", func(t *testing.T) {
		t.Parallel()
		env := testutil.NewTestEnv(t, nil)
		env.FS.SetUnreadable("/root")

		ok, err := env.Service.ChangeDirectory(context.Background(), "/root", false)
		if err == nil || ok {
			t.Errorf("ChangeDirectory() = %v, %v; want error", ok, err)
		}
	})
}

func TestArrisService_DiscardGuard(t *testing.T) {
	setup := func(t *testing.T, answer bool) *testutil.Env {
		t.Helper()
		env := testutil.NewTestEnv(t, nil)
		env.FS.AddImage("/old/a.jpg", &arris.Metadata{Author: arris.Ptr("Alice")})
		env.FS.AddFile("/new/b.jpg")
		env.FS.AddFile("/new/c.jpg")

		mustChangeDirectory(t, env.Service, "/old")
		mustSelect(t, env.Service, 0)
		if err := env.Service.SetField(arris.FieldAuthor, arris.Ptr("Bob")); err != nil {
			t.Fatalf("SetField() error = %v", err)
		}
		if edit, _ := env.Service.State(); edit != arris.Edited {
			t.Fatalf("edit state = %v, want edited", edit)
		}

		env.Bus.Subscribe(arris.EventAskDiscard, func(arris.Event) {
			arris.Answer(env.Bus, answer)
		})
		env.Events.Reset()
		return env
	}

	t.Run("cancel keeps directory and ledger", func(t *testing.T) {
		t.Parallel()
		env := setup(t, false)

		ok, err := env.Service.ChangeDirectory(context.Background(), "/new", false)
		if err != nil {
			t.Fatalf("ChangeDirectory() error = %v", err)
		}
		if ok {
			t.Error("ChangeDirectory() = true after cancel")
		}

		if got := env.Service.Ledger().Directory(); got != "/old" {
			t.Errorf("Directory() = %q, want /old", got)
		}
		r, _ := env.Service.Ledger().Record(0)
		if !r.Edited || *r.Metadata.Author != "Bob" {
			t.Errorf("ledger changed: %+v", r)
		}
		if edit, _ := env.Service.State(); edit != arris.Edited {
			t.Errorf("edit state = %v, want edited", edit)
		}

		restored := env.Events.Events(arris.EventFilesNotUpdated)
		if len(restored) != 1 || restored[0].Directory != "/old" {
			t.Errorf("FilesNotUpdated events = %+v", restored)
		}
		if n := len(env.Events.Events(arris.EventFilesUpdated)); n != 0 {
			t.Errorf("FilesUpdated published %d times", n)
		}
	})

	t.Run("discard drops edits and loads new directory", func(t *testing.T) {
		t.Parallel()
		env := setup(t, true)

		ok, err := env.Service.ChangeDirectory(context.Background(), "/new", false)
		if err != nil {
			t.Fatalf("ChangeDirectory() error = %v", err)
		}
		if !ok {
			t.Error("ChangeDirectory() = false after discard")
		}

		edit, sel := env.Service.State()
		if edit != arris.NotEdited || sel != arris.SelectionZero {
			t.Errorf("State() = %v, %v; want not_edited, edit_zero_files", edit, sel)
		}
		if env.Service.Ledger().Directory() != "/new" || env.Service.Ledger().Len() != 2 {
			t.Errorf("ledger = %q with %d files", env.Service.Ledger().Directory(), env.Service.Ledger().Len())
		}
		if len(env.Service.Selection()) != 0 {
			t.Errorf("Selection() = %v", env.Service.Selection())
		}

		kinds := env.Events.Kinds()
		discard := slices.Index(kinds, arris.EventDiscardEdits)
		loaded := slices.Index(kinds, arris.EventFilesUpdated)
		if discard < 0 || loaded < 0 || discard > loaded {
			t.Errorf("events = %v, want discard before files updated", kinds)
		}

		// Nothing was written to the old file.
		if *env.FS.File("/old/a.jpg").XMP.Author != "Alice" {
			t.Error("discarded edit reached the file")
		}
	})

	t.Run("answer arriving later unblocks the change", func(t *testing.T) {
		t.Parallel()
		env := testutil.NewTestEnv(t, nil)
		env.FS.AddFile("/old/a.jpg")
		env.FS.AddFile("/new/b.jpg")
		mustChangeDirectory(t, env.Service, "/old")
		mustSelect(t, env.Service, 0)
		if err := env.Service.Rotate(); err != nil {
			t.Fatalf("Rotate() error = %v", err)
		}

		env.Bus.Subscribe(arris.EventAskDiscard, func(arris.Event) {
			go func() {
				time.Sleep(20 * time.Millisecond)
				arris.Answer(env.Bus, true)
			}()
		})

		ok, err := env.Service.ChangeDirectory(context.Background(), "/new", false)
		if err != nil || !ok {
			t.Fatalf("ChangeDirectory() = %v, %v", ok, err)
		}
		if env.Service.Ledger().Directory() != "/new" {
			t.Errorf("Directory() = %q", env.Service.Ledger().Directory())
		}
	})
}

func TestArrisService_Discard(t *testing.T) {
	env := testutil.NewTestEnv(t, nil)
	env.FS.AddImage("/pics/a.jpg", &arris.Metadata{Title: arris.Ptr("Sunset")})
	mustChangeDirectory(t, env.Service, "/pics")
	mustSelect(t, env.Service, 0)
	if err := env.Service.SetField(arris.FieldTitle, arris.Ptr("Sunrise")); err != nil {
		t.Fatalf("SetField() error = %v", err)
	}

	if err := env.Service.Discard(); err != nil {
		t.Fatalf("Discard() error = %v", err)
	}

	edit, sel := env.Service.State()
	if edit != arris.NotEdited || sel != arris.SelectionZero {
		t.Errorf("State() = %v, %v", edit, sel)
	}
	mustSelect(t, env.Service, 0)
	view, err := env.Service.Display()
	if err != nil {
		t.Fatalf("Display() error = %v", err)
	}
	if *view.Title != "Sunset" {
		t.Errorf("Title = %q after discard, want Sunset", *view.Title)
	}
}

func TestArrisService_SelectionEndToEnd(t *testing.T) {
	env := testutil.NewTestEnv(t, nil)
	env.FS.AddImage("/pics/1.jpg", &arris.Metadata{Author: arris.Ptr("Alice")})
	env.FS.AddImage("/pics/2.jpg", &arris.Metadata{Author: arris.Ptr("Bob")})
	env.FS.AddImage("/pics/3.jpg", &arris.Metadata{Author: arris.Ptr("Alice")})
	mustChangeDirectory(t, env.Service, "/pics")

	mustSelect(t, env.Service, 0, 1, 2)
	if _, sel := env.Service.State(); sel != arris.SelectionMany {
		t.Errorf("selection state = %v, want many", sel)
	}
	view, err := env.Service.Display()
	if err != nil {
		t.Fatalf("Display() error = %v", err)
	}
	if view.Author != nil {
		t.Errorf("Author = %q for mixed selection, want nil", *view.Author)
	}

	mustSelect(t, env.Service, 0, 2)
	view, _ = env.Service.Display()
	if view.Author == nil || *view.Author != "Alice" {
		t.Errorf("Author = %v, want Alice", view.Author)
	}

	mustSelect(t, env.Service, 1)
	if _, sel := env.Service.State(); sel != arris.SelectionOne {
		t.Errorf("selection state = %v, want one", sel)
	}
	updates := env.Events.Events(arris.EventMetadataUpdated)
	last := updates[len(updates)-1].View
	if !last.Single || *last.Author != "Bob" {
		t.Errorf("last MetadataUpdated view = %+v", last)
	}

	mustSelect(t, env.Service)
	if _, sel := env.Service.State(); sel != arris.SelectionZero {
		t.Errorf("selection state = %v, want zero", sel)
	}
}

func TestArrisService_Select(t *testing.T) {
	t.Run("loads metadata lazily with progress", func(t *testing.T) {
		t.Parallel()
		env := testutil.NewTestEnv(t, nil)
		env.FS.AddFile("/pics/a.jpg")
		env.FS.AddFile("/pics/b.jpg")
		env.FS.AddFile("/pics/c.jpg")
		mustChangeDirectory(t, env.Service, "/pics")

		mustSelect(t, env.Service, 0, 2)
		mustSelect(t, env.Service, 0)

		if n := env.Codec.CallCount("ReadXMP", "/pics/a.jpg"); n != 1 {
			t.Errorf("a.jpg read %d times, want 1", n)
		}
		if n := env.Codec.CallCount("ReadXMP", "/pics/b.jpg"); n != 0 {
			t.Errorf("unselected b.jpg read %d times", n)
		}
		progress := env.Events.Events(arris.EventProgress)
		if len(progress) != 3 || progress[1].Progress != 2 || progress[1].Total != 2 {
			t.Errorf("progress events = %+v", progress)
		}
	})

	t.Run("excludes deleted files", func(t *testing.T) {
		t.Parallel()
		env := testutil.NewTestEnv(t, nil)
		env.FS.AddFile("/pics/a.jpg")
		env.FS.AddFile("/pics/b.jpg")
		mustChangeDirectory(t, env.Service, "/pics")
		mustSelect(t, env.Service, 0)
		if _, err := env.Service.Delete(); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if len(env.Service.Selection()) != 0 {
			t.Errorf("Selection() after delete = %v", env.Service.Selection())
		}

		sel := mustSelect(t, env.Service, 0, 1)
		if !slices.Equal(sel, []int{1}) {
			t.Errorf("Select() = %v, want [1]", sel)
		}

		if err := env.Service.Undelete([]int{0}); err != nil {
			t.Fatalf("Undelete() error = %v", err)
		}
		sel = mustSelect(t, env.Service, 0, 1)
		if !slices.Equal(sel, []int{0, 1}) {
			t.Errorf("Select() after undelete = %v, want [0 1]", sel)
		}
	})

	t.Run("invalid index", func(t *testing.T) {
		t.Parallel()
		env := testutil.NewTestEnv(t, nil)
		env.FS.AddFile("/pics/a.jpg")
		mustChangeDirectory(t, env.Service, "/pics")

		_, err := env.Service.Select(context.Background(), []int{0, 5})
		if !errors.Is(err, arris.ErrIndexOutOfRange) {
			t.Errorf("Select() error = %v, want ErrIndexOutOfRange", err)
		}
	})
}

func TestArrisService_SetField(t *testing.T) {
	t.Run("single selection clears with nil", func(t *testing.T) {
		t.Parallel()
		env := testutil.NewTestEnv(t, nil)
		env.FS.AddImage("/pics/a.jpg", &arris.Metadata{City: arris.Ptr("Rome"), Author: arris.Ptr("Ann")})
		mustChangeDirectory(t, env.Service, "/pics")
		mustSelect(t, env.Service, 0)

		if err := env.Service.SetField(arris.FieldCity, nil); err != nil {
			t.Fatalf("SetField() error = %v", err)
		}
		r, _ := env.Service.Ledger().Record(0)
		if r.Metadata.City != nil || *r.Metadata.Author != "Ann" {
			t.Errorf("metadata = %+v", r.Metadata)
		}
		if !r.Edited {
			t.Error("record not marked edited")
		}
		if n := len(env.Events.Events(arris.EventEdited)); n != 1 {
			t.Errorf("Edited published %d times, want 1", n)
		}
	})

	t.Run("many selection keeps mixed fields", func(t *testing.T) {
		t.Parallel()
		env := testutil.NewTestEnv(t, nil)
		env.FS.AddImage("/pics/a.jpg", &arris.Metadata{Author: arris.Ptr("Ann"), Country: arris.Ptr("Italy")})
		env.FS.AddImage("/pics/b.jpg", &arris.Metadata{Author: arris.Ptr("Ben")})
		mustChangeDirectory(t, env.Service, "/pics")
		mustSelect(t, env.Service, 0, 1)

		if err := env.Service.SetField(arris.FieldCountry, arris.Ptr("Spain")); err != nil {
			t.Fatalf("SetField() error = %v", err)
		}
		a, _ := env.Service.Ledger().Record(0)
		b, _ := env.Service.Ledger().Record(1)
		if *a.Metadata.Author != "Ann" || *b.Metadata.Author != "Ben" {
			t.Errorf("authors changed: %q, %q", *a.Metadata.Author, *b.Metadata.Author)
		}
		if *a.Metadata.Country != "Spain" || *b.Metadata.Country != "Spain" {
			t.Errorf("countries = %v, %v", a.Metadata.Country, b.Metadata.Country)
		}

		if err := env.Service.SetField(arris.FieldAuthor, nil); !errors.Is(err, arris.ErrInvalidValue) {
			t.Errorf("clearing for many files error = %v, want ErrInvalidValue", err)
		}
	})

	t.Run("tags are lowercased", func(t *testing.T) {
		t.Parallel()
		env := testutil.NewTestEnv(t, nil)
		env.FS.AddFile("/pics/a.jpg")
		mustChangeDirectory(t, env.Service, "/pics")
		mustSelect(t, env.Service, 0)

		if err := env.Service.SetField(arris.FieldTags, arris.Ptr("Beach, SUNSET ,beach,,")); err != nil {
			t.Fatalf("SetField() error = %v", err)
		}
		r, _ := env.Service.Ledger().Record(0)
		if !slices.Equal(r.Metadata.Tags, []string{"beach", "sunset"}) {
			t.Errorf("Tags = %v", r.Metadata.Tags)
		}

		if err := env.Service.SetField(arris.FieldTags, arris.Ptr(" , ")); err != nil {
			t.Fatalf("SetField() error = %v", err)
		}
		r, _ = env.Service.Ledger().Record(0)
		if r.Metadata.Tags != nil {
			t.Errorf("Tags after clearing = %#v, want nil", r.Metadata.Tags)
		}
	})

	t.Run("date parsed in default zone", func(t *testing.T) {
		t.Parallel()
		env := testutil.NewTestEnv(t, nil)
		env.FS.AddFile("/pics/a.jpg")
		mustChangeDirectory(t, env.Service, "/pics")
		mustSelect(t, env.Service, 0)

		if err := env.Service.SetField(arris.FieldDateTime, arris.Ptr("2020-05-06T07:08:09+02:00")); err != nil {
			t.Fatalf("SetField() error = %v", err)
		}
		r, _ := env.Service.Ledger().Record(0)
		want := time.Date(2020, 5, 6, 5, 8, 9, 0, time.UTC)
		if !r.Metadata.DateTime.Equal(want) {
			t.Errorf("DateTime = %v, want %v", r.Metadata.DateTime, want)
		}

		if err := env.Service.SetField(arris.FieldDateTime, arris.Ptr("soon")); !errors.Is(err, arris.ErrInvalidTimestamp) {
			t.Errorf("SetField(bad date) error = %v, want ErrInvalidTimestamp", err)
		}
	})

	t.Run("requires a selection", func(t *testing.T) {
		t.Parallel()
		env := testutil.NewTestEnv(t, nil)
		env.FS.AddFile("/pics/a.jpg")
		mustChangeDirectory(t, env.Service, "/pics")

		if err := env.Service.SetField(arris.FieldTitle, arris.Ptr("x")); err == nil {
			t.Error("SetField() without selection succeeded")
		}
	})
}

func TestArrisService_Transformations(t *testing.T) {
	env := testutil.NewTestEnv(t, nil)
	date := time.Date(2018, 3, 4, 5, 6, 7, 0, time.UTC)
	env.FS.AddImage("/pics/a.JPEG", &arris.Metadata{DateTime: &date})
	env.FS.AddFile("/pics/b.jpg")
	mustChangeDirectory(t, env.Service, "/pics")
	mustSelect(t, env.Service, 0, 1)

	for i := 0; i < 4; i++ {
		if err := env.Service.Rotate(); err != nil {
			t.Fatalf("Rotate() error = %v", err)
		}
	}
	r, _ := env.Service.Ledger().Record(1)
	if r.Transformations.Rotate == nil || *r.Transformations.Rotate != 0 {
		t.Errorf("rotation after four turns = %v, want 0", r.Transformations.Rotate)
	}

	renamed, err := env.Service.Rename()
	if err != nil {
		t.Fatalf("Rename() error = %v", err)
	}
	want := []arris.Renamed{{Index: 0, NewName: "20180304_050607.jpg"}}
	if !slices.Equal(renamed, want) {
		t.Errorf("Rename() = %v, want %v", renamed, want)
	}
	if ev := env.Events.Events(arris.EventFilesRenamed); len(ev) != 1 || !slices.Equal(ev[0].Renamed, want) {
		t.Errorf("FilesRenamed events = %+v", ev)
	}
}

func TestArrisService_AdjustTime(t *testing.T) {
	env := testutil.NewTestEnv(t, nil)
	date := time.Date(2018, 3, 4, 23, 30, 0, 0, time.FixedZone("", 3600))
	env.FS.AddImage("/pics/a.jpg", &arris.Metadata{DateTime: &date})
	env.FS.AddFile("/pics/b.jpg")
	mustChangeDirectory(t, env.Service, "/pics")
	mustSelect(t, env.Service, 0, 1)

	if err := env.Service.AdjustTime(90 * time.Minute); err != nil {
		t.Fatalf("AdjustTime() error = %v", err)
	}

	a, _ := env.Service.Ledger().Record(0)
	want := date.Add(90 * time.Minute)
	if !a.Metadata.DateTime.Equal(want) {
		t.Errorf("DateTime = %v, want %v", a.Metadata.DateTime, want)
	}
	if _, off := a.Metadata.DateTime.Zone(); off != 3600 {
		t.Errorf("offset changed to %d", off)
	}
	b, _ := env.Service.Ledger().Record(1)
	if b.Metadata.DateTime != nil || b.Edited {
		t.Errorf("file without date changed: %+v", b)
	}
	if !a.Edited {
		t.Error("adjusted file not marked edited")
	}
}

func TestShiftUTCOffset(t *testing.T) {
	tests := []struct {
		name   string
		offset float64 // hours
		delta  int
		want   float64
	}{
		{"wraps past +12", 10, 5, -10},
		{"simple increase", 2, 3, 5},
		{"to upper bound", 11, 1, 12},
		{"past upper bound", 12, 1, -12},
		{"past lower bound", -12, -1, 12},
		{"negative delta", 1, -4, -3},
		{"half hour zone", 5.5, 1, 6.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			zone := time.FixedZone("", int(tt.offset*3600))
			in := time.Date(2020, 1, 2, 3, 4, 5, 0, zone)

			got := arris.ShiftUTCOffset(in, tt.delta)

			if _, off := got.Zone(); off != int(tt.want*3600) {
				t.Errorf("offset = %v h, want %v h", float64(off)/3600, tt.want)
			}
			if got.Year() != 2020 || got.Day() != 2 || got.Hour() != 3 || got.Minute() != 4 || got.Second() != 5 {
				t.Errorf("wall clock changed: %v", got)
			}
		})
	}
}

func TestArrisService_AdjustUTCOffset(t *testing.T) {
	env := testutil.NewTestEnv(t, nil)
	date := time.Date(2018, 3, 4, 12, 0, 0, 0, time.FixedZone("", 10*3600))
	env.FS.AddImage("/pics/a.jpg", &arris.Metadata{DateTime: &date})
	mustChangeDirectory(t, env.Service, "/pics")
	mustSelect(t, env.Service, 0)

	if err := env.Service.AdjustUTCOffset(5); err != nil {
		t.Fatalf("AdjustUTCOffset() error = %v", err)
	}

	r, _ := env.Service.Ledger().Record(0)
	if _, off := r.Metadata.DateTime.Zone(); off != -10*3600 {
		t.Errorf("offset = %d, want -10h", off)
	}
	if r.Metadata.DateTime.Hour() != 12 {
		t.Errorf("wall clock hour = %d, want 12", r.Metadata.DateTime.Hour())
	}
}

// manualLoader records batches and lets the test deliver results.
type manualLoader struct {
	mu      sync.Mutex
	batches [][]arris.ThumbnailJob
	deliver func(arris.Thumbnail)
	stops   int
}

func (l *manualLoader) Start(jobs []arris.ThumbnailJob, deliver func(arris.Thumbnail)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.batches = append(l.batches, jobs)
	l.deliver = deliver
}

func (l *manualLoader) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stops++
}

func TestArrisService_Thumbnails(t *testing.T) {
	fsmgr := testutil.NewMockFilesystemManager()
	fsmgr.AddFile("/pics/a.jpg")
	fsmgr.AddFile("/pics/b.jpg")
	bus := arris.NewBus()
	events := testutil.NewEventRecorder(bus)
	loader := &manualLoader{}
	svc := arris.NewArrisService(bus, testutil.NewMockCodec(fsmgr), testutil.NewMockTransformer(fsmgr), fsmgr, nil, loader,
		arris.NewNopLogger(), testutil.FixedClock(), testutil.NewStubIDGenerator(), arris.Settings{})
	t.Cleanup(func() { svc.Close() })

	mustChangeDirectory(t, svc, "/pics")
	mustSelect(t, svc, 0, 1)

	if len(loader.batches) != 1 || len(loader.batches[0]) != 2 || loader.batches[0][1].Path != "/pics/b.jpg" {
		t.Fatalf("batches = %+v, want one batch for both files", loader.batches)
	}

	loader.deliver(arris.Thumbnail{Index: 0, Path: "/pics/a.jpg", Width: 160, Height: 120})
	ready := events.Events(arris.EventThumbnailReady)
	if len(ready) != 1 || ready[0].Index != 0 || ready[0].Thumbnail.Width != 160 {
		t.Fatalf("thumbnail events = %+v", ready)
	}

	t.Run("results for unselected files are dropped", func(t *testing.T) {
		stale := loader.deliver
		mustSelect(t, svc, 1)
		stale(arris.Thumbnail{Index: 0, Path: "/pics/a.jpg"})

		if n := len(events.Events(arris.EventThumbnailReady)); n != 1 {
			t.Errorf("got %d thumbnail events, want the stale one dropped", n)
		}
	})

	t.Run("directory change stops the loader", func(t *testing.T) {
		before := loader.stops
		fsmgr.AddFile("/other/c.jpg")
		mustChangeDirectory(t, svc, "/other")
		if loader.stops <= before {
			t.Error("loader not stopped on directory change")
		}
	})
}
