package devtools

import (
	"context"
	"sync"
	"testing"

	"bilimusic/internal/testutils"
)

type fakeWindow struct {
	mu     sync.Mutex
	open   bool
	opens  int
	closes int
}

func (f *fakeWindow) IsDevtoolsOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

func (f *fakeWindow) OpenDevtools() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.open = true
	f.opens++
}

func (f *fakeWindow) CloseDevtools() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.open = false
	f.closes++
}

func TestToggle_DebugRoundTrip(t *testing.T) {
	t.Parallel()
	w := &fakeWindow{}

	Toggle(w, true)
	if !w.IsDevtoolsOpen() {
		t.Fatal("Expected devtools to be open after first toggle")
	}

	Toggle(w, true)
	if w.IsDevtoolsOpen() {
		t.Fatal("Expected devtools to be closed after second toggle")
	}
	if w.opens != 1 || w.closes != 1 {
		t.Errorf("Expected 1 open and 1 close, got %d/%d", w.opens, w.closes)
	}
}

func TestToggle_ClosesWhenInitiallyOpen(t *testing.T) {
	t.Parallel()
	w := &fakeWindow{open: true}

	Toggle(w, true)
	if w.IsDevtoolsOpen() || w.closes != 1 {
		t.Errorf("Expected close from open state, open=%v closes=%d", w.open, w.closes)
	}
}

func TestToggle_ReleaseIsNoOp(t *testing.T) {
	t.Parallel()
	for _, initial := range []bool{false, true} {
		w := &fakeWindow{open: initial}
		for i := 0; i < 5; i++ {
			Toggle(w, false)
		}
		if w.opens != 0 || w.closes != 0 {
			t.Errorf("Expected no state-changing calls in release, got %d opens %d closes", w.opens, w.closes)
		}
		if w.IsDevtoolsOpen() != initial {
			t.Errorf("Visibility changed in release build")
		}
	}
}

func TestToggle_NilWindow(t *testing.T) {
	t.Parallel()
	Toggle(nil, true)
}

func TestWailsWindow_IssuesScriptsAndEvents(t *testing.T) {
	t.Parallel()
	var scripts []string
	var events []interface{}

	w := NewWailsWindow(context.Background())
	w.execJS = func(ctx context.Context, js string) { scripts = append(scripts, js) }
	w.emit = func(ctx context.Context, name string, data ...interface{}) {
		if name != ChangedEvent {
			t.Errorf("Unexpected event %q", name)
		}
		events = append(events, data...)
	}

	Toggle(w, true)
	Toggle(w, true)

	if len(scripts) != 2 || scripts[0] != openScript || scripts[1] != closeScript {
		t.Errorf("Unexpected scripts: %v", scripts)
	}
	if len(events) != 2 || events[0] != true || events[1] != false {
		t.Errorf("Unexpected events: %v", events)
	}
	if w.IsDevtoolsOpen() {
		t.Error("Expected closed after two toggles")
	}
}

func TestCommands_OpenDevtools(t *testing.T) {
	t.Parallel()
	w := &fakeWindow{}
	c := NewCommands(true, nil)
	c.newWindow = func(ctx context.Context) Window { return w }

	c.OpenDevtools() // before Startup: ignored
	if w.opens != 0 {
		t.Fatal("Expected no toggle before startup")
	}

	c.Startup(context.Background())
	c.OpenDevtools()
	c.OpenDevtools()

	if w.opens != 1 || w.closes != 1 {
		t.Errorf("Expected 1 open and 1 close, got %d/%d", w.opens, w.closes)
	}
}

func TestCommands_ReleaseBuild(t *testing.T) {
	t.Parallel()
	w := &fakeWindow{}
	rec := &testutils.RecordingLogger{}
	c := NewCommands(false, rec)
	c.newWindow = func(ctx context.Context) Window { return w }
	c.Startup(context.Background())

	for i := 0; i < 3; i++ {
		c.OpenDevtools()
	}

	if w.opens != 0 || w.closes != 0 {
		t.Errorf("Expected no calls in release, got %d opens %d closes", w.opens, w.closes)
	}
	if len(rec.Entries()) != 0 {
		t.Errorf("Expected nothing logged in release, got %+v", rec.Entries())
	}
}
