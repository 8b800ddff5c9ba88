package devtools

import (
	"context"
	"sync"

	"github.com/wailsapp/wails/v2/pkg/runtime"
)

// ChangedEvent is emitted to the front end after every open or close
const ChangedEvent = "devtools:changed"

const (
	openScript  = "window.__devtools && window.__devtools.show()"
	closeScript = "window.__devtools && window.__devtools.hide()"
)

// WailsWindow drives the in-page devtools overlay of the Wails main window.
// The open flag lives here; the overlay only renders it.
type WailsWindow struct {
	ctx context.Context

	mu   sync.Mutex
	open bool

	execJS func(ctx context.Context, js string)
	emit   func(ctx context.Context, name string, data ...interface{})
}

// NewWailsWindow binds to the window owning ctx (the Wails startup context)
func NewWailsWindow(ctx context.Context) *WailsWindow {
	return &WailsWindow{
		ctx:    ctx,
		execJS: runtime.WindowExecJS,
		emit:   runtime.EventsEmit,
	}
}

func (w *WailsWindow) IsDevtoolsOpen() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.open
}

func (w *WailsWindow) OpenDevtools() {
	w.set(true, openScript)
}

func (w *WailsWindow) CloseDevtools() {
	w.set(false, closeScript)
}

func (w *WailsWindow) set(open bool, script string) {
	w.mu.Lock()
	w.open = open
	w.mu.Unlock()

	w.execJS(w.ctx, script)
	w.emit(w.ctx, ChangedEvent, open)
}
