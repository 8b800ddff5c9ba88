// Package devtools implements the developer-tools toggle command.
package devtools

// Window is the part of a host window the toggle needs
type Window interface {
	IsDevtoolsOpen() bool
	OpenDevtools()
	CloseDevtools()
}

// Toggle closes the devtools panel of w when it is open and opens it
// otherwise. It does nothing unless debug is true.
func Toggle(w Window, debug bool) {
	if !debug || w == nil {
		return
	}
	if w.IsDevtoolsOpen() {
		w.CloseDevtools()
	} else {
		w.OpenDevtools()
	}
}
