//go:build dev || debug

package buildmode

// Debug is true for `wails dev` and `wails build -debug` builds, which pass
// the dev and debug tags respectively. Developer-only features key off it.
const Debug = true
