//go:build !dev && !debug

package buildmode

// Debug is false in release builds.
const Debug = false
