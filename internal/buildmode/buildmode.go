// Package buildmode exposes the compile-time debug/release switch.
package buildmode

// Name returns "debug" or "release" for logging.
func Name() string {
	if Debug {
		return "debug"
	}
	return "release"
}
