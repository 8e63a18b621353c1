//go:build !windows

package fileutil

// restrict is a no-op: permission bits already limit access on Unix.
func restrict(string) {}
