//go:build windows

package main

import "context"

// watchForeground is a no-op: Windows consoles have no job-control resume signal.
func watchForeground(context.Context, func()) func() {
	return func() {}
}
