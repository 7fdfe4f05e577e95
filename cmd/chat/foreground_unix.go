//go:build !windows

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// watchForeground calls fn each time the process is resumed in the
// foreground (SIGCONT after a job-control stop).
func watchForeground(ctx context.Context, fn func()) func() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGCONT)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ch:
				fn()
			}
		}
	}()

	return func() { signal.Stop(ch) }
}
