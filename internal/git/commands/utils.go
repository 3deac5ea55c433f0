package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kurobon/nexusvc/internal/queue"
)

// Shared utilities for commands

var errHelpRequested = errors.New("help requested")

// await waits for a queued operation, passing through a policy error
// returned before it was queued.
func await[T any](ctx context.Context, f *queue.Future[T], err error) (T, error) {
	if err != nil {
		var zero T
		return zero, err
	}
	return f.Wait(ctx)
}

// fatal formats an error the way git reports it.
func fatal(err error) error {
	return fmt.Errorf("fatal: %w", err)
}

func unknownOption(arg string) error {
	return fmt.Errorf("error: unknown option `%s`", strings.TrimLeft(arg, "-"))
}

func short(id string) string {
	if len(id) > 7 {
		return id[:7]
	}
	return id
}
