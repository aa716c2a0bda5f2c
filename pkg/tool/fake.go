package tool

import (
	"context"
	"sync"
)

// Fake is a Runner for tests. Each command is passed to RunFunc, and
// recorded in Calls.
type Fake struct {
	RunFunc func(cmd Command) ([]byte, error)

	mu    sync.Mutex
	calls []Command
}

func (f *Fake) Run(ctx context.Context, cmd Command) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.RunFunc == nil {
		return nil, nil
	}
	return f.RunFunc(cmd)
}

func (f *Fake) Calls() []Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Command(nil), f.calls...)
}
