package enum

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/sshenum/sshenum/internal/netutil"
)

// Config is the immutable per-run scan configuration.
type Config struct {
	Hostname string
	Port     int
	Threads  int
	Verbose  bool
	IPv6     bool
}

// Addr returns the dialable host:port, bracketing IPv6 literals.
func (c Config) Addr() string {
	return netutil.JoinHostPort(c.Hostname, c.Port)
}

// Engine fans candidate usernames out across a bounded worker pool.
// Each worker runs the full attempt state machine for one candidate
// at a time, so at most Threads transport connections are ever open
// simultaneously.
type Engine struct {
	Cap Capability
	Cfg Config
	Log zerolog.Logger
}

// Run enumerates the given candidates and streams one Outcome per
// candidate on the returned channel, in completion order (workers
// finish independently, so outcomes are unordered relative to the
// input). The channel is closed once every candidate has been
// attempted. Run never fails mid-stream: per-candidate errors arrive
// as outcomes.
//
// A single candidate is just the degenerate case: the pool collapses
// to however many workers have work.
func (e *Engine) Run(ctx context.Context, users []string) <-chan Outcome {
	threads := e.Cfg.Threads
	if threads <= 0 {
		threads = 1
	}
	if threads > len(users) {
		threads = len(users)
	}

	work := make(chan string, len(users))
	for _, u := range users {
		work <- u
	}
	close(work)

	results := make(chan Outcome, len(users))

	runner := &Runner{Cap: e.Cap, Addr: e.Cfg.Addr(), Log: e.Log}

	var wg sync.WaitGroup
	for i := 0; i < threads; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for user := range work {
				results <- runner.Attempt(ctx, user)
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}
