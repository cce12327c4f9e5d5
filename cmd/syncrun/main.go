package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/term"

	nativesync "github.com/wippyai/native-sync"
	"github.com/wippyai/native-sync/thread"
)

func main() {
	var (
		scenario    = flag.String("scenario", "all", "Scenario to run (threads|mutex|semaphore|timer|all)")
		workers     = flag.Int("workers", 8, "Worker threads per scenario")
		iters       = flag.Int("iters", 1000, "Iterations per worker")
		interval    = flag.Duration("interval", 10*time.Millisecond, "Timer interval")
		duration    = flag.Duration("duration", 500*time.Millisecond, "Timer scenario duration")
		verbose     = flag.Bool("v", false, "Verbose logging")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode requires a terminal")
			os.Exit(1)
		}
		if err := runInteractive(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	var opts []nativesync.Option
	if *verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
		opts = append(opts, nativesync.WithLogger(logger))
	}

	if err := run(*scenario, *workers, *iters, *interval, *duration, opts...); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(scenario string, workers, iters int, interval, duration time.Duration, opts ...nativesync.Option) error {
	rt := nativesync.New(opts...)
	defer rt.Close()

	type scenarioFunc func(*nativesync.Runtime, int, int, time.Duration, time.Duration) error
	scenarios := map[string]scenarioFunc{
		"threads":   runThreads,
		"mutex":     runMutex,
		"semaphore": runSemaphore,
		"timer":     runTimer,
	}

	if scenario == "all" {
		for _, name := range []string{"threads", "mutex", "semaphore", "timer"} {
			fmt.Printf("--- %s ---\n", name)
			if err := scenarios[name](rt, workers, iters, interval, duration); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
		}
		return nil
	}

	fn, ok := scenarios[scenario]
	if !ok {
		return fmt.Errorf("unknown scenario %q (threads|mutex|semaphore|timer|all)", scenario)
	}
	return fn(rt, workers, iters, interval, duration)
}

func runThreads(rt *nativesync.Runtime, workers, _ int, _, _ time.Duration) error {
	ctx := context.Background()
	fmt.Printf("Host thread id: %d\n", rt.GetThreadID(ctx))

	handles := make([]thread.Handle, 0, workers)
	for i := 0; i < workers; i++ {
		code := i
		h, err := rt.CreateThread(ctx, func() (int, error) {
			return code, nil
		})
		if err != nil {
			return fmt.Errorf("create thread: %w", err)
		}
		handles = append(handles, h)
	}

	for i, h := range handles {
		code, err := rt.JoinThread(ctx, h)
		if err != nil {
			return fmt.Errorf("join thread %d: %w", h, err)
		}
		if code != i {
			return fmt.Errorf("thread %d exited with %d, want %d", h, code, i)
		}
	}

	fmt.Printf("Spawned and joined %d threads\n", workers)
	return nil
}

func runMutex(rt *nativesync.Runtime, workers, iters int, _, _ time.Duration) error {
	ctx := context.Background()
	m, err := rt.CreateMutex(ctx, false)
	if err != nil {
		return fmt.Errorf("create mutex: %w", err)
	}

	counter := 0
	handles := make([]thread.Handle, 0, workers)
	for i := 0; i < workers; i++ {
		h, err := rt.CreateThread(ctx, func() (int, error) {
			for j := 0; j < iters; j++ {
				if !rt.LockMutex(ctx, m, -1) {
					return 1, fmt.Errorf("lock failed")
				}
				counter++
				if !rt.UnlockMutex(ctx, m) {
					return 1, fmt.Errorf("unlock failed")
				}
			}
			return 0, nil
		})
		if err != nil {
			return fmt.Errorf("create thread: %w", err)
		}
		handles = append(handles, h)
	}

	for _, h := range handles {
		if _, err := rt.JoinThread(ctx, h); err != nil {
			return fmt.Errorf("join: %w", err)
		}
	}

	want := workers * iters
	fmt.Printf("Counter: %d (want %d)\n", counter, want)
	if counter != want {
		return fmt.Errorf("lost updates: %d != %d", counter, want)
	}
	return nil
}

func runSemaphore(rt *nativesync.Runtime, workers, iters int, _, _ time.Duration) error {
	ctx := context.Background()
	const bound = 4
	s, err := rt.CreateSemaphore(ctx, bound, bound)
	if err != nil {
		return fmt.Errorf("create semaphore: %w", err)
	}

	var active, peak atomic.Int64
	handles := make([]thread.Handle, 0, workers)
	for i := 0; i < workers; i++ {
		h, err := rt.CreateThread(ctx, func() (int, error) {
			for j := 0; j < iters; j++ {
				if !rt.WaitSemaphore(ctx, s, -1) {
					return 1, fmt.Errorf("wait failed")
				}
				n := active.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				active.Add(-1)
				if _, ok := rt.SignalSemaphore(ctx, s, 1); !ok {
					return 1, fmt.Errorf("signal failed")
				}
			}
			return 0, nil
		})
		if err != nil {
			return fmt.Errorf("create thread: %w", err)
		}
		handles = append(handles, h)
	}

	for _, h := range handles {
		if _, err := rt.JoinThread(ctx, h); err != nil {
			return fmt.Errorf("join: %w", err)
		}
	}

	fmt.Printf("Peak concurrency: %d (bound %d)\n", peak.Load(), bound)
	if p := peak.Load(); p > bound {
		return fmt.Errorf("bound violated: %d > %d", p, bound)
	}
	return nil
}

func runTimer(rt *nativesync.Runtime, _, _ int, interval, duration time.Duration) error {
	ctx := context.Background()

	var ticks atomic.Int64
	tm, got, err := rt.CreateTimer(ctx, func() error {
		ticks.Add(1)
		return nil
	}, interval.Microseconds())
	if err != nil {
		return fmt.Errorf("create timer: %w", err)
	}

	time.Sleep(duration)
	if !rt.DestroyTimer(ctx, tm) {
		return fmt.Errorf("destroy timer failed")
	}

	expected := int64(duration/got) + 1
	fmt.Printf("Ticks: %d over %v at %v intervals (expected ~%d)\n",
		ticks.Load(), duration, got, expected)
	return nil
}
