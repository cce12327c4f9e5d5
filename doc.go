// Package nativesync exposes in-process concurrency primitives (threads,
// mutexes, counting semaphores, and periodic timers) to an embedding host
// environment through opaque handles. The host never touches a native
// thread or lock object directly: every primitive is owned by a handle
// table and addressed exclusively by handle.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct
// responsibilities:
//
//	nativesync/      Root package with the Runtime facade
//	├── handle/      Handle tables: monotonic ids, lifecycle observers
//	├── thread/      Thread primitive: spawn, join, detach
//	├── mutex/       Mutex primitive: plain and reentrant locks
//	├── semaphore/   Bounded counting semaphore
//	├── timer/       Drift-corrected periodic timers
//	├── hostapi/     String-keyed host function dispatch
//	└── errors/      Structured error types
//
// # Quick Start
//
//	rt := nativesync.New()
//	defer rt.Close()
//
//	ctx := context.Background()
//
//	th, err := rt.CreateThread(ctx, func() (int, error) {
//	    return 0, nil
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	code, err := rt.JoinThread(ctx, th)
//
// # Handles
//
// Handles are strictly positive, monotonically increasing within their
// primitive kind, and never reused. Each kind has its own handle type, so
// a mutex handle cannot be passed where a semaphore handle is expected.
// Operations on an unknown or already-removed handle fail without
// crashing: creation and thread join report errors, everything else
// reports a failure sentinel.
//
// # Timeouts
//
// Timed operations share one convention: a negative timeout blocks
// indefinitely, zero attempts without blocking, and a positive timeout
// bounds the wait, returning false on expiry.
//
// # Host Dispatch
//
// Embedders that bind by name (script engines, FFI layers) dispatch
// through the hostapi registry:
//
//	out, err := rt.Call(ctx, "native:sync/semaphores@1.0.0", "wait", h, int64(100))
package nativesync
