// Package agentui is a resilient client core for triggering and tracking
// long-running, multi-step workflow runs over an unreliable network:
//
//   - Request layer with retries (exponential backoff + bounded jitter),
//     in-flight request coalescing, per-attempt timeouts, explicit
//     cancellation and cumulative counters
//   - Generic TTL cache with an atomic GetOrSet that runs the producer at
//     most once per key under concurrent callers
//   - Streaming event parser turning incrementally delivered log text into
//     classified lines carrying typed lifecycle events
//   - Execution state builder folding an append-only event log into one
//     WorkflowExecution aggregate (status, ordered steps, errors, timing)
//   - Optional rate limiting, circuit breaking, Prometheus metrics and
//     lightweight structured debug logging
//
// Design goals:
//   - Small surface area: functional options configure everything
//   - No package-level singletons; construct a *Client and pass it around
//   - Safe concurrent use of a single *Client instance
//   - Parser and builder never fail on malformed input: lines degrade to
//     plain messages and an incomplete log yields a nil execution
//
// Typical usage:
//
//	client := agentui.New(
//	    agentui.WithMaxRetries(3),
//	    agentui.WithTimeout(10*time.Second),
//	    agentui.WithMetrics(),
//	)
//	stream, err := client.Stream(ctx, runURL, &agentui.RequestConfig{Method: "POST"})
//	if err != nil { ... }
//	defer stream.Close()
//	for {
//	    line, err := stream.Next()
//	    if err != nil { break }
//	    _ = line
//	    exec := stream.Execution() // re-derived on demand, idempotent
//	    _ = exec
//	}
package agentui
