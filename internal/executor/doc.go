// Package executor provides a bounded worker pool for running many
// independent tasks concurrently.
//
// The number of workers is the concurrency ceiling: a task starts only when
// a worker picks it up, and at most WorkerCount tasks are in flight at once.
// Results are delivered on a channel in completion order, never waiting on a
// slower task that was submitted earlier.
//
// # Basic Usage
//
//	pool := executor.NewPool(50, logger)
//
//	for _, host := range hosts {
//	    pool.Submit(executor.Task{
//	        Key: host,
//	        Execute: func(ctx context.Context) (interface{}, error) {
//	            return check(ctx, host)
//	        },
//	    })
//	}
//
//	for r := range pool.Stream(ctx) {
//	    // r.Index is the submission position of the task
//	}
//
// # Guarantees
//
//   - Exactly one Result per submitted task, including tasks that panic
//     (Panicked is set and Error wraps ErrTaskPanicked) and tasks that were
//     still queued when the context was cancelled (Error wraps ErrNotExecuted).
//   - The result channel is closed after the last Result has been sent.
//   - No goroutine outlives the stream.
package executor
