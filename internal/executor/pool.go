package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"
)

// ErrTaskPanicked is wrapped by the error of a Result whose task panicked
var ErrTaskPanicked = errors.New("task panicked")

// ErrNotExecuted is wrapped by the error of a Result whose task never started
var ErrNotExecuted = errors.New("task not executed")

// Task represents a unit of work to be executed by the worker pool
type Task struct {
	// Key identifies the task in logs (for example "root@10.0.0.1")
	Key string

	// Execute is the function to run for this task
	// Returns the result data and any error encountered
	Execute func(ctx context.Context) (interface{}, error)
}

// Result represents the outcome of executing a task
type Result struct {
	// Key is copied from the task
	Key string

	// Index is the position of the task in submission order
	Index int

	// Data contains the successful result data (nil if error occurred)
	Data interface{}

	// Error contains any error that occurred during execution (nil if successful)
	Error error

	// Panicked is set when the task panicked; Error then wraps ErrTaskPanicked
	Panicked bool

	// Duration is how long the task took to execute
	Duration time.Duration
}

// Pool manages a pool of workers that execute tasks concurrently
// The number of workers is the concurrency ceiling: no more than that many
// tasks are ever between start and completion at the same time.
type Pool struct {
	// workers is the number of concurrent workers
	workers int

	// tasks is the queue of tasks to execute
	tasks []Task

	// mu protects the tasks slice
	mu sync.Mutex

	// logger for structured logging
	logger *slog.Logger

	// running indicates if the pool is currently executing
	running atomic.Bool
}

// NewPool creates a new worker pool with the specified number of workers
// workers must be > 0, otherwise it defaults to 1
func NewPool(workers int, logger *slog.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Pool{
		workers: workers,
		tasks:   make([]Task, 0),
		logger:  logger,
	}
}

// Submit adds a task to the pool's queue
// Returns an error if the pool is already running
func (p *Pool) Submit(task Task) error {
	if p.running.Load() {
		return fmt.Errorf("pool is running, cannot submit new tasks")
	}

	if task.Key == "" {
		return fmt.Errorf("task must have a key")
	}

	if task.Execute == nil {
		return fmt.Errorf("task must have an execute function")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.tasks = append(p.tasks, task)
	p.logger.Debug("task submitted", "task", task.Key, "total_tasks", len(p.tasks))

	return nil
}

// Stream is StreamWithProgress without a progress callback
func (p *Pool) Stream(ctx context.Context) <-chan Result {
	return p.StreamWithProgress(ctx, nil)
}

// StreamWithProgress starts all submitted tasks and returns a channel that
// yields one Result per task in completion order. The channel is closed once
// every task has produced its result. Tasks still queued when ctx is done are
// not started; they yield a Result wrapping ErrNotExecuted.
// The progressFn callback is called after each task completes with (completed, total) counts.
func (p *Pool) StreamWithProgress(ctx context.Context, progressFn func(completed, total int)) <-chan Result {
	if !p.running.CompareAndSwap(false, true) {
		p.logger.Error("pool is already running")
		out := make(chan Result)
		close(out)
		return out
	}

	p.mu.Lock()
	tasksCopy := make([]Task, len(p.tasks))
	copy(tasksCopy, p.tasks)
	p.mu.Unlock()

	taskCount := len(tasksCopy)

	// Buffered to the task count so workers never block on a slow consumer
	resultChan := make(chan Result, taskCount)

	if taskCount == 0 {
		p.logger.Debug("no tasks to execute")
		p.running.Store(false)
		close(resultChan)
		return resultChan
	}

	workerCount := p.workers
	if workerCount > taskCount {
		workerCount = taskCount
	}

	p.logger.Info("starting task execution",
		"workers", workerCount,
		"tasks", taskCount)

	taskChan := make(chan taskWithIndex, taskCount)
	for i, task := range tasksCopy {
		taskChan <- taskWithIndex{task: task, index: i}
	}
	close(taskChan)

	var (
		wg        sync.WaitGroup
		completed atomic.Int32
		failed    atomic.Int32
	)
	startTime := time.Now()

	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			p.worker(ctx, workerID, taskChan, resultChan, &completed, &failed, taskCount, progressFn)
		}(i)
	}

	go func() {
		wg.Wait()
		close(resultChan)
		p.running.Store(false)

		p.logger.Info("task execution completed",
			"total", taskCount,
			"successful", taskCount-int(failed.Load()),
			"failed", failed.Load(),
			"duration", time.Since(startTime))
	}()

	return resultChan
}

// worker is the worker goroutine that processes tasks from the task channel
func (p *Pool) worker(
	ctx context.Context,
	workerID int,
	taskChan <-chan taskWithIndex,
	resultChan chan<- Result,
	completed, failed *atomic.Int32,
	total int,
	progressFn func(completed, total int),
) {
	p.logger.Debug("worker started", "worker_id", workerID)

	for item := range taskChan {
		var result Result
		if err := ctx.Err(); err != nil {
			result = Result{
				Key:   item.task.Key,
				Error: fmt.Errorf("%w: %w", ErrNotExecuted, err),
			}
		} else {
			result = p.executeTask(ctx, item.task)
		}
		result.Index = item.index

		if result.Error != nil {
			failed.Add(1)
		}

		// Never blocks: resultChan has room for every task
		resultChan <- result

		completedCount := completed.Add(1)
		p.logger.Debug("task completed",
			"worker_id", workerID,
			"task", item.task.Key,
			"success", result.Error == nil,
			"duration", result.Duration,
			"progress", fmt.Sprintf("%d/%d", completedCount, total))

		if progressFn != nil {
			progressFn(int(completedCount), total)
		}
	}

	p.logger.Debug("worker finished (no more tasks)", "worker_id", workerID)
}

// executeTask executes a single task and returns the result
// A panic inside the task is converted into a failed Result.
func (p *Pool) executeTask(ctx context.Context, task Task) (result Result) {
	startTime := time.Now()
	result.Key = task.Key

	defer func() {
		if r := recover(); r != nil {
			result.Data = nil
			result.Error = fmt.Errorf("%w: %v", ErrTaskPanicked, r)
			result.Panicked = true
			result.Duration = time.Since(startTime)
			p.logger.Error("task panicked",
				"task", task.Key,
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()

	p.logger.Debug("executing task", "task", task.Key)

	data, err := task.Execute(ctx)

	result.Data = data
	result.Error = err
	result.Duration = time.Since(startTime)

	if err != nil {
		p.logger.Debug("task failed",
			"task", task.Key,
			"error", err,
			"duration", result.Duration)
	}

	return result
}

// TaskCount returns the number of tasks currently queued
func (p *Pool) TaskCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.tasks)
}

// WorkerCount returns the number of workers in the pool
func (p *Pool) WorkerCount() int {
	return p.workers
}

// taskWithIndex pairs a task with its original index for result ordering
type taskWithIndex struct {
	task  Task
	index int
}
