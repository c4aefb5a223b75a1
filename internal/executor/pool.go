package executor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Task is a unit of work for the worker pool
// Each task aggregates report data for a single course
type Task struct {
	// CourseName identifies the course this task targets
	CourseName string

	// Execute runs the aggregation for the course
	Execute func(ctx context.Context) (interface{}, error)
}

// Result is the outcome of executing a task
type Result struct {
	// CourseName identifies the course this result is from
	CourseName string

	// Data holds the successful result data (nil on error)
	Data interface{}

	// Error holds any error from execution (nil on success)
	Error error

	// Duration is how long the task took
	Duration time.Duration
}

// Pool runs tasks with bounded concurrency
// Tasks are submitted up front and executed in one shot; a pool is not
// reusable across runs
type Pool struct {
	// workers is the number of concurrent workers
	workers int

	// tasks is the queue of submitted tasks
	tasks []Task

	// mu protects the tasks slice
	mu sync.Mutex

	// logger for structured logging
	logger *slog.Logger

	// running indicates the pool is currently executing
	running atomic.Bool
}

// NewPool creates a worker pool with the given width
// A width of zero or less defaults to 1
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

// Submit queues a task for execution
// Returns an error if the pool is already executing or the task is invalid
func (p *Pool) Submit(task Task) error {
	if p.running.Load() {
		return fmt.Errorf("pool is running, cannot submit new tasks")
	}

	if task.CourseName == "" {
		return fmt.Errorf("task must have a course name")
	}

	if task.Execute == nil {
		return fmt.Errorf("task must have an execute function")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.tasks = append(p.tasks, task)
	p.logger.Debug("task submitted", "course", task.CourseName, "total_tasks", len(p.tasks))

	return nil
}

// Execute runs all submitted tasks across the worker pool
// Returns one result per task, indexed by submission order
func (p *Pool) Execute(ctx context.Context) []Result {
	return p.ExecuteWithProgress(ctx, nil)
}

// ExecuteWithProgress runs all tasks and calls progressFn with
// (completed, total) after each task finishes, in completion order
func (p *Pool) ExecuteWithProgress(ctx context.Context, progressFn func(completed, total int)) []Result {
	if !p.running.CompareAndSwap(false, true) {
		p.logger.Error("pool is already running")
		return []Result{}
	}
	defer p.running.Store(false)

	p.mu.Lock()
	taskCount := len(p.tasks)
	if taskCount == 0 {
		p.mu.Unlock()
		p.logger.Debug("no tasks to execute")
		return []Result{}
	}

	tasks := make([]Task, taskCount)
	copy(tasks, p.tasks)
	p.mu.Unlock()

	workerCount := p.workers
	if workerCount > taskCount {
		workerCount = taskCount
	}

	p.logger.Info("starting task execution",
		"workers", workerCount,
		"tasks", taskCount)

	startTime := time.Now()

	// Buffer both channels to the task count so neither side blocks
	taskChan := make(chan taskWithIndex, taskCount)
	resultChan := make(chan resultWithIndex, taskCount)

	var completed atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go p.worker(ctx, i, taskChan, resultChan, &wg, &completed, taskCount, progressFn)
	}

	for i, task := range tasks {
		taskChan <- taskWithIndex{task: task, index: i}
	}
	close(taskChan)

	wg.Wait()
	close(resultChan)

	results := make([]Result, taskCount)
	for res := range resultChan {
		results[res.index] = res.result
	}

	// Tasks skipped due to cancellation never produced a result
	for i := range results {
		if results[i].CourseName == "" {
			results[i] = Result{
				CourseName: tasks[i].CourseName,
				Error:      fmt.Errorf("task not executed: %w", ctx.Err()),
			}
		}
	}

	summary := Summarize(results)
	p.logger.Info("task execution completed",
		"total", summary.Total,
		"successful", summary.Successful,
		"failed", summary.Failed,
		"duration", time.Since(startTime))

	return results
}

// worker drains the task channel until it is closed or the context ends
func (p *Pool) worker(
	ctx context.Context,
	workerID int,
	taskChan <-chan taskWithIndex,
	resultChan chan<- resultWithIndex,
	wg *sync.WaitGroup,
	completed *atomic.Int32,
	total int,
	progressFn func(completed, total int),
) {
	defer wg.Done()

	for {
		select {
		case <-ctx.Done():
			p.logger.Debug("worker stopping, context cancelled", "worker_id", workerID)
			return

		case taskItem, ok := <-taskChan:
			if !ok {
				return
			}

			result := p.executeTask(ctx, taskItem.task)
			resultChan <- resultWithIndex{result: result, index: taskItem.index}

			completedCount := completed.Add(1)
			p.logger.Debug("task completed",
				"worker_id", workerID,
				"course", taskItem.task.CourseName,
				"success", result.Error == nil,
				"duration", result.Duration,
				"progress", fmt.Sprintf("%d/%d", completedCount, total))

			if progressFn != nil {
				progressFn(int(completedCount), total)
			}
		}
	}
}

// executeTask runs a single task and captures its outcome
func (p *Pool) executeTask(ctx context.Context, task Task) Result {
	startTime := time.Now()

	select {
	case <-ctx.Done():
		return Result{
			CourseName: task.CourseName,
			Error:      fmt.Errorf("task cancelled before execution: %w", ctx.Err()),
			Duration:   time.Since(startTime),
		}
	default:
	}

	data, err := task.Execute(ctx)
	duration := time.Since(startTime)

	if err != nil {
		p.logger.Warn("task failed",
			"course", task.CourseName,
			"error", err,
			"duration", duration)
	} else {
		p.logger.Debug("task succeeded",
			"course", task.CourseName,
			"duration", duration)
	}

	return Result{
		CourseName: task.CourseName,
		Data:       data,
		Error:      err,
		Duration:   duration,
	}
}

// IsRunning returns true while the pool is executing tasks
func (p *Pool) IsRunning() bool {
	return p.running.Load()
}

// TaskCount returns the number of queued tasks
func (p *Pool) TaskCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.tasks)
}

// WorkerCount returns the configured pool width
func (p *Pool) WorkerCount() int {
	return p.workers
}

// taskWithIndex pairs a task with its submission index
type taskWithIndex struct {
	task  Task
	index int
}

// resultWithIndex pairs a result with its task's submission index
type resultWithIndex struct {
	result Result
	index  int
}
