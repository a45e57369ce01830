// Package async runs independent named tasks on a bounded set of workers.
package async

import (
	"context"
	"fmt"
	"sync"
)

type Task struct {
	Name    string
	Execute func(ctx context.Context) (any, error)
}

type Result struct {
	Name string
	Data any
	Err  error
}

// Pool bounds how many tasks run at once. A Pool holds no per-run state
// and can be shared.
type Pool struct {
	workerCount int
}

func NewPool(workerCount int) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}
	return &Pool{workerCount: workerCount}
}

// Execute runs every task and returns results keyed by task name. When ctx
// is cancelled, tasks that have not started are reported with ctx.Err().
// A panicking task is reported as an error instead of crashing the caller.
func (p *Pool) Execute(ctx context.Context, tasks []Task) map[string]Result {
	queue := make(chan Task)
	results := make(chan Result, len(tasks))

	var wg sync.WaitGroup
	for i := 0; i < min(p.workerCount, len(tasks)); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range queue {
				results <- run(ctx, task)
			}
		}()
	}

	go func() {
		defer close(queue)
		for _, task := range tasks {
			select {
			case queue <- task:
			case <-ctx.Done():
				results <- Result{Name: task.Name, Err: ctx.Err()}
			}
		}
	}()

	collected := make(map[string]Result, len(tasks))
	for range tasks {
		r := <-results
		collected[r.Name] = r
	}
	wg.Wait()
	return collected
}

func run(ctx context.Context, task Task) (result Result) {
	result.Name = task.Name
	defer func() {
		if r := recover(); r != nil {
			result.Err = fmt.Errorf("task %s panicked: %v", task.Name, r)
		}
	}()

	if err := ctx.Err(); err != nil {
		result.Err = err
		return result
	}
	result.Data, result.Err = task.Execute(ctx)
	return result
}

// Value returns a task's data as T, or its error.
func Value[T any](results map[string]Result, name string) (T, error) {
	var zero T
	r, ok := results[name]
	if !ok {
		return zero, fmt.Errorf("no result for task %s", name)
	}
	if r.Err != nil {
		return zero, r.Err
	}
	v, ok := r.Data.(T)
	if !ok {
		return zero, fmt.Errorf("task %s returned %T", name, r.Data)
	}
	return v, nil
}
