// Package async provides utilities for parallel task execution.
//
// Tasks run concurrently on a bounded worker pool. Every task runs to
// completion even when a sibling fails; the first error is returned once
// all of them have finished. Per-instance provisioning, polling and teardown
// work is fanned out through this package.
package async

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// DefaultLimit is used when RunParallel is called with a non-positive limit.
const DefaultLimit = 8

// Task represents an asynchronous operation with a name and function.
type Task struct {
	Name string
	Func func(context.Context) error
}

// RunParallel executes tasks on at most limit goroutines and returns the
// first error encountered, wrapped with the failing task's name.
//
// Example:
//
//	tasks := []Task{
//	    {Name: "server-a", Func: createA},
//	    {Name: "server-b", Func: createB},
//	}
//	if err := RunParallel(ctx, tasks, 4); err != nil {
//	    return err
//	}
func RunParallel(ctx context.Context, tasks []Task, limit int) error {
	if len(tasks) == 0 {
		return nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	// A plain Group: a failing task must not cancel its siblings.
	var g errgroup.Group
	g.SetLimit(limit)

	for _, task := range tasks {
		g.Go(func() error {
			if err := task.Func(ctx); err != nil {
				return fmt.Errorf("%s: %w", task.Name, err)
			}
			return nil
		})
	}

	return g.Wait()
}

// ForEach runs fn for every item on at most limit goroutines. Errors returned
// by fn are collected in input order; the returned slice is nil when every
// call succeeded.
func ForEach[T any](ctx context.Context, items []T, limit int, fn func(context.Context, T) error) []error {
	if len(items) == 0 {
		return nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	errs := make([]error, len(items))
	var g errgroup.Group
	g.SetLimit(limit)

	for i, item := range items {
		g.Go(func() error {
			errs[i] = fn(ctx, item)
			return nil
		})
	}
	_ = g.Wait()

	var failed []error
	for _, err := range errs {
		if err != nil {
			failed = append(failed, err)
		}
	}
	return failed
}
