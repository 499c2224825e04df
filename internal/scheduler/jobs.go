package scheduler

import (
	"context"
	"time"
)

// FuncJob adapts a plain function into a Job.
type FuncJob struct {
	JobName string
	Fn      func() error
}

func (j FuncJob) Name() string { return j.JobName }
func (j FuncJob) Run() error   { return j.Fn() }

// ContextJob adapts a context-taking function into a Job with a per-run
// timeout.
type ContextJob struct {
	JobName string
	Timeout time.Duration
	Fn      func(ctx context.Context) error
}

func (j ContextJob) Name() string { return j.JobName }

func (j ContextJob) Run() error {
	timeout := j.Timeout
	if timeout == 0 {
		timeout = 5 * time.Minute
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return j.Fn(ctx)
}
