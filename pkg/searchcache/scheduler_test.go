package searchcache

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/launchify/search-cache/pkg/observability"
)

type countingJob struct {
	runs atomic.Int64
}

func (j *countingJob) Run(_ context.Context) {
	j.runs.Add(1)
}

type panickingJob struct {
	runs atomic.Int64
}

func (j *panickingJob) Run(_ context.Context) {
	j.runs.Add(1)
	panic("job blew up")
}

func TestRunner_RunsImmediatelyAndOnInterval(t *testing.T) {
	job := &countingJob{}
	runner := NewRunner("counter", 10*time.Millisecond, job, observability.NewNoopLogger())

	runner.Start(context.Background())
	time.Sleep(55 * time.Millisecond)
	runner.Stop()

	assert.GreaterOrEqual(t, job.runs.Load(), int64(3))
}

func TestRunner_StopHaltsTheLoop(t *testing.T) {
	job := &countingJob{}
	runner := NewRunner("counter", 5*time.Millisecond, job, observability.NewNoopLogger())

	runner.Start(context.Background())
	time.Sleep(20 * time.Millisecond)
	runner.Stop()

	after := job.runs.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, job.runs.Load(), "no runs after Stop")

	// Stop is safe to call repeatedly.
	runner.Stop()
}

func TestRunner_ContextCancellationStops(t *testing.T) {
	job := &countingJob{}
	runner := NewRunner("counter", 5*time.Millisecond, job, observability.NewNoopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	runner.Start(ctx)
	time.Sleep(20 * time.Millisecond)
	cancel()
	time.Sleep(10 * time.Millisecond)

	after := job.runs.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, job.runs.Load())

	runner.Stop()
}

func TestRunner_SurvivesPanickingJob(t *testing.T) {
	job := &panickingJob{}
	runner := NewRunner("panicker", 10*time.Millisecond, job, observability.NewNoopLogger())

	runner.Start(context.Background())
	time.Sleep(45 * time.Millisecond)
	runner.Stop()

	assert.GreaterOrEqual(t, job.runs.Load(), int64(2), "loop must keep going past a panic")
}
