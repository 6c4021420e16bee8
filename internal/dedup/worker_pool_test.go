package dedup

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	counter *atomic.Int64
	wg      *sync.WaitGroup
}

func (j *countingJob) Execute(_ context.Context) error {
	defer j.wg.Done()
	j.counter.Add(1)
	return nil
}

func TestWorkerPoolExecutesAllJobs(t *testing.T) {
	pool := NewWorkerPool(context.Background())
	defer pool.Close()

	require.GreaterOrEqual(t, pool.Size(), 1)

	var counter atomic.Int64
	var wg sync.WaitGroup

	const jobs = 100
	for i := 0; i < jobs; i++ {
		wg.Add(1)
		err := pool.Submit(&countingJob{counter: &counter, wg: &wg})
		require.NoError(t, err)
	}
	wg.Wait()

	assert.Equal(t, int64(jobs), counter.Load())
}

func TestWorkerPoolSubmitAfterClose(t *testing.T) {
	pool := NewWorkerPool(context.Background())
	pool.Close()

	var counter atomic.Int64
	var wg sync.WaitGroup
	wg.Add(1)

	err := pool.Submit(&countingJob{counter: &counter, wg: &wg})
	assert.Error(t, err)
}
