package authnego

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSerialQueueOrdersJobs(t *testing.T) {
	q := newSerialQueue()
	defer q.close()

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		i := i
		wg.Add(1)
		q.submit(func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			wg.Done()
		})
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	for i, v := range order {
		assert.Equal(t, i, v)
	}
}

func TestSerialQueueSubmitWaitBlocksUntilDone(t *testing.T) {
	q := newSerialQueue()
	defer q.close()

	ran := false
	q.submitWait(func() { ran = true })
	assert.True(t, ran)
}

func TestBackgroundQueueRunsConcurrently(t *testing.T) {
	bq := newBackgroundQueue(4)

	var wg sync.WaitGroup
	var counter int
	var mu sync.Mutex

	for i := 0; i < 8; i++ {
		wg.Add(1)
		bq.goFunc(func() {
			defer wg.Done()
			mu.Lock()
			counter++
			mu.Unlock()
		})
	}
	wg.Wait()

	assert.Equal(t, 8, counter)
}
