package fs

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDebouncer_CoalescesBursts(t *testing.T) {
	d := newDebouncer(30 * time.Millisecond)
	var calls atomic.Int32
	var wg sync.WaitGroup
	wg.Add(1)

	for i := 0; i < 10; i++ {
		d.add("local:notes", func(string) {
			calls.Add(1)
			wg.Done()
		})
	}
	wg.Wait()
	time.Sleep(60 * time.Millisecond)

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 0, d.pending())
}

func TestDebouncer_KeysAreIndependent(t *testing.T) {
	d := newDebouncer(10 * time.Millisecond)
	var mu sync.Mutex
	seen := map[string]int{}
	var wg sync.WaitGroup
	wg.Add(2)

	record := func(key string) {
		mu.Lock()
		seen[key]++
		mu.Unlock()
		wg.Done()
	}
	d.add("local:a", record)
	d.add("local:b", record)
	wg.Wait()

	assert.Equal(t, map[string]int{"local:a": 1, "local:b": 1}, seen)
}

func TestDebouncer_StopCancelsPending(t *testing.T) {
	d := newDebouncer(time.Hour)
	called := false
	d.add("local:a", func(string) { called = true })

	d.stopAndWait(time.Second)
	d.add("local:b", func(string) { called = true })

	assert.False(t, called)
	assert.Equal(t, 0, d.pending())
}
