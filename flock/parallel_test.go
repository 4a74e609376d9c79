package flock

import (
	"sync/atomic"
	"testing"
)

func TestForEachCoversEveryIndexOnce(t *testing.T) {
	p := newPool()
	p.start()
	defer p.stop()

	for _, n := range []int{0, 1, 63, 64, 1000, 4097} {
		counts := make([]int32, n)
		p.forEach(n, func(start, end int) {
			for i := start; i < end; i++ {
				atomic.AddInt32(&counts[i], 1)
			}
		})
		for i, c := range counts {
			if c != 1 {
				t.Fatalf("n=%d: index %d visited %d times", n, i, c)
			}
		}
	}
}

func TestForEachInlineWhenStopped(t *testing.T) {
	p := newPool()
	// Never started: falls back to inline execution.
	visited := 0
	p.forEach(100, func(start, end int) {
		visited += end - start
	})
	if visited != 100 {
		t.Errorf("inline fallback visited %d of 100", visited)
	}
}

func TestForEachSequentialStages(t *testing.T) {
	p := newPool()
	p.start()
	defer p.stop()

	// A later stage must observe every write from the earlier stage.
	n := 500
	a := make([]int, n)
	b := make([]int, n)
	p.forEach(n, func(start, end int) {
		for i := start; i < end; i++ {
			a[i] = i
		}
	})
	p.forEach(n, func(start, end int) {
		for i := start; i < end; i++ {
			b[i] = a[i] * 2
		}
	})
	for i := range b {
		if b[i] != i*2 {
			t.Fatalf("stage 2 read stale value at %d: %d", i, b[i])
		}
	}
}
