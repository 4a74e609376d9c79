package flock

import (
	"runtime"
	"sync"
)

// parallelThreshold is the minimum element count to use parallel processing.
// Below this, single-threaded is faster due to goroutine overhead.
const parallelThreshold = 64

// span is a half-open index range handed to one worker.
type span struct {
	start, end int
}

// pool runs chunked index ranges on persistent worker goroutines. Dispatch
// is fork-join: forEach returns only after every chunk finished, so stages
// never overlap.
type pool struct {
	numWorkers int

	workChan chan span
	doneChan chan struct{}
	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool

	// fn is the body for the current forEach call. Written by the
	// dispatcher before any chunk is sent, read by workers after.
	fn func(start, end int)
}

func newPool() *pool {
	return &pool{numWorkers: runtime.GOMAXPROCS(0)}
}

// start launches the persistent workers.
func (p *pool) start() {
	if p.running {
		return
	}
	p.workChan = make(chan span, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// stop signals all workers to exit and waits for them.
func (p *pool) stop() {
	if !p.running {
		return
	}
	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

func (p *pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			p.fn(chunk.start, chunk.end)
			p.doneChan <- struct{}{}
		}
	}
}

// forEach runs fn over [0,n) split into contiguous chunks. Small inputs run
// inline on the calling goroutine.
func (p *pool) forEach(n int, fn func(start, end int)) {
	if n == 0 {
		return
	}
	if n < parallelThreshold || !p.running {
		fn(0, n)
		return
	}

	p.fn = fn
	chunkSize := (n + p.numWorkers - 1) / p.numWorkers

	dispatched := 0
	for w := 0; w < p.numWorkers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}
		p.workChan <- span{start: start, end: end}
		dispatched++
	}

	for i := 0; i < dispatched; i++ {
		<-p.doneChan
	}
}
