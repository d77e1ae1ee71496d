package chests

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// pool runs storage jobs off the loop. Jobs with the same key always land on the same worker and
// run in submission order. Queues are unbounded so the loop never blocks on submit.
type pool struct {
	workers []*worker
	wg      sync.WaitGroup
}

type worker struct {
	mu     sync.Mutex
	cond   *sync.Cond
	jobs   []func()
	closed bool
}

func newPool(n int) *pool {
	if n <= 0 {
		n = 1
	}
	p := &pool{workers: make([]*worker, n)}
	for i := range p.workers {
		w := &worker{}
		w.cond = sync.NewCond(&w.mu)
		p.workers[i] = w
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			w.run()
		}()
	}
	return p
}

func (p *pool) shard(key string) int {
	return int(xxhash.Sum64String(key) % uint64(len(p.workers)))
}

// submit queues fn on key's worker. It reports false once the pool is closed.
func (p *pool) submit(key string, fn func()) bool {
	w := p.workers[p.shard(key)]
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return false
	}
	w.jobs = append(w.jobs, fn)
	w.cond.Signal()
	return true
}

// pending is the number of queued jobs not yet started, summed over workers.
func (p *pool) pending() int {
	n := 0
	for _, w := range p.workers {
		w.mu.Lock()
		n += len(w.jobs)
		w.mu.Unlock()
	}
	return n
}

// close stops accepting jobs and waits until every queued job has run.
func (p *pool) close() {
	for _, w := range p.workers {
		w.mu.Lock()
		w.closed = true
		w.cond.Broadcast()
		w.mu.Unlock()
	}
	p.wg.Wait()
}

func (w *worker) run() {
	for {
		w.mu.Lock()
		for len(w.jobs) == 0 && !w.closed {
			w.cond.Wait()
		}
		if len(w.jobs) == 0 {
			w.mu.Unlock()
			return
		}
		fn := w.jobs[0]
		w.jobs[0] = nil
		w.jobs = w.jobs[1:]
		w.mu.Unlock()
		fn()
	}
}
