package executor

import "sync"

// workerPool fans a fixed number of independent jobs out across a bounded
// number of goroutines, adapted from the Context worker-pool pattern this
// codebase uses for kernel dispatch: a channel of jobs, a fixed number of
// workers draining it, and a WaitGroup the caller blocks on.
type workerPool struct {
	jobs chan func() error
	wg   sync.WaitGroup

	mu   sync.Mutex
	errs []error
}

func newWorkerPool(workers int) *workerPool {
	if workers < 1 {
		workers = 1
	}
	p := &workerPool{jobs: make(chan func() error, workers*2)}
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

func (p *workerPool) worker() {
	for job := range p.jobs {
		err := job()
		if err != nil {
			p.mu.Lock()
			p.errs = append(p.errs, err)
			p.mu.Unlock()
		}
		p.wg.Done()
	}
}

// submit enqueues job to run on some worker goroutine.
func (p *workerPool) submit(job func() error) {
	p.wg.Add(1)
	p.jobs <- job
}

// waitAndClose blocks until every submitted job has completed, stops the
// workers, and returns the first error encountered, if any.
func (p *workerPool) waitAndClose() error {
	p.wg.Wait()
	close(p.jobs)
	if len(p.errs) > 0 {
		return p.errs[0]
	}
	return nil
}
