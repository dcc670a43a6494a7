package scanner

import "sync"

type Job func()

// Pool runs jobs on a fixed number of workers.
type Pool struct {
	workerQueue chan Job
	wg          sync.WaitGroup
}

func NewPool(workerCount int) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}
	pool := &Pool{workerQueue: make(chan Job)}
	pool.wg.Add(workerCount)

	for i := 0; i < workerCount; i++ {
		go func() {
			defer pool.wg.Done()
			for job := range pool.workerQueue {
				job()
			}
		}()
	}

	return pool
}

func (p *Pool) AddJob(job Job) {
	p.workerQueue <- job
}

// Wait closes the queue and blocks until every queued job has finished.
func (p *Pool) Wait() {
	close(p.workerQueue)
	p.wg.Wait()
}
