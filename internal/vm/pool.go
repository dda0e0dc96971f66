package vm

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"github.com/custos/custoscript/internal/compiler"
	"github.com/custos/custoscript/internal/types"
)

// ErrPoolClosed is returned by Submit after Close.
var ErrPoolClosed = errors.New("vm: pool closed")

// PoolConfig holds configuration for concurrent execution.
type PoolConfig struct {
	// NumWorkers is the number of worker goroutines.
	// Default: runtime.NumCPU()
	NumWorkers int

	// QueueSize limits how many jobs may wait for a worker before Submit
	// blocks.
	// Default: NumWorkers * 2
	QueueSize int
}

// Job is one script execution. Every job runs on a fresh VM.
type Job struct {
	Script *compiler.Function
	Config Config

	// Setup, if set, runs before Interpret to register natives and seed
	// globals.
	Setup func(*VM)

	// Entry, if set, names a function invoked after the script finishes.
	Entry string
}

// JobResult contains the outcome of a single job.
type JobResult struct {
	Value types.Value
	Steps int
	Err   error

	// Globals holds the VM's globals after a successful run.
	Globals map[string]types.Value
}

type poolJob struct {
	job    Job
	result chan JobResult
}

// Pool runs jobs on a fixed set of worker goroutines, each job on its own
// VM. The scripts share nothing, so no state is aggregated across jobs.
type Pool struct {
	config PoolConfig
	jobs   chan poolJob
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewPool starts a pool's workers.
func NewPool(config PoolConfig) *Pool {
	if config.NumWorkers <= 0 {
		config.NumWorkers = runtime.NumCPU()
	}
	if config.QueueSize <= 0 {
		config.QueueSize = config.NumWorkers * 2
	}

	p := &Pool{
		config: config,
		jobs:   make(chan poolJob, config.QueueSize),
	}
	for i := 0; i < config.NumWorkers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.worker()
		}()
	}
	return p
}

// Submit queues job and waits for its result. If ctx ends first, Submit
// returns ctx.Err(); a job already running is abandoned to finish on its
// worker (bound it with Config.MaxSteps).
func (p *Pool) Submit(ctx context.Context, job Job) (JobResult, error) {
	pj := poolJob{job: job, result: make(chan JobResult, 1)}

	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return JobResult{}, ErrPoolClosed
	}
	select {
	case p.jobs <- pj:
		p.mu.RUnlock()
	case <-ctx.Done():
		p.mu.RUnlock()
		return JobResult{}, ctx.Err()
	}

	select {
	case res := <-pj.result:
		return res, nil
	case <-ctx.Done():
		return JobResult{}, ctx.Err()
	}
}

// Close stops accepting jobs and waits for the workers to drain the queue.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()
	p.wg.Wait()
}

// worker executes jobs until the queue is closed.
func (p *Pool) worker() {
	for pj := range p.jobs {
		pj.result <- Execute(pj.job)
	}
}

// Execute runs a single job on a fresh VM.
func Execute(job Job) JobResult {
	m := New(job.Script, job.Config)
	if job.Setup != nil {
		job.Setup(m)
	}
	if err := m.Interpret(); err != nil {
		return JobResult{Steps: m.Steps(), Err: err}
	}
	value := m.Result()
	if job.Entry != "" {
		v, err := m.Invoke(job.Entry)
		if err != nil {
			return JobResult{Steps: m.Steps(), Err: err}
		}
		value = v
	}
	globals := make(map[string]types.Value)
	for _, name := range m.Globals() {
		globals[name], _ = m.Global(name)
	}
	return JobResult{Value: value, Steps: m.Steps(), Globals: globals}
}
