package custoscript

import (
	"context"

	"github.com/custos/custoscript/internal/vm"
)

// ErrPoolClosed is returned by Pool.Run after Close.
var ErrPoolClosed = vm.ErrPoolClosed

// PoolConfig holds configuration for a Pool.
type PoolConfig struct {
	// Workers is the number of scripts that may run at once.
	// Default: runtime.NumCPU()
	Workers int

	// QueueSize limits how many runs may wait for a worker.
	// Default: Workers * 2
	QueueSize int
}

// Pool runs programs on a fixed set of worker goroutines. Hosts that run
// scripts on behalf of many users use it to bound CPU use.
type Pool struct {
	pool *vm.Pool
}

// NewPool starts a pool's workers. Close releases them.
func NewPool(config PoolConfig) *Pool {
	return &Pool{
		pool: vm.NewPool(vm.PoolConfig{
			NumWorkers: config.Workers,
			QueueSize:  config.QueueSize,
		}),
	}
}

// Run executes prog on a worker, waiting for a free one if needed. If ctx
// ends first, Run returns ctx.Err(); a run already started keeps its
// worker until it finishes, so set Config.MaxSteps.
func (p *Pool) Run(ctx context.Context, prog *Program, config *Config) (*Result, error) {
	job, out := prog.job(config)
	res, err := p.pool.Submit(ctx, job)
	if err != nil {
		return nil, err
	}
	return finish(res, out)
}

// Close stops accepting runs and waits for running ones to finish.
func (p *Pool) Close() {
	p.pool.Close()
}
