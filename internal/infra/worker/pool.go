package worker

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"telegram-imgbb-uploader/internal/infra/logging"

	"github.com/rs/zerolog"
)

// Task is one unit of work, e.g. handling a single Telegram update.
type Task func(ctx context.Context) error

var ErrPoolStopped = errors.New("worker pool stopped")

// Pool runs every submitted task on its own goroutine. A task that blocks
// (a flood-wait cooldown, a slow upload) never delays the others.
// Tasks share nothing; a failing or panicking task never affects the others.
type Pool struct {
	mu      sync.Mutex
	wg      sync.WaitGroup
	ctx     context.Context
	stopped bool
	seq     int64
	log     *zerolog.Logger
}

func NewPool(logger *zerolog.Logger) *Pool {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Pool{ctx: context.Background(), log: logger}
}

// Start sets the context handed to every task.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	p.ctx = ctx
	p.mu.Unlock()
}

func (p *Pool) run(ctx context.Context, id int64, task Task) {
	defer p.wg.Done()
	defer func() {
		if rec := recover(); rec != nil {
			p.log.Error().Int64("task", id).Interface("panic", rec).Bytes("stack", debug.Stack()).Msg("worker task panicked")
		}
	}()
	if err := task(ctx); err != nil {
		p.log.Warn().Int64("task", id).Err(err).Msg("worker task error")
	}
}

// Stop rejects new tasks and waits for in-flight ones.
func (p *Pool) Stop() {
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()
	p.wg.Wait()
}

// Submit starts task immediately. It never blocks.
func (p *Pool) Submit(ctx context.Context, task Task) error {
	if task == nil {
		return errors.New("nil task")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return ErrPoolStopped
	}
	p.wg.Add(1)
	go p.run(p.ctx, atomic.AddInt64(&p.seq, 1), task)
	return nil
}
