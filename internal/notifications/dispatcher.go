package notifications

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/anonto42/nano-midea/socialgraph/pkg/logger"
	"github.com/anonto42/nano-midea/socialgraph/pkg/metrics"
	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog"
)

// Task is a unit of best-effort background work
type Task func(ctx context.Context) error

// TaskDispatcher accepts background tasks without blocking the caller.
// Tasks sharing a non-empty key run one at a time in dispatch order.
type TaskDispatcher interface {
	Dispatch(ctx context.Context, name, key string, task Task)
}

type job struct {
	name string
	task Task
	log  zerolog.Logger
}

// DispatcherConfig sizes the worker pool
type DispatcherConfig struct {
	Workers   int
	QueueSize int
	Timeout   time.Duration
}

// Dispatcher runs tasks on a fixed pool of workers, each draining its own
// queue. A key always maps to the same queue. Failures are logged and
// counted, never returned to the dispatching request.
type Dispatcher struct {
	queues  []chan job
	next    atomic.Uint32
	timeout time.Duration
	wg      sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

var _ TaskDispatcher = (*Dispatcher)(nil)

// NewDispatcher starts the workers
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	// QueueSize is shared between the workers
	perWorker := (cfg.QueueSize + cfg.Workers - 1) / cfg.Workers

	d := &Dispatcher{
		queues:  make([]chan job, cfg.Workers),
		timeout: cfg.Timeout,
	}
	d.wg.Add(cfg.Workers)
	for i := range d.queues {
		d.queues[i] = make(chan job, perWorker)
		go d.worker(d.queues[i])
	}
	return d
}

// queueFor hashes key onto a worker queue. Unkeyed tasks are spread round robin.
func (d *Dispatcher) queueFor(key string) chan job {
	n := uint64(len(d.queues))
	if key == "" {
		return d.queues[uint64(d.next.Add(1))%n]
	}
	return d.queues[xxhash.Sum64String(key)%n]
}

// Dispatch enqueues task on the queue of key. The request logger of ctx is
// kept; its deadline and cancellation are not. A full queue or a closed
// dispatcher drops the task.
func (d *Dispatcher) Dispatch(ctx context.Context, name, key string, task Task) {
	l := logger.Ctx(ctx).With().Str(logger.FieldTask, name).Logger()

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		l.Warn().Msg("dispatcher closed, task dropped")
		metrics.RecordNotificationTask(name, "dropped")
		return
	}

	select {
	case d.queueFor(key) <- job{name: name, task: task, log: l}:
	default:
		l.Warn().Msg("task queue full, task dropped")
		metrics.RecordNotificationTask(name, "dropped")
	}
}

func (d *Dispatcher) worker(queue <-chan job) {
	defer d.wg.Done()
	for j := range queue {
		d.run(j)
	}
}

func (d *Dispatcher) run(j job) {
	ctx, cancel := context.WithTimeout(logger.WithLogger(context.Background(), j.log), d.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			j.log.Error().Interface("panic", r).Msg("background task panicked")
			metrics.RecordNotificationTask(j.name, "failed")
		}
	}()

	start := time.Now()
	if err := j.task(ctx); err != nil {
		j.log.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("background task failed")
		metrics.RecordNotificationTask(j.name, "failed")
		return
	}
	metrics.RecordNotificationTask(j.name, "ok")
}

// Close stops accepting tasks and waits until queued tasks finish or ctx is done
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		for _, q := range d.queues {
			close(q)
		}
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
