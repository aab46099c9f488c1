package worker

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

var ErrPoolStopped = errors.New("worker pool is stopped")

type Task func()

// Pool выполняет задачи фиксированным числом горутин. Паника в задаче
// логируется и не роняет воркер.
type Pool struct {
	tasks       chan Task
	wg          sync.WaitGroup
	maxWorkers  int
	busy        atomic.Int32
	submitWait  time.Duration
	logger      zerolog.Logger
	mu          sync.RWMutex
	stopped     bool
	startedOnce sync.Once
}

type PoolStats struct {
	BusyWorkers   int `json:"busy_workers"`
	MaxWorkers    int `json:"max_workers"`
	QueueLength   int `json:"queue_length"`
	QueueCapacity int `json:"queue_capacity"`
}

func NewPool(maxWorkers int, logger zerolog.Logger) *Pool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &Pool{
		tasks:      make(chan Task, maxWorkers*10),
		maxWorkers: maxWorkers,
		submitWait: time.Second,
		logger:     logger,
	}
}

func (p *Pool) Start() {
	p.startedOnce.Do(func() {
		for i := 0; i < p.maxWorkers; i++ {
			p.wg.Add(1)
			go p.run(i)
		}
		p.logger.Info().Int("max_workers", p.maxWorkers).Msg("Worker pool started")
	})
}

// Stop дожидается выполнения уже принятых задач.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.tasks)
	p.mu.Unlock()

	p.wg.Wait()
	p.logger.Info().Msg("Worker pool stopped")
}

// Submit ставит задачу в очередь. Если очередь полна дольше submitWait,
// задача отклоняется. Stop ждет, пока Submit держит RLock.
func (p *Pool) Submit(task Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		return ErrPoolStopped
	}

	select {
	case p.tasks <- task:
		return nil
	default:
	}

	p.logger.Warn().Int("queue_length", len(p.tasks)).Msg("Worker pool task queue is full")

	select {
	case p.tasks <- task:
		return nil
	case <-time.After(p.submitWait):
		return errors.New("worker pool queue is full")
	}
}

func (p *Pool) run(id int) {
	defer p.wg.Done()

	for task := range p.tasks {
		p.busy.Add(1)
		p.execute(id, task)
		p.busy.Add(-1)
	}

	p.logger.Debug().Int("worker_id", id).Msg("Worker stopped")
}

func (p *Pool) execute(id int, task Task) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error().
				Int("worker_id", id).
				Interface("panic", r).
				Msg("Worker recovered from panic")
		}
	}()

	task()
}

func (p *Pool) Stats() PoolStats {
	return PoolStats{
		BusyWorkers:   int(p.busy.Load()),
		MaxWorkers:    p.maxWorkers,
		QueueLength:   len(p.tasks),
		QueueCapacity: cap(p.tasks),
	}
}
