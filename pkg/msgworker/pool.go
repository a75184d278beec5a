package msgworker

import (
	"context"
	"hash/fnv"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// InboundJob is one webhook message to process off the request path. The
// webhook acknowledges immediately; the pool applies the state transition.
type InboundJob struct {
	Phone   string
	Handler func(ctx context.Context) error
}

// PoolStats contains point-in-time pool metrics.
type PoolStats struct {
	NumWorkers      int   `json:"num_workers"`
	QueueSize       int   `json:"queue_size"`
	TotalDispatched int64 `json:"total_dispatched"`
	TotalProcessed  int64 `json:"total_processed"`
	TotalDropped    int64 `json:"total_dropped"`
	TotalErrors     int64 `json:"total_errors"`
}

// InboundWorkerPool processes inbound message jobs. Jobs are routed to a
// worker by sender phone hash, so events from the same phone are applied in
// arrival order while distinct phones proceed in parallel.
type InboundWorkerPool struct {
	numWorkers int
	queueSize  int
	queues     []chan InboundJob
	wg         sync.WaitGroup
	stopOnce   sync.Once
	stopped    int32

	totalDispatched int64
	totalProcessed  int64
	totalDropped    int64
	totalErrors     int64
}

// NewInboundWorkerPool creates a pool; zero or negative sizes fall back to
// safe defaults.
func NewInboundWorkerPool(numWorkers, queueSize int) *InboundWorkerPool {
	if numWorkers <= 0 {
		numWorkers = 10
	}
	if queueSize <= 0 {
		queueSize = 100
	}
	return &InboundWorkerPool{
		numWorkers: numWorkers,
		queueSize:  queueSize,
		queues:     make([]chan InboundJob, numWorkers),
	}
}

// Start launches all workers.
func (p *InboundWorkerPool) Start(ctx context.Context) {
	for i := 0; i < p.numWorkers; i++ {
		p.queues[i] = make(chan InboundJob, p.queueSize)
		p.wg.Add(1)
		go p.runWorker(ctx, i)
	}
	logrus.Infof("[POOL] Started %d inbound workers (queue size %d)", p.numWorkers, p.queueSize)
}

// Dispatch enqueues a job without blocking. When the pool is stopped or the
// target worker's queue is full the job is dropped and counted; callers fall
// back to inline processing so the message still reaches the audit log.
func (p *InboundWorkerPool) Dispatch(job InboundJob) bool {
	if atomic.LoadInt32(&p.stopped) == 1 {
		atomic.AddInt64(&p.totalDropped, 1)
		return false
	}

	atomic.AddInt64(&p.totalDispatched, 1)
	idx := p.workerFor(job.Phone)

	// The recover covers a dispatch racing Stop: the queue may close between
	// the stopped check above and the send.
	sent := func() (ok bool) {
		defer func() {
			if r := recover(); r != nil {
				ok = false
			}
		}()
		select {
		case p.queues[idx] <- job:
			return true
		default:
			return false
		}
	}()
	if sent {
		return true
	}

	atomic.AddInt64(&p.totalDropped, 1)
	logrus.Warnf("[POOL] Worker %d queue full (or stopped), dropping inbound job from %s", idx, job.Phone)
	return false
}

// Stop shuts the pool down and waits for in-flight jobs to finish.
func (p *InboundWorkerPool) Stop() {
	p.stopOnce.Do(func() {
		atomic.StoreInt32(&p.stopped, 1)
		for _, q := range p.queues {
			close(q)
		}
	})
	p.wg.Wait()
}

// Stats returns a snapshot of pool counters.
func (p *InboundWorkerPool) Stats() PoolStats {
	return PoolStats{
		NumWorkers:      p.numWorkers,
		QueueSize:       p.queueSize,
		TotalDispatched: atomic.LoadInt64(&p.totalDispatched),
		TotalProcessed:  atomic.LoadInt64(&p.totalProcessed),
		TotalDropped:    atomic.LoadInt64(&p.totalDropped),
		TotalErrors:     atomic.LoadInt64(&p.totalErrors),
	}
}

func (p *InboundWorkerPool) workerFor(phone string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(phone))
	return int(h.Sum32() % uint32(p.numWorkers))
}

func (p *InboundWorkerPool) runWorker(ctx context.Context, id int) {
	defer p.wg.Done()
	for job := range p.queues[id] {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if err := job.Handler(ctx); err != nil {
			atomic.AddInt64(&p.totalErrors, 1)
			logrus.WithError(err).Errorf("[POOL] Worker %d failed processing inbound job from %s", id, job.Phone)
		}
		atomic.AddInt64(&p.totalProcessed, 1)
	}
}
