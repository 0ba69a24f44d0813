package msgworker

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// MessageJob representa un job de procesamiento ligado a un chat de
// Telegram. Jobs del mismo chat se procesan en orden; chats distintos
// pueden procesarse en paralelo.
type MessageJob struct {
	ChatID  int64
	Handler func(ctx context.Context) error
}

// PoolStats contiene métricas en tiempo real del worker pool
type PoolStats struct {
	NumWorkers      int           `json:"num_workers"`
	QueueSize       int           `json:"queue_size"`
	ActiveWorkers   int           `json:"active_workers"`
	TotalDispatched int64         `json:"total_dispatched"`
	TotalProcessed  int64         `json:"total_processed"`
	TotalDropped    int64         `json:"total_dropped"`
	TotalErrors     int64         `json:"total_errors"`
	WorkerStats     []WorkerStats `json:"worker_stats"`
	ActiveChats     map[int64]int `json:"active_chats"` // chatID -> worker_id
}

// WorkerStats contiene métricas por worker individual
type WorkerStats struct {
	WorkerID      int   `json:"worker_id"`
	QueueDepth    int   `json:"queue_depth"`
	IsProcessing  bool  `json:"is_processing"`
	JobsProcessed int64 `json:"jobs_processed"`
}

type activeChatEntry struct {
	workerID  int
	updatedAt time.Time
}

// MessageWorkerPool maneja un pool de workers para procesar jobs de
// descarga y envío de medios por chat.
type MessageWorkerPool struct {
	numWorkers int
	queueSize  int
	workers    []*worker
	wg         sync.WaitGroup
	stopOnce   sync.Once
	stopped    int32
	stopCh     chan struct{}

	// Métricas
	totalDispatched int64
	totalProcessed  int64
	totalDropped    int64
	totalErrors     int64
	activeChatsMu   sync.RWMutex
	activeChats     map[int64]activeChatEntry
	startTime       time.Time
}

// worker representa un worker individual con su cola
type worker struct {
	id            int
	jobQueue      chan MessageJob
	ctx           context.Context
	cancel        context.CancelFunc
	isProcessing  int32 // atomic: 1 if processing, 0 if idle
	jobsProcessed int64 // atomic counter
	pool          *MessageWorkerPool
}

// NewMessageWorkerPool crea un nuevo pool de workers
func NewMessageWorkerPool(numWorkers, queueSize int) *MessageWorkerPool {
	if numWorkers <= 0 {
		numWorkers = 6
	}
	if queueSize <= 0 {
		queueSize = 100
	}

	return &MessageWorkerPool{
		numWorkers:  numWorkers,
		queueSize:   queueSize,
		workers:     make([]*worker, numWorkers),
		activeChats: make(map[int64]activeChatEntry),
		stopCh:      make(chan struct{}),
		startTime:   time.Now(),
	}
}

// Start inicia todos los workers del pool
func (p *MessageWorkerPool) Start(ctx context.Context) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(1 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-p.stopCh:
				return
			case <-ticker.C:
				now := time.Now()
				p.activeChatsMu.Lock()
				for k, v := range p.activeChats {
					if !v.updatedAt.IsZero() && now.Sub(v.updatedAt) > 2*time.Second {
						delete(p.activeChats, k)
					}
				}
				p.activeChatsMu.Unlock()
			}
		}
	}()

	for i := 0; i < p.numWorkers; i++ {
		workerCtx, cancel := context.WithCancel(ctx)
		w := &worker{
			id:       i,
			jobQueue: make(chan MessageJob, p.queueSize),
			ctx:      workerCtx,
			cancel:   cancel,
			pool:     p,
		}
		p.workers[i] = w

		p.wg.Add(1)
		go w.run(&p.wg)
	}

	logrus.Infof("[MSG_WORKER_POOL] Started with %d workers, queue size: %d", p.numWorkers, p.queueSize)
}

// TryDispatch envía un job al worker apropiado (no bloqueante) y retorna
// si el job pudo encolarse.
func (p *MessageWorkerPool) TryDispatch(job MessageJob) bool {
	if atomic.LoadInt32(&p.stopped) == 1 {
		atomic.AddInt64(&p.totalDropped, 1)
		return false
	}

	shard := p.shardForChat(job.ChatID)
	atomic.AddInt64(&p.totalDispatched, 1)

	// Track active chat
	p.activeChatsMu.Lock()
	p.activeChats[job.ChatID] = activeChatEntry{workerID: shard, updatedAt: time.Now()}
	p.activeChatsMu.Unlock()

	sent := func() (ok bool) {
		defer func() {
			if r := recover(); r != nil {
				ok = false
			}
		}()
		select {
		case p.workers[shard].jobQueue <- job:
			return true
		default:
			return false
		}
	}()

	if sent {
		return true
	}
	p.activeChatsMu.Lock()
	delete(p.activeChats, job.ChatID)
	p.activeChatsMu.Unlock()

	atomic.AddInt64(&p.totalDropped, 1)
	logrus.Warnf("[MSG_WORKER_POOL] Worker %d queue full (or stopped), dropping job for chat %d",
		shard, job.ChatID)
	return false
}

// Dispatch envía un job al worker apropiado (no bloqueante)
func (p *MessageWorkerPool) Dispatch(job MessageJob) {
	_ = p.TryDispatch(job)
}

// Stop detiene el pool de forma graceful
func (p *MessageWorkerPool) Stop() {
	p.stopOnce.Do(func() {
		atomic.StoreInt32(&p.stopped, 1)
		close(p.stopCh)
		logrus.Info("[MSG_WORKER_POOL] Stopping workers...")

		for _, w := range p.workers {
			w.cancel()
			close(w.jobQueue)
		}

		p.wg.Wait()

		logrus.Info("[MSG_WORKER_POOL] All workers stopped")
	})
}

// shardForChat calcula el shard (worker) para un chat usando hash consistente
func (p *MessageWorkerPool) shardForChat(chatID int64) int {
	h := fnv.New32a()
	h.Write([]byte(strconv.FormatInt(chatID, 10)))
	return int(h.Sum32() % uint32(p.numWorkers))
}

// GetStats retorna estadísticas en tiempo real del pool
func (p *MessageWorkerPool) GetStats() PoolStats {
	workerStats := make([]WorkerStats, len(p.workers))
	activeWorkers := 0

	for i, w := range p.workers {
		isProcessing := atomic.LoadInt32(&w.isProcessing) == 1
		if isProcessing {
			activeWorkers++
		}

		workerStats[i] = WorkerStats{
			WorkerID:      w.id,
			QueueDepth:    len(w.jobQueue),
			IsProcessing:  isProcessing,
			JobsProcessed: atomic.LoadInt64(&w.jobsProcessed),
		}
	}

	now := time.Now()
	p.activeChatsMu.Lock()
	activeChatsSnapshot := make(map[int64]int, len(p.activeChats))
	for k, v := range p.activeChats {
		if !v.updatedAt.IsZero() && now.Sub(v.updatedAt) > 2*time.Second {
			delete(p.activeChats, k)
			continue
		}
		activeChatsSnapshot[k] = v.workerID
	}
	p.activeChatsMu.Unlock()

	return PoolStats{
		NumWorkers:      p.numWorkers,
		QueueSize:       p.queueSize,
		ActiveWorkers:   activeWorkers,
		TotalDispatched: atomic.LoadInt64(&p.totalDispatched),
		TotalProcessed:  atomic.LoadInt64(&p.totalProcessed),
		TotalDropped:    atomic.LoadInt64(&p.totalDropped),
		TotalErrors:     atomic.LoadInt64(&p.totalErrors),
		WorkerStats:     workerStats,
		ActiveChats:     activeChatsSnapshot,
	}
}

// run ejecuta el loop principal del worker
func (w *worker) run(wg *sync.WaitGroup) {
	defer wg.Done()

	logrus.Debugf("[MSG_WORKER_POOL] Worker %d started", w.id)

	for {
		select {
		case job, ok := <-w.jobQueue:
			if !ok {
				logrus.Debugf("[MSG_WORKER_POOL] Worker %d shutting down", w.id)
				return
			}

			// Procesar job con defer para garantizar limpieza
			func() {
				atomic.StoreInt32(&w.isProcessing, 1)
				defer func() {
					if r := recover(); r != nil {
						atomic.AddInt64(&w.pool.totalErrors, 1)
						logrus.Errorf("[MSG_WORKER_POOL] Worker %d panic for chat %d: %v", w.id, job.ChatID, r)
					}
					atomic.StoreInt32(&w.isProcessing, 0)
					atomic.AddInt64(&w.jobsProcessed, 1)
					atomic.AddInt64(&w.pool.totalProcessed, 1)
				}()

				if err := job.Handler(w.ctx); err != nil {
					atomic.AddInt64(&w.pool.totalErrors, 1)
					logrus.WithError(err).Errorf("[MSG_WORKER_POOL] Worker %d job failed for chat %d",
						w.id, job.ChatID)
				}
			}()

		case <-w.ctx.Done():
			// Contexto cancelado, procesar jobs restantes antes de terminar
			logrus.Debugf("[MSG_WORKER_POOL] Worker %d context cancelled, draining queue...", w.id)
			w.drainQueue()
			return
		}
	}
}

// drainQueue procesa jobs pendientes antes del shutdown
func (w *worker) drainQueue() {
	for {
		select {
		case job, ok := <-w.jobQueue:
			if !ok {
				return
			}
			func() {
				defer func() {
					if r := recover(); r != nil {
						atomic.AddInt64(&w.pool.totalErrors, 1)
						logrus.Errorf("[MSG_WORKER_POOL] Worker %d drain panic: %v", w.id, r)
					}
				}()
				if err := job.Handler(w.ctx); err != nil {
					logrus.WithError(err).Errorf("[MSG_WORKER_POOL] Worker %d drain job failed", w.id)
				}
			}()
		default:
			return
		}
	}
}
