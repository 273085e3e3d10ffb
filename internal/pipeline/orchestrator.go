package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/cvsplit/internal/chunker"
	"github.com/dgallion1/cvsplit/internal/config"
	"github.com/dgallion1/cvsplit/internal/parser"
	"github.com/dgallion1/cvsplit/internal/segmenter"
	"github.com/dgallion1/cvsplit/internal/store"
)

// Orchestrator manages the document ingestion pipeline.
type Orchestrator struct {
	jobs     *JobStore
	queue    chan *Job
	seg      *segmenter.Segmenter
	store    store.Store
	log      *slog.Logger
	cfg      config.Config
	storeSem chan struct{}

	mu      sync.Mutex
	stopped bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewOrchestrator creates the pipeline. Call Start to launch workers.
func NewOrchestrator(cfg config.Config, seg *segmenter.Segmenter, st store.Store, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:     NewJobStore(cfg.JobTTL),
		queue:    make(chan *Job, cfg.MaxQueueSize),
		seg:      seg,
		store:    st,
		log:      log,
		cfg:      cfg,
		storeSem: make(chan struct{}, max(cfg.MaxConcurrentStore, 1)),
	}
}

// ChunkConfig returns the chunking settings derived from the service config.
func ChunkConfig(cfg config.Config) chunker.Config {
	return chunker.Config{
		ChunkSize:    cfg.DefaultChunkSize,
		ChunkOverlap: cfg.DefaultChunkOverlap,
	}
}

// NewWorker returns a worker sharing the orchestrator's segmenter, store
// and store concurrency limit.
func (o *Orchestrator) NewWorker() *Worker {
	w := NewWorker(o.seg, o.store, o.log, ChunkConfig(o.cfg), parser.Config{
		PDFFallbackPdftotext: o.cfg.PDFFallbackPdftotext,
	})
	w.storeSem = o.storeSem
	return w
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range max(o.cfg.WorkerCount, 1) {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := o.NewWorker()
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job)
				}
			}
		}()
	}

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return
	}
	o.stopped = true
	close(o.queue)
	o.mu.Unlock()

	if o.cancel != nil {
		o.cancel()
	}
	o.wg.Wait()
}

// Submit queues a new job for processing. It fails fast when the queue is
// full.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stopped {
		job.SetStatus(StatusFailed, "shutdown")
		return fmt.Errorf("pipeline is shutting down")
	}
	select {
	case o.queue <- job:
		return nil
	default:
		job.AddError("queue full")
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Store returns the backing store for direct use by API handlers.
func (o *Orchestrator) Store() store.Store {
	return o.store
}

// Segmenter returns the shared segmenter.
func (o *Orchestrator) Segmenter() *segmenter.Segmenter {
	return o.seg
}
