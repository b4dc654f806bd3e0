package downloader

import (
	"context"
	"fmt"
	"sync"
	"time"

	"udacimak/pkg/fetch"
	"udacimak/pkg/logger"
)

// AssetJob represents a single media reference to download
type AssetJob struct {
	// Seq is the position of the job in a Run batch.
	Seq int
	Ref fetch.MediaReference
}

// AssetResult represents the result of an asset job
type AssetResult struct {
	Job      AssetJob
	Asset    *fetch.LocalAsset
	Error    error
	Duration time.Duration
}

// AssetFetcher downloads one media reference
type AssetFetcher interface {
	FetchReference(ctx context.Context, ref fetch.MediaReference) (*fetch.LocalAsset, error)
}

// WorkerPool manages concurrent download workers
type WorkerPool struct {
	numWorkers  int
	jobQueue    chan AssetJob
	resultQueue chan AssetResult
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	fetcher     AssetFetcher
	logger      logger.Logger
}

// NewWorkerPool creates a new download worker pool
func NewWorkerPool(ctx context.Context, numWorkers int, fetcher AssetFetcher, log logger.Logger) *WorkerPool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	ctx, cancel := context.WithCancel(ctx)

	return &WorkerPool{
		numWorkers:  numWorkers,
		jobQueue:    make(chan AssetJob, numWorkers*2),
		resultQueue: make(chan AssetResult, numWorkers),
		ctx:         ctx,
		cancel:      cancel,
		fetcher:     fetcher,
		logger:      logger.OrDefault(log),
	}
}

// Start launches all workers
func (wp *WorkerPool) Start() {
	wp.logger.DebugWithFields("Starting worker pool", map[string]interface{}{
		"num_workers": wp.numWorkers,
	})

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop closes the queue, waits for the workers and closes the results
func (wp *WorkerPool) Stop() {
	close(wp.jobQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
	wp.cancel()
}

// Submit adds a job to the queue
func (wp *WorkerPool) Submit(job AssetJob) error {
	select {
	case wp.jobQueue <- job:
		return nil
	case <-wp.ctx.Done():
		return fmt.Errorf("worker pool is shutting down: %w", wp.ctx.Err())
	}
}

// Results returns the result channel
func (wp *WorkerPool) Results() <-chan AssetResult {
	return wp.resultQueue
}

// Run downloads all jobs and returns their results in job order.
// Jobs that could not be submitted because the context ended carry its error.
func (wp *WorkerPool) Run(jobs []AssetJob) []AssetResult {
	results := make([]AssetResult, len(jobs))
	for i := range jobs {
		jobs[i].Seq = i
		results[i] = AssetResult{Job: jobs[i]}
	}

	wp.Start()

	go func() {
		defer wp.Stop()
		for i, job := range jobs {
			if err := wp.Submit(job); err != nil {
				for j := i; j < len(jobs); j++ {
					results[j].Error = err
				}
				return
			}
		}
	}()

	for result := range wp.Results() {
		results[result.Job.Seq] = result
	}
	return results
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for job := range wp.jobQueue {
		result := wp.processJob(job, id)
		wp.resultQueue <- result
	}
}

func (wp *WorkerPool) processJob(job AssetJob, workerID int) AssetResult {
	start := time.Now()
	result := AssetResult{Job: job}

	if err := wp.ctx.Err(); err != nil {
		result.Error = err
		return result
	}

	asset, err := wp.fetcher.FetchReference(wp.ctx, job.Ref)
	result.Asset = asset
	result.Error = err
	result.Duration = time.Since(start)

	fields := map[string]interface{}{
		"worker_id": workerID,
		"uri":       job.Ref.URI,
		"file":      job.Ref.Filename,
		"duration":  result.Duration,
	}
	if err != nil {
		wp.logger.WithError(err).DebugWithFields("Worker failed to fetch asset", fields)
	} else {
		wp.logger.DebugWithFields("Worker fetched asset", fields)
	}

	return result
}

// Size returns the number of workers
func (wp *WorkerPool) Size() int {
	return wp.numWorkers
}
