package integrator

import (
	"runtime"
	"sync"
)

// photonTask is one batch of photons emitted from a single light. Batches
// carry their own random stream so results do not depend on which worker
// picks them up.
type photonTask struct {
	TaskID int // Stream index and merge order
	Light  int // Index into the light slice
	Start  int // First photon of the batch
	Count  int // Number of photons in the batch
	Accum  []float64
}

// photonResult is the private accumulator a batch filled in
type photonResult struct {
	TaskID int
	Accum  []float64
	Stats  PhotonStats
}

// photonPool runs photon batches on a fixed set of goroutines
type photonPool struct {
	taskQueue   chan photonTask
	resultQueue chan photonResult
	workers     []*photonWorker
	numWorkers  int
	wg          sync.WaitGroup
}

// photonWorker traces batches pulled from the pool's queue
type photonWorker struct {
	ID          int
	run         func(photonTask) photonResult
	taskQueue   chan photonTask
	resultQueue chan photonResult
}

// newPhotonPool creates a pool whose queues hold one batch per worker
func newPhotonPool(numWorkers int, run func(photonTask) photonResult) *photonPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	pp := &photonPool{
		taskQueue:   make(chan photonTask, numWorkers),
		resultQueue: make(chan photonResult, numWorkers),
		numWorkers:  numWorkers,
	}

	for i := 0; i < numWorkers; i++ {
		pp.workers = append(pp.workers, &photonWorker{
			ID:          i,
			run:         run,
			taskQueue:   pp.taskQueue,
			resultQueue: pp.resultQueue,
		})
	}

	return pp
}

// Start begins all workers
func (pp *photonPool) Start() {
	for _, worker := range pp.workers {
		pp.wg.Add(1)
		go worker.loop(&pp.wg)
	}
}

// Stop closes the queue, waits for in-flight batches and closes the results
func (pp *photonPool) Stop() {
	close(pp.taskQueue)
	pp.wg.Wait()
	close(pp.resultQueue)
}

// Submit queues a batch
func (pp *photonPool) Submit(task photonTask) {
	pp.taskQueue <- task
}

// Result retrieves a finished batch
func (pp *photonPool) Result() (photonResult, bool) {
	result, ok := <-pp.resultQueue
	return result, ok
}

func (w *photonWorker) loop(wg *sync.WaitGroup) {
	defer wg.Done()

	for task := range w.taskQueue {
		w.resultQueue <- w.run(task)
	}
}

// accumulatorPool hands out zeroed per-batch accumulators and never lets more
// than limit exist. get is called from a single goroutine.
type accumulatorPool struct {
	free    chan []float64
	size    int
	limit   int
	created int
}

func newAccumulatorPool(limit, size int) *accumulatorPool {
	return &accumulatorPool{
		free:  make(chan []float64, limit),
		size:  size,
		limit: limit,
	}
}

// get returns a recycled accumulator, allocating while under the limit and
// blocking once it is reached
func (ap *accumulatorPool) get() []float64 {
	select {
	case buf := <-ap.free:
		clear(buf)
		return buf
	default:
	}

	if ap.created < ap.limit {
		ap.created++
		return make([]float64, ap.size)
	}

	buf := <-ap.free
	clear(buf)
	return buf
}

// put returns an accumulator once its batch has been merged
func (ap *accumulatorPool) put(buf []float64) {
	ap.free <- buf
}
