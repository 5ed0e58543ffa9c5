package queue

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/isitech/bibliotheque/internal/core/domain"
	"github.com/isitech/bibliotheque/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Dispatcher writes loan events to the audit repository from a fixed set of
// workers. Events are sharded by book id so one book's history keeps its order.
type Dispatcher struct {
	workers []chan domain.LoanEvent
	repo    ports.LoanEventRepository
	log     zerolog.Logger
	wg      sync.WaitGroup

	// OnResult, when set, is called after each write with its outcome.
	OnResult func(event domain.LoanEvent, err error)
}

var _ ports.LoanEventPublisher = (*Dispatcher)(nil)

// NewDispatcher creates a Dispatcher with numWorkers shards.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, repo ports.LoanEventRepository, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.LoanEvent, numWorkers),
		repo:    repo,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.LoanEvent, channelBuffer)
	}
	return d
}

// Start launches the workers. They drain their queue and exit once ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has exited.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Publish queues an event on the worker owning its book. The call only
// blocks when that worker's buffer is full.
func (d *Dispatcher) Publish(event domain.LoanEvent) {
	d.workers[d.shardIndex(event.BookID)] <- event
}

// Depth returns the number of queued events per worker.
func (d *Dispatcher) Depth() []int {
	out := make([]int, len(d.workers))
	for i, ch := range d.workers {
		out[i] = len(ch)
	}
	return out
}

func (d *Dispatcher) shardIndex(bookID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(bookID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.LoanEvent) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			d.drain(id, ch)
			return
		case event := <-ch:
			d.write(ctx, id, event)
		}
	}
}

// drain flushes what is already queued with a fresh context so shutdown
// does not lose accepted events.
func (d *Dispatcher) drain(id int, ch <-chan domain.LoanEvent) {
	for {
		select {
		case event := <-ch:
			d.write(context.Background(), id, event)
		default:
			return
		}
	}
}

func (d *Dispatcher) write(ctx context.Context, id int, event domain.LoanEvent) {
	err := d.repo.InsertEvent(ctx, &event)
	if err != nil {
		d.log.Error().Err(err).
			Str("book_id", event.BookID).
			Str("kind", string(event.Kind)).
			Int("worker_id", id).
			Msg("loan event write failed")
	}
	if d.OnResult != nil {
		d.OnResult(event, err)
	}
}
