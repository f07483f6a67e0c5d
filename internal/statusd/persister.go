package statusd

import (
	"log"
	"sync"
	"time"

	"github.com/pulsemon/pulsemon/internal/database"
	"github.com/pulsemon/pulsemon/internal/models"
	"github.com/pulsemon/pulsemon/pkg/monitor"
	"github.com/pulsemon/pulsemon/pkg/probe"
)

// persister writes transitions and probe diagnostics to the database on
// its own goroutine. It implements monitor.Tracer; tracer callbacks run
// on the publishing goroutine and must not block, so everything is
// handed off through a buffered channel. Diagnostics are dropped, with
// a log line, when the writer falls behind.
type persister struct {
	repo *database.Repository

	queue    chan interface{}
	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

func newPersister(repo *database.Repository) *persister {
	return &persister{
		repo:  repo,
		queue: make(chan interface{}, 256),
		done:  make(chan struct{}),
	}
}

func (p *persister) start() {
	p.wg.Add(1)
	go p.run()
}

func (p *persister) stop() {
	p.stopOnce.Do(func() { close(p.done) })
	p.wg.Wait()
}

func (p *persister) enqueueTransition(t *models.Transition) {
	p.enqueue(t)
}

// Reading implements monitor.Tracer: only timeout diagnostics are
// persisted, everything else is already logged by the log tracer.
func (p *persister) Reading(id monitor.SourceID, r probe.Reading) {
	if !r.TimedOut {
		return
	}
	p.enqueue(&models.ProbeError{
		Timestamp: time.Now(),
		SourceID:  string(id),
		Timeout:   true,
		ErrorMsg:  "probe exceeded its deadline",
	})
}

// Transition implements monitor.Tracer. The service persists
// transitions itself from ActiveSet changes with durations attached, so
// nothing to do here.
func (p *persister) Transition(monitor.SourceID, bool) {}

func (p *persister) enqueue(item interface{}) {
	select {
	case p.queue <- item:
	default:
		log.Printf("Persist queue full, dropping %T", item)
	}
}

func (p *persister) run() {
	defer p.wg.Done()
	for {
		select {
		case <-p.done:
			// Drain what is already queued before exiting.
			for {
				select {
				case item := <-p.queue:
					p.write(item)
				default:
					return
				}
			}
		case item := <-p.queue:
			p.write(item)
		}
	}
}

func (p *persister) write(item interface{}) {
	var err error
	switch v := item.(type) {
	case *models.Transition:
		err = p.repo.CreateTransition(v)
	case *models.ProbeError:
		err = p.repo.CreateProbeError(v)
	}
	if err != nil {
		log.Printf("Failed to persist %T: %v", item, err)
	}
}
