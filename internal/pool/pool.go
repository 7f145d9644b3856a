// Package pool schedules print jobs across a set of physical printers.
// It owns the job queue and all printer status transitions: callers
// register printers, submit jobs and read snapshots, but never mutate
// printer state directly while a job may be in flight.
package pool

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/yiqunxu123/retail-pos-sub000/internal/config"
	"github.com/yiqunxu123/retail-pos-sub000/internal/transport"
)

var (
	ErrNoEnabledPrinters = errors.New("no enabled printers configured")
	ErrNoIdlePrinter     = errors.New("no idle enabled printer available")
	ErrQueueFull         = errors.New("job queue is full")
)

type Pool struct {
	cfg    config.PoolConfig
	sender transport.Sender
	bus    *Bus

	mu       sync.Mutex
	printers map[string]*printer
	nextSeq  int
	queue    jobQueue
}

func New(cfg config.PoolConfig, sender transport.Sender) *Pool {
	return &Pool{
		cfg:      cfg,
		sender:   sender,
		bus:      NewBus(),
		printers: make(map[string]*printer),
	}
}

// AddListener subscribes to pool events and returns an unsubscribe
// function.
func (p *Pool) AddListener(fn func(Event)) func() {
	return p.bus.Subscribe(fn)
}

// AddJob queues a payload for the next available printer. It fails when
// no enabled printer exists at all: a job is never queued without a
// possible destination.
func (p *Pool) AddJob(payload transport.Payload, priority int) (string, error) {
	return p.addJob(payload, priority, "")
}

func (p *Pool) addJob(payload transport.Payload, priority int, targetID string) (string, error) {
	p.mu.Lock()
	if p.countEnabledLocked() == 0 {
		p.mu.Unlock()
		return "", ErrNoEnabledPrinters
	}
	if p.cfg.MaxQueueDepth > 0 && p.queue.len() >= p.cfg.MaxQueueDepth {
		p.mu.Unlock()
		return "", ErrQueueFull
	}

	job := &Job{
		ID:        uuid.NewString(),
		Payload:   payload,
		Priority:  priority,
		CreatedAt: time.Now(),
		TargetID:  targetID,
	}
	p.queue.push(job)
	queued := p.queue.len()
	p.mu.Unlock()

	p.bus.Emit(Event{
		Type:      EventJobQueued,
		JobID:     job.ID,
		PrinterID: targetID,
		Data:      map[string]any{"priority": priority, "queue_length": queued, "bytes": payload.Len()},
	})

	p.drain()
	return job.ID, nil
}

// drain dispatches at most one queued job to the least-loaded idle
// enabled printer. Every completion, failure and idle transition calls
// it again, so throughput is sustained one dispatch at a time.
func (p *Pool) drain() {
	p.mu.Lock()

	jobIdx := -1
	var chosen *printer
	for i, job := range p.queue.jobs {
		if job.TargetID != "" {
			pr, ok := p.printers[job.TargetID]
			if ok && pr.eligible() {
				jobIdx, chosen = i, pr
				break
			}
			continue
		}
		if pr := p.leastLoadedLocked(); pr != nil {
			jobIdx, chosen = i, pr
			break
		}
		// No idle enabled printer at all, so nothing further back can
		// dispatch either.
		break
	}

	if jobIdx < 0 {
		p.mu.Unlock()
		return
	}

	job := p.queue.removeAt(jobIdx)
	job.AssignedTo = chosen.ID
	chosen.Status = StatusBusy
	target := chosen.target()
	printerID := chosen.ID
	p.mu.Unlock()

	p.bus.Emit(Event{
		Type:      EventJobProcessing,
		JobID:     job.ID,
		PrinterID: printerID,
	})

	go p.executeJob(printerID, target, job)
}

// leastLoadedLocked returns the idle enabled printer with the fewest
// completed jobs; registration order breaks ties.
func (p *Pool) leastLoadedLocked() *printer {
	var best *printer
	for _, pr := range p.printers {
		if !pr.eligible() {
			continue
		}
		if best == nil ||
			pr.JobsCompleted < best.JobsCompleted ||
			(pr.JobsCompleted == best.JobsCompleted && pr.seq < best.seq) {
			best = pr
		}
	}
	return best
}

func (p *Pool) countEnabledLocked() int {
	n := 0
	for _, pr := range p.printers {
		if pr.Enabled {
			n++
		}
	}
	return n
}

// executeJob runs one job against one printer. The target is a snapshot
// captured at dispatch time, so a printer removed mid-job still gets its
// bytes; bookkeeping is then dropped with the registry entry.
func (p *Pool) executeJob(printerID string, target transport.Target, job *Job) {
	start := time.Now()
	hold := p.holdTime(job.Payload)

	sendErr := p.send(target, job.Payload)

	if sendErr == nil {
		if remaining := hold - time.Since(start); remaining > 0 {
			time.Sleep(remaining)
		}

		p.mu.Lock()
		if pr, ok := p.printers[printerID]; ok {
			pr.JobsCompleted++
			pr.Status = StatusIdle
			pr.LastActiveAt = time.Now()
			pr.LastError = ""
		}
		p.mu.Unlock()

		p.bus.Emit(Event{
			Type:      EventJobCompleted,
			JobID:     job.ID,
			PrinterID: printerID,
			Data:      map[string]any{"duration_ms": time.Since(start).Milliseconds()},
		})
	} else {
		// Fail fast, stay available: the printer returns to idle so the
		// next job can still be attempted. No retry.
		p.mu.Lock()
		if pr, ok := p.printers[printerID]; ok {
			pr.Status = StatusIdle
			pr.LastActiveAt = time.Now()
			pr.LastError = sendErr.Message
		}
		p.mu.Unlock()

		log.WithFields(log.Fields{
			"job":     job.ID,
			"printer": printerID,
			"kind":    sendErr.Kind,
		}).Warnf("Print job failed: %s", sendErr.Message)

		p.bus.Emit(Event{
			Type:      EventJobFailed,
			JobID:     job.ID,
			PrinterID: printerID,
			Data:      map[string]any{"error": sendErr.Message, "kind": sendErr.Kind},
		})
	}

	time.Sleep(p.cfg.SettleInterval)
	p.drain()
}

// send wraps the transport call so that panics and errors alike come
// back as one normalized SendError.
func (p *Pool) send(target transport.Target, payload transport.Payload) (sendErr *transport.SendError) {
	defer func() {
		if r := recover(); r != nil {
			sendErr = transport.NormalizeError(r)
		}
	}()
	if err := p.sender.Send(target, payload, p.cfg.SendTimeout); err != nil {
		return transport.NormalizeError(err)
	}
	return nil
}

// holdTime models physical print duration from content size, independent
// of transport latency.
func (p *Pool) holdTime(payload transport.Payload) time.Duration {
	hold := time.Duration(payload.Lines()) * p.cfg.HoldPerLine
	if hold < p.cfg.HoldMin {
		hold = p.cfg.HoldMin
	}
	if hold > p.cfg.HoldMax {
		hold = p.cfg.HoldMax
	}
	return hold
}

// ClearQueue drops every queued job. Jobs already executing are not
// affected.
func (p *Pool) ClearQueue() int {
	p.mu.Lock()
	removed := p.queue.clear()
	p.mu.Unlock()

	p.bus.Emit(Event{
		Type: EventQueueCleared,
		Data: map[string]any{"removed": removed},
	})
	return removed
}

// PoolStatus is the dashboard snapshot.
type PoolStatus struct {
	QueueLength int               `json:"queue_length"`
	Printers    []PrinterSnapshot `json:"printers"`
}

func (p *Pool) GetStatus() PoolStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	return PoolStatus{
		QueueLength: p.queue.len(),
		Printers:    p.snapshotsLocked(),
	}
}
