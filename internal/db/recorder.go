package db

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/yiqunxu123/retail-pos-sub000/internal/pool"
)

// Recorder mirrors pool job events into the print_jobs history table.
// Writes happen on the emitter's goroutine; sqlite with a single
// connection keeps them ordered.
type Recorder struct {
	store   *Store
	timeout time.Duration
}

func NewRecorder(store *Store) *Recorder {
	return &Recorder{store: store, timeout: 5 * time.Second}
}

// Attach subscribes the recorder to the pool's event stream and returns
// the unsubscribe function.
func (r *Recorder) Attach(p *pool.Pool) func() {
	return p.AddListener(r.handle)
}

func (r *Recorder) handle(ev pool.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	var err error
	switch ev.Type {
	case pool.EventJobQueued:
		rec := &JobRecord{ID: ev.JobID, Status: "queued"}
		if prio, ok := ev.Data["priority"].(int); ok {
			rec.Priority = prio
		}
		err = r.store.InsertJobRecord(ctx, rec)
	case pool.EventJobCompleted:
		err = r.store.FinishJobRecord(ctx, ev.JobID, ev.PrinterID, "completed", "")
	case pool.EventJobFailed:
		msg, _ := ev.Data["error"].(string)
		err = r.store.FinishJobRecord(ctx, ev.JobID, ev.PrinterID, "failed", msg)
	default:
		return
	}

	if err != nil {
		log.WithFields(log.Fields{
			"event": string(ev.Type),
			"job":   ev.JobID,
		}).Warnf("Failed to record job history: %v", err)
	}
}
