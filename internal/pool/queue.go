package pool

import (
	"time"

	"github.com/yiqunxu123/retail-pos-sub000/internal/transport"
)

// Job is one submitted print request. TargetID is empty for jobs the
// balancer may place anywhere; fan-out entry points pin a job to the
// printer whose paper width it was rendered for.
type Job struct {
	ID         string
	Payload    transport.Payload
	Priority   int
	CreatedAt  time.Time
	AssignedTo string
	TargetID   string
}

// jobQueue is a priority-insertion FIFO. Jobs with priority > 0 are
// inserted before the first queued job with strictly lower priority;
// FIFO order is preserved among equal priorities. Expected queue depths
// are small, so a slice beats a heap here.
type jobQueue struct {
	jobs []*Job
}

func (q *jobQueue) push(job *Job) {
	if job.Priority > 0 {
		for i, queued := range q.jobs {
			if queued.Priority < job.Priority {
				q.jobs = append(q.jobs, nil)
				copy(q.jobs[i+1:], q.jobs[i:])
				q.jobs[i] = job
				return
			}
		}
	}
	q.jobs = append(q.jobs, job)
}

// removeAt pops the job at index i, preserving order.
func (q *jobQueue) removeAt(i int) *Job {
	job := q.jobs[i]
	q.jobs = append(q.jobs[:i], q.jobs[i+1:]...)
	return job
}

func (q *jobQueue) clear() int {
	n := len(q.jobs)
	q.jobs = nil
	return n
}

func (q *jobQueue) len() int {
	return len(q.jobs)
}
