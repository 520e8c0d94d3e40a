// Package jobs runs analyses asynchronously and fans their lifecycle
// events out to subscribers (the dashboard's SSE stream).
package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// State is the lifecycle phase of a job.
type State string

const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// Job is one tracked unit of work. Result holds whatever the work
// function returned; consumers assert the concrete type.
type Job struct {
	ID        string     `json:"id"`
	Kind      string     `json:"kind"`
	State     State      `json:"state"`
	Progress  int        `json:"progress"`
	Message   string     `json:"message,omitempty"`
	Error     string     `json:"error,omitempty"`
	Result    any        `json:"result,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	DoneAt    *time.Time `json:"doneAt,omitempty"`
}

// Event is one job state change delivered to subscribers.
type Event struct {
	Job Job `json:"job"`
}

// Progress lets a running work function report advancement.
type Progress func(percent int, message string)

// WorkFunc is the unit a job executes. It must honor ctx cancellation.
type WorkFunc func(ctx context.Context, report Progress) (any, error)

// Manager tracks jobs and their subscribers. Zero value is not usable;
// construct with NewManager.
type Manager struct {
	mu       sync.RWMutex
	jobs     map[string]*Job
	order    []string
	subs     map[int]chan Event
	nextSub  int
	baseCtx  context.Context
	cancel   context.CancelFunc
	capacity int
}

// NewManager builds a manager whose jobs stop when ctx is canceled.
func NewManager(ctx context.Context) *Manager {
	base, cancel := context.WithCancel(ctx)
	return &Manager{
		jobs:     make(map[string]*Job),
		subs:     make(map[int]chan Event),
		baseCtx:  base,
		cancel:   cancel,
		capacity: 100,
	}
}

// Submit registers and starts a job, returning its id immediately.
func (m *Manager) Submit(kind string, work WorkFunc) string {
	now := time.Now().UTC()
	job := &Job{
		ID:        uuid.NewString(),
		Kind:      kind,
		State:     StatePending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	m.mu.Lock()
	m.jobs[job.ID] = job
	m.order = append(m.order, job.ID)
	m.evictLocked()
	m.mu.Unlock()
	m.publish(*job)

	go m.run(job.ID, work)
	return job.ID
}

func (m *Manager) run(id string, work WorkFunc) {
	m.update(id, func(j *Job) {
		j.State = StateRunning
	})

	report := func(percent int, message string) {
		m.update(id, func(j *Job) {
			if percent >= 0 && percent <= 100 {
				j.Progress = percent
			}
			j.Message = message
		})
	}

	result, err := work(m.baseCtx, report)

	now := time.Now().UTC()
	m.update(id, func(j *Job) {
		j.DoneAt = &now
		if err != nil {
			j.State = StateFailed
			j.Error = err.Error()
			log.Error("job failed", "id", j.ID, "kind", j.Kind, "error", err)
			return
		}
		j.State = StateCompleted
		j.Progress = 100
		j.Result = result
	})
}

func (m *Manager) update(id string, fn func(*Job)) {
	m.mu.Lock()
	job, ok := m.jobs[id]
	if !ok {
		m.mu.Unlock()
		return
	}
	fn(job)
	job.UpdatedAt = time.Now().UTC()
	snapshot := *job
	m.mu.Unlock()
	m.publish(snapshot)
}

// Get returns a copy of the job, if known.
func (m *Manager) Get(id string) (Job, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// List returns all tracked jobs, newest first.
func (m *Manager) List() []Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Job, 0, len(m.order))
	for i := len(m.order) - 1; i >= 0; i-- {
		if job, ok := m.jobs[m.order[i]]; ok {
			out = append(out, *job)
		}
	}
	return out
}

// Subscribe registers an event channel; the returned function removes
// it. Slow subscribers drop events rather than block job progress.
func (m *Manager) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 16)
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = ch
	m.mu.Unlock()

	return ch, func() {
		m.mu.Lock()
		if _, ok := m.subs[id]; ok {
			delete(m.subs, id)
			close(ch)
		}
		m.mu.Unlock()
	}
}

func (m *Manager) publish(snapshot Job) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, ch := range m.subs {
		select {
		case ch <- Event{Job: snapshot}:
		default:
		}
	}
}

// evictLocked bounds the retained history. Caller holds mu.
func (m *Manager) evictLocked() {
	for len(m.order) > m.capacity {
		oldest := m.order[0]
		m.order = m.order[1:]
		delete(m.jobs, oldest)
	}
}

// Shutdown cancels running jobs and closes all subscriber channels.
func (m *Manager) Shutdown() {
	m.cancel()
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, ch := range m.subs {
		delete(m.subs, id)
		close(ch)
	}
}
