package store

import (
	"container/heap"
	"sync"
	"time"

	"tubeq/internal/model"
)

// DefaultTube is the tube jobs land in until multi-tube routing exists.
// Tube parameters are accepted throughout the API so the contract will
// not break when routing arrives, but every job shares one queue today.
const DefaultTube = "default"

// Store is the shared job table. One instance serves every connection;
// each operation runs as a single short critical section with no I/O
// inside, so mutations are linearizable in lock order.
type Store struct {
	mu        sync.Mutex
	jobs      map[uint64]*model.Job
	nextID    uint64
	ready     readyHeap
	reserved  map[uint64]struct{}
	buried    map[uint64]struct{}
	submitted uint64
	startedAt time.Time
}

func NewStore() *Store {
	return &Store{
		jobs:      make(map[uint64]*model.Job),
		reserved:  make(map[uint64]struct{}),
		buried:    make(map[uint64]struct{}),
		startedAt: time.Now().UTC(),
	}
}

// readyHeap orders ready jobs by ascending priority value, ties broken
// by ascending id so equal-priority jobs come out first-submitted-first.
type readyHeap []*model.Job

func (h readyHeap) Len() int { return len(h) }

func (h readyHeap) Less(i, j int) bool {
	if h[i].Priority == h[j].Priority {
		return h[i].ID < h[j].ID
	}
	return h[i].Priority < h[j].Priority
}

func (h readyHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *readyHeap) Push(x any) {
	*h = append(*h, x.(*model.Job))
}

func (h *readyHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Submit adds a new ready job and returns its id. Ids start at 1 and
// never repeat within a process lifetime. Submit never fails.
func (s *Store) Submit(tube string, priority, delay, ttr int, payload []byte) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tube == "" {
		tube = DefaultTube
	}

	s.nextID++
	j := &model.Job{
		ID:        s.nextID,
		Tube:      tube,
		Priority:  priority,
		Delay:     delay,
		TTR:       ttr,
		Payload:   payload,
		State:     model.StateReady,
		CreatedAt: time.Now().UTC(),
	}
	s.jobs[j.ID] = j
	heap.Push(&s.ready, j)
	s.submitted++

	return j.ID
}

// Reserve hands out the ready job with the lowest priority value, ties
// broken by ascending id, and marks it reserved. Returns nil when
// nothing is ready; the caller decides whether to poll or report it.
func (s *Store) Reserve(tube string) *model.Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	for s.ready.Len() > 0 {
		j := heap.Pop(&s.ready).(*model.Job)

		// Deleting a ready job leaves its heap entry behind; skip those.
		if got, ok := s.jobs[j.ID]; !ok || got != j || got.State != model.StateReady {
			continue
		}

		j.State = model.StateReserved
		s.reserved[j.ID] = struct{}{}
		return j.Clone()
	}
	return nil
}

// Delete removes a job regardless of its state and reports whether the
// id existed. Deleting a reserved job is allowed; its owner loses it.
func (s *Store) Delete(id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[id]; !ok {
		return false
	}
	delete(s.jobs, id)
	delete(s.reserved, id)
	delete(s.buried, id)
	return true
}

// Release puts a reserved job back on the ready queue. It reports
// false when the id is unknown or the job is not currently reserved.
func (s *Store) Release(id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok || j.State != model.StateReserved {
		return false
	}
	j.State = model.StateReady
	delete(s.reserved, id)
	heap.Push(&s.ready, j)
	return true
}
