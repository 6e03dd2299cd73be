package store

import (
	"container/heap"
	"slices"

	"tubeq/internal/model"
)

// Bury sets a reserved job aside so reservation skips it until it is
// kicked back. It reports false when the id is unknown or the job is
// not currently reserved. No wire verb reaches this yet; the peek and
// kick command family is reserved for it.
func (s *Store) Bury(id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok || j.State != model.StateReserved {
		return false
	}
	j.State = model.StateBuried
	delete(s.reserved, id)
	s.buried[id] = struct{}{}
	return true
}

// Kick moves up to bound buried jobs back to the ready queue, oldest
// id first, and reports how many moved.
func (s *Store) Kick(tube string, bound int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]uint64, 0, len(s.buried))
	for id := range s.buried {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	moved := 0
	for _, id := range ids {
		if moved >= bound {
			break
		}
		j := s.jobs[id]
		j.State = model.StateReady
		delete(s.buried, id)
		heap.Push(&s.ready, j)
		moved++
	}
	return moved
}
