package store

import "time"

// TubeStats is the counter snapshot served by stats-tube. Field tags
// are the wire's yaml keys.
type TubeStats struct {
	Name                string `yaml:"name"`
	CurrentJobsReady    int    `yaml:"current-jobs-ready"`
	CurrentJobsReserved int    `yaml:"current-jobs-reserved"`
	CurrentJobsBuried   int    `yaml:"current-jobs-buried"`
	TotalJobs           uint64 `yaml:"total-jobs"`
	UptimeSeconds       int64  `yaml:"uptime-seconds"`
}

// Stats returns current counters under the given tube's name. With a
// single shared queue the numbers are the same whatever name is asked
// for; only the echo differs.
func (s *Store) Stats(tube string) TubeStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tube == "" {
		tube = DefaultTube
	}
	return TubeStats{
		Name:                tube,
		CurrentJobsReady:    len(s.jobs) - len(s.reserved) - len(s.buried),
		CurrentJobsReserved: len(s.reserved),
		CurrentJobsBuried:   len(s.buried),
		TotalJobs:           s.submitted,
		UptimeSeconds:       int64(time.Since(s.startedAt).Seconds()),
	}
}

// Tubes lists every known tube.
func (s *Store) Tubes() []string {
	return []string{DefaultTube}
}
