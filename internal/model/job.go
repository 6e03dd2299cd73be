package model

import "time"

type JobState string

const (
	StateReady    JobState = "ready"
	StateReserved JobState = "reserved"
	StateBuried   JobState = "buried"
)

// Job is the canonical record for one submitted job. The store keeps
// exactly one Job per ID; callers outside the store only ever see copies.
type Job struct {
	ID        uint64
	Tube      string
	Priority  int
	Delay     int
	TTR       int
	Payload   []byte
	State     JobState
	CreatedAt time.Time
}

// Clone returns a copy safe to hand outside the store. The payload is
// immutable after submission, so sharing the underlying bytes is fine.
func (j *Job) Clone() *Job {
	c := *j
	return &c
}
