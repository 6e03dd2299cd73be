// Package protocol implements the text wire protocol spoken between
// clients and the broker: a growable per-connection read buffer, a
// resumable command decoder, and the response encoders. Commands are
// CRLF-terminated lines with a case-sensitive keyword and at most one
// alphanumeric argument.
package protocol

// Op identifies a command verb. The value is the wire keyword itself.
type Op string

const (
	OpPut       Op = "put"
	OpReserve   Op = "reserve"
	OpDelete    Op = "delete"
	OpRelease   Op = "release"
	OpWatch     Op = "watch"
	OpUse       Op = "use"
	OpListTubes Op = "list-tubes"
	OpStatsTube Op = "stats-tube"

	// The peek family is recognized but unimplemented; the broker
	// answers each with NOT_FOUND.
	OpPeekReady   Op = "peek-ready"
	OpPeekDelayed Op = "peek-delayed"
	OpPeekBuried  Op = "peek-buried"
)

// Command is one decoded client command. Only the fields the verb
// carries are set: Payload for put, JobID for delete and release, Tube
// for watch, use and stats-tube.
type Command struct {
	Op      Op
	Payload []byte
	JobID   uint64
	Tube    string
}
