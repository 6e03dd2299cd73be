package broker

import (
	"errors"
	"io"
	"log/slog"
	"net"
	"time"

	"tubeq/internal/protocol"
	"tubeq/internal/store"
)

// put carries no priority, delay, or ttr on the wire; every submission
// uses these fixed values.
const (
	putPriority = 1
	putDelay    = 1
	putTTR      = 1
)

// session drives the read, decode, execute, respond loop for one
// connection. It owns the connection's buffer and borrows the shared
// store; the socket read is its only blocking point.
type session struct {
	conn         net.Conn
	store        *store.Store
	log          *slog.Logger
	buf          *protocol.Buffer
	writeTimeout time.Duration
	maxCommand   int
	usedTube     string
}

func newSession(conn net.Conn, srv *Server) *session {
	return &session{
		conn:         conn,
		store:        srv.Store,
		log:          srv.Logger.With("remote", conn.RemoteAddr().String()),
		buf:          protocol.NewBuffer(),
		writeTimeout: srv.WriteTimeout,
		maxCommand:   srv.MaxCommandBytes,
		usedTube:     store.DefaultTube,
	}
}

func (s *session) run() {
	defer s.conn.Close()

	s.log.Debug("session opened")

	closed := false
	for {
		// Drain every complete command already buffered before the
		// next read, so pipelined commands get answered even when the
		// peer has half-closed its side.
		for {
			cmd, n, err := protocol.Decode(s.buf.ReadableWindow())
			if err == nil {
				s.buf.Advance(n)
				if !s.respond(cmd) {
					return
				}
				continue
			}
			if errors.Is(err, protocol.ErrIncomplete) {
				break
			}

			var invalid *protocol.InvalidError
			if errors.As(err, &invalid) && invalid.Recognized() {
				s.log.Warn("malformed command", "verb", invalid.Verb, "reason", invalid.Reason)
				s.write([]byte(protocol.RespBadFormat))
			} else {
				s.log.Warn("unrecognized command", "error", err)
			}
			return
		}

		if closed {
			s.log.Debug("session closed by peer")
			return
		}
		if s.buf.Unconsumed() > s.maxCommand {
			s.log.Warn("command exceeds size limit", "limit", s.maxCommand, "buffered", s.buf.Unconsumed())
			return
		}
		closed = !s.read()
	}
}

// read performs one blocking socket read into the buffer. It reports
// false once no further bytes will arrive, whether by clean close or
// by error; already-buffered bytes are still processed either way.
func (s *session) read() bool {
	s.buf.Reclaim()
	s.buf.Grow()

	n, err := s.conn.Read(s.buf.WritableSlice())
	if n > 0 {
		s.buf.Commit(n)
	}
	if err != nil {
		if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
			s.log.Warn("read failed", "error", err)
		}
		return false
	}
	return true
}

// respond executes one command against the store (or the static
// handlers) and writes its reply. It reports false when the session
// should end.
func (s *session) respond(cmd protocol.Command) bool {
	switch cmd.Op {
	case protocol.OpPut:
		id := s.store.Submit(s.usedTube, putPriority, putDelay, putTTR, cmd.Payload)
		s.log.Debug("job inserted", "job", id, "tube", s.usedTube, "bytes", len(cmd.Payload))
		return s.write(protocol.Inserted(id))

	case protocol.OpReserve:
		j := s.store.Reserve(s.usedTube)
		if j == nil {
			return s.write([]byte(protocol.RespTimedOut))
		}
		s.log.Debug("job reserved", "job", j.ID)
		return s.write(protocol.Reserved(j.ID, j.Payload))

	case protocol.OpDelete:
		if s.store.Delete(cmd.JobID) {
			s.log.Debug("job deleted", "job", cmd.JobID)
			return s.write([]byte(protocol.RespDeleted))
		}
		return s.write([]byte(protocol.RespNotFound))

	case protocol.OpRelease:
		if s.store.Release(cmd.JobID) {
			s.log.Debug("job released", "job", cmd.JobID)
			return s.write([]byte(protocol.RespReleased))
		}
		return s.write([]byte(protocol.RespNotFound))

	case protocol.OpWatch:
		return s.write([]byte(protocol.RespWatching))

	case protocol.OpUse:
		s.usedTube = cmd.Tube
		return s.write(protocol.Using(cmd.Tube))

	case protocol.OpListTubes:
		resp, err := protocol.OKYAML(s.store.Tubes())
		if err != nil {
			s.log.Error("encoding tube list failed", "error", err)
			return false
		}
		return s.write(resp)

	case protocol.OpStatsTube:
		resp, err := protocol.OKYAML(s.store.Stats(cmd.Tube))
		if err != nil {
			s.log.Error("encoding tube stats failed", "error", err)
			return false
		}
		return s.write(resp)

	case protocol.OpPeekReady, protocol.OpPeekDelayed, protocol.OpPeekBuried:
		return s.write([]byte(protocol.RespPeekNotFound))
	}

	// The decoder produces no other ops.
	s.log.Error("unhandled command", "op", string(cmd.Op))
	return false
}

// write sends one response under the write deadline. It reports false
// when the connection is no longer usable.
func (s *session) write(resp []byte) bool {
	s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	if _, err := s.conn.Write(resp); err != nil {
		if !errors.Is(err, net.ErrClosed) {
			s.log.Warn("write failed", "error", err)
		}
		return false
	}
	return true
}
