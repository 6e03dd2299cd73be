package protocol

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
)

var crlf = []byte("\r\n")

// ErrIncomplete reports that the window does not yet hold a full
// CRLF-terminated line. The caller should read more bytes and retry.
var ErrIncomplete = errors.New("incomplete command")

// InvalidError reports bytes that cannot form a valid command. Verb is
// the keyword when it was recognized and only the rest of the line was
// malformed; it is empty when the keyword itself is unknown, in which
// case the session owes the client no error reply.
type InvalidError struct {
	Verb   string
	Reason string
}

func (e *InvalidError) Error() string {
	if e.Verb == "" {
		return fmt.Sprintf("invalid command: %s", e.Reason)
	}
	return fmt.Sprintf("invalid %s command: %s", e.Verb, e.Reason)
}

// Recognized reports whether the keyword was valid even though the
// command as a whole was not.
func (e *InvalidError) Recognized() bool { return e.Verb != "" }

// Decode classifies the readable window. It returns a decoded command
// plus the number of bytes consumed through the terminating CRLF,
// ErrIncomplete when more bytes are needed before anything can be
// classified, or an *InvalidError when the line present is not a valid
// command. Decode never blocks and never mutates shared state; put
// payloads are copied out so the caller may overwrite the window.
func Decode(window []byte) (Command, int, error) {
	end := bytes.Index(window, crlf)
	if end < 0 {
		return Command{}, 0, ErrIncomplete
	}
	line := window[:end]
	n := end + len(crlf)

	keyword := line
	var arg []byte
	hasArg := false
	if sp := bytes.IndexByte(line, ' '); sp >= 0 {
		keyword = line[:sp]
		arg = line[sp+1:]
		hasArg = true
	}

	op := Op(keyword)
	switch op {
	case OpPut:
		if !hasArg || !validToken(arg) {
			return Command{}, 0, &InvalidError{Verb: string(op), Reason: "payload must be one alphanumeric token"}
		}
		payload := make([]byte, len(arg))
		copy(payload, arg)
		return Command{Op: op, Payload: payload}, n, nil

	case OpDelete, OpRelease:
		if !hasArg || !validToken(arg) {
			return Command{}, 0, &InvalidError{Verb: string(op), Reason: "missing or malformed job id"}
		}
		id, err := strconv.ParseUint(string(arg), 10, 64)
		if err != nil {
			return Command{}, 0, &InvalidError{Verb: string(op), Reason: "job id does not parse as an unsigned integer"}
		}
		return Command{Op: op, JobID: id}, n, nil

	case OpWatch, OpUse, OpStatsTube:
		if !hasArg || !validToken(arg) {
			return Command{}, 0, &InvalidError{Verb: string(op), Reason: "missing or malformed tube name"}
		}
		return Command{Op: op, Tube: string(arg)}, n, nil

	case OpReserve, OpListTubes, OpPeekReady, OpPeekDelayed, OpPeekBuried:
		if hasArg {
			return Command{}, 0, &InvalidError{Verb: string(op), Reason: "takes no argument"}
		}
		return Command{Op: op}, n, nil
	}

	return Command{}, 0, &InvalidError{Reason: fmt.Sprintf("unknown keyword %q", keyword)}
}

// ValidToken reports whether s fits the argument grammar: a non-empty
// alphanumeric run with no spaces or line breaks. Clients check
// payloads against it before sending.
func ValidToken(s string) bool {
	if len(s) == 0 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isAlnum(s[i]) {
			return false
		}
	}
	return true
}

func validToken(tok []byte) bool {
	if len(tok) == 0 {
		return false
	}
	for _, c := range tok {
		if !isAlnum(c) {
			return false
		}
	}
	return true
}

func isAlnum(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
