package protocol

import (
	"strconv"

	"gopkg.in/yaml.v3"
)

// Fixed response lines. NOT FOUND (with a space) answers delete and
// release misses; NOT_FOUND (with an underscore) answers the reserved
// peek verbs. Both spellings are part of the wire contract.
const (
	RespDeleted      = "DELETED\r\n"
	RespReleased     = "RELEASED\r\n"
	RespNotFound     = "NOT FOUND\r\n"
	RespPeekNotFound = "NOT_FOUND\r\n"
	RespTimedOut     = "TIMED_OUT\r\n"
	RespBadFormat    = "BAD_FORMAT\r\n"
	RespWatching     = "WATCHING 1\r\n"
)

// Inserted builds the reply to a successful put.
func Inserted(id uint64) []byte {
	buf := make([]byte, 0, 32)
	buf = append(buf, "INSERTED "...)
	buf = strconv.AppendUint(buf, id, 10)
	return append(buf, crlf...)
}

// Reserved builds the two-line reply handing a job to a consumer. The
// advertised length is the payload's byte length, decimal, no leading
// zeros.
func Reserved(id uint64, payload []byte) []byte {
	buf := make([]byte, 0, len(payload)+32)
	buf = append(buf, "RESERVED "...)
	buf = strconv.AppendUint(buf, id, 10)
	buf = append(buf, ' ')
	buf = strconv.AppendInt(buf, int64(len(payload)), 10)
	buf = append(buf, crlf...)
	buf = append(buf, payload...)
	return append(buf, crlf...)
}

// Using builds the reply to use.
func Using(tube string) []byte {
	buf := make([]byte, 0, len(tube)+16)
	buf = append(buf, "USING "...)
	buf = append(buf, tube...)
	return append(buf, crlf...)
}

// OK frames an opaque body as OK <len>CRLF<body>CRLF, where <len> is
// the exact byte length of the body.
func OK(body []byte) []byte {
	buf := make([]byte, 0, len(body)+16)
	buf = append(buf, "OK "...)
	buf = strconv.AppendInt(buf, int64(len(body)), 10)
	buf = append(buf, crlf...)
	buf = append(buf, body...)
	return append(buf, crlf...)
}

// OKYAML marshals v and frames it as an OK body. The list-tubes and
// stats-tube replies are built this way by the broker and unmarshaled
// the same way by the client.
func OKYAML(v any) ([]byte, error) {
	body, err := yaml.Marshal(v)
	if err != nil {
		return nil, err
	}
	return OK(body), nil
}
