// Package client speaks the broker's wire protocol from the consumer
// side: one TCP connection, one command and reply at a time.
package client

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"tubeq/internal/protocol"
	"tubeq/internal/store"
)

var (
	// ErrNoJob reports an empty queue on reserve.
	ErrNoJob = errors.New("no job available")

	// ErrNotFound reports a delete or release of an id the broker does
	// not hold in the required state.
	ErrNotFound = errors.New("job not found")
)

// ProtocolError reports a broker reply the client cannot interpret.
type ProtocolError struct {
	Line string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("unexpected broker reply %q", e.Line)
}

// ReservedJob is one unit of work handed out by reserve.
type ReservedJob struct {
	ID      uint64
	Payload []byte
}

// Client holds one connection to a broker. It is not safe for
// concurrent use; each worker owns its client exclusively.
type Client struct {
	conn    net.Conn
	r       *bufio.Reader
	timeout time.Duration
}

// Dial connects to the broker at addr. The timeout bounds the dial and
// every later command's full exchange.
func Dial(addr string, timeout time.Duration) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("dial broker %s: %w", addr, err)
	}
	return &Client{conn: conn, r: bufio.NewReader(conn), timeout: timeout}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// Put submits a payload and returns the assigned job id. The payload
// must fit the wire grammar: a single alphanumeric token.
func (c *Client) Put(payload []byte) (uint64, error) {
	if !protocol.ValidToken(string(payload)) {
		return 0, fmt.Errorf("payload %q is not a single alphanumeric token", payload)
	}
	line, err := c.roundTrip("put " + string(payload))
	if err != nil {
		return 0, err
	}
	rest, ok := strings.CutPrefix(line, "INSERTED ")
	if !ok {
		return 0, &ProtocolError{Line: line}
	}
	id, err := strconv.ParseUint(rest, 10, 64)
	if err != nil {
		return 0, &ProtocolError{Line: line}
	}
	return id, nil
}

// Reserve claims the next ready job, or ErrNoJob when the broker has
// nothing ready.
func (c *Client) Reserve() (*ReservedJob, error) {
	line, err := c.roundTrip("reserve")
	if err != nil {
		return nil, err
	}
	if line == "TIMED_OUT" {
		return nil, ErrNoJob
	}
	rest, ok := strings.CutPrefix(line, "RESERVED ")
	if !ok {
		return nil, &ProtocolError{Line: line}
	}
	fields := strings.Fields(rest)
	if len(fields) != 2 {
		return nil, &ProtocolError{Line: line}
	}
	id, err := strconv.ParseUint(fields[0], 10, 64)
	if err != nil {
		return nil, &ProtocolError{Line: line}
	}
	length, err := strconv.Atoi(fields[1])
	if err != nil || length < 0 {
		return nil, &ProtocolError{Line: line}
	}

	payload, err := c.readBody(length)
	if err != nil {
		return nil, err
	}
	return &ReservedJob{ID: id, Payload: payload}, nil
}

// Delete removes a job in any state. ErrNotFound means the broker no
// longer holds the id.
func (c *Client) Delete(id uint64) error {
	line, err := c.roundTrip("delete " + strconv.FormatUint(id, 10))
	if err != nil {
		return err
	}
	switch line {
	case "DELETED":
		return nil
	case "NOT FOUND":
		return ErrNotFound
	}
	return &ProtocolError{Line: line}
}

// Release puts a reserved job back on the ready queue. ErrNotFound
// means the id is unknown or not currently reserved.
func (c *Client) Release(id uint64) error {
	line, err := c.roundTrip("release " + strconv.FormatUint(id, 10))
	if err != nil {
		return err
	}
	switch line {
	case "RELEASED":
		return nil
	case "NOT FOUND":
		return ErrNotFound
	}
	return &ProtocolError{Line: line}
}

// Watch subscribes to a tube and returns the watch count.
func (c *Client) Watch(tube string) (int, error) {
	if !protocol.ValidToken(tube) {
		return 0, fmt.Errorf("tube name %q is not a valid token", tube)
	}
	line, err := c.roundTrip("watch " + tube)
	if err != nil {
		return 0, err
	}
	rest, ok := strings.CutPrefix(line, "WATCHING ")
	if !ok {
		return 0, &ProtocolError{Line: line}
	}
	count, err := strconv.Atoi(rest)
	if err != nil {
		return 0, &ProtocolError{Line: line}
	}
	return count, nil
}

// Use selects the tube later puts are submitted under and returns the
// broker's echo of it.
func (c *Client) Use(tube string) (string, error) {
	if !protocol.ValidToken(tube) {
		return "", fmt.Errorf("tube name %q is not a valid token", tube)
	}
	line, err := c.roundTrip("use " + tube)
	if err != nil {
		return "", err
	}
	rest, ok := strings.CutPrefix(line, "USING ")
	if !ok {
		return "", &ProtocolError{Line: line}
	}
	return rest, nil
}

// ListTubes returns the broker's tube names.
func (c *Client) ListTubes() ([]string, error) {
	body, err := c.roundTripOK("list-tubes")
	if err != nil {
		return nil, err
	}
	var tubes []string
	if err := yaml.Unmarshal(body, &tubes); err != nil {
		return nil, fmt.Errorf("decode tube list: %w", err)
	}
	return tubes, nil
}

// StatsTube returns the broker's counters for one tube.
func (c *Client) StatsTube(tube string) (store.TubeStats, error) {
	if !protocol.ValidToken(tube) {
		return store.TubeStats{}, fmt.Errorf("tube name %q is not a valid token", tube)
	}
	body, err := c.roundTripOK("stats-tube " + tube)
	if err != nil {
		return store.TubeStats{}, err
	}
	var stats store.TubeStats
	if err := yaml.Unmarshal(body, &stats); err != nil {
		return store.TubeStats{}, fmt.Errorf("decode tube stats: %w", err)
	}
	return stats, nil
}

// roundTrip sends one command line and reads the first reply line,
// both without their CRLF. One deadline covers the whole exchange.
func (c *Client) roundTrip(cmd string) (string, error) {
	c.conn.SetDeadline(time.Now().Add(c.timeout))
	if _, err := c.conn.Write([]byte(cmd + "\r\n")); err != nil {
		return "", fmt.Errorf("send %q: %w", cmd, err)
	}
	line, err := c.r.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read reply: %w", err)
	}
	return strings.TrimSuffix(line, "\r\n"), nil
}

// roundTripOK runs a command whose reply is an OK <len> frame and
// returns the frame's body.
func (c *Client) roundTripOK(cmd string) ([]byte, error) {
	line, err := c.roundTrip(cmd)
	if err != nil {
		return nil, err
	}
	rest, ok := strings.CutPrefix(line, "OK ")
	if !ok {
		return nil, &ProtocolError{Line: line}
	}
	length, err := strconv.Atoi(rest)
	if err != nil || length < 0 {
		return nil, &ProtocolError{Line: line}
	}
	return c.readBody(length)
}

// readBody consumes length body bytes plus the trailing CRLF.
func (c *Client) readBody(length int) ([]byte, error) {
	body := make([]byte, length+2)
	if _, err := io.ReadFull(c.r, body); err != nil {
		return nil, fmt.Errorf("read reply body: %w", err)
	}
	if body[length] != '\r' || body[length+1] != '\n' {
		return nil, &ProtocolError{Line: string(body[length:])}
	}
	return body[:length], nil
}
