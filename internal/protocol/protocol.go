// Package protocol defines the JSON envelope exchanged between the
// call-center server and its clients, and the codecs that frame it over
// a byte stream or a WebSocket.
package protocol

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
)

// EventTimeout marks a reply pushed by a ring timeout rather than sent
// in answer to a request.
const EventTimeout = "timeout"

// Request is one client command.
type Request struct {
	Command string `json:"command"`
	Args    string `json:"args"`
}

// Reply is the server's answer to a Request, or an unsolicited push
// when Event is set.
type Reply struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
	Event    string `json:"event,omitempty"`
}

// IsPush reports whether the reply was not requested by the client.
func (r Reply) IsPush() bool { return r.Event != "" }

// ParseLine turns a console line such as "call 1" into a Request.  The
// first word is the command; the rest, trimmed, is the argument.
func ParseLine(line string) (Request, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Request{}, false
	}
	return Request{
		Command: fields[0],
		Args:    strings.Join(fields[1:], " "),
	}, true
}

// Codec reads and writes envelopes on one connection.  Writes are safe
// for concurrent use; reads must come from a single goroutine.
type Codec interface {
	ReadRequest() (Request, error)
	WriteReply(Reply) error
	ReadReply() (Reply, error)
	WriteRequest(Request) error
}

// StreamCodec frames envelopes as consecutive JSON values on a byte
// stream.  Each write is newline terminated.
type StreamCodec struct {
	dec *json.Decoder

	mu  sync.Mutex
	enc *json.Encoder
}

// NewStreamCodec wraps rw.
func NewStreamCodec(rw io.ReadWriter) *StreamCodec {
	return &StreamCodec{
		dec: json.NewDecoder(rw),
		enc: json.NewEncoder(rw),
	}
}

// ReadRequest decodes the next request.  It returns io.EOF when the
// peer closes cleanly between values.
func (c *StreamCodec) ReadRequest() (Request, error) {
	var req Request
	if err := c.dec.Decode(&req); err != nil {
		return Request{}, decodeErr(err)
	}
	return req, nil
}

// ReadReply decodes the next reply.
func (c *StreamCodec) ReadReply() (Reply, error) {
	var rep Reply
	if err := c.dec.Decode(&rep); err != nil {
		return Reply{}, decodeErr(err)
	}
	return rep, nil
}

// WriteReply encodes rep.
func (c *StreamCodec) WriteReply(rep Reply) error { return c.write(rep) }

// WriteRequest encodes req.
func (c *StreamCodec) WriteRequest(req Request) error { return c.write(req) }

func (c *StreamCodec) write(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enc.Encode(v)
}

// decodeErr keeps io.EOF recognizable and labels everything else as a
// framing problem.
func decodeErr(err error) error {
	if err == io.EOF {
		return err
	}
	return fmt.Errorf("decode: %w", err)
}
