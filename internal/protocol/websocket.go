package protocol

import (
	"errors"
	"io"
	"sync"

	"github.com/gorilla/websocket"
)

// WSCodec carries one envelope per WebSocket text message.
type WSCodec struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// NewWSCodec wraps an established WebSocket connection.
func NewWSCodec(conn *websocket.Conn) *WSCodec {
	return &WSCodec{conn: conn}
}

// ReadRequest reads the next request.  A normal close from the peer
// is reported as io.EOF.
func (c *WSCodec) ReadRequest() (Request, error) {
	var req Request
	if err := c.conn.ReadJSON(&req); err != nil {
		return Request{}, wsErr(err)
	}
	return req, nil
}

// ReadReply reads the next reply.
func (c *WSCodec) ReadReply() (Reply, error) {
	var rep Reply
	if err := c.conn.ReadJSON(&rep); err != nil {
		return Reply{}, wsErr(err)
	}
	return rep, nil
}

// WriteReply sends rep.
func (c *WSCodec) WriteReply(rep Reply) error { return c.write(rep) }

// WriteRequest sends req.
func (c *WSCodec) WriteRequest(req Request) error { return c.write(req) }

// Close sends a close frame and closes the connection.
func (c *WSCodec) Close() error {
	c.mu.Lock()
	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.mu.Unlock()
	return c.conn.Close()
}

func (c *WSCodec) write(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

func wsErr(err error) error {
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
		return io.EOF
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return io.EOF
	}
	return err
}
