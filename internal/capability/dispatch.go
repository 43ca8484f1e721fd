package capability

import (
	"context"
	"errors"

	"callcenter/internal/dispatch"
	"callcenter/internal/metrics"
	"callcenter/internal/protocol"
	"callcenter/internal/session"
	"callcenter/util"
)

// Handler runs one wire command.  *dispatch.Loop implements it.
type Handler interface {
	Handle(ctx context.Context, command, args string) (string, error)
}

// Dispatch serves one client: every request is handed to Handler and
// answered in order, and timeout notifications from Hub are pushed to
// the client as they happen.
type Dispatch struct {
	Handler Handler
	Hub     *session.Hub       // optional; no pushes without it
	Metrics *metrics.Collector // optional
}

// Handle serves a stream connection.
func (d *Dispatch) Handle(ctx context.Context, sess *session.Session) error {
	return d.Serve(ctx, sess, protocol.NewStreamCodec(sess.Conn))
}

// Serve runs the request loop over codec until the client disconnects
// or ctx is cancelled.  A refused command is reported to the client
// and never ends the session.
func (d *Dispatch) Serve(ctx context.Context, sess *session.Session, codec protocol.Codec) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if sess.Conn != nil {
		stop := context.AfterFunc(ctx, func() { sess.Conn.Close() })
		defer stop()
	}

	d.Metrics.ConnectionOpened()
	defer d.Metrics.ConnectionClosed()
	sess.Logger.Info("client connected from %s", sess.RemoteAddr())

	if d.Hub != nil {
		pushes := d.Hub.Subscribe(sess.ID, session.DefaultBuffer)
		done := make(chan struct{})
		go func() {
			defer close(done)
			d.push(ctx, sess, codec, pushes)
		}()
		defer func() {
			if missed := d.Hub.Unsubscribe(sess.ID); missed > 0 {
				sess.Logger.Warn("%d notifications dropped", missed)
			}
			<-done
		}()
	}

	for {
		req, err := codec.ReadRequest()
		if err != nil {
			if util.IsHarmless(err) || ctx.Err() != nil {
				sess.Logger.Info("client disconnected")
				return nil
			}
			return err
		}
		sess.Logger.Debug("request %s %q", req.Command, req.Args)

		msg, err := d.Handler.Handle(ctx, req.Command, req.Args)
		if err != nil && (ctx.Err() != nil || errors.Is(err, dispatch.ErrStopped)) {
			return nil
		}

		rep := protocol.Reply{Response: msg}
		if err != nil {
			rep.Error = err.Error()
		}
		if err := codec.WriteReply(rep); err != nil {
			if util.IsHarmless(err) {
				return nil
			}
			return err
		}
	}
}

func (d *Dispatch) push(ctx context.Context, sess *session.Session, codec protocol.Codec, pushes <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-pushes:
			if !ok {
				return
			}
			rep := protocol.Reply{Response: msg, Event: protocol.EventTimeout}
			if err := codec.WriteReply(rep); err != nil {
				sess.Logger.Debug("push failed: %v", err)
				return
			}
		}
	}
}
