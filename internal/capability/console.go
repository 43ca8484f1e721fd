package capability

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"callcenter/internal/dispatch"
	"callcenter/internal/protocol"
	"callcenter/internal/session"
	"callcenter/util"
)

// Prompt is printed before each console line when Console.Prompt is set.
const Prompt = ">> "

var (
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	pushStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	helpStyle  = lipgloss.NewStyle().Faint(true)
)

// Console is the operator's side of a connection: it turns typed lines
// into requests and prints replies and pushed notifications as they
// arrive.
type Console struct {
	Prompt bool // print Prompt before reading each line
	Styled bool // colour errors and notifications
}

// Handle drives a stream connection from the session's stdin.
func (c *Console) Handle(ctx context.Context, sess *session.Session) error {
	return c.Run(ctx, sess, protocol.NewStreamCodec(sess.Conn))
}

// Run reads commands from sess.Stdin until EOF or "exit".  On EOF the
// write side is half-closed and Run waits for the server to finish
// replying.
func (c *Console) Run(ctx context.Context, sess *session.Session, codec protocol.Codec) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	out := util.NewSyncWriter(sess.Stdout)

	readErr := make(chan error, 1)
	go func() {
		readErr <- c.readReplies(codec, out)
		cancel()
	}()

	lineErr := make(chan error, 1)
	go func() {
		quit, err := c.readLines(ctx, sess.Stdin, codec, out)
		lineErr <- err
		switch {
		case quit || err != nil:
			cancel()
		case sess.Conn == nil || !util.CloseWrite(sess.Conn):
			// No half-close: nothing more will be asked, so stop.
			cancel()
		}
	}()

	<-ctx.Done()
	if sess.Conn != nil {
		sess.Conn.Close()
	}
	err := <-readErr

	select {
	case lerr := <-lineErr:
		if lerr != nil {
			return lerr
		}
	default:
	}
	if util.IsHarmless(err) {
		return nil
	}
	return err
}

func (c *Console) readLines(ctx context.Context, in io.Reader, codec protocol.Codec, out io.Writer) (bool, error) {
	scanner := bufio.NewScanner(in)
	for {
		if c.Prompt {
			fmt.Fprint(out, Prompt)
		}
		if !scanner.Scan() {
			return false, scanner.Err()
		}
		if ctx.Err() != nil {
			return true, nil
		}

		req, ok := protocol.ParseLine(scanner.Text())
		if !ok {
			continue
		}
		switch strings.ToLower(req.Command) {
		case "exit", "quit":
			return true, nil
		case "help", "?":
			fmt.Fprintln(out, c.style(helpStyle, Help()))
			continue
		}

		if err := codec.WriteRequest(req); err != nil {
			if util.IsHarmless(err) {
				return true, nil
			}
			return true, err
		}
	}
}

func (c *Console) readReplies(codec protocol.Codec, out io.Writer) error {
	for {
		rep, err := codec.ReadReply()
		if err != nil {
			return err
		}
		if line := c.render(rep); line != "" {
			fmt.Fprintln(out, line)
		}
	}
}

func (c *Console) render(rep protocol.Reply) string {
	switch {
	case rep.Error != "":
		return c.style(errorStyle, "error: "+rep.Error)
	case rep.IsPush():
		return c.style(pushStyle, rep.Response)
	default:
		return rep.Response
	}
}

func (c *Console) style(s lipgloss.Style, text string) string {
	if !c.Styled {
		return text
	}
	return s.Render(text)
}

// Help lists the console commands.
func Help() string {
	var b strings.Builder
	b.WriteString("commands:\n")
	usage := map[string]string{
		"call":   "call <id>      place a new call",
		"answer": "answer <op>    operator answers its ringing call",
		"reject": "reject <op>    operator rejects its ringing call",
		"hangup": "hangup <id>    end a waiting, ringing or answered call",
	}
	for _, name := range dispatch.Commands() {
		b.WriteString("  " + usage[name] + "\n")
	}
	b.WriteString("  help           show this help\n")
	b.WriteString("  exit           close the connection")
	return b.String()
}
