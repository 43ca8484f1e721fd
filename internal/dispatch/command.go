package dispatch

import (
	"fmt"
	"strconv"
	"strings"

	ccerr "callcenter/internal/errors"
)

// Command is the closed set of requests a transport may deliver.
type Command int

const (
	CmdCall Command = iota + 1
	CmdAnswer
	CmdReject
	CmdHangup
)

var commandNames = map[Command]string{
	CmdCall:   "call",
	CmdAnswer: "answer",
	CmdReject: "reject",
	CmdHangup: "hangup",
}

func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return fmt.Sprintf("command(%d)", int(c))
}

// Commands returns the command names in protocol order.
func Commands() []string {
	return []string{"call", "answer", "reject", "hangup"}
}

// ParseCommand maps a wire name (case-insensitive) to a Command.
func ParseCommand(name string) (Command, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for cmd, cmdName := range commandNames {
		if cmdName == n {
			return cmd, nil
		}
	}
	return 0, fmt.Errorf("%q: %w", name, ccerr.ErrInvalidCommand)
}

// ParseCallID parses a caller-supplied call identifier.
func ParseCallID(s string) (CallID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("missing call id: %w", ccerr.ErrInvalidCall)
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%q: %w", s, ccerr.ErrInvalidCall)
	}
	return CallID(n), nil
}
