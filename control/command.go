// Line-oriented control console for named soft PWM channels.
package control

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/google/shlex"
)

// Op is a console operation
type Op int

const (
	OpRate Op = iota
	OpStop
	OpDetach
	OpAttach
	OpStatus
	OpHelp
)

var opNames = map[string]Op{
	"rate":   OpRate,
	"set":    OpRate,
	"stop":   OpStop,
	"detach": OpDetach,
	"attach": OpAttach,
	"status": OpStatus,
	"help":   OpHelp,
	"?":      OpHelp,
}

// ErrEmpty is returned for blank and comment lines
var ErrEmpty = errors.New("empty command")

// Command is one parsed console line
type Command struct {
	Op      Op
	Channel string // empty for status/help, "*" for all channels
	Rate    uint8
}

// Parse parses a console line, e.g. `rate "front fan" 128`.
// Lines starting with '#' are comments.
func Parse(line string) (Command, error) {
	args, err := shlex.Split(line)
	if err != nil {
		return Command{}, fmt.Errorf("parse %q: %w", line, err)
	}
	if len(args) == 0 {
		return Command{}, ErrEmpty
	}

	op, ok := opNames[args[0]]
	if !ok {
		return Command{}, fmt.Errorf("unknown command %q (try help)", args[0])
	}
	cmd := Command{Op: op}

	switch op {
	case OpStatus, OpHelp:
		if len(args) > 2 {
			return Command{}, fmt.Errorf("%s: too many arguments", args[0])
		}
		if len(args) == 2 {
			cmd.Channel = args[1]
		}
	case OpStop, OpDetach, OpAttach:
		if len(args) != 2 {
			return Command{}, fmt.Errorf("usage: %s <channel|*>", args[0])
		}
		cmd.Channel = args[1]
	case OpRate:
		if len(args) != 3 {
			return Command{}, fmt.Errorf("usage: %s <channel|*> <0-255>", args[0])
		}
		n, err := strconv.ParseUint(args[2], 0, 8)
		if err != nil {
			return Command{}, fmt.Errorf("rate %q: must be 0-255", args[2])
		}
		cmd.Channel = args[1]
		cmd.Rate = uint8(n)
	}
	return cmd, nil
}

// Usage is the console help text
const Usage = `commands:
  rate <channel|*> <0-255>   set duty rate (alias: set)
  stop <channel|*>           drive low and stop PWM
  detach <channel|*>         stop and release the pin
  attach <channel|*>         re-attach with configured period and range
  status [channel]           show channel state
  help                       this text`
