package control

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"softpwm/core"
)

// Channel is a named soft PWM channel with the attach parameters used to
// (re)attach it
type Channel struct {
	Name string
	Pin  core.GPIOPin
	Opts []core.AttachOption
	PWM  *core.SoftPWM
}

// Bank is the set of channels the owning loop drives. It is not safe for
// concurrent use; Apply and Poll must run on the same goroutine.
type Bank struct {
	channels map[string]*Channel
}

// NewBank creates an empty bank
func NewBank() *Bank {
	return &Bank{channels: make(map[string]*Channel)}
}

// Add registers a channel under its name
func (b *Bank) Add(ch *Channel) error {
	if _, ok := b.channels[ch.Name]; ok {
		return fmt.Errorf("channel %q already exists", ch.Name)
	}
	b.channels[ch.Name] = ch
	return nil
}

// Get looks up a channel by name
func (b *Bank) Get(name string) (*Channel, bool) {
	ch, ok := b.channels[name]
	return ch, ok
}

// Names returns the channel names, sorted
func (b *Bank) Names() []string {
	names := make([]string, 0, len(b.channels))
	for n := range b.channels {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Poll polls every channel
func (b *Bank) Poll() {
	for _, ch := range b.channels {
		ch.PWM.Poll()
	}
}

// DetachAll stops and detaches every channel
func (b *Bank) DetachAll() {
	for _, ch := range b.channels {
		ch.PWM.Detach()
	}
}

func (b *Bank) targets(name string) ([]*Channel, error) {
	if name == "*" {
		out := make([]*Channel, 0, len(b.channels))
		for _, n := range b.Names() {
			out = append(out, b.channels[n])
		}
		return out, nil
	}
	ch, ok := b.channels[name]
	if !ok {
		return nil, fmt.Errorf("no channel %q", name)
	}
	return []*Channel{ch}, nil
}

// Apply executes a command and returns the text to report back
func (b *Bank) Apply(cmd Command) (string, error) {
	switch cmd.Op {
	case OpHelp:
		return Usage, nil
	case OpStatus:
		name := cmd.Channel
		if name == "" {
			name = "*"
		}
		chs, err := b.targets(name)
		if err != nil {
			return "", err
		}
		lines := make([]string, 0, len(chs))
		for _, ch := range chs {
			lines = append(lines, Status(ch))
		}
		return strings.Join(lines, "\n"), nil
	}

	chs, err := b.targets(cmd.Channel)
	if err != nil {
		return "", err
	}
	var errs []error
	for _, ch := range chs {
		switch cmd.Op {
		case OpRate:
			if !ch.PWM.IsAttached() {
				errs = append(errs, fmt.Errorf("channel %q is detached", ch.Name))
				continue
			}
			ch.PWM.SetRate(cmd.Rate)
		case OpStop:
			ch.PWM.Stop()
		case OpDetach:
			ch.PWM.Detach()
		case OpAttach:
			if err := ch.PWM.Attach(ch.Pin, ch.Opts...); err != nil {
				errs = append(errs, fmt.Errorf("channel %q: %w", ch.Name, err))
			}
		}
	}
	if err := errors.Join(errs...); err != nil {
		return "", err
	}
	return "ok", nil
}

// Status formats one channel's state
func Status(ch *Channel) string {
	p := ch.PWM
	state := "detached"
	switch {
	case p.IsAttached() && p.IsActive():
		state = "active"
	case p.IsAttached():
		state = "stopped"
	}
	level := "low"
	if p.Level() {
		level = "high"
	}
	lo, hi := p.Bounds()
	st := p.Stats()
	return fmt.Sprintf("%s pin=%d %s rate=%d range=%d..%d period=%dus pulse=%dus level=%s writes=%d errors=%d",
		ch.Name, ch.Pin, state, p.CurrentRate(), lo, hi, p.Period(), p.PulseWidth(), level, st.Writes, st.WriteErrors)
}

// Request is a parsed command plus the writer its reply goes to
type Request struct {
	Cmd   Command
	Reply io.Writer
}

// ReadCommands parses lines from r and sends them on out until r is
// exhausted or ctx is done. Parse errors are reported to reply directly.
func ReadCommands(ctx context.Context, r io.Reader, reply io.Writer, out chan<- Request) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "#") {
			continue
		}
		cmd, err := Parse(line)
		if errors.Is(err, ErrEmpty) {
			continue
		}
		if err != nil {
			fmt.Fprintf(reply, "error: %v\n", err)
			continue
		}
		select {
		case out <- Request{Cmd: cmd, Reply: reply}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return scanner.Err()
}

// Serve applies a request and writes the reply
func (b *Bank) Serve(req Request) {
	msg, err := b.Apply(req.Cmd)
	if err != nil {
		fmt.Fprintf(req.Reply, "error: %v\n", err)
		return
	}
	fmt.Fprintln(req.Reply, msg)
}
