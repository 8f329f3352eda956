package control

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"softpwm/core"
)

func TestParse(t *testing.T) {
	cases := []struct {
		line string
		want Command
	}{
		{"rate fan 128", Command{Op: OpRate, Channel: "fan", Rate: 128}},
		{"set * 0x40", Command{Op: OpRate, Channel: "*", Rate: 64}},
		{`rate "front fan" 255`, Command{Op: OpRate, Channel: "front fan", Rate: 255}},
		{"stop led", Command{Op: OpStop, Channel: "led"}},
		{"detach *", Command{Op: OpDetach, Channel: "*"}},
		{"attach led", Command{Op: OpAttach, Channel: "led"}},
		{"status", Command{Op: OpStatus}},
		{"status led", Command{Op: OpStatus, Channel: "led"}},
		{"help", Command{Op: OpHelp}},
	}
	for _, c := range cases {
		got, err := Parse(c.line)
		if err != nil {
			t.Errorf("Parse(%q) error: %v", c.line, err)
			continue
		}
		if got != c.want {
			t.Errorf("Parse(%q) = %+v, want %+v", c.line, got, c.want)
		}
	}
}

func TestParseErrors(t *testing.T) {
	for _, line := range []string{
		"jump fan",
		"rate fan",
		"rate fan 256",
		"rate fan -1",
		"stop",
		"status a b",
		`rate "unterminated 3`,
	} {
		if _, err := Parse(line); err == nil {
			t.Errorf("Parse(%q) should fail", line)
		}
	}
	if _, err := Parse("   "); !errors.Is(err, ErrEmpty) {
		t.Errorf("blank line: got %v, want ErrEmpty", err)
	}
}

func newTestBank(t *testing.T) (*Bank, *core.FakeGPIODriver) {
	t.Helper()
	drv := core.NewFakeGPIODriver()
	out := core.NewGenericDriver(drv)
	clock := core.ClockFunc(func() uint32 { return 0 })
	b := NewBank()
	for i, name := range []string{"fan", "led"} {
		ch := &Channel{
			Name: name,
			Pin:  core.GPIOPin(i + 1),
			Opts: []core.AttachOption{core.WithPeriod(256)},
			PWM:  core.NewSoftPWM(out, clock),
		}
		if err := ch.PWM.Attach(ch.Pin, ch.Opts...); err != nil {
			t.Fatal(err)
		}
		if err := b.Add(ch); err != nil {
			t.Fatal(err)
		}
	}
	return b, drv
}

func TestBankApply(t *testing.T) {
	b, drv := newTestBank(t)

	if _, err := b.Apply(Command{Op: OpRate, Channel: "fan", Rate: 10}); err != nil {
		t.Fatal(err)
	}
	fan, _ := b.Get("fan")
	led, _ := b.Get("led")
	if fan.PWM.CurrentRate() != 10 || !fan.PWM.IsActive() {
		t.Error("rate not applied to fan")
	}
	if led.PWM.IsActive() {
		t.Error("rate leaked to led")
	}

	b.Poll()
	if v, _ := drv.GetPin(1); v != core.HIGH {
		t.Error("fan should be HIGH at t=0")
	}

	if _, err := b.Apply(Command{Op: OpStop, Channel: "*"}); err != nil {
		t.Fatal(err)
	}
	if fan.PWM.IsActive() || fan.PWM.Level() {
		t.Error("stop * did not stop fan")
	}

	if _, err := b.Apply(Command{Op: OpDetach, Channel: "led"}); err != nil {
		t.Fatal(err)
	}
	if led.PWM.IsAttached() {
		t.Error("led still attached")
	}
	if _, err := b.Apply(Command{Op: OpRate, Channel: "led", Rate: 1}); err == nil {
		t.Error("rate on detached channel should report an error")
	}
	if _, err := b.Apply(Command{Op: OpAttach, Channel: "led"}); err != nil {
		t.Fatal(err)
	}
	if !led.PWM.IsAttached() || led.PWM.Period() != 256 {
		t.Error("led not re-attached with its options")
	}

	if _, err := b.Apply(Command{Op: OpStop, Channel: "nope"}); err == nil {
		t.Error("unknown channel should fail")
	}
}

func TestBankDuplicate(t *testing.T) {
	b, _ := newTestBank(t)
	if err := b.Add(&Channel{Name: "fan"}); err == nil {
		t.Error("duplicate Add should fail")
	}
}

func TestStatus(t *testing.T) {
	b, _ := newTestBank(t)
	b.Apply(Command{Op: OpRate, Channel: "fan", Rate: 64})

	out, err := b.Apply(Command{Op: OpStatus})
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("status lines = %d", len(lines))
	}
	if !strings.HasPrefix(lines[0], "fan pin=1 active rate=64") || !strings.Contains(lines[0], "pulse=64us") {
		t.Errorf("unexpected fan status %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "led pin=2 stopped") {
		t.Errorf("unexpected led status %q", lines[1])
	}
}

func TestReadCommandsAndServe(t *testing.T) {
	b, _ := newTestBank(t)
	in := strings.NewReader("# comment\n\nrate fan 200\nbogus\nstatus fan\n")
	var reply bytes.Buffer
	reqs := make(chan Request, 8)

	if err := ReadCommands(context.Background(), in, &reply, reqs); err != nil {
		t.Fatalf("ReadCommands: %v", err)
	}
	close(reqs)
	for req := range reqs {
		b.Serve(req)
	}

	out := reply.String()
	if !strings.Contains(out, `error: unknown command "bogus"`) {
		t.Errorf("missing parse error in %q", out)
	}
	if !strings.Contains(out, "ok\n") || !strings.Contains(out, "fan pin=1 active rate=200") {
		t.Errorf("unexpected reply %q", out)
	}
}

func TestReadCommandsCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	reqs := make(chan Request) // unbuffered, nobody reading
	err := ReadCommands(ctx, strings.NewReader("status\n"), &bytes.Buffer{}, reqs)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}
