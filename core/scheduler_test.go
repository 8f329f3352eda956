package core

import "testing"

// countingPoller counts Poll calls
type countingPoller struct {
	n int
}

func (c *countingPoller) Poll() { c.n++ }

func TestSchedulerOrder(t *testing.T) {
	s := NewScheduler()
	var fired []uint32
	mk := func(wake uint32) *Timer {
		return &Timer{WakeTime: wake, Handler: func(t *Timer) uint8 {
			fired = append(fired, t.WakeTime)
			return SF_DONE
		}}
	}
	s.Schedule(mk(30))
	s.Schedule(mk(10))
	s.Schedule(mk(20))

	s.Dispatch(15)
	if len(fired) != 1 || fired[0] != 10 {
		t.Fatalf("fired = %v, want [10]", fired)
	}
	s.Dispatch(30)
	if len(fired) != 3 || fired[1] != 20 || fired[2] != 30 {
		t.Errorf("fired = %v, want [10 20 30]", fired)
	}
	if s.Pending() {
		t.Error("scheduler should be empty")
	}
}

func TestSchedulerWraparound(t *testing.T) {
	s := NewScheduler()
	var fired []string
	late := &Timer{WakeTime: 5, Handler: func(*Timer) uint8 { fired = append(fired, "late"); return SF_DONE }}
	early := &Timer{WakeTime: 0xFFFFFFF0, Handler: func(*Timer) uint8 { fired = append(fired, "early"); return SF_DONE }}
	s.Schedule(late)
	s.Schedule(early)

	s.Dispatch(0xFFFFFFF8)
	if len(fired) != 1 || fired[0] != "early" {
		t.Fatalf("fired = %v, want [early]", fired)
	}
	s.Dispatch(6) // counter wrapped
	if len(fired) != 2 || fired[1] != "late" {
		t.Errorf("fired = %v, want [early late]", fired)
	}
}

func TestSchedulerCancel(t *testing.T) {
	s := NewScheduler()
	called := false
	a := &Timer{WakeTime: 1, Handler: func(*Timer) uint8 { called = true; return SF_DONE }}
	b := &Timer{WakeTime: 2, Handler: func(*Timer) uint8 { return SF_DONE }}
	s.Schedule(a)
	s.Schedule(b)
	s.Cancel(a)
	s.Dispatch(10)
	if called {
		t.Error("cancelled timer fired")
	}
}

func TestPollTimer(t *testing.T) {
	s := NewScheduler()
	c1, c2 := &countingPoller{}, &countingPoller{}
	pt := NewPollTimer(10, c1, c2)
	pt.Start(s, 0)

	for now := uint32(0); now <= 100; now++ {
		s.Dispatch(now)
	}
	// fires at 0,10,...,100
	if c1.n != 11 || c2.n != 11 {
		t.Errorf("polls = %d/%d, want 11/11", c1.n, c2.n)
	}
}

func TestPollTimerSkipsMissedIntervals(t *testing.T) {
	s := NewScheduler()
	c := &countingPoller{}
	pt := NewPollTimer(10, c)
	pt.Start(s, 0)

	s.Dispatch(0)
	s.Dispatch(95) // late by many intervals
	if c.n != 2 {
		t.Errorf("polls = %d, want 2 (no burst catch-up)", c.n)
	}
	if pt.WakeTime != 105 {
		t.Errorf("next wake = %d, want 105", pt.WakeTime)
	}
}

func TestPollTimerDrivesChannel(t *testing.T) {
	drv := NewFakeGPIODriver()
	s := NewScheduler()
	p := NewSoftPWM(NewGenericDriver(drv), SystemClock)
	if err := p.Attach(2, WithPeriod(256)); err != nil {
		t.Fatal(err)
	}
	p.SetRate(64)
	pt := NewPollTimer(1, p)
	pt.Start(s, 0)

	high := 0
	for now := uint32(0); now < 256; now++ {
		SetTime(now)
		s.Dispatch(now)
		if p.Level() {
			high++
		}
	}
	if high != 64 {
		t.Errorf("high ticks = %d, want 64", high)
	}
	SetTime(0)
}

func TestPollTimerScheduledWithoutStart(t *testing.T) {
	s := NewScheduler()
	c := &countingPoller{}
	pt := NewPollTimer(10, c)
	s.Schedule(&pt.Timer)

	s.Dispatch(0)
	if c.n != 1 {
		t.Fatalf("polls = %d, want 1", c.n)
	}
	if pt.WakeTime != 10 {
		t.Errorf("WakeTime = %d, want 10", pt.WakeTime)
	}
	// no scheduler clock, so missed intervals run back to back
	s.Dispatch(35)
	if c.n != 4 || pt.WakeTime != 40 {
		t.Errorf("polls = %d WakeTime = %d, want 4 and 40", c.n, pt.WakeTime)
	}
}
