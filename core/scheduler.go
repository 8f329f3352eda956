package core

// Timer represents a scheduled event
type Timer struct {
	WakeTime uint32
	Handler  func(*Timer) uint8
	Next     *Timer
}

const (
	SF_DONE       = 0
	SF_RESCHEDULE = 1
)

// Scheduler keeps timers sorted by wake time and runs the due ones on
// Dispatch. It is the scheduling capability the application owns: firmware
// dispatches it from the main loop or a timer interrupt, tests dispatch it
// with synthetic time.
type Scheduler struct {
	list *Timer
	now  uint32
}

// NewScheduler creates an empty scheduler
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Now returns the time passed to the most recent Dispatch
func (s *Scheduler) Now() uint32 {
	return s.now
}

// Schedule adds a timer to the schedule
func (s *Scheduler) Schedule(t *Timer) {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	s.insert(t)
}

// Cancel removes a timer if it is scheduled
func (s *Scheduler) Cancel(t *Timer) {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	if s.list == t {
		s.list = t.Next
		t.Next = nil
		return
	}
	for cur := s.list; cur != nil; cur = cur.Next {
		if cur.Next == t {
			cur.Next = t.Next
			t.Next = nil
			return
		}
	}
}

// Pending reports whether any timer is scheduled
func (s *Scheduler) Pending() bool {
	return s.list != nil
}

// insert inserts a timer in sorted order by WakeTime
// Implementation similar to Klipper's sched_add_timer
func (s *Scheduler) insert(t *Timer) {
	if s.list == nil || timerIsBefore(t.WakeTime, s.list.WakeTime) {
		t.Next = s.list
		s.list = t
		return
	}

	current := s.list
	for current.Next != nil && !timerIsBefore(t.WakeTime, current.Next.WakeTime) {
		current = current.Next
	}

	t.Next = current.Next
	current.Next = t
}

// Dispatch runs every timer whose WakeTime is not after now
func (s *Scheduler) Dispatch(now uint32) {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	s.now = now
	for s.list != nil && !timerIsBefore(now, s.list.WakeTime) {
		timer := s.list
		s.list = timer.Next
		timer.Next = nil // Clear Next pointer to avoid circular references

		if timer.Handler(timer) == SF_RESCHEDULE {
			s.insert(timer)
		}
	}
}

// Poller is anything driven by repeated polling, e.g. *SoftPWM
type Poller interface {
	Poll()
}

// PollTimer polls a fixed set of channels every Interval ticks
type PollTimer struct {
	Timer
	Interval uint32
	pollers  []Poller
	sched    *Scheduler
}

// NewPollTimer builds a self-rescheduling timer that polls each poller in order.
// A zero interval is treated as 1 tick.
func NewPollTimer(interval uint32, pollers ...Poller) *PollTimer {
	if interval == 0 {
		interval = 1
	}
	pt := &PollTimer{Interval: interval, pollers: pollers}
	pt.Handler = pt.fire
	return pt
}

// Start schedules the first poll at now. Scheduling the embedded Timer
// directly also works but never skips missed intervals.
func (pt *PollTimer) Start(s *Scheduler, now uint32) {
	pt.sched = s
	pt.WakeTime = now
	s.Schedule(&pt.Timer)
}

func (pt *PollTimer) fire(t *Timer) uint8 {
	for _, p := range pt.pollers {
		p.Poll()
	}
	next := t.WakeTime + pt.Interval
	// Skip missed intervals instead of firing in a burst. Without Start
	// there is no scheduler clock to catch up to.
	if pt.sched != nil {
		if now := pt.sched.Now(); timerIsBefore(next, now) {
			next = now + pt.Interval
		}
	}
	t.WakeTime = next
	return SF_RESCHEDULE
}
