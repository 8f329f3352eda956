package core

// Core time runs in microseconds on a free-running 32-bit counter that wraps.
const (
	TimerFreq = 1000000 // 1MHz
)

var (
	systemTicks uint32
	bootTime    uint32
)

// Clock is the monotonic time source a channel samples on every poll.
type Clock interface {
	// Micros returns elapsed microseconds, wrapping at 2^32
	Micros() uint32
}

// ClockFunc adapts a plain function to the Clock interface
type ClockFunc func() uint32

// Micros calls f
func (f ClockFunc) Micros() uint32 { return f() }

// SystemClock reads the core tick counter that target code feeds via SetTime
var SystemClock Clock = ClockFunc(GetTime)

// GetTime returns the current system time in timer ticks
func GetTime() uint32 {
	return getSystemTicks()
}

// SetTime sets the current system time (for testing/hardware integration)
func SetTime(ticks uint32) {
	setSystemTicks(ticks)
}

// GetUptime returns ticks elapsed since TimerInit, modulo 2^32
func GetUptime() uint32 {
	return GetTime() - bootTime
}

// TimerFromUS converts microseconds to timer ticks
func TimerFromUS(us uint32) uint32 {
	return uint32(uint64(us) * TimerFreq / 1000000)
}

// TimerToUS converts timer ticks to microseconds
func TimerToUS(ticks uint32) uint32 {
	return uint32(uint64(ticks) * 1000000 / TimerFreq)
}

// TimerInit records the boot time
func TimerInit() {
	bootTime = GetTime()
}

// timerIsBefore compares two wrapping tick values
func timerIsBefore(a, b uint32) bool {
	return int32(a-b) < 0
}
