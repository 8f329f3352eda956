package core

import (
	"sync"
	"sync/atomic"
)

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// ChannelEvent captures a channel lifecycle event for post-mortem analysis
type ChannelEvent struct {
	EventType uint8   // Event type code
	Pin       GPIOPin // Pin of the channel
	Clock     uint32  // System clock at event
	Value     uint32  // Context-dependent value
}

// Event type codes
const (
	EvtAttach     = 1 // channel attached, Value = period
	EvtRate       = 2 // rate applied, Value = clamped rate
	EvtStop       = 3 // channel stopped
	EvtDetach     = 4 // channel detached
	EvtWriteError = 5 // pin write failed, Value = requested level
)

const (
	EventRingSize = 32 // Keep last 32 events for post-mortem
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active
	debugEnabled bool = false

	// Event capture ring buffer (for post-mortem), shared by all channels
	eventMu        sync.Mutex
	eventRing      [EventRingSize]ChannelEvent
	eventRingHead  uint8
	eventsDisabled atomic.Bool

	// Async debug output channel
	debugChan chan string
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, USB, a logger, etc.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// SetEventsEnabled turns event capture on or off
func SetEventsEnabled(enabled bool) {
	eventsDisabled.Store(!enabled)
}

// EventsEnabled reports whether event capture is on
func EventsEnabled() bool {
	return !eventsDisabled.Load()
}

// InitAsyncDebug starts the async debug output goroutine
// Call this from main() after SetDebugWriter
func InitAsyncDebug() {
	debugChan = make(chan string, 16) // Buffer 16 messages
	go debugOutputWorker(debugChan)
}

// debugOutputWorker runs in background, drains debug channel
func debugOutputWorker(ch <-chan string) {
	for msg := range ch {
		if debugPrintln != nil {
			debugPrintln(msg)
		}
	}
}

// DebugPrintln writes a debug message using the platform-specific writer
// Blocks if debug is enabled (use DebugAsync for non-blocking)
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// DebugAsync queues a debug message for async output (non-blocking)
// Returns immediately even if channel is full (drops message)
func DebugAsync(msg string) {
	if !debugEnabled || debugChan == nil {
		return
	}
	select {
	case debugChan <- msg:
	default:
		// Channel full, drop message (non-blocking)
	}
}

// RecordEvent captures a channel event in the ring buffer.
// Safe to call from channels owned by different goroutines.
func RecordEvent(eventType uint8, pin GPIOPin, value uint32) {
	if eventsDisabled.Load() {
		return
	}
	evt := ChannelEvent{
		EventType: eventType,
		Pin:       pin,
		Clock:     GetTime(),
		Value:     value,
	}

	eventMu.Lock()
	eventRing[eventRingHead] = evt
	eventRingHead = (eventRingHead + 1) % EventRingSize
	eventMu.Unlock()
}

// EventName returns the log name of an event type
func EventName(eventType uint8) string {
	switch eventType {
	case EvtAttach:
		return "ATTACH"
	case EvtRate:
		return "RATE"
	case EvtStop:
		return "STOP"
	case EvtDetach:
		return "DETACH"
	case EvtWriteError:
		return "WRITE_ERR!"
	default:
		return "UNKNOWN"
	}
}

// Events returns the recorded events, oldest first
func Events() []ChannelEvent {
	eventMu.Lock()
	defer eventMu.Unlock()

	out := make([]ChannelEvent, 0, EventRingSize)
	start := eventRingHead
	for i := uint8(0); i < EventRingSize; i++ {
		evt := eventRing[(start+i)%EventRingSize]
		if evt.EventType == 0 {
			continue // Empty slot
		}
		out = append(out, evt)
	}
	return out
}

// DumpEventRing outputs the event ring buffer (call on shutdown/error)
func DumpEventRing() {
	if debugPrintln == nil {
		return
	}

	debugPrintln("[PWM] === Event Ring Dump ===")
	for _, evt := range Events() {
		debugPrintln("[PWM] " + EventName(evt.EventType) +
			" pin=" + utoa(uint32(evt.Pin)) +
			" clock=" + utoa(evt.Clock) +
			" v=" + utoa(evt.Value))
	}
	debugPrintln("[PWM] === End Dump ===")
}

// ClearEventRing clears the event buffer
func ClearEventRing() {
	eventMu.Lock()
	defer eventMu.Unlock()
	for i := range eventRing {
		eventRing[i] = ChannelEvent{}
	}
	eventRingHead = 0
}
