package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// TimingEvent captures a motion or persistence event for post-mortem analysis
type TimingEvent struct {
	EventType uint8  // Event type code
	Clock     uint32 // System clock at event
	Value1    int32  // Context-dependent value
	Value2    int32  // Context-dependent value
}

// Event type codes
const (
	EvtMoveStart     = 1 // move armed: v1=direction v2=steps
	EvtTimerArmFail  = 2 // timer attach failed: v1=period
	EvtHaltRequest   = 3 // halt requested: v1=position v2=steps left
	EvtMoveComplete  = 4 // completion observed: v1=position v2=steps left
	EvtMoveEnd       = 5 // timer detached: v1=position
	EvtPersistFlush  = 6 // domain written: v1=domain
	EvtPersistFail   = 7 // domain write failed: v1=domain
	EvtTempComp      = 8 // target adjusted: v1=old target v2=new target
	EvtConfigDefault = 9 // domain defaulted on load: v1=domain
)

const (
	TimingRingSize = 32 // Keep last 32 events for post-mortem
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active
	debugEnabled bool = false

	// Timing capture ring buffer (non-blocking, for post-mortem)
	timingRing     [TimingRingSize]TimingEvent
	timingRingHead uint8        // Next write position
	timingEnabled  bool  = true // Always capture timing events
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, USB, a host logger, etc.
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

// DebugPrintln writes a debug message using the platform-specific writer.
// Never call from a timer callback.
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// RecordTiming captures a timing event in the ring buffer.
// Main-loop only; the step callback does not record.
func RecordTiming(eventType uint8, value1, value2 int32) {
	if !timingEnabled {
		return
	}
	idx := timingRingHead
	timingRing[idx] = TimingEvent{
		EventType: eventType,
		Clock:     GetTime(),
		Value1:    value1,
		Value2:    value2,
	}
	timingRingHead = (idx + 1) % TimingRingSize
}

// TimingEvents returns the recorded events from oldest to newest
func TimingEvents() []TimingEvent {
	events := make([]TimingEvent, 0, TimingRingSize)
	start := timingRingHead
	for i := uint8(0); i < TimingRingSize; i++ {
		evt := timingRing[(start+i)%TimingRingSize]
		if evt.EventType == 0 {
			continue // Empty slot
		}
		events = append(events, evt)
	}
	return events
}

// EventName returns the printable name of a timing event type
func EventName(eventType uint8) string {
	switch eventType {
	case EvtMoveStart:
		return "MOVE_START"
	case EvtTimerArmFail:
		return "TIMER_ARM_FAIL!"
	case EvtHaltRequest:
		return "HALT"
	case EvtMoveComplete:
		return "MOVE_DONE"
	case EvtMoveEnd:
		return "MOVE_END"
	case EvtPersistFlush:
		return "PERSIST"
	case EvtPersistFail:
		return "PERSIST_FAIL!"
	case EvtTempComp:
		return "TEMPCOMP"
	case EvtConfigDefault:
		return "CFG_DEFAULT"
	default:
		return "UNKNOWN"
	}
}

// DumpTimingRing outputs the timing ring buffer through the debug writer
func DumpTimingRing() {
	if debugPrintln == nil {
		return
	}

	debugPrintln("[TIMING] === Timing Ring Dump ===")
	for _, evt := range TimingEvents() {
		debugPrintln("[TIMING] " + EventName(evt.EventType) +
			" clock=" + utoa(evt.Clock) +
			" v1=" + itoa(int(evt.Value1)) +
			" v2=" + itoa(int(evt.Value2)))
	}
	debugPrintln("[TIMING] === End Dump ===")
}

// ClearTimingRing clears the timing buffer
func ClearTimingRing() {
	for i := range timingRing {
		timingRing[i] = TimingEvent{}
	}
	timingRingHead = 0
}
