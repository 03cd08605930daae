package looper

// TransportState identifies the looper's record/play mode.
type TransportState int

const (
	// StateIdle: nothing records, nothing plays.
	StateIdle TransportState = iota
	// StateRecordAndMonitor: input is processed, monitored live, and
	// overdubbed into the loop while the loop keeps playing.
	StateRecordAndMonitor
	// StatePlayOnly: the loop plays back without recording.
	StatePlayOnly
)

// String returns a short state name.
func (s TransportState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecordAndMonitor:
		return "record"
	case StatePlayOnly:
		return "play"
	default:
		return "unknown"
	}
}
