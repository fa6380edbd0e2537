package driver

import "time"

// Stage describes a high-level check phase.
type Stage string

const (
	// StageAnnotations loads the global external annotations.
	StageAnnotations Stage = "annotations"
	// StageAnalyze runs the nullability rules over one assembly.
	StageAnalyze Stage = "analyze"
)

// Status captures progress state within a stage.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

// Event reports progress for an assembly (or for the whole check when
// Assembly is empty).
type Event struct {
	Assembly string
	Stage    Stage
	Status   Status
	Err      error
	Elapsed  time.Duration
	// Reported counts diagnostics emitted for the assembly so far.
	Reported int
}

// ProgressSink consumes progress events.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

func emit(sink ProgressSink, evt Event) {
	if sink != nil {
		sink.OnEvent(evt)
	}
}

// PhaseStatus marks a phase boundary.
type PhaseStatus int

const (
	PhaseStart PhaseStatus = iota
	PhaseEnd
)

// PhaseEvent is delivered to a PhaseObserver at both ends of the collect,
// external_annotations and analyze phases. Elapsed is set on PhaseEnd.
type PhaseEvent struct {
	Name    string
	Status  PhaseStatus
	Elapsed time.Duration
}

type PhaseObserver func(PhaseEvent)
