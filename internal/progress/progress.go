package progress

import "time"

// Stage describes a step of script resolution.
type Stage string

const (
	StageBind     Stage = "bind"
	StageFreeze   Stage = "freeze"
	StageInfer    Stage = "infer"
	StageCollect  Stage = "collect"
	StageFinalize Stage = "finalize"
)

// Status captures progress state within a stage.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

// Event reports progress for a script (or for the whole batch when Script is
// empty).
type Event struct {
	Script  string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// Sink consumes progress events. Implementations must be safe for
// concurrent use.
type Sink interface {
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

// Emit sends evt to sink if there is one.
func Emit(sink Sink, evt Event) {
	if sink != nil {
		sink.OnEvent(evt)
	}
}
