package planner

// ProgressEvent describes one slot about to be materialized. Events are
// emitted strictly in materialization order, immediately before each
// synthesis call, so an event may fire for a step that subsequently fails
// and falls back.
type ProgressEvent struct {
	DayLabel      string
	SlotLabel     TimeSlot
	RecipeName    string
	RunningIndex  int // 1-based
	Total         int
	CompletedDays int
}

// ProgressSink receives materialization progress. Implementations must not
// block for long; the pipeline is sequential.
type ProgressSink interface {
	Emit(event ProgressEvent)
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) Emit(ProgressEvent) {}
