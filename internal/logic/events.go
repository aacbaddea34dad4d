package logic

import "time"

// EventType names a process milestone worth publishing.
type EventType string

const (
	EventProcessStarted  EventType = "PROCESS_STARTED"
	EventStageStarted    EventType = "STAGE_STARTED"
	EventTargetReached   EventType = "TARGET_REACHED"
	EventStageFinished   EventType = "STAGE_FINISHED"
	EventProcessComplete EventType = "PROCESS_COMPLETE"
	EventProcessAborted  EventType = "PROCESS_ABORTED"
	EventReset           EventType = "RESET"
)

// Event is a process milestone.
type Event struct {
	Timestamp    time.Time
	Type         EventType
	Stage        string
	StageIndex   int
	Temperature  float64
	StageElapsed time.Duration
	TotalElapsed time.Duration
}
