package models

type SchedulerState string

const (
	SchedulerStateCreated  SchedulerState = "created"
	SchedulerStateRunning  SchedulerState = "running"
	SchedulerStateStopping SchedulerState = "stopping"
	SchedulerStateStopped  SchedulerState = "stopped"
)

// SchedulerStatus is the externally visible state of the task scheduler.
type SchedulerStatus struct {
	Name        string
	Mode        string
	State       SchedulerState
	Workers     int
	LiveWorkers int
	Queued      int
	Active      int64
	Executed    int64
	Failed      int64
	Rejected    int64
}

type HubStatus struct {
	// Connections counts chat clients.
	Connections     int
	EchoConnections int
}

// Status aggregates the runtime state reported by the status endpoint.
type Status struct {
	Scheduler SchedulerStatus
	Hub       HubStatus
}
