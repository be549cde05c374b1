package v1

// SchedulerStatusState is the lifecycle state reported by GET /api/v1/scheduler.
type SchedulerStatusState string

const (
	SchedulerStatusStateCreated  SchedulerStatusState = "created"
	SchedulerStatusStateRunning  SchedulerStatusState = "running"
	SchedulerStatusStateStopping SchedulerStatusState = "stopping"
	SchedulerStatusStateStopped  SchedulerStatusState = "stopped"
)

type SchedulerStatusMode string

const (
	SchedulerStatusModeWorkerPool    SchedulerStatusMode = "worker-pool"
	SchedulerStatusModeAsyncDispatch SchedulerStatusMode = "async-dispatch"
)

type SchedulerStatus struct {
	Name        string               `json:"name"`
	Mode        SchedulerStatusMode  `json:"mode"`
	State       SchedulerStatusState `json:"state"`
	Workers     int                  `json:"workers"`
	LiveWorkers int                  `json:"liveWorkers"`
	Queued      int                  `json:"queued"`
	Active      int64                `json:"active"`
	Executed    int64                `json:"executed"`
	Failed      int64                `json:"failed"`
	Rejected    int64                `json:"rejected"`
}

type HubStatus struct {
	Connections     int `json:"connections"`
	EchoConnections int `json:"echoConnections"`
}

type Status struct {
	Scheduler SchedulerStatus `json:"scheduler"`
	Hub       HubStatus       `json:"hub"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
