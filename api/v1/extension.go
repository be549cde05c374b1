package v1

import (
	"github.com/kubev2v/priority-scheduler/internal/models"
)

func (s *Status) FromModel(m models.Status) {
	s.Scheduler = NewSchedulerStatus(m.Scheduler)
	s.Hub = HubStatus{
		Connections:     m.Hub.Connections,
		EchoConnections: m.Hub.EchoConnections,
	}
}

// NewStatusFromModel converts a models.Status to an API Status.
func NewStatusFromModel(m models.Status) Status {
	var s Status
	s.FromModel(m)
	return s
}

func NewSchedulerStatus(m models.SchedulerStatus) SchedulerStatus {
	var state SchedulerStatusState
	switch m.State {
	case models.SchedulerStateCreated:
		state = SchedulerStatusStateCreated
	case models.SchedulerStateRunning:
		state = SchedulerStatusStateRunning
	case models.SchedulerStateStopping:
		state = SchedulerStatusStateStopping
	default:
		state = SchedulerStatusStateStopped
	}

	return SchedulerStatus{
		Name:        m.Name,
		Mode:        SchedulerStatusMode(m.Mode),
		State:       state,
		Workers:     m.Workers,
		LiveWorkers: m.LiveWorkers,
		Queued:      m.Queued,
		Active:      m.Active,
		Executed:    m.Executed,
		Failed:      m.Failed,
		Rejected:    m.Rejected,
	}
}
