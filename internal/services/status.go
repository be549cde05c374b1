package services

import (
	"github.com/kubev2v/priority-scheduler/internal/hub"
	"github.com/kubev2v/priority-scheduler/internal/models"
	"github.com/kubev2v/priority-scheduler/pkg/scheduler"
)

type StatusService struct {
	scheduler *scheduler.Scheduler
	chat      *hub.Registry
	echo      *hub.Registry
}

func NewStatusService(s *scheduler.Scheduler, chat, echo *hub.Registry) *StatusService {
	return &StatusService{scheduler: s, chat: chat, echo: echo}
}

func (s *StatusService) Status() models.Status {
	return models.Status{
		Scheduler: NewSchedulerStatus(s.scheduler.Stats()),
		Hub: models.HubStatus{
			Connections:     s.chat.Len(),
			EchoConnections: s.echo.Len(),
		},
	}
}

func NewSchedulerStatus(stats scheduler.Stats) models.SchedulerStatus {
	var state models.SchedulerState
	switch stats.State {
	case scheduler.StateCreated:
		state = models.SchedulerStateCreated
	case scheduler.StateRunning:
		state = models.SchedulerStateRunning
	case scheduler.StateStopping:
		state = models.SchedulerStateStopping
	default:
		state = models.SchedulerStateStopped
	}

	return models.SchedulerStatus{
		Name:        stats.Name,
		Mode:        string(stats.Mode),
		State:       state,
		Workers:     stats.Workers,
		LiveWorkers: stats.LiveWorkers,
		Queued:      stats.Queued,
		Active:      stats.Active,
		Executed:    stats.Executed,
		Failed:      stats.Failed,
		Rejected:    stats.Rejected,
	}
}
