package schedule

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kardianos/service"
)

// serviceConfig describes the system service registration.
var serviceConfig = &service.Config{
	Name:        "niftypool",
	DisplayName: "NiftyPool Scheduler",
	Description: "Runs NiftyPool join batches on a schedule.",
	Arguments:   []string{"schedule"},
}

// program adapts a Scheduler to service.Interface.
type program struct {
	scheduler *Scheduler
	logger    *slog.Logger
}

// Start implements service.Interface. Start must not block.
func (p *program) Start(service.Service) error {
	return p.scheduler.Start()
}

// Stop implements service.Interface.
func (p *program) Stop(service.Service) error {
	return p.scheduler.Stop(context.Background())
}

// RunAsService blocks running the scheduler under the platform service
// manager (or in the foreground when launched from a terminal).
func RunAsService(scheduler *Scheduler, logger *slog.Logger) error {
	svc, err := service.New(&program{scheduler: scheduler, logger: logger}, serviceConfig)
	if err != nil {
		return fmt.Errorf("schedule: create service: %w", err)
	}
	if err := svc.Run(); err != nil {
		return fmt.Errorf("schedule: run service: %w", err)
	}
	return nil
}

// Control installs, uninstalls, starts, or stops the system service.
func Control(action string, logger *slog.Logger) error {
	svc, err := service.New(&program{scheduler: NewScheduler(logger), logger: logger}, serviceConfig)
	if err != nil {
		return fmt.Errorf("schedule: create service: %w", err)
	}
	if err := service.Control(svc, action); err != nil {
		return fmt.Errorf("schedule: %s service: %w", action, err)
	}
	return nil
}
