package service

import (
	"context"
	"time"

	"github.com/alexanderramin/cadence/internal/log"
)

// UseCaseEvent captures lightweight execution telemetry for a service use case.
type UseCaseEvent struct {
	Name      string
	Duration  time.Duration
	Success   bool
	Err       error
	Fields    map[string]any
	StartedAt time.Time
}

// UseCaseObserver receives use-case execution events.
type UseCaseObserver interface {
	ObserveUseCase(ctx context.Context, event UseCaseEvent)
}

// NoopUseCaseObserver ignores all events.
type NoopUseCaseObserver struct{}

func (NoopUseCaseObserver) ObserveUseCase(context.Context, UseCaseEvent) {}

type logUseCaseObserver struct {
	logger log.Logger
}

// NewLogUseCaseObserver writes service use-case events to the provided logger.
func NewLogUseCaseObserver(logger log.Logger) UseCaseObserver {
	if logger == nil {
		return NoopUseCaseObserver{}
	}
	return &logUseCaseObserver{
		logger: logger.WithValues(log.Kv{"svc": "service.UseCase"}),
	}
}

func (o *logUseCaseObserver) ObserveUseCase(ctx context.Context, event UseCaseEvent) {
	kv := make(log.Kv, 3+len(event.Fields))
	for k, v := range event.Fields {
		kv[k] = v
	}
	kv["use_case"] = event.Name
	kv["duration_ms"] = event.Duration.Milliseconds()
	kv["success"] = event.Success

	logger := o.logger.WithCtxValues(ctx).WithValues(kv)
	if event.Err != nil {
		logger.Errorf("service use case failed: %s", event.Err)
		return
	}
	logger.Infof("service use case")
}

func useCaseObserverOrNoop(observers []UseCaseObserver) UseCaseObserver {
	for _, obs := range observers {
		if obs != nil {
			return obs
		}
	}
	return NoopUseCaseObserver{}
}
