package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/alexanderramin/cadence/internal/clock"
	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/alexanderramin/cadence/internal/repository"
)

// activeSource reports the running or paused session, if any.
type activeSource interface {
	Active() domain.ActiveExecution
}

type workItemService struct {
	workItems repository.WorkItemRepo
	active    activeSource
	clock     clock.Clock
}

// NewWorkItemService manages work items. Deleting the item that owns the
// active session is refused.
func NewWorkItemService(workItems repository.WorkItemRepo, active activeSource, clk clock.Clock) WorkItemService {
	if clk == nil {
		clk = clock.System{}
	}
	return &workItemService{workItems: workItems, active: active, clock: clk}
}

func (s *workItemService) Create(ctx context.Context, w *domain.WorkItem) error {
	if w.ID == "" {
		w.ID = uuid.New().String()
	}
	w.Title = strings.TrimSpace(w.Title)
	if w.Kind == "" {
		w.Kind = domain.KindTask
	}
	if err := w.Validate(); err != nil {
		return err
	}
	now := s.clock.Now().UTC()
	w.CreatedAt = now
	w.UpdatedAt = now
	return s.workItems.Create(ctx, w)
}

func (s *workItemService) GetByID(ctx context.Context, id string) (*domain.WorkItem, error) {
	return s.workItems.GetByID(ctx, id)
}

func (s *workItemService) List(ctx context.Context, kind domain.WorkItemKind) ([]*domain.WorkItem, error) {
	return s.workItems.List(ctx, kind)
}

func (s *workItemService) Delete(ctx context.Context, id string) error {
	if s.active != nil && s.active.Active().Owns(id) {
		return fmt.Errorf("deleting %s: %w; stop it first", id, domain.ErrConflictingExecution)
	}
	return s.workItems.Delete(ctx, id)
}
