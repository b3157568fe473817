package service

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/cadence/internal/db"
	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/alexanderramin/cadence/internal/log"
	"github.com/alexanderramin/cadence/internal/repository"
	"github.com/alexanderramin/cadence/internal/retry"
)

// ResetController discards recorded time. An active session on the target
// work item is stopped and persisted before anything is deleted, whatever the
// scope.
type ResetController struct {
	manager *ActiveExecutionManager
	log     ExecutionLog
	uow     db.UnitOfWork
	retry   retry.Policy
	logger  log.Logger
}

func NewResetController(manager *ActiveExecutionManager, execLog ExecutionLog, uow db.UnitOfWork, policy retry.Policy, logger log.Logger) *ResetController {
	if logger == nil {
		logger = log.Noop
	}
	return &ResetController{
		manager: manager,
		log:     execLog,
		uow:     uow,
		retry:   policy,
		logger:  logger.WithValues(log.Kv{"svc": "service.ResetController"}),
	}
}

// Reset applies scope to a work item.
//
//   - session: forgets the session clock; nothing persisted is deleted.
//   - today: deletes intervals that started in the local day containing now.
//   - total: deletes every interval and completion marker, so habits also
//     lose their streak history.
//
// Each deletion is one transaction.
func (c *ResetController) Reset(ctx context.Context, workItemID string, scope domain.ResetScope, now time.Time) error {
	if !domain.ValidResetScopes[scope] {
		return fmt.Errorf("resetting %s: unknown scope %q", workItemID, scope)
	}

	if c.manager.Snapshot().Owns(workItemID) {
		if _, err := c.manager.Stop(ctx, now); err != nil {
			return fmt.Errorf("resetting %s: %w", workItemID, err)
		}
		c.logger.Infof("stopped active session of %s before %s reset", workItemID, scope)
	}

	var deleted, unmarked int64
	if scope != domain.ResetSession {
		err := retry.Do(ctx, c.retry, func(ctx context.Context) error {
			return c.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
				var err error
				if scope == domain.ResetToday {
					deleted, err = c.log.DeleteForScopeTx(ctx, tx, workItemID, domain.DeleteToday, now)
					return err
				}

				deleted, err = c.log.DeleteForScopeTx(ctx, tx, workItemID, domain.DeleteAll, now)
				if err != nil {
					return err
				}
				unmarked, err = repository.NewSQLiteCompletionRepo(tx).DeleteByWorkItem(ctx, workItemID, time.Time{}, time.Time{})
				return err
			})
		})
		if err != nil {
			return fmt.Errorf("resetting %s (%s): %w", workItemID, scope, err)
		}
	}

	if err := c.manager.DiscardSession(workItemID); err != nil {
		return fmt.Errorf("resetting %s: %w", workItemID, err)
	}
	c.logger.WithValues(log.Kv{"scope": scope, "intervals": deleted, "completions": unmarked}).Infof("reset %s", workItemID)
	return nil
}
