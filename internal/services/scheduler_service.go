// internal/services/scheduler_service.go
package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/adspoint/adspoint-backend/internal/config"
	"github.com/adspoint/adspoint-backend/internal/models"
	"github.com/adspoint/adspoint-backend/internal/utils"
)

// SchedulerService runs the periodic sweeps that enforce deadlines:
// placement expiry, pre-deadline warnings, monitoring checks and the
// post availability watchdog. Every sweep is idempotent, so enforcement
// latency is bounded by the sweep interval and a crashed run is
// harmless to repeat.
type SchedulerService struct {
	db            *gorm.DB
	config        *config.Config
	contracts     *ContractService
	verification  *VerificationService
	notifications *NotificationService
	now           func() time.Time
}

func NewSchedulerService(
	db *gorm.DB,
	cfg *config.Config,
	contracts *ContractService,
	verification *VerificationService,
	notifications *NotificationService,
) *SchedulerService {
	return &SchedulerService{
		db:            db,
		config:        cfg,
		contracts:     contracts,
		verification:  verification,
		notifications: notifications,
		now:           time.Now,
	}
}

// Start blocks, running all sweeps on the configured interval until
// the context is cancelled.
func (s *SchedulerService) Start(ctx context.Context) {
	interval := time.Duration(s.config.Scheduler.SweepInterval) * time.Minute
	logrus.WithField("interval", interval).Info("Starting contract scheduler")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.RunSweeps(ctx)

	for {
		select {
		case <-ctx.Done():
			logrus.Info("Contract scheduler stopped")
			return
		case <-ticker.C:
			s.RunSweeps(ctx)
		}
	}
}

// RunSweeps executes one pass of every sweep. Individual failures are
// logged and do not stop the remaining sweeps.
func (s *SchedulerService) RunSweeps(ctx context.Context) {
	if err := s.CheckExpiredPlacements(ctx); err != nil {
		logrus.WithError(err).Error("Expiry sweep failed")
	}
	if err := s.CheckPreDeadlineWarnings(ctx); err != nil {
		logrus.WithError(err).Error("Warning sweep failed")
	}
	if err := s.ProcessMonitoringTasks(ctx); err != nil {
		logrus.WithError(err).Error("Monitoring sweep failed")
	}
	if err := s.CheckActivePostsAvailability(ctx); err != nil {
		logrus.WithError(err).Error("Availability sweep failed")
	}
}

// CheckExpiredPlacements expires active contracts past their placement
// deadline and refunds the advertiser. Re-running the sweep never
// produces a second refund: the status compare-and-set inside
// ExpireContract only fires once.
func (s *SchedulerService) CheckExpiredPlacements(ctx context.Context) error {
	var overdue []models.Contract
	err := s.db.Where("status = ? AND placement_deadline < ?",
		models.ContractStatusActive, s.now()).
		Find(&overdue).Error
	if err != nil {
		return err
	}

	for i := range overdue {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		contract := &overdue[i]
		if err := s.contracts.ExpireContract(contract); err != nil {
			logrus.WithError(err).WithField("contract", contract.ContractNumber).
				Error("Failed to expire overdue contract")
			continue
		}
		logrus.WithFields(logrus.Fields{
			"contract": contract.ContractNumber,
			"refunded": contract.FundsReserved,
		}).Info("Contract expired, funds refunded")
	}
	return nil
}

// CheckPreDeadlineWarnings sends a single reminder to publishers whose
// placement deadline falls within the warning window. The warning_sent
// flag makes repeat sweeps a no-op.
func (s *SchedulerService) CheckPreDeadlineWarnings(ctx context.Context) error {
	now := s.now()
	window := now.Add(time.Duration(s.config.Contract.WarningWindowHours) * time.Hour)

	var approaching []models.Contract
	err := s.db.Where(
		"status = ? AND warning_sent = ? AND placement_deadline > ? AND placement_deadline <= ?",
		models.ContractStatusActive, false, now, window).
		Find(&approaching).Error
	if err != nil {
		return err
	}

	for i := range approaching {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		contract := &approaching[i]

		res := s.db.Model(&models.Contract{}).
			Where("id = ? AND warning_sent = ?", contract.ID, false).
			Update("warning_sent", true)
		if res.Error != nil {
			logrus.WithError(res.Error).WithField("contract", contract.ContractNumber).
				Error("Failed to flag deadline warning")
			continue
		}
		if res.RowsAffected == 0 {
			continue
		}

		hoursLeft := int(contract.PlacementDeadline.Sub(now).Hours()) + 1
		s.notifications.NotifyDeadlineWarning(contract, hoursLeft)
	}
	return nil
}

// ProcessMonitoringTasks advances due monitoring tasks: finalize the
// contract once the monitoring window closed, otherwise probe the post
// and reschedule the next check.
func (s *SchedulerService) ProcessMonitoringTasks(ctx context.Context) error {
	var due []models.MonitoringTask
	err := s.db.Where("status = ? AND next_check <= ?",
		models.MonitoringTaskStatusActive, s.now()).
		Find(&due).Error
	if err != nil {
		return err
	}

	for i := range due {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		task := &due[i]
		if err := s.processTask(ctx, task); err != nil {
			logrus.WithError(err).WithField("task", task.ID).
				Error("Failed to process monitoring task")
		}
	}
	return nil
}

func (s *SchedulerService) processTask(ctx context.Context, task *models.MonitoringTask) error {
	var contract models.Contract
	if err := s.db.Preload("Offer").First(&contract, "id = ?", task.ContractID).Error; err != nil {
		return err
	}

	// A contract that already left monitoring retires its task.
	if contract.Status != models.ContractStatusMonitoring {
		return s.completeTask(task, "contract no longer in monitoring")
	}

	now := s.now()
	if now.After(contract.MonitoringEnd) {
		if err := s.contracts.FinalizeContract(ctx, &contract); err != nil {
			return err
		}
		return s.completeTask(task, "contract finalized")
	}

	ref, err := utils.ParsePostURL(contract.PostURL)
	if err != nil {
		return err
	}

	available, err := s.verification.CheckAvailability(ctx, ref)
	if err != nil {
		// Transport trouble: leave the task due and retry next sweep.
		return s.recordTaskResult(task, "availability probe failed, will retry")
	}

	if !available {
		if err := s.handleUnreachablePost(&contract); err != nil {
			return err
		}
		return s.completeTask(task, "post unreachable, contract closed")
	}

	next := now.Add(time.Duration(s.config.Contract.MonitoringCheckHours) * time.Hour)
	return s.db.Model(task).Updates(map[string]interface{}{
		"next_check":  next,
		"last_result": "post available",
	}).Error
}

// CheckActivePostsAvailability is the watchdog pass over every
// monitoring contract, independent of the per-task cadence, so a
// deleted post is caught within one sweep interval rather than one
// monitoring cycle.
func (s *SchedulerService) CheckActivePostsAvailability(ctx context.Context) error {
	var monitored []models.Contract
	err := s.db.Where("status = ? AND post_url != ''", models.ContractStatusMonitoring).
		Find(&monitored).Error
	if err != nil {
		return err
	}

	for i := range monitored {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		contract := &monitored[i]

		ref, err := utils.ParsePostURL(contract.PostURL)
		if err != nil {
			logrus.WithError(err).WithField("contract", contract.ContractNumber).
				Warn("Monitored contract has an unparseable post URL")
			continue
		}

		available, err := s.verification.CheckAvailability(ctx, ref)
		if err != nil {
			logrus.WithError(err).WithField("contract", contract.ContractNumber).
				Warn("Availability probe failed")
			continue
		}
		if available {
			continue
		}

		if err := s.handleUnreachablePost(contract); err != nil {
			logrus.WithError(err).WithField("contract", contract.ContractNumber).
				Error("Failed to close contract with deleted post")
		}
	}
	return nil
}

// handleUnreachablePost is the single policy for a post that
// disappeared before the contract matured. Deletions before the
// planned placement window ends are penalized; later deletions are a
// violation without a penalty charge.
func (s *SchedulerService) handleUnreachablePost(contract *models.Contract) error {
	if s.now().Before(contract.PlannedPlacementEnd()) {
		return s.contracts.ApplyEarlyDeletionPenalty(contract)
	}
	return s.contracts.MarkViolation(contract, "post deleted during monitoring")
}

func (s *SchedulerService) completeTask(task *models.MonitoringTask, result string) error {
	return s.db.Model(task).Updates(map[string]interface{}{
		"status":      models.MonitoringTaskStatusCompleted,
		"last_result": result,
	}).Error
}

func (s *SchedulerService) recordTaskResult(task *models.MonitoringTask, result string) error {
	return s.db.Model(task).Update("last_result", result).Error
}
