// internal/services/scheduler_service_test.go
package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adspoint/adspoint-backend/internal/models"
)

func (e *testEnv) startMonitoring(t *testing.T, contract *models.Contract) *models.Contract {
	t.Helper()

	e.fetcher.setPost(testPostRef(), livePost())
	updated, err := e.contracts.SubmitPlacement(context.Background(), contract.ID, contract.PublisherID, testPostURL)
	require.NoError(t, err)
	require.Equal(t, models.ContractStatusMonitoring, updated.Status)
	return updated
}

func (e *testEnv) paymentsOfType(t *testing.T, contractID interface{}, pt models.PaymentType) []models.Payment {
	t.Helper()

	var rows []models.Payment
	require.NoError(t, e.db.Where("contract_id = ? AND payment_type = ?", contractID, pt).
		Find(&rows).Error)
	return rows
}

func TestExpirySweepIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	advertiser := env.createAdvertiser(t)
	alice, channel := env.createPublisher(t, "alice")
	offer := env.createOffer(t, advertiser.ID, 5000)
	contract := env.submitAndAccept(t, offer, alice, channel)

	env.advanceClock(25 * time.Hour)

	require.NoError(t, env.scheduler.CheckExpiredPlacements(context.Background()))
	require.NoError(t, env.scheduler.CheckExpiredPlacements(context.Background()))

	var reloaded models.Contract
	require.NoError(t, env.db.First(&reloaded, "id = ?", contract.ID).Error)
	assert.Equal(t, models.ContractStatusExpired, reloaded.Status)

	refunds := env.paymentsOfType(t, contract.ID, models.PaymentTypeRefund)
	require.Len(t, refunds, 1)
	assert.InDelta(t, -5000.0, refunds[0].Amount, 0.001)

	var ch models.Channel
	require.NoError(t, env.db.First(&ch, "id = ?", channel.ID).Error)
	assert.Equal(t, 90, ch.ReliabilityScore)
}

func TestPreDeadlineWarningSentOnce(t *testing.T) {
	env := newTestEnv(t)
	advertiser := env.createAdvertiser(t)
	alice, channel := env.createPublisher(t, "alice")
	offer := env.createOffer(t, advertiser.ID, 5000)
	contract := env.submitAndAccept(t, offer, alice, channel)

	// Outside the warning window nothing happens.
	require.NoError(t, env.scheduler.CheckPreDeadlineWarnings(context.Background()))

	var reloaded models.Contract
	require.NoError(t, env.db.First(&reloaded, "id = ?", contract.ID).Error)
	assert.False(t, reloaded.WarningSent)

	// 90 minutes before the deadline the warning fires, exactly once.
	env.advanceClock(22*time.Hour + 30*time.Minute)
	require.NoError(t, env.scheduler.CheckPreDeadlineWarnings(context.Background()))
	require.NoError(t, env.scheduler.CheckPreDeadlineWarnings(context.Background()))

	require.NoError(t, env.db.First(&reloaded, "id = ?", contract.ID).Error)
	assert.True(t, reloaded.WarningSent)
	assert.Equal(t, models.ContractStatusActive, reloaded.Status)
}

func TestMonitoringSweepFinalizesMaturedContract(t *testing.T) {
	env := newTestEnv(t)
	advertiser := env.createAdvertiser(t)
	alice, channel := env.createPublisher(t, "alice")
	offer := env.createOffer(t, advertiser.ID, 5000)
	contract := env.submitAndAccept(t, offer, alice, channel)
	env.startMonitoring(t, contract)

	env.advanceClock(9 * 24 * time.Hour)
	require.NoError(t, env.scheduler.ProcessMonitoringTasks(context.Background()))

	var reloaded models.Contract
	require.NoError(t, env.db.First(&reloaded, "id = ?", contract.ID).Error)
	assert.Equal(t, models.ContractStatusCompleted, reloaded.Status)
	require.NotNil(t, reloaded.CompletedAt)

	// Fixed stats give 1000 views and 15 clicks: CTR 1.5, rating good.
	// Payout on 5000 is 5000 - 250 commission + 50 bonus.
	assert.InDelta(t, 4800.0, reloaded.FinalPayout, 0.01)
	assert.EqualValues(t, "good", reloaded.FinalStats["rating"])

	payouts := env.paymentsOfType(t, contract.ID, models.PaymentTypeCompletionPayout)
	commissions := env.paymentsOfType(t, contract.ID, models.PaymentTypePlatformCommission)
	require.Len(t, payouts, 1)
	require.Len(t, commissions, 1)
	assert.InDelta(t, 4800.0, payouts[0].Amount, 0.01)
	assert.InDelta(t, 250.0, commissions[0].Amount, 0.01)

	var task models.MonitoringTask
	require.NoError(t, env.db.First(&task, "contract_id = ?", contract.ID).Error)
	assert.Equal(t, models.MonitoringTaskStatusCompleted, task.Status)

	var ch models.Channel
	require.NoError(t, env.db.First(&ch, "id = ?", channel.ID).Error)
	assert.Equal(t, 1, ch.CompletedPlacements)
	assert.InDelta(t, 4800.0, ch.TotalEarned, 0.01)
}

func TestWatchdogPenalizesEarlyDeletion(t *testing.T) {
	env := newTestEnv(t)
	advertiser := env.createAdvertiser(t)
	alice, channel := env.createPublisher(t, "alice")
	offer := env.createOffer(t, advertiser.ID, 5000)
	contract := env.submitAndAccept(t, offer, alice, channel)
	env.startMonitoring(t, contract)

	// The post vanishes six hours into a 24 hour placement window.
	env.advanceClock(6 * time.Hour)
	env.fetcher.setPost(testPostRef(), &FetchedPost{Reachable: false, Reason: "post was deleted"})

	require.NoError(t, env.scheduler.CheckActivePostsAvailability(context.Background()))

	var reloaded models.Contract
	require.NoError(t, env.db.First(&reloaded, "id = ?", contract.ID).Error)
	assert.Equal(t, models.ContractStatusEarlyDeleted, reloaded.Status)

	penalties := env.paymentsOfType(t, contract.ID, models.PaymentTypePenalty)
	require.Len(t, penalties, 1)
	assert.GreaterOrEqual(t, penalties[0].Amount, 0.20*5000)
	assert.LessOrEqual(t, penalties[0].Amount, 0.50*5000)

	var ch models.Channel
	require.NoError(t, env.db.First(&ch, "id = ?", channel.ID).Error)
	assert.Equal(t, 85, ch.ReliabilityScore)

	var task models.MonitoringTask
	require.NoError(t, env.db.First(&task, "contract_id = ?", contract.ID).Error)
	assert.Equal(t, models.MonitoringTaskStatusCompleted, task.Status)

	// A repeat sweep finds nothing left to do.
	require.NoError(t, env.scheduler.CheckActivePostsAvailability(context.Background()))
	assert.Len(t, env.paymentsOfType(t, contract.ID, models.PaymentTypePenalty), 1)
}

func TestWatchdogMarksLateDeletionAsViolation(t *testing.T) {
	env := newTestEnv(t)
	advertiser := env.createAdvertiser(t)
	alice, channel := env.createPublisher(t, "alice")
	offer := env.createOffer(t, advertiser.ID, 5000)
	contract := env.submitAndAccept(t, offer, alice, channel)
	env.startMonitoring(t, contract)

	// Deleted 30 hours after placement, past the planned window but well
	// before monitoring ends.
	env.advanceClock(30 * time.Hour)
	env.fetcher.setPost(testPostRef(), &FetchedPost{Reachable: false, Reason: "post was deleted"})

	require.NoError(t, env.scheduler.CheckActivePostsAvailability(context.Background()))

	var reloaded models.Contract
	require.NoError(t, env.db.First(&reloaded, "id = ?", contract.ID).Error)
	assert.Equal(t, models.ContractStatusViolation, reloaded.Status)

	assert.Empty(t, env.paymentsOfType(t, contract.ID, models.PaymentTypePenalty))

	// Reliability is only docked on the penalized path.
	var ch models.Channel
	require.NoError(t, env.db.First(&ch, "id = ?", channel.ID).Error)
	assert.Equal(t, 100, ch.ReliabilityScore)
}

func TestMonitoringTaskRetriesOnProbeFailure(t *testing.T) {
	env := newTestEnv(t)
	advertiser := env.createAdvertiser(t)
	alice, channel := env.createPublisher(t, "alice")
	offer := env.createOffer(t, advertiser.ID, 5000)
	contract := env.submitAndAccept(t, offer, alice, channel)
	env.startMonitoring(t, contract)

	env.advanceClock(25 * time.Hour)
	env.fetcher.err = context.DeadlineExceeded

	require.NoError(t, env.scheduler.ProcessMonitoringTasks(context.Background()))

	// Transport trouble is not a verdict: the contract stays in
	// monitoring and the task remains due.
	var reloaded models.Contract
	require.NoError(t, env.db.First(&reloaded, "id = ?", contract.ID).Error)
	assert.Equal(t, models.ContractStatusMonitoring, reloaded.Status)

	var task models.MonitoringTask
	require.NoError(t, env.db.First(&task, "contract_id = ?", contract.ID).Error)
	assert.Equal(t, models.MonitoringTaskStatusActive, task.Status)
	assert.Contains(t, task.LastResult, "retry")
}
