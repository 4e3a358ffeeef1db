// internal/services/contract_service_test.go
package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adspoint/adspoint-backend/internal/models"
	"github.com/adspoint/adspoint-backend/internal/utils"
)

const testPostURL = "https://t.me/alice_channel/100"

func testPostRef() utils.PostRef {
	return utils.PostRef{ChannelUsername: "alice_channel", MessageID: 100}
}

func livePost() *FetchedPost {
	return &FetchedPost{
		Reachable: true,
		Content:   "Promote our productivity application, big launch discount inside",
		Views:     1000,
	}
}

func TestSubmitPlacementMovesToMonitoring(t *testing.T) {
	env := newTestEnv(t)
	advertiser := env.createAdvertiser(t)
	alice, channel := env.createPublisher(t, "alice")
	offer := env.createOffer(t, advertiser.ID, 5000)
	contract := env.submitAndAccept(t, offer, alice, channel)

	env.fetcher.setPost(testPostRef(), livePost())

	updated, err := env.contracts.SubmitPlacement(context.Background(), contract.ID, alice.ID, testPostURL)
	require.NoError(t, err)

	assert.Equal(t, models.ContractStatusMonitoring, updated.Status)
	assert.True(t, updated.VerificationPassed)
	assert.Equal(t, testPostURL, updated.PostURL)
	assert.EqualValues(t, 100, updated.PostID)
	require.NotNil(t, updated.SubmittedAt)
	require.NotNil(t, updated.VerifiedAt)

	// Verification spawns exactly one monitoring task due in 24h.
	var task models.MonitoringTask
	require.NoError(t, env.db.First(&task, "contract_id = ?", contract.ID).Error)
	assert.Equal(t, models.MonitoringTaskStatusActive, task.Status)
	assert.Equal(t, env.clock.Add(24*time.Hour), task.NextCheck.UTC())
}

func TestSubmitPlacementMalformedURLLeavesStatusUnchanged(t *testing.T) {
	env := newTestEnv(t)
	advertiser := env.createAdvertiser(t)
	alice, channel := env.createPublisher(t, "alice")
	offer := env.createOffer(t, advertiser.ID, 5000)
	contract := env.submitAndAccept(t, offer, alice, channel)

	for _, badURL := range []string{
		"not a url",
		"https://example.com/channel/100",
		"https://t.me/alice_channel",
		"https://t.me/alice_channel/abc",
		"https://t.me/c/notanumber/100",
	} {
		_, err := env.contracts.SubmitPlacement(context.Background(), contract.ID, alice.ID, badURL)
		require.Error(t, err, "url=%s", badURL)
		assert.Equal(t, ErrCodeInvalidURLFormat, ErrorCodeOf(err), "url=%s", badURL)
	}

	var reloaded models.Contract
	require.NoError(t, env.db.First(&reloaded, "id = ?", contract.ID).Error)
	assert.Equal(t, models.ContractStatusActive, reloaded.Status)
	assert.Empty(t, reloaded.PostURL)
}

func TestSubmitPlacementAfterDeadlineExpires(t *testing.T) {
	env := newTestEnv(t)
	advertiser := env.createAdvertiser(t)
	alice, channel := env.createPublisher(t, "alice")
	offer := env.createOffer(t, advertiser.ID, 5000)
	contract := env.submitAndAccept(t, offer, alice, channel)

	env.advanceClock(25 * time.Hour)

	_, err := env.contracts.SubmitPlacement(context.Background(), contract.ID, alice.ID, testPostURL)
	require.Error(t, err)
	assert.Equal(t, ErrCodeDeadlineExpired, ErrorCodeOf(err))

	var reloaded models.Contract
	require.NoError(t, env.db.First(&reloaded, "id = ?", contract.ID).Error)
	assert.Equal(t, models.ContractStatusExpired, reloaded.Status)

	// The late submission produced the refund entry itself.
	var refunds []models.Payment
	require.NoError(t, env.db.Where("contract_id = ? AND payment_type = ?",
		contract.ID, models.PaymentTypeRefund).Find(&refunds).Error)
	require.Len(t, refunds, 1)
	assert.InDelta(t, -5000.0, refunds[0].Amount, 0.001)
}

func TestSubmitPlacementWrongPublisher(t *testing.T) {
	env := newTestEnv(t)
	advertiser := env.createAdvertiser(t)
	alice, channel := env.createPublisher(t, "alice")
	bob, _ := env.createPublisher(t, "bob")
	offer := env.createOffer(t, advertiser.ID, 5000)
	contract := env.submitAndAccept(t, offer, alice, channel)

	_, err := env.contracts.SubmitPlacement(context.Background(), contract.ID, bob.ID, testPostURL)
	require.Error(t, err)
	assert.Equal(t, ErrCodeForbidden, ErrorCodeOf(err))
}

func TestVerifyPlacementFailsOnContentMismatch(t *testing.T) {
	env := newTestEnv(t)
	advertiser := env.createAdvertiser(t)
	alice, channel := env.createPublisher(t, "alice")
	offer := env.createOffer(t, advertiser.ID, 5000)
	contract := env.submitAndAccept(t, offer, alice, channel)

	env.fetcher.setPost(testPostRef(), &FetchedPost{
		Reachable: true,
		Content:   "Totally unrelated cat pictures",
	})

	updated, err := env.contracts.SubmitPlacement(context.Background(), contract.ID, alice.ID, testPostURL)
	require.NoError(t, err)

	assert.Equal(t, models.ContractStatusVerificationFailed, updated.Status)
	assert.False(t, updated.VerificationPassed)
	assert.NotEmpty(t, updated.VerificationDetails)

	// Failed verification is terminal: no monitoring task exists.
	var taskCount int64
	require.NoError(t, env.db.Model(&models.MonitoringTask{}).
		Where("contract_id = ?", contract.ID).Count(&taskCount).Error)
	assert.Zero(t, taskCount)
}

func TestVerifyPlacementIdempotent(t *testing.T) {
	env := newTestEnv(t)
	advertiser := env.createAdvertiser(t)
	alice, channel := env.createPublisher(t, "alice")
	offer := env.createOffer(t, advertiser.ID, 5000)
	contract := env.submitAndAccept(t, offer, alice, channel)

	env.fetcher.setPost(testPostRef(), livePost())

	first, err := env.contracts.SubmitPlacement(context.Background(), contract.ID, alice.ID, testPostURL)
	require.NoError(t, err)
	require.Equal(t, models.ContractStatusMonitoring, first.Status)

	// A second verify call is a no-op on a contract already monitoring.
	second, err := env.contracts.VerifyPlacement(context.Background(), contract.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ContractStatusMonitoring, second.Status)

	var taskCount int64
	require.NoError(t, env.db.Model(&models.MonitoringTask{}).
		Where("contract_id = ?", contract.ID).Count(&taskCount).Error)
	assert.EqualValues(t, 1, taskCount)
}

func TestDeleteFailedContract(t *testing.T) {
	env := newTestEnv(t)
	advertiser := env.createAdvertiser(t)
	alice, channel := env.createPublisher(t, "alice")
	offer := env.createOffer(t, advertiser.ID, 5000)
	contract := env.submitAndAccept(t, offer, alice, channel)

	// Deletion is illegal while the contract is active.
	err := env.contracts.DeleteFailedContract(contract.ID, alice.ID)
	require.Error(t, err)
	assert.Equal(t, ErrCodeInvalidState, ErrorCodeOf(err))

	env.fetcher.setPost(testPostRef(), &FetchedPost{Reachable: false, Reason: "post was deleted"})
	updated, err := env.contracts.SubmitPlacement(context.Background(), contract.ID, alice.ID, testPostURL)
	require.NoError(t, err)
	require.Equal(t, models.ContractStatusVerificationFailed, updated.Status)

	// A stranger cannot delete it.
	stranger, _ := env.createPublisher(t, "mallory")
	err = env.contracts.DeleteFailedContract(contract.ID, stranger.ID)
	require.Error(t, err)
	assert.Equal(t, ErrCodeForbidden, ErrorCodeOf(err))

	require.NoError(t, env.contracts.DeleteFailedContract(contract.ID, alice.ID))

	var count int64
	require.NoError(t, env.db.Unscoped().Model(&models.Contract{}).
		Where("id = ?", contract.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestTerminalStatesNeverTransition(t *testing.T) {
	for _, terminal := range []models.ContractStatus{
		models.ContractStatusExpired,
		models.ContractStatusVerificationFailed,
		models.ContractStatusCompleted,
		models.ContractStatusViolation,
		models.ContractStatusEarlyDeleted,
	} {
		assert.True(t, terminal.IsTerminal(), "status=%s", terminal)
		for _, next := range []models.ContractStatus{
			models.ContractStatusActive,
			models.ContractStatusVerification,
			models.ContractStatusMonitoring,
			models.ContractStatusCompleted,
		} {
			assert.False(t, terminal.CanTransitionTo(next), "%s -> %s", terminal, next)
		}
	}

	assert.True(t, models.ContractStatusActive.CanTransitionTo(models.ContractStatusVerification))
	assert.True(t, models.ContractStatusActive.CanTransitionTo(models.ContractStatusExpired))
	assert.False(t, models.ContractStatusActive.CanTransitionTo(models.ContractStatusMonitoring))
	assert.True(t, models.ContractStatusVerification.CanTransitionTo(models.ContractStatusMonitoring))
	assert.True(t, models.ContractStatusMonitoring.CanTransitionTo(models.ContractStatusCompleted))
}
