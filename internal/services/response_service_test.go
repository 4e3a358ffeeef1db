// internal/services/response_service_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adspoint/adspoint-backend/internal/models"
)

func TestSubmitResponseDuplicate(t *testing.T) {
	env := newTestEnv(t)
	advertiser := env.createAdvertiser(t)
	publisher, channel := env.createPublisher(t, "alice")
	offer := env.createOffer(t, advertiser.ID, 5000)

	_, err := env.responses.SubmitResponse(publisher.ID, &SubmitResponseRequest{
		OfferID:   offer.ID,
		ChannelID: channel.ID,
	})
	require.NoError(t, err)

	_, err = env.responses.SubmitResponse(publisher.ID, &SubmitResponseRequest{
		OfferID:   offer.ID,
		ChannelID: channel.ID,
	})
	require.Error(t, err)
	assert.Equal(t, ErrCodeDuplicateResponse, ErrorCodeOf(err))
}

func TestSubmitResponseOfferNotActive(t *testing.T) {
	env := newTestEnv(t)
	advertiser := env.createAdvertiser(t)
	publisher, channel := env.createPublisher(t, "alice")
	offer := env.createOffer(t, advertiser.ID, 5000)

	require.NoError(t, env.db.Model(offer).Update("status", models.OfferStatusPaused).Error)

	_, err := env.responses.SubmitResponse(publisher.ID, &SubmitResponseRequest{
		OfferID:   offer.ID,
		ChannelID: channel.ID,
	})
	require.Error(t, err)
	assert.Equal(t, ErrCodeNotFound, ErrorCodeOf(err))
}

func TestAcceptResponseCreatesExactlyOneContract(t *testing.T) {
	env := newTestEnv(t)
	advertiser := env.createAdvertiser(t)
	alice, aliceChannel := env.createPublisher(t, "alice")
	bob, bobChannel := env.createPublisher(t, "bob")
	offer := env.createOffer(t, advertiser.ID, 5000)

	aliceResp, err := env.responses.SubmitResponse(alice.ID, &SubmitResponseRequest{
		OfferID:   offer.ID,
		ChannelID: aliceChannel.ID,
	})
	require.NoError(t, err)

	bobResp, err := env.responses.SubmitResponse(bob.ID, &SubmitResponseRequest{
		OfferID:   offer.ID,
		ChannelID: bobChannel.ID,
	})
	require.NoError(t, err)

	contract, err := env.responses.AcceptResponse(aliceResp.ID, advertiser.ID)
	require.NoError(t, err)
	require.NotNil(t, contract)

	assert.Equal(t, models.ContractStatusActive, contract.Status)
	assert.Equal(t, aliceResp.ID, contract.ResponseID)
	assert.Equal(t, 5000.0, contract.Price)
	assert.Equal(t, 5000.0, contract.FundsReserved)
	assert.Len(t, contract.ContractNumber, 12)
	assert.True(t, contract.MonitoringEnd.After(contract.PlacementDeadline))
	assert.True(t, contract.PlacementDeadline.After(env.clock))

	// The losing bid is auto-rejected.
	var bobReloaded models.OfferResponse
	require.NoError(t, env.db.First(&bobReloaded, "id = ?", bobResp.ID).Error)
	assert.Equal(t, models.ResponseStatusAutoRejected, bobReloaded.Status)

	// The offer stops accepting new bids.
	var offerReloaded models.Offer
	require.NoError(t, env.db.First(&offerReloaded, "id = ?", offer.ID).Error)
	assert.Equal(t, models.OfferStatusInProgress, offerReloaded.Status)

	var contractCount int64
	require.NoError(t, env.db.Model(&models.Contract{}).
		Where("offer_id = ?", offer.ID).Count(&contractCount).Error)
	assert.EqualValues(t, 1, contractCount)
}

func TestAcceptResponseTwiceFails(t *testing.T) {
	env := newTestEnv(t)
	advertiser := env.createAdvertiser(t)
	alice, aliceChannel := env.createPublisher(t, "alice")
	offer := env.createOffer(t, advertiser.ID, 5000)

	resp, err := env.responses.SubmitResponse(alice.ID, &SubmitResponseRequest{
		OfferID:   offer.ID,
		ChannelID: aliceChannel.ID,
	})
	require.NoError(t, err)

	_, err = env.responses.AcceptResponse(resp.ID, advertiser.ID)
	require.NoError(t, err)

	_, err = env.responses.AcceptResponse(resp.ID, advertiser.ID)
	require.Error(t, err)
	assert.Equal(t, ErrCodeInvalidState, ErrorCodeOf(err))

	// At most one response on the offer is accepted and exactly one
	// contract references it.
	var acceptedCount, contractCount int64
	require.NoError(t, env.db.Model(&models.OfferResponse{}).
		Where("offer_id = ? AND status = ?", offer.ID, models.ResponseStatusAccepted).
		Count(&acceptedCount).Error)
	require.NoError(t, env.db.Model(&models.Contract{}).
		Where("response_id = ?", resp.ID).Count(&contractCount).Error)
	assert.EqualValues(t, 1, acceptedCount)
	assert.EqualValues(t, 1, contractCount)
}

func TestAcceptResponseNotOwner(t *testing.T) {
	env := newTestEnv(t)
	advertiser := env.createAdvertiser(t)
	alice, aliceChannel := env.createPublisher(t, "alice")
	offer := env.createOffer(t, advertiser.ID, 5000)

	resp, err := env.responses.SubmitResponse(alice.ID, &SubmitResponseRequest{
		OfferID:   offer.ID,
		ChannelID: aliceChannel.ID,
	})
	require.NoError(t, err)

	_, err = env.responses.AcceptResponse(resp.ID, alice.ID)
	require.Error(t, err)
	assert.Equal(t, ErrCodeForbidden, ErrorCodeOf(err))
}

func TestRejectResponseStoresReason(t *testing.T) {
	env := newTestEnv(t)
	advertiser := env.createAdvertiser(t)
	alice, aliceChannel := env.createPublisher(t, "alice")
	offer := env.createOffer(t, advertiser.ID, 5000)

	resp, err := env.responses.SubmitResponse(alice.ID, &SubmitResponseRequest{
		OfferID:   offer.ID,
		ChannelID: aliceChannel.ID,
	})
	require.NoError(t, err)

	rejected, err := env.responses.RejectResponse(resp.ID, advertiser.ID, "audience mismatch")
	require.NoError(t, err)
	assert.Equal(t, models.ResponseStatusRejected, rejected.Status)
	assert.Equal(t, "audience mismatch", rejected.RejectionReason)

	// A rejected response cannot be accepted afterwards.
	_, err = env.responses.AcceptResponse(resp.ID, advertiser.ID)
	require.Error(t, err)
	assert.Equal(t, ErrCodeInvalidState, ErrorCodeOf(err))
}
