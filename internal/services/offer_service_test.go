// internal/services/offer_service_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adspoint/adspoint-backend/internal/models"
)

func TestOfferStatusFlow(t *testing.T) {
	env := newTestEnv(t)
	advertiser := env.createAdvertiser(t)
	offers := NewOfferService(env.db)

	offer, err := offers.CreateOffer(advertiser.ID, &CreateOfferRequest{
		Title:       "Promo placement",
		Description: "Promote our productivity application launch discount",
		Price:       5000,
	})
	require.NoError(t, err)
	assert.Equal(t, models.OfferStatusActive, offer.Status)
	assert.Equal(t, "RUB", offer.Currency)

	paused, err := offers.PauseOffer(offer.ID, advertiser.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OfferStatusPaused, paused.Status)

	// Pausing an already paused offer is an invalid transition.
	_, err = offers.PauseOffer(offer.ID, advertiser.ID)
	require.Error(t, err)
	assert.Equal(t, ErrCodeInvalidState, ErrorCodeOf(err))

	resumed, err := offers.ResumeOffer(offer.ID, advertiser.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OfferStatusActive, resumed.Status)

	// A live offer cannot be deleted, only cancelled first.
	err = offers.DeleteOffer(offer.ID, advertiser.ID)
	require.Error(t, err)
	assert.Equal(t, ErrCodeInvalidState, ErrorCodeOf(err))

	_, err = offers.CancelOffer(offer.ID, advertiser.ID)
	require.NoError(t, err)
	require.NoError(t, offers.DeleteOffer(offer.ID, advertiser.ID))

	_, err = offers.GetOffer(offer.ID)
	require.Error(t, err)
	assert.Equal(t, ErrCodeNotFound, ErrorCodeOf(err))
}

func TestOfferOwnershipChecks(t *testing.T) {
	env := newTestEnv(t)
	advertiser := env.createAdvertiser(t)
	stranger, _ := env.createPublisher(t, "mallory")
	offers := NewOfferService(env.db)

	offer, err := offers.CreateOffer(advertiser.ID, &CreateOfferRequest{
		Title:       "Promo placement",
		Description: "Promote our productivity application launch discount",
		Price:       5000,
	})
	require.NoError(t, err)

	_, err = offers.PauseOffer(offer.ID, stranger.ID)
	require.Error(t, err)
	assert.Equal(t, ErrCodeForbidden, ErrorCodeOf(err))

	err = offers.DeleteOffer(offer.ID, stranger.ID)
	require.Error(t, err)
	assert.Equal(t, ErrCodeForbidden, ErrorCodeOf(err))
}

func TestAcceptedOfferBlocksNewBids(t *testing.T) {
	env := newTestEnv(t)
	advertiser := env.createAdvertiser(t)
	alice, aliceChannel := env.createPublisher(t, "alice")
	bob, bobChannel := env.createPublisher(t, "bob")
	offer := env.createOffer(t, advertiser.ID, 5000)

	env.submitAndAccept(t, offer, alice, aliceChannel)

	// The offer moved to in_progress, so late bids see it as gone.
	_, err := env.responses.SubmitResponse(bob.ID, &SubmitResponseRequest{
		OfferID:   offer.ID,
		ChannelID: bobChannel.ID,
	})
	require.Error(t, err)
	assert.Equal(t, ErrCodeNotFound, ErrorCodeOf(err))
}
