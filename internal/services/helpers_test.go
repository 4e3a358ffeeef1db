// internal/services/helpers_test.go
package services

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/adspoint/adspoint-backend/internal/config"
	"github.com/adspoint/adspoint-backend/internal/models"
	"github.com/adspoint/adspoint-backend/internal/utils"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Channel{},
		&models.Offer{},
		&models.OfferResponse{},
		&models.Contract{},
		&models.MonitoringTask{},
		&models.Payment{},
		&models.AuditLog{},
	)
	require.NoError(t, err)

	return db
}

func testConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		Contract: config.ContractConfig{
			PlacementHours:          24,
			MonitoringDays:          7,
			CommissionPercent:       5.0,
			ExcellentBonusPercent:   2.0,
			GoodBonusPercent:        1.0,
			PenaltyBaseRate:         0.20,
			PenaltyCapRate:          0.50,
			ExpiryReliabilityLoss:   10,
			DeletionReliabilityLoss: 15,
			WarningWindowHours:      2,
			MonitoringCheckHours:    24,
		},
		Scheduler: config.SchedulerConfig{Enabled: false, SweepInterval: 60},
		I18n:      config.I18nConfig{DefaultLocale: "ru"},
	}
}

// fakeFetcher scripts the post pages the verifier will see.
type fakeFetcher struct {
	posts map[string]*FetchedPost
	err   error
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{posts: make(map[string]*FetchedPost)}
}

func (f *fakeFetcher) setPost(ref utils.PostRef, post *FetchedPost) {
	f.posts[refKey(ref)] = post
}

func (f *fakeFetcher) FetchPost(_ context.Context, ref utils.PostRef) (*FetchedPost, error) {
	if f.err != nil {
		return nil, f.err
	}
	if post, ok := f.posts[refKey(ref)]; ok {
		return post, nil
	}
	return &FetchedPost{Reachable: false, Reason: "channel or post not found"}, nil
}

func refKey(ref utils.PostRef) string {
	return ref.ChannelIdentifier() + "/" + strconv.FormatInt(ref.MessageID, 10)
}

// fixedStats returns the same counters for every contract.
type fixedStats struct {
	stats PostStats
	err   error
}

func (f fixedStats) CollectStats(context.Context, *models.Contract) (PostStats, error) {
	return f.stats, f.err
}

type testEnv struct {
	db        *gorm.DB
	cfg       *config.Config
	fetcher   *fakeFetcher
	contracts *ContractService
	responses *ResponseService
	scheduler *SchedulerService
	clock     time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := setupTestDB(t)
	cfg := testConfig()
	fetcher := newFakeFetcher()
	verification := NewVerificationService(fetcher)
	notifications := NewNotificationService(db, cfg.Telegram)
	payments := NewPaymentService(db, cfg)
	stats := fixedStats{stats: PostStats{Views: 1000, Clicks: 15, Reactions: 50}}

	contracts := NewContractService(db, cfg, verification, payments, notifications, stats)
	responses := NewResponseService(db, contracts, notifications)
	scheduler := NewSchedulerService(db, cfg, contracts, verification, notifications)

	env := &testEnv{
		db:        db,
		cfg:       cfg,
		fetcher:   fetcher,
		contracts: contracts,
		responses: responses,
		scheduler: scheduler,
		clock:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	env.setClock(env.clock)
	return env
}

// setClock pins the injectable clocks of every service to the same
// instant.
func (e *testEnv) setClock(now time.Time) {
	e.clock = now
	nowFn := func() time.Time { return now }
	e.contracts.now = nowFn
	e.contracts.payments.now = nowFn
	e.responses.now = nowFn
	e.scheduler.now = nowFn
}

func (e *testEnv) advanceClock(d time.Duration) {
	e.setClock(e.clock.Add(d))
}

func (e *testEnv) createAdvertiser(t *testing.T) *models.User {
	t.Helper()
	user := &models.User{
		TelegramID:   time.Now().UnixNano(),
		Username:     "advertiser",
		UserType:     models.UserTypeAdvertiser,
		Status:       models.UserStatusActive,
		LanguageCode: "ru",
	}
	require.NoError(t, e.db.Create(user).Error)
	return user
}

func (e *testEnv) createPublisher(t *testing.T, username string) (*models.User, *models.Channel) {
	t.Helper()
	user := &models.User{
		TelegramID:   time.Now().UnixNano() + int64(len(username)),
		Username:     username,
		UserType:     models.UserTypePublisher,
		Status:       models.UserStatusActive,
		LanguageCode: "ru",
	}
	require.NoError(t, e.db.Create(user).Error)

	channel := &models.Channel{
		OwnerID:          user.ID,
		Title:            "Channel of " + username,
		Username:         username + "_channel",
		Category:         "tech",
		SubscriberCount:  12000,
		ReliabilityScore: 100,
	}
	require.NoError(t, e.db.Create(channel).Error)
	return user, channel
}

func (e *testEnv) createOffer(t *testing.T, ownerID uuid.UUID, price float64) *models.Offer {
	t.Helper()

	offer := &models.Offer{
		OwnerID:     ownerID,
		Title:       "Promo placement",
		Description: "Promote our productivity application launch discount",
		Content:     "Check out the launch discount for our productivity app",
		Price:       price,
		Currency:    "RUB",
		Status:      models.OfferStatusActive,
		BudgetTotal: price * 10,
	}
	require.NoError(t, e.db.Create(offer).Error)
	return offer
}

func (e *testEnv) submitAndAccept(t *testing.T, offer *models.Offer, publisher *models.User, channel *models.Channel) *models.Contract {
	t.Helper()

	response, err := e.responses.SubmitResponse(publisher.ID, &SubmitResponseRequest{
		OfferID:   offer.ID,
		ChannelID: channel.ID,
		Message:   "Happy to run this",
	})
	require.NoError(t, err)

	contract, err := e.responses.AcceptResponse(response.ID, offer.OwnerID)
	require.NoError(t, err)
	return contract
}
