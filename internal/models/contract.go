// internal/models/contract.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Contract is the binding agreement created exactly once per accepted
// response. ContractNumber is the short opaque token shown to both
// parties; the UUID primary key stays internal.
type Contract struct {
	BaseModel
	ContractNumber string    `json:"contract_number" gorm:"size:16;uniqueIndex;not null"`
	ResponseID     uuid.UUID `json:"response_id" gorm:"type:uuid;uniqueIndex;not null"`
	OfferID        uuid.UUID `json:"offer_id" gorm:"type:uuid;not null;index"`
	AdvertiserID   uuid.UUID `json:"advertiser_id" gorm:"type:uuid;not null;index"`
	PublisherID    uuid.UUID `json:"publisher_id" gorm:"type:uuid;not null;index"`
	ChannelID      uuid.UUID `json:"channel_id" gorm:"type:uuid;not null;index"`

	Price         float64        `json:"price" gorm:"type:decimal(12,2);not null"`
	FundsReserved float64        `json:"funds_reserved" gorm:"type:decimal(12,2);default:0"`
	Status        ContractStatus `json:"status" gorm:"type:varchar(24);default:'active';index"`
	Requirements  string         `json:"requirements" gorm:"type:text"`

	PlacementDeadline  time.Time `json:"placement_deadline" gorm:"not null"`
	MonitoringDays     int       `json:"monitoring_days" gorm:"default:7"`
	MonitoringEnd      time.Time `json:"monitoring_end" gorm:"not null"`
	WarningSent        bool      `json:"warning_sent" gorm:"default:false"`
	PlacementStartedAt *time.Time `json:"placement_started_at"`

	PostURL  string     `json:"post_url" gorm:"size:512"`
	PostID   int64      `json:"post_id" gorm:"default:0"`
	PostDate *time.Time `json:"post_date"`

	VerificationPassed  bool   `json:"verification_passed" gorm:"default:false"`
	VerificationDetails string `json:"verification_details" gorm:"type:text"`

	PaymentReference string  `json:"payment_reference" gorm:"size:255"`
	FinalStats       JSONB   `json:"final_stats" gorm:"type:jsonb"`
	FinalPayout      float64 `json:"final_payout" gorm:"type:decimal(12,2);default:0"`

	SubmittedAt *time.Time `json:"submitted_at"`
	VerifiedAt  *time.Time `json:"verified_at"`
	CompletedAt *time.Time `json:"completed_at"`

	// Relationships
	Response   OfferResponse `json:"response,omitempty" gorm:"foreignKey:ResponseID"`
	Offer      Offer         `json:"offer,omitempty" gorm:"foreignKey:OfferID"`
	Advertiser User          `json:"advertiser,omitempty" gorm:"foreignKey:AdvertiserID"`
	Publisher  User          `json:"publisher,omitempty" gorm:"foreignKey:PublisherID"`
	Channel    Channel       `json:"channel,omitempty" gorm:"foreignKey:ChannelID"`
	Payments   []Payment     `json:"payments,omitempty" gorm:"foreignKey:ContractID"`
}

// PlannedPlacementEnd is the horizon the early-deletion penalty is
// measured against: 24 hours after the placement went live.
func (c *Contract) PlannedPlacementEnd() time.Time {
	start := c.CreatedAt
	if c.PlacementStartedAt != nil {
		start = *c.PlacementStartedAt
	}
	return start.Add(24 * time.Hour)
}

// MonitoringTask drives the periodic sweep; one per contract while the
// contract is in monitoring.
type MonitoringTask struct {
	BaseModel
	ContractID uuid.UUID            `json:"contract_id" gorm:"type:uuid;uniqueIndex;not null"`
	NextCheck  time.Time            `json:"next_check" gorm:"not null;index"`
	Status     MonitoringTaskStatus `json:"status" gorm:"type:varchar(20);default:'active';index"`
	LastResult string               `json:"last_result" gorm:"size:255"`

	Contract Contract `json:"contract,omitempty" gorm:"foreignKey:ContractID"`
}
