// internal/models/response.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// OfferResponse is a channel owner's bid to fulfill an offer. The
// channel title, username and subscriber count are snapshotted at
// response time so later channel edits do not rewrite history.
type OfferResponse struct {
	BaseModel
	OfferID   uuid.UUID `json:"offer_id" gorm:"type:uuid;not null;index:idx_responses_offer_user_channel,unique"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index:idx_responses_offer_user_channel,unique"`
	ChannelID uuid.UUID `json:"channel_id" gorm:"type:uuid;not null;index:idx_responses_offer_user_channel,unique"`

	ChannelTitle     string `json:"channel_title" gorm:"size:255"`
	ChannelUsername  string `json:"channel_username" gorm:"size:64"`
	SubscriberCount  int    `json:"subscriber_count" gorm:"default:0"`
	Message          string `json:"message" gorm:"type:text"`
	ProposedPrice    float64 `json:"proposed_price" gorm:"type:decimal(12,2);default:0"`

	Status          ResponseStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	RejectionReason string         `json:"rejection_reason,omitempty" gorm:"type:text"`
	AcceptedAt      *time.Time     `json:"accepted_at"`
	RejectedAt      *time.Time     `json:"rejected_at"`

	// Relationships
	Offer    Offer     `json:"offer,omitempty" gorm:"foreignKey:OfferID"`
	User     User      `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Channel  Channel   `json:"channel,omitempty" gorm:"foreignKey:ChannelID"`
	Contract *Contract `json:"contract,omitempty" gorm:"foreignKey:ResponseID"`
}
