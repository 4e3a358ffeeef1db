// internal/models/channel.go
package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Channel struct {
	BaseModel
	OwnerID             uuid.UUID      `json:"owner_id" gorm:"type:uuid;not null;index"`
	TelegramChannelID   int64          `json:"telegram_channel_id" gorm:"index"`
	Title               string         `json:"title" gorm:"size:255;not null"`
	Username            string         `json:"username" gorm:"size:64;uniqueIndex"`
	Description         string         `json:"description" gorm:"type:text"`
	Category            string         `json:"category" gorm:"size:64;index"`
	Topics              pq.StringArray `json:"topics" gorm:"type:text[]"`
	SubscriberCount     int            `json:"subscriber_count" gorm:"default:0"`
	ReliabilityScore    int            `json:"reliability_score" gorm:"default:100"`
	CompletedPlacements int            `json:"completed_placements" gorm:"default:0"`
	TotalEarned         float64        `json:"total_earned" gorm:"type:decimal(12,2);default:0"`
	IsVerified          bool           `json:"is_verified" gorm:"default:false"`

	// Relationships
	Owner     User            `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
	Responses []OfferResponse `json:"responses,omitempty" gorm:"foreignKey:ChannelID"`
}
