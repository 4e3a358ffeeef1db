// internal/models/payment.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Payment is a settlement ledger row. A completed contract produces a
// payout row and a commission row; expiry produces a refund row and an
// early deletion a penalty row. Refund amounts are negative entries
// reversing the advertiser's reservation.
type Payment struct {
	BaseModel
	ContractID   uuid.UUID     `json:"contract_id" gorm:"type:uuid;not null;index"`
	PaymentType  PaymentType   `json:"payment_type" gorm:"type:varchar(24);not null;index"`
	Amount       float64       `json:"amount" gorm:"type:decimal(12,2);not null"`
	Currency     string        `json:"currency" gorm:"size:8;default:'RUB'"`
	Status       PaymentStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	PublisherID  *uuid.UUID    `json:"publisher_id" gorm:"type:uuid;index"`
	AdvertiserID *uuid.UUID    `json:"advertiser_id" gorm:"type:uuid;index"`
	Description  string        `json:"description" gorm:"size:255"`
	Reference    string        `json:"reference" gorm:"size:255"`
	ProcessedAt  *time.Time    `json:"processed_at"`

	// Relationships
	Contract   Contract `json:"contract,omitempty" gorm:"foreignKey:ContractID"`
	Publisher  *User    `json:"publisher,omitempty" gorm:"foreignKey:PublisherID"`
	Advertiser *User    `json:"advertiser,omitempty" gorm:"foreignKey:AdvertiserID"`
}
