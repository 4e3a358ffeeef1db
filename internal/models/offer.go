// internal/models/offer.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Offer struct {
	BaseModel
	OwnerID        uuid.UUID      `json:"owner_id" gorm:"type:uuid;not null;index"`
	Title          string         `json:"title" gorm:"size:255;not null"`
	Description    string         `json:"description" gorm:"type:text;not null"`
	Content        string         `json:"content" gorm:"type:text"`
	Price          float64        `json:"price" gorm:"type:decimal(12,2);not null"`
	MaxPrice       float64        `json:"max_price" gorm:"type:decimal(12,2);default:0"`
	Currency       string         `json:"currency" gorm:"size:8;default:'RUB'"`
	Category       string         `json:"category" gorm:"size:64;index"`
	Status         OfferStatus    `json:"status" gorm:"type:varchar(20);default:'active';index"`
	BudgetTotal    float64        `json:"budget_total" gorm:"type:decimal(12,2);default:0"`
	ExpiresAt      *time.Time     `json:"expires_at"`
	MinSubscribers int            `json:"min_subscribers" gorm:"default:0"`
	MaxSubscribers int            `json:"max_subscribers" gorm:"default:0"`
	Tags           pq.StringArray `json:"tags" gorm:"type:text[]"`
	CreativeKeys   pq.StringArray `json:"creative_keys" gorm:"type:text[]"`
	Metadata       JSONB          `json:"metadata" gorm:"type:jsonb"`

	// Relationships
	Owner     User            `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
	Responses []OfferResponse `json:"responses,omitempty" gorm:"foreignKey:OfferID"`
	Contracts []Contract      `json:"contracts,omitempty" gorm:"foreignKey:OfferID"`
}

// EffectivePrice resolves the amount a contract is created at: the
// first non-zero of max_price and price, falling back to 10% of the
// total budget capped at the budget itself.
func (o *Offer) EffectivePrice() float64 {
	if o.MaxPrice > 0 {
		return o.MaxPrice
	}
	if o.Price > 0 {
		return o.Price
	}
	fallback := o.BudgetTotal * 0.10
	if fallback > o.BudgetTotal {
		fallback = o.BudgetTotal
	}
	return fallback
}
