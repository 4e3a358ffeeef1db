// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		if str, strOK := value.(string); strOK {
			bytes = []byte(str)
		} else {
			return nil
		}
	}

	return json.Unmarshal(bytes, j)
}

// Enums
type UserType string

const (
	UserTypeAdvertiser UserType = "advertiser"
	UserTypePublisher  UserType = "publisher"
	UserTypeAdmin      UserType = "admin"
)

type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
	UserStatusBanned    UserStatus = "banned"
)

type OfferStatus string

const (
	OfferStatusActive     OfferStatus = "active"
	OfferStatusPaused     OfferStatus = "paused"
	OfferStatusInProgress OfferStatus = "in_progress"
	OfferStatusCancelled  OfferStatus = "cancelled"
	OfferStatusCompleted  OfferStatus = "completed"
)

type ResponseStatus string

const (
	ResponseStatusPending      ResponseStatus = "pending"
	ResponseStatusAccepted     ResponseStatus = "accepted"
	ResponseStatusRejected     ResponseStatus = "rejected"
	ResponseStatusAutoRejected ResponseStatus = "auto_rejected"
)

type ContractStatus string

const (
	ContractStatusActive             ContractStatus = "active"
	ContractStatusVerification       ContractStatus = "verification"
	ContractStatusVerificationFailed ContractStatus = "verification_failed"
	ContractStatusMonitoring         ContractStatus = "monitoring"
	ContractStatusCompleted          ContractStatus = "completed"
	ContractStatusExpired            ContractStatus = "expired"
	ContractStatusViolation          ContractStatus = "violation"
	ContractStatusEarlyDeleted       ContractStatus = "early_deleted"
)

// Valid contract transitions: from -> []to. Terminal states map to an
// empty slice and never transition again.
var ValidContractTransitions = map[ContractStatus][]ContractStatus{
	ContractStatusActive:             {ContractStatusVerification, ContractStatusExpired},
	ContractStatusVerification:       {ContractStatusMonitoring, ContractStatusVerificationFailed},
	ContractStatusMonitoring:         {ContractStatusCompleted, ContractStatusViolation, ContractStatusEarlyDeleted},
	ContractStatusVerificationFailed: {},
	ContractStatusCompleted:          {},
	ContractStatusExpired:            {},
	ContractStatusViolation:          {},
	ContractStatusEarlyDeleted:       {},
}

func (s ContractStatus) CanTransitionTo(to ContractStatus) bool {
	allowed, ok := ValidContractTransitions[s]
	if !ok {
		return false
	}
	for _, t := range allowed {
		if t == to {
			return true
		}
	}
	return false
}

func (s ContractStatus) IsTerminal() bool {
	allowed, ok := ValidContractTransitions[s]
	return ok && len(allowed) == 0
}

type MonitoringTaskStatus string

const (
	MonitoringTaskStatusActive    MonitoringTaskStatus = "active"
	MonitoringTaskStatusCompleted MonitoringTaskStatus = "completed"
)

type PaymentType string

const (
	PaymentTypeCompletionPayout   PaymentType = "completion_payout"
	PaymentTypePlatformCommission PaymentType = "platform_commission"
	PaymentTypeRefund             PaymentType = "refund"
	PaymentTypePenalty            PaymentType = "penalty"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

type PerformanceRating string

const (
	PerformanceRatingExcellent PerformanceRating = "excellent"
	PerformanceRatingGood      PerformanceRating = "good"
	PerformanceRatingAverage   PerformanceRating = "average"
	PerformanceRatingPoor      PerformanceRating = "poor"
)
