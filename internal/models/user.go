// internal/models/user.go
package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

type User struct {
	BaseModel
	TelegramID   int64      `json:"telegram_id" gorm:"uniqueIndex;not null"`
	Username     string     `json:"username" gorm:"size:64;index"`
	FirstName    string     `json:"first_name" gorm:"size:128"`
	LastName     string     `json:"last_name" gorm:"size:128"`
	UserType     UserType   `json:"user_type" gorm:"type:varchar(20);not null"`
	Status       UserStatus `json:"status" gorm:"type:varchar(20);default:'active'"`
	PasswordHash string     `json:"-" gorm:"size:255"`
	LanguageCode string     `json:"language_code" gorm:"size:8;default:'en'"`
	ProfileData  JSONB      `json:"profile_data" gorm:"type:jsonb"`
	LastLoginAt  *time.Time `json:"last_login_at"`

	// Relationships
	Channels  []Channel       `json:"channels,omitempty" gorm:"foreignKey:OwnerID"`
	Offers    []Offer         `json:"offers,omitempty" gorm:"foreignKey:OwnerID"`
	Responses []OfferResponse `json:"responses,omitempty" gorm:"foreignKey:UserID"`
}

// SetPassword is only meaningful for admin accounts; regular users
// authenticate through Telegram init data.
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}
