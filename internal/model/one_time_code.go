package model

import "time"

// OneTimeCode is a short-lived numeric code mailed to a user to prove
// they control an email address. Rows are never revalidated once used.
type OneTimeCode struct {
	ID        int       `gorm:"primaryKey;autoIncrement"`
	Email     string    `gorm:"index:idx_otp_email_purpose;not null"`
	Code      string    `gorm:"not null"`
	Purpose   string    `gorm:"index:idx_otp_email_purpose;not null"`
	ExpiresAt time.Time
	Used      bool      `gorm:"default:false"`
	CreatedAt time.Time
}
