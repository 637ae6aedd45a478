// Package model contains the database models used across the application
package model

import "time"

const (
	ProviderLocal  = "local"
	ProviderGithub = "github"
)

type User struct {
	ID           string `gorm:"primaryKey" json:"id"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `json:"-"`
	Name         string `json:"name"`
	Avatar       string `json:"avatar"`
	Provider     string `gorm:"default:local" json:"provider"`
	ProviderID   string `gorm:"index" json:"-"`
	Verified     bool   `gorm:"default:false" json:"verified"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Moods []Mood `gorm:"foreignKey:UserID" json:"-"`
}
