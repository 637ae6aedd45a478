package model

import "time"

type Mood struct {
	ID        int       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    string    `gorm:"index;not null" json:"userId"`
	Mood      string    `gorm:"not null" json:"mood"`
	Note      string    `gorm:"default:''" json:"note"`
	CreatedAt time.Time `json:"createdAt"`
}
