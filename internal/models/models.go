package models

import (
	"time"
)

type Product struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"  json:"id"`
	UserID      uint      `gorm:"index;not null"            json:"user_id"`
	Name        string    `gorm:"not null"                  json:"name"`
	Description string    `json:"description"`
	Category    string    `gorm:"index"                     json:"category"`
	Price       float64   `gorm:"not null"                  json:"price"`
	Rating      float64   `json:"rating"`
	ImagePath   string    `json:"image_path,omitempty"`
	CreatedAt   time.Time `json:"created_at"`

	// ImageURL is resolved from ImagePath on read, never persisted.
	ImageURL string `gorm:"-" json:"image_url,omitempty"`
}

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Email        string `gorm:"unique;not null"          json:"email"`
	Username     string `gorm:"not null"                 json:"username"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	Role         string `gorm:"not null"                 json:"role"`
}

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"          json:"id"`
	Token     string `gorm:"unique;not null"     json:"token"`
	UserID    uint   `gorm:"index;not null"      json:"user_id"`
	ExpiresAt int64  `gorm:"not null"            json:"expires_at"`
	Revoked   bool   `gorm:"default:false"       json:"revoked"`
}
