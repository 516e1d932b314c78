package models

import (
	"time"
)

// AuthSession records a live bearer token by its JWT id. Logging out deletes
// the row; a token without a row is rejected.
type AuthSession struct {
	JTI       string    `gorm:"primaryKey;size:36" json:"jti"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
