package models

import (
	"time"
)

type Franchise struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	Name      string           `gorm:"uniqueIndex;not null" json:"name"`
	Admins    []FranchiseAdmin `gorm:"-" json:"admins,omitempty"`
	Stores    []Store          `gorm:"foreignKey:FranchiseID" json:"stores"`
	CreatedAt time.Time        `json:"-"`
	UpdatedAt time.Time        `json:"-"`
}

// FranchiseAdmin is the public view of a user holding the franchisee role
// for a franchise. It is derived from user_roles, never stored.
type FranchiseAdmin struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Store struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	FranchiseID  uint      `gorm:"not null;index" json:"franchiseId"`
	Name         string    `gorm:"not null" json:"name"`
	TotalRevenue *float64  `gorm:"-" json:"totalRevenue,omitempty"`
	CreatedAt    time.Time `json:"-"`
}

// HasAdmin reports whether userID is among the loaded admins.
func (f *Franchise) HasAdmin(userID uint) bool {
	for _, a := range f.Admins {
		if a.ID == userID {
			return true
		}
	}
	return false
}

// AdminIDs returns the ids of the loaded admins.
func (f *Franchise) AdminIDs() []uint {
	ids := make([]uint, 0, len(f.Admins))
	for _, a := range f.Admins {
		ids = append(ids, a.ID)
	}
	return ids
}
