package models

import (
	"time"
)

type Role string

const (
	RoleDiner      Role = "diner"
	RoleFranchisee Role = "franchisee"
	RoleAdmin      Role = "admin"
)

// User is a registered account. Email is the login key but is not unique:
// several accounts may share one address.
type User struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Name      string     `gorm:"not null;index" json:"name"`
	Email     string     `gorm:"not null;index" json:"email"`
	Password  string     `gorm:"not null" json:"-"`
	Roles     []UserRole `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"roles"`
	CreatedAt time.Time  `json:"-"`
	UpdatedAt time.Time  `json:"-"`
}

// UserRole grants a role to a user. Franchisee rows point at the franchise
// they administer through ObjectID.
type UserRole struct {
	ID       uint  `gorm:"primaryKey" json:"-"`
	UserID   uint  `gorm:"not null;index" json:"-"`
	Role     Role  `gorm:"type:varchar(32);not null;index" json:"role"`
	ObjectID *uint `gorm:"index" json:"objectId,omitempty"`
}

func (u *User) HasRole(role Role) bool {
	for _, r := range u.Roles {
		if r.Role == role {
			return true
		}
	}
	return false
}

// AdministeredFranchises lists the franchise ids carried by franchisee roles.
func (u *User) AdministeredFranchises() []uint {
	var ids []uint
	for _, r := range u.Roles {
		if r.Role == RoleFranchisee && r.ObjectID != nil {
			ids = append(ids, *r.ObjectID)
		}
	}
	return ids
}
