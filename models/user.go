package models

import (
	"time"
)

// UserRole is the account-level role of a user.
type UserRole string

const (
	RoleAdmin UserRole = "admin"
	RoleUser  UserRole = "user"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// User is the persisted account record. The password is stored only as a
// bcrypt hash and never serialized to clients.
type User struct {
	ID             uint      `gorm:"primarykey" json:"id"`
	Username       string    `gorm:"size:255;not null;uniqueIndex" json:"username"`
	Email          *string   `gorm:"size:255;uniqueIndex" json:"email"`
	HashedPassword string    `gorm:"size:255;not null" json:"-"`
	FullName       string    `gorm:"size:255" json:"full_name"`
	Role           UserRole  `gorm:"size:32;not null;default:user" json:"role"`
	IsActive       bool      `gorm:"not null;default:true" json:"is_active"`
	IsSuperuser    bool      `gorm:"not null;default:false" json:"is_superuser"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CanAccess reports whether the user may act on a resource owned by ownerID.
// Superusers may act on everything.
func (u *User) CanAccess(ownerID uint) bool {
	return u.IsSuperuser || u.ID == ownerID
}
