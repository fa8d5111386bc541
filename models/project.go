package models

import (
	"time"
)

// ProjectMemberRole is the role of a member within a project. Membership is
// modeled for future multi-user sharing but not consulted by any endpoint;
// access control is owner-or-superuser only.
type ProjectMemberRole string

const (
	MemberOwner  ProjectMemberRole = "owner"
	MemberEditor ProjectMemberRole = "editor"
	MemberViewer ProjectMemberRole = "viewer"
)

// Project groups layers and measurements under a single owner. Deleting a
// project deletes its members, layers and measurements.
type Project struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	Name        string    `gorm:"size:255;not null;index" json:"name"`
	Description *string   `gorm:"type:text" json:"description"`
	OwnerID     uint      `gorm:"not null;index" json:"owner_id"`
	Owner       *User     `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProjectMember associates a user with a project. Each (project, user) pair
// appears at most once.
type ProjectMember struct {
	ID        uint              `gorm:"primarykey" json:"id"`
	ProjectID uint              `gorm:"not null;uniqueIndex:idx_project_members_project_user" json:"project_id"`
	UserID    uint              `gorm:"not null;uniqueIndex:idx_project_members_project_user" json:"user_id"`
	Role      ProjectMemberRole `gorm:"size:32;not null;default:viewer" json:"role"`
	JoinedAt  time.Time         `gorm:"autoCreateTime" json:"joined_at"`
}
