package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
	RoleViewer = "viewer"
)

type Workspace struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type WorkspaceMember struct {
	ID          uuid.UUID `json:"id"`
	WorkspaceID uuid.UUID `json:"workspace_id"`
	UserID      uuid.UUID `json:"user_id"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
	User        *User     `json:"user,omitempty"`
}

// CanManage reports whether the role carries the manage capability
// (label catalog, automations, board deletion).
func CanManage(role string) bool {
	return role == RoleOwner || role == RoleAdmin
}

// CanWrite reports whether the role may mutate board content at all.
func CanWrite(role string) bool {
	return role == RoleOwner || role == RoleAdmin || role == RoleMember
}
