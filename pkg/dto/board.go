package dto

import "github.com/google/uuid"

type CreateBoardRequest struct {
	WorkspaceID uuid.UUID `json:"workspace_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
}

type UpdateBoardRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

type CreateGroupRequest struct {
	Name string `json:"name"`
}

// UpdateGroupRequest renames and/or reorders a group. MoveToFront reorders
// without an anchor; AfterGroupID places the group after the anchor.
type UpdateGroupRequest struct {
	Name         *string    `json:"name,omitempty"`
	AfterGroupID *uuid.UUID `json:"after_group_id,omitempty"`
	MoveToFront  bool       `json:"move_to_front,omitempty"`
}

type CreateLabelRequest struct {
	Label       string `json:"label"`
	Color       string `json:"color"`
	IsDoneState bool   `json:"is_done_state"`
}
