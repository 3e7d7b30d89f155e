package model

import (
	"github.com/google/uuid"
)

// User represents a staff member: the Admin, a Sub-Admin, or an Agent.
// SupervisorID is set on Agents and points at the supervising Sub-Admin.
type User struct {
	Base
	Name         string     `json:"name" db:"name"`
	Email        string     `json:"email" db:"email"`
	Mobile       string     `json:"mobile" db:"mobile"`
	PasswordHash string     `json:"-" db:"password_hash"`
	Role         Role       `json:"role" db:"role"`
	SupervisorID *uuid.UUID `json:"supervisor_id,omitempty" db:"supervisor_id"`
	ProfileImage *string    `json:"profile_image,omitempty" db:"profile_image"`
}

// RegisterStaffRequest represents staff creation parameters
type RegisterStaffRequest struct {
	Name         string     `json:"name" binding:"required"`
	Email        string     `json:"email" binding:"required,email"`
	Mobile       string     `json:"mobile" binding:"required,mobile"`
	Password     string     `json:"password" binding:"required,min=8"`
	Role         string     `json:"role" binding:"required,oneof=Admin Sub-Admin Agent"`
	SupervisorID *uuid.UUID `json:"supervisor_id"`
}

// UpdateStaffRequest represents staff update parameters
type UpdateStaffRequest struct {
	Name   *string `json:"name"`
	Email  *string `json:"email" binding:"omitempty,email"`
	Mobile *string `json:"mobile" binding:"omitempty,mobile"`
}

type ChangePasswordRequest struct {
	OldPassword        string `json:"old_password" binding:"required"`
	NewPassword        string `json:"new_password" binding:"required,min=8"`
	ConfirmNewPassword string `json:"confirm_new_password" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}
