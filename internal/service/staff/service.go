// Package staff manages the user hierarchy: the Admin, Sub-Admins and the
// Agents they supervise.
package staff

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/leadrail/lead-api/internal/model"
	"github.com/leadrail/lead-api/internal/repository"
	apperrors "github.com/leadrail/lead-api/pkg/errors"
)

const bcryptCost = 12

type StaffService interface {
	Register(ctx context.Context, req *model.RegisterStaffRequest) (*model.User, error)
	Get(ctx context.Context, id uuid.UUID) (*model.User, error)
	List(ctx context.Context) ([]*model.User, error)
	ListAgents(ctx context.Context, supervisorID *uuid.UUID) ([]*model.User, error)
	Update(ctx context.Context, id uuid.UUID, req *model.UpdateStaffRequest) (*model.User, error)
	ChangePassword(ctx context.Context, id uuid.UUID, req *model.ChangePasswordRequest) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type Service struct {
	repo repository.UserRepository
}

func NewService(repo repository.UserRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Register(ctx context.Context, req *model.RegisterStaffRequest) (*model.User, error) {
	role, err := model.ParseRole(req.Role)
	if err != nil {
		return nil, apperrors.Validation(err.Error(), nil)
	}

	if err := s.checkDuplicates(ctx, req.Email, req.Mobile, uuid.Nil); err != nil {
		return nil, err
	}

	// A single Admin account anchors the hierarchy.
	if role == model.RoleAdmin {
		admin, err := s.repo.GetAdmin(ctx)
		if err != nil {
			return nil, err
		}
		if admin != nil {
			return nil, apperrors.Conflict("an Admin account already exists", nil)
		}
	}

	var supervisorID *uuid.UUID
	if role == model.RoleAgent {
		if req.SupervisorID == nil {
			return nil, apperrors.Validation("an Agent requires a supervisor", nil)
		}
		supervisor, err := s.repo.Get(ctx, *req.SupervisorID)
		if err != nil {
			return nil, apperrors.NotFound("supervisor", err)
		}
		if supervisor.Role != model.RoleSubAdmin {
			return nil, apperrors.Validation("supervisor must be a Sub-Admin", nil)
		}
		supervisorID = req.SupervisorID
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Name:         req.Name,
		Email:        req.Email,
		Mobile:       req.Mobile,
		PasswordHash: string(hash),
		Role:         role,
		SupervisorID: supervisorID,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create staff member: %w", err)
	}
	return user, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*model.User, error) {
	return s.repo.ListStaff(ctx)
}

func (s *Service) ListAgents(ctx context.Context, supervisorID *uuid.UUID) ([]*model.User, error) {
	return s.repo.ListAgents(ctx, supervisorID)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateStaffRequest) (*model.User, error) {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	email := user.Email
	if req.Email != nil {
		email = *req.Email
	}
	mobile := user.Mobile
	if req.Mobile != nil {
		mobile = *req.Mobile
	}
	if err := s.checkDuplicates(ctx, email, mobile, id); err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	user.Email = email
	user.Mobile = mobile

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update staff member: %w", err)
	}
	return user, nil
}

func (s *Service) ChangePassword(ctx context.Context, id uuid.UUID, req *model.ChangePasswordRequest) error {
	if req.NewPassword != req.ConfirmNewPassword {
		return apperrors.Validation("password confirmation does not match", nil)
	}

	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
		return apperrors.Unauthorized(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.repo.UpdatePassword(ctx, id, string(hash)); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if user.Role == model.RoleAdmin {
		return apperrors.Validation("the Admin account cannot be deleted", nil)
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) checkDuplicates(ctx context.Context, email, mobile string, exclude uuid.UUID) error {
	exists, err := s.repo.ExistsByEmail(ctx, email, exclude)
	if err != nil {
		return fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return apperrors.Conflict("a staff member with this email already exists", nil)
	}
	exists, err = s.repo.ExistsByMobile(ctx, mobile, exclude)
	if err != nil {
		return fmt.Errorf("failed to check mobile: %w", err)
	}
	if exists {
		return apperrors.Conflict("a staff member with this mobile number already exists", nil)
	}
	return nil
}
