package users

import (
	"context"

	"github.com/google/uuid"

	"github.com/microtasklabs/microtask-backend/pkg/db/models"
	"github.com/microtasklabs/microtask-backend/pkg/enums"
	pkgerrors "github.com/microtasklabs/microtask-backend/pkg/errors"
)

const defaultTopWorkers = 6

// Service defines account management operations.
type Service interface {
	List(ctx context.Context) ([]models.User, error)
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateRole(ctx context.Context, input UpdateRoleInput) (*models.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
	TopWorkers(ctx context.Context, limit int) ([]models.User, error)
}

// UpdateRoleInput carries a role change plus the actor performing it.
type UpdateRoleInput struct {
	ActorID   uuid.UUID
	ActorRole enums.UserRole
	TargetID  uuid.UUID
	NewRole   enums.UserRole
}

type service struct {
	repo Repository
}

// NewService builds the account management service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "users repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context) ([]models.User, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}
	return rows, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if user == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return user, nil
}

func (s *service) UpdateRole(ctx context.Context, input UpdateRoleInput) (*models.User, error) {
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.TargetID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if !input.NewRole.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown role")
	}

	isAdmin := input.ActorRole == enums.UserRoleAdmin
	isSelf := input.ActorID == input.TargetID
	if !isAdmin && !isSelf {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "cannot change another user's role")
	}
	// Admin status is only granted by an existing admin.
	if !isAdmin && input.NewRole == enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "cannot self-assign admin role")
	}

	affected, err := s.repo.UpdateRole(ctx, input.TargetID, input.NewRole)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update role")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}

	return s.Get(ctx, input.TargetID)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	affected, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete user")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return nil
}

func (s *service) TopWorkers(ctx context.Context, limit int) ([]models.User, error) {
	if limit <= 0 {
		limit = defaultTopWorkers
	}

	rows, err := s.repo.TopWorkers(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list top workers")
	}
	return rows, nil
}
