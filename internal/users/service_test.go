package users

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/microtasklabs/microtask-backend/pkg/db/models"
	"github.com/microtasklabs/microtask-backend/pkg/enums"
	pkgerrors "github.com/microtasklabs/microtask-backend/pkg/errors"
)

type fakeUsersRepo struct {
	createFn     func(ctx context.Context, user *models.User) error
	findByIDFn   func(ctx context.Context, id uuid.UUID) (*models.User, error)
	findEmailFn  func(ctx context.Context, email string) (*models.User, error)
	stampFn      func(ctx context.Context, id uuid.UUID, firebaseUID string, at time.Time) error
	listFn       func(ctx context.Context) ([]models.User, error)
	updateRoleFn func(ctx context.Context, id uuid.UUID, role enums.UserRole) (int64, error)
	deleteFn     func(ctx context.Context, id uuid.UUID) (int64, error)
	topWorkersFn func(ctx context.Context, limit int) ([]models.User, error)
}

func (f *fakeUsersRepo) Create(ctx context.Context, user *models.User) error {
	if f.createFn != nil {
		return f.createFn(ctx, user)
	}
	user.ID = uuid.New()
	return nil
}

func (f *fakeUsersRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (f *fakeUsersRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.findEmailFn != nil {
		return f.findEmailFn(ctx, email)
	}
	return nil, nil
}

func (f *fakeUsersRepo) StampLogin(ctx context.Context, id uuid.UUID, firebaseUID string, at time.Time) error {
	if f.stampFn != nil {
		return f.stampFn(ctx, id, firebaseUID, at)
	}
	return nil
}

func (f *fakeUsersRepo) List(ctx context.Context) ([]models.User, error) {
	if f.listFn != nil {
		return f.listFn(ctx)
	}
	return nil, nil
}

func (f *fakeUsersRepo) UpdateRole(ctx context.Context, id uuid.UUID, role enums.UserRole) (int64, error) {
	if f.updateRoleFn != nil {
		return f.updateRoleFn(ctx, id, role)
	}
	return 1, nil
}

func (f *fakeUsersRepo) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id)
	}
	return 1, nil
}

func (f *fakeUsersRepo) TopWorkers(ctx context.Context, limit int) ([]models.User, error) {
	if f.topWorkersFn != nil {
		return f.topWorkersFn(ctx, limit)
	}
	return nil, nil
}

func newUserService(t *testing.T, repo Repository) Service {
	t.Helper()
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestUpdateRoleAdminCanPromote(t *testing.T) {
	targetID := uuid.New()
	repo := &fakeUsersRepo{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (*models.User, error) {
			return &models.User{ID: id, Role: enums.UserRoleAdmin}, nil
		},
	}
	svc := newUserService(t, repo)

	user, err := svc.UpdateRole(context.Background(), UpdateRoleInput{
		ActorID:   uuid.New(),
		ActorRole: enums.UserRoleAdmin,
		TargetID:  targetID,
		NewRole:   enums.UserRoleAdmin,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != targetID {
		t.Fatalf("wrong user returned: %+v", user)
	}
}

func TestUpdateRoleSelfPromotionToAdminForbidden(t *testing.T) {
	actorID := uuid.New()
	svc := newUserService(t, &fakeUsersRepo{})

	_, err := svc.UpdateRole(context.Background(), UpdateRoleInput{
		ActorID:   actorID,
		ActorRole: enums.UserRoleWorker,
		TargetID:  actorID,
		NewRole:   enums.UserRoleAdmin,
	})
	if pkgerrors.As(err).Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestUpdateRoleSelfRoleSwitchAllowed(t *testing.T) {
	actorID := uuid.New()
	repo := &fakeUsersRepo{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (*models.User, error) {
			return &models.User{ID: id, Role: enums.UserRoleBuyer}, nil
		},
	}
	svc := newUserService(t, repo)

	user, err := svc.UpdateRole(context.Background(), UpdateRoleInput{
		ActorID:   actorID,
		ActorRole: enums.UserRoleWorker,
		TargetID:  actorID,
		NewRole:   enums.UserRoleBuyer,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Role != enums.UserRoleBuyer {
		t.Fatalf("role not updated: %+v", user)
	}
}

func TestUpdateRoleOnBehalfOfOthersForbidden(t *testing.T) {
	svc := newUserService(t, &fakeUsersRepo{})

	_, err := svc.UpdateRole(context.Background(), UpdateRoleInput{
		ActorID:   uuid.New(),
		ActorRole: enums.UserRoleBuyer,
		TargetID:  uuid.New(),
		NewRole:   enums.UserRoleWorker,
	})
	if pkgerrors.As(err).Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestDeleteMissingUser(t *testing.T) {
	repo := &fakeUsersRepo{
		deleteFn: func(ctx context.Context, id uuid.UUID) (int64, error) {
			return 0, nil
		},
	}
	svc := newUserService(t, repo)

	err := svc.Delete(context.Background(), uuid.New())
	if pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestTopWorkersDefaultsLimit(t *testing.T) {
	var gotLimit int
	repo := &fakeUsersRepo{
		topWorkersFn: func(ctx context.Context, limit int) ([]models.User, error) {
			gotLimit = limit
			return nil, nil
		},
	}
	svc := newUserService(t, repo)

	if _, err := svc.TopWorkers(context.Background(), 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotLimit != defaultTopWorkers {
		t.Fatalf("expected default limit %d, got %d", defaultTopWorkers, gotLimit)
	}
}
