package stats

import (
	"context"

	"github.com/google/uuid"

	pkgerrors "github.com/microtasklabs/microtask-backend/pkg/errors"
)

// Service exposes the dashboard aggregates.
type Service interface {
	Admin(ctx context.Context) (*AdminStats, error)
	Buyer(ctx context.Context, buyerID uuid.UUID) (*BuyerStats, error)
	Worker(ctx context.Context, workerID uuid.UUID) (*WorkerStats, error)
}

type service struct {
	repo Repository
}

// NewService builds the stats service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "stats repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Admin(ctx context.Context) (*AdminStats, error) {
	out, err := s.repo.Admin(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "admin stats")
	}
	return out, nil
}

func (s *service) Buyer(ctx context.Context, buyerID uuid.UUID) (*BuyerStats, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	out, err := s.repo.Buyer(ctx, buyerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "buyer stats")
	}
	return out, nil
}

func (s *service) Worker(ctx context.Context, workerID uuid.UUID) (*WorkerStats, error) {
	if workerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	out, err := s.repo.Worker(ctx, workerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "worker stats")
	}
	return out, nil
}
