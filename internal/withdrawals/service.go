package withdrawals

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/microtasklabs/microtask-backend/internal/ledger"
	"github.com/microtasklabs/microtask-backend/internal/notifications"
	"github.com/microtasklabs/microtask-backend/pkg/config"
	"github.com/microtasklabs/microtask-backend/pkg/db/models"
	"github.com/microtasklabs/microtask-backend/pkg/enums"
	pkgerrors "github.com/microtasklabs/microtask-backend/pkg/errors"
	"github.com/microtasklabs/microtask-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines the cash-out workflow.
type Service interface {
	Request(ctx context.Context, input RequestInput) (*models.Withdrawal, error)
	Approve(ctx context.Context, withdrawalID uuid.UUID) (*models.Withdrawal, error)
	ListByWorker(ctx context.Context, workerID uuid.UUID) ([]models.Withdrawal, error)
	ListPending(ctx context.Context) ([]models.Withdrawal, error)
}

type service struct {
	repo          Repository
	tx            txRunner
	ledger        ledger.Ledger
	notifications notifications.Service
	cfg           config.WithdrawalConfig
	metrics       *metrics.WorkflowMetrics
}

// RequestInput captures a worker's cash-out request.
type RequestInput struct {
	WorkerID      uuid.UUID
	Coins         int
	PaymentSystem string
	AccountNumber string
}

// ServiceParams groups withdrawal service dependencies.
type ServiceParams struct {
	Repo          Repository
	Tx            txRunner
	Ledger        ledger.Ledger
	Notifications notifications.Service
	Config        config.WithdrawalConfig
	Metrics       *metrics.WorkflowMetrics
}

// NewService builds the withdrawal workflow service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "withdrawals repository required")
	}
	if params.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if params.Ledger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "ledger required")
	}
	if params.Notifications == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications service required")
	}
	if params.Config.MinimumCoins <= 0 || params.Config.CoinsPerUSD <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "withdrawal config required")
	}
	return &service{
		repo:          params.Repo,
		tx:            params.Tx,
		ledger:        params.Ledger,
		notifications: params.Notifications,
		cfg:           params.Config,
		metrics:       params.Metrics,
	}, nil
}

func (s *service) Request(ctx context.Context, input RequestInput) (*models.Withdrawal, error) {
	if input.WorkerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if strings.TrimSpace(input.PaymentSystem) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment system required")
	}
	if strings.TrimSpace(input.AccountNumber) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account number required")
	}
	if input.Coins < s.cfg.MinimumCoins {
		return nil, pkgerrors.New(pkgerrors.CodeBelowMinimum,
			fmt.Sprintf("minimum withdrawal is %d coins", s.cfg.MinimumCoins))
	}

	worker, err := s.repo.FindWorker(ctx, input.WorkerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load worker")
	}
	if worker == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "worker not found")
	}

	// Precondition only: coins are not held. The authoritative balance
	// check happens at approval as part of the conditional debit.
	if worker.Coins < input.Coins {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientFunds, "not enough coins")
	}

	amount := decimal.NewFromInt(int64(input.Coins)).
		Div(decimal.NewFromInt(int64(s.cfg.CoinsPerUSD))).
		Round(2)

	withdrawal := &models.Withdrawal{
		WorkerID:         worker.ID,
		WorkerName:       worker.Name,
		WorkerEmail:      worker.Email,
		WithdrawalCoin:   input.Coins,
		WithdrawalAmount: amount,
		PaymentSystem:    input.PaymentSystem,
		AccountNumber:    input.AccountNumber,
		Status:           enums.WithdrawalStatusPending,
	}
	if err := s.repo.Create(ctx, withdrawal); err != nil {
		s.metrics.IncFailure("withdrawal_request")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create withdrawal")
	}

	s.metrics.IncSuccess("withdrawal_request")
	return withdrawal, nil
}

func (s *service) Approve(ctx context.Context, withdrawalID uuid.UUID) (*models.Withdrawal, error) {
	if withdrawalID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "withdrawal id required")
	}

	var approved models.Withdrawal
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		withdrawal, err := repo.FindByID(ctx, withdrawalID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load withdrawal")
		}
		if withdrawal == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "withdrawal not found")
		}

		// Under concurrent approvals exactly one flip wins, so exactly
		// one debit runs.
		affected, err := repo.FlipToApproved(ctx, withdrawalID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "approve withdrawal")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeAlreadyProcessed, "withdrawal already processed")
		}

		if err := s.ledger.Debit(ctx, tx, withdrawal.WorkerID, withdrawal.WithdrawalCoin); err != nil {
			return err
		}

		approved = *withdrawal
		approved.Status = enums.WithdrawalStatusApproved
		return s.notifications.Record(ctx, tx, notifications.RecordInput{
			ToUserID:    withdrawal.WorkerID,
			ToEmail:     withdrawal.WorkerEmail,
			Message:     fmt.Sprintf("Your withdrawal of %d coins ($%s) was approved", withdrawal.WithdrawalCoin, withdrawal.WithdrawalAmount.StringFixed(2)),
			ActionRoute: "/dashboard/withdrawals",
		})
	})
	if err != nil {
		switch code := pkgerrors.As(err).Code(); code {
		case pkgerrors.CodeAlreadyProcessed, pkgerrors.CodeInsufficientFunds:
			s.metrics.IncRejected("withdrawal_approve")
		default:
			s.metrics.IncFailure("withdrawal_approve")
		}
		return nil, err
	}

	s.metrics.IncSuccess("withdrawal_approve")
	return &approved, nil
}

func (s *service) ListByWorker(ctx context.Context, workerID uuid.UUID) ([]models.Withdrawal, error) {
	if workerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	rows, err := s.repo.ListByWorker(ctx, workerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list withdrawals")
	}
	return rows, nil
}

func (s *service) ListPending(ctx context.Context) ([]models.Withdrawal, error) {
	rows, err := s.repo.ListPending(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending withdrawals")
	}
	return rows, nil
}
