package withdrawals

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/microtasklabs/microtask-backend/internal/notifications"
	"github.com/microtasklabs/microtask-backend/pkg/config"
	"github.com/microtasklabs/microtask-backend/pkg/db/models"
	"github.com/microtasklabs/microtask-backend/pkg/enums"
	pkgerrors "github.com/microtasklabs/microtask-backend/pkg/errors"
)

type fakeWithdrawalsRepo struct {
	createFn       func(ctx context.Context, withdrawal *models.Withdrawal) error
	findByIDFn     func(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error)
	findWorkerFn   func(ctx context.Context, id uuid.UUID) (*models.User, error)
	flipFn         func(ctx context.Context, id uuid.UUID) (int64, error)
	listByWorkerFn func(ctx context.Context, workerID uuid.UUID) ([]models.Withdrawal, error)
	listPendingFn  func(ctx context.Context) ([]models.Withdrawal, error)
}

func (f *fakeWithdrawalsRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeWithdrawalsRepo) Create(ctx context.Context, withdrawal *models.Withdrawal) error {
	if f.createFn != nil {
		return f.createFn(ctx, withdrawal)
	}
	withdrawal.ID = uuid.New()
	return nil
}

func (f *fakeWithdrawalsRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (f *fakeWithdrawalsRepo) FindWorker(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if f.findWorkerFn != nil {
		return f.findWorkerFn(ctx, id)
	}
	return nil, nil
}

func (f *fakeWithdrawalsRepo) FlipToApproved(ctx context.Context, id uuid.UUID) (int64, error) {
	if f.flipFn != nil {
		return f.flipFn(ctx, id)
	}
	return 0, nil
}

func (f *fakeWithdrawalsRepo) ListByWorker(ctx context.Context, workerID uuid.UUID) ([]models.Withdrawal, error) {
	if f.listByWorkerFn != nil {
		return f.listByWorkerFn(ctx, workerID)
	}
	return nil, nil
}

func (f *fakeWithdrawalsRepo) ListPending(ctx context.Context) ([]models.Withdrawal, error) {
	if f.listPendingFn != nil {
		return f.listPendingFn(ctx)
	}
	return nil, nil
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeLedger struct {
	balances map[uuid.UUID]int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{balances: map[uuid.UUID]int{}}
}

func (f *fakeLedger) Credit(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amount int) error {
	f.balances[userID] += amount
	return nil
}

func (f *fakeLedger) Debit(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amount int) error {
	if f.balances[userID] < amount {
		return pkgerrors.New(pkgerrors.CodeInsufficientFunds, "not enough coins")
	}
	f.balances[userID] -= amount
	return nil
}

type fakeNotifications struct {
	recorded []notifications.RecordInput
}

func (f *fakeNotifications) Record(ctx context.Context, tx *gorm.DB, input notifications.RecordInput) error {
	f.recorded = append(f.recorded, input)
	return nil
}

func (f *fakeNotifications) List(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
	return &notifications.ListResult{}, nil
}

func (f *fakeNotifications) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return 0, nil
}

func (f *fakeNotifications) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	return nil
}

func (f *fakeNotifications) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return 0, nil
}

func testConfig() config.WithdrawalConfig {
	return config.WithdrawalConfig{MinimumCoins: 200, CoinsPerUSD: 20}
}

func newWithdrawalService(t *testing.T, repo Repository, ldgr *fakeLedger, sink *fakeNotifications) Service {
	t.Helper()
	if sink == nil {
		sink = &fakeNotifications{}
	}
	svc, err := NewService(ServiceParams{
		Repo:          repo,
		Tx:            fakeTxRunner{},
		Ledger:        ldgr,
		Notifications: sink,
		Config:        testConfig(),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func worker(id uuid.UUID, coins int) *models.User {
	return &models.User{ID: id, Name: "Wes Worker", Email: "wes@example.com", Role: enums.UserRoleWorker, Coins: coins}
}

func TestRequestBelowMinimumRejected(t *testing.T) {
	workerID := uuid.New()
	repo := &fakeWithdrawalsRepo{
		findWorkerFn: func(ctx context.Context, id uuid.UUID) (*models.User, error) {
			return worker(id, 1000), nil
		},
	}
	svc := newWithdrawalService(t, repo, newFakeLedger(), nil)

	_, err := svc.Request(context.Background(), RequestInput{
		WorkerID:      workerID,
		Coins:         199,
		PaymentSystem: "bkash",
		AccountNumber: "0123456789",
	})
	if pkgerrors.As(err).Code() != pkgerrors.CodeBelowMinimum {
		t.Fatalf("expected below minimum, got %v", err)
	}
}

func TestRequestOverBalanceRejected(t *testing.T) {
	repo := &fakeWithdrawalsRepo{
		findWorkerFn: func(ctx context.Context, id uuid.UUID) (*models.User, error) {
			return worker(id, 150), nil
		},
	}
	svc := newWithdrawalService(t, repo, newFakeLedger(), nil)

	_, err := svc.Request(context.Background(), RequestInput{
		WorkerID:      uuid.New(),
		Coins:         200,
		PaymentSystem: "bkash",
		AccountNumber: "0123456789",
	})
	if pkgerrors.As(err).Code() != pkgerrors.CodeInsufficientFunds {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
}

func TestRequestComputesCashAmount(t *testing.T) {
	repo := &fakeWithdrawalsRepo{
		findWorkerFn: func(ctx context.Context, id uuid.UUID) (*models.User, error) {
			return worker(id, 1000), nil
		},
	}
	svc := newWithdrawalService(t, repo, newFakeLedger(), nil)

	withdrawal, err := svc.Request(context.Background(), RequestInput{
		WorkerID:      uuid.New(),
		Coins:         250,
		PaymentSystem: "nagad",
		AccountNumber: "0123456789",
	})
	if err != nil {
		t.Fatalf("unexpected request error: %v", err)
	}
	if withdrawal.Status != enums.WithdrawalStatusPending {
		t.Fatalf("expected pending status, got %s", withdrawal.Status)
	}
	// 250 coins at 20 coins per dollar.
	if !withdrawal.WithdrawalAmount.Equal(decimal.RequireFromString("12.50")) {
		t.Fatalf("expected 12.50, got %s", withdrawal.WithdrawalAmount)
	}
	if withdrawal.WorkerName != "Wes Worker" {
		t.Fatalf("worker snapshot missing: %+v", withdrawal)
	}
}

func TestRequestDoesNotHoldCoins(t *testing.T) {
	workerID := uuid.New()
	ldgr := newFakeLedger()
	ldgr.balances[workerID] = 1000
	repo := &fakeWithdrawalsRepo{
		findWorkerFn: func(ctx context.Context, id uuid.UUID) (*models.User, error) {
			return worker(id, 1000), nil
		},
	}
	svc := newWithdrawalService(t, repo, ldgr, nil)

	if _, err := svc.Request(context.Background(), RequestInput{
		WorkerID:      workerID,
		Coins:         500,
		PaymentSystem: "bkash",
		AccountNumber: "0123456789",
	}); err != nil {
		t.Fatalf("unexpected request error: %v", err)
	}
	if ldgr.balances[workerID] != 1000 {
		t.Fatalf("request must not move coins, got %d", ldgr.balances[workerID])
	}
}

func TestApproveDebitsExactlyOnce(t *testing.T) {
	workerID := uuid.New()
	withdrawalID := uuid.New()
	ldgr := newFakeLedger()
	ldgr.balances[workerID] = 500
	sink := &fakeNotifications{}

	flips := 0
	repo := &fakeWithdrawalsRepo{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error) {
			return &models.Withdrawal{
				ID:               withdrawalID,
				WorkerID:         workerID,
				WorkerEmail:      "wes@example.com",
				WithdrawalCoin:   300,
				WithdrawalAmount: decimal.RequireFromString("15.00"),
				Status:           enums.WithdrawalStatusPending,
			}, nil
		},
		flipFn: func(ctx context.Context, id uuid.UUID) (int64, error) {
			flips++
			if flips == 1 {
				return 1, nil
			}
			return 0, nil
		},
	}
	svc := newWithdrawalService(t, repo, ldgr, sink)

	approved, err := svc.Approve(context.Background(), withdrawalID)
	if err != nil {
		t.Fatalf("unexpected approve error: %v", err)
	}
	if approved == nil || approved.Status != enums.WithdrawalStatusApproved {
		t.Fatalf("expected approved withdrawal back, got %+v", approved)
	}
	if ldgr.balances[workerID] != 200 {
		t.Fatalf("expected balance 200 after debit, got %d", ldgr.balances[workerID])
	}
	if len(sink.recorded) != 1 || sink.recorded[0].ToUserID != workerID {
		t.Fatalf("expected worker notification, got %+v", sink.recorded)
	}

	// A replayed approval loses the guarded flip.
	_, err = svc.Approve(context.Background(), withdrawalID)
	if pkgerrors.As(err).Code() != pkgerrors.CodeAlreadyProcessed {
		t.Fatalf("expected already processed, got %v", err)
	}
	if ldgr.balances[workerID] != 200 {
		t.Fatalf("worker must not be debited twice, got %d", ldgr.balances[workerID])
	}
}

func TestApproveSpentBalanceFailsDebit(t *testing.T) {
	workerID := uuid.New()
	ldgr := newFakeLedger()
	ldgr.balances[workerID] = 100

	repo := &fakeWithdrawalsRepo{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error) {
			return &models.Withdrawal{
				ID:             id,
				WorkerID:       workerID,
				WithdrawalCoin: 300,
				Status:         enums.WithdrawalStatusPending,
			}, nil
		},
		flipFn: func(ctx context.Context, id uuid.UUID) (int64, error) {
			return 1, nil
		},
	}
	svc := newWithdrawalService(t, repo, ldgr, nil)

	_, err := svc.Approve(context.Background(), uuid.New())
	if pkgerrors.As(err).Code() != pkgerrors.CodeInsufficientFunds {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	if ldgr.balances[workerID] != 100 {
		t.Fatalf("balance must be untouched, got %d", ldgr.balances[workerID])
	}
}

func TestApproveMissingWithdrawalIsNotFound(t *testing.T) {
	svc := newWithdrawalService(t, &fakeWithdrawalsRepo{}, newFakeLedger(), nil)

	_, err := svc.Approve(context.Background(), uuid.New())
	if pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
