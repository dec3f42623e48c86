package submissions

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/microtasklabs/microtask-backend/internal/notifications"
	"github.com/microtasklabs/microtask-backend/pkg/db/models"
	"github.com/microtasklabs/microtask-backend/pkg/enums"
	pkgerrors "github.com/microtasklabs/microtask-backend/pkg/errors"
	"github.com/microtasklabs/microtask-backend/pkg/pagination"
)

type fakeSubmissionsRepo struct {
	createFn             func(ctx context.Context, submission *models.Submission) error
	findByIDFn           func(ctx context.Context, id uuid.UUID) (*models.Submission, error)
	findTaskFn           func(ctx context.Context, id uuid.UUID) (*models.Task, error)
	findWorkerFn         func(ctx context.Context, id uuid.UUID) (*models.User, error)
	decrementFn          func(ctx context.Context, taskID uuid.UUID) (int64, error)
	incrementFn          func(ctx context.Context, taskID uuid.UUID) (int64, error)
	flipStatusFn         func(ctx context.Context, submissionID, buyerID uuid.UUID, to enums.SubmissionStatus) (int64, error)
	listByWorkerFn       func(ctx context.Context, params listByWorkerParams) ([]models.Submission, *pagination.Cursor, error)
	listPendingByBuyerFn func(ctx context.Context, buyerID uuid.UUID) ([]models.Submission, error)
	incrementedTaskIDs   []uuid.UUID
}

func (f *fakeSubmissionsRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeSubmissionsRepo) Create(ctx context.Context, submission *models.Submission) error {
	if f.createFn != nil {
		return f.createFn(ctx, submission)
	}
	submission.ID = uuid.New()
	return nil
}

func (f *fakeSubmissionsRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Submission, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (f *fakeSubmissionsRepo) FindTask(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	if f.findTaskFn != nil {
		return f.findTaskFn(ctx, id)
	}
	return nil, nil
}

func (f *fakeSubmissionsRepo) FindWorker(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if f.findWorkerFn != nil {
		return f.findWorkerFn(ctx, id)
	}
	return &models.User{ID: id, Name: "Worker", Email: "worker@example.com", Role: enums.UserRoleWorker}, nil
}

func (f *fakeSubmissionsRepo) DecrementTaskSlot(ctx context.Context, taskID uuid.UUID) (int64, error) {
	if f.decrementFn != nil {
		return f.decrementFn(ctx, taskID)
	}
	return 1, nil
}

func (f *fakeSubmissionsRepo) IncrementTaskSlot(ctx context.Context, taskID uuid.UUID) (int64, error) {
	f.incrementedTaskIDs = append(f.incrementedTaskIDs, taskID)
	if f.incrementFn != nil {
		return f.incrementFn(ctx, taskID)
	}
	return 1, nil
}

func (f *fakeSubmissionsRepo) FlipStatus(ctx context.Context, submissionID, buyerID uuid.UUID, to enums.SubmissionStatus) (int64, error) {
	if f.flipStatusFn != nil {
		return f.flipStatusFn(ctx, submissionID, buyerID, to)
	}
	return 0, nil
}

func (f *fakeSubmissionsRepo) ListByWorker(ctx context.Context, params listByWorkerParams) ([]models.Submission, *pagination.Cursor, error) {
	if f.listByWorkerFn != nil {
		return f.listByWorkerFn(ctx, params)
	}
	return nil, nil, nil
}

func (f *fakeSubmissionsRepo) ListPendingByBuyer(ctx context.Context, buyerID uuid.UUID) ([]models.Submission, error) {
	if f.listPendingByBuyerFn != nil {
		return f.listPendingByBuyerFn(ctx, buyerID)
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
	if amount <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "credit amount must be positive")
	}
	f.balances[userID] += amount
	return nil
}

func (f *fakeLedger) Debit(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amount int) error {
	if amount <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "debit amount must be positive")
	}
	if f.balances[userID] < amount {
		return pkgerrors.New(pkgerrors.CodeInsufficientFunds, "not enough coins")
	}
	f.balances[userID] -= amount
	return nil
}

type recordedNotification struct {
	notifications.RecordInput
}

type fakeNotifications struct {
	recorded []recordedNotification
}

func (f *fakeNotifications) Record(ctx context.Context, tx *gorm.DB, input notifications.RecordInput) error {
	f.recorded = append(f.recorded, recordedNotification{input})
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

func newSubmissionService(t *testing.T, repo Repository, ldgr *fakeLedger, sink *fakeNotifications) Service {
	t.Helper()
	if sink == nil {
		sink = &fakeNotifications{}
	}
	svc, err := NewService(ServiceParams{
		Repo:          repo,
		Tx:            fakeTxRunner{},
		Ledger:        ldgr,
		Notifications: sink,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func pendingTask(buyerID uuid.UUID) *models.Task {
	return &models.Task{
		ID:              uuid.New(),
		Title:           "Review my app listing",
		RequiredWorkers: 3,
		PayableAmount:   100,
		BuyerID:         buyerID,
		BuyerName:       "Ada Buyer",
		BuyerEmail:      "ada@example.com",
	}
}

func TestSubmitCreatesPendingSubmissionAndNotifiesBuyer(t *testing.T) {
	buyerID := uuid.New()
	workerID := uuid.New()
	task := pendingTask(buyerID)

	sink := &fakeNotifications{}
	repo := &fakeSubmissionsRepo{
		findTaskFn: func(ctx context.Context, id uuid.UUID) (*models.Task, error) {
			return task, nil
		},
	}
	svc := newSubmissionService(t, repo, newFakeLedger(), sink)

	created, err := svc.Submit(context.Background(), SubmitInput{
		WorkerID: workerID,
		TaskID:   task.ID,
		Details:  "screenshot attached",
	})
	if err != nil {
		t.Fatalf("unexpected submit error: %v", err)
	}
	if created.Status != enums.SubmissionStatusPending {
		t.Fatalf("expected pending status, got %s", created.Status)
	}
	if created.PayableAmount != 100 || created.TaskTitle != task.Title {
		t.Fatalf("task snapshot missing: %+v", created)
	}
	if created.BuyerID != buyerID {
		t.Fatalf("buyer snapshot missing: %+v", created)
	}
	if len(sink.recorded) != 1 || sink.recorded[0].ToUserID != buyerID {
		t.Fatalf("expected buyer notification, got %+v", sink.recorded)
	}
}

func TestSubmitFullTaskReturnsNoSlots(t *testing.T) {
	buyerID := uuid.New()
	task := pendingTask(buyerID)
	task.RequiredWorkers = 0

	repo := &fakeSubmissionsRepo{
		findTaskFn: func(ctx context.Context, id uuid.UUID) (*models.Task, error) {
			return task, nil
		},
		decrementFn: func(ctx context.Context, taskID uuid.UUID) (int64, error) {
			return 0, nil
		},
	}
	svc := newSubmissionService(t, repo, newFakeLedger(), nil)

	_, err := svc.Submit(context.Background(), SubmitInput{
		WorkerID: uuid.New(),
		TaskID:   task.ID,
		Details:  "work done",
	})
	if pkgerrors.As(err).Code() != pkgerrors.CodeNoSlotsAvailable {
		t.Fatalf("expected no slots error, got %v", err)
	}
}

func TestSubmitDuplicateReturnsDuplicateSubmission(t *testing.T) {
	task := pendingTask(uuid.New())
	repo := &fakeSubmissionsRepo{
		findTaskFn: func(ctx context.Context, id uuid.UUID) (*models.Task, error) {
			return task, nil
		},
		createFn: func(ctx context.Context, submission *models.Submission) error {
			return gorm.ErrDuplicatedKey
		},
	}
	svc := newSubmissionService(t, repo, newFakeLedger(), nil)

	_, err := svc.Submit(context.Background(), SubmitInput{
		WorkerID: uuid.New(),
		TaskID:   task.ID,
		Details:  "work done",
	})
	if pkgerrors.As(err).Code() != pkgerrors.CodeDuplicateSubmission {
		t.Fatalf("expected duplicate submission error, got %v", err)
	}
}

func TestSubmitMissingTaskIsNotFound(t *testing.T) {
	svc := newSubmissionService(t, &fakeSubmissionsRepo{}, newFakeLedger(), nil)

	_, err := svc.Submit(context.Background(), SubmitInput{
		WorkerID: uuid.New(),
		TaskID:   uuid.New(),
		Details:  "work done",
	})
	if pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestApproveCreditsWorkerOnce(t *testing.T) {
	buyerID := uuid.New()
	workerID := uuid.New()
	submissionID := uuid.New()
	ldgr := newFakeLedger()
	sink := &fakeNotifications{}

	flips := 0
	repo := &fakeSubmissionsRepo{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (*models.Submission, error) {
			return &models.Submission{
				ID:            submissionID,
				WorkerID:      workerID,
				WorkerEmail:   "worker@example.com",
				BuyerID:       buyerID,
				TaskTitle:     "Review my app listing",
				PayableAmount: 100,
				Status:        enums.SubmissionStatusPending,
			}, nil
		},
		flipStatusFn: func(ctx context.Context, id, buyer uuid.UUID, to enums.SubmissionStatus) (int64, error) {
			flips++
			if flips == 1 {
				return 1, nil
			}
			return 0, nil
		},
	}
	svc := newSubmissionService(t, repo, ldgr, sink)

	approved, err := svc.Approve(context.Background(), buyerID, submissionID)
	if err != nil {
		t.Fatalf("unexpected approve error: %v", err)
	}
	if approved == nil || approved.Status != enums.SubmissionStatusApproved {
		t.Fatalf("expected approved submission back, got %+v", approved)
	}
	if ldgr.balances[workerID] != 100 {
		t.Fatalf("expected worker credited 100, got %d", ldgr.balances[workerID])
	}
	if len(sink.recorded) != 1 || sink.recorded[0].ToUserID != workerID {
		t.Fatalf("expected worker notification, got %+v", sink.recorded)
	}

	// Second approval loses the guarded flip and must not double-pay.
	_, err = svc.Approve(context.Background(), buyerID, submissionID)
	if pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found on replay, got %v", err)
	}
	if ldgr.balances[workerID] != 100 {
		t.Fatalf("worker must not be paid twice, got %d", ldgr.balances[workerID])
	}
}

func TestApproveByWrongBuyerIsNotFound(t *testing.T) {
	repo := &fakeSubmissionsRepo{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (*models.Submission, error) {
			return &models.Submission{ID: id, BuyerID: uuid.New(), Status: enums.SubmissionStatusPending}, nil
		},
		flipStatusFn: func(ctx context.Context, id, buyer uuid.UUID, to enums.SubmissionStatus) (int64, error) {
			return 0, nil
		},
	}
	svc := newSubmissionService(t, repo, newFakeLedger(), nil)

	_, err := svc.Approve(context.Background(), uuid.New(), uuid.New())
	if pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRejectRestoresSlotAndMovesNoCoins(t *testing.T) {
	buyerID := uuid.New()
	workerID := uuid.New()
	taskID := uuid.New()
	ldgr := newFakeLedger()
	sink := &fakeNotifications{}

	repo := &fakeSubmissionsRepo{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (*models.Submission, error) {
			return &models.Submission{
				ID:            id,
				TaskID:        taskID,
				WorkerID:      workerID,
				BuyerID:       buyerID,
				TaskTitle:     "Review my app listing",
				PayableAmount: 100,
				Status:        enums.SubmissionStatusPending,
			}, nil
		},
		flipStatusFn: func(ctx context.Context, id, buyer uuid.UUID, to enums.SubmissionStatus) (int64, error) {
			if to != enums.SubmissionStatusRejected {
				t.Fatalf("expected rejected flip, got %s", to)
			}
			return 1, nil
		},
	}
	svc := newSubmissionService(t, repo, ldgr, sink)

	rejected, err := svc.Reject(context.Background(), buyerID, uuid.New())
	if err != nil {
		t.Fatalf("unexpected reject error: %v", err)
	}
	if rejected == nil || rejected.Status != enums.SubmissionStatusRejected {
		t.Fatalf("expected rejected submission back, got %+v", rejected)
	}
	if ldgr.balances[workerID] != 0 {
		t.Fatalf("rejection must not move coins, got %d", ldgr.balances[workerID])
	}
	if len(repo.incrementedTaskIDs) != 1 || repo.incrementedTaskIDs[0] != taskID {
		t.Fatalf("expected slot restored for task, got %v", repo.incrementedTaskIDs)
	}
	if len(sink.recorded) != 1 || sink.recorded[0].ToUserID != workerID {
		t.Fatalf("expected worker notification, got %+v", sink.recorded)
	}
}

func TestListApprovedByWorkerFiltersStatus(t *testing.T) {
	workerID := uuid.New()
	repo := &fakeSubmissionsRepo{
		listByWorkerFn: func(ctx context.Context, params listByWorkerParams) ([]models.Submission, *pagination.Cursor, error) {
			if params.Status == nil || *params.Status != enums.SubmissionStatusApproved {
				t.Fatalf("expected approved filter, got %v", params.Status)
			}
			return []models.Submission{{ID: uuid.New(), Status: enums.SubmissionStatusApproved}}, nil, nil
		},
	}
	svc := newSubmissionService(t, repo, newFakeLedger(), nil)

	result, err := svc.ListApprovedByWorker(context.Background(), WorkerListParams{WorkerID: workerID})
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	if len(result.Items) != 1 {
		t.Fatalf("expected 1 submission, got %d", len(result.Items))
	}
}
