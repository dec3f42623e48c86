package tasks

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/microtasklabs/microtask-backend/internal/ledger"
	"github.com/microtasklabs/microtask-backend/pkg/db/models"
	"github.com/microtasklabs/microtask-backend/pkg/enums"
	pkgerrors "github.com/microtasklabs/microtask-backend/pkg/errors"
	"github.com/microtasklabs/microtask-backend/pkg/metrics"
	"github.com/microtasklabs/microtask-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines the task lifecycle operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*CreateResult, error)
	Update(ctx context.Context, input UpdateInput) (*models.Task, error)
	Delete(ctx context.Context, input DeleteInput) (*DeleteResult, error)
	Get(ctx context.Context, taskID uuid.UUID) (*models.Task, error)
	ListOpen(ctx context.Context, params ListParams) (*ListResult, error)
	ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]models.Task, error)
	ListAll(ctx context.Context) ([]models.Task, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	ledger  ledger.Ledger
	metrics *metrics.WorkflowMetrics
}

// CreateInput captures a buyer's new task posting.
type CreateInput struct {
	BuyerID         uuid.UUID
	Title           string
	Detail          string
	RequiredWorkers int
	PayableAmount   int
	CompletionDate  time.Time
	SubmissionInfo  string
	ImageURL        string
}

// CreateResult returns the created task and the coins escrowed for it.
type CreateResult struct {
	Task          models.Task `json:"task"`
	CoinsDeducted int         `json:"coinsDeducted"`
}

// UpdateInput carries the buyer-editable task fields. Nil pointers mean
// "leave unchanged"; escrow-relevant fields are not editable.
type UpdateInput struct {
	TaskID         uuid.UUID
	BuyerID        uuid.UUID
	Title          *string
	Detail         *string
	SubmissionInfo *string
}

// DeleteInput identifies the task and the acting user.
type DeleteInput struct {
	TaskID    uuid.UUID
	ActorID   uuid.UUID
	ActorRole enums.UserRole
}

// DeleteResult reports the escrow returned to the buyer.
type DeleteResult struct {
	RefundedCoins int `json:"refundedCoins"`
}

// ListParams configures open-task pagination.
type ListParams struct {
	Limit  int
	Cursor string
}

// ListResult wraps a page of tasks plus the next cursor.
type ListResult struct {
	Items  []models.Task `json:"items"`
	Cursor string        `json:"cursor"`
}

// NewService builds a task service with the required dependencies.
func NewService(repo Repository, tx txRunner, ldgr ledger.Ledger, workflowMetrics *metrics.WorkflowMetrics) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "tasks repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if ldgr == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "ledger required")
	}
	return &service{
		repo:    repo,
		tx:      tx,
		ledger:  ldgr,
		metrics: workflowMetrics,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*CreateResult, error) {
	if input.BuyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "task title required")
	}
	if input.RequiredWorkers <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "required workers must be positive")
	}
	if input.PayableAmount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payable amount must be positive")
	}
	if input.CompletionDate.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "completion date required")
	}

	totalCost := input.RequiredWorkers * input.PayableAmount

	var created models.Task
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		buyer, err := repo.FindBuyer(ctx, input.BuyerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load buyer")
		}
		if buyer == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "buyer not found")
		}

		// Debit first: the conditional update is the funds check.
		if err := s.ledger.Debit(ctx, tx, input.BuyerID, totalCost); err != nil {
			return err
		}

		created = models.Task{
			Title:           input.Title,
			Detail:          input.Detail,
			RequiredWorkers: input.RequiredWorkers,
			PayableAmount:   input.PayableAmount,
			CompletionDate:  input.CompletionDate.UTC(),
			SubmissionInfo:  input.SubmissionInfo,
			ImageURL:        input.ImageURL,
			BuyerID:         buyer.ID,
			BuyerName:       buyer.Name,
			BuyerEmail:      buyer.Email,
		}
		if err := repo.Create(ctx, &created); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create task")
		}
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeInsufficientFunds {
			s.metrics.IncRejected("task_create")
		} else {
			s.metrics.IncFailure("task_create")
		}
		return nil, err
	}

	s.metrics.IncSuccess("task_create")
	return &CreateResult{Task: created, CoinsDeducted: totalCost}, nil
}

func (s *service) Update(ctx context.Context, input UpdateInput) (*models.Task, error) {
	if input.TaskID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "task id required")
	}
	if input.BuyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	updates := map[string]any{}
	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "task title cannot be empty")
		}
		updates["title"] = *input.Title
	}
	if input.Detail != nil {
		updates["detail"] = *input.Detail
	}
	if input.SubmissionInfo != nil {
		updates["submission_info"] = *input.SubmissionInfo
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no updatable fields provided")
	}

	affected, err := s.repo.UpdateFields(ctx, input.TaskID, input.BuyerID, updates)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update task")
	}
	if affected == 0 {
		// Absent and not-yours are indistinguishable on purpose.
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "task not found")
	}

	task, err := s.repo.FindByID(ctx, input.TaskID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload task")
	}
	if task == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "task not found")
	}
	return task, nil
}

func (s *service) Delete(ctx context.Context, input DeleteInput) (*DeleteResult, error) {
	if input.TaskID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "task id required")
	}
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	refunded := 0
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		task, err := repo.FindByID(ctx, input.TaskID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load task")
		}
		if task == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "task not found")
		}
		if input.ActorRole != enums.UserRoleAdmin && task.BuyerID != input.ActorID {
			return pkgerrors.New(pkgerrors.CodeNotFound, "task not found")
		}

		// Pending submissions would otherwise race the refund: a late
		// approval could pay out coins that were already returned.
		rejected, err := repo.RejectPendingSubmissions(ctx, input.TaskID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reject pending submissions")
		}

		// Each rejected submission hands its reserved slot back, so its
		// escrow returns to the buyer along with the untaken slots.
		refunded = (task.RequiredWorkers + int(rejected)) * task.PayableAmount
		if refunded > 0 {
			if err := s.ledger.Credit(ctx, tx, task.BuyerID, refunded); err != nil {
				return err
			}
		}

		if err := repo.Delete(ctx, input.TaskID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete task")
		}
		return nil
	})
	if err != nil {
		s.metrics.IncFailure("task_delete")
		return nil, err
	}

	s.metrics.IncSuccess("task_delete")
	return &DeleteResult{RefundedCoins: refunded}, nil
}

func (s *service) Get(ctx context.Context, taskID uuid.UUID) (*models.Task, error) {
	if taskID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "task id required")
	}

	task, err := s.repo.FindByID(ctx, taskID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load task")
	}
	if task == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "task not found")
	}
	return task, nil
}

func (s *service) ListOpen(ctx context.Context, params ListParams) (*ListResult, error) {
	var cursor *pagination.Cursor
	if params.Cursor != "" {
		parsed, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		cursor = parsed
	}

	tasks, next, err := s.repo.ListOpen(ctx, params.Limit, cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list open tasks")
	}

	encoded := ""
	if next != nil {
		encoded = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: tasks, Cursor: encoded}, nil
}

func (s *service) ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]models.Task, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	tasks, err := s.repo.ListByBuyer(ctx, buyerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list buyer tasks")
	}
	return tasks, nil
}

func (s *service) ListAll(ctx context.Context) ([]models.Task, error) {
	tasks, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list tasks")
	}
	return tasks, nil
}
