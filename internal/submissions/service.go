package submissions

import (
	"context"
	stdErrors "errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/microtasklabs/microtask-backend/internal/email"
	"github.com/microtasklabs/microtask-backend/internal/ledger"
	"github.com/microtasklabs/microtask-backend/internal/notifications"
	"github.com/microtasklabs/microtask-backend/pkg/db/models"
	"github.com/microtasklabs/microtask-backend/pkg/enums"
	pkgerrors "github.com/microtasklabs/microtask-backend/pkg/errors"
	"github.com/microtasklabs/microtask-backend/pkg/logger"
	"github.com/microtasklabs/microtask-backend/pkg/metrics"
	"github.com/microtasklabs/microtask-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines the submission review workflow.
type Service interface {
	Submit(ctx context.Context, input SubmitInput) (*models.Submission, error)
	Approve(ctx context.Context, buyerID, submissionID uuid.UUID) (*models.Submission, error)
	Reject(ctx context.Context, buyerID, submissionID uuid.UUID) (*models.Submission, error)
	ListByWorker(ctx context.Context, params WorkerListParams) (*ListResult, error)
	ListApprovedByWorker(ctx context.Context, params WorkerListParams) (*ListResult, error)
	ListPendingByBuyer(ctx context.Context, buyerID uuid.UUID) ([]models.Submission, error)
}

type service struct {
	repo          Repository
	tx            txRunner
	ledger        ledger.Ledger
	notifications notifications.Service
	sender        email.Sender
	logg          *logger.Logger
	metrics       *metrics.WorkflowMetrics
}

// SubmitInput captures one worker's claim on a task slot.
type SubmitInput struct {
	WorkerID uuid.UUID
	TaskID   uuid.UUID
	Details  string
}

// WorkerListParams configures worker-side submission pagination.
type WorkerListParams struct {
	WorkerID uuid.UUID
	Limit    int
	Cursor   string
}

// ListResult wraps a page of submissions plus the next cursor.
type ListResult struct {
	Items  []models.Submission `json:"items"`
	Cursor string              `json:"cursor"`
}

// ServiceParams groups submission service dependencies.
type ServiceParams struct {
	Repo          Repository
	Tx            txRunner
	Ledger        ledger.Ledger
	Notifications notifications.Service
	Sender        email.Sender
	Logger        *logger.Logger
	Metrics       *metrics.WorkflowMetrics
}

// NewService builds the submission workflow service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "submissions repository required")
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
	return &service{
		repo:          params.Repo,
		tx:            params.Tx,
		ledger:        params.Ledger,
		notifications: params.Notifications,
		sender:        params.Sender,
		logg:          params.Logger,
		metrics:       params.Metrics,
	}, nil
}

func (s *service) Submit(ctx context.Context, input SubmitInput) (*models.Submission, error) {
	if input.WorkerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.TaskID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "task id required")
	}
	if strings.TrimSpace(input.Details) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "submission details required")
	}

	var created models.Submission
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		task, err := repo.FindTask(ctx, input.TaskID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load task")
		}
		if task == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "task not found")
		}

		worker, err := repo.FindWorker(ctx, input.WorkerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load worker")
		}
		if worker == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "worker not found")
		}

		// Slot check and decrement are one statement; concurrent submits
		// past the last slot lose here, not at read time.
		affected, err := repo.DecrementTaskSlot(ctx, input.TaskID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve task slot")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeNoSlotsAvailable, "no more workers needed for this task")
		}

		created = models.Submission{
			TaskID:            task.ID,
			TaskTitle:         task.Title,
			PayableAmount:     task.PayableAmount,
			WorkerID:          worker.ID,
			WorkerName:        worker.Name,
			WorkerEmail:       worker.Email,
			BuyerID:           task.BuyerID,
			BuyerName:         task.BuyerName,
			BuyerEmail:        task.BuyerEmail,
			SubmissionDetails: input.Details,
			Status:            enums.SubmissionStatusPending,
		}
		if err := repo.Create(ctx, &created); err != nil {
			if isDuplicateSubmission(err) {
				return pkgerrors.New(pkgerrors.CodeDuplicateSubmission, "already submitted for this task")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create submission")
		}

		return s.notifications.Record(ctx, tx, notifications.RecordInput{
			ToUserID:    task.BuyerID,
			ToEmail:     task.BuyerEmail,
			Message:     fmt.Sprintf("%s submitted work for %q", worker.Name, task.Title),
			ActionRoute: "/dashboard/review-submissions",
		})
	})
	if err != nil {
		switch code := pkgerrors.As(err).Code(); code {
		case pkgerrors.CodeNoSlotsAvailable, pkgerrors.CodeDuplicateSubmission:
			s.metrics.IncRejected("submission_submit")
		default:
			s.metrics.IncFailure("submission_submit")
		}
		return nil, err
	}

	s.metrics.IncSuccess("submission_submit")
	return &created, nil
}

func (s *service) Approve(ctx context.Context, buyerID, submissionID uuid.UUID) (*models.Submission, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if submissionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "submission id required")
	}

	var approved models.Submission
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		submission, err := repo.FindByID(ctx, submissionID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load submission")
		}
		if submission == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "submission not found")
		}

		// The guarded flip is the only gate: ownership mismatch and an
		// already-settled status both show up as zero rows.
		affected, err := repo.FlipStatus(ctx, submissionID, buyerID, enums.SubmissionStatusApproved)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "approve submission")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "submission not found")
		}

		if err := s.ledger.Credit(ctx, tx, submission.WorkerID, submission.PayableAmount); err != nil {
			return err
		}

		approved = *submission
		approved.Status = enums.SubmissionStatusApproved
		return s.notifications.Record(ctx, tx, notifications.RecordInput{
			ToUserID:    submission.WorkerID,
			ToEmail:     submission.WorkerEmail,
			Message:     fmt.Sprintf("Your submission for %q was approved: %d coins earned", submission.TaskTitle, submission.PayableAmount),
			ActionRoute: "/dashboard/my-submissions",
		})
	})
	if err != nil {
		s.metrics.IncFailure("submission_approve")
		return nil, err
	}

	s.metrics.IncSuccess("submission_approve")
	email.SendAsync(ctx, s.sender, s.logg, email.Message{
		To:      approved.WorkerEmail,
		Subject: "Submission approved",
		Body:    fmt.Sprintf("Your work on %q earned %d coins.", approved.TaskTitle, approved.PayableAmount),
	})
	return &approved, nil
}

func (s *service) Reject(ctx context.Context, buyerID, submissionID uuid.UUID) (*models.Submission, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if submissionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "submission id required")
	}

	var rejected models.Submission
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		submission, err := repo.FindByID(ctx, submissionID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load submission")
		}
		if submission == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "submission not found")
		}

		affected, err := repo.FlipStatus(ctx, submissionID, buyerID, enums.SubmissionStatusRejected)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reject submission")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "submission not found")
		}

		// The slot opens back up for another worker.
		if _, err := repo.IncrementTaskSlot(ctx, submission.TaskID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore task slot")
		}

		rejected = *submission
		rejected.Status = enums.SubmissionStatusRejected
		return s.notifications.Record(ctx, tx, notifications.RecordInput{
			ToUserID:    submission.WorkerID,
			ToEmail:     submission.WorkerEmail,
			Message:     fmt.Sprintf("Your submission for %q was rejected", submission.TaskTitle),
			ActionRoute: "/dashboard/my-submissions",
		})
	})
	if err != nil {
		s.metrics.IncFailure("submission_reject")
		return nil, err
	}

	s.metrics.IncSuccess("submission_reject")
	email.SendAsync(ctx, s.sender, s.logg, email.Message{
		To:      rejected.WorkerEmail,
		Subject: "Submission rejected",
		Body:    fmt.Sprintf("Your work on %q was not accepted.", rejected.TaskTitle),
	})
	return &rejected, nil
}

func (s *service) ListByWorker(ctx context.Context, params WorkerListParams) (*ListResult, error) {
	return s.listForWorker(ctx, params, nil)
}

func (s *service) ListApprovedByWorker(ctx context.Context, params WorkerListParams) (*ListResult, error) {
	status := enums.SubmissionStatusApproved
	return s.listForWorker(ctx, params, &status)
}

func (s *service) listForWorker(ctx context.Context, params WorkerListParams, status *enums.SubmissionStatus) (*ListResult, error) {
	if params.WorkerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	query := listByWorkerParams{
		WorkerID: params.WorkerID,
		Limit:    params.Limit,
		Status:   status,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.ListByWorker(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list submissions")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: rows, Cursor: cursor}, nil
}

func (s *service) ListPendingByBuyer(ctx context.Context, buyerID uuid.UUID) ([]models.Submission, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	rows, err := s.repo.ListPendingByBuyer(ctx, buyerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending submissions")
	}
	return rows, nil
}

func isDuplicateSubmission(err error) bool {
	if pkgerrors.IsUniqueViolation(err, "idx_submissions_task_worker") {
		return true
	}
	return stdErrors.Is(err, gorm.ErrDuplicatedKey)
}
