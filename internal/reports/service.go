package reports

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/microtasklabs/microtask-backend/pkg/db/models"
	"github.com/microtasklabs/microtask-backend/pkg/enums"
	pkgerrors "github.com/microtasklabs/microtask-backend/pkg/errors"
)

// Service defines the moderation workflow for flagged submissions.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Report, error)
	List(ctx context.Context, status *enums.ReportStatus) ([]models.Report, error)
	Resolve(ctx context.Context, reportID uuid.UUID) error
	Dismiss(ctx context.Context, reportID uuid.UUID) error
}

// CreateInput flags one submission for admin review.
type CreateInput struct {
	ReporterID   uuid.UUID
	SubmissionID uuid.UUID
	Reason       enums.ReportReason
	Details      string
}

type service struct {
	repo Repository
}

// NewService builds the report moderation service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "reports repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Report, error) {
	if input.ReporterID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.SubmissionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "submission id required")
	}
	if !input.Reason.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown report reason")
	}
	if strings.TrimSpace(input.Details) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "report details required")
	}

	submission, err := s.repo.FindSubmission(ctx, input.SubmissionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load submission")
	}
	if submission == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "submission not found")
	}

	reporter, err := s.repo.FindReporter(ctx, input.ReporterID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load reporter")
	}
	if reporter == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "reporter not found")
	}

	report := &models.Report{
		SubmissionID:    submission.ID,
		ReportedByID:    reporter.ID,
		ReportedByName:  reporter.Name,
		ReportedByEmail: reporter.Email,
		Reason:          input.Reason,
		Details:         input.Details,
		Status:          enums.ReportStatusPending,
	}
	if err := s.repo.Create(ctx, report); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create report")
	}
	return report, nil
}

func (s *service) List(ctx context.Context, status *enums.ReportStatus) ([]models.Report, error) {
	rows, err := s.repo.List(ctx, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reports")
	}
	return rows, nil
}

func (s *service) Resolve(ctx context.Context, reportID uuid.UUID) error {
	return s.settle(ctx, reportID, enums.ReportStatusResolved)
}

func (s *service) Dismiss(ctx context.Context, reportID uuid.UUID) error {
	return s.settle(ctx, reportID, enums.ReportStatusDismissed)
}

func (s *service) settle(ctx context.Context, reportID uuid.UUID, status enums.ReportStatus) error {
	if reportID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "report id required")
	}

	affected, err := s.repo.SetStatus(ctx, reportID, status)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update report status")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "pending report not found")
	}
	return nil
}
