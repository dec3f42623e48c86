package reports

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/microtasklabs/microtask-backend/pkg/db/models"
	"github.com/microtasklabs/microtask-backend/pkg/enums"
)

// Repository handles report persistence.
type Repository interface {
	Create(ctx context.Context, report *models.Report) error
	FindSubmission(ctx context.Context, id uuid.UUID) (*models.Submission, error)
	FindReporter(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context, status *enums.ReportStatus) ([]models.Report, error)
	SetStatus(ctx context.Context, id uuid.UUID, status enums.ReportStatus) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a report repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, report *models.Report) error {
	return r.db.WithContext(ctx).Create(report).Error
}

func (r *repository) FindSubmission(ctx context.Context, id uuid.UUID) (*models.Submission, error) {
	var submission models.Submission
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&submission).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &submission, nil
}

func (r *repository) FindReporter(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *repository) List(ctx context.Context, status *enums.ReportStatus) ([]models.Report, error) {
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var reports []models.Report
	if err := query.Find(&reports).Error; err != nil {
		return nil, err
	}
	return reports, nil
}

func (r *repository) SetStatus(ctx context.Context, id uuid.UUID, status enums.ReportStatus) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Report{}).
		Where("id = ? AND status = ?", id, enums.ReportStatusPending).
		UpdateColumn("status", status)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
