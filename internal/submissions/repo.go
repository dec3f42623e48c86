package submissions

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/microtasklabs/microtask-backend/pkg/db/models"
	"github.com/microtasklabs/microtask-backend/pkg/enums"
	"github.com/microtasklabs/microtask-backend/pkg/pagination"
)

// Repository handles submission persistence plus the task slot counter.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, submission *models.Submission) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Submission, error)
	FindTask(ctx context.Context, id uuid.UUID) (*models.Task, error)
	FindWorker(ctx context.Context, id uuid.UUID) (*models.User, error)
	DecrementTaskSlot(ctx context.Context, taskID uuid.UUID) (int64, error)
	IncrementTaskSlot(ctx context.Context, taskID uuid.UUID) (int64, error)
	FlipStatus(ctx context.Context, submissionID, buyerID uuid.UUID, to enums.SubmissionStatus) (int64, error)
	ListByWorker(ctx context.Context, params listByWorkerParams) ([]models.Submission, *pagination.Cursor, error)
	ListPendingByBuyer(ctx context.Context, buyerID uuid.UUID) ([]models.Submission, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a submission repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

type listByWorkerParams struct {
	WorkerID uuid.UUID
	Limit    int
	Cursor   *pagination.Cursor
	Status   *enums.SubmissionStatus
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Submission, error) {
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

func (r *repository) FindTask(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	var task models.Task
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&task).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &task, nil
}

func (r *repository) FindWorker(ctx context.Context, id uuid.UUID) (*models.User, error) {
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

func (r *repository) DecrementTaskSlot(ctx context.Context, taskID uuid.UUID) (int64, error) {
	// The guard is the slot check: zero rows means the task is full.
	result := r.db.WithContext(ctx).Exec(`
		UPDATE tasks
		SET required_workers = required_workers - 1,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND required_workers > 0
	`, taskID)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *repository) IncrementTaskSlot(ctx context.Context, taskID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Exec(`
		UPDATE tasks
		SET required_workers = required_workers + 1,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, taskID)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *repository) FlipStatus(ctx context.Context, submissionID, buyerID uuid.UUID, to enums.SubmissionStatus) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("id = ? AND buyer_id = ? AND status = ?", submissionID, buyerID, enums.SubmissionStatusPending).
		UpdateColumn("status", to)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *repository) ListByWorker(ctx context.Context, params listByWorkerParams) ([]models.Submission, *pagination.Cursor, error) {
	normalized := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("worker_id = ?", params.WorkerID)
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var submissions []models.Submission
	if err := query.Order("created_at DESC, id DESC").Limit(pagination.LimitWithBuffer(params.Limit)).Find(&submissions).Error; err != nil {
		return nil, nil, err
	}

	if len(submissions) > normalized {
		next := submissions[normalized]
		submissions = submissions[:normalized]
		return submissions, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return submissions, nil, nil
}

func (r *repository) ListPendingByBuyer(ctx context.Context, buyerID uuid.UUID) ([]models.Submission, error) {
	var submissions []models.Submission
	if err := r.db.WithContext(ctx).
		Where("buyer_id = ? AND status = ?", buyerID, enums.SubmissionStatusPending).
		Order("created_at DESC").
		Find(&submissions).Error; err != nil {
		return nil, err
	}
	return submissions, nil
}
