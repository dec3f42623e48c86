package tasks

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/microtasklabs/microtask-backend/pkg/db/models"
	"github.com/microtasklabs/microtask-backend/pkg/enums"
	"github.com/microtasklabs/microtask-backend/pkg/pagination"
)

// Repository handles task persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, task *models.Task) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Task, error)
	FindBuyer(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateFields(ctx context.Context, taskID, buyerID uuid.UUID, updates map[string]any) (int64, error)
	Delete(ctx context.Context, taskID uuid.UUID) error
	RejectPendingSubmissions(ctx context.Context, taskID uuid.UUID) (int64, error)
	ListOpen(ctx context.Context, limit int, cursor *pagination.Cursor) ([]models.Task, *pagination.Cursor, error)
	ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]models.Task, error)
	ListAll(ctx context.Context) ([]models.Task, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a task repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
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

func (r *repository) FindBuyer(ctx context.Context, id uuid.UUID) (*models.User, error) {
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

func (r *repository) UpdateFields(ctx context.Context, taskID, buyerID uuid.UUID, updates map[string]any) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Task{}).
		Where("id = ? AND buyer_id = ?", taskID, buyerID).
		Updates(updates)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *repository) Delete(ctx context.Context, taskID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", taskID).
		Delete(&models.Task{}).Error
}

func (r *repository) RejectPendingSubmissions(ctx context.Context, taskID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("task_id = ? AND status = ?", taskID, enums.SubmissionStatusPending).
		UpdateColumn("status", enums.SubmissionStatusRejected)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *repository) ListOpen(ctx context.Context, limit int, cursor *pagination.Cursor) ([]models.Task, *pagination.Cursor, error) {
	normalized := pagination.NormalizeLimit(limit)
	query := r.db.WithContext(ctx).
		Model(&models.Task{}).
		Where("required_workers > 0")
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var tasks []models.Task
	if err := query.Order("created_at DESC, id DESC").Limit(pagination.LimitWithBuffer(limit)).Find(&tasks).Error; err != nil {
		return nil, nil, err
	}

	if len(tasks) > normalized {
		next := tasks[normalized]
		tasks = tasks[:normalized]
		return tasks, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return tasks, nil, nil
}

func (r *repository) ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]models.Task, error) {
	var tasks []models.Task
	if err := r.db.WithContext(ctx).
		Where("buyer_id = ?", buyerID).
		Order("created_at DESC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *repository) ListAll(ctx context.Context) ([]models.Task, error) {
	var tasks []models.Task
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}
