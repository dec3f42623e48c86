package stats

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/microtasklabs/microtask-backend/pkg/db/models"
	"github.com/microtasklabs/microtask-backend/pkg/enums"
)

// AdminStats is the platform-wide dashboard snapshot.
type AdminStats struct {
	TotalWorkers int64           `json:"totalWorkers"`
	TotalBuyers  int64           `json:"totalBuyers"`
	TotalCoins   int64           `json:"totalCoins"`
	TotalRevenue decimal.Decimal `json:"totalRevenue"`
}

// BuyerStats summarizes one buyer's activity.
type BuyerStats struct {
	TotalTasks   int64 `json:"totalTasks"`
	PendingSlots int64 `json:"pendingSlots"`
	TotalPaid    int64 `json:"totalPaid"`
}

// WorkerStats summarizes one worker's activity.
type WorkerStats struct {
	TotalSubmissions   int64 `json:"totalSubmissions"`
	PendingSubmissions int64 `json:"pendingSubmissions"`
	TotalEarnings      int64 `json:"totalEarnings"`
}

// Repository runs the aggregate queries behind the dashboards.
type Repository interface {
	Admin(ctx context.Context) (*AdminStats, error)
	Buyer(ctx context.Context, buyerID uuid.UUID) (*BuyerStats, error)
	Worker(ctx context.Context, workerID uuid.UUID) (*WorkerStats, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a stats repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Admin(ctx context.Context) (*AdminStats, error) {
	out := &AdminStats{TotalRevenue: decimal.Zero}
	db := r.db.WithContext(ctx)

	if err := db.Model(&models.User{}).
		Where("role = ?", enums.UserRoleWorker).
		Count(&out.TotalWorkers).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.User{}).
		Where("role = ?", enums.UserRoleBuyer).
		Count(&out.TotalBuyers).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.User{}).
		Select("COALESCE(SUM(coins), 0)").
		Scan(&out.TotalCoins).Error; err != nil {
		return nil, err
	}

	var revenue decimal.NullDecimal
	if err := db.Model(&models.Payment{}).
		Select("COALESCE(SUM(amount_paid), 0)").
		Scan(&revenue).Error; err != nil {
		return nil, err
	}
	if revenue.Valid {
		out.TotalRevenue = revenue.Decimal
	}
	return out, nil
}

func (r *repository) Buyer(ctx context.Context, buyerID uuid.UUID) (*BuyerStats, error) {
	out := &BuyerStats{}
	db := r.db.WithContext(ctx)

	if err := db.Model(&models.Task{}).
		Where("buyer_id = ?", buyerID).
		Count(&out.TotalTasks).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Task{}).
		Where("buyer_id = ?", buyerID).
		Select("COALESCE(SUM(required_workers), 0)").
		Scan(&out.PendingSlots).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Submission{}).
		Where("buyer_id = ? AND status = ?", buyerID, enums.SubmissionStatusApproved).
		Select("COALESCE(SUM(payable_amount), 0)").
		Scan(&out.TotalPaid).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) Worker(ctx context.Context, workerID uuid.UUID) (*WorkerStats, error) {
	out := &WorkerStats{}
	db := r.db.WithContext(ctx)

	if err := db.Model(&models.Submission{}).
		Where("worker_id = ?", workerID).
		Count(&out.TotalSubmissions).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Submission{}).
		Where("worker_id = ? AND status = ?", workerID, enums.SubmissionStatusPending).
		Count(&out.PendingSubmissions).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Submission{}).
		Where("worker_id = ? AND status = ?", workerID, enums.SubmissionStatusApproved).
		Select("COALESCE(SUM(payable_amount), 0)").
		Scan(&out.TotalEarnings).Error; err != nil {
		return nil, err
	}
	return out, nil
}
