package ledger

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/microtasklabs/microtask-backend/pkg/errors"
)

// Ledger moves coins on user accounts. Both operations are single
// relative UPDATEs and must run inside the calling workflow's
// transaction so the balance change commits or rolls back with the rest
// of the workflow.
type Ledger interface {
	Credit(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amount int) error
	Debit(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amount int) error
}

type ledgerImpl struct{}

// New exposes the default ledger implementation.
func New() Ledger {
	return ledgerImpl{}
}

func (ledgerImpl) Credit(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amount int) error {
	if amount <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "credit amount must be positive")
	}
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for ledger credit")
	}

	res := tx.WithContext(ctx).Exec(`
		UPDATE users
		SET coins = coins + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, amount, userID)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "credit coins")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return nil
}

func (ledgerImpl) Debit(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amount int) error {
	if amount <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "debit amount must be positive")
	}
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for ledger debit")
	}

	// The balance check and the subtraction are one statement; zero rows
	// means the balance was too low at the moment of the update.
	res := tx.WithContext(ctx).Exec(`
		UPDATE users
		SET coins = coins - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND coins >= ?
	`, amount, userID, amount)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "debit coins")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeInsufficientFunds, "not enough coins")
	}
	return nil
}
