package payments

import (
	"context"
	stdErrors "errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/microtasklabs/microtask-backend/internal/ledger"
	"github.com/microtasklabs/microtask-backend/internal/notifications"
	"github.com/microtasklabs/microtask-backend/pkg/db/models"
	pkgerrors "github.com/microtasklabs/microtask-backend/pkg/errors"
	"github.com/microtasklabs/microtask-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Processor is the slice of the payment provider the purchase flow needs.
type Processor interface {
	CreatePaymentIntent(ctx context.Context, amountCents int64, metadata map[string]string) (*stripe.PaymentIntent, error)
	RetrievePaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error)
}

// CoinPackage is a fixed coins-for-cash bundle buyers can purchase.
type CoinPackage struct {
	ID    int             `json:"id"`
	Coins int             `json:"coins"`
	Price decimal.Decimal `json:"price"`
}

var coinPackages = map[int]CoinPackage{
	1: {ID: 1, Coins: 10, Price: decimal.New(100, -2)},
	2: {ID: 2, Coins: 150, Price: decimal.New(1000, -2)},
	3: {ID: 3, Coins: 500, Price: decimal.New(2000, -2)},
	4: {ID: 4, Coins: 1000, Price: decimal.New(3500, -2)},
}

// Service defines the coin purchase workflow.
type Service interface {
	Packages() []CoinPackage
	CreateIntent(ctx context.Context, buyerID uuid.UUID, packageID int) (*IntentResult, error)
	Confirm(ctx context.Context, input ConfirmInput) (*models.Payment, error)
	History(ctx context.Context, buyerID uuid.UUID) ([]models.Payment, error)
	TotalRevenue(ctx context.Context) (decimal.Decimal, error)
}

// IntentResult carries the client secret the frontend needs to collect payment.
type IntentResult struct {
	ClientSecret string      `json:"clientSecret"`
	Package      CoinPackage `json:"package"`
}

// ConfirmInput settles a collected payment into coins.
type ConfirmInput struct {
	BuyerID   uuid.UUID
	IntentID  string
	PackageID int
}

type service struct {
	repo          Repository
	tx            txRunner
	ledger        ledger.Ledger
	notifications notifications.Service
	processor     Processor
	metrics       *metrics.WorkflowMetrics
}

// ServiceParams groups payment service dependencies.
type ServiceParams struct {
	Repo          Repository
	Tx            txRunner
	Ledger        ledger.Ledger
	Notifications notifications.Service
	Processor     Processor
	Metrics       *metrics.WorkflowMetrics
}

// NewService builds the coin purchase service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payments repository required")
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
	if params.Processor == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payment processor required")
	}
	return &service{
		repo:          params.Repo,
		tx:            params.Tx,
		ledger:        params.Ledger,
		notifications: params.Notifications,
		processor:     params.Processor,
		metrics:       params.Metrics,
	}, nil
}

func (s *service) Packages() []CoinPackage {
	out := make([]CoinPackage, 0, len(coinPackages))
	for _, pkg := range coinPackages {
		out = append(out, pkg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *service) CreateIntent(ctx context.Context, buyerID uuid.UUID, packageID int) (*IntentResult, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	pkg, ok := coinPackages[packageID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown coin package")
	}

	buyer, err := s.repo.FindBuyer(ctx, buyerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load buyer")
	}
	if buyer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "buyer not found")
	}

	amountCents := pkg.Price.Mul(decimal.New(100, 0)).IntPart()
	intent, err := s.processor.CreatePaymentIntent(ctx, amountCents, map[string]string{
		"buyer_id":   buyer.ID.String(),
		"package_id": strconv.Itoa(pkg.ID),
		"coins":      strconv.Itoa(pkg.Coins),
	})
	if err != nil {
		s.metrics.IncFailure("payment_intent")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment intent")
	}

	s.metrics.IncSuccess("payment_intent")
	return &IntentResult{ClientSecret: intent.ClientSecret, Package: pkg}, nil
}

func (s *service) Confirm(ctx context.Context, input ConfirmInput) (*models.Payment, error) {
	if input.BuyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if strings.TrimSpace(input.IntentID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment intent id required")
	}
	pkg, ok := coinPackages[input.PackageID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown coin package")
	}

	intent, err := s.processor.RetrievePaymentIntent(ctx, input.IntentID)
	if err != nil {
		s.metrics.IncFailure("payment_confirm")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "retrieve payment intent")
	}
	if intent.Status != stripe.PaymentIntentStatusSucceeded {
		s.metrics.IncRejected("payment_confirm")
		return nil, pkgerrors.New(pkgerrors.CodePaymentNotSucceeded,
			fmt.Sprintf("payment intent is %s, not succeeded", intent.Status))
	}

	var payment models.Payment
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		buyer, err := repo.FindBuyer(ctx, input.BuyerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load buyer")
		}
		if buyer == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "buyer not found")
		}

		// The unique transaction id makes a replayed confirmation collide
		// instead of crediting twice.
		payment = models.Payment{
			BuyerID:        buyer.ID,
			BuyerName:      buyer.Name,
			BuyerEmail:     buyer.Email,
			CoinsPurchased: pkg.Coins,
			AmountPaid:     pkg.Price,
			TransactionID:  intent.ID,
		}
		if err := repo.Create(ctx, &payment); err != nil {
			if isReplayedTransaction(err) {
				return pkgerrors.New(pkgerrors.CodeAlreadyProcessed, "payment already recorded")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record payment")
		}

		if err := s.ledger.Credit(ctx, tx, buyer.ID, pkg.Coins); err != nil {
			return err
		}

		return s.notifications.Record(ctx, tx, notifications.RecordInput{
			ToUserID:    buyer.ID,
			ToEmail:     buyer.Email,
			Message:     fmt.Sprintf("%d coins added to your account ($%s)", pkg.Coins, pkg.Price.StringFixed(2)),
			ActionRoute: "/dashboard/payment-history",
		})
	})
	if err != nil {
		if pkgerrors.As(err).Code() == pkgerrors.CodeAlreadyProcessed {
			s.metrics.IncRejected("payment_confirm")
		} else {
			s.metrics.IncFailure("payment_confirm")
		}
		return nil, err
	}

	s.metrics.IncSuccess("payment_confirm")
	return &payment, nil
}

func (s *service) History(ctx context.Context, buyerID uuid.UUID) ([]models.Payment, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	rows, err := s.repo.ListByBuyer(ctx, buyerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payments")
	}
	return rows, nil
}

func (s *service) TotalRevenue(ctx context.Context) (decimal.Decimal, error) {
	total, err := s.repo.TotalRevenue(ctx)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum revenue")
	}
	return total, nil
}

func isReplayedTransaction(err error) bool {
	if pkgerrors.IsUniqueViolation(err, "idx_payments_transaction_id") {
		return true
	}
	return stdErrors.Is(err, gorm.ErrDuplicatedKey)
}
