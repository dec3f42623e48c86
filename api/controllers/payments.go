package controllers

import (
	"net/http"

	"github.com/microtasklabs/microtask-backend/api/responses"
	"github.com/microtasklabs/microtask-backend/api/validators"
	"github.com/microtasklabs/microtask-backend/internal/payments"
	"github.com/microtasklabs/microtask-backend/pkg/logger"
)

// ListCoinPackages returns the fixed purchase bundles.
func ListCoinPackages(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, svc.Packages())
	}
}

type createIntentRequest struct {
	PackageID int `json:"packageId" validate:"required,gt=0"`
}

// CreatePaymentIntent starts a coin purchase and returns the client secret.
func CreatePaymentIntent(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req createIntentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.CreateIntent(r.Context(), buyerID, req.PackageID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

type confirmPaymentRequest struct {
	PaymentIntentID string `json:"paymentIntentId" validate:"required,max=200"`
	PackageID       int    `json:"packageId" validate:"required,gt=0"`
}

// ConfirmPayment settles a succeeded intent into coins, exactly once.
func ConfirmPayment(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req confirmPaymentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payment, err := svc.Confirm(r.Context(), payments.ConfirmInput{
			BuyerID:   buyerID,
			IntentID:  req.PaymentIntentID,
			PackageID: req.PackageID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, payment)
	}
}

// ListPaymentHistory returns the acting buyer's purchases.
func ListPaymentHistory(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.History(r.Context(), buyerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// TotalRevenue reports platform revenue across all purchases.
func TotalRevenue(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		total, err := svc.TotalRevenue(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"totalRevenue": total.StringFixed(2)})
	}
}
