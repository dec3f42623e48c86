package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/microtasklabs/microtask-backend/api/responses"
	"github.com/microtasklabs/microtask-backend/api/validators"
	"github.com/microtasklabs/microtask-backend/internal/reports"
	"github.com/microtasklabs/microtask-backend/pkg/enums"
	pkgerrors "github.com/microtasklabs/microtask-backend/pkg/errors"
	"github.com/microtasklabs/microtask-backend/pkg/logger"
)

type createReportRequest struct {
	SubmissionID string `json:"submissionId" validate:"required,uuid"`
	Reason       string `json:"reason" validate:"required"`
	Details      string `json:"details" validate:"required,min=3,max=2000"`
}

// CreateReport flags a submission for admin review.
func CreateReport(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reporterID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req createReportRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		submissionID, err := uuid.Parse(req.SubmissionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid submission id"))
			return
		}

		reason, err := enums.ParseReportReason(req.Reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid report reason"))
			return
		}

		report, err := svc.Create(r.Context(), reports.CreateInput{
			ReporterID:   reporterID,
			SubmissionID: submissionID,
			Reason:       reason,
			Details:      req.Details,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, report)
	}
}

// ListReports returns the moderation queue, optionally filtered by status.
func ListReports(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var status *enums.ReportStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed, err := enums.ParseReportStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			status = &parsed
		}

		rows, err := svc.List(r.Context(), status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

type settleReportRequest struct {
	Status string `json:"status" validate:"required,oneof=resolved dismissed"`
}

// SettleReport marks a pending report resolved or dismissed.
func SettleReport(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reportID, err := validators.ParsePathUUID(r, "reportId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req settleReportRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if req.Status == string(enums.ReportStatusResolved) {
			err = svc.Resolve(r.Context(), reportID)
		} else {
			err = svc.Dismiss(r.Context(), reportID)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": req.Status})
	}
}
