package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/microtasklabs/microtask-backend/api/responses"
	"github.com/microtasklabs/microtask-backend/api/validators"
	"github.com/microtasklabs/microtask-backend/internal/submissions"
	pkgerrors "github.com/microtasklabs/microtask-backend/pkg/errors"
	"github.com/microtasklabs/microtask-backend/pkg/logger"
)

type createSubmissionRequest struct {
	TaskID            string `json:"taskId" validate:"required,uuid"`
	SubmissionDetails string `json:"submissionDetails" validate:"required,min=1,max=5000"`
}

// CreateSubmission claims a task slot for the acting worker.
func CreateSubmission(svc submissions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		workerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req createSubmissionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		taskID, err := uuid.Parse(req.TaskID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid task id"))
			return
		}

		submission, err := svc.Submit(r.Context(), submissions.SubmitInput{
			WorkerID: workerID,
			TaskID:   taskID,
			Details:  req.SubmissionDetails,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, submission)
	}
}

// ApproveSubmission pays the worker from escrow.
func ApproveSubmission(svc submissions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		submissionID, err := validators.ParsePathUUID(r, "submissionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		submission, err := svc.Approve(r.Context(), buyerID, submissionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, submission)
	}
}

// RejectSubmission declines the work and reopens the task slot.
func RejectSubmission(svc submissions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		submissionID, err := validators.ParsePathUUID(r, "submissionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		submission, err := svc.Reject(r.Context(), buyerID, submissionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, submission)
	}
}

// ListWorkerSubmissions returns the acting worker's submissions, paginated.
func ListWorkerSubmissions(svc submissions.Service, logg *logger.Logger) http.HandlerFunc {
	return workerSubmissionList(svc, logg, false)
}

// ListWorkerApprovedSubmissions returns the worker's paid submissions.
func ListWorkerApprovedSubmissions(svc submissions.Service, logg *logger.Logger) http.HandlerFunc {
	return workerSubmissionList(svc, logg, true)
}

func workerSubmissionList(svc submissions.Service, logg *logger.Logger, approvedOnly bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		workerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := submissions.WorkerListParams{
			WorkerID: workerID,
			Limit:    limit,
			Cursor:   strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		var result *submissions.ListResult
		if approvedOnly {
			result, err = svc.ListApprovedByWorker(r.Context(), params)
		} else {
			result, err = svc.ListByWorker(r.Context(), params)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ListBuyerPendingSubmissions returns work awaiting the buyer's review.
func ListBuyerPendingSubmissions(svc submissions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ListPendingByBuyer(r.Context(), buyerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}
