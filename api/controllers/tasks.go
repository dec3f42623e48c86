package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/microtasklabs/microtask-backend/api/middleware"
	"github.com/microtasklabs/microtask-backend/api/responses"
	"github.com/microtasklabs/microtask-backend/api/validators"
	"github.com/microtasklabs/microtask-backend/internal/tasks"
	"github.com/microtasklabs/microtask-backend/pkg/enums"
	pkgerrors "github.com/microtasklabs/microtask-backend/pkg/errors"
	"github.com/microtasklabs/microtask-backend/pkg/logger"
)

type createTaskRequest struct {
	Title           string `json:"title" validate:"required,min=3,max=200"`
	Detail          string `json:"detail" validate:"omitempty,max=5000"`
	RequiredWorkers int    `json:"requiredWorkers" validate:"required,gt=0"`
	PayableAmount   int    `json:"payableAmount" validate:"required,gt=0"`
	CompletionDate  string `json:"completionDate" validate:"required"`
	SubmissionInfo  string `json:"submissionInfo" validate:"omitempty,max=5000"`
	ImageURL        string `json:"imageUrl" validate:"omitempty,url"`
}

// CreateTask posts a task and escrows its total reward from the buyer.
func CreateTask(svc tasks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req createTaskRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		completionDate, err := time.Parse(time.RFC3339, req.CompletionDate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "completionDate must be RFC 3339"))
			return
		}

		result, err := svc.Create(r.Context(), tasks.CreateInput{
			BuyerID:         buyerID,
			Title:           req.Title,
			Detail:          req.Detail,
			RequiredWorkers: req.RequiredWorkers,
			PayableAmount:   req.PayableAmount,
			CompletionDate:  completionDate,
			SubmissionInfo:  req.SubmissionInfo,
			ImageURL:        req.ImageURL,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

type updateTaskRequest struct {
	Title          *string `json:"title" validate:"omitempty,min=3,max=200"`
	Detail         *string `json:"detail" validate:"omitempty,max=5000"`
	SubmissionInfo *string `json:"submissionInfo" validate:"omitempty,max=5000"`
}

// UpdateTask edits the describable fields of the buyer's own task.
func UpdateTask(svc tasks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		taskID, err := validators.ParsePathUUID(r, "taskId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateTaskRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		task, err := svc.Update(r.Context(), tasks.UpdateInput{
			TaskID:         taskID,
			BuyerID:        buyerID,
			Title:          req.Title,
			Detail:         req.Detail,
			SubmissionInfo: req.SubmissionInfo,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, task)
	}
}

// DeleteTask removes a task, rejecting pending work and refunding unfilled slots.
func DeleteTask(svc tasks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		taskID, err := validators.ParsePathUUID(r, "taskId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		role := enums.UserRole(middleware.RoleFromContext(r.Context()))
		result, err := svc.Delete(r.Context(), tasks.DeleteInput{
			TaskID:    taskID,
			ActorID:   userID,
			ActorRole: role,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// GetTask returns one task by id.
func GetTask(svc tasks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		taskID, err := validators.ParsePathUUID(r, "taskId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		task, err := svc.Get(r.Context(), taskID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, task)
	}
}

// ListOpenTasks returns tasks that still need workers, newest first.
func ListOpenTasks(svc tasks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListOpen(r.Context(), tasks.ListParams{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ListBuyerTasks returns every task the acting buyer has posted.
func ListBuyerTasks(svc tasks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ListByBuyer(r.Context(), buyerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// ListAllTasks returns the full task table for moderation.
func ListAllTasks(svc tasks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := svc.ListAll(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}
