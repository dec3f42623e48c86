package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/microtasklabs/microtask-backend/api/middleware"
	"github.com/microtasklabs/microtask-backend/api/responses"
	"github.com/microtasklabs/microtask-backend/api/validators"
	"github.com/microtasklabs/microtask-backend/internal/auth"
	"github.com/microtasklabs/microtask-backend/pkg/enums"
	pkgerrors "github.com/microtasklabs/microtask-backend/pkg/errors"
	"github.com/microtasklabs/microtask-backend/pkg/logger"
)

type registerRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=120"`
	Email       string `json:"email" validate:"required,email"`
	PhotoURL    string `json:"photoUrl" validate:"omitempty,url"`
	Role        string `json:"role" validate:"required,oneof=worker buyer"`
	FirebaseUID string `json:"firebaseUid" validate:"omitempty,max=200"`
}

// Register creates an account with a role-based signup bonus.
func Register(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		role, err := enums.ParseUserRole(req.Role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role"))
			return
		}

		session, err := svc.Register(r.Context(), auth.RegisterInput{
			Name:        req.Name,
			Email:       req.Email,
			PhotoURL:    req.PhotoURL,
			Role:        role,
			FirebaseUID: req.FirebaseUID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, session)
	}
}

type loginRequest struct {
	Email       string `json:"email" validate:"required,email"`
	FirebaseUID string `json:"firebaseUid" validate:"omitempty,max=200"`
}

// Login signs in an existing account.
func Login(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.Login(r.Context(), auth.LoginInput{
			Email:       req.Email,
			FirebaseUID: req.FirebaseUID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, session)
	}
}

type googleLoginRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=120"`
	Email       string `json:"email" validate:"required,email"`
	PhotoURL    string `json:"photoUrl" validate:"omitempty,url"`
	FirebaseUID string `json:"firebaseUid" validate:"required,max=200"`
}

// GoogleLogin signs in a federated identity, creating the account on first visit.
func GoogleLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req googleLoginRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.GoogleLogin(r.Context(), auth.GoogleLoginInput{
			Name:        req.Name,
			Email:       req.Email,
			PhotoURL:    req.PhotoURL,
			FirebaseUID: req.FirebaseUID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, session)
	}
}

// VerifyToken echoes the authenticated account behind the presented token.
func VerifyToken(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := svc.Verify(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, user)
	}
}

func actorID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user identity")
	}
	return id, nil
}
