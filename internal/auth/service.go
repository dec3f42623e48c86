package auth

import (
	"context"
	stdErrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/microtasklabs/microtask-backend/internal/email"
	"github.com/microtasklabs/microtask-backend/internal/users"
	pkgauth "github.com/microtasklabs/microtask-backend/pkg/auth"
	"github.com/microtasklabs/microtask-backend/pkg/config"
	"github.com/microtasklabs/microtask-backend/pkg/db/models"
	"github.com/microtasklabs/microtask-backend/pkg/enums"
	pkgerrors "github.com/microtasklabs/microtask-backend/pkg/errors"
	"github.com/microtasklabs/microtask-backend/pkg/logger"
	"github.com/microtasklabs/microtask-backend/pkg/metrics"
)

// Service defines account creation and sign-in.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*Session, error)
	Login(ctx context.Context, input LoginInput) (*Session, error)
	GoogleLogin(ctx context.Context, input GoogleLoginInput) (*Session, error)
	Verify(ctx context.Context, userID uuid.UUID) (*models.User, error)
}

// RegisterInput captures a new account signup.
type RegisterInput struct {
	Name        string
	Email       string
	PhotoURL    string
	Role        enums.UserRole
	FirebaseUID string
}

// LoginInput captures an email/uid sign-in.
type LoginInput struct {
	Email       string
	FirebaseUID string
}

// GoogleLoginInput captures a federated sign-in; first logins create the account.
type GoogleLoginInput struct {
	Name        string
	Email       string
	PhotoURL    string
	FirebaseUID string
}

// Session is a signed-in user plus their access token.
type Session struct {
	Token     string       `json:"token"`
	User      *models.User `json:"user"`
	IsNewUser bool         `json:"isNewUser,omitempty"`
}

type service struct {
	repo    users.Repository
	jwt     config.JWTConfig
	signup  config.SignupConfig
	sender  email.Sender
	logg    *logger.Logger
	metrics *metrics.WorkflowMetrics
	now     func() time.Time
}

// ServiceParams groups auth service dependencies.
type ServiceParams struct {
	Repo    users.Repository
	JWT     config.JWTConfig
	Signup  config.SignupConfig
	Sender  email.Sender
	Logger  *logger.Logger
	Metrics *metrics.WorkflowMetrics
}

// NewService builds the auth service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "users repository required")
	}
	if params.JWT.Secret == "" || params.JWT.Issuer == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "jwt config required")
	}
	return &service{
		repo:    params.Repo,
		jwt:     params.JWT,
		signup:  params.Signup,
		sender:  params.Sender,
		logg:    params.Logger,
		metrics: params.Metrics,
		now:     time.Now,
	}, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*Session, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name required")
	}
	if strings.TrimSpace(input.Email) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email required")
	}
	if !input.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown role")
	}

	now := s.now().UTC()
	user := &models.User{
		Name:        input.Name,
		Email:       normalizeEmail(input.Email),
		PhotoURL:    input.PhotoURL,
		FirebaseUID: input.FirebaseUID,
		Role:        input.Role,
		Coins:       s.bonusFor(input.Role),
		LastLoginAt: &now,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if isDuplicateAccount(err) {
			s.metrics.IncRejected("auth_register")
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "account already exists")
		}
		s.metrics.IncFailure("auth_register")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}

	token, err := s.mint(user)
	if err != nil {
		return nil, err
	}

	s.metrics.IncSuccess("auth_register")
	s.sendWelcome(ctx, user)
	return &Session{Token: token, User: user, IsNewUser: true}, nil
}

func (s *service) Login(ctx context.Context, input LoginInput) (*Session, error) {
	if strings.TrimSpace(input.Email) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email required")
	}

	user, err := s.repo.FindByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if user == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
	}

	now := s.now().UTC()
	if err := s.repo.StampLogin(ctx, user.ID, input.FirebaseUID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "stamp login")
	}
	user.LastLoginAt = &now

	token, err := s.mint(user)
	if err != nil {
		return nil, err
	}

	s.metrics.IncSuccess("auth_login")
	return &Session{Token: token, User: user}, nil
}

func (s *service) GoogleLogin(ctx context.Context, input GoogleLoginInput) (*Session, error) {
	if strings.TrimSpace(input.Email) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email required")
	}
	if strings.TrimSpace(input.FirebaseUID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "firebase uid required")
	}

	user, err := s.repo.FindByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	if user == nil {
		// First federated sign-in creates a worker account.
		return s.Register(ctx, RegisterInput{
			Name:        input.Name,
			Email:       input.Email,
			PhotoURL:    input.PhotoURL,
			Role:        enums.UserRoleWorker,
			FirebaseUID: input.FirebaseUID,
		})
	}

	now := s.now().UTC()
	if err := s.repo.StampLogin(ctx, user.ID, input.FirebaseUID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "stamp login")
	}
	user.LastLoginAt = &now

	token, err := s.mint(user)
	if err != nil {
		return nil, err
	}

	s.metrics.IncSuccess("auth_login")
	return &Session{Token: token, User: user}, nil
}

func (s *service) Verify(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if user == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account no longer exists")
	}
	return user, nil
}

func (s *service) bonusFor(role enums.UserRole) int {
	switch role {
	case enums.UserRoleWorker:
		return s.signup.WorkerBonusCoins
	case enums.UserRoleBuyer:
		return s.signup.BuyerBonusCoins
	default:
		return 0
	}
}

func (s *service) mint(user *models.User) (string, error) {
	token, err := pkgauth.MintAccessToken(s.jwt, s.now(), pkgauth.AccessTokenPayload{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}
	return token, nil
}

func (s *service) sendWelcome(ctx context.Context, user *models.User) {
	body := fmt.Sprintf("Welcome %s! Your account starts with %d coins.", user.Name, user.Coins)
	email.SendAsync(ctx, s.sender, s.logg, email.Message{
		To:      user.Email,
		Subject: "Welcome aboard",
		Body:    body,
	})
}

func normalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func isDuplicateAccount(err error) bool {
	if pkgerrors.IsUniqueViolation(err, "") {
		return true
	}
	return stdErrors.Is(err, gorm.ErrDuplicatedKey)
}
