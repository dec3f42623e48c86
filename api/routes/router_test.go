package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/microtasklabs/microtask-backend/internal/auth"
	"github.com/microtasklabs/microtask-backend/internal/notifications"
	"github.com/microtasklabs/microtask-backend/internal/payments"
	"github.com/microtasklabs/microtask-backend/internal/reports"
	"github.com/microtasklabs/microtask-backend/internal/stats"
	"github.com/microtasklabs/microtask-backend/internal/submissions"
	"github.com/microtasklabs/microtask-backend/internal/tasks"
	"github.com/microtasklabs/microtask-backend/internal/users"
	"github.com/microtasklabs/microtask-backend/internal/withdrawals"
	pkgauth "github.com/microtasklabs/microtask-backend/pkg/auth"
	"github.com/microtasklabs/microtask-backend/pkg/config"
	"github.com/microtasklabs/microtask-backend/pkg/db/models"
	"github.com/microtasklabs/microtask-backend/pkg/enums"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubAuthService struct{}

func (stubAuthService) Register(context.Context, auth.RegisterInput) (*auth.Session, error) {
	return &auth.Session{}, nil
}

func (stubAuthService) Login(context.Context, auth.LoginInput) (*auth.Session, error) {
	return &auth.Session{}, nil
}

func (stubAuthService) GoogleLogin(context.Context, auth.GoogleLoginInput) (*auth.Session, error) {
	return &auth.Session{}, nil
}

func (stubAuthService) Verify(context.Context, uuid.UUID) (*models.User, error) {
	return &models.User{}, nil
}

type stubUsersService struct{}

func (stubUsersService) List(context.Context) ([]models.User, error) {
	return nil, nil
}

func (stubUsersService) Get(context.Context, uuid.UUID) (*models.User, error) {
	return &models.User{}, nil
}

func (stubUsersService) UpdateRole(context.Context, users.UpdateRoleInput) (*models.User, error) {
	return &models.User{}, nil
}

func (stubUsersService) Delete(context.Context, uuid.UUID) error {
	return nil
}

func (stubUsersService) TopWorkers(context.Context, int) ([]models.User, error) {
	return []models.User{}, nil
}

type stubTasksService struct{}

func (stubTasksService) Create(context.Context, tasks.CreateInput) (*tasks.CreateResult, error) {
	return &tasks.CreateResult{}, nil
}

func (stubTasksService) Update(context.Context, tasks.UpdateInput) (*models.Task, error) {
	return &models.Task{}, nil
}

func (stubTasksService) Delete(context.Context, tasks.DeleteInput) (*tasks.DeleteResult, error) {
	return &tasks.DeleteResult{}, nil
}

func (stubTasksService) Get(context.Context, uuid.UUID) (*models.Task, error) {
	return &models.Task{}, nil
}

func (stubTasksService) ListOpen(context.Context, tasks.ListParams) (*tasks.ListResult, error) {
	return &tasks.ListResult{}, nil
}

func (stubTasksService) ListByBuyer(context.Context, uuid.UUID) ([]models.Task, error) {
	return nil, nil
}

func (stubTasksService) ListAll(context.Context) ([]models.Task, error) {
	return nil, nil
}

type stubSubmissionsService struct{}

func (stubSubmissionsService) Submit(context.Context, submissions.SubmitInput) (*models.Submission, error) {
	return &models.Submission{}, nil
}

func (stubSubmissionsService) Approve(context.Context, uuid.UUID, uuid.UUID) (*models.Submission, error) {
	return &models.Submission{}, nil
}

func (stubSubmissionsService) Reject(context.Context, uuid.UUID, uuid.UUID) (*models.Submission, error) {
	return &models.Submission{}, nil
}

func (stubSubmissionsService) ListByWorker(context.Context, submissions.WorkerListParams) (*submissions.ListResult, error) {
	return &submissions.ListResult{}, nil
}

func (stubSubmissionsService) ListApprovedByWorker(context.Context, submissions.WorkerListParams) (*submissions.ListResult, error) {
	return &submissions.ListResult{}, nil
}

func (stubSubmissionsService) ListPendingByBuyer(context.Context, uuid.UUID) ([]models.Submission, error) {
	return nil, nil
}

type stubWithdrawalsService struct{}

func (stubWithdrawalsService) Request(context.Context, withdrawals.RequestInput) (*models.Withdrawal, error) {
	return &models.Withdrawal{}, nil
}

func (stubWithdrawalsService) Approve(context.Context, uuid.UUID) (*models.Withdrawal, error) {
	return &models.Withdrawal{}, nil
}

func (stubWithdrawalsService) ListByWorker(context.Context, uuid.UUID) ([]models.Withdrawal, error) {
	return nil, nil
}

func (stubWithdrawalsService) ListPending(context.Context) ([]models.Withdrawal, error) {
	return nil, nil
}

type stubPaymentsService struct{}

func (stubPaymentsService) Packages() []payments.CoinPackage {
	return []payments.CoinPackage{}
}

func (stubPaymentsService) CreateIntent(context.Context, uuid.UUID, int) (*payments.IntentResult, error) {
	return &payments.IntentResult{}, nil
}

func (stubPaymentsService) Confirm(context.Context, payments.ConfirmInput) (*models.Payment, error) {
	return &models.Payment{}, nil
}

func (stubPaymentsService) History(context.Context, uuid.UUID) ([]models.Payment, error) {
	return nil, nil
}

func (stubPaymentsService) TotalRevenue(context.Context) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

type stubNotificationsService struct{}

func (stubNotificationsService) Record(context.Context, *gorm.DB, notifications.RecordInput) error {
	return nil
}

func (stubNotificationsService) List(context.Context, notifications.ListParams) (*notifications.ListResult, error) {
	return &notifications.ListResult{}, nil
}

func (stubNotificationsService) UnreadCount(context.Context, uuid.UUID) (int64, error) {
	return 0, nil
}

func (stubNotificationsService) MarkRead(context.Context, uuid.UUID, uuid.UUID) error {
	return nil
}

func (stubNotificationsService) MarkAllRead(context.Context, uuid.UUID) (int64, error) {
	return 0, nil
}

type stubReportsService struct{}

func (stubReportsService) Create(context.Context, reports.CreateInput) (*models.Report, error) {
	return &models.Report{}, nil
}

func (stubReportsService) List(context.Context, *enums.ReportStatus) ([]models.Report, error) {
	return nil, nil
}

func (stubReportsService) Resolve(context.Context, uuid.UUID) error {
	return nil
}

func (stubReportsService) Dismiss(context.Context, uuid.UUID) error {
	return nil
}

type stubStatsService struct{}

func (stubStatsService) Admin(context.Context) (*stats.AdminStats, error) {
	return &stats.AdminStats{}, nil
}

func (stubStatsService) Buyer(context.Context, uuid.UUID) (*stats.BuyerStats, error) {
	return &stats.BuyerStats{}, nil
}

func (stubStatsService) Worker(context.Context, uuid.UUID) (*stats.WorkerStats, error) {
	return &stats.WorkerStats{}, nil
}

func testRouterConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test"},
		JWT: config.JWTConfig{Secret: "secret", Issuer: "microtask", ExpirationHours: 1},
	}
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	return NewRouter(
		testRouterConfig(),
		nil,
		stubPinger{},
		nil,
		stubAuthService{},
		stubUsersService{},
		stubTasksService{},
		stubSubmissionsService{},
		stubWithdrawalsService{},
		stubPaymentsService{},
		stubNotificationsService{},
		stubReportsService{},
		stubStatsService{},
	)
}

func mintRouterToken(t *testing.T, role enums.UserRole) string {
	t.Helper()
	cfg := testRouterConfig()
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{
		UserID: uuid.New(),
		Email:  string(role) + "@example.com",
		Role:   role,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestRouterServesPublicRoutes(t *testing.T) {
	router := newTestRouter(t)

	for _, target := range []string{
		"/health/live",
		"/api/v1/tasks",
		"/api/v1/tasks/" + uuid.NewString(),
		"/api/v1/payments/packages",
		"/api/v1/users/top/workers",
	} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("GET %s: expected 200 got %d", target, resp.Code)
		}
	}
}

func TestRouterRequiresAuthForPrivateRoutes(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		method string
		target string
	}{
		{http.MethodGet, "/api/v1/auth/verify"},
		{http.MethodPost, "/api/v1/tasks"},
		{http.MethodGet, "/api/v1/notifications"},
		{http.MethodGet, "/api/v1/stats/worker"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.target, strings.NewReader(`{}`))
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401 got %d", tt.method, tt.target, resp.Code)
		}
	}
}

func TestRouterEnforcesRoleBoundaries(t *testing.T) {
	router := newTestRouter(t)
	workerToken := mintRouterToken(t, enums.UserRoleWorker)
	buyerToken := mintRouterToken(t, enums.UserRoleBuyer)
	adminToken := mintRouterToken(t, enums.UserRoleAdmin)

	tests := []struct {
		name   string
		method string
		target string
		token  string
		want   int
	}{
		{"worker blocked from admin users list", http.MethodGet, "/api/v1/users", workerToken, http.StatusForbidden},
		{"buyer blocked from worker stats", http.MethodGet, "/api/v1/stats/worker", buyerToken, http.StatusForbidden},
		{"worker blocked from buyer tasks", http.MethodGet, "/api/v1/tasks/buyer", workerToken, http.StatusForbidden},
		{"worker reads own stats", http.MethodGet, "/api/v1/stats/worker", workerToken, http.StatusOK},
		{"buyer reads own stats", http.MethodGet, "/api/v1/stats/buyer", buyerToken, http.StatusOK},
		{"admin lists users", http.MethodGet, "/api/v1/users", adminToken, http.StatusOK},
		{"admin lists pending withdrawals", http.MethodGet, "/api/v1/withdrawals", adminToken, http.StatusOK},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.target, nil)
		req.Header.Set("Authorization", "Bearer "+tt.token)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != tt.want {
			t.Fatalf("%s: expected %d got %d", tt.name, tt.want, resp.Code)
		}
	}
}

func TestRouterGatesCoinRoutesOnIdempotencyKey(t *testing.T) {
	router := newTestRouter(t)
	workerToken := mintRouterToken(t, enums.UserRoleWorker)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/withdrawals", strings.NewReader(`{"withdrawalCoin":200}`))
	req.Header.Set("Authorization", "Bearer "+workerToken)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without Idempotency-Key, got %d", resp.Code)
	}
}
