package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/microtasklabs/microtask-backend/api/controllers"
	"github.com/microtasklabs/microtask-backend/api/middleware"
	"github.com/microtasklabs/microtask-backend/internal/auth"
	"github.com/microtasklabs/microtask-backend/internal/notifications"
	"github.com/microtasklabs/microtask-backend/internal/payments"
	"github.com/microtasklabs/microtask-backend/internal/reports"
	"github.com/microtasklabs/microtask-backend/internal/stats"
	"github.com/microtasklabs/microtask-backend/internal/submissions"
	"github.com/microtasklabs/microtask-backend/internal/tasks"
	"github.com/microtasklabs/microtask-backend/internal/users"
	"github.com/microtasklabs/microtask-backend/internal/withdrawals"
	"github.com/microtasklabs/microtask-backend/pkg/config"
	"github.com/microtasklabs/microtask-backend/pkg/db"
	"github.com/microtasklabs/microtask-backend/pkg/enums"
	"github.com/microtasklabs/microtask-backend/pkg/logger"
	pkgredis "github.com/microtasklabs/microtask-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	database db.Pinger,
	redisClient *pkgredis.Client,
	authService auth.Service,
	usersService users.Service,
	tasksService tasks.Service,
	submissionsService submissions.Service,
	withdrawalsService withdrawals.Service,
	paymentsService payments.Service,
	notificationsService notifications.Service,
	reportsService reports.Service,
	statsService stats.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.CORS(),
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, database, redisClient, logg))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Public surface: signup/login, the open task board, the coin price
	// list and the leaderboard.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Idempotency(redisClient, logg))
		r.Post("/api/v1/auth/register", controllers.Register(authService, logg))
		r.Post("/api/v1/auth/login", controllers.Login(authService, logg))
		r.Post("/api/v1/auth/google-login", controllers.GoogleLogin(authService, logg))
	})
	r.Get("/api/v1/tasks", controllers.ListOpenTasks(tasksService, logg))
	r.Get("/api/v1/tasks/{taskId}", controllers.GetTask(tasksService, logg))
	r.Get("/api/v1/payments/packages", controllers.ListCoinPackages(paymentsService, logg))
	r.Get("/api/v1/users/top/workers", controllers.TopWorkers(usersService, logg))

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Get("/api/v1/auth/verify", controllers.VerifyToken(authService, logg))

		r.Get("/api/v1/users/{userId}", controllers.GetUser(usersService, logg))
		r.Patch("/api/v1/users/{userId}/role", controllers.UpdateUserRole(usersService, logg))

		r.Get("/api/v1/notifications", controllers.ListNotifications(notificationsService, logg))
		r.Get("/api/v1/notifications/unread-count", controllers.UnreadNotificationCount(notificationsService, logg))
		r.Patch("/api/v1/notifications/{notificationId}/read", controllers.MarkNotificationRead(notificationsService, logg))
		r.Patch("/api/v1/notifications/read-all", controllers.MarkAllNotificationsRead(notificationsService, logg))

		r.Post("/api/v1/reports", controllers.CreateReport(reportsService, logg))

		r.With(middleware.RequireAnyRole(logg, string(enums.UserRoleBuyer), string(enums.UserRoleAdmin))).
			Delete("/api/v1/tasks/{taskId}", controllers.DeleteTask(tasksService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.UserRoleBuyer), logg))
			r.Post("/api/v1/tasks", controllers.CreateTask(tasksService, logg))
			r.Get("/api/v1/tasks/buyer", controllers.ListBuyerTasks(tasksService, logg))
			r.Patch("/api/v1/tasks/{taskId}", controllers.UpdateTask(tasksService, logg))
			r.Get("/api/v1/submissions/buyer", controllers.ListBuyerPendingSubmissions(submissionsService, logg))
			r.Patch("/api/v1/submissions/{submissionId}/approve", controllers.ApproveSubmission(submissionsService, logg))
			r.Patch("/api/v1/submissions/{submissionId}/reject", controllers.RejectSubmission(submissionsService, logg))
			r.Post("/api/v1/payments/create-payment-intent", controllers.CreatePaymentIntent(paymentsService, logg))
			r.Post("/api/v1/payments/confirm-payment", controllers.ConfirmPayment(paymentsService, logg))
			r.Get("/api/v1/payments/history", controllers.ListPaymentHistory(paymentsService, logg))
			r.Get("/api/v1/stats/buyer", controllers.BuyerStats(statsService, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.UserRoleWorker), logg))
			r.Post("/api/v1/submissions", controllers.CreateSubmission(submissionsService, logg))
			r.Get("/api/v1/submissions/worker", controllers.ListWorkerSubmissions(submissionsService, logg))
			r.Get("/api/v1/submissions/worker/approved", controllers.ListWorkerApprovedSubmissions(submissionsService, logg))
			r.Post("/api/v1/withdrawals", controllers.CreateWithdrawal(withdrawalsService, logg))
			r.Get("/api/v1/withdrawals/worker", controllers.ListWorkerWithdrawals(withdrawalsService, logg))
			r.Get("/api/v1/stats/worker", controllers.WorkerStats(statsService, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))
			r.Get("/api/v1/tasks/all", controllers.ListAllTasks(tasksService, logg))
			r.Get("/api/v1/withdrawals", controllers.ListPendingWithdrawals(withdrawalsService, logg))
			r.Patch("/api/v1/withdrawals/{withdrawalId}/approve", controllers.ApproveWithdrawal(withdrawalsService, logg))
			r.Get("/api/v1/payments/total", controllers.TotalRevenue(paymentsService, logg))
			r.Get("/api/v1/reports", controllers.ListReports(reportsService, logg))
			r.Patch("/api/v1/reports/{reportId}", controllers.SettleReport(reportsService, logg))
			r.Get("/api/v1/users", controllers.ListUsers(usersService, logg))
			r.Delete("/api/v1/users/{userId}", controllers.DeleteUser(usersService, logg))
			r.Get("/api/v1/stats/admin", controllers.AdminStats(statsService, logg))
		})
	})

	return r
}
