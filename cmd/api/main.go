package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/microtasklabs/microtask-backend/api/routes"
	"github.com/microtasklabs/microtask-backend/internal/auth"
	"github.com/microtasklabs/microtask-backend/internal/email"
	"github.com/microtasklabs/microtask-backend/internal/ledger"
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
	"github.com/microtasklabs/microtask-backend/pkg/logger"
	"github.com/microtasklabs/microtask-backend/pkg/metrics"
	"github.com/microtasklabs/microtask-backend/pkg/migrate"
	pkgredis "github.com/microtasklabs/microtask-backend/pkg/redis"
	"github.com/microtasklabs/microtask-backend/pkg/stripe"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := pkgredis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	stripeClient, err := stripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap stripe", err)
		os.Exit(1)
	}

	sender, err := email.NewLogSender(cfg.Email.DefaultFrom, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create email sender", err)
		os.Exit(1)
	}

	workflowMetrics := metrics.NewWorkflowMetrics(prometheus.DefaultRegisterer)
	coinLedger := ledger.New()

	notificationsService, err := notifications.NewService(notifications.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		Repo:    users.NewRepository(dbClient.DB()),
		JWT:     cfg.JWT,
		Signup:  cfg.Signup,
		Sender:  sender,
		Logger:  logg,
		Metrics: workflowMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	usersService, err := users.NewService(users.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}

	tasksService, err := tasks.NewService(tasks.NewRepository(dbClient.DB()), dbClient, coinLedger, workflowMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create tasks service", err)
		os.Exit(1)
	}

	submissionsService, err := submissions.NewService(submissions.ServiceParams{
		Repo:          submissions.NewRepository(dbClient.DB()),
		Tx:            dbClient,
		Ledger:        coinLedger,
		Notifications: notificationsService,
		Sender:        sender,
		Logger:        logg,
		Metrics:       workflowMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create submissions service", err)
		os.Exit(1)
	}

	withdrawalsService, err := withdrawals.NewService(withdrawals.ServiceParams{
		Repo:          withdrawals.NewRepository(dbClient.DB()),
		Tx:            dbClient,
		Ledger:        coinLedger,
		Notifications: notificationsService,
		Config:        cfg.Withdrawal,
		Metrics:       workflowMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create withdrawals service", err)
		os.Exit(1)
	}

	paymentsService, err := payments.NewService(payments.ServiceParams{
		Repo:          payments.NewRepository(dbClient.DB()),
		Tx:            dbClient,
		Ledger:        coinLedger,
		Notifications: notificationsService,
		Processor:     stripeClient,
		Metrics:       workflowMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}

	reportsService, err := reports.NewService(reports.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create reports service", err)
		os.Exit(1)
	}

	statsService, err := stats.NewService(stats.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create stats service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			authService,
			usersService,
			tasksService,
			submissionsService,
			withdrawalsService,
			paymentsService,
			notificationsService,
			reportsService,
			statsService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
