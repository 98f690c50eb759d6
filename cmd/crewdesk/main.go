package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/crewdesk/crewdesk/internal/app"
	"github.com/crewdesk/crewdesk/internal/customers"
	"github.com/crewdesk/crewdesk/internal/employees"
	"github.com/crewdesk/crewdesk/internal/hours"
	"github.com/crewdesk/crewdesk/internal/notify"
	"github.com/crewdesk/crewdesk/internal/observability"
	"github.com/crewdesk/crewdesk/internal/platform/cache"
	"github.com/crewdesk/crewdesk/internal/platform/db"
	"github.com/crewdesk/crewdesk/internal/projects"
	"github.com/crewdesk/crewdesk/internal/rbac"
	"github.com/crewdesk/crewdesk/internal/sequence"
	"github.com/crewdesk/crewdesk/internal/timesheets"
	"github.com/crewdesk/crewdesk/internal/tracking"
	"github.com/crewdesk/crewdesk/internal/users"
	"github.com/crewdesk/crewdesk/internal/workflow"
	"github.com/crewdesk/crewdesk/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	weekStartDay, err := cfg.WeekStart()
	if err != nil {
		logger.Error("resolve week start", slog.Any("error", err))
		os.Exit(1)
	}

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	guard := rbac.Middleware{Logger: logger}

	counter := sequence.NewPostgresCounter(dbpool)
	tracker := tracking.NewPostgresRecorder(dbpool)
	outbox := notify.NewOutbox(dbpool)
	dispatcher := jobs.NewDispatcher(outbox, jobsClient, logger)

	timesheetRepo := timesheets.NewRepository(dbpool)
	projectRepo := projects.NewRepository(dbpool)
	accountant := hours.NewAccountant(timesheetRepo)
	locker := workflow.NewWeekLocker(redisClient)
	engine := workflow.NewEngine(logger, timesheetRepo, projectRepo, accountant, locker, metrics)

	customerRepo := customers.NewRepository(dbpool)
	customerService := customers.NewService(logger, customerRepo, counter, tracker)
	customerHandler := customers.NewHandler(logger, customerService, guard)

	employeeRepo := employees.NewRepository(dbpool)
	employeeService := employees.NewService(logger, employeeRepo, tracker)
	employeeHandler := employees.NewHandler(logger, employeeService, guard)

	userRepo := users.NewRepository(dbpool)
	userService := users.NewService(logger, userRepo, tracker, dispatcher)
	userHandler := users.NewHandler(logger, userService, guard)

	projectService := projects.NewService(logger, projectRepo, counter, tracker, dispatcher, engine, customerService, employeeService)
	projectHandler := projects.NewHandler(logger, projectService, guard)

	timesheetService := timesheets.NewService(logger, timesheetRepo, tracker, dispatcher, engine, accountant,
		projectService, employeeService, userService, weekStartDay)
	timesheetHandler := timesheets.NewHandler(logger, timesheetService, guard)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		CustomersHandler:  customerHandler,
		ProjectsHandler:   projectHandler,
		TimesheetsHandler: timesheetHandler,
		EmployeesHandler:  employeeHandler,
		UsersHandler:      userHandler,
		JobHandler:        jobHandler,
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
