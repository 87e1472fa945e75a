package app

import (
	"database/sql"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/obralog/obralog/internal/auth"
	"github.com/obralog/obralog/internal/cache"
	"github.com/obralog/obralog/internal/config"
	"github.com/obralog/obralog/internal/event_bus"
	"github.com/obralog/obralog/pkg/additive"
	"github.com/obralog/obralog/pkg/budget"
	"github.com/obralog/obralog/pkg/execution"
	"github.com/obralog/obralog/pkg/progress"
	"github.com/obralog/obralog/pkg/report"
	"github.com/obralog/obralog/pkg/user"
)

// pendingFlushWindow is how long item edits may sit in the queue before they
// are applied to the ledger.
const pendingFlushWindow = 2 * time.Second

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	AuthTokenValidator auth.TokenValidator

	EventBus *event_bus.EventBus
	Cache    cache.Store

	UserService user.Service
	UserHandler *user.Handler

	BudgetRepo    budget.BudgetRepo
	BudgetService *budget.BudgetServiceImpl
	BudgetHandler *budget.BudgetHandler

	AdditiveRepo    additive.Repository
	AdditiveService *additive.ServiceImpl
	AdditiveHandler *additive.Handler

	ReportRepo    report.Repository
	ReportService *report.ServiceImpl
	ReportHandler *report.Handler

	ExecutionRepo    execution.Repository
	ExecutionService *execution.ServiceImpl
	PendingQueue     *execution.PendingWriteQueue
	ExecutionHandler *execution.Handler

	ProgressService *progress.ServiceImpl
	CsvRenderer     *progress.CsvRendererImpl
	ProgressHandler *progress.Handler
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(db *sql.DB, cfg config.Application) *Dependencies {
	deps := &Dependencies{}

	deps.AuthTokenValidator = auth.TokenValidator{Secret: []byte(cfg.Auth.JwtSecret)}

	deps.EventBus = event_bus.NewEventBus()
	if cfg.Redis.Enabled {
		deps.Cache = cache.NewRedisStore(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Pass,
			DB:       cfg.Redis.DB,
		})
	} else {
		deps.Cache = cache.NoopStore{}
	}

	deps.UserService = user.NewUserService(user.NewUserRepo(db))
	deps.UserHandler = user.NewHandler(deps.UserService)

	deps.BudgetRepo = budget.NewBudgetRepo(db)
	deps.BudgetService = budget.NewBudgetService(deps.BudgetRepo)
	deps.BudgetHandler = budget.NewBudgetHandler(deps.BudgetService)

	deps.AdditiveRepo = additive.NewRepository(db)
	deps.AdditiveService = additive.NewService(deps.AdditiveRepo, deps.BudgetRepo)
	deps.AdditiveHandler = additive.NewHandler(deps.AdditiveService)

	deps.ReportRepo = report.NewRepository(db)
	deps.ReportService = report.NewService(deps.ReportRepo, deps.BudgetRepo, deps.EventBus)
	deps.ReportHandler = report.NewHandler(deps.ReportService)

	deps.ExecutionRepo = execution.NewRepository(db)
	deps.ExecutionService = execution.NewService(deps.ExecutionRepo, deps.BudgetRepo, deps.ReportRepo, deps.AdditiveService, deps.EventBus)
	deps.PendingQueue = execution.NewPendingWriteQueue(deps.ExecutionService, deps.ReportService, pendingFlushWindow)
	deps.ExecutionHandler = execution.NewHandler(deps.ExecutionService, deps.ReportService, deps.PendingQueue)

	deps.ProgressService = progress.NewService(deps.ExecutionService, deps.BudgetRepo, deps.ReportRepo, deps.Cache, deps.EventBus)
	deps.CsvRenderer = progress.NewCsvRenderer()
	deps.ProgressHandler = progress.NewHandler(deps.ProgressService, deps.CsvRenderer)

	return deps
}
