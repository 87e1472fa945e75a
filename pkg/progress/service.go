package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/obralog/obralog/internal/cache"
	"github.com/obralog/obralog/internal/event_bus"
	"github.com/obralog/obralog/internal/utils"
	"github.com/obralog/obralog/pkg/budget"
	"github.com/obralog/obralog/pkg/execution"
	"github.com/obralog/obralog/pkg/report"
)

const cacheTTL = 5 * time.Minute

type Service interface {
	GetView(ctx context.Context, reportUid string) (View, error)
}

type ServiceImpl struct {
	executionService execution.Service
	budgetRepo       budget.BudgetRepo
	reportRepo       report.Repository
	cache            cache.Store
	clock            utils.Clock
}

// NewService wires the projector. Subscriptions on the bus invalidate the
// cached view whenever the report's ledger or status changes.
func NewService(
	executionService execution.Service,
	budgetRepo budget.BudgetRepo,
	reportRepo report.Repository,
	cacheStore cache.Store,
	bus *event_bus.EventBus,
) *ServiceImpl {
	s := &ServiceImpl{
		executionService: executionService,
		budgetRepo:       budgetRepo,
		reportRepo:       reportRepo,
		cache:            cacheStore,
		clock:            &utils.SystemClock{},
	}
	if bus != nil {
		event_bus.SubscribeTyped(bus, event_bus.ExecutionRecordedType,
			func(e event_bus.EventT[event_bus.ExecutionRecorded]) error {
				s.invalidate(e.Context(), e.Data.ReportUid)
				return nil
			})
		event_bus.SubscribeTyped(bus, event_bus.ReportStatusChangedType,
			func(e event_bus.EventT[event_bus.ReportStatusChanged]) error {
				s.invalidate(e.Context(), e.Data.ReportUid)
				return nil
			})
	}
	return s
}

func (s *ServiceImpl) GetView(ctx context.Context, reportUid string) (View, error) {
	key := cacheKey(reportUid)
	if cached, found, err := s.cache.Get(ctx, key); err != nil {
		log.Warnf("failed to read progress cache: %v", err)
	} else if found {
		var view View
		if err := json.Unmarshal(cached, &view); err == nil {
			return view, nil
		}
		log.Warnf("discarding unreadable cached progress view for report %s", reportUid)
	}

	view, err := s.buildView(ctx, reportUid)
	if err != nil {
		return View{}, err
	}

	if encoded, err := json.Marshal(view); err == nil {
		if err := s.cache.Set(ctx, key, encoded, cacheTTL); err != nil {
			log.Warnf("failed to cache progress view: %v", err)
		}
	}
	return view, nil
}

func (s *ServiceImpl) buildView(ctx context.Context, reportUid string) (View, error) {
	rep, err := s.reportRepo.GetByUid(ctx, reportUid)
	if err != nil {
		return View{}, err
	}
	budgetItems, err := s.budgetRepo.GetItems(ctx, rep.BudgetID)
	if err != nil {
		return View{}, fmt.Errorf("failed to load budget items: %w", err)
	}
	states, err := s.executionService.ReportStates(ctx, reportUid)
	if err != nil {
		return View{}, fmt.Errorf("failed to load execution states: %w", err)
	}

	items := Project(budget.BuildTree(budgetItems), states)
	return View{
		ReportUid:      rep.Uid,
		BudgetId:       rep.BudgetID,
		GeneratedAt:    s.clock.Now(),
		OverallPercent: OverallPercent(items),
		Items:          items,
	}, nil
}

func (s *ServiceImpl) invalidate(ctx context.Context, reportUid string) {
	if err := s.cache.Delete(ctx, cacheKey(reportUid)); err != nil {
		log.Warnf("failed to invalidate progress cache for report %s: %v", reportUid, err)
	}
}

func cacheKey(reportUid string) string {
	return "progress:" + reportUid
}
