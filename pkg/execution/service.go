package execution

import (
	"context"
	"fmt"

	"github.com/obralog/obralog/internal/event_bus"
	"github.com/obralog/obralog/internal/utils"
	"github.com/obralog/obralog/pkg/additive"
	"github.com/obralog/obralog/pkg/budget"
	"github.com/obralog/obralog/pkg/report"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// ResolverProvider yields the additive adjustment resolver for a budget.
// Satisfied by the additive service.
type ResolverProvider interface {
	ResolverFor(ctx context.Context, budgetId int) (*additive.Resolver, error)
}

type Service interface {
	// SetExecutedToday records the daily executed quantity of a leaf budget
	// item within a report, clamped against the remaining contractual balance.
	// The caller is responsible for the report-approval gate; the ledger
	// itself is approval-agnostic.
	SetExecutedToday(ctx context.Context, reportUid string, budgetItemId int, rawValue decimal.Decimal) (Result, error)
	// ReadDerivedState is a pure read of the item's execution state.
	ReadDerivedState(ctx context.Context, reportUid string, budgetItemId int) (DerivedState, error)
	// ReportStates returns the derived state of every leaf item of the
	// report's budget, keyed by budget item id.
	ReportStates(ctx context.Context, reportUid string) (map[int]DerivedState, error)
}

type ServiceImpl struct {
	repo       Repository
	budgetRepo budget.BudgetRepo
	reportRepo report.Repository
	resolvers  ResolverProvider
	bus        *event_bus.EventBus
	clock      utils.Clock
}

func NewService(
	repo Repository,
	budgetRepo budget.BudgetRepo,
	reportRepo report.Repository,
	resolvers ResolverProvider,
	bus *event_bus.EventBus,
) *ServiceImpl {
	return &ServiceImpl{
		repo:       repo,
		budgetRepo: budgetRepo,
		reportRepo: reportRepo,
		resolvers:  resolvers,
		bus:        bus,
		clock:      &utils.SystemClock{},
	}
}

func (s *ServiceImpl) SetExecutedToday(ctx context.Context, reportUid string, budgetItemId int, rawValue decimal.Decimal) (Result, error) {
	if rawValue.IsNegative() {
		return Result{}, ErrNegativeQuantity
	}

	rep, err := s.reportRepo.GetByUid(ctx, reportUid)
	if err != nil {
		return Result{}, err
	}
	item, err := s.budgetRepo.GetItem(ctx, budgetItemId)
	if err != nil {
		return Result{}, err
	}
	if item.IsMacro {
		return Result{}, ErrMacroItem
	}
	if item.BudgetID != rep.BudgetID {
		return Result{}, ErrItemNotInBudget
	}

	resolver, err := s.resolvers.ResolverFor(ctx, rep.BudgetID)
	if err != nil {
		return Result{}, fmt.Errorf("failed to resolve additive adjustments: %w", err)
	}
	adjusted := resolver.AdjustedQuantity(item)

	var result Result
	err = s.repo.WithTransaction(ctx, func(repo Repository) error {
		accumulated, err := repo.AccumulatedFor(ctx, budgetItemId, rep.ID)
		if err != nil {
			return err
		}

		available := adjusted.Sub(accumulated)
		if available.IsNegative() {
			available = decimal.Zero
		}
		clamped := rawValue
		var warning *ClampWarning
		if rawValue.GreaterThan(available) {
			clamped = available
			warning = &ClampWarning{
				ItemId:           budgetItemId,
				Requested:        rawValue,
				Clamped:          clamped,
				AvailableBalance: available,
			}
			log.Debugf("clamping executed quantity for item %d: %s", budgetItemId, warning.Message())
		}

		total := accumulated.Add(clamped)
		percent := progressPercent(total, adjusted)

		if err := repo.UpsertRecord(ctx, rep.ID, budgetItemId, clamped, percent, s.clock.Now()); err != nil {
			return err
		}

		result = Result{
			State:   deriveState(accumulated, clamped, adjusted),
			Warning: warning,
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	if s.bus != nil {
		event := event_bus.NewEvent(ctx, event_bus.ExecutionRecordedType, event_bus.ExecutionRecorded{
			ReportUid:       rep.Uid,
			BudgetId:        rep.BudgetID,
			BudgetItemId:    budgetItemId,
			ExecutedToday:   result.State.ExecutedToday.String(),
			ProgressPercent: result.State.PercentExecuted,
		})
		if err := s.bus.Publish(event); err != nil {
			log.Warnf("failed to publish execution recorded event: %v", err)
		}
	}

	return result, nil
}

func (s *ServiceImpl) ReadDerivedState(ctx context.Context, reportUid string, budgetItemId int) (DerivedState, error) {
	rep, err := s.reportRepo.GetByUid(ctx, reportUid)
	if err != nil {
		return DerivedState{}, err
	}
	item, err := s.budgetRepo.GetItem(ctx, budgetItemId)
	if err != nil {
		return DerivedState{}, err
	}
	if item.BudgetID != rep.BudgetID {
		return DerivedState{}, ErrItemNotInBudget
	}
	resolver, err := s.resolvers.ResolverFor(ctx, rep.BudgetID)
	if err != nil {
		return DerivedState{}, fmt.Errorf("failed to resolve additive adjustments: %w", err)
	}

	accumulated, err := s.repo.AccumulatedFor(ctx, budgetItemId, rep.ID)
	if err != nil {
		return DerivedState{}, err
	}
	executedToday := decimal.Zero
	if record, found, err := s.repo.GetRecord(ctx, rep.ID, budgetItemId); err != nil {
		return DerivedState{}, err
	} else if found {
		executedToday = record.ExecutedToday
	}

	return deriveState(accumulated, executedToday, resolver.AdjustedQuantity(item)), nil
}

func (s *ServiceImpl) ReportStates(ctx context.Context, reportUid string) (map[int]DerivedState, error) {
	rep, err := s.reportRepo.GetByUid(ctx, reportUid)
	if err != nil {
		return nil, err
	}
	items, err := s.budgetRepo.GetItems(ctx, rep.BudgetID)
	if err != nil {
		return nil, err
	}
	resolver, err := s.resolvers.ResolverFor(ctx, rep.BudgetID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve additive adjustments: %w", err)
	}
	records, err := s.repo.GetRecordsForReport(ctx, rep.ID)
	if err != nil {
		return nil, err
	}
	executedByItemId := make(map[int]decimal.Decimal, len(records))
	for _, record := range records {
		executedByItemId[record.BudgetItemID] = record.ExecutedToday
	}

	states := make(map[int]DerivedState, len(items))
	for _, item := range items {
		if item.IsMacro {
			continue
		}
		accumulated, err := s.repo.AccumulatedFor(ctx, item.ID, rep.ID)
		if err != nil {
			return nil, err
		}
		states[item.ID] = deriveState(accumulated, executedByItemId[item.ID], resolver.AdjustedQuantity(item))
	}
	return states, nil
}

// deriveState computes the full read-side view from the three source values.
func deriveState(accumulated, executedToday, adjusted decimal.Decimal) DerivedState {
	total := accumulated.Add(executedToday)
	available := adjusted.Sub(total)
	if available.IsNegative() {
		available = decimal.Zero
	}
	return DerivedState{
		AccumulatedExecution: accumulated,
		ExecutedToday:        executedToday,
		TotalExecuted:        total,
		AdjustedQuantity:     adjusted,
		AvailableBalance:     available,
		PercentExecuted:      progressPercent(total, adjusted),
		ExceedsLimit:         total.Sub(adjusted).GreaterThan(overrunTolerance),
	}
}

// progressPercent rounds half-up to the nearest integer and caps at 100.
// Zero adjusted quantity yields zero progress.
func progressPercent(total, adjusted decimal.Decimal) int {
	if !adjusted.IsPositive() {
		return 0
	}
	percent := total.Div(adjusted).Mul(decimal.NewFromInt(100)).Round(0)
	if percent.GreaterThan(decimal.NewFromInt(100)) {
		return 100
	}
	return int(percent.IntPart())
}
