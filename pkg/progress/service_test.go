package progress

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obralog/obralog/internal/event_bus"
	"github.com/obralog/obralog/pkg/budget"
	"github.com/obralog/obralog/pkg/execution"
	"github.com/obralog/obralog/pkg/report"
)

type memoryStore struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newMemoryStore() *memoryStore {
	return &memoryStore{entries: map[string][]byte{}}
}

func (s *memoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, found := s.entries[key]
	return value, found, nil
}

func (s *memoryStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = value
	return nil
}

func (s *memoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

type stubExecutionService struct {
	states map[int]execution.DerivedState
	calls  int
}

func (s *stubExecutionService) SetExecutedToday(context.Context, string, int, decimal.Decimal) (execution.Result, error) {
	return execution.Result{}, nil
}

func (s *stubExecutionService) ReadDerivedState(context.Context, string, int) (execution.DerivedState, error) {
	return execution.DerivedState{}, nil
}

func (s *stubExecutionService) ReportStates(context.Context, string) (map[int]execution.DerivedState, error) {
	s.calls++
	return s.states, nil
}

type viewFixture struct {
	service   *ServiceImpl
	store     *memoryStore
	execution *stubExecutionService
	bus       *event_bus.EventBus
}

func newViewFixture(t *testing.T) *viewFixture {
	ctx := context.Background()
	budgetRepo := budget.NewStubBudgetRepo()
	t.Cleanup(budgetRepo.Cleanup)
	reportRepo := report.NewStubRepository()
	t.Cleanup(reportRepo.Cleanup)

	budgetId, err := budgetRepo.StoreBudget(ctx, 1, budget.Budget{Name: "Edificio Aurora"})
	require.NoError(t, err)
	items, err := budgetRepo.StoreItems(ctx, budgetId, []budget.BudgetItem{
		{ItemCode: "1", IsMacro: true},
		{ItemCode: "1.1", ParentCode: "1", Quantity: decimal.NewFromInt(100)},
	})
	require.NoError(t, err)
	_, err = reportRepo.Store(ctx, report.Report{
		Uid: "rep-uid", BudgetID: budgetId,
		ReportDate: time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC), Status: report.StatusDraft,
	})
	require.NoError(t, err)

	executionService := &stubExecutionService{states: map[int]execution.DerivedState{
		items[1].ID: {
			ExecutedToday:    decimal.NewFromInt(40),
			TotalExecuted:    decimal.NewFromInt(40),
			AdjustedQuantity: decimal.NewFromInt(100),
			AvailableBalance: decimal.NewFromInt(60),
			PercentExecuted:  40,
		},
	}}
	store := newMemoryStore()
	bus := event_bus.NewEventBus()
	service := NewService(executionService, budgetRepo, reportRepo, store, bus)

	return &viewFixture{service: service, store: store, execution: executionService, bus: bus}
}

func TestGetView(t *testing.T) {
	ctx := context.Background()

	t.Run("projects the report and serves repeat reads from cache", func(t *testing.T) {
		// given
		fixture := newViewFixture(t)

		// when
		first, err := fixture.service.GetView(ctx, "rep-uid")
		require.NoError(t, err)
		second, err := fixture.service.GetView(ctx, "rep-uid")

		// then
		require.NoError(t, err)
		assert.Equal(t, 1, fixture.execution.calls)
		assert.Equal(t, 40, first.OverallPercent)
		assert.Equal(t, first.OverallPercent, second.OverallPercent)
		require.Len(t, first.Items, 1)
		assert.Equal(t, 40, first.Items[0].PercentExecuted)
	})

	t.Run("returns not found for an unknown report", func(t *testing.T) {
		// given
		fixture := newViewFixture(t)

		// when
		_, err := fixture.service.GetView(ctx, "missing")

		// then
		assert.ErrorIs(t, err, report.ErrReportNotFound)
	})

	t.Run("recomputes after an execution recorded event", func(t *testing.T) {
		// given
		fixture := newViewFixture(t)
		_, err := fixture.service.GetView(ctx, "rep-uid")
		require.NoError(t, err)

		// when
		err = fixture.bus.Publish(event_bus.NewEvent(ctx, event_bus.ExecutionRecordedType,
			event_bus.ExecutionRecorded{ReportUid: "rep-uid"}))
		require.NoError(t, err)
		_, err = fixture.service.GetView(ctx, "rep-uid")

		// then
		require.NoError(t, err)
		assert.Equal(t, 2, fixture.execution.calls)
	})

	t.Run("recomputes after a report status change", func(t *testing.T) {
		// given
		fixture := newViewFixture(t)
		_, err := fixture.service.GetView(ctx, "rep-uid")
		require.NoError(t, err)

		// when
		err = fixture.bus.Publish(event_bus.NewEvent(ctx, event_bus.ReportStatusChangedType,
			event_bus.ReportStatusChanged{ReportUid: "rep-uid", Status: string(report.StatusApproved)}))
		require.NoError(t, err)
		_, err = fixture.service.GetView(ctx, "rep-uid")

		// then
		require.NoError(t, err)
		assert.Equal(t, 2, fixture.execution.calls)
	})
}
