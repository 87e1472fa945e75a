package execution

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obralog/obralog/internal/test_utils"
	"github.com/obralog/obralog/pkg/budget"
	"github.com/obralog/obralog/pkg/report"
)

type repoFixture struct {
	ctx      context.Context
	repo     *RepositoryImpl
	itemId   int
	reportId int
	otherId  int
}

func setupRepoFixture(t *testing.T) repoFixture {
	ctx := context.Background()
	db := test_utils.SetupTestDB(t)
	u := test_utils.CreateTestUser(t, db)

	budgetRepo := budget.NewBudgetRepo(db)
	budgetId, err := budgetRepo.StoreBudget(ctx, u.Id, budget.Budget{Name: "Tower A", CreatedAt: time.Now()})
	require.NoError(t, err)
	items, err := budgetRepo.StoreItems(ctx, budgetId, []budget.BudgetItem{
		{ItemCode: "1.1", Description: "Excavation", Unit: "m3", Quantity: decimal.NewFromInt(100)},
	})
	require.NoError(t, err)

	reportRepo := report.NewRepository(db)
	reportId, err := reportRepo.Store(ctx, report.Report{
		Uid: "rep-1", BudgetID: budgetId,
		ReportDate: time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC), Status: report.StatusDraft,
	})
	require.NoError(t, err)
	otherId, err := reportRepo.Store(ctx, report.Report{
		Uid: "rep-2", BudgetID: budgetId,
		ReportDate: time.Date(2026, 8, 11, 0, 0, 0, 0, time.UTC), Status: report.StatusDraft,
	})
	require.NoError(t, err)

	return repoFixture{ctx: ctx, repo: NewRepository(db), itemId: items[0].ID, reportId: reportId, otherId: otherId}
}

func TestRepositoryImpl_UpsertRecord(t *testing.T) {
	t.Run("should insert and then update in place", func(t *testing.T) {
		// given
		f := setupRepoFixture(t)
		now := time.Date(2026, 8, 10, 15, 4, 5, 0, time.UTC)

		// when
		require.NoError(t, f.repo.UpsertRecord(f.ctx, f.reportId, f.itemId, decimal.RequireFromString("12.25"), 12, now))
		require.NoError(t, f.repo.UpsertRecord(f.ctx, f.reportId, f.itemId, decimal.RequireFromString("30.5"), 31, now.Add(time.Hour)))

		// then
		record, found, err := f.repo.GetRecord(f.ctx, f.reportId, f.itemId)
		require.NoError(t, err)
		require.True(t, found)
		assert.True(t, record.ExecutedToday.Equal(decimal.RequireFromString("30.5")))
		assert.Equal(t, 31, record.ProgressPercent)
		assert.Equal(t, now.Add(time.Hour), record.UpdatedAt)

		records, err := f.repo.GetRecordsForReport(f.ctx, f.reportId)
		require.NoError(t, err)
		assert.Len(t, records, 1)
	})

	t.Run("should report missing record as not found", func(t *testing.T) {
		// given
		f := setupRepoFixture(t)

		// when
		_, found, err := f.repo.GetRecord(f.ctx, f.reportId, f.itemId)

		// then
		require.NoError(t, err)
		assert.False(t, found)
	})
}

func TestRepositoryImpl_AccumulatedFor(t *testing.T) {
	t.Run("should sum other reports exactly and exclude the given one", func(t *testing.T) {
		// given
		f := setupRepoFixture(t)
		require.NoError(t, f.repo.UpsertRecord(f.ctx, f.otherId, f.itemId, decimal.RequireFromString("0.1"), 0, time.Now()))
		require.NoError(t, f.repo.UpsertRecord(f.ctx, f.reportId, f.itemId, decimal.RequireFromString("99"), 99, time.Now()))

		// when
		accumulated, err := f.repo.AccumulatedFor(f.ctx, f.itemId, f.reportId)

		// then
		require.NoError(t, err)
		assert.Equal(t, "0.1", accumulated.String())
	})

	t.Run("should return zero when nothing was executed", func(t *testing.T) {
		// given
		f := setupRepoFixture(t)

		// when
		accumulated, err := f.repo.AccumulatedFor(f.ctx, f.itemId, f.reportId)

		// then
		require.NoError(t, err)
		assert.True(t, accumulated.IsZero())
	})
}

func TestRepositoryImpl_WithTransaction(t *testing.T) {
	t.Run("should roll back on error", func(t *testing.T) {
		// given
		f := setupRepoFixture(t)

		// when
		err := f.repo.WithTransaction(f.ctx, func(repo Repository) error {
			if err := repo.UpsertRecord(f.ctx, f.reportId, f.itemId, decimal.NewFromInt(5), 5, time.Now()); err != nil {
				return err
			}
			return assert.AnError
		})

		// then
		assert.ErrorIs(t, err, assert.AnError)
		_, found, getErr := f.repo.GetRecord(f.ctx, f.reportId, f.itemId)
		require.NoError(t, getErr)
		assert.False(t, found)
	})

	t.Run("should commit nested work once", func(t *testing.T) {
		// given
		f := setupRepoFixture(t)

		// when
		err := f.repo.WithTransaction(f.ctx, func(repo Repository) error {
			return repo.WithTransaction(f.ctx, func(inner Repository) error {
				return inner.UpsertRecord(f.ctx, f.reportId, f.itemId, decimal.NewFromInt(7), 7, time.Now())
			})
		})

		// then
		require.NoError(t, err)
		record, found, err := f.repo.GetRecord(f.ctx, f.reportId, f.itemId)
		require.NoError(t, err)
		require.True(t, found)
		assert.True(t, record.ExecutedToday.Equal(decimal.NewFromInt(7)))
	})
}
