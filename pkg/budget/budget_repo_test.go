package budget

import (
	"context"
	"testing"
	"time"

	"github.com/obralog/obralog/internal/test_utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRepo(t *testing.T) (context.Context, *BudgetRepoImpl, int) {
	db := test_utils.SetupTestDB(t)
	u := test_utils.CreateTestUser(t, db)
	return context.Background(), NewBudgetRepo(db), u.Id
}

func TestBudgetRepoImpl_StoreBudget(t *testing.T) {
	t.Run("should store and read back a budget", func(t *testing.T) {
		// given
		ctx, repo, userId := setupTestRepo(t)
		b := Budget{Name: "School renovation", ContractNumber: "CT-2026/014", CreatedAt: time.Now()}

		// when
		id, err := repo.StoreBudget(ctx, userId, b)

		// then
		require.NoError(t, err)
		stored, err := repo.GetBudget(ctx, userId, id)
		require.NoError(t, err)
		assert.Equal(t, "School renovation", stored.Name)
		assert.Equal(t, "CT-2026/014", stored.ContractNumber)
	})

	t.Run("should not expose budgets of other users", func(t *testing.T) {
		// given
		ctx, repo, userId := setupTestRepo(t)
		id, err := repo.StoreBudget(ctx, userId, Budget{Name: "Bridge", CreatedAt: time.Now()})
		require.NoError(t, err)

		// when
		_, err = repo.GetBudget(ctx, userId+1, id)

		// then
		assert.ErrorIs(t, err, ErrBudgetNotFound)
	})
}

func TestBudgetRepoImpl_StoreItems(t *testing.T) {
	t.Run("should store items preserving decimal quantity precision", func(t *testing.T) {
		// given
		ctx, repo, userId := setupTestRepo(t)
		budgetId, err := repo.StoreBudget(ctx, userId, Budget{Name: "Road", CreatedAt: time.Now()})
		require.NoError(t, err)
		items := []BudgetItem{
			{ItemCode: "1", IsMacro: true, Description: "Earthworks"},
			{
				ItemCode:     "1.1",
				ParentCode:   "1",
				Description:  "Excavation",
				Unit:         "m3",
				Quantity:     decimal.RequireFromString("1234.5678"),
				Origin:       OriginOriginal,
				ExternalCode: "SINAPI-90106",
			},
		}

		// when
		stored, err := repo.StoreItems(ctx, budgetId, items)

		// then
		require.NoError(t, err)
		require.Len(t, stored, 2)

		read, err := repo.GetItems(ctx, budgetId)
		require.NoError(t, err)
		require.Len(t, read, 2)
		assert.True(t, read[1].Quantity.Equal(decimal.RequireFromString("1234.5678")))
		assert.Equal(t, "1", read[1].ParentCode)
		assert.Equal(t, OriginOriginal, read[1].Origin)
		assert.Equal(t, "SINAPI-90106", read[1].ExternalCode)
	})

	t.Run("should default empty origin to original", func(t *testing.T) {
		// given
		ctx, repo, userId := setupTestRepo(t)
		budgetId, err := repo.StoreBudget(ctx, userId, Budget{Name: "Road", CreatedAt: time.Now()})
		require.NoError(t, err)

		// when
		stored, err := repo.StoreItems(ctx, budgetId, []BudgetItem{{ItemCode: "1.1", Quantity: decimal.NewFromInt(10)}})

		// then
		require.NoError(t, err)
		assert.Equal(t, OriginOriginal, stored[0].Origin)
	})

	t.Run("should return nil for empty import", func(t *testing.T) {
		// given
		ctx, repo, userId := setupTestRepo(t)
		budgetId, err := repo.StoreBudget(ctx, userId, Budget{Name: "Road", CreatedAt: time.Now()})
		require.NoError(t, err)

		// when
		stored, err := repo.StoreItems(ctx, budgetId, nil)

		// then
		require.NoError(t, err)
		assert.Nil(t, stored)
	})
}

func TestBudgetRepoImpl_GetItem(t *testing.T) {
	t.Run("should get a single item by id", func(t *testing.T) {
		// given
		ctx, repo, userId := setupTestRepo(t)
		budgetId, err := repo.StoreBudget(ctx, userId, Budget{Name: "Road", CreatedAt: time.Now()})
		require.NoError(t, err)
		stored, err := repo.StoreItems(ctx, budgetId, []BudgetItem{{ItemCode: "2.1", Quantity: decimal.NewFromInt(50)}})
		require.NoError(t, err)

		// when
		read, err := repo.GetItem(ctx, stored[0].ID)

		// then
		require.NoError(t, err)
		assert.Equal(t, "2.1", read.ItemCode)
		assert.Equal(t, budgetId, read.BudgetID)
	})

	t.Run("should return ErrItemNotFound for unknown id", func(t *testing.T) {
		// given
		ctx, repo, _ := setupTestRepo(t)

		// when
		_, err := repo.GetItem(ctx, 999)

		// then
		assert.ErrorIs(t, err, ErrItemNotFound)
	})
}

func TestBudgetRepoImpl_DeleteBudget(t *testing.T) {
	t.Run("should delete budget and cascade items", func(t *testing.T) {
		// given
		ctx, repo, userId := setupTestRepo(t)
		budgetId, err := repo.StoreBudget(ctx, userId, Budget{Name: "Road", CreatedAt: time.Now()})
		require.NoError(t, err)
		_, err = repo.StoreItems(ctx, budgetId, []BudgetItem{{ItemCode: "1", Quantity: decimal.NewFromInt(1)}})
		require.NoError(t, err)

		// when
		deleted, err := repo.DeleteBudget(ctx, userId, budgetId)

		// then
		require.NoError(t, err)
		assert.True(t, deleted)
		items, err := repo.GetItems(ctx, budgetId)
		require.NoError(t, err)
		assert.Empty(t, items)
	})
}
