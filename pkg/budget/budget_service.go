package budget

import (
	"context"
	"fmt"
	"strings"

	"github.com/obralog/obralog/internal/utils"
	"github.com/obralog/obralog/pkg/user"
	log "github.com/sirupsen/logrus"
)

type BudgetService interface {
	Create(ctx context.Context, budget Budget) (Budget, error)
	Get(ctx context.Context, budgetId int) (Budget, error)
	GetAll(ctx context.Context) ([]Budget, error)
	Delete(ctx context.Context, budgetId int) (bool, error)
	ImportItems(ctx context.Context, budgetId int, items []BudgetItem) ([]BudgetItem, error)
	GetItems(ctx context.Context, budgetId int) ([]BudgetItem, error)
	GetTree(ctx context.Context, budgetId int) ([]*TreeNode, error)
}

type BudgetServiceImpl struct {
	repo  BudgetRepo
	clock utils.Clock
}

func NewBudgetService(repo BudgetRepo) *BudgetServiceImpl {
	return &BudgetServiceImpl{repo: repo, clock: &utils.SystemClock{}}
}

func (s *BudgetServiceImpl) Create(ctx context.Context, budget Budget) (Budget, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Budget{}, fmt.Errorf("failed to get current user: %w", err)
	}
	budget.CreatedAt = s.clock.Now()
	id, err := s.repo.StoreBudget(ctx, userId, budget)
	if err != nil {
		return Budget{}, err
	}
	budget.ID = id
	return budget, nil
}

func (s *BudgetServiceImpl) Get(ctx context.Context, budgetId int) (Budget, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Budget{}, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.GetBudget(ctx, userId, budgetId)
}

func (s *BudgetServiceImpl) GetAll(ctx context.Context) ([]Budget, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.GetAllBudgets(ctx, userId)
}

func (s *BudgetServiceImpl) Delete(ctx context.Context, budgetId int) (bool, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to get current user: %w", err)
	}
	deleted, err := s.repo.DeleteBudget(ctx, userId, budgetId)
	if err != nil {
		return false, err
	}
	if !deleted {
		log.Warnf("budget not deleted, probably because it does not exist (%d) or the user (%d) is not the owner", budgetId, userId)
		return false, fmt.Errorf("budget not deleted")
	}
	return true, nil
}

// ImportItems stores the measurement spreadsheet lines of a budget. Item and
// external codes are trimmed on the way in; origin defaults to "original".
func (s *BudgetServiceImpl) ImportItems(ctx context.Context, budgetId int, items []BudgetItem) ([]BudgetItem, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	if _, err := s.repo.GetBudget(ctx, userId, budgetId); err != nil {
		return nil, err
	}
	for i := range items {
		items[i].ItemCode = strings.TrimSpace(items[i].ItemCode)
		items[i].ParentCode = strings.TrimSpace(items[i].ParentCode)
		items[i].ExternalCode = strings.TrimSpace(items[i].ExternalCode)
	}
	return s.repo.StoreItems(ctx, budgetId, items)
}

func (s *BudgetServiceImpl) GetItems(ctx context.Context, budgetId int) ([]BudgetItem, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	if _, err := s.repo.GetBudget(ctx, userId, budgetId); err != nil {
		return nil, err
	}
	return s.repo.GetItems(ctx, budgetId)
}

func (s *BudgetServiceImpl) GetTree(ctx context.Context, budgetId int) ([]*TreeNode, error) {
	items, err := s.GetItems(ctx, budgetId)
	if err != nil {
		return nil, err
	}
	return BuildTree(items), nil
}
