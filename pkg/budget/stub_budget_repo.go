package budget

import (
	"context"
)

type StubBudgetRepo struct {
	nextBudgetId int
	nextItemId   int
	budgets      map[int]Budget
	items        map[int][]BudgetItem
}

func NewStubBudgetRepo() *StubBudgetRepo {
	return &StubBudgetRepo{
		budgets: map[int]Budget{},
		items:   map[int][]BudgetItem{},
	}
}

func (s *StubBudgetRepo) StoreBudget(ctx context.Context, userId int, budget Budget) (int, error) {
	s.nextBudgetId++
	budget.ID = s.nextBudgetId
	s.budgets[budget.ID] = budget
	return budget.ID, nil
}

func (s *StubBudgetRepo) GetBudget(ctx context.Context, userId int, budgetId int) (Budget, error) {
	b, ok := s.budgets[budgetId]
	if !ok {
		return Budget{}, ErrBudgetNotFound
	}
	return b, nil
}

func (s *StubBudgetRepo) GetAllBudgets(ctx context.Context, userId int) ([]Budget, error) {
	budgets := make([]Budget, 0, len(s.budgets))
	for _, b := range s.budgets {
		budgets = append(budgets, b)
	}
	return budgets, nil
}

func (s *StubBudgetRepo) DeleteBudget(ctx context.Context, userId int, budgetId int) (bool, error) {
	if _, ok := s.budgets[budgetId]; !ok {
		return false, nil
	}
	delete(s.budgets, budgetId)
	delete(s.items, budgetId)
	return true, nil
}

func (s *StubBudgetRepo) StoreItems(ctx context.Context, budgetId int, items []BudgetItem) ([]BudgetItem, error) {
	stored := make([]BudgetItem, 0, len(items))
	for _, item := range items {
		s.nextItemId++
		item.ID = s.nextItemId
		item.BudgetID = budgetId
		if item.Origin == "" {
			item.Origin = OriginOriginal
		}
		stored = append(stored, item)
	}
	s.items[budgetId] = append(s.items[budgetId], stored...)
	return stored, nil
}

func (s *StubBudgetRepo) GetItems(ctx context.Context, budgetId int) ([]BudgetItem, error) {
	return s.items[budgetId], nil
}

func (s *StubBudgetRepo) GetItem(ctx context.Context, itemId int) (BudgetItem, error) {
	for _, items := range s.items {
		for _, item := range items {
			if item.ID == itemId {
				return item, nil
			}
		}
	}
	return BudgetItem{}, ErrItemNotFound
}

func (s *StubBudgetRepo) Cleanup() {
	s.nextBudgetId = 0
	s.nextItemId = 0
	s.budgets = map[int]Budget{}
	s.items = map[int][]BudgetItem{}
}
