package budget

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

var ErrBudgetNotFound = errors.New("budget not found")
var ErrItemNotFound = errors.New("budget item not found")

type BudgetRepo interface {
	StoreBudget(ctx context.Context, userId int, budget Budget) (int, error)
	GetBudget(ctx context.Context, userId int, budgetId int) (Budget, error)
	GetAllBudgets(ctx context.Context, userId int) ([]Budget, error)
	DeleteBudget(ctx context.Context, userId int, budgetId int) (bool, error)
	StoreItems(ctx context.Context, budgetId int, items []BudgetItem) ([]BudgetItem, error)
	GetItems(ctx context.Context, budgetId int) ([]BudgetItem, error)
	GetItem(ctx context.Context, itemId int) (BudgetItem, error)
}

type BudgetRepoImpl struct {
	db *sql.DB
}

func NewBudgetRepo(db *sql.DB) *BudgetRepoImpl {
	return &BudgetRepoImpl{db: db}
}

func (r *BudgetRepoImpl) StoreBudget(ctx context.Context, userId int, budget Budget) (int, error) {
	query := `INSERT INTO budget (user_id, name, contract_number, created_at) VALUES (?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, query,
		userId,
		budget.Name,
		budget.ContractNumber,
		budget.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		err := fmt.Errorf("could not store budget: %w", err)
		log.Error(err)
		return 0, err
	}
	lastInsertID, err := result.LastInsertId()
	if err != nil {
		err := fmt.Errorf("could not retrieve last insert id: %w", err)
		log.Error(err)
		return 0, err
	}
	return int(lastInsertID), nil
}

func (r *BudgetRepoImpl) GetBudget(ctx context.Context, userId int, budgetId int) (Budget, error) {
	query := `SELECT id, name, contract_number, created_at FROM budget WHERE id = ? AND user_id = ?`
	var budget Budget
	var createdAt string
	err := r.db.QueryRowContext(ctx, query, budgetId, userId).
		Scan(&budget.ID, &budget.Name, &budget.ContractNumber, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Budget{}, ErrBudgetNotFound
	} else if err != nil {
		err := fmt.Errorf("could not get budget: %w", err)
		log.Error(err)
		return Budget{}, err
	}
	if createdAt != "" {
		if parsed, err := time.Parse(time.RFC3339, createdAt); err == nil {
			budget.CreatedAt = parsed
		}
	}
	return budget, nil
}

func (r *BudgetRepoImpl) GetAllBudgets(ctx context.Context, userId int) ([]Budget, error) {
	query := `SELECT id, name, contract_number, created_at FROM budget WHERE user_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, userId)
	if err != nil {
		err := fmt.Errorf("could not query budgets: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	var budgets []Budget
	for rows.Next() {
		var budget Budget
		var createdAt string
		if err := rows.Scan(&budget.ID, &budget.Name, &budget.ContractNumber, &createdAt); err != nil {
			err := fmt.Errorf("could not scan budget: %w", err)
			log.Error(err)
			return nil, err
		}
		if createdAt != "" {
			if parsed, err := time.Parse(time.RFC3339, createdAt); err == nil {
				budget.CreatedAt = parsed
			}
		}
		budgets = append(budgets, budget)
	}
	if err := rows.Err(); err != nil {
		err := fmt.Errorf("error iterating over rows: %w", err)
		log.Error(err)
		return nil, err
	}
	return budgets, nil
}

func (r *BudgetRepoImpl) DeleteBudget(ctx context.Context, userId int, budgetId int) (bool, error) {
	query := `DELETE FROM budget WHERE id = ? AND user_id = ?`
	result, err := r.db.ExecContext(ctx, query, budgetId, userId)
	if err != nil {
		err := fmt.Errorf("could not delete budget: %w", err)
		log.Error(err)
		return false, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		err := fmt.Errorf("could not get rows affected: %w", err)
		log.Error(err)
		return false, err
	}
	return rowsAffected == 1, nil
}

func (r *BudgetRepoImpl) StoreItems(ctx context.Context, budgetId int, items []BudgetItem) ([]BudgetItem, error) {
	if len(items) == 0 {
		return nil, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		err := fmt.Errorf("could not begin transaction: %w", err)
		log.Error(err)
		return nil, err
	}
	defer tx.Rollback()

	query := `INSERT INTO budget_item (
                    budget_id,
                    item_code,
                    parent_code,
                    is_macro,
                    description,
                    unit,
                    quantity,
                    origin,
                    external_code
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		err := fmt.Errorf("could not prepare query: %w", err)
		log.Error(err)
		return nil, err
	}
	defer stmt.Close()

	stored := make([]BudgetItem, 0, len(items))
	for _, item := range items {
		var parentCodeParam interface{}
		if item.ParentCode != "" {
			parentCodeParam = item.ParentCode
		}
		origin := item.Origin
		if origin == "" {
			origin = OriginOriginal
		}
		result, err := stmt.ExecContext(ctx,
			budgetId,
			item.ItemCode,
			parentCodeParam,
			item.IsMacro,
			item.Description,
			item.Unit,
			item.Quantity.String(),
			origin,
			item.ExternalCode,
		)
		if err != nil {
			err := fmt.Errorf("could not store budget item %s: %w", item.ItemCode, err)
			log.Error(err)
			return nil, err
		}
		id, err := result.LastInsertId()
		if err != nil {
			err := fmt.Errorf("could not retrieve last insert id: %w", err)
			log.Error(err)
			return nil, err
		}
		item.ID = int(id)
		item.BudgetID = budgetId
		item.Origin = origin
		stored = append(stored, item)
	}

	if err := tx.Commit(); err != nil {
		err := fmt.Errorf("could not commit transaction: %w", err)
		log.Error(err)
		return nil, err
	}
	return stored, nil
}

func (r *BudgetRepoImpl) GetItems(ctx context.Context, budgetId int) ([]BudgetItem, error) {
	query := `SELECT id, budget_id, item_code, parent_code, is_macro, description, unit, quantity, origin, external_code 
				FROM budget_item WHERE budget_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, budgetId)
	if err != nil {
		err := fmt.Errorf("could not query budget items: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	var items []BudgetItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			log.Error(err)
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		err := fmt.Errorf("error iterating over rows: %w", err)
		log.Error(err)
		return nil, err
	}
	return items, nil
}

func (r *BudgetRepoImpl) GetItem(ctx context.Context, itemId int) (BudgetItem, error) {
	query := `SELECT id, budget_id, item_code, parent_code, is_macro, description, unit, quantity, origin, external_code 
				FROM budget_item WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, itemId)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return BudgetItem{}, ErrItemNotFound
	} else if err != nil {
		log.Error(err)
		return BudgetItem{}, err
	}
	return item, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (BudgetItem, error) {
	var item BudgetItem
	var parentCode sql.NullString
	var quantity string
	if err := row.Scan(
		&item.ID,
		&item.BudgetID,
		&item.ItemCode,
		&parentCode,
		&item.IsMacro,
		&item.Description,
		&item.Unit,
		&quantity,
		&item.Origin,
		&item.ExternalCode,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return BudgetItem{}, err
		}
		return BudgetItem{}, fmt.Errorf("could not scan budget item: %w", err)
	}
	if parentCode.Valid {
		item.ParentCode = parentCode.String
	}
	parsed, err := parseQuantity(quantity)
	if err != nil {
		return BudgetItem{}, fmt.Errorf("could not parse quantity of item %s: %w", item.ItemCode, err)
	}
	item.Quantity = parsed
	return item, nil
}
