package execution

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type Repository interface {
	// WithTransaction runs fn against a repository bound to a single database
	// transaction. The ledger write path uses it to read the accumulated
	// execution and persist the clamped value atomically, closing the
	// read-compute-write race between concurrent editing sessions.
	WithTransaction(ctx context.Context, fn func(repo Repository) error) error
	GetRecord(ctx context.Context, reportId int, budgetItemId int) (Record, bool, error)
	GetRecordsForReport(ctx context.Context, reportId int) ([]Record, error)
	// AccumulatedFor sums ExecutedToday for the item over all reports except
	// the given one.
	AccumulatedFor(ctx context.Context, budgetItemId int, excludeReportId int) (decimal.Decimal, error)
	UpsertRecord(ctx context.Context, reportId int, budgetItemId int, executed decimal.Decimal, percent int, updatedAt time.Time) error
}

type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type RepositoryImpl struct {
	db *sql.DB
	tx *sql.Tx
}

func NewRepository(db *sql.DB) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) getQueryer() queryer {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

func (r *RepositoryImpl) WithTransaction(ctx context.Context, fn func(repo Repository) error) error {
	if r.tx != nil {
		// Already transactional, reuse the transaction.
		return fn(r)
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		// Rollback is a no-op when the transaction was already committed.
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			log.Errorf("rollback error: %v", rbErr)
		}
	}()

	if err := fn(&RepositoryImpl{db: r.db, tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *RepositoryImpl) GetRecord(ctx context.Context, reportId int, budgetItemId int) (Record, bool, error) {
	query := `SELECT id, report_id, budget_item_id, executed_today, progress_percent, updated_at
				FROM execution_record WHERE report_id = ? AND budget_item_id = ?`
	record, err := scanRecord(r.getQueryer().QueryRowContext(ctx, query, reportId, budgetItemId))
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, false, nil
	} else if err != nil {
		log.Error(err)
		return Record{}, false, err
	}
	return record, true, nil
}

func (r *RepositoryImpl) GetRecordsForReport(ctx context.Context, reportId int) ([]Record, error) {
	query := `SELECT id, report_id, budget_item_id, executed_today, progress_percent, updated_at
				FROM execution_record WHERE report_id = ? ORDER BY budget_item_id`
	rows, err := r.getQueryer().QueryContext(ctx, query, reportId)
	if err != nil {
		err := fmt.Errorf("could not query execution records: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			log.Error(err)
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		err := fmt.Errorf("error iterating over rows: %w", err)
		log.Error(err)
		return nil, err
	}
	return records, nil
}

func (r *RepositoryImpl) AccumulatedFor(ctx context.Context, budgetItemId int, excludeReportId int) (decimal.Decimal, error) {
	query := `SELECT executed_today FROM execution_record WHERE budget_item_id = ? AND report_id != ?`
	rows, err := r.getQueryer().QueryContext(ctx, query, budgetItemId, excludeReportId)
	if err != nil {
		err := fmt.Errorf("could not query accumulated execution: %w", err)
		log.Error(err)
		return decimal.Zero, err
	}
	defer rows.Close()

	// Summed in Go rather than SQL so quantities stay exact decimals: the
	// column holds decimal strings, which SQL SUM would coerce to floats.
	accumulated := decimal.Zero
	for rows.Next() {
		var executed string
		if err := rows.Scan(&executed); err != nil {
			err := fmt.Errorf("could not scan executed quantity: %w", err)
			log.Error(err)
			return decimal.Zero, err
		}
		parsed, err := decimal.NewFromString(executed)
		if err != nil {
			err := fmt.Errorf("could not parse executed quantity: %w", err)
			log.Error(err)
			return decimal.Zero, err
		}
		accumulated = accumulated.Add(parsed)
	}
	if err := rows.Err(); err != nil {
		err := fmt.Errorf("error iterating over rows: %w", err)
		log.Error(err)
		return decimal.Zero, err
	}
	return accumulated, nil
}

func (r *RepositoryImpl) UpsertRecord(ctx context.Context, reportId int, budgetItemId int, executed decimal.Decimal, percent int, updatedAt time.Time) error {
	query := `INSERT INTO execution_record (report_id, budget_item_id, executed_today, progress_percent, updated_at)
				VALUES (?, ?, ?, ?, ?)
				ON CONFLICT (report_id, budget_item_id)
				DO UPDATE SET executed_today = excluded.executed_today,
				              progress_percent = excluded.progress_percent,
				              updated_at = excluded.updated_at`
	_, err := r.getQueryer().ExecContext(ctx, query,
		reportId,
		budgetItemId,
		executed.String(),
		percent,
		updatedAt.Format(time.RFC3339),
	)
	if err != nil {
		err := fmt.Errorf("could not upsert execution record: %w", err)
		log.Error(err)
		return err
	}
	return nil
}

type recordScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row recordScanner) (Record, error) {
	var record Record
	var executed, updatedAt string
	if err := row.Scan(
		&record.ID,
		&record.ReportID,
		&record.BudgetItemID,
		&executed,
		&record.ProgressPercent,
		&updatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, err
		}
		return Record{}, fmt.Errorf("could not scan execution record: %w", err)
	}
	parsed, err := decimal.NewFromString(executed)
	if err != nil {
		return Record{}, fmt.Errorf("could not parse executed quantity: %w", err)
	}
	record.ExecutedToday = parsed
	if updatedAt != "" {
		if parsed, err := time.Parse(time.RFC3339, updatedAt); err == nil {
			record.UpdatedAt = parsed
		}
	}
	return record, nil
}
