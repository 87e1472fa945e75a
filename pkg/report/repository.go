package report

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"time"

	log "github.com/sirupsen/logrus"
)

var ErrReportNotFound = errors.New("report not found")

type Repository interface {
	Store(ctx context.Context, report Report) (int, error)
	GetByUid(ctx context.Context, uid string) (Report, error)
	GetAllForBudget(ctx context.Context, budgetId int) ([]Report, error)
	UpdateStatus(ctx context.Context, uid string, status Status) (bool, error)
	Delete(ctx context.Context, uid string) (bool, error)
}

type RepositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) Store(ctx context.Context, report Report) (int, error) {
	query := `INSERT INTO report (uid, budget_id, report_date, status, notes) VALUES (?, ?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, query,
		report.Uid,
		report.BudgetID,
		report.ReportDate.Format("2006-01-02"),
		report.Status,
		report.Notes,
	)
	if err != nil {
		err := fmt.Errorf("could not store report: %w", err)
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

func (r *RepositoryImpl) GetByUid(ctx context.Context, uid string) (Report, error) {
	query := `SELECT id, uid, budget_id, report_date, status, notes FROM report WHERE uid = ?`
	var report Report
	var reportDate string
	err := r.db.QueryRowContext(ctx, query, uid).
		Scan(&report.ID, &report.Uid, &report.BudgetID, &reportDate, &report.Status, &report.Notes)
	if errors.Is(err, sql.ErrNoRows) {
		return Report{}, ErrReportNotFound
	} else if err != nil {
		err := fmt.Errorf("could not get report: %w", err)
		log.Error(err)
		return Report{}, err
	}
	parsed, err := time.Parse("2006-01-02", reportDate)
	if err != nil {
		err := fmt.Errorf("could not parse report date: %w", err)
		log.Error(err)
		return Report{}, err
	}
	report.ReportDate = parsed
	return report, nil
}

func (r *RepositoryImpl) GetAllForBudget(ctx context.Context, budgetId int) ([]Report, error) {
	query := `SELECT id, uid, budget_id, report_date, status, notes FROM report WHERE budget_id = ? ORDER BY report_date, id`
	rows, err := r.db.QueryContext(ctx, query, budgetId)
	if err != nil {
		err := fmt.Errorf("could not query reports: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	var reports []Report
	for rows.Next() {
		var report Report
		var reportDate string
		if err := rows.Scan(&report.ID, &report.Uid, &report.BudgetID, &reportDate, &report.Status, &report.Notes); err != nil {
			err := fmt.Errorf("could not scan report: %w", err)
			log.Error(err)
			return nil, err
		}
		parsed, err := time.Parse("2006-01-02", reportDate)
		if err != nil {
			err := fmt.Errorf("could not parse report date: %w", err)
			log.Error(err)
			return nil, err
		}
		report.ReportDate = parsed
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		err := fmt.Errorf("error iterating over rows: %w", err)
		log.Error(err)
		return nil, err
	}
	return reports, nil
}

func (r *RepositoryImpl) UpdateStatus(ctx context.Context, uid string, status Status) (bool, error) {
	query := `UPDATE report SET status = ? WHERE uid = ?`
	result, err := r.db.ExecContext(ctx, query, status, uid)
	if err != nil {
		err := fmt.Errorf("could not update report status: %w", err)
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

func (r *RepositoryImpl) Delete(ctx context.Context, uid string) (bool, error) {
	query := `DELETE FROM report WHERE uid = ?`
	result, err := r.db.ExecContext(ctx, query, uid)
	if err != nil {
		err := fmt.Errorf("could not delete report: %w", err)
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
