package additive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

var ErrAmendmentNotFound = errors.New("amendment not found")

type Repository interface {
	StoreAmendment(ctx context.Context, amendment Amendment) (int, error)
	GetAmendment(ctx context.Context, amendmentId int) (Amendment, error)
	GetAmendments(ctx context.Context, budgetId int) ([]Amendment, error)
	ApproveAmendment(ctx context.Context, amendmentId int, approvedOn time.Time) (bool, error)
	StoreLines(ctx context.Context, amendmentId int, lines []LineEntry) ([]LineEntry, error)
	GetLines(ctx context.Context, amendmentId int) ([]LineEntry, error)
	// GetApprovedLines returns all lines of approved amendments of the budget,
	// ordered by session number. This is the resolver's input feed.
	GetApprovedLines(ctx context.Context, budgetId int) ([]LineEntry, error)
}

type RepositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) StoreAmendment(ctx context.Context, amendment Amendment) (int, error) {
	query := `INSERT INTO amendment (budget_id, session_number, approved_on) VALUES (?, ?, ?)`
	var approvedOnParam interface{}
	if !amendment.ApprovedOn.IsZero() {
		approvedOnParam = amendment.ApprovedOn.Format("2006-01-02")
	}
	result, err := r.db.ExecContext(ctx, query, amendment.BudgetID, amendment.SessionNumber, approvedOnParam)
	if err != nil {
		err := fmt.Errorf("could not store amendment: %w", err)
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

func (r *RepositoryImpl) GetAmendment(ctx context.Context, amendmentId int) (Amendment, error) {
	query := `SELECT id, budget_id, session_number, approved_on FROM amendment WHERE id = ?`
	amendment, err := scanAmendment(r.db.QueryRowContext(ctx, query, amendmentId))
	if errors.Is(err, sql.ErrNoRows) {
		return Amendment{}, ErrAmendmentNotFound
	} else if err != nil {
		log.Error(err)
		return Amendment{}, err
	}
	return amendment, nil
}

func (r *RepositoryImpl) GetAmendments(ctx context.Context, budgetId int) ([]Amendment, error) {
	query := `SELECT id, budget_id, session_number, approved_on FROM amendment WHERE budget_id = ? ORDER BY session_number`
	rows, err := r.db.QueryContext(ctx, query, budgetId)
	if err != nil {
		err := fmt.Errorf("could not query amendments: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	var amendments []Amendment
	for rows.Next() {
		amendment, err := scanAmendment(rows)
		if err != nil {
			log.Error(err)
			return nil, err
		}
		amendments = append(amendments, amendment)
	}
	if err := rows.Err(); err != nil {
		err := fmt.Errorf("error iterating over rows: %w", err)
		log.Error(err)
		return nil, err
	}
	return amendments, nil
}

func (r *RepositoryImpl) ApproveAmendment(ctx context.Context, amendmentId int, approvedOn time.Time) (bool, error) {
	query := `UPDATE amendment SET approved_on = ? WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query, approvedOn.Format("2006-01-02"), amendmentId)
	if err != nil {
		err := fmt.Errorf("could not approve amendment: %w", err)
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

func (r *RepositoryImpl) StoreLines(ctx context.Context, amendmentId int, lines []LineEntry) ([]LineEntry, error) {
	if len(lines) == 0 {
		return nil, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		err := fmt.Errorf("could not begin transaction: %w", err)
		log.Error(err)
		return nil, err
	}
	defer tx.Rollback()

	query := `INSERT INTO amendment_line (amendment_id, external_code, quantity_delta) VALUES (?, ?, ?)`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		err := fmt.Errorf("could not prepare query: %w", err)
		log.Error(err)
		return nil, err
	}
	defer stmt.Close()

	stored := make([]LineEntry, 0, len(lines))
	for _, line := range lines {
		result, err := stmt.ExecContext(ctx, amendmentId, line.ExternalCode, line.QuantityDelta.String())
		if err != nil {
			err := fmt.Errorf("could not store amendment line: %w", err)
			log.Error(err)
			return nil, err
		}
		id, err := result.LastInsertId()
		if err != nil {
			err := fmt.Errorf("could not retrieve last insert id: %w", err)
			log.Error(err)
			return nil, err
		}
		line.ID = int(id)
		line.AmendmentID = amendmentId
		stored = append(stored, line)
	}

	if err := tx.Commit(); err != nil {
		err := fmt.Errorf("could not commit transaction: %w", err)
		log.Error(err)
		return nil, err
	}
	return stored, nil
}

func (r *RepositoryImpl) GetLines(ctx context.Context, amendmentId int) ([]LineEntry, error) {
	query := `SELECT l.id, l.amendment_id, l.external_code, l.quantity_delta, a.session_number
				FROM amendment_line l JOIN amendment a ON a.id = l.amendment_id
				WHERE l.amendment_id = ? ORDER BY l.id`
	return r.queryLines(ctx, query, amendmentId)
}

func (r *RepositoryImpl) GetApprovedLines(ctx context.Context, budgetId int) ([]LineEntry, error) {
	query := `SELECT l.id, l.amendment_id, l.external_code, l.quantity_delta, a.session_number
				FROM amendment_line l JOIN amendment a ON a.id = l.amendment_id
				WHERE a.budget_id = ? AND a.approved_on IS NOT NULL
				ORDER BY a.session_number, l.id`
	return r.queryLines(ctx, query, budgetId)
}

func (r *RepositoryImpl) queryLines(ctx context.Context, query string, arg any) ([]LineEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		err := fmt.Errorf("could not query amendment lines: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	var lines []LineEntry
	for rows.Next() {
		var line LineEntry
		var delta string
		if err := rows.Scan(&line.ID, &line.AmendmentID, &line.ExternalCode, &delta, &line.SessionNumber); err != nil {
			err := fmt.Errorf("could not scan amendment line: %w", err)
			log.Error(err)
			return nil, err
		}
		parsed, err := decimal.NewFromString(delta)
		if err != nil {
			err := fmt.Errorf("could not parse quantity delta: %w", err)
			log.Error(err)
			return nil, err
		}
		line.QuantityDelta = parsed
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		err := fmt.Errorf("error iterating over rows: %w", err)
		log.Error(err)
		return nil, err
	}
	return lines, nil
}

type amendmentScanner interface {
	Scan(dest ...any) error
}

func scanAmendment(row amendmentScanner) (Amendment, error) {
	var amendment Amendment
	var approvedOn sql.NullString
	if err := row.Scan(&amendment.ID, &amendment.BudgetID, &amendment.SessionNumber, &approvedOn); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Amendment{}, err
		}
		return Amendment{}, fmt.Errorf("could not scan amendment: %w", err)
	}
	if approvedOn.Valid && approvedOn.String != "" {
		parsed, err := time.Parse("2006-01-02", approvedOn.String)
		if err != nil {
			return Amendment{}, fmt.Errorf("could not parse approval date: %w", err)
		}
		amendment.ApprovedOn = parsed
	}
	return amendment, nil
}
