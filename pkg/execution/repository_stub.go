package execution

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

type stubRecordKey struct {
	reportId int
	itemId   int
}

type StubExecutionRepo struct {
	mu      sync.Mutex
	records map[stubRecordKey]Record
	nextId  int
}

func NewStubExecutionRepo(t *testing.T) *StubExecutionRepo {
	repo := &StubExecutionRepo{records: make(map[stubRecordKey]Record), nextId: 1}
	t.Cleanup(func() {
		repo.mu.Lock()
		defer repo.mu.Unlock()
		repo.records = make(map[stubRecordKey]Record)
	})
	return repo
}

func (r *StubExecutionRepo) WithTransaction(ctx context.Context, fn func(repo Repository) error) error {
	return fn(r)
}

func (r *StubExecutionRepo) GetRecord(_ context.Context, reportId int, budgetItemId int) (Record, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, found := r.records[stubRecordKey{reportId: reportId, itemId: budgetItemId}]
	return record, found, nil
}

func (r *StubExecutionRepo) GetRecordsForReport(_ context.Context, reportId int) ([]Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var records []Record
	for key, record := range r.records {
		if key.reportId == reportId {
			records = append(records, record)
		}
	}
	return records, nil
}

func (r *StubExecutionRepo) AccumulatedFor(_ context.Context, budgetItemId int, excludeReportId int) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sum := decimal.Zero
	for key, record := range r.records {
		if key.itemId == budgetItemId && key.reportId != excludeReportId {
			sum = sum.Add(record.ExecutedToday)
		}
	}
	return sum, nil
}

func (r *StubExecutionRepo) UpsertRecord(_ context.Context, reportId int, budgetItemId int, executedToday decimal.Decimal, progressPercent int, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := stubRecordKey{reportId: reportId, itemId: budgetItemId}
	record, found := r.records[key]
	if !found {
		record = Record{ID: r.nextId, ReportID: reportId, BudgetItemID: budgetItemId}
		r.nextId++
	}
	record.ExecutedToday = executedToday
	record.ProgressPercent = progressPercent
	record.UpdatedAt = updatedAt
	r.records[key] = record
	return nil
}
