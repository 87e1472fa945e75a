package report

import (
	"context"
	"sort"
)

type StubRepository struct {
	nextId  int
	reports map[string]Report
}

func NewStubRepository() *StubRepository {
	return &StubRepository{reports: map[string]Report{}}
}

func (s *StubRepository) Store(ctx context.Context, report Report) (int, error) {
	s.nextId++
	report.ID = s.nextId
	s.reports[report.Uid] = report
	return report.ID, nil
}

func (s *StubRepository) GetByUid(ctx context.Context, uid string) (Report, error) {
	r, ok := s.reports[uid]
	if !ok {
		return Report{}, ErrReportNotFound
	}
	return r, nil
}

func (s *StubRepository) GetAllForBudget(ctx context.Context, budgetId int) ([]Report, error) {
	var reports []Report
	for _, r := range s.reports {
		if r.BudgetID == budgetId {
			reports = append(reports, r)
		}
	}
	sort.Slice(reports, func(i, j int) bool {
		if reports[i].ReportDate.Equal(reports[j].ReportDate) {
			return reports[i].ID < reports[j].ID
		}
		return reports[i].ReportDate.Before(reports[j].ReportDate)
	})
	return reports, nil
}

func (s *StubRepository) UpdateStatus(ctx context.Context, uid string, status Status) (bool, error) {
	r, ok := s.reports[uid]
	if !ok {
		return false, nil
	}
	r.Status = status
	s.reports[uid] = r
	return true, nil
}

func (s *StubRepository) Delete(ctx context.Context, uid string) (bool, error) {
	if _, ok := s.reports[uid]; !ok {
		return false, nil
	}
	delete(s.reports, uid)
	return true, nil
}

func (s *StubRepository) Cleanup() {
	s.nextId = 0
	s.reports = map[string]Report{}
}
