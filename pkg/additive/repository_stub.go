package additive

import (
	"context"
	"sort"
	"time"
)

type StubRepository struct {
	nextAmendmentId int
	nextLineId      int
	amendments      map[int]Amendment
	lines           map[int][]LineEntry
}

func NewStubRepository() *StubRepository {
	return &StubRepository{
		amendments: map[int]Amendment{},
		lines:      map[int][]LineEntry{},
	}
}

func (s *StubRepository) StoreAmendment(ctx context.Context, amendment Amendment) (int, error) {
	s.nextAmendmentId++
	amendment.ID = s.nextAmendmentId
	s.amendments[amendment.ID] = amendment
	return amendment.ID, nil
}

func (s *StubRepository) GetAmendment(ctx context.Context, amendmentId int) (Amendment, error) {
	a, ok := s.amendments[amendmentId]
	if !ok {
		return Amendment{}, ErrAmendmentNotFound
	}
	return a, nil
}

func (s *StubRepository) GetAmendments(ctx context.Context, budgetId int) ([]Amendment, error) {
	var amendments []Amendment
	for _, a := range s.amendments {
		if a.BudgetID == budgetId {
			amendments = append(amendments, a)
		}
	}
	sort.Slice(amendments, func(i, j int) bool {
		return amendments[i].SessionNumber < amendments[j].SessionNumber
	})
	return amendments, nil
}

func (s *StubRepository) ApproveAmendment(ctx context.Context, amendmentId int, approvedOn time.Time) (bool, error) {
	a, ok := s.amendments[amendmentId]
	if !ok {
		return false, nil
	}
	a.ApprovedOn = approvedOn
	s.amendments[amendmentId] = a
	return true, nil
}

func (s *StubRepository) StoreLines(ctx context.Context, amendmentId int, lines []LineEntry) ([]LineEntry, error) {
	stored := make([]LineEntry, 0, len(lines))
	for _, line := range lines {
		s.nextLineId++
		line.ID = s.nextLineId
		line.AmendmentID = amendmentId
		stored = append(stored, line)
	}
	s.lines[amendmentId] = append(s.lines[amendmentId], stored...)
	return stored, nil
}

func (s *StubRepository) GetLines(ctx context.Context, amendmentId int) ([]LineEntry, error) {
	return s.lines[amendmentId], nil
}

func (s *StubRepository) GetApprovedLines(ctx context.Context, budgetId int) ([]LineEntry, error) {
	amendments, _ := s.GetAmendments(ctx, budgetId)
	var lines []LineEntry
	for _, a := range amendments {
		if !a.IsApproved() {
			continue
		}
		for _, line := range s.lines[a.ID] {
			line.SessionNumber = a.SessionNumber
			lines = append(lines, line)
		}
	}
	return lines, nil
}

func (s *StubRepository) Cleanup() {
	s.nextAmendmentId = 0
	s.nextLineId = 0
	s.amendments = map[int]Amendment{}
	s.lines = map[int][]LineEntry{}
}
