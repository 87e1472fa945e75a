package additive

import (
	"context"
	"fmt"

	"github.com/obralog/obralog/internal/utils"
	"github.com/obralog/obralog/pkg/budget"
	"github.com/obralog/obralog/pkg/user"
	log "github.com/sirupsen/logrus"
)

type Service interface {
	CreateAmendment(ctx context.Context, amendment Amendment) (Amendment, error)
	ListAmendments(ctx context.Context, budgetId int) ([]Amendment, error)
	Approve(ctx context.Context, amendmentId int) (Amendment, error)
	AddLines(ctx context.Context, amendmentId int, lines []LineEntry) ([]LineEntry, error)
	GetLines(ctx context.Context, amendmentId int) ([]LineEntry, error)
	// ResolverFor builds the adjustment resolver for a budget from its current
	// items and all approved amendment lines.
	ResolverFor(ctx context.Context, budgetId int) (*Resolver, error)
}

type ServiceImpl struct {
	repo       Repository
	budgetRepo budget.BudgetRepo
	clock      utils.Clock
}

func NewService(repo Repository, budgetRepo budget.BudgetRepo) *ServiceImpl {
	return &ServiceImpl{repo: repo, budgetRepo: budgetRepo, clock: &utils.SystemClock{}}
}

func (s *ServiceImpl) CreateAmendment(ctx context.Context, amendment Amendment) (Amendment, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Amendment{}, fmt.Errorf("failed to get current user: %w", err)
	}
	if _, err := s.budgetRepo.GetBudget(ctx, userId, amendment.BudgetID); err != nil {
		return Amendment{}, err
	}
	if amendment.SessionNumber == 0 {
		existing, err := s.repo.GetAmendments(ctx, amendment.BudgetID)
		if err != nil {
			return Amendment{}, err
		}
		amendment.SessionNumber = len(existing) + 1
	}
	id, err := s.repo.StoreAmendment(ctx, amendment)
	if err != nil {
		return Amendment{}, err
	}
	amendment.ID = id
	return amendment, nil
}

func (s *ServiceImpl) ListAmendments(ctx context.Context, budgetId int) ([]Amendment, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	if _, err := s.budgetRepo.GetBudget(ctx, userId, budgetId); err != nil {
		return nil, err
	}
	return s.repo.GetAmendments(ctx, budgetId)
}

func (s *ServiceImpl) Approve(ctx context.Context, amendmentId int) (Amendment, error) {
	amendment, err := s.repo.GetAmendment(ctx, amendmentId)
	if err != nil {
		return Amendment{}, err
	}
	if amendment.IsApproved() {
		return amendment, nil
	}
	approvedOn := s.clock.Now()
	approved, err := s.repo.ApproveAmendment(ctx, amendmentId, approvedOn)
	if err != nil {
		return Amendment{}, err
	}
	if !approved {
		log.Warnf("amendment %d not approved, probably because it does not exist", amendmentId)
		return Amendment{}, ErrAmendmentNotFound
	}
	amendment.ApprovedOn = approvedOn
	return amendment, nil
}

func (s *ServiceImpl) AddLines(ctx context.Context, amendmentId int, lines []LineEntry) ([]LineEntry, error) {
	amendment, err := s.repo.GetAmendment(ctx, amendmentId)
	if err != nil {
		return nil, err
	}
	for i := range lines {
		lines[i].SessionNumber = amendment.SessionNumber
	}
	return s.repo.StoreLines(ctx, amendmentId, lines)
}

func (s *ServiceImpl) GetLines(ctx context.Context, amendmentId int) ([]LineEntry, error) {
	if _, err := s.repo.GetAmendment(ctx, amendmentId); err != nil {
		return nil, err
	}
	return s.repo.GetLines(ctx, amendmentId)
}

func (s *ServiceImpl) ResolverFor(ctx context.Context, budgetId int) (*Resolver, error) {
	items, err := s.budgetRepo.GetItems(ctx, budgetId)
	if err != nil {
		return nil, err
	}
	lines, err := s.repo.GetApprovedLines(ctx, budgetId)
	if err != nil {
		return nil, err
	}
	resolver := NewResolver(items, lines)
	if unresolved := resolver.Unresolved(); len(unresolved) > 0 {
		log.Warnf("budget %d has %d amendment line(s) matching no budget item", budgetId, len(unresolved))
	}
	return resolver, nil
}
