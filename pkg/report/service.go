package report

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/obralog/obralog/internal/event_bus"
	"github.com/obralog/obralog/internal/utils"
	"github.com/obralog/obralog/pkg/budget"
	"github.com/obralog/obralog/pkg/user"
	log "github.com/sirupsen/logrus"
)

type Service interface {
	Create(ctx context.Context, report Report) (Report, error)
	Get(ctx context.Context, uid string) (Report, error)
	ListForBudget(ctx context.Context, budgetId int) ([]Report, error)
	Approve(ctx context.Context, uid string) (Report, error)
	Reopen(ctx context.Context, uid string) (Report, error)
	Delete(ctx context.Context, uid string) (bool, error)
}

type ServiceImpl struct {
	repo       Repository
	budgetRepo budget.BudgetRepo
	bus        *event_bus.EventBus
	clock      utils.Clock
}

func NewService(repo Repository, budgetRepo budget.BudgetRepo, bus *event_bus.EventBus) *ServiceImpl {
	return &ServiceImpl{repo: repo, budgetRepo: budgetRepo, bus: bus, clock: &utils.SystemClock{}}
}

func (s *ServiceImpl) Create(ctx context.Context, report Report) (Report, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("failed to get current user: %w", err)
	}
	if _, err := s.budgetRepo.GetBudget(ctx, userId, report.BudgetID); err != nil {
		return Report{}, err
	}
	report.Uid = uuid.NewString()
	report.Status = StatusDraft
	if report.ReportDate.IsZero() {
		report.ReportDate = s.clock.Now()
	}
	id, err := s.repo.Store(ctx, report)
	if err != nil {
		return Report{}, err
	}
	report.ID = id
	return report, nil
}

func (s *ServiceImpl) Get(ctx context.Context, uid string) (Report, error) {
	return s.repo.GetByUid(ctx, uid)
}

func (s *ServiceImpl) ListForBudget(ctx context.Context, budgetId int) ([]Report, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	if _, err := s.budgetRepo.GetBudget(ctx, userId, budgetId); err != nil {
		return nil, err
	}
	return s.repo.GetAllForBudget(ctx, budgetId)
}

func (s *ServiceImpl) Approve(ctx context.Context, uid string) (Report, error) {
	return s.setStatus(ctx, uid, StatusApproved)
}

func (s *ServiceImpl) Reopen(ctx context.Context, uid string) (Report, error) {
	return s.setStatus(ctx, uid, StatusDraft)
}

func (s *ServiceImpl) setStatus(ctx context.Context, uid string, status Status) (Report, error) {
	report, err := s.repo.GetByUid(ctx, uid)
	if err != nil {
		return Report{}, err
	}
	if report.Status == status {
		return report, nil
	}
	updated, err := s.repo.UpdateStatus(ctx, uid, status)
	if err != nil {
		return Report{}, err
	}
	if !updated {
		log.Warnf("report %s status not updated, probably because it does not exist", uid)
		return Report{}, ErrReportNotFound
	}
	report.Status = status

	if s.bus != nil {
		event := event_bus.NewEvent(ctx, event_bus.ReportStatusChangedType, event_bus.ReportStatusChanged{
			ReportUid: report.Uid,
			BudgetId:  report.BudgetID,
			Status:    string(status),
		})
		if err := s.bus.Publish(event); err != nil {
			log.Warnf("failed to publish report status change: %v", err)
		}
	}
	return report, nil
}

func (s *ServiceImpl) Delete(ctx context.Context, uid string) (bool, error) {
	deleted, err := s.repo.Delete(ctx, uid)
	if err != nil {
		return false, err
	}
	if !deleted {
		log.Warnf("report not deleted, probably because it does not exist (%s)", uid)
		return false, fmt.Errorf("report not deleted")
	}
	return true, nil
}
