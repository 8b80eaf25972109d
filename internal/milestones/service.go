package milestones

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/loussodesigns/opts/pkg/db/models"
	"github.com/loussodesigns/opts/pkg/enums"
	pkgerrors "github.com/loussodesigns/opts/pkg/errors"
	"github.com/loussodesigns/opts/pkg/logger"
	"gorm.io/gorm"
)

type store interface {
	DB() *gorm.DB
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service applies staff and shop-floor milestone edits.
type Service struct {
	db   store
	logg *logger.Logger
	now  func() time.Time
}

func NewService(db store, logg *logger.Logger) (*Service, error) {
	if db == nil {
		return nil, fmt.Errorf("database client required")
	}
	return &Service{db: db, logg: logg, now: time.Now}, nil
}

// ListForOrder returns the order's milestones in stage order.
func (s *Service) ListForOrder(ctx context.Context, orderID int64) ([]models.OrderMilestone, error) {
	rows, err := NewRepository(s.db.DB()).ListByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list milestones")
	}
	if len(rows) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return rows, nil
}

// UpdateStatuses applies an explicit milestone->status map. Every id must
// belong to the order and every status must be known; nothing is written
// otherwise. All changes commit together.
func (s *Service) UpdateStatuses(ctx context.Context, orderID int64, changes map[int64]enums.MilestoneStatus, actorID *int64) ([]models.OrderMilestone, error) {
	if len(changes) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no milestone changes submitted")
	}

	var updated []models.OrderMilestone
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		current, err := repo.ListByOrder(ctx, orderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load milestones")
		}
		if len(current) == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}

		if problems := checkChanges(current, changes); len(problems) > 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "invalid milestone changes").WithDetails(problems)
		}

		at := s.now().UTC()
		for _, id := range sortedIDs(changes) {
			if _, err := repo.UpdateStatus(ctx, orderID, id, changes[id], actorID, at); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update milestone status")
			}
		}

		updated, err = repo.ListByOrder(ctx, orderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload milestones")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithOrderID(ctx, orderID)
		logCtx = s.logg.WithField(logCtx, "changed", len(changes))
		s.logg.Info(logCtx, "milestone statuses updated")
	}
	return updated, nil
}

// Approve is the shop-floor scan action: the milestone becomes completed and
// approved.
func (s *Service) Approve(ctx context.Context, orderID, milestoneID int64, actorID *int64) (*models.OrderMilestone, error) {
	repo := NewRepository(s.db.DB())
	rows, err := repo.Approve(ctx, orderID, milestoneID, actorID, s.now().UTC())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "approve milestone")
	}
	if rows == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "milestone not found for order")
	}

	current, err := repo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload milestones")
	}
	for i := range current {
		if current[i].ID == milestoneID {
			if s.logg != nil {
				s.logg.Info(s.logg.WithMilestoneID(s.logg.WithOrderID(ctx, orderID), milestoneID), "milestone approved")
			}
			return &current[i], nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "milestone not found for order")
}

func checkChanges(current []models.OrderMilestone, changes map[int64]enums.MilestoneStatus) map[string]string {
	known := make(map[int64]struct{}, len(current))
	for _, m := range current {
		known[m.ID] = struct{}{}
	}

	problems := map[string]string{}
	for id, status := range changes {
		key := strconv.FormatInt(id, 10)
		if _, ok := known[id]; !ok {
			problems[key] = "milestone does not belong to this order"
			continue
		}
		if !status.IsValid() {
			problems[key] = fmt.Sprintf("unknown status %q", status)
		}
	}
	return problems
}

func sortedIDs(changes map[int64]enums.MilestoneStatus) []int64 {
	ids := make([]int64, 0, len(changes))
	for id := range changes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
