package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/loussodesigns/opts/internal/milestones"
	"github.com/loussodesigns/opts/pkg/enums"
	pkgerrors "github.com/loussodesigns/opts/pkg/errors"
	"github.com/loussodesigns/opts/pkg/logger"
	"github.com/loussodesigns/opts/pkg/pagination"
	"gorm.io/gorm"
)

type store interface {
	DB() *gorm.DB
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ArtifactRemover deletes stored files by web path.
type ArtifactRemover interface {
	Delete(ctx context.Context, webPath string) error
}

// Service serves the read side of orders and staff deletes. Composite status
// is computed on every read and never stored.
type Service struct {
	db    store
	files ArtifactRemover
	logg  *logger.Logger
}

func NewService(db store, files ArtifactRemover, logg *logger.Logger) (*Service, error) {
	if db == nil {
		return nil, fmt.Errorf("database client required")
	}
	return &Service{db: db, files: files, logg: logg}, nil
}

// List returns one page of every order, newest first.
func (s *Service) List(ctx context.Context, params pagination.Params) (*OrderList, error) {
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	conn := s.db.DB()
	rows, next, err := NewRepository(conn).ListOrders(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}

	ids := orderIDs(rows)
	msRepo := milestones.NewRepository(conn)
	statuses, err := msRepo.StatusesByOrder(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load milestone statuses")
	}
	counts, err := msRepo.CountByName(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count milestones")
	}

	return &OrderList{
		Orders:          summaries(rows, statuses),
		MilestoneCounts: counts,
		NextCursor:      next,
	}, nil
}

// ListForCustomer returns a customer's orders by descending invoice number.
func (s *Service) ListForCustomer(ctx context.Context, customerID int64) ([]OrderSummary, error) {
	conn := s.db.DB()
	rows, err := NewRepository(conn).ListCustomerOrders(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list customer orders")
	}
	statuses, err := milestones.NewRepository(conn).StatusesByOrder(ctx, orderIDs(rows))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load milestone statuses")
	}
	return summaries(rows, statuses), nil
}

// Detail returns an order with milestones, items and spec.
func (s *Service) Detail(ctx context.Context, orderID int64) (*OrderDetail, error) {
	conn := s.db.DB()
	repo := NewRepository(conn)

	row, err := repo.FindOrder(ctx, orderID)
	if err != nil {
		return nil, notFoundOr(err, "load order")
	}

	ms, err := milestones.NewRepository(conn).ListByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load milestones")
	}
	items, err := repo.FindItems(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load items")
	}
	spec, err := repo.FindSpec(ctx, orderID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load spec")
	}

	statuses := make([]enums.MilestoneStatus, 0, len(ms))
	for _, m := range ms {
		statuses = append(statuses, m.Status)
	}

	return &OrderDetail{
		OrderSummary: summaryFromRow(*row, statuses),
		Notes:        row.Notes,
		Milestones:   MilestoneDTOs(ms),
		Items:        itemDTOs(items),
		Spec:         specDTO(spec),
	}, nil
}

// Scan returns the shop-floor view of an order.
func (s *Service) Scan(ctx context.Context, orderID int64) (*ScanView, error) {
	conn := s.db.DB()
	row, err := NewRepository(conn).FindOrder(ctx, orderID)
	if err != nil {
		return nil, notFoundOr(err, "load order")
	}
	ms, err := milestones.NewRepository(conn).ListByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load milestones")
	}
	return &ScanView{OrderID: row.ID, InvoiceNo: row.InvoiceNo, Milestones: MilestoneDTOs(ms)}, nil
}

// Delete removes an order and its children in one transaction, then removes
// the stored artifacts. File cleanup failures are logged only.
func (s *Service) Delete(ctx context.Context, orderID int64) error {
	var paths ArtifactPaths
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		row, err := repo.FindOrder(ctx, orderID)
		if err != nil {
			return notFoundOr(err, "load order")
		}
		paths = ArtifactPaths{QRPath: row.QRPath, InternalPDFPath: row.InternalPDFPath, ClientPDFPath: row.ClientPDFPath}

		if _, err := repo.DeleteOrder(ctx, orderID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete order")
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithOrderID(ctx, orderID), "order deleted")
	}
	if s.files == nil {
		return nil
	}
	for _, path := range []*string{paths.QRPath, paths.InternalPDFPath, paths.ClientPDFPath} {
		if path == nil {
			continue
		}
		if err := s.files.Delete(ctx, *path); err != nil && s.logg != nil {
			s.logg.Warn(s.logg.WithOrderID(ctx, orderID), "artifact cleanup failed: "+err.Error())
		}
	}
	return nil
}

func summaries(rows []OrderRow, statuses map[int64][]enums.MilestoneStatus) []OrderSummary {
	out := make([]OrderSummary, 0, len(rows))
	for _, row := range rows {
		out = append(out, summaryFromRow(row, statuses[row.ID]))
	}
	return out
}

func orderIDs(rows []OrderRow) []int64 {
	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	return ids
}

func notFoundOr(err error, action string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, action)
}

// RecordArtifacts stores the artifact web paths in a single update.
func (s *Service) RecordArtifacts(ctx context.Context, orderID int64, paths ArtifactPaths) error {
	if err := NewRepository(s.db.DB()).UpdateArtifactPaths(ctx, orderID, paths); err != nil {
		return notFoundOr(err, "record artifact paths")
	}
	return nil
}
