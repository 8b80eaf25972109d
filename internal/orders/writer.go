package orders

import (
	"context"
	"fmt"

	"github.com/loussodesigns/opts/internal/intake"
	"github.com/loussodesigns/opts/pkg/db"
	"github.com/loussodesigns/opts/pkg/db/models"
	"github.com/loussodesigns/opts/pkg/enums"
	pkgerrors "github.com/loussodesigns/opts/pkg/errors"
	"github.com/loussodesigns/opts/pkg/logger"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
	Reconnect(ctx context.Context) error
}

// RetryCounter records reconnect-and-redo attempts.
type RetryCounter interface {
	IncPersistRetry()
}

// CustomerSource yields the owning customer id on the order's transaction.
type CustomerSource func(ctx context.Context, tx *gorm.DB) (int64, error)

// KnownCustomer is a CustomerSource for an id resolved earlier.
func KnownCustomer(id int64) CustomerSource {
	return func(context.Context, *gorm.DB) (int64, error) {
		return id, nil
	}
}

// Created identifies a committed order.
type Created struct {
	OrderID    int64 `json:"order_id"`
	CustomerID int64 `json:"customer_id"`
}

// Writer persists an order header, its milestones, items and spec as one
// transaction.
type Writer struct {
	db      txRunner
	logg    *logger.Logger
	retries RetryCounter
}

func NewWriter(db txRunner, logg *logger.Logger, retries RetryCounter) (*Writer, error) {
	if db == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &Writer{db: db, logg: logg, retries: retries}, nil
}

// Create writes the order for an existing customer.
func (w *Writer) Create(ctx context.Context, customerID int64, order intake.Order) (Created, error) {
	return w.CreateFor(ctx, KnownCustomer(customerID), order)
}

// CreateFor resolves the customer and writes the order in the same
// transaction. A broken connection triggers exactly one reconnect and a full
// redo; any other failure, or a second one, is reported as a persist failure.
func (w *Writer) CreateFor(ctx context.Context, source CustomerSource, order intake.Order) (Created, error) {
	if len(order.Milestones) == 0 || len(order.Items) == 0 {
		return Created{}, pkgerrors.New(pkgerrors.CodeValidation, "order needs at least one milestone and one item")
	}

	created, err := w.write(ctx, source, order)
	if err == nil {
		return created, nil
	}
	if !db.IsConnectionError(err) {
		return Created{}, persistFailed(err)
	}

	if w.retries != nil {
		w.retries.IncPersistRetry()
	}
	if w.logg != nil {
		w.logg.Warn(w.logg.WithField(ctx, "invoice_no", order.InvoiceNo), "order write lost its connection, reconnecting: "+err.Error())
	}

	if reconnectErr := w.db.Reconnect(ctx); reconnectErr != nil {
		return Created{}, pkgerrors.Wrap(pkgerrors.CodeOrderPersistFailed, reconnectErr, "reconnect after connection loss")
	}

	created, err = w.write(ctx, source, order)
	if err != nil {
		return Created{}, persistFailed(err)
	}
	return created, nil
}

func (w *Writer) write(ctx context.Context, source CustomerSource, order intake.Order) (Created, error) {
	var created Created
	err := w.db.WithTx(ctx, func(tx *gorm.DB) error {
		customerID, err := source(ctx, tx)
		if err != nil {
			return err
		}

		repo := NewRepository(tx)
		header, err := repo.CreateOrder(ctx, &models.Order{
			CustomerID: customerID,
			InvoiceNo:  order.InvoiceNo,
			DueDate:    order.DueDate,
			Notes:      order.Notes,
			Status:     enums.OrderStatusOpen,
		})
		if err != nil {
			return err
		}

		if err := repo.CreateMilestones(ctx, milestoneRows(header.ID, order.Milestones)); err != nil {
			return err
		}
		if err := repo.CreateItems(ctx, itemRows(header.ID, order.Items)); err != nil {
			return err
		}
		if err := repo.CreateSpec(ctx, specRow(header.ID, order.Spec)); err != nil {
			return err
		}

		created = Created{OrderID: header.ID, CustomerID: customerID}
		return nil
	})
	return created, err
}

// persistFailed keeps typed domain errors, such as a lost email race, and
// classifies everything else as a persist failure.
func persistFailed(err error) error {
	if typed := pkgerrors.As(err); typed != nil && typed.Code() != pkgerrors.CodeInternal {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeOrderPersistFailed, err, "order could not be saved")
}

func milestoneRows(orderID int64, milestones []intake.Milestone) []models.OrderMilestone {
	rows := make([]models.OrderMilestone, 0, len(milestones))
	for _, m := range milestones {
		rows = append(rows, models.OrderMilestone{
			OrderID:     orderID,
			Name:        m.Name,
			StageNumber: m.StageNumber,
			Status:      enums.MilestoneStatusNotStarted,
		})
	}
	return rows
}

func itemRows(orderID int64, items []intake.Item) []models.OrderItem {
	rows := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		rows = append(rows, models.OrderItem{
			OrderID:  orderID,
			ItemCode: item.Code,
			ItemType: item.Type,
			Status:   enums.ItemStatusPending,
		})
	}
	return rows
}

func specRow(orderID int64, spec intake.Spec) *models.OrderSpec {
	return &models.OrderSpec{
		OrderID:          orderID,
		Quantity:         spec.Quantity,
		RepairGlue:       spec.RepairGlue,
		ReplaceSprings:   spec.ReplaceSprings,
		BackStyle:        spec.BackStyle,
		SeatStyle:        spec.SeatStyle,
		NewBackInsert:    spec.NewBackInsert,
		NewSeatInsert:    spec.NewSeatInsert,
		BackInsertType:   spec.BackInsertType,
		SeatInsertType:   spec.SeatInsertType,
		TrimStyle:        spec.TrimStyle,
		Placement:        spec.Placement,
		FabricSpecs:      spec.FabricSpecs,
		VendorColor:      spec.VendorColor,
		FrameFinish:      spec.FrameFinish,
		Specs:            spec.Specs,
		Topcoat:          spec.Topcoat,
		CustomerInitials: spec.CustomerInitials,
	}
}
