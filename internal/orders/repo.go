package orders

import (
	"context"

	"github.com/loussodesigns/opts/pkg/db/models"
	"github.com/loussodesigns/opts/pkg/pagination"
	"gorm.io/gorm"
)

const orderRowColumns = "orders.*, customers.name AS customer_name, customers.email AS customer_email"

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) CreateMilestones(ctx context.Context, milestones []models.OrderMilestone) error {
	if len(milestones) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&milestones).Error
}

func (r *repository) CreateItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) CreateSpec(ctx context.Context, spec *models.OrderSpec) error {
	return r.db.WithContext(ctx).Create(spec).Error
}

// UpdateArtifactPaths writes all three artifact columns in one statement.
// Nil paths store NULL.
func (r *repository) UpdateArtifactPaths(ctx context.Context, orderID int64, paths ArtifactPaths) error {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("order_id = ?", orderID).
		Updates(map[string]any{
			"qr_path":           paths.QRPath,
			"internal_pdf_path": paths.InternalPDFPath,
			"client_pdf_path":   paths.ClientPDFPath,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) FindOrder(ctx context.Context, orderID int64) (*OrderRow, error) {
	var row OrderRow
	err := r.joined(ctx).
		Where("orders.order_id = ?", orderID).
		Take(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) FindItems(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("item_id ASC").
		Find(&items).Error
	return items, err
}

func (r *repository) FindSpec(ctx context.Context, orderID int64) (*models.OrderSpec, error) {
	var spec models.OrderSpec
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&spec).Error; err != nil {
		return nil, err
	}
	return &spec, nil
}

func (r *repository) ListCustomerOrders(ctx context.Context, customerID int64) ([]OrderRow, error) {
	var rows []OrderRow
	err := r.joined(ctx).
		Where("orders.customer_id = ?", customerID).
		Order("orders.invoice_no DESC").
		Find(&rows).Error
	return rows, err
}

// ListOrders pages through every order, newest first.
func (r *repository) ListOrders(ctx context.Context, params pagination.Params) ([]OrderRow, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}

	query := r.joined(ctx)
	if cursor != nil {
		query = query.Where("orders.order_id < ?", cursor.ID)
	}

	var rows []OrderRow
	if err := query.Order("orders.order_id DESC").Limit(pagination.LimitWithBuffer(params.Limit)).Find(&rows).Error; err != nil {
		return nil, "", err
	}

	limit := pagination.NormalizeLimit(params.Limit)
	if len(rows) <= limit {
		return rows, "", nil
	}
	rows = rows[:limit]
	return rows, pagination.EncodeCursor(pagination.Cursor{ID: rows[limit-1].ID}), nil
}

// DeleteOrder removes the order and its children. Callers run it in a tx.
func (r *repository) DeleteOrder(ctx context.Context, orderID int64) (int64, error) {
	db := r.db.WithContext(ctx)
	for _, child := range []any{&models.OrderItem{}, &models.OrderSpec{}, &models.OrderMilestone{}} {
		if err := db.Where("order_id = ?", orderID).Delete(child).Error; err != nil {
			return 0, err
		}
	}
	res := db.Where("order_id = ?", orderID).Delete(&models.Order{})
	return res.RowsAffected, res.Error
}

func (r *repository) joined(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select(orderRowColumns).
		Joins("JOIN customers ON customers.customer_id = orders.customer_id")
}
