package orders

import (
	"context"

	"github.com/loussodesigns/opts/pkg/db/models"
	"github.com/loussodesigns/opts/pkg/pagination"
)

// Repository defines persistence operations for the order tables.
type Repository interface {
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	CreateMilestones(ctx context.Context, milestones []models.OrderMilestone) error
	CreateItems(ctx context.Context, items []models.OrderItem) error
	CreateSpec(ctx context.Context, spec *models.OrderSpec) error
	UpdateArtifactPaths(ctx context.Context, orderID int64, paths ArtifactPaths) error
	FindOrder(ctx context.Context, orderID int64) (*OrderRow, error)
	FindItems(ctx context.Context, orderID int64) ([]models.OrderItem, error)
	FindSpec(ctx context.Context, orderID int64) (*models.OrderSpec, error)
	ListCustomerOrders(ctx context.Context, customerID int64) ([]OrderRow, error)
	ListOrders(ctx context.Context, params pagination.Params) ([]OrderRow, string, error)
	DeleteOrder(ctx context.Context, orderID int64) (int64, error)
}
