package customers

import (
	"context"
	"time"

	"github.com/loussodesigns/opts/pkg/db/models"
	"gorm.io/gorm"
)

// Repository exposes customer persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a customers repo bound to the provided GORM DB or tx.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new customer and returns the persisted model.
func (r *Repository) Create(ctx context.Context, customer *models.Customer) (*models.Customer, error) {
	if err := r.db.WithContext(ctx).Create(customer).Error; err != nil {
		return nil, err
	}
	return customer, nil
}

// FindByEmail retrieves the customer matching the provided (normalized) email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

// FindByID loads a customer by primary key.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).First(&customer, "customer_id = ?", id).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

// FindByRegisterToken loads the customer holding an outstanding registration token.
func (r *Repository) FindByRegisterToken(ctx context.Context, token string) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).Where("register_token = ?", token).First(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

// SetRegisterToken stores a fresh token on a customer who has not registered
// yet. Zero rows means the customer is missing or already has a password.
func (r *Repository) SetRegisterToken(ctx context.Context, id int64, token string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Customer{}).
		Where("customer_id = ? AND password_hash IS NULL", id).
		UpdateColumn("register_token", token)
	return res.RowsAffected, res.Error
}

// ConsumeRegisterToken sets the password and clears the token in a single
// conditional update. Zero rows means the token was already used or replaced.
func (r *Repository) ConsumeRegisterToken(ctx context.Context, id int64, token, passwordHash string, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Customer{}).
		Where("customer_id = ? AND register_token = ?", id, token).
		UpdateColumns(map[string]any{
			"password_hash":  passwordHash,
			"register_token": nil,
			"registered_at":  at,
		})
	return res.RowsAffected, res.Error
}

// ListStaff returns every staff account ordered by name.
func (r *Repository) ListStaff(ctx context.Context) ([]models.Customer, error) {
	var staff []models.Customer
	err := r.db.WithContext(ctx).
		Where("is_staff = ?", true).
		Order("name ASC").
		Find(&staff).Error
	return staff, err
}
