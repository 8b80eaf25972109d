package customers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/loussodesigns/opts/pkg/db"
	"github.com/loussodesigns/opts/pkg/db/models"
	pkgerrors "github.com/loussodesigns/opts/pkg/errors"
	"github.com/loussodesigns/opts/pkg/logger"
	"gorm.io/gorm"
)

// WelcomeMailer notifies newly created staff accounts.
type WelcomeMailer interface {
	SendStaffWelcome(ctx context.Context, to, name string) error
}

// ServiceParams packages the dependencies for customer administration.
type ServiceParams struct {
	DB     *db.Client
	Mailer WelcomeMailer
	Logger *logger.Logger
	Now    func() time.Time
}

type Service struct {
	db     *db.Client
	mailer WelcomeMailer
	logg   *logger.Logger
	now    func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{db: params.DB, mailer: params.Mailer, logg: params.Logger, now: now}, nil
}

// Get loads a customer by id.
func (s *Service) Get(ctx context.Context, id int64) (*models.Customer, error) {
	customer, err := NewRepository(s.db.DB()).FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load customer")
	}
	return customer, nil
}

// ListStaff returns the staff accounts ordered by name.
func (s *Service) ListStaff(ctx context.Context) ([]models.Customer, error) {
	staff, err := NewRepository(s.db.DB()).ListStaff(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list staff")
	}
	return staff, nil
}

// CreateStaff inserts a registered staff account and sends the welcome email.
// A failed email is logged; the account still exists.
func (s *Service) CreateStaff(ctx context.Context, name, email, passwordHash string) (*models.Customer, error) {
	name = strings.TrimSpace(name)
	email = NormalizeEmail(email)
	if name == "" || email == "" || passwordHash == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name, email and password are required")
	}

	registeredAt := s.now().UTC()
	hash := passwordHash
	staff := &models.Customer{
		Name:         name,
		Email:        email,
		PasswordHash: &hash,
		IsStaff:      true,
		RegisteredAt: &registeredAt,
	}

	if _, err := NewRepository(s.db.DB()).Create(ctx, staff); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create staff")
	}

	if s.mailer != nil {
		if err := s.mailer.SendStaffWelcome(ctx, email, name); err != nil && s.logg != nil {
			s.logg.Warn(s.logg.WithCustomerID(ctx, staff.ID), "staff welcome email failed: "+err.Error())
		}
	}
	return staff, nil
}
