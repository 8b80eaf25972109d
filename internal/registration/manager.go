package registration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/loussodesigns/opts/internal/customers"
	"github.com/loussodesigns/opts/pkg/config"
	"github.com/loussodesigns/opts/pkg/db/models"
	pkgerrors "github.com/loussodesigns/opts/pkg/errors"
	"github.com/loussodesigns/opts/pkg/logger"
	"github.com/loussodesigns/opts/pkg/security"
	"gorm.io/gorm"
)

const mailTemplate = "registration"

// Mailer delivers the registration link.
type Mailer interface {
	SendRegistrationEmail(ctx context.Context, to, token string, orderID int64) error
}

type MailFailureCounter interface {
	IncMailFailure(template string)
}

type store interface {
	DB() *gorm.DB
}

// Params wires the token manager.
type Params struct {
	DB       store
	Mailer   Mailer
	Password config.PasswordConfig
	Logger   *logger.Logger
	Failures MailFailureCounter
	Now      func() time.Time
	Tokens   func() (string, error)
}

// Manager owns the one-time registration token: issue, mail, validate and
// consume. A token is cleared exactly once, by the update that sets the
// password.
type Manager struct {
	db       store
	mailer   Mailer
	password config.PasswordConfig
	logg     *logger.Logger
	failures MailFailureCounter
	now      func() time.Time
	tokens   func() (string, error)
}

func NewManager(p Params) (*Manager, error) {
	if p.DB == nil {
		return nil, fmt.Errorf("database client required")
	}
	if p.Mailer == nil {
		return nil, fmt.Errorf("mailer required")
	}
	m := &Manager{
		db:       p.DB,
		mailer:   p.Mailer,
		password: p.Password,
		logg:     p.Logger,
		failures: p.Failures,
		now:      p.Now,
		tokens:   p.Tokens,
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.tokens == nil {
		m.tokens = security.GenerateRegisterToken
	}
	return m, nil
}

// IssueResult carries the stored token and, when the email could not be
// sent, a MAIL_DELIVERY_FAILED error. The token stays valid either way.
type IssueResult struct {
	Token   string
	MailErr error
}

// Issue stores a fresh token on the customer, replacing any earlier one, and
// mails the registration link. Registered customers are refused.
func (m *Manager) Issue(ctx context.Context, customerID int64, email string, orderID int64) (IssueResult, error) {
	token, err := m.tokens()
	if err != nil {
		return IssueResult{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate registration token")
	}

	repo := customers.NewRepository(m.db.DB())
	rows, err := repo.SetRegisterToken(ctx, customerID, token)
	if err != nil {
		return IssueResult{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store registration token")
	}
	if rows == 0 {
		_, err := repo.FindByID(ctx, customerID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return IssueResult{}, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		case err != nil:
			return IssueResult{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load customer")
		default:
			return IssueResult{}, pkgerrors.New(pkgerrors.CodeStateConflict, "customer already registered")
		}
	}

	if m.logg != nil {
		logCtx := m.logg.WithCustomerID(ctx, customerID)
		logCtx = m.logg.WithField(logCtx, "token_fp", security.FingerprintToken(token))
		m.logg.Info(logCtx, "registration token issued")
	}

	return IssueResult{Token: token, MailErr: m.send(ctx, customerID, email, token, orderID)}, nil
}

// Validate returns the customer holding token.
func (m *Manager) Validate(ctx context.Context, token string) (*models.Customer, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, invalidToken()
	}
	customer, err := customers.NewRepository(m.db.DB()).FindByRegisterToken(ctx, token)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, invalidToken()
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup registration token")
	}
	return customer, nil
}

// Complete sets the password and consumes the token. The conditional update
// lets exactly one of several concurrent submissions succeed.
func (m *Manager) Complete(ctx context.Context, token, password, confirm string) (*models.Customer, error) {
	problems := map[string]string{}
	if utf8.RuneCountInString(password) < security.MinPasswordLength {
		problems["password"] = fmt.Sprintf("must be at least %d characters", security.MinPasswordLength)
	}
	if password != confirm {
		problems["confirm_password"] = "passwords do not match"
	}
	if len(problems) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password rejected").WithDetails(problems)
	}

	customer, err := m.Validate(ctx, token)
	if err != nil {
		return nil, err
	}

	hash, err := security.HashPassword(password, m.password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	repo := customers.NewRepository(m.db.DB())
	rows, err := repo.ConsumeRegisterToken(ctx, customer.ID, strings.TrimSpace(token), hash, m.now().UTC())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "consume registration token")
	}
	if rows == 0 {
		return nil, invalidToken()
	}

	registered, err := repo.FindByID(ctx, customer.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload customer")
	}
	if m.logg != nil {
		m.logg.Info(m.logg.WithCustomerID(ctx, customer.ID), "registration completed")
	}
	return registered, nil
}

// Resend mails the outstanding token again, issuing one if the customer has
// none. Registered customers are refused.
func (m *Manager) Resend(ctx context.Context, customerID, orderID int64) (IssueResult, error) {
	customer, err := customers.NewRepository(m.db.DB()).FindByID(ctx, customerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return IssueResult{}, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
	}
	if err != nil {
		return IssueResult{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load customer")
	}
	if customer.HasPassword() {
		return IssueResult{}, pkgerrors.New(pkgerrors.CodeStateConflict, "customer already registered")
	}

	if customer.RegisterToken == nil || *customer.RegisterToken == "" {
		return m.Issue(ctx, customer.ID, customer.Email, orderID)
	}
	token := *customer.RegisterToken
	return IssueResult{Token: token, MailErr: m.send(ctx, customer.ID, customer.Email, token, orderID)}, nil
}

func (m *Manager) send(ctx context.Context, customerID int64, email, token string, orderID int64) error {
	err := m.mailer.SendRegistrationEmail(ctx, email, token, orderID)
	if err == nil {
		return nil
	}
	if m.failures != nil {
		m.failures.IncMailFailure(mailTemplate)
	}
	if m.logg != nil {
		m.logg.Warn(m.logg.WithCustomerID(ctx, customerID), "registration email failed: "+err.Error())
	}
	return pkgerrors.Wrap(pkgerrors.CodeMailDeliveryFailed, err, "registration email not delivered")
}

func invalidToken() error {
	return pkgerrors.New(pkgerrors.CodeInvalidOrExpiredToken, "invalid or expired registration link")
}
