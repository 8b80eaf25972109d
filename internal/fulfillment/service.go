package fulfillment

import (
	"context"
	"fmt"
	"time"

	"github.com/loussodesigns/opts/internal/artifacts"
	"github.com/loussodesigns/opts/internal/customers"
	"github.com/loussodesigns/opts/internal/intake"
	"github.com/loussodesigns/opts/internal/orders"
	"github.com/loussodesigns/opts/internal/registration"
	"github.com/loussodesigns/opts/pkg/db/models"
	"github.com/loussodesigns/opts/pkg/enums"
	pkgerrors "github.com/loussodesigns/opts/pkg/errors"
	"github.com/loussodesigns/opts/pkg/logger"
	"github.com/loussodesigns/opts/pkg/metrics"
	"gorm.io/gorm"
)

type OrderWriter interface {
	CreateFor(ctx context.Context, source orders.CustomerSource, order intake.Order) (orders.Created, error)
}

type CustomerResolver interface {
	Resolve(ctx context.Context, tx *gorm.DB, contact customers.Contact) (int64, error)
}

type ArtifactRunner interface {
	Run(ctx context.Context, in artifacts.Input) artifacts.Result
}

type TokenIssuer interface {
	Issue(ctx context.Context, customerID int64, email string, orderID int64) (registration.IssueResult, error)
}

type CustomerLookup interface {
	Get(ctx context.Context, id int64) (*models.Customer, error)
}

type Observer interface {
	Observe(outcome string, duration time.Duration)
}

// Params wires the orchestrator.
type Params struct {
	Writer    OrderWriter
	Resolver  CustomerResolver
	Artifacts ArtifactRunner
	Tokens    TokenIssuer
	Customers CustomerLookup
	Metrics   Observer
	Logger    *logger.Logger
	Now       func() time.Time
}

// Result describes a committed order. Artifact and email problems are
// reported as warnings; the order itself is never rolled back for them.
type Result struct {
	OrderID          int64                `json:"order_id"`
	CustomerID       int64                `json:"customer_id"`
	Artifacts        orders.ArtifactPaths `json:"artifacts"`
	Missing          []enums.ArtifactKind `json:"missing_artifacts,omitempty"`
	RegistrationSent bool                 `json:"registration_email_sent"`
	Warnings         []string             `json:"warnings,omitempty"`
}

// Service runs intake, customer resolution, the order write, artifact
// generation and token issue, in that order.
type Service struct {
	writer    OrderWriter
	resolver  CustomerResolver
	artifacts ArtifactRunner
	tokens    TokenIssuer
	customers CustomerLookup
	metrics   Observer
	logg      *logger.Logger
	now       func() time.Time
}

func NewService(p Params) (*Service, error) {
	switch {
	case p.Writer == nil:
		return nil, fmt.Errorf("order writer required")
	case p.Resolver == nil:
		return nil, fmt.Errorf("customer resolver required")
	case p.Artifacts == nil:
		return nil, fmt.Errorf("artifact pipeline required")
	case p.Tokens == nil:
		return nil, fmt.Errorf("token issuer required")
	case p.Customers == nil:
		return nil, fmt.Errorf("customer lookup required")
	}
	now := p.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		writer:    p.Writer,
		resolver:  p.Resolver,
		artifacts: p.Artifacts,
		tokens:    p.Tokens,
		customers: p.Customers,
		metrics:   p.Metrics,
		logg:      p.Logger,
		now:       now,
	}, nil
}

// Fulfill validates and records an order. Validation errors return before
// anything is written.
func (s *Service) Fulfill(ctx context.Context, raw intake.RawOrder) (*Result, error) {
	started := s.now()

	order, err := intake.Build(raw)
	if err != nil {
		s.observe(metrics.OutcomeRejected, started)
		return nil, err
	}

	created, err := s.writer.CreateFor(ctx, func(ctx context.Context, tx *gorm.DB) (int64, error) {
		return s.resolver.Resolve(ctx, tx, order.Contact)
	}, order)
	if err != nil {
		s.observe(metrics.OutcomeFailed, started)
		if s.logg != nil {
			s.logg.Error(s.logg.WithField(ctx, "invoice_no", order.InvoiceNo), "order write failed", err)
		}
		return nil, err
	}

	ctx = s.withOrder(ctx, created)
	result := &Result{OrderID: created.OrderID, CustomerID: created.CustomerID}

	produced := s.artifacts.Run(ctx, artifacts.Input{
		OrderID:  created.OrderID,
		Document: artifacts.NewDocument(created.OrderID, order, s.now()),
	})
	result.Artifacts = produced.Paths
	result.Missing = produced.Missing
	if produced.Err != nil {
		result.Warnings = append(result.Warnings, warning(produced.Err))
	}

	s.issueToken(ctx, created, order.Contact.Email, result)

	s.observe(metrics.OutcomeCreated, started)
	if s.logg != nil {
		s.logg.Info(ctx, "order fulfilled")
	}
	return result, nil
}

// issueToken onboards customers that have not registered yet.
func (s *Service) issueToken(ctx context.Context, created orders.Created, email string, result *Result) {
	customer, err := s.customers.Get(ctx, created.CustomerID)
	if err != nil {
		result.Warnings = append(result.Warnings, warning(err))
		return
	}
	if customer.HasPassword() {
		return
	}

	issued, err := s.tokens.Issue(ctx, created.CustomerID, email, created.OrderID)
	if pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		// registered between the lookup and the token write
		return
	}
	if err != nil {
		result.Warnings = append(result.Warnings, warning(err))
		return
	}
	if issued.MailErr != nil {
		result.Warnings = append(result.Warnings, warning(issued.MailErr))
		return
	}
	result.RegistrationSent = true
}

func (s *Service) withOrder(ctx context.Context, created orders.Created) context.Context {
	if s.logg == nil {
		return ctx
	}
	return s.logg.WithCustomerID(s.logg.WithOrderID(ctx, created.OrderID), created.CustomerID)
}

func (s *Service) observe(outcome string, started time.Time) {
	if s.metrics != nil {
		s.metrics.Observe(outcome, s.now().Sub(started))
	}
}

// warning renders typed errors as "CODE: message" without their causes.
func warning(err error) string {
	if typed := pkgerrors.As(err); typed != nil {
		return typed.Error()
	}
	return err.Error()
}
