package controllers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/loussodesigns/opts/api/responses"
	"github.com/loussodesigns/opts/api/validators"
	"github.com/loussodesigns/opts/internal/customers"
	"github.com/loussodesigns/opts/internal/registration"
	"github.com/loussodesigns/opts/pkg/db/models"
	pkgerrors "github.com/loussodesigns/opts/pkg/errors"
	"github.com/loussodesigns/opts/pkg/logger"
)

// RegistrationManager is the slice of registration.Manager the handlers use.
type RegistrationManager interface {
	Validate(ctx context.Context, token string) (*models.Customer, error)
	Complete(ctx context.Context, token, password, confirm string) (*models.Customer, error)
	Resend(ctx context.Context, customerID, orderID int64) (registration.IssueResult, error)
}

// CooldownStore grants at most one holder of scope per ttl.
type CooldownStore interface {
	AcquireCooldown(ctx context.Context, scope string, ttl time.Duration) (bool, error)
}

type registerRequest struct {
	Token           string `json:"token" validate:"required"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

type resendRequest struct {
	OrderID int64 `json:"order_id" validate:"required,min=1"`
}

// RegisterValidate checks a registration link before the password form is shown.
func RegisterValidate(mgr RegistrationManager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimSpace(r.URL.Query().Get("token"))
		customer, err := mgr.Validate(r.Context(), token)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{
			"email": customer.Email,
			"name":  customer.Name,
		})
	}
}

// RegisterComplete sets the customer's password and burns the token.
func RegisterComplete(mgr RegistrationManager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body registerRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		customer, err := mgr.Complete(r.Context(), body.Token, body.Password, body.ConfirmPassword)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]*customers.CustomerDTO{
			"customer": customers.FromModel(customer),
		})
	}
}

// RegisterResend lets staff mail the registration link again. Repeated
// clicks inside the cooldown are refused; a nil store disables the cooldown.
func RegisterResend(mgr RegistrationManager, cooldowns CooldownStore, cooldown time.Duration, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, err := validators.ParsePathID(r, "customerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body resendRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if cooldowns != nil && cooldown > 0 {
			ok, err := cooldowns.AcquireCooldown(r.Context(), fmt.Sprintf("register-resend:%d", customerID), cooldown)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resend cooldown"))
				return
			}
			if !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "registration email was sent recently"))
				return
			}
		}

		result, err := mgr.Resend(r.Context(), customerID, body.OrderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if result.MailErr != nil {
			responses.WriteError(r.Context(), logg, w, result.MailErr)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"sent": true})
	}
}
