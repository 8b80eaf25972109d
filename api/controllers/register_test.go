package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loussodesigns/opts/internal/registration"
	"github.com/loussodesigns/opts/pkg/config"
	"github.com/loussodesigns/opts/pkg/db/models"
	pkgerrors "github.com/loussodesigns/opts/pkg/errors"
	"github.com/loussodesigns/opts/pkg/types"
)

type stubRegistration struct {
	customer  *models.Customer
	err       error
	resend    registration.IssueResult
	completed []string
	resent    []int64
}

func (s *stubRegistration) Validate(ctx context.Context, token string) (*models.Customer, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.customer, nil
}

func (s *stubRegistration) Complete(ctx context.Context, token, password, confirm string) (*models.Customer, error) {
	s.completed = append(s.completed, token)
	if s.err != nil {
		return nil, s.err
	}
	return s.customer, nil
}

func (s *stubRegistration) Resend(ctx context.Context, customerID, orderID int64) (registration.IssueResult, error) {
	s.resent = append(s.resent, customerID, orderID)
	return s.resend, s.err
}

type stubCooldowns struct {
	held map[string]bool
}

func (s *stubCooldowns) AcquireCooldown(ctx context.Context, scope string, ttl time.Duration) (bool, error) {
	if s.held[scope] {
		return false, nil
	}
	s.held[scope] = true
	return true, nil
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) types.APIError {
	t.Helper()
	var env types.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env.Error
}

func TestRegisterValidateReturnsEmail(t *testing.T) {
	mgr := &stubRegistration{customer: &models.Customer{ID: 3, Name: "Ada", Email: "ada@example.com"}}
	rec := httptest.NewRecorder()

	RegisterValidate(mgr, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/register?token=abc", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"email":"ada@example.com"`)
}

func TestRegisterValidateInvalidToken(t *testing.T) {
	mgr := &stubRegistration{err: pkgerrors.New(pkgerrors.CodeInvalidOrExpiredToken, "invalid or expired registration link")}
	rec := httptest.NewRecorder()

	RegisterValidate(mgr, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/register", nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeInvalidOrExpiredToken), decodeError(t, rec).Code)
}

func TestRegisterCompleteHidesCredentials(t *testing.T) {
	hash := "$argon2id$secret"
	mgr := &stubRegistration{customer: &models.Customer{ID: 3, Email: "ada@example.com", PasswordHash: &hash}}
	rec := httptest.NewRecorder()
	body := `{"token":"abc","password":"longpassword","confirm_password":"longpassword"}`

	RegisterComplete(mgr, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/register", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"abc"}, mgr.completed)
	assert.NotContains(t, rec.Body.String(), "argon2id")
	assert.Contains(t, rec.Body.String(), `"registered":true`)
}

func TestRegisterCompleteRequiresFields(t *testing.T) {
	mgr := &stubRegistration{}
	rec := httptest.NewRecorder()

	RegisterComplete(mgr, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/register", strings.NewReader(`{"token":"abc"}`)))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, mgr.completed)
}

func resendRequestFor(customerID string, body string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("customerId", customerID)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/customers/"+customerID+"/registration/resend", strings.NewReader(body))
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestRegisterResendAppliesCooldown(t *testing.T) {
	mgr := &stubRegistration{resend: registration.IssueResult{Token: "tok"}}
	handler := RegisterResend(mgr, &stubCooldowns{held: map[string]bool{}}, time.Minute, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, resendRequestFor("9", `{"order_id":4}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int64{9, 4}, mgr.resent)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, resendRequestFor("9", `{"order_id":4}`))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Len(t, mgr.resent, 2)
}

func TestRegisterResendReportsMailFailure(t *testing.T) {
	mgr := &stubRegistration{resend: registration.IssueResult{
		Token:   "tok",
		MailErr: pkgerrors.New(pkgerrors.CodeMailDeliveryFailed, "registration email not delivered"),
	}}
	rec := httptest.NewRecorder()

	RegisterResend(mgr, nil, 0, nil).ServeHTTP(rec, resendRequestFor("9", `{"order_id":4}`))

	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeMailDeliveryFailed), decodeError(t, rec).Code)
}

func TestRegisterResendRejectsBadCustomerID(t *testing.T) {
	mgr := &stubRegistration{}
	rec := httptest.NewRecorder()

	RegisterResend(mgr, nil, 0, nil).ServeHTTP(rec, resendRequestFor("abc", `{"order_id":4}`))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, mgr.resent)
}

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}

	rec := httptest.NewRecorder()
	HealthReady(cfg, map[string]Pinger{"db": stubPinger{}}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test", rec.Header().Get(envHeader))

	rec = httptest.NewRecorder()
	HealthReady(cfg, map[string]Pinger{"db": stubPinger{err: context.DeadlineExceeded}}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "context deadline exceeded")
}
