package registration

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/loussodesigns/opts/internal/customers"
	"github.com/loussodesigns/opts/pkg/config"
	"github.com/loussodesigns/opts/pkg/db"
	"github.com/loussodesigns/opts/pkg/db/models"
	pkgerrors "github.com/loussodesigns/opts/pkg/errors"
	"github.com/loussodesigns/opts/pkg/migrate"
	"github.com/loussodesigns/opts/pkg/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testPasswordConfig = config.PasswordConfig{
	ArgonMemoryKB:    8 * 1024,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

type recordingMailer struct {
	sent []string
	err  error
}

func (r *recordingMailer) SendRegistrationEmail(_ context.Context, to, token string, orderID int64) error {
	r.sent = append(r.sent, fmt.Sprintf("%s|%s|%d", to, token, orderID))
	return r.err
}

type countingMailFailures struct{ n int }

func (c *countingMailFailures) IncMailFailure(string) { c.n++ }

func setup(t *testing.T, mailer Mailer) (*Manager, *gorm.DB, *models.Customer) {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	client := db.NewWithConn(conn)
	require.NoError(t, migrate.AutoMigrateModels(context.Background(), client))

	customer, err := customers.NewRepository(conn).Create(context.Background(), &models.Customer{Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)

	m, err := NewManager(Params{DB: client, Mailer: mailer, Password: testPasswordConfig})
	require.NoError(t, err)
	return m, conn, customer
}

func reload(t *testing.T, conn *gorm.DB, id int64) *models.Customer {
	t.Helper()
	c, err := customers.NewRepository(conn).FindByID(context.Background(), id)
	require.NoError(t, err)
	return c
}

func TestIssueStoresAndMailsToken(t *testing.T) {
	mailer := &recordingMailer{}
	m, conn, customer := setup(t, mailer)

	res, err := m.Issue(context.Background(), customer.ID, customer.Email, 12)
	require.NoError(t, err)
	require.NoError(t, res.MailErr)
	assert.Len(t, res.Token, 43, "32 bytes of url-safe base64")
	assert.Equal(t, []string{"ada@example.com|" + res.Token + "|12"}, mailer.sent)

	stored := reload(t, conn, customer.ID)
	require.NotNil(t, stored.RegisterToken)
	assert.Equal(t, res.Token, *stored.RegisterToken)

	again, err := m.Issue(context.Background(), customer.ID, customer.Email, 13)
	require.NoError(t, err)
	assert.NotEqual(t, res.Token, again.Token)
	_, err = m.Validate(context.Background(), res.Token)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidOrExpiredToken), "reissuing replaces the earlier token")
}

func TestIssueKeepsTokenWhenMailFails(t *testing.T) {
	mailer := &recordingMailer{err: errors.New("smtp refused")}
	m, conn, customer := setup(t, mailer)
	failures := &countingMailFailures{}
	m.failures = failures

	res, err := m.Issue(context.Background(), customer.ID, customer.Email, 1)
	require.NoError(t, err)
	require.Error(t, res.MailErr)
	assert.True(t, pkgerrors.IsCode(res.MailErr, pkgerrors.CodeMailDeliveryFailed))
	assert.Equal(t, 1, failures.n)

	stored := reload(t, conn, customer.ID)
	require.NotNil(t, stored.RegisterToken)
	assert.Equal(t, res.Token, *stored.RegisterToken)
}

func TestIssueUnknownCustomer(t *testing.T) {
	m, _, _ := setup(t, &recordingMailer{})
	_, err := m.Issue(context.Background(), 999, "x@example.com", 1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestIssueRefusesRegisteredCustomer(t *testing.T) {
	mailer := &recordingMailer{}
	m, conn, customer := setup(t, mailer)
	require.NoError(t, conn.Model(&models.Customer{}).Where("customer_id = ?", customer.ID).
		UpdateColumn("password_hash", "$argon2id$existing").Error)

	_, err := m.Issue(context.Background(), customer.ID, customer.Email, 1)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	assert.Nil(t, reload(t, conn, customer.ID).RegisterToken)
	assert.Empty(t, mailer.sent)
}

func TestCompleteConsumesTokenOnce(t *testing.T) {
	m, conn, customer := setup(t, &recordingMailer{})
	res, err := m.Issue(context.Background(), customer.ID, customer.Email, 1)
	require.NoError(t, err)

	registered, err := m.Complete(context.Background(), res.Token, "correct horse", "correct horse")
	require.NoError(t, err)
	assert.True(t, registered.HasPassword())
	assert.Nil(t, registered.RegisterToken)
	assert.NotNil(t, registered.RegisteredAt)

	ok, err := security.VerifyPassword("correct horse", *reload(t, conn, customer.ID).PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = m.Complete(context.Background(), res.Token, "correct horse", "correct horse")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidOrExpiredToken), "a consumed token cannot be replayed")
}

func TestCompleteValidatesPassword(t *testing.T) {
	m, conn, customer := setup(t, &recordingMailer{})
	res, err := m.Issue(context.Background(), customer.ID, customer.Email, 1)
	require.NoError(t, err)

	_, err = m.Complete(context.Background(), res.Token, "short", "short")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = m.Complete(context.Background(), res.Token, "long enough", "long enougH")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	stored := reload(t, conn, customer.ID)
	assert.False(t, stored.HasPassword())
	assert.NotNil(t, stored.RegisterToken, "a rejected password leaves the token outstanding")
}

func TestCompleteRejectsUnknownToken(t *testing.T) {
	m, _, _ := setup(t, &recordingMailer{})
	_, err := m.Complete(context.Background(), "", "long enough", "long enough")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidOrExpiredToken))
	_, err = m.Complete(context.Background(), "nope", "long enough", "long enough")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidOrExpiredToken))
}

func TestResend(t *testing.T) {
	mailer := &recordingMailer{}
	m, _, customer := setup(t, mailer)

	first, err := m.Resend(context.Background(), customer.ID, 5)
	require.NoError(t, err)
	require.NotEmpty(t, first.Token)

	second, err := m.Resend(context.Background(), customer.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, first.Token, second.Token, "an outstanding token is mailed again, not rotated")
	assert.Len(t, mailer.sent, 2)

	_, err = m.Complete(context.Background(), second.Token, "long enough", "long enough")
	require.NoError(t, err)

	_, err = m.Resend(context.Background(), customer.ID, 5)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	_, err = m.Resend(context.Background(), 404, 5)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
