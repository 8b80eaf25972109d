package customers

import (
	"context"
	"errors"
	"strings"

	"github.com/loussodesigns/opts/pkg/db"
	pkgerrors "github.com/loussodesigns/opts/pkg/errors"
	"gorm.io/gorm"
)

const resolveSavepoint = "resolve_customer"

// Resolver maps an order's contact details to a customer id, creating the
// customer on first sight. Existing customers are never modified.
type Resolver struct{}

func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve runs on the caller's transaction. A concurrent insert of the same
// email loses on the unique index; the loser re-reads once and adopts the
// winner's id.
func (r *Resolver) Resolve(ctx context.Context, tx *gorm.DB, contact Contact) (int64, error) {
	contact.Email = NormalizeEmail(contact.Email)
	if contact.Email == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	repo := NewRepository(tx)

	existing, err := repo.FindByEmail(ctx, contact.Email)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup customer by email")
	}

	// the savepoint keeps the outer transaction usable after a unique violation on postgres
	if err := tx.SavePoint(resolveSavepoint).Error; err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "savepoint before customer insert")
	}

	created, err := repo.Create(ctx, contact.toModel())
	if err == nil {
		return created.ID, nil
	}
	if !db.IsUniqueViolation(err, "") {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create customer")
	}

	race := pkgerrors.Wrap(pkgerrors.CodeDuplicateEmailRace, err, "customer email inserted concurrently")
	if rbErr := tx.RollbackTo(resolveSavepoint).Error; rbErr != nil {
		return 0, race
	}

	winner, err := repo.FindByEmail(ctx, contact.Email)
	if err != nil {
		return 0, race
	}
	return winner.ID, nil
}

// NormalizeEmail trims and lowercases an address so lookups are exact.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
