package repos

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tans1/anonymous-feedback-backend/apperror"
	"github.com/tans1/anonymous-feedback-backend/models"
)

// UserRepo persists users keyed on their Google email.
type UserRepo struct {
	db *gorm.DB
}

// NewUserRepo creates a UserRepo bound to the given database handle.
func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{db: db}
}

// FindOrCreate returns the user for email, creating it with the given
// fingerprint seed (stored verbatim, not offset) when absent. The insert is
// an upsert keyed on the email unique index, so concurrent sign-ins of the
// same identity converge on a single row. An existing user's stored
// fingerprint is never updated.
func (r *UserRepo) FindOrCreate(email string, fingerprintSeed int64) (*models.User, error) {
	user := models.User{Email: email, Fingerprint: fingerprintSeed}
	err := r.db.
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "email"}}, DoNothing: true}).
		Create(&user).Error
	if err != nil {
		return nil, apperror.Wrap(apperror.StorageError, "failed to persist user", err)
	}

	// Re-read the canonical row; on conflict the insert was a no-op and the
	// locally generated ID is meaningless.
	var out models.User
	if err := r.db.Where("email = ?", email).First(&out).Error; err != nil {
		return nil, apperror.Wrap(apperror.StorageError, "failed to load user", err)
	}
	return &out, nil
}

// FindByID loads a user by its opaque identifier.
func (r *UserRepo) FindByID(id string) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperror.New(apperror.NotFound, "user not found")
		}
		return nil, apperror.Wrap(apperror.StorageError, "failed to load user", err)
	}
	return &user, nil
}
