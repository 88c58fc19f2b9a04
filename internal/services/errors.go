package services

import (
	"errors"
	"net/http"

	"gorm.io/gorm"

	"github.com/charlesng35/userlookup/internal/database"
	apperrors "github.com/charlesng35/userlookup/pkg/errors"
)

var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = apperrors.New("USER_NOT_FOUND", "User not found", http.StatusNotFound)
	// ErrNoUsers indicates the users table is empty.
	ErrNoUsers = apperrors.New("NO_USERS", "No users found", http.StatusNotFound)
	// ErrInvalidUserID rejects identifiers that cannot name a row.
	ErrInvalidUserID = apperrors.New("INVALID_USER_ID", "Invalid user id", http.StatusBadRequest)
	// ErrStoreUnavailable reports that the record store could not be reached.
	ErrStoreUnavailable = apperrors.New("STORE_UNAVAILABLE", "Service unavailable", http.StatusServiceUnavailable)
)

// translateStoreError maps driver errors onto the service sentinels. notFound
// is returned for gorm.ErrRecordNotFound.
func translateStoreError(err error, notFound *apperrors.AppError) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFound
	case database.IsUnavailable(err):
		return ErrStoreUnavailable.WithInternal(err)
	default:
		return apperrors.Wrap(err, "user store query failed")
	}
}
