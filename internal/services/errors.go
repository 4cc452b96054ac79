package services

import (
	stderrors "errors"

	"github.com/abrezinsky/gacharank/internal/errors"
	"github.com/abrezinsky/gacharank/internal/repository"
)

// Service errors
var (
	ErrNotConfigured   = errors.Configuration("gacha is not configured: no characters are registered or every rate is 0")
	ErrNothingToReset  = errors.Validation("no ranking data to reset")
	ErrUserIDRequired  = errors.InvalidInput("user_id is required")
	ErrChannelRequired = errors.InvalidInput("channel_id is required")
)

// storeError converts a repository failure into an application error.
// ErrNotFound and ErrDuplicate map to their kinds with msg; anything else
// is a persistence failure.
func storeError(err error, msg string) error {
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, repository.ErrNotFound):
		return errors.Wrap(err, errors.ErrNotFound, msg)
	case stderrors.Is(err, repository.ErrDuplicate):
		return errors.Wrap(err, errors.ErrConflict, msg)
	default:
		return errors.Persistence(err)
	}
}
