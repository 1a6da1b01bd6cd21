package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a uniqueness or idempotency collision.
	ErrConflict = errors.New("conflict")
)

// UserSafeMessage maps an error to a message suitable for API
// consumers, collapsing transport and SQL details to a generic string.
func UserSafeMessage(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return "record not found"
	case errors.Is(err, ErrConflict):
		return "record already exists"
	}
	return err.Error()
}
