package donor

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("donor not found")

// Donor is a person who has started at least one checkout.
type Donor struct {
	ID          uuid.UUID
	Name        string
	Email       string // Always lower-cased
	CustomerRef *string
	CreatedAt   time.Time
}

// NormalizeEmail returns the canonical form used for lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
