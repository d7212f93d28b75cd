package types

import (
	"errors"
	"fmt"
)

// Account ID length bounds, inclusive.
const (
	MinAccountIDLen = 2
	MaxAccountIDLen = 64
)

// ErrInvalidAccountID is returned when a string is not a well-formed
// account ID.
var ErrInvalidAccountID = errors.New("invalid account id")

// AccountID names an account: lowercase alphanumeric segments joined
// by single '-', '_' or '.' separators, 2 to 64 characters.
type AccountID string

// ParseAccountID validates s and returns it as an AccountID.
func ParseAccountID(s string) (AccountID, error) {
	id := AccountID(s)
	if err := id.Validate(); err != nil {
		return "", err
	}
	return id, nil
}

// Validate checks the account ID's syntax.
func (a AccountID) Validate() error {
	if len(a) < MinAccountIDLen || len(a) > MaxAccountIDLen {
		return fmt.Errorf("%w: %q length %d outside [%d, %d]",
			ErrInvalidAccountID, string(a), len(a), MinAccountIDLen, MaxAccountIDLen)
	}
	prevSep := true // separators may not lead, trail, or repeat
	for i := 0; i < len(a); i++ {
		c := a[i]
		switch {
		case c >= 'a' && c <= 'z' || c >= '0' && c <= '9':
			prevSep = false
		case c == '-' || c == '_' || c == '.':
			if prevSep {
				return fmt.Errorf("%w: %q has a misplaced separator at %d",
					ErrInvalidAccountID, string(a), i)
			}
			prevSep = true
		default:
			return fmt.Errorf("%w: %q has illegal character %q",
				ErrInvalidAccountID, string(a), c)
		}
	}
	if prevSep {
		return fmt.Errorf("%w: %q ends with a separator", ErrInvalidAccountID, string(a))
	}
	return nil
}

// IsValid reports whether the account ID is well-formed.
func (a AccountID) IsValid() bool {
	return a.Validate() == nil
}

// String returns the account ID as a plain string.
func (a AccountID) String() string {
	return string(a)
}
