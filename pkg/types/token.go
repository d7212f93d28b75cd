package types

import (
	"errors"
	"fmt"
	"sort"
)

// MaxApprovalID is the largest approval ID the contract will issue.
// Approval IDs travel through JSON, so they must stay within the 2^53
// range representable without loss.
const MaxApprovalID uint64 = 1<<53 - 1

// ErrInvalidTokenID is returned when a string is not a usable token ID.
var ErrInvalidTokenID = errors.New("invalid token id")

// TokenID is an opaque token identifier, unique within a contract and
// stable for the token's lifetime.
type TokenID string

// Validate checks that the token ID is usable as a storage key and
// event payload.
func (t TokenID) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("%w: empty", ErrInvalidTokenID)
	}
	if len(t) > 256 {
		return fmt.Errorf("%w: longer than 256 bytes", ErrInvalidTokenID)
	}
	return nil
}

// String returns the token ID as a plain string.
func (t TokenID) String() string {
	return string(t)
}

// ApprovalSet maps approved accounts to their approval IDs for one
// token. At most one approval per account per token.
type ApprovalSet map[AccountID]uint64

// Clone returns an independent copy of the set. A nil set clones to nil.
func (s ApprovalSet) Clone() ApprovalSet {
	if s == nil {
		return nil
	}
	out := make(ApprovalSet, len(s))
	for acct, id := range s {
		out[acct] = id
	}
	return out
}

// Accounts returns the approved accounts in sorted order.
func (s ApprovalSet) Accounts() []AccountID {
	accts := make([]AccountID, 0, len(s))
	for acct := range s {
		accts = append(accts, acct)
	}
	sort.Slice(accts, func(i, j int) bool { return accts[i] < accts[j] })
	return accts
}

// Equal reports whether two sets hold the same approvals. Nil and empty
// sets compare equal.
func (s ApprovalSet) Equal(other ApprovalSet) bool {
	if len(s) != len(other) {
		return false
	}
	for acct, id := range s {
		if oid, ok := other[acct]; !ok || oid != id {
			return false
		}
	}
	return true
}
