// Package approval implements the per-token approval ledger: the set
// of accounts authorized to transfer a token on the owner's behalf,
// each under a monotonically issued approval ID.
package approval

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-mt/internal/storage"
	"github.com/Klingon-tech/klingnet-mt/pkg/types"
)

var prefixApprovals = []byte("a/") // a/<token_id> -> record JSON

// ErrApprovalIDExhausted is returned when a token's ID counter would
// leave the JSON-safe range.
var ErrApprovalIDExhausted = errors.New("approval id space exhausted")

// record is the stored per-token state. NextID survives clears and
// owner changes: an approval ID, once issued, is never issued again
// for the same token, so a stale ID can never alias a fresh grant.
type record struct {
	Approvals types.ApprovalSet `json:"approvals"`
	NextID    uint64            `json:"next_id"`
}

// Ledger persists approvals keyed by token ID.
type Ledger struct {
	db storage.DB
}

// NewLedger creates a ledger on top of db.
func NewLedger(db storage.DB) *Ledger {
	return &Ledger{db: db}
}

// Grant issues a fresh approval ID to account for tokenID, replacing
// any approval that account already held. IDs start at 1 and grow
// strictly, including across re-grants to the same account.
func (l *Ledger) Grant(tokenID types.TokenID, account types.AccountID) (uint64, error) {
	rec, err := l.load(tokenID)
	if err != nil {
		return 0, err
	}
	if rec.NextID > types.MaxApprovalID {
		return 0, fmt.Errorf("%w: token %s", ErrApprovalIDExhausted, tokenID)
	}
	id := rec.NextID
	rec.NextID++
	rec.Approvals[account] = id
	if err := l.save(tokenID, rec); err != nil {
		return 0, err
	}
	return id, nil
}

// Approvals returns a copy of the token's current approval set. A
// token with no approvals yields an empty set.
func (l *Ledger) Approvals(tokenID types.TokenID) (types.ApprovalSet, error) {
	rec, err := l.load(tokenID)
	if err != nil {
		return nil, err
	}
	return rec.Approvals.Clone(), nil
}

// ApprovalID returns account's current approval ID for tokenID, if any.
func (l *Ledger) ApprovalID(tokenID types.TokenID, account types.AccountID) (uint64, bool, error) {
	rec, err := l.load(tokenID)
	if err != nil {
		return 0, false, err
	}
	id, ok := rec.Approvals[account]
	return id, ok, nil
}

// Revoke removes account's approval for tokenID. Revoking an absent
// approval is a no-op.
func (l *Ledger) Revoke(tokenID types.TokenID, account types.AccountID) error {
	rec, err := l.load(tokenID)
	if err != nil {
		return err
	}
	if _, ok := rec.Approvals[account]; !ok {
		return nil
	}
	delete(rec.Approvals, account)
	return l.save(tokenID, rec)
}

// Clear drops every approval for tokenID. The ID counter is preserved.
func (l *Ledger) Clear(tokenID types.TokenID) error {
	rec, err := l.load(tokenID)
	if err != nil {
		return err
	}
	if len(rec.Approvals) == 0 {
		return nil
	}
	rec.Approvals = types.ApprovalSet{}
	return l.save(tokenID, rec)
}

// Restore reinstates approvals from a snapshot, keeping only entries
// whose account passes the valid predicate (nil accepts all). Existing
// entries for other accounts are left in place; the ID counter is
// never rewound. Returns the number of entries restored.
func (l *Ledger) Restore(tokenID types.TokenID, snapshot types.ApprovalSet, valid func(types.AccountID) bool) (int, error) {
	if len(snapshot) == 0 {
		return 0, nil
	}
	rec, err := l.load(tokenID)
	if err != nil {
		return 0, err
	}
	restored := 0
	for _, acct := range snapshot.Accounts() {
		if valid != nil && !valid(acct) {
			continue
		}
		rec.Approvals[acct] = snapshot[acct]
		restored++
	}
	if restored == 0 {
		return 0, nil
	}
	if err := l.save(tokenID, rec); err != nil {
		return 0, err
	}
	return restored, nil
}

func (l *Ledger) load(tokenID types.TokenID) (*record, error) {
	data, err := l.db.Get(approvalKey(tokenID))
	if errors.Is(err, storage.ErrNotFound) {
		return &record{Approvals: types.ApprovalSet{}, NextID: 1}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("approval get: %w", err)
	}
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("approval unmarshal: %w", err)
	}
	if rec.Approvals == nil {
		rec.Approvals = types.ApprovalSet{}
	}
	return &rec, nil
}

func (l *Ledger) save(tokenID types.TokenID, rec *record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("approval marshal: %w", err)
	}
	return l.db.Put(approvalKey(tokenID), data)
}

func approvalKey(tokenID types.TokenID) []byte {
	key := make([]byte, 0, len(prefixApprovals)+len(tokenID))
	key = append(key, prefixApprovals...)
	return append(key, tokenID...)
}
