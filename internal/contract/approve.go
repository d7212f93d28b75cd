package contract

import (
	"fmt"

	"github.com/Klingon-tech/klingnet-mt/internal/approval"
	"github.com/Klingon-tech/klingnet-mt/internal/host"
	"github.com/Klingon-tech/klingnet-mt/internal/log"
)

// Approve grants args.AccountID an approval on the token and returns
// the issued id. Only the token's owner may grant. When Msg is
// non-empty, mt_on_approve is scheduled on the approved account and
// the invocation's result defers to whatever it answers — but the
// grant is committed before the notification is attempted, so a
// failing notification never undoes it.
func (c *Contract) Approve(env *host.Env, args ApproveArgs) (uint64, error) {
	owner, err := c.tokens.Owner(args.TokenID)
	if err != nil {
		return 0, err
	}
	if env.PredecessorID != owner {
		return 0, fmt.Errorf("%w: only owner %s may approve", ErrUnauthorized, owner)
	}
	if err := args.AccountID.Validate(); err != nil {
		return 0, err
	}

	id, err := c.approvals.Grant(args.TokenID, args.AccountID)
	if err != nil {
		return 0, err
	}

	log.Approval.Info().
		Str("token", args.TokenID.String()).
		Str("account", args.AccountID.String()).
		Uint64("approval_id", id).
		Msg("approval granted")

	if args.Msg != "" {
		p := approval.Notify(env, args.AccountID, approval.OnApproveArgs{
			TokenID:    args.TokenID,
			OwnerID:    owner,
			ApprovalID: id,
			Msg:        args.Msg,
		})
		env.ReturnPromise(p)
	}
	return id, nil
}

// Revoke removes one account's approval. Owner-only.
func (c *Contract) Revoke(env *host.Env, args RevokeArgs) error {
	owner, err := c.tokens.Owner(args.TokenID)
	if err != nil {
		return err
	}
	if env.PredecessorID != owner {
		return fmt.Errorf("%w: only owner %s may revoke", ErrUnauthorized, owner)
	}
	return c.approvals.Revoke(args.TokenID, args.AccountID)
}

// RevokeAll removes every approval on the token. Owner-only.
func (c *Contract) RevokeAll(env *host.Env, args RevokeAllArgs) error {
	owner, err := c.tokens.Owner(args.TokenID)
	if err != nil {
		return err
	}
	if env.PredecessorID != owner {
		return fmt.Errorf("%w: only owner %s may revoke", ErrUnauthorized, owner)
	}
	return c.approvals.Clear(args.TokenID)
}

// IsApproved reports whether the account holds a current approval on
// the token, and, when an approval id is presented, whether it is
// still the stored one.
func (c *Contract) IsApproved(args IsApprovedArgs) (bool, error) {
	if exists, err := c.tokens.Exists(args.TokenID); err != nil || !exists {
		return false, err
	}
	current, ok, err := c.approvals.ApprovalID(args.TokenID, args.AccountID)
	if err != nil || !ok {
		return false, err
	}
	if args.ApprovalID != nil && *args.ApprovalID != current {
		return false, nil
	}
	return true, nil
}
