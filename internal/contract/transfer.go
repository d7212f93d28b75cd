package contract

import (
	"encoding/json"
	"fmt"

	"github.com/Klingon-tech/klingnet-mt/internal/host"
	"github.com/Klingon-tech/klingnet-mt/internal/log"
	"github.com/Klingon-tech/klingnet-mt/pkg/event"
	"github.com/Klingon-tech/klingnet-mt/pkg/types"
)

// authorize checks that caller may move a token currently held by
// owner. The returned account is the one to record as authorized_id in
// events: empty when the owner acted directly.
//
// An approval id is valid evidence only while it matches the ledger's
// stored value; a presented id that no longer matches is stale.
func (c *Contract) authorize(tokenID types.TokenID, owner, caller types.AccountID, approvalID *uint64) (types.AccountID, error) {
	if caller == owner {
		return "", nil
	}
	current, ok, err := c.approvals.ApprovalID(tokenID, caller)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: %s on token %s", ErrUnauthorized, caller, tokenID)
	}
	if approvalID != nil && *approvalID != current {
		return "", fmt.Errorf("%w: token %s, presented %d, current %d",
			ErrApprovalStale, tokenID, *approvalID, current)
	}
	return caller, nil
}

// beginTransfer validates a transfer request and, once valid, moves
// ownership to the receiver and clears the token's approvals. It
// returns the authorized account and the approval snapshot taken
// before clearing. Nothing is mutated on a validation failure.
func (c *Contract) beginTransfer(caller types.AccountID, args TransferArgs) (authorized types.AccountID, snapshot types.ApprovalSet, err error) {
	owner, err := c.tokens.Owner(args.TokenID)
	if err != nil {
		return "", nil, err
	}
	if args.ReceiverID == owner {
		return "", nil, fmt.Errorf("%w: %s already owns %s", ErrReceiverIsOwner, owner, args.TokenID)
	}
	if err := args.ReceiverID.Validate(); err != nil {
		return "", nil, err
	}
	authorized, err = c.authorize(args.TokenID, owner, caller, args.ApprovalID)
	if err != nil {
		return "", nil, err
	}
	snapshot, err = c.approvals.Approvals(args.TokenID)
	if err != nil {
		return "", nil, err
	}

	// Validation is done; mutate. Approvals do not survive a transfer
	// attempt unless the resolution step restores them.
	if err := c.tokens.Transfer(args.TokenID, owner, args.ReceiverID); err != nil {
		return "", nil, err
	}
	if err := c.approvals.Clear(args.TokenID); err != nil {
		return "", nil, err
	}
	return authorized, snapshot, nil
}

// Transfer moves a token to the receiver unconditionally and emits the
// transfer event. The caller must be the owner or hold a current
// approval.
func (c *Contract) Transfer(env *host.Env, args TransferArgs) error {
	caller := env.PredecessorID
	owner, err := c.tokens.Owner(args.TokenID)
	if err != nil {
		return err
	}

	authorized, _, err := c.beginTransfer(caller, args)
	if err != nil {
		return err
	}

	event.MtTransfer{
		OldOwnerID:   owner,
		NewOwnerID:   args.ReceiverID,
		TokenIDs:     []types.TokenID{args.TokenID},
		AuthorizedID: authorized,
		Memo:         args.Memo,
	}.Emit(env)

	log.Transfer.Info().
		Str("token", args.TokenID.String()).
		Str("from", owner.String()).
		Str("to", args.ReceiverID.String()).
		Str("caller", caller.String()).
		Msg("transfer")
	return nil
}

// TransferCall starts a transfer-call: ownership tentatively moves to
// the receiver, mt_on_transfer is scheduled on it, and
// mt_resolve_transfer is chained on this contract to finalize once the
// receiver chain settles. The invocation's own result defers to the
// finalize step, so the initiating caller ultimately observes the
// resolution boolean: true if the receiver kept the token.
func (c *Contract) TransferCall(env *host.Env, args TransferCallArgs) error {
	caller := env.PredecessorID
	owner, err := c.tokens.Owner(args.TokenID)
	if err != nil {
		return err
	}

	_, snapshot, err := c.beginTransfer(caller, args.TransferArgs)
	if err != nil {
		return err
	}

	onTransfer, err := json.Marshal(OnTransferArgs{
		SenderID:        caller,
		PreviousOwnerID: owner,
		TokenID:         args.TokenID,
		Msg:             args.Msg,
	})
	if err != nil {
		return fmt.Errorf("encode mt_on_transfer args: %w", err)
	}
	resolve, err := json.Marshal(ResolveArgs{
		PreviousOwnerID: owner,
		ReceiverID:      args.ReceiverID,
		TokenID:         args.TokenID,
		Approvals:       snapshot,
		SenderID:        caller,
		Memo:            args.Memo,
	})
	if err != nil {
		return fmt.Errorf("encode mt_resolve_transfer args: %w", err)
	}

	notify := env.Call(args.ReceiverID, MethodOnTransfer, onTransfer)
	finalize := notify.Then(c.id, MethodResolveTransfer, resolve)
	env.ReturnPromise(finalize)

	log.Transfer.Info().
		Str("token", args.TokenID.String()).
		Str("from", owner.String()).
		Str("to", args.ReceiverID.String()).
		Str("caller", caller.String()).
		Int("snapshot_approvals", len(snapshot)).
		Msg("transfer-call initiated")
	return nil
}
