// Package contract implements the multi-token contract core: the
// transfer-call resolution protocol, approval management, and supply
// operations, all driving the canonical nep246 event stream.
//
// A transfer-call runs as a chain of independently scheduled
// invocations joined by the host's promise machinery:
//
//  1. Caller invokes mt_transfer_call.
//  2. The contract tentatively moves ownership to the receiver and
//     clears the token's approvals, keeping a snapshot.
//  3. mt_on_transfer runs on the receiver, which may issue further
//     calls before answering.
//  4. mt_resolve_transfer runs on this contract — self-only, exactly
//     once, after the receiver chain has settled — and either keeps
//     the transfer (emitting mt_transfer) or rolls it back (restoring
//     the snapshot, emitting nothing).
package contract

import (
	"encoding/json"
	"fmt"

	"github.com/Klingon-tech/klingnet-mt/internal/approval"
	"github.com/Klingon-tech/klingnet-mt/internal/host"
	"github.com/Klingon-tech/klingnet-mt/internal/storage"
	"github.com/Klingon-tech/klingnet-mt/internal/token"
	"github.com/Klingon-tech/klingnet-mt/pkg/types"
)

// Contract is one multi-token contract instance.
type Contract struct {
	id        types.AccountID
	tokens    *token.Store
	approvals *approval.Ledger
}

// New creates a contract owning the given account ID, with ownership
// and approval state persisted in db.
func New(id types.AccountID, db storage.DB) (*Contract, error) {
	if err := id.Validate(); err != nil {
		return nil, fmt.Errorf("contract id: %w", err)
	}
	return &Contract{
		id:        id,
		tokens:    token.NewStore(db),
		approvals: approval.NewLedger(db),
	}, nil
}

// ID returns the contract's account ID.
func (c *Contract) ID() types.AccountID {
	return c.id
}

// Tokens exposes the ownership store for inspection.
func (c *Contract) Tokens() *token.Store {
	return c.tokens
}

// Approvals exposes the approval ledger for inspection.
func (c *Contract) Approvals() *approval.Ledger {
	return c.approvals
}

// Invoke dispatches a host invocation to the matching operation.
// It implements host.Contract.
func (c *Contract) Invoke(env *host.Env, method string, args []byte) ([]byte, error) {
	switch method {
	case MethodTransfer:
		var a TransferArgs
		if err := unmarshalArgs(args, &a); err != nil {
			return nil, err
		}
		return nil, c.Transfer(env, a)

	case MethodTransferCall:
		var a TransferCallArgs
		if err := unmarshalArgs(args, &a); err != nil {
			return nil, err
		}
		return nil, c.TransferCall(env, a)

	case MethodResolveTransfer:
		var a ResolveArgs
		if err := unmarshalArgs(args, &a); err != nil {
			return nil, err
		}
		kept, err := c.ResolveTransfer(env, a)
		if err != nil {
			return nil, err
		}
		return json.Marshal(kept)

	case MethodApprove:
		var a ApproveArgs
		if err := unmarshalArgs(args, &a); err != nil {
			return nil, err
		}
		id, err := c.Approve(env, a)
		if err != nil {
			return nil, err
		}
		return json.Marshal(id)

	case MethodRevoke:
		var a RevokeArgs
		if err := unmarshalArgs(args, &a); err != nil {
			return nil, err
		}
		return nil, c.Revoke(env, a)

	case MethodRevokeAll:
		var a RevokeAllArgs
		if err := unmarshalArgs(args, &a); err != nil {
			return nil, err
		}
		return nil, c.RevokeAll(env, a)

	case MethodIsApproved:
		var a IsApprovedArgs
		if err := unmarshalArgs(args, &a); err != nil {
			return nil, err
		}
		ok, err := c.IsApproved(a)
		if err != nil {
			return nil, err
		}
		return json.Marshal(ok)

	case MethodMint:
		var a MintArgs
		if err := unmarshalArgs(args, &a); err != nil {
			return nil, err
		}
		id, err := c.Mint(env, a)
		if err != nil {
			return nil, err
		}
		return json.Marshal(id)

	case MethodBurn:
		var a BurnArgs
		if err := unmarshalArgs(args, &a); err != nil {
			return nil, err
		}
		return nil, c.Burn(env, a)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method)
}

func unmarshalArgs(data []byte, out any) error {
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode args: %w", err)
	}
	return nil
}
