package contract

import (
	"encoding/json"
	"fmt"

	"github.com/Klingon-tech/klingnet-mt/internal/host"
	"github.com/Klingon-tech/klingnet-mt/internal/log"
	"github.com/Klingon-tech/klingnet-mt/pkg/event"
	"github.com/Klingon-tech/klingnet-mt/pkg/types"
)

// ResolveTransfer finalizes a transfer-call. The host guarantees it
// runs exactly once, after the receiver chain has settled; the
// contract guarantees only it can invoke it.
//
// The receiver's settled answer decides the terminal state:
//   - false ("keep"), or any outcome once the receiver has already
//     moved the token on: the transfer stands, mt_transfer is emitted,
//     approvals stay cleared. Returns true.
//   - true ("return"), a failed chain, or a malformed answer:
//     ownership reverts to the previous owner and the approval
//     snapshot is restored best-effort. No event. Returns false.
func (c *Contract) ResolveTransfer(env *host.Env, args ResolveArgs) (bool, error) {
	if env.PredecessorID != c.id {
		return false, fmt.Errorf("%w: called by %s", ErrSelfCallOnly, env.PredecessorID)
	}

	// An answer from an adversarial chain counts only when the whole
	// chain succeeded and the value parses as a boolean; anything else
	// means "return to sender".
	returnToken := true
	if res, ok := env.PromiseResult(); ok && res.Ok {
		var answer bool
		if err := json.Unmarshal(res.Value, &answer); err == nil {
			returnToken = answer
		}
	}

	owner, err := c.tokens.Owner(args.TokenID)
	if err != nil {
		return false, err
	}

	authorized := args.SenderID
	if authorized == args.PreviousOwnerID {
		authorized = ""
	}

	if !returnToken || owner != args.ReceiverID {
		// Finalized. When the receiver has already moved the token on,
		// there is nothing left to revert: the hop to the receiver
		// stands and later hops account for themselves.
		event.MtTransfer{
			OldOwnerID:   args.PreviousOwnerID,
			NewOwnerID:   args.ReceiverID,
			TokenIDs:     []types.TokenID{args.TokenID},
			AuthorizedID: authorized,
			Memo:         args.Memo,
		}.Emit(env)

		log.Transfer.Info().
			Str("token", args.TokenID.String()).
			Str("owner", args.ReceiverID.String()).
			Bool("receiver_kept", !returnToken).
			Msg("transfer-call finalized")
		return true, nil
	}

	// RolledBack. Ownership reverts and the snapshot is restored for
	// accounts that still validate; restoration never blocks
	// finalization.
	if err := c.tokens.Transfer(args.TokenID, args.ReceiverID, args.PreviousOwnerID); err != nil {
		return false, err
	}
	if len(args.Approvals) > 0 {
		restored, err := c.approvals.Restore(args.TokenID, args.Approvals,
			func(a types.AccountID) bool { return a.IsValid() })
		if err != nil {
			log.Transfer.Warn().
				Str("token", args.TokenID.String()).
				Err(err).
				Msg("approval restore failed")
		} else if restored < len(args.Approvals) {
			log.Transfer.Debug().
				Str("token", args.TokenID.String()).
				Int("restored", restored).
				Int("snapshot", len(args.Approvals)).
				Msg("partial approval restore")
		}
	}

	log.Transfer.Info().
		Str("token", args.TokenID.String()).
		Str("owner", args.PreviousOwnerID.String()).
		Msg("transfer-call rolled back")
	return false, nil
}
