package contract

import (
	"github.com/Klingon-tech/klingnet-mt/internal/host"
	"github.com/Klingon-tech/klingnet-mt/internal/log"
	"github.com/Klingon-tech/klingnet-mt/internal/token"
	"github.com/Klingon-tech/klingnet-mt/pkg/event"
	"github.com/Klingon-tech/klingnet-mt/pkg/types"
)

// Mint creates a token owned by args.OwnerID and emits mt_mint. When
// no token ID is named, one is derived from the owner and a fresh mint
// nonce. Who may mint is the embedding deployment's policy; the
// protocol itself does not gate it.
func (c *Contract) Mint(env *host.Env, args MintArgs) (types.TokenID, error) {
	if err := args.OwnerID.Validate(); err != nil {
		return "", err
	}

	id := args.TokenID
	if id == "" {
		nonce, err := c.tokens.NextMintNonce()
		if err != nil {
			return "", err
		}
		id = token.DeriveTokenID(args.OwnerID, nonce)
	} else if err := id.Validate(); err != nil {
		return "", err
	}

	if err := c.tokens.Create(id, args.OwnerID, args.Metadata); err != nil {
		return "", err
	}

	event.MtMint{
		OwnerID:  args.OwnerID,
		TokenIDs: []types.TokenID{id},
		Memo:     args.Memo,
	}.Emit(env)

	log.Token.Info().
		Str("token", id.String()).
		Str("owner", args.OwnerID.String()).
		Msg("minted")
	return id, nil
}

// Burn destroys a token and emits mt_burn. The caller must be the
// owner or hold a current approval; approval-based burns record the
// caller as authorized_id.
func (c *Contract) Burn(env *host.Env, args BurnArgs) error {
	owner, err := c.tokens.Owner(args.TokenID)
	if err != nil {
		return err
	}
	authorized, err := c.authorize(args.TokenID, owner, env.PredecessorID, args.ApprovalID)
	if err != nil {
		return err
	}

	if err := c.tokens.Remove(args.TokenID); err != nil {
		return err
	}
	if err := c.approvals.Clear(args.TokenID); err != nil {
		return err
	}

	event.MtBurn{
		OwnerID:      owner,
		TokenIDs:     []types.TokenID{args.TokenID},
		AuthorizedID: authorized,
		Memo:         args.Memo,
	}.Emit(env)

	log.Token.Info().
		Str("token", args.TokenID.String()).
		Str("owner", owner.String()).
		Msg("burned")
	return nil
}
