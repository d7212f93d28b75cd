package contract

import (
	"github.com/Klingon-tech/klingnet-mt/internal/token"
	"github.com/Klingon-tech/klingnet-mt/pkg/types"
)

// Contract entry points and the external methods the protocol invokes
// on other contracts. Method names are part of the standard.
const (
	MethodTransfer        = "mt_transfer"
	MethodTransferCall    = "mt_transfer_call"
	MethodResolveTransfer = "mt_resolve_transfer"
	MethodOnTransfer      = "mt_on_transfer"
	MethodApprove         = "mt_approve"
	MethodRevoke          = "mt_revoke"
	MethodRevokeAll       = "mt_revoke_all"
	MethodIsApproved      = "mt_is_approved"
	MethodMint            = "mt_mint"
	MethodBurn            = "mt_burn"
)

// TransferArgs is the payload for mt_transfer.
type TransferArgs struct {
	ReceiverID types.AccountID `json:"receiver_id"`
	TokenID    types.TokenID   `json:"token_id"`
	// ApprovalID constrains an approval-based transfer to the id the
	// caller believes is current. Ignored for owner-initiated calls.
	ApprovalID *uint64 `json:"approval_id,omitempty"`
	Memo       string  `json:"memo,omitempty"`
}

// TransferCallArgs is the payload for mt_transfer_call: a transfer with
// an attached receiver notification. Msg is opaque to the protocol and
// interpreted by the receiver.
type TransferCallArgs struct {
	TransferArgs
	Msg string `json:"msg"`
}

// OnTransferArgs is the payload delivered to the receiver's
// mt_on_transfer. The receiver answers true to return the token to the
// sender, false to keep it.
type OnTransferArgs struct {
	SenderID        types.AccountID `json:"sender_id"`
	PreviousOwnerID types.AccountID `json:"previous_owner_id"`
	TokenID         types.TokenID   `json:"token_id"`
	Msg             string          `json:"msg"`
}

// ResolveArgs is the self-only payload for mt_resolve_transfer. It is
// the correlation record for one in-flight transfer: everything needed
// to finalize is carried through the call boundary rather than re-read
// from mutable state, because the ledger may change during the
// in-flight window.
type ResolveArgs struct {
	PreviousOwnerID types.AccountID `json:"previous_owner_id"`
	ReceiverID      types.AccountID `json:"receiver_id"`
	TokenID         types.TokenID   `json:"token_id"`
	// Approvals is the snapshot taken at initiation, restored on
	// rollback.
	Approvals types.ApprovalSet `json:"approvals,omitempty"`
	// SenderID and Memo ride along so the finalize step can attribute
	// and annotate the transfer event it emits.
	SenderID types.AccountID `json:"sender_id,omitempty"`
	Memo     string          `json:"memo,omitempty"`
}

// ApproveArgs is the payload for mt_approve. A non-empty Msg triggers
// an mt_on_approve notification on the approved account.
type ApproveArgs struct {
	TokenID   types.TokenID   `json:"token_id"`
	AccountID types.AccountID `json:"account_id"`
	Msg       string          `json:"msg,omitempty"`
}

// RevokeArgs is the payload for mt_revoke.
type RevokeArgs struct {
	TokenID   types.TokenID   `json:"token_id"`
	AccountID types.AccountID `json:"account_id"`
}

// RevokeAllArgs is the payload for mt_revoke_all.
type RevokeAllArgs struct {
	TokenID types.TokenID `json:"token_id"`
}

// IsApprovedArgs is the payload for mt_is_approved.
type IsApprovedArgs struct {
	TokenID    types.TokenID   `json:"token_id"`
	AccountID  types.AccountID `json:"account_id"`
	ApprovalID *uint64         `json:"approval_id,omitempty"`
}

// MintArgs is the payload for mt_mint. An empty TokenID asks the
// contract to derive one.
type MintArgs struct {
	OwnerID  types.AccountID `json:"owner_id"`
	TokenID  types.TokenID   `json:"token_id,omitempty"`
	Metadata *token.Metadata `json:"metadata,omitempty"`
	Memo     string          `json:"memo,omitempty"`
}

// BurnArgs is the payload for mt_burn.
type BurnArgs struct {
	TokenID    types.TokenID `json:"token_id"`
	ApprovalID *uint64       `json:"approval_id,omitempty"`
	Memo       string        `json:"memo,omitempty"`
}
