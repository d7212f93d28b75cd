package approval

import (
	"encoding/json"

	"github.com/Klingon-tech/klingnet-mt/internal/host"
	"github.com/Klingon-tech/klingnet-mt/pkg/types"
)

// MethodOnApprove is the notification entry point on the approved
// contract.
const MethodOnApprove = "mt_on_approve"

// OnApproveArgs is the payload delivered to mt_on_approve.
type OnApproveArgs struct {
	TokenID    types.TokenID   `json:"token_id"`
	OwnerID    types.AccountID `json:"owner_id"`
	ApprovalID uint64          `json:"approval_id"`
	Msg        string          `json:"msg"`
}

// Notify schedules the grant notification on the approved account.
// Fire-and-forget: the grant is already committed, so a failing
// notification never undoes it. The returned promise carries whatever
// contract-defined value the receiver answers with.
func Notify(env *host.Env, account types.AccountID, args OnApproveArgs) host.Promise {
	b, err := json.Marshal(args)
	if err != nil {
		// OnApproveArgs marshals from plain strings and integers; this
		// branch is unreachable but keeps the contract from panicking.
		b = nil
	}
	return env.Call(account, MethodOnApprove, b)
}
