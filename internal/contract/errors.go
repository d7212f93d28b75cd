package contract

import "errors"

// Protocol errors. All of them are fatal to the call that raises them
// and abort before any state mutation.
var (
	// ErrUnauthorized means the caller is neither the token's owner nor
	// a currently approved account.
	ErrUnauthorized = errors.New("caller lacks ownership or approval")

	// ErrApprovalStale means the caller presented an approval id that no
	// longer matches the ledger's stored value. Every successful
	// transfer invalidates previously issued ids for the token.
	ErrApprovalStale = errors.New("approval id no longer current")

	// ErrSelfCallOnly guards mt_resolve_transfer: only the contract
	// itself may finalize an in-flight transfer.
	ErrSelfCallOnly = errors.New("method restricted to the contract itself")

	// ErrReceiverIsOwner rejects a transfer whose receiver already owns
	// the token.
	ErrReceiverIsOwner = errors.New("receiver already owns token")

	// ErrUnknownMethod is returned by Invoke for an unrecognized method
	// name.
	ErrUnknownMethod = errors.New("unknown method")
)
