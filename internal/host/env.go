package host

import (
	"github.com/google/uuid"

	"github.com/Klingon-tech/klingnet-mt/pkg/types"
)

// Env is the per-invocation execution environment handed to a contract.
// It exposes the caller's identity, the host log primitive, and the
// scheduling operations available at a call boundary.
type Env struct {
	rt  *Runtime
	rec *receipt

	// CurrentID is the account whose contract is executing.
	CurrentID types.AccountID
	// PredecessorID is the account that issued this invocation. For a
	// callback scheduled with Then, it is the account that scheduled it.
	PredecessorID types.AccountID

	deferredTo *receipt
}

// Log writes one line through the host's append-only log. It never
// fails; a write is indistinguishable from success for the contract.
func (e *Env) Log(line string) {
	e.rt.logs = append(e.rt.logs, line)
	e.rt.logger.Debug().
		Str("account", e.CurrentID.String()).
		Str("line", line).
		Msg("contract log")
}

// Call schedules an asynchronous invocation of method on receiver. The
// current invocation keeps running; the call executes on a later turn
// of the run loop.
func (e *Env) Call(receiver types.AccountID, method string, args []byte) Promise {
	rec := &receipt{
		id:          uuid.NewString(),
		receiver:    receiver,
		predecessor: e.CurrentID,
		method:      method,
		args:        args,
	}
	e.rt.queue = append(e.rt.queue, rec)
	return Promise{rt: e.rt, rec: rec, from: e.CurrentID}
}

// PromiseResult returns the settled result this callback depends on.
// ok is false when the invocation is not a callback.
func (e *Env) PromiseResult() (Result, bool) {
	if e.rec.dependsOn == nil {
		return Result{}, false
	}
	return e.rec.dependsOn.result, true
}

// ReturnPromise defers this invocation's own result to p: the receipt
// settles with whatever p settles with, and anything chained on this
// invocation waits for p first.
func (e *Env) ReturnPromise(p Promise) {
	e.deferredTo = p.rec
}

// AccountExists reports whether an account is registered with the host.
func (e *Env) AccountExists(id types.AccountID) bool {
	return e.rt.HasAccount(id)
}
