// Package host simulates the blockchain host's asynchronous
// cross-contract call machinery: a registry of contracts keyed by
// account ID, a FIFO receipt queue, and promise chaining with deferred
// callbacks.
//
// Execution is single-threaded and cooperative. A contract invocation
// runs to completion; suspension exists only at call boundaries, where
// a new receipt is queued and picked up by a later turn of the run
// loop. A callback attached with Then runs exactly once, after the
// receipt it depends on — and anything that receipt deferred its result
// to — has settled.
package host

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Klingon-tech/klingnet-mt/internal/log"
	"github.com/Klingon-tech/klingnet-mt/pkg/types"
)

// Registry errors.
var (
	ErrAccountTaken   = errors.New("account already registered")
	ErrUnknownAccount = errors.New("account not registered")
)

// Contract is implemented by anything the runtime can host. Invoke
// executes method with JSON-encoded args and returns the JSON-encoded
// result. A returned error or a panic marks the receipt as failed.
type Contract interface {
	Invoke(env *Env, method string, args []byte) ([]byte, error)
}

// Result is the settled outcome of a receipt. Value holds the
// JSON-encoded return value and is nil when the receipt failed or the
// method returned nothing.
type Result struct {
	Ok    bool
	Value []byte
}

// receipt is one scheduled invocation.
type receipt struct {
	id          string
	receiver    types.AccountID
	predecessor types.AccountID
	method      string
	args        []byte

	dependsOn *receipt // callback input, nil for ordinary calls

	settled    bool
	result     Result
	deferredTo *receipt   // set when the invocation returned a promise
	waiters    []*receipt // receipts whose result defers to this one
	callbacks  []*receipt // enqueued once this receipt settles
}

// Promise refers to a scheduled receipt and lets the scheduler chain a
// callback onto its settlement.
type Promise struct {
	rt   *Runtime
	rec  *receipt
	from types.AccountID
}

// ID returns the underlying receipt id.
func (p Promise) ID() string {
	return p.rec.id
}

// Then schedules a callback invocation of method on receiver, to run
// exactly once after this promise settles. The callback observes the
// settled result through Env.PromiseResult. The callback's predecessor
// is the account that scheduled it.
func (p Promise) Then(receiver types.AccountID, method string, args []byte) Promise {
	cb := &receipt{
		id:          uuid.NewString(),
		receiver:    receiver,
		predecessor: p.from,
		method:      method,
		args:        args,
		dependsOn:   p.rec,
	}
	if p.rec.settled {
		// Dependency already settled; runnable immediately.
		p.rt.queue = append(p.rt.queue, cb)
	} else {
		p.rec.callbacks = append(p.rec.callbacks, cb)
	}
	return Promise{rt: p.rt, rec: cb, from: p.from}
}

// Runtime hosts contracts and drives the receipt queue.
type Runtime struct {
	contracts map[types.AccountID]Contract
	queue     []*receipt
	logs      []string
	logger    zerolog.Logger
}

// NewRuntime creates an empty runtime.
func NewRuntime() *Runtime {
	return &Runtime{
		contracts: make(map[types.AccountID]Contract),
		logger:    log.Host,
	}
}

// Register installs a contract under the given account ID.
func (rt *Runtime) Register(id types.AccountID, c Contract) error {
	if err := id.Validate(); err != nil {
		return err
	}
	if _, ok := rt.contracts[id]; ok {
		return fmt.Errorf("%w: %s", ErrAccountTaken, id)
	}
	rt.contracts[id] = c
	return nil
}

// HasAccount reports whether an account is registered.
func (rt *Runtime) HasAccount(id types.AccountID) bool {
	_, ok := rt.contracts[id]
	return ok
}

// Submit schedules a top-level call from caller to receiver. The
// returned promise settles once Run has drained the chain it triggers.
func (rt *Runtime) Submit(caller, receiver types.AccountID, method string, args []byte) Promise {
	rec := &receipt{
		id:          uuid.NewString(),
		receiver:    receiver,
		predecessor: caller,
		method:      method,
		args:        args,
	}
	rt.queue = append(rt.queue, rec)
	return Promise{rt: rt, rec: rec, from: caller}
}

// Run executes queued receipts in FIFO order until the queue is empty.
func (rt *Runtime) Run() {
	for len(rt.queue) > 0 {
		rec := rt.queue[0]
		rt.queue = rt.queue[1:]
		rt.exec(rec)
	}
}

// Invoke runs a method on a registered contract immediately, outside
// the receipt queue, and surfaces the contract's error directly.
// Intended for view calls and tests; any result deferral the method
// requests is ignored, though calls it schedules stay queued for the
// next Run.
func (rt *Runtime) Invoke(caller, receiver types.AccountID, method string, args []byte) ([]byte, error) {
	c, ok := rt.contracts[receiver]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAccount, receiver)
	}
	rec := &receipt{
		id:          uuid.NewString(),
		receiver:    receiver,
		predecessor: caller,
		method:      method,
		args:        args,
	}
	env := &Env{
		rt:            rt,
		rec:           rec,
		CurrentID:     receiver,
		PredecessorID: caller,
	}
	return c.Invoke(env, method, args)
}

// ResultOf returns the settled result of a promise, if any.
func (rt *Runtime) ResultOf(p Promise) (Result, bool) {
	if !p.rec.settled {
		return Result{}, false
	}
	return p.rec.result, true
}

// Logs returns every line written through the host log primitive, in
// emission order.
func (rt *Runtime) Logs() []string {
	out := make([]string, len(rt.logs))
	copy(out, rt.logs)
	return out
}

// exec runs one receipt and settles it (or defers its settlement).
func (rt *Runtime) exec(rec *receipt) {
	c, ok := rt.contracts[rec.receiver]
	if !ok {
		rt.logger.Debug().
			Str("receipt", rec.id).
			Str("receiver", rec.receiver.String()).
			Msg("receipt failed: unknown receiver")
		rt.settle(rec, Result{Ok: false})
		return
	}

	env := &Env{
		rt:            rt,
		rec:           rec,
		CurrentID:     rec.receiver,
		PredecessorID: rec.predecessor,
	}

	out, err := rt.invoke(c, env, rec)
	switch {
	case err != nil:
		rt.logger.Debug().
			Str("receipt", rec.id).
			Str("receiver", rec.receiver.String()).
			Str("method", rec.method).
			Err(err).
			Msg("receipt failed")
		rt.settle(rec, Result{Ok: false})
	case env.deferredTo != nil:
		dep := env.deferredTo
		rec.deferredTo = dep
		if dep.settled {
			rt.settle(rec, dep.result)
		} else {
			dep.waiters = append(dep.waiters, rec)
		}
	default:
		rt.settle(rec, Result{Ok: true, Value: out})
	}
}

// invoke calls the contract, converting a panic into a failed receipt.
func (rt *Runtime) invoke(c Contract, env *Env, rec *receipt) (out []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("contract panicked: %v", r)
		}
	}()
	return c.Invoke(env, rec.method, rec.args)
}

// settle records a receipt's final result, propagates it to receipts
// deferring to it, and enqueues its callbacks. Idempotent: a receipt
// settles at most once.
func (rt *Runtime) settle(rec *receipt, res Result) {
	if rec.settled {
		return
	}
	rec.settled = true
	rec.result = res

	for _, w := range rec.waiters {
		rt.settle(w, res)
	}
	rec.waiters = nil

	rt.queue = append(rt.queue, rec.callbacks...)
	rec.callbacks = nil
}
