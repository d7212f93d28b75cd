package contract

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/Klingon-tech/klingnet-mt/internal/host"
	"github.com/Klingon-tech/klingnet-mt/internal/storage"
	"github.com/Klingon-tech/klingnet-mt/pkg/event"
	"github.com/Klingon-tech/klingnet-mt/pkg/types"
)

// contractID is the account the token contract runs under in tests.
const contractID = types.AccountID("mt")

type fixture struct {
	t  *testing.T
	rt *host.Runtime
	c  *Contract
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	c, err := New(contractID, storage.NewMemory())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	rt := host.NewRuntime()
	if err := rt.Register(contractID, c); err != nil {
		t.Fatalf("Register: %v", err)
	}
	return &fixture{t: t, rt: rt, c: c}
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal args: %v", err)
	}
	return b
}

// call submits a contract call, drains the runtime, and returns the
// settled result.
func (f *fixture) call(caller types.AccountID, method string, args any) host.Result {
	f.t.Helper()
	p := f.rt.Submit(caller, contractID, method, mustJSON(f.t, args))
	f.rt.Run()
	res, ok := f.rt.ResultOf(p)
	if !ok {
		f.t.Fatalf("%s not settled after Run", method)
	}
	return res
}

// invokeErr runs a contract method synchronously and returns its error.
func (f *fixture) invokeErr(caller types.AccountID, method string, args any) error {
	f.t.Helper()
	_, err := f.rt.Invoke(caller, contractID, method, mustJSON(f.t, args))
	return err
}

func (f *fixture) mint(owner types.AccountID, id types.TokenID) {
	f.t.Helper()
	res := f.call(owner, MethodMint, MintArgs{OwnerID: owner, TokenID: id})
	if !res.Ok {
		f.t.Fatalf("mint %s for %s failed", id, owner)
	}
}

func (f *fixture) approve(owner, account types.AccountID, id types.TokenID) uint64 {
	f.t.Helper()
	res := f.call(owner, MethodApprove, ApproveArgs{TokenID: id, AccountID: account})
	if !res.Ok {
		f.t.Fatalf("approve %s on %s failed", account, id)
	}
	var approvalID uint64
	if err := json.Unmarshal(res.Value, &approvalID); err != nil {
		f.t.Fatalf("decode approval id: %v", err)
	}
	return approvalID
}

func (f *fixture) owner(id types.TokenID) types.AccountID {
	f.t.Helper()
	owner, err := f.c.Tokens().Owner(id)
	if err != nil {
		f.t.Fatalf("Owner(%s): %v", id, err)
	}
	return owner
}

func (f *fixture) approvals(id types.TokenID) types.ApprovalSet {
	f.t.Helper()
	set, err := f.c.Approvals().Approvals(id)
	if err != nil {
		f.t.Fatalf("Approvals(%s): %v", id, err)
	}
	return set
}

// transferEvents decodes every mt_transfer record emitted so far.
func (f *fixture) transferEvents() []event.MtTransfer {
	f.t.Helper()
	var out []event.MtTransfer
	for _, line := range f.rt.Logs() {
		if !strings.HasPrefix(line, event.LogPrefix) {
			continue
		}
		env, err := event.Decode(line)
		if err != nil {
			f.t.Fatalf("Decode(%s): %v", line, err)
		}
		if env.Event != event.KindTransfer {
			continue
		}
		records, err := event.DecodeTransfers(env)
		if err != nil {
			f.t.Fatalf("DecodeTransfers: %v", err)
		}
		out = append(out, records...)
	}
	return out
}
