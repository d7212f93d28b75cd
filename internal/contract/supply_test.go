package contract

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/Klingon-tech/klingnet-mt/internal/token"
	"github.com/Klingon-tech/klingnet-mt/pkg/event"
	"github.com/Klingon-tech/klingnet-mt/pkg/types"
)

func (f *fixture) eventsOfKind(kind string) []string {
	f.t.Helper()
	var out []string
	for _, line := range f.rt.Logs() {
		if !strings.HasPrefix(line, event.LogPrefix) {
			continue
		}
		env, err := event.Decode(line)
		if err != nil {
			f.t.Fatalf("Decode(%s): %v", line, err)
		}
		if env.Event == kind {
			out = append(out, line)
		}
	}
	return out
}

func TestMint_ExplicitID(t *testing.T) {
	f := newFixture(t)

	res := f.call("bob", MethodMint, MintArgs{
		OwnerID:  "bob",
		TokenID:  "sword-1",
		Metadata: &token.Metadata{Name: "Sword", Symbol: "SWRD"},
	})
	if !res.Ok {
		t.Fatal("mint failed")
	}
	var id types.TokenID
	if err := json.Unmarshal(res.Value, &id); err != nil {
		t.Fatalf("decode minted id: %v", err)
	}
	if id != "sword-1" {
		t.Errorf("minted id = %s, want sword-1", id)
	}
	if got := f.owner("sword-1"); got != "bob" {
		t.Errorf("owner = %s, want bob", got)
	}

	meta, err := f.c.Tokens().Metadata("sword-1")
	if err != nil {
		t.Fatalf("Metadata: %v", err)
	}
	if meta == nil || meta.Name != "Sword" {
		t.Errorf("metadata = %+v, want stored Sword", meta)
	}

	if lines := f.eventsOfKind(event.KindMint); len(lines) != 1 {
		t.Errorf("emitted %d mint events, want 1", len(lines))
	}
}

func TestMint_DerivedID(t *testing.T) {
	f := newFixture(t)

	first := f.call("bob", MethodMint, MintArgs{OwnerID: "bob"})
	second := f.call("bob", MethodMint, MintArgs{OwnerID: "bob"})
	if !first.Ok || !second.Ok {
		t.Fatal("derived mint failed")
	}
	var a, b types.TokenID
	if err := json.Unmarshal(first.Value, &a); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if err := json.Unmarshal(second.Value, &b); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if a == b {
		t.Fatalf("consecutive derived ids collide: %s", a)
	}
	if len(a) != 64 || len(b) != 64 {
		t.Errorf("derived id lengths = %d, %d, want 64", len(a), len(b))
	}
	if got := f.owner(a); got != "bob" {
		t.Errorf("owner(%s) = %s, want bob", a, got)
	}
}

func TestMint_Rejections(t *testing.T) {
	f := newFixture(t)
	f.mint("bob", "0")

	if err := f.invokeErr("bob", MethodMint, MintArgs{OwnerID: "bob", TokenID: "0"}); !errors.Is(err, token.ErrTokenExists) {
		t.Errorf("duplicate mint err = %v, want ErrTokenExists", err)
	}
	if err := f.invokeErr("bob", MethodMint, MintArgs{OwnerID: "UPPER"}); !errors.Is(err, types.ErrInvalidAccountID) {
		t.Errorf("bad owner err = %v, want ErrInvalidAccountID", err)
	}
}

func TestBurn_ByOwner(t *testing.T) {
	f := newFixture(t)
	f.mint("bob", "0")
	f.approve("bob", "carol", "0")

	res := f.call("bob", MethodBurn, BurnArgs{TokenID: "0", Memo: "done"})
	if !res.Ok {
		t.Fatal("burn failed")
	}

	if _, err := f.c.Tokens().Owner("0"); !errors.Is(err, token.ErrTokenNotFound) {
		t.Errorf("Owner after burn err = %v, want ErrTokenNotFound", err)
	}
	if set := f.approvals("0"); len(set) != 0 {
		t.Errorf("approvals after burn = %v, want empty", set)
	}

	lines := f.eventsOfKind(event.KindBurn)
	if len(lines) != 1 {
		t.Fatalf("emitted %d burn events, want 1", len(lines))
	}
	env, err := event.Decode(lines[0])
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	records, err := event.DecodeBurns(env)
	if err != nil {
		t.Fatalf("DecodeBurns: %v", err)
	}
	if len(records) != 1 || records[0].OwnerID != "bob" || records[0].Memo != "done" {
		t.Errorf("burn records = %+v", records)
	}
	if records[0].AuthorizedID != "" {
		t.Errorf("owner burn must not set authorized_id, got %q", records[0].AuthorizedID)
	}
}

func TestBurn_ByApproval(t *testing.T) {
	f := newFixture(t)
	f.mint("bob", "0")
	id := f.approve("bob", "carol", "0")

	res := f.call("carol", MethodBurn, BurnArgs{TokenID: "0", ApprovalID: &id})
	if !res.Ok {
		t.Fatal("approved burn failed")
	}

	lines := f.eventsOfKind(event.KindBurn)
	if len(lines) != 1 {
		t.Fatalf("emitted %d burn events, want 1", len(lines))
	}
	env, _ := event.Decode(lines[0])
	records, err := event.DecodeBurns(env)
	if err != nil {
		t.Fatalf("DecodeBurns: %v", err)
	}
	if records[0].AuthorizedID != "carol" {
		t.Errorf("authorized_id = %q, want carol", records[0].AuthorizedID)
	}
}

func TestBurn_Rejections(t *testing.T) {
	f := newFixture(t)
	f.mint("bob", "0")
	id := f.approve("bob", "carol", "0")

	if err := f.invokeErr("dave", MethodBurn, BurnArgs{TokenID: "0"}); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("stranger burn err = %v, want ErrUnauthorized", err)
	}
	stale := id + 1
	if err := f.invokeErr("carol", MethodBurn, BurnArgs{TokenID: "0", ApprovalID: &stale}); !errors.Is(err, ErrApprovalStale) {
		t.Errorf("stale burn err = %v, want ErrApprovalStale", err)
	}
	if err := f.invokeErr("bob", MethodBurn, BurnArgs{TokenID: "9"}); !errors.Is(err, token.ErrTokenNotFound) {
		t.Errorf("unknown token burn err = %v, want ErrTokenNotFound", err)
	}

	// Nothing above mutated the token.
	if got := f.owner("0"); got != "bob" {
		t.Errorf("owner = %s, want bob", got)
	}
}
