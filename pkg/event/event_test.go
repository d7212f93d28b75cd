package event

import (
	"errors"
	"strings"
	"testing"

	"github.com/Klingon-tech/klingnet-mt/pkg/types"
)

// captureSink collects emitted lines.
type captureSink struct {
	lines []string
}

func (c *captureSink) Log(line string) {
	c.lines = append(c.lines, line)
}

func (c *captureSink) only(t *testing.T) string {
	t.Helper()
	if len(c.lines) != 1 {
		t.Fatalf("emitted %d lines, want 1: %v", len(c.lines), c.lines)
	}
	return c.lines[0]
}

func TestMtMint(t *testing.T) {
	sink := &captureSink{}
	MtMint{
		OwnerID:  "bob",
		TokenIDs: []types.TokenID{"0", "1"},
	}.Emit(sink)

	want := `EVENT_JSON:{"standard":"nep246","version":"1.0.0","event":"mt_mint","data":[{"owner_id":"bob","token_ids":["0","1"]}]}`
	if got := sink.only(t); got != want {
		t.Errorf("line = %s\nwant   %s", got, want)
	}
}

func TestMtMints_Batched(t *testing.T) {
	sink := &captureSink{}
	EmitMints(sink, []MtMint{
		{OwnerID: "bob", TokenIDs: []types.TokenID{"0", "1"}},
		{OwnerID: "alice", TokenIDs: []types.TokenID{"2", "3"}, Memo: "has memo"},
	})

	want := `EVENT_JSON:{"standard":"nep246","version":"1.0.0","event":"mt_mint","data":[{"owner_id":"bob","token_ids":["0","1"]},{"owner_id":"alice","token_ids":["2","3"],"memo":"has memo"}]}`
	if got := sink.only(t); got != want {
		t.Errorf("line = %s\nwant   %s", got, want)
	}
}

func TestMtBurn(t *testing.T) {
	sink := &captureSink{}
	MtBurn{
		OwnerID:  "bob",
		TokenIDs: []types.TokenID{"0", "1"},
	}.Emit(sink)

	want := `EVENT_JSON:{"standard":"nep246","version":"1.0.0","event":"mt_burn","data":[{"owner_id":"bob","token_ids":["0","1"]}]}`
	if got := sink.only(t); got != want {
		t.Errorf("line = %s\nwant   %s", got, want)
	}
}

func TestMtBurns_Batched(t *testing.T) {
	sink := &captureSink{}
	EmitBurns(sink, []MtBurn{
		{OwnerID: "alice", TokenIDs: []types.TokenID{"2", "3"}, AuthorizedID: "bob", Memo: "has memo"},
		{OwnerID: "bob", TokenIDs: []types.TokenID{"0", "1"}},
	})

	want := `EVENT_JSON:{"standard":"nep246","version":"1.0.0","event":"mt_burn","data":[{"owner_id":"alice","token_ids":["2","3"],"authorized_id":"bob","memo":"has memo"},{"owner_id":"bob","token_ids":["0","1"]}]}`
	if got := sink.only(t); got != want {
		t.Errorf("line = %s\nwant   %s", got, want)
	}
}

func TestMtTransfer(t *testing.T) {
	sink := &captureSink{}
	MtTransfer{
		OldOwnerID: "bob",
		NewOwnerID: "alice",
		TokenIDs:   []types.TokenID{"0", "1"},
	}.Emit(sink)

	want := `EVENT_JSON:{"standard":"nep246","version":"1.0.0","event":"mt_transfer","data":[{"old_owner_id":"bob","new_owner_id":"alice","token_ids":["0","1"]}]}`
	if got := sink.only(t); got != want {
		t.Errorf("line = %s\nwant   %s", got, want)
	}
}

func TestMtTransfers_Batched(t *testing.T) {
	sink := &captureSink{}
	EmitTransfers(sink, []MtTransfer{
		{OldOwnerID: "alice", NewOwnerID: "bob", TokenIDs: []types.TokenID{"2", "3"}, AuthorizedID: "bob", Memo: "has memo"},
		{OldOwnerID: "bob", NewOwnerID: "alice", TokenIDs: []types.TokenID{"0", "1"}},
	})

	want := `EVENT_JSON:{"standard":"nep246","version":"1.0.0","event":"mt_transfer","data":[{"old_owner_id":"alice","new_owner_id":"bob","token_ids":["2","3"],"authorized_id":"bob","memo":"has memo"},{"old_owner_id":"bob","new_owner_id":"alice","token_ids":["0","1"]}]}`
	if got := sink.only(t); got != want {
		t.Errorf("line = %s\nwant   %s", got, want)
	}
}

func TestEmit_EmptyBatchEmitsNothing(t *testing.T) {
	sink := &captureSink{}
	EmitMints(sink, nil)
	EmitTransfers(sink, []MtTransfer{})
	EmitBurns(sink, nil)
	if len(sink.lines) != 0 {
		t.Errorf("empty batches emitted %d lines, want 0", len(sink.lines))
	}
}

func TestMemoOmitted(t *testing.T) {
	sink := &captureSink{}
	MtMint{OwnerID: "bob", TokenIDs: []types.TokenID{"0"}}.Emit(sink)

	line := sink.only(t)
	if strings.Contains(line, "memo") {
		t.Errorf("absent memo must be omitted, got %s", line)
	}
	if strings.Contains(line, "null") {
		t.Errorf("absent fields must be omitted, not null, got %s", line)
	}
}

func TestDecode_RoundTripByteIdentical(t *testing.T) {
	lines := []string{
		`EVENT_JSON:{"standard":"nep246","version":"1.0.0","event":"mt_mint","data":[{"owner_id":"bob","token_ids":["0"]}]}`,
		`EVENT_JSON:{"standard":"nep246","version":"1.0.0","event":"mt_transfer","data":[{"old_owner_id":"bob","new_owner_id":"alice","token_ids":["0"],"authorized_id":"carol"}]}`,
		`EVENT_JSON:{"standard":"nep246","version":"1.0.0","event":"mt_burn","data":[{"owner_id":"bob","token_ids":["7"],"memo":"gone"}]}`,
	}
	for _, line := range lines {
		env, err := Decode(line)
		if err != nil {
			t.Fatalf("Decode(%s): %v", line, err)
		}
		got, err := env.Line()
		if err != nil {
			t.Fatalf("Line(): %v", err)
		}
		if got != line {
			t.Errorf("round trip not byte-identical:\n in  %s\n out %s", line, got)
		}
	}
}

func TestDecode_TypedData(t *testing.T) {
	sink := &captureSink{}
	MtTransfer{
		OldOwnerID:   "bob",
		NewOwnerID:   "alice",
		TokenIDs:     []types.TokenID{"0"},
		AuthorizedID: "carol",
	}.Emit(sink)

	env, err := Decode(sink.only(t))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if env.Version != Version {
		t.Errorf("Version = %q, want %q", env.Version, Version)
	}

	transfers, err := DecodeTransfers(env)
	if err != nil {
		t.Fatalf("DecodeTransfers: %v", err)
	}
	if len(transfers) != 1 {
		t.Fatalf("len = %d, want 1", len(transfers))
	}
	tr := transfers[0]
	if tr.OldOwnerID != "bob" || tr.NewOwnerID != "alice" || tr.AuthorizedID != "carol" {
		t.Errorf("unexpected record: %+v", tr)
	}

	// Wrong-kind decode fails.
	if _, err := DecodeMints(env); !errors.Is(err, ErrKindMismatch) {
		t.Errorf("DecodeMints on transfer envelope = %v, want ErrKindMismatch", err)
	}
}

func TestDecode_Rejects(t *testing.T) {
	if _, err := Decode(`{"standard":"nep246"}`); !errors.Is(err, ErrNotEventLine) {
		t.Errorf("missing prefix: err = %v, want ErrNotEventLine", err)
	}
	if _, err := Decode(`EVENT_JSON:{"standard":"nep171","version":"1.0.0","event":"nft_mint","data":[]}`); !errors.Is(err, ErrNotEventLine) {
		t.Errorf("foreign standard: err = %v, want ErrNotEventLine", err)
	}
	if _, err := Decode(`EVENT_JSON:{not json`); err == nil {
		t.Error("malformed payload should fail")
	}
}
