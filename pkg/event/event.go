// Package event implements the nep246 event envelope: versioned,
// schema-stable JSON log lines recording mint, transfer and burn
// actions for off-chain indexers.
//
// Every line has the shape
//
//	EVENT_JSON:{"standard":"nep246","version":"1.0.0","event":"mt_transfer","data":[...]}
//
// The line format is a compatibility surface: field names, the version
// string and the omission rules are frozen. Optional fields with no
// value are omitted entirely, never encoded as null. Version bumps are
// additive-only within the same major version.
package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Klingon-tech/klingnet-mt/pkg/types"
)

// Envelope constants. Changing any of these breaks indexers.
const (
	Standard  = "nep246"
	Version   = "1.0.0"
	LogPrefix = "EVENT_JSON:"
)

// Event kinds carried by the envelope.
const (
	KindMint     = "mt_mint"
	KindTransfer = "mt_transfer"
	KindBurn     = "mt_burn"
)

// Decode errors.
var (
	ErrNotEventLine = errors.New("not an event line")
	ErrKindMismatch = errors.New("event kind mismatch")
)

// Sink is the host's generic logging primitive. Writes are append-only
// and cannot fail in a way the emitter must handle: observability never
// gates protocol correctness.
type Sink interface {
	Log(line string)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(line string)

// Log calls f(line).
func (f SinkFunc) Log(line string) { f(line) }

// MtMint records one logical mint: token_ids now exist and belong to
// owner_id.
type MtMint struct {
	OwnerID  types.AccountID `json:"owner_id"`
	TokenIDs []types.TokenID `json:"token_ids"`
	Memo     string          `json:"memo,omitempty"`
}

// Emit logs this mint as a single-entry envelope.
func (m MtMint) Emit(s Sink) {
	EmitMints(s, []MtMint{m})
}

// EmitMints logs one envelope batching the given mints, preserving order.
func EmitMints(s Sink, data []MtMint) {
	emit(s, KindMint, data, len(data))
}

// MtTransfer records one logical transfer of token_ids from old_owner_id
// to new_owner_id. AuthorizedID is set when the transfer was initiated
// under an approval rather than by the owner.
type MtTransfer struct {
	OldOwnerID   types.AccountID `json:"old_owner_id"`
	NewOwnerID   types.AccountID `json:"new_owner_id"`
	TokenIDs     []types.TokenID `json:"token_ids"`
	AuthorizedID types.AccountID `json:"authorized_id,omitempty"`
	Memo         string          `json:"memo,omitempty"`
}

// Emit logs this transfer as a single-entry envelope.
func (m MtTransfer) Emit(s Sink) {
	EmitTransfers(s, []MtTransfer{m})
}

// EmitTransfers logs one envelope batching the given transfers,
// preserving order.
func EmitTransfers(s Sink, data []MtTransfer) {
	emit(s, KindTransfer, data, len(data))
}

// MtBurn records one logical burn: token_ids owned by owner_id no longer
// exist. AuthorizedID is set when the burn was initiated under an
// approval rather than by the owner.
type MtBurn struct {
	OwnerID      types.AccountID `json:"owner_id"`
	TokenIDs     []types.TokenID `json:"token_ids"`
	AuthorizedID types.AccountID `json:"authorized_id,omitempty"`
	Memo         string          `json:"memo,omitempty"`
}

// Emit logs this burn as a single-entry envelope.
func (m MtBurn) Emit(s Sink) {
	EmitBurns(s, []MtBurn{m})
}

// EmitBurns logs one envelope batching the given burns, preserving order.
func EmitBurns(s Sink, data []MtBurn) {
	emit(s, KindBurn, data, len(data))
}

// Envelope is the versioned wrapper around a batch of event records.
// Immutable once constructed; one envelope per emitted line.
type Envelope struct {
	Standard string `json:"standard"`
	Version  string `json:"version"`
	Event    string `json:"event"`
	Data     any    `json:"data"`
}

// Line returns the canonical log line for the envelope.
func (e *Envelope) Line() (string, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("encode event envelope: %w", err)
	}
	return LogPrefix + string(b), nil
}

// Decode parses an event log line. Data is kept as raw JSON so that
// re-encoding via Line is byte-identical to the input.
func Decode(line string) (*Envelope, error) {
	payload, ok := strings.CutPrefix(line, LogPrefix)
	if !ok {
		return nil, fmt.Errorf("%w: missing %q prefix", ErrNotEventLine, LogPrefix)
	}
	var raw struct {
		Standard string          `json:"standard"`
		Version  string          `json:"version"`
		Event    string          `json:"event"`
		Data     json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return nil, fmt.Errorf("decode event envelope: %w", err)
	}
	if raw.Standard != Standard {
		return nil, fmt.Errorf("%w: standard %q", ErrNotEventLine, raw.Standard)
	}
	return &Envelope{
		Standard: raw.Standard,
		Version:  raw.Version,
		Event:    raw.Event,
		Data:     raw.Data,
	}, nil
}

// DecodeTransfers extracts the transfer records from a decoded envelope.
func DecodeTransfers(e *Envelope) ([]MtTransfer, error) {
	var out []MtTransfer
	if err := decodeData(e, KindTransfer, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DecodeMints extracts the mint records from a decoded envelope.
func DecodeMints(e *Envelope) ([]MtMint, error) {
	var out []MtMint
	if err := decodeData(e, KindMint, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DecodeBurns extracts the burn records from a decoded envelope.
func DecodeBurns(e *Envelope) ([]MtBurn, error) {
	var out []MtBurn
	if err := decodeData(e, KindBurn, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func decodeData(e *Envelope, kind string, out any) error {
	if e.Event != kind {
		return fmt.Errorf("%w: got %q, want %q", ErrKindMismatch, e.Event, kind)
	}
	raw, ok := e.Data.(json.RawMessage)
	if !ok {
		b, err := json.Marshal(e.Data)
		if err != nil {
			return fmt.Errorf("decode event data: %w", err)
		}
		raw = b
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode event data: %w", err)
	}
	return nil
}

// emit encodes one envelope and writes it to the sink. Empty batches
// emit nothing: every envelope carries at least one record.
func emit(s Sink, kind string, data any, n int) {
	if s == nil || n == 0 {
		return
	}
	env := Envelope{
		Standard: Standard,
		Version:  Version,
		Event:    kind,
		Data:     data,
	}
	line, err := env.Line()
	if err != nil {
		// A logging failure is indistinguishable from success at the
		// protocol level.
		return
	}
	s.Log(line)
}
