// Package token implements the token ownership store: the record of
// which account currently holds each token, plus descriptive metadata.
//
// The transfer-call protocol relies on one property here: Transfer
// moves a token only when the stored owner matches the expected
// previous owner. A second in-flight transfer of the same token fails
// that check, which is what serializes conflicting transfers without
// locking.
package token

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/zeebo/blake3"

	"github.com/Klingon-tech/klingnet-mt/pkg/types"
)

// Metadata holds descriptive information about a token.
type Metadata struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

// DeriveTokenID computes a deterministic token ID for a mint that does
// not name one explicitly.
// TokenID = hex(BLAKE3(owner || mint_nonce)).
func DeriveTokenID(owner types.AccountID, nonce uint64) types.TokenID {
	buf := make([]byte, 0, len(owner)+8)
	buf = append(buf, owner...)
	var n [8]byte
	binary.LittleEndian.PutUint64(n[:], nonce)
	buf = append(buf, n[:]...)
	sum := blake3.Sum256(buf)
	return types.TokenID(hex.EncodeToString(sum[:]))
}
