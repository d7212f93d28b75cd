package token

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-mt/internal/storage"
	"github.com/Klingon-tech/klingnet-mt/pkg/types"
)

// Key layout within the store's DB.
var (
	prefixOwner = []byte("o/") // o/<token_id> -> owner account id
	prefixMeta  = []byte("m/") // m/<token_id> -> Metadata JSON
	keyMintSeq  = []byte("n/mint")
)

// Store errors.
var (
	ErrTokenNotFound = errors.New("token not found")
	ErrTokenExists   = errors.New("token already exists")
	ErrWrongOwner    = errors.New("token not owned by expected account")
)

// Store persists token ownership and metadata.
type Store struct {
	db storage.DB
}

// NewStore creates a token store.
func NewStore(db storage.DB) *Store {
	return &Store{db: db}
}

// Create registers a new token owned by owner. Fails if the token
// already exists; token IDs are never reused.
func (s *Store) Create(id types.TokenID, owner types.AccountID, meta *Metadata) error {
	exists, err := s.db.Has(ownerKey(id))
	if err != nil {
		return fmt.Errorf("token has: %w", err)
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrTokenExists, id)
	}
	if err := s.db.Put(ownerKey(id), []byte(owner)); err != nil {
		return fmt.Errorf("token put owner: %w", err)
	}
	if meta == nil {
		return nil
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("token marshal: %w", err)
	}
	if err := s.db.Put(metaKey(id), data); err != nil {
		return fmt.Errorf("token put meta: %w", err)
	}
	return nil
}

// Owner returns the current owner of a token.
func (s *Store) Owner(id types.TokenID) (types.AccountID, error) {
	data, err := s.db.Get(ownerKey(id))
	if errors.Is(err, storage.ErrNotFound) {
		return "", fmt.Errorf("%w: %s", ErrTokenNotFound, id)
	}
	if err != nil {
		return "", fmt.Errorf("token get owner: %w", err)
	}
	return types.AccountID(data), nil
}

// Exists checks whether a token is registered.
func (s *Store) Exists(id types.TokenID) (bool, error) {
	return s.db.Has(ownerKey(id))
}

// Metadata returns a token's metadata, or nil if it has none.
func (s *Store) Metadata(id types.TokenID) (*Metadata, error) {
	data, err := s.db.Get(metaKey(id))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("token get meta: %w", err)
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("token unmarshal: %w", err)
	}
	return &meta, nil
}

// Transfer moves a token from the expected current owner to a new
// owner. It mutates nothing unless the stored owner matches from.
func (s *Store) Transfer(id types.TokenID, from, to types.AccountID) error {
	owner, err := s.Owner(id)
	if err != nil {
		return err
	}
	if owner != from {
		return fmt.Errorf("%w: %s is owned by %s, expected %s", ErrWrongOwner, id, owner, from)
	}
	if err := s.db.Put(ownerKey(id), []byte(to)); err != nil {
		return fmt.Errorf("token put owner: %w", err)
	}
	return nil
}

// Remove deletes a token's ownership record and metadata.
func (s *Store) Remove(id types.TokenID) error {
	if err := s.db.Delete(ownerKey(id)); err != nil {
		return fmt.Errorf("token delete owner: %w", err)
	}
	if err := s.db.Delete(metaKey(id)); err != nil {
		return fmt.Errorf("token delete meta: %w", err)
	}
	return nil
}

// NextMintNonce returns a fresh mint sequence number for derived token
// IDs. Nonces increase by one per call and are never reissued.
func (s *Store) NextMintNonce() (uint64, error) {
	var nonce uint64
	data, err := s.db.Get(keyMintSeq)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		nonce = 0
	case err != nil:
		return 0, fmt.Errorf("token get mint seq: %w", err)
	default:
		nonce = binary.LittleEndian.Uint64(data)
	}

	next := make([]byte, 8)
	binary.LittleEndian.PutUint64(next, nonce+1)
	if err := s.db.Put(keyMintSeq, next); err != nil {
		return 0, fmt.Errorf("token put mint seq: %w", err)
	}
	return nonce, nil
}

// OwnedEntry pairs a token ID with its owner.
type OwnedEntry struct {
	ID    types.TokenID
	Owner types.AccountID
}

// ForEach iterates over all tokens in ascending token-id order.
// Return a non-nil error from fn to stop iteration early.
func (s *Store) ForEach(fn func(id types.TokenID, owner types.AccountID) error) error {
	return s.db.ForEach(prefixOwner, func(key, value []byte) error {
		if len(key) <= len(prefixOwner) {
			return nil // Malformed key, skip.
		}
		id := types.TokenID(key[len(prefixOwner):])
		return fn(id, types.AccountID(value))
	})
}

// List returns all tokens with their owners.
func (s *Store) List() ([]OwnedEntry, error) {
	entries := []OwnedEntry{}
	err := s.ForEach(func(id types.TokenID, owner types.AccountID) error {
		entries = append(entries, OwnedEntry{ID: id, Owner: owner})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func ownerKey(id types.TokenID) []byte {
	key := make([]byte, 0, len(prefixOwner)+len(id))
	key = append(key, prefixOwner...)
	return append(key, id...)
}

func metaKey(id types.TokenID) []byte {
	key := make([]byte, 0, len(prefixMeta)+len(id))
	key = append(key, prefixMeta...)
	return append(key, id...)
}
