// Package vault implements the Vault (spec §4.E): the only component
// that may hold a token <-> surface mapping, encrypted at rest, keyed
// by session. It is modeled directly on the cache the control-plane
// backend uses for policy lookups — an LRU list backing an eviction
// policy, with a background sweeper for time-based expiry — generalized
// here to per-session payloads that are never stored as plaintext.
package vault

import (
	"container/list"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/CoReason-AI/coreason-aegis/internal/aegiserr"
	"github.com/CoReason-AI/coreason-aegis/internal/aegistype"
)

// payload is the plaintext shape encrypted and decrypted on every
// access. It never persists in memory outside the critical section that
// produced it.
type payload struct {
	Forward  map[string]string `json:"forward"`  // token -> surface
	Reverse  map[string]string `json:"reverse"`  // entity_type\x00normalized_surface -> token
	Ordinals map[string]int    `json:"ordinals"` // entity_type -> next ordinal to mint
}

func newPayload() *payload {
	return &payload{
		Forward:  make(map[string]string),
		Reverse:  make(map[string]string),
		Ordinals: make(map[string]int),
	}
}

// ReverseKey builds the (entity_type, normalized_surface) lookup key used
// by the Vault's reverse map. Exported so callers that need to resolve
// token reuse against a Snapshot without a round trip through the Vault
// can compute the same key.
func ReverseKey(entityType, normalizedSurface string) string {
	return entityType + "\x00" + normalizedSurface
}

// session is one session's vault entry. mu is the per-session exclusive
// lock spec §4.E calls for: RLock for lookups that only decrypt and
// read, Lock for any operation that re-encrypts a mutated payload.
type session struct {
	mu        sync.RWMutex
	sessionID string
	createdAt time.Time
	expiresAt time.Time
	encrypted []byte
	element   *list.Element
}

// Vault is the encrypted, per-session token<->surface store.
type Vault struct {
	mu          sync.RWMutex // guards the table's structural shape: entries map + lruList
	entries     map[string]*session
	lruList     *list.List
	maxSessions int
	ttl         time.Duration
	sealer      *sealer
	logger      *zap.Logger

	sweepOnce sync.Once
}

// New builds a Vault. rootKey must be non-empty; it is never stored
// directly, only used to derive the per-process data-encryption key.
func New(rootKey []byte, maxSessions int, ttl time.Duration, logger *zap.Logger) (*Vault, error) {
	s, err := newSealer(rootKey)
	if err != nil {
		return nil, err
	}
	if maxSessions <= 0 {
		return nil, aegiserr.New(aegiserr.KindVaultCapacityExceeded, "max sessions must be positive")
	}
	if ttl <= 0 {
		return nil, aegiserr.New(aegiserr.KindVaultTTLExpired, "ttl must be positive")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Vault{
		entries:     make(map[string]*session),
		lruList:     list.New(),
		maxSessions: maxSessions,
		ttl:         ttl,
		sealer:      s,
		logger:      logger,
	}, nil
}

// BeginOrTouch returns the MappingHandle for sessionID, creating a fresh
// session if none exists and sliding the TTL window forward either way.
func (v *Vault) BeginOrTouch(sessionID string) (*aegistype.MappingHandle, error) {
	s, _, err := v.touchOrCreate(sessionID)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &aegistype.MappingHandle{
		SessionID: s.sessionID,
		CreatedAt: s.createdAt,
		ExpiresAt: s.expiresAt,
	}, nil
}

func (v *Vault) touchOrCreate(sessionID string) (*session, bool, error) {
	now := time.Now()

	v.mu.RLock()
	s, ok := v.entries[sessionID]
	v.mu.RUnlock()

	if ok && now.Before(s.expiresAt) {
		v.mu.Lock()
		s.expiresAt = now.Add(v.ttl)
		v.lruList.MoveToFront(s.element)
		v.mu.Unlock()
		return s, false, nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	// Re-check under the write lock: another goroutine may have created
	// or refreshed it between the RUnlock above and here.
	if s, ok := v.entries[sessionID]; ok && now.Before(s.expiresAt) {
		s.expiresAt = now.Add(v.ttl)
		v.lruList.MoveToFront(s.element)
		return s, false, nil
	}

	if v.lruList.Len() >= v.maxSessions {
		if !v.evictOldestLocked() {
			return nil, false, aegiserr.New(aegiserr.KindVaultCapacityExceeded, "vault session table is full")
		}
	}

	enc, err := v.sealer.seal(mustMarshal(newPayload()))
	if err != nil {
		return nil, false, err
	}

	s = &session{
		sessionID: sessionID,
		createdAt: now,
		expiresAt: now.Add(v.ttl),
		encrypted: enc,
	}
	s.element = v.lruList.PushFront(sessionID)
	v.entries[sessionID] = s
	return s, true, nil
}

// evictOldestLocked drops the least-recently-used session that has
// already passed its TTL. It reports false if the oldest entry is still
// live, meaning the table is genuinely at capacity.
func (v *Vault) evictOldestLocked() bool {
	back := v.lruList.Back()
	if back == nil {
		return false
	}
	id := back.Value.(string)
	s := v.entries[id]
	if s != nil && time.Now().Before(s.expiresAt) {
		return false
	}
	v.lruList.Remove(back)
	delete(v.entries, id)
	return true
}

// Record writes a (token, surface) pair into sessionID's mapping. When
// reversible is true the surface can later be recovered via
// LookupForward; SYNTHETIC and HASH tokens are written with
// reversible=false so the Reveal Pipeline never reconstitutes PII a
// policy did not intend to be recoverable.
func (v *Vault) Record(sessionID, entityType, surface, normalizedSurface, token string, reversible bool) error {
	s, _, err := v.touchOrCreate(sessionID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := v.decrypt(s)
	if err != nil {
		return err
	}

	if reversible {
		if existing, ok := p.Forward[token]; ok && existing != surface {
			return aegiserr.New(aegiserr.KindInternalInvariantViolation, "token bijection violated: "+token)
		}
		p.Forward[token] = surface
	}
	p.Reverse[ReverseKey(entityType, normalizedSurface)] = token

	return v.reencrypt(s, p)
}

// MappingEntry is one resolved token assignment awaiting commit.
type MappingEntry struct {
	EntityType        string
	Surface           string
	NormalizedSurface string
	Token             string
	// Reversible mirrors Record's reversible parameter: only REPLACE
	// entries populate the forward (token -> surface) map. SYNTHETIC and
	// HASH entries are never reversible.
	Reversible bool
}

// Snapshot touches sessionID (creating it if absent, sliding its TTL
// forward) and returns its handle along with read-only copies of the
// current reverse-lookup and ordinal-counter state. Callers use these
// copies to resolve token reuse and mint ordinals entirely in memory,
// before writing anything, so the eventual CommitMapping call is the
// only point at which the session's mapping actually changes.
func (v *Vault) Snapshot(sessionID string) (*aegistype.MappingHandle, map[string]string, map[string]int, error) {
	s, _, err := v.touchOrCreate(sessionID)
	if err != nil {
		return nil, nil, nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	p, err := v.decrypt(s)
	if err != nil {
		return nil, nil, nil, err
	}

	reverse := make(map[string]string, len(p.Reverse))
	for k, val := range p.Reverse {
		reverse[k] = val
	}
	ordinals := make(map[string]int, len(p.Ordinals))
	for k, val := range p.Ordinals {
		ordinals[k] = val
	}

	return &aegistype.MappingHandle{
		SessionID: s.sessionID,
		CreatedAt: s.createdAt,
		ExpiresAt: s.expiresAt,
	}, reverse, ordinals, nil
}

// CommitMapping writes a full batch of resolved token assignments and the
// resulting ordinal counters in a single critical section. This is the
// only Vault write the Sanitize Pipeline performs per call: the full span
// set is resolved against a Snapshot first, so a sanitize call cancelled
// before CommitMapping runs leaves the Vault untouched (spec §5).
func (v *Vault) CommitMapping(sessionID string, entries []MappingEntry, ordinals map[string]int) error {
	if len(entries) == 0 && len(ordinals) == 0 {
		return nil
	}

	s, _, err := v.touchOrCreate(sessionID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := v.decrypt(s)
	if err != nil {
		return err
	}

	for _, e := range entries {
		if e.Reversible {
			if existing, ok := p.Forward[e.Token]; ok && existing != e.Surface {
				return aegiserr.New(aegiserr.KindInternalInvariantViolation, "token bijection violated: "+e.Token)
			}
			p.Forward[e.Token] = e.Surface
		}
		p.Reverse[ReverseKey(e.EntityType, e.NormalizedSurface)] = e.Token
	}
	for entityType, next := range ordinals {
		p.Ordinals[entityType] = next
	}

	return v.reencrypt(s, p)
}

// NextOrdinal returns the next 0-based ordinal to mint for (sessionID,
// entityType) and advances the counter. Callers mint the token from the
// returned ordinal and must still call Record to persist the mapping.
func (v *Vault) NextOrdinal(sessionID, entityType string) (int, error) {
	s, _, err := v.touchOrCreate(sessionID)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := v.decrypt(s)
	if err != nil {
		return 0, err
	}

	ordinal := p.Ordinals[entityType]
	p.Ordinals[entityType] = ordinal + 1

	if err := v.reencrypt(s, p); err != nil {
		return 0, err
	}
	return ordinal, nil
}

// LookupForward returns the surface a token was minted for, if any.
func (v *Vault) LookupForward(sessionID, token string) (string, bool, error) {
	v.mu.RLock()
	s, ok := v.entries[sessionID]
	v.mu.RUnlock()
	if !ok || time.Now().After(s.expiresAt) {
		return "", false, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	p, err := v.decrypt(s)
	if err != nil {
		return "", false, err
	}
	surface, found := p.Forward[token]
	return surface, found, nil
}

// LookupReverse returns the token already minted for (entityType,
// normalizedSurface) within sessionID, if this exact surface has been
// seen before in this session. The Sanitize Pipeline uses this to
// satisfy the determinism invariant: same surface, same session, same
// token.
func (v *Vault) LookupReverse(sessionID, entityType, normalizedSurface string) (string, bool, error) {
	v.mu.RLock()
	s, ok := v.entries[sessionID]
	v.mu.RUnlock()
	if !ok || time.Now().After(s.expiresAt) {
		return "", false, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	p, err := v.decrypt(s)
	if err != nil {
		return "", false, err
	}
	token, found := p.Reverse[ReverseKey(entityType, normalizedSurface)]
	return token, found, nil
}

// Purge removes a session's mapping immediately, independent of TTL.
func (v *Vault) Purge(sessionID string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	s, ok := v.entries[sessionID]
	if !ok {
		return false
	}
	v.lruList.Remove(s.element)
	delete(v.entries, sessionID)
	return true
}

func (v *Vault) decrypt(s *session) (*payload, error) {
	plaintext, err := v.sealer.open(s.encrypted)
	if err != nil {
		return nil, err
	}
	var p payload
	if err := json.Unmarshal(plaintext, &p); err != nil {
		return nil, aegiserr.Wrap(aegiserr.KindVaultCryptoFailure, "payload decode failed", err)
	}
	return &p, nil
}

func (v *Vault) reencrypt(s *session, p *payload) error {
	enc, err := v.sealer.seal(mustMarshal(p))
	if err != nil {
		return err
	}
	s.encrypted = enc
	return nil
}

func mustMarshal(p *payload) []byte {
	b, err := json.Marshal(p)
	if err != nil {
		// payload is a fixed shape of maps of strings and ints; this
		// can only fail on an invariant violation elsewhere.
		panic("vault: payload marshal failed: " + err.Error())
	}
	return b
}
