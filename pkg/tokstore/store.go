package tokstore

import (
	"hash/fnv"
	"sync"
	"time"
)

// numShards partitions the store by a hash of the token so that rotations on
// unrelated tokens usually take different locks; two tokens that hash to the
// same shard still share one (spec §5: "a sharded map is recommended to keep
// rotation latency bounded at scale").
const numShards = 16

type shard struct {
	idx int
	mu  sync.Mutex
	m   map[string]Entry
}

// Mirror receives a best-effort notification for every successful Create and
// Rotate, and for every Remove that deleted an entry; Purge evictions are not
// published. It is never on the critical path for correctness — the in-memory
// map remains the sole system of record (spec §1: "the store is volatile by
// design").
type Mirror interface {
	Publish(op string, token string)
}

// Sealer wraps and unwraps the opaque identifier the store hands to callers.
// When set, store keys stay raw (for sharding/hashing) while the string
// callers see and present back is Seal(raw). nil means tokens are handed out
// unwrapped.
type Sealer interface {
	Seal(raw string) (string, error)
	Unseal(sealed string) (string, error)
}

// Store is the concurrent, one-shot token store (spec §4.1, component C4).
type Store struct {
	shards   [numShards]*shard
	lifetime time.Duration
	now      func() time.Time
	mirror   Mirror
	sealer   Sealer
}

// Option configures optional, non-semantic-changing store behavior.
type Option func(*Store)

// WithMirror attaches a best-effort side-channel notifier.
func WithMirror(m Mirror) Option {
	return func(s *Store) { s.mirror = m }
}

// WithSealer attaches an identifier wrapper/unwrapper.
func WithSealer(sealer Sealer) Option {
	return func(s *Store) { s.sealer = sealer }
}

// withClock overrides the store's notion of "now"; used by tests to exercise
// TTL expiry without sleeping.
func withClock(fn func() time.Time) Option {
	return func(s *Store) { s.now = fn }
}

// New creates an empty store with the given per-entry TTL.
func New(lifetime time.Duration, opts ...Option) *Store {
	s := &Store{lifetime: lifetime, now: time.Now}
	for i := range s.shards {
		s.shards[i] = &shard{idx: i, m: make(map[string]Entry)}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) shardFor(rawToken string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(rawToken))
	return s.shards[h.Sum32()%numShards]
}

// lockOrdered locks a then b without risking deadlock against a concurrent
// call locking the same pair in the opposite order, by always acquiring the
// lower shard index first. Returns the distinct locks held, in acquisition
// order, so callers can unlock symmetrically.
func lockOrdered(a, b *shard) []*shard {
	if a == b {
		a.mu.Lock()
		return []*shard{a}
	}
	first, second := a, b
	if second.idx < first.idx {
		first, second = second, first
	}
	first.mu.Lock()
	second.mu.Lock()
	return []*shard{first, second}
}

func unlockAll(locked []*shard) {
	for _, sh := range locked {
		sh.mu.Unlock()
	}
}

func (s *Store) wrap(raw string) (string, error) {
	if s.sealer == nil {
		return raw, nil
	}
	return s.sealer.Seal(raw)
}

func (s *Store) unwrap(token string) (string, bool) {
	if s.sealer == nil {
		return token, true
	}
	raw, err := s.sealer.Unseal(token)
	if err != nil {
		return "", false
	}
	return raw, true
}

func (s *Store) publish(op, raw string) {
	if s.mirror != nil {
		s.mirror.Publish(op, raw)
	}
}

// Create generates a fresh token bound to meta and inserts it with a new
// expiry. It does not fail under normal conditions (spec §4.1).
func (s *Store) Create(meta Meta) (string, error) {
	now := s.now()
	for {
		raw := newID()
		sh := s.shardFor(raw)
		sh.mu.Lock()
		if _, exists := sh.m[raw]; exists {
			sh.mu.Unlock()
			continue
		}
		sh.m[raw] = Entry{Token: raw, Meta: meta, ExpiresAt: now.Add(s.lifetime)}
		sh.mu.Unlock()
		s.publish("create", raw)
		return s.wrap(raw)
	}
}

// Rotate is the one-shot operation (spec §4.1, §8 P1/P2/P3). It atomically
// removes old and, if old was live, inserts a replacement with merged
// metadata and a fresh expiry. Concurrent Rotate calls on the same token
// yield exactly one success; all others observe ErrInvalidToken.
func (s *Store) Rotate(old string, patch Meta, hasPatch bool) (Entry, error) {
	rawOld, ok := s.unwrap(old)
	if !ok {
		return Entry{}, ErrInvalidToken
	}
	now := s.now()
	oldShard := s.shardFor(rawOld)

	for {
		rawNew := newID()
		newShard := s.shardFor(rawNew)
		locked := lockOrdered(oldShard, newShard)

		oldEntry, exists := oldShard.m[rawOld]
		if !exists || oldEntry.Expired(now) {
			unlockAll(locked)
			return Entry{}, ErrInvalidToken
		}
		if _, collide := newShard.m[rawNew]; collide {
			unlockAll(locked)
			continue
		}

		delete(oldShard.m, rawOld)
		newMeta := oldEntry.Meta
		if hasPatch {
			newMeta = oldEntry.Meta.Merge(patch)
		}
		newEntry := Entry{Token: rawNew, Meta: newMeta, ExpiresAt: now.Add(s.lifetime)}
		newShard.m[rawNew] = newEntry
		unlockAll(locked)

		s.publish("rotate", rawOld)
		wrapped, err := s.wrap(rawNew)
		if err != nil {
			return Entry{}, err
		}
		result := newEntry
		result.Token = wrapped
		result.Meta = newMeta.Clone()
		return result, nil
	}
}

// Remove deletes the entry for token if present. It is idempotent: callers
// observe success whether or not the entry existed (spec §4.1, P6).
func (s *Store) Remove(token string) {
	raw, ok := s.unwrap(token)
	if !ok {
		return
	}
	sh := s.shardFor(raw)
	sh.mu.Lock()
	_, existed := sh.m[raw]
	delete(sh.m, raw)
	sh.mu.Unlock()
	if existed {
		s.publish("remove", raw)
	}
}

// Purge removes every entry whose TTL has elapsed as of now and returns the
// count removed (spec §4.1, §4.2, I5). It locks one shard at a time so a
// sweep never blocks foreground handlers for longer than a single shard's
// critical section (spec §5).
func (s *Store) Purge(now time.Time) int {
	removed := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		for token, entry := range sh.m {
			if entry.Expired(now) {
				delete(sh.m, token)
				removed++
			}
		}
		sh.mu.Unlock()
	}
	return removed
}

// Len reports the number of live (non-expired) entries. It is a point-in-time
// estimate used by tests and the active-token gauge, not a store primitive.
func (s *Store) Len() int {
	now := s.now()
	n := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		for _, entry := range sh.m {
			if !entry.Expired(now) {
				n++
			}
		}
		sh.mu.Unlock()
	}
	return n
}

// DumpEntry is a logging-oriented snapshot row (spec §4.1 dump()).
type DumpEntry struct {
	Token     string
	Meta      Meta
	ExpiresAt time.Time
}

// Dump yields a snapshot of live entries for logging. Expired-but-not-yet-
// purged entries are filtered out (spec §9, Open Question b). Each entry's
// Token is reported via its fingerprint, never the raw or sealed value, so a
// dump snapshot is safe to hand to a generic logging sink.
func (s *Store) Dump() []DumpEntry {
	now := s.now()
	var out []DumpEntry
	for _, sh := range s.shards {
		sh.mu.Lock()
		for token, entry := range sh.m {
			if entry.Expired(now) {
				continue
			}
			out = append(out, DumpEntry{
				Token:     fingerprint(token),
				Meta:      entry.Meta.Clone(),
				ExpiresAt: entry.ExpiresAt,
			})
		}
		sh.mu.Unlock()
	}
	return out
}
