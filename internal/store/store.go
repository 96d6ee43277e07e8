// Package store implements the in-memory keyspace: a typed map of
// string/list/hash/sorted-set/stream values with lazy and active
// expiry, plus the notification bus blocking commands subscribe to.
package store

import (
	"reflect"
	"strconv"
	"sync"
	"time"

	"github.com/gobwas/glob"
)

// Kind identifies the type of value stored under a key.
type Kind int

const (
	KindString Kind = iota
	KindList
	KindHash
	KindZSet
	KindStream
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindHash:
		return "hash"
	case KindZSet:
		return "zset"
	case KindStream:
		return "stream"
	default:
		return "none"
	}
}

// entry is one keyspace slot. Exactly one of the typed fields is valid,
// selected by kind; str holds the String value directly since it is the
// common case and needs no boxing.
type entry struct {
	kind      Kind
	str       string
	list      *list
	hash      *hash
	zset      *zset
	stream    *stream
	expiresAt *time.Time
}

func (e *entry) expired(now time.Time) bool {
	return e.expiresAt != nil && now.After(*e.expiresAt)
}

// Store is the server's keyspace. A single RWMutex guards it; a coarse
// lock keeps the typed accessors simple.
type Store struct {
	mu     sync.RWMutex
	data   map[string]*entry
	expiry map[string]time.Time // mirrors entries with expiresAt set, for sampling
	bus    *notifyBus
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		data:   make(map[string]*entry),
		expiry: make(map[string]time.Time),
		bus:    newNotifyBus(),
	}
}

// --- internal helpers, always called with s.mu already held ---

func (s *Store) lookup(key string) (*entry, bool) {
	e, ok := s.data[key]
	if !ok {
		return nil, false
	}
	if e.expired(time.Now()) {
		s.removeLocked(key)
		return nil, false
	}
	return e, true
}

func (s *Store) setEntry(key string, e *entry) {
	s.data[key] = e
}

func (s *Store) deleteEntry(key string) {
	s.removeLocked(key)
}

func (s *Store) removeLocked(key string) {
	delete(s.data, key)
	delete(s.expiry, key)
}

func (s *Store) notify(key string) {
	s.bus.publish(key)
}

// --- generic keyspace operations ---

// Set stores a raw string value, replacing whatever was at key
// regardless of its previous type. expiresAt is nil for no TTL.
func (s *Store) Set(key, value string, expiresAt *time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = &entry{kind: KindString, str: value, expiresAt: expiresAt}
	if expiresAt != nil {
		s.expiry[key] = *expiresAt
	} else {
		delete(s.expiry, key)
	}
	s.notify(key)
}

// Get returns the string at key. ok is false if the key is absent,
// expired, or holds a non-string value (reported as ErrWrongType).
func (s *Store) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lookup(key)
	if !ok {
		return "", false, nil
	}
	if e.kind != KindString {
		return "", false, ErrWrongType
	}
	return e.str, true, nil
}

// Append appends value to the string at key, treating an absent key as
// empty, and returns the new length.
func (s *Store) Append(key, value string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lookup(key)
	if !ok {
		s.data[key] = &entry{kind: KindString, str: value}
		s.notify(key)
		return len(value), nil
	}
	if e.kind != KindString {
		return 0, ErrWrongType
	}
	e.str += value
	s.notify(key)
	return len(e.str), nil
}

// StrLen returns the length of the string at key, or 0 if absent.
func (s *Store) StrLen(key string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.lookup(key)
	if !ok {
		return 0, nil
	}
	if e.kind != KindString {
		return 0, ErrWrongType
	}
	return len(e.str), nil
}

// GetSet atomically replaces the string at key with value and returns
// whatever was there before.
func (s *Store) GetSet(key, value string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lookup(key)
	var old string
	if ok {
		if e.kind != KindString {
			return "", false, ErrWrongType
		}
		old = e.str
	}
	s.data[key] = &entry{kind: KindString, str: value}
	delete(s.expiry, key)
	s.notify(key)
	return old, ok, nil
}

// GetDel atomically returns and removes the string at key.
func (s *Store) GetDel(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lookup(key)
	if !ok {
		return "", false, nil
	}
	if e.kind != KindString {
		return "", false, ErrWrongType
	}
	s.removeLocked(key)
	s.notify(key)
	return e.str, true, nil
}

// GetEx returns the string at key, optionally updating (at non-nil) or
// clearing (persist) its TTL in the same locked section GETEX needs.
func (s *Store) GetEx(key string, at *time.Time, persist bool) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lookup(key)
	if !ok {
		return "", false, nil
	}
	if e.kind != KindString {
		return "", false, ErrWrongType
	}
	if persist {
		e.expiresAt = nil
		delete(s.expiry, key)
	} else if at != nil {
		e.expiresAt = at
		s.expiry[key] = *at
	}
	return e.str, true, nil
}

// MSet sets multiple string keys under a single lock, so a reader never
// observes only part of the batch.
func (s *Store) MSet(pairs [][2]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range pairs {
		s.data[p[0]] = &entry{kind: KindString, str: p[1]}
		delete(s.expiry, p[0])
	}
	for _, p := range pairs {
		s.notify(p[0])
	}
}

// Rename moves src's value and TTL onto dst, overwriting dst if it
// already exists. Returns ErrNoSuchKey if src is absent.
func (s *Store) Rename(src, dst string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lookup(src)
	if !ok {
		return ErrNoSuchKey
	}
	if src != dst {
		s.removeLocked(src)
	}
	s.data[dst] = e
	if e.expiresAt != nil {
		s.expiry[dst] = *e.expiresAt
	} else {
		delete(s.expiry, dst)
	}
	s.notify(src)
	s.notify(dst)
	return nil
}

// RenameNX is Rename but refuses to overwrite an existing dst.
func (s *Store) RenameNX(src, dst string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lookup(src)
	if !ok {
		return false, ErrNoSuchKey
	}
	if src != dst {
		if _, exists := s.lookup(dst); exists {
			return false, nil
		}
		s.removeLocked(src)
	}
	s.data[dst] = e
	if e.expiresAt != nil {
		s.expiry[dst] = *e.expiresAt
	} else {
		delete(s.expiry, dst)
	}
	s.notify(src)
	s.notify(dst)
	return true, nil
}

// Del removes keys and returns how many existed.
func (s *Store) Del(keys ...string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, key := range keys {
		if _, ok := s.lookup(key); ok {
			s.removeLocked(key)
			count++
			s.notify(key)
		}
	}
	return count
}

// Exists reports how many of the given keys are present (a key named
// more than once is counted once per occurrence, matching EXISTS's
// counting semantics).
func (s *Store) Exists(keys ...string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, key := range keys {
		if _, ok := s.lookup(key); ok {
			count++
		}
	}
	return count
}

// Type returns the key's Kind, or false if absent/expired.
func (s *Store) Type(key string) (Kind, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lookup(key)
	if !ok {
		return 0, false
	}
	return e.kind, true
}

// Expire sets or clears (when at is nil) a key's expiry time. Returns
// false if the key does not exist.
func (s *Store) Expire(key string, at *time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lookup(key)
	if !ok {
		return false
	}
	e.expiresAt = at
	if at != nil {
		s.expiry[key] = *at
	} else {
		delete(s.expiry, key)
	}
	return true
}

// Persist clears a key's TTL. Returns true if a TTL was actually
// removed.
func (s *Store) Persist(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lookup(key)
	if !ok || e.expiresAt == nil {
		return false
	}
	e.expiresAt = nil
	delete(s.expiry, key)
	return true
}

// TTL returns seconds remaining (-1 no expiry, -2 no such key).
func (s *Store) TTL(key string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lookup(key)
	if !ok {
		return -2
	}
	if e.expiresAt == nil {
		return -1
	}
	remaining := time.Until(*e.expiresAt)
	if remaining < 0 {
		s.removeLocked(key)
		return -2
	}
	return int64(remaining.Seconds())
}

// PTTL is TTL in milliseconds.
func (s *Store) PTTL(key string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lookup(key)
	if !ok {
		return -2
	}
	if e.expiresAt == nil {
		return -1
	}
	remaining := time.Until(*e.expiresAt)
	if remaining < 0 {
		s.removeLocked(key)
		return -2
	}
	return remaining.Milliseconds()
}

// Keys returns every live key matching a glob pattern ("*" for all).
func (s *Store) Keys(pattern string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := glob.Compile(pattern)
	now := time.Now()
	out := make([]string, 0, len(s.data))
	for k, e := range s.data {
		if e.expired(now) {
			s.removeLocked(k)
			continue
		}
		if err == nil && !g.Match(k) {
			continue
		}
		out = append(out, k)
	}
	return out
}

// Incr/IncrBy/Decr/DecrBy implement the string counter commands: the
// stored value must parse as a base-10 int64 or be absent (treated as
// 0), and the result always overwrites the key as a plain string.
func (s *Store) IncrBy(key string, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lookup(key)
	var current int64
	if ok {
		if e.kind != KindString {
			return 0, ErrWrongType
		}
		parsed, err := strconv.ParseInt(e.str, 10, 64)
		if err != nil {
			return 0, ErrNotInteger
		}
		current = parsed
	}
	next := current + delta
	s.data[key] = &entry{kind: KindString, str: strconv.FormatInt(next, 10)}
	delete(s.expiry, key)
	s.notify(key)
	return next, nil
}

func (s *Store) IncrByFloat(key string, delta float64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lookup(key)
	var current float64
	if ok {
		if e.kind != KindString {
			return 0, ErrWrongType
		}
		parsed, err := strconv.ParseFloat(e.str, 64)
		if err != nil {
			return 0, ErrNotFloat
		}
		current = parsed
	}
	next := current + delta
	formatted := strconv.FormatFloat(next, 'f', -1, 64)
	s.data[key] = &entry{kind: KindString, str: formatted}
	delete(s.expiry, key)
	s.notify(key)
	return next, nil
}

// ReplaceFrom atomically swaps in another store's contents, discarding
// whatever s held before. The RDB loader builds a snapshot into a
// scratch Store and only calls this once the whole file has parsed
// cleanly, so a malformed snapshot never leaves the live keyspace
// partially populated.
func (s *Store) ReplaceFrom(other *Store) {
	other.mu.Lock()
	data, expiry := other.data, other.expiry
	other.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = data
	s.expiry = expiry
}

// FlushAll clears the entire keyspace (FLUSHALL / FLUSHDB, this server
// exposes a single logical database).
func (s *Store) FlushAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = make(map[string]*entry)
	s.expiry = make(map[string]time.Time)
}

// DBSize returns the number of live keys.
func (s *Store) DBSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	count := 0
	for k, e := range s.data {
		if e.expired(now) {
			s.removeLocked(k)
			continue
		}
		count++
	}
	return count
}

// Wait registers for a wake on key's next mutation and blocks until
// either that happens, cancel fires, or timeout elapses (timeout <= 0
// means wait forever). Returns true if woken by a mutation.
func (s *Store) Wait(key string, timeout time.Duration, cancel <-chan struct{}) bool {
	s.mu.Lock()
	ch, unregister := s.bus.register(key)
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		unregister()
		s.mu.Unlock()
	}()

	if timeout <= 0 {
		select {
		case <-ch:
			return true
		case <-cancel:
			return false
		}
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-ch:
		return true
	case <-timer.C:
		return false
	case <-cancel:
		return false
	}
}

// WaitAny registers on every key's wake channel and blocks until any one
// of them is mutated, cancel fires, or timeout elapses (timeout <= 0
// means wait forever). Returns the key that woke it and true, or ("",
// false) on timeout/cancellation. Needed because a single-key Wait
// loop called once per key in sequence only ever really watches the
// first key: a mutation to a later key arrives while still blocked on
// an earlier one's channel and is missed entirely.
func (s *Store) WaitAny(keys []string, timeout time.Duration, cancel <-chan struct{}) (string, bool) {
	s.mu.Lock()
	chans := make([]<-chan struct{}, len(keys))
	unregister := make([]func(), len(keys))
	for i, key := range keys {
		chans[i], unregister[i] = s.bus.register(key)
	}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		for _, u := range unregister {
			u()
		}
		s.mu.Unlock()
	}()

	cases := make([]reflect.SelectCase, 0, len(chans)+2)
	for _, ch := range chans {
		cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(ch)})
	}
	cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(cancel)})
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(timer.C)})
	}

	chosen, _, _ := reflect.Select(cases)
	if chosen < len(keys) {
		return keys[chosen], true
	}
	return "", false
}

// ActiveExpireCycle samples keys with a TTL and evicts expired ones, the
// same bounded random-sampling sweep used to keep memory from
// accumulating dead keys that are never read again.
func (s *Store) ActiveExpireCycle() {
	const budget = time.Millisecond
	const sampleSize = 20

	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	for time.Since(start) < budget {
		sampled := 0
		expired := 0
		now := time.Now()
		for key, at := range s.expiry {
			sampled++
			if now.After(at) {
				s.removeLocked(key)
				expired++
			}
			if sampled >= sampleSize {
				break
			}
		}
		if sampled == 0 || sampled < sampleSize || expired*4 < sampled {
			break
		}
	}
}
