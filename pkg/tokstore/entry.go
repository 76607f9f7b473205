//
// # Licensing
//
// This file is part of the tokserver project and is licensed under the Apache License 2.0.
// It incorporates code and concepts from:
//   - OAuth 2.0 and OpenID Connect (Apache 2.0 License)
//   - Model Context Protocol (MIT License)

// Package tokstore implements the one-shot token store: an in-memory map from
// opaque token identifiers to caller metadata with TTL-based expiry and
// rotate-or-reject semantics. A token is redeemable at most once; redeeming it
// returns a fresh token and invalidates the old one.
package tokstore

import "time"

// Meta is an unordered bag of caller-supplied JSON values associated with a
// token. Values are whatever encoding/json decoded them into (string,
// float64, bool, nil, map[string]any, []any).
type Meta map[string]any

// Merge returns a new Meta with keys from patch overwriting matching keys in
// m; keys present only in m are kept untouched. A nil patch returns m itself
// unchanged (no new map is allocated).
func (m Meta) Merge(patch Meta) Meta {
	if patch == nil {
		return m
	}
	out := make(Meta, len(m)+len(patch))
	for k, v := range m {
		out[k] = v
	}
	for k, v := range patch {
		out[k] = v
	}
	return out
}

// Clone returns a shallow copy of m so callers cannot mutate a store entry's
// metadata through a reference obtained from Dump or a rotate response.
func (m Meta) Clone() Meta {
	if m == nil {
		return nil
	}
	out := make(Meta, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Entry is the triple the store holds per live token: {token, meta, expiry}.
// Entries are immutable with respect to Token; Meta and ExpiresAt change
// together, only by replacement during rotation.
type Entry struct {
	Token     string
	Meta      Meta
	ExpiresAt time.Time
}

// Expired reports whether the entry's TTL has elapsed as of now.
func (e Entry) Expired(now time.Time) bool {
	return !e.ExpiresAt.After(now)
}
