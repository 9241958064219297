// Package cache fronts the registry store's external-id lookups with a
// bounded read-through cache. Reaction events arrive for every message in the
// guild, most of them unrelated to any course, so misses are cached too: a
// negative entry stops repeat store reads for untracked messages.
//
// Entries are never invalidated on record creation. That is sound only while
// the chat platform never reuses a message/channel/role id and records are
// immutable once written; duplicate-check reads (FindByNumber) therefore go
// straight to the store, never through here.
package cache

import (
	"context"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"coursebot/internal/course/metrics"
	"coursebot/internal/course/models"
	"coursebot/pkg/platform/sentinel"
)

// DefaultCapacity bounds the cache to the same entry count the registry has
// always used.
const DefaultCapacity = 1024

type key struct {
	kind models.LookupKind
	id   string
}

// entry is a snapshot of a store read. A nil record is a negative entry:
// the store was consulted and had no row for this key.
type entry struct {
	record *models.CourseRecord
}

// Lookup is a read-through, LRU-evicted cache over a store's FindByExternalID.
// A hit (positive or negative) never touches the store; a miss issues exactly
// one store read and caches the result.
type Lookup struct {
	store   Reader
	entries *lru.Cache[key, entry]
	metrics *metrics.Metrics
}

// Reader is the single store operation the cache wraps.
type Reader interface {
	FindByExternalID(ctx context.Context, kind models.LookupKind, id string) (*models.CourseRecord, error)
}

// Option configures a Lookup.
type Option func(*Lookup)

// WithMetrics records hit/miss counts per lookup kind.
func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Lookup) {
		l.metrics = m
	}
}

// New creates a Lookup over the given store with the given capacity.
func New(store Reader, capacity int, opts ...Option) (*Lookup, error) {
	if store == nil {
		return nil, errors.New("store reader is required")
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	entries, err := lru.New[key, entry](capacity)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}
	l := &Lookup{store: store, entries: entries}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// FindByExternalID resolves (kind, id) to a course record. Returns
// sentinel.ErrNotFound for keys the store has no record for, whether the
// answer came from the cache or from a fresh store read. Store errors are
// propagated and leave the cache unchanged.
func (l *Lookup) FindByExternalID(ctx context.Context, kind models.LookupKind, id string) (*models.CourseRecord, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("lookup kind %q: %w", kind, sentinel.ErrInvalidState)
	}

	k := key{kind: kind, id: id}
	if cached, ok := l.entries.Get(k); ok {
		l.metrics.RecordCacheHit(kind.String())
		if cached.record == nil {
			return nil, sentinel.ErrNotFound
		}
		copied := *cached.record
		return &copied, nil
	}

	l.metrics.RecordCacheMiss(kind.String())
	record, err := l.store.FindByExternalID(ctx, kind, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			l.entries.Add(k, entry{})
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}

	snapshot := *record
	l.entries.Add(k, entry{record: &snapshot})
	copied := snapshot
	return &copied, nil
}

// Purge drops every entry. Called after teardown clears the store so a
// rebuilt registry starts cold instead of serving stale positives.
func (l *Lookup) Purge() {
	l.entries.Purge()
}

// Len reports the current number of cached entries, negative ones included.
func (l *Lookup) Len() int {
	return l.entries.Len()
}
