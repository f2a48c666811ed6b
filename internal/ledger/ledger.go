// Package ledger owns the ordered collection of expense records, its
// persistence through a kv.Store, and the read-only aggregation queries over
// it. Consumers mutate through Append/RemoveAt and observe changes through
// Subscribe; they never touch storage directly.
package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"tally/internal/core"
	"tally/internal/kv"
	applog "tally/internal/log"
)

// DefaultKey is the single namespaced key the collection is stored under.
const DefaultKey = "expenses"

// Observer receives the full item snapshot after every successful mutation.
type Observer func(items []core.Record)

// Options configures a Ledger. The zero value selects the default key, UTC
// day bucketing, and a default logger.
type Options struct {
	Key      string
	Location *time.Location
	Logger   *applog.Logger
}

// Ledger is the in-memory expense collection. All access is serialized under
// one mutex so that persist-full-collection is atomic with respect to other
// mutations even when a background consumer shares the instance.
type Ledger struct {
	mu      sync.Mutex
	items   []core.Record
	store   kv.Store
	key     string
	loc     *time.Location
	log     *applog.Logger
	subs    map[int]Observer
	nextSub int
}

// Open constructs a ledger and hydrates it from store.
//
// Hydration is best-effort by design: an absent key, a storage read failure,
// or a payload that fails to decode all collapse to an empty collection. The
// failure is logged, never surfaced — the product choice is to not lose the
// session over a storage hiccup.
func Open(ctx context.Context, store kv.Store, opts Options) *Ledger {
	if opts.Key == "" {
		opts.Key = DefaultKey
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.Config{Component: applog.ComponentLedger})
	}

	l := &Ledger{
		store: store,
		key:   opts.Key,
		loc:   opts.Location,
		log:   opts.Logger,
		subs:  make(map[int]Observer),
	}

	data, ok, err := store.Load(ctx, l.key)
	if err != nil {
		l.log.Warn("Hydration read failed, starting empty", "key", l.key, "error", err)
		return l
	}
	if !ok {
		return l
	}
	items, err := decodeRecords(data)
	if err != nil {
		l.log.Warn("Hydration decode failed, starting empty", "key", l.key, "error", err)
		return l
	}
	l.items = items
	return l
}

// Append inserts rec at the end of the collection, persists the whole
// collection, and notifies subscribers. It returns the new snapshot.
func (l *Ledger) Append(ctx context.Context, rec core.Record) []core.Record {
	l.mu.Lock()
	l.items = append(l.items, rec)
	l.save(ctx)
	snapshot := l.snapshotLocked()
	subs := l.subscribersLocked()
	l.mu.Unlock()

	l.notify(subs, snapshot)
	return snapshot
}

// RemoveAt removes every record whose current position is in positions, as a
// single atomic update: one persist and one notification for the whole
// batch. Positions refer to the current display order; out-of-range and
// duplicate positions are ignored. When nothing matches, the collection is
// unchanged and no save or notification happens.
func (l *Ledger) RemoveAt(ctx context.Context, positions ...int) []core.Record {
	drop := make(map[int]struct{}, len(positions))
	for _, p := range positions {
		drop[p] = struct{}{}
	}

	l.mu.Lock()
	kept := make([]core.Record, 0, len(l.items))
	removed := 0
	for i, rec := range l.items {
		if _, gone := drop[i]; gone {
			removed++
			continue
		}
		kept = append(kept, rec)
	}
	if removed == 0 {
		snapshot := l.snapshotLocked()
		l.mu.Unlock()
		return snapshot
	}
	l.items = kept
	l.save(ctx)
	snapshot := l.snapshotLocked()
	subs := l.subscribersLocked()
	l.mu.Unlock()

	l.notify(subs, snapshot)
	return snapshot
}

// Items returns a copy of the current collection in display order.
func (l *Ledger) Items() []core.Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

// Location returns the location used for calendar-day bucketing.
func (l *Ledger) Location() *time.Location {
	return l.loc
}

// Len returns the number of records.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

// DailyTotal sums the amounts of all records falling on day's calendar day
// in the ledger's location. Time of day is ignored. Zero when no record
// matches.
func (l *Ledger) DailyTotal(day time.Time) decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()

	total := decimal.Zero
	for _, rec := range l.items {
		if core.SameDay(rec.At, day, l.loc) {
			total = total.Add(rec.Amount)
		}
	}
	return total
}

// MonthlyTotal sums the amounts of all records whose date falls within the
// calendar month of day in the ledger's location, both month bounds
// included. Zero when no record matches.
func (l *Ledger) MonthlyTotal(day time.Time) decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()

	total := decimal.Zero
	for _, rec := range l.items {
		if core.InMonth(rec.At, day, l.loc) {
			total = total.Add(rec.Amount)
		}
	}
	return total
}

// RecordsForDay returns the sub-sequence of records on day's calendar day,
// preserving their relative order. It uses the same calendar comparison as
// DailyTotal, so the two always agree on which records belong to a day.
func (l *Ledger) RecordsForDay(day time.Time) []core.Record {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []core.Record
	for _, rec := range l.items {
		if core.SameDay(rec.At, day, l.loc) {
			out = append(out, rec)
		}
	}
	return out
}

// Subscribe registers fn to be called with the new snapshot after every
// successful mutation. The returned function cancels the subscription.
func (l *Ledger) Subscribe(fn Observer) (cancel func()) {
	l.mu.Lock()
	id := l.nextSub
	l.nextSub++
	l.subs[id] = fn
	l.mu.Unlock()

	return func() {
		l.mu.Lock()
		delete(l.subs, id)
		l.mu.Unlock()
	}
}

// save persists the whole collection. A failed save is logged and swallowed:
// the in-memory items stay authoritative for the session and the mutation
// that triggered the save still succeeds.
func (l *Ledger) save(ctx context.Context) {
	data, err := encodeRecords(l.items)
	if err != nil {
		l.log.ErrorContext(ctx, "Encode failed, collection not persisted", "key", l.key, "count", len(l.items), "error", err)
		return
	}
	if err := l.store.Save(ctx, l.key, data); err != nil {
		l.log.ErrorContext(ctx, "Save failed, keeping in-memory state", "key", l.key, "count", len(l.items), "error", err)
	}
}

func (l *Ledger) snapshotLocked() []core.Record {
	out := make([]core.Record, len(l.items))
	copy(out, l.items)
	return out
}

func (l *Ledger) subscribersLocked() []Observer {
	out := make([]Observer, 0, len(l.subs))
	for _, fn := range l.subs {
		out = append(out, fn)
	}
	return out
}

// notify runs outside the mutex so observers may call back into queries.
func (l *Ledger) notify(subs []Observer, snapshot []core.Record) {
	for _, fn := range subs {
		fn(snapshot)
	}
}
