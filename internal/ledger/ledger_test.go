package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"tally/internal/core"
	"tally/internal/kv/memory"
)

func newTestLedger(t *testing.T) (*Ledger, *memory.Store) {
	t.Helper()
	store := memory.New()
	l := Open(context.Background(), store, Options{})
	return l, store
}

func rec(t *testing.T, amount, category string, at time.Time) core.Record {
	t.Helper()
	d, err := decimal.NewFromString(amount)
	if err != nil {
		t.Fatalf("bad amount %q: %v", amount, err)
	}
	return core.NewRecord(d, category, at)
}

func TestAppendKeepsOrderAndValues(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	want := []core.Record{
		rec(t, "12.50", "food", at),
		rec(t, "7.25", "transport", at.Add(8*time.Hour)),
		rec(t, "0", "", at.Add(time.Minute)),
	}
	for _, r := range want {
		l.Append(ctx, r)
	}

	items := l.Items()
	if len(items) != len(want) {
		t.Fatalf("got %d items, want %d", len(items), len(want))
	}
	for i, r := range want {
		got := items[i]
		if got.ID != r.ID || !got.Amount.Equal(r.Amount) || got.Category != r.Category || !got.At.Equal(r.At) {
			t.Fatalf("item %d = %+v, want %+v", i, got, r)
		}
	}
}

func TestRemoveAtSingle(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	a := rec(t, "1", "a", at)
	b := rec(t, "2", "b", at)
	c := rec(t, "3", "c", at)
	for _, r := range []core.Record{a, b, c} {
		l.Append(ctx, r)
	}

	items := l.RemoveAt(ctx, 1)
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if items[0].ID != a.ID || items[1].ID != c.ID {
		t.Fatalf("wrong survivors: %v, %v", items[0].ID, items[1].ID)
	}
}

func TestRemoveAtBatch(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	mid := rec(t, "2", "keep", at)
	l.Append(ctx, rec(t, "1", "drop", at))
	l.Append(ctx, mid)
	l.Append(ctx, rec(t, "3", "drop", at))

	items := l.RemoveAt(ctx, 0, 2)
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
	if items[0].ID != mid.ID {
		t.Fatalf("survivor = %q, want middle record %q", items[0].ID, mid.ID)
	}
}

func TestRemoveAtOutOfRangeIgnored(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	keep := rec(t, "1", "a", at)
	l.Append(ctx, keep)

	items := l.RemoveAt(ctx, -1, 5, 100)
	if len(items) != 1 || items[0].ID != keep.ID {
		t.Fatalf("out-of-range positions must not change items, got %v", items)
	}
}

func TestRemoveAtNotifiesOncePerBatch(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		l.Append(ctx, rec(t, "1", "x", at))
	}

	calls := 0
	cancel := l.Subscribe(func(items []core.Record) { calls++ })
	defer cancel()

	l.RemoveAt(ctx, 0, 1)
	if calls != 1 {
		t.Fatalf("got %d notifications, want 1 for the whole batch", calls)
	}
}

func TestSubscribeAndCancel(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	var seen []int
	cancel := l.Subscribe(func(items []core.Record) { seen = append(seen, len(items)) })

	l.Append(ctx, rec(t, "1", "a", at))
	l.Append(ctx, rec(t, "2", "b", at))
	cancel()
	l.Append(ctx, rec(t, "3", "c", at))

	if len(seen) != 2 || seen[0] != 1 || seen[1] != 2 {
		t.Fatalf("got notifications %v, want [1 2]", seen)
	}
}

func TestDailyTotalScenario(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	l.Append(ctx, rec(t, "12.50", "food", time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)))
	l.Append(ctx, rec(t, "7.25", "transport", time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC)))

	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	if got := l.DailyTotal(day); !got.Equal(decimal.RequireFromString("19.75")) {
		t.Fatalf("daily total = %s, want 19.75", got)
	}

	forDay := l.RecordsForDay(day)
	if len(forDay) != 2 {
		t.Fatalf("got %d records for day, want 2", len(forDay))
	}
	if forDay[0].Category != "food" || forDay[1].Category != "transport" {
		t.Fatalf("records out of order: %s, %s", forDay[0].Category, forDay[1].Category)
	}
}

func TestDailyTotalEmptyDay(t *testing.T) {
	l, _ := newTestLedger(t)
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	if got := l.DailyTotal(day); !got.IsZero() {
		t.Fatalf("daily total of empty ledger = %s, want 0", got)
	}
	if got := l.MonthlyTotal(day); !got.IsZero() {
		t.Fatalf("monthly total of empty ledger = %s, want 0", got)
	}
	if got := l.RecordsForDay(day); len(got) != 0 {
		t.Fatalf("records for day of empty ledger = %v, want none", got)
	}
}

func TestDailyTotalAgreesWithRecordsForDay(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	days := []time.Time{
		time.Date(2024, 2, 28, 9, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 29, 12, 30, 0, 0, time.UTC),
		time.Date(2024, 3, 1, 0, 0, 1, 0, time.UTC),
		time.Date(2024, 3, 1, 23, 59, 59, 0, time.UTC),
	}
	amounts := []string{"1.10", "2.20", "3.30", "4.40"}
	for i, d := range days {
		l.Append(ctx, rec(t, amounts[i], "c", d))
	}

	for _, d := range days {
		sum := decimal.Zero
		for _, r := range l.RecordsForDay(d) {
			sum = sum.Add(r.Amount)
		}
		if got := l.DailyTotal(d); !got.Equal(sum) {
			t.Fatalf("day %v: DailyTotal=%s, sum over RecordsForDay=%s", d, got, sum)
		}
	}
}

func TestMonthlyTotalEqualsSumOfDailyTotals(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	// Spread records over leap February and its neighbors.
	l.Append(ctx, rec(t, "5.00", "a", time.Date(2024, 1, 31, 23, 59, 0, 0, time.UTC)))
	l.Append(ctx, rec(t, "1.25", "b", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)))
	l.Append(ctx, rec(t, "2.50", "c", time.Date(2024, 2, 14, 12, 0, 0, 0, time.UTC)))
	l.Append(ctx, rec(t, "3.75", "d", time.Date(2024, 2, 29, 23, 59, 0, 0, time.UTC)))
	l.Append(ctx, rec(t, "9.00", "e", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))

	ref := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	sum := decimal.Zero
	for day := 1; day <= 29; day++ {
		sum = sum.Add(l.DailyTotal(time.Date(2024, 2, day, 0, 0, 0, 0, time.UTC)))
	}
	if got := l.MonthlyTotal(ref); !got.Equal(sum) {
		t.Fatalf("monthly total = %s, sum of daily totals = %s", got, sum)
	}
	if want := decimal.RequireFromString("7.50"); !sum.Equal(want) {
		t.Fatalf("february sum = %s, want %s", sum, want)
	}
}

func TestMonthlyTotalBoundary(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	l.Append(ctx, rec(t, "10", "march", time.Date(2024, 3, 31, 23, 59, 0, 0, time.UTC)))
	l.Append(ctx, rec(t, "20", "april", time.Date(2024, 4, 1, 0, 1, 0, 0, time.UTC)))

	got := l.MonthlyTotal(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))
	if !got.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("march total = %s, want 10", got)
	}
}

func TestDayBucketingFollowsLocation(t *testing.T) {
	store := memory.New()
	loc := time.FixedZone("UTC+2", 2*60*60)
	l := Open(context.Background(), store, Options{Location: loc})
	ctx := context.Background()

	// 23:00 UTC on March 1 is already March 2 at UTC+2.
	l.Append(ctx, rec(t, "5", "late", time.Date(2024, 3, 1, 23, 0, 0, 0, time.UTC)))

	march1 := time.Date(2024, 3, 1, 12, 0, 0, 0, loc)
	march2 := time.Date(2024, 3, 2, 12, 0, 0, 0, loc)
	if got := l.DailyTotal(march1); !got.IsZero() {
		t.Fatalf("march 1 total = %s, want 0", got)
	}
	if got := l.DailyTotal(march2); !got.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("march 2 total = %s, want 5", got)
	}
}

func TestSaveThenHydrateRoundTrip(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	l := Open(ctx, store, Options{})

	want := []core.Record{
		rec(t, "12.50", "food", time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)),
		rec(t, "7.25", "", time.Date(2024, 3, 1, 18, 30, 0, 0, time.UTC)),
	}
	for _, r := range want {
		l.Append(ctx, r)
	}

	fresh := Open(ctx, store, Options{})
	items := fresh.Items()
	if len(items) != len(want) {
		t.Fatalf("got %d items after rehydration, want %d", len(items), len(want))
	}
	for i, r := range want {
		got := items[i]
		if got.ID != r.ID || !got.Amount.Equal(r.Amount) || got.Category != r.Category || !got.At.Equal(r.At) {
			t.Fatalf("item %d = %+v, want %+v", i, got, r)
		}
	}
}

func TestHydrateAbsentKeyStartsEmpty(t *testing.T) {
	l, _ := newTestLedger(t)
	if n := l.Len(); n != 0 {
		t.Fatalf("fresh ledger has %d items, want 0", n)
	}
}

func TestHydrateCorruptPayloadStartsEmpty(t *testing.T) {
	store := memory.New()
	store.Seed(DefaultKey, []byte(`{"not":"an array"`))
	l := Open(context.Background(), store, Options{})
	if n := l.Len(); n != 0 {
		t.Fatalf("corrupt payload hydrated %d items, want 0", n)
	}

	// The ledger must remain usable after the silent reset.
	items := l.Append(context.Background(), rec(t, "1", "a", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
	if len(items) != 1 {
		t.Fatalf("append after reset yielded %d items, want 1", len(items))
	}
}

func TestSaveFailureKeepsMutation(t *testing.T) {
	store := &failingStore{}
	ctx := context.Background()
	l := Open(ctx, store, Options{})

	items := l.Append(ctx, rec(t, "3.00", "food", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
	if len(items) != 1 {
		t.Fatalf("mutation must survive a failed save, got %d items", len(items))
	}
	if l.Len() != 1 {
		t.Fatalf("in-memory state lost after failed save")
	}
}

func TestQueriesDoNotPersist(t *testing.T) {
	store := &countingStore{Store: memory.New()}
	ctx := context.Background()
	l := Open(ctx, store, Options{})

	l.Append(ctx, rec(t, "1", "a", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
	saves := store.saves

	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	l.DailyTotal(day)
	l.MonthlyTotal(day)
	l.RecordsForDay(day)
	l.Items()

	if store.saves != saves {
		t.Fatalf("queries triggered %d extra saves", store.saves-saves)
	}
}
