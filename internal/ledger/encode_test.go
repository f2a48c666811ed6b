package ledger

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"tally/internal/kv/memory"
)

type failingStore struct{}

func (failingStore) Load(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (failingStore) Save(context.Context, string, []byte) error {
	return errWriteRejected
}

var errWriteRejected = &storeError{"write rejected"}

type storeError struct{ msg string }

func (e *storeError) Error() string { return e.msg }

type countingStore struct {
	*memory.Store
	saves int
}

func (s *countingStore) Save(ctx context.Context, key string, value []byte) error {
	s.saves++
	return s.Store.Save(ctx, key, value)
}

func TestEncodedPayloadShape(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	l := Open(ctx, store, Options{})

	l.Append(ctx, rec(t, "12.5", "food", time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)))

	raw, ok, err := store.Load(ctx, DefaultKey)
	if err != nil || !ok {
		t.Fatalf("stored payload missing: ok=%v err=%v", ok, err)
	}

	var decoded []map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("payload is not a JSON array of objects: %v", err)
	}
	if len(decoded) != 1 {
		t.Fatalf("got %d elements, want 1", len(decoded))
	}
	for _, field := range []string{"id", "amount", "category", "date"} {
		if _, present := decoded[0][field]; !present {
			t.Fatalf("field %q missing from payload %s", field, raw)
		}
	}
	// Amounts are stored as JSON numbers, not quoted strings.
	if !strings.Contains(string(raw), `"amount":12.5`) {
		t.Fatalf("amount not encoded as a number: %s", raw)
	}
}

func TestDecodeRejectsMalformedPayloads(t *testing.T) {
	cases := [][]byte{
		[]byte(``),
		[]byte(`{`),
		[]byte(`{"id":"x"}`),
		[]byte(`[{"amount":"not-a-number"}]`),
	}
	for i, payload := range cases {
		if _, err := decodeRecords(payload); err == nil {
			t.Fatalf("case %d: expected decode error for %q", i, payload)
		}
	}
}

func TestDecodeEmptyArray(t *testing.T) {
	items, err := decodeRecords([]byte(`[]`))
	if err != nil {
		t.Fatalf("empty array should decode: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("got %d items, want 0", len(items))
	}
}
