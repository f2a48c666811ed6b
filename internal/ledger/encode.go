package ledger

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"tally/internal/core"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// recordJSON is the stored shape of one record. Dates are RFC 3339 with
// offset so the original instant round-trips losslessly.
type recordJSON struct {
	ID       string          `json:"id"`
	Amount   decimal.Decimal `json:"amount"`
	Category string          `json:"category"`
	Date     time.Time       `json:"date"`
}

// encodeRecords serializes the collection as a JSON array, preserving order.
func encodeRecords(items []core.Record) ([]byte, error) {
	out := make([]recordJSON, len(items))
	for i, rec := range items {
		out[i] = recordJSON{
			ID:       rec.ID,
			Amount:   rec.Amount,
			Category: rec.Category,
			Date:     rec.At,
		}
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("marshal records: %w", err)
	}
	return data, nil
}

// decodeRecords parses a stored payload back into records, in stored order.
func decodeRecords(data []byte) ([]core.Record, error) {
	var raw []recordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal records: %w", err)
	}
	items := make([]core.Record, len(raw))
	for i, r := range raw {
		items[i] = core.Record{
			ID:       r.ID,
			Amount:   r.Amount,
			Category: r.Category,
			At:       r.Date,
		}
	}
	return items, nil
}
