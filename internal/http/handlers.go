package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"tally/internal/core"
	applog "tally/internal/log"
)

// recordView is the API shape of a ledger record. Amount travels as a
// string so clients never see it rounded through a float.
type recordView struct {
	ID       string    `json:"id"`
	Amount   string    `json:"amount"`
	Category string    `json:"category,omitempty"`
	Date     time.Time `json:"date"`
}

func toView(rec core.Record) recordView {
	return recordView{
		ID:       rec.ID,
		Amount:   rec.Amount.String(),
		Category: rec.Category,
		Date:     rec.At,
	}
}

func toViews(items []core.Record) []recordView {
	out := make([]recordView, len(items))
	for i, rec := range items {
		out[i] = toView(rec)
	}
	return out
}

type createRecordRequest struct {
	Amount   string `json:"amount"`
	Category string `json:"category"`
	Date     string `json:"date"`
}

type removeRecordsRequest struct {
	Positions []int `json:"positions"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListRecords(w, r)
	case http.MethodPost:
		s.handleCreateRecord(w, r)
	case http.MethodDelete:
		s.handleRemoveRecords(w, r)
	default:
		w.Header().Set("Allow", "GET, POST, DELETE")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	items := s.ledger.Items()
	writeJSON(w, http.StatusOK, map[string]any{
		"records": toViews(items),
		"count":   len(items),
	})
}

func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	var req createRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	amount, err := core.ParseAmount(strings.TrimSpace(req.Amount))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid amount")
		return
	}

	at := time.Now().In(s.ledger.Location())
	if v := strings.TrimSpace(req.Date); v != "" {
		parsed, err := parseDate(v, s.ledger.Location())
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid date")
			return
		}
		at = parsed
	}

	rec := core.NewRecord(amount, strings.TrimSpace(req.Category), at)
	if err := rec.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	snapshot := s.ledger.Append(r.Context(), rec)
	s.logger.InfoContext(r.Context(), "Record created",
		applog.FieldRecordID, rec.ID,
		applog.FieldAmount, rec.Amount.String(),
		applog.FieldCategory, rec.Category,
		applog.FieldCount, len(snapshot))

	writeJSON(w, http.StatusCreated, map[string]any{
		"record": toView(rec),
		"count":  len(snapshot),
	})
}

func (s *Server) handleRemoveRecords(w http.ResponseWriter, r *http.Request) {
	var req removeRecordsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Positions) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "positions required")
		return
	}

	before := s.ledger.Len()
	snapshot := s.ledger.RemoveAt(r.Context(), req.Positions...)
	removed := before - len(snapshot)

	s.logger.InfoContext(r.Context(), "Records removed",
		"removed", removed,
		applog.FieldCount, len(snapshot))

	writeJSON(w, http.StatusOK, map[string]any{
		"removed": removed,
		"count":   len(snapshot),
	})
}

func (s *Server) handleRecordsForDay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	day, ok := s.dayParam(w, r)
	if !ok {
		return
	}

	items := s.ledger.RecordsForDay(day)
	writeJSON(w, http.StatusOK, map[string]any{
		"date":    day.Format("2006-01-02"),
		"records": toViews(items),
		"count":   len(items),
	})
}

func (s *Server) handleDailyTotal(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	day, ok := s.dayParam(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"date":  day.Format("2006-01-02"),
		"total": s.ledger.DailyTotal(day).String(),
	})
}

func (s *Server) handleMonthlyTotal(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	day, ok := s.dayParam(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"month": day.Format("2006-01"),
		"total": s.ledger.MonthlyTotal(day).String(),
	})
}

// dayParam reads the date query parameter, defaulting to today in the
// ledger's location. A false return means the response is already written.
func (s *Server) dayParam(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	v := strings.TrimSpace(r.URL.Query().Get("date"))
	if v == "" {
		return time.Now().In(s.ledger.Location()), true
	}
	day, err := parseDate(v, s.ledger.Location())
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid date, want YYYY-MM-DD or RFC 3339")
		return time.Time{}, false
	}
	return day, true
}

func parseDate(v string, loc *time.Location) (time.Time, error) {
	if t, err := time.ParseInLocation("2006-01-02", v, loc); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, v)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
