package api

import (
	"net/http"
	"strconv"
	"time"

	"sqlagent/internal/domain"
)

// HistoryEntry mirrors domain.HistoryEntry on the wire.
type HistoryEntry struct {
	ID            string    `json:"id"`
	PrincipalName string    `json:"principal_name"`
	Question      *string   `json:"question,omitempty"`
	SQL           string    `json:"sql"`
	StatementType *string   `json:"statement_type,omitempty"`
	Status        string    `json:"status"`
	ErrorMessage  *string   `json:"error_message,omitempty"`
	DurationMs    *int64    `json:"duration_ms,omitempty"`
	RowsReturned  *int64    `json:"rows_returned,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// HistoryResponse is the body of GET /v1/history.
type HistoryResponse struct {
	Entries       []HistoryEntry `json:"entries"`
	TotalCount    int64          `json:"total_count"`
	NextPageToken string         `json:"next_page_token,omitempty"`
}

// ListHistory handles GET /v1/history with optional principal, status, from,
// to, max_results, and page_token query parameters.
func (h *Handler) ListHistory(w http.ResponseWriter, r *http.Request) {
	filter, err := historyFilterFromQuery(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	entries, total, next, err := h.history.List(r.Context(), filter)
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp := HistoryResponse{
		Entries:       make([]HistoryEntry, 0, len(entries)),
		TotalCount:    total,
		NextPageToken: next,
	}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, HistoryEntry{
			ID:            e.ID,
			PrincipalName: e.PrincipalName,
			Question:      e.Question,
			SQL:           e.SQL,
			StatementType: e.StatementType,
			Status:        e.Status,
			ErrorMessage:  e.ErrorMessage,
			DurationMs:    e.DurationMs,
			RowsReturned:  e.RowsReturned,
			CreatedAt:     e.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func historyFilterFromQuery(r *http.Request) (domain.HistoryFilter, error) {
	q := r.URL.Query()
	var filter domain.HistoryFilter

	if v := q.Get("principal"); v != "" {
		filter.PrincipalName = &v
	}
	if v := q.Get("status"); v != "" {
		switch v {
		case domain.StatusAllowed, domain.StatusDenied, domain.StatusError:
			filter.Status = &v
		default:
			return filter, domain.ErrValidation("invalid status %q: want ALLOWED, DENIED, or ERROR", v)
		}
	}
	if v := q.Get("from"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, domain.ErrValidation("invalid from timestamp: %s", err.Error())
		}
		filter.From = &ts
	}
	if v := q.Get("to"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, domain.ErrValidation("invalid to timestamp: %s", err.Error())
		}
		filter.To = &ts
	}
	if v := q.Get("max_results"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return filter, domain.ErrValidation("invalid max_results: %s", err.Error())
		}
		filter.Page.MaxResults = n
	}
	filter.Page.PageToken = q.Get("page_token")

	return filter, nil
}
