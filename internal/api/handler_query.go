package api

import (
	"net/http"

	"sqlagent/internal/domain"
	"sqlagent/internal/middleware"
)

// QueryRequest is the body of POST /v1/query.
type QueryRequest struct {
	SQL string `json:"sql"`
}

// QueryResponse holds the results of an executed statement.
type QueryResponse struct {
	Columns   []string        `json:"columns"`
	Rows      [][]interface{} `json:"rows"`
	RowCount  int             `json:"row_count"`
	Truncated bool            `json:"truncated"`
}

func queryResponseFrom(r *domain.QueryResult) QueryResponse {
	return QueryResponse{
		Columns:   r.Columns,
		Rows:      r.Rows,
		RowCount:  r.RowCount,
		Truncated: r.Truncated,
	}
}

// ExecuteQuery handles POST /v1/query.
func (h *Handler) ExecuteQuery(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	principal, _ := middleware.PrincipalFromContext(r.Context())

	result, err := h.queries.Execute(r.Context(), principal, req.SQL)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, queryResponseFrom(result))
}

// AskRequest is the body of POST /v1/ask.
type AskRequest struct {
	Question string `json:"question"`
}

// AskResponse is a QueryResponse plus the SQL that was generated for the
// question.
type AskResponse struct {
	SQL string `json:"sql"`
	QueryResponse
}

// Ask handles POST /v1/ask. Returns 503 when no generation backend is
// configured.
func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	if h.ask == nil {
		h.writeError(w, domain.ErrUnavailable("natural language assist is not configured; set ANTHROPIC_API_KEY"))
		return
	}
	var req AskRequest
	if !decodeBody(w, r, &req) {
		return
	}
	principal, _ := middleware.PrincipalFromContext(r.Context())

	res, err := h.ask.Ask(r.Context(), principal, req.Question)
	if err != nil {
		// Surface the generated statement so callers can see what was
		// rejected or what failed.
		status := httpStatusFromDomainError(err)
		body := errorBody{Code: status, Message: err.Error()}
		if res != nil {
			body.SQL = res.SQL
		}
		writeJSON(w, status, body)
		return
	}
	writeJSON(w, http.StatusOK, AskResponse{SQL: res.SQL, QueryResponse: queryResponseFrom(res.Result)})
}
