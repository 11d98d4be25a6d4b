package api

import (
	"net/http"
	"time"

	"sqlagent/internal/domain"
)

// SchemaColumn mirrors domain.ColumnInfo on the wire.
type SchemaColumn struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// SchemaTable mirrors domain.TableInfo on the wire.
type SchemaTable struct {
	Name    string         `json:"name"`
	Columns []SchemaColumn `json:"columns"`
}

// SchemaResponse is the body of GET /v1/schema.
type SchemaResponse struct {
	Tables   []SchemaTable `json:"tables"`
	LoadedAt *time.Time    `json:"loaded_at,omitempty"`
}

func schemaTablesFrom(tables []domain.TableInfo) []SchemaTable {
	out := make([]SchemaTable, 0, len(tables))
	for _, t := range tables {
		cols := make([]SchemaColumn, 0, len(t.Columns))
		for _, c := range t.Columns {
			cols = append(cols, SchemaColumn{Name: c.Name, Type: c.Type})
		}
		out = append(out, SchemaTable{Name: t.Name, Columns: cols})
	}
	return out
}

// GetSchema handles GET /v1/schema.
func (h *Handler) GetSchema(w http.ResponseWriter, r *http.Request) {
	tables, err := h.schema.Tables(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	resp := SchemaResponse{Tables: schemaTablesFrom(tables)}
	if loaded := h.schema.LoadedAt(); !loaded.IsZero() {
		resp.LoadedAt = &loaded
	}
	writeJSON(w, http.StatusOK, resp)
}

// RefreshSchema handles POST /v1/schema/refresh.
func (h *Handler) RefreshSchema(w http.ResponseWriter, r *http.Request) {
	if err := h.schema.Refresh(r.Context()); err != nil {
		h.writeError(w, err)
		return
	}
	h.GetSchema(w, r)
}
