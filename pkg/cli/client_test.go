package cli

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_TrailingSlash(t *testing.T) {
	c := NewClient("http://localhost:8080/", "", "")
	assert.Equal(t, "http://localhost:8080", c.BaseURL)
}

func TestNewClient_SetsTimeout(t *testing.T) {
	c := NewClient("http://localhost:8080", "", "")
	require.NotNil(t, c.HTTPClient)
	assert.Equal(t, 30*time.Second, c.HTTPClient.Timeout)
}

func TestDo_URLConstruction(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, "", "")
	resp, err := c.Do(http.MethodGet, "/schema", nil, nil)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "/v1/schema", gotPath)
}

func TestDo_QueryParams(t *testing.T) {
	var gotRawQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRawQuery = r.URL.RawQuery
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, "", "")
	q := url.Values{}
	q.Set("status", "DENIED")
	resp, err := c.Do(http.MethodGet, "/history", q, nil)
	require.NoError(t, err)
	resp.Body.Close()

	parsed, err := url.ParseQuery(gotRawQuery)
	require.NoError(t, err)
	assert.Equal(t, "DENIED", parsed.Get("status"))
}

func TestDo_AuthHeaders(t *testing.T) {
	var gotAuth, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotKey = r.Header.Get("X-API-Key")
	}))
	t.Cleanup(srv.Close)

	// Token wins over API key when both are set.
	c := NewClient(srv.URL, "my-key", "my-token")
	resp, err := c.Do(http.MethodGet, "/schema", nil, nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "Bearer my-token", gotAuth)
	assert.Empty(t, gotKey)

	c.Token = ""
	resp, err = c.Do(http.MethodGet, "/schema", nil, nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "my-key", gotKey)
}

func TestDo_WithBody(t *testing.T) {
	var gotContentType string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, "", "")
	resp, err := c.Do(http.MethodPost, "/query", nil, map[string]string{"sql": "SELECT 1"})
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "application/json", gotContentType)
	var parsed map[string]string
	require.NoError(t, json.Unmarshal(gotBody, &parsed))
	assert.Equal(t, "SELECT 1", parsed["sql"])
}

func TestDoJSON_DecodesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"columns": []string{"n"}, "row_count": 1})
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, "", "")
	var out queryResult
	require.NoError(t, c.DoJSON(http.MethodPost, "/query", nil, map[string]string{"sql": "SELECT 1"}, &out))
	assert.Equal(t, []string{"n"}, out.Columns)
	assert.Equal(t, 1, out.RowCount)
}

func TestDoJSON_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"code":    403,
			"message": "statement type DELETE is not allowed",
			"sql":     "DELETE FROM orders",
		})
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, "", "")
	err := c.DoJSON(http.MethodPost, "/ask", nil, map[string]string{"question": "x"}, nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.HTTPStatus)
	assert.Equal(t, "statement type DELETE is not allowed", apiErr.Message)
	assert.Equal(t, "DELETE FROM orders", apiErr.SQL)
}

func TestDoJSON_NonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, "", "")
	err := c.DoJSON(http.MethodGet, "/schema", nil, nil, nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.HTTPStatus)
	assert.Equal(t, "bad gateway", apiErr.Message)
}

func TestHealthz(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/healthz", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, "", "")
	var out struct {
		Status string `json:"status"`
	}
	require.NoError(t, c.Healthz(&out))
	assert.Equal(t, "ok", out.Status)
}
