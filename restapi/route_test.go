package restapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeMembership struct {
	seen  map[string]bool
	cells uint32
	size  float64
}

func newFakeMembership() *fakeMembership { return &fakeMembership{seen: map[string]bool{}} }

func (f *fakeMembership) Add(key []byte)           { f.seen[string(key)] = true; f.cells++ }
func (f *fakeMembership) Contains(key []byte) bool { return f.seen[string(key)] }
func (f *fakeMembership) NonzeroCells() uint32     { return f.cells }
func (f *fakeMembership) SizeEstimate() float64    { return f.size }

func TestGetRootRespondsOK(t *testing.T) {
	router := NewRouter(newFakeMembership())
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestStatusHandlerReportsSizeStats(t *testing.T) {
	mem := newFakeMembership()
	mem.Add([]byte("a"))
	router := NewRouter(mem)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Contains(t, body, "nonzero_cells")
	require.Contains(t, body, "size_estimate")
	require.NotContains(t, body, "tier_count")
}

func TestCheckHandlerFirstThenDuplicate(t *testing.T) {
	router := NewRouter(newFakeMembership())

	body, _ := json.Marshal(checkRequest{Key: "abc"})
	w1 := httptest.NewRecorder()
	req1 := httptest.NewRequest(http.MethodPost, "/api/v1/check", bytes.NewReader(body))
	req1.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w1, req1)
	require.Equal(t, http.StatusOK, w1.Code)

	var first map[string]any
	require.NoError(t, json.Unmarshal(w1.Body.Bytes(), &first))
	require.Equal(t, false, first["duplicate"])

	w2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodPost, "/api/v1/check", bytes.NewReader(body))
	req2.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w2, req2)

	var second map[string]any
	require.NoError(t, json.Unmarshal(w2.Body.Bytes(), &second))
	require.Equal(t, true, second["duplicate"])
}

func TestCheckHandlerRejectsMissingKey(t *testing.T) {
	router := NewRouter(newFakeMembership())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/check", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
