package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/OFFIS-RIT/dramatis/pkg/catalog"
	"github.com/OFFIS-RIT/dramatis/pkg/store/storetest"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	return New(catalog.New(storetest.Open(t, nil)))
}

func do(t *testing.T, e *echo.Echo, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var out map[string]any
	if strings.HasPrefix(rec.Body.String(), "{") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestHealthAndMetrics(t *testing.T) {
	e := newTestServer(t)
	rec, _ := do(t, e, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = do(t, e, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "dramatis_api_requests_total")
}

func TestCreateShowEditList(t *testing.T) {
	e := newTestServer(t)

	rec, created := do(t, e, http.MethodPost, "/api/works", `{"name":"Hamlet","year":"1600","writingCredits":[{"entities":[{"model":"PERSON","name":"William Shakespeare"}]}]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "WORK", created["model"])
	assert.EqualValues(t, 1600, created["year"])
	id := created["id"].(string)

	rec, shown := do(t, e, http.MethodGet, "/api/works/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hamlet", shown["name"])
	assert.Len(t, shown["writingCredits"], 1)

	rec, edit := do(t, e, http.MethodGet, "/api/works/"+id+"/edit", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, edit["subWorks"], 1, "edit shape carries a blank template row")

	rec, _ = do(t, e, http.MethodGet, "/api/people", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var people []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &people))
	require.Len(t, people, 1)
	assert.Equal(t, "William Shakespeare", people[0]["name"])
}

func TestValidationErrors(t *testing.T) {
	e := newTestServer(t)

	rec, out := do(t, e, http.MethodPost, "/api/people", `{"name":""}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	errs := out["errors"].(map[string]any)
	assert.Equal(t, []any{"Value is too short"}, errs["name"])

	rec, _ = do(t, e, http.MethodPost, "/api/people", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRejectedWriteEchoesSubmittedFields(t *testing.T) {
	e := newTestServer(t)

	rec, out := do(t, e, http.MethodPost, "/api/works", `{"name":"Cycle","format":"play","subWorks":[{"name":"Cycle"}]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Equal(t, "Validation failed", out["message"])
	assert.Equal(t, "WORK", out["model"])
	assert.Equal(t, "Cycle", out["name"])
	assert.Equal(t, "play", out["format"])
	require.Len(t, out["subWorks"], 1)
	errs := out["errors"].(map[string]any)
	assert.Equal(t, []any{"Work cannot be assigned as a sub-work of itself"}, errs["subWorks.0"])

	rec, out = do(t, e, http.MethodPost, "/api/people", `{"name":"","differentiator":"2"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "2", out["differentiator"])
	assert.Contains(t, out, "errors")
}

func TestNotFound(t *testing.T) {
	e := newTestServer(t)

	rec, out := do(t, e, http.MethodGet, "/api/plays/abc", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Unknown kind", out["message"])

	rec, _ = do(t, e, http.MethodGet, "/api/works/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = do(t, e, http.MethodPut, "/api/people/missing", `{"name":"Ann"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDestroyBlockedByAssociations(t *testing.T) {
	e := newTestServer(t)

	rec, _ := do(t, e, http.MethodPost, "/api/venues", `{"name":"Globe","subVenues":[{"name":"Studio"}]}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, _ = do(t, e, http.MethodGet, "/api/venues", "")
	var venues []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &venues))
	require.Len(t, venues, 2)

	var studioID, globeID string
	for _, v := range venues {
		switch v["name"] {
		case "Studio":
			studioID = v["id"].(string)
		case "Globe":
			globeID = v["id"].(string)
		}
	}

	rec, out := do(t, e, http.MethodDelete, "/api/venues/"+studioID, "")
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, []any{"Venue"}, out["errors"].(map[string]any)["associations"])

	rec, out = do(t, e, http.MethodDelete, "/api/venues/"+globeID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Globe", out["name"])

	rec, _ = do(t, e, http.MethodDelete, "/api/venues/"+studioID, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
