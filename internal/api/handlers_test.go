package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"salarydash/internal/engine"
	"salarydash/internal/export"
	"salarydash/internal/models"
)

func testDataset() *engine.Dataset {
	ds := engine.NewDataset([]models.Record{
		{Year: 2023, Role: "Data Scientist", SalaryUSD: 100000, CompanyCountry: "US", ResidenceISO3: "USA", RemoteType: "remoto", Seniority: "senior", ContractType: "integral", CompanySize: "grande"},
		{Year: 2023, Role: "Data Scientist", SalaryUSD: 120000, CompanyCountry: "US", ResidenceISO3: "USA", RemoteType: "presencial", Seniority: "pleno", ContractType: "integral", CompanySize: "media"},
		{Year: 2022, Role: "Analyst", SalaryUSD: 60000, CompanyCountry: "BR", ResidenceISO3: "BRA", RemoteType: "remoto", Seniority: "junior", ContractType: "freelancer", CompanySize: "pequena"},
	})
	ds.Fingerprint = 42
	return ds
}

func newTestServer(ds *engine.Dataset) (*Handler, *echo.Echo) {
	h := NewHandler(ds, engine.DefaultRenderOptions())
	return h, NewServer(h, ServerOptions{})
}

func get(e *echo.Echo, target string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealthLifecycle(t *testing.T) {
	h, e := newTestServer(nil)

	rec := get(e, "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "loading")

	rec = get(e, "/api/dashboard")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	h.SetData(testDataset())
	rec = get(e, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"records":3`)

	h.SetLoadError(&engine.LoadError{Source: "x.csv", Stage: engine.StageFetch, Err: errors.New("boom")})
	rec = get(e, "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "boom")

	rec = get(e, "/api/filters")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "boom")
}

func TestGetFilters(t *testing.T) {
	_, e := newTestServer(testDataset())

	rec := get(e, "/api/filters")
	require.Equal(t, http.StatusOK, rec.Code)

	var opts models.FilterOptions
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &opts))
	assert.Equal(t, []int{2022, 2023}, opts.Years)
	assert.Equal(t, []string{"freelancer", "integral"}, opts.Contracts)
}

func TestGetDashboard(t *testing.T) {
	_, e := newTestServer(testDataset())

	rec := get(e, "/api/dashboard?ano=2023")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

	var data models.DashboardData
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &data))
	assert.Equal(t, 110000.0, data.Metrics.MeanSalary)
	assert.Equal(t, 2, data.Metrics.RecordCount)
	assert.Equal(t, "Data Scientist", data.Metrics.MostFrequentRole)
	assert.Equal(t, []string{"2023"}, data.Filters[models.ColYear])
}

func TestGetDashboardNoMatches(t *testing.T) {
	_, e := newTestServer(testDataset())

	rec := get(e, "/api/dashboard?ano=2099")
	require.Equal(t, http.StatusOK, rec.Code)

	var data models.DashboardData
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &data))
	assert.Equal(t, 0, data.Metrics.RecordCount)
	assert.Equal(t, "", data.Metrics.MostFrequentRole)
	assert.True(t, data.TopRoles.Empty)
}

func TestGetDashboardBadFilters(t *testing.T) {
	_, e := newTestServer(testDataset())

	assert.Equal(t, http.StatusBadRequest, get(e, "/api/dashboard?cargo=Analyst").Code)
	assert.Equal(t, http.StatusBadRequest, get(e, "/api/dashboard?ano=last").Code)
}

func TestGetDashboardNormalizesYears(t *testing.T) {
	_, e := newTestServer(testDataset())

	for _, target := range []string{"/api/dashboard?ano=02023", "/api/dashboard?ano=%2B2023"} {
		rec := get(e, target)
		require.Equal(t, http.StatusOK, rec.Code, target)

		var data models.DashboardData
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &data))
		assert.Equal(t, 2, data.Metrics.RecordCount, target)
		assert.Equal(t, []string{"2023"}, data.Filters[models.ColYear], target)
	}
}

func TestGetDashboardSelectionOrder(t *testing.T) {
	_, e := newTestServer(testDataset())

	a := get(e, "/api/dashboard?ano=2023,2022")
	b := get(e, "/api/dashboard?ano=2022&ano=2023&ano=2022")
	require.Equal(t, http.StatusOK, a.Code)
	require.Equal(t, http.StatusOK, b.Code)

	assert.Equal(t, a.Header().Get("ETag"), b.Header().Get("ETag"))
	assert.Equal(t, a.Body.String(), b.Body.String())

	var data models.DashboardData
	require.NoError(t, json.Unmarshal(a.Body.Bytes(), &data))
	assert.Equal(t, []string{"2022", "2023"}, data.Filters[models.ColYear])
}

func TestHugeLimit(t *testing.T) {
	_, e := newTestServer(testDataset())

	rec := get(e, "/api/records?limit=9223372036854775807&offset=1")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data  []models.Record `json:"data"`
		Total int             `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 3, body.Total)
	assert.Len(t, body.Data, 2)

	rec = get(e, "/api/dashboard?limit=9223372036854775807&offset=1")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestETag(t *testing.T) {
	_, e := newTestServer(testDataset())

	rec := get(e, "/api/dashboard?ano=2023,2022")
	require.Equal(t, http.StatusOK, rec.Code)
	tag := rec.Header().Get("ETag")
	require.NotEmpty(t, tag)

	// same selection in a different order
	rec = get(e, "/api/dashboard?ano=2022&ano=2023", "If-None-Match", tag)
	assert.Equal(t, http.StatusNotModified, rec.Code)

	rec = get(e, "/api/dashboard?ano=2022", "If-None-Match", tag)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetRecords(t *testing.T) {
	_, e := newTestServer(testDataset())

	rec := get(e, "/api/records?senioridade=junior,pleno&limit=1&offset=1")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data   []models.Record `json:"data"`
		Total  int             `json:"total"`
		Limit  int             `json:"limit"`
		Offset int             `json:"offset"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Total)
	assert.Equal(t, 1, body.Limit)
	require.Len(t, body.Data, 1)
	assert.Equal(t, "junior", body.Data[0].Seniority)
}

func TestExportRecords(t *testing.T) {
	_, e := newTestServer(testDataset())

	rec := get(e, "/api/records.xlsx?ano=2022")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, export.XLSXMime, rec.Header().Get(echo.HeaderContentType))

	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(export.SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Analyst", rows[1][4])
}
