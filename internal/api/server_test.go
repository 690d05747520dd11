package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rgehrsitz/whatif/internal/domain"
	"github.com/rgehrsitz/whatif/internal/store"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockVersions struct {
	mock.Mock
}

func (m *mockVersions) ListVersions(ctx context.Context, year int) ([]store.Version, error) {
	args := m.Called(ctx, year)
	versions, _ := args.Get(0).([]store.Version)
	return versions, args.Error(1)
}

func (m *mockVersions) GetVersionCells(ctx context.Context, id string) ([]domain.ForecastCell, error) {
	args := m.Called(ctx, id)
	cells, _ := args.Get(0).([]domain.ForecastCell)
	return cells, args.Error(1)
}

func (m *mockVersions) SetActive(ctx context.Context, id string, year int) error {
	return m.Called(ctx, id, year).Error(0)
}

func (m *mockVersions) DeleteVersion(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockVersions) Diff(ctx context.Context, fromID, toID string) (*store.VersionDiff, error) {
	args := m.Called(ctx, fromID, toID)
	diff, _ := args.Get(0).(*store.VersionDiff)
	return diff, args.Error(1)
}

func newTestServer(t *testing.T, versions VersionRepository) (*httptest.Server, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	srv := NewServer(logger, Config{Dependencies: Dependencies{Versions: versions}})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, hook
}

func do(t *testing.T, method, url, body string) (*http.Response, string) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(data)
}

const holidayScenario = `{
  "id": "holiday",
  "name": "Holiday peak",
  "base_revenue": "100000",
  "start_year": 2025,
  "drivers": [
    {
      "id": "season",
      "driver_name": "Holiday peak",
      "driver_type": "seasonality",
      "parameters": {"baseline_revenue": 100000, "monthly_multipliers": {"dec": 1.3}}
    }
  ]
}`

func TestCalculateImpacts(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp, body := do(t, http.MethodPost, ts.URL+"/api/v1/impacts", holidayScenario)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var summary domain.ScenarioSummary
	require.NoError(t, json.Unmarshal([]byte(body), &summary))
	assert.Equal(t, "holiday", summary.ScenarioID)
	assert.True(t, decimal.NewFromInt(30000).Equal(summary.TotalImpact), summary.TotalImpact.String())
	assert.Equal(t, domain.December, summary.PeakMonth)
	require.Len(t, summary.Impacts, domain.MonthsPerYear)
	assert.Equal(t, 2025, summary.Impacts[0].Year)
}

func TestCalculateImpacts_DefaultsStartYear(t *testing.T) {
	logger, _ := test.NewNullLogger()
	srv := NewServer(logger, Config{})
	handler := srv.Handler()

	body := strings.Replace(holidayScenario, `"start_year": 2025,`, "", 1)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/impacts", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var summary domain.ScenarioSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, time.Now().Year(), summary.Impacts[0].Year)
}

func TestCalculateImpacts_Errors(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	tests := []struct {
		name   string
		body   string
		status int
		want   string
	}{
		{
			name:   "malformed json",
			body:   `{"name":`,
			status: http.StatusBadRequest,
		},
		{
			name:   "unknown driver type",
			body:   `{"name":"x","base_revenue":"1","drivers":[{"id":"a","driver_name":"a","driver_type":"astrology"}]}`,
			status: http.StatusBadRequest,
			want:   "astrology",
		},
		{
			name:   "validation failure",
			body:   `{"name":"","base_revenue":"-5","start_year":2025,"drivers":[]}`,
			status: http.StatusUnprocessableEntity,
			want:   `"messages":[`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, http.MethodPost, ts.URL+"/api/v1/impacts", tt.body)
			assert.Equal(t, tt.status, resp.StatusCode, body)
			assert.Contains(t, body, `"error":`)
			if tt.want != "" {
				assert.Contains(t, body, tt.want)
			}
		})
	}
}

func TestValidateWorkspace(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	valid := `
name: FY25
year: 2025
accounts:
  - code: "4000"
    name: Product revenue
    monthly: 100000
scenarios:
  - id: base
    name: Base
    base_revenue: 100000
`
	resp, body := do(t, http.MethodPost, ts.URL+"/api/v1/validate", valid)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"valid":true,"scenarios":1,"accounts":1}`, body)

	resp, body = do(t, http.MethodPost, ts.URL+"/api/v1/validate", "name: missing year\n")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"valid":false`)
	assert.Contains(t, body, "workspace year is required")
}

func TestNewServer_NilLoggerFallsBackToStandard(t *testing.T) {
	srv := NewServer(nil, Config{})
	require.Same(t, logrus.StandardLogger(), srv.logger)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/impacts", strings.NewReader(holidayScenario))
	rec := httptest.NewRecorder()
	require.NotPanics(t, func() { srv.Handler().ServeHTTP(rec, req) })
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestVersions_NotConfigured(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp, body := do(t, http.MethodGet, ts.URL+"/api/v1/versions", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, body, "version store is not configured")
}

func TestListVersions(t *testing.T) {
	repo := new(mockVersions)
	repo.On("ListVersions", mock.Anything, 2025).Return([]store.Version{
		{ID: "v2", Year: 2025, Name: "Reforecast", IsActive: true, CellCount: 24},
		{ID: "v1", Year: 2025, Name: "Budget", CellCount: 24},
	}, nil)
	repo.On("ListVersions", mock.Anything, 0).Return(nil, nil)

	ts, _ := newTestServer(t, repo)

	resp, body := do(t, http.MethodGet, ts.URL+"/api/v1/versions?year=2025", "")
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	var versions []store.Version
	require.NoError(t, json.Unmarshal([]byte(body), &versions))
	require.Len(t, versions, 2)
	assert.Equal(t, "v2", versions[0].ID)

	resp, body = do(t, http.MethodGet, ts.URL+"/api/v1/versions", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, body)

	resp, _ = do(t, http.MethodGet, ts.URL+"/api/v1/versions?year=next", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	repo.AssertExpectations(t)
}

func TestListVersions_StoreFailureIsLogged(t *testing.T) {
	repo := new(mockVersions)
	repo.On("ListVersions", mock.Anything, 0).Return(nil, errors.New("disk on fire"))

	ts, hook := newTestServer(t, repo)

	resp, body := do(t, http.MethodGet, ts.URL+"/api/v1/versions", "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, body, "disk on fire")

	var failed *logrus.Entry
	for _, entry := range hook.AllEntries() {
		if entry.Message == "request failed" {
			failed = entry
		}
	}
	require.NotNil(t, failed)
	assert.Equal(t, logrus.ErrorLevel, failed.Level)
	assert.Equal(t, "/api/v1/versions", failed.Data["path"])
	assert.NotEmpty(t, failed.Data["request_id"])
}

func TestVersionCells(t *testing.T) {
	repo := new(mockVersions)
	repo.On("GetVersionCells", mock.Anything, "v1").Return([]domain.ForecastCell{
		{AccountCode: "4000", Period: domain.NewMonthYear(2025, domain.January), Forecast: decimal.NewFromInt(100)},
	}, nil)
	repo.On("GetVersionCells", mock.Anything, "missing").
		Return(nil, fmt.Errorf("get version missing: %w", store.ErrNotFound))

	ts, _ := newTestServer(t, repo)

	resp, body := do(t, http.MethodGet, ts.URL+"/api/v1/versions/v1/cells", "")
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Contains(t, body, `"4000"`)

	resp, _ = do(t, http.MethodGet, ts.URL+"/api/v1/versions/missing/cells", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	repo.AssertExpectations(t)
}

func TestDiffVersions(t *testing.T) {
	repo := new(mockVersions)
	repo.On("Diff", mock.Anything, "v1", "v2").Return(&store.VersionDiff{
		From:      store.Version{ID: "v1"},
		To:        store.Version{ID: "v2"},
		FromTotal: decimal.NewFromInt(100),
		ToTotal:   decimal.NewFromInt(110),
		Variance:  decimal.NewFromInt(10),
	}, nil)

	ts, _ := newTestServer(t, repo)

	resp, body := do(t, http.MethodGet, ts.URL+"/api/v1/versions/diff?from=v1&to=v2", "")
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	var diff store.VersionDiff
	require.NoError(t, json.Unmarshal([]byte(body), &diff))
	assert.True(t, decimal.NewFromInt(10).Equal(diff.Variance))

	resp, _ = do(t, http.MethodGet, ts.URL+"/api/v1/versions/diff?from=v1", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	repo.AssertExpectations(t)
}

func TestActivateVersion(t *testing.T) {
	repo := new(mockVersions)
	repo.On("SetActive", mock.Anything, "v1", 0).Return(nil)
	repo.On("SetActive", mock.Anything, "v1", 2026).
		Return(fmt.Errorf("set active: version v1 belongs to 2025, not 2026: %w", store.ErrYearMismatch))

	ts, _ := newTestServer(t, repo)

	resp, _ := do(t, http.MethodPut, ts.URL+"/api/v1/versions/v1/active", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body := do(t, http.MethodPut, ts.URL+"/api/v1/versions/v1/active?year=2026", "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, body, "belongs to 2025")

	repo.AssertExpectations(t)
}

func TestDeleteVersion(t *testing.T) {
	repo := new(mockVersions)
	repo.On("DeleteVersion", mock.Anything, "v1").Return(nil)
	repo.On("DeleteVersion", mock.Anything, "gone").
		Return(fmt.Errorf("delete version gone: %w", store.ErrNotFound))

	ts, _ := newTestServer(t, repo)

	resp, _ := do(t, http.MethodDelete, ts.URL+"/api/v1/versions/v1", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = do(t, http.MethodDelete, ts.URL+"/api/v1/versions/gone", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	repo.AssertExpectations(t)
}

func TestVersions_AgainstSQLiteStore(t *testing.T) {
	vs, err := store.Open(filepath.Join(t.TempDir(), "versions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = vs.Close() })

	ctx := context.Background()
	cells := []domain.ForecastCell{
		{AccountCode: "4000", Period: domain.NewMonthYear(2025, domain.January), Forecast: decimal.NewFromInt(2000)},
	}
	first, err := vs.SaveVersion(ctx, 2025, "Budget", "", cells)
	require.NoError(t, err)
	cells[0].Forecast = decimal.NewFromInt(2200)
	second, err := vs.SaveVersion(ctx, 2025, "Reforecast", "", cells)
	require.NoError(t, err)

	ts, _ := newTestServer(t, vs)

	resp, _ := do(t, http.MethodPut, ts.URL+"/api/v1/versions/"+second+"/active", "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	active, err := vs.ActiveVersion(ctx, 2025)
	require.NoError(t, err)
	assert.Equal(t, second, active.ID)

	resp, body := do(t, http.MethodGet, ts.URL+"/api/v1/versions/diff?from="+first+"&to="+second, "")
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	var diff store.VersionDiff
	require.NoError(t, json.Unmarshal([]byte(body), &diff))
	assert.True(t, decimal.NewFromInt(200).Equal(diff.Variance), diff.Variance.String())

	resp, _ = do(t, http.MethodDelete, ts.URL+"/api/v1/versions/"+first, "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = do(t, http.MethodGet, ts.URL+"/api/v1/versions/"+first+"/cells", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_StartStopsOnCancel(t *testing.T) {
	logger, _ := test.NewNullLogger()
	srv := NewServer(logger, Config{Addr: "127.0.0.1:0", ShutdownTimeout: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
