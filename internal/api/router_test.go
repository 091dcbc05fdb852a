package api

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cellsim/internal/api/models"
	"cellsim/internal/report"
	"cellsim/internal/runs"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const refCellYAML = `cell:
  name: Reference 2Ah
  chemistry: custom
  capacity_ah: 2.0
  nominal_voltage: 3.7
  internal_resistance_ohm: 0.05
  lower_cutoff_v: 3.0
  upper_cutoff_v: 4.2
`

const referenceBody = `{
  "cell_id": "ref",
  "test": {
    "mode": "charge",
    "control": "current",
    "target": 1,
    "stop": {"kind": "voltage", "value": 4.2}
  },
  "step_seconds": 10,
  "options": {"include_samples": true, "max_points": 50}
}`

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) (*gin.Engine, *runs.Cache) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ref.yaml"), []byte(refCellYAML), 0o644))

	cache := runs.New(time.Hour, 16)
	t.Cleanup(cache.Close)
	return NewRouter(Options{
		CellDir:    dir,
		Thresholds: report.DefaultThresholds(),
		Cache:      cache,
	}), cache
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	r, _ := newTestRouter(t)
	w := do(r, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestSimulateReferenceCell(t *testing.T) {
	r, cache := newTestRouter(t)

	w := do(r, http.MethodPost, "/api/v1/simulate", referenceBody)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[models.SimulateResponse](t, w)
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "completed", resp.Status)
	assert.False(t, resp.Cached)
	assert.Equal(t, "VOLTAGE_CUTOFF", resp.Summary.StopReason)
	assert.Equal(t, "CHARGE", resp.Summary.Mode)
	assert.InDelta(t, 4.2, resp.Summary.MaxVoltage, 1e-9)
	assert.InDelta(t, 0.975, resp.Summary.FinalSoC, 1e-3)
	assert.Len(t, resp.Samples, 50)
	assert.Equal(t, 1, cache.Len())

	// identical inputs are served from the cache
	w = do(r, http.MethodPost, "/api/v1/simulate", referenceBody)
	require.Equal(t, http.StatusOK, w.Code)
	again := decode[models.SimulateResponse](t, w)
	assert.True(t, again.Cached)
	assert.Equal(t, resp.ID, again.ID)
	assert.Equal(t, resp.Summary, again.Summary)
}

func TestRunSamplesAndSummary(t *testing.T) {
	r, _ := newTestRouter(t)
	resp := decode[models.SimulateResponse](t, do(r, http.MethodPost, "/api/v1/simulate", referenceBody))

	w := do(r, http.MethodGet, "/api/v1/runs/"+resp.ID+"/samples?max_points=10", "")
	require.Equal(t, http.StatusOK, w.Code)
	samples := decode[models.SamplesResponse](t, w)
	assert.Equal(t, resp.Summary.SampleCount, samples.TotalCount)
	require.Len(t, samples.Samples, 10)
	assert.Equal(t, 0.0, samples.Samples[0].T)
	assert.InDelta(t, resp.Summary.DurationS, samples.Samples[9].T, 1e-9)

	w = do(r, http.MethodGet, "/api/v1/runs/"+resp.ID+"/samples?format=csv", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	rows, err := csv.NewReader(bytes.NewReader(w.Body.Bytes())).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, resp.Summary.SampleCount+1)
	assert.Equal(t, "t_s", rows[0][1])

	w = do(r, http.MethodGet, "/api/v1/runs/"+resp.ID+"/summary", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"stop_reason":"VOLTAGE_CUTOFF"`)

	w = do(r, http.MethodGet, "/api/v1/runs/"+resp.ID+"/summary?format=csv", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "CHARGE,CURRENT,")

	w = do(r, http.MethodGet, "/api/v1/runs/"+resp.ID+"/summary?format=xml", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_FORMAT", decode[models.ErrorResponse](t, w).Error.Code)

	w = do(r, http.MethodGet, "/api/v1/runs/"+resp.ID+"/samples?max_points=-1", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRunNotFound(t *testing.T) {
	r, _ := newTestRouter(t)
	w := do(r, http.MethodGet, "/api/v1/runs/deadbeef/samples", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "RUN_NOT_FOUND", decode[models.ErrorResponse](t, w).Error.Code)
}

func TestSimulateErrors(t *testing.T) {
	r, _ := newTestRouter(t)
	cases := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"malformed json", `{"test":`, http.StatusBadRequest, "INVALID_REQUEST"},
		{"missing control", `{"cell_id":"nmc","test":{"mode":"charge","target":1,"stop":{"kind":"time","value":60}}}`,
			http.StatusBadRequest, "INVALID_REQUEST"},
		{"missing mode", `{"cell_id":"nmc","test":{"control":"current","target":1,"stop":{"kind":"time","value":60}}}`,
			http.StatusBadRequest, "INVALID_SPEC"},
		{"unknown cell", `{"cell_id":"unobtainium","test":{"mode":"charge","control":"current","target":1,"stop":{"kind":"time","value":60}}}`,
			http.StatusBadRequest, "UNKNOWN_CELL"},
		{"zero current", `{"cell_id":"ref","test":{"mode":"charge","control":"current","target":0,"stop":{"kind":"time","value":60}}}`,
			http.StatusBadRequest, "INVALID_SPEC"},
		{"stop already satisfied", `{"cell_id":"ref","test":{"mode":"charge","control":"current","target":1,"initial_soc":0.5,"stop":{"kind":"soc","value":0.2}}}`,
			http.StatusBadRequest, "INVALID_SPEC"},
		{"power collapse", `{"cell":{"capacity_ah":2,"nominal_voltage":3.7,"internal_resistance_ohm":0.5,"lower_cutoff_v":1,"upper_cutoff_v":4.2},
			"test":{"mode":"discharge","control":"power","target":8,"initial_soc":1,"stop":{"kind":"time","value":100000}}}`,
			http.StatusUnprocessableEntity, "DIVERGENT_STATE"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(r, http.MethodPost, "/api/v1/simulate", tc.body)
			assert.Equal(t, tc.status, w.Code, w.Body.String())
			assert.Equal(t, tc.code, decode[models.ErrorResponse](t, w).Error.Code)
		})
	}
}

func TestInvalidSpecReportsField(t *testing.T) {
	r, _ := newTestRouter(t)
	w := do(r, http.MethodPost, "/api/v1/simulate",
		`{"cell_id":"ref","test":{"mode":"charge","control":"current","target":1,"stop":{"kind":"energy","value":1}}}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	detail := decode[models.ErrorResponse](t, w).Error
	assert.Equal(t, "INVALID_SPEC", detail.Code)
	assert.Equal(t, "test.stop.kind", detail.Details["field"])
}

func TestCompare(t *testing.T) {
	r, _ := newTestRouter(t)
	body := `{
  "base_config": {
    "cell_id": "ref",
    "test": {"mode": "charge", "control": "current", "target": 1, "stop": {"kind": "voltage", "value": 4.2}},
    "step_seconds": 10
  },
  "variations": [
    {"name": "1A", "config": {}},
    {"name": "2A", "config": {"test": {"target": 2}}},
    {"name": "nmc preset", "config": {"cell_id": "nmc", "test": {"stop": {"kind": "time", "value": 600}}}},
    {"name": "broken", "config": {"test": {"initial_soc": 1}}}
  ]
}`
	w := do(r, http.MethodPost, "/api/v1/simulate/compare", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[models.CompareResponse](t, w)
	require.Len(t, resp.Comparison, 4)

	one, two, nmc, broken := resp.Comparison[0], resp.Comparison[1], resp.Comparison[2], resp.Comparison[3]
	require.NotNil(t, one.Summary)
	require.NotNil(t, two.Summary)
	assert.Less(t, two.Summary.DurationS, one.Summary.DurationS)
	assert.NotEqual(t, one.ID, two.ID)

	require.NotNil(t, nmc.Summary)
	assert.Equal(t, "ELAPSED_TIME", nmc.Summary.StopReason)
	assert.InDelta(t, 600, nmc.Summary.DurationS, 1e-9)

	assert.Nil(t, broken.Summary)
	require.NotNil(t, broken.Error)
	assert.Equal(t, "INVALID_SPEC", broken.Error.Code)
}

func TestCompareRequiresVariations(t *testing.T) {
	r, _ := newTestRouter(t)
	w := do(r, http.MethodPost, "/api/v1/simulate/compare",
		`{"base_config":{"cell_id":"ref","test":{"mode":"charge","control":"current","target":1}},"variations":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListCells(t *testing.T) {
	r, _ := newTestRouter(t)
	w := do(r, http.MethodGet, "/api/v1/cells", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Cells []models.CellInfo `json:"cells"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Cells, 5)

	ids := map[string]models.CellInfo{}
	for _, c := range body.Cells {
		ids[c.ID] = c
	}
	assert.True(t, ids["lfp"].BuiltIn)
	assert.False(t, ids["ref"].BuiltIn)
	assert.Equal(t, "Reference 2Ah", ids["ref"].Name)
	assert.Equal(t, 0.05, ids["ref"].Specs.InternalResistanceOhm)
}

func TestListControls(t *testing.T) {
	r, _ := newTestRouter(t)
	w := do(r, http.MethodGet, "/api/v1/controls", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Controls []models.ControlInfo `json:"controls"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Controls, 5)
	assert.Equal(t, "VOLTAGE", body.Controls[1].Name)
	assert.Contains(t, body.Controls[1].StopKinds, "CURRENT")
	assert.NotContains(t, body.Controls[0].StopKinds, "CURRENT")

	cccv := body.Controls[3]
	assert.Equal(t, "CC_CV", cccv.Name)
	assert.Equal(t, "A", cccv.Unit)
	names := make([]string, 0, len(cccv.Parameters))
	for _, p := range cccv.Parameters {
		names = append(names, p.Name)
	}
	assert.Contains(t, names, "voltage_limit")
	assert.Contains(t, names, "max_capacity_ah")
	assert.Equal(t, []string{"TIME"}, body.Controls[4].StopKinds)
}

func TestSimulateHoldRestAndCapacity(t *testing.T) {
	r, _ := newTestRouter(t)
	cases := []struct {
		name   string
		test   string
		reason string
	}{
		{"cc_cv", `{"mode":"charge","control":"cc_cv","target":1,"voltage_limit":4.1,"stop":{"kind":"current","value":0.05}}`, "CURRENT_TAPER"},
		{"rest without mode", `{"control":"idle","initial_soc":0.5,"stop":{"kind":"time","value":600}}`, "ELAPSED_TIME"},
		{"capacity limit", `{"mode":"charge","control":"current","target":1,"max_capacity_ah":0.5,"stop":{"kind":"voltage","value":4.2}}`, "CAPACITY_LIMIT"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(r, http.MethodPost, "/api/v1/simulate", `{"cell_id":"ref","step_seconds":30,"test":`+tc.test+`}`)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			assert.Equal(t, tc.reason, decode[models.SimulateResponse](t, w).Summary.StopReason)
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	r, _ := newTestRouter(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/simulate", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Less(t, w.Code, 300)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestIDPropagates(t *testing.T) {
	r, _ := newTestRouter(t)
	const id = "0b9c7f1e-3c4d-4c1a-9a53-6f7b8f0e2d11"
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", id)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, id, w.Header().Get("X-Request-ID"))
}

func TestUnknownAPIRoute(t *testing.T) {
	r, _ := newTestRouter(t)
	w := do(r, http.MethodGet, "/api/v1/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decode[models.ErrorResponse](t, w).Error.Code)
}
