package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/thermolog/thermolog/services/api/config"
	"github.com/thermolog/thermolog/services/api/templog"
)

type testEnv struct {
	server *Server
	store  *templog.Store
	now    time.Time
}

func newTestEnv(t *testing.T, cfg config.Config) *testEnv {
	t.Helper()
	env := &testEnv{now: time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)}
	store, err := templog.New(templog.Options{MaxReadings: 64, MaxSensors: 2},
		templog.WithClock(func() time.Time { return env.now }))
	if err != nil {
		t.Fatalf("templog.New: %v", err)
	}
	if cfg.DefaultLimit == 0 {
		cfg.DefaultLimit = 200
	}
	if cfg.DefaultMaxAge == 0 {
		cfg.DefaultMaxAge = time.Hour
	}
	if cfg.DefaultHours == 0 {
		cfg.DefaultHours = 24
	}
	if cfg.ExportCount == 0 {
		cfg.ExportCount = 1000
	}
	env.store = store
	env.server = New(cfg, store, nil)
	return env
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	e.server.Engine().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestHealthAndStatus(t *testing.T) {
	env := newTestEnv(t, config.Config{})
	if rec := env.do(t, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Fatalf("healthz = %d", rec.Code)
	}

	rec := env.do(t, http.MethodGet, "/api/status", "")
	var body map[string]any
	decode(t, rec, &body)
	if body["go_version"] == "" || body["platform"] == nil {
		t.Fatalf("status body = %v", body)
	}
}

func TestIngestSingleAndQuery(t *testing.T) {
	env := newTestEnv(t, config.Config{})

	rec := env.do(t, http.MethodPost, "/api/v1/core/readings", `{"sensor":"kitchen","temperature":21.5,"humidity":40}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("ingest = %d %s", rec.Code, rec.Body)
	}
	if rec.Header().Get("X-API-Version") != "v1" {
		t.Fatal("missing X-API-Version header")
	}
	var ingest struct {
		Data templog.Outcome `json:"data"`
	}
	decode(t, rec, &ingest)
	if ingest.Data.Action != templog.ActionAppended || !ingest.Data.NewSensor {
		t.Fatalf("outcome = %+v", ingest.Data)
	}

	var now struct {
		Data map[string]float64 `json:"data"`
	}
	decode(t, env.do(t, http.MethodGet, "/api/v1/realtime/now", ""), &now)
	if now.Data["kitchen"] != 21.5 {
		t.Fatalf("now = %v", now.Data)
	}

	var history struct {
		Data []templog.Point `json:"data"`
	}
	decode(t, env.do(t, http.MethodGet, "/api/v1/core/sensors/kitchen/history?last_n=5", ""), &history)
	if len(history.Data) != 1 || history.Data[0].Temperature != 21.5 {
		t.Fatalf("history = %+v", history.Data)
	}

	var details struct {
		Data map[string]templog.Snapshot `json:"data"`
	}
	decode(t, env.do(t, http.MethodGet, "/api/v1/realtime/details", ""), &details)
	if h := details.Data["kitchen"].Humidity; h == nil || *h != 40 {
		t.Fatalf("details = %+v", details.Data)
	}
}

func TestIngestValidation(t *testing.T) {
	env := newTestEnv(t, config.Config{})
	for _, body := range []string{
		`not json`,
		`{"temperature": 20}`,
		`{"sensor": "kitchen"}`,
	} {
		if rec := env.do(t, http.MethodPost, "/api/v1/core/readings", body); rec.Code != http.StatusBadRequest {
			t.Errorf("body %s: status %d", body, rec.Code)
		}
	}
}

func TestIngestCapacityExceeded(t *testing.T) {
	env := newTestEnv(t, config.Config{})
	env.do(t, http.MethodPost, "/api/v1/core/readings", `{"sensor":"a","temperature":1}`)
	env.do(t, http.MethodPost, "/api/v1/core/readings", `{"sensor":"b","temperature":2}`)

	rec := env.do(t, http.MethodPost, "/api/v1/core/readings", `{"sensor":"c","temperature":3}`)
	if rec.Code != http.StatusInsufficientStorage {
		t.Fatalf("third sensor = %d", rec.Code)
	}
}

func TestIngestBulkReportsPerItem(t *testing.T) {
	env := newTestEnv(t, config.Config{})
	body := `{"readings":[
		{"sensor":"a","temperature":1},
		{"sensor":"b","temperature":2},
		{"sensor":"c","temperature":3},
		{"sensor":"","temperature":4}
	]}`
	rec := env.do(t, http.MethodPost, "/api/v1/core/readings", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("bulk = %d %s", rec.Code, rec.Body)
	}
	var resp struct {
		Data []ingestResult `json:"data"`
		Meta struct {
			Accepted int `json:"accepted"`
			Rejected int `json:"rejected"`
		} `json:"meta"`
	}
	decode(t, rec, &resp)
	if resp.Meta.Accepted != 2 || resp.Meta.Rejected != 2 {
		t.Fatalf("meta = %+v", resp.Meta)
	}
	if resp.Data[2].Error == "" || resp.Data[2].Outcome != nil {
		t.Fatalf("sensor c should be rejected: %+v", resp.Data[2])
	}
}

func TestSensorEndpoints(t *testing.T) {
	env := newTestEnv(t, config.Config{})
	if rec := env.do(t, http.MethodGet, "/api/v1/core/sensors/ghost", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown sensor = %d", rec.Code)
	}
	if rec := env.do(t, http.MethodPost, "/api/v1/core/sensors/ghost/force", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("force unknown = %d", rec.Code)
	}

	env.do(t, http.MethodPost, "/api/v1/core/readings", `{"sensor":"garage","temperature":12.25}`)

	var list struct {
		Data []map[string]any `json:"data"`
	}
	decode(t, env.do(t, http.MethodGet, "/api/v1/core/sensors", ""), &list)
	if len(list.Data) != 1 || list.Data[0]["name"] != "garage" {
		t.Fatalf("sensors = %v", list.Data)
	}

	var status struct {
		Data templog.SensorStatus `json:"data"`
	}
	decode(t, env.do(t, http.MethodGet, "/api/v1/core/sensors/garage", ""), &status)
	if !status.Data.HasDetail || !status.Data.HasHistory || status.Data.ReadyForStore {
		t.Fatalf("status = %+v", status.Data)
	}

	if rec := env.do(t, http.MethodPost, "/api/v1/core/sensors/garage/force", ""); rec.Code != http.StatusOK {
		t.Fatalf("force = %d", rec.Code)
	}
	var ready struct {
		Data []string `json:"data"`
	}
	decode(t, env.do(t, http.MethodGet, "/api/v1/realtime/ready", ""), &ready)
	if len(ready.Data) != 1 || ready.Data[0] != "garage" {
		t.Fatalf("ready = %v", ready.Data)
	}

	var stats struct {
		Data templog.SensorStats `json:"data"`
	}
	decode(t, env.do(t, http.MethodGet, "/api/v1/core/sensors/garage/stats?hours=2", ""), &stats)
	if stats.Data.Count != 1 || stats.Data.Avg != 12.25 {
		t.Fatalf("stats = %+v", stats.Data)
	}

	if rec := env.do(t, http.MethodGet, "/api/v1/core/sensors/garage/stats?hours=zero", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad hours = %d", rec.Code)
	}
}

func TestReportsAndExport(t *testing.T) {
	env := newTestEnv(t, config.Config{})
	env.do(t, http.MethodPost, "/api/v1/core/readings", `{"sensor":"porch","temperature":-3.5}`)

	rec := env.do(t, http.MethodGet, "/api/v1/export/readings.csv", "")
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("content type = %q", ct)
	}
	if !strings.HasPrefix(rec.Body.String(), "timestamp,sensor_name,temperature\n") ||
		!strings.Contains(rec.Body.String(), ",porch,-3.50") {
		t.Fatalf("csv = %q", rec.Body.String())
	}

	for _, path := range []string{
		"/api/v1/reports/daily",
		"/api/v1/reports/storage",
		"/api/v1/reports/memory",
		"/api/v1/reports/daily.txt",
		"/api/v1/reports/storage.txt",
		"/api/v1/reports/details.txt",
		"/api/v1/export/details.csv",
	} {
		if rec := env.do(t, http.MethodGet, path, ""); rec.Code != http.StatusOK || rec.Body.Len() == 0 {
			t.Errorf("%s = %d", path, rec.Code)
		}
	}

	var mem struct {
		Data templog.MemoryInfo `json:"data"`
	}
	decode(t, env.do(t, http.MethodGet, "/api/v1/reports/memory", ""), &mem)
	if mem.Data.UsedRecords != 1 || mem.Data.BytesPerRecord != templog.RecordSize {
		t.Fatalf("memory = %+v", mem.Data)
	}
}

func TestAdminClearAndReset(t *testing.T) {
	env := newTestEnv(t, config.Config{})
	env.do(t, http.MethodPost, "/api/v1/core/readings", `{"sensor":"attic","temperature":30}`)

	env.do(t, http.MethodPost, "/api/v1/admin/clear", "")
	if got := env.store.RecentReadings(10); len(got) != 0 {
		t.Fatalf("readings after clear = %v", got)
	}
	if rec := env.do(t, http.MethodGet, "/api/v1/core/sensors/attic", ""); rec.Code != http.StatusOK {
		t.Fatalf("sensor lost on clear: %d", rec.Code)
	}

	env.do(t, http.MethodPost, "/api/v1/admin/reset", "")
	if env.store.SensorExists("attic") {
		t.Fatal("sensor survived reset")
	}
}

func TestBearerAuth(t *testing.T) {
	env := newTestEnv(t, config.Config{BearerToken: "s3cret"})
	if rec := env.do(t, http.MethodGet, "/api/v1/core/sensors", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token = %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/core/sensors", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rec := httptest.NewRecorder()
	env.server.Engine().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("with token = %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, config.Config{})
	env.do(t, http.MethodPost, "/api/v1/core/readings", `{"sensor":"kitchen","temperature":20}`)

	rec := env.do(t, http.MethodGet, "/metrics", "")
	if !strings.Contains(rec.Body.String(), "thermolog_ring_records 1") {
		t.Fatalf("metrics missing ring gauge:\n%s", rec.Body.String())
	}
}

func TestWebsocketReceivesReadings(t *testing.T) {
	env := newTestEnv(t, config.Config{})
	ts := httptest.NewServer(env.server.Engine())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/realtime/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for env.server.Hub().Len() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	resp, err := http.Post(ts.URL+"/api/v1/core/readings", "application/json",
		strings.NewReader(`{"sensor":"lab","temperature":22.75}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read: %v", err)
	}
	if ev.Type != "reading" || ev.Sensor != "lab" || ev.Action != string(templog.ActionAppended) {
		t.Fatalf("event = %+v", ev)
	}
}
