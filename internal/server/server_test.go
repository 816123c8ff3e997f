package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "github.com/matzehuels/flowmap/pkg/errors"
	"github.com/matzehuels/flowmap/pkg/flow"
	"github.com/matzehuels/flowmap/pkg/observability"
	"github.com/matzehuels/flowmap/pkg/pipeline"
	"github.com/matzehuels/flowmap/pkg/session"
)

const (
	testData     = "../../testdata/migration.csv"
	testTopology = "../../testdata/states.json"
)

func newTestServer(t *testing.T, mutate ...func(*Options)) *Server {
	t.Helper()
	logger := log.New(os.Stderr)
	logger.SetLevel(log.WarnLevel)

	opts := Options{
		Addr: "127.0.0.1:0",
		Pipeline: pipeline.Options{
			DataPath:     testData,
			TopologyPath: testTopology,
			Simplify:     1,
			Selection:    flow.DefaultSelection(),
		},
		Metrics: observability.NewMetricsForTesting(),
		Logger:  logger,
	}
	for _, m := range mutate {
		m(&opts)
	}
	runner := pipeline.NewRunner(nil, nil, logger)
	return New(opts, runner, session.NewMemoryStore())
}

func loadedServer(t *testing.T) *Server {
	t.Helper()
	s := newTestServer(t)
	require.NoError(t, s.Reload(context.Background()))
	return s
}

// client replays the session cookie like a browser.
type client struct {
	t       *testing.T
	s       *Server
	cookies []*http.Cookie
}

func (c *client) do(req *http.Request) *httptest.ResponseRecorder {
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c.s.ServeHTTP(rec, req)
	if got := rec.Result().Cookies(); len(got) > 0 {
		c.cookies = got
	}
	return rec
}

func (c *client) get(url string) *httptest.ResponseRecorder {
	return c.do(httptest.NewRequest(http.MethodGet, url, nil))
}

func (c *client) postForm(url, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, url, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

func (c *client) postJSON(url, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, url, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealthAndReady(t *testing.T) {
	s := newTestServer(t)
	c := &client{t: t, s: s}

	rec := c.get("/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])

	assert.Equal(t, http.StatusServiceUnavailable, c.get("/readyz").Code)
	assert.Equal(t, http.StatusServiceUnavailable, c.get("/scene.svg").Code)

	require.NoError(t, s.Reload(context.Background()))
	rec = c.get("/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, s.Dataset().Hash, decode(t, rec)["dataset"])
}

func TestSceneFollowsSession(t *testing.T) {
	c := &client{t: t, s: loadedServer(t)}

	rec := c.get("/scene.svg?width=600")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	require.Len(t, c.cookies, 1)
	assert.True(t, session.ValidID(c.cookies[0].Value))

	svg := rec.Body.String()
	assert.Contains(t, svg, `class="flow-map"`)
	assert.Contains(t, svg, "flow-gradient-06-48")
	assert.NotContains(t, svg, "<animate", "first render has nothing to diff against")

	rec = c.postForm("/selection", "direction=inbound")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	sel := decode(t, rec)["selection"].(map[string]any)
	assert.Equal(t, "06", sel["location"])
	assert.Equal(t, "inbound", sel["direction"])

	svg = c.get("/scene.svg?width=600").Body.String()
	assert.Contains(t, svg, "flow-gradient-48-06")
	assert.Equal(t, 6, strings.Count(svg, "<animate"), "three inbound flows enter, ribbon and arrow each")

	svg = c.get("/scene.svg?width=600").Body.String()
	assert.NotContains(t, svg, "<animate", "unchanged selection has no entering flows")

	svg = c.get("/scene.svg?width=500").Body.String()
	assert.NotContains(t, svg, "<animate", "a resize redraws without transition")
}

func TestSessionsAreIndependent(t *testing.T) {
	s := loadedServer(t)
	a := &client{t: t, s: s}
	b := &client{t: t, s: s}

	a.get("/scene.svg")
	b.get("/scene.svg")
	require.Equal(t, http.StatusOK, a.postForm("/selection", "location=TX").Code)

	assert.Contains(t, a.get("/scene.svg").Body.String(), "flow-gradient-48-06")
	assert.Contains(t, b.get("/scene.svg").Body.String(), "flow-gradient-06-48")
}

func TestSelectionJSON(t *testing.T) {
	c := &client{t: t, s: loadedServer(t)}

	rec := c.postJSON("/selection", `{"location": "New York", "display": "all"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	sel := decode(t, rec)["selection"].(map[string]any)
	assert.Equal(t, "36", sel["location"])
	assert.Equal(t, "outbound", sel["direction"])
	assert.Equal(t, "all", sel["display"])
}

func counter(t *testing.T, c prometheus.Metric) float64 {
	t.Helper()
	var pb dto.Metric
	require.NoError(t, c.Write(&pb))
	return pb.GetCounter().GetValue()
}

func TestSelectionEmitsSessionHooks(t *testing.T) {
	m := observability.NewMetricsForTesting()
	observability.Install(observability.Hooks{Session: m})
	t.Cleanup(observability.Reset)

	c := &client{t: t, s: loadedServer(t)}
	rec := c.postJSON("/selection", `{"location": "New York", "display": "all"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	// Same cookie, same values: nothing changes.
	rec = c.postJSON("/selection", `{"location": "36", "direction": "outbound"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, 1.0, counter(t, m.SessionsStarted))
	assert.Equal(t, 1.0, counter(t, m.SelectionChanges.WithLabelValues("location")))
	assert.Equal(t, 1.0, counter(t, m.SelectionChanges.WithLabelValues("display")))
	assert.Equal(t, 0.0, counter(t, m.SelectionChanges.WithLabelValues("direction")))
	assert.Equal(t, 1.0, counter(t, m.Reloads.WithLabelValues("success")))
}

func TestChangedControls(t *testing.T) {
	base := flow.DefaultSelection()
	tests := []struct {
		name string
		next flow.Selection
		want []string
	}{
		{"unchanged", base, nil},
		{"direction", flow.Selection{Location: "06", Direction: flow.Both, Display: flow.Top10}, []string{"direction"}},
		{"location and display", flow.Selection{Location: "36", Direction: flow.Outbound, Display: flow.All}, []string{"location", "display"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, changedControls(base, tt.next))
		})
	}
}

func TestSelectionErrors(t *testing.T) {
	tests := []struct {
		name   string
		form   string
		status int
		code   ferrors.Code
	}{
		{"unknown location", "location=Atlantis", http.StatusNotFound, ferrors.ErrCodeNotFound},
		{"bad direction", "direction=sideways", http.StatusBadRequest, ferrors.ErrCodeInvalidDirection},
		{"bad display", "display=top3", http.StatusBadRequest, ferrors.ErrCodeInvalidDisplay},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &client{t: t, s: loadedServer(t)}
			rec := c.postForm("/selection", tt.form)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, string(tt.code), decode(t, rec)["error"])
		})
	}

	c := &client{t: t, s: loadedServer(t)}
	rec := c.postJSON("/selection", `{"location":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSceneBadWidth(t *testing.T) {
	c := &client{t: t, s: loadedServer(t)}
	for _, w := range []string{"wide", "0", "-5", "100000"} {
		rec := c.get("/scene.svg?width=" + w)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "width=%s", w)
		assert.Equal(t, "INVALID_INPUT", decode(t, rec)["error"])
	}
}

func TestFlowsAPI(t *testing.T) {
	c := &client{t: t, s: loadedServer(t)}

	rec := c.get("/api/flows?location=NY&direction=both")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var out struct {
		Selection flow.Selection `json:"selection"`
		Flows     []struct {
			ID    string  `json:"id"`
			Value float64 `json:"value"`
		} `json:"flows"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "36", out.Selection.Location)
	require.Len(t, out.Flows, 6)
	assert.Equal(t, "48-36", out.Flows[0].ID)
	assert.Equal(t, 25000.0, out.Flows[0].Value)

	// The query does not change the session.
	assert.Contains(t, c.get("/scene.svg").Body.String(), "flow-gradient-06-48")
}

func TestLocationsAPI(t *testing.T) {
	c := &client{t: t, s: loadedServer(t)}
	rec := c.get("/api/locations")
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Locations []locationResponse `json:"locations"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	names := make([]string, len(out.Locations))
	for i, l := range out.Locations {
		names[i] = l.Name
	}
	assert.Equal(t, []string{"California", "Nevada", "New York", "Texas"}, names)
	assert.Equal(t, "CA", out.Locations[0].Abbr)
	assert.Equal(t, 138000.0, out.Locations[0].OutboundTotal)
}

func TestPage(t *testing.T) {
	c := &client{t: t, s: loadedServer(t)}
	c.get("/scene.svg")
	c.postForm("/selection", "location=TX&display=all")

	rec := c.get("/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `<option value="48" selected>Texas</option>`)
	assert.Contains(t, body, `<option value="06">California</option>`)
	assert.Contains(t, body, `value="outbound" checked`)
	assert.Contains(t, body, `value="all" checked`)
}

func TestPageResolvesConfiguredLocation(t *testing.T) {
	for _, loc := range []string{"CA", "California", "06"} {
		t.Run(loc, func(t *testing.T) {
			s := newTestServer(t, func(o *Options) { o.Pipeline.Selection.Location = loc })
			require.NoError(t, s.Reload(context.Background()))
			c := &client{t: t, s: s}

			rec := c.get("/")
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), `<option value="06" selected>California</option>`)

			rec = c.postForm("/selection", "location=06&direction=inbound")
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, "06", decode(t, rec)["selection"].(map[string]any)["location"])
		})
	}
}

func TestConfiguredAbbreviationCountsNoLocationChange(t *testing.T) {
	m := observability.NewMetricsForTesting()
	observability.Install(observability.Hooks{Session: m})
	t.Cleanup(observability.Reset)

	s := newTestServer(t, func(o *Options) { o.Pipeline.Selection.Location = "CA" })
	require.NoError(t, s.Reload(context.Background()))
	c := &client{t: t, s: s}
	c.get("/")

	rec := c.postForm("/selection", "location=06&display=all")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 0.0, counter(t, m.SelectionChanges.WithLabelValues("location")))
	assert.Equal(t, 1.0, counter(t, m.SelectionChanges.WithLabelValues("display")))
}

func TestMetricsRoute(t *testing.T) {
	c := &client{t: t, s: loadedServer(t)}
	c.get("/scene.svg")

	rec := c.get("/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `flowmap_http_requests_total{route="/scene.svg",status="200"} 1`)

	noMetrics := newTestServer(t, func(o *Options) { o.Metrics = nil })
	assert.Equal(t, http.StatusNotFound, (&client{t: t, s: noMetrics}).get("/metrics").Code)
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ferrors.New(ferrors.ErrCodeInvalidInput, "x"), http.StatusBadRequest},
		{ferrors.New(ferrors.ErrCodeInvalidDirection, "x"), http.StatusBadRequest},
		{ferrors.New(ferrors.ErrCodeNotFound, "x"), http.StatusNotFound},
		{ferrors.New(ferrors.ErrCodeFileNotFound, "x"), http.StatusNotFound},
		{ferrors.New(ferrors.ErrCodeNetwork, "x"), http.StatusBadGateway},
		{errNotReady, http.StatusServiceUnavailable},
		{os.ErrClosed, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusCode(tt.err), "%v", tt.err)
	}
}

func copyInputs(t *testing.T) (dir, data string) {
	t.Helper()
	dir = t.TempDir()
	for _, src := range []string{testData, testTopology} {
		b, err := os.ReadFile(src)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, filepath.Base(src)), b, 0o644))
	}
	return dir, filepath.Join(dir, "migration.csv")
}

func TestReloadKeepsPreviousOnFailure(t *testing.T) {
	dir, data := copyInputs(t)
	s := newTestServer(t, func(o *Options) {
		o.Pipeline.DataPath = data
		o.Pipeline.TopologyPath = filepath.Join(dir, "states.json")
	})
	ctx := context.Background()
	require.NoError(t, s.Reload(ctx))
	before := s.Dataset()

	require.NoError(t, os.WriteFile(data, []byte("name,Atlantis\nCalifornia,1\n"), 0o644))
	assert.Error(t, s.Reload(ctx))
	assert.Same(t, before, s.Dataset())
}

func TestSessionFallsBackWhenLocationDropped(t *testing.T) {
	dir, data := copyInputs(t)
	s := newTestServer(t, func(o *Options) {
		o.Pipeline.DataPath = data
		o.Pipeline.TopologyPath = filepath.Join(dir, "states.json")
	})
	ctx := context.Background()
	require.NoError(t, s.Reload(ctx))

	c := &client{t: t, s: s}
	require.Equal(t, http.StatusOK, c.postForm("/selection", "location=TX&direction=inbound").Code)
	require.Equal(t, http.StatusOK, c.get("/scene.svg").Code)

	noTexas := "name,California,New York,Nevada\n" +
		"California,N/A,9000,20000\n" +
		"New York,12000,N/A,1000\n" +
		"Nevada,40000,500,N/A\n"
	require.NoError(t, os.WriteFile(data, []byte(noTexas), 0o644))
	require.NoError(t, s.Reload(ctx))
	_, ok := s.Dataset().Graph.Location("48")
	require.False(t, ok)

	rec := c.get("/scene.svg")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "flow-gradient-32-06", "inbound to California")

	rec = c.get("/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<option value="06" selected>California</option>`)
	assert.Contains(t, rec.Body.String(), `value="inbound" checked`)
}

func TestWatchReloads(t *testing.T) {
	dir, data := copyInputs(t)
	s := newTestServer(t, func(o *Options) {
		o.Pipeline.DataPath = data
		o.Pipeline.TopologyPath = filepath.Join(dir, "states.json")
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.Reload(ctx))
	before := s.Dataset()

	done := make(chan error, 1)
	go func() { done <- s.watch(ctx) }()
	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)

	b, err := os.ReadFile(data)
	require.NoError(t, err)
	updated := strings.Replace(string(b), "86000", "96000", 1)
	require.NoError(t, os.WriteFile(data, []byte(updated), 0o644))

	assert.Eventually(t, func() bool {
		return s.Dataset() != before
	}, 5*time.Second, 20*time.Millisecond)
	ca, _ := s.Dataset().Graph.Location("06")
	assert.Equal(t, 148000.0, ca.OutboundTotal)

	cancel()
	assert.NoError(t, <-done)
}
