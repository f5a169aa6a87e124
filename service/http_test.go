package service

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semcite/registry"
	"github.com/c360studio/semcite/resolver"
)

func testRegistry() registry.Registry {
	return registry.Registry{
		{Prefix: "pubmed", Pattern: `^\d+$`, URIFormat: "https://pubmed.ncbi.nlm.nih.gov/$1"},
		{Prefix: "doi", Pattern: `^10.\d{4,9}/[-._;()/:a-zA-Z0-9]+$`},
		{Prefix: "clinicaltrials", Pattern: `^NCT\d{8}$`},
		{Prefix: "gramene.growthstage"},
		{Prefix: "orphan"},
	}
}

func testServer(t *testing.T, metrics *Metrics) (*Server, *httptest.Server) {
	t.Helper()
	s := NewServer(resolver.New(testRegistry()), metrics, nil, nil)
	mux := http.NewServeMux()
	s.RegisterHTTPHandlers(mux)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return s, ts
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	return resp.StatusCode
}

func TestServerResolve(t *testing.T) {
	_, ts := testServer(t, nil)

	var got ResolveResponse
	status := getJSON(t, ts.URL+"/resolve?curie=pubmed:29424689", &got)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "pubmed:29424689", got.Curie)
	assert.Equal(t, "pubmed", got.Prefix)
	assert.Equal(t, "29424689", got.Accession)
	assert.Equal(t, "https://pubmed.ncbi.nlm.nih.gov/29424689", got.URL)
}

func TestServerResolveErrors(t *testing.T) {
	_, ts := testServer(t, nil)

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantError  string
	}{
		{"missing curie", "", http.StatusBadRequest, "curie_required"},
		{"malformed", "?curie=nbt1156", http.StatusBadRequest, "malformed_curie"},
		{"unknown prefix", "?curie=nope:123", http.StatusNotFound, "unknown_prefix"},
		{"unresolvable", "?curie=orphan:123", http.StatusUnprocessableEntity, "unresolvable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got ErrorResponse
			status := getJSON(t, ts.URL+"/resolve"+tt.query, &got)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantError, got.Error)
			assert.NotEmpty(t, got.Message)
		})
	}
}

func TestServerInspect(t *testing.T) {
	_, ts := testServer(t, nil)

	t.Run("clean curie", func(t *testing.T) {
		var got InspectResponse
		status := getJSON(t, ts.URL+"/inspect?curie=pubmed:29424689", &got)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "https://pubmed.ncbi.nlm.nih.gov/29424689", got.URL)
		assert.Empty(t, got.Report)
	})

	t.Run("pattern mismatch still succeeds", func(t *testing.T) {
		var got InspectResponse
		status := getJSON(t, ts.URL+"/inspect?curie=clinicaltrials:BOGUS", &got)
		assert.Equal(t, http.StatusOK, status)
		assert.NotEmpty(t, got.URL)
		assert.Contains(t, got.Report, "clinicaltrials")
	})

	t.Run("unknown prefix yields no report", func(t *testing.T) {
		// Inspection is advisory about patterns only; an unresolvable
		// prefix is not its concern.
		var got InspectResponse
		status := getJSON(t, ts.URL+"/inspect?curie=nope:123", &got)
		assert.Equal(t, http.StatusOK, status)
		assert.Empty(t, got.URL)
		assert.Empty(t, got.Report)
	})

	t.Run("malformed curie yields no report", func(t *testing.T) {
		var got InspectResponse
		status := getJSON(t, ts.URL+"/inspect?curie=no-separator", &got)
		assert.Equal(t, http.StatusOK, status)
		assert.Empty(t, got.URL)
		assert.Empty(t, got.Report)
	})
}

func TestServerHealth(t *testing.T) {
	_, ts := testServer(t, nil)

	var got HealthResponse
	status := getJSON(t, ts.URL+"/healthz", &got)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", got.Status)
	assert.Equal(t, 5, got.Prefixes)
}

func TestServerMetricsEndpoint(t *testing.T) {
	_, ts := testServer(t, NewMetrics())

	resp, err := http.Get(ts.URL + "/resolve?curie=pubmed:29424689")
	require.NoError(t, err)
	resp.Body.Close()
	resp, err = http.Get(ts.URL + "/resolve?curie=nope:123")
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `semcite_resolutions_total{operation="resolve",outcome="ok"} 1`)
	assert.Contains(t, string(body), `semcite_resolutions_total{operation="resolve",outcome="unknown_prefix"} 1`)
	assert.Contains(t, string(body), "semcite_resolution_duration_seconds")
}

func TestServerSwap(t *testing.T) {
	s, ts := testServer(t, nil)

	var got ErrorResponse
	status := getJSON(t, ts.URL+"/resolve?curie=taxonomy:9606", &got)
	require.Equal(t, http.StatusNotFound, status)

	s.Swap(resolver.New(registry.Registry{{Prefix: "taxonomy"}}))

	var ok ResolveResponse
	status = getJSON(t, ts.URL+"/resolve?curie=taxonomy:9606", &ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "https://www.ncbi.nlm.nih.gov/Taxonomy/Browser/wwwtax.cgi?mode=Info&id=9606", ok.URL)
}

func TestServerMethodNotAllowed(t *testing.T) {
	_, ts := testServer(t, nil)

	resp, err := http.Post(ts.URL+"/resolve?curie=pubmed:1", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestMetricsObserveResolution(t *testing.T) {
	m := NewMetrics()
	m.ObserveResolution("resolve", "ok", 5*time.Millisecond)
	m.ObserveResolution("resolve", "ok", 7*time.Millisecond)

	rec := httptest.NewRecorder()
	m.HTTPHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `semcite_resolutions_total{operation="resolve",outcome="ok"} 2`)
}
