package shipping

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newORSServer(t *testing.T, geocode, matrix http.HandlerFunc) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/geocode/search", geocode)
	mux.HandleFunc("/v2/matrix/driving-car", matrix)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestORSClient_Distance(t *testing.T) {
	var matrixBody matrixRequest
	srv := newORSServer(t,
		func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			assert.Equal(t, "test-key", q.Get("api_key"))
			assert.Equal(t, "Calle 1, Envigado, Antioquia, Colombia", q.Get("text"))
			assert.Equal(t, "CO", q.Get("boundary.country"))
			assert.Equal(t, "50", q.Get("boundary.circle.radius"))
			assert.Equal(t, "1", q.Get("size"))
			w.Write([]byte(`{"features":[{"geometry":{"coordinates":[-75.59,6.17]},"properties":{"label":"Envigado"}}]}`))
		},
		func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "test-key", r.Header.Get("Authorization"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&matrixBody))
			w.Write([]byte(`{"distances":[[0,4.3],[4.1,0]]}`))
		})

	c := NewORSClient("test-key", nil, WithBaseURL(srv.URL))
	km, err := c.Distance(context.Background(), "Calle 1, Envigado, Antioquia, Colombia")
	require.NoError(t, err)
	assert.InDelta(t, 4.3, km, 1e-9)

	assert.Equal(t, []Coordinates{StoreOrigin, {-75.59, 6.17}}, matrixBody.Locations)
	assert.Equal(t, []string{"distance"}, matrixBody.Metrics)
	assert.Equal(t, "km", matrixBody.Units)
}

func TestORSClient_NoFeatures(t *testing.T) {
	srv := newORSServer(t,
		func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`{"features":[]}`)) },
		func(w http.ResponseWriter, r *http.Request) { t.Error("matrix must not be called") })

	c := NewORSClient("k", nil, WithBaseURL(srv.URL))
	_, err := c.Distance(context.Background(), "nowhere")
	assert.ErrorIs(t, err, ErrNoGeocodeResult)
}

func TestORSClient_Non2xx(t *testing.T) {
	srv := newORSServer(t,
		func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"features":[{"geometry":{"coordinates":[-75.59,6.17]}}]}`))
		},
		func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"quota"}`, http.StatusForbidden)
		})

	c := NewORSClient("k", nil, WithBaseURL(srv.URL))
	_, err := c.Distance(context.Background(), "x")
	assert.ErrorContains(t, err, "unexpected status 403")
}

func TestORSClient_MissingCell(t *testing.T) {
	srv := newORSServer(t,
		func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"features":[{"geometry":{"coordinates":[-75.59,6.17]}}]}`))
		},
		func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`{"distances":[[0,null]]}`)) })

	c := NewORSClient("k", nil, WithBaseURL(srv.URL))
	_, err := c.Distance(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNoRoute)
}

func TestORSClient_NoKey(t *testing.T) {
	c := NewORSClient("", nil)
	_, err := c.Distance(context.Background(), "x")
	assert.ErrorIs(t, err, ErrLookupDisabled)
}
