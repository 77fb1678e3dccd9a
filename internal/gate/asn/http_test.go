package asn

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*HTTPClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHTTPClient(srv.URL, "test-token", discardLogger()), srv
}

func TestHTTPLookup(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   int
		ok     bool
	}{
		{"numeric asn", 200, `{"asn": 15169}`, 15169, true},
		{"string asn with prefix", 200, `{"asn": "AS13335"}`, 13335, true},
		{"asn only inside org", 200, `{"org": "AS15169 Google LLC"}`, 15169, true},
		{"non-2xx", 403, `{"error":"quota"}`, 0, false},
		{"malformed body", 200, `{{{`, 0, false},
		{"no asn anywhere", 200, `{"city":"Haarlem"}`, 0, false},
		{"junk asn string", 200, `{"asn": "ASxyz"}`, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			asn, ok := client.Lookup(context.Background(), "8.8.8.8")
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.want, asn)
			}
		})
	}
}

func TestHTTPLookupRequestShape(t *testing.T) {
	var gotPath string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"asn": 1}`))
	})
	_, ok := client.Lookup(context.Background(), "203.0.113.42")
	require.True(t, ok)
	assert.Equal(t, "/203.0.113.42/json", gotPath)
}

func TestHTTPLookupUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client := NewHTTPClient(srv.URL, "t", discardLogger())
	srv.Close()

	_, ok := client.Lookup(context.Background(), "8.8.8.8")
	assert.False(t, ok)
}
