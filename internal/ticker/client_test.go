package ticker

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AIS170/SENG3011-OMEGA/pkg/retry"
)

func newTestClient(baseURL string) *Client {
	c := NewClient(baseURL, 2*time.Second)
	c.retryCfg = retry.Config{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     time.Millisecond,
		Multiplier:   1.0,
	}
	return c
}

func TestResolve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/finance/search", r.URL.Path)
		assert.Equal(t, "tesla motors", r.URL.Query().Get("q"))

		w.Write([]byte(`{"quotes":[
			{"symbol":"","isYahooFinance":true},
			{"symbol":"TSLA34.SA","isYahooFinance":false},
			{"symbol":"TSLA","isYahooFinance":true}
		]}`))
	}))
	defer srv.Close()

	symbol, err := newTestClient(srv.URL).Resolve(context.Background(), "tesla motors")
	require.NoError(t, err)
	assert.Equal(t, "TSLA", symbol)
}

func TestResolveNoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"quotes":[]}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Resolve(context.Background(), "no such company")
	require.ErrorIs(t, err, ErrTickerNotFound)
}

func TestResolveRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"quotes":[{"symbol":"TSLA","isYahooFinance":true}]}`))
	}))
	defer srv.Close()

	symbol, err := newTestClient(srv.URL).Resolve(context.Background(), "tesla")
	require.NoError(t, err)
	assert.Equal(t, "TSLA", symbol)
	assert.Equal(t, int32(3), calls.Load())
}

func TestResolveGivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Resolve(context.Background(), "tesla")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrTickerNotFound)
	assert.Equal(t, int32(3), calls.Load())
}
