package estimator_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tdex-network/barter-daemon/internal/core/domain"
	"github.com/tdex-network/barter-daemon/internal/infrastructure/cache"
	"github.com/tdex-network/barter-daemon/internal/infrastructure/estimator"
)

const testTimeout = 200 * time.Millisecond

func TestOpenRouter(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/chat/completions" ||
				r.Header.Get("Authorization") != "Bearer secret" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			var req struct {
				Model    string `json:"model"`
				Messages []struct {
					Content string `json:"content"`
				} `json:"messages"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil ||
				len(req.Messages) != 1 || req.Model != "test-model" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"1,500"}}]}`)
		},
	))
	t.Cleanup(server.Close)

	text, err := estimator.NewOpenRouter(server.URL, "secret", "test-model", testTimeout).
		Estimate(context.Background(), "guitar")
	require.NoError(t, err)
	require.Equal(t, "1,500", text)

	_, err = estimator.NewOpenRouter(server.URL, "wrong", "test-model", testTimeout).
		Estimate(context.Background(), "guitar")
	require.Error(t, err)
}

func TestPollinations(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			if !strings.Contains(r.URL.Path, "vintage guitar") {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			fmt.Fprint(w, "Approximately 800 dollars")
		},
	))
	t.Cleanup(server.Close)

	text, err := estimator.NewPollinations(server.URL, testTimeout).
		Estimate(context.Background(), "vintage guitar")
	require.NoError(t, err)
	require.Equal(t, "Approximately 800 dollars", text)
}

func TestFetchEstimate(t *testing.T) {
	t.Parallel()

	var failing, working int32
	failingServer := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&failing, 1)
			fmt.Fprint(w, "I'm not sure about that")
		},
	))
	t.Cleanup(failingServer.Close)

	workingServer := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&working, 1)
			fmt.Fprint(w, "250")
		},
	))
	t.Cleanup(workingServer.Close)

	svc, err := estimator.NewService(
		cache.NewInmemoryCache(), time.Minute, testTimeout, 0,
		estimator.NewPollinations(failingServer.URL, testTimeout),
		estimator.NewPollinations(workingServer.URL, testTimeout),
	)
	require.NoError(t, err)

	ctx := context.Background()
	value, ok := svc.FetchEstimate(ctx, "Espresso Machine")
	require.True(t, ok)
	require.Equal(t, 250.0, value)

	value, ok = svc.FetchEstimate(ctx, " espresso machine")
	require.True(t, ok)
	require.Equal(t, 250.0, value)
	require.Equal(t, int32(1), atomic.LoadInt32(&failing))
	require.Equal(t, int32(1), atomic.LoadInt32(&working))

	src := estimator.NewSource(svc)
	require.Equal(t, domain.SourceEstimated, src.Kind())

	item, ok := src.PriceItem(ctx, "Espresso Machine")
	require.True(t, ok)
	require.Equal(t, "Espresso Machine", item.Name)
	require.Equal(t, "Espresso Machine", item.Description)
	require.Equal(t, 250.0, item.UnitValue)
	require.Equal(t, 50, item.Scarcity)
	require.Equal(t, 50, item.Utility)
	require.Equal(t, domain.SourceEstimated, item.Source)
}

func TestFetchEstimateTimeout(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(5 * time.Second):
			}
		},
	))
	t.Cleanup(server.Close)

	svc, err := estimator.NewService(
		cache.NewInmemoryCache(), time.Minute, testTimeout, 0,
		estimator.NewPollinations(server.URL, 5*time.Second),
	)
	require.NoError(t, err)

	start := time.Now()
	_, ok := svc.FetchEstimate(context.Background(), "mystery box")
	require.False(t, ok)
	require.Less(t, time.Since(start), 2*time.Second)
}

func TestFetchEstimateWithoutProviders(t *testing.T) {
	t.Parallel()

	svc, err := estimator.NewService(cache.NewInmemoryCache(), 0, 0, 0)
	require.NoError(t, err)
	require.Empty(t, svc.Providers())

	_, ok := svc.FetchEstimate(context.Background(), "anything")
	require.False(t, ok)
}
