package pricefeeder_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tdex-network/barter-daemon/internal/core/domain"
	"github.com/tdex-network/barter-daemon/internal/infrastructure/cache"
	pricefeeder "github.com/tdex-network/barter-daemon/internal/infrastructure/price-feeder"
)

const testTimeout = 200 * time.Millisecond

func TestProviders(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/simple/price":
				if r.Header.Get("x-cg-demo-api-key") != "gecko-key" ||
					r.URL.Query().Get("ids") != "bitcoin" {
					w.WriteHeader(http.StatusUnauthorized)
					return
				}
				fmt.Fprint(w, `{"bitcoin":{"usd":65123.5}}`)
			case "/assets/xrp":
				if r.URL.Query().Get("apiKey") != "cap-key" {
					w.WriteHeader(http.StatusUnauthorized)
					return
				}
				fmt.Fprint(w, `{"data":{"id":"xrp","priceUsd":"0.5234"}}`)
			case "/api/v3/ticker/price":
				if r.URL.Query().Get("symbol") != "ETHUSDT" {
					w.WriteHeader(http.StatusBadRequest)
					return
				}
				fmt.Fprint(w, `{"symbol":"ETHUSDT","price":"3501.20000000"}`)
			default:
				w.WriteHeader(http.StatusNotFound)
			}
		},
	))
	t.Cleanup(server.Close)

	ctx := context.Background()
	bitcoin, _ := pricefeeder.MatchAsset("bitcoin")
	xrp, _ := pricefeeder.MatchAsset("xrp")
	ether, _ := pricefeeder.MatchAsset("eth")

	price, err := pricefeeder.NewCoinGecko(server.URL, "gecko-key", testTimeout).
		Quote(ctx, bitcoin)
	require.NoError(t, err)
	require.Equal(t, 65123.5, price)

	price, err = pricefeeder.NewCoinCap(server.URL, "cap-key", testTimeout).
		Quote(ctx, xrp)
	require.NoError(t, err)
	require.Equal(t, 0.5234, price)

	price, err = pricefeeder.NewBinance(server.URL, testTimeout).Quote(ctx, ether)
	require.NoError(t, err)
	require.Equal(t, 3501.2, price)

	_, err = pricefeeder.NewCoinGecko(server.URL, "wrong-key", testTimeout).
		Quote(ctx, bitcoin)
	require.Error(t, err)

	_, err = pricefeeder.NewCoinGecko(server.URL, "gecko-key", testTimeout).
		Quote(ctx, ether)
	require.Error(t, err)
}

func TestFetchLiveQuote(t *testing.T) {
	t.Parallel()

	var calls int32
	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			fmt.Fprint(w, `{"bitcoin":{"usd":65000}}`)
		},
	))
	t.Cleanup(server.Close)

	svc, err := pricefeeder.NewService(
		cache.NewInmemoryCache(), time.Minute, testTimeout, 0,
		pricefeeder.NewCoinGecko(server.URL, "key", testTimeout),
	)
	require.NoError(t, err)
	require.Equal(t, []string{pricefeeder.CoinGecko}, svc.Providers())

	ctx := context.Background()

	_, ok := svc.FetchLiveQuote(ctx, "pizza")
	require.False(t, ok)
	require.Zero(t, atomic.LoadInt32(&calls))

	prices := make([]float64, 10)
	wg := &sync.WaitGroup{}
	for i := range prices {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			prices[i], _ = svc.FetchLiveQuote(ctx, "btc")
		}(i)
	}
	wg.Wait()

	for _, price := range prices {
		require.Equal(t, 65000.0, price)
	}

	price, ok := svc.FetchLiveQuote(ctx, "Bitcoin")
	require.True(t, ok)
	require.Equal(t, 65000.0, price)
	require.LessOrEqual(t, atomic.LoadInt32(&calls), int32(10))
	require.GreaterOrEqual(t, atomic.LoadInt32(&calls), int32(1))

	callsBefore := atomic.LoadInt32(&calls)
	_, ok = svc.FetchLiveQuote(ctx, "bitcoin")
	require.True(t, ok)
	require.Equal(t, callsBefore, atomic.LoadInt32(&calls))
}

func TestFetchLiveQuoteSurvivesCancelledCaller(t *testing.T) {
	t.Parallel()

	var calls int32
	release := make(chan struct{})
	releaseOnce := &sync.Once{}
	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			select {
			case <-release:
			case <-r.Context().Done():
				return
			}
			fmt.Fprint(w, `{"bitcoin":{"usd":65000}}`)
		},
	))
	t.Cleanup(func() {
		releaseOnce.Do(func() { close(release) })
		server.Close()
	})

	svc, err := pricefeeder.NewService(
		cache.NewInmemoryCache(), time.Minute, 2*time.Second, 0,
		pricefeeder.NewCoinGecko(server.URL, "key", 2*time.Second),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancelledOk := make(chan bool, 1)
	go func() {
		_, ok := svc.FetchLiveQuote(ctx, "bitcoin")
		cancelledOk <- ok
	}()
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&calls) == 1
	}, time.Second, 5*time.Millisecond)

	type result struct {
		price float64
		ok    bool
	}
	waiting := make(chan result, 1)
	go func() {
		price, ok := svc.FetchLiveQuote(context.Background(), "btc")
		waiting <- result{price, ok}
	}()
	time.Sleep(50 * time.Millisecond)

	cancel()
	require.False(t, <-cancelledOk)

	releaseOnce.Do(func() { close(release) })
	res := <-waiting
	require.True(t, res.ok)
	require.Equal(t, 65000.0, res.price)
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestFetchLiveQuoteFallsBackOnTimeout(t *testing.T) {
	t.Parallel()

	slow := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(5 * time.Second):
			}
		},
	))
	t.Cleanup(slow.Close)

	fast := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"symbol":"BTCUSDT","price":"64000.00"}`)
		},
	))
	t.Cleanup(fast.Close)

	svc, err := pricefeeder.NewService(
		cache.NewInmemoryCache(), time.Minute, testTimeout, 0,
		pricefeeder.NewCoinGecko(slow.URL, "key", 5*time.Second),
		pricefeeder.NewBinance(fast.URL, 5*time.Second),
	)
	require.NoError(t, err)

	start := time.Now()
	price, ok := svc.FetchLiveQuote(context.Background(), "bitcoin")
	elapsed := time.Since(start)

	require.True(t, ok)
	require.Equal(t, 64000.0, price)
	require.Less(t, elapsed, 2*time.Second)
}

func TestFetchLiveQuoteAllProvidersFail(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		},
	))
	t.Cleanup(server.Close)

	svc, err := pricefeeder.NewService(
		cache.NewInmemoryCache(), time.Minute, testTimeout, 0,
		pricefeeder.NewCoinGecko(server.URL, "key", testTimeout),
		pricefeeder.NewCoinCap(server.URL, "key", testTimeout),
	)
	require.NoError(t, err)

	_, ok := svc.FetchLiveQuote(context.Background(), "eth")
	require.False(t, ok)

	src := pricefeeder.NewSource(svc)
	item, ok := src.PriceItem(context.Background(), "eth")
	require.False(t, ok)
	require.Nil(t, item)
}

func TestSource(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"ethereum":{"usd":3500}}`)
		},
	))
	t.Cleanup(server.Close)

	svc, err := pricefeeder.NewService(
		cache.NewInmemoryCache(), time.Minute, testTimeout, 0,
		pricefeeder.NewCoinGecko(server.URL, "key", testTimeout),
	)
	require.NoError(t, err)

	src := pricefeeder.NewSource(svc)
	require.Equal(t, domain.SourceLiveQuote, src.Kind())

	item, ok := src.PriceItem(context.Background(), " 2 ETH ")
	require.True(t, ok)
	require.Equal(t, "2 ETH", item.Name)
	require.Equal(t, "ethereum", item.Key)
	require.Equal(t, 3500.0, item.UnitValue)
	require.Equal(t, 85, item.Scarcity)
	require.Equal(t, "crypto", item.Category)
	require.Equal(t, domain.SourceLiveQuote, item.Source)
}

func TestNoProviders(t *testing.T) {
	t.Parallel()

	svc, err := pricefeeder.NewService(cache.NewInmemoryCache(), 0, 0, 0)
	require.NoError(t, err)

	_, ok := svc.FetchLiveQuote(context.Background(), "bitcoin")
	require.False(t, ok)

	_, err = pricefeeder.NewService(nil, 0, 0, 0)
	require.Error(t, err)
}
