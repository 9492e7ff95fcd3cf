package httpinterface

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tdex-network/barter-daemon/internal/core/application/exchange"
	"github.com/tdex-network/barter-daemon/internal/core/application/user"
	"github.com/tdex-network/barter-daemon/internal/core/application/valuation"
)

const maxBodySize = 1 << 20

type RouterOpts struct {
	ValuationSvc *valuation.Service
	ExchangeSvc  *exchange.Service
	UserSvc      *user.Service
	// WSHandler, if defined, serves the realtime endpoint.
	WSHandler http.Handler

	Version       string
	APIRateLimit  RateLimit
	AuthRateLimit RateLimit
	CORSOrigins   []string
}

func (o RouterOpts) validate() error {
	if o.ValuationSvc == nil {
		return fmt.Errorf("missing valuation service")
	}
	if o.ExchangeSvc == nil {
		return fmt.Errorf("missing exchange service")
	}
	if o.UserSvc == nil {
		return fmt.Errorf("missing user service")
	}
	return nil
}

// NewRouter returns the handler serving the whole HTTP surface of the
// daemon.
func NewRouter(opts RouterOpts) (http.Handler, error) {
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("invalid opts: %s", err)
	}

	h := &handler{
		valuationSvc: opts.ValuationSvc,
		exchangeSvc:  opts.ExchangeSvc,
		userSvc:      opts.UserSvc,
		version:      opts.Version,
	}
	withAuth := authMiddleware(opts.UserSvc)
	withAuthLimit := func(next http.HandlerFunc) http.Handler {
		if !opts.AuthRateLimit.enabled() {
			return next
		}
		return newIPRateLimiter(opts.AuthRateLimit).middleware(next)
	}
	protected := func(next http.HandlerFunc) http.Handler {
		return withAuth(next)
	}

	r := mux.NewRouter()
	r.Use(recoveryMiddleware, loggerMiddleware, corsMiddleware(opts.CORSOrigins))

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	if opts.WSHandler != nil {
		r.Handle("/ws", opts.WSHandler)
	}

	api := r.PathPrefix("/api").Subrouter()
	if opts.APIRateLimit.enabled() {
		api.Use(newIPRateLimiter(opts.APIRateLimit).middleware)
	}
	// Preflight requests are answered by the cors middleware.
	api.Methods(http.MethodOptions).HandlerFunc(func(http.ResponseWriter, *http.Request) {})

	api.HandleFunc("/health", h.health).Methods(http.MethodGet)
	api.HandleFunc("/stats", h.stats).Methods(http.MethodGet)
	api.HandleFunc("/valuate", h.valuate).Methods(http.MethodPost)
	api.HandleFunc("/image/{item}", h.image).Methods(http.MethodGet)

	api.Handle("/auth/register", withAuthLimit(h.register)).Methods(http.MethodPost)
	api.Handle("/auth/login", withAuthLimit(h.login)).Methods(http.MethodPost)
	api.Handle("/auth/me", protected(h.me)).Methods(http.MethodGet)

	api.Handle("/exchanges", protected(h.createExchange)).Methods(http.MethodPost)
	api.HandleFunc("/exchanges/feed", h.feed).Methods(http.MethodGet)
	api.Handle("/exchanges/mine", protected(h.myExchanges)).Methods(http.MethodGet)
	api.HandleFunc("/exchanges/{id}", h.getExchange).Methods(http.MethodGet)
	api.Handle("/exchanges/{id}/accept", protected(h.acceptExchange)).Methods(http.MethodPost)
	api.Handle("/exchanges/{id}/cancel", protected(h.cancelExchange)).Methods(http.MethodPost)
	api.Handle("/exchanges/{id}/negotiate", protected(h.negotiateExchange)).Methods(http.MethodPost)
	api.Handle("/exchanges/{id}/rate", protected(h.rateExchange)).Methods(http.MethodPost)

	api.HandleFunc("/leaderboard", h.leaderboard).Methods(http.MethodGet)
	api.HandleFunc("/users/search", h.searchUsers).Methods(http.MethodGet)
	api.Handle("/users/me/trades", protected(h.myTrades)).Methods(http.MethodGet)
	api.Handle("/users/me/inventory", protected(h.addInventoryItem)).Methods(http.MethodPost)
	api.Handle(
		"/users/me/inventory/{itemId}", protected(h.removeInventoryItem),
	).Methods(http.MethodDelete)
	api.HandleFunc("/users/{id}", h.getUser).Methods(http.MethodGet)

	return r, nil
}
