package httpinterface

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/tdex-network/barter-daemon/internal/core/application/exchange"
	"github.com/tdex-network/barter-daemon/internal/core/application/user"
	"github.com/tdex-network/barter-daemon/internal/core/application/valuation"
	"github.com/tdex-network/barter-daemon/internal/core/domain"
)

type handler struct {
	valuationSvc *valuation.Service
	exchangeSvc  *exchange.Service
	userSvc      *user.Service
	version      string
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{"operational", h.version})
}

func (h *handler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.userSvc.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{stats})
}

// valuate never fails with an internal error: if anything goes wrong while
// computing a quote the fallback valuation is returned.
func (h *handler) valuate(w http.ResponseWriter, r *http.Request) {
	var req valuateRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	fallback := func() {
		result := valuation.FallbackValuation(req.HaveItem, req.HaveAmount, req.WantItem)
		writeJSON(w, http.StatusOK, newValuateResponse(req, result, true))
	}
	defer func() {
		if rec := recover(); rec != nil {
			log.Errorf("recovered from panic while valuating: %v", rec)
			fallback()
		}
	}()

	result, err := h.valuationSvc.Valuate(
		r.Context(), req.HaveItem, req.HaveAmount, req.WantItem,
	)
	if err != nil {
		if statusForError(err) == http.StatusBadRequest {
			writeError(w, err)
			return
		}
		log.WithError(err).Warn("valuation failed, returning fallback")
		fallback()
		return
	}
	writeJSON(w, http.StatusOK, newValuateResponse(req, result, false))
}

func (h *handler) image(w http.ResponseWriter, r *http.Request) {
	item := mux.Vars(r)["item"]
	if err := domain.ValidateItemName(item); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, imageResponse{item, valuation.ImageURL(item)})
}

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	u, token, err := h.userSvc.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, authResponse{u, token})
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	identifier := req.Username
	if identifier == "" {
		identifier = req.Email
	}
	u, token, err := h.userSvc.Login(r.Context(), identifier, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{u, token})
}

func (h *handler) me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userResponse{userFromContext(r.Context())})
}

func (h *handler) createExchange(w http.ResponseWriter, r *http.Request) {
	var req createExchangeRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	u := userFromContext(r.Context())
	ex, err := h.exchangeSvc.Create(
		r.Context(), u.ID, req.Offer, req.Request, req.RecipientID,
	)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, exchangeResponse{ex})
}

func (h *handler) feed(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page")
	if err != nil {
		writeError(w, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, err)
		return
	}

	feed, err := h.exchangeSvc.Feed(r.Context(), page, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, feed)
}

func (h *handler) myExchanges(w http.ResponseWriter, r *http.Request) {
	u := userFromContext(r.Context())
	exchanges, err := h.exchangeSvc.ListForUser(r.Context(), u.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, exchangesResponse{exchanges})
}

func (h *handler) getExchange(w http.ResponseWriter, r *http.Request) {
	ex, err := h.exchangeSvc.GetExchange(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, exchangeResponse{ex})
}

func (h *handler) acceptExchange(w http.ResponseWriter, r *http.Request) {
	u := userFromContext(r.Context())
	ex, err := h.exchangeSvc.Accept(r.Context(), mux.Vars(r)["id"], u.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, exchangeResponse{ex})
}

func (h *handler) cancelExchange(w http.ResponseWriter, r *http.Request) {
	u := userFromContext(r.Context())
	ex, err := h.exchangeSvc.Cancel(r.Context(), mux.Vars(r)["id"], u.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, exchangeResponse{ex})
}

func (h *handler) negotiateExchange(w http.ResponseWriter, r *http.Request) {
	var req negotiateRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	u := userFromContext(r.Context())
	ex, err := h.exchangeSvc.Negotiate(
		r.Context(), mux.Vars(r)["id"], u.ID, req.Message, req.CounterOffer,
	)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, exchangeResponse{ex})
}

func (h *handler) rateExchange(w http.ResponseWriter, r *http.Request) {
	var req rateRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	u := userFromContext(r.Context())
	ex, err := h.exchangeSvc.Rate(r.Context(), mux.Vars(r)["id"], u.ID, req.Score)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, exchangeResponse{ex})
}

func (h *handler) leaderboard(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, err)
		return
	}

	users, err := h.userSvc.Leaderboard(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, usersResponse{users})
}

func (h *handler) searchUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userSvc.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, usersResponse{users})
}

func (h *handler) getUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.userSvc.GetUser(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse{u})
}

func (h *handler) myTrades(w http.ResponseWriter, r *http.Request) {
	u := userFromContext(r.Context())
	trades, err := h.userSvc.Trades(r.Context(), u.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tradesResponse{trades})
}

func (h *handler) addInventoryItem(w http.ResponseWriter, r *http.Request) {
	var req inventoryItemRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	u := userFromContext(r.Context())
	item, err := h.userSvc.AddInventoryItem(r.Context(), u.ID, req.Item, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, inventoryItemResponse{item})
}

func (h *handler) removeInventoryItem(w http.ResponseWriter, r *http.Request) {
	u := userFromContext(r.Context())
	if err := h.userSvc.RemoveInventoryItem(
		r.Context(), u.ID, mux.Vars(r)["itemId"],
	); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// queryInt returns the integer value of the given query param, 0 if not
// defined.
func queryInt(r *http.Request, key string) (int, error) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, errInvalidQueryParam(key)
	}
	return n, nil
}
