package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/rustyeddy/gridsniper/grid"
	"github.com/rustyeddy/gridsniper/publish"
)

type ledgerView struct {
	Ticker            string      `json:"ticker"`
	Slots             []grid.Slot `json:"slots"`
	ActiveSlots       int         `json:"active_slots"`
	NextSlot          int         `json:"next_slot,omitempty"`
	Full              bool        `json:"full"`
	AccumulatedProfit float64     `json:"accumulated_profit"`
	CurrentCapital    float64     `json:"current_capital"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

type priceRequest struct {
	Price float64 `json:"price"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if _, err := s.ledger.Snapshot(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "ticker": s.ledger.Ticker()})
}

func (s *Server) ledgerStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.ledger.Snapshot(r.Context())
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	next, ok := st.NextSlot()
	writeJSON(w, http.StatusOK, ledgerView{
		Ticker:            st.Ticker,
		Slots:             st.Slots,
		ActiveSlots:       st.ActiveCount(),
		NextSlot:          next,
		Full:              !ok,
		AccumulatedProfit: st.AccumulatedProfit,
		CurrentCapital:    st.CurrentCapital(),
		UpdatedAt:         st.UpdatedAt,
	})
}

func (s *Server) nextTrigger(w http.ResponseWriter, r *http.Request) {
	price, err := strconv.ParseFloat(r.URL.Query().Get("price"), 64)
	if err != nil || math.IsInf(price, 0) || math.IsNaN(price) {
		writeError(w, http.StatusBadRequest, "price query parameter must be a number")
		return
	}
	p, err := s.ledger.NextTriggerPrice(r.Context(), price)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"market_price": price, "trigger_price": p})
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	st, err := s.ledger.Snapshot(r.Context())
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st.History)
}

func (s *Server) reset(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.Reset(r.Context()); err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (s *Server) openSlot(w http.ResponseWriter, r *http.Request) {
	index, price, ok := slotRequest(w, r)
	if !ok {
		return
	}
	slot, err := s.ledger.Open(r.Context(), index, price)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, slot)
}

func (s *Server) closeSlot(w http.ResponseWriter, r *http.Request) {
	index, price, ok := slotRequest(w, r)
	if !ok {
		return
	}
	ct, err := s.ledger.Close(r.Context(), index, price)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ct)
}

func (s *Server) target(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid slot index")
		return
	}
	p, err := s.ledger.TargetExitPrice(r.Context(), index)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"slot": index, "target_price": p})
}

func (s *Server) latestSignal(w http.ResponseWriter, r *http.Request) {
	if s.signals == nil {
		writeError(w, http.StatusNotFound, "signal publishing is not configured")
		return
	}
	ticker := mux.Vars(r)["ticker"]
	sig, err := s.signals.Latest(r.Context(), ticker)
	switch {
	case errors.Is(err, publish.ErrNoSignal):
		writeError(w, http.StatusNotFound, err.Error())
	case err != nil:
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		writeJSON(w, http.StatusOK, sig)
	}
}

func slotRequest(w http.ResponseWriter, r *http.Request) (int, float64, bool) {
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid slot index")
		return 0, 0, false
	}
	var req priceRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid body: %v", err))
		return 0, 0, false
	}
	return index, req.Price, true
}

// statusFor maps ledger errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, grid.ErrSlotNotNext),
		errors.Is(err, grid.ErrSlotNotActive),
		errors.Is(err, grid.ErrLedgerFull),
		errors.Is(err, grid.ErrCapitalExhausted):
		return http.StatusConflict
	case errors.Is(err, grid.ErrInvalidPrice):
		return http.StatusBadRequest
	case errors.Is(err, grid.ErrPersistenceWrite),
		errors.Is(err, grid.ErrServiceStopped):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeLedgerError(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err.Error())
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
