package app

import (
	"encoding/json"
	"net/http"
)

type healthHandler struct {
	events EventSink
}

func NewHealthHandler(events EventSink) http.Handler {
	return &healthHandler{events: events}
}

// Il calcolo non dipende dai sink: un breaker aperto rende lo stato
// "degraded", mai "down".
func (h *healthHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	type status struct {
		Status string            `json:"status"`
		Sinks  map[string]string `json:"sinks"`
	}
	st := status{Status: "ok", Sinks: map[string]string{}}
	if h.events != nil {
		st.Sinks = h.events.States()
	}
	for _, state := range st.Sinks {
		if state != "closed" {
			st.Status = "degraded"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(st)
}

// Handler /readyz: 200 solo se i template sono stati caricati.
type readyHandler struct {
	ready bool
}

func NewReadyHandler(ready bool) http.Handler {
	return &readyHandler{ready: ready}
}

func (h *readyHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if !h.ready {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	type resp struct {
		Ready bool `json:"ready"`
	}
	_ = json.NewEncoder(w).Encode(resp{Ready: h.ready})
}
