// Package web exposes a minimal read-only status endpoint over the
// handshake assembler and device registry, grounded on the teacher's
// gorilla/mux handler style
// (internal/adapters/web/handlers/wps_handler.go) but trimmed to the
// two read-only routes SPEC_FULL.md §4 calls for: no attack-control
// surface is exposed here, since starting/stopping attacks is driven by
// the tick loop, not by HTTP requests.
package web

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/lcalzada-xor/wmapattack/internal/adapters/sniffer/handshake"
	"github.com/lcalzada-xor/wmapattack/internal/core/domain"
)

// Registry is the subset of ports.DeviceRegistry plus enumeration the
// status handler needs; kept narrow so this package doesn't depend on
// the full registry adapter.
type Registry interface {
	GetAccessPoint(mac domain.MacAddress) (*domain.AccessPoint, bool)
	All() []*domain.AccessPoint
}

// Handler serves the read-only status routes.
type Handler struct {
	Registry Registry
	Storage  *handshake.Storage
}

// NewHandler builds a Handler.
func NewHandler(registry Registry, storage *handshake.Storage) *Handler {
	return &Handler{Registry: registry, Storage: storage}
}

// Router builds the gorilla/mux router exposing GET /handshakes and
// GET /aps/{mac}.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/handshakes", h.handleHandshakes).Methods(http.MethodGet)
	r.HandleFunc("/aps/{mac}", h.handleAP).Methods(http.MethodGet)
	return r
}

type handshakeSummary struct {
	AP        string `json:"ap"`
	Client    string `json:"client"`
	Complete  bool   `json:"complete"`
	HasPmkid  bool   `json:"has_pmkid"`
	Essid     string `json:"essid,omitempty"`
	Summary   string `json:"summary"`
}

// handleHandshakes lists every assembled handshake attempt across every
// AP the registry knows about.
func (h *Handler) handleHandshakes(w http.ResponseWriter, r *http.Request) {
	var out []handshakeSummary
	for _, ap := range h.Registry.All() {
		byClient := h.Storage.FindHandshakesByAP(ap.MAC)
		for client, attempts := range byClient {
			for _, hs := range attempts {
				out = append(out, handshakeSummary{
					AP:       ap.MAC.String(),
					Client:   client.String(),
					Complete: hs.Complete(),
					HasPmkid: hs.HasPmkidValue(),
					Essid:    hs.Essid,
					Summary:  hs.String(),
				})
			}
		}
	}
	writeJSON(w, out)
}

type apSummary struct {
	MAC          string `json:"mac"`
	SSID         string `json:"ssid,omitempty"`
	State        int    `json:"auth_state"`
	Interactions uint64 `json:"interactions"`
	Clients      int    `json:"clients"`
	HasComplete  bool   `json:"has_complete_handshake"`
	HasM1        bool   `json:"has_m1"`
}

// handleAP returns a single AP's attack-engine and handshake-assembler
// state.
func (h *Handler) handleAP(w http.ResponseWriter, r *http.Request) {
	macStr := mux.Vars(r)["mac"]
	mac, err := domain.ParseMAC(macStr)
	if err != nil {
		http.Error(w, "invalid mac address", http.StatusBadRequest)
		return
	}
	ap, ok := h.Registry.GetAccessPoint(mac)
	if !ok {
		http.Error(w, "ap not found", http.StatusNotFound)
		return
	}

	summary := apSummary{
		MAC:          ap.MAC.String(),
		State:        ap.AuthSequence.State,
		Interactions: ap.Interactions,
		Clients:      len(ap.Clients),
		HasComplete:  h.Storage.HasCompleteHandshakeForAP(mac),
		HasM1:        h.Storage.HasM1ForAP(mac),
	}
	if ap.SSID != nil {
		summary.SSID = *ap.SSID
	}
	writeJSON(w, summary)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if v == nil {
		v = []handshakeSummary{}
	}
	_ = json.NewEncoder(w).Encode(v)
}
