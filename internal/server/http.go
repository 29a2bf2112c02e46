package server

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"frontierbot/internal/finance"
)

func NewHTTPMux(webhook http.HandlerFunc) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/telegram/webhook", webhook)
	mux.HandleFunc("/frontier.png", FrontierPNGHandler)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(200) })
	return mux
}

func ListenAndServe(addr string, mux *http.ServeMux) error {
	return http.ListenAndServe(addr, mux)
}

// FrontierPNGHandler serves the rendered frontier chart; query parameters
// mirror the bot's /frontier arguments (years, rf, short, cap, pts).
func FrontierPNGHandler(w http.ResponseWriter, r *http.Request) {
	cfg := finance.DefaultConfig()
	q := r.URL.Query()
	if v, err := strconv.Atoi(q.Get("years")); err == nil {
		cfg.Years = v
	}
	if v, err := strconv.ParseFloat(q.Get("rf"), 64); err == nil {
		cfg.RiskFree = v / 100.0
	}
	if q.Get("short") == "1" || q.Get("short") == "true" {
		cfg.AllowShort = true
	}
	if v, err := strconv.ParseFloat(q.Get("cap"), 64); err == nil {
		cfg.BTCCap = v
	}
	if v, err := strconv.Atoi(q.Get("pts")); err == nil {
		cfg.Points = v
	}
	cfg = cfg.Clamp()

	_, stats, err := finance.StatsForYears(cfg.Years)
	if err != nil {
		log.Printf("http: frontier data unavailable: %v", err)
		http.Error(w, "price data unavailable: "+err.Error(), http.StatusBadGateway)
		return
	}
	set, err := finance.ComputeFrontier(stats, cfg)
	if err != nil {
		if errors.Is(err, finance.ErrNoFeasibleFrontier) {
			http.Error(w, "no feasible frontier points; relax constraints", http.StatusUnprocessableEntity)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	img, err := finance.RenderFrontierChart(set, cfg)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(img)
}
