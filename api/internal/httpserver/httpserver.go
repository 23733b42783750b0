// Package httpserver wires the liveness endpoints and the HTTP API onto a
// mux. The webhook handler (when enabled) registers on the same mux from
// main via tgbotapi.
package httpserver

import "net/http"

// RegisterHealth serves 200 "OK" on /, /health and /healthz so platform
// probes of either convention pass.
func RegisterHealth(mux *http.ServeMux) {
	ok := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("OK"))
	}
	mux.HandleFunc("/", ok)
	mux.HandleFunc("/health", ok)
	mux.HandleFunc("/healthz", ok)
}
