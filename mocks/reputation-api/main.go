// Mock IP reputation API for local development. Serves canned privacy
// verdicts in the same shape as the production service.
//
// Usage:
//
//	go run . -addr :9101
//	curl localhost:9101/198.51.100.7/json?token=dev
package main

import (
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"strings"
)

type privacy struct {
	VPN     bool `json:"vpn"`
	Proxy   bool `json:"proxy"`
	Hosting bool `json:"hosting"`
}

type verdict struct {
	IP      string  `json:"ip"`
	Bogon   bool    `json:"bogon,omitempty"`
	Privacy privacy `json:"privacy"`
}

// Canned verdicts keyed by address. Anything not listed is clean.
var verdicts = map[string]verdict{
	"198.51.100.7":  {Bogon: false, Privacy: privacy{VPN: true}},
	"198.51.100.8":  {Bogon: false, Privacy: privacy{Proxy: true}},
	"198.51.100.9":  {Bogon: false, Privacy: privacy{Hosting: true}},
	"192.0.2.1":     {Bogon: true},
	"203.0.113.200": {Bogon: false, Privacy: privacy{VPN: true, Hosting: true}},
}

func main() {
	addr := flag.String("addr", ":9101", "listen address")
	flag.Parse()

	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/")
		ip, ok := strings.CutSuffix(path, "/json")
		if !ok || ip == "" {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("token") == "" {
			http.Error(w, `{"error":"token required"}`, http.StatusForbidden)
			return
		}

		v := verdicts[ip]
		v.IP = ip
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(v); err != nil {
			log.Printf("encode verdict: %v", err)
		}
	})

	log.Printf("mock reputation api listening on %s", *addr)
	log.Fatal(http.ListenAndServe(*addr, nil))
}
