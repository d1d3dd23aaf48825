// Mock versioned object store for local development. Implements the ledger
// contract: GET/PUT /v1/ledgers/{id} with content-hash version tokens and a
// 409 on stale writes.
package main

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"strings"
	"sync"
)

type payload struct {
	Content string `json:"content"`
	Version string `json:"version,omitempty"`
}

type store struct {
	mu      sync.RWMutex
	ledgers map[string]payload
}

func newStore() *store {
	return &store{ledgers: make(map[string]payload)}
}

func version(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

func (s *store) handle(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/ledgers/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.mu.RLock()
		l, ok := s.ledgers[id]
		s.mu.RUnlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, http.StatusOK, l)

	case http.MethodPut:
		var req payload
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		current, exists := s.ledgers[id]
		if exists && current.Version != req.Version {
			http.Error(w, `{"error":"version conflict"}`, http.StatusConflict)
			return
		}
		if !exists && req.Version != "" {
			http.Error(w, `{"error":"version conflict"}`, http.StatusConflict)
			return
		}

		next := payload{Content: req.Content, Version: version(req.Content)}
		s.ledgers[id] = next
		status := http.StatusOK
		if !exists {
			status = http.StatusCreated
		}
		writeJSON(w, status, payload{Version: next.Version})

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func writeJSON(w http.ResponseWriter, status int, body payload) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("encode response: %v", err)
	}
}

func main() {
	addr := flag.String("addr", ":9102", "listen address")
	flag.Parse()

	s := newStore()
	http.HandleFunc("/v1/ledgers/", s.handle)

	log.Printf("mock ledger store listening on %s", *addr)
	log.Fatal(http.ListenAndServe(*addr, nil))
}
