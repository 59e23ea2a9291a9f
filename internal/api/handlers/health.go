package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"
)

// CheckFunc reports whether a backing dependency is reachable.
type CheckFunc func(ctx context.Context) error

const checkTimeout = 2 * time.Second

// HealthHandler serves liveness and readiness. Only registered dependencies
// are probed; the service runs fine without Postgres or Redis.
type HealthHandler struct {
	variant string
	names   []string
	checks  map[string]CheckFunc
}

func NewHealthHandler(variant string) *HealthHandler {
	return &HealthHandler{variant: variant, checks: map[string]CheckFunc{}}
}

// AddCheck registers a readiness probe under name.
func (h *HealthHandler) AddCheck(name string, fn CheckFunc) {
	if _, ok := h.checks[name]; !ok {
		h.names = append(h.names, name)
		sort.Strings(h.names)
	}
	h.checks[name] = fn
}

func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "variant": h.variant})
}

// Readyz runs every probe concurrently and fails if any of them does.
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	results := make([]string, len(h.names))
	var wg sync.WaitGroup
	for i, name := range h.names {
		wg.Add(1)
		go func(i int, fn CheckFunc) {
			defer wg.Done()
			if err := fn(ctx); err != nil {
				results[i] = "unhealthy: " + err.Error()
				return
			}
			results[i] = "ok"
		}(i, h.checks[name])
	}
	wg.Wait()

	status := http.StatusOK
	checks := make(map[string]string, len(h.names))
	for i, name := range h.names {
		checks[name] = results[i]
		if results[i] != "ok" {
			status = http.StatusServiceUnavailable
		}
	}

	state := "ok"
	if status != http.StatusOK {
		state = "unhealthy"
	}
	writeJSON(w, status, map[string]any{"status": state, "checks": checks})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
