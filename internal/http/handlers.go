package http

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": s.now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.startedAt).Round(time.Second).String(),
	})
}

// handleReady checks the database and reports cache and limiter state.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, code := "ready", http.StatusOK
	checks := map[string]any{}

	if s.db == nil {
		checks["database"] = "not_configured"
	} else if err := s.db.Ping(ctx); err != nil {
		checks["database"] = fmt.Sprintf("failed: %v", err)
		status, code = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["database"] = "ok"
	}

	if s.svc.Exports == nil {
		checks["export"] = "disabled"
	} else {
		checks["export"] = "ok"
	}

	checks["cache"] = map[string]int{
		"overview_entries": s.overviews.Size(),
		"summary_entries":  s.summaries.Size(),
	}
	checks["rate_limiter"] = map[string]int{"active_clients": s.limiter.ActiveClients()}

	writeJSON(w, r, code, map[string]any{
		"status":    status,
		"timestamp": s.now().UTC().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics writes counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	tm := s.tracer.GetMetrics()
	rl := s.limiter.GetMetrics()
	sec := s.detector.GetMetrics()
	ov := s.overviews.Stats()
	sm := s.summaries.Stats()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	metric := func(name, help, typ string, samples ...string) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n", name, help, name, typ)
		for _, sample := range samples {
			fmt.Fprintf(w, "%s%s\n", name, sample)
		}
		fmt.Fprintln(w)
	}

	metric("http_requests_total", "Total number of HTTP requests", "counter",
		fmt.Sprintf(" %d", tm.TotalRequests))
	metric("http_requests_in_flight", "Requests being served", "gauge",
		fmt.Sprintf(" %d", tm.InFlight))
	metric("http_request_errors_total", "Requests answered with an error status", "counter",
		fmt.Sprintf(`{class="4xx"} %d`, tm.ClientErrors),
		fmt.Sprintf(`{class="5xx"} %d`, tm.ServerErrors))
	metric("http_response_time_avg_microseconds", "Average response time", "gauge",
		fmt.Sprintf(" %d", tm.AverageResponseTime))
	metric("cache_hits_total", "Cache hits", "counter",
		fmt.Sprintf(`{cache="overview"} %d`, ov.Hits),
		fmt.Sprintf(`{cache="summary"} %d`, sm.Hits))
	metric("cache_misses_total", "Cache misses", "counter",
		fmt.Sprintf(`{cache="overview"} %d`, ov.Misses),
		fmt.Sprintf(`{cache="summary"} %d`, sm.Misses))
	metric("cache_entries", "Current cache entries", "gauge",
		fmt.Sprintf(`{cache="overview"} %d`, ov.Entries),
		fmt.Sprintf(`{cache="summary"} %d`, sm.Entries))
	metric("rate_limit_hits_total", "Requests rejected by the rate limiter", "counter",
		fmt.Sprintf(" %d", rl.TotalHits))
	metric("active_rate_limit_clients", "Currently tracked rate limit clients", "gauge",
		fmt.Sprintf(" %d", rl.ClientCount))
	metric("suspicious_requests_total", "Suspicious requests detected", "counter",
		fmt.Sprintf(" %d", sec.SuspiciousRequests))
	metric("blocked_requests_total", "Suspicious requests refused", "counter",
		fmt.Sprintf(" %d", sec.BlockedRequests))
	metric("uptime_seconds", "Application uptime in seconds", "gauge",
		fmt.Sprintf(" %.0f", time.Since(s.startedAt).Seconds()))
}
