package runnable

import (
	"encoding/json"
	"net/http"
	"snapshot-comparator/internal/myhttp"
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		myhttp.Logger(r.Context()).Error("failed to encode response", "error", err)
	}
}

func report(runner *Runner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		last := runner.Last()
		if last == nil {
			http.Error(w, "no comparison has finished yet", http.StatusNotFound)
			return
		}
		writeJSON(w, r, http.StatusOK, last)
	}
}

func compareNow(runner *Runner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, ok := runner.TryRun(r.Context())
		if !ok {
			http.Error(w, "a comparison is already running", http.StatusConflict)
			return
		}

		status := http.StatusOK
		if report.Error != "" {
			status = http.StatusUnprocessableEntity
		}
		writeJSON(w, r, status, report)
	}
}

func healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(http.StatusText(http.StatusOK)))
}
