package api

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/RobinCoderZhao/newsquality/internal/quality"
	"github.com/RobinCoderZhao/newsquality/internal/store"
)

// handleCheck scores a batch in any accepted input shape. Like the CLI it
// fails open: malformed input yields 200 with an empty array, and the
// reason is reported in the X-Quality-Error header.
func (s *Server) handleCheck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts := quality.Options{IncludeEvidence: truthy(r.URL.Query().Get("evidence"))}

		var out bytes.Buffer
		scored, err := quality.Check(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes), &out, opts)
		if err != nil {
			s.logger.Warn("quality check failed", "client", clientID(r), "error", err)
			w.Header().Set("X-Quality-Error", sanitizeHeader(err.Error()))
		}

		if s.store != nil && len(scored) > 0 {
			recs := make([]store.Record, 0, len(scored))
			for _, sc := range scored {
				recs = append(recs, store.NewRecord(sc, "", ""))
			}
			if run, err := s.store.SaveRun(r.Context(), "api:"+clientID(r), recs); err != nil {
				s.logger.Error("failed to store results", "error", err)
			} else {
				w.Header().Set("X-Quality-Run", run.ID)
			}
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write(out.Bytes())
	}
}

func (s *Server) handleListResults() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.store == nil {
			respondError(w, http.StatusServiceUnavailable, "result store is not configured")
			return
		}
		q := r.URL.Query()
		f := store.Filter{RunID: q.Get("run"), Badge: quality.Badge(q.Get("badge"))}
		if v := q.Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				respondError(w, http.StatusBadRequest, "limit must be a non-negative integer")
				return
			}
			f.Limit = n
		}

		recs, err := s.store.ListResults(r.Context(), f)
		if err != nil {
			s.logger.Error("failed to list results", "error", err)
			respondError(w, http.StatusInternalServerError, "failed to list results")
			return
		}
		if recs == nil {
			recs = []store.Record{}
		}
		respondJSON(w, http.StatusOK, recs)
	}
}

func (s *Server) handleLatestRun() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.store == nil {
			respondError(w, http.StatusServiceUnavailable, "result store is not configured")
			return
		}
		run, err := s.store.LatestRun(r.Context())
		if err != nil {
			s.logger.Error("failed to load latest run", "error", err)
			respondError(w, http.StatusInternalServerError, "failed to load latest run")
			return
		}
		if run == nil {
			respondError(w, http.StatusNotFound, "no runs yet")
			return
		}
		recs, err := s.store.RunResults(r.Context(), run.ID)
		if err != nil {
			s.logger.Error("failed to load run results", "run_id", run.ID, "error", err)
			respondError(w, http.StatusInternalServerError, "failed to load run results")
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"run": run, "results": recs})
	}
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

const maxHeaderValue = 200

// sanitizeHeader keeps header values on one line and at most
// maxHeaderValue bytes without splitting a rune.
func sanitizeHeader(v string) string {
	v = strings.NewReplacer("\r", " ", "\n", " ").Replace(v)
	if len(v) <= maxHeaderValue {
		return v
	}
	cut := maxHeaderValue
	for cut > 0 && !utf8.RuneStart(v[cut]) {
		cut--
	}
	return v[:cut]
}
