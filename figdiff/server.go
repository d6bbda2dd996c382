package figdiff

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hazyhaar/figdiff/figdiff/internal/report"
	"github.com/hazyhaar/figdiff/figdiff/internal/store"
	"github.com/hazyhaar/figdiff/horosafe"
	"github.com/hazyhaar/figdiff/shield"
)

// Server serves reports and run history over HTTP.
type Server struct {
	runner *Runner
	logger *slog.Logger
}

// NewServer creates a Server for runner. History routes need the runner
// to have a store.
func NewServer(runner *Runner, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{runner: runner, logger: logger}
}

// Handler returns the router:
//
//	GET  /health          liveness
//	GET  /                latest report
//	GET  /runs/{id}/*     report files of a run
//	GET  /api/runs        run list (?limit=)
//	POST /api/runs        start a run
//	GET  /api/runs/{id}   run with results
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	for _, mw := range shield.DefaultStack(s.logger) {
		r.Use(mw)
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/", s.handleLatest)
	r.Get("/runs/{id}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, r.URL.Path+"/", http.StatusMovedPermanently)
	})
	r.Get("/runs/{id}/*", s.handleRunFile)

	r.Route("/api/runs", func(r chi.Router) {
		r.Get("/", s.handleListRuns)
		r.Post("/", s.handleStartRun)
		r.Get("/{id}", s.handleGetRun)
	})
	return r
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	st := s.runner.Store()
	if st == nil {
		s.serveFile(w, r, s.runner.Config().OutDir, report.IndexFile)
		return
	}
	run, err := st.LatestRun(r.Context())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	http.Redirect(w, r, "/runs/"+run.ID+"/", http.StatusFound)
}

func (s *Server) handleRunFile(w http.ResponseWriter, r *http.Request) {
	st := s.runner.Store()
	if st == nil {
		writeError(w, http.StatusNotFound, ErrNoStore)
		return
	}
	run, err := st.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	name := chi.URLParam(r, "*")
	if name == "" {
		name = report.IndexFile
	}
	s.serveFile(w, r, run.Dir, name)
}

func (s *Server) serveFile(w http.ResponseWriter, r *http.Request, dir, name string) {
	p, err := horosafe.SafePath(dir, name)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if _, err := os.Stat(p); err != nil {
		writeError(w, http.StatusNotFound, errors.New("not found"))
		return
	}
	http.ServeFile(w, r, p)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	st := s.runner.Store()
	if st == nil {
		writeError(w, http.StatusNotFound, ErrNoStore)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := st.ListRuns(r.Context(), limit)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	st := s.runner.Store()
	if st == nil {
		writeError(w, http.StatusNotFound, ErrNoStore)
		return
	}
	run, err := st.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleStartRun(w http.ResponseWriter, r *http.Request) {
	res, err := s.runner.Run(r.Context())
	if errors.Is(err, ErrBusy) {
		writeError(w, http.StatusConflict, err)
		return
	}
	if err != nil {
		s.logger.Error("figdiff: run via http failed", "error", err)
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusCreated, res.Summary())
}

func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	s.logger.Error("figdiff: store", "error", err)
	writeError(w, http.StatusInternalServerError, err)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
