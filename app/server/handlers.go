package server

import (
	"errors"
	"net/http"
	"strconv"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"

	"github.com/umputun/random-theme/app/enum"
	"github.com/umputun/random-theme/app/history"
)

// handleCurrent returns the stored theme.
// GET /api/v1/theme
func (s *Server) handleCurrent(w http.ResponseWriter, r *http.Request) {
	th, ok, err := s.sw.Current(r.Context())
	if err != nil {
		rest.SendErrorJSON(w, r, log.Default(), http.StatusInternalServerError, err, "failed to get current theme")
		return
	}
	if !ok {
		rest.SendErrorJSON(w, r, log.Default(), http.StatusNotFound, errors.New("no theme stored"), "theme not set")
		return
	}
	rest.RenderJSON(w, th)
}

// handleSwitch picks and stores a new theme from the group.
// POST /api/v1/theme/{group}
func (s *Server) handleSwitch(w http.ResponseWriter, r *http.Request) {
	g, err := enum.ParseGroup(r.PathValue("group"))
	if err != nil {
		rest.SendErrorJSON(w, r, log.Default(), http.StatusBadRequest, err, "invalid group")
		return
	}

	res, err := s.sw.Switch(r.Context(), g)
	if err != nil {
		rest.SendErrorJSON(w, r, log.Default(), http.StatusInternalServerError, err, "failed to switch theme")
		return
	}
	rest.RenderJSON(w, res)
}

// handleCatalog lists themes of the group.
// GET /api/v1/catalog/{group}
func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	g, err := enum.ParseGroup(r.PathValue("group"))
	if err != nil {
		rest.SendErrorJSON(w, r, log.Default(), http.StatusBadRequest, err, "invalid group")
		return
	}
	rest.RenderJSON(w, s.sw.Pool(g))
}

// handleHistory returns recorded theme changes, newest first.
// GET /api/v1/history?limit=N
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		rest.SendErrorJSON(w, r, log.Default(), http.StatusNotFound, errors.New("git history is not enabled"), "history is disabled")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil && n < 0 {
			err = errors.New("negative limit")
		}
		if err != nil {
			rest.SendErrorJSON(w, r, log.Default(), http.StatusBadRequest, err, "invalid limit")
			return
		}
		limit = n
	}

	entries, err := s.history.History(s.sw.Key(), limit)
	if err != nil {
		rest.SendErrorJSON(w, r, log.Default(), http.StatusInternalServerError, err, "failed to get history")
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	log.Printf("[DEBUG] history: %d entries", len(entries))
	rest.RenderJSON(w, entries)
}
