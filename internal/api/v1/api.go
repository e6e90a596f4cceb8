// Package v1 implements the native REST API.
package v1

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/vmunix/snapguess/internal/catalog"
	"github.com/vmunix/snapguess/internal/importer"
	"github.com/vmunix/snapguess/internal/importjob"
)

// Server is the v1 API server.
type Server struct {
	deps ServerDeps
}

// New creates a new v1 API server.
func New(deps ServerDeps) (*Server, error) {
	if err := deps.Validate(); err != nil {
		return nil, err
	}
	return &Server{deps: deps}, nil
}

// RegisterRoutes registers API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	// Imports
	mux.HandleFunc("POST /api/v1/import", s.startImport)
	mux.HandleFunc("GET /api/v1/import", s.listImports)
	mux.HandleFunc("GET /api/v1/import/active", s.getActiveImport)
	mux.HandleFunc("GET /api/v1/import/{id}", s.getImport)
	mux.HandleFunc("POST /api/v1/import/{id}/pause", s.pauseImport)
	mux.HandleFunc("POST /api/v1/import/{id}/resume", s.resumeImport)
	mux.HandleFunc("GET /api/v1/import/{id}/events", s.listImportEvents)

	// Catalog
	mux.HandleFunc("GET /api/v1/games", s.listGames)
	mux.HandleFunc("GET /api/v1/games/{id}", s.getGame)
	mux.HandleFunc("GET /api/v1/games/{id}/screenshots", s.listScreenshots)

	// Events
	mux.HandleFunc("GET /api/v1/events", s.listEvents)

	// System
	mux.HandleFunc("GET /api/v1/status", s.getStatus)
	mux.HandleFunc("GET /api/v1/verify", s.verify)
}

// Error response
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: message, Code: errCode})
}

func writeJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(data)
}

// pathID extracts an integer ID from the URL path.
func pathID(r *http.Request) (int64, error) {
	idStr := r.PathValue("id")
	if idStr == "" {
		return 0, fmt.Errorf("missing path parameter: id")
	}
	return strconv.ParseInt(idStr, 10, 64)
}

// queryInt extracts an optional integer from query string.
func queryInt(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return i
}

// queryString extracts an optional string from query string.
func queryString(r *http.Request, name string) *string {
	val := r.URL.Query().Get(name)
	if val == "" {
		return nil
	}
	return &val
}

// Import handlers

func (s *Server) startImport(w http.ResponseWriter, r *http.Request) {
	var req startImportRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
			return
		}
	}

	cfg := s.deps.Defaults
	if req.BatchSize != 0 {
		cfg.BatchSize = req.BatchSize
	}
	if req.MinQuality != 0 {
		cfg.MinQuality = req.MinQuality
	}
	if req.ScreenshotsPerGame != 0 {
		cfg.ScreenshotsPerGame = req.ScreenshotsPerGame
	}
	if req.TargetGames != 0 {
		cfg.TargetGames = req.TargetGames
	}

	job, err := s.deps.Importer.Start(cfg)
	if err != nil {
		switch {
		case errors.Is(err, importer.ErrImportActive):
			writeError(w, http.StatusConflict, "IMPORT_ACTIVE", "An import is already active")
		case errors.Is(err, importer.ErrInvalidConfig):
			writeError(w, http.StatusBadRequest, "INVALID_CONFIG", err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "IMPORT_ERROR", err.Error())
		}
		return
	}

	writeJSON(w, http.StatusCreated, jobToResponse(job))
}

func (s *Server) listImports(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	jobs, err := s.deps.Importer.List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}

	resp := listJobsResponse{Items: make([]jobResponse, len(jobs)), Total: len(jobs)}
	for i, j := range jobs {
		resp.Items[i] = jobToResponse(j)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getActiveImport(w http.ResponseWriter, r *http.Request) {
	job, err := s.deps.Importer.GetActive()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	if job == nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "No active import")
		return
	}
	writeJSON(w, http.StatusOK, jobToResponse(job))
}

func (s *Server) getImport(w http.ResponseWriter, r *http.Request) {
	job, err := s.deps.Importer.Get(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, importjob.ErrNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Import not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, jobToResponse(job))
}

func (s *Server) pauseImport(w http.ResponseWriter, r *http.Request) {
	job, err := s.deps.Importer.Pause(r.PathValue("id"))
	if err != nil {
		switch {
		case errors.Is(err, importjob.ErrNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Import not found")
		case errors.Is(err, importer.ErrNotRunning):
			writeError(w, http.StatusConflict, "NOT_RUNNING", "Import is not running")
		default:
			writeError(w, http.StatusInternalServerError, "IMPORT_ERROR", err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, jobToResponse(job))
}

func (s *Server) resumeImport(w http.ResponseWriter, r *http.Request) {
	job, err := s.deps.Importer.Resume(r.PathValue("id"))
	if err != nil {
		switch {
		case errors.Is(err, importjob.ErrNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Import not found")
		case errors.Is(err, importer.ErrNotPaused):
			writeError(w, http.StatusConflict, "NOT_PAUSED", "Import is not paused")
		case errors.Is(err, importer.ErrImportActive):
			writeError(w, http.StatusConflict, "IMPORT_ACTIVE", "Another import is active")
		default:
			writeError(w, http.StatusInternalServerError, "IMPORT_ERROR", err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, jobToResponse(job))
}

// Catalog handlers

func (s *Server) listGames(w http.ResponseWriter, r *http.Request) {
	// ?q= switches to fuzzy title search for guess checking.
	if q := queryString(r, "q"); q != nil {
		s.searchGames(w, r, *q)
		return
	}

	filter := catalog.GameFilter{
		Title:  queryString(r, "title"),
		Genre:  queryString(r, "genre"),
		Limit:  queryInt(r, "limit", 50),
		Offset: queryInt(r, "offset", 0),
	}
	if min := queryString(r, "min_score"); min != nil {
		v, err := strconv.Atoi(*min)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_FILTER", "min_score must be an integer")
			return
		}
		filter.MinScore = &v
	}

	games, total, err := s.deps.Catalog.ListGames(filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}

	resp := listGamesResponse{
		Items:  make([]gameResponse, len(games)),
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}
	for i, g := range games {
		resp.Items[i] = gameToResponse(g, 0)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) searchGames(w http.ResponseWriter, r *http.Request, query string) {
	limit := queryInt(r, "limit", 10)
	matches, err := s.deps.Catalog.SearchTitles(query, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}

	resp := make([]matchResponse, len(matches))
	for i, m := range matches {
		resp[i] = matchResponse{Slug: m.Game.Slug, Title: m.Game.Title, Score: m.Score}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getGame(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", err.Error())
		return
	}

	g, err := s.deps.Catalog.GetGame(id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Game not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}

	shots, err := s.deps.Catalog.ListScreenshots(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, gameToResponse(g, len(shots)))
}

func (s *Server) listScreenshots(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", err.Error())
		return
	}

	if _, err := s.deps.Catalog.GetGame(id); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Game not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}

	shots, err := s.deps.Catalog.ListScreenshots(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}

	resp := make([]screenshotResponse, len(shots))
	for i, sh := range shots {
		resp[i] = screenshotResponse{
			ID:         sh.ID,
			GameID:     sh.GameID,
			LocalPath:  sh.LocalPath,
			SourceURL:  sh.SourceURL,
			Difficulty: string(sh.Difficulty),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func gameToResponse(g *catalog.Game, screenshots int) gameResponse {
	return gameResponse{
		ID:           g.ID,
		Slug:         g.Slug,
		Title:        g.Title,
		Released:     g.Released,
		Developer:    g.Developer,
		Publisher:    g.Publisher,
		Genres:       g.Genres,
		Platforms:    g.Platforms,
		QualityScore: g.QualityScore,
		Screenshots:  screenshots,
	}
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	games, err := s.deps.Catalog.CountGames()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	shots, err := s.deps.Catalog.CountScreenshots()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"games":       games,
		"screenshots": shots,
	})
}
