package v1

import (
	"net/http"
	"os"
	"strconv"

	"github.com/vmunix/snapguess/internal/catalog"
)

// VerifyProblem describes a problem found during verification.
type VerifyProblem struct {
	GameID int64    `json:"game_id"`
	Slug   string   `json:"slug"`
	Title  string   `json:"title"`
	Issue  string   `json:"issue"`
	Fixes  []string `json:"suggested_fixes"`
}

// VerifyResponse is the response for GET /verify.
type VerifyResponse struct {
	Connections struct {
		Provider    bool   `json:"provider"`
		ProviderErr string `json:"provider_error,omitempty"`
	} `json:"connections"`
	Checked  int             `json:"checked"`
	Passed   int             `json:"passed"`
	Problems []VerifyProblem `json:"problems"`
}

// verify checks provider connectivity and that every catalog game still
// has its screenshot assets on disk.
func (s *Server) verify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Check for specific game ID
	idStr := r.URL.Query().Get("id")
	var filterID *int64
	if idStr != "" {
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_ID", "invalid id")
			return
		}
		filterID = &id
	}

	resp := VerifyResponse{Problems: []VerifyProblem{}}

	if s.deps.Provider != nil {
		_, err := s.deps.Provider.ListGames(ctx, 1, 1, 0)
		resp.Connections.Provider = err == nil
		if err != nil {
			resp.Connections.ProviderErr = err.Error()
		}
	}

	games, _, err := s.deps.Catalog.ListGames(catalog.GameFilter{Limit: 10000})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", "list games: "+err.Error())
		return
	}

	for _, g := range games {
		if filterID != nil && g.ID != *filterID {
			continue
		}
		resp.Checked++

		shots, err := s.deps.Catalog.ListScreenshots(g.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "DB_ERROR", "list screenshots: "+err.Error())
			return
		}

		if len(shots) == 0 {
			resp.Problems = append(resp.Problems, VerifyProblem{
				GameID: g.ID,
				Slug:   g.Slug,
				Title:  g.Title,
				Issue:  "no screenshots in catalog",
				Fixes:  []string{"delete the game and re-import"},
			})
			continue
		}

		missing := 0
		for _, sh := range shots {
			if _, err := os.Stat(sh.LocalPath); err != nil {
				missing++
			}
		}
		if missing > 0 {
			resp.Problems = append(resp.Problems, VerifyProblem{
				GameID: g.ID,
				Slug:   g.Slug,
				Title:  g.Title,
				Issue:  strconv.Itoa(missing) + " screenshot file(s) missing on disk",
				Fixes: []string{
					"check the assets root has not moved",
					"re-import to re-download missing assets",
				},
			})
			continue
		}

		resp.Passed++
	}

	writeJSON(w, http.StatusOK, resp)
}

