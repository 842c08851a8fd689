// internal/api/handlers.go
package api

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"
	"time"

	"investor-match-workers/internal/common/database"
	"investor-match-workers/internal/common/errors"
	"investor-match-workers/internal/matching"
	"investor-match-workers/internal/models"
	"investor-match-workers/internal/store"

	"github.com/gorilla/mux"
)

const maxBodyBytes = 1 << 20

type matchesResponse struct {
	StartupID       string                     `json:"startupId"`
	Matches         []matching.ScoredCandidate `json:"matches"`
	TotalCandidates int                        `json:"totalCandidates"`
	EligibleCount   int                        `json:"eligibleCount"`
	HasMore         bool                       `json:"hasMore"`
	RankedAt        string                     `json:"rankedAt"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) ready(w http.ResponseWriter, r *http.Request) {
	failures := database.CheckAll(r.Context(), 2*time.Second, s.deps.Health)
	if len(failures) == 0 {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
		return
	}

	checks := make(map[string]string, len(failures))
	for name, err := range failures {
		checks[name] = err.Error()
	}
	writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
		"status": "not ready",
		"checks": checks,
	})
}

func (s *Server) listInvestors(w http.ResponseWriter, r *http.Request) {
	investors, err := s.deps.Investors.ListInvestors(r.Context())
	if err != nil {
		s.storeError(w, "list_investors", err)
		return
	}
	if investors == nil {
		investors = []models.Investor{}
	}
	writeJSON(w, http.StatusOK, investors)
}

func (s *Server) getInvestor(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	inv, err := s.deps.Investors.GetInvestor(r.Context(), id)
	if stderrors.Is(err, store.ErrNotFound) {
		writeStandardError(w, errors.NewInvestorNotFoundError(id))
		return
	}
	if err != nil {
		s.storeError(w, "get_investor", err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (s *Server) createInvestor(w http.ResponseWriter, r *http.Request) {
	var inv models.Investor
	if !s.decode(w, r, &inv) {
		return
	}
	if err := inv.Validate(); err != nil {
		writeStandardError(w, errors.NewProfileInvalidError(err.Error()))
		return
	}

	if err := s.deps.Investors.CreateInvestor(r.Context(), &inv); err != nil {
		s.storeError(w, "create_investor", err)
		return
	}

	if s.deps.Indexer != nil {
		if err := s.deps.Indexer.IndexInvestor(r.Context(), &inv); err != nil {
			s.logger.Warn("investor stored but not indexed", map[string]interface{}{
				"investorId": inv.ID,
				"error":      err,
			})
		}
	}

	writeJSON(w, http.StatusCreated, inv)
}

func (s *Server) listStartups(w http.ResponseWriter, r *http.Request) {
	startups, err := s.deps.Startups.ListStartups(r.Context())
	if err != nil {
		s.storeError(w, "list_startups", err)
		return
	}
	if startups == nil {
		startups = []models.Startup{}
	}
	writeJSON(w, http.StatusOK, startups)
}

func (s *Server) getStartup(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	st, err := s.deps.Startups.GetStartup(r.Context(), id)
	if stderrors.Is(err, store.ErrNotFound) {
		writeStandardError(w, errors.NewStartupNotFoundError(id))
		return
	}
	if err != nil {
		s.storeError(w, "get_startup", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) createStartup(w http.ResponseWriter, r *http.Request) {
	var st models.Startup
	if !s.decode(w, r, &st) {
		return
	}
	if err := st.Validate(); err != nil {
		writeStandardError(w, errors.NewProfileInvalidError(err.Error()))
		return
	}
	if err := s.deps.Startups.CreateStartup(r.Context(), &st); err != nil {
		s.storeError(w, "create_startup", err)
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

func (s *Server) investorMatches(w http.ResponseWriter, r *http.Request) {
	limit := s.maxItems
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, string(errors.ErrCodeInputValidationFailed), "limit must be a positive integer")
			return
		}
		if n < limit {
			limit = n
		}
	}

	res, err := s.deps.Ranking.MatchStartup(r.Context(), mux.Vars(r)["id"], "http")
	if err != nil {
		stdErr := errors.Normalize(err)
		if statusFor(stdErr.Code) == http.StatusInternalServerError {
			s.logger.Error("ranking failed", map[string]interface{}{
				"code":    string(stdErr.Code),
				"details": stdErr.Details,
			})
		}
		writeStandardError(w, err)
		return
	}

	matches := res.Matches
	if matches == nil {
		matches = []matching.ScoredCandidate{}
	}
	hasMore := len(matches) > limit
	if hasMore {
		matches = matches[:limit]
	}

	writeJSON(w, http.StatusOK, matchesResponse{
		StartupID:       res.StartupID,
		Matches:         matches,
		TotalCandidates: res.TotalCandidates,
		EligibleCount:   res.EligibleCount,
		HasMore:         hasMore,
		RankedAt:        res.RankedAt.Format(time.RFC3339),
	})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, string(errors.ErrCodeInputValidationFailed), "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func (s *Server) storeError(w http.ResponseWriter, op string, err error) {
	s.logger.Error("store call failed", map[string]interface{}{
		"operation": op,
		"error":     err,
	})
	if stderrors.Is(err, store.ErrInsertFailed) {
		writeStandardError(w, errors.NewDatabaseInsertFailedError(err))
		return
	}
	writeStandardError(w, errors.NewQueryExecutionFailedError(op, err))
}
