// internal/store/store.go
package store

import (
	"context"
	"errors"

	"investor-match-workers/internal/matching"
	"investor-match-workers/internal/models"
)

var (
	ErrNotFound      = errors.New("NOT_FOUND")
	ErrQueryFailed   = errors.New("QUERY_EXECUTION_FAILED")
	ErrInsertFailed  = errors.New("DATABASE_INSERT_FAILED")
	ErrSearchFailed  = errors.New("SEARCH_QUERY_FAILED")
	ErrIndexMissing  = errors.New("INDEX_NOT_FOUND")
	ErrSourceTripped = errors.New("CANDIDATE_SOURCE_UNAVAILABLE")
)

type StartupStore interface {
	GetStartup(ctx context.Context, id string) (*models.Startup, error)
	ListStartups(ctx context.Context) ([]models.Startup, error)
	CreateStartup(ctx context.Context, s *models.Startup) error
}

type InvestorStore interface {
	GetInvestor(ctx context.Context, id string) (*models.Investor, error)
	ListInvestors(ctx context.Context) ([]models.Investor, error)
	CreateInvestor(ctx context.Context, inv *models.Investor) error
}

// CandidateSource supplies the investor pool for one seeker. Implementations
// may prefilter, but must never drop a candidate the eligibility filter would keep.
type CandidateSource interface {
	Candidates(ctx context.Context, seeker matching.FundingSeeker) ([]matching.Candidate, error)
}
