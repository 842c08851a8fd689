// internal/ranking/service.go
package ranking

import (
	"context"
	stderrors "errors"
	"time"

	"investor-match-workers/internal/common/config"
	"investor-match-workers/internal/common/errors"
	"investor-match-workers/internal/common/metrics"
	"investor-match-workers/internal/common/observability"
	"investor-match-workers/internal/matching"
	"investor-match-workers/internal/store"

	"go.opentelemetry.io/otel/attribute"
)

// Request names the seeker either inline or by startup id. A nil Candidates
// slice means the pool is fetched from the candidate source; an empty one is
// ranked as given.
type Request struct {
	StartupID  string
	Seeker     *matching.FundingSeeker
	Candidates []matching.Candidate
}

type Result struct {
	StartupID       string
	Seeker          matching.FundingSeeker
	Matches         []matching.ScoredCandidate
	TotalCandidates int
	EligibleCount   int
	RankedAt        time.Time
}

// Service loads the inputs of a ranking run and hands them to matching.RankCandidates.
// Every error it returns is a *errors.StandardError.
type Service struct {
	startups   store.StartupStore
	source     store.CandidateSource
	sourceName string
	obs        *observability.Observability
	now        func() time.Time
}

func NewService(startups store.StartupStore, source store.CandidateSource, sourceName string, obs *observability.Observability) *Service {
	return &Service{
		startups:   startups,
		source:     source,
		sourceName: sourceName,
		obs:        obs,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// MatchStartup ranks the whole candidate pool for a stored startup.
func (s *Service) MatchStartup(ctx context.Context, startupID, origin string) (*Result, error) {
	return s.Rank(ctx, Request{StartupID: startupID}, origin)
}

// Rank resolves the seeker and pool, then ranks. origin labels the metrics ("job" or "http").
func (s *Service) Rank(ctx context.Context, req Request, origin string) (res *Result, err error) {
	ctx, span := s.obs.StartSpan(ctx, "ranking.rank",
		attribute.String("startup.id", req.StartupID),
		attribute.String("origin", origin),
	)
	defer func() { observability.EndSpan(span, err) }()

	seeker, err := s.resolveSeeker(ctx, req)
	if err != nil {
		return nil, err
	}

	pool := req.Candidates
	if pool == nil {
		pool, err = s.fetchPool(ctx, seeker)
		if err != nil {
			return nil, err
		}
	}

	ranked := matching.RankCandidates(seeker, pool)

	top := 0
	if len(ranked) > 0 {
		top = ranked[0].MatchScore
	}
	metrics.ObserveRanking(origin, len(pool), len(ranked), top)
	span.SetAttributes(
		attribute.Int("ranking.pool", len(pool)),
		attribute.Int("ranking.eligible", len(ranked)),
	)

	return &Result{
		StartupID:       req.StartupID,
		Seeker:          seeker,
		Matches:         ranked,
		TotalCandidates: len(pool),
		EligibleCount:   len(ranked),
		RankedAt:        s.now(),
	}, nil
}

func (s *Service) resolveSeeker(ctx context.Context, req Request) (matching.FundingSeeker, error) {
	if req.Seeker != nil {
		return *req.Seeker, nil
	}
	if req.StartupID == "" {
		return matching.FundingSeeker{}, errors.NewInputValidationFailedError("either startupId or seeker is required")
	}
	if s.startups == nil {
		return matching.FundingSeeker{}, errors.NewBusinessRuleError("No startup store configured", "startupId given without a startup store")
	}

	startup, err := s.startups.GetStartup(ctx, req.StartupID)
	switch {
	case stderrors.Is(err, store.ErrNotFound):
		return matching.FundingSeeker{}, errors.NewStartupNotFoundError(req.StartupID)
	case stderrors.Is(err, context.DeadlineExceeded):
		return matching.FundingSeeker{}, errors.NewQueryTimeoutError("get_startup")
	case err != nil:
		return matching.FundingSeeker{}, errors.NewQueryExecutionFailedError("get_startup", err)
	}
	return startup.ToSeeker(), nil
}

func (s *Service) fetchPool(ctx context.Context, seeker matching.FundingSeeker) ([]matching.Candidate, error) {
	if s.source == nil {
		return nil, errors.NewBusinessRuleError("No candidate source configured", "candidates omitted without a candidate source")
	}

	pool, err := s.source.Candidates(ctx, seeker)
	switch {
	case err == nil:
		return pool, nil
	case stderrors.Is(err, store.ErrIndexMissing):
		return nil, errors.NewIndexNotFoundError(s.sourceName)
	case stderrors.Is(err, context.DeadlineExceeded):
		if s.sourceName == config.CandidateSourceElasticsearch {
			return nil, errors.NewSearchTimeoutError(s.sourceName)
		}
		return nil, errors.NewQueryTimeoutError("candidate_pool")
	case stderrors.Is(err, store.ErrSearchFailed):
		return nil, errors.NewSearchQueryFailedError(s.sourceName, err)
	default:
		return nil, errors.NewCandidateSourceFailedError(s.sourceName, err)
	}
}
