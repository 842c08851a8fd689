// internal/store/storetest/mocks.go
package storetest

import (
	"context"

	"investor-match-workers/internal/matching"
	"investor-match-workers/internal/models"

	"github.com/stretchr/testify/mock"
)

// Startups is a testify mock of store.StartupStore.
type Startups struct{ mock.Mock }

func (m *Startups) GetStartup(ctx context.Context, id string) (*models.Startup, error) {
	args := m.Called(ctx, id)
	s, _ := args.Get(0).(*models.Startup)
	return s, args.Error(1)
}

func (m *Startups) ListStartups(ctx context.Context) ([]models.Startup, error) {
	args := m.Called(ctx)
	s, _ := args.Get(0).([]models.Startup)
	return s, args.Error(1)
}

func (m *Startups) CreateStartup(ctx context.Context, s *models.Startup) error {
	return m.Called(ctx, s).Error(0)
}

// Investors is a testify mock of store.InvestorStore.
type Investors struct{ mock.Mock }

func (m *Investors) GetInvestor(ctx context.Context, id string) (*models.Investor, error) {
	args := m.Called(ctx, id)
	inv, _ := args.Get(0).(*models.Investor)
	return inv, args.Error(1)
}

func (m *Investors) ListInvestors(ctx context.Context) ([]models.Investor, error) {
	args := m.Called(ctx)
	inv, _ := args.Get(0).([]models.Investor)
	return inv, args.Error(1)
}

func (m *Investors) CreateInvestor(ctx context.Context, inv *models.Investor) error {
	return m.Called(ctx, inv).Error(0)
}

// Source is a testify mock of store.CandidateSource.
type Source struct{ mock.Mock }

func (m *Source) Candidates(ctx context.Context, seeker matching.FundingSeeker) ([]matching.Candidate, error) {
	args := m.Called(ctx, seeker)
	c, _ := args.Get(0).([]matching.Candidate)
	return c, args.Error(1)
}
