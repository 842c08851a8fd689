// internal/store/postgres.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"investor-match-workers/internal/matching"
	"investor-match-workers/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Postgres persists startups and investors. List columns are JSONB.
type Postgres struct {
	db  *sql.DB
	now func() time.Time
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db, now: func() time.Time { return time.Now().UTC() }}
}

const startupColumns = `id, name, slug, tagline, description, industry, founders, funding_stage,
	funding_needed, funding_raised, looking_for_lead, website, contact_email, contact_phone,
	created_at, updated_at`

const investorColumns = `id, name, type, firm, location, investment_range, industries, funding_stages,
	portfolio, bio, website, email, investment_thesis, avg_check_size, lead_investor,
	created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanStartup(row rowScanner) (*models.Startup, error) {
	var (
		s                 models.Startup
		industry, founders []byte
		need, raised      sql.NullFloat64
	)
	err := row.Scan(&s.ID, &s.Name, &s.Slug, &s.Tagline, &s.Description, &industry, &founders,
		&s.FundingStage, &need, &raised, &s.LookingForLead, &s.Website, &s.ContactEmail,
		&s.ContactPhone, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := unmarshalColumn(industry, &s.Industry); err != nil {
		return nil, fmt.Errorf("startup %s industry: %w", s.ID, err)
	}
	if err := unmarshalColumn(founders, &s.Founders); err != nil {
		return nil, fmt.Errorf("startup %s founders: %w", s.ID, err)
	}
	if need.Valid {
		s.FundingNeeded = &need.Float64
	}
	if raised.Valid {
		s.FundingRaised = &raised.Float64
	}
	return &s, nil
}

func scanInvestor(row rowScanner) (*models.Investor, error) {
	var (
		inv                                          models.Investor
		location, rng, industries, stages, portfolio []byte
		avgCheck                                     sql.NullFloat64
	)
	err := row.Scan(&inv.ID, &inv.Name, &inv.Type, &inv.Firm, &location, &rng, &industries,
		&stages, &portfolio, &inv.Bio, &inv.Website, &inv.Email, &inv.InvestmentThesis,
		&avgCheck, &inv.LeadInvestor, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := unmarshalColumn(location, &inv.Location); err != nil {
		return nil, fmt.Errorf("investor %s location: %w", inv.ID, err)
	}
	if len(rng) > 0 && string(rng) != "null" {
		inv.InvestmentRange = &matching.InvestmentRange{}
		if err := json.Unmarshal(rng, inv.InvestmentRange); err != nil {
			return nil, fmt.Errorf("investor %s investment_range: %w", inv.ID, err)
		}
	}
	if err := unmarshalColumn(industries, &inv.Industries); err != nil {
		return nil, fmt.Errorf("investor %s industries: %w", inv.ID, err)
	}
	if err := unmarshalColumn(stages, &inv.FundingStages); err != nil {
		return nil, fmt.Errorf("investor %s funding_stages: %w", inv.ID, err)
	}
	if err := unmarshalColumn(portfolio, &inv.Portfolio); err != nil {
		return nil, fmt.Errorf("investor %s portfolio: %w", inv.ID, err)
	}
	inv.AvgCheckSize = avgCheck.Float64
	return &inv, nil
}

func unmarshalColumn(raw []byte, dst interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

func (p *Postgres) GetStartup(ctx context.Context, id string) (*models.Startup, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("startup %q: %w", id, ErrNotFound)
	}
	row := p.db.QueryRowContext(ctx, `SELECT `+startupColumns+` FROM startups WHERE id = $1`, id)
	s, err := scanStartup(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("startup %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get startup: %v", ErrQueryFailed, err)
	}
	return s, nil
}

func (p *Postgres) ListStartups(ctx context.Context) ([]models.Startup, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT `+startupColumns+` FROM startups ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("%w: list startups: %v", ErrQueryFailed, err)
	}
	defer rows.Close()

	out := []models.Startup{}
	for rows.Next() {
		s, err := scanStartup(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan startup: %v", ErrQueryFailed, err)
		}
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list startups: %v", ErrQueryFailed, err)
	}
	return out, nil
}

// CreateStartup assigns ID and timestamps on s before inserting it. Names are
// not unique, so a slug already taken by another startup gets the ID prefix
// appended and the insert is tried once more.
func (p *Postgres) CreateStartup(ctx context.Context, s *models.Startup) error {
	s.ID = uuid.NewString()
	s.CreatedAt = p.now()
	s.UpdatedAt = s.CreatedAt

	err := p.insertStartup(ctx, s)
	if isUniqueViolation(err, slugConstraint) {
		s.Slug = fmt.Sprintf("%s-%s", s.Slug, s.ID[:8])
		err = p.insertStartup(ctx, s)
	}
	if err != nil {
		return fmt.Errorf("%w: insert startup: %v", ErrInsertFailed, err)
	}
	return nil
}

const slugConstraint = "startups_slug_idx"

func (p *Postgres) insertStartup(ctx context.Context, s *models.Startup) error {
	industry, _ := json.Marshal(nonNil(s.Industry))
	founders, _ := json.Marshal(s.Founders)

	_, err := p.db.ExecContext(ctx, `INSERT INTO startups (`+startupColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		s.ID, s.Name, s.Slug, s.Tagline, s.Description, industry, founders, s.FundingStage,
		nullFloat(s.FundingNeeded), nullFloat(s.FundingRaised), s.LookingForLead, s.Website,
		s.ContactEmail, s.ContactPhone, s.CreatedAt, s.UpdatedAt)
	return err
}

// isUniqueViolation reports a 23505 on the named constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505" && pqErr.Constraint == constraint
}

func (p *Postgres) GetInvestor(ctx context.Context, id string) (*models.Investor, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("investor %q: %w", id, ErrNotFound)
	}
	row := p.db.QueryRowContext(ctx, `SELECT `+investorColumns+` FROM investors WHERE id = $1`, id)
	inv, err := scanInvestor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("investor %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get investor: %v", ErrQueryFailed, err)
	}
	return inv, nil
}

func (p *Postgres) ListInvestors(ctx context.Context) ([]models.Investor, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT `+investorColumns+` FROM investors ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("%w: list investors: %v", ErrQueryFailed, err)
	}
	return collectInvestors(rows)
}

func collectInvestors(rows *sql.Rows) ([]models.Investor, error) {
	defer rows.Close()

	out := []models.Investor{}
	for rows.Next() {
		inv, err := scanInvestor(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan investor: %v", ErrQueryFailed, err)
		}
		out = append(out, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list investors: %v", ErrQueryFailed, err)
	}
	return out, nil
}

func (p *Postgres) CreateInvestor(ctx context.Context, inv *models.Investor) error {
	location, _ := json.Marshal(inv.Location)
	industries, _ := json.Marshal(nonNil(inv.Industries))
	stages, _ := json.Marshal(nonNil(inv.FundingStages))
	portfolio, _ := json.Marshal(nonNilPortfolio(inv.Portfolio))

	var rng interface{}
	if inv.InvestmentRange != nil {
		b, _ := json.Marshal(inv.InvestmentRange)
		rng = b
	}

	inv.ID = uuid.NewString()
	inv.CreatedAt = p.now()
	inv.UpdatedAt = inv.CreatedAt

	_, err := p.db.ExecContext(ctx, `INSERT INTO investors (`+investorColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		inv.ID, inv.Name, string(inv.Type), inv.Firm, location, rng, industries, stages, portfolio,
		inv.Bio, inv.Website, inv.Email, inv.InvestmentThesis, inv.AvgCheckSize, inv.LeadInvestor,
		inv.CreatedAt, inv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%w: insert investor: %v", ErrInsertFailed, err)
	}
	return nil
}

// Candidates narrows the pool in SQL to investors sharing at least one industry
// and the seeker's stage. Range is left to the eligibility filter. Lead
// investors and larger cheques come first so equal scores rank them ahead.
func (p *Postgres) Candidates(ctx context.Context, seeker matching.FundingSeeker) ([]matching.Candidate, error) {
	industries := matching.NormalizeIndustries(seeker.Industries)
	if len(industries) == 0 || !seeker.FundingStage.Valid() {
		return []matching.Candidate{}, nil
	}

	rows, err := p.db.QueryContext(ctx, `SELECT `+investorColumns+` FROM investors
		WHERE industries ?| $1 AND funding_stages ? $2
		ORDER BY lead_investor DESC, avg_check_size DESC NULLS LAST, created_at, id`,
		pq.Array(industries), string(seeker.FundingStage))
	if err != nil {
		return nil, fmt.Errorf("%w: candidate pool: %v", ErrQueryFailed, err)
	}

	investors, err := collectInvestors(rows)
	if err != nil {
		return nil, err
	}
	return models.CandidatesFrom(investors), nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilPortfolio(p []models.Investment) []models.Investment {
	if p == nil {
		return []models.Investment{}
	}
	return p
}
