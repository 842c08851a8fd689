// internal/store/search.go
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"investor-match-workers/internal/common/breaker"
	"investor-match-workers/internal/matching"
	"investor-match-workers/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// investorMapping keeps the filtered fields as exact keywords so the
// prefilter agrees with the eligibility filter's exact string comparison.
const investorMapping = `{
  "mappings": {
    "properties": {
      "id":            {"type": "keyword"},
      "name":          {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "type":          {"type": "keyword"},
      "industries":    {"type": "keyword"},
      "fundingStages": {"type": "keyword"},
      "leadInvestor":  {"type": "boolean"},
      "avgCheckSize":  {"type": "double"},
      "createdAt":     {"type": "date"}
    }
  }
}`

const defaultSearchPage = 500

// Search reads candidate pools from the investor index.
type Search struct {
	client  *elasticsearch.Client
	index   string
	size    int
	breaker *breaker.Breaker
}

func NewSearch(client *elasticsearch.Client, index string, size int, b *breaker.Breaker) *Search {
	return &Search{client: client, index: index, size: size, breaker: b}
}

// BuildCandidateQuery returns the prefilter body for one page: shared industry
// and stage, ordered lead investors first, then larger cheques, then oldest.
// A non-nil after resumes behind the last hit of the previous page.
func BuildCandidateQuery(seeker matching.FundingSeeker, size int, after []interface{}) map[string]interface{} {
	q := map[string]interface{}{
		"size": size,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": []interface{}{
					map[string]interface{}{"terms": map[string]interface{}{"industries": matching.NormalizeIndustries(seeker.Industries)}},
					map[string]interface{}{"term": map[string]interface{}{"fundingStages": string(seeker.FundingStage)}},
				},
			},
		},
		"sort": []interface{}{
			map[string]interface{}{"leadInvestor": "desc"},
			map[string]interface{}{"avgCheckSize": map[string]interface{}{"order": "desc", "missing": "_last"}},
			map[string]interface{}{"createdAt": "asc"},
			map[string]interface{}{"id": "asc"},
		},
	}
	if after != nil {
		q["search_after"] = after
	}
	return q
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source models.Investor `json:"_source"`
			Sort   []interface{}   `json:"sort"`
		} `json:"hits"`
	} `json:"hits"`
}

func (s *Search) Candidates(ctx context.Context, seeker matching.FundingSeeker) ([]matching.Candidate, error) {
	if len(matching.NormalizeIndustries(seeker.Industries)) == 0 || !seeker.FundingStage.Valid() {
		return []matching.Candidate{}, nil
	}

	investors, err := breaker.Do(s.breaker, func() ([]models.Investor, error) {
		return s.search(ctx, seeker)
	})
	if errors.Is(err, breaker.ErrOpen) {
		return nil, fmt.Errorf("%w: %s", ErrSourceTripped, s.index)
	}
	if err != nil {
		return nil, err
	}
	return models.CandidatesFrom(investors), nil
}

// search walks every page of the prefilter with search_after until a page
// comes back short. size only bounds one request, never the pool.
func (s *Search) search(ctx context.Context, seeker matching.FundingSeeker) ([]models.Investor, error) {
	size := s.size
	if size <= 0 {
		size = defaultSearchPage
	}

	out := []models.Investor{}
	var after []interface{}
	for {
		page, err := s.page(ctx, BuildCandidateQuery(seeker, size, after))
		if err != nil {
			return nil, err
		}
		for _, hit := range page.Hits.Hits {
			out = append(out, hit.Source)
		}
		n := len(page.Hits.Hits)
		if n < size {
			return out, nil
		}
		after = page.Hits.Hits[n-1].Sort
		if len(after) == 0 {
			return nil, fmt.Errorf("%w: page without sort values", ErrSearchFailed)
		}
	}
}

func (s *Search) page(ctx context.Context, query map[string]interface{}) (*searchResponse, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("%w: encode query: %v", ErrSearchFailed, err)
	}

	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  bytes.NewReader(body),
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSearchFailed, err)
	}
	defer res.Body.Close()

	if res.StatusCode == 404 {
		return nil, fmt.Errorf("%w: %s", ErrIndexMissing, s.index)
	}
	if res.IsError() {
		msg, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("%w: %s: %s", ErrSearchFailed, res.Status(), strings.TrimSpace(string(msg)))
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrSearchFailed, err)
	}
	return &parsed, nil
}

// IndexInvestor writes or replaces one investor document.
func (s *Search) IndexInvestor(ctx context.Context, inv *models.Investor) error {
	body, err := json.Marshal(inv)
	if err != nil {
		return fmt.Errorf("encode investor %s: %w", inv.ID, err)
	}

	req := esapi.IndexRequest{
		Index:      s.index,
		DocumentID: inv.ID,
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return fmt.Errorf("%w: index investor: %v", ErrSearchFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("%w: index investor %s: %s", ErrSearchFailed, inv.ID, res.Status())
	}
	return nil
}

// EnsureIndex creates the investor index with its mapping when absent.
func (s *Search) EnsureIndex(ctx context.Context) error {
	exists := esapi.IndicesExistsRequest{Index: []string{s.index}}
	res, err := exists.Do(ctx, s.client)
	if err != nil {
		return fmt.Errorf("%w: check index: %v", ErrSearchFailed, err)
	}
	res.Body.Close()
	if res.StatusCode == 200 {
		return nil
	}

	create := esapi.IndicesCreateRequest{
		Index: s.index,
		Body:  strings.NewReader(investorMapping),
	}
	res, err = create.Do(ctx, s.client)
	if err != nil {
		return fmt.Errorf("%w: create index: %v", ErrSearchFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("%w: create index %s: %s", ErrSearchFailed, s.index, res.Status())
	}
	return nil
}
