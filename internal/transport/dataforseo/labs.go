package dataforseo

import (
	"context"

	"github.com/kailas-cloud/compscope/internal/domain"
	"github.com/kailas-cloud/compscope/internal/domain/competitor"
	"github.com/kailas-cloud/compscope/internal/domain/keyword"
)

// MaxIdeasLimit is the largest keyword-ideas page this client requests.
const MaxIdeasLimit = 150

type organicMetrics struct {
	Organic struct {
		ETV   float64 `json:"etv"`
		Count int     `json:"count"`
	} `json:"organic"`
}

type competitorsResult struct {
	TotalCount int `json:"total_count"`
	Items      []struct {
		Domain            string         `json:"domain"`
		Metrics           organicMetrics `json:"metrics"`
		FullDomainMetrics organicMetrics `json:"full_domain_metrics"`
	} `json:"items"`
}

// CompetitorsDomain returns competitor candidates for a domain. The target
// itself is not filtered here. Non-success statuses unwrap to domain.ErrDiscovery.
func (c *Client) CompetitorsDomain(ctx context.Context, req competitor.Query) ([]competitor.Candidate, error) {
	payload := map[string]any{
		"target":        competitor.BareHost(req.Target),
		"location_code": req.LocationCode,
		"language_code": req.LanguageCode,
		"limit":         req.Limit,
	}

	results, err := post[competitorsResult](ctx, c, endpointCompetitors, payload, domain.ErrDiscovery)
	if err != nil {
		return nil, err
	}

	var out []competitor.Candidate
	for _, r := range results {
		for _, it := range r.Items {
			if it.Domain == "" {
				continue
			}
			m := it.FullDomainMetrics
			if m.Organic.ETV == 0 && m.Organic.Count == 0 {
				m = it.Metrics
			}
			out = append(out, competitor.Candidate{
				Domain:       competitor.BareHost(it.Domain),
				ETV:          m.Organic.ETV,
				KeywordCount: m.Organic.Count,
			})
		}
	}
	return out, nil
}

type keywordInfo struct {
	SearchVolume int     `json:"search_volume"`
	Competition  float64 `json:"competition"`
	CPC          float64 `json:"cpc"`
}

type keywordData struct {
	Keyword           string      `json:"keyword"`
	KeywordInfo       keywordInfo `json:"keyword_info"`
	KeywordProperties struct {
		KeywordDifficulty *int `json:"keyword_difficulty"`
	} `json:"keyword_properties"`
	SearchIntentInfo struct {
		MainIntent string `json:"main_intent"`
	} `json:"search_intent_info"`
}

func (k *keywordData) record() keyword.Record {
	return keyword.Record{
		Keyword:     k.Keyword,
		Volume:      k.KeywordInfo.SearchVolume,
		Competition: k.KeywordInfo.Competition,
		CPC:         k.KeywordInfo.CPC,
		Intent:      keyword.ParseIntent(k.SearchIntentInfo.MainIntent),
		Difficulty:  k.KeywordProperties.KeywordDifficulty,
	}
}

type serpElement struct {
	RankGroup int `json:"rank_group"`
}

type intersectionResult struct {
	TotalCount int `json:"total_count"`
	Items      []struct {
		KeywordData  keywordData  `json:"keyword_data"`
		FirstDomain  *serpElement `json:"first_domain_serp_element"`
		SecondDomain *serpElement `json:"second_domain_serp_element"`
	} `json:"items"`
}

// DomainIntersection returns the keywords both targets rank for (shared)
// or that only Target1 ranks for (unique).
func (c *Client) DomainIntersection(ctx context.Context, req keyword.IntersectQuery) (keyword.Intersection, error) {
	t1 := competitor.BareHost(req.Target1)
	t2 := competitor.BareHost(req.Target2)
	payload := map[string]any{
		"target1":       t1,
		"target2":       t2,
		"location_code": req.LocationCode,
		"language_code": req.LanguageCode,
		"intersections": req.Mode != keyword.ModeUnique,
	}
	if req.Limit > 0 {
		payload["limit"] = req.Limit
	}

	results, err := post[intersectionResult](ctx, c, endpointIntersection, payload, domain.ErrProviderError)
	if err != nil {
		return keyword.Intersection{}, err
	}

	var out keyword.Intersection
	for _, r := range results {
		out.TotalCount += r.TotalCount
		for _, it := range r.Items {
			if it.KeywordData.Keyword == "" {
				continue
			}
			rec := it.KeywordData.record()
			rec.Positions = positions(t1, it.FirstDomain, t2, it.SecondDomain)
			out.Items = append(out.Items, rec)
		}
	}
	return out, nil
}

func positions(d1 string, e1 *serpElement, d2 string, e2 *serpElement) map[string]int {
	pos := map[string]int{}
	if e1 != nil && e1.RankGroup > 0 {
		pos[d1] = e1.RankGroup
	}
	if e2 != nil && e2.RankGroup > 0 {
		pos[d2] = e2.RankGroup
	}
	if len(pos) == 0 {
		return nil
	}
	return pos
}

type ideasResult struct {
	TotalCount int           `json:"total_count"`
	Items      []keywordData `json:"items"`
}

// KeywordIdeas expands seeds into keyword ideas with non-zero search volume.
// Limit is clamped to MaxIdeasLimit.
func (c *Client) KeywordIdeas(ctx context.Context, req keyword.IdeasQuery) ([]keyword.Record, error) {
	limit := req.Limit
	if limit <= 0 || limit > MaxIdeasLimit {
		limit = MaxIdeasLimit
	}
	payload := map[string]any{
		"keywords":      req.Seeds,
		"location_code": req.LocationCode,
		"language_code": req.LanguageCode,
		"limit":         limit,
		"filters":       []any{"keyword_info.search_volume", ">", 0},
	}

	results, err := post[ideasResult](ctx, c, endpointKeywordIdeas, payload, domain.ErrProviderError)
	if err != nil {
		return nil, err
	}

	var out []keyword.Record
	for _, r := range results {
		for i := range r.Items {
			if r.Items[i].Keyword == "" {
				continue
			}
			out = append(out, r.Items[i].record())
		}
	}
	return out, nil
}
