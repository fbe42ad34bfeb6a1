package analysis

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/kailas-cloud/compscope/internal/domain"
	domanalysis "github.com/kailas-cloud/compscope/internal/domain/analysis"
	"github.com/kailas-cloud/compscope/internal/domain/business"
	"github.com/kailas-cloud/compscope/internal/domain/competitor"
	"github.com/kailas-cloud/compscope/internal/domain/keyword"
	"github.com/kailas-cloud/compscope/internal/usecase/discovery"
	"github.com/kailas-cloud/compscope/internal/usecase/intersection"
	"github.com/kailas-cloud/compscope/internal/usecase/opportunity"
	"github.com/kailas-cloud/compscope/internal/usecase/ranking"
)

type mockBusinesses struct {
	items map[string]business.Business
}

func (m *mockBusinesses) Get(_ context.Context, id string) (business.Business, error) {
	b, ok := m.items[id]
	if !ok {
		return business.Business{}, domain.ErrNotFound
	}
	return b, nil
}

// mockRepo keeps one document per business in memory.
type mockRepo struct {
	docs   map[string]*domanalysis.Document
	setErr error
}

func newMockRepo() *mockRepo {
	return &mockRepo{docs: map[string]*domanalysis.Document{}}
}

func (m *mockRepo) doc(id string) *domanalysis.Document {
	d, ok := m.docs[id]
	if !ok {
		d = &domanalysis.Document{BusinessID: id}
		m.docs[id] = d
	}
	return d
}

func (m *mockRepo) Get(_ context.Context, id string) (domanalysis.Document, error) {
	d, ok := m.docs[id]
	if !ok {
		return domanalysis.Document{}, domain.ErrNotFound
	}
	return *d, nil
}

func (m *mockRepo) SetCompetitors(_ context.Context, id string, cands []competitor.Candidate, source string) error {
	if m.setErr != nil {
		return m.setErr
	}
	d := m.doc(id)
	d.Competitors = cands
	d.CompetitorSource = source
	return nil
}

func (m *mockRepo) SetKeywordSet(_ context.Context, id, host string, mode keyword.Mode, set keyword.Intersection) error {
	if m.setErr != nil {
		return m.setErr
	}
	d := m.doc(id)
	if d.Keywords == nil {
		d.Keywords = map[string]domanalysis.KeywordSets{}
	}
	sets := d.Keywords[host]
	items := append([]keyword.Record(nil), set.Items...)
	cp := keyword.Intersection{TotalCount: set.TotalCount, Items: items}
	if mode == keyword.ModeShared {
		sets.Shared = &cp
	} else {
		sets.Unique = &cp
	}
	d.Keywords[host] = sets
	return nil
}

func (m *mockRepo) SetTargets(_ context.Context, id string, targets []string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.doc(id).TargetKeywords = targets
	return nil
}

func (m *mockRepo) SetOpportunities(_ context.Context, id string, o keyword.Opportunities) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.doc(id).Opportunities = &o
	return nil
}

type mockDiscoverer struct {
	result     discovery.Result
	local      []competitor.Candidate
	err        error
	gotQuery   competitor.Query
	gotAlts    []string
	gotMaps    competitor.MapsQuery
	dropDomain string
}

func (m *mockDiscoverer) Discover(_ context.Context, q competitor.Query, alts []string) (discovery.Result, error) {
	m.gotQuery, m.gotAlts = q, alts
	return m.result, m.err
}

func (m *mockDiscoverer) DiscoverLocal(_ context.Context, q competitor.MapsQuery) ([]competitor.Candidate, error) {
	m.gotMaps = q
	return m.local, m.err
}

func (m *mockDiscoverer) Filter(cands []competitor.Candidate) []competitor.Candidate {
	var out []competitor.Candidate
	for _, c := range cands {
		if c.Host() != m.dropDomain {
			out = append(out, c)
		}
	}
	return out
}

type mockRanker struct {
	got ranking.Request
	err error
}

func (m *mockRanker) Rank(_ context.Context, req ranking.Request) ([]competitor.Candidate, error) {
	m.got = req
	return competitor.Head(req.Candidates, 3), m.err
}

type mockIntersector struct {
	fn    func(req intersection.Request) (keyword.Intersection, error)
	calls []intersection.Request
}

func (m *mockIntersector) Intersect(_ context.Context, req intersection.Request) (keyword.Intersection, error) {
	m.calls = append(m.calls, req)
	return m.fn(req)
}

type mockExpander struct {
	got opportunity.Request
	out keyword.Opportunities
	err error
}

func (m *mockExpander) Expand(_ context.Context, req opportunity.Request) (keyword.Opportunities, error) {
	m.got = req
	return m.out, m.err
}

type mockEmbedder struct {
	err error
}

func (m *mockEmbedder) Embed(context.Context, string) (domain.EmbeddingResult, error) {
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: []float32{1, 0}}, nil
}

var errProvider = errors.New("provider down")

type fixture struct {
	svc   *Service
	biz   *mockBusinesses
	repo  *mockRepo
	disc  *mockDiscoverer
	rank  *mockRanker
	inter *mockIntersector
	exp   *mockExpander
	emb   *mockEmbedder
}

func newFixture() *fixture {
	f := &fixture{
		biz: &mockBusinesses{items: map[string]business.Business{
			"b1": {
				ID:               "b1",
				Domain:           "https://www.acmeplumbing.com",
				AlternateDomains: []string{"acme-plumbing.net"},
				SelectedRivals:   []string{"rival.com"},
				BusinessType:     "plumber",
				SeedKeywords:     []string{"plumber", "drain cleaning"},
				Location:         &business.Location{Lat: 40.7, Lng: -73.9, LocationCode: 2840, LanguageCode: "en"},
				Services:         []business.Service{{Name: "Drain cleaning"}},
			},
		}},
		repo:  newMockRepo(),
		disc:  &mockDiscoverer{},
		rank:  &mockRanker{},
		inter: &mockIntersector{},
		exp:   &mockExpander{},
		emb:   &mockEmbedder{},
	}
	f.svc = New(f.biz, f.repo, f.disc, f.rank, f.inter, f.exp, f.emb, Options{
		DiscoveryLimit:    100,
		IntersectionLimit: 500,
		IdeasLimit:        150,
		MapsDepth:         50,
		Select:            keyword.SelectOptions{K: 2},
	}, zap.NewNop())
	return f
}

func sim(v float64) *float64 { return &v }
