package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/haxtag/FCpalestina/internal/catalog"
	"github.com/haxtag/FCpalestina/internal/config"
	"github.com/haxtag/FCpalestina/internal/dedup"
	"github.com/haxtag/FCpalestina/internal/imagesel"
	"github.com/haxtag/FCpalestina/internal/model"
)

type mockRunRepo struct {
	mock.Mock
}

func (m *mockRunRepo) CreateRun(ctx context.Context, run *model.IngestRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *mockRunRepo) FinishRun(ctx context.Context, runID, status string, stats model.RunStats, errMsg string) error {
	args := m.Called(ctx, runID, status, stats, errMsg)
	return args.Error(0)
}

func (m *mockRunRepo) SaveItems(ctx context.Context, items []*model.IngestRunItem) error {
	args := m.Called(ctx, items)
	return args.Error(0)
}

func (m *mockRunRepo) GetRun(ctx context.Context, runID string) (*model.IngestRun, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.IngestRun), args.Error(1)
}

func (m *mockRunRepo) ListItems(ctx context.Context, runID string, limit int) ([]*model.IngestRunItem, error) {
	args := m.Called(ctx, runID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.IngestRunItem), args.Error(1)
}

type mockSubmitter struct {
	mock.Mock
}

func (m *mockSubmitter) Submit(ctx context.Context, cand dedup.Candidate) (catalog.Outcome, error) {
	args := m.Called(ctx, cand)
	return args.Get(0).(catalog.Outcome), args.Error(1)
}

type memStore struct {
	mu      sync.Mutex
	records map[string]*model.CatalogRecord
}

func (s *memStore) LoadAll(ctx context.Context) ([]*model.CatalogRecord, error) { return nil, nil }

func (s *memStore) Insert(ctx context.Context, r *model.CatalogRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[r.ID] = r.Clone()
	return nil
}

func (s *memStore) Update(ctx context.Context, r *model.CatalogRecord) error {
	return s.Insert(ctx, r)
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func testConfig() *config.Config {
	return &config.Config{
		Pipeline: config.PipelineConfig{FuzzyThreshold: 0.8, Workers: 3},
		Images:   config.ImagesConfig{KeepUnmarked: true},
		Source:   config.SourceConfig{Concurrency: 2},
	}
}

func startCatalog(t *testing.T, cfg *config.Config) *catalog.Catalog {
	t.Helper()
	c := catalog.New(&memStore{records: map[string]*model.CatalogRecord{}}, dedup.NewResolver(ResolverOptions(cfg.Pipeline)), quietLogger(), catalog.Options{})
	require.NoError(t, c.Start(context.Background()))
	t.Cleanup(c.Close)
	return c
}

func expectRun(runs *mockRunRepo, stats model.RunStats, items int) {
	runs.On("CreateRun", mock.Anything, mock.AnythingOfType("*model.IngestRun")).Return(nil).Once()
	runs.On("SaveItems", mock.Anything, mock.MatchedBy(func(list []*model.IngestRunItem) bool {
		return len(list) == items
	})).Return(nil).Once()
	runs.On("FinishRun", mock.Anything, mock.AnythingOfType("string"), model.RunStatusCompleted, stats, "").Return(nil).Once()
}

func photos(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("https://photo.example/%s%d/big.jpg", prefix, i+1)
	}
	return out
}

func TestIngest_EndToEnd(t *testing.T) {
	cfg := testConfig()
	cat := startCatalog(t, cfg)
	runs := &mockRunRepo{}
	expectRun(runs, model.RunStats{Processed: 4, Inserted: 3, Merged: 1, NoImage: 1}, 4)
	svc := NewIngestService(cat, runs, cfg, quietLogger())

	listings := []*model.RawListing{
		{RawTitle: "2526 巴萨 主场 S-2XL | 4", SourceURL: "https://a.example/albums/1", ImageCandidates: photos("p", 6)},
		{RawTitle: "皇马 主场 2024", SourceURL: "https://a.example/albums/2", ImageCandidates: photos("r", 1)},
		{RawTitle: "Real Home 2024", SourceURL: "https://a.example/albums/3", ImageCandidates: photos("s", 1)},
		{RawTitle: "2425 世星 门将", SourceURL: "https://a.example/albums/4", ImageCandidates: []string{"https://a.example/static/logo.png"}},
	}

	run, err := svc.Ingest(context.Background(), "listings", listings)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusCompleted, run.Status)
	assert.NotEmpty(t, run.ID)
	assert.JSONEq(t, `{"processed":4,"inserted":3,"merged":1,"rejected":0,"no_image":1,"failed":0}`, string(run.Stats))
	runs.AssertExpectations(t)

	records, err := cat.Snapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 3)

	byTitle := map[string]*model.CatalogRecord{}
	for _, r := range records {
		byTitle[r.NormalizedTitle] = r
	}
	barca := byTitle["25 26 barcelone domicile s 2xl"]
	require.NotNil(t, barca)
	assert.Equal(t, photos("p", 4), barca.Images)
	assert.Equal(t, 4, barca.ExpectedImageCount)

	real := byTitle["2024 real madrid domicile"]
	require.NotNil(t, real)
	assert.ElementsMatch(t, append(photos("r", 1), photos("s", 1)...), real.Images)
	assert.Len(t, real.SourceURLs, 2)

	keeper := byTitle["24 25 palestina gardien"]
	require.NotNil(t, keeper)
	assert.Equal(t, imagesel.NoImage, keeper.Thumbnail)
}

func TestIngest_DeclaredCountWhenTitleHasNone(t *testing.T) {
	cfg := testConfig()
	cat := startCatalog(t, cfg)
	runs := &mockRunRepo{}
	expectRun(runs, model.RunStats{Processed: 1, Inserted: 1}, 1)
	svc := NewIngestService(cat, runs, cfg, quietLogger())

	declared := 2
	_, err := svc.Ingest(context.Background(), "listings", []*model.RawListing{
		{RawTitle: "2425 世星 客场", SourceURL: "u1", ImageCandidates: photos("d", 5), DeclaredImageCount: &declared},
	})
	require.NoError(t, err)

	records, err := cat.Snapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, photos("d", 2), records[0].Images)
}

func TestIngest_ExcludedTeamIsRejected(t *testing.T) {
	cfg := testConfig()
	cfg.Pipeline.ExcludedTeams = []string{"Barcelone", " real madrid "}
	cat := startCatalog(t, cfg)
	runs := &mockRunRepo{}
	expectRun(runs, model.RunStats{Processed: 3, Inserted: 1, Rejected: 2}, 3)
	svc := NewIngestService(cat, runs, cfg, quietLogger())

	_, err := svc.Ingest(context.Background(), "listings", []*model.RawListing{
		{RawTitle: "2526 巴萨 主场", SourceURL: "u1"},
		{RawTitle: "皇马 客场 2024", SourceURL: "u2"},
		{RawTitle: "2425 世星 主场", SourceURL: "u3"},
	})
	require.NoError(t, err)
	runs.AssertExpectations(t)

	records, err := cat.Snapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Palestine", records[0].Team)
}

func TestIngest_CollidingTitlesNumberedInListingOrder(t *testing.T) {
	const n = 8
	listings := make([]*model.RawListing, n)
	for i := range listings {
		listings[i] = &model.RawListing{RawTitle: "主场", SourceURL: fmt.Sprintf("u%d", i)}
	}

	ingestOnce := func() map[string]string {
		cfg := testConfig()
		cfg.Pipeline.Workers = 4
		sub := &mockSubmitter{}
		var mu sync.Mutex
		titles := map[string]string{}
		sub.On("Submit", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
			cand := args.Get(1).(dedup.Candidate)
			mu.Lock()
			titles[cand.SourceURL] = cand.Parsed.TranslatedTitle
			mu.Unlock()
		}).Return(catalog.Outcome{Kind: dedup.Insert, Record: &model.CatalogRecord{ID: "x"}}, nil)
		runs := &mockRunRepo{}
		expectRun(runs, model.RunStats{Processed: n, Inserted: n, NoImage: n}, n)

		_, err := NewIngestService(sub, runs, cfg, quietLogger()).Ingest(context.Background(), "listings", listings)
		require.NoError(t, err)
		return titles
	}

	first := ingestOnce()
	require.Len(t, first, n)
	assert.Equal(t, "Domicile", first["u0"])
	for i := 1; i < n; i++ {
		assert.Equal(t, fmt.Sprintf("Domicile #%d", i+1), first[fmt.Sprintf("u%d", i)])
	}
	for round := 0; round < 20; round++ {
		assert.Equal(t, first, ingestOnce())
	}
}

func TestIngest_SubmitFailureIsCounted(t *testing.T) {
	cfg := testConfig()
	sub := &mockSubmitter{}
	sub.On("Submit", mock.Anything, mock.Anything).Return(catalog.Outcome{}, errors.New("db down")).Once()
	runs := &mockRunRepo{}
	expectRun(runs, model.RunStats{Processed: 1, Failed: 1, NoImage: 1}, 1)
	svc := NewIngestService(sub, runs, cfg, quietLogger())

	run, err := svc.Ingest(context.Background(), "listings", []*model.RawListing{{RawTitle: "2425 世星 主场", SourceURL: "u1"}})
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusCompleted, run.Status)
	sub.AssertExpectations(t)
	runs.AssertExpectations(t)
}

func TestIngest_CreateRunError(t *testing.T) {
	runs := &mockRunRepo{}
	runs.On("CreateRun", mock.Anything, mock.Anything).Return(errors.New("no table")).Once()
	svc := NewIngestService(&mockSubmitter{}, runs, testConfig(), quietLogger())

	_, err := svc.Ingest(context.Background(), "listings", nil)
	assert.Error(t, err)
}

func TestSelectorOptions_MapsMarkerTiers(t *testing.T) {
	opts := SelectorOptions(config.ImagesConfig{KeepUnmarked: false, MarkerTiers: map[string]int{"orig": 4}})
	assert.False(t, opts.KeepUnmarked)
	assert.Equal(t, imagesel.TierRaw, opts.MarkerTiers["orig"])
	assert.Equal(t, imagesel.DefaultExtensions, opts.Extensions)
}
