package catalog

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haxtag/FCpalestina/internal/dedup"
	"github.com/haxtag/FCpalestina/internal/imagesel"
	"github.com/haxtag/FCpalestina/internal/model"
	"github.com/haxtag/FCpalestina/internal/parser"
)

type memStore struct {
	mu      sync.Mutex
	records map[string]*model.CatalogRecord
	inserts int
	updates int
	failOn  string
}

func newMemStore(initial ...*model.CatalogRecord) *memStore {
	s := &memStore{records: make(map[string]*model.CatalogRecord)}
	for _, r := range initial {
		s.records[r.ID] = r
	}
	return s
}

func (s *memStore) LoadAll(ctx context.Context) ([]*model.CatalogRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.CatalogRecord, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r.Clone())
	}
	return out, nil
}

func (s *memStore) Insert(ctx context.Context, r *model.CatalogRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOn != "" && r.Title == s.failOn {
		return errors.New("disk full")
	}
	s.inserts++
	s.records[r.ID] = r.Clone()
	return nil
}

func (s *memStore) Update(ctx context.Context, r *model.CatalogRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates++
	s.records[r.ID] = r.Clone()
	return nil
}

type countingCheckpointer struct {
	mu    sync.Mutex
	calls []int
}

func (c *countingCheckpointer) Checkpoint(ctx context.Context, records []*model.CatalogRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, len(records))
	return nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func startCatalog(t *testing.T, store Store, opts Options) *Catalog {
	t.Helper()
	c := New(store, dedup.NewResolver(dedup.DefaultOptions()), quietLogger(), opts)
	require.NoError(t, c.Start(context.Background()))
	t.Cleanup(c.Close)
	return c
}

func candidateFor(p *parser.Session, raw, url string, images ...string) dedup.Candidate {
	attrs := p.Parse(raw)
	sel := imagesel.NewSelector(imagesel.DefaultOptions()).Select(images, "", 0)
	return dedup.Candidate{Parsed: attrs, RawTitle: raw, SourceURL: url, Images: sel.Gallery, Thumbnail: sel.Cover}
}

func TestSubmit_SpellingVariantsMergeIntoOneRecord(t *testing.T) {
	store := newMemStore()
	c := startCatalog(t, store, Options{})
	p := parser.NewSession(quietLogger(), parser.DefaultOptions())
	ctx := context.Background()

	first, err := c.Submit(ctx, candidateFor(p, "皇马 主场 2024", "https://a.example/albums/1", "u/1/big.jpg"))
	require.NoError(t, err)
	assert.Equal(t, dedup.Insert, first.Kind)

	second, err := c.Submit(ctx, candidateFor(p, "Real Home 2024", "https://a.example/albums/2", "u/2/big.jpg"))
	require.NoError(t, err)
	assert.Equal(t, dedup.MergeInto, second.Kind)
	assert.Equal(t, first.Record.ID, second.Record.ID)
	assert.Equal(t, []string{"u/1/big.jpg", "u/2/big.jpg"}, second.Record.Images)

	records, err := c.Snapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, 1, store.inserts)
	assert.Equal(t, 1, store.updates)
}

func TestSubmit_NoImagePersists(t *testing.T) {
	store := newMemStore()
	c := startCatalog(t, store, Options{})
	p := parser.NewSession(quietLogger(), parser.DefaultOptions())

	out, err := c.Submit(context.Background(), candidateFor(p, "2425 世星 门将", "https://a.example/albums/9", "logo.png", "a_small.jpg"))
	require.NoError(t, err)
	assert.Equal(t, dedup.Insert, out.Kind)
	assert.Equal(t, model.NoImage, out.Record.Thumbnail)
	assert.Empty(t, out.Record.Images)
	assert.Contains(t, store.records, out.Record.ID)
}

func TestSubmit_ConcurrentSameProductCreatesOneRecord(t *testing.T) {
	store := newMemStore()
	c := startCatalog(t, store, Options{})
	p := parser.NewSession(quietLogger(), parser.DefaultOptions())

	const n = 32
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Submit(context.Background(), candidateFor(p, "2526 巴萨 主场 S-2XL", "https://a.example/albums/7"))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	records, err := c.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, 1, store.inserts)
	assert.Equal(t, n-1, store.updates)
}

func TestSubmit_StoreFailureLeavesIndexUntouched(t *testing.T) {
	store := newMemStore()
	store.failOn = "24/25 Palestine Domicile"
	c := startCatalog(t, store, Options{})
	p := parser.NewSession(quietLogger(), parser.DefaultOptions())

	_, err := c.Submit(context.Background(), candidateFor(p, "2425 世星 主场", "u1"))
	require.Error(t, err)

	records, err := c.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestStart_RebuildsIndexFromStore(t *testing.T) {
	r := dedup.NewResolver(dedup.DefaultOptions())
	existing := r.Resolve(dedup.Candidate{
		Parsed:    parser.Extract("2425 世星 客场"),
		SourceURL: "u0",
	}, nil).Record
	store := newMemStore(existing)
	c := startCatalog(t, store, Options{})
	p := parser.NewSession(quietLogger(), parser.DefaultOptions())

	out, err := c.Submit(context.Background(), candidateFor(p, "24-25 巴勒斯坦 客场", "u1"))
	require.NoError(t, err)
	assert.Equal(t, dedup.MergeInto, out.Kind)
	assert.Equal(t, existing.ID, out.ExistingID)
	assert.Equal(t, []string{"u0", "u1"}, out.Record.SourceURLs)
}

func TestSubmit_FuzzyMergeRegistersVariantSignature(t *testing.T) {
	c := startCatalog(t, newMemStore(), Options{})
	ctx := context.Background()
	variant := func(title, url string) dedup.Candidate {
		return dedup.Candidate{
			Parsed: model.ParsedAttributes{
				SeasonFull:      "2024",
				Team:            "Real Madrid",
				TeamDetected:    true,
				Category:        model.CategoryHome,
				TranslatedTitle: title,
			},
			RawTitle:  title,
			SourceURL: url,
			Thumbnail: model.NoImage,
		}
	}

	first, err := c.Submit(ctx, variant("2024 Real Madrid Domicile", "u1"))
	require.NoError(t, err)
	second, err := c.Submit(ctx, variant("2024 Real Madrid Domicile Blanc", "u2"))
	require.NoError(t, err)
	require.Equal(t, dedup.MergeInto, second.Kind)
	assert.Less(t, second.Similarity, 1.0)

	third, err := c.Submit(ctx, variant("2024 Real Madrid Domicile Blanc", "u3"))
	require.NoError(t, err)
	assert.Equal(t, dedup.MergeInto, third.Kind)
	assert.Equal(t, first.Record.ID, third.ExistingID)
	assert.Equal(t, 1.0, third.Similarity)

	records, err := c.Snapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestCheckpointEveryNCommitsAndOnClose(t *testing.T) {
	cp := &countingCheckpointer{}
	c := New(newMemStore(), dedup.NewResolver(dedup.DefaultOptions()), quietLogger(), Options{Checkpointer: cp, CheckpointEvery: 2})
	require.NoError(t, c.Start(context.Background()))
	p := parser.NewSession(quietLogger(), parser.DefaultOptions())

	for _, raw := range []string{"2425 世星 主场", "2425 世星 客场", "2425 世星 门将"} {
		_, err := c.Submit(context.Background(), candidateFor(p, raw, raw))
		require.NoError(t, err)
	}
	c.Close()

	cp.mu.Lock()
	defer cp.mu.Unlock()
	assert.Equal(t, []int{2, 3}, cp.calls)

	_, err := c.Submit(context.Background(), candidateFor(p, "2425 世星 三客", "x"))
	assert.ErrorIs(t, err, ErrClosed)
}

func TestSubmitBeforeStart(t *testing.T) {
	c := New(newMemStore(), dedup.NewResolver(dedup.DefaultOptions()), quietLogger(), Options{})
	_, err := c.Submit(context.Background(), dedup.Candidate{})
	assert.ErrorIs(t, err, ErrNotStarted)
}
