package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/haxtag/FCpalestina/internal/config"
	"github.com/haxtag/FCpalestina/internal/interfaces"
	"github.com/haxtag/FCpalestina/internal/model"
)

const SourceCrawl = "crawl"

// CrawlService 抓取相册页并交给 IngestService
type CrawlService struct {
	source interfaces.SourceAdapter
	ingest *IngestService
	cfg    *config.SourceConfig
	logger *logrus.Logger
}

func NewCrawlService(source interfaces.SourceAdapter, ingest *IngestService, cfg *config.SourceConfig, logger *logrus.Logger) *CrawlService {
	return &CrawlService{source: source, ingest: ingest, cfg: cfg, logger: logger}
}

// Crawl urls 为空时遍历分类页；limit<=0 时使用配置中的 album_limit
func (s *CrawlService) Crawl(ctx context.Context, urls []string, limit int) (*model.IngestRun, error) {
	refs := make([]model.AlbumRef, 0, len(urls))
	for _, u := range urls {
		refs = append(refs, model.AlbumRef{URL: u})
	}
	if len(refs) == 0 {
		var err error
		refs, err = s.source.ListAlbums(ctx, s.cfg.MaxPages)
		if err != nil {
			return nil, fmt.Errorf("%s获取相册列表失败: %w", s.source.GetName(), err)
		}
	}
	if limit <= 0 {
		limit = s.cfg.AlbumLimit
	}
	if limit > 0 && len(refs) > limit {
		refs = refs[:limit]
	}
	if len(refs) == 0 {
		s.logger.Warnf("%s未发现任何相册", s.source.GetName())
	}

	listings := s.fetchAll(ctx, refs)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{
		"albums":  len(refs),
		"fetched": len(listings),
	}).Info("相册抓取完成")

	return s.ingest.Ingest(ctx, SourceCrawl, listings)
}

// fetchAll 有限并发抓取，每个请求前等待 delay；失败的相册记日志后跳过，结果保持原顺序
func (s *CrawlService) fetchAll(ctx context.Context, refs []model.AlbumRef) []*model.RawListing {
	concurrency := s.cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	results := make([]*model.RawListing, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, ref := range refs {
		i, ref := i, ref
		g.Go(func() error {
			if err := wait(gctx, s.cfg.Delay); err != nil {
				return err
			}
			listing, err := s.source.FetchAlbum(gctx, ref)
			if err != nil {
				s.logger.WithError(err).WithField("album", ref.URL).Warn("相册抓取失败，跳过")
				return nil
			}
			results[i] = listing
			return nil
		})
	}
	_ = g.Wait()

	listings := make([]*model.RawListing, 0, len(results))
	for _, l := range results {
		if l != nil {
			listings = append(listings, l)
		}
	}
	return listings
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
