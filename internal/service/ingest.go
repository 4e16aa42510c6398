package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"

	"github.com/haxtag/FCpalestina/internal/catalog"
	"github.com/haxtag/FCpalestina/internal/config"
	"github.com/haxtag/FCpalestina/internal/dedup"
	"github.com/haxtag/FCpalestina/internal/imagesel"
	"github.com/haxtag/FCpalestina/internal/model"
	"github.com/haxtag/FCpalestina/internal/parser"
	"github.com/haxtag/FCpalestina/internal/repository"
)

// Submitter 目录提交入口，由 catalog.Catalog 实现
type Submitter interface {
	Submit(ctx context.Context, cand dedup.Candidate) (catalog.Outcome, error)
}

// IngestService 把原始 listing 走完整流水线：解析 → 排除 → 选图 → 判重入库，并记录批次
type IngestService struct {
	catalog  Submitter
	runs     repository.RunRepository
	selector *imagesel.Selector
	parse    parser.Options
	excluded []string
	workers  int
	logger   *logrus.Logger
}

func NewIngestService(cat Submitter, runs repository.RunRepository, cfg *config.Config, logger *logrus.Logger) *IngestService {
	excluded := make([]string, 0, len(cfg.Pipeline.ExcludedTeams))
	for _, t := range cfg.Pipeline.ExcludedTeams {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			excluded = append(excluded, t)
		}
	}
	workers := cfg.Pipeline.Workers
	if workers <= 0 {
		workers = 1
	}
	return &IngestService{
		catalog:  cat,
		runs:     runs,
		selector: imagesel.NewSelector(SelectorOptions(cfg.Images)),
		parse:    parser.Options{DefaultTeam: cfg.Pipeline.DefaultTeam, Placeholder: cfg.Pipeline.Placeholder},
		excluded: excluded,
		workers:  workers,
		logger:   logger,
	}
}

// ResolverOptions 配置转判重参数
func ResolverOptions(p config.PipelineConfig) dedup.Options {
	opts := dedup.DefaultOptions()
	if p.FuzzyThreshold > 0 {
		opts.FuzzyThreshold = p.FuzzyThreshold
	}
	if len(p.BaseTags) > 0 {
		opts.BaseTags = p.BaseTags
	}
	if len(p.TagWhitelist) > 0 {
		opts.TagWhitelist = p.TagWhitelist
	}
	return opts
}

// SelectorOptions 配置转选图参数，未配置的项用默认值
func SelectorOptions(c config.ImagesConfig) imagesel.Options {
	opts := imagesel.DefaultOptions()
	if len(c.NoiseKeywords) > 0 {
		opts.NoiseKeywords = c.NoiseKeywords
	}
	if len(c.Extensions) > 0 {
		opts.Extensions = c.Extensions
	}
	opts.KeepUnmarked = c.KeepUnmarked
	if len(c.MarkerTiers) > 0 {
		opts.MarkerTiers = make(map[string]imagesel.Tier, len(c.MarkerTiers))
		for marker, tier := range c.MarkerTiers {
			opts.MarkerTiers[marker] = imagesel.Tier(tier)
		}
	}
	return opts
}

// itemResult 单条 listing 的处理结果
type itemResult struct {
	item    *model.IngestRunItem
	noImage bool
}

// Ingest 处理一批 listing；单条失败只记入明细，ctx 取消时整批失败
func (s *IngestService) Ingest(ctx context.Context, source string, listings []*model.RawListing) (*model.IngestRun, error) {
	run := &model.IngestRun{
		ID:        uuid.NewString(),
		Source:    source,
		Status:    model.RunStatusRunning,
		StartedAt: time.Now(),
	}
	if err := s.runs.CreateRun(ctx, run); err != nil {
		return nil, err
	}
	logger := s.logger.WithFields(logrus.Fields{"run_id": run.ID, "source": source})
	logger.WithField("listings", len(listings)).Info("导入批次开始")

	// 每个批次一个解析会话，按 listing 顺序串行解析，标题编号与调度无关
	session := parser.NewSession(s.logger, s.parse)
	parsed := make([]model.ParsedAttributes, len(listings))
	for i, l := range listings {
		if l != nil {
			parsed[i] = s.parseListing(session, l)
		}
	}
	results := make([]itemResult, len(listings))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, l := range listings {
		if l == nil {
			continue
		}
		i, l := i, l
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = s.process(gctx, run.ID, l, parsed[i])
			return nil
		})
	}
	runErr := g.Wait()

	var (
		stats model.RunStats
		items []*model.IngestRunItem
	)
	for _, r := range results {
		if r.item == nil {
			continue
		}
		items = append(items, r.item)
		stats.Processed++
		if r.noImage {
			stats.NoImage++
		}
		switch r.item.Decision {
		case model.DecisionInsert:
			stats.Inserted++
		case model.DecisionMerge:
			stats.Merged++
		case model.DecisionReject:
			stats.Rejected++
		default:
			stats.Failed++
		}
	}

	// 批次收尾不受调用方 ctx 取消影响
	finishCtx := context.WithoutCancel(ctx)
	if err := s.runs.SaveItems(finishCtx, items); err != nil {
		logger.WithError(err).Warn("保存批次明细失败")
	}
	status, errMsg := model.RunStatusCompleted, ""
	if runErr != nil {
		status, errMsg = model.RunStatusFailed, runErr.Error()
	}
	if err := s.runs.FinishRun(finishCtx, run.ID, status, stats, errMsg); err != nil {
		logger.WithError(err).Warn("更新批次状态失败")
	}

	now := time.Now()
	run.Status = status
	run.Error = errMsg
	run.FinishedAt = &now
	if raw, err := json.Marshal(stats); err == nil {
		run.Stats = datatypes.JSON(raw)
	}
	logger.WithFields(logrus.Fields{
		"status":   status,
		"inserted": stats.Inserted,
		"merged":   stats.Merged,
		"rejected": stats.Rejected,
		"no_image": stats.NoImage,
		"failed":   stats.Failed,
	}).Info("导入批次结束")

	if runErr != nil {
		return run, fmt.Errorf("导入批次%s中断: %w", run.ID, runErr)
	}
	return run, nil
}

// parseListing 解析标题；标题里的 "| n" 优先于页面声明
func (s *IngestService) parseListing(session *parser.Session, l *model.RawListing) model.ParsedAttributes {
	attrs := session.Parse(l.RawTitle)
	if attrs.ExpectedImageCount == nil && l.DeclaredImageCount != nil && *l.DeclaredImageCount > 0 {
		n := *l.DeclaredImageCount
		attrs.ExpectedImageCount = &n
	}
	return attrs
}

func (s *IngestService) process(ctx context.Context, runID string, l *model.RawListing, attrs model.ParsedAttributes) itemResult {
	item := &model.IngestRunItem{RunID: runID, CreatedAt: time.Now()}
	if payload, err := json.Marshal(l); err == nil {
		item.Payload = datatypes.JSON(payload)
	}

	if team := s.excludedTeam(attrs, l.RawTitle); team != "" {
		item.Decision = model.DecisionReject
		s.logger.WithFields(logrus.Fields{
			"title":  attrs.TranslatedTitle,
			"team":   team,
			"source": l.SourceURL,
		}).Info("球队在排除列表中，跳过")
		return itemResult{item: item}
	}

	expected := 0
	if attrs.ExpectedImageCount != nil {
		expected = *attrs.ExpectedImageCount
	}
	sel := s.selector.Select(l.ImageCandidates, l.CoverCandidate, expected)

	out, err := s.catalog.Submit(ctx, dedup.Candidate{
		Parsed:    attrs,
		RawTitle:  l.RawTitle,
		SourceURL: l.SourceURL,
		Images:    sel.Gallery,
		Thumbnail: sel.Cover,
	})
	noImage := sel.Cover == imagesel.NoImage
	if err != nil {
		item.Decision = model.DecisionFailed
		s.logger.WithError(err).WithFields(logrus.Fields{
			"title":  attrs.TranslatedTitle,
			"source": l.SourceURL,
		}).Warn("提交目录失败")
		return itemResult{item: item, noImage: noImage}
	}

	item.RecordID = out.Record.ID
	item.Similarity = out.Similarity
	if out.Kind == dedup.MergeInto {
		item.Decision = model.DecisionMerge
	} else {
		item.Decision = model.DecisionInsert
	}
	return itemResult{item: item, noImage: noImage}
}

// excludedTeam 球队名或原始标题命中排除列表时返回命中项
func (s *IngestService) excludedTeam(attrs model.ParsedAttributes, rawTitle string) string {
	if len(s.excluded) == 0 {
		return ""
	}
	team := strings.ToLower(attrs.Team)
	haystack := strings.ToLower(attrs.TranslatedTitle + " " + rawTitle)
	for _, ex := range s.excluded {
		if (attrs.TeamDetected && team == ex) || strings.Contains(haystack, ex) {
			return ex
		}
	}
	return ""
}
