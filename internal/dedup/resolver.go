package dedup

import (
	"time"

	"github.com/haxtag/FCpalestina/internal/model"
)

const DefaultFuzzyThreshold = 0.8

type DecisionKind string

const (
	Insert    DecisionKind = "insert"
	MergeInto DecisionKind = "merge"
)

// Candidate 解析并选好图片的待入库条目
type Candidate struct {
	Parsed    model.ParsedAttributes
	RawTitle  string
	SourceURL string
	Images    []string
	Thumbnail string
}

// Decision Record 为插入的新记录或合并后的完整记录
type Decision struct {
	Kind       DecisionKind
	ExistingID string
	Record     *model.CatalogRecord
	Signature  string
	Similarity float64
}

type Options struct {
	FuzzyThreshold float64
	BaseTags       []string
	TagWhitelist   []string
	Clock          func() time.Time
}

func DefaultOptions() Options {
	return Options{
		FuzzyThreshold: DefaultFuzzyThreshold,
		BaseTags:       DefaultBaseTags,
		TagWhitelist:   DefaultTagWhitelist,
		Clock:          time.Now,
	}
}

type Resolver struct {
	opts Options
}

func NewResolver(opts Options) *Resolver {
	if opts.FuzzyThreshold <= 0 || opts.FuzzyThreshold > 1 {
		opts.FuzzyThreshold = DefaultFuzzyThreshold
	}
	if opts.BaseTags == nil {
		opts.BaseTags = DefaultBaseTags
	}
	if opts.TagWhitelist == nil {
		opts.TagWhitelist = DefaultTagWhitelist
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Resolver{opts: opts}
}

// Resolve 先按签名精确匹配，再在同类别同赛季的记录中做 Jaccard 模糊匹配；都不中则插入
func (r *Resolver) Resolve(c Candidate, view CatalogView) Decision {
	now := r.opts.Clock()
	normalized := NormalizeTitle(c.Parsed.TranslatedTitle)
	category := c.Parsed.Category
	season := c.Parsed.Season()
	sig := Signature(normalized, string(category), season)
	incoming := r.newRecord(c, normalized, sig, now)

	if view == nil || !category.Valid() {
		return Decision{Kind: Insert, Record: incoming, Signature: sig}
	}

	if existing, ok := view.BySignature(sig); ok {
		return Decision{
			Kind:       MergeInto,
			ExistingID: existing.ID,
			Record:     MergeRecords(existing, incoming, now),
			Signature:  sig,
			Similarity: 1,
		}
	}

	var (
		best    *model.CatalogRecord
		bestSim float64
	)
	for _, rec := range view.Records() {
		if rec.Category != category || rec.Season != season {
			continue
		}
		sim := Jaccard(normalized, rec.NormalizedTitle)
		if sim >= r.opts.FuzzyThreshold && sim > bestSim {
			best, bestSim = rec, sim
		}
	}
	if best != nil {
		return Decision{
			Kind:       MergeInto,
			ExistingID: best.ID,
			Record:     MergeRecords(best, incoming, now),
			Signature:  sig,
			Similarity: bestSim,
		}
	}
	return Decision{Kind: Insert, Record: incoming, Signature: sig}
}

func (r *Resolver) newRecord(c Candidate, normalized, sig string, now time.Time) *model.CatalogRecord {
	p := c.Parsed
	rec := &model.CatalogRecord{
		ID:              RecordID(p.TranslatedTitle, c.SourceURL),
		Signature:       sig,
		NormalizedTitle: normalized,
		Title:           p.TranslatedTitle,
		RawTitle:        c.RawTitle,
		Category:        p.Category,
		Season:          p.Season(),
		Team:            p.Team,
		Size:            p.Size,
		Images:          unionImages(c.Images, nil),
		Thumbnail:       c.Thumbnail,
		Tags:            BuildTags(p.Category, p.Season(), now, r.opts.BaseTags, r.opts.TagWhitelist),
		SourceURLs:      union([]string{c.SourceURL}, nil),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if p.ExpectedImageCount != nil {
		rec.ExpectedImageCount = *p.ExpectedImageCount
	}
	if rec.Thumbnail == "" {
		rec.Thumbnail = model.NoImage
	}
	return rec
}
