// Package imagesel 从相册候选图片中挑选封面与图库：过滤噪声、按分辨率档位去重、按声明数量截断
package imagesel

import (
	"strings"

	"github.com/haxtag/FCpalestina/internal/model"
)

// NoImage 没有可用图片时的封面
const NoImage = model.NoImage

var (
	DefaultNoiseKeywords = []string{
		"logo", "icon", "avatar", "banner", "header", "footer", "button",
		"nav", "menu", "loading", "placeholder", "profile", "website", "layout",
	}
	DefaultExtensions = []string{".jpg", ".jpeg", ".png", ".webp"}
)

type Options struct {
	NoiseKeywords []string
	Extensions    []string
	KeepUnmarked  bool            // 无档位标记的图片是否保留
	MarkerTiers   map[string]Tier // 为空时使用 DefaultMarkerTiers
}

func DefaultOptions() Options {
	return Options{
		NoiseKeywords: DefaultNoiseKeywords,
		Extensions:    DefaultExtensions,
		KeepUnmarked:  false,
		MarkerTiers:   DefaultMarkerTiers,
	}
}

// Selection Gallery 已去重，非空时 Cover 为其第一张
type Selection struct {
	Cover   string   `json:"cover"`
	Gallery []string `json:"gallery"`
}

type Selector struct {
	noise      []string
	extensions map[string]struct{}
	minTier    Tier
	tiers      *classifier
}

func NewSelector(opts Options) *Selector {
	s := &Selector{extensions: make(map[string]struct{}, len(opts.Extensions)), minTier: TierUnmarked}
	for _, k := range opts.NoiseKeywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			s.noise = append(s.noise, k)
		}
	}
	for _, e := range opts.Extensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		s.extensions[e] = struct{}{}
	}
	if !opts.KeepUnmarked {
		s.minTier = TierBig
	}
	s.tiers = defaultClassifier
	if len(opts.MarkerTiers) > 0 {
		s.tiers = newClassifier(opts.MarkerTiers)
	}
	return s
}

// Select 过滤、按档位分组去重后组装图库；声明的封面无条件采用并放在首位；
// expected > 0 时截断到声明数量
func (s *Selector) Select(candidates []string, cover string, expected int) Selection {
	type best struct {
		ref  string
		tier Tier
	}
	var order []string
	groups := make(map[string]best)

	for _, ref := range candidates {
		ref = strings.TrimSpace(ref)
		if !s.accept(ref) {
			continue
		}
		tier := s.tiers.classify(ref)
		if tier < s.minTier {
			continue
		}
		key := s.tiers.identityKey(ref)
		cur, ok := groups[key]
		if !ok {
			order = append(order, key)
			groups[key] = best{ref: ref, tier: tier}
			continue
		}
		if tier > cur.tier {
			groups[key] = best{ref: ref, tier: tier}
		}
	}

	gallery := make([]string, 0, len(order)+1)
	cover = strings.TrimSpace(cover)
	var coverKey string
	if cover != "" {
		coverKey = s.tiers.identityKey(cover)
		gallery = append(gallery, cover)
	}
	for _, key := range order {
		if key == coverKey {
			continue
		}
		gallery = append(gallery, groups[key].ref)
	}

	if expected > 0 && len(gallery) > expected {
		gallery = gallery[:expected]
	}
	if len(gallery) == 0 {
		return Selection{Cover: NoImage, Gallery: []string{}}
	}
	return Selection{Cover: gallery[0], Gallery: gallery}
}

func (s *Selector) accept(ref string) bool {
	if ref == "" {
		return false
	}
	lower := strings.ToLower(ref)
	for _, k := range s.noise {
		if strings.Contains(lower, k) {
			return false
		}
	}
	if len(s.extensions) == 0 {
		return true
	}
	_, ok := s.extensions[extension(ref)]
	return ok
}
