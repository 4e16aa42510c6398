package imagesel

import (
	"path"
	"regexp"
	"sort"
	"strings"
)

// Tier 同一张图的分辨率档位，数值越大越好
type Tier int

const (
	TierSmall Tier = iota // small / square / thumb
	TierMedium
	TierUnmarked
	TierBig // big / large
	TierRaw
)

func (t Tier) String() string {
	switch t {
	case TierRaw:
		return "raw"
	case TierBig:
		return "big"
	case TierUnmarked:
		return "unmarked"
	case TierMedium:
		return "medium"
	default:
		return "small"
	}
}

// DefaultMarkerTiers 路径标记到档位的映射，可通过配置覆盖
var DefaultMarkerTiers = map[string]Tier{
	"raw":    TierRaw,
	"big":    TierBig,
	"large":  TierBig,
	"medium": TierMedium,
	"small":  TierSmall,
	"square": TierSmall,
	"thumb":  TierSmall,
}

// classifier 按标记表识别档位
type classifier struct {
	tiers map[string]Tier
	re    *regexp.Regexp
}

func newClassifier(tiers map[string]Tier) *classifier {
	c := &classifier{tiers: make(map[string]Tier, len(tiers))}
	markers := make([]string, 0, len(tiers))
	for m, t := range tiers {
		m = strings.ToLower(strings.TrimSpace(m))
		if m == "" {
			continue
		}
		c.tiers[m] = t
		markers = append(markers, regexp.QuoteMeta(m))
	}
	// 长标记优先
	sort.Slice(markers, func(i, j int) bool {
		if len(markers[i]) != len(markers[j]) {
			return len(markers[i]) > len(markers[j])
		}
		return markers[i] < markers[j]
	})
	if len(markers) > 0 {
		c.re = regexp.MustCompile(`(?i)(?:^|[/_\-.])(` + strings.Join(markers, "|") + `)(?:[_\-.]|$)`)
	}
	return c
}

var defaultClassifier = newClassifier(DefaultMarkerTiers)

// lastMarker 返回最后一个档位标记所在的 [start,end)，包含其前面的分隔符
func (c *classifier) lastMarker(p string) (start, end int, tier Tier, ok bool) {
	if c.re == nil {
		return 0, 0, TierUnmarked, false
	}
	matches := c.re.FindAllStringSubmatchIndex(p, -1)
	if len(matches) == 0 {
		return 0, 0, TierUnmarked, false
	}
	m := matches[len(matches)-1]
	// 主机名里的 big./raw. 不算
	if m[2] < pathOffset(p) {
		return 0, 0, TierUnmarked, false
	}
	start, end = m[2], m[3]
	if start > 0 {
		start--
	}
	return start, end, c.tiers[strings.ToLower(p[m[2]:m[3]])], true
}

func (c *classifier) classify(ref string) Tier {
	_, _, tier, _ := c.lastMarker(stripQuery(ref))
	return tier
}

func (c *classifier) identityKey(ref string) string {
	p := stripQuery(ref)
	start, end, _, ok := c.lastMarker(p)
	if !ok {
		return strings.ToLower(p)
	}
	return strings.ToLower(p[:start] + p[end:])
}

// Classify 根据路径中的标记判断档位，没有标记视为 unmarked
func Classify(ref string) Tier {
	return defaultClassifier.classify(ref)
}

// IdentityKey 去掉档位标记后的路径，同一张图的不同分辨率得到同一个 key
func IdentityKey(ref string) string {
	return defaultClassifier.identityKey(ref)
}

// stripQuery 去掉 ?query 与 #fragment
func stripQuery(ref string) string {
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		return ref[:i]
	}
	return ref
}

func pathOffset(p string) int {
	i := strings.Index(p, "://")
	if i < 0 {
		return 0
	}
	j := strings.Index(p[i+3:], "/")
	if j < 0 {
		return len(p)
	}
	return i + 3 + j
}

func extension(ref string) string {
	return strings.ToLower(path.Ext(stripQuery(ref)))
}
