// Package parser 把相册标题（中文、尺码、赛季、球队混排）解析为结构化属性并生成法语标题
package parser

import (
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/haxtag/FCpalestina/internal/model"
)

const (
	DefaultTeam        = "Palestine"
	DefaultPlaceholder = "Maillot Palestine"
)

// Options 解析默认值
type Options struct {
	DefaultTeam string
	Placeholder string
}

func DefaultOptions() Options {
	return Options{DefaultTeam: DefaultTeam, Placeholder: DefaultPlaceholder}
}

func (o Options) withDefaults() Options {
	if strings.TrimSpace(o.DefaultTeam) == "" {
		o.DefaultTeam = DefaultTeam
	}
	if strings.TrimSpace(o.Placeholder) == "" {
		o.Placeholder = DefaultPlaceholder
	}
	return o
}

// Extract 使用默认选项解析标题，不做唯一化
func Extract(raw string) model.ParsedAttributes {
	attrs, _ := extract(raw, DefaultOptions())
	return attrs
}

// extract 返回解析结果和未被任何规则消费的剩余文本
func extract(raw string, opts Options) (model.ParsedAttributes, string) {
	attrs := model.ParsedAttributes{Category: model.CategoryHome}

	s := strings.TrimSpace(norm.NFKC.String(raw))

	// 1. 图片数
	if m := reImageCount.FindStringSubmatchIndex(s); m != nil {
		if n, err := strconv.Atoi(s[m[2]:m[3]]); err == nil {
			attrs.ExpectedImageCount = &n
		}
		s = strings.TrimSpace(s[:m[0]])
	}
	original := s
	working := s

	// 2. 尺码
	sizeLoc := reSize.FindStringIndex(original)
	if sizeLoc != nil {
		tok := original[sizeLoc[0]:sizeLoc[1]]
		attrs.Size = normalizeSize(tok)
		working = strings.Replace(working, tok, " ", 1)
	}

	// 3. 赛季，在原始串上扫描
	if se, ok := detectSeason(original, sizeLoc); ok {
		attrs.SeasonFull = se.full
		attrs.SeasonShort = se.short
		working = removeLast(working, se.token)
	}

	// 4. 球队
	attrs.Team = opts.DefaultTeam
	if r, ok := firstMatch(teamRules, working); ok {
		attrs.Team = r.value
		attrs.TeamDetected = true
		working = r.re.ReplaceAllString(working, " ")
	}

	// 5. 类别
	if r, ok := firstMatch(categoryRules, working); ok {
		attrs.Category = model.Category(r.value)
		working = r.re.ReplaceAllString(working, " ")
	}

	// 6. 颜色，全部收集
	seen := make(map[string]struct{})
	for _, r := range colorRules {
		if !r.re.MatchString(working) {
			continue
		}
		working = r.re.ReplaceAllString(working, " ")
		if _, dup := seen[r.value]; dup {
			continue
		}
		seen[r.value] = struct{}{}
		attrs.Colors = append(attrs.Colors, r.value)
	}

	// 7. 剩余文本丢弃
	remainder := strings.TrimSpace(reSpaces.ReplaceAllString(strings.ReplaceAll(working, "|", " "), " "))

	// 8. 组合标题
	attrs.TranslatedTitle = composeTitle(attrs, opts)
	return attrs, remainder
}

func composeTitle(attrs model.ParsedAttributes, opts Options) string {
	parts := []string{attrs.SeasonShort}
	if attrs.TeamDetected {
		parts = append(parts, attrs.Team)
	}
	parts = append(parts, CategoryLabel(attrs.Category), attrs.Size)
	title := joinNonEmpty(parts)

	if title == "" || strings.EqualFold(title, opts.Placeholder) {
		s := attrs.SeasonShort
		if s == "" {
			s = attrs.SeasonFull
		}
		title = joinNonEmpty([]string{s, attrs.Team, string(attrs.Category)})
	}
	if title == "" {
		title = opts.Placeholder
	}
	return title
}

func firstMatch(rules []termRule, s string) (termRule, bool) {
	for _, r := range rules {
		if r.re.MatchString(s) {
			return r, true
		}
	}
	return termRule{}, false
}

func normalizeSize(tok string) string {
	tok = strings.TrimSuffix(strings.TrimSpace(tok), "码")
	return strings.ToUpper(strings.Join(strings.Fields(tok), ""))
}

func removeLast(s, tok string) string {
	i := strings.LastIndex(s, tok)
	if i < 0 {
		return s
	}
	return s[:i] + " " + s[i+len(tok):]
}

func joinNonEmpty(parts []string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}
