// Package dedup 判断新 listing 是否与目录中已有记录为同一商品，并无损合并
package dedup

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const emptyTitle = "maillot"

// 解析阶段追加的 " #n" 编号不参与比较
var reDisambiguator = regexp.MustCompile(`\s*#\d+\s*$`)

// 多词同义，先于单词同义处理
var phraseSynonyms = []struct{ from, to string }{
	{"fc palestina", "palestina"},
	{"palestine fc", "palestina"},
	{"t shirt", ""},
}

var tokenSynonyms = map[string]string{
	"palestine": "palestina",
	"maillot":   "",
	"jersey":    "",
	"shirt":     "",
	"tshirt":    "",
	"kit":       "",
}

// NormalizeTitle 标题规范化：小写、去重音、标点转空格、同义词折叠
func NormalizeTitle(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = reDisambiguator.ReplaceAllString(s, "")

	// Transformer 有内部状态，每次调用单独构建
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(fold, s); err == nil {
		s = folded
	}

	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	s = " " + strings.Join(strings.Fields(b.String()), " ") + " "
	for _, p := range phraseSynonyms {
		s = strings.ReplaceAll(s, " "+p.from+" ", " "+p.to+" ")
	}

	tokens := strings.Fields(s)
	out := tokens[:0]
	for _, t := range tokens {
		if v, ok := tokenSynonyms[t]; ok {
			t = v
		}
		if t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return emptyTitle
	}
	return strings.Join(out, " ")
}
