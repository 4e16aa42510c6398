package dedup

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

const hashLen = 12

func shortHash(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])[:hashLen]
}

// Signature 同一商品判定键：规范化标题|类别|赛季
func Signature(normalizedTitle, category, season string) string {
	return shortHash(normalizedTitle + "|" + category + "|" + season)
}

// RecordID 记录 id，同一标题和来源地址总是得到同一 id
func RecordID(title, sourceURL string) string {
	return shortHash(title + "|" + sourceURL)
}

// Jaccard 空白分词后的集合相似度
func Jaccard(a, b string) float64 {
	sa := tokenSet(a)
	sb := tokenSet(b)
	union := len(sa)
	inter := 0
	for t := range sb {
		if _, ok := sa[t]; ok {
			inter++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func tokenSet(s string) map[string]struct{} {
	fields := strings.Fields(s)
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}
