package parser

import (
	"fmt"
	"regexp"
	"strconv"
)

var reSeasonSplit = regexp.MustCompile(`\s*[-/]\s*`)

// season 识别出的赛季
type season struct {
	full  string // 2025-2026，单一年份时为 2024
	short string // 25/26，单一年份时为 2024
	token string // 原文中的片段，用于从工作串中移除
}

// detectSeason 在原始串中扫描赛季片段，跳过尺码所在区间，取最后一个合法片段
func detectSeason(original string, skip []int) (season, bool) {
	var (
		found season
		ok    bool
	)
	for _, loc := range reSeasonToken.FindAllStringIndex(original, -1) {
		if skip != nil && loc[0] < skip[1] && skip[0] < loc[1] {
			continue
		}
		tok := original[loc[0]:loc[1]]
		if s, valid := classifySeason(tok); valid {
			found, ok = s, true
		}
	}
	return found, ok
}

func classifySeason(tok string) (season, bool) {
	parts := reSeasonSplit.Split(tok, -1)
	switch len(parts) {
	case 1:
		p := parts[0]
		if len(p) != 4 {
			return season{}, false
		}
		a, _ := strconv.Atoi(p[:2])
		b, _ := strconv.Atoi(p[2:])
		// 紧凑写法 2526 优先于单一年份
		if consecutive(a, b) {
			return pairSeason(a, b, tok), true
		}
		if y, _ := strconv.Atoi(p); y >= 1900 && y <= 2099 {
			return season{full: p, short: p, token: tok}, true
		}
	case 2:
		a, b := parts[0], parts[1]
		switch {
		case len(a) == 2 && len(b) == 2:
			x, _ := strconv.Atoi(a)
			y, _ := strconv.Atoi(b)
			if consecutive(x, y) {
				return pairSeason(x, y, tok), true
			}
		case len(a) == 4 && (len(b) == 4 || len(b) == 2):
			ya, _ := strconv.Atoi(a)
			if ya < 1900 || ya > 2099 {
				return season{}, false
			}
			yb, _ := strconv.Atoi(b)
			if consecutive(ya%100, yb%100) {
				return season{
					full:  fmt.Sprintf("%d-%d", ya, ya+1),
					short: fmt.Sprintf("%02d/%02d", ya%100, (ya+1)%100),
					token: tok,
				}, true
			}
		}
	}
	return season{}, false
}

func consecutive(a, b int) bool {
	return b == (a+1)%100
}

func pairSeason(a, b int, tok string) season {
	return season{
		full:  fmt.Sprintf("%d-%d", century(a)+a, century(b)+b),
		short: fmt.Sprintf("%02d/%02d", a, b),
		token: tok,
	}
}

// century 两位年份 ≤ 30 视为 20xx，否则 19xx
func century(yy int) int {
	if yy <= 30 {
		return 2000
	}
	return 1900
}
