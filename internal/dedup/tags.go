package dedup

import (
	"regexp"
	"strconv"
	"time"

	"github.com/haxtag/FCpalestina/internal/model"
)

var (
	DefaultBaseTags     = []string{"fcpalestina"}
	DefaultTagWhitelist = []string{"fcpalestina", "new", "popular", "classic", "home", "away", "keeper"}
)

var reYear = regexp.MustCompile(`\d{4}`)

// BuildTags 标签规则：基础标签；白名单内的类别；复古→classic；特别版/第三→popular；赛季未结束→new
func BuildTags(category model.Category, season string, now time.Time, base, whitelist []string) []string {
	allowed := make(map[string]struct{}, len(whitelist))
	for _, t := range whitelist {
		allowed[t] = struct{}{}
	}

	var tags []string
	add := func(t string) {
		if _, ok := allowed[t]; !ok {
			return
		}
		for _, have := range tags {
			if have == t {
				return
			}
		}
		tags = append(tags, t)
	}

	for _, t := range base {
		add(t)
	}
	add(string(category))
	switch category {
	case model.CategoryVintage:
		add("classic")
	case model.CategorySpecial, model.CategoryThird:
		add("popular")
	}
	if end := seasonEndYear(season); end > 0 && end >= now.Year() {
		add("new")
	}
	return tags
}

// seasonEndYear 2024-2025 → 2025，2024 → 2024，无法识别返回 0
func seasonEndYear(season string) int {
	years := reYear.FindAllString(season, -1)
	if len(years) == 0 {
		return 0
	}
	y, _ := strconv.Atoi(years[len(years)-1])
	return y
}
