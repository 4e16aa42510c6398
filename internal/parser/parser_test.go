package parser

import (
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haxtag/FCpalestina/internal/model"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestExtract_CompactSeasonWithSizeAndCount(t *testing.T) {
	attrs := Extract("2526 巴萨 主场 S-2XL | 4")

	assert.Equal(t, model.CategoryHome, attrs.Category)
	assert.Equal(t, "2025-2026", attrs.SeasonFull)
	assert.Equal(t, "25/26", attrs.SeasonShort)
	assert.Equal(t, "S-2XL", attrs.Size)
	require.NotNil(t, attrs.ExpectedImageCount)
	assert.Equal(t, 4, *attrs.ExpectedImageCount)
	assert.Equal(t, "Barcelone", attrs.Team)
	assert.True(t, attrs.TeamDetected)
	assert.Equal(t, "25/26 Barcelone Domicile S-2XL", attrs.TranslatedTitle)
}

func TestExtract_SeasonShapes(t *testing.T) {
	tests := []struct {
		raw   string
		full  string
		short string
	}{
		{"2425 世星 客场", "2024-2025", "24/25"},
		{"24-25 世星 客场", "2024-2025", "24/25"},
		{"24/25 世星", "2024-2025", "24/25"},
		{"2024-2025 世星", "2024-2025", "24/25"},
		{"2024/25 世星", "2024-2025", "24/25"},
		{"9900 复古 世星", "1999-2000", "99/00"},
		{"98-99 复古", "1998-1999", "98/99"},
		{"皇马 主场 2024", "2024", "2024"},
		// 多个候选时取最后一个
		{"1998 复古 2425", "2024-2025", "24/25"},
		{"世星 主场", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			attrs := Extract(tt.raw)
			assert.Equal(t, tt.full, attrs.SeasonFull)
			assert.Equal(t, tt.short, attrs.SeasonShort)
		})
	}
}

func TestExtract_SizeDigitsAreNotSeason(t *testing.T) {
	attrs := Extract("世星 XS-4XL")
	assert.Equal(t, "XS-4XL", attrs.Size)
	assert.Empty(t, attrs.SeasonFull)

	attrs = Extract("2425 世星 儿童 16-28码")
	assert.Equal(t, "16-28", attrs.Size)
	assert.Equal(t, "2024-2025", attrs.SeasonFull)
}

func TestExtract_Categories(t *testing.T) {
	tests := []struct {
		raw  string
		want model.Category
	}{
		{"世星 三客", model.CategoryThird},
		{"世星 二客", model.CategoryAway},
		{"世星 客场", model.CategoryAway},
		{"世星 守门员", model.CategoryKeeper},
		{"世星 门将", model.CategoryKeeper},
		{"世星 特别版", model.CategorySpecial},
		{"世星 训练服", model.CategorySpecial},
		{"世星 复古", model.CategoryVintage},
		{"Real Away 2024", model.CategoryAway},
		{"Palestine Gardien", model.CategoryKeeper},
		{"世星", model.CategoryHome},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, Extract(tt.raw).Category)
		})
	}
}

func TestExtract_TeamOrderPrefersLongerTerms(t *testing.T) {
	assert.Equal(t, "Inter Milan", Extract("国际米兰 主场").Team)
	assert.Equal(t, "AC Milan", Extract("米兰 主场").Team)
	assert.Equal(t, "Real Madrid", Extract("Real Home 2024").Team)
	assert.Equal(t, "Atletico Madrid", Extract("Atletico Madrid Away").Team)
}

func TestExtract_TermConsumedOnce(t *testing.T) {
	// 球队词被移除后，其中的字符不会再被类别或颜色规则读到
	attrs := Extract("绿洲乐队 白")
	assert.Equal(t, "Oasis", attrs.Team)
	assert.Equal(t, []string{"Blanc"}, attrs.Colors)
	assert.Equal(t, model.CategoryHome, attrs.Category)
}

func TestExtract_Colors(t *testing.T) {
	attrs := Extract("世星 深绿 黑 black")
	assert.Equal(t, []string{"Vert Foncé", "Noir"}, attrs.Colors)
}

func TestExtract_NeverEmpty(t *testing.T) {
	for _, raw := range []string{"", "   ", "| 3", "???"} {
		attrs := Extract(raw)
		assert.NotEmpty(t, attrs.TranslatedTitle, raw)
		assert.Equal(t, "Palestine", attrs.Team)
	}
	attrs := Extract("")
	assert.Equal(t, "Domicile", attrs.TranslatedTitle)
}

func TestExtract_FullWidthInput(t *testing.T) {
	attrs := Extract("２５２６ 巴萨 客场 Ｓ－２ＸＬ ｜ ６")
	assert.Equal(t, "2025-2026", attrs.SeasonFull)
	assert.Equal(t, "S-2XL", attrs.Size)
	require.NotNil(t, attrs.ExpectedImageCount)
	assert.Equal(t, 6, *attrs.ExpectedImageCount)
}

func TestExtract_RetranslationIsStable(t *testing.T) {
	first := Extract("2526 巴萨 客场 S-2XL")
	again := Extract(first.TranslatedTitle)
	assert.Equal(t, first.TranslatedTitle, again.TranslatedTitle)
	assert.Equal(t, first.Category, again.Category)
	assert.Equal(t, first.SeasonFull, again.SeasonFull)
}

func TestSession_DisambiguatesCollisions(t *testing.T) {
	s := NewSession(quietLogger(), DefaultOptions())

	a := s.Parse("皇马 主场 2024")
	b := s.Parse("Real Home 2024")
	c := s.Parse("皇家马德里 主 2024")

	assert.Equal(t, "2024 Real Madrid Domicile", a.TranslatedTitle)
	assert.Equal(t, "2024 Real Madrid Domicile #2", b.TranslatedTitle)
	assert.Equal(t, "2024 Real Madrid Domicile #3", c.TranslatedTitle)
	assert.Equal(t, 3, s.Produced())

	s.Reset()
	assert.Equal(t, 0, s.Produced())
	assert.Equal(t, "2024 Real Madrid Domicile", s.Parse("Real Home 2024").TranslatedTitle)
}

func TestSession_ConcurrentTitlesAreUnique(t *testing.T) {
	s := NewSession(quietLogger(), DefaultOptions())

	const n = 50
	titles := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			titles[i] = s.Parse("2526 世星 主场").TranslatedTitle
		}(i)
	}
	wg.Wait()

	seen := make(map[string]struct{}, n)
	for _, title := range titles {
		_, dup := seen[title]
		require.False(t, dup, title)
		seen[title] = struct{}{}
	}
	assert.Equal(t, n, s.Produced())
}
