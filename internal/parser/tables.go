package parser

import (
	"regexp"
	"unicode"

	"github.com/haxtag/FCpalestina/internal/model"
)

// termRule 词典条目：中文词按子串匹配，拉丁词忽略大小写并按词边界匹配
type termRule struct {
	term  string
	value string
	re    *regexp.Regexp
}

func compileTerms(pairs [][2]string) []termRule {
	rules := make([]termRule, 0, len(pairs))
	for _, p := range pairs {
		rules = append(rules, termRule{term: p[0], value: p[1], re: termPattern(p[0])})
	}
	return rules
}

func termPattern(term string) *regexp.Regexp {
	quoted := regexp.QuoteMeta(term)
	for _, r := range term {
		if unicode.Is(unicode.Han, r) {
			return regexp.MustCompile(quoted)
		}
	}
	// \b 只认 ASCII 单词字符，首尾是 é/ç 之类时不能加
	runes := []rune(term)
	prefix, suffix := "", ""
	if isASCIIWord(runes[0]) {
		prefix = `\b`
	}
	if isASCIIWord(runes[len(runes)-1]) {
		suffix = `\b`
	}
	return regexp.MustCompile(`(?i)` + prefix + quoted + suffix)
}

func isASCIIWord(r rune) bool {
	return r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_')
}

// 顺序即优先级（先命中者胜），长词放在其子串之前
var teamRules = compileTerms([][2]string{
	{"巴塞罗那", "Barcelone"},
	{"巴萨", "Barcelone"},
	{"皇家马德里", "Real Madrid"},
	{"皇马", "Real Madrid"},
	{"马竞", "Atletico Madrid"},
	{"拜仁", "Bayern"},
	{"曼联", "Manchester United"},
	{"曼城", "Manchester City"},
	{"利物浦", "Liverpool"},
	{"阿森纳", "Arsenal"},
	{"热刺", "Tottenham"},
	{"切尔西", "Chelsea"},
	{"尤文", "Juventus"},
	{"国际米兰", "Inter Milan"},
	{"国米", "Inter Milan"},
	{"AC米兰", "AC Milan"},
	{"米兰", "AC Milan"},
	{"多特", "Dortmund"},
	{"那不勒斯", "Naples"},
	{"塞维利亚", "Sevilla"},
	{"阿贾克斯", "Ajax"},
	{"德国", "Allemagne"},
	{"富勒姆", "Fulham"},
	{"伯恩茅斯", "Bournemouth"},
	{"朴茨茅斯", "Portsmouth"},
	{"洛杉矶", "Los Angeles"},
	{"巴勒斯坦", "Palestine"},
	{"世星", "Palestine"},
	{"绿洲乐队", "Oasis"},
	// 已翻译或拉丁拼写的标题
	{"FC Palestina", "Palestine"},
	{"Palestina", "Palestine"},
	{"Palestine", "Palestine"},
	{"Atletico Madrid", "Atletico Madrid"},
	{"Atlético Madrid", "Atletico Madrid"},
	{"Real Madrid", "Real Madrid"},
	{"Real", "Real Madrid"},
	{"Barcelona", "Barcelone"},
	{"Barcelone", "Barcelone"},
	{"Barça", "Barcelone"},
	{"Bayern", "Bayern"},
	{"Manchester United", "Manchester United"},
	{"Man Utd", "Manchester United"},
	{"Manchester City", "Manchester City"},
	{"Man City", "Manchester City"},
	{"Liverpool", "Liverpool"},
	{"Arsenal", "Arsenal"},
	{"Tottenham", "Tottenham"},
	{"Chelsea", "Chelsea"},
	{"Juventus", "Juventus"},
	{"Inter Milan", "Inter Milan"},
	{"Inter", "Inter Milan"},
	{"AC Milan", "AC Milan"},
	{"Milan", "AC Milan"},
	{"Dortmund", "Dortmund"},
	{"Napoli", "Naples"},
	{"Naples", "Naples"},
	{"Sevilla", "Sevilla"},
	{"Ajax", "Ajax"},
	{"Fulham", "Fulham"},
	{"Bournemouth", "Bournemouth"},
	{"Portsmouth", "Portsmouth"},
	{"Los Angeles", "Los Angeles"},
	{"Oasis", "Oasis"},
})

var categoryRules = compileTerms([][2]string{
	{"三客", string(model.CategoryThird)},
	{"二客", string(model.CategoryAway)},
	{"主场", string(model.CategoryHome)},
	{"客场", string(model.CategoryAway)},
	{"第三", string(model.CategoryThird)},
	{"守门员", string(model.CategoryKeeper)},
	{"门将", string(model.CategoryKeeper)},
	{"特别版", string(model.CategorySpecial)},
	{"限量版", string(model.CategorySpecial)},
	{"纪念版", string(model.CategorySpecial)},
	{"训练服", string(model.CategorySpecial)},
	{"训练", string(model.CategorySpecial)},
	{"复古", string(model.CategoryVintage)},
	{"经典", string(model.CategoryVintage)},
	{"主", string(model.CategoryHome)},
	{"客", string(model.CategoryAway)},
	{"三", string(model.CategoryThird)},
	{"Domicile", string(model.CategoryHome)},
	{"Home", string(model.CategoryHome)},
	{"Extérieur", string(model.CategoryAway)},
	{"Exterieur", string(model.CategoryAway)},
	{"Away", string(model.CategoryAway)},
	{"Troisième", string(model.CategoryThird)},
	{"Troisieme", string(model.CategoryThird)},
	{"Third", string(model.CategoryThird)},
	{"3rd", string(model.CategoryThird)},
	{"Gardien", string(model.CategoryKeeper)},
	{"Goalkeeper", string(model.CategoryKeeper)},
	{"Keeper", string(model.CategoryKeeper)},
	{"GK", string(model.CategoryKeeper)},
	{"Édition Spéciale", string(model.CategorySpecial)},
	{"Spéciale", string(model.CategorySpecial)},
	{"Special", string(model.CategorySpecial)},
	{"Limited", string(model.CategorySpecial)},
	{"Vintage", string(model.CategoryVintage)},
	{"Rétro", string(model.CategoryVintage)},
	{"Retro", string(model.CategoryVintage)},
	{"Classique", string(model.CategoryVintage)},
	{"Classic", string(model.CategoryVintage)},
})

var colorRules = compileTerms([][2]string{
	{"深绿", "Vert Foncé"},
	{"黑", "Noir"},
	{"白", "Blanc"},
	{"红", "Rouge"},
	{"蓝", "Bleu"},
	{"绿", "Vert"},
	{"黄", "Jaune"},
	{"粉", "Rose"},
	{"灰", "Gris"},
	{"紫", "Violet"},
	{"橙", "Orange"},
	{"Noir", "Noir"},
	{"Black", "Noir"},
	{"Blanc", "Blanc"},
	{"White", "Blanc"},
	{"Rouge", "Rouge"},
	{"Red", "Rouge"},
	{"Bleu", "Bleu"},
	{"Blue", "Bleu"},
	{"Vert", "Vert"},
	{"Green", "Vert"},
	{"Jaune", "Jaune"},
	{"Yellow", "Jaune"},
	{"Rose", "Rose"},
	{"Pink", "Rose"},
	{"Gris", "Gris"},
	{"Grey", "Gris"},
	{"Gray", "Gris"},
	{"Violet", "Violet"},
	{"Purple", "Violet"},
	{"Orange", "Orange"},
})

// categoryLabels 标题中使用的法语类别名
var categoryLabels = map[model.Category]string{
	model.CategoryHome:    "Domicile",
	model.CategoryAway:    "Extérieur",
	model.CategoryThird:   "Troisième",
	model.CategoryKeeper:  "Gardien",
	model.CategorySpecial: "Édition Spéciale",
	model.CategoryVintage: "Vintage",
}

// CategoryLabel 返回类别的展示名
func CategoryLabel(c model.Category) string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return categoryLabels[model.CategoryHome]
}

var (
	// 结尾的 "| 4" 为相册声明的图片数
	reImageCount = regexp.MustCompile(`\|\s*(\d{1,2})\s*$`)

	// 尺码区间：S-2XL / XS-4XL / M-3XL，或童装数字区间 16-28码
	reSize = regexp.MustCompile(`(?i)\b(?:\d?X{0,3}S|M|L|\d?X{1,3}L)\s*-\s*(?:\d?X{0,3}S|M|L|\d?X{1,3}L)\b|\b\d{1,2}\s*-\s*\d{1,2}\s*码`)

	// 赛季候选：数字串，可带 -// 连接的第二段
	reSeasonToken = regexp.MustCompile(`\d+(?:\s*[-/]\s*\d+)?`)

	reSpaces = regexp.MustCompile(`\s+`)
)
