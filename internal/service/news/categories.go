package news

import "strings"

// categoryAliases maps user-facing category names, mostly Korean, onto the
// canonical feed keys
var categoryAliases = map[string]string{
	"경제":     "economy",
	"정치":     "politics",
	"사회":     "society",
	"문화":     "culture",
	"세계":     "world",
	"IT/과학":  "it-science",
	"IT":     "it-science",
	"과학":     "it-science",
	"기술":     "it-science",
	"개발":     "it-science",
	"스포츠":    "sports",
	"연예":     "entertainment",
	"엔터테인먼트": "entertainment",
	"이슈":     "society",
}

// categoryLabels maps feed-URL fragments back to the display label tagged
// onto articles. Ordered so matching is deterministic.
var categoryLabels = []struct {
	fragment string
	label    string
}{
	{"economy", "경제"},
	{"politics", "정치"},
	{"society", "사회"},
	{"culture", "문화"},
	{"international", "세계"},
	{"world", "세계"},
	{"technology", "IT/과학"},
	{"science", "과학"},
	{"sports", "스포츠"},
	{"entertainment", "연예"},
}

// DefaultFeedSources returns the built-in RSS feed map, canonical category
// key to feed URLs. Overridable through configuration.
func DefaultFeedSources() map[string][]string {
	return map[string][]string{
		"economy": {
			"https://www.yna.co.kr/rss/economy.xml",
			"https://www.mk.co.kr/rss/30100041/",
		},
		"politics": {
			"https://www.yna.co.kr/rss/politics.xml",
		},
		"society": {
			"https://www.yna.co.kr/rss/society.xml",
		},
		"culture": {
			"https://www.yna.co.kr/rss/culture.xml",
		},
		"world": {
			"https://www.yna.co.kr/rss/international.xml",
		},
		"it-science": {
			"https://www.yna.co.kr/rss/technology.xml",
			"https://www.etnews.com/rss/news.xml",
		},
		"sports": {
			"https://www.yna.co.kr/rss/sports.xml",
		},
		"entertainment": {
			"https://www.yna.co.kr/rss/entertainment.xml",
		},
	}
}

// resolveCategory maps a query onto a canonical feed key, or "" when the
// query is a free-text search rather than a category
func resolveCategory(query string, sources map[string][]string) string {
	if key, ok := categoryAliases[query]; ok {
		return key
	}
	lower := strings.ToLower(query)
	if _, ok := sources[lower]; ok {
		return lower
	}
	return ""
}

// labelForFeedURL derives the display category from a feed URL, falling
// back to a generic label
func labelForFeedURL(feedURL string) string {
	lower := strings.ToLower(feedURL)
	for _, entry := range categoryLabels {
		if strings.Contains(lower, entry.fragment) {
			return entry.label
		}
	}
	return "RSS"
}
