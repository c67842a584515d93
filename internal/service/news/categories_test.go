package news

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveCategory(t *testing.T) {
	sources := DefaultFeedSources()

	tests := []struct {
		query string
		want  string
	}{
		{"경제", "economy"},
		{"정치", "politics"},
		{"사회", "society"},
		{"이슈", "society"},
		{"IT/과학", "it-science"},
		{"개발", "it-science"},
		{"기술", "it-science"},
		{"스포츠", "sports"},
		{"연예", "entertainment"},
		{"엔터테인먼트", "entertainment"},
		// canonical keys work directly, case-insensitively
		{"economy", "economy"},
		{"Economy", "economy"},
		{"SPORTS", "sports"},
		// anything else is a free-text search
		{"삼성전자", ""},
		{"golang", ""},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, resolveCategory(tt.query, sources))
		})
	}
}

func TestResolveCategory_AliasesCoverFeedKeys(t *testing.T) {
	sources := DefaultFeedSources()

	// every alias must land on a configured feed key
	for alias, key := range categoryAliases {
		_, ok := sources[key]
		assert.True(t, ok, "alias %q maps to unconfigured key %q", alias, key)
	}
}

func TestLabelForFeedURL(t *testing.T) {
	tests := []struct {
		feedURL string
		want    string
	}{
		{"https://www.yna.co.kr/rss/economy.xml", "경제"},
		{"https://www.yna.co.kr/rss/politics.xml", "정치"},
		{"https://www.yna.co.kr/rss/international.xml", "세계"},
		{"https://www.yna.co.kr/rss/technology.xml", "IT/과학"},
		{"https://www.yna.co.kr/rss/sports.xml", "스포츠"},
		{"https://example.com/feed.xml", "RSS"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, labelForFeedURL(tt.feedURL), tt.feedURL)
	}
}
