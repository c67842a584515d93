package news

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auth-gateway/internal/domain"
	apperrors "auth-gateway/pkg/errors"
	"auth-gateway/pkg/logger"
)

// newsFixture wires the service to local feed and search API servers
type newsFixture struct {
	svc        *newsService
	searchHits *[]*http.Request
}

func setupNewsService(t *testing.T) *newsFixture {
	t.Helper()

	feedSrv := rssServer(t, economyFeedXML)

	var hits []*http.Request
	searchSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits = append(hits, r.Clone(context.Background()))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"items": [
				{
					"title": "삼성전자 <b>실적</b> 발표",
					"link": "https://news.example.com/s1",
					"description": "영업이익이 늘었다",
					"pubDate": "Sun, 30 Aug 2026 10:00:00 +0900"
				},
				{
					"title": "삼성전자 신제품 공개",
					"link": "https://news.example.com/s2",
					"description": "<img src=\"https://img.example.com/s2.jpg\"> 신제품",
					"pubDate": "Mon, 31 Aug 2026 10:00:00 +0900"
				},
				{
					"title": "",
					"link": "https://news.example.com/s3",
					"description": "버려지는 항목",
					"pubDate": "not a date"
				}
			]
		}`))
	}))
	t.Cleanup(searchSrv.Close)

	sources := map[string][]string{
		"economy": {feedSrv.URL + "/rss/economy.xml"},
	}

	svc := NewNewsService(sources, "client-id", "client-secret", logger.NewNop()).(*newsService)
	svc.searchAPIURL = searchSrv.URL

	return &newsFixture{svc: svc, searchHits: &hits}
}

func TestNewsService_Search_CategoryUsesFeeds(t *testing.T) {
	fx := setupNewsService(t)

	articles, err := fx.svc.Search(context.Background(), "경제", 0, 0)
	require.NoError(t, err)
	require.Len(t, articles, 2)

	assert.Equal(t, "경제", articles[0].Type)
	assert.Equal(t, "코스피 사상 최고치 경신", articles[0].Title)
	assert.Equal(t, "2026.08.31", articles[0].Date)

	// a category query never touches the search API
	assert.Empty(t, *fx.searchHits)
}

func TestNewsService_Search_FreeTextUsesAPI(t *testing.T) {
	fx := setupNewsService(t)

	articles, err := fx.svc.Search(context.Background(), "삼성전자", 0, 0)
	require.NoError(t, err)
	require.Len(t, articles, 2, "the titleless item is dropped")

	// newest first, markup stripped, pubDate reformatted
	assert.Equal(t, "삼성전자 신제품 공개", articles[0].Title)
	assert.Equal(t, "2026.08.31", articles[0].Date)
	assert.Equal(t, "https://img.example.com/s2.jpg", articles[0].Image)

	assert.Equal(t, "삼성전자 실적 발표", articles[1].Title)
	assert.Equal(t, "2026.08.30", articles[1].Date)
	assert.Equal(t, fallbackSearchImage, articles[1].Image)
	assert.Equal(t, "삼성전자", articles[1].Type)

	// credential headers and paging defaults went out with the request
	require.Len(t, *fx.searchHits, 1)
	req := (*fx.searchHits)[0]
	assert.Equal(t, "client-id", req.Header.Get("X-Naver-Client-Id"))
	assert.Equal(t, "client-secret", req.Header.Get("X-Naver-Client-Secret"))

	q := req.URL.Query()
	assert.Equal(t, "삼성전자", q.Get("query"))
	assert.Equal(t, "20", q.Get("display"))
	assert.Equal(t, "1", q.Get("start"))
	assert.Equal(t, "date", q.Get("sort"))
}

func TestNewsService_Search_ExplicitPaging(t *testing.T) {
	fx := setupNewsService(t)

	_, err := fx.svc.Search(context.Background(), "삼성전자", 5, 3)
	require.NoError(t, err)

	require.Len(t, *fx.searchHits, 1)
	q := (*fx.searchHits)[0].URL.Query()
	assert.Equal(t, "5", q.Get("display"))
	assert.Equal(t, "3", q.Get("start"))
}

func TestNewsService_Search_EmptyQuery(t *testing.T) {
	fx := setupNewsService(t)

	_, err := fx.svc.Search(context.Background(), "", 0, 0)
	require.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrorTypeValidation, appErr.Type)
}

func TestNewsService_Search_APIFailure(t *testing.T) {
	fx := setupNewsService(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errorMessage":"Invalid display value"}`, http.StatusBadRequest)
	}))
	defer srv.Close()
	fx.svc.searchAPIURL = srv.URL

	_, err := fx.svc.Search(context.Background(), "삼성전자", 0, 0)
	require.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrorTypeExternal, appErr.Type)
}

func TestNewsService_Search_UnconfiguredCategory(t *testing.T) {
	fx := setupNewsService(t)

	// aliased category without configured feeds degrades to empty, it never
	// falls through to the search API
	articles, err := fx.svc.Search(context.Background(), "스포츠", 0, 0)
	require.NoError(t, err)
	assert.Empty(t, articles)
	assert.Empty(t, *fx.searchHits)
}

func TestNewsService_Latest(t *testing.T) {
	fx := setupNewsService(t)

	articles, err := fx.svc.Latest(context.Background(), 0)
	require.NoError(t, err)

	// only the economy category has feeds configured here
	require.Len(t, articles, 2)
	assert.Equal(t, "경제", articles[0].Type)
	assert.Empty(t, *fx.searchHits)
}

func TestNewsService_Latest_Truncates(t *testing.T) {
	fx := setupNewsService(t)

	articles, err := fx.svc.Latest(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, articles, 1)
}

func TestFormatSearchDate(t *testing.T) {
	assert.Equal(t, "2026.08.31", formatSearchDate("Mon, 31 Aug 2026 10:00:00 +0900"))

	// unparseable dates fall back to today
	assert.Equal(t, time.Now().Format(articleDateLayout), formatSearchDate("garbage"))
}

func TestDedupeByTitle(t *testing.T) {
	articles := []domain.NewsArticle{
		{Title: "a", Link: "1"},
		{Title: "b", Link: "2"},
		{Title: "a", Link: "3"},
	}

	unique := dedupeByTitle(articles)
	require.Len(t, unique, 2)
	// first occurrence wins
	assert.Equal(t, "1", unique[0].Link)
	assert.Equal(t, "2", unique[1].Link)
}

func TestSortByDateDesc(t *testing.T) {
	articles := []domain.NewsArticle{
		{Title: "old", Date: "2026.08.29"},
		{Title: "new", Date: "2026.08.31"},
		{Title: "mid-a", Date: "2026.08.30"},
		{Title: "mid-b", Date: "2026.08.30"},
	}

	sortByDateDesc(articles)

	assert.Equal(t, "new", articles[0].Title)
	// stable: same-day articles keep their original order
	assert.Equal(t, "mid-a", articles[1].Title)
	assert.Equal(t, "mid-b", articles[2].Title)
	assert.Equal(t, "old", articles[3].Title)
}

func TestApplyPaging(t *testing.T) {
	articles := []domain.NewsArticle{
		{Title: "1"}, {Title: "2"}, {Title: "3"}, {Title: "4"}, {Title: "5"},
	}

	tests := []struct {
		name    string
		display int
		start   int
		want    []string
	}{
		{"first page", 2, 1, []string{"1", "2"}},
		{"second page", 2, 3, []string{"3", "4"}},
		{"partial last page", 3, 4, []string{"4", "5"}},
		{"past the end", 2, 9, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := applyPaging(articles, tt.display, tt.start)
			titles := make([]string, 0, len(got))
			for _, a := range got {
				titles = append(titles, a.Title)
			}
			assert.Equal(t, tt.want, titles)
		})
	}
}
