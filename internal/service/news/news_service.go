package news

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"sync"
	"time"

	"auth-gateway/internal/domain"
	"auth-gateway/internal/service"
	apperrors "auth-gateway/pkg/errors"
	"auth-gateway/pkg/logger"
)

const (
	naverSearchURL  = "https://openapi.naver.com/v1/search/news.json"
	outboundTimeout = 30 * time.Second

	defaultDisplay       = 20
	defaultStart         = 1
	latestDefaultDisplay = 100
	latestPerCategory    = 15
)

// latestCategories is the fixed aggregation set for the latest-news feed
var latestCategories = []string{
	"경제", "개발", "이슈", "정치", "사회", "과학", "기술", "엔터테인먼트", "스포츠", "세계",
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// newsService serves category queries from RSS feeds and free-text queries
// from the Naver news search API
type newsService struct {
	sources      map[string][]string
	fetcher      *rssFetcher
	client       *http.Client
	naverID      string
	naverSecret  string
	searchAPIURL string
	log          *logger.Logger
}

// NewNewsService creates a news service over the given feed sources. A nil
// sources map falls back to the built-in feeds.
func NewNewsService(sources map[string][]string, naverID, naverSecret string, log *logger.Logger) service.NewsService {
	if sources == nil {
		sources = DefaultFeedSources()
	}
	return &newsService{
		sources:      sources,
		fetcher:      newRSSFetcher(outboundTimeout, log),
		client:       newHTTPClient(outboundTimeout),
		naverID:      naverID,
		naverSecret:  naverSecret,
		searchAPIURL: naverSearchURL,
		log:          log,
	}
}

// Search routes a category query to the RSS fan-out and anything else to
// the search API
func (s *newsService) Search(ctx context.Context, query string, display, start int) ([]domain.NewsArticle, error) {
	if query == "" {
		return nil, apperrors.NewValidationError("query is required", nil)
	}
	if display <= 0 {
		display = defaultDisplay
	}
	if start <= 0 {
		start = defaultStart
	}

	if category := resolveCategory(query, s.sources); category != "" {
		s.log.WithFields(map[string]interface{}{
			"query":    query,
			"category": category,
		}).Info("Category query, using RSS feeds")
		return s.searchFeeds(ctx, category, display, start), nil
	}

	s.log.WithField("query", query).Info("Free-text query, using search API")
	return s.searchNaver(ctx, query, display, start)
}

// Latest aggregates the fixed category set, dedupes by title and truncates
func (s *newsService) Latest(ctx context.Context, display int) ([]domain.NewsArticle, error) {
	if display <= 0 {
		display = latestDefaultDisplay
	}

	var all []domain.NewsArticle
	for _, category := range latestCategories {
		articles, err := s.Search(ctx, category, latestPerCategory, 1)
		if err != nil {
			s.log.WithError(err).WithField("category", category).Warn(
				"Category fetch failed, skipping")
			continue
		}
		all = append(all, articles...)
	}

	unique := dedupeByTitle(all)
	if len(unique) > display {
		unique = unique[:display]
	}

	s.log.WithField("count", len(unique)).Info("Latest news aggregated")
	return unique, nil
}

// searchFeeds fans out over every feed of the category concurrently and
// merges the results. Individual feed failures are already degraded to
// empty slices by the fetcher.
func (s *newsService) searchFeeds(ctx context.Context, category string, display, start int) []domain.NewsArticle {
	urls := s.sources[category]
	if len(urls) == 0 {
		s.log.WithField("category", category).Warn("No feeds configured for category")
		return []domain.NewsArticle{}
	}

	results := make([][]domain.NewsArticle, len(urls))
	var wg sync.WaitGroup
	for i, feedURL := range urls {
		wg.Add(1)
		go func(i int, feedURL string) {
			defer wg.Done()
			results[i] = s.fetcher.Fetch(ctx, feedURL)
		}(i, feedURL)
	}
	wg.Wait()

	var all []domain.NewsArticle
	for _, r := range results {
		all = append(all, r...)
	}

	unique := dedupeByTitle(all)
	sortByDateDesc(unique)
	return applyPaging(unique, display, start)
}

// naverSearchResponse is the relevant subset of the search API body
type naverSearchResponse struct {
	Items []naverSearchItem `json:"items"`
}

type naverSearchItem struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Description string `json:"description"`
	PubDate     string `json:"pubDate"`
}

// searchNaver queries the news search API with client credential headers
func (s *newsService) searchNaver(ctx context.Context, query string, display, start int) ([]domain.NewsArticle, error) {
	ctx, cancel := context.WithTimeout(ctx, outboundTimeout)
	defer cancel()

	params := url.Values{
		"query":   {query},
		"display": {strconv.Itoa(display)},
		"start":   {strconv.Itoa(start)},
		"sort":    {"date"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.searchAPIURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to create search request", err)
	}
	req.Header.Set("X-Naver-Client-Id", s.naverID)
	req.Header.Set("X-Naver-Client-Secret", s.naverSecret)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, apperrors.NewExternalError("News search request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewExternalError("News search request failed",
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var body naverSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, apperrors.NewExternalError("News search response was unreadable", err)
	}

	articles := make([]domain.NewsArticle, 0, len(body.Items))
	for _, item := range body.Items {
		title := stripHTML(item.Title)
		if title == "" {
			continue
		}
		articles = append(articles, domain.NewsArticle{
			Type:        query,
			Title:       title,
			Date:        formatSearchDate(item.PubDate),
			Image:       searchItemImage(item.Description),
			Link:        item.Link,
			Description: stripHTML(item.Description),
		})
	}

	sortByDateDesc(articles)

	s.log.WithFields(map[string]interface{}{
		"query": query,
		"count": len(articles),
	}).Info("News search completed")

	return articles, nil
}

const fallbackSearchImage = "https://placehold.co/400x250/000000/FFFFFF?text=NEWS"

func searchItemImage(description string) string {
	if url := extractImageFromHTML(description); url != "" {
		return url
	}
	return fallbackSearchImage
}

// formatSearchDate converts the API's RFC 1123 pubDate to yyyy.MM.dd
func formatSearchDate(pubDate string) string {
	t, err := time.Parse(time.RFC1123Z, pubDate)
	if err != nil {
		return time.Now().Format(articleDateLayout)
	}
	return t.Format(articleDateLayout)
}

func dedupeByTitle(articles []domain.NewsArticle) []domain.NewsArticle {
	seen := make(map[string]struct{}, len(articles))
	unique := make([]domain.NewsArticle, 0, len(articles))
	for _, a := range articles {
		if _, ok := seen[a.Title]; ok {
			continue
		}
		seen[a.Title] = struct{}{}
		unique = append(unique, a)
	}
	return unique
}

// sortByDateDesc orders newest first. The yyyy.MM.dd format sorts
// lexicographically, so no parsing is needed; a stable sort keeps the
// feed's own ordering within one day.
func sortByDateDesc(articles []domain.NewsArticle) {
	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].Date > articles[j].Date
	})
}

func applyPaging(articles []domain.NewsArticle, display, start int) []domain.NewsArticle {
	offset := start - 1
	if offset >= len(articles) {
		return []domain.NewsArticle{}
	}
	end := offset + display
	if end > len(articles) {
		end = len(articles)
	}
	return articles[offset:end]
}
