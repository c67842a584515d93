package news

import (
	"context"
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"auth-gateway/internal/domain"
	"auth-gateway/pkg/logger"
)

const (
	articleDateLayout = "2006.01.02"
	fallbackRSSImage  = "https://placehold.co/400x250/000000/FFFFFF?text=RSS"
)

var (
	htmlTagPattern = regexp.MustCompile(`<[^>]*>`)
	imgSrcPattern  = regexp.MustCompile(`<img[^>]+(?:src|data-src|data-lazy-src)\s*=\s*["']([^"']+)["']`)
)

// rssFetcher pulls and normalizes a single RSS feed
type rssFetcher struct {
	parser *gofeed.Parser
	log    *logger.Logger
}

func newRSSFetcher(timeout time.Duration, log *logger.Logger) *rssFetcher {
	parser := gofeed.NewParser()
	parser.Client = newHTTPClient(timeout)
	return &rssFetcher{
		parser: parser,
		log:    log,
	}
}

// Fetch parses one feed URL into articles, newest first. Failures degrade
// to an empty slice so one dead feed cannot sink a whole category.
func (f *rssFetcher) Fetch(ctx context.Context, feedURL string) []domain.NewsArticle {
	feed, err := f.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		f.log.WithError(err).WithField("feed_url", feedURL).Warn("RSS feed fetch failed")
		return nil
	}

	label := labelForFeedURL(feedURL)
	articles := make([]domain.NewsArticle, 0, len(feed.Items))
	for _, item := range feed.Items {
		title := stripHTML(item.Title)
		if title == "" {
			continue
		}
		articles = append(articles, domain.NewsArticle{
			Type:        label,
			Title:       title,
			Date:        itemDate(item),
			Image:       itemImage(item),
			Link:        item.Link,
			Description: stripHTML(item.Description),
		})
	}

	sortByDateDesc(articles)

	f.log.WithFields(map[string]interface{}{
		"feed_url": feedURL,
		"count":    len(articles),
	}).Info("RSS feed fetched")

	return articles
}

func itemDate(item *gofeed.Item) string {
	if item.PublishedParsed != nil {
		return item.PublishedParsed.Format(articleDateLayout)
	}
	if item.UpdatedParsed != nil {
		return item.UpdatedParsed.Format(articleDateLayout)
	}
	return time.Now().Format(articleDateLayout)
}

// itemImage tries the item image, media enclosures, then the first <img>
// in description or content, then a placeholder
func itemImage(item *gofeed.Item) string {
	if item.Image != nil && item.Image.URL != "" {
		return normalizeImageURL(item.Image.URL)
	}
	for _, enc := range item.Enclosures {
		if strings.HasPrefix(enc.Type, "image/") && enc.URL != "" {
			return normalizeImageURL(enc.URL)
		}
	}
	if url := extractImageFromHTML(item.Description); url != "" {
		return url
	}
	if url := extractImageFromHTML(item.Content); url != "" {
		return url
	}
	return fallbackRSSImage
}

func extractImageFromHTML(body string) string {
	if body == "" {
		return ""
	}
	match := imgSrcPattern.FindStringSubmatch(body)
	if match == nil {
		return ""
	}
	url := normalizeImageURL(match[1])
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return ""
	}
	return url
}

// normalizeImageURL upgrades protocol-relative URLs
func normalizeImageURL(url string) string {
	url = strings.TrimSpace(url)
	if strings.HasPrefix(url, "//") {
		return "https:" + url
	}
	return url
}

// stripHTML removes markup and decodes entities from feed fields
func stripHTML(body string) string {
	if body == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(htmlTagPattern.ReplaceAllString(body, "")))
}
