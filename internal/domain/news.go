package domain

// NewsArticle is the normalized article shape shared by the RSS and search
// backends
type NewsArticle struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Date        string `json:"date"`
	Image       string `json:"image,omitempty"`
	Link        string `json:"link"`
	Description string `json:"description,omitempty"`
}
