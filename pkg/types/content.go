package types

// NewsItem is one headline in GET /api/news.
type NewsItem struct {
	Tag    string `json:"tg"`
	Title  string `json:"t"`
	Source string `json:"s"`
	Time   string `json:"tm"`
	URL    string `json:"url"`
}

// ResearchItem is one report in GET /api/research.
type ResearchItem struct {
	Icon     string `json:"i"`
	Category string `json:"c"`
	Title    string `json:"t"`
	Excerpt  string `json:"ex"`
	Date     string `json:"d"`
	Content  string `json:"content"`
}

// Lesson is one academy module in GET /api/academy, keyed by slug.
type Lesson struct {
	Tag     string `json:"tag"`
	Title   string `json:"title"`
	Meta    string `json:"meta"`
	Content string `json:"content"`
}
