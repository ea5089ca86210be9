package domain

// Source kinds understood by the loader.
const (
	KindText   = "text"
	KindPDF    = "pdf"
	KindScrape = "scrape"
)

// Source describes one ingestion source.
type Source struct {
	Kind    string
	Label   string
	Path    string
	URL     string
	Include []string
	Exclude []string
}

// Name returns the most specific identifier of the source for logs and errors.
func (s Source) Name() string {
	switch {
	case s.Label != "":
		return s.Label
	case s.URL != "":
		return s.URL
	default:
		return s.Path
	}
}

type Document struct {
	ID      string
	Source  string
	Kind    string
	Page    int
	Content string
}

// Chunk is a substring of a Document. Start and End are byte offsets into
// the document content, so Content[Start:End] == Text.
type Chunk struct {
	ID     string
	DocID  string
	Source string
	Page   int
	Index  int
	Start  int
	End    int
	Text   string
}

type IndexEntry struct {
	ID       string            `json:"id"`
	Vector   []float32         `json:"v"`
	Text     string            `json:"text"`
	Source   string            `json:"source"`
	Metadata map[string]string `json:"m,omitempty"`
}

type ScoredEntry struct {
	Entry IndexEntry
	Score float64
}

// Snippet is one retrieved passage as it appears in a prompt.
type Snippet struct {
	Source string  `json:"source"`
	Score  float64 `json:"score"`
	Text   string  `json:"text"`
}

type PackedContext struct {
	Query    string    `json:"query"`
	Budget   int       `json:"budget_chars,omitempty"`
	Used     int       `json:"used_chars"`
	Snippets []Snippet `json:"snippets"`
}

type Answer struct {
	Query   string   `json:"query"`
	Text    string   `json:"answer"`
	Sources []string `json:"sources,omitempty"`
	Prompt  string   `json:"-"`
}
