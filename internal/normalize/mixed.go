package normalize

import "strings"

// defaultMixedKeywords flags businesses whose primary trade is not car rental
// (money/cash services, two-wheeler and watercraft dealers) in English, French
// and Arabic. The list is configuration: callers may replace it wholesale via
// NewClassifier, and the CLI sources it from the pipeline config.
var defaultMixedKeywords = []string{
	// money and cash services
	"money transfer",
	"transfert d'argent",
	"cash plus",
	"wafacash",
	"western union",
	"moneygram",
	"currency exchange",
	"bureau de change",
	"تحويل الأموال",
	"صرافة",
	// two-wheeler and quad dealers and shops
	"motorcycle",
	"scooter",
	"moto",
	"bicycle",
	"vélo",
	"quad",
	"jet ski",
	"دراجات نارية",
	"دراجة",
	"كواد",
}

// Classifier detects mixed-service businesses with case-insensitive substring
// matches against a curated keyword table. Not a structured classifier: a
// single hit on the name or any category is decisive.
type Classifier struct {
	keywords []string
}

// NewClassifier builds a classifier from a keyword table. An empty table
// falls back to the built-in bilingual defaults.
func NewClassifier(keywords []string) *Classifier {
	if len(keywords) == 0 {
		keywords = defaultMixedKeywords
	}
	lowered := make([]string, len(keywords))
	for i, k := range keywords {
		lowered[i] = strings.ToLower(k)
	}
	return &Classifier{keywords: lowered}
}

// IsMixedService reports whether the name or any category string matches a
// non-rental business signal.
func (c *Classifier) IsMixedService(name string, categories []string) bool {
	if c.matches(name) {
		return true
	}
	for _, cat := range categories {
		if c.matches(cat) {
			return true
		}
	}
	return false
}

func (c *Classifier) matches(s string) bool {
	if s == "" {
		return false
	}
	s = strings.ToLower(s)
	for _, k := range c.keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
