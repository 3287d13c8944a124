package domain

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Category is the budget classification of a product.
type Category string

const (
	CategoryStar    Category = "star"
	CategoryKeep    Category = "keep"
	CategoryReview  Category = "review"
	CategoryDiscard Category = "discard"
)

var categoryLabels = map[Category]string{
	CategoryStar:    "⭐ Star",
	CategoryKeep:    "✅ Keep",
	CategoryReview:  "⚠️ Review",
	CategoryDiscard: "❌ Discard",
}

// CategoryLabel returns the display label for a category.
func CategoryLabel(c Category) string {
	if label, ok := categoryLabels[c]; ok {
		return label
	}
	return string(c)
}

// CategoryFilter narrows a budget result to one group of categories.
type CategoryFilter string

const (
	ShowAll     CategoryFilter = "all"
	ShowStars   CategoryFilter = "stars"
	ShowReview  CategoryFilter = "review"
	ShowDiscard CategoryFilter = "discard"
)

// ParseCategoryFilter returns the filter for a label (case-insensitive).
// Empty input means ShowAll.
func ParseCategoryFilter(label string) (CategoryFilter, bool) {
	switch NormalizeLabel(label) {
	case "", "all", "todos":
		return ShowAll, true
	case "star", "stars":
		return ShowStars, true
	case "review", "revisar":
		return ShowReview, true
	case "discard", "descartar":
		return ShowDiscard, true
	}
	return "", false
}

// Matches reports whether a category passes the filter.
func (f CategoryFilter) Matches(c Category) bool {
	switch f {
	case ShowStars:
		return c == CategoryStar
	case ShowReview:
		return c == CategoryReview
	case ShowDiscard:
		return c == CategoryDiscard
	}
	return true
}

// Budget actions.
const (
	ActionIncrease           = "Increase +10%"
	ActionMaintain           = "Maintain"
	ActionReview             = "Review"
	ActionDiscontinue        = "Discontinue"
	ActionEvaluateForRemoval = "Evaluate for removal"
)

// TrendDirection is the sign of the monthly unit slope.
type TrendDirection string

const (
	TrendRising  TrendDirection = "rising"
	TrendFlat    TrendDirection = "flat"
	TrendFalling TrendDirection = "falling"
)

var trendIcons = map[TrendDirection]string{
	TrendRising:  "↗",
	TrendFlat:    "→",
	TrendFalling: "↘",
}

// TrendIcon returns the arrow used in reports for a direction.
func TrendIcon(d TrendDirection) string {
	if icon, ok := trendIcons[d]; ok {
		return icon
	}
	return trendIcons[TrendFlat]
}

// NormalizeLabel lowercases, strips accents and joins words with underscores
// so "Recepción" and "recepcion" compare equal.
func NormalizeLabel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if folded, _, err := transform.String(accentFolder(), s); err == nil {
		s = folded
	}
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '-' {
			return '_'
		}
		return r
	}, s)
}

func accentFolder() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}
