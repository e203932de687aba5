package fragment

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/MrSnakeDoc/giftgate/internal/domain"
)

// Row header labels of the metadata table.
const (
	LabelModel    = "Model"
	LabelBackdrop = "Backdrop"
	LabelSymbol   = "Symbol"
)

var (
	percentSuffixRe = regexp.MustCompile(`\s*\d+(?:\.\d+)?%\s*$`)
	leadingNumberRe = regexp.MustCompile(`^\s*[-+]?(?:\d+(?:\.\d*)?|\.\d+)`)
)

// attribute is one parsed row of the metadata table.
type attribute struct {
	text   string
	rarity float64
}

// ParseGift extracts gift metadata from a gift page. It fails with a
// not_found error only when the metadata table itself is missing; a missing
// row yields an empty name and zero rarity.
func ParseGift(markup, slug string, profile Profile) (*domain.Gift, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, domain.WrapError(domain.KindNotFound, err, "gift not found")
	}

	table := doc.Find(profile.TableSelector).First()
	if table.Length() == 0 {
		return nil, domain.NewError(domain.KindNotFound, "gift not found")
	}

	model := parseAttribute(table, LabelModel)
	backdrop := parseAttribute(table, LabelBackdrop)
	symbol := parseAttribute(table, LabelSymbol)

	return &domain.Gift{
		Slug:           slug,
		Title:          domain.TitleFromSlug(slug),
		Model:          model.text,
		ModelRarity:    model.rarity,
		Backdrop:       backdrop.text,
		BackdropRarity: backdrop.rarity,
		Symbol:         symbol.text,
		SymbolRarity:   symbol.rarity,
		ImageURL:       profile.ImageFor(slug),
		AnimationURL:   profile.AnimationFor(slug),
	}, nil
}

func parseAttribute(table *goquery.Selection, label string) attribute {
	row := findRow(table, label)
	if row.Length() == 0 {
		return attribute{}
	}
	return attribute{
		text:   StripPercent(row.Find("td").Text()),
		rarity: ParseRarity(row.Find("mark").First().Text()),
	}
}

// findRow returns the first table row whose header text equals label.
func findRow(scope *goquery.Selection, label string) *goquery.Selection {
	return scope.Find("tr").FilterFunction(func(_ int, tr *goquery.Selection) bool {
		return strings.TrimSpace(tr.Find("th").First().Text()) == label
	}).First()
}

// StripPercent removes a trailing "12%" / "12.5%" suffix and trims the rest.
func StripPercent(s string) string {
	return strings.TrimSpace(percentSuffixRe.ReplaceAllString(s, ""))
}

// ParseRarity reads the leading number of s ("2.3%" => 2.3). Anything that
// is not a number in [0,100] yields 0.
func ParseRarity(s string) float64 {
	m := leadingNumberRe.FindString(s)
	if m == "" {
		return 0
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(m), 64)
	if err != nil || math.IsNaN(v) || v < 0 || v > 100 {
		return 0
	}
	return v
}
