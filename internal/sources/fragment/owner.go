package fragment

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/MrSnakeDoc/giftgate/internal/domain"
)

// ParseOwnerHandle returns the public handle linked from the ownership row
// of a gift page. Pages that conceal the owner have no such row (or no
// link in it) and yield a hidden error.
func ParseOwnerHandle(markup string, profile Profile) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return "", domain.WrapError(domain.KindHidden, err, "gift is hidden in profile")
	}

	row := findRow(doc.Selection, profile.OwnerLabel)
	href, ok := row.Find("td a").First().Attr("href")
	if !ok {
		return "", domain.NewError(domain.KindHidden, "gift is hidden in profile")
	}

	handle := handleFromHref(href)
	if handle == "" {
		return "", domain.NewError(domain.KindHidden, "gift is hidden in profile")
	}
	return handle, nil
}

// handleFromHref returns the trailing path segment of a profile link, or the
// domain parameter of a tg://resolve deep link.
// Example: https://t.me/alice => alice, tg://resolve?domain=alice => alice
func handleFromHref(href string) string {
	href = strings.TrimSpace(href)
	if u, err := url.Parse(href); err == nil {
		if name := u.Query().Get("domain"); name != "" && strings.Trim(u.Path, "/") == "" {
			return strings.TrimPrefix(name, "@")
		}
		href = u.Path
	}
	href = strings.TrimRight(href, "/")
	handle := href[strings.LastIndex(href, "/")+1:]
	return strings.TrimPrefix(handle, "@")
}
