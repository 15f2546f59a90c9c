package marketplace

import (
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/net/html"

	"sourcing_backend/internal/sourcing/domain"
	"sourcing_backend/platform/apperr"
)

// resultsTableID is the id of the stock results table on the search page.
const resultsTableID = "trv_0"

// Column positions inside a stock row.
const (
	colDateCode = 4
	colQuantity = 8
	colSupplier = 15
	minRowCells = 16
)

// authorizedClass marks supplier links of franchised distributors. Those rows
// are carried through tagged so the selection layer can exclude them.
const authorizedClass = "ncauth"

var moneyRe = regexp.MustCompile(`[\d][\d,]*(?:\.\d+)?`)

// parseSearchResults extracts raw stock rows from a search results page.
// The table interleaves section header rows (region and stock status) with
// data rows; headers have only a few cells, data rows have the full column
// set. Rows come back in page order.
func parseSearchResults(r io.Reader) ([]domain.RawRow, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindDiscovery, "parse search results page", err)
	}

	table := findByID(root, resultsTableID)
	if table == nil {
		// A missing table is a legitimate empty result, not an error.
		return nil, nil
	}

	var rows []domain.RawRow
	region := domain.RegionOther
	inStock := false

	for _, tr := range findAll(table, "tr") {
		cells := childElements(tr, "td")
		if len(cells) == 0 {
			// Header rows sometimes use th cells.
			if len(childElements(tr, "th")) > 0 {
				region, inStock = updateSection(nodeText(tr), region, inStock)
			}
			continue
		}

		if len(cells) < colDateCode+1 {
			region, inStock = updateSection(nodeText(tr), region, inStock)
			continue
		}
		if len(cells) < minRowCells {
			continue
		}

		anchor := firstAnchor(cells[colSupplier])
		if anchor == nil {
			continue
		}

		rows = append(rows, domain.RawRow{
			Supplier:   strings.TrimSpace(nodeText(anchor)),
			Region:     region,
			Quantity:   parseQuantity(nodeText(cells[colQuantity])),
			DateCode:   strings.TrimSpace(nodeText(cells[colDateCode])),
			Authorized: hasClass(anchor, authorizedClass),
			InStock:    inStock,
		})
	}
	return rows, nil
}

// updateSection folds a header row into the running region and stock-status
// state. Region and stock status are independent: a header that names only
// one of them leaves the other untouched, so a standalone "In Stock" header
// keeps the region set by an earlier region header.
func updateSection(text string, region domain.Region, inStock bool) (domain.Region, bool) {
	lower := strings.ToLower(text)

	switch {
	case strings.Contains(lower, "americ"):
		region = domain.RegionAmericas
	case strings.Contains(lower, "europe"):
		region = domain.RegionEurope
	case strings.Contains(lower, "asia"), strings.Contains(lower, "other"):
		region = domain.RegionOther
	}

	switch {
	case strings.Contains(lower, "in stock"), strings.Contains(lower, "in-stock"):
		inStock = true
	case strings.Contains(lower, "brokered"):
		inStock = false
	}

	return region, inStock
}

// parseQuantity parses a formatted stock quantity ("12,500"). Unparsable
// values become zero, which the aggregation layer ignores.
func parseQuantity(text string) int {
	cleaned := strings.ReplaceAll(strings.TrimSpace(text), ",", "")
	if cleaned == "" {
		return 0
	}
	n, err := strconv.Atoi(cleaned)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// parseMinOrderValue scans a supplier profile page for the published minimum
// order value. Returns nil when the supplier does not publish one.
func parseMinOrderValue(r io.Reader) (*decimal.Decimal, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindDiscovery, "parse supplier profile page", err)
	}

	found := false
	var raw string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if raw != "" {
			return
		}
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if found && text != "" {
				if m := moneyRe.FindString(text); m != "" {
					raw = m
				}
				return
			}
			if strings.Contains(strings.ToLower(text), "minimum order") {
				found = true
				// The value may share the label's text node.
				if m := moneyRe.FindString(text); m != "" {
					raw = m
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	if raw == "" {
		return nil, nil
	}
	value, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", ""))
	if err != nil {
		return nil, nil
	}
	return &value, nil
}

// findByID depth-first searches for the element with the given id.
func findByID(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode && attr(n, "id") == id {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByID(c, id); found != nil {
			return found
		}
	}
	return nil
}

// findAll collects all descendant elements with the given tag, in document
// order.
func findAll(n *html.Node, tag string) []*html.Node {
	var out []*html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == tag {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

// childElements returns the direct child elements with the given tag.
func childElements(n *html.Node, tag string) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == tag {
			out = append(out, c)
		}
	}
	return out
}

func firstAnchor(n *html.Node) *html.Node {
	anchors := findAll(n, "a")
	if len(anchors) == 0 {
		return nil
	}
	return anchors[0]
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// nodeText concatenates all text content beneath a node.
func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}
