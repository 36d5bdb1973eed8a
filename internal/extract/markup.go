package extract

import (
	"os"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// HTMLRecord holds the fields derived from the markup artifact.
type HTMLRecord struct {
	Key
	Parsed bool

	CategoryPath         string
	TopCategory          *string
	CategoryDepth        int
	Price                *float64
	StarSellerFlag       bool
	LowStockFlag         bool
	InCartsCount         int
	ImageAltText         string
	ImageAltKeywordCount int
	DescriptionText      string
	DescriptionWordCount int
}

var htmlHeader = []string{
	"query_id", "channel", "rank",
	"html_category_path", "html_top_category", "html_category_depth",
	"html_price", "html_star_seller_flag", "html_low_stock_flag",
	"html_in_carts_count", "image_alt_text", "image_alt_keyword_count",
	"html_description_text", "html_description_word_count",
}

var (
	breadcrumbLabel = regexp.MustCompile(`(?i)breadcrumb`)
	priceClass      = regexp.MustCompile(`(?i)price|currency`)
	descriptionID   = regexp.MustCompile(`(?i)description|details`)
	inCartsPhrase   = regexp.MustCompile(`(\d+)\s+people\s+have\s+this\s+in\s+carts`)
)

// ExtractHTML derives the markup record for one index entry.
func ExtractHTML(entry IndexEntry) HTMLRecord {
	rec := HTMLRecord{Key: entry.Key}

	data, err := os.ReadFile(entry.HTMLPath)
	if err != nil {
		return rec
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(data)))
	if err != nil {
		return rec
	}
	rec.Parsed = true

	crumbs := breadcrumbs(doc)
	rec.CategoryPath = strings.Join(crumbs, " > ")
	rec.CategoryDepth = len(crumbs)
	if len(crumbs) > 0 {
		rec.TopCategory = strPtr(crumbs[0])
	}

	rec.Price = price(doc)

	text := strings.ToLower(visibleText(doc))
	rec.StarSellerFlag = strings.Contains(text, "star seller")
	rec.LowStockFlag = strings.Contains(text, "only") && strings.Contains(text, "left in stock")
	if m := inCartsPhrase.FindStringSubmatch(text); m != nil {
		rec.InCartsCount = atoiSafe(m[1])
	}

	if root, perr := htmlquery.Parse(strings.NewReader(string(data))); perr == nil {
		rec.ImageAltText = strings.Join(imageAlts(root), " ")
	}
	rec.ImageAltKeywordCount = wordCount(rec.ImageAltText)

	rec.DescriptionText = description(doc)
	rec.DescriptionWordCount = wordCount(rec.DescriptionText)
	return rec
}

// breadcrumbs collects the link texts of the first nav element whose
// accessibility label mentions breadcrumbs.
func breadcrumbs(doc *goquery.Document) []string {
	var crumbs []string
	doc.Find("nav").EachWithBreak(func(_ int, nav *goquery.Selection) bool {
		label, _ := nav.Attr("aria-label")
		if !breadcrumbLabel.MatchString(label) {
			return true
		}
		nav.Find("a").Each(func(_ int, a *goquery.Selection) {
			crumbs = append(crumbs, strings.TrimSpace(a.Text()))
		})
		return false
	})
	return crumbs
}

// price reads the first numeric substring of the first span whose class
// mentions a price or currency.
func price(doc *goquery.Document) *float64 {
	var out *float64
	doc.Find("span").EachWithBreak(func(_ int, span *goquery.Selection) bool {
		class, _ := span.Attr("class")
		if !priceClass.MatchString(class) {
			return true
		}
		out = parsePrice(span.Text())
		return false
	})
	return out
}

// description returns the trimmed text of the first element whose id
// mentions a description or details block.
func description(doc *goquery.Document) string {
	var out string
	doc.Find("[id]").EachWithBreak(func(_ int, el *goquery.Selection) bool {
		id, _ := el.Attr("id")
		if !descriptionID.MatchString(id) {
			return true
		}
		out = strings.TrimSpace(el.Text())
		return false
	})
	return out
}

// visibleText flattens the document text with single-space separators.
func visibleText(doc *goquery.Document) string {
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// imageAlts collects every non-empty img alt attribute, in document order.
func imageAlts(root *html.Node) []string {
	var alts []string
	for _, img := range htmlquery.Find(root, "//img[@alt]") {
		if alt := htmlquery.SelectAttr(img, "alt"); alt != "" {
			alts = append(alts, alt)
		}
	}
	return alts
}

func atoiSafe(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}

func (r HTMLRecord) cells() []string {
	cells := r.Key.cells()
	if !r.Parsed {
		return append(cells, make([]string, len(htmlHeader)-3)...)
	}
	return append(cells,
		r.CategoryPath,
		cellString(r.TopCategory),
		cellInt(r.CategoryDepth),
		cellFloat(r.Price),
		cellBool(r.StarSellerFlag),
		cellBool(r.LowStockFlag),
		cellInt(r.InCartsCount),
		r.ImageAltText,
		cellInt(r.ImageAltKeywordCount),
		r.DescriptionText,
		cellInt(r.DescriptionWordCount),
	)
}
