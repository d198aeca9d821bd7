package loa

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"loa-scraper/models"
	"loa-scraper/services"
	"loa-scraper/utils"
)

// Selectors are the CSS selectors locating catalog entries and their parts.
// Link, Number and Title are evaluated inside each entry.
type Selectors struct {
	Entry  string
	Link   string
	Number string
	Title  string
}

// DefaultSelectors matches the loa.org collection page markup.
func DefaultSelectors() Selectors {
	return Selectors{
		Entry:  "li.content-listing.content-listing--book",
		Link:   "a",
		Number: "i.book-listing__number",
		Title:  "b.content-listing__title",
	}
}

type compiledSelectors struct {
	entry, link, number, title cascadia.Selector
}

// Parser turns a catalog document into volume records.
type Parser struct {
	sel        compiledSelectors
	classifier *services.Classifier
	logger     *utils.Logger
}

// NewParser compiles the selectors. A selector that does not compile is a
// configuration error.
func NewParser(sel Selectors, classifier *services.Classifier, logger *utils.Logger) (*Parser, error) {
	var c compiledSelectors
	for _, s := range []struct {
		name string
		expr string
		dst  *cascadia.Selector
	}{
		{"entry", sel.Entry, &c.entry},
		{"link", sel.Link, &c.link},
		{"number", sel.Number, &c.number},
		{"title", sel.Title, &c.title},
	} {
		compiled, err := cascadia.Compile(s.expr)
		if err != nil {
			return nil, fmt.Errorf("css selector %s %q: %w", s.name, s.expr, err)
		}
		*s.dst = compiled
	}

	return &Parser{sel: c, classifier: classifier, logger: logger}, nil
}

// Parse reads an HTML document and returns its volumes sorted by number.
// Entries with a missing, invalid or zero number are dropped; duplicate
// numbers are kept. A document without entries yields an empty slice.
func (p *Parser) Parse(r io.Reader) ([]*models.VolumeRecord, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse catalog html: %w", err)
	}

	volumes := make([]*models.VolumeRecord, 0)
	seen := utils.NewNumberSet()

	doc.FindMatcher(p.sel.entry).Each(func(i int, entry *goquery.Selection) {
		frag, ok := p.fragment(entry)
		if !ok {
			p.logger.Debug("[loa] Entry %d has no number or title element, skipping", i)
			return
		}

		v, ok := p.ParseFragment(frag)
		if !ok {
			return
		}
		if !seen.Add(v.Number) {
			p.logger.Warn("[loa] Duplicate volume number %d: %q", v.Number, v.OriginalLabel)
		}
		volumes = append(volumes, v)
	})

	sort.SliceStable(volumes, func(i, j int) bool {
		return volumes[i].Number < volumes[j].Number
	})

	p.logger.Debug("[loa] Parsed %d volumes (%d distinct numbers)", len(volumes), seen.Size())
	return volumes, nil
}

// ParseFragment validates and classifies one raw entry. It reports false for
// entries that must be discarded.
func (p *Parser) ParseFragment(frag models.RawListingFragment) (*models.VolumeRecord, bool) {
	digits := strings.TrimPrefix(strings.TrimSpace(frag.Number), "+")
	number, err := strconv.ParseUint(digits, 10, 32)
	if err != nil || number == 0 {
		p.logger.Debug("[loa] Dropping entry with invalid number %q", frag.Number)
		return nil, false
	}

	label := strings.TrimSpace(frag.Label)
	if label == "" {
		p.logger.Debug("[loa] Dropping volume %d with empty title", number)
		return nil, false
	}

	author, title := p.classifier.Classify(label)
	return &models.VolumeRecord{
		Number:        uint32(number),
		Title:         title,
		Author:        author,
		DetailLink:    frag.Link,
		OriginalLabel: label,
	}, true
}

// fragment extracts the raw fields of one entry. Number and title elements are
// required. An entry without a link element is still kept with an empty
// detail link, unlike the site's older tooling which dropped such entries.
func (p *Parser) fragment(entry *goquery.Selection) (models.RawListingFragment, bool) {
	number := entry.FindMatcher(p.sel.number).First()
	title := entry.FindMatcher(p.sel.title).First()
	if number.Length() == 0 || title.Length() == 0 {
		return models.RawListingFragment{}, false
	}

	href, _ := entry.FindMatcher(p.sel.link).First().Attr("href")
	return models.RawListingFragment{
		Number: number.Text(),
		Link:   href,
		Label:  title.Text(),
	}, true
}
