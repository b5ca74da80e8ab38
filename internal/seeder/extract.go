package seeder

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Selectors locate listing fields inside a directory page. Each field
// selector is evaluated relative to a listing element.
type Selectors struct {
	Listing     string
	Name        string
	Address     string
	City        string
	Phone       string
	Website     string
	Rating      string
	Specialties string
	Latitude    string
	Longitude   string
}

// DefaultSelectors read schema.org microdata, which most hospital
// directories publish for search engines
func DefaultSelectors() Selectors {
	return Selectors{
		Listing: `[itemtype$="schema.org/Hospital"], [itemtype$="schema.org/MedicalClinic"], ` +
			`[itemtype$="schema.org/EmergencyService"], [itemtype$="schema.org/MedicalOrganization"]`,
		Name:        `[itemprop="name"]`,
		Address:     `[itemprop="address"]`,
		City:        `[itemprop="addressLocality"]`,
		Phone:       `[itemprop="telephone"]`,
		Website:     `[itemprop="url"]`,
		Rating:      `[itemprop="ratingValue"]`,
		Specialties: `[itemprop="medicalSpecialty"]`,
		Latitude:    `[itemprop="latitude"]`,
		Longitude:   `[itemprop="longitude"]`,
	}
}

// ExtractListings pulls every listing under root. Relative website links are
// resolved against pageURL.
func ExtractListings(root *goquery.Selection, sel Selectors, pageURL string) []Listing {
	base, _ := url.Parse(pageURL)

	var listings []Listing
	root.Find(sel.Listing).Each(func(i int, item *goquery.Selection) {
		// nested organisations are reported by their outermost listing
		if item.ParentsFiltered(sel.Listing).Length() > 0 {
			return
		}

		l := Listing{
			Name:        fieldValue(item, sel.Name),
			Address:     fieldValue(item, sel.Address),
			City:        fieldValue(item, sel.City),
			Phone:       fieldValue(item, sel.Phone),
			Rating:      fieldValue(item, sel.Rating),
			Specialties: joinedValues(item, sel.Specialties),
			Latitude:    fieldValue(item, sel.Latitude),
			Longitude:   fieldValue(item, sel.Longitude),
			SourceURL:   pageURL,
		}

		if website := linkValue(item, sel.Website); website != "" && base != nil {
			if ref, err := url.Parse(website); err == nil {
				website = base.ResolveReference(ref).String()
			}
			l.Website = website
		}

		if strings.TrimSpace(l.Name) != "" {
			listings = append(listings, l)
		}
	})

	return listings
}

// fieldValue prefers a content attribute (microdata meta tags) over text
func fieldValue(item *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	node := item.Find(selector).First()
	if node.Length() == 0 {
		return ""
	}
	if content, ok := node.Attr("content"); ok {
		return strings.TrimSpace(content)
	}
	return strings.TrimSpace(node.Text())
}

func joinedValues(item *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	var values []string
	item.Find(selector).Each(func(i int, s *goquery.Selection) {
		v, ok := s.Attr("content")
		if !ok {
			v = s.Text()
		}
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	})
	return strings.Join(values, ", ")
}

func linkValue(item *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	node := item.Find(selector).First()
	for _, attr := range []string{"href", "content"} {
		if v, ok := node.Attr(attr); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
