// Package seeder normalises facility listings scraped from directory pages
// before they are stored.
package seeder

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/Ayash-Bera/mediguide/internal/models"
	"github.com/Ayash-Bera/mediguide/internal/triage"
	"github.com/Ayash-Bera/mediguide/pkg/utils"
)

// Listing is one raw entry as extracted from a directory page
type Listing struct {
	Name        string
	Address     string
	City        string
	Phone       string
	Website     string
	Rating      string
	Specialties string
	Latitude    string
	Longitude   string
	SourceURL   string
}

// DirectoryProcessor handles text processing and cleanup of listings
type DirectoryProcessor struct {
	// Regex patterns for cleaning content
	multiWhitespace *regexp.Regexp
	htmlTags        *regexp.Regexp
	ratingNumber    *regexp.Regexp
	postalCode      *regexp.Regexp

	specialtyKeywords map[triage.Specialization][]string
}

func NewDirectoryProcessor() *DirectoryProcessor {
	return &DirectoryProcessor{
		multiWhitespace: regexp.MustCompile(`\s+`),
		htmlTags:        regexp.MustCompile(`<[^>]*>`),
		ratingNumber:    regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:/\s*(\d+))?`),
		postalCode:      regexp.MustCompile(`\s*\b[A-Z]{2}\b\s*\d{5}(-\d{4})?$|\s*\d{5}(-\d{4})?$`),
		specialtyKeywords: map[triage.Specialization][]string{
			triage.Cardiology:       {"cardio", "heart"},
			triage.Neurology:        {"neuro", "brain", "stroke"},
			triage.Dermatology:      {"dermat", "skin"},
			triage.InternalMedicine: {"internal medicine", "general medicine", "primary care", "family medicine"},
			triage.Emergency:        {"emergency", "trauma", "urgent care", "24/7", "er "},
			triage.Pulmonology:      {"pulmon", "lung", "respiratory"},
			triage.Gastroenterology: {"gastro", "digestive"},
			triage.Orthopedics:      {"ortho", "bone", "spine"},
			triage.Rheumatology:     {"rheumat", "arthritis"},
			triage.ENT:              {"ent ", "otolaryngolog", "ear, nose", "ear nose"},
		},
	}
}

// CleanText strips markup and collapses whitespace
func (dp *DirectoryProcessor) CleanText(text string) string {
	text = dp.htmlTags.ReplaceAllString(text, " ")
	text = dp.multiWhitespace.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// ParseRating reads ratings like "4.5", "4.5/5", "9/10" or "Rated 4 stars"
// and rescales them to 0-5. Unparseable or out-of-range values yield nil.
func (dp *DirectoryProcessor) ParseRating(text string) *float64 {
	match := dp.ratingNumber.FindStringSubmatch(text)
	if match == nil {
		return nil
	}

	value, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return nil
	}

	if match[2] != "" {
		scale, err := strconv.ParseFloat(match[2], 64)
		if err != nil || scale <= 0 {
			return nil
		}
		value = value / scale * 5
	}

	if value < 0 || value > 5 {
		return nil
	}
	value = float64(int(value*10+0.5)) / 10
	return &value
}

// NormalizePhone keeps digits and a leading '+'. Numbers with fewer than
// seven digits are dropped.
func (dp *DirectoryProcessor) NormalizePhone(phone string) string {
	phone = strings.TrimPrefix(strings.TrimSpace(phone), "tel:")

	var b strings.Builder
	digits := 0
	for i, r := range strings.TrimSpace(phone) {
		switch {
		case unicode.IsDigit(r):
			b.WriteRune(r)
			digits++
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}

	if digits < 7 {
		return ""
	}
	return b.String()
}

// NormalizeWebsite returns an absolute http(s) URL or ""
func (dp *DirectoryProcessor) NormalizeWebsite(website string) string {
	website = strings.TrimSpace(website)
	switch {
	case website == "":
		return ""
	case strings.HasPrefix(website, "http://"), strings.HasPrefix(website, "https://"):
		return website
	case strings.HasPrefix(website, "//"):
		return "https:" + website
	case strings.Contains(website, ".") && !strings.ContainsAny(website, " @"):
		return "https://" + website
	}
	return ""
}

// DetectSpecialties maps free text to known specializations, in
// declaration order of the triage package
func (dp *DirectoryProcessor) DetectSpecialties(text string) []string {
	lower := " " + strings.ToLower(dp.CleanText(text)) + " "

	var specialties []string
	for _, spec := range triage.AllSpecializations() {
		for _, keyword := range dp.specialtyKeywords[spec] {
			if containsWord(lower, keyword) {
				specialties = append(specialties, string(spec))
				break
			}
		}
	}
	return specialties
}

// IsEmergency reports whether a listing advertises emergency care
func (dp *DirectoryProcessor) IsEmergency(name string, specialties []string) bool {
	if strings.Contains(strings.ToLower(name), "emergency") {
		return true
	}
	for _, s := range specialties {
		if s == string(triage.Emergency) {
			return true
		}
	}
	return false
}

// ExtractCity picks the locality out of "street, city, ST 12345"
func (dp *DirectoryProcessor) ExtractCity(address string) string {
	parts := strings.Split(address, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	switch {
	case len(parts) >= 3:
		return parts[len(parts)-2]
	case len(parts) == 2:
		return strings.TrimSpace(dp.postalCode.ReplaceAllString(parts[1], ""))
	}
	return ""
}

// ContentHash fingerprints the normalised listing so unchanged entries can
// be recognised between crawls
func (dp *DirectoryProcessor) ContentHash(f *models.DirectoryFacility) string {
	rating := ""
	if f.Rating != nil {
		rating = strconv.FormatFloat(*f.Rating, 'f', 1, 64)
	}
	return utils.MD5Hash(strings.Join([]string{
		f.Name, f.Address, f.City, f.Phone, f.Website, rating,
		strings.Join(f.Specialties, ","),
	}, "|"))
}

// BuildFacility normalises a raw listing into a directory row
func (dp *DirectoryProcessor) BuildFacility(l Listing, crawledAt time.Time) (*models.DirectoryFacility, error) {
	name := dp.CleanText(l.Name)
	if name == "" {
		return nil, fmt.Errorf("listing has no name")
	}

	address := dp.CleanText(l.Address)
	city := dp.CleanText(l.City)
	if city == "" {
		city = dp.ExtractCity(address)
	}

	specialties := dp.DetectSpecialties(l.Specialties + " " + name)

	f := &models.DirectoryFacility{
		Name:        name,
		Address:     address,
		City:        city,
		Phone:       dp.NormalizePhone(l.Phone),
		Website:     dp.NormalizeWebsite(l.Website),
		Rating:      dp.ParseRating(l.Rating),
		Latitude:    parseCoordinate(l.Latitude, 90),
		Longitude:   parseCoordinate(l.Longitude, 180),
		Specialties: specialties,
		Emergency:   dp.IsEmergency(name, specialties),
		SourceURL:   l.SourceURL,
		LastCrawled: &crawledAt,
		IsActive:    true,
	}
	f.ContentHash = dp.ContentHash(f)

	return f, nil
}

// RemoveDuplicates drops listings that normalise to the same name and address
func (dp *DirectoryProcessor) RemoveDuplicates(items []*models.DirectoryFacility) []*models.DirectoryFacility {
	seen := make(map[string]bool)
	var result []*models.DirectoryFacility

	for _, item := range items {
		key := strings.ToLower(item.Name + "|" + item.Address)
		if !seen[key] {
			seen[key] = true
			result = append(result, item)
		}
	}

	return result
}

func parseCoordinate(s string, limit float64) *float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v < -limit || v > limit {
		return nil
	}
	return &v
}

// containsWord matches keyword at a word start inside padded text
func containsWord(padded, keyword string) bool {
	idx := 0
	for {
		i := strings.Index(padded[idx:], keyword)
		if i < 0 {
			return false
		}
		pos := idx + i
		if pos == 0 || !isWordRune(rune(padded[pos-1])) {
			return true
		}
		idx = pos + 1
	}
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
