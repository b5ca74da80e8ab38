package seeder

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const directoryPage = `<html><body>
<div itemscope itemtype="https://schema.org/Hospital">
  <h2 itemprop="name">City General Hospital</h2>
  <div itemprop="address">123 Main St, Springfield, IL 62701</div>
  <span itemprop="telephone">(555) 123-4567</span>
  <a itemprop="url" href="/facilities/city-general">Website</a>
  <meta itemprop="ratingValue" content="4.2">
  <meta itemprop="latitude" content="39.78">
  <meta itemprop="longitude" content="-89.65">
  <span itemprop="medicalSpecialty">Emergency</span>
  <span itemprop="medicalSpecialty">Cardiology</span>
  <div itemscope itemtype="https://schema.org/MedicalClinic">
    <span itemprop="name">Nested Clinic</span>
  </div>
</div>
<div itemscope itemtype="http://schema.org/MedicalClinic">
  <span itemprop="name">Riverside Clinic</span>
  <a itemprop="url" href="https://riverside.example.org">Site</a>
</div>
<div itemscope itemtype="http://schema.org/MedicalClinic">
  <span itemprop="address">No name here</span>
</div>
</body></html>`

func TestExtractListings(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(directoryPage))
	require.NoError(t, err)

	listings := ExtractListings(doc.Selection, DefaultSelectors(), "https://directory.example.com/il/springfield")
	require.Len(t, listings, 2)

	first := listings[0]
	assert.Equal(t, "City General Hospital", first.Name)
	assert.Equal(t, "123 Main St, Springfield, IL 62701", first.Address)
	assert.Equal(t, "(555) 123-4567", first.Phone)
	assert.Equal(t, "https://directory.example.com/facilities/city-general", first.Website)
	assert.Equal(t, "4.2", first.Rating)
	assert.Equal(t, "39.78", first.Latitude)
	assert.Equal(t, "-89.65", first.Longitude)
	assert.Equal(t, "Emergency, Cardiology", first.Specialties)
	assert.Equal(t, "https://directory.example.com/il/springfield", first.SourceURL)

	assert.Equal(t, "Riverside Clinic", listings[1].Name)
	assert.Equal(t, "https://riverside.example.org", listings[1].Website)
	assert.Empty(t, listings[1].Rating)
}

func TestExtractListings_NoMatches(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<html><body><p>nothing</p></body></html>"))
	require.NoError(t, err)
	assert.Empty(t, ExtractListings(doc.Selection, DefaultSelectors(), ""))
}
