package scraper

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchFixture = `
<html><body>
  <div class="product-card">
    <h2 class="product-title">Industrial Water Pump</h2>
    <span class="price">₹ 12,500 / Piece</span>
    <div class="company-name">Acme Pumps Pvt Ltd</div>
    <span class="location">Mumbai, Maharashtra</span>
    <a href="/proddetail/water-pump-123.html">View</a>
    <img src="https://img.example.com/pump.jpg" />
  </div>
  <div class="product-card">
    <h3 class="title">Ball Valve</h3>
    <span class="unit-price">Ask Price</span>
    <div class="seller">Zenith Valves</div>
  </div>
  <div class="product-card">
    <span class="price">₹ 500</span>
  </div>
  <div class="sidebar">not a product</div>
</body></html>`

func TestExtractCards(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(searchFixture))
	require.NoError(t, err)

	products := ExtractCards(doc, "pumps")

	// the nameless third card yields nothing
	require.Len(t, products, 2)

	first := products[0]
	assert.Equal(t, "Industrial Water Pump", first["product_name"])
	assert.Equal(t, "₹ 12,500 / Piece", first["price_raw"])
	assert.Equal(t, 12500.0, first["price"])
	assert.Equal(t, "Acme Pumps Pvt Ltd", first["company_name"])
	assert.Equal(t, "Mumbai, Maharashtra", first["location"])
	assert.Equal(t, "https://www.indiamart.com/proddetail/water-pump-123.html", first["product_url"])
	assert.Equal(t, "https://img.example.com/pump.jpg", first["image_url"])
	assert.Equal(t, "pumps", first["category"])
	assert.NotEmpty(t, first["timestamp"])

	second := products[1]
	assert.Equal(t, "Ball Valve", second["product_name"])
	assert.Equal(t, "Ask Price", second["price_raw"])
	assert.Nil(t, second["price"], "unparseable price text must yield a null price")
	assert.Equal(t, "Zenith Valves", second["company_name"])
	_, hasLocation := second["location"]
	assert.False(t, hasLocation)
}

func TestExtractCardsListingItemFallback(t *testing.T) {
	fixture := `
<html><body>
  <div class="listing-item">
    <div class="item-name">Packaging Machine</div>
    <span class="price">₹ 85,000</span>
  </div>
</body></html>`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fixture))
	require.NoError(t, err)

	products := ExtractCards(doc, "packaging machines")
	require.Len(t, products, 1)
	assert.Equal(t, "Packaging Machine", products[0]["product_name"])
	assert.Equal(t, 85000.0, products[0]["price"])
}

func TestExtractCardsEmptyPage(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<html><body><p>no results</p></body></html>"))
	require.NoError(t, err)

	assert.Empty(t, ExtractCards(doc, "anything"))
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{}.withDefaults()

	assert.Equal(t, "https://www.indiamart.com", opts.BaseURL)
	assert.Equal(t, 3, opts.MaxRetries)
	assert.Greater(t, opts.MaxDelay, opts.MinDelay)
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	_, err := New(Options{BaseURL: "://bad"})
	assert.Error(t, err)
}
