package catalog

import (
	"math"
	"strings"
)

// Product is one catalog entry as served by the upstream listing API.
type Product struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Image       string  `json:"image"`
	Rating      Rating  `json:"rating"`
}

// Rating is the upstream review summary for a product.
type Rating struct {
	Rate  float64 `json:"rate"`
	Count int     `json:"count"`
}

// Stars returns the rating rounded to whole stars.
func (p Product) Stars() int {
	return int(math.Round(p.Rating.Rate))
}

// MatchesTitle reports whether the product title contains query, ignoring case.
// An empty query matches everything.
func (p Product) MatchesTitle(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Title), q)
}

// Filter keeps the products whose title matches query, preserving order.
func Filter(products []Product, query string) []Product {
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if p.MatchesTitle(query) {
			out = append(out, p)
		}
	}
	return out
}
