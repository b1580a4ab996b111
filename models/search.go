package models

import "strings"

// SearchCriteria filters listings. Zero values mean "no constraint"; the
// price bounds are pointers so that 0 is a usable bound.
type SearchCriteria struct {
	Type      PropertyType
	Operation Operation
	MinPrice  *float64
	MaxPrice  *float64
	Location  string
	Text      string // matched against title and description
}

func (c *SearchCriteria) IsEmpty() bool {
	return c.Type == "" && c.Operation == "" && c.MinPrice == nil && c.MaxPrice == nil &&
		c.Location == "" && c.Text == ""
}

// Matches applies each supplied predicate in order and ANDs the results.
func (c *SearchCriteria) Matches(p *Property) bool {
	if c.Type != "" && p.Type != c.Type {
		return false
	}
	if c.Operation != "" && p.Operation != c.Operation {
		return false
	}
	if c.MinPrice != nil && p.Price < *c.MinPrice {
		return false
	}
	if c.MaxPrice != nil && p.Price > *c.MaxPrice {
		return false
	}
	if c.Location != "" && !containsFold(p.Location, c.Location) {
		return false
	}
	if c.Text != "" && !containsFold(p.Title, c.Text) && !containsFold(p.Description, c.Text) {
		return false
	}
	return true
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// ListingStats summarises the catalog for the admin dashboard.
type ListingStats struct {
	Total          int                  `json:"total"`
	ForSale        int                  `json:"for_sale"`
	ForRent        int                  `json:"for_rent"`
	TotalSaleValue float64              `json:"total_sale_value"`
	ByType         map[PropertyType]int `json:"by_type"`
}
