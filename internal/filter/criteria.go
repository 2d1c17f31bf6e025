// Package filter derives the normalized NGO search query from the filter UI
// state and owns the apply-request lifecycle.
package filter

import (
	"net/url"
	"strings"

	"github.com/google/go-querystring/query"
)

// Certified is the tri-state certification selector. "all" means no
// preference and never serializes into the outgoing query.
type Certified string

const (
	CertifiedAll   Certified = "all"
	CertifiedTrue  Certified = "true"
	CertifiedFalse Certified = "false"
)

// EncodeValues implements query.Encoder so that "all" (and the unset zero
// value) produce no certified key at all.
func (c Certified) EncodeValues(key string, v *url.Values) error {
	if c == "" || c == CertifiedAll {
		return nil
	}
	v.Set(key, string(c))
	return nil
}

// Criteria is the filter UI state. Text fields are optional; whitespace-only
// values are treated as absent. Categories keep their insertion order and
// serialize comma-joined under a single key.
type Criteria struct {
	Country    string    `url:"country,omitempty"`
	State      string    `url:"state,omitempty"`
	City       string    `url:"city,omitempty"`
	Certified  Certified `url:"certified"`
	Categories []string  `url:"category,comma,omitempty"`
}

func (c Criteria) normalized() Criteria {
	c.Country = strings.TrimSpace(c.Country)
	c.State = strings.TrimSpace(c.State)
	c.City = strings.TrimSpace(c.City)

	categories := make([]string, 0, len(c.Categories))
	for _, cat := range c.Categories {
		if cat = strings.TrimSpace(cat); cat != "" {
			categories = append(categories, cat)
		}
	}
	c.Categories = categories
	return c
}

// BuildQuery turns criteria into the remote query parameters. It is pure and
// deterministic: blank text fields, certified "all", and an empty category
// selection are all dropped.
func BuildQuery(c Criteria) (url.Values, error) {
	return query.Values(c.normalized())
}
