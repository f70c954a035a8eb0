package collector

import (
	"context"
	"fmt"
)

// ReferenceEntry is one code's display label and optional color.
type ReferenceEntry struct {
	Label string `json:"label"`
	Color string `json:"color,omitempty"`
}

// ReferenceSet maps category -> code -> entry for one collector run.
// It is fetched fresh at the start of every run and embedded in the
// snapshot; it is never persisted on its own.
type ReferenceSet map[string]map[string]ReferenceEntry

// referenceEndpoints lists the enumerations every run needs. Label
// resolution degrades silently to raw codes, so a partial set would be
// indistinguishable from a complete one; that is why any failure here
// aborts the whole run.
var referenceEndpoints = []struct {
	category string
	path     string
}{
	{"moods", "/api/moods"},
	{"statuses", "/api/statuses"},
	{"risk_levels", "/api/risk-levels"},
}

// FetchReferenceData retrieves every reference category. Failure of any
// single category is fatal.
func (c *Client) FetchReferenceData(ctx context.Context) (ReferenceSet, error) {
	refs := make(ReferenceSet, len(referenceEndpoints))
	for _, ep := range referenceEndpoints {
		items, err := c.FetchAllPages(ctx, ep.path, nil)
		if err != nil {
			return nil, fmt.Errorf("fetch reference category %s: %w", ep.category, err)
		}
		entries := make(map[string]ReferenceEntry, len(items))
		for _, item := range items {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			code := firstString(m, "code", "id", "key")
			if code == "" {
				continue
			}
			entries[code] = ReferenceEntry{
				Label: firstString(m, "label", "name", "title"),
				Color: firstString(m, "color"),
			}
		}
		refs[ep.category] = entries
	}
	return refs, nil
}

// Resolve returns the display label for a code, or the raw code when
// the category or code is unknown.
func (r ReferenceSet) Resolve(category, code string) string {
	if code == "" {
		return ""
	}
	if entries, ok := r[category]; ok {
		if e, ok := entries[code]; ok && e.Label != "" {
			return e.Label
		}
	}
	return code
}

// Color returns the color associated with a code, if any.
func (r ReferenceSet) Color(category, code string) string {
	if entries, ok := r[category]; ok {
		return entries[code].Color
	}
	return ""
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case int64:
			return fmt.Sprintf("%d", v)
		case float64:
			return fmt.Sprintf("%g", v)
		}
	}
	return ""
}
